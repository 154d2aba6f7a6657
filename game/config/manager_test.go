package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/mcp-training/gridplanner/game/engine"
)

func createValidLevel() *engine.LevelConfig {
	return &engine.LevelConfig{
		Name:        "Test Level",
		Description: "Test level",
		Variant:     engine.Sokoban,
		Layout: []string{
			"#####",
			"#@$.#",
			"#####",
		},
		Horizon: 10,
	}
}

func writeLevelFile(t *testing.T, dir, name string, level *engine.LevelConfig) {
	t.Helper()
	data, err := json.MarshalIndent(level, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal level: %v", err)
	}

	filename := name
	if filepath.Ext(filename) == "" {
		filename = name + ".json"
	}

	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		t.Fatalf("Failed to write level file: %v", err)
	}
}

func writeRawMap(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write map file: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		dir := t.TempDir()
		level := createValidLevel()
		level.Name = "Classic"
		writeLevelFile(t, dir, DefaultLevelName, level)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "Classic" {
			t.Errorf("Expected classic as default, got %s", manager.GetDefault().Name)
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		_, err := NewManager("/non/existent/path")
		if err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		manager, err := NewManager(t.TempDir())
		if err != nil {
			t.Fatalf("NewManager should succeed without level files, got: %v", err)
		}
		defaultLevel := manager.GetDefault()
		if defaultLevel == nil {
			t.Fatal("Expected a minimal default level")
		}
		if err := engine.ValidateLevelConfig(defaultLevel); err != nil {
			t.Errorf("Minimal default level is invalid: %v", err)
		}
	})

	t.Run("falls back to first level", func(t *testing.T) {
		dir := t.TempDir()
		writeRawMap(t, dir, "alpha.txt", "@ .\n")

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "alpha" {
			t.Errorf("Expected alpha as default, got %s", manager.GetDefault().Name)
		}
	})
}

func TestManager_LoadLevel(t *testing.T) {
	dir := t.TempDir()
	writeLevelFile(t, dir, "corridor", createValidLevel())
	writeRawMap(t, dir, "open.txt", "#####\n#@ .#\n#####\n")
	writeRawMap(t, dir, "broken.json", "{")
	writeRawMap(t, dir, "mismatch.txt", "@$$.\n")

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("json level", func(t *testing.T) {
		level, err := manager.LoadLevel("corridor")
		if err != nil {
			t.Fatalf("Failed to load level: %v", err)
		}
		if level.Name != "Test Level" || level.Horizon != 10 {
			t.Errorf("Unexpected level %+v", level)
		}
	})

	t.Run("with extension", func(t *testing.T) {
		level, err := manager.LoadLevel("corridor.json")
		if err != nil {
			t.Fatalf("Failed to load level with extension: %v", err)
		}
		cached, _ := manager.LoadLevel("corridor")
		if level != cached {
			t.Error("Expected the same cached level for both names")
		}
	})

	t.Run("raw map", func(t *testing.T) {
		level, err := manager.LoadLevel("open")
		if err != nil {
			t.Fatalf("Failed to load raw map: %v", err)
		}
		if level.Name != "open" || len(level.Layout) != 3 {
			t.Errorf("Unexpected raw level %+v", level)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := manager.LoadLevel("non-existent")
		if !errors.Is(err, ErrLevelNotFound) {
			t.Errorf("Expected ErrLevelNotFound, got %v", err)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := manager.LoadLevel("broken")
		if !errors.Is(err, ErrInvalidLevel) {
			t.Errorf("Expected ErrInvalidLevel, got %v", err)
		}
	})

	t.Run("box target mismatch", func(t *testing.T) {
		_, err := manager.LoadLevel("mismatch")
		if !errors.Is(err, ErrInvalidLevel) {
			t.Errorf("Expected ErrInvalidLevel, got %v", err)
		}
	})

	t.Run("path traversal", func(t *testing.T) {
		_, err := manager.LoadLevel("../corridor")
		if !errors.Is(err, ErrInvalidLevel) {
			t.Errorf("Expected ErrInvalidLevel, got %v", err)
		}
	})
}

func TestManager_ListLevels(t *testing.T) {
	dir := t.TempDir()
	writeLevelFile(t, dir, "corridor", createValidLevel())
	writeRawMap(t, dir, "open.txt", "@ .\n")
	writeRawMap(t, dir, "broken.json", "{")
	writeRawMap(t, dir, "notes.md", "not a level")
	if err := os.Mkdir(filepath.Join(dir, "subdir.json"), 0755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	levels, err := manager.ListLevels()
	if err != nil {
		t.Fatalf("ListLevels: %v", err)
	}
	if len(levels) != 2 {
		t.Fatalf("Expected 2 valid levels, got %d", len(levels))
	}

	byID := make(map[string]bool)
	for _, l := range levels {
		byID[l.LevelID] = true
		if l.LevelID == "corridor" {
			if l.Variant != engine.Sokoban || l.Boxes != 1 || l.Targets != 1 || l.Width != 5 || l.Height != 3 {
				t.Errorf("Unexpected corridor info %+v", l)
			}
			if l.Filename != "corridor.json" {
				t.Errorf("Expected filename corridor.json, got %s", l.Filename)
			}
		}
		if l.LevelID == "open" && l.Variant != engine.Navigation {
			t.Errorf("Expected open to be navigation, got %s", l.Variant)
		}
	}
	if !byID["corridor"] || !byID["open"] {
		t.Errorf("Expected corridor and open, got %v", byID)
	}
}

func TestManager_SaveLevel(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	level := createValidLevel()
	if err := manager.SaveLevel("saved", level); err != nil {
		t.Fatalf("SaveLevel: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "saved.json")); err != nil {
		t.Errorf("Expected saved.json on disk: %v", err)
	}

	loaded, err := manager.LoadLevel("saved")
	if err != nil || loaded != level {
		t.Errorf("Expected cached level after save, got %v %v", loaded, err)
	}

	if err := manager.RefreshCache(); err != nil {
		t.Fatalf("RefreshCache: %v", err)
	}
	reloaded, err := manager.LoadLevel("saved")
	if err != nil {
		t.Fatalf("LoadLevel after refresh: %v", err)
	}
	if reloaded == level || reloaded.Name != level.Name {
		t.Error("Expected a fresh copy read from disk")
	}

	bad := createValidLevel()
	bad.Layout = []string{"@$$."}
	if err := manager.SaveLevel("bad", bad); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("Expected ErrInvalidLevel, got %v", err)
	}
	if err := manager.SaveLevel("a/b", level); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("Expected ErrInvalidLevel for nested name, got %v", err)
	}
}

func TestManager_SetDefault(t *testing.T) {
	dir := t.TempDir()
	writeLevelFile(t, dir, "corridor", createValidLevel())

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if err := manager.SetDefault("corridor"); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	if manager.GetDefault().Name != "Test Level" {
		t.Errorf("Expected corridor as default, got %s", manager.GetDefault().Name)
	}
	if err := manager.SetDefault("missing"); !errors.Is(err, ErrLevelNotFound) {
		t.Errorf("Expected ErrLevelNotFound, got %v", err)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	writeLevelFile(t, dir, "corridor", createValidLevel())
	writeRawMap(t, dir, "open.txt", "@ .\n")

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			if _, err := manager.LoadLevel("corridor"); err != nil {
				t.Errorf("LoadLevel: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := manager.ListLevels(); err != nil {
				t.Errorf("ListLevels: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			_ = manager.GetDefault()
		}()
	}
	wg.Wait()
}
