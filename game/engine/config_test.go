package engine

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func createValidLevel() *LevelConfig {
	return &LevelConfig{
		Name:        "corridor",
		Description: "Push one box along a corridor",
		Variant:     Sokoban,
		Layout: []string{
			"#####",
			"#@$.#",
			"#####",
		},
		Horizon:   10,
		MaxStates: 100,
	}
}

func TestValidateLevelConfig_Valid(t *testing.T) {
	if err := ValidateLevelConfig(createValidLevel()); err != nil {
		t.Errorf("expected valid level, got %v", err)
	}
}

func TestValidateLevelConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LevelConfig)
		message string
		is      error
	}{
		{"missing name", func(c *LevelConfig) { c.Name = "" }, "name is required", nil},
		{"missing layout", func(c *LevelConfig) { c.Layout = nil }, "layout is required", nil},
		{"bad variant", func(c *LevelConfig) { c.Variant = "chess" }, "unknown variant", nil},
		{"negative horizon", func(c *LevelConfig) { c.Horizon = -1 }, "horizon must be between", nil},
		{"huge horizon", func(c *LevelConfig) { c.Horizon = MaxHorizon + 1 }, "horizon must be between", nil},
		{"huge budget", func(c *LevelConfig) { c.MaxStates = MaxMaxStates + 1 }, "max_states must be between", nil},
		{"bad tile", func(c *LevelConfig) { c.Layout[1] = "#@x.#" }, "unknown tile", ErrInvalidMap},
		{"no agent", func(c *LevelConfig) { c.Layout[1] = "# $.#" }, "", ErrNoAgent},
		{"no target", func(c *LevelConfig) { c.Layout[1] = "#@$ #" }, "", ErrNoTarget},
		{"mismatch", func(c *LevelConfig) { c.Layout[1] = "#@$$.#" }, "", ErrBoxTargetMismatch},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := createValidLevel()
			test.mutate(config)
			err := ValidateLevelConfig(config)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if test.message != "" && !strings.Contains(err.Error(), test.message) {
				t.Errorf("expected error containing %q, got %v", test.message, err)
			}
			if test.is != nil && !errors.Is(err, test.is) {
				t.Errorf("expected %v in chain, got %v", test.is, err)
			}
		})
	}
}

func TestLevelConfig_Effective(t *testing.T) {
	config := &LevelConfig{Name: "open", Layout: []string{"@ ."}}
	p, err := config.Problem()
	if err != nil {
		t.Fatalf("Problem: %v", err)
	}

	if config.EffectiveVariant(p) != Navigation {
		t.Errorf("expected inferred navigation, got %s", config.EffectiveVariant(p))
	}
	if config.EffectiveHorizon() != DefaultHorizon {
		t.Errorf("expected default horizon, got %d", config.EffectiveHorizon())
	}
	if config.EffectiveMaxStates() != DefaultMaxStates {
		t.Errorf("expected default budget, got %d", config.EffectiveMaxStates())
	}
}

func TestLoadLevelConfig(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "corridor.json")
	jsonData := `{"name":"corridor","description":"d","variant":"sokoban","layout":["@$."],"horizon":5}`
	if err := os.WriteFile(jsonPath, []byte(jsonData), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	config, err := LoadLevelConfig(jsonPath)
	if err != nil {
		t.Fatalf("LoadLevelConfig(json): %v", err)
	}
	if config.Name != "corridor" || config.Variant != Sokoban || config.Horizon != 5 {
		t.Errorf("unexpected config %+v", config)
	}

	txtPath := filepath.Join(dir, "open_room.txt")
	if err := os.WriteFile(txtPath, []byte("#####\r\n#@ .#\r\n#####\r\n\r\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	config, err = LoadLevelConfig(txtPath)
	if err != nil {
		t.Fatalf("LoadLevelConfig(txt): %v", err)
	}
	if config.Name != "open_room" || len(config.Layout) != 3 || config.Layout[1] != "#@ .#" {
		t.Errorf("unexpected raw level %+v", config)
	}

	badPath := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(badPath, []byte("{"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadLevelConfig(badPath); err == nil {
		t.Error("expected parse error")
	}

	if _, err := LoadLevelConfig(filepath.Join(dir, "missing.json")); !errors.Is(err, ErrMapNotFound) {
		t.Errorf("expected ErrMapNotFound, got %v", err)
	}
}
