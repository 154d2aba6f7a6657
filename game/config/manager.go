package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/gridplanner/game/engine"
	"github.com/wricardo/mcp-training/gridplanner/game/service"
)

var (
	ErrLevelNotFound = service.ErrLevelNotFound
	ErrInvalidLevel  = service.ErrInvalidLevel
)

// levelExtensions are the file types a level can be stored as, in lookup order.
var levelExtensions = []string{".json", ".txt"}

// DefaultLevelName is loaded as the default level when present.
const DefaultLevelName = "classic"

// Manager handles level loading and caching
type Manager struct {
	levelDir     string
	defaultLevel *engine.LevelConfig
	levels       map[string]*engine.LevelConfig
	mu           sync.RWMutex
}

// NewManager creates a new level manager
func NewManager(levelDir string) (*Manager, error) {
	// Ensure level directory exists
	if _, err := os.Stat(levelDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("level directory does not exist: %s", levelDir)
	}

	m := &Manager{
		levelDir: levelDir,
		levels:   make(map[string]*engine.LevelConfig),
	}

	if err := m.loadDefaultLevel(); err != nil {
		return nil, fmt.Errorf("failed to load default level: %w", err)
	}

	return m, nil
}

// LoadLevel loads a level by ID: its file name with or without extension
func (m *Manager) LoadLevel(name string) (*engine.LevelConfig, error) {
	id := levelID(name)
	if err := checkLevelID(id); err != nil {
		return nil, err
	}

	m.mu.RLock()
	// Check cache first
	if level, exists := m.levels[id]; exists {
		m.mu.RUnlock()
		return level, nil
	}
	m.mu.RUnlock()

	// Load from file
	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if level, exists := m.levels[id]; exists {
		return level, nil
	}

	path, ok := m.findLevelFile(name)
	if !ok {
		return nil, ErrLevelNotFound
	}

	level, err := engine.LoadLevelConfig(path)
	if err != nil {
		if errors.Is(err, engine.ErrMapNotFound) {
			return nil, ErrLevelNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}

	m.levels[id] = level
	return level, nil
}

// findLevelFile resolves name to an existing file in the level directory.
func (m *Manager) findLevelFile(name string) (string, bool) {
	if ext := filepath.Ext(name); ext != "" && isLevelExtension(ext) {
		path := filepath.Join(m.levelDir, name)
		_, err := os.Stat(path)
		return path, err == nil
	}
	for _, ext := range levelExtensions {
		path := filepath.Join(m.levelDir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// ListLevels returns information about all loadable levels
func (m *Manager) ListLevels() ([]*service.LevelInfo, error) {
	entries, err := os.ReadDir(m.levelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read level directory: %w", err)
	}

	var levels []*service.LevelInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !isLevelExtension(filepath.Ext(entry.Name())) {
			continue
		}

		id := levelID(entry.Name())
		if seen[id] {
			continue
		}

		level, err := m.LoadLevel(entry.Name())
		if err != nil {
			// Skip invalid levels
			log.Printf("Warning: skipping level %s: %v", entry.Name(), err)
			continue
		}

		info, err := service.NewLevelInfo(entry.Name(), id, level)
		if err != nil {
			log.Printf("Warning: skipping level %s: %v", entry.Name(), err)
			continue
		}
		seen[id] = true
		levels = append(levels, info)
	}

	return levels, nil
}

// GetDefault returns the default level
func (m *Manager) GetDefault() *engine.LevelConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultLevel
}

// SetDefault sets the default level by name
func (m *Manager) SetDefault(name string) error {
	level, err := m.LoadLevel(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultLevel = level
	return nil
}

// RefreshCache drops cached levels and reloads the default from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.levels = make(map[string]*engine.LevelConfig)
	m.mu.Unlock()

	return m.loadDefaultLevel()
}

// loadDefaultLevel loads the default level
func (m *Manager) loadDefaultLevel() error {
	level, err := m.LoadLevel(DefaultLevelName)
	if err != nil {
		// Fall back to the first available level
		levels, listErr := m.ListLevels()
		if listErr != nil || len(levels) == 0 {
			level = createMinimalLevel()
		} else if level, err = m.LoadLevel(levels[0].Filename); err != nil {
			level = createMinimalLevel()
		}
	}

	m.mu.Lock()
	m.defaultLevel = level
	m.mu.Unlock()
	return nil
}

// SaveLevel writes a level to disk as JSON
func (m *Manager) SaveLevel(name string, level *engine.LevelConfig) error {
	id := levelID(name)
	if err := checkLevelID(id); err != nil {
		return err
	}

	// Validate level before saving
	if err := engine.ValidateLevelConfig(level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}

	data, err := json.MarshalIndent(level, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal level: %w", err)
	}

	path := filepath.Join(m.levelDir, id+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write level file: %w", err)
	}

	// Update cache
	m.mu.Lock()
	m.levels[id] = level
	m.mu.Unlock()

	return nil
}

// levelID strips a known level extension from name.
func levelID(name string) string {
	ext := filepath.Ext(name)
	if isLevelExtension(ext) {
		return strings.TrimSuffix(name, ext)
	}
	return name
}

// checkLevelID rejects IDs that would escape the level directory.
func checkLevelID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: bad level name %q", ErrInvalidLevel, id)
	}
	return nil
}

func isLevelExtension(ext string) bool {
	for _, e := range levelExtensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// createMinimalLevel creates a minimal valid level
func createMinimalLevel() *engine.LevelConfig {
	return &engine.LevelConfig{
		Name:        "default",
		Description: "Default minimal level",
		Variant:     engine.Navigation,
		Layout: []string{
			"#####",
			"#@ .#",
			"#####",
		},
	}
}
