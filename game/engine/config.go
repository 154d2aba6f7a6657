package engine

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LevelConfig is a named puzzle as stored on disk.
type LevelConfig struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Variant     Variant  `json:"variant,omitempty"`
	Layout      []string `json:"layout"`
	Horizon     int      `json:"horizon,omitempty"`
	MaxStates   int      `json:"max_states,omitempty"`
}

// Problem parses the level's layout.
func (c *LevelConfig) Problem() (*Problem, error) {
	return ParseLayout(c.Layout)
}

// EffectiveVariant returns the configured variant, or the one inferred from
// the layout when none is set.
func (c *LevelConfig) EffectiveVariant(p *Problem) Variant {
	if c.Variant != "" {
		return c.Variant
	}
	return p.Variant()
}

// EffectiveHorizon returns the configured horizon or DefaultHorizon.
func (c *LevelConfig) EffectiveHorizon() int {
	if c.Horizon > 0 {
		return c.Horizon
	}
	return DefaultHorizon
}

// EffectiveMaxStates returns the configured node budget or DefaultMaxStates.
func (c *LevelConfig) EffectiveMaxStates() int {
	if c.MaxStates > 0 {
		return c.MaxStates
	}
	return DefaultMaxStates
}

// ValidateLevelConfig checks a level for well-formedness and solvability
// preconditions. Problem errors are wrapped so errors.Is still matches them.
func ValidateLevelConfig(config *LevelConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: level is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if len(config.Layout) == 0 {
		return fmt.Errorf("config validation: layout is required")
	}
	if config.Variant != "" {
		if _, err := ParseVariant(string(config.Variant)); err != nil {
			return fmt.Errorf("config validation: %v", err)
		}
	}
	if config.Horizon < MinHorizon || config.Horizon > MaxHorizon {
		return fmt.Errorf("config validation: horizon must be between %d and %d, got %d", MinHorizon, MaxHorizon, config.Horizon)
	}
	if config.MaxStates != 0 && (config.MaxStates < MinMaxStates || config.MaxStates > MaxMaxStates) {
		return fmt.Errorf("config validation: max_states must be between %d and %d, got %d", MinMaxStates, MaxMaxStates, config.MaxStates)
	}

	p, err := config.Problem()
	if err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if err := p.Validate(config.EffectiveVariant(p)); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}

// LoadLevelConfig loads a level from a JSON file or a raw .txt map. A raw map
// is named after its file.
func LoadLevelConfig(filename string) (*LevelConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMapNotFound, filename, err)
	}

	var config *LevelConfig
	if strings.EqualFold(filepath.Ext(filename), ".txt") {
		name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
		config = LevelFromMap(name, splitLines(data))
	} else {
		config = &LevelConfig{}
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse level file '%s': %v", filename, err)
		}
	}

	if err := ValidateLevelConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LevelFromMap wraps raw map rows in a level with default settings.
func LevelFromMap(name string, lines []string) *LevelConfig {
	return &LevelConfig{
		Name:        name,
		Description: fmt.Sprintf("Raw map %s", name),
		Layout:      lines,
	}
}

func splitLines(data []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
