package service

import (
	"time"

	"github.com/wricardo/mcp-training/gridplanner/game/engine"
)

// Status classifies how a solve ended
type Status string

const (
	StatusSolved             Status = "solved"
	StatusNoPlan             Status = "no_plan"
	StatusStateSpaceTooLarge Status = "state_space_too_large"
)

// NoPlanMessage is reported whenever the planner fails.
const NoPlanMessage = "No plan could be found."

// SolveRequest selects a level, or supplies an inline layout, plus optional
// overrides. Zero values fall back to the level's settings.
type SolveRequest struct {
	Level     string   `json:"level,omitempty"`
	Layout    []string `json:"layout,omitempty"`
	Variant   string   `json:"variant,omitempty"`
	Horizon   int      `json:"horizon,omitempty"`
	MaxStates int      `json:"max_states,omitempty"`
}

// PlanStep is one plan element flattened for transport
type PlanStep struct {
	Index  int           `json:"index"`
	Agent  engine.Cell   `json:"agent"`
	Boxes  []engine.Cell `json:"boxes,omitempty"`
	Action engine.Action `json:"action"`
}

// SolveResult contains the result of a solve operation
type SolveResult struct {
	RunID     string            `json:"run_id,omitempty"`
	Level     string            `json:"level"`
	Variant   engine.Variant    `json:"variant"`
	Status    Status            `json:"status"`
	Message   string            `json:"message"`
	Reason    string            `json:"reason,omitempty"`
	Path      *engine.Path      `json:"path,omitempty"`
	Compact   string            `json:"compact,omitempty"`
	Plan      []PlanStep        `json:"plan,omitempty"`
	Reward    float64           `json:"reward"`
	Horizon   int               `json:"horizon"`
	MaxStates int               `json:"max_states"`
	Stats     engine.BuildStats `json:"stats"`
	Explored  int               `json:"explored"`
	View      engine.RenderView `json:"view"`
	Duration  time.Duration     `json:"duration"`
}

// Solved reports whether a path was found.
func (r *SolveResult) Solved() bool {
	return r.Status == StatusSolved
}

// Run is the stored record of one solve
type Run struct {
	ID        string         `json:"id"`
	Level     string         `json:"level"`
	Variant   engine.Variant `json:"variant"`
	Status    Status         `json:"status"`
	Message   string         `json:"message"`
	Path      *engine.Path   `json:"path,omitempty"`
	States    int            `json:"states"`
	Explored  int            `json:"explored"`
	Horizon   int            `json:"horizon"`
	MaxStates int            `json:"max_states"`
	CreatedAt time.Time      `json:"created_at"`
	Duration  time.Duration  `json:"duration"`
}

// LevelInfo provides information about a level
type LevelInfo struct {
	Filename    string         `json:"filename"`
	LevelID     string         `json:"level_id"` // The identifier to use in solve requests
	Name        string         `json:"name"`     // Display name
	Description string         `json:"description"`
	Variant     engine.Variant `json:"variant"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	Boxes       int            `json:"boxes"`
	Targets     int            `json:"targets"`
}

// NewLevelInfo summarises a validated level.
func NewLevelInfo(filename, id string, level *engine.LevelConfig) (*LevelInfo, error) {
	p, err := level.Problem()
	if err != nil {
		return nil, err
	}
	return &LevelInfo{
		Filename:    filename,
		LevelID:     id,
		Name:        level.Name,
		Description: level.Description,
		Variant:     level.EffectiveVariant(p),
		Width:       p.Grid.Width(),
		Height:      p.Grid.Height(),
		Boxes:       len(p.Boxes),
		Targets:     len(p.Targets),
	}, nil
}
