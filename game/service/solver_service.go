package service

import (
	"context"
	"errors"

	"github.com/wricardo/mcp-training/gridplanner/game/engine"
)

var (
	ErrLevelNotFound  = errors.New("level not found")
	ErrInvalidLevel   = errors.New("invalid level")
	ErrInvalidRequest = errors.New("invalid solve request")
	ErrRunNotFound    = errors.New("run not found")
	ErrNoDefaultLevel = errors.New("no default level configured")
)

// SolverService defines all planning operations
type SolverService interface {
	// Planning
	Solve(ctx context.Context, req SolveRequest) (*SolveResult, error)

	// Levels
	ListLevels(ctx context.Context) ([]*LevelInfo, error)
	GetLevel(ctx context.Context, name string) (*engine.LevelConfig, error)
	SaveLevel(ctx context.Context, name string, level *engine.LevelConfig) error

	// Run history
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context) ([]*Run, error)
	DeleteRun(ctx context.Context, id string) error
}

// LevelManager handles level loading
type LevelManager interface {
	LoadLevel(name string) (*engine.LevelConfig, error)
	ListLevels() ([]*LevelInfo, error)
	GetDefault() *engine.LevelConfig
	SaveLevel(name string, level *engine.LevelConfig) error
}

// RunManager defines run record storage operations
type RunManager interface {
	Create(run *Run) (*Run, error)
	Get(id string) (*Run, error)
	List() []*Run
	Delete(id string) error
}
