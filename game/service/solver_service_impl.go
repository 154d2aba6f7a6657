package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/gridplanner/game/engine"
	"github.com/wricardo/mcp-training/gridplanner/game/planner"
)

// inlineLevelName names levels supplied as a raw layout.
const inlineLevelName = "inline"

// solverServiceImpl implements the SolverService interface
type solverServiceImpl struct {
	levels  LevelManager
	runs    RunManager
	planner planner.Planner
}

// NewSolverService creates a new solver service. runs may be nil, in which
// case solves are not recorded.
func NewSolverService(levels LevelManager, runs RunManager) SolverService {
	return NewSolverServiceWithPlanner(levels, runs, planner.NewBreadthFirst())
}

// NewSolverServiceWithPlanner creates a solver service that plans with p.
func NewSolverServiceWithPlanner(levels LevelManager, runs RunManager, p planner.Planner) SolverService {
	return &solverServiceImpl{
		levels:  levels,
		runs:    runs,
		planner: p,
	}
}

// Solve runs the full pipeline for one request. Each call compiles its own
// state table, so concurrent solves share nothing.
func (s *solverServiceImpl) Solve(ctx context.Context, req SolveRequest) (*SolveResult, error) {
	started := time.Now()

	level, err := s.resolveLevel(req)
	if err != nil {
		return nil, err
	}

	problem, err := level.Problem()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	variant, err := engine.ParseVariant(req.Variant)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if variant == "" {
		variant = level.EffectiveVariant(problem)
	}

	horizon := level.EffectiveHorizon()
	if req.Horizon != 0 {
		horizon = req.Horizon
	}
	if horizon < engine.MinHorizon || horizon > engine.MaxHorizon {
		return nil, fmt.Errorf("%w: horizon must be between %d and %d, got %d", ErrInvalidRequest, engine.MinHorizon, engine.MaxHorizon, horizon)
	}

	maxStates := level.EffectiveMaxStates()
	if req.MaxStates != 0 {
		maxStates = req.MaxStates
	}
	if maxStates < engine.MinMaxStates || maxStates > engine.MaxMaxStates {
		return nil, fmt.Errorf("%w: max_states must be between %d and %d, got %d", ErrInvalidRequest, engine.MinMaxStates, engine.MaxMaxStates, maxStates)
	}

	sol, err := SolveProblem(ctx, s.planner, problem, variant, horizon, maxStates)
	if err != nil {
		return nil, fmt.Errorf("solve %s: %w", level.Name, err)
	}

	result := &SolveResult{
		Level:     level.Name,
		Variant:   sol.Variant,
		Status:    sol.Status,
		Message:   sol.Message,
		Reason:    sol.Reason,
		Path:      sol.Path,
		Plan:      PlanSteps(sol.Plan),
		Reward:    sol.Reward,
		Horizon:   horizon,
		MaxStates: maxStates,
		Stats:     sol.Stats,
		Explored:  sol.Explored,
		View:      engine.NewRenderView(problem, sol.Path),
		Duration:  time.Since(started),
	}
	if sol.Path != nil {
		result.Compact = sol.Path.String()
	}

	if s.runs != nil {
		run, err := s.runs.Create(&Run{
			Level:     result.Level,
			Variant:   result.Variant,
			Status:    result.Status,
			Message:   result.Message,
			Path:      result.Path,
			States:    result.Stats.States,
			Explored:  result.Explored,
			Horizon:   horizon,
			MaxStates: maxStates,
			CreatedAt: started,
			Duration:  result.Duration,
		})
		if err != nil {
			log.Printf("Warning: failed to record run for level %s: %v", level.Name, err)
		} else {
			result.RunID = run.ID
		}
	}

	log.Printf("solve level=%s variant=%s status=%s states=%d explored=%d duration=%s",
		result.Level, result.Variant, result.Status, result.Stats.States, result.Explored, result.Duration)

	return result, nil
}

// resolveLevel picks the inline layout, the named level or the default.
func (s *solverServiceImpl) resolveLevel(req SolveRequest) (*engine.LevelConfig, error) {
	if len(req.Layout) > 0 {
		name := req.Level
		if name == "" {
			name = inlineLevelName
		}
		return engine.LevelFromMap(name, req.Layout), nil
	}

	if req.Level == "" {
		level := s.levels.GetDefault()
		if level == nil {
			return nil, ErrNoDefaultLevel
		}
		return level, nil
	}

	level, err := s.levels.LoadLevel(req.Level)
	if err != nil {
		if errors.Is(err, ErrLevelNotFound) {
			return nil, s.levelNotFound(req.Level)
		}
		return nil, fmt.Errorf("failed to load level %s: %w", req.Level, err)
	}
	return level, nil
}

// levelNotFound lists the available level IDs in the error.
func (s *solverServiceImpl) levelNotFound(name string) error {
	available, err := s.levels.ListLevels()
	if err != nil || len(available) == 0 {
		return fmt.Errorf("%w: '%s'. Use /api/levels to list available levels", ErrLevelNotFound, name)
	}
	ids := make([]string, 0, len(available))
	for _, l := range available {
		ids = append(ids, l.LevelID)
	}
	return fmt.Errorf("%w: '%s'. Available levels: %s", ErrLevelNotFound, name, strings.Join(ids, ", "))
}

// ListLevels returns all loadable levels sorted by ID
func (s *solverServiceImpl) ListLevels(ctx context.Context) ([]*LevelInfo, error) {
	levels, err := s.levels.ListLevels()
	if err != nil {
		return nil, err
	}
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].LevelID < levels[j].LevelID
	})
	return levels, nil
}

// GetLevel loads a level by ID
func (s *solverServiceImpl) GetLevel(ctx context.Context, name string) (*engine.LevelConfig, error) {
	return s.levels.LoadLevel(name)
}

// SaveLevel validates and stores a level
func (s *solverServiceImpl) SaveLevel(ctx context.Context, name string, level *engine.LevelConfig) error {
	if name == "" {
		return fmt.Errorf("%w: level name is required", ErrInvalidLevel)
	}
	if err := engine.ValidateLevelConfig(level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLevel, err)
	}
	return s.levels.SaveLevel(name, level)
}

// GetRun retrieves a run record
func (s *solverServiceImpl) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.runs == nil {
		return nil, ErrRunNotFound
	}
	return s.runs.Get(id)
}

// ListRuns returns all run records, newest first
func (s *solverServiceImpl) ListRuns(ctx context.Context) ([]*Run, error) {
	if s.runs == nil {
		return []*Run{}, nil
	}
	runs := s.runs.List()
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs, nil
}

// DeleteRun removes a run record
func (s *solverServiceImpl) DeleteRun(ctx context.Context, id string) error {
	if s.runs == nil {
		return ErrRunNotFound
	}
	return s.runs.Delete(id)
}
