package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/wricardo/mcp-training/gridplanner/game/engine"
	"github.com/wricardo/mcp-training/gridplanner/game/planner"
)

// Solution is the outcome of running the pipeline on one problem.
type Solution struct {
	Variant  engine.Variant
	Status   Status
	Message  string
	Reason   string
	Path     *engine.Path
	Plan     engine.Plan
	Reward   float64
	Stats    engine.BuildStats
	Explored int
}

// SolveProblem builds the state space of problem, plans from its start to
// its goal within horizon steps and translates the plan. Invalid problems
// and broken world models are errors; an exhausted node budget or a failed
// plan are statuses.
func SolveProblem(ctx context.Context, pl planner.Planner, problem *engine.Problem, variant engine.Variant, horizon, maxStates int) (*Solution, error) {
	if pl == nil {
		pl = planner.NewBreadthFirst()
	}

	inst, err := engine.Compile(ctx, problem, variant, maxStates)
	if err != nil {
		if errors.Is(err, engine.ErrStateSpaceTooLarge) {
			sol := &Solution{
				Variant: variant,
				Status:  StatusStateSpaceTooLarge,
				Message: err.Error(),
			}
			if inst != nil {
				sol.Variant = inst.Variant
				sol.Stats = inst.Stats
			}
			return sol, nil
		}
		if isProblemError(err) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		return nil, err
	}

	outcome, err := pl.Resolve(ctx, inst.Model, inst.Start, inst.Goal, horizon)
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}

	sol := &Solution{
		Variant:  inst.Variant,
		Stats:    inst.Stats,
		Explored: outcome.Explored,
	}
	if !outcome.Succeeded() {
		sol.Status = StatusNoPlan
		sol.Message = NoPlanMessage
		sol.Reason = outcome.Reason
		return sol, nil
	}

	path := engine.Translate(outcome.Plan)
	if len(outcome.Plan) == 0 {
		// Start already satisfies the goal.
		path.Origin = inst.Start.Agent
	}
	sol.Status = StatusSolved
	sol.Message = fmt.Sprintf("Path found: %s", path)
	sol.Path = &path
	sol.Plan = outcome.Plan
	sol.Reward = outcome.Reward
	return sol, nil
}

func isProblemError(err error) bool {
	for _, target := range []error{
		engine.ErrNoAgent,
		engine.ErrNoTarget,
		engine.ErrBoxTargetMismatch,
		engine.ErrInvalidProblem,
		engine.ErrInvalidMap,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// PlanSteps flattens a plan for transport.
func PlanSteps(plan engine.Plan) []PlanStep {
	steps := make([]PlanStep, 0, len(plan))
	for i, step := range plan {
		ps := PlanStep{Index: i, Action: step.Action}
		if step.State != nil {
			ps.Agent = step.State.Agent
			ps.Boxes = step.State.Boxes.Cells()
		}
		steps = append(steps, ps)
	}
	return steps
}
