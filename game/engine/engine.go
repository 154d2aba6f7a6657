package engine

import (
	"context"
	"fmt"
)

// WorldModel is what a planner consumes: the closed state set, the
// transition and reward functions, the legal-action enumeration and a goal
// test. Every state Transition accepts or returns is in States.
type WorldModel interface {
	Variant() Variant
	States() *StateTable
	// Lookup returns the canonical instance of s.
	Lookup(s State) (*State, bool)
	// Actions returns the legal actions of s in the order North, South,
	// East, West, Still.
	Actions(s *State) []Action
	// Transition returns the canonical successor of s under a.
	Transition(s *State, a Action) (*State, error)
	Reward(s *State, a Action) float64
	// Satisfies reports whether s meets goal under the variant's goal test.
	Satisfies(s, goal *State) bool
}

// baseModel holds what both variants share: the grid and the table the
// successors are resolved against.
type baseModel struct {
	grid  *Grid
	table *StateTable
}

func (m baseModel) States() *StateTable {
	return m.table
}

func (m baseModel) Lookup(s State) (*State, bool) {
	return m.table.Canonical(s)
}

// transition resolves the successor of a legal action.
func (m baseModel) transition(s *State, a Action) (*State, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil state", ErrUnknownState)
	}
	if _, ok := m.table.Lookup(s.Key()); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownState, s)
	}
	next, _, ok := successor(m.grid, *s, a)
	if !ok {
		return nil, fmt.Errorf("%w: %s from %s", ErrIllegalAction, a, s)
	}
	return m.table.resolve(next)
}

// NavigationModel moves a lone agent toward a goal cell. Still is legal only
// on the goal, which is absorbing.
type NavigationModel struct {
	baseModel
	reward NavigationReward
}

// NewNavigationModel binds the navigation rules to a built table.
func NewNavigationModel(g *Grid, table *StateTable, goal Cell) *NavigationModel {
	return &NavigationModel{
		baseModel: baseModel{grid: g, table: table},
		reward:    NavigationReward{Goal: goal},
	}
}

func (m *NavigationModel) Variant() Variant { return Navigation }

// Goal returns the goal cell.
func (m *NavigationModel) Goal() Cell { return m.reward.Goal }

func (m *NavigationModel) legal(s *State, a Action) bool {
	if a == Still {
		return s.Agent == m.reward.Goal
	}
	return Legal(m.grid, *s, a)
}

func (m *NavigationModel) Actions(s *State) []Action {
	actions := make([]Action, 0, len(AllActions))
	for _, a := range AllActions {
		if m.legal(s, a) {
			actions = append(actions, a)
		}
	}
	return actions
}

func (m *NavigationModel) Transition(s *State, a Action) (*State, error) {
	if s != nil && !m.legal(s, a) {
		return nil, fmt.Errorf("%w: %s from %s", ErrIllegalAction, a, s)
	}
	return m.transition(s, a)
}

func (m *NavigationModel) Reward(s *State, a Action) float64 {
	return m.reward.Reward(s, a)
}

func (m *NavigationModel) Satisfies(s, goal *State) bool {
	return s.Agent == goal.Agent
}

// SokobanModel moves an agent that pushes boxes. Still is always legal.
type SokobanModel struct {
	baseModel
	reward SokobanReward
}

// NewSokobanModel binds the Sokoban rules to a built table.
func NewSokobanModel(g *Grid, table *StateTable, targets []Cell) *SokobanModel {
	return &SokobanModel{
		baseModel: baseModel{grid: g, table: table},
		reward:    NewSokobanReward(targets),
	}
}

func (m *SokobanModel) Variant() Variant { return Sokoban }

func (m *SokobanModel) Actions(s *State) []Action {
	return LegalActions(m.grid, *s)
}

func (m *SokobanModel) Transition(s *State, a Action) (*State, error) {
	return m.transition(s, a)
}

func (m *SokobanModel) Reward(s *State, a Action) float64 {
	return m.reward.Reward(s, a)
}

// Score returns the number of boxes of s on targets.
func (m *SokobanModel) Score(s *State) int {
	return m.reward.Score(s)
}

// Satisfies compares box arrangements only; where the agent stands does not
// matter.
func (m *SokobanModel) Satisfies(s, goal *State) bool {
	return s.Boxes.Equal(goal.Boxes)
}

// Instance is one compiled problem: the world model plus the start and goal
// states handed to the planner. Each Compile call owns its instance.
type Instance struct {
	Problem *Problem
	Variant Variant
	Model   WorldModel
	Start   State
	Goal    State
	Stats   BuildStats
}

// Compile validates p, builds its state space under v and binds the world
// model. An empty v uses the variant inferred from the map.
func Compile(ctx context.Context, p *Problem, v Variant, maxStates int) (*Instance, error) {
	if v == "" {
		v = p.Variant()
	}
	if err := p.Validate(v); err != nil {
		return nil, err
	}

	builder := NewBuilder(p.Grid).WithMaxStates(maxStates)
	inst := &Instance{Problem: p, Variant: v}

	switch v {
	case Navigation:
		goal, _ := p.Goal()
		table, stats, err := builder.BuildNavigation(ctx, goal)
		inst.Stats = stats
		if err != nil {
			return inst, err
		}
		inst.Model = NewNavigationModel(p.Grid, table, goal)
		inst.Start = State{Agent: p.Agent}
		inst.Goal = State{Agent: goal}

	case Sokoban:
		table, stats, err := builder.BuildSokoban(ctx, p.Agent, p.Boxes, p.Targets)
		inst.Stats = stats
		if err != nil {
			return inst, err
		}
		start, err := NewBoxConfiguration(p.Boxes)
		if err != nil {
			return inst, err
		}
		goal, err := NewBoxConfiguration(p.Targets)
		if err != nil {
			return inst, err
		}
		inst.Model = NewSokobanModel(p.Grid, table, p.Targets)
		inst.Start = State{Agent: p.Agent, Boxes: start}
		inst.Goal = State{Agent: p.Agent, Boxes: goal}
	}

	return inst, nil
}
