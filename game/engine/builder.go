package engine

import (
	"context"
	"fmt"
	"time"
)

// ctxCheckInterval is how many frontier pops happen between context checks.
const ctxCheckInterval = 1024

// BuildStats summarises one state-space construction.
type BuildStats struct {
	States   int           `json:"states"`
	Expanded int           `json:"expanded"`
	Pushes   int           `json:"pushes"`
	Duration time.Duration `json:"duration"`
}

// Builder enumerates the states reachable on a grid. A Builder holds only
// options; every Build call owns a fresh table and frontier.
type Builder struct {
	grid      *Grid
	maxStates int
	goalSeeds bool
}

// NewBuilder returns a builder for g with the default node budget.
func NewBuilder(g *Grid) *Builder {
	return &Builder{
		grid:      g,
		maxStates: DefaultMaxStates,
		goalSeeds: true,
	}
}

// WithMaxStates sets the node budget. Values below 1 keep the default.
func (b *Builder) WithMaxStates(n int) *Builder {
	if n >= MinMaxStates {
		b.maxStates = n
	}
	return b
}

// WithGoalSeeds controls whether Sokoban construction also seeds the frontier
// with the solved box arrangement, agent adjacent to a box.
func (b *Builder) WithGoalSeeds(enabled bool) *Builder {
	b.goalSeeds = enabled
	return b
}

// MaxStates returns the node budget.
func (b *Builder) MaxStates() int {
	return b.maxStates
}

// frontier is a FIFO worklist of canonical states.
type frontier struct {
	items []*State
	head  int
}

func (f *frontier) push(s *State) { f.items = append(f.items, s) }

func (f *frontier) pop() (*State, bool) {
	if f.head >= len(f.items) {
		return nil, false
	}
	s := f.items[f.head]
	f.items[f.head] = nil
	f.head++
	return s, true
}

// admit inserts s and queues it if new. It fails once the table exceeds the
// budget.
func (b *Builder) admit(table *StateTable, work *frontier, s State) (bool, error) {
	canonical, added := table.insert(s)
	if !added {
		return false, nil
	}
	if table.Len() > b.maxStates {
		return false, fmt.Errorf("%w: more than %d states", ErrStateSpaceTooLarge, b.maxStates)
	}
	work.push(canonical)
	return true, nil
}

// BuildNavigation enumerates every free cell 4-connected to goal.
func (b *Builder) BuildNavigation(ctx context.Context, goal Cell) (*StateTable, BuildStats, error) {
	started := time.Now()
	var stats BuildStats

	if b.grid.IsObstacle(goal) {
		return nil, stats, fmt.Errorf("%w: goal %s is an obstacle", ErrInvalidProblem, goal)
	}

	table := newStateTable(64)
	work := &frontier{}
	if _, err := b.admit(table, work, State{Agent: goal}); err != nil {
		return nil, stats, err
	}

	for {
		cur, ok := work.pop()
		if !ok {
			break
		}
		if stats.Expanded%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}
		stats.Expanded++

		for _, d := range Directions {
			next := cur.Agent.Step(d)
			if b.grid.IsObstacle(next) {
				continue
			}
			if _, err := b.admit(table, work, State{Agent: next}); err != nil {
				stats.States = table.Len()
				return nil, stats, err
			}
		}
	}

	stats.States = table.Len()
	stats.Duration = time.Since(started)
	return table, stats, nil
}

// BuildSokoban enumerates the states reachable from the start state and,
// when goal seeding is on, from the solved arrangement of boxes on targets.
func (b *Builder) BuildSokoban(ctx context.Context, agent Cell, boxes, targets []Cell) (*StateTable, BuildStats, error) {
	started := time.Now()
	var stats BuildStats

	if len(boxes) != len(targets) {
		return nil, stats, fmt.Errorf("%w: %d boxes, %d targets", ErrBoxTargetMismatch, len(boxes), len(targets))
	}
	start, err := b.sokobanState(agent, boxes)
	if err != nil {
		return nil, stats, err
	}

	table := newStateTable(1024)
	work := &frontier{}
	if _, err := b.admit(table, work, start); err != nil {
		return nil, stats, err
	}

	if b.goalSeeds {
		seeds, err := b.goalArrangements(targets)
		if err != nil {
			return nil, stats, err
		}
		for _, s := range seeds {
			if _, err := b.admit(table, work, s); err != nil {
				stats.States = table.Len()
				return nil, stats, err
			}
		}
	}

	for {
		cur, ok := work.pop()
		if !ok {
			break
		}
		if stats.Expanded%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}
		stats.Expanded++

		for _, d := range Directions {
			next, pushed, legal := successor(b.grid, *cur, d)
			if !legal {
				continue
			}
			if pushed {
				stats.Pushes++
			}
			if _, err := b.admit(table, work, next); err != nil {
				stats.States = table.Len()
				return nil, stats, err
			}
		}
	}

	stats.States = table.Len()
	stats.Duration = time.Since(started)
	return table, stats, nil
}

// sokobanState checks the placement of agent and boxes against the grid.
func (b *Builder) sokobanState(agent Cell, boxes []Cell) (State, error) {
	if b.grid.IsObstacle(agent) {
		return State{}, fmt.Errorf("%w: agent %s is on an obstacle", ErrInvalidProblem, agent)
	}
	for _, c := range boxes {
		if b.grid.IsObstacle(c) {
			return State{}, fmt.Errorf("%w: box %s is on an obstacle", ErrInvalidProblem, c)
		}
		if c == agent {
			return State{}, fmt.Errorf("%w: agent and box share %s", ErrInvalidProblem, c)
		}
	}
	config, err := NewBoxConfiguration(boxes)
	if err != nil {
		return State{}, err
	}
	return State{Agent: agent, Boxes: config}, nil
}

// goalArrangements returns one state per free cell next to a box in the
// arrangement that puts a box on every target.
func (b *Builder) goalArrangements(targets []Cell) ([]State, error) {
	for _, c := range targets {
		if b.grid.IsObstacle(c) {
			return nil, fmt.Errorf("%w: target %s is an obstacle", ErrInvalidProblem, c)
		}
	}
	config, err := NewBoxConfiguration(targets)
	if err != nil {
		return nil, err
	}

	var seeds []State
	for _, box := range config.cells {
		for _, d := range Directions {
			c := box.Step(d)
			if b.grid.IsObstacle(c) || config.Has(c) {
				continue
			}
			seeds = append(seeds, State{Agent: c, Boxes: config})
		}
	}
	return seeds, nil
}
