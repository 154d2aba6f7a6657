package planner

import (
	"context"
	"fmt"

	"github.com/wricardo/mcp-training/gridplanner/game/engine"
)

// Status is the kind of outcome a planner run produced.
type Status string

const (
	Success Status = "success"
	Failure Status = "failure"
)

// Outcome is the result of one planner run. Plan is set only on success.
type Outcome struct {
	Status   Status      `json:"status"`
	Plan     engine.Plan `json:"plan,omitempty"`
	Reason   string      `json:"reason,omitempty"`
	Reward   float64     `json:"reward"`
	Explored int         `json:"explored"`
}

// Succeeded reports whether a plan was found.
func (o Outcome) Succeeded() bool {
	return o.Status == Success
}

// Planner finds a plan of at most horizon steps from start to a state that
// satisfies goal. Failing to find one is an Outcome; an error means the
// world model is broken or ctx was cancelled.
type Planner interface {
	Resolve(ctx context.Context, wm engine.WorldModel, start, goal engine.State, horizon int) (Outcome, error)
}

// BreadthFirst expands the state graph one layer per step. The first layer
// holding a goal state wins, so plans are shortest. Among equally short
// plans it keeps the higher cumulative reward, then the earlier action order.
type BreadthFirst struct{}

// NewBreadthFirst returns the default planner.
func NewBreadthFirst() *BreadthFirst {
	return &BreadthFirst{}
}

// Resolve runs a BreadthFirst planner.
func Resolve(ctx context.Context, wm engine.WorldModel, start, goal engine.State, horizon int) (Outcome, error) {
	return NewBreadthFirst().Resolve(ctx, wm, start, goal, horizon)
}

// node is one entry of the search tree.
type node struct {
	state  *engine.State
	parent *node
	action engine.Action
	reward float64
}

func (n *node) plan() engine.Plan {
	var plan engine.Plan
	for cur := n; cur.parent != nil; cur = cur.parent {
		plan = append(plan, engine.Step{State: cur.parent.state, Action: cur.action})
	}
	for i, j := 0, len(plan)-1; i < j; i, j = i+1, j-1 {
		plan[i], plan[j] = plan[j], plan[i]
	}
	if plan == nil {
		plan = engine.Plan{}
	}
	return plan
}

// layer is the set of states first reached at one depth, in discovery order.
type layer struct {
	nodes []*node
	index map[engine.Key]*node
}

func newLayer() *layer {
	return &layer{index: make(map[engine.Key]*node)}
}

// offer records reaching s via parent and a. An existing entry is replaced
// only by a strictly higher reward.
func (l *layer) offer(s *engine.State, parent *node, a engine.Action, reward float64) {
	k := s.Key()
	if existing, ok := l.index[k]; ok {
		if reward > existing.reward {
			existing.parent = parent
			existing.action = a
			existing.reward = reward
		}
		return
	}
	n := &node{state: s, parent: parent, action: a, reward: reward}
	l.index[k] = n
	l.nodes = append(l.nodes, n)
}

func (p *BreadthFirst) Resolve(ctx context.Context, wm engine.WorldModel, start, goal engine.State, horizon int) (Outcome, error) {
	if horizon < 0 {
		return Outcome{}, fmt.Errorf("%w: negative horizon %d", engine.ErrInvalidProblem, horizon)
	}

	root, ok := wm.Lookup(start)
	if !ok {
		return Outcome{
			Status: Failure,
			Reason: fmt.Sprintf("start %s is not in the state set", start),
		}, nil
	}

	current := newLayer()
	current.offer(root, nil, engine.Still, 0)
	seen := map[engine.Key]bool{root.Key(): true}

	if best := bestGoal(wm, current, &goal); best != nil {
		return success(best, len(seen)), nil
	}

	for depth := 1; depth <= horizon; depth++ {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		next := newLayer()
		for _, n := range current.nodes {
			for _, a := range wm.Actions(n.state) {
				succ, err := wm.Transition(n.state, a)
				if err != nil {
					return Outcome{}, fmt.Errorf("expand %s: %w", n.state, err)
				}
				if seen[succ.Key()] {
					continue
				}
				next.offer(succ, n, a, n.reward+wm.Reward(n.state, a))
			}
		}

		if len(next.nodes) == 0 {
			return Outcome{
				Status:   Failure,
				Reason:   fmt.Sprintf("goal unreachable: search exhausted after %d steps", depth-1),
				Explored: len(seen),
			}, nil
		}
		for _, n := range next.nodes {
			seen[n.state.Key()] = true
		}

		if best := bestGoal(wm, next, &goal); best != nil {
			return success(best, len(seen)), nil
		}
		current = next
	}

	return Outcome{
		Status:   Failure,
		Reason:   fmt.Sprintf("goal not reached within horizon %d", horizon),
		Explored: len(seen),
	}, nil
}

// bestGoal returns the goal node of l with the highest reward, the earliest
// discovered on ties.
func bestGoal(wm engine.WorldModel, l *layer, goal *engine.State) *node {
	var best *node
	for _, n := range l.nodes {
		if !wm.Satisfies(n.state, goal) {
			continue
		}
		if best == nil || n.reward > best.reward {
			best = n
		}
	}
	return best
}

func success(n *node, explored int) Outcome {
	return Outcome{
		Status:   Success,
		Plan:     n.plan(),
		Reward:   n.reward,
		Explored: explored,
	}
}
