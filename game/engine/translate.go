package engine

import "strings"

// Step is one plan element: the state acted in and the action taken.
type Step struct {
	State  *State `json:"state"`
	Action Action `json:"action"`
}

// Plan is the ordered step sequence returned by a successful planner run.
type Plan []Step

// Actions returns the plan's actions in order.
func (p Plan) Actions() []Action {
	actions := make([]Action, len(p))
	for i, s := range p {
		actions[i] = s.Action
	}
	return actions
}

// Path is an origin cell plus the moves that leave it.
type Path struct {
	Origin     Cell     `json:"origin"`
	Directions []Action `json:"directions"`
}

// Translate turns a plan into a path. Still steps are dropped; every other
// action maps to one direction. An empty plan yields an empty path.
func Translate(plan Plan) Path {
	path := Path{Directions: make([]Action, 0, len(plan))}
	if len(plan) == 0 {
		return path
	}
	if plan[0].State != nil {
		path.Origin = plan[0].State.Agent
	}
	for _, step := range plan {
		if step.Action.IsMove() {
			path.Directions = append(path.Directions, step.Action)
		}
	}
	return path
}

// Len returns the number of directions.
func (p Path) Len() int {
	return len(p.Directions)
}

// Cells returns every cell the agent occupies, origin first.
func (p Path) Cells() []Cell {
	cells := make([]Cell, 0, len(p.Directions)+1)
	cur := p.Origin
	cells = append(cells, cur)
	for _, d := range p.Directions {
		cur = cur.Step(d)
		cells = append(cells, cur)
	}
	return cells
}

// End returns the last cell of the path.
func (p Path) End() Cell {
	cells := p.Cells()
	return cells[len(cells)-1]
}

// String renders the path compactly, e.g. "(0,0) E N".
func (p Path) String() string {
	var sb strings.Builder
	sb.WriteString(p.Origin.String())
	for _, d := range p.Directions {
		sb.WriteByte(' ')
		sb.WriteString(d.Short())
	}
	return sb.String()
}
