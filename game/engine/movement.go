package engine

// Legal reports whether a may be taken from s on g under the physical
// movement rules. A direction is illegal into an obstacle; into a box it is
// a push, legal only when the cell beyond the box is free of obstacles and
// boxes. Still is always physically legal; the navigation model narrows it
// further.
func Legal(g *Grid, s State, a Action) bool {
	_, _, ok := successor(g, s, a)
	return ok
}

// IsPush reports whether a from s is a legal push.
func IsPush(g *Grid, s State, a Action) bool {
	_, pushed, ok := successor(g, s, a)
	return ok && pushed
}

// successor computes the state reached by taking a from s. The returned
// state is a fresh value, not yet resolved against any table.
func successor(g *Grid, s State, a Action) (next State, pushed bool, ok bool) {
	if a == Still {
		return s, false, true
	}
	if !a.IsMove() {
		return State{}, false, false
	}

	dest := s.Agent.Step(a)
	if g.IsObstacle(dest) {
		return State{}, false, false
	}

	if !s.Boxes.Has(dest) {
		return State{Agent: dest, Boxes: s.Boxes}, false, true
	}

	beyond := dest.Step(a)
	if g.IsObstacle(beyond) || s.Boxes.Has(beyond) {
		return State{}, false, false
	}

	boxes, moved := s.Boxes.Move(dest, beyond)
	if !moved {
		return State{}, false, false
	}
	return State{Agent: dest, Boxes: boxes}, true, true
}

// LegalActions returns the physically legal actions of s in enumeration
// order, Still included.
func LegalActions(g *Grid, s State) []Action {
	actions := make([]Action, 0, len(AllActions))
	for _, a := range AllActions {
		if Legal(g, s, a) {
			actions = append(actions, a)
		}
	}
	return actions
}
