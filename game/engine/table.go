package engine

import "fmt"

// StateTable holds the canonical instance of every state admitted by a
// Builder, indexed by Key. Only the builder inserts; once returned the table
// is read-only.
type StateTable struct {
	index map[Key]*State
	order []*State
}

func newStateTable(capacity int) *StateTable {
	return &StateTable{
		index: make(map[Key]*State, capacity),
		order: make([]*State, 0, capacity),
	}
}

// insert admits s unless an equal state exists. It returns the canonical
// instance and whether s was new.
func (t *StateTable) insert(s State) (*State, bool) {
	k := s.Key()
	if existing, ok := t.index[k]; ok {
		return existing, false
	}
	canonical := &s
	t.index[k] = canonical
	t.order = append(t.order, canonical)
	return canonical, true
}

// Len returns the number of states.
func (t *StateTable) Len() int {
	return len(t.order)
}

// Lookup returns the canonical state for k.
func (t *StateTable) Lookup(k Key) (*State, bool) {
	s, ok := t.index[k]
	return s, ok
}

// Canonical returns the table's instance of s.
func (t *StateTable) Canonical(s State) (*State, bool) {
	return t.Lookup(s.Key())
}

// Contains reports whether s was admitted.
func (t *StateTable) Contains(s State) bool {
	_, ok := t.index[s.Key()]
	return ok
}

// States returns the states in admission order.
func (t *StateTable) States() []*State {
	out := make([]*State, len(t.order))
	copy(out, t.order)
	return out
}

// Each calls fn for every state in admission order until fn returns false.
func (t *StateTable) Each(fn func(*State) bool) {
	for _, s := range t.order {
		if !fn(s) {
			return
		}
	}
}

// resolve maps a computed successor onto its canonical instance. A miss means
// the builder and the transition rules disagree.
func (t *StateTable) resolve(next State) (*State, error) {
	s, ok := t.index[next.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: successor %s missing", ErrInvariantViolation, next)
	}
	return s, nil
}
