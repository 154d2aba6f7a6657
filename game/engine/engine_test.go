package engine

import (
	"context"
	"errors"
	"testing"
)

func compile(t *testing.T, v Variant, layout ...string) *Instance {
	t.Helper()
	inst, err := Compile(context.Background(), mustParse(t, layout...), v, DefaultMaxStates)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return inst
}

func TestCompile_InfersVariant(t *testing.T) {
	nav := compile(t, "", "@.")
	if nav.Variant != Navigation || nav.Model.Variant() != Navigation {
		t.Errorf("expected navigation, got %s", nav.Variant)
	}

	sok := compile(t, "", "@$.")
	if sok.Variant != Sokoban || sok.Model.Variant() != Sokoban {
		t.Errorf("expected sokoban, got %s", sok.Variant)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		variant  Variant
		layout   []string
		expected error
	}{
		{"no agent", "", []string{" ."}, ErrNoAgent},
		{"no target", "", []string{"@ "}, ErrNoTarget},
		{"more boxes than targets", Sokoban, []string{"@$$."}, ErrBoxTargetMismatch},
		{"more targets than boxes", Sokoban, []string{"@$.."}, ErrBoxTargetMismatch},
		{"navigation with boxes", Navigation, []string{"@$."}, ErrInvalidProblem},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Compile(context.Background(), mustParse(t, test.layout...), test.variant, DefaultMaxStates)
			if !errors.Is(err, test.expected) {
				t.Errorf("expected %v, got %v", test.expected, err)
			}
		})
	}
}

func TestNavigationModel_StillOnlyAtGoal(t *testing.T) {
	inst := compile(t, Navigation, "@ .")
	m := inst.Model

	start, ok := m.Lookup(inst.Start)
	if !ok {
		t.Fatal("start not in table")
	}
	for _, a := range m.Actions(start) {
		if a == Still {
			t.Error("Still offered away from the goal")
		}
	}
	if _, err := m.Transition(start, Still); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("expected ErrIllegalAction for Still off goal, got %v", err)
	}

	goal, _ := m.Lookup(inst.Goal)
	actions := m.Actions(goal)
	if len(actions) == 0 || actions[len(actions)-1] != Still {
		t.Errorf("expected Still at the goal, got %v", actions)
	}
	next, err := m.Transition(goal, Still)
	if err != nil {
		t.Fatalf("Transition(Still): %v", err)
	}
	if next != goal {
		t.Error("Still at goal should return the same canonical state")
	}
}

func TestSokobanModel_StillAlwaysLegal(t *testing.T) {
	inst := compile(t, Sokoban, "@$.")
	m := inst.Model

	inst.Model.States().Each(func(s *State) bool {
		actions := m.Actions(s)
		if len(actions) == 0 || actions[len(actions)-1] != Still {
			t.Errorf("expected Still in %s, got %v", s, actions)
		}
		return true
	})
}

func TestWorldModel_Closure(t *testing.T) {
	layouts := map[string][]string{
		"navigation": {
			"#####",
			"#@  #",
			"# # #",
			"#  .#",
			"#####",
		},
		"sokoban": {
			"######",
			"#@ $.#",
			"# $ .#",
			"#    #",
			"######",
		},
	}

	for name, layout := range layouts {
		t.Run(name, func(t *testing.T) {
			inst := compile(t, "", layout...)
			m := inst.Model
			m.States().Each(func(s *State) bool {
				for _, a := range m.Actions(s) {
					next, err := m.Transition(s, a)
					if err != nil {
						t.Errorf("Transition(%s, %s): %v", s, a, err)
						continue
					}
					canonical, ok := m.Lookup(*next)
					if !ok || canonical != next {
						t.Errorf("successor %s of %s is not the canonical instance", next, s)
					}
				}
				return true
			})
		})
	}
}

func TestWorldModel_TransitionErrors(t *testing.T) {
	inst := compile(t, Sokoban, "@$.")
	m := inst.Model
	start, _ := m.Lookup(inst.Start)

	if _, err := m.Transition(start, West); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("expected ErrIllegalAction, got %v", err)
	}

	stray := &State{Agent: Cell{X: 2, Y: 0}, Boxes: start.Boxes}
	if _, err := m.Transition(stray, Still); !errors.Is(err, ErrUnknownState) {
		t.Errorf("expected ErrUnknownState, got %v", err)
	}
	if _, err := m.Transition(nil, Still); !errors.Is(err, ErrUnknownState) {
		t.Errorf("expected ErrUnknownState for nil, got %v", err)
	}
}

func TestWorldModel_InvariantViolation(t *testing.T) {
	p := mustParse(t, "@ .")
	table := newStateTable(1)
	start, _ := table.insert(State{Agent: p.Agent})

	m := NewNavigationModel(p.Grid, table, Cell{X: 2, Y: 0})
	_, err := m.Transition(start, East)
	if !errors.Is(err, ErrInvariantViolation) {
		t.Errorf("expected ErrInvariantViolation, got %v", err)
	}
}

func TestScenario_SokobanPush(t *testing.T) {
	inst := compile(t, "", "@$.")
	m, ok := inst.Model.(*SokobanModel)
	if !ok {
		t.Fatalf("expected *SokobanModel, got %T", inst.Model)
	}

	start, ok := m.Lookup(inst.Start)
	if !ok {
		t.Fatal("start not in table")
	}
	actions := m.Actions(start)
	if len(actions) != 2 || actions[0] != East || actions[1] != Still {
		t.Errorf("expected [EAST STILL], got %v", actions)
	}
	if m.Score(start) != 0 {
		t.Errorf("expected score 0 before the push, got %d", m.Score(start))
	}

	next, err := m.Transition(start, East)
	if err != nil {
		t.Fatalf("Transition(East): %v", err)
	}
	if !next.HasBox(Cell{X: 2, Y: 0}) {
		t.Errorf("expected box at (2,0), got %s", next.Boxes)
	}
	if next.Agent != (Cell{X: 1, Y: 0}) {
		t.Errorf("expected agent at (1,0), got %s", next.Agent)
	}
	if got := m.Reward(next, Still); got != 1 {
		t.Errorf("expected reward 1 after the push, got %v", got)
	}
	goal := inst.Goal
	if !m.Satisfies(next, &goal) {
		t.Error("pushed state should satisfy the goal")
	}
}

func TestScenario_WalledGoal(t *testing.T) {
	inst := compile(t, "",
		"@ ###",
		"  #.#",
		"  ###",
	)
	if _, ok := inst.Model.Lookup(inst.Start); ok {
		t.Error("start should not be reachable from a walled-in goal")
	}
	if inst.Model.States().Len() != 1 {
		t.Errorf("expected only the goal state, got %d", inst.Model.States().Len())
	}
}
