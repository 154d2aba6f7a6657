package engine

import "github.com/zyedidia/generic/mapset"

// RewardFunction scores taking action a from state s.
type RewardFunction interface {
	Reward(s *State, a Action) float64
}

// NavigationReward charges -1 per transition, except that transitions out
// of the goal cell are free, which makes the goal absorbing.
type NavigationReward struct {
	Goal Cell
}

func (r NavigationReward) Reward(s *State, _ Action) float64 {
	if s.Agent == r.Goal {
		return 0
	}
	return -1
}

// SokobanReward scores a state by the number of boxes resting on targets.
// It is a state value, not a step cost.
type SokobanReward struct {
	targets mapset.Set[Cell]
}

// NewSokobanReward builds the reward over the given target cells.
func NewSokobanReward(targets []Cell) SokobanReward {
	set := mapset.New[Cell]()
	for _, t := range targets {
		set.Put(t)
	}
	return SokobanReward{targets: set}
}

// Score returns the number of boxes of s on targets.
func (r SokobanReward) Score(s *State) int {
	return s.Boxes.CountOn(r.targets)
}

// Solved reports whether every box of s is on a target.
func (r SokobanReward) Solved(s *State) bool {
	return r.Score(s) == s.Boxes.Len()
}

func (r SokobanReward) Reward(s *State, _ Action) float64 {
	return float64(r.Score(s))
}
