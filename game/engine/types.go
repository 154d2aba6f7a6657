package engine

import (
	"fmt"
	"strings"
)

// Variant selects the puzzle rules a problem is solved under
type Variant string

const (
	Navigation Variant = "navigation"
	Sokoban    Variant = "sokoban"

	// Validation constants
	MinHorizon       = 0
	MaxHorizon       = 10000
	DefaultHorizon   = 50
	MinMaxStates     = 1
	MaxMaxStates     = 5000000
	DefaultMaxStates = 200000
	MaxGridSize      = 256
)

// ParseVariant accepts "navigation", "sokoban" or "" (auto).
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "navigation", "nav":
		return Navigation, nil
	case "sokoban":
		return Sokoban, nil
	}
	return "", fmt.Errorf("unknown variant %q", s)
}

// Cell is an integer grid coordinate. X grows east and Y grows south.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Step returns the neighbouring cell in direction a. Still returns c.
func (c Cell) Step(a Action) Cell {
	dx, dy := a.Delta()
	return Cell{X: c.X + dx, Y: c.Y + dy}
}

// Action is one of the four compass moves or the Still no-op
type Action int

const (
	North Action = iota
	South
	East
	West
	Still
)

// Directions lists the moving actions in enumeration order.
var Directions = []Action{North, South, East, West}

// AllActions lists every action in enumeration order.
var AllActions = []Action{North, South, East, West, Still}

// Delta returns the coordinate offset of a.
func (a Action) Delta() (dx, dy int) {
	switch a {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case East:
		return 1, 0
	case West:
		return -1, 0
	}
	return 0, 0
}

// IsMove reports whether a changes the agent's cell.
func (a Action) IsMove() bool {
	return a >= North && a <= West
}

func (a Action) String() string {
	switch a {
	case North:
		return "NORTH"
	case South:
		return "SOUTH"
	case East:
		return "EAST"
	case West:
		return "WEST"
	case Still:
		return "STILL"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Short returns the one-letter form used in compact path strings.
func (a Action) Short() string {
	return a.String()[:1]
}

// ParseAction accepts compass names, their first letters, and the
// up/down/left/right aliases.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n", "up":
		return North, nil
	case "south", "s", "down":
		return South, nil
	case "east", "e", "right":
		return East, nil
	case "west", "w", "left":
		return West, nil
	case "still", "stay", "wait":
		return Still, nil
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

func (a Action) MarshalText() ([]byte, error) {
	if a < North || a > Still {
		return nil, fmt.Errorf("cannot marshal %s", a)
	}
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// RenderView is what the display collaborator receives: the static map and,
// once a plan has been found, the translated path.
type RenderView struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Obstacles []Cell `json:"obstacles"`
	Targets   []Cell `json:"targets"`
	Boxes     []Cell `json:"boxes,omitempty"`
	Agent     Cell   `json:"agent"`
	Path      *Path  `json:"path,omitempty"`
}

// NewRenderView builds the view of p with an optional path overlay.
func NewRenderView(p *Problem, path *Path) RenderView {
	return RenderView{
		Width:     p.Grid.Width(),
		Height:    p.Grid.Height(),
		Obstacles: p.Grid.Obstacles(),
		Targets:   sortedCells(p.Targets),
		Boxes:     sortedCells(p.Boxes),
		Agent:     p.Agent,
		Path:      path,
	}
}

// Lines draws the view in the map legend. Cells visited by the path are
// marked with 'o' where nothing else is drawn.
func (v RenderView) Lines() []string {
	rows := make([][]byte, v.Height)
	for y := range rows {
		rows[y] = []byte(strings.Repeat(string(TileFloor), v.Width))
	}
	set := func(c Cell, ch byte) {
		if c.Y >= 0 && c.Y < v.Height && c.X >= 0 && c.X < v.Width {
			rows[c.Y][c.X] = ch
		}
	}

	if v.Path != nil {
		for _, c := range v.Path.Cells() {
			set(c, 'o')
		}
	}
	for _, c := range v.Obstacles {
		set(c, TileObstacle)
	}
	targets := make(map[Cell]bool, len(v.Targets))
	for _, c := range v.Targets {
		targets[c] = true
		set(c, TileTarget)
	}
	for _, c := range v.Boxes {
		if targets[c] {
			set(c, TileBoxOnTarget)
		} else {
			set(c, TileBox)
		}
	}
	if targets[v.Agent] {
		set(v.Agent, TileAgentOnGoal)
	} else {
		set(v.Agent, TileAgent)
	}

	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = string(r)
	}
	return lines
}
