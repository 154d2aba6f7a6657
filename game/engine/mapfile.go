package engine

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Map legend
const (
	TileObstacle    = '#'
	TileAgent       = '@'
	TileAgentOnGoal = '+'
	TileTarget      = '.'
	TileBox         = '$'
	TileBoxOnTarget = '*'
	TileFloor       = ' '
	TileFloorDash   = '-'
	TileFloorUscore = '_'
)

// Problem is a parsed map: the grid plus the agent start, target cells and
// box cells. Targets and Boxes are in row-major order.
type Problem struct {
	Grid     *Grid
	Agent    Cell
	HasAgent bool
	Targets  []Cell
	Boxes    []Cell
}

// Dimensions returns "WxH".
func (p *Problem) Dimensions() string {
	return fmt.Sprintf("%dx%d", p.Grid.Width(), p.Grid.Height())
}

// Variant infers the rules from the map: any box makes it Sokoban.
func (p *Problem) Variant() Variant {
	if len(p.Boxes) > 0 {
		return Sokoban
	}
	return Navigation
}

// Goal returns the navigation goal. Validate rejects navigation maps with
// more than one target, so the first target is the only one.
func (p *Problem) Goal() (Cell, bool) {
	if len(p.Targets) == 0 {
		return Cell{}, false
	}
	return p.Targets[0], true
}

// Validate checks that p can be solved under v. An empty v means the
// inferred variant.
func (p *Problem) Validate(v Variant) error {
	if v == "" {
		v = p.Variant()
	}
	if !p.HasAgent {
		return ErrNoAgent
	}
	if len(p.Targets) == 0 {
		return ErrNoTarget
	}

	switch v {
	case Navigation:
		if len(p.Boxes) > 0 {
			return fmt.Errorf("%w: navigation map contains %d boxes", ErrInvalidProblem, len(p.Boxes))
		}
		if len(p.Targets) > 1 {
			return fmt.Errorf("%w: navigation map has %d targets, want exactly one", ErrInvalidProblem, len(p.Targets))
		}
	case Sokoban:
		if len(p.Boxes) == 0 {
			return fmt.Errorf("%w: sokoban map has no boxes", ErrInvalidProblem)
		}
		if len(p.Boxes) != len(p.Targets) {
			return fmt.Errorf("%w: %d boxes, %d targets", ErrBoxTargetMismatch, len(p.Boxes), len(p.Targets))
		}
	default:
		return fmt.Errorf("%w: unknown variant %q", ErrInvalidProblem, v)
	}
	return nil
}

// ParseMap reads a text map. Width is the longest line and height the line
// count; shorter lines are padded with floor and trailing empty lines are
// dropped.
func ParseMap(r io.Reader) (*Problem, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read map: %w", err)
	}
	return ParseLayout(lines)
}

// ParseLayout parses map rows already split into lines.
func ParseLayout(lines []string) (*Problem, error) {
	rows := make([]string, len(lines))
	for i, l := range lines {
		rows[i] = strings.TrimRight(l, "\r")
	}
	// Spaces are floor, so only truly empty trailing rows are dropped.
	for len(rows) > 0 && rows[len(rows)-1] == "" {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty map", ErrInvalidMap)
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	p := &Problem{}
	var obstacles []Cell
	for y, row := range rows {
		for x, ch := range []byte(row) {
			c := Cell{X: x, Y: y}
			switch ch {
			case TileObstacle:
				obstacles = append(obstacles, c)
			case TileAgent, TileAgentOnGoal:
				if p.HasAgent {
					return nil, fmt.Errorf("%w: second agent at %s, first at %s", ErrInvalidMap, c, p.Agent)
				}
				p.Agent = c
				p.HasAgent = true
				if ch == TileAgentOnGoal {
					p.Targets = append(p.Targets, c)
				}
			case TileTarget:
				p.Targets = append(p.Targets, c)
			case TileBox:
				p.Boxes = append(p.Boxes, c)
			case TileBoxOnTarget:
				p.Boxes = append(p.Boxes, c)
				p.Targets = append(p.Targets, c)
			case TileFloor, TileFloorDash, TileFloorUscore:
			default:
				return nil, fmt.Errorf("%w: unknown tile %q at %s", ErrInvalidMap, ch, c)
			}
		}
	}

	grid, err := NewGrid(width, len(rows), obstacles)
	if err != nil {
		return nil, err
	}
	p.Grid = grid
	return p, nil
}

// LoadMap reads the map file at path. A file that cannot be opened is
// reported as ErrMapNotFound.
func LoadMap(path string) (*Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMapNotFound, path, err)
	}
	defer f.Close()

	p, err := ParseMap(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Layout renders p back into map rows.
func (p *Problem) Layout() []string {
	return NewRenderView(p, nil).Lines()
}
