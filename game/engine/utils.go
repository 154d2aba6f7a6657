package engine

import (
	"cmp"
	"slices"

	"github.com/zyedidia/generic/mapset"
)

// compareCells orders cells row-major: by Y, then by X.
func compareCells(a, b Cell) int {
	if c := cmp.Compare(a.Y, b.Y); c != 0 {
		return c
	}
	return cmp.Compare(a.X, b.X)
}

// sortedCells returns a sorted copy of cells.
func sortedCells(cells []Cell) []Cell {
	out := make([]Cell, len(cells))
	copy(out, cells)
	slices.SortFunc(out, compareCells)
	return out
}

// ManhattanDistance calculates the Manhattan distance between two cells
func ManhattanDistance(from, to Cell) int {
	return abs(from.X-to.X) + abs(from.Y-to.Y)
}

// Reachable returns the free cells 4-connected to from, ignoring boxes.
// An obstacle start reaches nothing.
func Reachable(g *Grid, from Cell) mapset.Set[Cell] {
	seen := mapset.New[Cell]()
	if g.IsObstacle(from) {
		return seen
	}
	seen.Put(from)
	queue := []Cell{from}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, d := range Directions {
			n := c.Step(d)
			if g.IsObstacle(n) || seen.Has(n) {
				continue
			}
			seen.Put(n)
			queue = append(queue, n)
		}
	}
	return seen
}

// CountReachable counts the cells Reachable from from.
func CountReachable(g *Grid, from Cell) int {
	return Reachable(g, from).Size()
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
