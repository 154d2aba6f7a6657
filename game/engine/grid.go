package engine

import (
	"fmt"

	"github.com/zyedidia/generic/mapset"
)

// Grid is the immutable obstacle map of one problem instance.
type Grid struct {
	width     int
	height    int
	obstacles mapset.Set[Cell]
}

// NewGrid creates a grid of the given size. Every obstacle must lie inside it.
func NewGrid(width, height int, obstacles []Cell) (*Grid, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: grid must be at least 1x1, got %dx%d", ErrInvalidMap, width, height)
	}
	if width > MaxGridSize || height > MaxGridSize {
		return nil, fmt.Errorf("%w: grid %dx%d exceeds %d", ErrInvalidMap, width, height, MaxGridSize)
	}

	set := mapset.New[Cell]()
	for _, c := range obstacles {
		if c.X < 0 || c.X >= width || c.Y < 0 || c.Y >= height {
			return nil, fmt.Errorf("%w: obstacle %s outside %dx%d grid", ErrInvalidMap, c, width, height)
		}
		set.Put(c)
	}

	return &Grid{width: width, height: height, obstacles: set}, nil
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// InBounds reports whether c lies on the grid.
func (g *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < g.width && c.Y >= 0 && c.Y < g.height
}

// IsObstacle reports whether c is impassable. Cells off the grid are.
func (g *Grid) IsObstacle(c Cell) bool {
	if !g.InBounds(c) {
		return true
	}
	return g.obstacles.Has(c)
}

// ObstacleCount returns the number of obstacle cells.
func (g *Grid) ObstacleCount() int {
	return g.obstacles.Size()
}

// Obstacles returns the obstacle cells in row-major order.
func (g *Grid) Obstacles() []Cell {
	cells := make([]Cell, 0, g.obstacles.Size())
	g.obstacles.Each(func(c Cell) {
		cells = append(cells, c)
	})
	return sortedCells(cells)
}

// FreeCells returns every non-obstacle cell in row-major order.
func (g *Grid) FreeCells() []Cell {
	cells := make([]Cell, 0, g.width*g.height-g.obstacles.Size())
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			c := Cell{X: x, Y: y}
			if !g.obstacles.Has(c) {
				cells = append(cells, c)
			}
		}
	}
	return cells
}
