package engine

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/zyedidia/generic/mapset"
)

// BoxConfiguration is an immutable set of box cells. Moving a box yields a
// new configuration; existing values are never modified, so states that share
// a configuration can't observe each other's pushes.
type BoxConfiguration struct {
	cells  []Cell // row-major sorted
	packed string // fixed-width encoding of cells, used as the key
}

// NewBoxConfiguration builds a configuration from cells in any order.
// Two boxes on the same cell is an error.
func NewBoxConfiguration(cells []Cell) (BoxConfiguration, error) {
	sorted := sortedCells(cells)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return BoxConfiguration{}, fmt.Errorf("%w: two boxes on %s", ErrInvalidProblem, sorted[i])
		}
	}
	return BoxConfiguration{cells: sorted, packed: packCells(sorted)}, nil
}

// packCells encodes each cell as two big-endian int32 values. The encoding
// is injective for in-range coordinates, unlike decimal concatenation.
func packCells(cells []Cell) string {
	if len(cells) == 0 {
		return ""
	}
	buf := make([]byte, 0, len(cells)*8)
	for _, c := range cells {
		buf = binary.BigEndian.AppendUint32(buf, uint32(int32(c.X)))
		buf = binary.BigEndian.AppendUint32(buf, uint32(int32(c.Y)))
	}
	return string(buf)
}

// Len returns the number of boxes.
func (b BoxConfiguration) Len() int {
	return len(b.cells)
}

// Has reports whether a box occupies c.
func (b BoxConfiguration) Has(c Cell) bool {
	_, found := slices.BinarySearchFunc(b.cells, c, compareCells)
	return found
}

// Cells returns a copy of the box cells in row-major order.
func (b BoxConfiguration) Cells() []Cell {
	return slices.Clone(b.cells)
}

// Equal reports set equality.
func (b BoxConfiguration) Equal(other BoxConfiguration) bool {
	return b.packed == other.packed
}

// Move returns the configuration with the box on from relocated to to.
// ok is false if no box is on from or to is already occupied.
func (b BoxConfiguration) Move(from, to Cell) (moved BoxConfiguration, ok bool) {
	if !b.Has(from) || b.Has(to) {
		return b, false
	}
	cells := make([]Cell, 0, len(b.cells))
	for _, c := range b.cells {
		if c == from {
			c = to
		}
		cells = append(cells, c)
	}
	slices.SortFunc(cells, compareCells)
	return BoxConfiguration{cells: cells, packed: packCells(cells)}, true
}

// CountOn returns how many boxes rest on a cell of targets.
func (b BoxConfiguration) CountOn(targets mapset.Set[Cell]) int {
	n := 0
	for _, c := range b.cells {
		if targets.Has(c) {
			n++
		}
	}
	return n
}

// MarshalJSON encodes the configuration as its cell list.
func (b BoxConfiguration) MarshalJSON() ([]byte, error) {
	if b.cells == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(b.cells)
}

func (b *BoxConfiguration) UnmarshalJSON(data []byte) error {
	var cells []Cell
	if err := json.Unmarshal(data, &cells); err != nil {
		return err
	}
	parsed, err := NewBoxConfiguration(cells)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

func (b BoxConfiguration) String() string {
	parts := make([]string, len(b.cells))
	for i, c := range b.cells {
		parts[i] = c.String()
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// Key is the canonical structural identity of a State. Two states have equal
// keys iff their agent cells match and their box sets are equal.
type Key struct {
	Agent Cell
	Boxes string
}

// State is an agent position plus, for Sokoban, the box configuration.
// Navigation states carry an empty configuration.
type State struct {
	Agent Cell             `json:"agent"`
	Boxes BoxConfiguration `json:"boxes"`
}

// Key returns the canonical key of s.
func (s State) Key() Key {
	return Key{Agent: s.Agent, Boxes: s.Boxes.packed}
}

// Equal reports structural equality.
func (s State) Equal(other State) bool {
	return s.Key() == other.Key()
}

// HasBox reports whether a box occupies c.
func (s State) HasBox(c Cell) bool {
	return s.Boxes.Has(c)
}

func (s State) String() string {
	if s.Boxes.Len() == 0 {
		return "State: " + s.Agent.String()
	}
	return fmt.Sprintf("State: %s boxes=%s", s.Agent, s.Boxes)
}
