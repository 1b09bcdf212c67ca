// Package grid owns the letter grid snapshot and the player's selection path.
// It decides what is selectable and what the candidate word is; drawing is
// left to the UI.
package grid

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/dkeye/Wordbrain/internal/protocol"
)

var (
	ErrShapeMismatch = errors.New("grid dimensions do not match")
	ErrEmptyGrid     = errors.New("grid has no cells")
)

type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Snapshot is immutable once built. Empty cells hold 0.
type Snapshot struct {
	rows, cols int
	cells      [][]rune
	mask       [][]bool
}

// NewSnapshot copies cells and mask. A nil mask means every cell is in play.
func NewSnapshot(cells [][]rune, mask [][]bool) (*Snapshot, error) {
	rows := len(cells)
	if rows == 0 || len(cells[0]) == 0 {
		return nil, ErrEmptyGrid
	}
	cols := len(cells[0])
	if mask != nil && len(mask) != rows {
		return nil, fmt.Errorf("%w: mask has %d rows, cells %d", ErrShapeMismatch, len(mask), rows)
	}

	s := &Snapshot{rows: rows, cols: cols, cells: make([][]rune, rows), mask: make([][]bool, rows)}
	for r := 0; r < rows; r++ {
		if len(cells[r]) != cols {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrShapeMismatch, r, len(cells[r]), cols)
		}
		s.cells[r] = append([]rune(nil), cells[r]...)
		s.mask[r] = make([]bool, cols)
		if mask == nil {
			for c := range s.mask[r] {
				s.mask[r][c] = true
			}
			continue
		}
		if len(mask[r]) != cols {
			return nil, fmt.Errorf("%w: mask row %d has %d cells, want %d", ErrShapeMismatch, r, len(mask[r]), cols)
		}
		copy(s.mask[r], mask[r])
	}
	return s, nil
}

// FromWire converts and validates a server grid. Declared rows/cols, when
// present, must agree with the cell matrix.
func FromWire(g protocol.Grid) (*Snapshot, error) {
	if g.Rows != 0 && g.Rows != len(g.Cells) {
		return nil, fmt.Errorf("%w: rows=%d but %d cell rows", ErrShapeMismatch, g.Rows, len(g.Cells))
	}
	cells := make([][]rune, len(g.Cells))
	for r, row := range g.Cells {
		if g.Cols != 0 && g.Cols != len(row) {
			return nil, fmt.Errorf("%w: cols=%d but row %d has %d", ErrShapeMismatch, g.Cols, r, len(row))
		}
		cells[r] = make([]rune, len(row))
		for c, s := range row {
			cells[r][c] = decodeChar(s)
		}
	}
	var mask [][]bool
	if g.Shape != nil && g.Shape.Mask != nil {
		mask = g.Shape.Mask
	}
	return NewSnapshot(cells, mask)
}

func decodeChar(s string) rune {
	if s == "" || s == " " || s == "\u0000" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// ToWire is the inverse of FromWire, used by views and tests.
func (s *Snapshot) ToWire() protocol.Grid {
	g := protocol.Grid{Rows: s.rows, Cols: s.cols, Cells: make([][]string, s.rows), Shape: &protocol.Shape{Mask: make([][]bool, s.rows)}}
	for r := 0; r < s.rows; r++ {
		g.Cells[r] = make([]string, s.cols)
		g.Shape.Mask[r] = append([]bool(nil), s.mask[r]...)
		for c := 0; c < s.cols; c++ {
			if ch := s.cells[r][c]; ch != 0 {
				g.Cells[r][c] = string(ch)
			}
			if s.mask[r][c] {
				g.Shape.CellCount++
			}
		}
	}
	return g
}

func (s *Snapshot) Rows() int { return s.rows }
func (s *Snapshot) Cols() int { return s.cols }

func (s *Snapshot) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < s.rows && c.Col >= 0 && c.Col < s.cols
}

// Selectable reports whether c is inside the grid and part of the puzzle shape.
func (s *Snapshot) Selectable(c Cell) bool {
	return s.InBounds(c) && s.mask[c.Row][c.Col]
}

func (s *Snapshot) Char(c Cell) rune {
	if !s.InBounds(c) {
		return 0
	}
	return s.cells[c.Row][c.Col]
}
