package grid

import "math"

const MaxCellSize = 80.0

// Layout maps canvas coordinates to cells. The grid is centred and cells
// are square.
type Layout struct {
	Rows, Cols       int
	CellSize         float64
	OffsetX, OffsetY float64
}

func Fit(width, height float64, rows, cols int) Layout {
	if rows <= 0 || cols <= 0 || width <= 0 || height <= 0 {
		return Layout{Rows: rows, Cols: cols}
	}
	size := math.Min(math.Min(width/float64(cols), height/float64(rows)), MaxCellSize)
	return Layout{
		Rows:     rows,
		Cols:     cols,
		CellSize: size,
		OffsetX:  (width - size*float64(cols)) / 2,
		OffsetY:  (height - size*float64(rows)) / 2,
	}
}

// CellAt returns the cell under (x, y), or false when the point is off-grid.
func (l Layout) CellAt(x, y float64) (Cell, bool) {
	if l.CellSize <= 0 {
		return Cell{}, false
	}
	col := int(math.Floor((x - l.OffsetX) / l.CellSize))
	row := int(math.Floor((y - l.OffsetY) / l.CellSize))
	if row < 0 || row >= l.Rows || col < 0 || col >= l.Cols {
		return Cell{}, false
	}
	return Cell{Row: row, Col: col}, true
}

// Center is the canvas point at the middle of c.
func (l Layout) Center(c Cell) (x, y float64) {
	return l.OffsetX + (float64(c.Col)+0.5)*l.CellSize, l.OffsetY + (float64(c.Row)+0.5)*l.CellSize
}
