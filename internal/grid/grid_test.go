package grid

import (
	"math/rand/v2"
	"testing"

	"github.com/dkeye/Wordbrain/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 4x4 grid, (0,3) and (3,0) are holes.
//
//	C A T .
//	O D O G
//	W E B S
//	. R U N
func testSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	s, err := FromWire(protocol.Grid{
		Rows: 4,
		Cols: 4,
		Cells: [][]string{
			{"C", "A", "T", ""},
			{"O", "D", "O", "G"},
			{"W", "E", "B", "S"},
			{"", "R", "U", "N"},
		},
		Shape: &protocol.Shape{Mask: [][]bool{
			{true, true, true, false},
			{true, true, true, true},
			{true, true, true, true},
			{false, true, true, true},
		}},
	})
	require.NoError(t, err)
	return s
}

func newLoaded(t *testing.T, mode Mode) *Engine {
	e := NewEngine(mode)
	e.Load(testSnapshot(t))
	return e
}

func TestFromWire_Validation(t *testing.T) {
	_, err := FromWire(protocol.Grid{Rows: 2, Cols: 2, Cells: [][]string{{"A", "B"}}})
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = FromWire(protocol.Grid{Rows: 1, Cols: 2, Cells: [][]string{{"A"}}})
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = FromWire(protocol.Grid{Cells: [][]string{{"A", "B"}}, Shape: &protocol.Shape{Mask: [][]bool{{true}}}})
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = FromWire(protocol.Grid{})
	require.ErrorIs(t, err, ErrEmptyGrid)

	s, err := FromWire(protocol.Grid{Cells: [][]string{{"A", ""}}})
	require.NoError(t, err)
	assert.True(t, s.Selectable(Cell{0, 1}), "missing mask means every cell is in play")
	assert.Equal(t, rune(0), s.Char(Cell{0, 1}))
}

func TestSnapshot_ToWireRoundTripsShape(t *testing.T) {
	s := testSnapshot(t)
	w := s.ToWire()
	assert.Equal(t, 14, w.Shape.CellCount)
	again, err := FromWire(w)
	require.NoError(t, err)
	assert.Equal(t, s, again)
}

func TestTap_Adjacent(t *testing.T) {
	e := newLoaded(t, ModeAdjacent)

	assert.True(t, e.Tap(Cell{0, 0}))
	assert.True(t, e.Tap(Cell{0, 1}))
	assert.False(t, e.Tap(Cell{2, 3}), "not adjacent to the last cell")
	assert.True(t, e.Tap(Cell{0, 2}))
	assert.Equal(t, "CAT", e.Word())

	assert.False(t, e.Tap(Cell{0, 0}), "interior cell cannot be removed")
	assert.True(t, e.Tap(Cell{0, 2}), "last cell pops")
	assert.Equal(t, "CA", e.Word())
	assert.True(t, e.Tap(Cell{1, 1}), "diagonal counts as adjacent")
	assert.Equal(t, "CAD", e.Word())
}

func TestTap_FreeAppendsAnywhere(t *testing.T) {
	e := newLoaded(t, ModeFree)

	assert.True(t, e.Tap(Cell{0, 0}))
	assert.True(t, e.Tap(Cell{3, 3}))
	assert.True(t, e.Tap(Cell{1, 3}))
	assert.Equal(t, "CNG", e.Word())
	assert.False(t, e.Tap(Cell{3, 3}), "interior")
	assert.Equal(t, 3, e.Len())
}

func TestTap_SoleCellIsNotPopped(t *testing.T) {
	e := newLoaded(t, ModeFree)
	require.True(t, e.Tap(Cell{1, 1}))
	assert.False(t, e.Tap(Cell{1, 1}))
	assert.Equal(t, 1, e.Len())
}

func TestHolesAreNeverSelectable(t *testing.T) {
	holes := []Cell{{0, 3}, {3, 0}}
	for _, mode := range []Mode{ModeAdjacent, ModeFree} {
		e := newLoaded(t, mode)
		rng := rand.New(rand.NewPCG(1, uint64(mode)))
		for i := 0; i < 2000; i++ {
			c := Cell{Row: rng.IntN(6) - 1, Col: rng.IntN(6) - 1}
			switch rng.IntN(5) {
			case 0:
				e.Tap(c)
			case 1:
				e.Press(c)
			case 2:
				e.Drag(c)
			case 3:
				e.Release()
			case 4:
				if rng.IntN(10) == 0 {
					e.Clear()
				}
			}
			for _, h := range holes {
				require.False(t, e.Contains(h), "mode %v step %d", mode, i)
			}
			seen := map[Cell]bool{}
			for _, p := range e.Path() {
				require.False(t, seen[p.Cell()], "duplicate cell in path")
				seen[p.Cell()] = true
			}
		}
	}
}

func TestPopRemovesExactlyTheLastCell(t *testing.T) {
	e := newLoaded(t, ModeAdjacent)
	for _, c := range []Cell{{1, 0}, {1, 1}, {2, 2}, {3, 3}} {
		require.True(t, e.Tap(c))
	}
	for e.Len() > 1 {
		before := e.Path()
		last := before[len(before)-1]
		require.True(t, e.Tap(last.Cell()))
		assert.Equal(t, before[:len(before)-1], e.Path())
	}
}

func TestClear_AlwaysEmpties(t *testing.T) {
	e := NewEngine(ModeAdjacent)
	e.Clear()
	assert.Empty(t, e.Path())

	e.Load(testSnapshot(t))
	e.Press(Cell{0, 0})
	e.Drag(Cell{0, 1})
	require.True(t, e.Dragging())
	e.Clear()
	assert.Empty(t, e.Path())
	assert.Equal(t, "", e.Word())
	assert.False(t, e.Dragging())
	assert.False(t, e.Drag(Cell{0, 2}), "drag ended by clear")
}

func TestLoad_ResetsPath(t *testing.T) {
	e := newLoaded(t, ModeAdjacent)
	e.Tap(Cell{0, 0})
	e.Load(testSnapshot(t))
	assert.Zero(t, e.Len())
}

func TestDrag_AdjacentOnly(t *testing.T) {
	e := newLoaded(t, ModeAdjacent)
	e.Tap(Cell{2, 2})

	require.True(t, e.Press(Cell{0, 0}), "press starts a fresh path")
	assert.Equal(t, "C", e.Word())
	assert.True(t, e.Drag(Cell{0, 1}))
	assert.False(t, e.Drag(Cell{0, 1}), "already used")
	assert.False(t, e.Drag(Cell{0, 3}), "hole")
	assert.False(t, e.Drag(Cell{2, 2}), "too far")
	assert.True(t, e.Drag(Cell{0, 2}))
	e.Release()
	assert.False(t, e.Drag(Cell{1, 2}), "released")
	assert.Equal(t, "CAT", e.Word())
}

func TestDisabledIgnoresInput(t *testing.T) {
	e := newLoaded(t, ModeAdjacent)
	e.Tap(Cell{0, 0})
	e.SetEnabled(false)

	assert.False(t, e.Tap(Cell{0, 1}))
	assert.False(t, e.Press(Cell{1, 1}))
	assert.Equal(t, "C", e.Word())
	e.Clear()
	assert.Zero(t, e.Len())

	e.SetEnabled(true)
	assert.True(t, e.Tap(Cell{0, 1}))
}

func TestLayout(t *testing.T) {
	l := Fit(480, 320, 4, 4)
	assert.Equal(t, 80.0, l.CellSize)
	assert.Equal(t, 80.0, l.OffsetX)
	assert.Equal(t, 0.0, l.OffsetY)

	c, ok := l.CellAt(85, 5)
	require.True(t, ok)
	assert.Equal(t, Cell{0, 0}, c)

	c, ok = l.CellAt(399, 319)
	require.True(t, ok)
	assert.Equal(t, Cell{3, 3}, c)

	_, ok = l.CellAt(79, 10)
	assert.False(t, ok)
	_, ok = l.CellAt(401, 10)
	assert.False(t, ok)

	small := Fit(200, 400, 5, 4)
	assert.Equal(t, 50.0, small.CellSize)
	x, y := small.Center(Cell{1, 1})
	assert.Equal(t, 75.0, x)
	assert.Equal(t, 75.0+75.0, y)

	_, ok = Fit(0, 0, 4, 4).CellAt(1, 1)
	assert.False(t, ok)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("free")
	require.NoError(t, err)
	assert.Equal(t, ModeFree, m)
	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeAdjacent, m)
	_, err = ParseMode("snake")
	require.Error(t, err)
}
