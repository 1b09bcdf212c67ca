package grid

import (
	"fmt"
	"strings"
)

// Mode selects one of the two interaction contracts. An engine never mixes them.
type Mode int

const (
	// ModeAdjacent appends only cells touching the last pick (8 directions).
	ModeAdjacent Mode = iota
	// ModeFree appends any unused cell; tapping the last cell undoes it.
	ModeFree
)

func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "adjacent":
		return ModeAdjacent, nil
	case "free":
		return ModeFree, nil
	}
	return 0, fmt.Errorf("unknown selection mode %q", s)
}

func (m Mode) String() string {
	if m == ModeFree {
		return "free"
	}
	return "adjacent"
}

type PathCell struct {
	Row  int  `json:"row"`
	Col  int  `json:"col"`
	Char rune `json:"char"`
}

func (p PathCell) Cell() Cell { return Cell{Row: p.Row, Col: p.Col} }

// Engine holds the current snapshot and the in-progress selection path.
// Not safe for concurrent use; the session loop owns it.
type Engine struct {
	mode     Mode
	snap     *Snapshot
	path     []PathCell
	dragging bool
	disabled bool
}

func NewEngine(mode Mode) *Engine {
	return &Engine{mode: mode}
}

func (e *Engine) Mode() Mode { return e.mode }

func (e *Engine) Snapshot() *Snapshot { return e.snap }

// Load replaces the grid wholesale and empties the path. nil unloads it.
func (e *Engine) Load(s *Snapshot) {
	e.snap = s
	e.Clear()
}

// Clear empties the path. Safe at any time, mid-drag included.
func (e *Engine) Clear() {
	e.path = e.path[:0]
	e.dragging = false
}

// SetEnabled toggles pointer input. A disabled engine ignores taps and drags
// but still clears and loads.
func (e *Engine) SetEnabled(on bool) {
	e.disabled = !on
	if !on {
		e.dragging = false
	}
}

func (e *Engine) Enabled() bool { return !e.disabled }

func (e *Engine) accepting(c Cell) bool {
	return !e.disabled && e.snap != nil && e.snap.Selectable(c)
}

// Tap applies one click. It returns true when the path changed.
//
//   - empty path: start with c
//   - c is the last cell and the path has more than one: pop it
//   - c is anywhere else in the path: ignored
//   - otherwise append, subject to adjacency in ModeAdjacent
func (e *Engine) Tap(c Cell) bool {
	if !e.accepting(c) {
		return false
	}
	if len(e.path) == 0 {
		e.push(c)
		return true
	}
	if i := e.indexOf(c); i >= 0 {
		if i == len(e.path)-1 && len(e.path) > 1 {
			e.path = e.path[:i]
			return true
		}
		return false
	}
	if e.mode == ModeAdjacent && !Adjacent(e.path[len(e.path)-1].Cell(), c) {
		return false
	}
	e.push(c)
	return true
}

// Press begins a drag. In ModeAdjacent it always starts a fresh path at c;
// in ModeFree it behaves like Tap.
func (e *Engine) Press(c Cell) bool {
	if e.mode == ModeFree {
		return e.Tap(c)
	}
	if !e.accepting(c) {
		return false
	}
	e.path = e.path[:0]
	e.push(c)
	e.dragging = true
	return true
}

// Drag extends an active drag onto c when c is adjacent to the last cell and
// not already used.
func (e *Engine) Drag(c Cell) bool {
	if !e.dragging || !e.accepting(c) || len(e.path) == 0 {
		return false
	}
	if e.indexOf(c) >= 0 || !Adjacent(e.path[len(e.path)-1].Cell(), c) {
		return false
	}
	e.push(c)
	return true
}

func (e *Engine) Release() { e.dragging = false }

func (e *Engine) Dragging() bool { return e.dragging }

func (e *Engine) push(c Cell) {
	e.path = append(e.path, PathCell{Row: c.Row, Col: c.Col, Char: e.snap.Char(c)})
}

func (e *Engine) indexOf(c Cell) int {
	for i, p := range e.path {
		if p.Row == c.Row && p.Col == c.Col {
			return i
		}
	}
	return -1
}

func (e *Engine) Contains(c Cell) bool { return e.indexOf(c) >= 0 }

// Path returns a copy of the selection in pick order.
func (e *Engine) Path() []PathCell {
	return append([]PathCell(nil), e.path...)
}

func (e *Engine) Len() int { return len(e.path) }

// Word is the candidate word: path characters in order.
func (e *Engine) Word() string {
	var b strings.Builder
	for _, p := range e.path {
		if p.Char != 0 {
			b.WriteRune(p.Char)
		}
	}
	return b.String()
}

// Adjacent is Chebyshev distance 1.
func Adjacent(a, b Cell) bool {
	dr, dc := abs(a.Row-b.Row), abs(a.Col-b.Col)
	return max(dr, dc) == 1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
