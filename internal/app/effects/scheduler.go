// Package effects applies timed, reversible gameplay effects such as a
// temporary input freeze.
package effects

import (
	"errors"
	"time"

	"github.com/dkeye/Wordbrain/internal/core"
	"github.com/rs/zerolog/log"
)

var ErrUnknownEffect = errors.New("unknown effect")

type Kind string

const Freeze Kind = "FREEZE"

// Handler applies and reverts one kind of effect. Revert is called exactly
// once per activation; expired is false when the effect was cancelled.
type Handler interface {
	Apply(d time.Duration)
	Revert(expired bool)
}

// HandlerFuncs adapts plain functions to Handler.
type HandlerFuncs struct {
	OnApply  func(d time.Duration)
	OnRevert func(expired bool)
}

func (h HandlerFuncs) Apply(d time.Duration) {
	if h.OnApply != nil {
		h.OnApply(d)
	}
}

func (h HandlerFuncs) Revert(expired bool) {
	if h.OnRevert != nil {
		h.OnRevert(expired)
	}
}

type active struct {
	gen   uint64
	until time.Time
	timer core.Timer
}

// Scheduler must be driven from a single goroutine. Timer expiry is routed
// back onto that goroutine through dispatch.
type Scheduler struct {
	clock    core.Clock
	dispatch func(func())
	handlers map[Kind]Handler
	active   map[Kind]*active
	gen      uint64
}

func NewScheduler(clock core.Clock, dispatch func(func())) *Scheduler {
	return &Scheduler{
		clock:    clock,
		dispatch: dispatch,
		handlers: make(map[Kind]Handler),
		active:   make(map[Kind]*active),
	}
}

func (s *Scheduler) Register(kind Kind, h Handler) {
	s.handlers[kind] = h
}

// Apply activates kind for d. If kind is already active its pending expiry is
// replaced, so the latest duration governs and the effect does not stack.
func (s *Scheduler) Apply(kind Kind, d time.Duration) error {
	h, ok := s.handlers[kind]
	if !ok {
		return ErrUnknownEffect
	}
	if cur, ok := s.active[kind]; ok {
		cur.timer.Stop()
	}

	s.gen++
	gen := s.gen
	a := &active{gen: gen, until: s.clock.Now().Add(d)}
	s.active[kind] = a
	h.Apply(d)
	a.timer = s.clock.AfterFunc(d, func() {
		s.dispatch(func() { s.expire(kind, gen) })
	})

	log.Debug().Str("module", "effects").Str("kind", string(kind)).Dur("duration", d).Msg("effect applied")
	return nil
}

func (s *Scheduler) expire(kind Kind, gen uint64) {
	cur, ok := s.active[kind]
	if !ok || cur.gen != gen {
		return
	}
	delete(s.active, kind)
	s.handlers[kind].Revert(true)
	log.Debug().Str("module", "effects").Str("kind", string(kind)).Msg("effect expired")
}

func (s *Scheduler) Active(kind Kind) bool {
	_, ok := s.active[kind]
	return ok
}

// Remaining is zero when kind is not active.
func (s *Scheduler) Remaining(kind Kind) time.Duration {
	cur, ok := s.active[kind]
	if !ok {
		return 0
	}
	return max(cur.until.Sub(s.clock.Now()), 0)
}

// CancelAll stops every pending expiry and reverts silently. Expiries already
// queued on the dispatcher become no-ops.
func (s *Scheduler) CancelAll() {
	for kind, cur := range s.active {
		cur.timer.Stop()
		delete(s.active, kind)
		s.handlers[kind].Revert(false)
	}
}
