// Package session is the client's state machine. One goroutine owns all
// session state; user commands, server frames, timer ticks and request
// results all arrive as messages on its inbox and run to completion in order.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Wordbrain/internal/app/effects"
	"github.com/dkeye/Wordbrain/internal/core"
	"github.com/dkeye/Wordbrain/internal/domain"
	"github.com/dkeye/Wordbrain/internal/grid"
	"github.com/dkeye/Wordbrain/internal/protocol"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrStopped = errors.New("session stopped")

const maxNotices = 5

type Canvas struct {
	Width, Height float64
}

type Deps struct {
	Transport core.Transport
	Rooms     core.RoomGateway
	Clock     core.Clock
	Grid      *grid.Engine
	Canvas    Canvas

	TickInterval         time.Duration
	RoomRefreshInterval  time.Duration
	RequestTimeout       time.Duration
	DefaultLevelCount    int
	DefaultLevelDuration int

	// Spawn runs blocking requests off the loop. Defaults to a new goroutine.
	Spawn func(func())
}

func (d *Deps) withDefaults() {
	if d.Clock == nil {
		d.Clock = core.SystemClock{}
	}
	if d.Grid == nil {
		d.Grid = grid.NewEngine(grid.ModeAdjacent)
	}
	if d.Canvas.Width <= 0 || d.Canvas.Height <= 0 {
		d.Canvas = Canvas{Width: 480, Height: 480}
	}
	if d.TickInterval <= 0 {
		d.TickInterval = time.Second
	}
	if d.RoomRefreshInterval <= 0 {
		d.RoomRefreshInterval = 5 * time.Second
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 10 * time.Second
	}
	if d.DefaultLevelCount <= 0 {
		d.DefaultLevelCount = domain.DefaultLevelCount
	}
	if d.DefaultLevelDuration <= 0 {
		d.DefaultLevelDuration = domain.DefaultLevelDuration
	}
	if d.Spawn == nil {
		d.Spawn = func(f func()) { go f() }
	}
}

type state struct {
	screen Screen
	form   Form
	busy   bool

	player      *domain.PlayerIdentity
	room        *domain.RoomInfo
	roster      []domain.RosterEntry
	rosterSeen  bool
	playerCount int
	ready       bool
	countdown   int

	level       int
	slots       []domain.WordSlot
	levelDone   bool
	lastWord    string
	deadline    time.Time
	timerOn     bool
	score       int
	boosters    domain.Boosters
	leaderboard []domain.LeaderboardEntry
	frozen      bool

	connected    bool
	reconnecting int
	connLost     bool
	notices      []domain.Notification

	// epoch changes on every teardown so late request results are dropped.
	epoch uint64
}

// loopTimer is a one-shot timer re-armed by its own tick. Ticks carry the
// generation they were armed with; stop() invalidates queued ones.
type loopTimer struct {
	gen   uint64
	timer core.Timer
}

func (lt *loopTimer) arm(c *Controller, d time.Duration, tick func(gen uint64) Msg) {
	lt.stop()
	gen := lt.gen
	lt.timer = c.deps.Clock.AfterFunc(d, func() { c.post(tick(gen)) })
}

func (lt *loopTimer) stop() {
	lt.gen++
	if lt.timer != nil {
		lt.timer.Stop()
		lt.timer = nil
	}
}

func (lt *loopTimer) current(gen uint64) bool { return gen == lt.gen }

type Controller struct {
	deps   Deps
	inbox  chan Msg
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	handlers map[protocol.Type]inboundHandler
	effects  *effects.Scheduler
	subs     map[chan View]struct{}

	st        state
	countdown loopTimer
	level     loopTimer
	refresh   loopTimer
}

var _ core.TransportEvents = (*Controller)(nil)

// NewController starts the session loop. It stops when parent is cancelled or
// a Shutdown message is processed.
func NewController(parent context.Context, deps Deps) *Controller {
	c := newController(parent, deps)
	go c.loop()
	return c
}

func newController(parent context.Context, deps Deps) *Controller {
	deps.withDefaults()
	ctx, cancel := context.WithCancel(parent)
	c := &Controller{
		deps:   deps,
		inbox:  make(chan Msg, 64),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		subs:   make(map[chan View]struct{}),
		st:     state{screen: ScreenMenu},
	}
	c.handlers = c.inboundHandlers()
	c.effects = effects.NewScheduler(deps.Clock, func(f func()) { c.post(call{fn: f}) })
	c.effects.Register(effects.Freeze, effects.HandlerFuncs{
		OnApply:  c.freeze,
		OnRevert: c.unfreeze,
	})
	return c
}

func (c *Controller) Inbox() chan<- Msg { return c.inbox }

// Post queues m for the loop. It gives up once the controller has stopped.
func (c *Controller) Post(m Msg) { c.post(m) }

func (c *Controller) post(m Msg) {
	select {
	case c.inbox <- m:
	case <-c.ctx.Done():
	}
}

func (c *Controller) Done() <-chan struct{} { return c.done }

// State asks the loop for a fresh View.
func (c *Controller) State(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	select {
	case c.inbox <- GetState{Reply: reply}:
	case <-ctx.Done():
		return View{}, ctx.Err()
	case <-c.done:
		return View{}, ErrStopped
	}
	select {
	case v := <-reply:
		return v, nil
	case <-ctx.Done():
		return View{}, ctx.Err()
	case <-c.done:
		return View{}, ErrStopped
	}
}

// Subscribe returns a channel that receives a View after every processed
// message, starting with the current one. A slow reader only ever misses
// intermediate views, never the latest.
func (c *Controller) Subscribe(buffer int) (<-chan View, func()) {
	ch := make(chan View, max(buffer, 1))
	c.post(subscribe{ch: ch})
	return ch, func() { c.post(unsubscribe{ch: ch}) }
}

func (c *Controller) Topics(ctx context.Context) ([]domain.Topic, error) {
	return c.deps.Rooms.Topics(ctx)
}

// Transport callbacks.

func (c *Controller) OnOpen()                         { c.post(connOpened{}) }
func (c *Controller) OnMessage(env protocol.Envelope) { c.post(inbound{env: env}) }
func (c *Controller) OnConnectionLost()               { c.post(connLost{}) }

func (c *Controller) OnReconnecting(attempt int, delay time.Duration) {
	c.post(connRetrying{attempt: attempt, delay: delay})
}

func (c *Controller) loop() {
	defer c.shutdown()
	for {
		select {
		case <-c.ctx.Done():
			return
		case m := <-c.inbox:
			if _, ok := m.(Shutdown); ok {
				return
			}
			c.handle(m)
		}
	}
}

func (c *Controller) shutdown() {
	c.countdown.stop()
	c.level.stop()
	c.refresh.stop()
	c.effects.CancelAll()
	c.deps.Transport.Disconnect()
	for ch := range c.subs {
		close(ch)
		delete(c.subs, ch)
	}
	c.cancel()
	close(c.done)
	log.Info().Str("module", "session").Msg("session loop stopped")
}

func (c *Controller) handle(m Msg) {
	switch m := m.(type) {
	case GetState:
		select {
		case m.Reply <- c.view():
		default:
		}
		return
	case subscribe:
		c.subs[m.ch] = struct{}{}
		c.send(m.ch, c.view())
		return
	case unsubscribe:
		if _, ok := c.subs[m.ch]; ok {
			delete(c.subs, m.ch)
			close(m.ch)
		}
		return

	case CreateRoom:
		c.createRoom(m)
	case JoinRoom:
		c.joinRoom(m)
	case roomEntered:
		c.onRoomEntered(m)
	case roomInfoFetched:
		c.onRoomInfo(m)
	case RefreshRoom:
		c.fetchRoomInfo()
	case refreshTick:
		c.onRefreshTick(m)
	case ToggleReady:
		c.toggleReady()
	case StartGame:
		c.startGame()
	case LeaveRoom:
		c.leave(true)
	case ReturnToMenu:
		c.leave(false)
	case PlayAgain:
		c.playAgain()

	case TapCell:
		c.tapCell(m)
	case Pointer:
		c.pointer(m)
	case ClearSelection:
		c.deps.Grid.Clear()
	case SubmitWord:
		c.submitWord()
	case UseBooster:
		c.useBooster(m)
	case countdownTick:
		c.onCountdownTick(m)
	case levelTick:
		c.onLevelTick(m)

	case inbound:
		c.dispatch(m.env)
	case connOpened:
		c.onConnOpened()
	case connRetrying:
		c.onConnRetrying(m)
	case connLost:
		c.onConnLost()
	case call:
		m.fn()
	default:
		log.Warn().Str("module", "session").Type("msg", m).Msg("unhandled message")
		return
	}
	c.publish()
}

func (c *Controller) publish() {
	if len(c.subs) == 0 {
		return
	}
	v := c.view()
	for ch := range c.subs {
		c.send(ch, v)
	}
}

// send replaces a stale buffered view rather than blocking the loop.
func (c *Controller) send(ch chan View, v View) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

func (c *Controller) request(fn request) {
	c.deps.Spawn(func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.deps.RequestTimeout)
		defer cancel()
		c.post(fn(ctx))
	})
}

func (c *Controller) sendFrame(t protocol.Type, data any) bool {
	if err := c.deps.Transport.Send(t, data); err != nil {
		log.Debug().Err(err).Str("module", "session").Str("type", string(t)).Msg("frame not sent")
		return false
	}
	return true
}

func (c *Controller) notify(level domain.NoticeLevel, msg string) {
	n := domain.Notification{ID: uuid.NewString(), Level: level, Message: msg}
	c.st.notices = append(c.st.notices, n)
	if extra := len(c.st.notices) - maxNotices; extra > 0 {
		c.st.notices = append([]domain.Notification(nil), c.st.notices[extra:]...)
	}

	lvl := zerolog.InfoLevel
	switch level {
	case domain.NoticeError:
		lvl = zerolog.ErrorLevel
	case domain.NoticeWarning:
		lvl = zerolog.WarnLevel
	}
	log.WithLevel(lvl).Str("module", "session").Str("notice", string(level)).Msg(msg)
}

func (c *Controller) isHost() bool {
	return c.st.player != nil && c.st.room != nil && c.st.room.HostID != "" && c.st.player.ID == c.st.room.HostID
}

// teardown is the only full reset. Safe from any screen.
func (c *Controller) teardown() {
	c.countdown.stop()
	c.level.stop()
	c.refresh.stop()
	c.effects.CancelAll()
	c.deps.Transport.Disconnect()
	c.deps.Transport.SetIdentity("", "")
	c.deps.Grid.Load(nil)
	c.deps.Grid.SetEnabled(true)

	c.st = state{
		screen:  ScreenMenu,
		form:    Form{Name: c.st.form.Name},
		notices: c.st.notices,
		epoch:   c.st.epoch + 1,
	}
}
