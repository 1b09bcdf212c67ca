package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/Wordbrain/internal/core"
	"github.com/dkeye/Wordbrain/internal/domain"
	"github.com/dkeye/Wordbrain/internal/protocol"
	"github.com/rs/zerolog/log"
)

type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateWaiting
	StateDead
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateWaiting:
		return "waiting"
	case StateDead:
		return "dead"
	}
	return "idle"
}

type Options struct {
	URL          string
	MaxAttempts  int
	BaseDelay    time.Duration
	WriteTimeout time.Duration
	PingPeriod   time.Duration
	SendBuffer   int
	DialTimeout  time.Duration
	Dialer       Dialer
	Clock        core.Clock
	Policy       Policy
}

func (o *Options) withDefaults() {
	if o.BaseDelay <= 0 {
		o.BaseDelay = time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 32
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 10 * time.Second
	}
	if o.Dialer == nil {
		o.Dialer = GorillaDialer{}
	}
	if o.Clock == nil {
		o.Clock = core.SystemClock{}
	}
	if o.Policy == nil {
		o.Policy = SimplePolicy{}
	}
}

// ConnectionManager owns at most one live websocket. After an unexpected
// close it retries MaxAttempts times with a delay of attempt*BaseDelay, then
// gives up for good and reports the loss once.
type ConnectionManager struct {
	opts   Options
	events core.TransportEvents

	mu       sync.Mutex
	state    State
	gen      uint64
	attempts int
	conn     *wsConn
	cancel   context.CancelFunc
	retry    core.Timer

	playerID domain.PlayerID
	roomCode domain.RoomCode
}

var _ core.Transport = (*ConnectionManager)(nil)

func NewConnectionManager(opts Options) *ConnectionManager {
	opts.withDefaults()
	return &ConnectionManager{opts: opts}
}

// Bind sets the receiver of lifecycle callbacks. Call before Connect.
func (m *ConnectionManager) Bind(events core.TransportEvents) {
	m.mu.Lock()
	m.events = events
	m.mu.Unlock()
}

func (m *ConnectionManager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *ConnectionManager) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

func (m *ConnectionManager) SetIdentity(id domain.PlayerID, code domain.RoomCode) {
	m.mu.Lock()
	m.playerID = id
	m.roomCode = code
	m.mu.Unlock()
}

// Connect opens the connection in the background. It is a no-op while a
// connection is open or being dialed; from any other state it starts over
// with a fresh attempt budget.
func (m *ConnectionManager) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.opts.URL == "" {
		return fmt.Errorf("connect: %w", ErrNotConnected)
	}
	switch m.state {
	case StateOpen, StateConnecting:
		return nil
	}
	m.stopRetryLocked()
	m.gen++
	m.attempts = 0
	m.dialLocked()
	return nil
}

// Disconnect closes the connection and cancels any pending retry. Nothing
// reconnects afterwards until Connect is called again.
func (m *ConnectionManager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.stopRetryLocked()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	if m.state != StateIdle {
		log.Info().Str("module", "signal").Msg("disconnected")
	}
	m.state = StateIdle
	m.attempts = 0
}

// Send enriches data with the current identity and queues it. When no
// connection is open the frame is dropped with a warning.
func (m *ConnectionManager) Send(t protocol.Type, data any) error {
	env, err := protocol.NewEnvelope(t, data)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("send marshal")
		return err
	}

	m.mu.Lock()
	if m.state != StateOpen || m.conn == nil {
		state := m.state
		m.mu.Unlock()
		log.Warn().Str("module", "signal").Str("type", string(t)).Str("state", state.String()).Msg("send while not connected")
		return ErrNotConnected
	}
	env.PlayerID = m.playerID
	env.RoomCode = m.roomCode
	conn := m.conn
	m.mu.Unlock()

	b, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("send marshal envelope")
		return err
	}
	if err := conn.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("type", string(t)).Msg("send dropped")
		if errors.Is(err, ErrBackpressure) && m.opts.Policy.OnBackpressure(t) == Reconnect {
			log.Warn().Str("module", "signal").Msg("send queue full, dropping connection")
			conn.Close()
		}
		return err
	}
	log.Debug().Str("module", "signal").Str("type", string(t)).Msg("sent")
	return nil
}

func (m *ConnectionManager) stopRetryLocked() {
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
}

func (m *ConnectionManager) dialLocked() {
	m.state = StateConnecting
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go m.dial(ctx, m.gen)
}

func (m *ConnectionManager) dial(ctx context.Context, gen uint64) {
	dialCtx, cancel := context.WithTimeout(ctx, m.opts.DialTimeout)
	raw, err := m.opts.Dialer.DialContext(dialCtx, m.opts.URL, nil)
	cancel()

	m.mu.Lock()
	if gen != m.gen || m.state != StateConnecting {
		m.mu.Unlock()
		if raw != nil {
			_ = raw.Close()
		}
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("url", m.opts.URL).Msg("dial failed")
		m.closedLocked()
		return
	}

	c := newWSConn(raw, m.opts.SendBuffer)
	m.conn = c
	m.state = StateOpen
	m.attempts = 0
	events := m.events
	m.mu.Unlock()

	log.Info().Str("module", "signal").Str("url", m.opts.URL).Msg("connected")
	go m.writePump(ctx, c)
	if events != nil {
		events.OnOpen()
	}
	m.readPump(ctx, c)
}

// onClosed handles the end of c. Closes of superseded or explicitly closed
// connections are ignored.
func (m *ConnectionManager) onClosed(c *wsConn) {
	c.Close()
	m.mu.Lock()
	if m.conn != c {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	m.closedLocked()
}

// closedLocked schedules the next attempt or gives up. It releases m.mu.
func (m *ConnectionManager) closedLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	events := m.events
	if m.attempts >= m.opts.MaxAttempts {
		m.state = StateDead
		m.mu.Unlock()
		log.Error().Str("module", "signal").Int("attempts", m.opts.MaxAttempts).Msg("connection lost, giving up")
		if events != nil {
			events.OnConnectionLost()
		}
		return
	}

	m.attempts++
	attempt := m.attempts
	delay := time.Duration(attempt) * m.opts.BaseDelay
	m.state = StateWaiting
	gen := m.gen
	m.retry = m.opts.Clock.AfterFunc(delay, func() { m.retryFire(gen) })
	m.mu.Unlock()

	log.Warn().Str("module", "signal").Int("attempt", attempt).Dur("delay", delay).Msg("reconnecting")
	if events != nil {
		events.OnReconnecting(attempt, delay)
	}
}

func (m *ConnectionManager) retryFire(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || m.state != StateWaiting {
		return
	}
	m.retry = nil
	m.dialLocked()
}
