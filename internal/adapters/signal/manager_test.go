package signal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkeye/Wordbrain/internal/core/coretest"
	"github.com/dkeye/Wordbrain/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reconnect struct {
	attempt int
	delay   time.Duration
}

type recorder struct {
	opened       chan struct{}
	msgs         chan protocol.Envelope
	reconnecting chan reconnect
	lost         chan struct{}
}

func newRecorder() *recorder {
	return &recorder{
		opened:       make(chan struct{}, 16),
		msgs:         make(chan protocol.Envelope, 16),
		reconnecting: make(chan reconnect, 16),
		lost:         make(chan struct{}, 16),
	}
}

func (r *recorder) OnOpen()                         { r.opened <- struct{}{} }
func (r *recorder) OnMessage(env protocol.Envelope) { r.msgs <- env }
func (r *recorder) OnReconnecting(attempt int, delay time.Duration) {
	r.reconnecting <- reconnect{attempt, delay}
}
func (r *recorder) OnConnectionLost() { r.lost <- struct{}{} }

// helper: receive with a timeout so tests never hang
func recv[T any](t *testing.T, ch <-chan T, within time.Duration) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(within):
		var zero T
		t.Fatalf("timed out waiting for %T", zero)
		return zero
	}
}

func recvNone[T any](t *testing.T, ch <-chan T, within time.Duration) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("expected nothing within %v, got %+v", within, v)
	case <-time.After(within):
	}
}

func newWSServer(t *testing.T, handle func(c *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		handle(c)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/game-websocket"
}

func newManager(t *testing.T, opts Options) (*ConnectionManager, *recorder) {
	t.Helper()
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 5
	}
	m := NewConnectionManager(opts)
	rec := newRecorder()
	m.Bind(rec)
	t.Cleanup(m.Disconnect)
	return m, rec
}

func TestSend_EnrichesWithIdentity(t *testing.T) {
	got := make(chan []byte, 1)
	url := newWSServer(t, func(c *websocket.Conn) {
		_, data, err := c.ReadMessage()
		if err == nil {
			got <- data
		}
	})
	m, rec := newManager(t, Options{URL: url})

	require.NoError(t, m.Connect())
	recv(t, rec.opened, time.Second)
	m.SetIdentity("p1", "AB12")

	require.NoError(t, m.Send(protocol.PlayerReady, protocol.PlayerReadyData{Ready: true}))
	frame := recv(t, got, time.Second)
	assert.JSONEq(t, `{"type":"PLAYER_READY","data":{"ready":true},"playerId":"p1","roomCode":"AB12"}`, string(frame))
}

func TestSend_NotConnected(t *testing.T) {
	m := NewConnectionManager(Options{URL: "ws://127.0.0.1:1/game-websocket"})
	require.ErrorIs(t, m.Send(protocol.StartGame, nil), ErrNotConnected)
}

func TestInbound_DeliveredInOrderAndBadFramesSkipped(t *testing.T) {
	url := newWSServer(t, func(c *websocket.Conn) {
		_ = c.WriteMessage(websocket.TextMessage, []byte(`{"type":"PLAYER_JOINED","data":{"playerName":"Bob"}}`))
		_ = c.WriteMessage(websocket.TextMessage, []byte(`not json`))
		_ = c.WriteMessage(websocket.TextMessage, []byte(`{"data":{}}`))
		_ = c.WriteMessage(websocket.TextMessage, []byte(`{"type":"ROOM_STATE","data":{"hostId":"h"}}`))
		_, _, _ = c.ReadMessage()
	})
	m, rec := newManager(t, Options{URL: url})
	require.NoError(t, m.Connect())

	first := recv(t, rec.msgs, time.Second)
	second := recv(t, rec.msgs, time.Second)
	assert.Equal(t, protocol.PlayerJoined, first.Type)
	assert.Equal(t, protocol.RoomState, second.Type)
	assert.JSONEq(t, `{"hostId":"h"}`, string(second.Data))
}

func TestConnect_Idempotent(t *testing.T) {
	release := make(chan struct{})
	var dials atomic.Int32
	dialer := dialerFunc(func(ctx context.Context) (WSConn, error) {
		dials.Add(1)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil, errors.New("refused")
	})
	m, _ := newManager(t, Options{URL: "ws://x/game-websocket", Dialer: dialer, Clock: coretest.NewFakeClock()})

	require.NoError(t, m.Connect())
	require.NoError(t, m.Connect())
	assert.Equal(t, StateConnecting, m.State())
	close(release)
	assert.Eventually(t, func() bool { return m.State() == StateWaiting }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), dials.Load())
}

func TestReconnect_LinearBackoffThenGivesUpOnce(t *testing.T) {
	clock := coretest.NewFakeClock()
	var dials atomic.Int32
	dialer := dialerFunc(func(context.Context) (WSConn, error) {
		dials.Add(1)
		return nil, errors.New("refused")
	})
	m, rec := newManager(t, Options{URL: "ws://x/game-websocket", Dialer: dialer, Clock: clock, BaseDelay: time.Second})

	require.NoError(t, m.Connect())
	for attempt := 1; attempt <= 5; attempt++ {
		r := recv(t, rec.reconnecting, time.Second)
		assert.Equal(t, reconnect{attempt, time.Duration(attempt) * time.Second}, r)
		assert.Equal(t, []time.Duration{r.delay}, clock.Pending())
		clock.Advance(r.delay)
	}

	recv(t, rec.lost, time.Second)
	recvNone(t, rec.reconnecting, 50*time.Millisecond)
	recvNone(t, rec.lost, 10*time.Millisecond)
	assert.Equal(t, StateDead, m.State())
	assert.Empty(t, clock.Pending())
	assert.Equal(t, int32(6), dials.Load())
}

func TestReconnect_OpenResetsAttempts(t *testing.T) {
	url := newWSServer(t, func(c *websocket.Conn) {
		// drop the connection straight away
	})
	clock := coretest.NewFakeClock()
	m, rec := newManager(t, Options{URL: url, Clock: clock})

	require.NoError(t, m.Connect())
	recv(t, rec.opened, time.Second)
	assert.Equal(t, reconnect{1, time.Second}, recv(t, rec.reconnecting, time.Second))

	clock.Advance(time.Second)
	recv(t, rec.opened, time.Second)
	assert.Equal(t, reconnect{1, time.Second}, recv(t, rec.reconnecting, time.Second), "a successful open resets the budget")
}

func TestDisconnect_NeverReconnects(t *testing.T) {
	url := newWSServer(t, func(c *websocket.Conn) {
		_, _, _ = c.ReadMessage()
	})
	clock := coretest.NewFakeClock()
	m, rec := newManager(t, Options{URL: url, Clock: clock})

	require.NoError(t, m.Connect())
	recv(t, rec.opened, time.Second)
	m.Disconnect()

	recvNone(t, rec.reconnecting, 100*time.Millisecond)
	assert.Equal(t, StateIdle, m.State())
	assert.Empty(t, clock.Pending())
	require.ErrorIs(t, m.Send(protocol.LeaveRoom, nil), ErrNotConnected)
}

func TestDisconnect_CancelsPendingRetry(t *testing.T) {
	clock := coretest.NewFakeClock()
	dialer := dialerFunc(func(context.Context) (WSConn, error) { return nil, errors.New("refused") })
	m, rec := newManager(t, Options{URL: "ws://x/game-websocket", Dialer: dialer, Clock: clock})

	require.NoError(t, m.Connect())
	recv(t, rec.reconnecting, time.Second)
	m.Disconnect()
	clock.Advance(10 * time.Second)

	recvNone(t, rec.reconnecting, 50*time.Millisecond)
	assert.Equal(t, StateIdle, m.State())
}

// stallConn accepts a dial but never completes a write until closed.
type stallConn struct {
	closed chan struct{}
	once   sync.Once
}

func newStallConn() *stallConn { return &stallConn{closed: make(chan struct{})} }

func (c *stallConn) ReadMessage() (int, []byte, error) {
	<-c.closed
	return 0, nil, errors.New("closed")
}

func (c *stallConn) WriteMessage(int, []byte) error {
	<-c.closed
	return errors.New("closed")
}

func (c *stallConn) SetWriteDeadline(time.Time) error { return nil }

func (c *stallConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func fillQueue(t *testing.T, m *ConnectionManager) {
	t.Helper()
	for i := 0; i < 10; i++ {
		err := m.Send(protocol.SubmitWord, protocol.SubmitWordData{Word: "CAT"})
		if errors.Is(err, ErrBackpressure) {
			return
		}
		require.NoError(t, err)
	}
	t.Fatal("send queue never filled")
}

func TestBackpressure_SimplePolicyReconnects(t *testing.T) {
	dialer := dialerFunc(func(context.Context) (WSConn, error) { return newStallConn(), nil })
	m, rec := newManager(t, Options{URL: "ws://x/game-websocket", Dialer: dialer, Clock: coretest.NewFakeClock(), SendBuffer: 1})

	require.NoError(t, m.Connect())
	recv(t, rec.opened, time.Second)
	fillQueue(t, m)

	assert.Equal(t, reconnect{1, time.Second}, recv(t, rec.reconnecting, time.Second))
	assert.Equal(t, StateWaiting, m.State())
}

func TestBackpressure_DropPolicyKeepsConnection(t *testing.T) {
	dialer := dialerFunc(func(context.Context) (WSConn, error) { return newStallConn(), nil })
	m, rec := newManager(t, Options{URL: "ws://x/game-websocket", Dialer: dialer, Clock: coretest.NewFakeClock(), SendBuffer: 1, Policy: DropPolicy{}})

	require.NoError(t, m.Connect())
	recv(t, rec.opened, time.Second)
	fillQueue(t, m)

	recvNone(t, rec.reconnecting, 50*time.Millisecond)
	assert.Equal(t, StateOpen, m.State())
}

type dialerFunc func(ctx context.Context) (WSConn, error)

func (f dialerFunc) DialContext(ctx context.Context, _ string, _ http.Header) (WSConn, error) {
	return f(ctx)
}

func TestEnvelopeJSONOmitsEmptyIdentity(t *testing.T) {
	env, err := protocol.NewEnvelope(protocol.LevelComplete, protocol.LevelCompleteData{Level: 2})
	require.NoError(t, err)
	b, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"LEVEL_COMPLETE","data":{"level":2}}`, string(b))
}
