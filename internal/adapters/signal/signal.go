// Package signal keeps the persistent websocket to the game server: dialing,
// read/write pumps, identity enrichment and reconnection.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrNotConnected = errors.New("not connected")
	ErrClosed       = errors.New("connection closed")
)

// WSConn is the subset of *websocket.Conn the pumps use.
type WSConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type Dialer interface {
	DialContext(ctx context.Context, url string, header http.Header) (WSConn, error)
}

// GorillaDialer dials with a gorilla websocket.Dialer.
type GorillaDialer struct {
	Dialer *websocket.Dialer
}

func (d GorillaDialer) DialContext(ctx context.Context, url string, header http.Header) (WSConn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

type wsConn struct {
	conn WSConn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func newWSConn(conn WSConn, buffer int) *wsConn {
	return &wsConn{conn: conn, send: make(chan []byte, buffer)}
}

func (c *wsConn) TrySend(b []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- b:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}
