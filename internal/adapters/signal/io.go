package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/Wordbrain/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (m *ConnectionManager) writePump(ctx context.Context, c *wsConn) {
	var ping <-chan time.Time
	if m.opts.PingPeriod > 0 {
		ticker := time.NewTicker(m.opts.PingPeriod)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := m.write(c, websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				c.Close()
				return
			}
		case <-ping:
			if err := m.write(c, websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump ping error")
				c.Close()
				return
			}
		}
	}
}

func (m *ConnectionManager) write(c *wsConn, messageType int, data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(m.opts.WriteTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// readPump delivers frames in arrival order until the connection fails.
func (m *ConnectionManager) readPump(ctx context.Context, c *wsConn) {
	defer m.onClosed(c)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Error().Err(err).Str("module", "signal").Msg("readPump read error")
			}
			return
		}
		m.handleFrame(data)
	}
}

func (m *ConnectionManager) handleFrame(data []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}
	if env.Type == "" {
		log.Warn().Str("module", "signal").Msg("frame without type")
		return
	}
	log.Debug().Str("module", "signal").Str("type", string(env.Type)).Msg("received")

	m.mu.Lock()
	events := m.events
	m.mu.Unlock()
	if events != nil {
		events.OnMessage(env)
	}
}
