// Package http exposes the running session to local tools: a JSON control
// API plus an SSE stream of view snapshots.
package http

import (
	"context"

	"github.com/dkeye/Wordbrain/internal/app/session"
	"github.com/dkeye/Wordbrain/internal/config"
	"github.com/dkeye/Wordbrain/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Session is the part of the session controller the API drives.
type Session interface {
	Post(m session.Msg)
	State(ctx context.Context) (session.View, error)
	Subscribe(buffer int) (<-chan session.View, func())
	Topics(ctx context.Context) ([]domain.Topic, error)
}

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware tags every request with an id, reusing the caller's
// when one is sent.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func SetupRouter(cfg *config.Config, s Session) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RateLimitMiddleware(NewRateLimiter(cfg.ControlRateLimit, cfg.ControlRateWindow)))

	h := &handlers{session: s, timeout: cfg.APITimeout}

	r.GET("/healthz", h.health)

	api := r.Group("/api")
	api.GET("/state", h.state)
	api.GET("/events", h.events)
	api.GET("/topics", h.topics)

	api.POST("/rooms", h.createRoom)
	api.POST("/rooms/join", h.joinRoom)
	api.POST("/ready", h.command(session.ToggleReady{}))
	api.POST("/start", h.command(session.StartGame{}))
	api.POST("/leave", h.command(session.LeaveRoom{}))
	api.POST("/menu", h.command(session.ReturnToMenu{}))
	api.POST("/again", h.command(session.PlayAgain{}))
	api.POST("/refresh", h.command(session.RefreshRoom{}))

	grid := api.Group("/grid")
	grid.POST("/tap", h.tap)
	grid.POST("/pointer", h.pointer)
	grid.POST("/clear", h.command(session.ClearSelection{}))
	grid.POST("/submit", h.command(session.SubmitWord{}))

	api.POST("/boosters/:kind", h.useBooster)

	log.Info().Str("module", "adapters.http").Str("addr", cfg.ControlAddr).Msg("control api setup")
	return r
}
