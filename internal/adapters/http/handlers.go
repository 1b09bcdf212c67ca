package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dkeye/Wordbrain/internal/app/session"
	"github.com/dkeye/Wordbrain/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type CreateRoomRequest struct {
	Name          string `json:"name"`
	Topic         string `json:"topic"`
	LevelCount    int    `json:"levelCount" binding:"gte=0"`
	LevelDuration int    `json:"levelDuration" binding:"gte=0"`
}

type JoinRoomRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type TapRequest struct {
	Row int `json:"row" binding:"gte=0"`
	Col int `json:"col" binding:"gte=0"`
}

type PointerRequest struct {
	Phase string  `json:"phase" binding:"required,oneof=down move up"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type handlers struct {
	session Session
	timeout time.Duration
}

func (h *handlers) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

func (h *handlers) accept(c *gin.Context, m session.Msg) {
	h.session.Post(m)
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func badRequest(c *gin.Context, err error) {
	log.Debug().Err(err).Str("module", "adapters.http").Str("rid", c.GetString("request_id")).Str("path", c.FullPath()).Msg("bad request")
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// command answers a body-less POST by posting a fixed message.
func (h *handlers) command(m session.Msg) gin.HandlerFunc {
	return func(c *gin.Context) { h.accept(c, m) }
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) state(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	v, err := h.session.State(ctx)
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, v)
}

// events streams a "view" event after every change until the client goes
// away or the session stops.
func (h *handlers) events(c *gin.Context) {
	views, unsubscribe := h.session.Subscribe(1)
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	rid := c.GetString("request_id")
	log.Info().Str("module", "adapters.http").Str("rid", rid).Msg("view stream opened")
	c.Stream(func(io.Writer) bool {
		select {
		case v, ok := <-views:
			if !ok {
				return false
			}
			c.SSEvent("view", v)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
	log.Info().Str("module", "adapters.http").Str("rid", rid).Msg("view stream closed")
}

func (h *handlers) topics(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	topics, err := h.session.Topics(ctx)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("rid", c.GetString("request_id")).Msg("topics")
		c.JSON(http.StatusBadGateway, gin.H{"error": domain.UserMessage(err, "Failed to load topics")})
		return
	}
	c.JSON(http.StatusOK, gin.H{"topics": topics})
}

func (h *handlers) createRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.accept(c, session.CreateRoom{
		PlayerName:    req.Name,
		Topic:         req.Topic,
		LevelCount:    req.LevelCount,
		LevelDuration: req.LevelDuration,
	})
}

func (h *handlers) joinRoom(c *gin.Context) {
	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.accept(c, session.JoinRoom{PlayerName: req.Name, RoomCode: req.Code})
}

func (h *handlers) tap(c *gin.Context) {
	var req TapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.accept(c, session.TapCell{Row: req.Row, Col: req.Col})
}

func (h *handlers) pointer(c *gin.Context) {
	var req PointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.accept(c, session.Pointer{Phase: session.PointerPhase(req.Phase), X: req.X, Y: req.Y})
}

func (h *handlers) useBooster(c *gin.Context) {
	kind := domain.BoosterKind(strings.ToUpper(strings.TrimSpace(c.Param("kind"))))
	h.accept(c, session.UseBooster{Kind: kind})
}
