// Package rooms talks to the server's request/response room API.
package rooms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dkeye/Wordbrain/internal/core"
	"github.com/dkeye/Wordbrain/internal/domain"
	"github.com/rs/zerolog/log"
)

type Client struct {
	base *url.URL
	http *http.Client
}

var _ core.RoomGateway = (*Client)(nil)

func NewClient(serverURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	return &Client{base: u, http: &http.Client{Timeout: timeout}}, nil
}

type entryResponse struct {
	RoomCode   domain.RoomCode `json:"roomCode"`
	PlayerID   domain.PlayerID `json:"playerId"`
	PlayerName string          `json:"playerName"`
	Topic      string          `json:"topic"`
	IsHost     bool            `json:"isHost"`
	HostID     domain.PlayerID `json:"hostId"`
	Players    int             `json:"players"`
	Error      string          `json:"error"`
}

func (r entryResponse) entry(levelCount int) domain.RoomEntry {
	hostID := r.HostID
	if hostID == "" && r.IsHost {
		hostID = r.PlayerID
	}
	return domain.RoomEntry{
		Player: domain.PlayerIdentity{ID: r.PlayerID, Name: r.PlayerName, IsHost: hostID != "" && hostID == r.PlayerID},
		Room: domain.RoomInfo{
			RoomCode:     r.RoomCode,
			Topic:        r.Topic,
			HostID:       hostID,
			LevelCount:   levelCount,
			PlayersCount: r.Players,
		},
	}
}

type roomInfoResponse struct {
	RoomCode   domain.RoomCode `json:"roomCode"`
	Topic      string          `json:"topic"`
	Players    int             `json:"players"`
	MaxPlayers int             `json:"maxPlayers"`
	Status     string          `json:"status"`
	HostID     domain.PlayerID `json:"hostId"`
	LevelCount int             `json:"levelCount"`
}

func (c *Client) Topics(ctx context.Context) ([]domain.Topic, error) {
	var topics []domain.Topic
	if err := c.do(ctx, http.MethodGet, "/api/topics", nil, &topics); err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}

func (c *Client) CreateRoom(ctx context.Context, req domain.CreateRoomRequest) (domain.RoomEntry, error) {
	var resp entryResponse
	if err := c.do(ctx, http.MethodPost, "/api/rooms/create", req, &resp); err != nil {
		return domain.RoomEntry{}, err
	}
	if resp.Error != "" {
		return domain.RoomEntry{}, &domain.ServerError{Status: http.StatusOK, Message: resp.Error}
	}
	if resp.PlayerName == "" {
		resp.PlayerName = req.PlayerName
	}
	if resp.Topic == "" {
		resp.Topic = req.Topic
	}
	resp.IsHost = true
	log.Info().Str("module", "rooms").Str("room", string(resp.RoomCode)).Msg("room created")
	return resp.entry(req.LevelCount), nil
}

func (c *Client) JoinRoom(ctx context.Context, req domain.JoinRoomRequest) (domain.RoomEntry, error) {
	var resp entryResponse
	if err := c.do(ctx, http.MethodPost, "/api/rooms/join", req, &resp); err != nil {
		return domain.RoomEntry{}, err
	}
	if resp.Error != "" {
		return domain.RoomEntry{}, &domain.ServerError{Status: http.StatusOK, Message: resp.Error}
	}
	if resp.RoomCode == "" {
		resp.RoomCode = req.RoomCode
	}
	if resp.PlayerName == "" {
		resp.PlayerName = req.PlayerName
	}
	log.Info().Str("module", "rooms").Str("room", string(resp.RoomCode)).Msg("room joined")
	return resp.entry(domain.DefaultLevelCount), nil
}

func (c *Client) RoomInfo(ctx context.Context, code domain.RoomCode) (domain.RoomInfo, error) {
	var resp roomInfoResponse
	if err := c.do(ctx, http.MethodGet, "/api/rooms/"+url.PathEscape(string(code)), nil, &resp); err != nil {
		return domain.RoomInfo{}, fmt.Errorf("room info %s: %w", code, err)
	}
	if resp.RoomCode == "" {
		resp.RoomCode = code
	}
	return domain.RoomInfo{
		RoomCode:     resp.RoomCode,
		Topic:        resp.Topic,
		MaxPlayers:   resp.MaxPlayers,
		HostID:       resp.HostID,
		LevelCount:   resp.LevelCount,
		PlayersCount: resp.Players,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &domain.ServerError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		}
		log.Warn().Str("module", "rooms").Str("path", path).Int("status", resp.StatusCode).Str("error", apiErr.Message).Msg("request failed")
		return apiErr
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
