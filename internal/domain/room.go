package domain

import (
	"errors"
	"strings"
)

const (
	RoomCodeLen          = 6
	DefaultLevelCount    = 10
	DefaultLevelDuration = 30
)

var (
	ErrTopicEmpty    = errors.New("topic is required")
	ErrRoomCodeEmpty = errors.New("room code is required")
	ErrRoomNotFound  = errors.New("room does not exist")
)

type RoomCode string

// NormalizeRoomCode upper-cases and trims a user-entered join code.
func NormalizeRoomCode(code string) (RoomCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", ErrRoomCodeEmpty
	}
	return RoomCode(code), nil
}

type Topic struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Difficulty string `json:"difficulty,omitempty"`
}

type RoomInfo struct {
	RoomCode   RoomCode `json:"roomCode"`
	Topic      string   `json:"topic"`
	MaxPlayers int      `json:"maxPlayers"`
	HostID     PlayerID `json:"hostId"`
	LevelCount int      `json:"levelCount"`
	// PlayersCount is the server's count from the last room-info pull.
	PlayersCount int `json:"playersCount"`
}

// RoomEntry is what a successful create or join hands back.
type RoomEntry struct {
	Player PlayerIdentity
	Room   RoomInfo
}

type CreateRoomRequest struct {
	PlayerName    string `json:"playerName"`
	Topic         string `json:"topic"`
	LevelCount    int    `json:"levelCount"`
	LevelDuration int    `json:"levelDuration"`
}

// Normalize validates required fields and fills defaults.
func (r CreateRoomRequest) Normalize() (CreateRoomRequest, error) {
	name, err := NormalizeName(r.PlayerName)
	if err != nil {
		return r, err
	}
	r.PlayerName = name
	r.Topic = strings.TrimSpace(r.Topic)
	if r.Topic == "" {
		return r, ErrTopicEmpty
	}
	if r.LevelCount <= 0 {
		r.LevelCount = DefaultLevelCount
	}
	if r.LevelDuration <= 0 {
		r.LevelDuration = DefaultLevelDuration
	}
	return r, nil
}

type JoinRoomRequest struct {
	PlayerName string   `json:"playerName"`
	RoomCode   RoomCode `json:"roomCode"`
}

func (r JoinRoomRequest) Normalize() (JoinRoomRequest, error) {
	name, err := NormalizeName(r.PlayerName)
	if err != nil {
		return r, err
	}
	code, err := NormalizeRoomCode(string(r.RoomCode))
	if err != nil {
		return r, err
	}
	r.PlayerName = name
	r.RoomCode = code
	return r, nil
}
