// Package protocol describes the JSON messages exchanged with the game server
// over the persistent connection.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/Wordbrain/internal/domain"
)

type Type string

// Outbound.
const (
	CreateRoom        Type = "CREATE_ROOM"
	JoinRoom          Type = "JOIN_ROOM"
	PlayerReady       Type = "PLAYER_READY"
	StartGame         Type = "START_GAME"
	LeaveRoom         Type = "LEAVE_ROOM"
	SubmitWord        Type = "SUBMIT_WORD"
	UseBooster        Type = "USE_BOOSTER"
	RequestGridUpdate Type = "REQUEST_GRID_UPDATE"
	LevelComplete     Type = "LEVEL_COMPLETE"
)

// Inbound. PlayerReady doubles as the server's roster notice.
const (
	RoomCreated       Type = "ROOM_CREATED"
	RoomJoined        Type = "ROOM_JOINED"
	PlayerJoined      Type = "PLAYER_JOINED"
	PlayerLeft        Type = "PLAYER_LEFT"
	RoomState         Type = "ROOM_STATE"
	GameStarting      Type = "GAME_STARTING"
	LevelStart        Type = "LEVEL_START"
	WordAccepted      Type = "WORD_ACCEPTED"
	WordRejected      Type = "WORD_REJECTED"
	OpponentScored    Type = "OPPONENT_SCORED"
	LeaderboardUpdate Type = "LEADERBOARD_UPDATE"
	LevelEnd          Type = "LEVEL_END"
	GameEnd           Type = "GAME_END"
	EffectReceived    Type = "EFFECT_RECEIVED"
	BoosterApplied    Type = "BOOSTER_APPLIED"
	TimeAdded         Type = "TIME_ADDED"
	GridUpdate        Type = "GRID_UPDATE"
	Error             Type = "ERROR"
	InvalidAction     Type = "INVALID_ACTION"
)

// Envelope is the frame shape in both directions. PlayerID and RoomCode are
// filled in by the connection manager on the way out.
type Envelope struct {
	Type     Type            `json:"type"`
	Data     json.RawMessage `json:"data,omitempty"`
	PlayerID domain.PlayerID `json:"playerId,omitempty"`
	RoomCode domain.RoomCode `json:"roomCode,omitempty"`
}

// NewEnvelope marshals data into an envelope. A nil payload becomes {}.
func NewEnvelope(t Type, data any) (Envelope, error) {
	if data == nil {
		return Envelope{Type: t, Data: json.RawMessage(`{}`)}, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Envelope{Type: t, Data: b}, nil
}

// Decode unmarshals the data field. An absent data field decodes as {}.
func Decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 || string(raw) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode payload: %w", err)
	}
	return v, nil
}
