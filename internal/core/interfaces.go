package core

import (
	"context"
	"time"

	"github.com/dkeye/Wordbrain/internal/domain"
	"github.com/dkeye/Wordbrain/internal/protocol"
)

// RoomGateway is the request/response side of the server: topics and room
// create/join/lookup.
type RoomGateway interface {
	Topics(ctx context.Context) ([]domain.Topic, error)
	CreateRoom(ctx context.Context, req domain.CreateRoomRequest) (domain.RoomEntry, error)
	JoinRoom(ctx context.Context, req domain.JoinRoomRequest) (domain.RoomEntry, error)
	RoomInfo(ctx context.Context, code domain.RoomCode) (domain.RoomInfo, error)
}

// Transport is the persistent message connection as seen by the session.
// Send enriches every frame with the identity last given to SetIdentity.
type Transport interface {
	Connect() error
	Disconnect()
	Send(t protocol.Type, data any) error
	SetIdentity(id domain.PlayerID, code domain.RoomCode)
}

// TransportEvents receives connection lifecycle callbacks. Calls may come from
// any goroutine; implementations hand them to their own loop.
type TransportEvents interface {
	OnOpen()
	OnMessage(env protocol.Envelope)
	OnReconnecting(attempt int, delay time.Duration)
	OnConnectionLost()
}
