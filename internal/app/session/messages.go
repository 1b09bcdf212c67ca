package session

import (
	"context"
	"time"

	"github.com/dkeye/Wordbrain/internal/domain"
	"github.com/dkeye/Wordbrain/internal/protocol"
)

type Msg interface{ isSessionMsg() }

// User commands.

type CreateRoom struct {
	PlayerName    string
	Topic         string
	LevelCount    int
	LevelDuration int
}

func (CreateRoom) isSessionMsg() {}

type JoinRoom struct {
	PlayerName string
	RoomCode   string
}

func (JoinRoom) isSessionMsg() {}

type ToggleReady struct{}

func (ToggleReady) isSessionMsg() {}

type StartGame struct{}

func (StartGame) isSessionMsg() {}

type LeaveRoom struct{}

func (LeaveRoom) isSessionMsg() {}

type ReturnToMenu struct{}

func (ReturnToMenu) isSessionMsg() {}

type PlayAgain struct{}

func (PlayAgain) isSessionMsg() {}

type RefreshRoom struct{}

func (RefreshRoom) isSessionMsg() {}

type TapCell struct {
	Row, Col int
}

func (TapCell) isSessionMsg() {}

type PointerPhase string

const (
	PointerDown PointerPhase = "down"
	PointerMove PointerPhase = "move"
	PointerUp   PointerPhase = "up"
)

// Pointer is a raw canvas event, mapped to cells with the configured canvas size.
type Pointer struct {
	Phase PointerPhase
	X, Y  float64
}

func (Pointer) isSessionMsg() {}

type ClearSelection struct{}

func (ClearSelection) isSessionMsg() {}

type SubmitWord struct{}

func (SubmitWord) isSessionMsg() {}

type UseBooster struct {
	Kind domain.BoosterKind
}

func (UseBooster) isSessionMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

// Loop-internal messages.

type subscribe struct{ ch chan View }

func (subscribe) isSessionMsg() {}

type unsubscribe struct{ ch chan View }

func (unsubscribe) isSessionMsg() {}

type inbound struct{ env protocol.Envelope }

func (inbound) isSessionMsg() {}

type connOpened struct{}

func (connOpened) isSessionMsg() {}

type connRetrying struct {
	attempt int
	delay   time.Duration
}

func (connRetrying) isSessionMsg() {}

type connLost struct{}

func (connLost) isSessionMsg() {}

// roomEntered and roomInfoFetched carry the epoch they were issued in;
// anything from an older epoch is dropped.
type roomEntered struct {
	epoch uint64
	join  bool
	entry domain.RoomEntry
	err   error
}

func (roomEntered) isSessionMsg() {}

type roomInfoFetched struct {
	epoch uint64
	code  domain.RoomCode
	info  domain.RoomInfo
	err   error
}

func (roomInfoFetched) isSessionMsg() {}

type countdownTick struct{ gen uint64 }

func (countdownTick) isSessionMsg() {}

type levelTick struct{ gen uint64 }

func (levelTick) isSessionMsg() {}

type refreshTick struct{ gen uint64 }

func (refreshTick) isSessionMsg() {}

type call struct{ fn func() }

func (call) isSessionMsg() {}

// request is a blocking call run off the loop; its result comes back as a Msg.
type request func(ctx context.Context) Msg
