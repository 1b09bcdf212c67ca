package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Wordbrain/internal/core/coretest"
	"github.com/dkeye/Wordbrain/internal/domain"
	"github.com/dkeye/Wordbrain/internal/grid"
	"github.com/dkeye/Wordbrain/internal/protocol"
	"github.com/stretchr/testify/require"
)

var errOffline = errors.New("offline")

type fakeTransport struct {
	mu          sync.Mutex
	online      bool
	connects    int
	disconnects int
	id          domain.PlayerID
	code        domain.RoomCode
	sent        []protocol.Envelope
}

func (f *fakeTransport) Connect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	return nil
}

func (f *fakeTransport) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	f.online = false
}

func (f *fakeTransport) SetIdentity(id domain.PlayerID, code domain.RoomCode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.id, f.code = id, code
}

func (f *fakeTransport) Send(t protocol.Type, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.online {
		return errOffline
	}
	env, err := protocol.NewEnvelope(t, data)
	if err != nil {
		return err
	}
	env.PlayerID, env.RoomCode = f.id, f.code
	f.sent = append(f.sent, env)
	return nil
}

func (f *fakeTransport) types() []protocol.Type {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []protocol.Type
	for _, e := range f.sent {
		out = append(out, e.Type)
	}
	return out
}

func (f *fakeTransport) last(t protocol.Type) (protocol.Envelope, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].Type == t {
			return f.sent[i], true
		}
	}
	return protocol.Envelope{}, false
}

func (f *fakeTransport) count(t protocol.Type) int {
	n := 0
	for _, got := range f.types() {
		if got == t {
			n++
		}
	}
	return n
}

type fakeRooms struct {
	mu          sync.Mutex
	createEntry domain.RoomEntry
	createErr   error
	joinEntry   domain.RoomEntry
	joinErr     error
	info        domain.RoomInfo
	infoErr     error
	creates     []domain.CreateRoomRequest
	joins       []domain.JoinRoomRequest
	infoCalls   int
}

func (f *fakeRooms) Topics(context.Context) ([]domain.Topic, error) {
	return []domain.Topic{{ID: "science", Name: "Science"}}, nil
}

func (f *fakeRooms) CreateRoom(_ context.Context, req domain.CreateRoomRequest) (domain.RoomEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, req)
	return f.createEntry, f.createErr
}

func (f *fakeRooms) JoinRoom(_ context.Context, req domain.JoinRoomRequest) (domain.RoomEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joins = append(f.joins, req)
	return f.joinEntry, f.joinErr
}

func (f *fakeRooms) RoomInfo(context.Context, domain.RoomCode) (domain.RoomInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infoCalls++
	return f.info, f.infoErr
}

func (f *fakeRooms) setInfo(info domain.RoomInfo) {
	f.mu.Lock()
	f.info = info
	f.mu.Unlock()
}

// harness drives a controller without its goroutine: every message is
// handled on the test goroutine and anything it queues is drained by pump.
type harness struct {
	t          *testing.T
	c          *Controller
	clock      *coretest.FakeClock
	tr         *fakeTransport
	rooms      *fakeRooms
	pending    []func()
	deferSpawn bool
}

const (
	aliceID domain.PlayerID = "p-alice"
	bobID   domain.PlayerID = "p-bob"
	code    domain.RoomCode = "AB12"
)

func aliceRooms() *fakeRooms {
	return &fakeRooms{
		createEntry: domain.RoomEntry{
			Player: domain.PlayerIdentity{ID: aliceID, Name: "Alice", IsHost: true},
			Room:   domain.RoomInfo{RoomCode: code, Topic: "science", HostID: aliceID, LevelCount: 10, PlayersCount: 1},
		},
		joinEntry: domain.RoomEntry{
			Player: domain.PlayerIdentity{ID: bobID, Name: "Bob"},
			Room:   domain.RoomInfo{RoomCode: code, Topic: "science", PlayersCount: 2},
		},
		info: domain.RoomInfo{RoomCode: code, Topic: "science", HostID: aliceID, MaxPlayers: 4, PlayersCount: 1},
	}
}

func newHarness(t *testing.T, mode grid.Mode) *harness {
	t.Helper()
	h := &harness{
		t:     t,
		clock: coretest.NewFakeClock(),
		tr:    &fakeTransport{},
		rooms: aliceRooms(),
	}
	h.c = newController(context.Background(), Deps{
		Transport:    h.tr,
		Rooms:        h.rooms,
		Clock:        h.clock,
		Grid:         grid.NewEngine(mode),
		Canvas:       Canvas{Width: 320, Height: 320},
		TickInterval: time.Second,
		Spawn: func(f func()) {
			if h.deferSpawn {
				h.pending = append(h.pending, f)
				return
			}
			f()
		},
	})
	t.Cleanup(h.c.cancel)
	return h
}

func (h *harness) do(m Msg) {
	h.c.handle(m)
	h.pump()
}

func (h *harness) pump() {
	for {
		select {
		case m := <-h.c.inbox:
			h.c.handle(m)
		default:
			return
		}
	}
}

func (h *harness) advance(d time.Duration) {
	h.clock.Advance(d)
	h.pump()
}

func (h *harness) push(t protocol.Type, data any) {
	env, err := protocol.NewEnvelope(t, data)
	require.NoError(h.t, err)
	h.do(inbound{env: env})
}

func (h *harness) pushRaw(t protocol.Type, raw string) {
	h.do(inbound{env: protocol.Envelope{Type: t, Data: json.RawMessage(raw)}})
}

func (h *harness) view() View { return h.c.view() }

func (h *harness) open() {
	h.tr.mu.Lock()
	h.tr.online = true
	h.tr.mu.Unlock()
	h.do(connOpened{})
}

func (h *harness) lastNotice() string {
	v := h.view()
	if len(v.Notifications) == 0 {
		return ""
	}
	return v.Notifications[len(v.Notifications)-1].Message
}

// createAsAlice takes a fresh harness to the lobby with an open connection.
func (h *harness) createAsAlice() {
	h.do(CreateRoom{PlayerName: "Alice", Topic: "science"})
	require.Equal(h.t, ScreenLobby, h.view().Screen)
	h.open()
}

// 4x4 level, (3,0) is a hole.
//
//	C A T S
//	O D O G
//	W E B S
//	. R U N
func levelGrid() protocol.Grid {
	return protocol.Grid{
		Rows: 4,
		Cols: 4,
		Cells: [][]string{
			{"C", "A", "T", "S"},
			{"O", "D", "O", "G"},
			{"W", "E", "B", "S"},
			{"", "R", "U", "N"},
		},
		Shape: &protocol.Shape{Mask: [][]bool{
			{true, true, true, true},
			{true, true, true, true},
			{true, true, true, true},
			{false, true, true, true},
		}},
	}
}

func (h *harness) startLevel(level int, targets []int, duration int) {
	h.push(protocol.LevelStart, protocol.LevelStartData{Level: level, Grid: levelGrid(), WordTargets: targets, Duration: duration})
	require.Equal(h.t, ScreenInGame, h.view().Screen)
}

func decodeSent[T any](t *testing.T, env protocol.Envelope) T {
	t.Helper()
	v, err := protocol.Decode[T](env.Data)
	require.NoError(t, err)
	return v
}
