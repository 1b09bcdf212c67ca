package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/Wordbrain/internal/domain"
	"github.com/dkeye/Wordbrain/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (c *Controller) canSubmitForm() bool {
	if c.st.busy {
		return false
	}
	return c.st.screen == ScreenMenu || c.st.screen == ScreenCreatingOrJoining
}

func (c *Controller) createRoom(m CreateRoom) {
	if !c.canSubmitForm() {
		log.Warn().Str("module", "session").Str("screen", string(c.st.screen)).Msg("create room ignored")
		return
	}
	c.st.form = Form{Name: m.PlayerName, Topic: m.Topic, LevelCount: m.LevelCount, LevelDuration: m.LevelDuration}

	req := domain.CreateRoomRequest{PlayerName: m.PlayerName, Topic: m.Topic, LevelCount: m.LevelCount, LevelDuration: m.LevelDuration}
	if req.LevelCount <= 0 {
		req.LevelCount = c.deps.DefaultLevelCount
	}
	if req.LevelDuration <= 0 {
		req.LevelDuration = c.deps.DefaultLevelDuration
	}
	req, err := req.Normalize()
	if err != nil {
		c.st.form.Error = err.Error()
		return
	}

	c.st.screen = ScreenCreatingOrJoining
	c.st.busy = true
	epoch := c.st.epoch
	c.request(func(ctx context.Context) Msg {
		entry, err := c.deps.Rooms.CreateRoom(ctx, req)
		return roomEntered{epoch: epoch, entry: entry, err: err}
	})
}

func (c *Controller) joinRoom(m JoinRoom) {
	if !c.canSubmitForm() {
		log.Warn().Str("module", "session").Str("screen", string(c.st.screen)).Msg("join room ignored")
		return
	}
	c.st.form = Form{Name: m.PlayerName, RoomCode: m.RoomCode}

	req, err := domain.JoinRoomRequest{PlayerName: m.PlayerName, RoomCode: domain.RoomCode(m.RoomCode)}.Normalize()
	if err != nil {
		c.st.form.Error = err.Error()
		return
	}
	c.st.form.RoomCode = string(req.RoomCode)

	c.st.screen = ScreenCreatingOrJoining
	c.st.busy = true
	epoch := c.st.epoch
	c.request(func(ctx context.Context) Msg {
		entry, err := c.deps.Rooms.JoinRoom(ctx, req)
		return roomEntered{epoch: epoch, join: true, entry: entry, err: err}
	})
}

func (c *Controller) onRoomEntered(m roomEntered) {
	if m.epoch != c.st.epoch || c.st.screen != ScreenCreatingOrJoining {
		log.Debug().Str("module", "session").Msg("stale room entry dropped")
		return
	}
	c.st.busy = false

	if m.err != nil {
		fallback := "Failed to create room"
		if m.join {
			fallback = "Failed to join room"
		}
		msg := domain.UserMessage(m.err, fallback)
		log.Error().Err(m.err).Str("module", "session").Bool("join", m.join).Msg("room request failed")
		c.st.form.Error = msg
		if errors.Is(m.err, domain.ErrRoomNotFound) {
			c.st.form.RoomCode = ""
		}
		c.notify(domain.NoticeError, msg)
		return
	}

	player, room := m.entry.Player, m.entry.Room
	if room.LevelCount <= 0 {
		room.LevelCount = c.deps.DefaultLevelCount
	}
	c.st.player = &player
	c.st.room = &room
	c.st.roster = nil
	c.st.rosterSeen = false
	c.st.playerCount = room.PlayersCount
	c.st.ready = false
	c.st.form.Error = ""
	c.syncHost()
	c.st.screen = ScreenLobby

	log.Info().Str("module", "session").Str("room", string(room.RoomCode)).Str("player", string(player.ID)).Msg("entered room")
	if m.join {
		c.notify(domain.NoticeSuccess, fmt.Sprintf("Joined room %s", room.RoomCode))
	} else {
		c.notify(domain.NoticeSuccess, fmt.Sprintf("Room %s created", room.RoomCode))
	}

	c.deps.Transport.SetIdentity(player.ID, room.RoomCode)
	if err := c.deps.Transport.Connect(); err != nil {
		log.Error().Err(err).Str("module", "session").Msg("connect")
		c.notify(domain.NoticeError, "Could not reach the game server")
	}
	c.armRefresh()
	c.fetchRoomInfo()
}

func (c *Controller) syncHost() {
	if c.st.player != nil {
		c.st.player.IsHost = c.isHost()
	}
}

func (c *Controller) armRefresh() {
	c.refresh.arm(c, c.deps.RoomRefreshInterval, func(gen uint64) Msg { return refreshTick{gen: gen} })
}

func (c *Controller) onRefreshTick(m refreshTick) {
	if !c.refresh.current(m.gen) || c.st.room == nil {
		return
	}
	if c.st.screen == ScreenLobby {
		c.fetchRoomInfo()
	}
	c.armRefresh()
}

func (c *Controller) fetchRoomInfo() {
	if c.st.room == nil {
		return
	}
	epoch, code := c.st.epoch, c.st.room.RoomCode
	c.request(func(ctx context.Context) Msg {
		info, err := c.deps.Rooms.RoomInfo(ctx, code)
		return roomInfoFetched{epoch: epoch, code: code, info: info, err: err}
	})
}

// onRoomInfo overwrites host, capacity and counts wholesale. Once a roster
// push has been seen the roster length wins over the polled count.
func (c *Controller) onRoomInfo(m roomInfoFetched) {
	if m.epoch != c.st.epoch || c.st.room == nil || c.st.room.RoomCode != m.code {
		return
	}
	if m.err != nil {
		log.Warn().Err(m.err).Str("module", "session").Str("room", string(m.code)).Msg("room info refresh failed")
		return
	}
	room := c.st.room
	if m.info.HostID != "" {
		room.HostID = m.info.HostID
	}
	if m.info.MaxPlayers > 0 {
		room.MaxPlayers = m.info.MaxPlayers
	}
	if m.info.Topic != "" {
		room.Topic = m.info.Topic
	}
	if m.info.LevelCount > 0 {
		room.LevelCount = m.info.LevelCount
	}
	room.PlayersCount = m.info.PlayersCount
	if !c.st.rosterSeen {
		c.st.playerCount = m.info.PlayersCount
	}
	c.syncHost()
}

func (c *Controller) toggleReady() {
	if c.st.screen != ScreenLobby {
		return
	}
	want := !c.st.ready
	if !c.sendFrame(protocol.PlayerReady, protocol.PlayerReadyData{Ready: want}) {
		c.notify(domain.NoticeWarning, "Not connected to the game server")
		return
	}
	c.st.ready = want
}

func (c *Controller) startGame() {
	if c.st.screen != ScreenLobby {
		return
	}
	if !c.isHost() {
		c.notify(domain.NoticeWarning, "Only the room owner can start the game.")
		return
	}
	if !c.sendFrame(protocol.StartGame, nil) {
		c.notify(domain.NoticeWarning, "Not connected to the game server")
	}
}

// leave tears everything down. announce sends LEAVE_ROOM first when there is
// a room to leave.
func (c *Controller) leave(announce bool) {
	if announce && c.st.room != nil {
		c.sendFrame(protocol.LeaveRoom, nil)
	}
	had := c.st.room != nil
	c.teardown()
	if had {
		log.Info().Str("module", "session").Msg("left room")
	}
}

func (c *Controller) playAgain() {
	if c.st.screen != ScreenResults {
		return
	}
	if c.st.room == nil || c.st.player == nil {
		c.teardown()
		return
	}
	c.st.screen = ScreenLobby
	c.st.ready = false
	c.st.level = 0
	c.st.slots = nil
	c.deps.Grid.Load(nil)
	c.armRefresh()
	c.fetchRoomInfo()
}

func (c *Controller) onConnOpened() {
	c.st.connected = true
	c.st.reconnecting = 0
	c.st.connLost = false
	if c.st.room == nil {
		return
	}
	// The first enriched frame is what binds this socket to the player.
	switch c.st.screen {
	case ScreenCountdown, ScreenInGame:
		c.sendFrame(protocol.RequestGridUpdate, nil)
	default:
		c.sendFrame(protocol.PlayerReady, protocol.PlayerReadyData{Ready: c.st.ready})
	}
}

func (c *Controller) onConnRetrying(m connRetrying) {
	c.st.connected = false
	c.st.reconnecting = m.attempt
	if m.attempt == 1 && c.st.room != nil {
		c.notify(domain.NoticeWarning, "Connection interrupted, reconnecting...")
	}
}

func (c *Controller) onConnLost() {
	c.st.connected = false
	c.st.reconnecting = 0
	if c.st.connLost {
		return
	}
	c.st.connLost = true
	c.notify(domain.NoticeError, "Connection lost. Please restart the client.")
}
