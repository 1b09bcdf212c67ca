package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Wordbrain/internal/app/effects"
	"github.com/dkeye/Wordbrain/internal/domain"
	"github.com/dkeye/Wordbrain/internal/protocol"
	"github.com/rs/zerolog/log"
)

const defaultEffectDuration = 3 * time.Second

type inboundHandler func(c *Controller, raw json.RawMessage) error

// on decodes the payload into T before calling fn.
func on[T any](fn func(*Controller, T) error) inboundHandler {
	return func(c *Controller, raw json.RawMessage) error {
		v, err := protocol.Decode[T](raw)
		if err != nil {
			return err
		}
		return fn(c, v)
	}
}

func (c *Controller) inboundHandlers() map[protocol.Type]inboundHandler {
	return map[protocol.Type]inboundHandler{
		protocol.RoomCreated:       on((*Controller).onRoomAck),
		protocol.RoomJoined:        on((*Controller).onRoomAck),
		protocol.PlayerJoined:      on((*Controller).onPlayerJoined),
		protocol.PlayerLeft:        on((*Controller).onPlayerLeft),
		protocol.PlayerReady:       on((*Controller).onPlayerReady),
		protocol.RoomState:         on((*Controller).onRoomState),
		protocol.GameStarting:      on((*Controller).onGameStarting),
		protocol.LevelStart:        on((*Controller).onLevelStart),
		protocol.WordAccepted:      on((*Controller).onWordAccepted),
		protocol.WordRejected:      on((*Controller).onWordRejected),
		protocol.OpponentScored:    on((*Controller).onOpponentScored),
		protocol.LeaderboardUpdate: on((*Controller).onLeaderboard),
		protocol.LevelEnd:          on((*Controller).onLevelEnd),
		protocol.GameEnd:           on((*Controller).onGameEnd),
		protocol.EffectReceived:    on((*Controller).onEffect),
		protocol.BoosterApplied:    on((*Controller).onBoosterApplied),
		protocol.TimeAdded:         on((*Controller).onTimeAdded),
		protocol.GridUpdate:        on((*Controller).onGridUpdate),
		protocol.Error:             on((*Controller).onError),
		protocol.InvalidAction:     on((*Controller).onInvalidAction),
	}
}

func (c *Controller) dispatch(env protocol.Envelope) {
	h, ok := c.handlers[env.Type]
	if !ok {
		log.Warn().Str("module", "session").Str("type", string(env.Type)).Msg("unknown message type")
		return
	}
	if c.st.room == nil {
		log.Debug().Str("module", "session").Str("type", string(env.Type)).Msg("message outside a room dropped")
		return
	}
	if err := h(c, env.Data); err != nil {
		log.Error().Err(err).Str("module", "session").Str("type", string(env.Type)).Msg("bad payload")
	}
}

func (c *Controller) onRoomAck(d protocol.RoomEnteredData) error {
	if d.RoomCode != "" && d.RoomCode != c.st.room.RoomCode {
		return nil
	}
	if d.HostID != "" {
		c.st.room.HostID = d.HostID
		c.syncHost()
	}
	return nil
}

func (c *Controller) onPlayerJoined(d protocol.PlayerEventData) error {
	if d.PlayerName != "" && (c.st.player == nil || d.PlayerID != c.st.player.ID) {
		c.notify(domain.NoticeInfo, fmt.Sprintf("%s joined the room", d.PlayerName))
	}
	c.fetchRoomInfo()
	return nil
}

func (c *Controller) onPlayerLeft(d protocol.PlayerEventData) error {
	if d.PlayerName != "" {
		c.notify(domain.NoticeInfo, fmt.Sprintf("%s left the room", d.PlayerName))
	}
	c.fetchRoomInfo()
	return nil
}

func (c *Controller) onPlayerReady(protocol.PlayerEventData) error {
	c.fetchRoomInfo()
	return nil
}

// onRoomState rebuilds the roster from scratch; nothing is patched.
func (c *Controller) onRoomState(d protocol.RoomStateData) error {
	room := c.st.room
	if d.RoomCode != "" && d.RoomCode != room.RoomCode {
		return nil
	}
	if d.HostID != "" {
		room.HostID = d.HostID
	}
	if d.MaxPlayers > 0 {
		room.MaxPlayers = d.MaxPlayers
	}
	switch {
	case d.Players != nil:
		c.st.roster = append([]domain.RosterEntry(nil), d.Players...)
		c.st.rosterSeen = true
		c.st.playerCount = len(c.st.roster)
		if c.st.player != nil {
			for _, e := range c.st.roster {
				if e.ID == c.st.player.ID {
					c.st.ready = e.Ready
				}
			}
		}
	case d.PlayersCount != nil:
		c.st.playerCount = *d.PlayersCount
	}
	c.syncHost()
	return nil
}

func (c *Controller) onGameStarting(d protocol.GameStartingData) error {
	log.Info().Str("module", "session").Int("countdown", d.Countdown).Msg("game starting")
	c.startCountdown(d.Countdown)
	return nil
}

func (c *Controller) onLevelStart(d protocol.LevelStartData) error {
	if err := c.loadGrid(d.Grid); err != nil {
		return err
	}
	if c.st.screen != ScreenInGame {
		c.st.score = 0
		c.st.boosters = domain.NewBoosters()
		c.st.leaderboard = nil
	}
	c.countdown.stop()
	c.st.countdown = 0
	c.st.screen = ScreenInGame
	c.st.level = d.Level
	if d.TotalLevels > 0 {
		c.st.room.LevelCount = d.TotalLevels
	}
	c.st.slots = slotsFor(d)
	c.st.levelDone = false
	c.st.lastWord = ""
	c.startLevelClock(d.Duration)

	log.Info().Str("module", "session").Int("level", d.Level).Int("slots", len(c.st.slots)).Int("duration", d.Duration).Msg("level started")
	return nil
}

func (c *Controller) onWordAccepted(d protocol.WordAcceptedData) error {
	if c.st.screen != ScreenInGame {
		return nil
	}
	c.st.score += d.Points
	if i := domain.ActiveSlot(c.st.slots); i >= 0 {
		word := d.Word
		if word == "" {
			word = c.st.lastWord
		}
		c.st.slots[i].Completed = true
		c.st.slots[i].Word = word
	}
	c.st.lastWord = ""
	c.notify(domain.NoticeSuccess, fmt.Sprintf("✓ Correct! +%d points", d.Points))

	reflowed := false
	if d.Grid != nil {
		if err := c.loadGrid(*d.Grid); err != nil {
			log.Error().Err(err).Str("module", "session").Msg("reflow grid rejected")
		} else {
			reflowed = true
		}
	}
	if !reflowed {
		c.sendFrame(protocol.RequestGridUpdate, nil)
	}
	c.completeLevelIfSolved()
	return nil
}

func (c *Controller) onWordRejected(d protocol.WordRejectedData) error {
	reason := d.Reason
	if reason == "" {
		reason = "Incorrect"
	}
	c.st.lastWord = ""
	c.notify(domain.NoticeError, "✗ "+reason)
	return nil
}

func (c *Controller) onOpponentScored(d protocol.OpponentScoredData) error {
	name := d.PlayerName
	if name == "" {
		name = "Opponent"
	}
	c.notify(domain.NoticeInfo, fmt.Sprintf("%s scored %d points!", name, d.Points))
	return nil
}

func (c *Controller) onLeaderboard(d protocol.LeaderboardData) error {
	c.replaceLeaderboard(d.Leaderboard)
	return nil
}

func (c *Controller) onLevelEnd(d protocol.LevelEndData) error {
	c.stopLevelClock()
	c.deps.Grid.Clear()
	if d.Grid != nil {
		if err := c.loadGrid(*d.Grid); err != nil {
			log.Error().Err(err).Str("module", "session").Msg("level end grid rejected")
		}
	}
	if d.Leaderboard != nil {
		c.replaceLeaderboard(d.Leaderboard)
	}
	c.notify(domain.NoticeSuccess, "Level Complete!")
	return nil
}

func (c *Controller) onGameEnd(d protocol.LeaderboardData) error {
	c.countdown.stop()
	c.st.countdown = 0
	c.stopLevelClock()
	c.effects.CancelAll()
	c.deps.Grid.Clear()
	c.replaceLeaderboard(d.Leaderboard)
	c.st.screen = ScreenResults
	c.st.ready = false
	log.Info().Str("module", "session").Int("score", c.st.score).Msg("game over")
	return nil
}

func (c *Controller) onEffect(d protocol.EffectData) error {
	dur := time.Duration(d.Duration) * time.Millisecond
	if dur <= 0 {
		dur = defaultEffectDuration
	}
	if err := c.effects.Apply(effects.Kind(d.Effect), dur); err != nil {
		if errors.Is(err, effects.ErrUnknownEffect) {
			log.Warn().Str("module", "session").Str("effect", d.Effect).Msg("unknown effect ignored")
			return nil
		}
		return err
	}
	return nil
}

func (c *Controller) onBoosterApplied(d protocol.BoosterAppliedData) error {
	log.Debug().Str("module", "session").Str("booster", string(d.BoosterType)).Msg("booster applied")
	return nil
}

func (c *Controller) onTimeAdded(d protocol.TimeAddedData) error {
	if !c.st.timerOn || d.Seconds <= 0 {
		return nil
	}
	c.st.deadline = c.st.deadline.Add(time.Duration(d.Seconds) * time.Second)
	c.armLevel()
	c.notify(domain.NoticeInfo, fmt.Sprintf("+%ds", d.Seconds))
	return nil
}

func (c *Controller) onGridUpdate(d protocol.GridUpdateData) error {
	if c.st.screen != ScreenInGame {
		return nil
	}
	return c.loadGrid(d.Grid)
}

func (c *Controller) onError(d protocol.ErrorData) error {
	msg := d.Error
	if msg == "" {
		msg = "An error occurred"
	}
	c.notify(domain.NoticeError, msg)
	return nil
}

func (c *Controller) onInvalidAction(d protocol.InvalidActionData) error {
	msg := d.Reason
	if msg == "" {
		msg = d.Error
	}
	if msg == "" {
		msg = "Invalid action"
	}
	c.notify(domain.NoticeWarning, msg)
	return nil
}
