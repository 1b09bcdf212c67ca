package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Wordbrain/internal/domain"
	"github.com/dkeye/Wordbrain/internal/grid"
	"github.com/dkeye/Wordbrain/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (c *Controller) tapCell(m TapCell) {
	if c.st.screen != ScreenInGame {
		return
	}
	c.deps.Grid.Tap(grid.Cell{Row: m.Row, Col: m.Col})
}

func (c *Controller) pointer(m Pointer) {
	if c.st.screen != ScreenInGame {
		return
	}
	snap := c.deps.Grid.Snapshot()
	if snap == nil {
		return
	}
	layout := grid.Fit(c.deps.Canvas.Width, c.deps.Canvas.Height, snap.Rows(), snap.Cols())
	cell, ok := layout.CellAt(m.X, m.Y)

	switch m.Phase {
	case PointerDown:
		if ok {
			c.deps.Grid.Press(cell)
		}
	case PointerMove:
		if ok {
			c.deps.Grid.Drag(cell)
		}
	case PointerUp:
		c.deps.Grid.Release()
	}
}

// submitWord sends the path and clears it straight away. The server's answer
// only affects score and notifications.
func (c *Controller) submitWord() {
	if c.st.screen != ScreenInGame {
		return
	}
	path := c.deps.Grid.Path()
	if len(path) == 0 {
		log.Debug().Str("module", "session").Msg("submit with empty path ignored")
		return
	}
	word := c.deps.Grid.Word()
	coords := make([]protocol.Coord, len(path))
	for i, p := range path {
		coords[i] = protocol.Coord{Row: p.Row, Col: p.Col}
	}
	c.deps.Grid.Clear()
	c.st.lastWord = word
	c.sendFrame(protocol.SubmitWord, protocol.SubmitWordData{Word: word, Path: coords})
}

// useBooster spends a charge before the server answers; a server-side refusal
// is not reconciled.
func (c *Controller) useBooster(m UseBooster) {
	if c.st.screen != ScreenInGame || c.st.boosters == nil {
		return
	}
	switch err := c.st.boosters.Use(m.Kind); {
	case errors.Is(err, domain.ErrUnknownBooster):
		c.notify(domain.NoticeWarning, fmt.Sprintf("Unknown booster %s", m.Kind))
		return
	case errors.Is(err, domain.ErrBoosterUsedUp):
		c.notify(domain.NoticeWarning, fmt.Sprintf("No %s boosters left", m.Kind.Label()))
		return
	}
	c.sendFrame(protocol.UseBooster, protocol.UseBoosterData{BoosterType: m.Kind})
	c.notify(domain.NoticeInfo, fmt.Sprintf("%s activated", m.Kind.Label()))
}

func (c *Controller) startCountdown(from int) {
	c.st.screen = ScreenCountdown
	c.st.countdown = max(from, 0)
	c.countdown.stop()
	if c.st.countdown > 0 {
		c.armCountdown()
	}
}

func (c *Controller) armCountdown() {
	c.countdown.arm(c, c.deps.TickInterval, func(gen uint64) Msg { return countdownTick{gen: gen} })
}

func (c *Controller) onCountdownTick(m countdownTick) {
	if !c.countdown.current(m.gen) {
		return
	}
	c.st.countdown--
	if c.st.countdown <= 0 {
		c.st.countdown = 0
		c.countdown.stop()
		return
	}
	c.armCountdown()
}

// Level clock. Remaining time is always derived from the deadline; ticks only
// trigger a re-render. Hitting zero ends nothing, LEVEL_END does.

func (c *Controller) startLevelClock(seconds int) {
	c.level.stop()
	if seconds <= 0 {
		c.st.timerOn = false
		return
	}
	c.st.deadline = c.deps.Clock.Now().Add(time.Duration(seconds) * time.Second)
	c.st.timerOn = true
	c.armLevel()
}

func (c *Controller) armLevel() {
	c.level.arm(c, c.deps.TickInterval, func(gen uint64) Msg { return levelTick{gen: gen} })
}

func (c *Controller) stopLevelClock() {
	c.level.stop()
	c.st.timerOn = false
}

func (c *Controller) onLevelTick(m levelTick) {
	if !c.level.current(m.gen) || !c.st.timerOn {
		return
	}
	if c.remaining() <= 0 {
		c.level.stop()
		return
	}
	c.armLevel()
}

// remaining is whole seconds left, rounded up.
func (c *Controller) remaining() int {
	if !c.st.timerOn {
		return 0
	}
	left := c.st.deadline.Sub(c.deps.Clock.Now())
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

func (c *Controller) loadGrid(g protocol.Grid) error {
	snap, err := grid.FromWire(g)
	if err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	c.deps.Grid.Load(snap)
	return nil
}

func slotsFor(d protocol.LevelStartData) []domain.WordSlot {
	if len(d.WordSlots) > 0 {
		out := make([]domain.WordSlot, len(d.WordSlots))
		copy(out, d.WordSlots)
		return out
	}
	out := make([]domain.WordSlot, len(d.WordTargets))
	for i, n := range d.WordTargets {
		out[i] = domain.WordSlot{Length: n}
	}
	return out
}

func (c *Controller) completeLevelIfSolved() {
	if c.st.levelDone || len(c.st.slots) == 0 || domain.ActiveSlot(c.st.slots) >= 0 {
		return
	}
	c.st.levelDone = true
	c.sendFrame(protocol.LevelComplete, protocol.LevelCompleteData{Level: c.st.level})
}

func (c *Controller) replaceLeaderboard(entries []domain.LeaderboardEntry) {
	c.st.leaderboard = append([]domain.LeaderboardEntry(nil), entries...)
	if c.st.player == nil {
		return
	}
	for _, e := range c.st.leaderboard {
		if e.PlayerID == c.st.player.ID {
			c.st.score = e.Score
			return
		}
	}
}

func (c *Controller) freeze(d time.Duration) {
	c.st.frozen = true
	c.deps.Grid.SetEnabled(false)
	secs := int((d + time.Second - 1) / time.Second)
	c.notify(domain.NoticeWarning, fmt.Sprintf("Frozen for %ds!", secs))
}

func (c *Controller) unfreeze(expired bool) {
	c.st.frozen = false
	c.deps.Grid.SetEnabled(true)
	if expired {
		c.notify(domain.NoticeInfo, "Unfrozen!")
	}
}
