package session

import (
	"github.com/dkeye/Wordbrain/internal/domain"
	"github.com/dkeye/Wordbrain/internal/grid"
)

type Screen string

const (
	ScreenMenu              Screen = "menu"
	ScreenCreatingOrJoining Screen = "creatingOrJoining"
	ScreenLobby             Screen = "lobby"
	ScreenCountdown         Screen = "countdown"
	ScreenInGame            Screen = "inGame"
	ScreenResults           Screen = "results"
)

// Timer colour thresholds, in seconds left.
const (
	WarningSeconds = 10
	DangerSeconds  = 5
)

type TimerLevel string

const (
	TimerNormal  TimerLevel = "normal"
	TimerWarning TimerLevel = "warning"
	TimerDanger  TimerLevel = "danger"
)

func timerLevel(remaining int) TimerLevel {
	switch {
	case remaining <= DangerSeconds:
		return TimerDanger
	case remaining <= WarningSeconds:
		return TimerWarning
	}
	return TimerNormal
}

// Form mirrors the create/join inputs. Error is the inline validation or
// request error.
type Form struct {
	Name          string `json:"name"`
	Topic         string `json:"topic"`
	RoomCode      string `json:"roomCode"`
	LevelCount    int    `json:"levelCount"`
	LevelDuration int    `json:"levelDuration"`
	Error         string `json:"error,omitempty"`
}

type GridView struct {
	Rows    int         `json:"rows"`
	Cols    int         `json:"cols"`
	Cells   [][]string  `json:"cells"`
	Mask    [][]bool    `json:"mask"`
	Path    []grid.Cell `json:"path"`
	Word    string      `json:"word"`
	Enabled bool        `json:"enabled"`
}

// Selected reports whether (row, col) is on the current path.
func (g *GridView) Selected(row, col int) bool {
	for _, c := range g.Path {
		if c.Row == row && c.Col == col {
			return true
		}
	}
	return false
}

type BoosterView struct {
	Kind      domain.BoosterKind `json:"kind"`
	Label     string             `json:"label"`
	Available int                `json:"available"`
	Used      int                `json:"used"`
}

// View is an immutable snapshot of the session for rendering.
type View struct {
	Screen Screen `json:"screen"`
	Form   Form   `json:"form"`
	Busy   bool   `json:"busy"`

	Player       *domain.PlayerIdentity `json:"player,omitempty"`
	Room         *domain.RoomInfo       `json:"room,omitempty"`
	Roster       []domain.RosterEntry   `json:"roster"`
	PlayerCount  int                    `json:"playerCount"`
	MaxPlayers   int                    `json:"maxPlayers"`
	StartVisible bool                   `json:"startVisible"`
	Ready        bool                   `json:"ready"`
	Countdown    int                    `json:"countdown"`

	Level       int                       `json:"level"`
	Grid        *GridView                 `json:"grid,omitempty"`
	Slots       []domain.WordSlot         `json:"slots"`
	ActiveSlot  int                       `json:"activeSlot"`
	Remaining   int                       `json:"remaining"`
	TimerLevel  TimerLevel                `json:"timerLevel"`
	Score       int                       `json:"score"`
	Boosters    []BoosterView             `json:"boosters"`
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
	Frozen      bool                      `json:"frozen"`

	Connected      bool                  `json:"connected"`
	Reconnecting   int                   `json:"reconnecting"`
	ConnectionLost bool                  `json:"connectionLost"`
	Notifications  []domain.Notification `json:"notifications"`
}

func (c *Controller) view() View {
	st := &c.st
	v := View{
		Screen:         st.screen,
		Form:           st.form,
		Busy:           st.busy,
		Ready:          st.ready,
		Countdown:      st.countdown,
		Level:          st.level,
		Score:          st.score,
		Frozen:         st.frozen,
		Connected:      st.connected,
		Reconnecting:   st.reconnecting,
		ConnectionLost: st.connLost,
		PlayerCount:    st.playerCount,
		ActiveSlot:     domain.ActiveSlot(st.slots),
		Roster:         append([]domain.RosterEntry(nil), st.roster...),
		Slots:          append([]domain.WordSlot(nil), st.slots...),
		Leaderboard:    append([]domain.LeaderboardEntry(nil), st.leaderboard...),
		Notifications:  append([]domain.Notification(nil), st.notices...),
	}
	if st.player != nil {
		p := *st.player
		v.Player = &p
	}
	if st.room != nil {
		r := *st.room
		v.Room = &r
		v.MaxPlayers = r.MaxPlayers
		v.StartVisible = c.isHost()
		for i := range v.Roster {
			v.Roster[i].IsHost = v.Roster[i].IsHost || (r.HostID != "" && v.Roster[i].ID == r.HostID)
		}
	}
	if st.timerOn {
		v.Remaining = c.remaining()
		v.TimerLevel = timerLevel(v.Remaining)
	}
	if snap := c.deps.Grid.Snapshot(); snap != nil && st.screen == ScreenInGame {
		w := snap.ToWire()
		gv := &GridView{
			Rows:    w.Rows,
			Cols:    w.Cols,
			Cells:   w.Cells,
			Mask:    w.Shape.Mask,
			Word:    c.deps.Grid.Word(),
			Enabled: c.deps.Grid.Enabled(),
		}
		for _, p := range c.deps.Grid.Path() {
			gv.Path = append(gv.Path, p.Cell())
		}
		v.Grid = gv
	}
	if st.boosters != nil {
		for _, k := range domain.BoosterOrder {
			b, ok := st.boosters[k]
			if !ok {
				continue
			}
			v.Boosters = append(v.Boosters, BoosterView{Kind: k, Label: k.Label(), Available: b.Available, Used: b.Used})
		}
	}
	return v
}
