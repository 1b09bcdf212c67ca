package protocol

import "github.com/dkeye/Wordbrain/internal/domain"

type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Grid is the wire form of a letter grid. Empty cells are "" (or a blank).
type Grid struct {
	Rows  int        `json:"rows"`
	Cols  int        `json:"cols"`
	Cells [][]string `json:"cells"`
	Shape *Shape     `json:"shape,omitempty"`
}

type Shape struct {
	Mask      [][]bool `json:"mask"`
	CellCount int      `json:"cellCount,omitempty"`
}

// Outbound payloads.

type PlayerReadyData struct {
	Ready bool `json:"ready"`
}

type SubmitWordData struct {
	Word string  `json:"word"`
	Path []Coord `json:"path"`
}

type UseBoosterData struct {
	BoosterType domain.BoosterKind `json:"boosterType"`
}

type LevelCompleteData struct {
	Level int `json:"level"`
}

// Inbound payloads.

type PlayerEventData struct {
	PlayerID   domain.PlayerID `json:"playerId"`
	PlayerName string          `json:"playerName"`
	Ready      *bool           `json:"ready,omitempty"`
}

type RoomStateData struct {
	RoomCode     domain.RoomCode      `json:"roomCode"`
	HostID       domain.PlayerID      `json:"hostId"`
	MaxPlayers   int                  `json:"maxPlayers"`
	PlayersCount *int                 `json:"playersCount,omitempty"`
	Players      []domain.RosterEntry `json:"players,omitempty"`
}

type RoomEnteredData struct {
	RoomCode domain.RoomCode `json:"roomCode"`
	PlayerID domain.PlayerID `json:"playerId"`
	HostID   domain.PlayerID `json:"hostId"`
}

type GameStartingData struct {
	Countdown int `json:"countdown"`
}

type LevelStartData struct {
	Level       int               `json:"level"`
	TotalLevels int               `json:"totalLevels,omitempty"`
	Grid        Grid              `json:"grid"`
	WordTargets []int             `json:"wordTargets"`
	WordSlots   []domain.WordSlot `json:"wordSlots"`
	// Duration is in seconds.
	Duration   int   `json:"duration"`
	ServerTime int64 `json:"serverTime,omitempty"`
}

type WordAcceptedData struct {
	Word   string `json:"word,omitempty"`
	Points int    `json:"points"`
	Grid   *Grid  `json:"grid,omitempty"`
}

type WordRejectedData struct {
	Reason string `json:"reason"`
}

type OpponentScoredData struct {
	PlayerName string `json:"playerName"`
	Points     int    `json:"points"`
}

type LeaderboardData struct {
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
}

type LevelEndData struct {
	Level       int                       `json:"level"`
	Grid        *Grid                     `json:"grid,omitempty"`
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard,omitempty"`
}

type EffectData struct {
	Effect string `json:"effect"`
	// Duration is in milliseconds.
	Duration int    `json:"duration"`
	From     string `json:"from,omitempty"`
}

type BoosterAppliedData struct {
	BoosterType domain.BoosterKind `json:"boosterType"`
}

type TimeAddedData struct {
	Seconds int `json:"seconds"`
}

type GridUpdateData struct {
	Grid Grid `json:"grid"`
}

type ErrorData struct {
	Error string `json:"error"`
}

type InvalidActionData struct {
	Reason string `json:"reason"`
	Error  string `json:"error"`
}
