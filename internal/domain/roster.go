package domain

// RosterEntry is one connected player, in join order.
type RosterEntry struct {
	ID     PlayerID `json:"id"`
	Name   string   `json:"name"`
	Ready  bool     `json:"ready"`
	IsHost bool     `json:"isHost"`
}

type LeaderboardEntry struct {
	PlayerID PlayerID `json:"playerId"`
	Name     string   `json:"name"`
	Rank     int      `json:"rank"`
	Score    int      `json:"score"`
}

// WordSlot is one target word of a level. Word is set once solved.
type WordSlot struct {
	Length    int    `json:"length"`
	Completed bool   `json:"completed"`
	Word      string `json:"word,omitempty"`
}

// ActiveSlot returns the index of the first unsolved slot, or -1 when all are done.
func ActiveSlot(slots []WordSlot) int {
	for i, s := range slots {
		if !s.Completed {
			return i
		}
	}
	return -1
}
