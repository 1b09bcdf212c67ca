package domain

import "errors"

var (
	ErrUnknownBooster = errors.New("unknown booster")
	ErrBoosterUsedUp  = errors.New("booster used up")
)

type BoosterKind string

const (
	BoosterDoubleUp   BoosterKind = "DOUBLE_UP"
	BoosterFreeze     BoosterKind = "FREEZE"
	BoosterReveal     BoosterKind = "REVEAL"
	BoosterTimePlus   BoosterKind = "TIME_PLUS"
	BoosterShield     BoosterKind = "SHIELD"
	BoosterStreakSave BoosterKind = "STREAK_SAVE"
	BoosterSkipHalf   BoosterKind = "SKIP_HALF"
)

// BoosterOrder is the display order of the inventory.
var BoosterOrder = []BoosterKind{
	BoosterDoubleUp, BoosterFreeze, BoosterReveal, BoosterTimePlus,
	BoosterShield, BoosterStreakSave, BoosterSkipHalf,
}

var boosterLabels = map[BoosterKind]string{
	BoosterDoubleUp:   "2X",
	BoosterFreeze:     "Freeze",
	BoosterReveal:     "Reveal",
	BoosterTimePlus:   "+5s",
	BoosterShield:     "Shield",
	BoosterStreakSave: "Save",
	BoosterSkipHalf:   "Skip",
}

func (k BoosterKind) Label() string {
	if l, ok := boosterLabels[k]; ok {
		return l
	}
	return string(k)
}

// BoosterState invariant: 0 <= Used <= Available.
type BoosterState struct {
	Available int `json:"available"`
	Used      int `json:"used"`
}

func (b BoosterState) Remaining() int { return b.Available - b.Used }

type Boosters map[BoosterKind]BoosterState

// NewBoosters returns the inventory a player starts every game with.
func NewBoosters() Boosters {
	return Boosters{
		BoosterDoubleUp:   {Available: 1},
		BoosterFreeze:     {Available: 1},
		BoosterReveal:     {Available: 2},
		BoosterTimePlus:   {Available: 2},
		BoosterShield:     {Available: 1},
		BoosterStreakSave: {Available: 1},
		BoosterSkipHalf:   {Available: 1},
	}
}

// Use consumes one charge of kind. Used only ever grows.
func (b Boosters) Use(kind BoosterKind) error {
	st, ok := b[kind]
	if !ok {
		return ErrUnknownBooster
	}
	if st.Used >= st.Available {
		return ErrBoosterUsedUp
	}
	st.Used++
	b[kind] = st
	return nil
}

func (b Boosters) Clone() Boosters {
	out := make(Boosters, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
