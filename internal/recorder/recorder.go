// Package recorder persists match history: sessions, per-action logs and
// aggregated card statistics. Gameplay talks to a Recorder, which never
// fails; storage backends implement Store.
package recorder

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ActionType names a logged player action.
type ActionType string

const (
	ActionReady     ActionType = "ready"
	ActionPlaceCard ActionType = "place_card"
	ActionPassTurn  ActionType = "pass_turn"
	ActionRoundEnd  ActionType = "round_end"
)

// Action is one row of the action log.
type Action struct {
	At     time.Time
	Player string
	Type   ActionType
	// CardName, CardPower and ZoneKey are only set for placements.
	CardName  string
	CardPower int
	ZoneKey   string
	// State is the post-action game state; stores encode it as JSON.
	State any
	Round int
}

// HasCard reports whether the action refers to a card.
func (a Action) HasCard() bool {
	return a.CardName != ""
}

// Summary closes a session.
type Summary struct {
	EndedAt  time.Time
	Winner   string
	Rounds   int
	Duration time.Duration
}

// CardUsage is one observation fed into the card statistics.
type CardUsage struct {
	Name        string
	Power       int
	AbilityUsed bool
	Won         bool
}

// CardStats is the aggregated row for one card.
type CardStats struct {
	Name               string  `json:"card_name"`
	TimesUsed          int     `json:"times_used"`
	AvgPower           float64 `json:"avg_power"`
	AbilityActivations int     `json:"ability_activations"`
	WinRate            float64 `json:"win_rate"`
}

// StatsOrder selects the ranking used by Store.TopCards.
type StatsOrder string

const (
	OrderByUsage   StatsOrder = "usage"
	OrderByWinRate StatsOrder = "win_rate"
	OrderByPower   StatsOrder = "power"
)

// Recorder is the gameplay-facing contract. Calls return immediately and
// never report failures to the caller.
type Recorder interface {
	BeginSession(start time.Time, player1, player2 string) uuid.UUID
	EndSession(session uuid.UUID, summary Summary)
	LogAction(session uuid.UUID, action Action)
	UpdateCardStatistics(usage CardUsage)
}

// Store is implemented by the persistence backends.
type Store interface {
	CreateSession(ctx context.Context, start time.Time, player1, player2 string) (int64, error)
	FinishSession(ctx context.Context, id int64, summary Summary) error
	InsertAction(ctx context.Context, session int64, action Action) error
	UpdateCardStatistics(ctx context.Context, usage CardUsage) error
	TopCards(ctx context.Context, order StatsOrder, limit int) ([]CardStats, error)
	Close() error
}

// Accumulate folds one usage into the previous aggregate. prev is nil for a
// card seen for the first time.
func Accumulate(prev *CardStats, u CardUsage) CardStats {
	ability := 0
	if u.AbilityUsed {
		ability = 1
	}
	win := 0.0
	if u.Won {
		win = 1
	}

	if prev == nil || prev.TimesUsed == 0 {
		return CardStats{
			Name:               u.Name,
			TimesUsed:          1,
			AvgPower:           float64(u.Power),
			AbilityActivations: ability,
			WinRate:            win,
		}
	}

	n := float64(prev.TimesUsed)
	next := float64(prev.TimesUsed + 1)
	return CardStats{
		Name:               u.Name,
		TimesUsed:          prev.TimesUsed + 1,
		AvgPower:           (prev.AvgPower*n + float64(u.Power)) / next,
		AbilityActivations: prev.AbilityActivations + ability,
		WinRate:            (prev.WinRate*n + win) / next,
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) BeginSession(time.Time, string, string) uuid.UUID { return uuid.New() }
func (Nop) EndSession(uuid.UUID, Summary)                      {}
func (Nop) LogAction(uuid.UUID, Action)                        {}
func (Nop) UpdateCardStatistics(CardUsage)                     {}
