package game

import (
	"time"

	"github.com/lineclash/lineclash-server/internal/game/board"
	"github.com/lineclash/lineclash-server/internal/game/cards"
)

// PlayerView is the public lobby state of a seat.
type PlayerView struct {
	Name      string `json:"name"`
	Ready     bool   `json:"ready"`
	Connected bool   `json:"connected"`
}

// StateView is the scalar part of the match state as sent on the wire.
type StateView struct {
	Phase        string                `json:"phase"`
	GameStarted  bool                  `json:"game_started"`
	CurrentTurn  int                   `json:"current_turn"`
	Round        int                   `json:"round"`
	Players      map[string]PlayerView `json:"players"`
	Lives        map[string]int        `json:"lives"`
	Passed       map[string]bool       `json:"passed"`
	Score        map[string]int        `json:"score"`
	DeckCounts   map[string]int        `json:"deck_counts"`
	GameOver     bool                  `json:"game_over"`
	Winner       *string               `json:"winner"`
	Message      string                `json:"message"`
	MessageTimer float64               `json:"message_timer"`
}

// CardView is a card on the battlefield.
type CardView struct {
	Name      string `json:"name"`
	Power     int    `json:"power"`
	BasePower int    `json:"base_power"`
	ImagePath string `json:"image_path"`
	Ability   string `json:"ability,omitempty"`
	Player    string `json:"player"`
}

// HandCardView is a card in a hand. Concealed cards only carry Hidden.
type HandCardView struct {
	Name         string   `json:"name,omitempty"`
	Power        int      `json:"power"`
	AllowedLines []string `json:"allowed_lines,omitempty"`
	ImagePath    string   `json:"image_path,omitempty"`
	Ability      string   `json:"ability,omitempty"`
	Hidden       bool     `json:"hidden,omitempty"`
}

// View is a complete rendering of the match for one audience.
type View struct {
	MatchID   string                    `json:"match_id"`
	State     StateView                 `json:"game_state"`
	LineCards map[string][]CardView     `json:"line_cards"`
	Hands     map[string][]HandCardView `json:"hands"`
}

type audience int

const (
	audienceSeatOne audience = iota
	audienceSeatTwo
	audienceSpectator
	audienceFull
)

func unixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixMilli()) / 1000
}

func (m *Match) stateView() StateView {
	sv := StateView{
		Phase:        m.phase.String(),
		GameStarted:  m.phase.Started(),
		CurrentTurn:  int(m.turn),
		Round:        m.round,
		Players:      make(map[string]PlayerView, 2),
		Lives:        make(map[string]int, 2),
		Passed:       make(map[string]bool, 2),
		Score:        make(map[string]int, 2),
		DeckCounts:   make(map[string]int, 2),
		GameOver:     m.phase == PhaseGameOver,
		Message:      m.message,
		MessageTimer: unixSeconds(m.messageExpiry),
	}
	for _, seat := range board.Seats {
		p := m.players[seat]
		key := seat.Key()
		sv.Players[key] = PlayerView{Name: p.Name, Ready: p.Ready, Connected: p.Connected}
		sv.Lives[key] = p.Lives
		sv.Passed[key] = p.Passed
		sv.Score[key] = p.Score
		sv.DeckCounts[key] = len(p.Deck)
	}
	if m.winner != "" {
		winner := m.winner
		sv.Winner = &winner
	}
	return sv
}

func handCard(c *cards.Instance) HandCardView {
	return HandCardView{
		Name:         c.Name,
		Power:        c.Power,
		AllowedLines: c.LineNames(),
		ImagePath:    c.ImagePath,
		Ability:      c.Ability.String(),
	}
}

func (m *Match) render(who audience) View {
	v := View{
		MatchID:   m.id.String(),
		State:     m.stateView(),
		LineCards: make(map[string][]CardView, len(board.Zones)),
		Hands:     make(map[string][]HandCardView, 2),
	}
	for _, zone := range board.Zones {
		list := m.battlefield.Cards(zone)
		out := make([]CardView, 0, len(list))
		for _, c := range list {
			out = append(out, CardView{
				Name:      c.Name,
				Power:     c.Power,
				BasePower: c.BasePower,
				ImagePath: c.ImagePath,
				Ability:   c.Ability.String(),
				Player:    zone.Seat().Key(),
			})
		}
		v.LineCards[string(zone)] = out
	}
	for _, seat := range board.Seats {
		hand := m.players[seat].Hand
		out := make([]HandCardView, len(hand))
		reveal := who == audienceFull ||
			int(who) == int(seat) ||
			(m.settings.RevealOpponentHand && who != audienceSpectator)
		for i, c := range hand {
			if reveal {
				out[i] = handCard(c)
			} else {
				out[i] = HandCardView{Hidden: true}
			}
		}
		v.Hands[seat.Key()] = out
	}
	return v
}

// View renders the match for the player in seat: their own hand in full,
// the opponent's hand as placeholders unless RevealOpponentHand is set.
func (m *Match) View(seat board.Seat) View {
	return m.render(audience(seat))
}

// NoticeView is View with a private transient message that is not stored in
// the match.
func (m *Match) NoticeView(seat board.Seat, message string) View {
	v := m.View(seat)
	v.State.Message = message
	v.State.MessageTimer = unixSeconds(m.now().Add(m.settings.MessageTTL))
	return v
}

// SpectatorView hides both hands.
func (m *Match) SpectatorView() View {
	return m.render(audienceSpectator)
}

// FullView reveals everything. It is used for replays.
func (m *Match) FullView() View {
	return m.render(audienceFull)
}
