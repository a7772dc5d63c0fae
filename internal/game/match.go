// Package game holds the authoritative match state and the turn and round
// controller. A Match is not safe for concurrent use; the session gateway
// owns it from a single goroutine.
package game

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/lineclash/lineclash-server/internal/game/board"
	"github.com/lineclash/lineclash-server/internal/game/cards"
	"github.com/lineclash/lineclash-server/internal/game/effects"
	"github.com/lineclash/lineclash-server/internal/recorder"
	"go.uber.org/zap"
)

// DrawLabel is reported as the winner of a drawn round or match.
const DrawLabel = "Draw"

// Settings are the tunable rules of a match.
type Settings struct {
	StartingLives int
	DeckSize      int
	OpeningHand   int
	RoundDraw     int
	MessageTTL    time.Duration
	// RevealOpponentHand sends both hands in full to both players.
	RevealOpponentHand bool
	PlayerNames        [2]string
}

// DefaultSettings returns the standard rules.
func DefaultSettings() Settings {
	return Settings{
		StartingLives: 2,
		DeckSize:      20,
		OpeningHand:   10,
		RoundDraw:     5,
		MessageTTL:    2 * time.Second,
		PlayerNames:   [2]string{"Player 1", "Player 2"},
	}
}

// Resolver runs the abilities triggered by a placement.
type Resolver interface {
	Resolve(bf *board.Battlefield, placed *cards.Instance, zone board.ZoneKey) (effects.Report, error)
}

// Player is the per-seat part of the match state.
type Player struct {
	Name      string
	Connected bool
	Ready     bool
	Lives     int
	Score     int
	Passed    bool
	Deck      []*cards.Instance
	Hand      []*cards.Instance
}

// Option customises a Match.
type Option func(*Match)

// WithRecorder sets the match recorder. The default discards everything.
func WithRecorder(r recorder.Recorder) Option {
	return func(m *Match) { m.recorder = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Match) { m.now = now }
}

// WithRand sets the source used to shuffle decks.
func WithRand(r *rand.Rand) Option {
	return func(m *Match) { m.rng = r }
}

// Match is the state of one two-player game.
type Match struct {
	id       uuid.UUID
	catalog  *cards.Catalog
	resolver Resolver
	settings Settings
	logger   *zap.Logger
	recorder recorder.Recorder
	now      func() time.Time
	rng      *rand.Rand

	phase       Phase
	players     [2]*Player
	battlefield *board.Battlefield
	turn        board.Seat
	round       int
	winner      string
	winnerSeat  board.Seat
	hasWinner   bool

	message       string
	messageExpiry time.Time

	session   uuid.UUID
	startedAt time.Time
}

// NewMatch creates a match in the lobby.
func NewMatch(catalog *cards.Catalog, resolver Resolver, settings Settings, logger *zap.Logger, opts ...Option) *Match {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Match{
		id:          uuid.New(),
		catalog:     catalog,
		resolver:    resolver,
		settings:    settings,
		logger:      logger,
		recorder:    recorder.Nop{},
		now:         time.Now,
		phase:       PhaseLobby,
		battlefield: board.NewBattlefield(),
		turn:        board.SeatOne,
		round:       1,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		seed := uint64(m.now().UnixNano())
		m.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	for _, seat := range board.Seats {
		m.players[seat] = &Player{
			Name:  settings.PlayerNames[seat],
			Lives: settings.StartingLives,
		}
	}
	m.logger = m.logger.With(zap.String("match_id", m.id.String()))
	return m
}

// ID returns the match identifier.
func (m *Match) ID() uuid.UUID { return m.id }

// Phase returns the current phase.
func (m *Match) Phase() Phase { return m.phase }

// Turn returns the seat expected to act.
func (m *Match) Turn() board.Seat { return m.turn }

// Round returns the current round number, starting at 1.
func (m *Match) Round() int { return m.round }

// Settings returns the rules the match was created with.
func (m *Match) Settings() Settings { return m.settings }

// Battlefield returns the zone map. It must only be read by callers.
func (m *Match) Battlefield() *board.Battlefield { return m.battlefield }

// SessionID returns the recorder session, the zero UUID before the start.
func (m *Match) SessionID() uuid.UUID { return m.session }

// Player returns the state of a seat. The returned value must not be
// modified.
func (m *Match) Player(seat board.Seat) *Player {
	return m.players[seat]
}

// Name returns the display name of a seat.
func (m *Match) Name(seat board.Seat) string {
	return m.players[seat].Name
}

// ReadyCount returns the number of seats that submitted a valid deck.
func (m *Match) ReadyCount() int {
	n := 0
	for _, p := range m.players {
		if p.Ready {
			n++
		}
	}
	return n
}

// Winner returns the name of the winning player or DrawLabel. It is empty
// until the match is over.
func (m *Match) Winner() string {
	return m.winner
}

// WinnerSeat returns the winning seat; ok is false for a draw or an
// unfinished match.
func (m *Match) WinnerSeat() (seat board.Seat, ok bool) {
	return m.winnerSeat, m.hasWinner
}

// IsOver reports whether the match reached its terminal phase.
func (m *Match) IsOver() bool {
	return m.phase == PhaseGameOver
}

// FreeSeat returns the first unoccupied seat while the match is still in the
// lobby.
func (m *Match) FreeSeat() (board.Seat, bool) {
	if m.phase != PhaseLobby {
		return 0, false
	}
	for _, seat := range board.Seats {
		if !m.players[seat].Connected {
			return seat, true
		}
	}
	return 0, false
}

func (m *Match) flash(text string, ttl time.Duration) {
	m.message = text
	m.messageExpiry = m.now().Add(ttl)
}

func (m *Match) recalcScores() {
	for _, seat := range board.Seats {
		m.players[seat].Score = m.battlefield.Score(seat)
	}
}

// draw moves up to n cards from the top of the seat's deck to its hand.
func (m *Match) draw(seat board.Seat, n int) int {
	p := m.players[seat]
	drawn := min(n, len(p.Deck))
	p.Hand = append(p.Hand, p.Deck[:drawn]...)
	p.Deck = p.Deck[drawn:]

	if drawn < n {
		m.flash(p.Name+" has run out of cards!", m.settings.MessageTTL)
		m.logger.Info("deck exhausted",
			zap.String("seat", seat.Key()),
			zap.Int("requested", n),
			zap.Int("drawn", drawn),
		)
	}
	m.logger.Debug("cards drawn",
		zap.String("seat", seat.Key()),
		zap.Int("drawn", drawn),
		zap.Int("deck_left", len(p.Deck)),
	)
	return drawn
}

func (m *Match) record(player string, action recorder.Action) {
	action.At = m.now()
	action.Player = player
	action.Round = m.round
	action.State = m.stateView()
	m.recorder.LogAction(m.session, action)
}
