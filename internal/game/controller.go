package game

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lineclash/lineclash-server/internal/game/board"
	"github.com/lineclash/lineclash-server/internal/game/cards"
	"github.com/lineclash/lineclash-server/internal/game/effects"
	"github.com/lineclash/lineclash-server/internal/recorder"
	"go.uber.org/zap"
)

// MaxChatRunes bounds the length of a relayed chat message.
const MaxChatRunes = 500

// ReadyResult describes the effect of a deck submission.
type ReadyResult struct {
	// NewlyReady is false when a ready player replaced their deck.
	NewlyReady bool
	ReadyCount int
	Started    bool
}

// Placement describes a successful card placement.
type Placement struct {
	Card   *cards.Instance
	Zone   board.ZoneKey
	Report effects.Report
	// Fault is set when an ability handler failed. The placement stands.
	Fault error
}

// RoundResult describes a resolved round.
type RoundResult struct {
	Round    int
	Scores   [2]int
	Winner   string
	LifeLost [2]bool
	GameOver bool
}

// Join occupies a seat. Seats can only be taken in the lobby.
func (m *Match) Join(seat board.Seat) error {
	if !seat.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidSeat, seat)
	}
	if m.phase != PhaseLobby {
		return ErrWrongPhase
	}
	if m.players[seat].Connected {
		return fmt.Errorf("%w: %s", ErrSeatTaken, seat)
	}
	m.players[seat].Connected = true
	m.logger.Info("player joined", zap.String("seat", seat.Key()))
	return nil
}

// Leave frees a seat after a disconnect. Before the game starts the seat's
// ready flag and deck are discarded; Leave reports whether that happened.
func (m *Match) Leave(seat board.Seat) bool {
	if !seat.Valid() {
		return false
	}
	p := m.players[seat]
	p.Connected = false
	m.logger.Info("player left",
		zap.String("seat", seat.Key()),
		zap.String("phase", m.phase.String()),
	)
	if m.phase != PhaseLobby || !p.Ready {
		return false
	}
	p.Ready = false
	p.Deck = nil
	return true
}

// SubmitDeck validates and shuffles a deck. When both seats are ready the
// opening hands are dealt and round 1 begins.
func (m *Match) SubmitDeck(seat board.Seat, names []string) (ReadyResult, error) {
	if !seat.Valid() {
		return ReadyResult{}, fmt.Errorf("%w: %d", ErrInvalidSeat, seat)
	}
	if m.phase != PhaseLobby {
		return ReadyResult{}, reject(ErrWrongPhase, "The game has already started!")
	}
	if len(names) != m.settings.DeckSize {
		m.logger.Debug("deck rejected",
			zap.String("seat", seat.Key()),
			zap.Int("size", len(names)),
		)
		return ReadyResult{}, reject(
			fmt.Errorf("%w: %d cards, need %d", ErrInvalidDeck, len(names), m.settings.DeckSize),
			"The deck must contain exactly %d cards!", m.settings.DeckSize,
		)
	}
	deck, err := m.catalog.InstantiateAll(names)
	if err != nil {
		m.logger.Debug("deck rejected", zap.String("seat", seat.Key()), zap.Error(err))
		return ReadyResult{}, reject(fmt.Errorf("%w: %w", ErrInvalidDeck, err), "Card validation failed!")
	}
	m.rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	p := m.players[seat]
	p.Deck = deck

	var res ReadyResult
	if !p.Ready {
		p.Ready = true
		res.NewlyReady = true
	}
	res.ReadyCount = m.ReadyCount()
	m.logger.Info("deck accepted",
		zap.String("seat", seat.Key()),
		zap.Int("ready_players", res.ReadyCount),
	)

	if res.ReadyCount == len(m.players) {
		m.start()
		res.Started = true
	}
	return res, nil
}

func (m *Match) start() {
	m.phase = PhaseInRound
	m.round = 1
	m.turn = board.SeatOne
	for _, seat := range board.Seats {
		p := m.players[seat]
		p.Lives = m.settings.StartingLives
		p.Passed = false
		m.draw(seat, m.settings.OpeningHand)
	}
	m.recalcScores()

	m.startedAt = m.now()
	m.session = m.recorder.BeginSession(m.startedAt, m.players[0].Name, m.players[1].Name)
	for _, seat := range board.Seats {
		m.record(seat.Key(), recorder.Action{Type: recorder.ActionReady})
	}

	m.logger.Info("match started", zap.String("session_id", m.session.String()))
}

func (m *Match) requireTurn(seat board.Seat) error {
	if !seat.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidSeat, seat)
	}
	switch m.phase {
	case PhaseInRound:
	case PhaseGameOver:
		return reject(ErrWrongPhase, "The game is over!")
	case PhaseRoundResolution:
		return reject(ErrWrongPhase, "The round is being resolved!")
	default:
		return reject(ErrWrongPhase, "The game has not started yet!")
	}
	if m.turn != seat {
		return reject(ErrNotYourTurn, "It is not your turn!")
	}
	return nil
}

// PlaceCard moves the card at index of the seat's hand into zone and
// resolves its abilities. A faulting ability is logged and reported in the
// result; the placement is not undone.
func (m *Match) PlaceCard(seat board.Seat, index int, zone board.ZoneKey) (Placement, error) {
	if err := m.requireTurn(seat); err != nil {
		return Placement{}, err
	}
	p := m.players[seat]
	if index < 0 || index >= len(p.Hand) {
		return Placement{}, reject(fmt.Errorf("%w: %d", ErrInvalidCardIndex, index), "No such card in your hand!")
	}
	if zone.Seat() != seat {
		return Placement{}, reject(fmt.Errorf("%w: %s", ErrForeignZone, zone), "You can only play on your own side!")
	}
	card := p.Hand[index]
	if !card.Allows(zone.Line()) {
		return Placement{}, reject(fmt.Errorf("%w: %s in %s", ErrIllegalLine, card.Name, zone), "Can't place that card here!")
	}

	p.Hand = append(p.Hand[:index:index], p.Hand[index+1:]...)
	m.battlefield.Place(zone, card)

	report, fault := m.resolver.Resolve(m.battlefield, card, zone)
	if fault != nil {
		m.logger.Error("ability fault",
			zap.String("seat", seat.Key()),
			zap.String("card", card.Name),
			zap.String("zone", string(zone)),
			zap.Error(fault),
		)
	}
	if card.HasAbility() || report.Synergy.Applied() {
		m.flash(card.Name+" activated an ability!", m.settings.MessageTTL)
	}

	m.recalcScores()
	p.Passed = false
	if other := seat.Opponent(); !m.players[other].Passed {
		m.turn = other
	}

	m.record(seat.Key(), recorder.Action{
		Type:      recorder.ActionPlaceCard,
		CardName:  card.Name,
		CardPower: card.Power,
		ZoneKey:   string(zone),
	})
	m.logger.Debug("card placed",
		zap.String("seat", seat.Key()),
		zap.String("card", card.Name),
		zap.String("zone", string(zone)),
		zap.Int("score", p.Score),
		zap.Bool("ability_activated", report.Activated()),
	)

	return Placement{Card: card, Zone: zone, Report: report, Fault: fault}, nil
}

// Pass ends the seat's participation in the round. Once both seats have
// passed the match waits in PhaseRoundResolution for ResolveRound.
func (m *Match) Pass(seat board.Seat) error {
	if err := m.requireTurn(seat); err != nil {
		return err
	}
	p := m.players[seat]
	p.Passed = true
	m.flash(p.Name+" passes until the end of the round", m.settings.MessageTTL)

	other := seat.Opponent()
	if m.players[other].Passed {
		m.phase = PhaseRoundResolution
	} else {
		m.turn = other
	}

	m.record(seat.Key(), recorder.Action{Type: recorder.ActionPassTurn})
	m.logger.Debug("player passed",
		zap.String("seat", seat.Key()),
		zap.String("phase", m.phase.String()),
	)
	return nil
}

// ResolveRound compares the scores, takes lives and either starts the next
// round or ends the match.
func (m *Match) ResolveRound() (RoundResult, error) {
	if m.phase != PhaseRoundResolution {
		return RoundResult{}, fmt.Errorf("%w: %s", ErrWrongPhase, m.phase)
	}
	p1, p2 := m.players[board.SeatOne], m.players[board.SeatTwo]
	res := RoundResult{Round: m.round, Scores: [2]int{p1.Score, p2.Score}}

	var (
		roundWinner board.Seat
		decided     = true
	)
	switch {
	case p1.Score > p2.Score:
		p2.Lives--
		res.LifeLost[board.SeatTwo] = true
		roundWinner = board.SeatOne
		res.Winner = p1.Name
	case p2.Score > p1.Score:
		p1.Lives--
		res.LifeLost[board.SeatOne] = true
		roundWinner = board.SeatTwo
		res.Winner = p2.Name
	default:
		p1.Lives--
		p2.Lives--
		res.LifeLost = [2]bool{true, true}
		decided = false
		res.Winner = DrawLabel
	}
	m.flash(fmt.Sprintf("Round %d goes to %s", m.round, res.Winner), m.settings.MessageTTL)

	for _, zone := range board.Zones {
		for _, c := range m.battlefield.Cards(zone) {
			m.recorder.UpdateCardStatistics(recorder.CardUsage{
				Name:        c.Name,
				Power:       c.Power,
				AbilityUsed: c.HasAbility(),
				Won:         decided && zone.Seat() == roundWinner,
			})
		}
	}
	roundEnd := recorder.Action{Type: recorder.ActionRoundEnd}
	if decided {
		m.record(roundWinner.Key(), roundEnd)
	} else {
		m.record("draw", roundEnd)
	}

	m.logger.Info("round resolved",
		zap.Int("round", m.round),
		zap.Int("score_p1", p1.Score),
		zap.Int("score_p2", p2.Score),
		zap.String("winner", res.Winner),
		zap.Int("lives_p1", p1.Lives),
		zap.Int("lives_p2", p2.Lives),
	)

	if p1.Lives <= 0 || p2.Lives <= 0 {
		m.finish()
		res.GameOver = true
		return res, nil
	}

	m.round++
	p1.Passed, p2.Passed = false, false
	m.battlefield.Clear()
	for _, seat := range board.Seats {
		m.draw(seat, m.settings.RoundDraw)
	}
	if m.round%2 == 0 {
		m.turn = board.SeatTwo
	} else {
		m.turn = board.SeatOne
	}
	m.phase = PhaseInRound
	m.recalcScores()
	return res, nil
}

func (m *Match) finish() {
	m.phase = PhaseGameOver
	p1, p2 := m.players[board.SeatOne], m.players[board.SeatTwo]
	switch {
	case p1.Lives > p2.Lives:
		m.winnerSeat, m.hasWinner = board.SeatOne, true
		m.winner = p1.Name
	case p2.Lives > p1.Lives:
		m.winnerSeat, m.hasWinner = board.SeatTwo, true
		m.winner = p2.Name
	default:
		m.winner = DrawLabel
	}
	m.recalcScores()

	duration := m.now().Sub(m.startedAt)
	m.recorder.EndSession(m.session, recorder.Summary{
		EndedAt:  m.now(),
		Winner:   m.winner,
		Rounds:   m.round,
		Duration: duration,
	})
	m.logger.Info("match over",
		zap.String("winner", m.winner),
		zap.Int("rounds", m.round),
		zap.Duration("duration", duration),
	)
}

// Chat validates a chat line. Chat never touches the match state and is
// allowed in every phase.
func (m *Match) Chat(seat board.Seat, text string) (string, error) {
	if !seat.Valid() {
		return "", fmt.Errorf("%w: %d", ErrInvalidSeat, seat)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", reject(fmt.Errorf("%w: empty", ErrInvalidChat), "Message is empty")
	}
	if utf8.RuneCountInString(text) > MaxChatRunes {
		return "", reject(fmt.Errorf("%w: too long", ErrInvalidChat), "Message is too long")
	}
	return text, nil
}
