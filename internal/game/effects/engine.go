package effects

import (
	"errors"
	"fmt"

	"github.com/lineclash/lineclash-server/internal/game/board"
	"github.com/lineclash/lineclash-server/internal/game/cards"
	"go.uber.org/zap"
)

// Rules parameterises the ability handlers.
type Rules struct {
	// SynergyPair names the two cards that buff each other once both are on
	// the battlefield.
	SynergyPair  [2]string
	SynergyBonus int
	AreaBonus    int
	DebuffAmount int
	WeakestBonus int
	// NearDebuffImmune lists cards skipped by the near-zone debuff.
	NearDebuffImmune []string
	// DestroyImmune lists cards the destroy ability never targets.
	DestroyImmune []string
}

// DefaultRules returns the rules of the standard card set.
func DefaultRules() Rules {
	return Rules{
		SynergyPair:      [2]string{cards.FireMage, cards.IceMage},
		SynergyBonus:     2,
		AreaBonus:        1,
		DebuffAmount:     1,
		WeakestBonus:     3,
		NearDebuffImmune: []string{cards.Bandit},
		DestroyImmune:    []string{cards.Bandit},
	}
}

// Outcome tells whether a handler changed the battlefield.
type Outcome int

const (
	OutcomeNoop Outcome = iota
	OutcomeApplied
)

func (o Outcome) String() string {
	if o == OutcomeApplied {
		return "APPLIED"
	}
	return "NOOP"
}

// Result describes one handler invocation.
type Result struct {
	Ability   cards.AbilityKind
	Outcome   Outcome
	Note      string
	Affected  []*cards.Instance
	Destroyed []*cards.Instance
}

// Applied reports whether the handler changed anything.
func (r Result) Applied() bool {
	return r.Outcome == OutcomeApplied
}

// Report collects the results of a single placement.
type Report struct {
	Results []Result
	Synergy Result
}

// Activated reports whether any handler, including the synergy check,
// changed the battlefield.
func (r Report) Activated() bool {
	if r.Synergy.Applied() {
		return true
	}
	for _, res := range r.Results {
		if res.Applied() {
			return true
		}
	}
	return false
}

// AbilityFault is returned when a handler panics. Effects applied before the
// panic are kept.
type AbilityFault struct {
	Ability cards.AbilityKind
	Card    string
	Cause   any
}

func (f *AbilityFault) Error() string {
	return fmt.Sprintf("ability %s of %s faulted: %v", f.Ability, f.Card, f.Cause)
}

type handler func(bf *board.Battlefield, placed *cards.Instance, zone board.ZoneKey) Result

// Engine resolves card abilities against a battlefield. It holds no game
// state of its own.
type Engine struct {
	rules    Rules
	logger   *zap.Logger
	handlers map[cards.AbilityKind]handler
}

// NewEngine creates an ability engine with the given rules.
func NewEngine(rules Rules, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		rules:  rules,
		logger: logger,
	}
	e.handlers = map[cards.AbilityKind]handler{
		cards.AbilityAreaBuff:         e.areaBuff,
		cards.AbilityNearDebuff:       e.nearDebuff,
		cards.AbilityFarDebuff:        e.farDebuff,
		cards.AbilityWeakestAllyBuff:  e.buffWeakestAlly,
		cards.AbilityPairedSynergy:    e.pairedSynergy,
		cards.AbilityDestroyStrongest: e.destroyStrongest,
	}
	return e
}

// Rules returns the rules the engine was built with.
func (e *Engine) Rules() Rules {
	return e.rules
}

// Resolve runs the effects of placing card into zone, in order: the area
// buff of the card itself, the synergy check, then any other ability of the
// card. A faulting handler does not stop the remaining steps.
func (e *Engine) Resolve(bf *board.Battlefield, placed *cards.Instance, zone board.ZoneKey) (Report, error) {
	var (
		report Report
		errs   []error
	)

	if placed.Ability == cards.AbilityAreaBuff {
		res, err := e.run(placed.Ability, placed, func() Result { return e.areaBuff(bf, placed, zone) })
		report.Results = append(report.Results, res)
		errs = append(errs, err)
	}

	synergy, err := e.run(cards.AbilityPairedSynergy, placed, func() Result { return e.CheckSynergy(bf) })
	report.Synergy = synergy
	errs = append(errs, err)

	if placed.HasAbility() && placed.Ability != cards.AbilityAreaBuff {
		h, ok := e.handlers[placed.Ability]
		if !ok {
			errs = append(errs, fmt.Errorf("no handler for ability %s", placed.Ability))
		} else {
			res, err := e.run(placed.Ability, placed, func() Result { return h(bf, placed, zone) })
			report.Results = append(report.Results, res)
			errs = append(errs, err)
		}
	}

	return report, errors.Join(errs...)
}

func (e *Engine) run(kind cards.AbilityKind, placed *cards.Instance, fn func() Result) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Ability: kind, Outcome: OutcomeNoop, Note: "faulted"}
			err = &AbilityFault{Ability: kind, Card: placed.Name, Cause: r}
		}
	}()

	res = fn()
	res.Ability = kind
	if res.Applied() {
		e.logger.Debug("ability applied",
			zap.String("card", placed.Name),
			zap.String("ability", kind.String()),
			zap.String("note", res.Note),
			zap.Int("affected", len(res.Affected)),
			zap.Int("destroyed", len(res.Destroyed)),
		)
	} else {
		e.logger.Debug("ability had no effect",
			zap.String("card", placed.Name),
			zap.String("ability", kind.String()),
			zap.String("note", res.Note),
		)
	}
	return res, nil
}
