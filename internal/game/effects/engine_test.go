package effects

import (
	"errors"
	"testing"

	"github.com/lineclash/lineclash-server/internal/game/board"
	"github.com/lineclash/lineclash-server/internal/game/cards"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(DefaultRules(), zaptest.NewLogger(t))
}

func inst(name string, power int, ability cards.AbilityKind) *cards.Instance {
	return &cards.Instance{Name: name, Power: power, BasePower: power, Ability: ability}
}

// place mimics the controller: append first, then resolve.
func place(t *testing.T, e *Engine, bf *board.Battlefield, zone board.ZoneKey, c *cards.Instance) Report {
	t.Helper()
	bf.Place(zone, c)
	report, err := e.Resolve(bf, c, zone)
	require.NoError(t, err)
	return report
}

func powers(list []*cards.Instance) []int {
	out := make([]int, len(list))
	for i, c := range list {
		out[i] = c.Power
	}
	return out
}

func TestAreaBuffIncludesPlacedCard(t *testing.T) {
	e := newTestEngine(t)
	bf := board.NewBattlefield()
	tramp := inst("Tramp", 3, cards.AbilityNone)
	bf.Place(board.P1Front, tramp)
	bf.Place(board.P1Back, inst("Archer", 5, cards.AbilityNone))

	bard := inst("Bard", 3, cards.AbilityAreaBuff)
	report := place(t, e, bf, board.P1Front, bard)

	assert.True(t, report.Activated())
	assert.Equal(t, 4, tramp.Power)
	assert.Equal(t, 4, bard.Power)
	assert.Equal(t, []int{5}, powers(bf.Cards(board.P1Back)))
	require.Len(t, report.Results, 1)
	assert.Equal(t, cards.AbilityAreaBuff, report.Results[0].Ability)
}

func TestNearDebuffSkipsImmuneAndZeroPower(t *testing.T) {
	e := newTestEngine(t)
	bf := board.NewBattlefield()
	bf.Place(board.P2Front, inst(cards.Bandit, 7, cards.AbilityNone))
	bf.Place(board.P2Front, inst("Hunter", 4, cards.AbilityNone))
	bf.Place(board.P2Front, inst("Signal Lights", 0, cards.AbilityNone))
	bf.Place(board.P2Back, inst("Archer", 5, cards.AbilityNone))

	report := place(t, e, bf, board.P1Front, inst("Frost", 0, cards.AbilityNearDebuff))

	assert.True(t, report.Activated())
	assert.Equal(t, []int{7, 3, 0}, powers(bf.Cards(board.P2Front)))
	assert.Equal(t, []int{5}, powers(bf.Cards(board.P2Back)))
}

func TestFarDebuffTargetsOpposingBackWithoutImmunity(t *testing.T) {
	e := newTestEngine(t)
	bf := board.NewBattlefield()
	bf.Place(board.P1Back, inst(cards.Bandit, 7, cards.AbilityNone))
	bf.Place(board.P1Back, inst("Gnome", 1, cards.AbilityNone))
	bf.Place(board.P1Front, inst("Witcher", 10, cards.AbilityNone))

	place(t, e, bf, board.P2Back, inst("Fog", 0, cards.AbilityFarDebuff))

	assert.Equal(t, []int{6, 0}, powers(bf.Cards(board.P1Back)))
	assert.Equal(t, []int{10}, powers(bf.Cards(board.P1Front)))
}

func TestDebuffWithNoTargetsIsNoop(t *testing.T) {
	e := newTestEngine(t)
	bf := board.NewBattlefield()

	report := place(t, e, bf, board.P1Front, inst("Frost", 0, cards.AbilityNearDebuff))

	assert.False(t, report.Activated())
}

func TestWeakestAllyBuff(t *testing.T) {
	e := newTestEngine(t)
	bf := board.NewBattlefield()
	archer := inst("Archer", 5, cards.AbilityNone)
	gnome := inst("Gnome", 1, cards.AbilityNone)
	crow := inst("Crow", 1, cards.AbilityNone)
	bf.Place(board.P1Back, archer)
	bf.Place(board.P1Back, gnome)
	bf.Place(board.P1Back, crow)

	engineer := inst("Engineer", 1, cards.AbilityWeakestAllyBuff)
	report := place(t, e, bf, board.P1Back, engineer)

	assert.True(t, report.Activated())
	assert.Equal(t, 4, gnome.Power)
	assert.Equal(t, 1, crow.Power)
	assert.Equal(t, 5, archer.Power)
	assert.Equal(t, 1, engineer.Power)
}

func TestWeakestAllyBuffAloneIsNoop(t *testing.T) {
	e := newTestEngine(t)
	bf := board.NewBattlefield()
	bf.Place(board.P2Back, inst("Gnome", 1, cards.AbilityNone))

	engineer := inst("Engineer", 1, cards.AbilityWeakestAllyBuff)
	report := place(t, e, bf, board.P1Back, engineer)

	assert.False(t, report.Activated())
	assert.Equal(t, 1, engineer.Power)
}

func TestNoopAbilityIsLoggedWithNote(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := NewEngine(DefaultRules(), zap.New(core))
	bf := board.NewBattlefield()

	engineer := inst("Engineer", 1, cards.AbilityWeakestAllyBuff)
	place(t, e, bf, board.P1Back, engineer)

	entries := logs.FilterMessage("ability had no effect").
		FilterField(zap.String("ability", "weakest_ally_buff")).
		AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "Engineer", entries[0].ContextMap()["card"])
	assert.Equal(t, "no ally in p1_back", entries[0].ContextMap()["note"])
}

func TestPairedSynergyAppliesOncePerPair(t *testing.T) {
	e := newTestEngine(t)
	bf := board.NewBattlefield()

	fire := inst(cards.FireMage, 5, cards.AbilityPairedSynergy)
	report := place(t, e, bf, board.P1Back, fire)
	assert.False(t, report.Activated())
	assert.Equal(t, 5, fire.Power)

	ice := inst(cards.IceMage, 5, cards.AbilityPairedSynergy)
	report = place(t, e, bf, board.P2Back, ice)
	assert.True(t, report.Synergy.Applied())
	assert.Equal(t, 7, fire.Power)
	assert.Equal(t, 7, ice.Power)
	assert.True(t, fire.SynergyBuffed)
	assert.True(t, ice.SynergyBuffed)

	thirdCopy := inst(cards.FireMage, 5, cards.AbilityPairedSynergy)
	place(t, e, bf, board.P1Back, thirdCopy)
	assert.Equal(t, 5, thirdCopy.Power)
	assert.Equal(t, 7, fire.Power)
	assert.Equal(t, 7, ice.Power)

	assert.False(t, e.CheckSynergy(bf).Applied())
	assert.Equal(t, 7, fire.Power)
}

func TestPairedSynergyCheckedOnUnrelatedPlacement(t *testing.T) {
	e := newTestEngine(t)
	bf := board.NewBattlefield()
	fire := inst(cards.FireMage, 5, cards.AbilityPairedSynergy)
	ice := inst(cards.IceMage, 5, cards.AbilityPairedSynergy)
	bf.Place(board.P1Back, fire)
	bf.Place(board.P1Back, ice)

	report := place(t, e, bf, board.P2Back, inst("Gnome", 1, cards.AbilityNone))

	assert.True(t, report.Activated())
	assert.Equal(t, 7, fire.Power)
	assert.Equal(t, 7, ice.Power)
}

func TestDestroyStrongestEnemy(t *testing.T) {
	e := newTestEngine(t)
	bf := board.NewBattlefield()
	a := inst("A", 3, cards.AbilityNone)
	b := inst("B", 7, cards.AbilityNone)
	c := inst("C", 5, cards.AbilityNone)
	bf.Place(board.P2Front, a)
	bf.Place(board.P2Front, b)
	bf.Place(board.P2Front, c)

	report := place(t, e, bf, board.P1Back, inst("Dragon", 8, cards.AbilityDestroyStrongest))

	assert.True(t, report.Activated())
	assert.Equal(t, []*cards.Instance{a, c}, bf.Cards(board.P2Front))
	require.Len(t, report.Results, 1)
	assert.Equal(t, []*cards.Instance{b}, report.Results[0].Destroyed)
}

func TestDestroyStrongestTieAndImmunity(t *testing.T) {
	e := newTestEngine(t)
	bf := board.NewBattlefield()
	bandit := inst(cards.Bandit, 9, cards.AbilityNone)
	first := inst("First", 7, cards.AbilityNone)
	second := inst("Second", 7, cards.AbilityNone)
	bf.Place(board.P1Front, bandit)
	bf.Place(board.P1Front, first)
	bf.Place(board.P1Front, second)

	place(t, e, bf, board.P2Back, inst("Dragon", 8, cards.AbilityDestroyStrongest))

	assert.Equal(t, []*cards.Instance{bandit, second}, bf.Cards(board.P1Front))
}

func TestDestroyStrongestOnlyImmuneIsNoop(t *testing.T) {
	e := newTestEngine(t)
	bf := board.NewBattlefield()
	bf.Place(board.P2Front, inst(cards.Bandit, 7, cards.AbilityNone))

	report := place(t, e, bf, board.P1Back, inst("Dragon", 8, cards.AbilityDestroyStrongest))

	assert.False(t, report.Activated())
	assert.Len(t, bf.Cards(board.P2Front), 1)
}

func TestResolveRecoversFaultingHandler(t *testing.T) {
	e := newTestEngine(t)
	e.handlers[cards.AbilityDestroyStrongest] = func(*board.Battlefield, *cards.Instance, board.ZoneKey) Result {
		panic("boom")
	}

	bf := board.NewBattlefield()
	fire := inst(cards.FireMage, 5, cards.AbilityPairedSynergy)
	ice := inst(cards.IceMage, 5, cards.AbilityPairedSynergy)
	bf.Place(board.P1Back, fire)
	bf.Place(board.P2Back, ice)

	dragon := inst("Dragon", 8, cards.AbilityDestroyStrongest)
	bf.Place(board.P1Back, dragon)
	report, err := e.Resolve(bf, dragon, board.P1Back)

	require.Error(t, err)
	var fault *AbilityFault
	require.True(t, errors.As(err, &fault))
	assert.Equal(t, "Dragon", fault.Card)
	assert.Equal(t, cards.AbilityDestroyStrongest, fault.Ability)

	assert.True(t, report.Synergy.Applied())
	assert.Equal(t, 7, fire.Power)
	assert.Equal(t, []*cards.Instance{fire, dragon}, bf.Cards(board.P1Back))
}

func TestResolveWithoutAbilityOnlyChecksSynergy(t *testing.T) {
	e := newTestEngine(t)
	bf := board.NewBattlefield()

	report := place(t, e, bf, board.P1Front, inst("Witcher", 10, cards.AbilityNone))

	assert.Empty(t, report.Results)
	assert.False(t, report.Activated())
	assert.Equal(t, OutcomeNoop, report.Synergy.Outcome)
}
