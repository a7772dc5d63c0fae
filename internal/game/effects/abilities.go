// Package effects implements the card abilities triggered on placement.
package effects

import (
	"fmt"

	"github.com/lineclash/lineclash-server/internal/game/board"
	"github.com/lineclash/lineclash-server/internal/game/cards"
)

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// areaBuff raises every card in the zone, the placed card included.
func (e *Engine) areaBuff(bf *board.Battlefield, _ *cards.Instance, zone board.ZoneKey) Result {
	targets := bf.Cards(zone)
	if len(targets) == 0 {
		return Result{Note: fmt.Sprintf("no cards in %s", zone)}
	}
	for _, c := range targets {
		c.Power += e.rules.AreaBonus
	}
	return Result{
		Outcome:  OutcomeApplied,
		Note:     fmt.Sprintf("+%d to %d cards in %s", e.rules.AreaBonus, len(targets), zone),
		Affected: append([]*cards.Instance(nil), targets...),
	}
}

func (e *Engine) nearDebuff(bf *board.Battlefield, _ *cards.Instance, zone board.ZoneKey) Result {
	return e.debuff(bf, zone.Opposing(cards.LineFront), e.rules.NearDebuffImmune)
}

func (e *Engine) farDebuff(bf *board.Battlefield, _ *cards.Instance, zone board.ZoneKey) Result {
	return e.debuff(bf, zone.Opposing(cards.LineBack), nil)
}

// debuff lowers every card in target by the debuff amount, never below zero.
// Cards already at zero are left alone.
func (e *Engine) debuff(bf *board.Battlefield, target board.ZoneKey, immune []string) Result {
	var affected []*cards.Instance
	for _, c := range bf.Cards(target) {
		if contains(immune, c.Name) || c.Power <= 0 {
			continue
		}
		c.Power -= e.rules.DebuffAmount
		if c.Power < 0 {
			c.Power = 0
		}
		affected = append(affected, c)
	}
	if len(affected) == 0 {
		return Result{Note: fmt.Sprintf("nothing to weaken in %s", target)}
	}
	return Result{
		Outcome:  OutcomeApplied,
		Note:     fmt.Sprintf("-%d to %d cards in %s", e.rules.DebuffAmount, len(affected), target),
		Affected: affected,
	}
}

// buffWeakestAlly raises the lowest-power card sharing the zone with placed.
// Ties go to the card placed first.
func (e *Engine) buffWeakestAlly(bf *board.Battlefield, placed *cards.Instance, zone board.ZoneKey) Result {
	var weakest *cards.Instance
	for _, c := range bf.Cards(zone) {
		if c == placed {
			continue
		}
		if weakest == nil || c.Power < weakest.Power {
			weakest = c
		}
	}
	if weakest == nil {
		return Result{Note: fmt.Sprintf("no ally in %s", zone)}
	}
	weakest.Power += e.rules.WeakestBonus
	return Result{
		Outcome:  OutcomeApplied,
		Note:     fmt.Sprintf("+%d to %s", e.rules.WeakestBonus, weakest.Name),
		Affected: []*cards.Instance{weakest},
	}
}

// pairedSynergy is the placed-card handler of the synergy pair. The check
// already ran for this placement, so it only fires if something changed since.
func (e *Engine) pairedSynergy(bf *board.Battlefield, _ *cards.Instance, _ board.ZoneKey) Result {
	return e.CheckSynergy(bf)
}

// CheckSynergy scans the whole battlefield for one unbuffed copy of each card
// of the synergy pair. When both are present they gain the bonus and are
// flagged so the pair cannot be buffed again until the battlefield is cleared.
func (e *Engine) CheckSynergy(bf *board.Battlefield) Result {
	var first, second *cards.Instance
	for _, c := range bf.All() {
		if c.SynergyBuffed {
			continue
		}
		switch {
		case first == nil && c.Name == e.rules.SynergyPair[0]:
			first = c
		case second == nil && c.Name == e.rules.SynergyPair[1]:
			second = c
		}
	}
	if first == nil || second == nil {
		return Result{Note: "synergy pair incomplete"}
	}

	first.Power += e.rules.SynergyBonus
	second.Power += e.rules.SynergyBonus
	first.SynergyBuffed = true
	second.SynergyBuffed = true

	return Result{
		Outcome:  OutcomeApplied,
		Note:     fmt.Sprintf("%s and %s +%d", first.Name, second.Name, e.rules.SynergyBonus),
		Affected: []*cards.Instance{first, second},
	}
}

// destroyStrongest removes the strongest non-immune card from the opposing
// front zone. Ties go to the card placed first.
func (e *Engine) destroyStrongest(bf *board.Battlefield, _ *cards.Instance, zone board.ZoneKey) Result {
	target := zone.Opposing(cards.LineFront)

	var strongest *cards.Instance
	for _, c := range bf.Cards(target) {
		if contains(e.rules.DestroyImmune, c.Name) {
			continue
		}
		if strongest == nil || c.Power > strongest.Power {
			strongest = c
		}
	}
	if strongest == nil {
		return Result{Note: fmt.Sprintf("no target in %s", target)}
	}

	bf.Remove(target, strongest)
	return Result{
		Outcome:   OutcomeApplied,
		Note:      fmt.Sprintf("destroyed %s (%d) in %s", strongest.Name, strongest.Power, target),
		Destroyed: []*cards.Instance{strongest},
	}
}
