package cards

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Line is the battlefield row a card may be placed into.
type Line string

const (
	LineFront Line = "front"
	LineBack  Line = "back"
)

// ParseLine converts a wire value into a Line.
func ParseLine(s string) (Line, error) {
	switch Line(strings.ToLower(strings.TrimSpace(s))) {
	case LineFront:
		return LineFront, nil
	case LineBack:
		return LineBack, nil
	default:
		return "", fmt.Errorf("unknown line %q", s)
	}
}

// AbilityKind identifies the effect a card triggers when it is placed.
type AbilityKind int

const (
	AbilityNone AbilityKind = iota
	AbilityAreaBuff
	AbilityNearDebuff
	AbilityFarDebuff
	AbilityWeakestAllyBuff
	AbilityPairedSynergy
	AbilityDestroyStrongest
)

var abilityNames = map[AbilityKind]string{
	AbilityNone:             "",
	AbilityAreaBuff:         "area_buff",
	AbilityNearDebuff:       "near_debuff",
	AbilityFarDebuff:        "far_debuff",
	AbilityWeakestAllyBuff:  "weakest_ally_buff",
	AbilityPairedSynergy:    "paired_synergy",
	AbilityDestroyStrongest: "destroy_strongest",
}

func (k AbilityKind) String() string {
	if name, ok := abilityNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ABILITY_%d", int(k))
}

// Definition is the immutable catalog entry for a named card.
type Definition struct {
	Name         string
	Power        int
	AllowedLines []Line
	Ability      AbilityKind
	ImagePath    string
}

// Allows reports whether the definition may be placed into line.
func (d Definition) Allows(line Line) bool {
	for _, l := range d.AllowedLines {
		if l == line {
			return true
		}
	}
	return false
}

// Instance is a mutable copy of a Definition held by exactly one hand or zone.
type Instance struct {
	ID           uuid.UUID
	Name         string
	Power        int
	BasePower    int
	AllowedLines []Line
	Ability      AbilityKind
	ImagePath    string

	// SynergyBuffed is set once the paired synergy bonus has been granted
	// and is only cleared when the battlefield is cleared.
	SynergyBuffed bool
}

// Allows reports whether the instance may be placed into line.
func (c *Instance) Allows(line Line) bool {
	for _, l := range c.AllowedLines {
		if l == line {
			return true
		}
	}
	return false
}

// HasAbility reports whether the card triggers anything on placement.
func (c *Instance) HasAbility() bool {
	return c.Ability != AbilityNone
}

// LineNames returns the allowed lines as plain strings.
func (c *Instance) LineNames() []string {
	out := make([]string, len(c.AllowedLines))
	for i, l := range c.AllowedLines {
		out[i] = string(l)
	}
	return out
}

func newInstance(def Definition) *Instance {
	lines := make([]Line, len(def.AllowedLines))
	copy(lines, def.AllowedLines)
	return &Instance{
		ID:           uuid.New(),
		Name:         def.Name,
		Power:        def.Power,
		BasePower:    def.Power,
		AllowedLines: lines,
		Ability:      def.Ability,
		ImagePath:    def.ImagePath,
	}
}
