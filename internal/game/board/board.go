// Package board models the two-seat battlefield: four ordered zones, one per
// seat and line.
package board

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lineclash/lineclash-server/internal/game/cards"
)

// ErrUnknownZone is returned when a zone key cannot be parsed.
var ErrUnknownZone = errors.New("unknown zone")

// Seat is a player index, 0 or 1.
type Seat int

const (
	SeatOne Seat = 0
	SeatTwo Seat = 1
)

// Seats lists both seats in turn order.
var Seats = [2]Seat{SeatOne, SeatTwo}

// Key returns the wire key of the seat ("p1" or "p2").
func (s Seat) Key() string {
	return fmt.Sprintf("p%d", int(s)+1)
}

// Opponent returns the other seat.
func (s Seat) Opponent() Seat {
	return 1 - s
}

// Valid reports whether s is one of the two seats.
func (s Seat) Valid() bool {
	return s == SeatOne || s == SeatTwo
}

func (s Seat) String() string {
	return s.Key()
}

// ZoneKey names one of the four battlefield zones.
type ZoneKey string

const (
	P1Back  ZoneKey = "p1_back"
	P1Front ZoneKey = "p1_front"
	P2Front ZoneKey = "p2_front"
	P2Back  ZoneKey = "p2_back"
)

// Zones lists the zone keys in canonical order.
var Zones = [4]ZoneKey{P1Back, P1Front, P2Front, P2Back}

// Key returns the zone belonging to seat on line.
func Key(seat Seat, line cards.Line) ZoneKey {
	return ZoneKey(seat.Key() + "_" + string(line))
}

// ParseZoneKey validates a wire zone key.
func ParseZoneKey(s string) (ZoneKey, error) {
	key := ZoneKey(strings.ToLower(strings.TrimSpace(s)))
	for _, z := range Zones {
		if z == key {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownZone, s)
}

// Seat returns the owner of the zone.
func (k ZoneKey) Seat() Seat {
	if strings.HasPrefix(string(k), "p2") {
		return SeatTwo
	}
	return SeatOne
}

// Line returns the line of the zone.
func (k ZoneKey) Line() cards.Line {
	if strings.HasSuffix(string(k), string(cards.LineFront)) {
		return cards.LineFront
	}
	return cards.LineBack
}

// Opposing returns the opponent's zone on the given line.
func (k ZoneKey) Opposing(line cards.Line) ZoneKey {
	return Key(k.Seat().Opponent(), line)
}

// Battlefield holds the placed card instances of both seats.
type Battlefield struct {
	zones map[ZoneKey][]*cards.Instance
}

// NewBattlefield creates an empty battlefield.
func NewBattlefield() *Battlefield {
	bf := &Battlefield{zones: make(map[ZoneKey][]*cards.Instance, len(Zones))}
	for _, z := range Zones {
		bf.zones[z] = make([]*cards.Instance, 0, 8)
	}
	return bf
}

// Place appends a card to the end of a zone.
func (b *Battlefield) Place(zone ZoneKey, card *cards.Instance) {
	b.zones[zone] = append(b.zones[zone], card)
}

// Cards returns the live slice of a zone. Callers may mutate the instances
// but must use Remove to take cards out.
func (b *Battlefield) Cards(zone ZoneKey) []*cards.Instance {
	return b.zones[zone]
}

// Remove takes the given instance out of a zone, preserving the order of the
// remaining cards.
func (b *Battlefield) Remove(zone ZoneKey, card *cards.Instance) bool {
	list := b.zones[zone]
	for i, c := range list {
		if c == card {
			b.zones[zone] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// All returns every card on the battlefield in canonical zone order.
func (b *Battlefield) All() []*cards.Instance {
	out := make([]*cards.Instance, 0, 16)
	for _, z := range Zones {
		out = append(out, b.zones[z]...)
	}
	return out
}

// Locate returns the zone holding card.
func (b *Battlefield) Locate(card *cards.Instance) (ZoneKey, bool) {
	for _, z := range Zones {
		for _, c := range b.zones[z] {
			if c == card {
				return z, true
			}
		}
	}
	return "", false
}

// Score sums the current power of every card in the seat's two zones.
func (b *Battlefield) Score(seat Seat) int {
	total := 0
	for _, line := range []cards.Line{cards.LineBack, cards.LineFront} {
		for _, c := range b.zones[Key(seat, line)] {
			total += c.Power
		}
	}
	return total
}

// Len returns the number of cards on the battlefield.
func (b *Battlefield) Len() int {
	n := 0
	for _, z := range Zones {
		n += len(b.zones[z])
	}
	return n
}

// Clear empties every zone and returns the removed cards with their one-shot
// flags reset.
func (b *Battlefield) Clear() []*cards.Instance {
	removed := b.All()
	for _, c := range removed {
		c.SynergyBuffed = false
	}
	for _, z := range Zones {
		b.zones[z] = make([]*cards.Instance, 0, 8)
	}
	return removed
}
