package board

import (
	"testing"

	"github.com/lineclash/lineclash-server/internal/game/cards"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func card(name string, power int) *cards.Instance {
	return &cards.Instance{Name: name, Power: power, BasePower: power}
}

func TestZoneKeys(t *testing.T) {
	assert.Equal(t, P1Front, Key(SeatOne, cards.LineFront))
	assert.Equal(t, P2Back, Key(SeatTwo, cards.LineBack))

	assert.Equal(t, SeatTwo, P2Front.Seat())
	assert.Equal(t, cards.LineFront, P2Front.Line())
	assert.Equal(t, P2Front, P1Back.Opposing(cards.LineFront))
	assert.Equal(t, P1Back, P2Front.Opposing(cards.LineBack))

	key, err := ParseZoneKey(" P1_Back ")
	require.NoError(t, err)
	assert.Equal(t, P1Back, key)

	_, err = ParseZoneKey("p3_front")
	assert.ErrorIs(t, err, ErrUnknownZone)
}

func TestSeat(t *testing.T) {
	assert.Equal(t, "p1", SeatOne.Key())
	assert.Equal(t, "p2", SeatTwo.Key())
	assert.Equal(t, SeatTwo, SeatOne.Opponent())
	assert.True(t, SeatTwo.Valid())
	assert.False(t, Seat(2).Valid())
}

func TestBattlefieldRemoveKeepsOrder(t *testing.T) {
	bf := NewBattlefield()
	a, b, c := card("a", 3), card("b", 7), card("c", 5)
	bf.Place(P2Front, a)
	bf.Place(P2Front, b)
	bf.Place(P2Front, c)

	require.True(t, bf.Remove(P2Front, b))
	assert.Equal(t, []*cards.Instance{a, c}, bf.Cards(P2Front))
	assert.False(t, bf.Remove(P2Front, b))

	zone, ok := bf.Locate(c)
	require.True(t, ok)
	assert.Equal(t, P2Front, zone)
}

func TestBattlefieldScoreAndClear(t *testing.T) {
	bf := NewBattlefield()
	m := card("m", 5)
	m.SynergyBuffed = true
	bf.Place(P1Back, m)
	bf.Place(P1Front, card("x", 4))
	bf.Place(P2Front, card("y", 6))

	assert.Equal(t, 9, bf.Score(SeatOne))
	assert.Equal(t, 6, bf.Score(SeatTwo))
	assert.Equal(t, 3, bf.Len())

	removed := bf.Clear()
	assert.Len(t, removed, 3)
	assert.False(t, m.SynergyBuffed)
	assert.Equal(t, 0, bf.Len())
	assert.Equal(t, 0, bf.Score(SeatOne))
}

func TestBattlefieldAllCanonicalOrder(t *testing.T) {
	bf := NewBattlefield()
	back2 := card("back2", 1)
	front1 := card("front1", 1)
	back1 := card("back1", 1)
	bf.Place(P2Back, back2)
	bf.Place(P1Front, front1)
	bf.Place(P1Back, back1)

	assert.Equal(t, []*cards.Instance{back1, front1, back2}, bf.All())
}
