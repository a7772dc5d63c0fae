package cards

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstantiateReturnsIndependentCopies(t *testing.T) {
	c := Standard()

	a, err := c.Instantiate("Witcher")
	require.NoError(t, err)
	b, err := c.Instantiate("Witcher")
	require.NoError(t, err)

	a.Power += 5
	a.AllowedLines[0] = LineBack

	assert.Equal(t, 15, a.Power)
	assert.Equal(t, 10, b.Power)
	assert.Equal(t, []Line{LineFront}, b.AllowedLines)
	assert.NotEqual(t, a.ID, b.ID)

	def, ok := c.Lookup("Witcher")
	require.True(t, ok)
	assert.Equal(t, 10, def.Power)
	assert.Equal(t, []Line{LineFront}, def.AllowedLines)
}

func TestInstantiateUnknownCard(t *testing.T) {
	c := Standard()

	inst, err := c.Instantiate("Nonexistent")
	assert.Nil(t, inst)
	assert.True(t, errors.Is(err, ErrUnknownCard))
}

func TestInstantiateAllStopsOnUnknown(t *testing.T) {
	c := Standard()

	_, err := c.InstantiateAll([]string{"Witcher", "Gnome", "Ghost"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCard)
	assert.Contains(t, err.Error(), "Ghost")
}

func TestDefineValidation(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
		want error
	}{
		{"empty name", Definition{Name: "  ", Power: 1, AllowedLines: []Line{LineFront}}, ErrInvalidDefinition},
		{"negative power", Definition{Name: "Imp", Power: -1, AllowedLines: []Line{LineFront}}, ErrInvalidDefinition},
		{"no lines", Definition{Name: "Imp", Power: 1}, ErrInvalidDefinition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCatalog()
			assert.ErrorIs(t, c.Define(tt.def), tt.want)
			assert.Equal(t, 0, c.Len())
		})
	}

	c := NewCatalog()
	require.NoError(t, c.Define(Definition{Name: "Imp", Power: 1, AllowedLines: []Line{LineFront}}))
	assert.ErrorIs(t, c.Define(Definition{Name: "Imp", Power: 2, AllowedLines: []Line{LineBack}}), ErrDuplicateCard)
}

func TestStandardSet(t *testing.T) {
	c := Standard()
	assert.Equal(t, 30, c.Len())

	names := c.Names()
	assert.Equal(t, "Witcher", names[0])
	assert.Equal(t, "Signal Lights", names[len(names)-1])

	for _, name := range []string{FireMage, IceMage} {
		def, ok := c.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, AbilityPairedSynergy, def.Ability)
	}

	dragon, _ := c.Lookup("Dragon")
	assert.Equal(t, AbilityDestroyStrongest, dragon.Ability)
	assert.True(t, dragon.Allows(LineBack))
	assert.False(t, dragon.Allows(LineFront))
}

func TestParseLine(t *testing.T) {
	line, err := ParseLine(" Front ")
	require.NoError(t, err)
	assert.Equal(t, LineFront, line)

	_, err = ParseLine("middle")
	assert.Error(t, err)
}

func TestAbilityKindString(t *testing.T) {
	assert.Equal(t, "area_buff", AbilityAreaBuff.String())
	assert.Equal(t, "", AbilityNone.String())
	assert.Equal(t, "ABILITY_42", AbilityKind(42).String())
}
