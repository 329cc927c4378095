package xtal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupElement(t *testing.T) {
	c, err := LookupElement("C")
	require.NoError(t, err)
	assert.Equal(t, 6, c.Number)
	assert.Equal(t, 0.76, c.Covalent)
	assert.Equal(t, 1.70, c.Vdw)

	// case normalization
	fe, err := LookupElement("fe")
	require.NoError(t, err)
	assert.Equal(t, "Fe", fe.Symbol)

	_, err = LookupElement("Xx")
	assert.ErrorIs(t, err, ErrUnknownSpecies)
}

func TestElementByNumber(t *testing.T) {
	o, err := ElementByNumber(8)
	require.NoError(t, err)
	assert.Equal(t, "O", o.Symbol)

	_, err = ElementByNumber(0)
	assert.ErrorIs(t, err, ErrUnknownSpecies)
	_, err = ElementByNumber(200)
	assert.ErrorIs(t, err, ErrUnknownSpecies)
}

func TestMetallicRadius(t *testing.T) {
	cu, err := LookupElement("Cu")
	require.NoError(t, err)
	assert.Equal(t, 1.28, cu.MetallicRadius())

	// no metallic radius tabulated, falls back to covalent
	c, err := LookupElement("C")
	require.NoError(t, err)
	assert.Equal(t, c.Covalent, c.MetallicRadius())
}
