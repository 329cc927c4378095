package xtal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orbitByLabel fetches an orbit by its conventional name, e.g. "4e".
func orbitByLabel(t *testing.T, g *Group, label string) *Wyckoff {
	t.Helper()
	for _, wp := range g.Wyckoffs {
		if wp.Label() == label {
			return wp
		}
	}
	t.Fatalf("no orbit %s in %s", label, g)
	return nil
}

func TestNewGroup(t *testing.T) {
	g, err := NewGroup(195, 3)
	require.NoError(t, err)
	assert.Equal(t, "P23", g.Symbol)
	assert.Equal(t, 195, g.Number)
	assert.Equal(t, "P23 (#195)", g.String())
	assert.Equal(t, [3]bool{true, true, true}, g.PBC)

	// descending multiplicity, general position first
	assert.Equal(t, 12, g.General().Multiplicity())
	assert.Equal(t, "12j", g.General().Label())
	last := g.Wyckoffs[len(g.Wyckoffs)-1]
	assert.Equal(t, 1, last.Multiplicity())
	for i := 1; i < len(g.Wyckoffs); i++ {
		assert.GreaterOrEqual(t, g.Wyckoffs[i-1].Multiplicity(),
			g.Wyckoffs[i].Multiplicity())
		assert.Equal(t, i, g.Wyckoffs[i].Index)
	}
}

func TestNewGroupErrors(t *testing.T) {
	_, err := NewGroup(999, 3)
	assert.ErrorIs(t, err, ErrGroupNotFound)
	_, err = NewGroup(1, 5)
	assert.ErrorIs(t, err, ErrGroupNotFound)
	_, err = NewPointGroup("Xyz")
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestNewPointGroup(t *testing.T) {
	g, err := NewPointGroup("C2v")
	require.NoError(t, err)
	assert.Equal(t, 7, g.Number)
	assert.Equal(t, 0, g.Dim)
	assert.Equal(t, Cylindrical, g.CellFamily())
	assert.Equal(t, [3]bool{}, g.PBC)

	ci, err := NewPointGroup("Ci")
	require.NoError(t, err)
	assert.Equal(t, Spherical, ci.CellFamily())
}

func TestCellFamily(t *testing.T) {
	tests := []struct {
		number, dim int
		want        CellType
	}{
		{2, 3, Triclinic},
		{4, 3, Monoclinic},
		{36, 3, Orthorhombic},
		{99, 3, Tetragonal},
		{168, 3, Hexagonal},
		{195, 3, Cubic},
		{2, 2, Triclinic},
		{2, 1, Triclinic},
	}
	for _, test := range tests {
		g, err := NewGroup(test.number, test.dim)
		require.NoError(t, err)
		assert.Equal(t, test.want, g.CellFamily(), g.String())
	}
}

func TestCellFactor(t *testing.T) {
	g, err := NewGroup(36, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, g.CellFactor())

	g, err = NewGroup(195, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, g.CellFactor())

	g, err = NewPointGroup("C2v")
	require.NoError(t, err)
	assert.Equal(t, 1, g.CellFactor())
}

func TestHasFreedom(t *testing.T) {
	g, err := NewGroup(195, 3)
	require.NoError(t, err)
	assert.True(t, g.General().HasFreedom())
	assert.True(t, orbitByLabel(t, g, "4e").HasFreedom())
	assert.False(t, orbitByLabel(t, g, "3d").HasFreedom())
	assert.False(t, orbitByLabel(t, g, "1a").HasFreedom())
}

func TestOrbitsUpTo(t *testing.T) {
	g, err := NewGroup(195, 3)
	require.NoError(t, err)

	tiers := g.OrbitsUpTo(12)
	require.Len(t, tiers, 5)
	assert.Equal(t, 12, tiers[0][0].Multiplicity())

	tiers = g.OrbitsUpTo(4)
	require.Len(t, tiers, 3)
	assert.Equal(t, 4, tiers[0][0].Multiplicity())
	assert.Len(t, tiers[1], 2)

	assert.Empty(t, g.OrbitsUpTo(0))
}

func TestExpand(t *testing.T) {
	g, err := NewGroup(195, 3)
	require.NoError(t, err)
	wp := orbitByLabel(t, g, "4e")
	orbit := wp.Expand(Vec{0.21, 0.21, 0.21})
	require.Len(t, orbit, 4)
	assert.Equal(t, Vec{0.21, 0.21, 0.21}, orbit[0])
	assert.Equal(t, Vec{-0.21, -0.21, 0.21}, orbit[1])
}

func TestMatchWyckoff(t *testing.T) {
	g, err := NewGroup(195, 3)
	require.NoError(t, err)

	// general position
	orbit := g.General().Expand(Vec{0.11, 0.23, 0.37})
	wp, gen, ok := g.MatchWyckoff(orbit)
	require.True(t, ok)
	assert.Equal(t, "12j", wp.Label())
	assert.Equal(t, Vec{0.11, 0.23, 0.37}, gen)

	// special position on the body diagonal, folded into the cell
	orbit = FoldAll(orbitByLabel(t, g, "4e").Expand(Vec{0.21, 0.21, 0.21}), g.PBC)
	wp, gen, ok = g.MatchWyckoff(orbit)
	require.True(t, ok)
	assert.Equal(t, "4e", wp.Label())
	expanded := FoldAll(wp.Expand(gen), g.PBC)
	assert.ElementsMatch(t, orbit, expanded)

	// fixed point
	wp, _, ok = g.MatchWyckoff([]Vec{{0, 0, 0}})
	require.True(t, ok)
	assert.Equal(t, "1a", wp.Label())

	// not an orbit
	_, _, ok = g.MatchWyckoff([]Vec{{0.3, 0.3, 0.3}})
	assert.False(t, ok)
	_, _, ok = g.MatchWyckoff([]Vec{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}})
	assert.False(t, ok)
}

func TestUniqueAxis(t *testing.T) {
	g := &Group{Dim: 2, Number: 5}
	assert.Equal(t, byte('c'), g.UniqueAxis())
	g = &Group{Dim: 2, Number: 10}
	assert.Equal(t, byte('a'), g.UniqueAxis())
	g = &Group{Dim: 1, Number: 5}
	assert.Equal(t, byte('a'), g.UniqueAxis())
	g = &Group{Dim: 3, Number: 14}
	assert.Equal(t, byte(0), g.UniqueAxis())
}

func TestSiteSymmetry(t *testing.T) {
	g, err := NewGroup(195, 3)
	require.NoError(t, err)
	wp := orbitByLabel(t, g, "4e")
	assert.Equal(t, []string{"x,y,z", "z,x,y", "y,z,x"}, wp.SiteSymmetry())
}
