package xtal

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateVolume(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	v, err := EstimateVolume([]string{"C"}, []int{2}, 1.0, rng)
	require.NoError(t, err)
	lo := 2 * 4.0 / 3.0 * math.Pi * 0.76 * 0.76 * 0.76
	hi := 2 * 4.0 / 3.0 * math.Pi * 1.70 * 1.70 * 1.70
	assert.Greater(t, v, lo)
	assert.Less(t, v, hi)

	// factor scales the estimate
	v2, err := EstimateVolume([]string{"C"}, []int{2}, 3.0, rng)
	require.NoError(t, err)
	assert.Greater(t, v2, 3*lo)

	_, err = EstimateVolume([]string{"Xx"}, []int{1}, 1.0, rng)
	assert.ErrorIs(t, err, ErrUnknownSpecies)
}

func TestCheckCompatible(t *testing.T) {
	p23, err := NewGroup(195, 3)
	require.NoError(t, err)
	p21, err := NewGroup(4, 3)
	require.NoError(t, err)
	pbar1, err := NewGroup(2, 3)
	require.NoError(t, err)
	p1, err := NewGroup(1, 3)
	require.NoError(t, err)

	tests := []struct {
		name           string
		g              *Group
		counts         []int
		ok, hasFreedom bool
	}{
		{"free partition", p23, []int{4}, true, true},
		{"indivisible", p21, []int{3}, false, false},
		{"divisible", p21, []int{6}, true, true},
		{"frozen only", pbar1, []int{1}, true, false},
		{"general", p1, []int{5}, true, true},
		{"single orbit", p21, []int{2}, true, true},
	}
	for _, test := range tests {
		ok, free := checkCompatible(test.g, test.counts)
		assert.Equal(t, test.ok, ok, test.name)
		assert.Equal(t, test.hasFreedom, free, test.name)
	}
}

func TestChooseWyckoffBias(t *testing.T) {
	g, err := NewGroup(99, 3)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(23))
	tiers := g.OrbitsUpTo(8)

	const n = 5000
	general := 0
	for i := 0; i < n; i++ {
		wp := chooseWyckoff(tiers, rng)
		require.NotNil(t, wp)
		if wp.Label() == "8g" {
			general++
		}
	}
	// half the draws take the top tier outright, the rest pool all
	// seven orbits: expect about 0.57
	frac := float64(general) / n
	assert.Greater(t, frac, 0.50)
	assert.Less(t, frac, 0.65)

	assert.Nil(t, chooseWyckoff(nil, rng))
}

func TestVerifyDistances(t *testing.T) {
	cell := Mat3{{10, 0, 0}, {0, 10, 0}, {0, 0, 10}}
	ok, err := verifyDistances([]Vec{{0, 0, 0}, {0.3, 0, 0}},
		[]string{"C", "C"}, cell, 1.0, [3]bool{})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = verifyDistances([]Vec{{0, 0, 0}, {0.05, 0, 0}},
		[]string{"C", "C"}, cell, 1.0, [3]bool{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGenerate(t *testing.T) {
	g, err := NewGroup(195, 3)
	require.NoError(t, err)
	tm, err := NewTolMatrix(Atomic, 1.0)
	require.NoError(t, err)

	var s *Structure
	for seed := int64(0); seed < 20; seed++ {
		s, err = Generate(g, []string{"C"}, []int{4}, Config{
			RNG: rand.New(rand.NewSource(seed)),
		})
		if err == nil {
			break
		}
		require.ErrorIs(t, err, ErrMaxAttempts)
	}
	require.NoError(t, err, "no seed produced a structure")

	assert.True(t, s.Valid)
	assert.Greater(t, s.Attempts, 0)
	require.Len(t, s.Coords, 4)
	require.Len(t, s.Species, 4)
	assert.InDelta(t, s.Volume, Det(s.Cell), 1e-9)

	// fractional coordinates folded into the cell
	for _, p := range s.Coords {
		for k := 0; k < 3; k++ {
			assert.GreaterOrEqual(t, p[k], 0.0)
			assert.LessOrEqual(t, p[k], 1.0)
		}
	}

	// orbit bookkeeping adds up to the composition
	total := 0
	for _, site := range s.Sites {
		assert.Equal(t, "C", site.Species)
		total += site.Wyckoff.Multiplicity()
	}
	assert.Equal(t, 4, total)

	// the committed structure satisfies its own tolerance matrix
	minTol, err := tm.Get("C", "C")
	require.NoError(t, err)
	for i := range s.Coords {
		for j := i + 1; j < len(s.Coords); j++ {
			d := Distance(sub(s.Coords[j], s.Coords[i]), s.Cell, g.PBC)
			assert.GreaterOrEqual(t, d, minTol-1e-9)
		}
	}
}

func TestGenerateCluster(t *testing.T) {
	g, err := NewPointGroup("C2v")
	require.NoError(t, err)

	var s *Structure
	for seed := int64(0); seed < 20; seed++ {
		s, err = Generate(g, []string{"H"}, []int{2}, Config{
			Volume: 60,
			RNG:    rand.New(rand.NewSource(seed)),
		})
		if err == nil {
			break
		}
		require.ErrorIs(t, err, ErrMaxAttempts)
	}
	require.NoError(t, err, "no seed produced a cluster")

	assert.True(t, s.Valid)
	require.Len(t, s.Coords, 2)
	// cluster coordinates are absolute, not fractional
	d := norm(sub(s.Coords[1], s.Coords[0]))
	assert.GreaterOrEqual(t, d, 2*0.31*0.5)
}

func TestGenerateIncompatible(t *testing.T) {
	g, err := NewGroup(4, 3)
	require.NoError(t, err)

	s, err := Generate(g, []string{"C"}, []int{3}, Config{})
	assert.ErrorIs(t, err, ErrIncompatible)
	assert.Nil(t, s)

	s, err = Generate(g, []string{"C"}, []int{1, 2}, Config{})
	assert.ErrorIs(t, err, ErrIncompatible)
	assert.Nil(t, s)

	s, err = Generate(g, []string{"C"}, []int{-2}, Config{})
	assert.ErrorIs(t, err, ErrIncompatible)
	assert.Nil(t, s)

	s, err = Generate(g, []string{"Xx"}, []int{2}, Config{})
	assert.ErrorIs(t, err, ErrUnknownSpecies)
	assert.Nil(t, s)
}

func TestGenerateExhausted(t *testing.T) {
	g, err := NewGroup(1, 3)
	require.NoError(t, err)

	// a cell this small can never hold a carbon atom, so every lattice
	// attempt fails and the search runs dry
	s, err := Generate(g, []string{"C"}, []int{1}, Config{
		Volume: 0.1,
		RNG:    rand.New(rand.NewSource(1)),
	})
	require.ErrorIs(t, err, ErrMaxAttempts)
	require.NotNil(t, s)
	assert.False(t, s.Valid)
	assert.GreaterOrEqual(t, s.Attempts, 1)
	assert.Empty(t, s.Coords)
}

func TestSiteString(t *testing.T) {
	g, err := NewGroup(195, 3)
	require.NoError(t, err)
	s := Site{
		Wyckoff:  orbitByLabel(t, g, "4e"),
		Position: Vec{0.21, 0.21, 0.21},
		Species:  "C",
	}
	str := s.String()
	assert.Contains(t, str, "4e")
	assert.Contains(t, str, "C:")
	assert.Contains(t, str, "0.2100")
}
