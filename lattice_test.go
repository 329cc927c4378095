package xtal

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatticeVolume3D(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, ct := range []CellType{
		Triclinic, Monoclinic, Orthorhombic, Tetragonal, Hexagonal, Cubic,
	} {
		l, err := NewLattice(ct, 3, 100, rng, LatticeConfig{})
		require.NoError(t, err, ct)
		require.NoError(t, l.Reset(), ct)
		assert.InDelta(t, 100, Det(l.Matrix), 1e-6, ct)
	}
}

func TestLatticeVolume2D(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	l, err := NewLattice(Orthorhombic, 2, 80, rng, LatticeConfig{Thickness: 3})
	require.NoError(t, err)
	require.NoError(t, l.Reset())
	assert.InDelta(t, 80, Det(l.Matrix), 1e-6)
	assert.InDelta(t, 3, l.C, 1e-9)
}

func TestLatticeAngles(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	l, err := NewLattice(Monoclinic, 3, 200, rng, LatticeConfig{})
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		require.NoError(t, l.Reset())
		assert.InDelta(t, math.Pi/2, l.Alpha, 1e-9)
		assert.InDelta(t, math.Pi/2, l.Gamma, 1e-9)
		assert.Greater(t, l.Beta, math.Pi/6)
		assert.Less(t, l.Beta, math.Pi-math.Pi/6)
	}

	l, err = NewLattice(Hexagonal, 3, 200, rng, LatticeConfig{})
	require.NoError(t, err)
	require.NoError(t, l.Reset())
	assert.InDelta(t, 2*math.Pi/3, l.Gamma, 1e-9)
	assert.InDelta(t, l.A, l.B, 1e-9)
}

func TestSphericalLattice(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	l, err := NewLattice(Spherical, 0, 100, rng, LatticeConfig{})
	require.NoError(t, err)
	require.NoError(t, l.Reset())
	want := math.Cbrt(3 * 100 / (4 * math.Pi))
	assert.InDelta(t, want, l.A, 1e-9)
	assert.InDelta(t, want, l.C, 1e-9)

	// points stay inside the unit sphere
	for i := 0; i < 200; i++ {
		p := l.RandomPoint()
		assert.LessOrEqual(t, dsq(p), 1.0+1e-12)
	}

	// too small a sphere cannot satisfy the minimum vector length
	tiny, err := NewLattice(Spherical, 0, 0.5, rng, LatticeConfig{})
	require.NoError(t, err)
	assert.ErrorIs(t, tiny.Reset(), ErrLatticeFailed)
}

func TestCylindricalLattice(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	l, err := NewLattice(Cylindrical, 0, 100, rng, LatticeConfig{})
	require.NoError(t, err)
	require.NoError(t, l.Reset())
	// tetragonal carrier cell with the volume scaled by 4/pi
	assert.InDelta(t, l.A, l.B, 1e-9)
	assert.InDelta(t, 100*4/math.Pi, l.A*l.B*l.C, 1e-6)

	for i := 0; i < 200; i++ {
		p := l.RandomPoint()
		assert.LessOrEqual(t, p[0]*p[0]+p[1]*p[1], 1.0+1e-12)
		assert.GreaterOrEqual(t, p[2], 0.0)
	}
}

func TestRandomPointNonPeriodic(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	l, err := NewLattice(Orthorhombic, 2, 80, rng, LatticeConfig{Thickness: 3})
	require.NoError(t, err)
	require.NoError(t, l.Reset())
	for i := 0; i < 100; i++ {
		p := l.RandomPoint()
		assert.GreaterOrEqual(t, p[0], 0.0)
		assert.Less(t, p[0], 1.0)
		// non-periodic axis shifted to be centered on zero
		assert.GreaterOrEqual(t, p[2], -0.5)
		assert.Less(t, p[2], 0.5)
	}
}

func TestFixedLattice(t *testing.T) {
	l, err := FromPara(4, 5, 6, math.Pi/2, math.Pi/2, math.Pi/2, Orthorhombic, 3)
	require.NoError(t, err)
	m := l.Matrix
	require.NoError(t, l.Reset())
	assert.Equal(t, m, l.Matrix)
	assert.InDelta(t, 120, l.Volume, 1e-9)
}

func TestParaMatrixRoundTrip(t *testing.T) {
	a, b, c := 4.0, 5.5, 7.25
	alpha, beta, gamma := 1.3, 1.4, 1.9
	m := ParaToMatrix(a, b, c, alpha, beta, gamma)
	a2, b2, c2, al2, be2, ga2 := MatrixToPara(m)
	assert.InDelta(t, a, a2, 1e-9)
	assert.InDelta(t, b, b2, 1e-9)
	assert.InDelta(t, c, c2, 1e-9)
	assert.InDelta(t, alpha, al2, 1e-9)
	assert.InDelta(t, beta, be2, 1e-9)
	assert.InDelta(t, gamma, ga2, 1e-9)

	// lower triangular convention
	assert.Zero(t, m[0][1])
	assert.Zero(t, m[0][2])
	assert.Zero(t, m[1][2])
}

func TestAddVacuum(t *testing.T) {
	cell := Mat3{{4, 0, 0}, {0, 4, 0}, {0, 0, 3}}
	coords := []Vec{{0.25, 0.25, 0.5}}
	padded, folded, err := AddVacuum(cell, coords, 10, [3]bool{true, true, false})
	require.NoError(t, err)
	assert.InDelta(t, 13, padded[2][2], 1e-9)
	assert.InDelta(t, 4, padded[0][0], 1e-9)
	// absolute position preserved: 1.5 / 13
	assert.InDelta(t, 1.5/13, folded[0][2], 1e-9)
	assert.InDelta(t, 0.25, folded[0][0], 1e-9)
}

func TestLatticeErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	_, err := NewLattice(Cubic, 3, -5, rng, LatticeConfig{})
	assert.ErrorIs(t, err, ErrLatticeFailed)
	_, err = NewLattice(Cubic, 5, 100, rng, LatticeConfig{})
	assert.ErrorIs(t, err, ErrLatticeFailed)
	_, err = NewLattice(Spherical, 3, 100, rng, LatticeConfig{})
	assert.ErrorIs(t, err, ErrLatticeFailed)
	_, err = NewLattice(Cubic, 0, 100, rng, LatticeConfig{})
	assert.ErrorIs(t, err, ErrLatticeFailed)

	// volume too small for the minimum vector length
	small, err := NewLattice(Cubic, 3, 0.5, rng, LatticeConfig{MinVec: 2})
	require.NoError(t, err)
	assert.ErrorIs(t, small.Reset(), ErrLatticeFailed)
}
