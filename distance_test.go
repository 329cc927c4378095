package xtal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cubic10 = Mat3{{10, 0, 0}, {0, 10, 0}, {0, 0, 10}}

func TestImageCells(t *testing.T) {
	assert.Len(t, imageCells([3]bool{true, true, true}), 27)
	assert.Len(t, imageCells([3]bool{true, true, false}), 9)
	assert.Len(t, imageCells([3]bool{false, false, true}), 3)
	assert.Len(t, imageCells([3]bool{}), 1)
}

func TestFold(t *testing.T) {
	p := Fold(Vec{1.25, -0.25, 3.5}, [3]bool{true, true, true})
	assert.InDelta(t, 0.25, p[0], 1e-12)
	assert.InDelta(t, 0.75, p[1], 1e-12)
	assert.InDelta(t, 0.5, p[2], 1e-12)

	// non-periodic axes untouched
	p = Fold(Vec{1.25, -0.25, 3.5}, [3]bool{true, true, false})
	assert.InDelta(t, 3.5, p[2], 1e-12)
}

func TestDistanceMinImage(t *testing.T) {
	pbc := [3]bool{true, true, true}
	// 0.9 fractional along x wraps to 0.1
	assert.InDelta(t, 1.0, Distance(Vec{0.9, 0, 0}, cubic10, pbc), 1e-12)
	// without periodicity along x it does not
	assert.InDelta(t, 9.0, Distance(Vec{0.9, 0, 0}, cubic10, [3]bool{false, true, true}), 1e-12)
	assert.InDelta(t, 0.0, Distance(Vec{1, 1, 1}, cubic10, pbc), 1e-12)
}

func TestDistanceMatrix(t *testing.T) {
	p1 := []Vec{{0, 0, 0}, {0.5, 0.5, 0.5}}
	p2 := []Vec{{0.95, 0, 0}}
	dm := DistanceMatrix(p1, p2, cubic10, [3]bool{true, true, true})
	r, c := dm.Dims()
	require.Equal(t, 2, r)
	require.Equal(t, 1, c)
	assert.InDelta(t, 0.5, dm.At(0, 0), 1e-12)
}

func TestCheckDistance(t *testing.T) {
	tm, err := NewTolMatrix(Atomic, 1.0)
	require.NoError(t, err)
	pbc := [3]bool{true, true, true}

	// far apart passes
	ok, err := CheckDistance([]Vec{{0, 0, 0}}, []Vec{{0.5, 0.5, 0.5}},
		[]string{"C"}, []string{"C"}, cubic10, pbc, tm)
	require.NoError(t, err)
	assert.True(t, ok)

	// closer than the C-C tolerance across the periodic boundary
	ok, err = CheckDistance([]Vec{{0.01, 0, 0}}, []Vec{{0.99, 0, 0}},
		[]string{"C"}, []string{"C"}, cubic10, pbc, tm)
	require.NoError(t, err)
	assert.False(t, ok)

	// empty sets pass trivially
	ok, err = CheckDistance(nil, []Vec{{0, 0, 0}}, nil, []string{"C"}, cubic10, pbc, tm)
	require.NoError(t, err)
	assert.True(t, ok)
}
