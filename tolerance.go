package xtal

import (
	"fmt"
	"math"
)

// Prototype selects the radius rule a TolMatrix is built from.
type Prototype int

const (
	// Atomic distances: 0.5 * (covalent_i + covalent_j).
	Atomic Prototype = iota
	// Molecular distances: 1.2 * (covalent_i + covalent_j).
	Molecular
	// Metallic distances: 0.5 * (metallic_i + metallic_j), falling
	// back to covalent radii where no metallic radius is tabulated.
	Metallic
	// SingleValue: one flat cutoff for every pair.
	SingleValue
)

func (p Prototype) String() string {
	switch p {
	case Atomic:
		return "atomic"
	case Molecular:
		return "molecular"
	case Metallic:
		return "metallic"
	case SingleValue:
		return "single value"
	}
	return fmt.Sprintf("Prototype(%d)", int(p))
}

// TolEntry overrides the minimum allowed distance for one species
// pair. Order of S1 and S2 does not matter.
type TolEntry struct {
	S1, S2 string
	Value  float64
}

type pairKey struct{ lo, hi int }

// TolMatrix gives the minimum allowed interatomic distance for every
// species pair. Pairs without an explicit override are derived from
// the prototype rule on demand.
type TolMatrix struct {
	Proto  Prototype
	Factor float64
	single float64
	custom map[pairKey]float64
}

// NewTolMatrix builds a tolerance matrix from a prototype radius rule
// scaled by factor, with optional per-pair overrides.
func NewTolMatrix(p Prototype, factor float64, entries ...TolEntry) (*TolMatrix, error) {
	if factor <= 0 {
		return nil, fmt.Errorf("%w: factor %g", ErrBadTolerance, factor)
	}
	if p < Atomic || p > Metallic {
		return nil, fmt.Errorf("%w: prototype %d", ErrBadTolerance, int(p))
	}
	tm := &TolMatrix{Proto: p, Factor: factor, custom: make(map[pairKey]float64)}
	for _, e := range entries {
		if err := tm.Set(e.S1, e.S2, e.Value); err != nil {
			return nil, err
		}
	}
	return tm, nil
}

// SingleValueTol builds a matrix with one flat cutoff for every pair.
func SingleValueTol(v float64) (*TolMatrix, error) {
	if v <= 0 || math.IsNaN(v) {
		return nil, fmt.Errorf("%w: value %g", ErrBadTolerance, v)
	}
	return &TolMatrix{Proto: SingleValue, Factor: 1, single: v,
		custom: make(map[pairKey]float64)}, nil
}

// Set overrides the cutoff for one species pair.
func (tm *TolMatrix) Set(s1, s2 string, v float64) error {
	if v <= 0 || math.IsNaN(v) {
		return fmt.Errorf("%w: %s-%s value %g", ErrBadTolerance, s1, s2, v)
	}
	e1, err := LookupElement(s1)
	if err != nil {
		return err
	}
	e2, err := LookupElement(s2)
	if err != nil {
		return err
	}
	tm.custom[key(e1.Number, e2.Number)] = v
	return nil
}

// Get returns the minimum allowed distance between species s1 and s2.
func (tm *TolMatrix) Get(s1, s2 string) (float64, error) {
	e1, err := LookupElement(s1)
	if err != nil {
		return 0, err
	}
	e2, err := LookupElement(s2)
	if err != nil {
		return 0, err
	}
	if v, ok := tm.custom[key(e1.Number, e2.Number)]; ok {
		return v, nil
	}
	switch tm.Proto {
	case SingleValue:
		return tm.single, nil
	case Atomic:
		return tm.Factor * 0.5 * (e1.Covalent + e2.Covalent), nil
	case Molecular:
		return tm.Factor * 1.2 * (e1.Covalent + e2.Covalent), nil
	case Metallic:
		return tm.Factor * 0.5 * (e1.MetallicRadius() + e2.MetallicRadius()), nil
	}
	return 0, fmt.Errorf("%w: prototype %d", ErrBadTolerance, int(tm.Proto))
}

func key(z1, z2 int) pairKey {
	if z1 > z2 {
		z1, z2 = z2, z1
	}
	return pairKey{z1, z2}
}
