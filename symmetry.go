package xtal

import (
	"fmt"
	"sort"
	"strconv"
)

// Wyckoff is one orbit of a symmetry group: the operations generating
// the full orbit from a free point, and the site symmetry of the
// orbit's first point in general-position form.
type Wyckoff struct {
	Letter string
	Index  int
	Ops    []SymOp
	Site   []SymOp
}

// Multiplicity is the number of points in the orbit.
func (w *Wyckoff) Multiplicity() int { return len(w.Ops) }

// HasFreedom reports whether the orbit carries at least one positional
// degree of freedom.
func (w *Wyckoff) HasFreedom() bool { return !w.Ops[0].RotationIsZero() }

// Expand generates the full orbit of p. The points are not folded.
func (w *Wyckoff) Expand(p Vec) []Vec {
	out := make([]Vec, len(w.Ops))
	for i, op := range w.Ops {
		out[i] = op.Apply(p)
	}
	return out
}

// Label returns the conventional multiplicity-letter name, e.g. "4a".
func (w *Wyckoff) Label() string {
	return strconv.Itoa(w.Multiplicity()) + w.Letter
}

// SiteSymmetry lists the site symmetry operations as triplets.
func (w *Wyckoff) SiteSymmetry() []string {
	out := make([]string, len(w.Site))
	for i, op := range w.Site {
		out[i] = op.String()
	}
	return out
}

// Group is a symmetry group of dimension 0 (point), 1 (rod), 2
// (layer), or 3 (space), with its Wyckoff orbits sorted by descending
// multiplicity. Index 0 is always the general position.
type Group struct {
	Number int
	Dim    int
	Symbol string
	PBC    [3]bool

	Wyckoffs []*Wyckoff
	tiers    [][]*Wyckoff
	family   CellType
}

// NewGroup loads a symmetry group by international number and
// dimension from the embedded tables.
func NewGroup(number, dim int) (*Group, error) {
	if dim < 0 || dim > 3 {
		return nil, fmt.Errorf("%w: dimension %d", ErrGroupNotFound, dim)
	}
	dg, err := lookupGroup(number, dim)
	if err != nil {
		return nil, err
	}
	return buildGroup(dg, dim)
}

// NewPointGroup loads a point group by Schoenflies symbol, e.g. "C2v".
func NewPointGroup(symbol string) (*Group, error) {
	dg, err := lookupPointGroup(symbol)
	if err != nil {
		return nil, err
	}
	return buildGroup(dg, 0)
}

func buildGroup(dg *dbGroup, dim int) (*Group, error) {
	g := &Group{
		Number: dg.Number,
		Dim:    dim,
		Symbol: dg.Symbol,
		PBC:    pbcForDim(dim),
	}
	for _, pos := range dg.Positions {
		w := &Wyckoff{Letter: pos.Letter}
		for _, s := range pos.Ops {
			op, err := ParseOp(s)
			if err != nil {
				return nil, fmt.Errorf("group %s: %w", dg.Symbol, err)
			}
			w.Ops = append(w.Ops, op)
		}
		for _, s := range pos.Site {
			op, err := ParseOp(s)
			if err != nil {
				return nil, fmt.Errorf("group %s: %w", dg.Symbol, err)
			}
			w.Site = append(w.Site, op)
		}
		g.Wyckoffs = append(g.Wyckoffs, w)
	}
	sort.SliceStable(g.Wyckoffs, func(i, j int) bool {
		return g.Wyckoffs[i].Multiplicity() > g.Wyckoffs[j].Multiplicity()
	})
	for i, w := range g.Wyckoffs {
		w.Index = i
		if i == 0 || w.Multiplicity() != g.Wyckoffs[i-1].Multiplicity() {
			g.tiers = append(g.tiers, nil)
		}
		g.tiers[len(g.tiers)-1] = append(g.tiers[len(g.tiers)-1], w)
	}
	g.family = groupFamily(dg, dim)
	return g, nil
}

func groupFamily(dg *dbGroup, dim int) CellType {
	if dim == 0 {
		if dg.Family == "cylindrical" {
			return Cylindrical
		}
		return Spherical
	}
	n := dg.Number
	type bound struct {
		max int
		t   CellType
	}
	var bounds []bound
	switch dim {
	case 3:
		bounds = []bound{{2, Triclinic}, {15, Monoclinic}, {74, Orthorhombic},
			{142, Tetragonal}, {194, Hexagonal}, {230, Cubic}}
	case 2:
		bounds = []bound{{2, Triclinic}, {18, Monoclinic}, {48, Orthorhombic},
			{64, Tetragonal}, {80, Hexagonal}}
	case 1:
		bounds = []bound{{2, Triclinic}, {12, Monoclinic}, {22, Orthorhombic},
			{41, Tetragonal}, {75, Hexagonal}}
	}
	for _, b := range bounds {
		if n <= b.max {
			return b.t
		}
	}
	return Triclinic
}

// General returns the general position.
func (g *Group) General() *Wyckoff { return g.Wyckoffs[0] }

// CellFamily is the lattice family structures in this group are
// sampled from.
func (g *Group) CellFamily() CellType { return g.family }

// OrbitsUpTo returns the multiplicity tiers whose orbits can still fit
// n points, largest first.
func (g *Group) OrbitsUpTo(n int) [][]*Wyckoff {
	var out [][]*Wyckoff
	for _, tier := range g.tiers {
		if tier[0].Multiplicity() <= n {
			out = append(out, tier)
		}
	}
	return out
}

// UniqueAxis is the monoclinic unique axis convention for layer and
// rod groups; zero for other groups.
func (g *Group) UniqueAxis() byte {
	switch g.Dim {
	case 2:
		if g.Number >= 3 && g.Number <= 7 {
			return 'c'
		}
		if g.Number >= 8 && g.Number <= 18 {
			return 'a'
		}
	case 1:
		if g.Number >= 3 && g.Number <= 7 {
			return 'a'
		}
		if g.Number >= 8 && g.Number <= 12 {
			return 'c'
		}
	}
	return 0
}

// CellFactor is the number of primitive cells in the conventional
// cell, determined by the centering type.
func (g *Group) CellFactor() int {
	switch g.Dim {
	case 0, 1:
		return 1
	case 2:
		switch g.Number {
		case 10, 13, 18, 22, 26, 35, 36, 47, 48:
			return 2
		}
		return 1
	}
	switch g.Number {
	case 22, 42, 43, 69, 70, 196, 202, 203, 209, 210, 216, 219,
		225, 226, 227, 228:
		return 4
	case 146, 148, 155, 160, 161, 166, 167:
		return 3
	case 5, 8, 9, 12, 15, 20, 21, 23, 24, 35, 36, 37, 38, 39, 40, 41,
		44, 45, 46, 63, 64, 65, 66, 67, 68, 71, 72, 73, 74, 79, 80,
		82, 87, 88, 97, 98, 107, 108, 109, 110, 119, 120, 121, 122,
		139, 140, 141, 142, 197, 199, 204, 206, 211, 214, 217, 220,
		229, 230:
		return 2
	}
	return 1
}

func (g *Group) String() string {
	return fmt.Sprintf("%s (#%d)", g.Symbol, g.Number)
}

func sub(a, b Vec) Vec {
	return Vec{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func dsq(v Vec) float64 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

// MatchWyckoff identifies which orbit a point set belongs to by site
// symmetry. It returns the orbit, a generating point drawn from the
// set, and whether a match was found. The generating point regenerates
// the set, up to lattice translations, when expanded by the orbit.
func (g *Group) MatchWyckoff(points []Vec) (*Wyckoff, Vec, bool) {
	const tol = 1e-3
	for _, wp := range g.Wyckoffs {
		if wp.Multiplicity() != len(points) {
			continue
		}
	search:
		for _, p := range points {
			// p must be a fixed point of the generator.
			if norm(foldDisp(sub(wp.Ops[0].Apply(p), p), g.PBC)) > tol {
				continue
			}
			pw := wp.Expand(p)
			dw := distMatrixEuclidean(points, pw, g.PBC)
			for i := range points {
				ok := false
				for j := range pw {
					if dw.At(i, j) < tol {
						ok = true
						break
					}
				}
				if !ok {
					continue search
				}
			}
			for j := range pw {
				ok := false
				for i := range points {
					if dw.At(i, j) < tol {
						ok = true
						break
					}
				}
				if !ok {
					continue search
				}
			}
			// The site symmetry of the first orbit point must fix p.
			for _, op := range wp.Site {
				if norm(foldDisp(sub(op.Apply(p), p), g.PBC)) > tol {
					continue search
				}
			}
			return wp, p, true
		}
	}
	return nil, Vec{}, false
}
