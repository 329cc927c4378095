package xtal

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Molecule is a rigid molecule with Cartesian atom coordinates
// centered on its geometric center.
type Molecule struct {
	Name    string
	Species []string
	Coords  []Vec
}

// Radius is the bounding sphere radius used for cheap overlap checks:
// the farthest atom from the center plus its van der Waals radius.
func (m *Molecule) Radius() (float64, error) {
	var r float64
	for i, p := range m.Coords {
		e, err := LookupElement(m.Species[i])
		if err != nil {
			return 0, err
		}
		if l := norm(p) + e.Vdw; l > r {
			r = l
		}
	}
	return r, nil
}

// Box is the minimal axis-aligned bounding box of a molecule, padded
// by the van der Waals radius of each atom.
type Box struct {
	Min, Max              Vec
	Width, Length, Height float64
	MinL, MidL, MaxL      float64
	Volume                float64
}

// Box computes the molecule's padded bounding box.
func (m *Molecule) Box() (Box, error) {
	var b Box
	for i, p := range m.Coords {
		e, err := LookupElement(m.Species[i])
		if err != nil {
			return Box{}, err
		}
		for k := 0; k < 3; k++ {
			if p[k]-e.Vdw < b.Min[k] {
				b.Min[k] = p[k] - e.Vdw
			}
			if p[k]+e.Vdw > b.Max[k] {
				b.Max[k] = p[k] + e.Vdw
			}
		}
	}
	b.Width = b.Max[0] - b.Min[0]
	b.Length = b.Max[1] - b.Min[1]
	b.Height = b.Max[2] - b.Min[2]
	b.MinL = math.Min(b.Width, math.Min(b.Length, b.Height))
	b.MaxL = math.Max(b.Width, math.Max(b.Length, b.Height))
	b.MidL = b.Width + b.Length + b.Height - b.MinL - b.MaxL
	b.Volume = b.Width * b.Length * b.Height
	return b, nil
}

// Orientation is one allowed rigid-body orientation of a molecule on a
// Wyckoff orbit. Free orientations resample a fresh uniform rotation
// on every draw; constrained ones always return their fixed matrix.
type Orientation struct {
	M    Mat3
	Free bool
}

// Sample returns a rotation matrix for this orientation.
func (o Orientation) Sample(rng *rand.Rand) Mat3 {
	if o.Free {
		return RandomRotation(rng)
	}
	return o.M
}

// RandomRotation draws a uniformly distributed rotation matrix using
// the quaternion method.
func RandomRotation(rng *rand.Rand) Mat3 {
	u1, u2, u3 := rng.Float64(), rng.Float64(), rng.Float64()
	q0 := math.Sqrt(1-u1) * math.Sin(2*math.Pi*u2)
	q1 := math.Sqrt(1-u1) * math.Cos(2*math.Pi*u2)
	q2 := math.Sqrt(u1) * math.Sin(2*math.Pi*u3)
	q3 := math.Sqrt(u1) * math.Cos(2*math.Pi*u3)
	return Mat3{
		{1 - 2*(q2*q2 + q3*q3), 2 * (q1*q2 - q0*q3), 2 * (q1*q3 + q0*q2)},
		{2 * (q1*q2 + q0*q3), 1 - 2*(q1*q1 + q3*q3), 2 * (q2*q3 - q0*q1)},
		{2 * (q1*q3 - q0*q2), 2 * (q2*q3 + q0*q1), 1 - 2*(q1*q1 + q2*q2)},
	}
}

// OrientationEnumerator decides which rigid-body orientations of a
// molecule are compatible with the site symmetry of a Wyckoff orbit.
// An empty result marks the orbit as unusable for that molecule.
type OrientationEnumerator interface {
	ValidOrientations(m *Molecule, g *Group, wp *Wyckoff, allowInversion bool) []Orientation
}

// FreeOrientations is the default enumerator: orbits whose site
// symmetry is only the identity accept every orientation; orbits with
// nontrivial site symmetry accept none, since deciding compatibility
// needs molecular point group analysis.
type FreeOrientations struct{}

func (FreeOrientations) ValidOrientations(m *Molecule, g *Group, wp *Wyckoff, allowInversion bool) []Orientation {
	if len(wp.Site) == 1 {
		return []Orientation{{Free: true}}
	}
	return nil
}

// MolSite is one placed molecular Wyckoff orbit: a molecule, its
// generating center, its orientation, and the orbit that replicates
// it.
type MolSite struct {
	Mol      *Molecule
	Position Vec
	Rotation Mat3
	Wyckoff  *Wyckoff
	Cell     Mat3
	PBC      [3]bool
	Radius   float64
}

// Centers returns the folded fractional centers of every molecule in
// the orbit.
func (s *MolSite) Centers() []Vec {
	return FoldAll(s.Wyckoff.Expand(s.Position), s.PBC)
}

// CoordsSpecies expands the orbit into per-atom fractional coordinates
// and species. Each copy of the molecule is rotated by the orbit
// operation's rotational part on top of the site orientation.
func (s *MolSite) CoordsSpecies() ([]Vec, []string, error) {
	inv, err := invert(s.Cell)
	if err != nil {
		return nil, nil, err
	}
	var coords []Vec
	var species []string
	for _, op := range s.Wyckoff.Ops {
		center := op.Apply(s.Position)
		for _, atom := range s.Mol.Coords {
			rotated := mulMatVec(s.Rotation, atom)
			rotated = mulMatVec(op.Rot, rotated)
			frac := FracToCart(rotated, inv)
			coords = append(coords, Vec{
				center[0] + frac[0],
				center[1] + frac[1],
				center[2] + frac[2],
			})
		}
		species = append(species, s.Mol.Species...)
	}
	return coords, species, nil
}

// selfCheck verifies the first molecule of the orbit against all its
// symmetry copies, either atom by atom or by bounding sphere overlap.
func (s *MolSite) selfCheck(atomic bool, tm *TolMatrix) (bool, error) {
	if s.Wyckoff.Multiplicity() == 1 {
		return true, nil
	}
	if !atomic {
		centers := s.Centers()
		dm := DistanceMatrix(centers[:1], centers[1:], s.Cell, s.PBC)
		for j := 0; j < len(centers)-1; j++ {
			if dm.At(0, j) < 2*s.Radius {
				return false, nil
			}
		}
		return true, nil
	}
	coords, species, err := s.CoordsSpecies()
	if err != nil {
		return false, err
	}
	n := len(s.Mol.Coords)
	return CheckDistance(coords[:n], coords[n:], species[:n], species[n:],
		s.Cell, s.PBC, tm)
}

// crossCheck verifies this orbit against an already placed one.
func (s *MolSite) crossCheck(other *MolSite, atomic bool, tm *TolMatrix) (bool, error) {
	if !atomic {
		dm := DistanceMatrix(s.Centers(), other.Centers(), s.Cell, s.PBC)
		r, c := dm.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				if dm.At(i, j) < s.Radius+other.Radius {
					return false, nil
				}
			}
		}
		return true, nil
	}
	c1, s1, err := s.CoordsSpecies()
	if err != nil {
		return false, err
	}
	c2, s2, err := other.CoordsSpecies()
	if err != nil {
		return false, err
	}
	return CheckDistance(c1, c2, s1, s2, s.Cell, s.PBC, tm)
}

func mulMatVec(m Mat3, v Vec) Vec {
	var out Vec
	for i := 0; i < 3; i++ {
		out[i] = m[i][0]*v[0] + m[i][1]*v[1] + m[i][2]*v[2]
	}
	return out
}

func invert(m Mat3) (Mat3, error) {
	d := mat.NewDense(3, 3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})
	var inv mat.Dense
	if err := inv.Inverse(d); err != nil {
		return Mat3{}, fmt.Errorf("%w: singular cell", ErrLatticeFailed)
	}
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = inv.At(i, j)
		}
	}
	return out, nil
}

// DefaultOrientationAttempts is the budget of the innermost molecular
// retry level, entered when a molecule's center placement survives the
// bounding-box screen but its orientation collides.
const DefaultOrientationAttempts = 3

// MolConfig extends Config for the molecular search.
type MolConfig struct {
	Config

	// Orientations enumerates allowed orientations per orbit.
	// Default FreeOrientations.
	Orientations OrientationEnumerator
	// CheckAtomic selects per-atom distance checks instead of
	// bounding sphere overlap.
	CheckAtomic bool
	// OrientationAttempts is the innermost retry budget. Default 3.
	OrientationAttempts int
	// AllowInversion permits improper orientations for achiral
	// molecules.
	AllowInversion bool
}

// GenerateMolecular searches for a random molecular structure the same
// way Generate does, with one extra retry level: when a chosen center
// passes the bounding-box screen but the sampled orientation makes the
// molecule collide with its own symmetry copies, fresh orientations
// are drawn before the center is abandoned.
//
// Orbit choices and merges are restricted to orbits with at least one
// valid orientation for the molecule.
func GenerateMolecular(g *Group, mols []*Molecule, counts []int, cfg MolConfig) (*Structure, error) {
	if len(mols) != len(counts) || len(mols) == 0 {
		return nil, fmt.Errorf("%w: %d molecules for %d counts",
			ErrIncompatible, len(mols), len(counts))
	}
	if cfg.Factor == 0 {
		// Molecules need more empty space than atoms.
		cfg.Factor = 2.0
	}
	conf, err := cfg.Config.withDefaults()
	if err != nil {
		return nil, err
	}
	if cfg.Tol == nil {
		conf.Tol, err = NewTolMatrix(Molecular, 1.0)
		if err != nil {
			return nil, err
		}
	}
	if cfg.Orientations == nil {
		cfg.Orientations = FreeOrientations{}
	}
	maxO4 := cfg.OrientationAttempts
	if maxO4 == 0 {
		maxO4 = DefaultOrientationAttempts
	}
	log := conf.Logger
	rng := conf.RNG

	// Per molecule: valid orientations per orbit, radius, box.
	orients := make([]map[*Wyckoff][]Orientation, len(mols))
	radii := make([]float64, len(mols))
	boxes := make([]Box, len(mols))
	for i, m := range mols {
		orients[i] = make(map[*Wyckoff][]Orientation)
		any := false
		for _, wp := range g.Wyckoffs {
			if os := cfg.Orientations.ValidOrientations(m, g, wp, cfg.AllowInversion); len(os) > 0 {
				orients[i][wp] = os
				any = true
			}
		}
		if !any {
			return nil, fmt.Errorf("%w: %s in %s", ErrNoOrientations, m.Name, g)
		}
		if radii[i], err = m.Radius(); err != nil {
			return nil, err
		}
		if boxes[i], err = m.Box(); err != nil {
			return nil, err
		}
	}

	scaled := make([]int, len(counts))
	for i, n := range counts {
		if n <= 0 {
			return nil, fmt.Errorf("%w: count %d for %s", ErrIncompatible, n, mols[i].Name)
		}
		scaled[i] = n * g.CellFactor()
	}
	ok, hasFreedom := checkCompatible(g, scaled)
	if !ok {
		return nil, fmt.Errorf("%w: %v in %s", ErrIncompatible, scaled, g)
	}
	maxL, maxS, maxO := conf.LatticeAttempts, conf.StructureAttempts, conf.OrbitAttempts
	if !hasFreedom {
		maxL, maxS, maxO = frozenAttempts, frozenAttempts, frozenAttempts
	}

	volume := conf.Volume
	if volume <= 0 {
		for i, n := range scaled {
			volume += float64(n) * boxes[i].Volume
		}
		volume *= conf.Factor
	}

	lat := conf.Lattice
	if lat == nil {
		lat, err = NewLattice(g.CellFamily(), g.Dim, volume, rng, LatticeConfig{
			Thickness:  conf.Thickness,
			Area:       conf.Area,
			UniqueAxis: g.UniqueAxis(),
		})
		if err != nil {
			return nil, err
		}
	}

	attempts := 1
	for cycle1 := 0; cycle1 < maxL; cycle1++ {
		if err := lat.Reset(); err != nil {
			log.Debug().Err(err).Msg("lattice attempt failed")
			continue
		}
		cell := lat.Matrix
		if !lat.fixed && g.Dim != 0 {
			if math.Abs(lat.Volume-Det(cell)) > 1.0 {
				return nil, fmt.Errorf("%w: want %g, got %g",
					ErrVolumeMismatch, lat.Volume, Det(cell))
			}
		}

	structures:
		for cycle2 := 0; cycle2 < maxS; cycle2++ {
			var (
				coords []Vec
				placed []string
				sites  []Site
				msites []*MolSite
			)
			good := true
			for i, mol := range mols {
				mtol := 2 * radii[i]
				if cfg.CheckAtomic {
					mtol = 0.5 * radii[i]
				}
				allowed := func(wp *Wyckoff) bool {
					return len(orients[i][wp]) > 0
				}
				added := 0
				for cycle3 := 0; cycle3 < maxO; cycle3++ {
					attempts++
					wp := chooseWyckoffMol(g.OrbitsUpTo(scaled[i]-added), orients[i], rng)
					if wp == nil {
						continue
					}
					point := lat.RandomPoint()
					_, mwp, gen, okMerge := mergeFiltered(wp.Expand(point), cell, g, mtol, allowed)
					if !okMerge {
						continue
					}
					os := orients[i][mwp]
					ms := &MolSite{
						Mol:      mol,
						Position: Fold(gen, g.PBC),
						Rotation: os[rng.Intn(len(os))].Sample(rng),
						Wyckoff:  mwp,
						Cell:     cell,
						PBC:      g.PBC,
						Radius:   radii[i],
					}
					okSelf, err := ms.selfCheck(cfg.CheckAtomic, conf.Tol)
					if err != nil {
						return nil, err
					}
					if !okSelf {
						// When the centers are farther apart than the
						// shortest box edge, the collision may be
						// orientational; resample orientations before
						// giving up on the center.
						centers := ms.Centers()
						dm := DistanceMatrix(centers, centers, cell, g.PBC)
						screened := false
						for a := range centers {
							for b := range centers {
								if a != b && dm.At(a, b) < boxes[i].MinL {
									screened = true
								}
							}
						}
						if screened {
							continue
						}
						for cycle4 := 0; cycle4 < maxO4; cycle4++ {
							ms.Rotation = os[rng.Intn(len(os))].Sample(rng)
							if okSelf, err = ms.selfCheck(cfg.CheckAtomic, conf.Tol); err != nil {
								return nil, err
							} else if okSelf {
								break
							}
						}
						if !okSelf {
							continue
						}
					}
					okCross := true
					for _, prev := range msites {
						okCross, err = ms.crossCheck(prev, cfg.CheckAtomic, conf.Tol)
						if err != nil {
							return nil, err
						}
						if !okCross {
							break
						}
					}
					if !okCross {
						continue
					}
					atomCoords, atomSpecies, err := ms.CoordsSpecies()
					if err != nil {
						return nil, err
					}
					coords = append(coords, FoldAll(atomCoords, g.PBC)...)
					placed = append(placed, atomSpecies...)
					msites = append(msites, ms)
					sites = append(sites, Site{Wyckoff: mwp, Position: ms.Position, Species: mol.Name})
					added += mwp.Multiplicity()
					if added == scaled[i] {
						break
					}
				}
				if added != scaled[i] {
					log.Debug().Str("molecule", mol.Name).Int("cycle", cycle2).
						Msg("molecule placement failed, discarding structure attempt")
					good = false
					break
				}
			}
			if !good {
				continue structures
			}
			s := &Structure{
				Group:    g,
				Cell:     cell,
				Coords:   coords,
				Species:  placed,
				Sites:    sites,
				MolSites: msites,
				Valid:    true,
				Attempts: attempts,
				Volume:   Det(cell),
			}
			if g.Dim == 1 || g.Dim == 2 {
				padded, refolded, err := AddVacuum(cell, coords, 10.0, g.PBC)
				if err != nil {
					return nil, err
				}
				s.Cell = padded
				s.Coords = refolded
			}
			log.Info().Stringer("group", g).Int("attempts", attempts).
				Int("molecules", len(msites)).Msg("molecular structure generated")
			return s, nil
		}
	}
	return &Structure{Group: g, Valid: false, Attempts: attempts},
		fmt.Errorf("%w: %s after %d attempts", ErrMaxAttempts, g, attempts)
}

// chooseWyckoffMol applies the same 50/50 multiplicity bias as
// chooseWyckoff, restricted to orbits with valid orientations.
func chooseWyckoffMol(tiers [][]*Wyckoff, orients map[*Wyckoff][]Orientation, rng *rand.Rand) *Wyckoff {
	if rng.Float64() > 0.5 {
		for _, tier := range tiers {
			var good []*Wyckoff
			for _, wp := range tier {
				if len(orients[wp]) > 0 {
					good = append(good, wp)
				}
			}
			if len(good) > 0 {
				return good[rng.Intn(len(good))]
			}
		}
		return nil
	}
	var pool []*Wyckoff
	for _, tier := range tiers {
		for _, wp := range tier {
			if len(orients[wp]) > 0 {
				pool = append(pool, wp)
			}
		}
	}
	if len(pool) == 0 {
		return nil
	}
	return pool[rng.Intn(len(pool))]
}
