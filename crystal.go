package xtal

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/rs/zerolog"
)

// Default attempt budgets for the three retry levels. All three shrink
// to 5 when no Wyckoff orbit carries positional freedom, since
// resampling fixed positions cannot produce new structures.
const (
	DefaultLatticeAttempts   = 30
	DefaultStructureAttempts = 30
	DefaultOrbitAttempts     = 30
	frozenAttempts           = 5
)

// Config collects the optional knobs for Generate. The zero value is
// usable: volume is estimated, tolerances default to the atomic
// prototype, and attempt budgets default to 30 per level.
type Config struct {
	// Factor scales the estimated cell volume. Default 1.0.
	Factor float64
	// Volume, when positive, overrides the volume estimate.
	Volume float64
	// Lattice, when set, is used as-is instead of sampling one.
	Lattice *Lattice
	// Tol is the distance tolerance matrix. Default atomic prototype.
	Tol *TolMatrix

	Thickness float64 // 2D cell thickness (0 = random)
	Area      float64 // 1D cross-section area (0 = random)

	LatticeAttempts   int
	StructureAttempts int
	OrbitAttempts     int

	RNG    *rand.Rand
	Logger zerolog.Logger
}

func (c Config) withDefaults() (Config, error) {
	if c.Factor == 0 {
		c.Factor = 1.0
	}
	if c.Tol == nil {
		tm, err := NewTolMatrix(Atomic, 1.0)
		if err != nil {
			return c, err
		}
		c.Tol = tm
	}
	if c.LatticeAttempts == 0 {
		c.LatticeAttempts = DefaultLatticeAttempts
	}
	if c.StructureAttempts == 0 {
		c.StructureAttempts = DefaultStructureAttempts
	}
	if c.OrbitAttempts == 0 {
		c.OrbitAttempts = DefaultOrbitAttempts
	}
	if c.RNG == nil {
		c.RNG = rand.New(rand.NewSource(rand.Int63()))
	}
	return c, nil
}

// Site records one placed Wyckoff orbit: which orbit, the generating
// point, and the species occupying it.
type Site struct {
	Wyckoff  *Wyckoff
	Position Vec
	Species  string
}

func (s Site) String() string {
	return fmt.Sprintf("%s: [%.4f %.4f %.4f] %s, site symmetry %s",
		s.Species, s.Position[0], s.Position[1], s.Position[2],
		s.Wyckoff.Label(), strings.Join(s.Wyckoff.SiteSymmetry(), "; "))
}

// Structure is a generated crystal or cluster. Coords are fractional
// for periodic structures and absolute Cartesian for clusters. For 1D
// and 2D structures the cell carries 10 Angstroms of vacuum along the
// non-periodic axes.
type Structure struct {
	Group   *Group
	Cell    Mat3
	Coords  []Vec
	Species []string
	Sites   []Site

	// MolSites is set by GenerateMolecular and lists the placed
	// molecular orbits with their orientations.
	MolSites []*MolSite

	Valid bool
	// Attempts counts orbit-level placement attempts across the
	// whole search.
	Attempts int
	Volume   float64
}

// EstimateVolume predicts a unit cell volume from sphere packing: each
// atom occupies a sphere whose radius is drawn uniformly between its
// covalent and van der Waals radii, and the total is scaled by factor.
func EstimateVolume(species []string, counts []int, factor float64, rng *rand.Rand) (float64, error) {
	var volume float64
	for i, s := range species {
		e, err := LookupElement(s)
		if err != nil {
			return 0, err
		}
		r := e.Covalent + rng.Float64()*(e.Vdw-e.Covalent)
		volume += float64(counts[i]) * 4.0 / 3.0 * math.Pi * r * r * r
	}
	return factor * volume, nil
}

// checkCompatible reports whether counts can be partitioned into the
// group's orbit multiplicities, and whether any usable partition
// involves an orbit with positional freedom. Orbits without freedom
// pin their points to fixed coordinates, so each can be used at most
// once across the structure.
func checkCompatible(g *Group, counts []int) (ok, hasFreedom bool) {
	smallest := g.Wyckoffs[len(g.Wyckoffs)-1]
	removed := make(map[*Wyckoff]bool)
	for _, n := range counts {
		if n%smallest.Multiplicity() != 0 {
			return false, false
		}
		if smallest.HasFreedom() {
			hasFreedom = true
			continue
		}
		remaining := n
		for _, tier := range g.tiers {
			for _, wp := range tier {
				for remaining >= wp.Multiplicity() && !removed[wp] {
					remaining -= wp.Multiplicity()
					if !wp.HasFreedom() {
						removed[wp] = true
					} else {
						hasFreedom = true
					}
				}
			}
		}
		if remaining != 0 {
			return false, false
		}
	}
	return true, hasFreedom
}

// chooseWyckoff picks an orbit from the admissible multiplicity tiers.
// Half the time it picks only from the largest admissible tier, which
// biases structures toward high-multiplicity general positions; the
// other half it pools every admissible orbit.
func chooseWyckoff(tiers [][]*Wyckoff, rng *rand.Rand) *Wyckoff {
	if len(tiers) == 0 {
		return nil
	}
	if rng.Float64() > 0.5 {
		tier := tiers[0]
		return tier[rng.Intn(len(tier))]
	}
	var pool []*Wyckoff
	for _, tier := range tiers {
		pool = append(pool, tier...)
	}
	return pool[rng.Intn(len(pool))]
}

// verifyDistances is the final pairwise check applied to clusters:
// every atom pair must be separated by at least the scaled sum of
// covalent radii.
func verifyDistances(coords []Vec, species []string, cell Mat3, factor float64, pbc [3]bool) (bool, error) {
	for i := range coords {
		e1, err := LookupElement(species[i])
		if err != nil {
			return false, err
		}
		for j := i + 1; j < len(coords); j++ {
			e2, err := LookupElement(species[j])
			if err != nil {
				return false, err
			}
			d := Distance(sub(coords[j], coords[i]), cell, pbc)
			if d < factor*0.5*(e1.Covalent+e2.Covalent) {
				return false, nil
			}
		}
	}
	return true, nil
}

// Generate searches for a random structure in group g with the given
// composition. counts are per primitive cell and are scaled to the
// conventional cell by the group's centering.
//
// The search runs three nested retry levels: sample a lattice, then
// try whole structures in it, each built by repeatedly choosing a
// Wyckoff orbit, placing a random point, merging too-close orbit
// images, and distance-checking against everything already placed. A
// failed species placement discards the whole structure attempt.
//
// An impossible composition fails immediately with ErrIncompatible.
// An exhausted search returns a non-nil invalid Structure carrying the
// attempt count alongside ErrMaxAttempts.
func Generate(g *Group, species []string, counts []int, cfg Config) (*Structure, error) {
	if len(species) != len(counts) || len(species) == 0 {
		return nil, fmt.Errorf("%w: %d species for %d counts",
			ErrIncompatible, len(species), len(counts))
	}
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	log := cfg.Logger

	minvec := 1.0
	for i, s := range species {
		if counts[i] <= 0 {
			return nil, fmt.Errorf("%w: count %d for %s", ErrIncompatible, counts[i], s)
		}
		e, err := LookupElement(s)
		if err != nil {
			return nil, err
		}
		if 2*e.Covalent > minvec {
			minvec = 2 * e.Covalent
		}
	}

	scaled := make([]int, len(counts))
	for i, n := range counts {
		scaled[i] = n * g.CellFactor()
	}

	ok, hasFreedom := checkCompatible(g, scaled)
	if !ok {
		return nil, fmt.Errorf("%w: %v in %s", ErrIncompatible, scaled, g)
	}
	maxL, maxS, maxO := cfg.LatticeAttempts, cfg.StructureAttempts, cfg.OrbitAttempts
	if !hasFreedom {
		maxL, maxS, maxO = frozenAttempts, frozenAttempts, frozenAttempts
		log.Debug().Msg("no orbit has freedom, shrinking attempt budgets")
	}

	volume := cfg.Volume
	if volume <= 0 {
		volume, err = EstimateVolume(species, counts, cfg.Factor, cfg.RNG)
		if err != nil {
			return nil, err
		}
		volume *= float64(g.CellFactor())
	}

	lat := cfg.Lattice
	if lat == nil {
		lat, err = NewLattice(g.CellFamily(), g.Dim, volume, cfg.RNG, LatticeConfig{
			MinVec:     minvec,
			Thickness:  cfg.Thickness,
			Area:       cfg.Area,
			UniqueAxis: g.UniqueAxis(),
		})
		if err != nil {
			return nil, err
		}
	}

	attempts := 1
	for cycle1 := 0; cycle1 < maxL; cycle1++ {
		if err := lat.Reset(); err != nil {
			log.Debug().Err(err).Int("cycle", cycle1).Msg("lattice attempt failed")
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
			)
			good := true
			for i, spec := range species {
				e, _ := LookupElement(spec)
				tol := math.Max(0.5*e.Covalent, 1.0)
				added := 0
				for cycle3 := 0; cycle3 < maxO; {
					wp := chooseWyckoff(g.OrbitsUpTo(scaled[i]-added), cfg.RNG)
					if wp == nil {
						cycle3++
						attempts++
						continue
					}
					point := lat.RandomPoint()
					orbit := wp.Expand(point)
					merged, mwp, gen, okMerge := Merge(orbit, cell, g, tol)
					if !okMerge {
						cycle3++
						attempts++
						continue
					}
					merged = FoldAll(merged, g.PBC)
					sp := make([]string, len(merged))
					for k := range sp {
						sp[k] = spec
					}
					okDist, err := CheckDistance(coords, merged, placed, sp, cell, g.PBC, cfg.Tol)
					if err != nil {
						return nil, err
					}
					if !okDist {
						cycle3++
						attempts++
						continue
					}
					coords = append(coords, merged...)
					placed = append(placed, sp...)
					sites = append(sites, Site{Wyckoff: mwp, Position: gen, Species: spec})
					added += len(merged)
					if added == scaled[i] {
						break
					}
				}
				if added != scaled[i] {
					log.Debug().Str("species", spec).Int("cycle", cycle2).
						Msg("species placement failed, discarding structure attempt")
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
				Valid:    true,
				Attempts: attempts,
				Volume:   Det(cell),
			}
			switch g.Dim {
			case 0:
				okVerify, err := verifyDistances(coords, placed, cell, 1.0, g.PBC)
				if err != nil {
					return nil, err
				}
				if !okVerify {
					continue structures
				}
				for k, p := range s.Coords {
					s.Coords[k] = FracToCart(p, cell)
				}
			case 1, 2:
				padded, refolded, err := AddVacuum(cell, coords, 10.0, g.PBC)
				if err != nil {
					return nil, err
				}
				s.Cell = padded
				s.Coords = refolded
			}
			log.Info().Stringer("group", g).Int("attempts", attempts).
				Int("atoms", len(s.Coords)).Msg("structure generated")
			return s, nil
		}
	}
	log.Debug().Int("attempts", attempts).Msg("search exhausted")
	return &Structure{Group: g, Valid: false, Attempts: attempts},
		fmt.Errorf("%w: %s after %d attempts", ErrMaxAttempts, g, attempts)
}
