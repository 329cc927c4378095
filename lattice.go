package xtal

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// CellType names the lattice family a cell is sampled from. Spherical
// and Cylindrical are the cluster pseudo-cells: points drawn inside
// them are confined to a sphere or a z-axis cylinder rather than a
// parallelepiped.
type CellType int

const (
	Triclinic CellType = iota
	Monoclinic
	Orthorhombic
	Tetragonal
	Hexagonal
	Cubic
	Spherical
	Cylindrical
)

func (t CellType) String() string {
	switch t {
	case Triclinic:
		return "triclinic"
	case Monoclinic:
		return "monoclinic"
	case Orthorhombic:
		return "orthorhombic"
	case Tetragonal:
		return "tetragonal"
	case Hexagonal:
		return "hexagonal"
	case Cubic:
		return "cubic"
	case Spherical:
		return "spherical"
	case Cylindrical:
		return "cylindrical"
	}
	return fmt.Sprintf("CellType(%d)", int(t))
}

// LatticeConfig carries the acceptance constraints and per-dimension
// extras for lattice sampling. Zero values select the defaults noted
// on each field.
type LatticeConfig struct {
	MinVec   float64 // minimum lattice vector length (default 1.0)
	MinAngle float64 // minimum cell angle (default pi/6)
	MaxRatio float64 // maximum pairwise length ratio (default 10)

	// Ordered floors on the sorted cell vector lengths. MidL
	// defaults to MinL, MaxL to MidL.
	MinL, MidL, MaxL float64

	Thickness  float64 // 2D: fixed non-periodic thickness (0 = random)
	Area       float64 // 1D: fixed cross-section area (0 = random)
	UniqueAxis byte    // monoclinic unique axis, 'a', 'b', or 'c'

	Sigma       float64 // Gaussian angle width divisor (default 3)
	MaxAttempts int     // sampling attempts per Reset (default 100)
}

func (c LatticeConfig) withDefaults(dim int) LatticeConfig {
	if c.MinVec == 0 {
		c.MinVec = 1.0
	}
	if c.MinAngle == 0 {
		c.MinAngle = math.Pi / 6
	}
	if c.MaxRatio == 0 {
		c.MaxRatio = 10.0
	}
	if c.MinL == 0 {
		c.MinL = c.MinVec
	}
	if c.MidL == 0 {
		c.MidL = c.MinL
	}
	if c.MaxL == 0 {
		c.MaxL = c.MidL
	}
	if c.Sigma == 0 {
		c.Sigma = 3.0
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 100
	}
	if c.UniqueAxis == 0 {
		if dim == 1 {
			c.UniqueAxis = 'a'
		} else {
			c.UniqueAxis = 'c'
		}
	}
	return c
}

// Lattice stores a cell and can resample it. A lattice built by
// NewLattice draws a fresh matrix on every Reset; one built by
// FromPara or FromMatrix keeps its cell across Resets.
type Lattice struct {
	Type   CellType
	Dim    int
	Volume float64
	PBC    [3]bool

	A, B, C            float64
	Alpha, Beta, Gamma float64
	Matrix             Mat3

	cfg   LatticeConfig
	fixed bool
	rng   *rand.Rand
}

// NewLattice prepares a random lattice of the given family, dimension
// (0 to 3), and volume. No cell is sampled until Reset is called.
func NewLattice(t CellType, dim int, volume float64, rng *rand.Rand, cfg LatticeConfig) (*Lattice, error) {
	if dim < 0 || dim > 3 {
		return nil, fmt.Errorf("%w: dimension %d", ErrLatticeFailed, dim)
	}
	if volume <= 0 {
		return nil, fmt.Errorf("%w: volume %g", ErrLatticeFailed, volume)
	}
	if (t == Spherical || t == Cylindrical) != (dim == 0) {
		return nil, fmt.Errorf("%w: %v cell for dimension %d", ErrLatticeFailed, t, dim)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Lattice{
		Type:   t,
		Dim:    dim,
		Volume: volume,
		PBC:    pbcForDim(dim),
		cfg:    cfg.withDefaults(dim),
		rng:    rng,
	}, nil
}

// FromPara builds a fixed lattice from six cell parameters (angles in
// radians). Reset keeps the cell.
func FromPara(a, b, c, alpha, beta, gamma float64, t CellType, dim int) (*Lattice, error) {
	m := ParaToMatrix(a, b, c, alpha, beta, gamma)
	return FromMatrix(m, t, dim)
}

// FromMatrix builds a fixed lattice from a cell matrix. Reset keeps
// the cell.
func FromMatrix(m Mat3, t CellType, dim int) (*Lattice, error) {
	vol := Det(m)
	if vol <= 0 || math.IsNaN(vol) {
		return nil, fmt.Errorf("%w: cell determinant %g", ErrLatticeFailed, vol)
	}
	a, b, c, alpha, beta, gamma := MatrixToPara(m)
	return &Lattice{
		Type: t, Dim: dim, Volume: vol, PBC: pbcForDim(dim),
		A: a, B: b, C: c, Alpha: alpha, Beta: beta, Gamma: gamma,
		Matrix: m, cfg: LatticeConfig{}.withDefaults(dim), fixed: true,
		rng: rand.New(rand.NewSource(rand.Int63())),
	}, nil
}

func pbcForDim(dim int) [3]bool {
	switch dim {
	case 3:
		return [3]bool{true, true, true}
	case 2:
		return [3]bool{true, true, false}
	case 1:
		return [3]bool{false, false, true}
	}
	return [3]bool{}
}

// Reset samples a fresh cell from the lattice family, retrying up to
// the configured attempt budget. Fixed lattices keep their cell.
func (l *Lattice) Reset() error {
	if l.fixed {
		return nil
	}
	for n := 0; n < l.cfg.MaxAttempts; n++ {
		para, ok := l.samplePara()
		if !ok {
			continue
		}
		l.A, l.B, l.C = para[0], para[1], para[2]
		l.Alpha, l.Beta, l.Gamma = para[3], para[4], para[5]
		l.Matrix = ParaToMatrix(para[0], para[1], para[2], para[3], para[4], para[5])
		return nil
	}
	return fmt.Errorf("%w: %v, volume %g, %d attempts",
		ErrLatticeFailed, l.Type, l.Volume, l.cfg.MaxAttempts)
}

// samplePara draws one candidate parameter set and reports whether it
// satisfies the acceptance constraints.
func (l *Lattice) samplePara() ([6]float64, bool) {
	var para [6]float64
	switch l.Dim {
	case 3:
		para = l.sample3D(l.Volume)
	case 2:
		fixedC := l.cfg.Thickness
		para = l.samplePlanar(l.Volume, fixedC)
	case 1:
		var fixedC float64
		if l.cfg.Area > 0 {
			fixedC = l.Volume / l.cfg.Area
		}
		para = l.samplePlanar(l.Volume, fixedC)
	case 0:
		return l.sample0D()
	}
	return para, l.accept(para)
}

func (l *Lattice) sample3D(volume float64) (para [6]float64) {
	halfPi := math.Pi / 2
	para[3], para[4], para[5] = halfPi, halfPi, halfPi
	switch l.Type {
	case Triclinic:
		m := l.randomShearMatrix(0.2)
		_, _, _, alpha, beta, gamma := MatrixToPara(m)
		x := angleFactor(alpha, beta, gamma)
		v := l.randomVector()
		abc := volume / x
		xyz := v[0] * v[1] * v[2]
		s := math.Cbrt(abc) / math.Cbrt(xyz)
		para = [6]float64{v[0] * s, v[1] * s, v[2] * s, alpha, beta, gamma}
	case Monoclinic:
		beta := l.gaussianAngle()
		x := math.Sin(beta)
		v := l.randomVector()
		s := math.Cbrt(volume/x) / math.Cbrt(v[0]*v[1]*v[2])
		para[0], para[1], para[2] = v[0]*s, v[1]*s, v[2]*s
		para[4] = beta
	case Orthorhombic:
		v := l.randomVector()
		s := math.Cbrt(volume) / math.Cbrt(v[0]*v[1]*v[2])
		para[0], para[1], para[2] = v[0]*s, v[1]*s, v[2]*s
	case Tetragonal:
		v := l.randomVector()
		c := v[2] / (v[0] * v[1]) * math.Cbrt(volume)
		a := math.Sqrt(volume / c)
		para[0], para[1], para[2] = a, a, c
	case Hexagonal:
		x := math.Sqrt(3) / 2
		v := l.randomVector()
		c := v[2] / (v[0] * v[1]) * math.Cbrt(volume/x)
		a := math.Sqrt((volume / x) / c)
		para[0], para[1], para[2] = a, a, c
		para[5] = 2 * math.Pi / 3
	case Cubic:
		s := math.Cbrt(volume)
		para[0], para[1], para[2] = s, s, s
	}
	return para
}

// samplePlanar draws a cell whose c vector lies along the non-periodic
// (2D) or periodic (1D) z axis. fixedC pins the c length; zero lets it
// vary randomly.
func (l *Lattice) samplePlanar(volume, fixedC float64) (para [6]float64) {
	halfPi := math.Pi / 2
	para[3], para[4], para[5] = halfPi, halfPi, halfPi
	c := fixedC
	if c == 0 {
		v := l.randomVector()
		c = math.Cbrt(volume) * v[0] / (v[0] * v[1] * v[2])
	}
	para[2] = c
	switch l.Type {
	case Triclinic:
		m := l.randomShearMatrix(0.2)
		a, b, _, alpha, beta, gamma := MatrixToPara(m)
		x := angleFactor(alpha, beta, gamma)
		c /= x
		ab := volume / (c * x)
		ratio := a / b
		para = [6]float64{math.Sqrt(ab * ratio), math.Sqrt(ab / ratio), c,
			alpha, beta, gamma}
	case Monoclinic:
		v := l.randomVector()
		angle := l.gaussianAngle()
		switch l.cfg.UniqueAxis {
		case 'a':
			para[3] = angle
		case 'b':
			para[4] = angle
		default:
			para[5] = angle
		}
		x := math.Sin(angle)
		ab := volume / (c * x)
		ratio := v[0] / v[1]
		para[0] = math.Sqrt(ab * ratio)
		para[1] = math.Sqrt(ab / ratio)
	case Orthorhombic:
		v := l.randomVector()
		ratio := math.Abs(v[0] / v[1])
		para[1] = math.Sqrt(volume / (c * ratio))
		para[0] = para[1] * ratio
	case Tetragonal:
		a := math.Sqrt(volume / c)
		para[0], para[1] = a, a
	case Hexagonal:
		x := math.Sqrt(3) / 2
		a := math.Sqrt((volume / x) / c)
		para[0], para[1] = a, a
		para[5] = 2 * math.Pi / 3
	}
	return para
}

func (l *Lattice) sample0D() ([6]float64, bool) {
	halfPi := math.Pi / 2
	if l.Type == Spherical {
		a := math.Cbrt(3 * l.Volume / (4 * math.Pi))
		if a < l.cfg.MinVec {
			return [6]float64{}, false
		}
		return [6]float64{a, a, a, halfPi, halfPi, halfPi}, true
	}
	// Cylindrical clusters ride on a tetragonal cell with the volume
	// scaled so the inscribed cylinder has the requested volume.
	save := l.Type
	l.Type = Tetragonal
	para := l.sample3D(l.Volume * 4 / math.Pi)
	l.Type = save
	return para, l.accept(para)
}

// accept applies the invariants: vector lengths within bounds and
// above the ordered floors, angles inside the allowed window, pairwise
// ratios capped.
func (l *Lattice) accept(para [6]float64) bool {
	a, b, c := para[0], para[1], para[2]
	alpha, beta, gamma := para[3], para[4], para[5]
	for _, v := range para {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	minvec, maxangle := l.cfg.MinVec, math.Pi-l.cfg.MinAngle
	maxvec := a * b * c / (minvec * minvec)
	if minvec >= maxvec {
		return false
	}
	ls := [3]float64{a, b, c}
	lmin := math.Min(ls[0], math.Min(ls[1], ls[2]))
	lmax := math.Max(ls[0], math.Max(ls[1], ls[2]))
	lmid := ls[0] + ls[1] + ls[2] - lmin - lmax
	if lmin < l.cfg.MinL || lmid < l.cfg.MidL || lmax < l.cfg.MaxL {
		return false
	}
	if lmin <= minvec || lmax >= maxvec {
		return false
	}
	for _, ang := range [3]float64{alpha, beta, gamma} {
		if ang <= l.cfg.MinAngle || ang >= maxangle {
			return false
		}
	}
	ratio := l.cfg.MaxRatio
	if a/b >= ratio || b/a >= ratio || a/c >= ratio ||
		c/a >= ratio || b/c >= ratio || c/b >= ratio {
		return false
	}
	return true
}

// RandomPoint draws a fractional coordinate inside the cell: uniform
// on periodic axes, shifted to [-0.5,0.5) on non-periodic axes (scaled
// by 1/sqrt(3) for hexagonal cells), and rejection-sampled into the
// sphere or cylinder for cluster cells.
func (l *Lattice) RandomPoint() Vec {
	var p Vec
	for i := range p {
		p[i] = l.rng.Float64()
	}
	switch l.Type {
	case Spherical:
		for p[0]*p[0]+p[1]*p[1]+p[2]*p[2] > 1 {
			for i := range p {
				p[i] = l.rng.Float64()
			}
		}
		for i := range p {
			if l.rng.Float64() < 0.5 {
				p[i] = -p[i]
			}
		}
	case Cylindrical:
		for p[0]*p[0]+p[1]*p[1] > 1 {
			for i := range p {
				p[i] = l.rng.Float64()
			}
		}
		for i := 0; i < 2; i++ {
			if l.rng.Float64() < 0.5 {
				p[i] = -p[i]
			}
		}
	default:
		for i, periodic := range l.PBC {
			if !periodic {
				if l.Type == Hexagonal {
					p[i] /= math.Sqrt(3)
				} else {
					p[i] -= 0.5
				}
			}
		}
	}
	return p
}

// randomVector draws three positive lengths with lognormal spread, the
// shape the per-axis cell lengths are derived from.
func (l *Lattice) randomVector() Vec {
	return Vec{
		math.Exp(l.rng.NormFloat64() * 0.35),
		math.Exp(l.rng.NormFloat64() * 0.35),
		math.Exp(l.rng.NormFloat64() * 0.35),
	}
}

// randomShearMatrix draws a symmetric unit-diagonal matrix whose
// off-diagonal entries are Gaussian with the given width, resampling
// the rare singular draw.
func (l *Lattice) randomShearMatrix(width float64) Mat3 {
	for {
		a := l.rng.NormFloat64() * width
		b := l.rng.NormFloat64() * width
		c := l.rng.NormFloat64() * width
		m := Mat3{{1, a, b}, {a, 1, c}, {b, c, 1}}
		if Det(m) != 0 {
			return m
		}
	}
}

// gaussianAngle draws a monoclinic angle from a Gaussian centered in
// the allowed window, with the window edges cfg.Sigma standard
// deviations from the center, rejecting draws outside the window.
func (l *Lattice) gaussianAngle() float64 {
	min, max := l.cfg.MinAngle, math.Pi-l.cfg.MinAngle
	dist := distuv.Normal{
		Mu:    (min + max) / 2,
		Sigma: (max - min) / 2 / l.cfg.Sigma,
	}
	for {
		x := dist.Rand()
		if x > min && x < max {
			return x
		}
	}
}

// angleFactor is the volume factor sqrt(1 - cos^2 a - cos^2 b -
// cos^2 g + 2 cos a cos b cos g) of a unit triclinic cell.
func angleFactor(alpha, beta, gamma float64) float64 {
	ca, cb, cg := math.Cos(alpha), math.Cos(beta), math.Cos(gamma)
	return math.Sqrt(1 - ca*ca - cb*cb - cg*cg + 2*ca*cb*cg)
}

// ParaToMatrix converts six cell parameters (radians) to a
// lower-triangular cell matrix with a along x and b in the x-y plane.
func ParaToMatrix(a, b, c, alpha, beta, gamma float64) Mat3 {
	cosA, cosB, cosG := math.Cos(alpha), math.Cos(beta), math.Cos(gamma)
	sinG := math.Sin(gamma)
	c1 := c * cosB
	c2 := c * (cosA - cosB*cosG) / sinG
	return Mat3{
		{a, 0, 0},
		{b * cosG, b * sinG, 0},
		{c1, c2, math.Sqrt(c*c - c1*c1 - c2*c2)},
	}
}

// MatrixToPara recovers the six cell parameters from a cell matrix
// whose rows are the lattice vectors.
func MatrixToPara(m Mat3) (a, b, c, alpha, beta, gamma float64) {
	a = norm(m[0])
	b = norm(m[1])
	c = norm(m[2])
	alpha = vecAngle(m[1], m[2])
	beta = vecAngle(m[0], m[2])
	gamma = vecAngle(m[0], m[1])
	return
}

func vecAngle(v1, v2 Vec) float64 {
	dot := v1[0]*v2[0] + v1[1]*v2[1] + v1[2]*v2[2]
	return math.Acos(dot / (norm(v1) * norm(v2)))
}

// Det returns the determinant of a cell matrix.
func Det(m Mat3) float64 {
	d := mat.NewDense(3, 3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})
	return mat.Det(d)
}

// AddVacuum pads a 1D or 2D cell with empty space along its
// non-periodic axes so the result can be handled as a 3D cell, and
// refolds the fractional coordinates into the padded cell.
func AddVacuum(cell Mat3, coords []Vec, vacuum float64, pbc [3]bool) (Mat3, []Vec, error) {
	abs := make([]Vec, len(coords))
	for i, p := range coords {
		abs[i] = FracToCart(p, cell)
	}
	for i, periodic := range pbc {
		if periodic {
			continue
		}
		l := norm(cell[i])
		for j := 0; j < 3; j++ {
			cell[i][j] += cell[i][j] / l * vacuum
		}
	}
	d := mat.NewDense(3, 3, []float64{
		cell[0][0], cell[0][1], cell[0][2],
		cell[1][0], cell[1][1], cell[1][2],
		cell[2][0], cell[2][1], cell[2][2],
	})
	var inv mat.Dense
	if err := inv.Inverse(d); err != nil {
		return cell, coords, fmt.Errorf("%w: singular padded cell", ErrLatticeFailed)
	}
	out := make([]Vec, len(abs))
	for i, p := range abs {
		for j := 0; j < 3; j++ {
			out[i][j] = p[0]*inv.At(0, j) + p[1]*inv.At(1, j) + p[2]*inv.At(2, j)
		}
	}
	return cell, out, nil
}
