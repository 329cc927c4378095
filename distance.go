package xtal

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// imageCells lists the lattice translations needed for minimum-image
// searches: -1, 0, +1 along each periodic axis and 0 along the rest,
// so 27 images for a 3D cell down to 1 for a cluster.
func imageCells(pbc [3]bool) []Vec {
	ranges := [3][]float64{}
	for i, p := range pbc {
		if p {
			ranges[i] = []float64{-1, 0, 1}
		} else {
			ranges[i] = []float64{0}
		}
	}
	var out []Vec
	for _, a := range ranges[0] {
		for _, b := range ranges[1] {
			for _, c := range ranges[2] {
				out = append(out, Vec{a, b, c})
			}
		}
	}
	return out
}

// Fold maps fractional coordinates into [0,1) along the periodic axes
// and leaves the rest untouched.
func Fold(p Vec, pbc [3]bool) Vec {
	for i := range p {
		if pbc[i] {
			p[i] -= math.Floor(p[i])
		}
	}
	return p
}

// FoldAll folds a whole coordinate set in place and returns it.
func FoldAll(ps []Vec, pbc [3]bool) []Vec {
	for i := range ps {
		ps[i] = Fold(ps[i], pbc)
	}
	return ps
}

// foldDisp maps a fractional displacement into [-0.5,0.5) along the
// periodic axes, the nearest-image form used when comparing points.
func foldDisp(d Vec, pbc [3]bool) Vec {
	for i := range d {
		if pbc[i] {
			d[i] -= math.Round(d[i])
		}
	}
	return d
}

// FracToCart converts a fractional coordinate to Cartesian for a cell
// whose rows are the lattice vectors.
func FracToCart(p Vec, cell Mat3) Vec {
	var out Vec
	for j := 0; j < 3; j++ {
		out[j] = p[0]*cell[0][j] + p[1]*cell[1][j] + p[2]*cell[2][j]
	}
	return out
}

func norm(v Vec) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Distance returns the minimum-image length of the fractional
// displacement diff in the metric of cell, scanning the image
// translations allowed by pbc.
func Distance(diff Vec, cell Mat3, pbc [3]bool) float64 {
	diff = foldDisp(diff, pbc)
	best := math.Inf(1)
	for _, m := range imageCells(pbc) {
		d := FracToCart(Vec{diff[0] + m[0], diff[1] + m[1], diff[2] + m[2]}, cell)
		if l := norm(d); l < best {
			best = l
		}
	}
	return best
}

// DistanceMatrix returns the len(p1) x len(p2) matrix of minimum-image
// distances between two fractional coordinate sets.
func DistanceMatrix(p1, p2 []Vec, cell Mat3, pbc [3]bool) *mat.Dense {
	images := imageCells(pbc)
	out := mat.NewDense(len(p1), len(p2), nil)
	for i, a := range p1 {
		for j, b := range p2 {
			diff := foldDisp(Vec{a[0] - b[0], a[1] - b[1], a[2] - b[2]}, pbc)
			best := math.Inf(1)
			for _, m := range images {
				d := FracToCart(Vec{diff[0] + m[0], diff[1] + m[1], diff[2] + m[2]}, cell)
				if l := norm(d); l < best {
					best = l
				}
			}
			out.Set(i, j, best)
		}
	}
	return out
}

// distMatrixEuclidean returns plain Euclidean distances between two
// displacement sets after nearest-image folding, used when matching
// points against orbit images where the metric does not matter.
func distMatrixEuclidean(p1, p2 []Vec, pbc [3]bool) *mat.Dense {
	out := mat.NewDense(len(p1), len(p2), nil)
	for i, a := range p1 {
		for j, b := range p2 {
			d := foldDisp(Vec{a[0] - b[0], a[1] - b[1], a[2] - b[2]}, pbc)
			out.Set(i, j, norm(d))
		}
	}
	return out
}

// CheckDistance reports whether every cross pair between coordinate
// sets c1 (species sp1) and c2 (species sp2) satisfies the tolerance
// matrix under the periodic metric of cell. Coordinates within one set
// are never checked against each other. Empty sets pass trivially.
func CheckDistance(c1, c2 []Vec, sp1, sp2 []string, cell Mat3, pbc [3]bool, tm *TolMatrix) (bool, error) {
	if len(c1) == 0 || len(c2) == 0 {
		return true, nil
	}
	dm := DistanceMatrix(c1, c2, cell, pbc)
	for i := range c1 {
		for j := range c2 {
			tol, err := tm.Get(sp1[i], sp2[j])
			if err != nil {
				return false, err
			}
			if dm.At(i, j) < tol {
				return false, nil
			}
		}
	}
	return true, nil
}
