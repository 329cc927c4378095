package xtal

import "math"

// shortPairs finds index pairs closer together than tol under the
// periodic metric. Only the group of pairs within 1e-3 of the minimal
// pair distance is kept, so one merge step collapses the tightest
// cluster first. Returns the pairs and the adjacency list they induce.
func shortPairs(coords []Vec, cell Mat3, tol float64, pbc [3]bool) ([][2]int, [][]int) {
	graph := make([][]int, len(coords))
	var pairs [][2]int
	var dists []float64
	dm := DistanceMatrix(coords, coords, cell, pbc)
	for i := range coords {
		for j := i + 1; j < len(coords); j++ {
			if d := dm.At(i, j); d <= tol {
				pairs = append(pairs, [2]int{i, j})
				dists = append(dists, d)
			}
		}
	}
	if len(pairs) == 0 {
		return nil, graph
	}
	dmin := math.Inf(1)
	for _, d := range dists {
		if d < dmin {
			dmin = d
		}
	}
	var kept [][2]int
	for k, p := range pairs {
		if dists[k] <= dmin+1e-3 {
			kept = append(kept, p)
			graph[p[0]] = append(graph[p[0]], p[1])
			graph[p[1]] = append(graph[p[1]], p[0])
		}
	}
	return kept, graph
}

// components returns the connected components of an adjacency list,
// found by breadth-first traversal.
func components(graph [][]int) [][]int {
	seen := make([]bool, len(graph))
	var comps [][]int
	for start := range graph {
		if seen[start] {
			continue
		}
		seen[start] = true
		comp := []int{start}
		queue := []int{start}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			for _, w := range graph[v] {
				if !seen[w] {
					seen[w] = true
					comp = append(comp, w)
					queue = append(queue, w)
				}
			}
		}
		comps = append(comps, comp)
	}
	return comps
}

// periodicCenter finds the geometric center of a point cluster under
// periodic boundary conditions: each point is shifted to the lattice
// image nearest the points placed before it, then the shifted points
// are averaged.
func periodicCenter(points []Vec, cell Mat3, pbc [3]bool) Vec {
	images := imageCells(pbc)
	xyzs := make([]Vec, len(points))
	for i, p := range points {
		for k := 0; k < 3; k++ {
			xyzs[i][k] = p[k] - math.Round(p[k])
		}
	}
	for i := 1; i < len(xyzs); i++ {
		best := 10.0
		var shift Vec
		for j := 0; j < i; j++ {
			for _, m := range images {
				d := FracToCart(Vec{
					xyzs[i][0] - xyzs[j][0] + m[0],
					xyzs[i][1] - xyzs[j][1] + m[1],
					xyzs[i][2] - xyzs[j][2] + m[2],
				}, cell)
				if l := norm(d); l < best {
					best = l
					shift = m
				}
			}
		}
		for k := 0; k < 3; k++ {
			xyzs[i][k] += shift[k]
		}
	}
	var center Vec
	for _, p := range xyzs {
		for k := 0; k < 3; k++ {
			center[k] += p[k] / float64(len(xyzs))
		}
	}
	return center
}

// Merge collapses coordinates that sit closer together than tol into
// the geometric centers of their clusters, then re-identifies the
// resulting point set as a Wyckoff orbit of g. The loop repeats until
// no pair is too close. On success it returns the merged coordinates,
// the matched orbit, and a generating point. It fails when the merged
// set matches no orbit or the set is already at the smallest possible
// multiplicity and still too dense; the caller treats that as a retry
// signal.
func Merge(coords []Vec, cell Mat3, g *Group, tol float64) ([]Vec, *Wyckoff, Vec, bool) {
	return mergeFiltered(coords, cell, g, tol, nil)
}

// mergeFiltered is Merge restricted to orbits accepted by allowed. A
// nil predicate accepts every orbit. The molecular search uses the
// predicate to reject merges onto orbits without valid orientations.
func mergeFiltered(coords []Vec, cell Mat3, g *Group, tol float64, allowed func(*Wyckoff) bool) ([]Vec, *Wyckoff, Vec, bool) {
	match := func(points []Vec) (*Wyckoff, Vec, bool) {
		wp, p, ok := g.MatchWyckoff(points)
		if ok && allowed != nil && !allowed(wp) {
			return nil, Vec{}, false
		}
		return wp, p, ok
	}
	smallest := g.Wyckoffs[len(g.Wyckoffs)-1].Multiplicity()
	for {
		pairs, graph := shortPairs(coords, cell, tol, g.PBC)
		if len(pairs) == 0 {
			wp, point, ok := match(coords)
			if !ok {
				return coords, nil, Vec{}, false
			}
			return coords, wp, point, true
		}
		if len(coords) <= smallest {
			return coords, nil, Vec{}, false
		}
		var merged []Vec
		for _, comp := range components(graph) {
			cluster := make([]Vec, len(comp))
			for k, idx := range comp {
				cluster[k] = coords[idx]
			}
			merged = append(merged, periodicCenter(cluster, cell, g.PBC))
		}
		if _, _, ok := match(merged); !ok {
			return coords, nil, Vec{}, false
		}
		coords = merged
	}
}
