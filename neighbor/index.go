// Package neighbor implements spec.md §4.3: an immutable spatial index
// over a domain supporting k-nearest / metric-ball queries that honor a
// per-call availability mask. It follows the teacher's neighbors.go idiom
// of prefiltering candidates with a bounding-box query before a final
// linear distance filter (there implemented with github.com/ctessum/geom's
// 2-D rtree over *Cell; generalized here to n dimensions with a uniform
// grid bucket index, since this engine's domains are not limited to two
// dimensions the way InMAP's variable grid is — see DESIGN.md).
package neighbor

import (
	"math"
	"sort"

	"github.com/gostoch/fieldsim/geom"
)

// MetricBall restricts a search to points within radius of the query
// point, optionally rescaling each axis by an anisotropy ratio before
// computing distance (an axis with ratio 1 is isotropic).
type MetricBall struct {
	Radius     float64
	Anisotropy []float64 // per-axis scale; nil means isotropic
}

func (b *MetricBall) dist(p, q geom.Point) float64 {
	if b == nil || b.Anisotropy == nil {
		return p.Sub(q).Norm()
	}
	var sum float64
	for i := range p {
		d := (p[i] - q[i]) / b.Anisotropy[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Index is an immutable spatial index over a domain's centroids.
type Index struct {
	points []geom.Point
	// bucket maps a coarse grid cell key to the point indices it holds.
	bucket   map[[3]int][]int
	cellSize float64
	dims     int
}

// New builds an index over domain's centroids. The bucket size is the
// domain's bounding-box extent divided by cbrt(n+1), so that for a roughly
// uniform three-dimensional point density each bucket holds O(1) points
// (lower-dimensional domains put more points in each bucket).
func New(domain geom.Domain) *Index {
	n := domain.Len()
	points := make([]geom.Point, n)
	for i := range points {
		points[i] = domain.Centroid(i)
	}
	dims := 1
	if n > 0 {
		dims = len(points[0])
	}
	extent := domain.Bounds().Extent()
	if extent <= 0 {
		extent = 1
	}
	cellSize := extent / math.Cbrt(float64(n)+1)
	if cellSize <= 0 {
		cellSize = extent
	}
	idx := &Index{points: points, bucket: make(map[[3]int][]int), cellSize: cellSize, dims: dims}
	for i, p := range points {
		idx.bucket[idx.key(p)] = append(idx.bucket[idx.key(p)], i)
	}
	return idx
}

// key maps a point to its bucket coordinates, using up to the first three
// dimensions (sufficient for every domain this engine simulates over;
// higher dimensions collapse into the third bucket axis, which only
// degrades prefilter selectivity, never correctness, since the final
// distance filter is exact).
func (idx *Index) key(p geom.Point) [3]int {
	var k [3]int
	for d := 0; d < 3 && d < len(p); d++ {
		k[d] = int(math.Floor(p[d] / idx.cellSize))
	}
	return k
}

type candidate struct {
	index int
	dist  float64
}

// Search returns up to k indices of unmasked points nearest to point,
// ordered by ascending distance (ties broken by ascending index), honoring
// an optional metric-ball radius restriction. mask[i] == false means point
// i is unavailable (already excluded or not yet simulated).
func (idx *Index) Search(point geom.Point, k int, mask []bool, ball *MetricBall) []int {
	if k <= 0 {
		return nil
	}
	center := idx.key(point)
	satisfiedAt := -1
	for ring := 0; ring <= 64; ring++ {
		cands := idx.collect(center, ring)
		if satisfiedAt >= 0 && ring >= satisfiedAt+1 {
			return idx.finalize(point, cands, k, mask, ball)
		}
		out := idx.finalize(point, cands, k, mask, ball)
		if len(cands) >= len(idx.points) {
			return out
		}
		if len(out) >= k && satisfiedAt < 0 {
			// One extra ring beyond first-satisfying, since the bucket
			// grid is a heuristic prefilter: a closer point can sit just
			// outside the current ring but within true distance.
			satisfiedAt = ring
		}
	}
	return idx.finalize(point, idx.collect(center, 64), k, mask, ball)
}

func (idx *Index) collect(center [3]int, ring int) []int {
	var out []int
	for dx := -ring; dx <= ring; dx++ {
		for dy := -ring; dy <= ring; dy++ {
			for dz := -ring; dz <= ring; dz++ {
				key := [3]int{center[0] + dx, center[1] + dy, center[2] + dz}
				out = append(out, idx.bucket[key]...)
			}
		}
	}
	return out
}

func (idx *Index) finalize(point geom.Point, cands []int, k int, mask []bool, ball *MetricBall) []int {
	seen := make(map[int]bool, len(cands))
	list := make([]candidate, 0, len(cands))
	for _, i := range cands {
		if seen[i] {
			continue
		}
		seen[i] = true
		if mask != nil && i < len(mask) && !mask[i] {
			continue
		}
		d := ball.dist(point, idx.points[i])
		if ball != nil && d > ball.Radius {
			continue
		}
		list = append(list, candidate{index: i, dist: d})
	}
	sort.Slice(list, func(a, b int) bool {
		if list[a].dist != list[b].dist {
			return list[a].dist < list[b].dist
		}
		return list[a].index < list[b].index
	})
	if len(list) > k {
		list = list[:k]
	}
	out := make([]int, len(list))
	for i, c := range list {
		out[i] = c.index
	}
	return out
}
