package seq

import (
	"math"
	"sort"

	"github.com/gostoch/fieldsim/geom"
	"github.com/gostoch/fieldsim/rng"
	"github.com/gostoch/fieldsim/table"
)

// PathKind selects the traversal order a sequential simulation visits cells
// in (spec.md §4.5).
type PathKind int

const (
	// RasterPath visits cells in domain index order.
	RasterPath PathKind = iota
	// RandomPath visits cells in a PRNG-shuffled order.
	RandomPath
	// DilationPath visits cells in an expanding-dilation order starting
	// from the lowest index (a coarse-then-fine traversal).
	DilationPath
	// SourcePath orders cells by increasing distance to the nearest datum,
	// used automatically in place of RasterPath when conditioning data is
	// present.
	SourcePath
)

// Path returns the traversal order for domain, given a child PRNG stream
// (consumed only by RandomPath) and, for SourcePath, the binding mask of
// conditioning data.
func Path(kind PathKind, domain geom.Domain, src *rng.Source, bound *table.AttrTable) []int {
	n := domain.Len()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	switch kind {
	case RasterPath:
		return order
	case RandomPath:
		r := src.Rand()
		r.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		return order
	case DilationPath:
		return dilationOrder(n)
	case SourcePath:
		return sourceOrder(domain, bound, order)
	default:
		return order
	}
}

// dilationOrder visits indices at successively halved strides (n, n/2,
// n/4, ..., 1), a coarse-to-fine dilation traversal independent of any PRNG state so that
// it is a pure function of the domain alone (spec §4.5: "path is a pure
// function of the domain and options").
func dilationOrder(n int) []int {
	visited := make([]bool, n)
	var order []int
	for stride := n; stride >= 1; stride /= 2 {
		for i := 0; i < n; i += stride {
			if !visited[i] {
				visited[i] = true
				order = append(order, i)
			}
		}
		if stride == 1 {
			break
		}
	}
	return order
}

// sourceOrder orders domain indices by increasing distance to the nearest
// conditioning datum recorded in bound's mask.
func sourceOrder(domain geom.Domain, bound *table.AttrTable, order []int) []int {
	var data []geom.Point
	if bound != nil {
		for _, mask := range bound.Mask {
			for i, known := range mask {
				if known {
					data = append(data, domain.Centroid(i))
				}
			}
			break
		}
	}
	if len(data) == 0 {
		return order
	}
	distByIdx := make([]float64, domain.Len())
	for _, idx := range order {
		c := domain.Centroid(idx)
		min := math.Inf(1)
		for _, d := range data {
			if dd := c.Sub(d).Norm(); dd < min {
				min = dd
			}
		}
		distByIdx[idx] = min
	}
	sort.SliceStable(order, func(a, b int) bool {
		da, db := distByIdx[order[a]], distByIdx[order[b]]
		if da != db {
			return da < db
		}
		return order[a] < order[b]
	})
	return order
}
