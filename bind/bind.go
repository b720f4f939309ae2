// Package bind implements spec.md §4.2: binding a user-supplied data table
// (or a declared empty schema) onto the simulation domain, producing a
// realization buffer plus a mask of known cells.
package bind

import (
	"fmt"

	"github.com/gostoch/fieldsim/geom"
	"github.com/gostoch/fieldsim/table"
)

// Init is the data-binding strategy (spec §4.2): NearestInit or
// ExplicitInit.
type Init interface {
	Bind(domain geom.Domain, data *table.AttrTable) (*table.AttrTable, error)
}

// NearestInit binds each data row onto the nearest domain element,
// breaking ties by lowest index. Missing values (NaN) in the source are
// skipped, leaving the mask bit false.
type NearestInit struct{}

// Bind implements Init.
func (NearestInit) Bind(domain geom.Domain, data *table.AttrTable) (*table.AttrTable, error) {
	names := data.Names()
	out := table.NewAttrTable(domain, names...)
	if data.Domain == nil {
		return out, nil
	}
	n := data.Domain.Len()
	for i := 0; i < n; i++ {
		src := data.Domain.Centroid(i)
		best, bestDist := -1, 0.0
		for j := 0; j < domain.Len(); j++ {
			d := src.Sub(domain.Centroid(j)).Norm()
			if best == -1 || d < bestDist {
				best, bestDist = j, d
			}
		}
		for _, name := range names {
			vals := data.Vars[name]
			if i >= len(vals) {
				continue
			}
			v := vals[i]
			if isMissing(data, name, i) {
				continue
			}
			out.Vars[name][best] = v
			out.Mask[name][best] = true
		}
	}
	return out, nil
}

func isMissing(data *table.AttrTable, name string, i int) bool {
	if m, ok := data.Mask[name]; ok && len(m) > i {
		return !m[i]
	}
	v := data.Vars[name][i]
	return v != v // NaN check
}

// ExplicitInit copies data[source_indices[i]] -> real[dest_indices[i]]. If
// SourceIndices is nil it defaults to 0..len(data)-1. Bind fails with a
// length-mismatch error if SourceIndices and DestIndices differ in length.
type ExplicitInit struct {
	SourceIndices []int
	DestIndices   []int
}

// Bind implements Init.
func (e ExplicitInit) Bind(domain geom.Domain, data *table.AttrTable) (*table.AttrTable, error) {
	src := e.SourceIndices
	if src == nil {
		n := 0
		if data.Domain != nil {
			n = data.Domain.Len()
		}
		src = make([]int, n)
		for i := range src {
			src[i] = i
		}
	}
	if len(src) != len(e.DestIndices) {
		return nil, fmt.Errorf("bind: %w: source_indices has length %d, dest_indices has length %d",
			ErrLengthMismatch, len(src), len(e.DestIndices))
	}
	names := data.Names()
	out := table.NewAttrTable(domain, names...)
	for k, si := range src {
		di := e.DestIndices[k]
		for _, name := range names {
			vals := data.Vars[name]
			if si >= len(vals) {
				continue
			}
			if isMissing(data, name, si) {
				continue
			}
			out.Vars[name][di] = vals[si]
			out.Mask[name][di] = true
		}
	}
	return out, nil
}
