// Package scale implements the numerics-utilities component of spec.md
// §4.7: deriving a unit-extent scaling factor alpha and applying it to a
// domain, conditioning data, and a geospatial function so that dense
// covariance algebra stays numerically well conditioned regardless of the
// domain's absolute coordinate magnitudes.
package scale

import (
	"github.com/gostoch/fieldsim/geom"
	"github.com/gostoch/fieldsim/geostat"
)

// Factor computes alpha = 1 / max(extent(domain), extent(data), range(func)).
// A zero or degenerate extent is ignored so that, e.g., a single-point
// conditioning dataset does not divide the factor by zero.
func Factor(domain geom.Domain, data geom.Domain, f geostat.Func) float64 {
	max := f.Range()
	if e := domain.Bounds().Extent(); e > max {
		max = e
	}
	if data != nil && data.Len() > 0 {
		if e := data.Bounds().Extent(); e > max {
			max = e
		}
	}
	if max <= 0 {
		return 1
	}
	return 1 / max
}

// Grid returns a copy of g with coordinates scaled by alpha.
func Grid(g *geom.Grid, alpha float64) *geom.Grid {
	origin := make(geom.Point, len(g.Origin))
	step := make(geom.Point, len(g.Step))
	for i := range origin {
		origin[i] = g.Origin[i] * alpha
		step[i] = g.Step[i] * alpha
	}
	return &geom.Grid{Shape: g.Shape, Origin: origin, Step: step}
}

// Points returns a copy of pts scaled by alpha.
func Points(pts []geom.Point, alpha float64) []geom.Point {
	out := make([]geom.Point, len(pts))
	for i, p := range pts {
		q := make(geom.Point, len(p))
		for d := range p {
			q[d] = p[d] * alpha
		}
		out[i] = q
	}
	return out
}

// Domain scales any Domain's centroids by alpha, returning a geom.PointSet
// (sufficient for the scaled working representation used only for
// covariance evaluation, never returned to the caller).
func Domain(d geom.Domain, alpha float64) *geom.PointSet {
	pts := make([]geom.Point, d.Len())
	for i := range pts {
		c := d.Centroid(i)
		q := make(geom.Point, len(c))
		for k := range c {
			q[k] = c[k] * alpha
		}
		pts[i] = q
	}
	return &geom.PointSet{Points: pts}
}

// Func returns f scaled by alpha (range scaled, sill unchanged since it is a
// covariance magnitude, not a distance).
func Func(f geostat.Func, alpha float64) geostat.Func {
	return f.Scale(alpha)
}
