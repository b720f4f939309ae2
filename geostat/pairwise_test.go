package geostat

import (
	"testing"

	"github.com/gostoch/fieldsim/geom"
)

func TestPairwiseSymDiagonalIsSill(t *testing.T) {
	f := SphericalCovariance(10, 2)
	dom := &geom.PointSet{Points: []geom.Point{{0}, {3}, {6}}}
	m := PairwiseSym(f, dom, 0, 0)
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		if m.At(i, i) != 2 {
			t.Errorf("diagonal(%d) = %v, want sill 2", i, m.At(i, i))
		}
	}
}

func TestPairwiseSymmetric(t *testing.T) {
	f := ExponentialCovariance(5, 1)
	dom := &geom.PointSet{Points: []geom.Point{{0}, {2}, {7}}}
	m := PairwiseSym(f, dom, 0, 0)
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if m.At(i, j) != m.At(j, i) {
				t.Errorf("PairwiseSym(%d,%d)=%v != PairwiseSym(%d,%d)=%v", i, j, m.At(i, j), j, i, m.At(j, i))
			}
		}
	}
}

func TestPairwiseShape(t *testing.T) {
	f := SphericalCovariance(10, 1)
	a := &geom.PointSet{Points: []geom.Point{{0}, {1}}}
	b := &geom.PointSet{Points: []geom.Point{{0}, {1}, {2}}}
	m := Pairwise(f, a, b, 0, 0)
	r, c := m.Dims()
	if r != 2 || c != 3 {
		t.Errorf("Pairwise dims = (%d,%d), want (2,3)", r, c)
	}
}
