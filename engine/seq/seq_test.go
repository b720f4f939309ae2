package seq

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/gostoch/fieldsim/bind"
	"github.com/gostoch/fieldsim/core"
	"github.com/gostoch/fieldsim/geom"
	"github.com/gostoch/fieldsim/geostat"
	"github.com/gostoch/fieldsim/rng"
	"github.com/gostoch/fieldsim/table"
)

func TestGaussianReproducesConditioningData(t *testing.T) {
	domain := geom.NewGrid([]int{8}, nil, nil)
	proc := &core.GaussianProcess{Func: geostat.SphericalCovariance(4, 1), Mean: []float64{0}}
	dataDomain := &geom.PointSet{Points: []geom.Point{{2.5}}}
	data := table.NewAttrTable(dataDomain, "value")
	data.Vars["value"][0] = 7
	data.Mask["value"][0] = true

	m := Method{Path: RasterPath, MinNeigh: 1, MaxNeigh: 4}
	art, err := m.Preprocess(rng.NewSource(1), proc, bind.NearestInit{}, domain, data)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	out, err := m.Single(rng.NewSource(2).Child(0), proc, domain, data, art)
	if err != nil {
		t.Fatalf("Single: %v", err)
	}
	if out.Vars["value"][2] != 7 || !out.Mask["value"][2] {
		t.Errorf("conditioned cell = %v (mask=%v), want 7 (mask=true)", out.Vars["value"][2], out.Mask["value"][2])
	}
}

func TestGaussianFillsEveryCell(t *testing.T) {
	domain := geom.NewGrid([]int{10}, nil, nil)
	proc := &core.GaussianProcess{Func: geostat.ExponentialCovariance(3, 2), Mean: []float64{5}}
	m := Method{Path: RandomPath, MinNeigh: 1, MaxNeigh: 6}
	art, err := m.Preprocess(rng.NewSource(1), proc, bind.NearestInit{}, domain, nil)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	out, err := m.Single(rng.NewSource(2).Child(0), proc, domain, nil, art)
	if err != nil {
		t.Fatalf("Single: %v", err)
	}
	if len(out.Vars["value"]) != domain.Len() {
		t.Fatalf("output length = %d, want %d", len(out.Vars["value"]), domain.Len())
	}
	for i, v := range out.Vars["value"] {
		if v == 0 {
			t.Errorf("cell %d left at zero-value default (not drawn?)", i)
		}
	}
}

func TestIndicatorOutputsValidCategories(t *testing.T) {
	domain := geom.NewGrid([]int{5}, nil, nil)
	// One variate per category: each category is kriged on its own variate.
	f := geostat.MultivariateSill(geostat.SphericalCovariance(2, 1), mat.NewSymDense(2, []float64{1, 0, 0, 1}))
	proc := &core.IndicatorProcess{Func: f, Prob: []float64{0.3, 0.7}}
	m := Method{Path: RasterPath, MinNeigh: 1, MaxNeigh: 4}
	art, err := m.Preprocess(rng.NewSource(1), proc, bind.NearestInit{}, domain, nil)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	out, err := m.Single(rng.NewSource(2).Child(0), proc, domain, nil, art)
	if err != nil {
		t.Fatalf("Single: %v", err)
	}
	for i, v := range out.Vars["category"] {
		if v != 1 && v != 2 {
			t.Errorf("cell %d category = %v, want 1 or 2", i, v)
		}
	}
}
