package table

import (
	"math"
	"testing"

	"github.com/gostoch/fieldsim/geom"
)

func realizationOf(domain geom.Domain, vals ...float64) *AttrTable {
	t := NewAttrTable(domain, "value")
	copy(t.Vars["value"], vals)
	return t
}

func TestMean(t *testing.T) {
	domain := geom.NewGrid([]int{2}, nil, nil)
	e := NewEnsemble(domain, []*AttrTable{
		realizationOf(domain, 1, 3),
		realizationOf(domain, 3, 5),
	}, nil)
	mean, err := Mean(e)
	if err != nil {
		t.Fatalf("Mean: %v", err)
	}
	if mean["value"][0] != 2 || mean["value"][1] != 4 {
		t.Errorf("Mean = %v, want [2 4]", mean["value"])
	}
}

func TestVarSampleCorrection(t *testing.T) {
	domain := geom.NewGrid([]int{1}, nil, nil)
	e := NewEnsemble(domain, []*AttrTable{
		realizationOf(domain, 2),
		realizationOf(domain, 4),
		realizationOf(domain, 6),
	}, nil)
	v, err := Var(e)
	if err != nil {
		t.Fatalf("Var: %v", err)
	}
	// mean=4, sq devs = 4,0,4, sum=8, /(n-1)=2 -> 4
	if math.Abs(v["value"][0]-4) > 1e-9 {
		t.Errorf("Var = %v, want 4", v["value"][0])
	}
}

func TestQuantileMedian(t *testing.T) {
	domain := geom.NewGrid([]int{1}, nil, nil)
	e := NewEnsemble(domain, []*AttrTable{
		realizationOf(domain, 1),
		realizationOf(domain, 2),
		realizationOf(domain, 3),
		realizationOf(domain, 4),
	}, nil)
	q, err := Quantile(e, 0.5)
	if err != nil {
		t.Fatalf("Quantile: %v", err)
	}
	if math.Abs(q["value"][0]-2.5) > 1e-9 {
		t.Errorf("median = %v, want 2.5", q["value"][0])
	}
}

func TestCDFSkipsErroredRealizations(t *testing.T) {
	domain := geom.NewGrid([]int{1}, nil, nil)
	e := NewEnsemble(domain, []*AttrTable{
		realizationOf(domain, 1),
		nil,
		realizationOf(domain, 3),
	}, []error{nil, errBoom, nil})
	cdf, err := CDF(e, 2)
	if err != nil {
		t.Fatalf("CDF: %v", err)
	}
	if math.Abs(cdf["value"][0]-0.5) > 1e-9 {
		t.Errorf("CDF(2) over 2 successful realizations = %v, want 0.5", cdf["value"][0])
	}
}

func TestAsyncEnsembleMemoizes(t *testing.T) {
	domain := geom.NewGrid([]int{1}, nil, nil)
	calls := 0
	e := NewAsyncEnsemble(domain, 1, func(i int) (*AttrTable, error) {
		calls++
		return realizationOf(domain, 7), nil
	})
	if _, err := e.At(0); err != nil {
		t.Fatalf("At(0): %v", err)
	}
	if _, err := e.At(0); err != nil {
		t.Fatalf("At(0) second call: %v", err)
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1 (memoized)", calls)
	}
}

var errBoom = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
