package fieldsim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gostoch/fieldsim/engine/fft"
	"github.com/gostoch/fieldsim/engine/lu"
	"github.com/gostoch/fieldsim/engine/seq"
	"github.com/gostoch/fieldsim/geom"
	"github.com/gostoch/fieldsim/geostat"
	"github.com/gostoch/fieldsim/table"
)

func TestDefaultMethodPicksFFTForLargeGridNoData(t *testing.T) {
	domain := geom.NewGrid([]int{100}, nil, nil)
	proc := &GaussianProcess{Func: geostat.SphericalCovariance(2, 1), Mean: []float64{0}}
	m := defaultMethod(proc, domain, nil)
	if _, ok := m.(fft.Method); !ok {
		t.Errorf("defaultMethod = %T, want fft.Method", m)
	}
}

func TestDefaultMethodPicksLUForSmallBandedGrid(t *testing.T) {
	domain := geom.NewGrid([]int{20}, nil, nil)
	// range 15 > minSide/3 disqualifies FFT; small + banded qualifies LU.
	proc := &GaussianProcess{Func: geostat.SphericalCovariance(15, 1), Mean: []float64{0}}
	m := defaultMethod(proc, domain, nil)
	if _, ok := m.(lu.Method); !ok {
		t.Errorf("defaultMethod = %T, want lu.Method", m)
	}
}

func TestDefaultMethodPicksSEQForNonGaussian(t *testing.T) {
	domain := geom.NewGrid([]int{20}, nil, nil)
	proc := &IndicatorProcess{Func: geostat.SphericalCovariance(2, 1), Prob: []float64{0.5, 0.5}}
	m := defaultMethod(proc, domain, nil)
	if _, ok := m.(seq.Method); !ok {
		t.Errorf("defaultMethod = %T, want seq.Method", m)
	}
}

func TestDefaultMethodPicksLUWhenConditioningDataPresent(t *testing.T) {
	domain := geom.NewGrid([]int{100}, nil, nil)
	proc := &GaussianProcess{Func: geostat.SphericalCovariance(2, 1), Mean: []float64{0}}
	dataDomain := &geom.PointSet{Points: []geom.Point{{1}}}
	data := table.NewAttrTable(dataDomain, "value")
	data.Mask["value"][0] = true
	m := defaultMethod(proc, domain, data)
	if _, ok := m.(lu.Method); !ok {
		t.Errorf("defaultMethod = %T, want lu.Method (conditioning data rules out FFT; small + banded qualifies LU)", m)
	}
}

func TestDrawProducesARealization(t *testing.T) {
	domain := geom.NewGrid([]int{6}, nil, nil)
	proc := &GaussianProcess{Func: geostat.SphericalCovariance(3, 1), Mean: []float64{1}}
	out, err := Draw(1, proc, domain, DefaultOptions())
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if len(out.Vars["value"]) != domain.Len() {
		t.Fatalf("output length = %d, want %d", len(out.Vars["value"]), domain.Len())
	}
}

func TestDrawNIsReproducibleAcrossWorkerCounts(t *testing.T) {
	domain := geom.NewGrid([]int{6}, nil, nil)
	proc := &GaussianProcess{Func: geostat.SphericalCovariance(3, 1), Mean: []float64{1}}

	seq1, err := DrawN(5, proc, domain, 8, Options{})
	if err != nil {
		t.Fatalf("DrawN (sequential): %v", err)
	}
	parallel, err := DrawN(5, proc, domain, 8, Options{Workers: []WorkerID{1, 2, 3, 4}})
	if err != nil {
		t.Fatalf("DrawN (4 workers): %v", err)
	}
	for i := 0; i < 8; i++ {
		a, err := seq1.At(i)
		if err != nil {
			t.Fatalf("seq At(%d): %v", i, err)
		}
		b, err := parallel.At(i)
		if err != nil {
			t.Fatalf("parallel At(%d): %v", i, err)
		}
		for j := range a.Vars["value"] {
			if a.Vars["value"][j] != b.Vars["value"][j] {
				t.Errorf("realization %d cell %d differs between worker counts: %v vs %v", i, j, a.Vars["value"][j], b.Vars["value"][j])
			}
		}
	}
}

func TestDrawNFailFastReturnsWrappedError(t *testing.T) {
	domain := geom.NewGrid([]int{4}, nil, nil)
	proc := &OpaqueProcess{Name: "unregistered", Output: []string{"value"}}
	// No engine handles a bare OpaqueProcess without a registered back-end
	// (auto-selection falls through to seq.Method, which rejects it), so
	// this fails at the preprocess stage rather than mid-pool.
	_, err := DrawN(1, proc, domain, 3, Options{FailFast: true})
	if err == nil {
		t.Fatal("expected an error for an unregistered OpaqueProcess")
	}
}

func TestDrawNAsyncMatchesSyncResult(t *testing.T) {
	domain := geom.NewGrid([]int{6}, nil, nil)
	proc := &GaussianProcess{Func: geostat.SphericalCovariance(3, 1), Mean: []float64{1}}

	sync, err := DrawN(5, proc, domain, 8, Options{})
	if err != nil {
		t.Fatalf("DrawN (sync): %v", err)
	}
	async, err := DrawN(5, proc, domain, 8, Options{Workers: []WorkerID{1, 2, 3}, Async: true})
	if err != nil {
		t.Fatalf("DrawN (async): %v", err)
	}
	for i := 0; i < 8; i++ {
		a, err := sync.At(i)
		if err != nil {
			t.Fatalf("sync At(%d): %v", i, err)
		}
		b, err := async.At(i)
		if err != nil {
			t.Fatalf("async At(%d): %v", i, err)
		}
		for j := range a.Vars["value"] {
			if a.Vars["value"][j] != b.Vars["value"][j] {
				t.Errorf("realization %d cell %d differs between sync and async dispatch: %v vs %v", i, j, a.Vars["value"][j], b.Vars["value"][j])
			}
		}
	}
}

func TestDrawNAsyncRejectsMasterInWorkerPool(t *testing.T) {
	domain := geom.NewGrid([]int{4}, nil, nil)
	proc := &GaussianProcess{Func: geostat.SphericalCovariance(3, 1), Mean: []float64{1}}

	_, err := DrawN(1, proc, domain, 3, Options{Workers: []WorkerID{Master, 1}, Async: true})
	if !errors.Is(err, ErrInvalidWorkerPool) {
		t.Fatalf("DrawN async with Master in Workers = %v, want ErrInvalidWorkerPool", err)
	}
}

func TestDrawNAsyncRejectsMasterBeforePreprocess(t *testing.T) {
	domain := geom.NewGrid([]int{4}, nil, nil)
	// An unregistered OpaqueProcess would fail auto-selected preprocess;
	// the fact that this still returns ErrInvalidWorkerPool, not a
	// preprocess error, confirms the check runs before preprocess (spec
	// §7's "fatal before preprocess", S7).
	proc := &OpaqueProcess{Name: "unregistered", Output: []string{"value"}}

	_, err := DrawN(1, proc, domain, 3, Options{Workers: []WorkerID{Master}, Async: true})
	if !errors.Is(err, ErrInvalidWorkerPool) {
		t.Fatalf("DrawN async with Master in Workers = %v, want ErrInvalidWorkerPool", err)
	}
}

func TestDrawNDefaultWorkerPoolIsMasterOnly(t *testing.T) {
	domain := geom.NewGrid([]int{4}, nil, nil)
	proc := &GaussianProcess{Func: geostat.SphericalCovariance(3, 1), Mean: []float64{1}}

	// Async with the default (empty) Workers implicitly includes Master,
	// so it must be rejected exactly like an explicit []WorkerID{Master}.
	_, err := DrawN(1, proc, domain, 3, Options{Async: true})
	if !errors.Is(err, ErrInvalidWorkerPool) {
		t.Fatalf("DrawN async with default Workers = %v, want ErrInvalidWorkerPool", err)
	}
}

func TestAsyncPoolRejectsSubmitFromOwnWorker(t *testing.T) {
	domain := geom.NewGrid([]int{2}, nil, nil)
	pool := NewAsyncPool(context.Background(), 2)
	defer pool.Close()

	result := make(chan error, 1)
	fut, err := pool.Submit(context.Background(), func(workerCtx context.Context) (*table.AttrTable, error) {
		_, subErr := pool.Submit(workerCtx, func(context.Context) (*table.AttrTable, error) {
			return table.NewAttrTable(domain, "value"), nil
		})
		result <- subErr
		return table.NewAttrTable(domain, "value"), nil
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := fut.Result(context.Background()); err != nil {
		t.Fatalf("Result: %v", err)
	}
	select {
	case subErr := <-result:
		if !errors.Is(subErr, ErrInvalidWorkerPool) {
			t.Errorf("nested Submit error = %v, want ErrInvalidWorkerPool", subErr)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for nested Submit result")
	}
}
