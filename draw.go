package fieldsim

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/ctessum/requestcache"

	"github.com/gostoch/fieldsim/bind"
	"github.com/gostoch/fieldsim/core"
	"github.com/gostoch/fieldsim/engine/fft"
	"github.com/gostoch/fieldsim/engine/lu"
	"github.com/gostoch/fieldsim/engine/seq"
	"github.com/gostoch/fieldsim/geom"
	"github.com/gostoch/fieldsim/rng"
	"github.com/gostoch/fieldsim/table"
)

// Type aliases re-exporting the plug-in contract for ergonomic top-level
// imports (spec §6): callers write fieldsim.Process, not core.Process.
type (
	Process = core.Process
	Method  = core.Method
	Init    = core.Init
	Artifact = core.Artifact

	GaussianProcess  = core.GaussianProcess
	IndicatorProcess = core.IndicatorProcess
	LindgrenProcess  = core.LindgrenProcess
	OpaqueProcess    = core.OpaqueProcess
)

// defaultMethod implements spec.md §4.1's method auto-selection rules.
func defaultMethod(proc core.Process, domain geom.Domain, data *table.AttrTable) core.Method {
	gp, ok := proc.(*core.GaussianProcess)
	if !ok {
		return seq.Method{}
	}
	f := gp.Func
	g := geom.Parent(domain)
	noData := data == nil || data.Domain == nil || data.Domain.Len() == 0
	if g != nil && f.IsStationary() && f.VariateCount() == 1 &&
		f.Range() <= domain.Bounds().MinSide()/3 && noData {
		return fft.Method{}
	}
	if domain.Len() < 10000 && f.IsStationary() && f.IsSymmetric() && f.IsBanded() {
		return lu.Method{}
	}
	return seq.Method{Path: seq.RasterPath, MaxNeigh: seq.DefaultMaxNeigh, MinNeigh: 1}
}

// preprocessCache deduplicates repeated preprocess work within one process
// lifetime, per SPEC_FULL.md §4.1: an identical (process, domain, data,
// method) key reuses its Artifact instead of recomputing it, mirroring the
// teacher's use of github.com/ctessum/requestcache for its own expensive,
// repeatable lookups (emissions/slca/bea/matrix.go).
var preprocessCache = requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
	r := req.(*preprocessRequest)
	return r.method.Preprocess(r.src, r.proc, r.init, r.domain, r.data)
}, 1, requestcache.Deduplicate(), requestcache.Memory(64))

type preprocessRequest struct {
	method core.Method
	src    *rng.Source
	proc   core.Process
	init   core.Init
	domain geom.Domain
	data   *table.AttrTable
}

func preprocessKey(method core.Method, proc core.Process, domain geom.Domain, data *table.AttrTable) string {
	return fmt.Sprintf("%s|%p|%p|%p", method.Name(), proc, domain, data)
}

// Draw produces a single realization, inline on the calling goroutine.
// Async has no effect on Draw (there is nothing to dispatch: a single
// realization is always computed inline), but the Workers/Master check
// still runs first so a caller's Options are validated consistently
// whether they end up calling Draw or DrawN.
func Draw(seed uint64, proc core.Process, domain geom.Domain, opts Options) (*table.AttrTable, error) {
	if opts.Async && containsMaster(opts.workers()) {
		return nil, ErrInvalidWorkerPool
	}
	art, method, err := preprocess(seed, proc, domain, opts)
	if err != nil {
		return nil, err
	}
	src := rng.NewSource(seed).Child(0)
	return method.Single(src, proc, domain, opts.Data(), art)
}

// DrawN produces n independent realizations, assembled into an Ensemble.
// Each realization receives a deterministically-seeded child PRNG stream so
// that results are reproducible given the parent seed and invariant to
// worker-pool size (spec §5). Dispatch is synchronous (DrawN blocks until
// every realization completes) unless opts.Async is set, in which case
// DrawN returns as soon as every realization has been enqueued and the
// returned Ensemble resolves each one lazily, on demand, as the caller calls
// At (spec §4.1, §5).
//
// If opts.Async is set and opts.Workers includes Master, DrawN fails with
// ErrInvalidWorkerPool before preprocessing even begins (spec §7, S7): the
// calling goroutine cannot both dispatch work to itself and block waiting
// for that same work without deadlocking.
func DrawN(seed uint64, proc core.Process, domain geom.Domain, n int, opts Options) (*table.Ensemble, error) {
	workers := opts.workers()
	if opts.Async && containsMaster(workers) {
		return nil, ErrInvalidWorkerPool
	}

	art, method, err := preprocess(seed, proc, domain, opts)
	if err != nil {
		return nil, err
	}
	data := opts.Data()
	parent := rng.NewSource(seed)

	single := func(ctx context.Context, i int) (*table.AttrTable, error) {
		childSrc := parent.Child(uint64(i))
		out, err := method.Single(childSrc, proc, domain, data, art)
		if opts.ShowProgress && err == nil {
			log.Printf("fieldsim: realization %d/%d complete", i+1, n)
		}
		return out, err
	}

	if opts.Async {
		log.Printf("fieldsim: dispatching %d realizations asynchronously across %d workers (method=%s)", n, len(workers), method.Name())
		pool := NewAsyncPool(context.Background(), len(workers))
		futures := make([]*Future, n)
		var pending sync.WaitGroup
		pending.Add(n)
		for i := 0; i < n; i++ {
			i := i
			fut, err := pool.Submit(context.Background(), func(ctx context.Context) (*table.AttrTable, error) {
				defer pending.Done()
				return single(ctx, i)
			})
			if err != nil {
				pending.Done()
				pool.Close()
				return nil, err
			}
			futures[i] = fut
		}
		// Close the pool's goroutines once every realization has run,
		// rather than leaving them blocked on jobChan forever: nothing else
		// will ever submit more work to a one-shot DrawN pool.
		go func() {
			pending.Wait()
			pool.Close()
		}()
		return table.NewAsyncEnsemble(domain, n, func(i int) (*table.AttrTable, error) {
			return futures[i].Result(context.Background())
		}), nil
	}

	jobs := make([]job, n)
	for i := 0; i < n; i++ {
		i := i
		jobs[i] = job{index: i, run: func(ctx context.Context) (*table.AttrTable, error) {
			return single(ctx, i)
		}}
	}

	log.Printf("fieldsim: dispatching %d realizations across %d workers (method=%s)", n, len(workers), method.Name())
	reals, errs := runPool(context.Background(), jobs, len(workers), opts.FailFast)

	if opts.FailFast {
		for i, e := range errs {
			if e != nil {
				log.Printf("fieldsim: realization %d failed: %v", i, e)
				return nil, fmt.Errorf("%w: %v", ErrWorkerFailure, e)
			}
		}
	}

	return table.NewEnsemble(domain, reals, errs), nil
}

func preprocess(seed uint64, proc core.Process, domain geom.Domain, opts Options) (core.Artifact, core.Method, error) {
	method := opts.Method
	data := opts.Data()
	if method == nil {
		method = defaultMethod(proc, domain, data)
		log.Printf("fieldsim: auto-selected method %q", method.Name())
	}
	init := opts.Init
	if init == nil {
		init = bind.NearestInit{}
	}
	src := rng.NewSource(seed)

	req := preprocessCache.NewRequest(context.Background(), &preprocessRequest{
		method: method, src: src, proc: proc, init: init, domain: domain, data: data,
	}, preprocessKey(method, proc, domain, data))
	res, err := req.Result()
	if err != nil {
		return nil, nil, err
	}
	return res.(core.Artifact), method, nil
}
