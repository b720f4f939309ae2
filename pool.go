package fieldsim

import (
	"context"

	"github.com/gostoch/fieldsim/table"
)

// job is one realization request dispatched to the worker pool. run
// receives the context its own worker goroutine is running under, so a job
// that itself wants to Submit into the same AsyncPool can pass that context
// along and be rejected rather than deadlock (spec §5, ErrInvalidWorkerPool).
type job struct {
	index int
	run   func(ctx context.Context) (*table.AttrTable, error)
}

// jobResult is a completed realization, tagged with its original index so
// results can be reassembled in request order regardless of completion
// order across workers.
type jobResult struct {
	index int
	real  *table.AttrTable
	err   error
}

// runPool dispatches jobs across numWorkers goroutines and collects results
// in request order, grounded on the teacher's sr/sr.go numGetters/jobChan/
// errChan goroutine-pool idiom. A numWorkers <= 1 runs every job on the
// calling goroutine with no pool at all. If failFast is set, ctx is
// cancelled as soon as the first error is observed and jobs that have not
// yet started are skipped (their result slot stays nil).
func runPool(ctx context.Context, jobs []job, numWorkers int, failFast bool) ([]*table.AttrTable, []error) {
	n := len(jobs)
	reals := make([]*table.AttrTable, n)
	errs := make([]error, n)

	if numWorkers <= 1 {
		for _, j := range jobs {
			select {
			case <-ctx.Done():
				errs[j.index] = ctx.Err()
				continue
			default:
			}
			r, err := j.run(ctx)
			reals[j.index], errs[j.index] = r, err
			if err != nil && failFast {
				break
			}
		}
		return reals, errs
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobChan := make(chan job)
	resultChan := make(chan jobResult, n)

	for w := 0; w < numWorkers; w++ {
		go func() {
			for j := range jobChan {
				select {
				case <-ctx.Done():
					resultChan <- jobResult{index: j.index, err: ctx.Err()}
					continue
				default:
				}
				r, err := j.run(ctx)
				resultChan <- jobResult{index: j.index, real: r, err: err}
			}
		}()
	}

	go func() {
		defer close(jobChan)
		for k, j := range jobs {
			select {
			case <-ctx.Done():
				// Report every undispatched job as skipped so the collector
				// below still receives exactly n results.
				for _, rest := range jobs[k:] {
					resultChan <- jobResult{index: rest.index}
				}
				return
			case jobChan <- j:
			}
		}
	}()

	for i := 0; i < n; i++ {
		res := <-resultChan
		reals[res.index], errs[res.index] = res.real, res.err
		if res.err != nil && failFast {
			cancel()
		}
	}
	return reals, errs
}

// Future is an async handle to a single in-flight realization, matching the
// teacher's sr/request.go Request.Send()/Result() pattern.
type Future struct {
	done chan jobResult
}

// Result blocks until the realization completes, or ctx is done first.
func (f *Future) Result(ctx context.Context) (*table.AttrTable, error) {
	select {
	case r := <-f.done:
		return r.real, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// poolWorkerKey marks a context as running on one of an AsyncPool's own
// worker goroutines, so Submit can detect and reject the case of a worker
// submitting back into its own pool (spec §5, ErrInvalidWorkerPool): that
// would either deadlock (unbuffered jobChan, no free worker left to drain
// it) or silently serialize behind the submitting job itself.
type poolWorkerKey struct{ pool *AsyncPool }

// AsyncPool is a long-lived worker pool that accepts realization requests
// one at a time via Submit, for callers that want to interleave dispatch
// with other work rather than blocking on a single DrawN call (spec §5's
// "async mode").
type AsyncPool struct {
	jobChan chan job
	cancel  context.CancelFunc
}

// NewAsyncPool starts numWorkers goroutines draining a shared job queue.
// The caller's own goroutine must never be one of these workers: submitting
// a job from inside a worker and blocking on its Future would deadlock (spec
// §5, ErrInvalidWorkerPool).
func NewAsyncPool(ctx context.Context, numWorkers int) *AsyncPool {
	ctx, cancel := context.WithCancel(ctx)
	p := &AsyncPool{jobChan: make(chan job), cancel: cancel}
	workerCtx := context.WithValue(ctx, poolWorkerKey{pool: p}, true)
	for w := 0; w < numWorkers; w++ {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case j, ok := <-p.jobChan:
					if !ok {
						return
					}
					j.run(workerCtx)
				}
			}
		}()
	}
	return p
}

// Close stops accepting new jobs and terminates the worker goroutines.
func (p *AsyncPool) Close() { p.cancel() }

// Submit enqueues run and returns a Future for its result. ctx must be the
// context handed to the job by its own worker if it is itself running
// inside this pool (run itself receives that same context, so a nested
// Submit can forward it along); Submit returns ErrInvalidWorkerPool rather
// than enqueuing in that case.
func (p *AsyncPool) Submit(ctx context.Context, run func(ctx context.Context) (*table.AttrTable, error)) (*Future, error) {
	if v, _ := ctx.Value(poolWorkerKey{pool: p}).(bool); v {
		return nil, ErrInvalidWorkerPool
	}
	done := make(chan jobResult, 1)
	p.jobChan <- job{run: func(workerCtx context.Context) (*table.AttrTable, error) {
		r, err := run(workerCtx)
		done <- jobResult{real: r, err: err}
		return r, err
	}}
	return &Future{done: done}, nil
}
