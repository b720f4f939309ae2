package fieldsim

import "errors"

// Error-kind sentinels matching the taxonomy of spec.md §7. Engine packages
// define their own wrapped variants of the geometry/applicability errors;
// these are the orchestrator-level kinds: worker-pool misuse and
// per-realization failure bookkeeping.
var (
	// ErrInvalidWorkerPool is returned when the caller's own goroutine
	// appears in an async worker pool it is waiting on, which would
	// deadlock: either Options.Workers includes Master for an Options.Async
	// DrawN call (spec §7, S7), or a job running on an AsyncPool tries to
	// Submit back into that same pool.
	ErrInvalidWorkerPool = errors.New("fieldsim: caller's worker must not be a member of its own async pool")
	// ErrWorkerFailure wraps a per-realization failure when fail_fast is
	// set and at least one realization in the batch errored.
	ErrWorkerFailure = errors.New("fieldsim: one or more realizations failed")
)
