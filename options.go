package fieldsim

import (
	"github.com/gostoch/fieldsim/core"
	"github.com/gostoch/fieldsim/table"
)

// WorkerID identifies one worker in a draw call's pool (spec §4.1's
// `workers: Vec<WorkerId>`). It has no meaning beyond equality: the
// orchestrator never schedules onto a real distributed worker, only a
// goroutine, so a WorkerID is simply a caller-chosen tag used to detect the
// one illegal configuration spec §5/§7 calls out — the calling goroutine
// asking to wait asynchronously on a pool that includes itself.
type WorkerID uint64

// Master is the WorkerID of the goroutine that calls Draw/DrawN itself.
const Master WorkerID = 0

// Options configures a Draw/DrawN call, matching spec §9's "config structs
// with named defaults" design note (no dynamic keyword dict, no CLI flags:
// those concerns are out of this engine's scope per SPEC_FULL.md §1).
type Options struct {
	// ConditioningData, if non-nil, must be reproduced at the locations to
	// which it is bound (spec §4.1).
	ConditioningData *table.AttrTable
	// Method, if non-nil, overrides automatic method selection (spec §4.1).
	Method core.Method
	// Init selects the data-binding strategy; nil defaults to
	// bind.NearestInit{}.
	Init core.Init
	// Workers is the pool of worker identities DrawN dispatches
	// realizations across (spec §4.1). Nil or empty defaults to
	// []WorkerID{Master}: the calling goroutine runs every realization
	// itself, sequentially, with no pool at all. A non-Master-only pool of
	// length k dispatches across k goroutines.
	Workers []WorkerID
	// Async, if true, returns an Ensemble whose realizations are resolved
	// lazily and concurrently as the caller asks for them (At(i)), instead
	// of DrawN blocking until every realization in the batch has completed
	// (spec §4.1, §5's "suspension points"). Async fails with
	// ErrInvalidWorkerPool, before preprocessing even begins, if Master is
	// among Workers (spec §7, testable property S7): the caller would be
	// both dispatching work to itself and waiting on that same work.
	Async bool
	// ShowProgress logs a line as each realization completes.
	ShowProgress bool
	// FailFast stops dispatching further realizations as soon as one
	// fails, instead of collecting every error into the ensemble.
	FailFast bool
}

// Data returns the conditioning data table, or nil if none was supplied.
func (o Options) Data() *table.AttrTable { return o.ConditioningData }

// workers returns the effective worker pool: o.Workers, or []WorkerID{Master}
// if the caller left it empty.
func (o Options) workers() []WorkerID {
	if len(o.Workers) == 0 {
		return []WorkerID{Master}
	}
	return o.Workers
}

func containsMaster(workers []WorkerID) bool {
	for _, w := range workers {
		if w == Master {
			return true
		}
	}
	return false
}

// DefaultOptions returns the zero-value Options: automatic method
// selection, nearest-neighbor binding, sequential execution on the calling
// goroutine, errors collected per-realization rather than aborting the
// batch.
func DefaultOptions() Options {
	return Options{}
}
