// Package fieldsim is the orchestrator described in SPEC_FULL.md §4.1 and
// §5: a uniform Draw/DrawN entry point over the LU, SEQ, FFT, and Lindgren
// simulation engines, dispatched across a worker pool with deterministic,
// worker-count-invariant reproducibility.
package fieldsim
