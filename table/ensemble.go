package table

import (
	"fmt"
	"sort"

	"github.com/gostoch/fieldsim/geom"
)

// Ensemble is an indexable/iterable collection of realizations over the
// same domain (spec.md §3, §4.8). Fetch is the identity for synchronous
// realizations and resolves a worker future for asynchronous ones.
type Ensemble struct {
	Domain geom.Domain
	reals  []*AttrTable
	errs   []error
	fetch  func(i int) (*AttrTable, error)
}

// NewEnsemble wraps a slice of already-computed realizations and their
// per-realization errors (nil errs means every realization succeeded).
func NewEnsemble(domain geom.Domain, reals []*AttrTable, errs []error) *Ensemble {
	return &Ensemble{Domain: domain, reals: reals, errs: errs}
}

// NewAsyncEnsemble wraps a lazy fetch function, used for async_mode=true
// results: each call to At(i) resolves (and memoizes) realization i.
func NewAsyncEnsemble(domain geom.Domain, n int, fetch func(i int) (*AttrTable, error)) *Ensemble {
	return &Ensemble{
		Domain: domain,
		reals:  make([]*AttrTable, n),
		errs:   make([]error, n),
		fetch:  fetch,
	}
}

// Len returns the number of realizations.
func (e *Ensemble) Len() int { return len(e.reals) }

// At returns realization i, resolving it lazily if the ensemble is async.
func (e *Ensemble) At(i int) (*AttrTable, error) {
	if i < 0 || i >= len(e.reals) {
		return nil, fmt.Errorf("table: realization index %d out of range [0,%d)", i, len(e.reals))
	}
	if e.fetch == nil {
		return e.reals[i], e.errs2(i)
	}
	if e.reals[i] == nil && e.errs[i] == nil {
		e.reals[i], e.errs[i] = e.fetch(i)
	}
	return e.reals[i], e.errs[i]
}

func (e *Ensemble) errs2(i int) error {
	if e.errs == nil {
		return nil
	}
	return e.errs[i]
}

// Mean computes the per-cell, per-variable arithmetic mean over all
// realizations (spec §4.8, S6).
func Mean(e *Ensemble) (map[string][]float64, error) {
	out := make(map[string][]float64)
	count := 0
	for i := 0; i < e.Len(); i++ {
		r, err := e.At(i)
		if err != nil {
			continue
		}
		count++
		for name, vals := range r.Vars {
			acc, ok := out[name]
			if !ok {
				acc = make([]float64, len(vals))
				out[name] = acc
			}
			for j, v := range vals {
				acc[j] += v
			}
		}
	}
	if count == 0 {
		return nil, fmt.Errorf("table: ensemble has no successful realizations")
	}
	for _, acc := range out {
		for j := range acc {
			acc[j] /= float64(count)
		}
	}
	return out, nil
}

// Var computes the per-cell, per-variable sample variance over all
// realizations.
func Var(e *Ensemble) (map[string][]float64, error) {
	mean, err := Mean(e)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]float64)
	count := 0
	for i := 0; i < e.Len(); i++ {
		r, err := e.At(i)
		if err != nil {
			continue
		}
		count++
		for name, vals := range r.Vars {
			acc, ok := out[name]
			if !ok {
				acc = make([]float64, len(vals))
				out[name] = acc
			}
			m := mean[name]
			for j, v := range vals {
				d := v - m[j]
				acc[j] += d * d
			}
		}
	}
	if count < 2 {
		for name, acc := range out {
			_ = name
			for j := range acc {
				acc[j] = 0
			}
		}
		return out, nil
	}
	for _, acc := range out {
		for j := range acc {
			acc[j] /= float64(count - 1)
		}
	}
	return out, nil
}

// CDF computes, per cell per variable, the fraction of realizations whose
// value is <= x.
func CDF(e *Ensemble, x float64) (map[string][]float64, error) {
	var n int
	out := make(map[string][]float64)
	count := 0
	for i := 0; i < e.Len(); i++ {
		r, err := e.At(i)
		if err != nil {
			continue
		}
		count++
		for name, vals := range r.Vars {
			acc, ok := out[name]
			if !ok {
				acc = make([]float64, len(vals))
				out[name] = acc
				n = len(vals)
				_ = n
			}
			for j, v := range vals {
				if v <= x {
					acc[j]++
				}
			}
		}
	}
	if count == 0 {
		return nil, fmt.Errorf("table: ensemble has no successful realizations")
	}
	for _, acc := range out {
		for j := range acc {
			acc[j] /= float64(count)
		}
	}
	return out, nil
}

// Quantile computes, per cell per variable, the p-quantile across
// realizations using the standard linear-interpolation order-statistic
// rule (R-7 / numpy "linear" method).
func Quantile(e *Ensemble, p float64) (map[string][]float64, error) {
	names := map[string]int{}
	var samples map[string][][]float64 // name -> cell -> realization values
	count := 0
	for i := 0; i < e.Len(); i++ {
		r, err := e.At(i)
		if err != nil {
			continue
		}
		count++
		if samples == nil {
			samples = make(map[string][][]float64)
			for name, vals := range r.Vars {
				cells := make([][]float64, len(vals))
				samples[name] = cells
				names[name] = len(vals)
			}
		}
		for name, vals := range r.Vars {
			for j, v := range vals {
				samples[name][j] = append(samples[name][j], v)
			}
		}
	}
	if count == 0 {
		return nil, fmt.Errorf("table: ensemble has no successful realizations")
	}
	out := make(map[string][]float64)
	for name, cells := range samples {
		acc := make([]float64, names[name])
		for j, vals := range cells {
			sort.Float64s(vals)
			acc[j] = quantileSorted(vals, p)
		}
		out[name] = acc
	}
	return out, nil
}

func quantileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(pos)
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
