package geostat

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/gostoch/fieldsim/geom"
)

// ErrSingular is returned by Fit when the local Kriging system cannot be
// solved (a degenerate or duplicated neighborhood), matching the
// KrigingSystemSingular error kind of spec §7.
var ErrSingular = errors.New("geostat: kriging system is singular")

// Kriging is a simple-Kriging predictor for a single variate (or, for
// IndicatorProcess, the one-hot-encoded probability of one category),
// parameterized by a covariance function and a known mean.
type Kriging struct {
	Func Func
	Mean float64
	// Variate selects which row/column of a multivariate Func this
	// predictor targets.
	Variate int
}

// NewKriging constructs a Kriging predictor for variate v of f with known
// mean mean.
func NewKriging(f Func, mean float64, v int) *Kriging {
	return &Kriging{Func: f, Mean: mean, Variate: v}
}

// Fit is the result of fitting a Kriging model to a local neighborhood: the
// simple-Kriging weights solving C_nn w = c_0, ready to predict at any
// target point within the neighborhood's validity (a new Fit is produced
// per target in this engine, since each SEQ step has its own neighborhood).
type Fit struct {
	weights *mat.VecDense
	sill    float64
	err     error
}

// Status returns the error, if any, produced while fitting.
func (f *Fit) Status() error { return f.err }

// Fit solves the local Kriging system for a target point given the
// neighborhood's centroids and already-known values. Returns a Fit whose
// Status is ErrSingular if centroids are degenerate (e.g. duplicated
// points producing a singular covariance matrix).
func (k *Kriging) Fit(neighborCentroids []geom.Point, target geom.Point) *Fit {
	n := len(neighborCentroids)
	if n == 0 {
		return &Fit{err: ErrSingular}
	}
	cnn := mat.NewSymDense(n, nil)
	for a := 0; a < n; a++ {
		for b := a; b < n; b++ {
			h := neighborCentroids[a].Sub(neighborCentroids[b]).Norm()
			cnn.SetSym(a, b, k.Func.Cov(h, k.Variate, k.Variate))
		}
	}
	c0 := mat.NewVecDense(n, nil)
	for a := 0; a < n; a++ {
		h := neighborCentroids[a].Sub(target).Norm()
		c0.SetVec(a, k.Func.Cov(h, k.Variate, k.Variate))
	}

	var chol mat.Cholesky
	ok := chol.Factorize(cnn)
	if !ok {
		return &Fit{err: ErrSingular}
	}
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, c0); err != nil {
		return &Fit{err: ErrSingular}
	}
	sill := k.Func.Sill().At(k.Variate, k.Variate)
	return &Fit{weights: &w, sill: sill}
}

// PredictMean returns the simple-Kriging posterior mean at the target,
// given the neighborhood's known values (in the same order passed to Fit).
func (f *Fit) PredictMean(mean float64, values []float64) float64 {
	var sum float64
	for i, v := range values {
		sum += f.weights.AtVec(i) * (v - mean)
	}
	return mean + sum
}

// PredictVar returns the simple-Kriging posterior variance at the target.
func (f *Fit) PredictVar(c0 *mat.VecDense) float64 {
	var dot float64
	n, _ := f.weights.Dims()
	for i := 0; i < n; i++ {
		dot += f.weights.AtVec(i) * c0.AtVec(i)
	}
	v := f.sill - dot
	if v < 0 {
		v = 0
	}
	return v
}

// FitPredict fits and immediately predicts the mean and variance at target,
// the composite operation used by the SEQ engine at each path step.
func (k *Kriging) FitPredict(neighborCentroids []geom.Point, values []float64, mean float64, target geom.Point) (predMean, predVar float64, err error) {
	fit := k.Fit(neighborCentroids, target)
	if fit.err != nil {
		return 0, 0, fit.err
	}
	n := len(neighborCentroids)
	c0 := mat.NewVecDense(n, nil)
	for a := 0; a < n; a++ {
		h := neighborCentroids[a].Sub(target).Norm()
		c0.SetVec(a, k.Func.Cov(h, k.Variate, k.Variate))
	}
	return fit.PredictMean(mean, values), fit.PredictVar(c0), nil
}
