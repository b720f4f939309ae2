// Package geostat supplies the geostatistics-functions collaborator the
// simulation engine consumes: a family of stationary covariance/variogram
// kernels and the Kriging predictor built on top of them. It stands in for
// the external "GeostatFunctions"/"Kriging" modules named in spec.md §6.
package geostat

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Func is a symmetric, positive-semidefinite kernel family evaluated
// between points, exposed in both covariance and variogram form.
type Func interface {
	// Sill returns the (possibly multivariate) sill matrix.
	Sill() *mat.SymDense
	// Range returns the correlation range.
	Range() float64
	IsStationary() bool
	IsSymmetric() bool
	IsBanded() bool
	VariateCount() int
	// Cov evaluates the covariance C(h) at separation distance h, for
	// variate pair (i,j).
	Cov(h float64, i, j int) float64
	// Scale returns a copy of the function with its range scaled by alpha
	// (the sill is a covariance magnitude, not a length, and is unchanged).
	Scale(alpha float64) Func
}

// Stationary is the shared base of the covariance- and variogram-form
// kernels (spherical, exponential, gaussian, cubic, nugget) used throughout
// the engine; Banded is true only for the compactly supported
// covariance-form ones (spherical, cubic, nugget). Kernel is the normalized (range=1, sill=1) univariate shape function.
type Stationary struct {
	Name     string
	RangeV   float64
	SillV    *mat.SymDense
	Kernel   func(hNorm float64) float64
	Nugget   float64
	Banded   bool
	Variates int
	// VariogramForm marks Kernel as the ascending gamma_norm(h) shape
	// (0 at h=0, 1 at h>=1) rather than the descending covariance shape.
	// Cov converts it to a true covariance (sill - gamma) at evaluation
	// time, per spec §3/§4.7's variogram/covariance duality.
	VariogramForm bool
}

func (s *Stationary) Sill() *mat.SymDense  { return s.SillV }
func (s *Stationary) Range() float64       { return s.RangeV }
func (s *Stationary) IsStationary() bool   { return true }
func (s *Stationary) IsSymmetric() bool    { return true }
func (s *Stationary) IsBanded() bool       { return s.Banded }
func (s *Stationary) VariateCount() int    { return s.Variates }

// Cov evaluates the (possibly cross-) covariance between variates i and j at
// separation h, factoring the marginal sill matrix against the normalized
// single-variate kernel shape (a separable model, the common case for
// co-kriging with a shared range).
func (s *Stationary) Cov(h float64, i, j int) float64 {
	var nugget float64
	if h == 0 {
		nugget = s.Nugget
	}
	shape := s.Kernel(h / s.RangeV)
	if s.VariogramForm {
		return s.SillV.At(i, j)*(1-shape) + nugget
	}
	return s.SillV.At(i, j)*shape + nugget
}

func (s *Stationary) Scale(alpha float64) Func {
	cp := *s
	cp.RangeV = s.RangeV * alpha
	return &cp
}

func newUnivariateSill(sill float64) *mat.SymDense {
	return mat.NewSymDense(1, []float64{sill})
}

// SphericalCovariance is the classical bounded spherical model.
func SphericalCovariance(rng, sill float64) Func {
	return &Stationary{
		Name:   "spherical",
		RangeV: rng,
		SillV:  newUnivariateSill(sill),
		Banded: true,
		Variates: 1,
		Kernel: func(h float64) float64 {
			if h >= 1 {
				return 0
			}
			return 1 - (1.5*h - 0.5*h*h*h)
		},
	}
}

// SphericalVariogram is the variogram-form dual of SphericalCovariance: it
// stores the ascending gamma_norm(h) shape directly rather than aliasing the
// covariance shape, and reports IsBanded false since the LU engine only
// accepts functions supplied directly in covariance form.
func SphericalVariogram(rng, sill float64) Func {
	return &Stationary{
		Name:          "spherical",
		RangeV:        rng,
		SillV:         newUnivariateSill(sill),
		Banded:        false,
		Variates:      1,
		VariogramForm: true,
		Kernel: func(h float64) float64 {
			if h >= 1 {
				return 1
			}
			return 1.5*h - 0.5*h*h*h
		},
	}
}

// ExponentialCovariance is the exponential model, unbounded (not banded).
func ExponentialCovariance(rng, sill float64) Func {
	return &Stationary{
		Name:   "exponential",
		RangeV: rng,
		SillV:  newUnivariateSill(sill),
		Banded: false,
		Variates: 1,
		Kernel: func(h float64) float64 {
			return math.Exp(-3 * h)
		},
	}
}

// ExponentialVariogram is the variogram-form dual of ExponentialCovariance:
// it stores the ascending gamma_norm(h) shape directly rather than aliasing
// the covariance shape.
func ExponentialVariogram(rng, sill float64) Func {
	return &Stationary{
		Name:          "exponential",
		RangeV:        rng,
		SillV:         newUnivariateSill(sill),
		Banded:        false,
		Variates:      1,
		VariogramForm: true,
		Kernel: func(h float64) float64 {
			return 1 - math.Exp(-3*h)
		},
	}
}

// GaussianCovariance is the Gaussian (squared-exponential) model.
func GaussianCovariance(rng, sill float64) Func {
	return &Stationary{
		Name:   "gaussian",
		RangeV: rng,
		SillV:  newUnivariateSill(sill),
		Banded: false,
		Variates: 1,
		Kernel: func(h float64) float64 {
			return math.Exp(-3 * h * h)
		},
	}
}

// GaussianVariogram is the variogram-form dual of GaussianCovariance: it
// stores the ascending gamma_norm(h) shape directly rather than aliasing the
// covariance shape.
func GaussianVariogram(rng, sill float64) Func {
	return &Stationary{
		Name:          "gaussian",
		RangeV:        rng,
		SillV:         newUnivariateSill(sill),
		Banded:        false,
		Variates:      1,
		VariogramForm: true,
		Kernel: func(h float64) float64 {
			return 1 - math.Exp(-3*h*h)
		},
	}
}

// CubicCovariance is the cubic (polynomial) model, banded like spherical.
func CubicCovariance(rng, sill float64) Func {
	return &Stationary{
		Name:   "cubic",
		RangeV: rng,
		SillV:  newUnivariateSill(sill),
		Banded: true,
		Variates: 1,
		Kernel: func(h float64) float64 {
			if h >= 1 {
				return 0
			}
			h2, h3, h4, h5, h7 := h*h, h*h*h, h*h*h*h, 0.0, 0.0
			h5 = h4 * h
			h7 = h5 * h2
			return 1 - (7*h2 - 8.75*h3 + 3.5*h5 - 0.75*h7)
		},
	}
}

// NuggetCovariance is a pure nugget-effect model (no spatial correlation
// beyond lag zero); it is stationary, symmetric, and banded.
func NuggetCovariance(sill float64) Func {
	return &Stationary{
		Name:   "nugget",
		RangeV: 1,
		SillV:  newUnivariateSill(sill),
		Banded: true,
		Variates: 1,
		Kernel: func(h float64) float64 {
			if h == 0 {
				return 1
			}
			return 0
		},
	}
}

// MultivariateSill builds a Func sharing one range across variate_count(sill)
// variables, with the given full sill matrix (diagonal = marginal sills,
// off-diagonal = cross-covariances at lag zero). LU bivariate co-simulation
// derives its correlation from this matrix's off-diagonal entry unless an
// explicit lu.Method.Correlation is set, which takes precedence.
func MultivariateSill(base Func, sill *mat.SymDense) Func {
	s, ok := base.(*Stationary)
	if !ok {
		panic("geostat: MultivariateSill requires a Stationary base function")
	}
	cp := *s
	cp.SillV = sill
	cp.Variates = sill.Symmetric()
	return &cp
}

// Variogram returns gamma(h) = sill - C(h) for the marginal (i=j) case.
func Variogram(f Func, h float64, i int) float64 {
	return f.Sill().At(i, i) - f.Cov(h, i, i)
}
