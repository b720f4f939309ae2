// Package lu implements spec.md §4.4: dense-covariance lower-upper
// Gaussian simulation with exact conditioning and optional bivariate
// co-simulation. It is grounded on the teacher's use of
// gonum.org/v1/gonum/mat for dense linear algebra (emissions/slca/bea).
package lu

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/gostoch/fieldsim/core"
	"github.com/gostoch/fieldsim/geom"
	"github.com/gostoch/fieldsim/geostat"
	"github.com/gostoch/fieldsim/rng"
	"github.com/gostoch/fieldsim/scale"
	"github.com/gostoch/fieldsim/table"
)

// Errors mirror the error-kind taxonomy of spec.md §7.
var (
	ErrShapeMismatch       = errors.New("lu: mean length does not match variate count")
	ErrUnsupportedMethod   = errors.New("lu: function is not applicable to LU simulation")
	ErrNotStationary       = errors.New("lu: function must be stationary")
	ErrNotPositiveDefinite = errors.New("lu: covariance matrix is not positive definite")
)

// Method is the LU simulation engine.
type Method struct {
	// Correlation is an explicit bivariate cross-correlation; if non-nil it
	// wins over a correlation derived from the process function's
	// multivariate sill (spec §9 Open Question).
	Correlation *float64
}

// Name implements core.Method.
func (Method) Name() string { return "lu" }

type variable struct {
	mean     float64
	zD       *mat.VecDense
	dS       *mat.VecDense
	lSS      *mat.TriDense
	indicesD []int
	indicesS []int
}

// Artifact is the preprocessed LU state: per-variable conditional
// factorizations plus the shared correlation used for bivariate
// co-simulation.
type Artifact struct {
	domain      geom.Domain
	schema      []string
	vars        []variable
	correlation float64
}

// Preprocess implements core.Method.
func (m Method) Preprocess(src *rng.Source, proc core.Process, init core.Init, domain geom.Domain, data *table.AttrTable) (core.Artifact, error) {
	gp, ok := proc.(*core.GaussianProcess)
	if !ok {
		return nil, fmt.Errorf("%w: LU only supports GaussianProcess", ErrUnsupportedMethod)
	}
	f := gp.Func
	if !f.IsStationary() {
		return nil, ErrNotStationary
	}
	if !f.IsSymmetric() || !f.IsBanded() {
		return nil, fmt.Errorf("%w: function must be stationary, symmetric, and banded", ErrUnsupportedMethod)
	}
	nv := f.VariateCount()
	if nv < 1 || nv > 2 {
		return nil, fmt.Errorf("%w: LU supports at most 2 variates, got %d", ErrUnsupportedMethod, nv)
	}
	if len(gp.Mean) != nv {
		return nil, fmt.Errorf("%w: |mean|=%d, variate_count=%d", ErrShapeMismatch, len(gp.Mean), nv)
	}
	schema := gp.Schema()
	if len(schema) != nv {
		return nil, fmt.Errorf("%w: variable_count=%d, variate_count=%d", ErrShapeMismatch, len(schema), nv)
	}

	alpha := scale.Factor(domain, dataDomain(data), f)
	sdomain := scale.Domain(domain, alpha)
	sf := scale.Func(f, alpha)

	var bound *table.AttrTable
	var err error
	if data != nil {
		bound, err = init.Bind(domain, data)
		if err != nil {
			return nil, err
		}
	}

	art := &Artifact{domain: domain, schema: schema}
	for j, name := range schema {
		var mask []bool
		if bound != nil {
			mask = bound.Mask[name]
		}
		indicesD, indicesS := partition(domain.Len(), mask)

		domD := subPointSet(sdomain, indicesD)
		domS := subPointSet(sdomain, indicesS)

		var zD *mat.VecDense
		var dS *mat.VecDense
		var lSS *mat.TriDense

		cSS := geostat.PairwiseSym(sf, domS, j, j)
		if len(indicesD) == 0 {
			var chol mat.Cholesky
			if !chol.Factorize(cSS) {
				return nil, ErrNotPositiveDefinite
			}
			var l mat.TriDense
			chol.LTo(&l)
			lSS = &l
			dS = mat.NewVecDense(len(indicesS), nil)
		} else {
			cDD := geostat.PairwiseSym(sf, domD, j, j)
			cDS := geostat.Pairwise(sf, domD, domS, j, j)

			var cholDD mat.Cholesky
			if !cholDD.Factorize(cDD) {
				return nil, ErrNotPositiveDefinite
			}
			var lDD mat.TriDense
			cholDD.LTo(&lDD)

			var b mat.Dense
			if err := b.Solve(&lDD, cDS); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrNotPositiveDefinite, err)
			}

			var btb mat.Dense
			btb.Mul(b.T(), &b)
			var condSS mat.Dense
			condSS.Sub(cSS, &btb)
			symCondSS := symmetrize(&condSS)

			var cholSS mat.Cholesky
			if !cholSS.Factorize(symCondSS) {
				return nil, ErrNotPositiveDefinite
			}
			var l mat.TriDense
			cholSS.LTo(&l)
			lSS = &l

			zD = mat.NewVecDense(len(indicesD), nil)
			for i, idx := range indicesD {
				zD.SetVec(i, bound.Vars[name][idx])
			}
			var lDDinvZ mat.VecDense
			if err := lDDinvZ.SolveVec(&lDD, zD); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrNotPositiveDefinite, err)
			}
			dS = mat.NewVecDense(len(indicesS), nil)
			dS.MulVec(b.T(), &lDDinvZ)
		}

		art.vars = append(art.vars, variable{
			mean:     gp.Mean[j],
			zD:       zD,
			dS:       dS,
			lSS:      lSS,
			indicesD: indicesD,
			indicesS: indicesS,
		})
	}

	if nv == 2 {
		if m.Correlation != nil {
			art.correlation = *m.Correlation
		} else {
			art.correlation = f.Sill().At(0, 1) / math.Sqrt(f.Sill().At(0, 0)*f.Sill().At(1, 1))
		}
	}
	return art, nil
}

// Single implements core.Method.
func (m Method) Single(src *rng.Source, proc core.Process, domain geom.Domain, data *table.AttrTable, artifact core.Artifact) (*table.AttrTable, error) {
	art, ok := artifact.(*Artifact)
	if !ok {
		return nil, fmt.Errorf("%w: artifact was not produced by lu.Method", ErrUnsupportedMethod)
	}
	out := table.NewAttrTable(domain, art.schema...)

	var w1 []float64
	for j, name := range art.schema {
		v := art.vars[j]
		n := len(v.indicesS)
		w := src.StdNormalVector(n)
		if j == 1 && len(w1) == n {
			rho := art.correlation
			mixed := make([]float64, n)
			for i := range w {
				mixed[i] = rho*w1[i] + math.Sqrt(1-rho*rho)*w[i]
			}
			w = mixed
		}
		if j == 0 {
			w1 = append([]float64(nil), w...)
		}

		wv := mat.NewVecDense(n, w)
		var yS mat.VecDense
		yS.MulVec(v.lSS, wv)

		unconditional := len(v.indicesD) == 0
		for i, idx := range v.indicesD {
			out.Vars[name][idx] = v.zD.AtVec(i)
			out.Mask[name][idx] = true
		}
		for i, idx := range v.indicesS {
			val := yS.AtVec(i)
			if unconditional {
				val += v.mean
			} else {
				val += v.dS.AtVec(i)
			}
			out.Vars[name][idx] = val
		}
	}
	return out, nil
}

func partition(n int, mask []bool) (indicesD, indicesS []int) {
	for i := 0; i < n; i++ {
		if mask != nil && i < len(mask) && mask[i] {
			indicesD = append(indicesD, i)
		} else {
			indicesS = append(indicesS, i)
		}
	}
	return indicesD, indicesS
}

func subPointSet(dom geom.Domain, indices []int) *geom.PointSet {
	pts := make([]geom.Point, len(indices))
	for i, idx := range indices {
		pts[i] = dom.Centroid(idx)
	}
	return &geom.PointSet{Points: pts}
}

func dataDomain(data *table.AttrTable) geom.Domain {
	if data == nil {
		return nil
	}
	return data.Domain
}

func symmetrize(d *mat.Dense) *mat.SymDense {
	r, _ := d.Dims()
	out := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			out.SetSym(i, j, (d.At(i, j)+d.At(j, i))/2)
		}
	}
	return out
}
