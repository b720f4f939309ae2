package geostat

import (
	"gonum.org/v1/gonum/mat"

	"github.com/gostoch/fieldsim/geom"
)

// Pairwise evaluates the covariance between every centroid of domA and every
// centroid of domB for variates (i,j), returning a dense |domA| x |domB|
// matrix. Pairwise always deals in covariances: a variogram-form Func
// converts its gamma(h) to a covariance (sill - gamma) inside its own Cov
// method (see Stationary.Cov), so every downstream matrix here is a
// covariance regardless of which form the caller originally supplied, per
// spec §4.7.
func Pairwise(f Func, domA, domB geom.Domain, i, j int) *mat.Dense {
	na, nb := domA.Len(), domB.Len()
	out := mat.NewDense(na, nb, nil)
	for a := 0; a < na; a++ {
		ca := domA.Centroid(a)
		for b := 0; b < nb; b++ {
			cb := domB.Centroid(b)
			h := ca.Sub(cb).Norm()
			out.Set(a, b, f.Cov(h, i, j))
		}
	}
	return out
}

// PairwiseSym is Pairwise(f, dom, dom, i, j) wrapped as a SymDense, used
// wherever the result feeds a Cholesky factorization.
func PairwiseSym(f Func, dom geom.Domain, i, j int) *mat.SymDense {
	n := dom.Len()
	out := mat.NewSymDense(n, nil)
	for a := 0; a < n; a++ {
		ca := dom.Centroid(a)
		for b := a; b < n; b++ {
			cb := dom.Centroid(b)
			h := ca.Sub(cb).Norm()
			out.SetSym(a, b, f.Cov(h, i, j))
		}
	}
	return out
}
