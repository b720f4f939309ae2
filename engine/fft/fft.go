// Package fft implements spec.md §4.6: spectral (FFT-MA) simulation of a
// stationary univariate Gaussian field over a regular grid. It is grounded
// on gonum.org/v1/gonum/dsp/fourier's one-dimensional complex FFT, applied
// successively along each grid axis to build a separable n-dimensional
// transform (no example repo in the pack carries a ready-made n-dimensional
// FFT, so the axis-by-axis composition here is a thin, ungrounded addition
// documented in DESIGN.md).
package fft

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/gostoch/fieldsim/bind"
	"github.com/gostoch/fieldsim/core"
	"github.com/gostoch/fieldsim/geom"
	"github.com/gostoch/fieldsim/geostat"
	"github.com/gostoch/fieldsim/rng"
	"github.com/gostoch/fieldsim/scale"
	"github.com/gostoch/fieldsim/table"
)

// Errors mirror the error-kind taxonomy of spec.md §7.
var (
	ErrUnsupportedMethod = errors.New("fft: function/domain is not applicable to spectral simulation")
	ErrNotStationary     = errors.New("fft: function must be stationary")
)

// Method is the spectral (FFT-MA) simulation engine.
type Method struct{}

// Name implements core.Method.
func (Method) Name() string { return "fft" }

// Artifact is the preprocessed FFT state: the reference-cell spectral
// amplitude grid plus, if conditioning data was supplied, the pieces needed
// for Kriging-residual-substitution conditioning.
type Artifact struct {
	schema []string
	mean   float64
	sill   float64
	shape  []int
	amp    []float64 // sqrt(|FFT(C)|), DC bin zeroed

	sgrid    *geom.Grid
	krig     *geostat.Kriging
	dataIdx  []int
	dataPts  []geom.Point
	dataVals []float64
	bound    *table.AttrTable // over domain, grid-shaped; nil if no conditioning data
}

// Preprocess implements core.Method.
func (m Method) Preprocess(src *rng.Source, proc core.Process, init core.Init, domain geom.Domain, data *table.AttrTable) (core.Artifact, error) {
	gp, ok := proc.(*core.GaussianProcess)
	if !ok {
		return nil, fmt.Errorf("%w: FFT only supports GaussianProcess", ErrUnsupportedMethod)
	}
	f := gp.Func
	if !f.IsStationary() {
		return nil, ErrNotStationary
	}
	if f.VariateCount() != 1 {
		return nil, fmt.Errorf("%w: FFT supports only univariate processes", ErrUnsupportedMethod)
	}
	g := geom.Parent(domain)
	if g == nil {
		return nil, fmt.Errorf("%w: FFT requires a grid or a view of a grid", ErrUnsupportedMethod)
	}
	if len(gp.Mean) != 1 {
		return nil, fmt.Errorf("%w: FFT requires a single mean value", ErrUnsupportedMethod)
	}

	alpha := scale.Factor(domain, dataDomain(data), f)
	sg := scale.Grid(g, alpha)
	sf := scale.Func(f, alpha)

	shape := sg.Dims()
	total := sg.Len()
	c := make([]complex128, total)
	for i := 0; i < total; i++ {
		h := toroidalLag(shape, sg.Step, i)
		c[i] = complex(sf.Cov(h, 0, 0), 0)
	}
	spec := forwardND(shape, c)
	amp := make([]float64, total)
	for i, v := range spec {
		amp[i] = math.Sqrt(cmplx.Abs(v))
	}
	amp[0] = 0 // zero the DC bin: the finite-sample covariance grid does not
	// average to exactly zero, and leaving the DC term in biases every
	// realization by a constant offset.

	art := &Artifact{
		schema: gp.Schema(),
		mean:   gp.Mean[0],
		sill:   f.Sill().At(0, 0),
		shape:  shape,
		amp:    amp,
		sgrid:  sg,
	}

	if data != nil {
		bindInit := init
		if bindInit == nil {
			bindInit = bind.NearestInit{}
		}
		bound, err := bindInit.Bind(domain, data)
		if err != nil {
			return nil, err
		}
		art.bound = bound
		name := art.schema[0]
		parentIdx := geom.ParentIndices(domain)
		for i, known := range bound.Mask[name] {
			if !known {
				continue
			}
			gi := parentIdx[i]
			art.dataIdx = append(art.dataIdx, gi)
			art.dataPts = append(art.dataPts, sg.Centroid(gi))
			art.dataVals = append(art.dataVals, bound.Vars[name][i])
		}
		if len(art.dataPts) > 0 {
			art.krig = geostat.NewKriging(sf, art.mean, 0)
		}
	}
	return art, nil
}

// Single implements core.Method.
func (m Method) Single(src *rng.Source, proc core.Process, domain geom.Domain, data *table.AttrTable, artifact core.Artifact) (*table.AttrTable, error) {
	art, ok := artifact.(*Artifact)
	if !ok {
		return nil, fmt.Errorf("%w: artifact was not produced by fft.Method", ErrUnsupportedMethod)
	}
	total := len(art.amp)
	nrm := src.Normal()
	noise := make([]complex128, total)
	for i := range noise {
		noise[i] = complex(nrm.Rand(), 0)
	}
	noiseSpec := forwardND(art.shape, noise)
	synth := make([]complex128, total)
	for i, ns := range noiseSpec {
		phase := cmplx.Phase(ns)
		synth[i] = complex(art.amp[i], 0) * cmplx.Exp(complex(0, phase))
	}
	field := inverseND(art.shape, synth)

	z := make([]float64, total)
	var sum, sumsq float64
	for i, v := range field {
		r := real(v)
		z[i] = r
		sum += r
		sumsq += r * r
	}
	n := float64(total)
	meanZ := sum / n
	varZ := sumsq/n - meanZ*meanZ
	rescale := 1.0
	if varZ > 0 {
		rescale = math.Sqrt(art.sill / varZ)
	}
	for i := range z {
		z[i] = art.mean + (z[i]-meanZ)*rescale
	}

	if art.krig != nil {
		z = art.conditionKriging(z)
	}

	name := art.schema[0]
	var out *table.AttrTable
	if art.bound != nil {
		// Clone gives this realization its own buffer already carrying the
		// conditioning mask at the right cells, rather than re-deriving it
		// from dataIdx/parentIdx here.
		out = art.bound.Clone().KeepOnly(name)
	} else {
		out = table.NewAttrTable(domain, name)
	}
	parentIdx := geom.ParentIndices(domain)
	for i := range out.Vars[name] {
		out.Vars[name][i] = z[parentIdx[i]]
	}
	return out, nil
}

// conditionKriging applies Kriging-residual-substitution conditioning:
// Z_cond(x) = Z_SK(x) + (Z_uncond(x) - Z_SK_of_Zuncond(x)), substituting the
// unconditional realization's own values at the conditioning locations as
// pseudo-data for the second term.
func (art *Artifact) conditionKriging(z []float64) []float64 {
	pseudoVals := make([]float64, len(art.dataIdx))
	for i, gi := range art.dataIdx {
		pseudoVals[i] = z[gi]
	}
	out := make([]float64, len(z))
	for gi := range z {
		target := art.sgrid.Centroid(gi)
		mReal, _, err1 := art.krig.FitPredict(art.dataPts, art.dataVals, art.mean, target)
		mPseudo, _, err2 := art.krig.FitPredict(art.dataPts, pseudoVals, art.mean, target)
		if err1 != nil || err2 != nil {
			out[gi] = z[gi]
			continue
		}
		out[gi] = mReal + (z[gi] - mPseudo)
	}
	return out
}

// toroidalLag returns the minimum-image (circular) separation distance of
// linear index i from the zero-lag origin, used to build a circulant
// covariance embedding suitable for the FFT.
func toroidalLag(shape []int, step geom.Point, i int) float64 {
	strides := stridesOf(shape)
	var sum float64
	for d, s := range shape {
		coord := (i / strides[d]) % s
		lag := coord
		if s-coord < lag {
			lag = s - coord
		}
		v := float64(lag) * step[d]
		sum += v * v
	}
	return math.Sqrt(sum)
}

func stridesOf(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for d := len(shape) - 1; d >= 0; d-- {
		strides[d] = acc
		acc *= shape[d]
	}
	return strides
}

// forwardND applies the unnormalized forward complex DFT along every axis
// of shape in turn.
func forwardND(shape []int, data []complex128) []complex128 {
	return transformND(shape, data, false)
}

// inverseND applies the normalized inverse complex DFT along every axis of
// shape in turn.
func inverseND(shape []int, data []complex128) []complex128 {
	return transformND(shape, data, true)
}

func transformND(shape []int, data []complex128, inverse bool) []complex128 {
	out := append([]complex128(nil), data...)
	strides := stridesOf(shape)
	total := len(data)
	for axis, n := range shape {
		if n <= 1 {
			continue
		}
		stride := strides[axis]
		t := fourier.NewCmplxFFT(n)
		seq := make([]complex128, n)
		for base := 0; base < total; base++ {
			if (base/stride)%n != 0 {
				continue
			}
			for k := 0; k < n; k++ {
				seq[k] = out[base+k*stride]
			}
			var res []complex128
			if inverse {
				res = t.Sequence(nil, seq)
			} else {
				res = t.Coefficients(nil, seq)
			}
			for k := 0; k < n; k++ {
				out[base+k*stride] = res[k]
			}
		}
	}
	return out
}

func dataDomain(data *table.AttrTable) geom.Domain {
	if data == nil {
		return nil
	}
	return data.Domain
}
