// Package seq implements spec.md §4.5: sequential Gaussian/indicator
// simulation by path traversal with per-cell Kriging on a local
// neighborhood, grounded on the teacher's neighbors.go masked-query idiom
// (generalized in package neighbor) and gonum's stat/distuv for the prior
// and posterior draws.
package seq

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gostoch/fieldsim/bind"
	"github.com/gostoch/fieldsim/core"
	"github.com/gostoch/fieldsim/geom"
	"github.com/gostoch/fieldsim/geostat"
	"github.com/gostoch/fieldsim/neighbor"
	"github.com/gostoch/fieldsim/rng"
	"github.com/gostoch/fieldsim/scale"
	"github.com/gostoch/fieldsim/table"
)

// DefaultMaxNeigh is the default maximum neighborhood size (spec §9 Open
// Question: source snapshots vary between 10, 26, and 36; this engine
// fixes 26).
const DefaultMaxNeigh = 26

var (
	// ErrShapeMismatch is the ShapeMismatch error kind of spec §7.
	ErrShapeMismatch = errors.New("seq: mean/prob length does not match variate count")
	// ErrUnsupportedMethod covers a process kind SEQ does not know how to simulate.
	ErrUnsupportedMethod = errors.New("seq: unsupported process kind")
)

// Neighborhood is the closed enum of spec §9's design note replacing the
// "neighborhood = :range symbol or nothing" sentinel parameter.
type Neighborhood struct {
	Kind NeighborhoodKind
	Ball *neighbor.MetricBall
}

// NeighborhoodKind distinguishes the three Neighborhood variants.
type NeighborhoodKind int

const (
	// NeighborhoodNone performs pure k-nearest search with no ball restriction.
	NeighborhoodNone NeighborhoodKind = iota
	// NeighborhoodAutoFromRange uses MetricBall(range(func)) as the ball.
	NeighborhoodAutoFromRange
	// NeighborhoodBall uses the explicitly supplied ball.
	NeighborhoodBall
)

// Method is the SEQ simulation engine.
type Method struct {
	Path           PathKind
	Neighborhood   Neighborhood
	MinNeigh       int
	MaxNeigh       int
}

// Name implements core.Method.
func (Method) Name() string { return "seq" }

// Artifact is the preprocessed SEQ state.
type Artifact struct {
	domain   geom.Domain
	schema   []string
	alpha    float64
	sdomain  geom.Domain
	index    *neighbor.Index
	ball     *neighbor.MetricBall
	minNeigh int
	maxNeigh int
	bound    *table.AttrTable
	path     PathKind

	// Gaussian model
	gaussianFunc geostat.Func
	mean         []float64

	// Indicator model
	indicatorFunc geostat.Func
	prob          []float64
}

// Preprocess implements core.Method.
func (m Method) Preprocess(src *rng.Source, proc core.Process, init core.Init, domain geom.Domain, data *table.AttrTable) (core.Artifact, error) {
	var (
		f      geostat.Func
		schema []string
		mean   []float64
		prob   []float64
		kind   = "gaussian"
	)
	switch p := proc.(type) {
	case *core.GaussianProcess:
		f = p.Func
		schema = p.Schema()
		mean = p.Mean
		if len(mean) != f.VariateCount() {
			return nil, fmt.Errorf("%w: |mean|=%d, variate_count=%d", ErrShapeMismatch, len(mean), f.VariateCount())
		}
	case *core.IndicatorProcess:
		f = p.Func
		schema = p.Schema()
		prob = p.Prob
		kind = "indicator"
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedMethod, proc)
	}

	alpha := scale.Factor(domain, dataDomain(data), f)
	sdomain := scale.Domain(domain, alpha)
	sf := scale.Func(f, alpha)

	var ball *neighbor.MetricBall
	switch m.Neighborhood.Kind {
	case NeighborhoodBall:
		ball = m.Neighborhood.Ball
	case NeighborhoodAutoFromRange:
		ball = &neighbor.MetricBall{Radius: sf.Range()}
	}

	minNeigh := m.MinNeigh
	if minNeigh < 1 {
		minNeigh = 1
	}
	maxNeigh := m.MaxNeigh
	if maxNeigh < 1 {
		maxNeigh = DefaultMaxNeigh
	}
	if maxNeigh > domain.Len() {
		maxNeigh = domain.Len()
	}
	if minNeigh > maxNeigh {
		minNeigh = maxNeigh
	}

	var bound *table.AttrTable
	var err error
	if data != nil {
		bindInit := init
		if bindInit == nil {
			bindInit = bind.NearestInit{}
		}
		bound, err = bindInit.Bind(domain, data)
		if err != nil {
			return nil, err
		}
	}

	path := m.Path
	if data != nil && m.Path == RasterPath {
		path = SourcePath
	}

	art := &Artifact{
		domain:   domain,
		schema:   schema,
		alpha:    alpha,
		sdomain:  sdomain,
		index:    neighbor.New(sdomain),
		ball:     ball,
		minNeigh: minNeigh,
		maxNeigh: maxNeigh,
		bound:    bound,
		path:     path,
	}
	if kind == "gaussian" {
		art.gaussianFunc = sf
		art.mean = mean
	} else {
		art.indicatorFunc = sf
		art.prob = prob
	}
	return art, nil
}

// Single implements core.Method.
func (m Method) Single(src *rng.Source, proc core.Process, domain geom.Domain, data *table.AttrTable, artifact core.Artifact) (*table.AttrTable, error) {
	art, ok := artifact.(*Artifact)
	if !ok {
		return nil, fmt.Errorf("%w: artifact was not produced by seq.Method", ErrUnsupportedMethod)
	}
	if art.gaussianFunc != nil {
		return art.simulateGaussian(src, domain)
	}
	return art.simulateIndicator(src, domain)
}

func (art *Artifact) simulateGaussian(src *rng.Source, domain geom.Domain) (*table.AttrTable, error) {
	name := art.schema[0]
	var out *table.AttrTable
	done := make([]bool, domain.Len())

	if art.bound != nil {
		// Clone gives this realization its own buffer already seeded with
		// the conditioning data and mask, rather than copying cell-by-cell.
		out = art.bound.Clone().KeepOnly(name)
		for i, known := range out.Mask[name] {
			if known {
				done[i] = true
			}
		}
	} else {
		out = table.NewAttrTable(domain, name)
	}

	prior := distuv.Normal{Mu: art.mean[0], Sigma: sqrt(art.gaussianFunc.Sill().At(0, 0)), Src: src}
	kriging := geostat.NewKriging(art.gaussianFunc, art.mean[0], 0)

	order := Path(art.path, domain, src, art.bound)
	for _, i := range order {
		if done[i] {
			continue
		}
		center := art.sdomain.Centroid(i)
		neighbors := art.index.Search(center, art.maxNeigh, done, art.ball)
		if len(neighbors) < art.minNeigh {
			out.Vars[name][i] = prior.Rand()
			done[i] = true
			continue
		}
		centroids := make([]geom.Point, len(neighbors))
		values := make([]float64, len(neighbors))
		for k, nb := range neighbors {
			centroids[k] = art.sdomain.Centroid(nb)
			values[k] = out.Vars[name][nb]
		}
		predMean, predVar, err := kriging.FitPredict(centroids, values, art.mean[0], center)
		if err != nil || predVar < 0 {
			out.Vars[name][i] = prior.Rand()
			done[i] = true
			continue
		}
		draw := distuv.Normal{Mu: predMean, Sigma: sqrt(predVar), Src: src}
		out.Vars[name][i] = draw.Rand()
		done[i] = true
	}
	return out, nil
}

func (art *Artifact) simulateIndicator(src *rng.Source, domain geom.Domain) (*table.AttrTable, error) {
	name := art.schema[0]
	var out *table.AttrTable
	done := make([]bool, domain.Len())
	nCat := len(art.prob)

	// One-hot encode conditioning data: the bound table stores "category"
	// as a 1-based category index; convert to per-category indicator masks
	// for Kriging.
	oneHot := make([][]float64, nCat)
	for c := 0; c < nCat; c++ {
		oneHot[c] = make([]float64, domain.Len())
	}
	if art.bound != nil {
		// Clone seeds this realization's own buffer with the bound category
		// indices and mask; oneHot is still derived by walking the mask
		// since it needs per-category indicator columns Clone does not
		// produce.
		out = art.bound.Clone().KeepOnly(name)
		for i, known := range out.Mask[name] {
			if !known {
				continue
			}
			cat := int(out.Vars[name][i]) - 1
			if cat < 0 || cat >= nCat {
				out.Mask[name][i] = false
				continue
			}
			done[i] = true
			oneHot[cat][i] = 1
		}
	} else {
		out = table.NewAttrTable(domain, name)
	}

	prior := distuv.NewCategorical(art.prob, src)
	krigings := make([]*geostat.Kriging, nCat)
	for c := range krigings {
		krigings[c] = geostat.NewKriging(art.indicatorFunc, art.prob[c], c)
	}

	order := Path(art.path, domain, src, art.bound)
	for _, i := range order {
		if done[i] {
			continue
		}
		center := art.sdomain.Centroid(i)
		neighbors := art.index.Search(center, art.maxNeigh, done, art.ball)
		if len(neighbors) < art.minNeigh {
			cat := int(prior.Rand())
			out.Vars[name][i] = float64(cat + 1)
			done[i] = true
			continue
		}
		centroids := make([]geom.Point, len(neighbors))
		probs := make([]float64, nCat)
		var sum float64
		failed := false
		for c := 0; c < nCat; c++ {
			values := make([]float64, len(neighbors))
			for k, nb := range neighbors {
				centroids[k] = art.sdomain.Centroid(nb)
				values[k] = oneHot[c][nb]
			}
			predMean, _, err := krigings[c].FitPredict(centroids, values, art.prob[c], center)
			if err != nil {
				failed = true
				break
			}
			if predMean < 0 {
				predMean = 0
			}
			if predMean > 1 {
				predMean = 1
			}
			probs[c] = predMean
			sum += predMean
		}
		if failed || sum <= 0 {
			cat := int(prior.Rand())
			out.Vars[name][i] = float64(cat + 1)
			done[i] = true
			continue
		}
		for c := range probs {
			probs[c] /= sum
		}
		cat := int(distuv.NewCategorical(probs, src).Rand())
		out.Vars[name][i] = float64(cat + 1)
		done[i] = true
	}
	return out, nil
}

func sqrt(x float64) float64 {
	if x < 0 {
		x = 0
	}
	return math.Sqrt(x)
}

func dataDomain(data *table.AttrTable) geom.Domain {
	if data == nil {
		return nil
	}
	return data.Domain
}
