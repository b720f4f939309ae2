// Package core defines the plug-in contract shared by the orchestrator and
// every simulation engine (spec.md §6): the Process/Method capability sets,
// the opaque Artifact each engine preprocesses once, and the Init binding
// strategy. It is intentionally dependency-light (geom, geostat, rng, table
// and gonum's mat only) so that both the root orchestrator and every engine/* package can
// depend on it without an import cycle.
package core

import (
	"gonum.org/v1/gonum/mat"

	"github.com/gostoch/fieldsim/geom"
	"github.com/gostoch/fieldsim/geostat"
	"github.com/gostoch/fieldsim/rng"
	"github.com/gostoch/fieldsim/table"
)

// Process is a descriptor of a random field or point process.
type Process interface {
	// Schema returns the output variable names this process produces.
	Schema() []string
}

// Artifact is the immutable, shared-read-only result of a Method's
// Preprocess step. Each engine defines its own concrete artifact type; the
// orchestrator only ever passes it back opaquely.
type Artifact interface{}

// Init is the data-binding strategy (spec §4.2), structurally satisfied by
// bind.NearestInit{} and bind.ExplicitInit{}.
type Init interface {
	Bind(domain geom.Domain, data *table.AttrTable) (*table.AttrTable, error)
}

// Method is the plug-in contract a simulation algorithm implements (spec
// §6): Preprocess runs at most once per Draw/DrawN call (a repeated call on
// the same process, domain, data and method reuses the orchestrator's cached
// artifact); Single runs once per realization, consuming one child PRNG
// stream.
type Method interface {
	Name() string
	Preprocess(src *rng.Source, proc Process, init Init, domain geom.Domain, data *table.AttrTable) (Artifact, error)
	Single(src *rng.Source, proc Process, domain geom.Domain, data *table.AttrTable, artifact Artifact) (*table.AttrTable, error)
}

// GaussianProcess is a Gaussian random field with the given covariance
// structure and mean vector (one entry per variate).
type GaussianProcess struct {
	Func geostat.Func
	Mean []float64
}

// Schema returns "value" for a univariate process, or "value1".."valueN"
// for a multivariate one.
func (p *GaussianProcess) Schema() []string {
	n := p.Func.VariateCount()
	if n <= 1 {
		return []string{"value"}
	}
	names := make([]string, n)
	for i := range names {
		names[i] = variateName(i)
	}
	return names
}

func variateName(i int) string {
	return "value" + string(rune('1'+i))
}

// IndicatorProcess is a categorical random field with category
// probabilities Prob (summing to 1) driven by the same covariance family.
type IndicatorProcess struct {
	Func geostat.Func
	Prob []float64
}

// Schema returns a single "category" output variable.
func (p *IndicatorProcess) Schema() []string { return []string{"category"} }

// LindgrenProcess is the mesh-only SPDE Gaussian process.
type LindgrenProcess struct {
	Range float64
	Sill  float64
	Mesh  Mesh
}

// Schema returns a single "value" output variable.
func (p *LindgrenProcess) Schema() []string { return []string{"value"} }

// Mesh is the subset of the geometry collaborator's mesh interface the
// Lindgren/SPDE plug-in consumes (spec §6): vertices plus the finite-element
// Laplace and mass ("measure") matrices used to assemble the SPDE precision
// operator.
type Mesh interface {
	Vertices() []geom.Point
	LaplaceMatrix() *mat.Dense
	MeasureMatrix() *mat.Dense
}

// OpaqueProcess is the plug-in shape for external texture-synthesis
// back-ends (image-quilting, Turing-pattern, stratigraphic-record
// processes); the core only defines the shape and never dispatches on Name
// itself (spec §1, §6).
type OpaqueProcess struct {
	Name   string
	Params map[string]interface{}
	Output []string
	Method Method
}

// Schema returns the declared output variable names.
func (p *OpaqueProcess) Schema() []string { return p.Output }
