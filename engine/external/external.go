// Package external defines the adapter shape for third-party
// texture-synthesis back-ends (image quilting, Turing-pattern growth,
// stratigraphic-record processes) named in SPEC_FULL.md §4.10. No concrete
// back-end ships in this module; Registry lets a caller wire one in by name
// without the core orchestrator ever dispatching on that name itself (spec
// §1, §6).
package external

import (
	"errors"
	"fmt"

	"github.com/gostoch/fieldsim/core"
	"github.com/gostoch/fieldsim/geom"
	"github.com/gostoch/fieldsim/rng"
	"github.com/gostoch/fieldsim/table"
)

// ErrUnknownProcess is returned when an OpaqueProcess names a back-end that
// was never registered.
var ErrUnknownProcess = errors.New("external: no method registered for this process name")

// Registry maps an OpaqueProcess.Name to the core.Method that implements it.
type Registry struct {
	methods map[string]core.Method
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{methods: make(map[string]core.Method)}
}

// Register associates name with method, overwriting any prior registration.
func (r *Registry) Register(name string, method core.Method) {
	r.methods[name] = method
}

// Method implements core.Method by dispatching Preprocess/Single to
// whichever back-end is registered under the OpaqueProcess's Name, or the
// process's own embedded Method if it carries one directly.
type Method struct {
	Registry *Registry
}

// Name implements core.Method.
func (Method) Name() string { return "external" }

func (m Method) resolve(proc core.Process) (core.Method, error) {
	op, ok := proc.(*core.OpaqueProcess)
	if !ok {
		return nil, fmt.Errorf("external: %w: got %T", ErrUnknownProcess, proc)
	}
	if op.Method != nil {
		return op.Method, nil
	}
	if m.Registry != nil {
		if mm, ok := m.Registry.methods[op.Name]; ok {
			return mm, nil
		}
	}
	return nil, fmt.Errorf("external: %w: %q", ErrUnknownProcess, op.Name)
}

// Preprocess implements core.Method by delegating to the resolved back-end.
func (m Method) Preprocess(src *rng.Source, proc core.Process, init core.Init, domain geom.Domain, data *table.AttrTable) (core.Artifact, error) {
	backend, err := m.resolve(proc)
	if err != nil {
		return nil, err
	}
	return backend.Preprocess(src, proc, init, domain, data)
}

// Single implements core.Method by delegating to the resolved back-end.
func (m Method) Single(src *rng.Source, proc core.Process, domain geom.Domain, data *table.AttrTable, artifact core.Artifact) (*table.AttrTable, error) {
	backend, err := m.resolve(proc)
	if err != nil {
		return nil, err
	}
	return backend.Single(src, proc, domain, data, artifact)
}
