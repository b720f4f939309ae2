// Package geom supplies the geometry collaborator described by the
// simulation engine: domains of embedded elements, regular grids, and
// views onto grids. It plays the role the teacher's github.com/ctessum/geom
// package plays for InMAP's variable grid, generalized to arbitrary
// dimension and to point-set (non-gridded) domains.
package geom

import (
	"fmt"
	"math"
)

// Point is a location in n-dimensional space.
type Point []float64

// Dims reports the dimensionality of p.
func (p Point) Dims() int { return len(p) }

// Sub returns p - q element-wise.
func (p Point) Sub(q Point) Point {
	out := make(Point, len(p))
	for i := range p {
		out[i] = p[i] - q[i]
	}
	return out
}

// Norm returns the Euclidean length of p.
func (p Point) Norm() float64 {
	var sum float64
	for _, v := range p {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min, Max Point
}

// Extent returns the largest side length of b.
func (b Bounds) Extent() float64 {
	var max float64
	for i := range b.Min {
		if d := b.Max[i] - b.Min[i]; d > max {
			max = d
		}
	}
	return max
}

// MinSide returns the smallest side length of b.
func (b Bounds) MinSide() float64 {
	min := math.Inf(1)
	for i := range b.Min {
		if d := b.Max[i] - b.Min[i]; d < min {
			min = d
		}
	}
	return min
}

// Domain is an ordered sequence of elements embedded in space, each with a
// centroid. element_count(dom) = Len(dom); centroid(dom, i) = Centroid(i).
type Domain interface {
	Len() int
	Centroid(i int) Point
	Bounds() Bounds
}

// Gridded is a Domain with a lattice shape.
type Gridded interface {
	Domain
	Dims() []int
}

// Viewed is a Domain that is a subset of indices into a parent grid.
type Viewed interface {
	Domain
	ParentGrid() *Grid
	ParentIndices() []int
}

// Grid is a regular lattice of cells with a shape tuple and cell spacing.
// Centroids are laid out in row-major order over Shape.
type Grid struct {
	Shape  []int
	Origin Point
	Step   Point
}

// NewGrid builds a Grid with the given shape; origin defaults to the cell
// centers starting at step/2, and step defaults to 1 in every dimension,
// matching the teacher's CartesianGrid convention of unit-spaced cells
// centered at half-integers.
func NewGrid(shape []int, origin, step Point) *Grid {
	g := &Grid{Shape: append([]int(nil), shape...)}
	n := len(shape)
	if step == nil {
		step = make(Point, n)
		for i := range step {
			step[i] = 1
		}
	}
	if origin == nil {
		origin = make(Point, n)
		for i := range origin {
			origin[i] = step[i] / 2
		}
	}
	g.Origin = origin
	g.Step = step
	return g
}

// Len returns the number of cells in the grid.
func (g *Grid) Len() int {
	n := 1
	for _, s := range g.Shape {
		n *= s
	}
	return n
}

// Dims returns the grid's shape tuple.
func (g *Grid) Dims() []int { return g.Shape }

// subscripts converts a linear index to per-dimension subscripts (row-major,
// last dimension varying fastest).
func (g *Grid) subscripts(i int) []int {
	sub := make([]int, len(g.Shape))
	for d := len(g.Shape) - 1; d >= 0; d-- {
		sub[d] = i % g.Shape[d]
		i /= g.Shape[d]
	}
	return sub
}

// Centroid returns the center point of cell i.
func (g *Grid) Centroid(i int) Point {
	sub := g.subscripts(i)
	p := make(Point, len(sub))
	for d, s := range sub {
		p[d] = g.Origin[d] + float64(s)*g.Step[d]
	}
	return p
}

// Bounds returns the bounding box of the grid's cell centers, expanded by a
// half cell in every dimension to cover the full cell extents.
func (g *Grid) Bounds() Bounds {
	n := len(g.Shape)
	min := make(Point, n)
	max := make(Point, n)
	for d := 0; d < n; d++ {
		min[d] = g.Origin[d] - g.Step[d]/2
		max[d] = g.Origin[d] + (float64(g.Shape[d])-0.5)*g.Step[d]
	}
	return Bounds{Min: min, Max: max}
}

// View is a non-empty subset of indices into a parent Grid. parent(view(grid,
// I)) reproduces the originating grid and parent_indices(view) reproduces I.
type View struct {
	Parent  *Grid
	Indices []int
}

// NewView constructs a View, panicking if indices is empty (views must be
// non-empty per the domain invariant).
func NewView(parent *Grid, indices []int) *View {
	if len(indices) == 0 {
		panic(fmt.Errorf("geom: view of %v must not be empty", parent.Shape))
	}
	return &View{Parent: parent, Indices: append([]int(nil), indices...)}
}

// Len returns the number of active cells in the view.
func (v *View) Len() int { return len(v.Indices) }

// Centroid returns the centroid of the i-th active cell.
func (v *View) Centroid(i int) Point { return v.Parent.Centroid(v.Indices[i]) }

// ParentGrid returns the grid this view was taken from.
func (v *View) ParentGrid() *Grid { return v.Parent }

// ParentIndices returns the parent-grid indices this view selects.
func (v *View) ParentIndices() []int { return v.Indices }

// Bounds returns the bounding box of the view's active centroids.
func (v *View) Bounds() Bounds {
	min := append(Point(nil), v.Centroid(0)...)
	max := append(Point(nil), v.Centroid(0)...)
	for i := 1; i < v.Len(); i++ {
		c := v.Centroid(i)
		for d := range c {
			if c[d] < min[d] {
				min[d] = c[d]
			}
			if c[d] > max[d] {
				max[d] = c[d]
			}
		}
	}
	return Bounds{Min: min, Max: max}
}

// PointSet is a domain of arbitrary, unordered points (not a lattice).
type PointSet struct {
	Points []Point
}

// Len returns the number of points.
func (p *PointSet) Len() int { return len(p.Points) }

// Centroid returns point i (a point set's "cell" is the point itself).
func (p *PointSet) Centroid(i int) Point { return p.Points[i] }

// Bounds returns the bounding box of the point set.
func (p *PointSet) Bounds() Bounds {
	min := append(Point(nil), p.Points[0]...)
	max := append(Point(nil), p.Points[0]...)
	for _, pt := range p.Points[1:] {
		for d := range pt {
			if pt[d] < min[d] {
				min[d] = pt[d]
			}
			if pt[d] > max[d] {
				max[d] = pt[d]
			}
		}
	}
	return Bounds{Min: min, Max: max}
}

// ElementCount is a convenience wrapper matching the spec's element_count(dom)
// collaborator call.
func ElementCount(d Domain) int { return d.Len() }

// Parent returns the parent grid of a Viewed domain, or the domain itself if
// it is already a *Grid.
func Parent(d Domain) *Grid {
	switch v := d.(type) {
	case *Grid:
		return v
	case Viewed:
		return v.ParentGrid()
	default:
		return nil
	}
}

// ParentIndices returns the parent-grid indices selected by a Viewed domain,
// or 0..Len()-1 for any other domain kind.
func ParentIndices(d Domain) []int {
	if v, ok := d.(Viewed); ok {
		return v.ParentIndices()
	}
	idx := make([]int, d.Len())
	for i := range idx {
		idx[i] = i
	}
	return idx
}
