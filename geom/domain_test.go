package geom

import (
	"math"
	"reflect"
	"testing"
)

func TestGridCentroid(t *testing.T) {
	g := NewGrid([]int{2, 3}, nil, nil)
	want := []Point{
		{0.5, 0.5}, {0.5, 1.5}, {0.5, 2.5},
		{1.5, 0.5}, {1.5, 1.5}, {1.5, 2.5},
	}
	for i, w := range want {
		got := g.Centroid(i)
		if !reflect.DeepEqual(got, w) {
			t.Errorf("Centroid(%d) = %v, want %v", i, got, w)
		}
	}
	if g.Len() != 6 {
		t.Errorf("Len() = %d, want 6", g.Len())
	}
}

func TestGridBounds(t *testing.T) {
	g := NewGrid([]int{4}, nil, nil)
	b := g.Bounds()
	if b.Min[0] != 0 || b.Max[0] != 4 {
		t.Errorf("Bounds() = %+v, want Min=0 Max=4", b)
	}
}

func TestViewNonEmpty(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("NewView with empty indices should panic")
		}
	}()
	NewView(NewGrid([]int{2}, nil, nil), nil)
}

func TestViewCentroid(t *testing.T) {
	g := NewGrid([]int{3}, nil, nil)
	v := NewView(g, []int{0, 2})
	if v.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", v.Len())
	}
	if !reflect.DeepEqual(v.Centroid(1), g.Centroid(2)) {
		t.Errorf("Centroid(1) = %v, want %v", v.Centroid(1), g.Centroid(2))
	}
	if !reflect.DeepEqual(v.ParentIndices(), []int{0, 2}) {
		t.Errorf("ParentIndices() = %v, want [0 2]", v.ParentIndices())
	}
}

func TestPointSetBounds(t *testing.T) {
	ps := &PointSet{Points: []Point{{0, 0}, {1, 3}, {-1, 2}}}
	b := ps.Bounds()
	if b.Min[0] != -1 || b.Min[1] != 0 || b.Max[0] != 1 || b.Max[1] != 3 {
		t.Errorf("Bounds() = %+v", b)
	}
}

func TestPointNorm(t *testing.T) {
	p := Point{3, 4}
	if got := p.Norm(); math.Abs(got-5) > 1e-12 {
		t.Errorf("Norm() = %v, want 5", got)
	}
}

func TestParentAndParentIndices(t *testing.T) {
	g := NewGrid([]int{3}, nil, nil)
	v := NewView(g, []int{1, 2})
	if Parent(v) != g {
		t.Errorf("Parent(view) did not return the originating grid")
	}
	if !reflect.DeepEqual(ParentIndices(v), []int{1, 2}) {
		t.Errorf("ParentIndices(view) = %v, want [1 2]", ParentIndices(v))
	}
	ps := &PointSet{Points: []Point{{0}, {1}}}
	if !reflect.DeepEqual(ParentIndices(ps), []int{0, 1}) {
		t.Errorf("ParentIndices(pointset) = %v, want [0 1]", ParentIndices(ps))
	}
}
