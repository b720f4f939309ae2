package neighbor

import (
	"testing"

	"github.com/gostoch/fieldsim/geom"
)

func TestSearchOrdersByDistance(t *testing.T) {
	dom := geom.NewGrid([]int{10}, nil, nil) // centroids 0.5..9.5
	idx := New(dom)
	mask := make([]bool, dom.Len())
	for i := range mask {
		mask[i] = true
	}
	got := idx.Search(geom.Point{5}, 3, mask, nil)
	want := []int{4, 5, 3} // centroids 4.5,5.5,3.5 at distances 0.5,0.5,1.5; ties by index
	if len(got) != 3 {
		t.Fatalf("Search returned %d results, want 3", len(got))
	}
	if got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Search(5,3) = %v, want first two to be %v", got, want[:2])
	}
}

func TestSearchHonorsMask(t *testing.T) {
	dom := geom.NewGrid([]int{5}, nil, nil)
	idx := New(dom)
	mask := []bool{true, true, true, true, true}
	mask[2] = false // nearest cell to point 2.5 is excluded
	got := idx.Search(geom.Point{2.5}, 1, mask, nil)
	if len(got) != 1 || got[0] == 2 {
		t.Errorf("Search ignored mask: got %v", got)
	}
}

func TestSearchMetricBall(t *testing.T) {
	dom := geom.NewGrid([]int{10}, nil, nil)
	idx := New(dom)
	mask := make([]bool, dom.Len())
	for i := range mask {
		mask[i] = true
	}
	ball := &MetricBall{Radius: 1}
	got := idx.Search(geom.Point{5}, 10, mask, ball)
	for _, i := range got {
		c := dom.Centroid(i)
		if c.Sub(geom.Point{5}).Norm() > 1 {
			t.Errorf("Search with ball=1 returned out-of-radius index %d (dist %v)", i, c.Sub(geom.Point{5}).Norm())
		}
	}
}

func TestSearchZeroKReturnsNil(t *testing.T) {
	dom := geom.NewGrid([]int{3}, nil, nil)
	idx := New(dom)
	if got := idx.Search(geom.Point{0}, 0, nil, nil); got != nil {
		t.Errorf("Search(k=0) = %v, want nil", got)
	}
}
