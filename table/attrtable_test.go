package table

import (
	"testing"

	"github.com/gostoch/fieldsim/geom"
)

func TestCloneIsIndependentDeepCopy(t *testing.T) {
	domain := geom.NewGrid([]int{3}, nil, nil)
	orig := NewAttrTable(domain, "value")
	orig.Vars["value"][0] = 1
	orig.Mask["value"][0] = true

	clone := orig.Clone()
	clone.Vars["value"][0] = 99
	clone.Mask["value"][1] = true

	if orig.Vars["value"][0] != 1 {
		t.Errorf("mutating clone changed original value: %v", orig.Vars["value"][0])
	}
	if orig.Mask["value"][1] {
		t.Error("mutating clone changed original mask")
	}
	if clone.Vars["value"][0] != 99 || !clone.Mask["value"][1] {
		t.Error("clone did not retain its own mutation")
	}
}

func TestKeepOnlyDropsUnrelatedVariables(t *testing.T) {
	domain := geom.NewGrid([]int{2}, nil, nil)
	t1 := NewAttrTable(domain, "value", "extra")
	t1.Vars["value"][0] = 5
	t1.Mask["value"][0] = true
	t1.Vars["extra"][0] = 7

	t1.KeepOnly("value")

	if _, ok := t1.Vars["extra"]; ok {
		t.Error("KeepOnly left an unrelated variable in place")
	}
	if t1.Vars["value"][0] != 5 || !t1.Mask["value"][0] {
		t.Error("KeepOnly altered the variable it was told to keep")
	}
}

func TestKeepOnlyFillsMissingVariable(t *testing.T) {
	domain := geom.NewGrid([]int{2}, nil, nil)
	t1 := NewAttrTable(domain, "other")

	t1.KeepOnly("value")

	if len(t1.Vars["value"]) != domain.Len() || len(t1.Mask["value"]) != domain.Len() {
		t.Fatalf("KeepOnly did not allocate a missing variable sized to the domain")
	}
	for _, known := range t1.Mask["value"] {
		if known {
			t.Error("KeepOnly-allocated variable should start fully unknown")
		}
	}
}
