package fieldsim

import "testing"

func TestOptionsWorkersDefaultsToMasterOnly(t *testing.T) {
	got := DefaultOptions().workers()
	if len(got) != 1 || got[0] != Master {
		t.Errorf("workers() = %v, want [Master]", got)
	}
}

func TestOptionsWorkersHonorsExplicitList(t *testing.T) {
	opts := Options{Workers: []WorkerID{1, 2, 3}}
	got := opts.workers()
	if len(got) != 3 {
		t.Fatalf("workers() = %v, want 3 entries", got)
	}
}

func TestContainsMaster(t *testing.T) {
	if containsMaster([]WorkerID{1, 2, 3}) {
		t.Error("containsMaster = true, want false")
	}
	if !containsMaster([]WorkerID{1, Master, 3}) {
		t.Error("containsMaster = false, want true")
	}
}
