package canopy

import "testing"

func TestHandleTableInsertGet(t *testing.T) {
	ht := newHandleTable[string]()
	k := ht.Insert("a")
	got, ok := ht.Get(k)
	if !ok || got != "a" {
		t.Errorf("Get(%v) = %q, %v; want \"a\", true", k, got, ok)
	}
	if ht.Len() != 1 {
		t.Errorf("Len() = %d, want 1", ht.Len())
	}
}

func TestHandleTableRemoveInvalidatesKey(t *testing.T) {
	ht := newHandleTable[string]()
	k := ht.Insert("a")
	if !ht.Remove(k) {
		t.Errorf("Remove should succeed for a live key")
	}
	if !ht.IsStale(k) {
		t.Errorf("removed key should be stale")
	}
	if ht.Remove(k) {
		t.Errorf("second Remove of the same key should be a no-op")
	}
}

func TestHandleTableSlotRecycleBumpsGeneration(t *testing.T) {
	ht := newHandleTable[string]()
	k1 := ht.Insert("a")
	ht.Remove(k1)
	k2 := ht.Insert("b")
	if k2.slot != k1.slot {
		t.Fatalf("expected slot reuse, got k1.slot=%d k2.slot=%d", k1.slot, k2.slot)
	}
	if k2.gen == k1.gen {
		t.Errorf("recycled slot should bump generation: k1.gen=%d k2.gen=%d", k1.gen, k2.gen)
	}
	if !ht.IsStale(k1) {
		t.Errorf("old key must not resolve to the new occupant")
	}
	got, ok := ht.Get(k2)
	if !ok || got != "b" {
		t.Errorf("Get(k2) = %q, %v; want \"b\", true", got, ok)
	}
}

func TestHandleTableSetStaleNoOp(t *testing.T) {
	ht := newHandleTable[int]()
	k := ht.Insert(1)
	ht.Remove(k)
	if ht.Set(k, 2) {
		t.Errorf("Set on a stale key should report false")
	}
}
