package canopy

import "testing"

func collectPoint[T Scalar, P comparable](t *testing.T, ix *Index[T, P], x, y T) []P {
	t.Helper()
	var out []P
	for _, p := range ix.QueryPoint(x, y) {
		out = append(out, p)
	}
	return out
}

func TestIndexInsertCommitProducesAdded(t *testing.T) {
	ix := NewFlatVec[float64, string]()
	ix.Insert(Aabb2D[float64]{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}, "a")
	dmg := ix.Commit()
	if len(dmg.Added) != 1 || len(dmg.Removed) != 0 || len(dmg.Moved) != 0 {
		t.Fatalf("Commit() = %+v, want one Added record", dmg)
	}
}

func TestIndexInsertThenRemoveSameBatchNoDamage(t *testing.T) {
	ix := NewFlatVec[float64, string]()
	k := ix.Insert(Aabb2D[float64]{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}, "a")
	ix.Remove(k)
	dmg := ix.Commit()
	if !dmg.IsEmpty() {
		t.Errorf("insert-then-remove in the same batch should produce no damage, got %+v", dmg)
	}
	if ix.Len() != 0 {
		t.Errorf("Len() = %d, want 0", ix.Len())
	}
}

func TestIndexInsertThenUpdateSameBatchCoalesces(t *testing.T) {
	ix := NewFlatVec[float64, string]()
	k := ix.Insert(Aabb2D[float64]{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}, "a")
	ix.Update(k, Aabb2D[float64]{MinX: 10, MinY: 10, MaxX: 11, MaxY: 11})
	dmg := ix.Commit()
	if len(dmg.Added) != 1 || len(dmg.Moved) != 0 {
		t.Fatalf("Commit() = %+v, want exactly one coalesced Added record at the final box", dmg)
	}
	if dmg.Added[0].MinX != 10 {
		t.Errorf("coalesced add should reflect the final box, got %v", dmg.Added[0])
	}
}

func TestIndexUpdateThenRemoveAcrossBatchesCoalesces(t *testing.T) {
	ix := NewFlatVec[float64, string]()
	k := ix.Insert(Aabb2D[float64]{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}, "a")
	ix.Commit()
	ix.Update(k, Aabb2D[float64]{MinX: 5, MinY: 5, MaxX: 6, MaxY: 6})
	ix.Remove(k)
	dmg := ix.Commit()
	if len(dmg.Removed) != 1 || len(dmg.Moved) != 0 {
		t.Fatalf("Commit() = %+v, want a single Removed record at the originally committed box", dmg)
	}
	if dmg.Removed[0].MinX != 0 {
		t.Errorf("removed box should be the last committed box, got %v", dmg.Removed[0])
	}
}

func TestIndexQueryBeforeCommitSeesStaged(t *testing.T) {
	ix := NewFlatVec[float64, string]()
	ix.Insert(Aabb2D[float64]{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}, "a")
	got := collectPoint[float64, string](t, ix, 0.5, 0.5)
	if len(got) != 1 || got[0] != "a" {
		t.Errorf("uncommitted insert should still be visible to queries, got %v", got)
	}
}

func TestIndexMoveScenarioEndToEnd(t *testing.T) {
	ix := NewFlatVec[int64, int]()
	k1 := ix.Insert(Aabb2D[int64]{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}, 1)
	ix.Insert(Aabb2D[int64]{MinX: 5, MinY: 5, MaxX: 15, MaxY: 15}, 2)
	ix.Commit()

	got := collectPoint[int64, int](t, ix, 12, 12)
	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("query_point(12,12) = %v, want [2]", got)
	}

	ix.Update(k1, Aabb2D[int64]{MinX: 20, MinY: 0, MaxX: 30, MaxY: 10})
	dmg := ix.Commit()

	foundMove := false
	for _, m := range dmg.Moved {
		if m.Old == (Aabb2D[int64]{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}) &&
			m.New == (Aabb2D[int64]{MinX: 20, MinY: 0, MaxX: 30, MaxY: 10}) {
			foundMove = true
		}
	}
	if !foundMove {
		t.Errorf("damage.Moved = %+v, want the (0,0,10,10)->(20,0,30,10) move", dmg.Moved)
	}

	got = collectPoint[int64, int](t, ix, 25, 5)
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("query_point(25,5) = %v, want [1]", got)
	}
}

func TestIndexStaleKeyIsNoOp(t *testing.T) {
	ix := NewFlatVec[float64, string]()
	k := ix.Insert(Aabb2D[float64]{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}, "a")
	ix.Commit()
	ix.Remove(k)
	ix.Commit()
	ix.Update(k, Aabb2D[float64]{MinX: 1, MinY: 1, MaxX: 2, MaxY: 2})
	if !ix.entries.IsStale(k) {
		t.Fatalf("key should be stale after removal")
	}
	if got := collectPoint[float64, string](t, ix, 1.5, 1.5); len(got) != 0 {
		t.Errorf("update on a stale key should not resurrect it, got %v", got)
	}
}
