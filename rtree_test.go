package canopy

import "testing"

func boxAt(i int) Aabb2D[float64] {
	x := float64(i) * 10
	return Aabb2D[float64]{MinX: x, MinY: 0, MaxX: x + 1, MaxY: 1}
}

func TestRTreeInsertAndQueryPoint(t *testing.T) {
	rt := newRTree[float64](RTreeConfig{})
	var keys []Key
	for i := 0; i < 20; i++ {
		k := Key{slot: uint32(i), gen: 1}
		keys = append(keys, k)
		rt.insert(k, boxAt(i))
	}
	if rt.len() != 20 {
		t.Fatalf("len() = %d, want 20", rt.len())
	}
	for i, k := range keys {
		var hits []Key
		b := boxAt(i)
		cx := (b.MinX + b.MaxX) / 2
		rt.queryPoint(cx, 0.5, func(h Key) bool { hits = append(hits, h); return true })
		found := false
		for _, h := range hits {
			if h == k {
				found = true
			}
		}
		if !found {
			t.Errorf("entry %d not found by queryPoint at its own center", i)
		}
	}
}

func TestRTreeSplitsWhenOverMaxFill(t *testing.T) {
	rt := newRTree[float64](RTreeConfig{MinFill: 2, MaxFill: 4})
	for i := 0; i < 10; i++ {
		rt.insert(Key{slot: uint32(i), gen: 1}, boxAt(i))
	}
	if rt.nodes[rt.root].isLeaf {
		t.Errorf("root should no longer be a leaf after overflow triggers a split")
	}
	// Every live leaf must respect the configured max fill.
	var walk func(idx uint32)
	walk = func(idx uint32) {
		n := rt.nodes[idx]
		if n.isLeaf {
			if len(n.items) > 4 {
				t.Errorf("leaf %d has %d items, want <= 4", idx, len(n.items))
			}
			return
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(rt.root)
}

func TestRTreeRemoveAndCondense(t *testing.T) {
	rt := newRTree[float64](RTreeConfig{MinFill: 2, MaxFill: 4})
	var keys []Key
	for i := 0; i < 30; i++ {
		k := Key{slot: uint32(i), gen: 1}
		keys = append(keys, k)
		rt.insert(k, boxAt(i))
	}
	for i := 0; i < 25; i++ {
		rt.remove(keys[i])
	}
	if rt.len() != 5 {
		t.Fatalf("len() after removals = %d, want 5", rt.len())
	}
	for i := 25; i < 30; i++ {
		var hits []Key
		b := boxAt(i)
		cx := (b.MinX + b.MaxX) / 2
		rt.queryPoint(cx, 0.5, func(h Key) bool { hits = append(hits, h); return true })
		found := false
		for _, h := range hits {
			if h == keys[i] {
				found = true
			}
		}
		if !found {
			t.Errorf("surviving entry %d should still be queryable after condensation", i)
		}
	}
}

func TestRTreeQueryRect(t *testing.T) {
	rt := newRTree[float64](RTreeConfig{MinFill: 2, MaxFill: 4})
	for i := 0; i < 15; i++ {
		rt.insert(Key{slot: uint32(i), gen: 1}, boxAt(i))
	}
	count := 0
	rt.queryRect(Aabb2D[float64]{MinX: -1000, MinY: -1000, MaxX: 1000, MaxY: 1000}, func(k Key) bool {
		count++
		return true
	})
	if count != 15 {
		t.Errorf("rect covering everything should yield 15 hits, got %d", count)
	}
}

func TestPickSeedsMaximizesDeadArea(t *testing.T) {
	boxes := []Aabb2D[float64]{
		{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1},
		{MinX: 0.5, MinY: 0.5, MaxX: 1.5, MaxY: 1.5}, // overlaps box 0 heavily
		{MinX: 100, MinY: 100, MaxX: 101, MaxY: 101}, // far from everything
	}
	i, j := pickSeeds(boxes)
	if i != 2 && j != 2 {
		t.Errorf("pickSeeds(%v) = (%d, %d), expected the far-away box to be one seed", boxes, i, j)
	}
}
