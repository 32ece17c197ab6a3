package canopy

import "testing"

func TestAabbEmpty(t *testing.T) {
	var z Aabb2D[float64]
	if !z.Empty() {
		t.Errorf("zero-value Aabb2D should be empty")
	}
	b := Aabb2D[float64]{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}
	if b.Empty() {
		t.Errorf("unit box should not be empty")
	}
}

func TestAabbIntersectsTouchingEdges(t *testing.T) {
	a := Aabb2D[float64]{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}
	b := Aabb2D[float64]{MinX: 1, MinY: 0, MaxX: 2, MaxY: 1}
	if !a.Intersects(b) {
		t.Errorf("touching boxes should intersect")
	}
	c := Aabb2D[float64]{MinX: 1.1, MinY: 0, MaxX: 2, MaxY: 1}
	if a.Intersects(c) {
		t.Errorf("disjoint boxes should not intersect")
	}
}

func TestAabbIntersectsEmptyOperand(t *testing.T) {
	a := Aabb2D[float64]{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}
	var empty Aabb2D[float64]
	if a.Intersects(empty) {
		t.Errorf("empty operand should never intersect")
	}
}

func TestAabbContainsPoint(t *testing.T) {
	b := Aabb2D[float64]{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	if !b.ContainsPoint(0, 0) || !b.ContainsPoint(10, 10) {
		t.Errorf("edges should count as contained")
	}
	if b.ContainsPoint(10.1, 5) {
		t.Errorf("point outside box should not be contained")
	}
}

func TestAabbUnion(t *testing.T) {
	a := Aabb2D[float64]{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}
	b := Aabb2D[float64]{MinX: 2, MinY: -1, MaxX: 3, MaxY: 0.5}
	u := a.Union(b)
	want := Aabb2D[float64]{MinX: 0, MinY: -1, MaxX: 3, MaxY: 1}
	if u != want {
		t.Errorf("union = %v, want %v", u, want)
	}
}

func TestAabbUnionWithEmpty(t *testing.T) {
	a := Aabb2D[float64]{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}
	var empty Aabb2D[float64]
	if a.Union(empty) != a {
		t.Errorf("union with empty should return the non-empty operand")
	}
	if empty.Union(a) != a {
		t.Errorf("union with empty should return the non-empty operand regardless of order")
	}
}

func TestAabbArea(t *testing.T) {
	b := Aabb2D[int64]{MinX: 0, MinY: 0, MaxX: 4, MaxY: 5}
	if got := b.Area(); got != 20 {
		t.Errorf("area = %v, want 20", got)
	}
	var empty Aabb2D[int64]
	if got := empty.Area(); got != 0 {
		t.Errorf("empty area = %v, want 0", got)
	}
}
