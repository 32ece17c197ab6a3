package canopy

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestComposeAffineIdentity(t *testing.T) {
	got := ComposeAffine(0, 0, 1, 1, 0, 0, 0, 0, 0)
	want := IdentityAffine
	for i := range got {
		assertNear(t, "identity", got[i], want[i])
	}
}

func TestComposeAffineTranslation(t *testing.T) {
	got := ComposeAffine(10, 20, 1, 1, 0, 0, 0, 0, 0)
	want := Affine{1, 0, 0, 1, 10, 20}
	for i := range got {
		assertNear(t, "translation", got[i], want[i])
	}
}

func TestComposeAffineRotation90(t *testing.T) {
	got := ComposeAffine(0, 0, 1, 1, math.Pi/2, 0, 0, 0, 0)
	want := Affine{0, 1, -1, 0, 0, 0}
	for i := range got {
		assertNear(t, "rot90", got[i], want[i])
	}
}

func TestMultiplyAffineWithIdentity(t *testing.T) {
	m := ComposeAffine(5, 5, 2, 2, 0, 0, 0, 0, 0)
	got := MultiplyAffine(IdentityAffine, m)
	for i := range got {
		assertNear(t, "mul-identity", got[i], m[i])
	}
}

func TestInvertAffineRoundTrip(t *testing.T) {
	m := ComposeAffine(10, -5, 2, 0.5, math.Pi/6, 0, 0, 3, 4)
	inv := InvertAffine(m)
	x, y := m.TransformPoint(7, -3)
	bx, by := inv.TransformPoint(x, y)
	assertNear(t, "roundtrip x", bx, 7)
	assertNear(t, "roundtrip y", by, -3)
}

func TestInvertAffineSingular(t *testing.T) {
	m := Affine{0, 0, 0, 0, 5, 5}
	got := InvertAffine(m)
	if got != IdentityAffine {
		t.Errorf("InvertAffine(singular) = %v, want identity", got)
	}
}

func TestTransformAabb(t *testing.T) {
	m := ComposeAffine(10, 0, 1, 1, math.Pi/2, 0, 0, 0, 0)
	b := Aabb2D[float64]{MinX: 0, MinY: 0, MaxX: 2, MaxY: 4}
	got := m.TransformAabb(b)
	// Rotating 90deg about origin then translating by (10,0): the box's
	// corners (0,0),(2,0),(2,4),(0,4) map to (10,0),(10,2),(6,2),(6,0).
	want := Aabb2D[float64]{MinX: 6, MinY: 0, MaxX: 10, MaxY: 2}
	assertNear(t, "minx", got.MinX, want.MinX)
	assertNear(t, "miny", got.MinY, want.MinY)
	assertNear(t, "maxx", got.MaxX, want.MaxX)
	assertNear(t, "maxy", got.MaxY, want.MaxY)
}

func TestTransformAabbEmpty(t *testing.T) {
	var empty Aabb2D[float64]
	got := IdentityAffine.TransformAabb(empty)
	if !got.Empty() {
		t.Errorf("transforming an empty box should stay empty")
	}
}
