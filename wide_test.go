package canopy

import (
	"math/big"
	"testing"
)

func TestWideAreaFloat(t *testing.T) {
	b := Aabb2D[float64]{MinX: 0, MinY: 0, MaxX: 2, MaxY: 3}
	w := wideArea(b)
	if w.isInt {
		t.Errorf("float64 box should produce a float-backed wide")
	}
	if w.f != 6 {
		t.Errorf("area = %v, want 6", w.f)
	}
}

func TestWideAreaInt64Overflow(t *testing.T) {
	// Dimensions chosen so the plain int64 product would overflow, but the
	// widened accumulator must not.
	b := Aabb2D[int64]{MinX: 0, MinY: 0, MaxX: 1 << 40, MaxY: 1 << 40}
	w := wideArea(b)
	if !w.isInt {
		t.Errorf("int64 box should produce an int-backed wide")
	}
	side := big.NewInt(1 << 40)
	want := new(big.Int).Mul(side, side)
	if w.i.Cmp(want) != 0 {
		t.Errorf("area = %v, want %v", w.i, want)
	}
}

func TestWideAddAndSub(t *testing.T) {
	a := wideFromFloat(3)
	b := wideFromFloat(4)
	if got := a.add(b); got.f != 7 {
		t.Errorf("add = %v, want 7", got.f)
	}
	if got := b.sub(a); got.f != 1 {
		t.Errorf("sub = %v, want 1", got.f)
	}
}

func TestWideAddMixedKindsPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic mixing int and float wide kinds")
		}
	}()
	wideFromFloat(1).add(wideFromInt(1))
}

func TestWideLess(t *testing.T) {
	if !wideFromFloat(1).less(wideFromFloat(2)) {
		t.Errorf("1 should be less than 2")
	}
	if !wideFromInt(1).less(wideFromInt(2)) {
		t.Errorf("1 should be less than 2 (int)")
	}
}

func TestWideMulCount(t *testing.T) {
	if got := wideFromFloat(2).mulCount(3); got.f != 6 {
		t.Errorf("mulCount = %v, want 6", got.f)
	}
	if got := wideFromInt(2).mulCount(3); got.i.Int64() != 6 {
		t.Errorf("mulCount = %v, want 6", got.i)
	}
}
