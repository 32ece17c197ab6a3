package canopy

import "math/big"

// wide is a widened accumulator for SAH-like cost computations: areas are
// summed in a type wide enough to avoid overflow/precision loss (spec.md
// 3.1 — f32→f64, f64→f64, i64→i128). Go has no native 128-bit integer, so
// the i64 case widens into [math/big.Int] instead, a stdlib package
// chosen over a third-party one (see DESIGN.md: no ecosystem int128/arbitrary-precision library appears
// anywhere in the retrieved corpus, and the accumulator is purely
// arithmetic — not a concern any example repo's dependencies address).
type wide struct {
	f     float64
	i     *big.Int
	isInt bool
}

func wideFromFloat(v float64) wide { return wide{f: v} }

func wideFromInt(v int64) wide {
	return wide{i: big.NewInt(v), isInt: true}
}

// wideArea computes the widened area of an AABB, dispatching on the
// concrete scalar kind the same way the teacher dispatches on NodeType/
// CommandType tags (willow.go BlendMode, render.go command switch) rather
// than via a generic numeric tower, which Go cannot express without
// associated types.
func wideArea[T Scalar](b Aabb2D[T]) wide {
	if b.Empty() {
		switch any(b).(type) {
		case Aabb2D[int64]:
			return wideFromInt(0)
		default:
			return wideFromFloat(0)
		}
	}
	switch v := any(b).(type) {
	case Aabb2D[float32]:
		w := float64(v.MaxX-v.MinX) * float64(v.MaxY-v.MinY)
		return wideFromFloat(w)
	case Aabb2D[float64]:
		return wideFromFloat((v.MaxX - v.MinX) * (v.MaxY - v.MinY))
	case Aabb2D[int64]:
		dx := big.NewInt(v.MaxX - v.MinX)
		dy := big.NewInt(v.MaxY - v.MinY)
		return wide{i: new(big.Int).Mul(dx, dy), isInt: true}
	default:
		// Unreachable for the Scalar constraint's three kinds.
		return wideFromFloat(float64(b.Area()))
	}
}

// zeroWide returns the zero value of the widened accumulator for T's kind.
// No canopy code path calls it; cost sums start from wideArea results.
func zeroWide[T Scalar]() wide {
	var zero T
	switch any(zero).(type) {
	case int64:
		return wideFromInt(0)
	default:
		return wideFromFloat(0)
	}
}

// add returns w + other. Both must be the same kind (both int-backed or
// both float-backed); mixing is a programmer error and panics, matching
// the teacher's panic-on-misuse convention (node.go AddChild).
func (w wide) add(other wide) wide {
	if w.isInt != other.isInt {
		panic("canopy: mixed wide accumulator kinds")
	}
	if w.isInt {
		return wide{i: new(big.Int).Add(w.i, other.i), isInt: true}
	}
	return wide{f: w.f + other.f}
}

// sub returns w - other, used to compute enlargement/dead-area deltas
// during R-tree/BVH splits. Both must be the same kind.
func (w wide) sub(other wide) wide {
	if w.isInt != other.isInt {
		panic("canopy: mixed wide accumulator kinds")
	}
	if w.isInt {
		return wide{i: new(big.Int).Sub(w.i, other.i), isInt: true}
	}
	return wide{f: w.f - other.f}
}

// mulCount scales the accumulator by an entry count (the "* count(child_entries)"
// term of the R-tree/BVH SAH-like cost formula).
func (w wide) mulCount(n int) wide {
	if w.isInt {
		return wide{i: new(big.Int).Mul(w.i, big.NewInt(int64(n))), isInt: true}
	}
	return wide{f: w.f * float64(n)}
}

// less reports whether w < other. Per spec.md 7, overflow in widened
// accumulators is treated as "best available split" — since big.Int never
// overflows and the float64 path only loses precision at extremes, this is
// already a saturated-comparison in practice.
func (w wide) less(other wide) bool {
	if w.isInt {
		return w.i.Cmp(other.i) < 0
	}
	return w.f < other.f
}
