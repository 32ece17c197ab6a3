package canopy

// Scalar is the set of coordinate kinds an [Aabb2D] can be built over.
type Scalar interface {
	~float32 | ~float64 | ~int64
}

// Aabb2D is an axis-aligned bounding box with invariant
// MinX <= MaxX && MinY <= MaxY for any non-empty box. A box with
// MinX > MaxX or MinY > MaxY is treated as empty (see [Aabb2D.Empty]):
// it never reports intersection or point containment, matching the
// "no hits" behavior spec.md requires instead of a fallible constructor.
type Aabb2D[T Scalar] struct {
	MinX, MinY, MaxX, MaxY T
}

// Empty reports whether the box has zero or negative extent on either axis.
func (b Aabb2D[T]) Empty() bool {
	return b.MinX >= b.MaxX || b.MinY >= b.MaxY
}

// Intersects reports whether b and other overlap. Touching edges count as
// intersecting, matching the teacher's [Rect.Intersects] convention.
func (b Aabb2D[T]) Intersects(other Aabb2D[T]) bool {
	if b.Empty() || other.Empty() {
		return false
	}
	return b.MinX <= other.MaxX && b.MaxX >= other.MinX &&
		b.MinY <= other.MaxY && b.MaxY >= other.MinY
}

// ContainsPoint reports whether (x, y) lies inside or on the edge of b.
func (b Aabb2D[T]) ContainsPoint(x, y T) bool {
	if b.Empty() {
		return false
	}
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// Union returns the smallest box containing both b and other. An empty
// operand is ignored; Union of two empty boxes is empty.
func (b Aabb2D[T]) Union(other Aabb2D[T]) Aabb2D[T] {
	if b.Empty() {
		return other
	}
	if other.Empty() {
		return b
	}
	return Aabb2D[T]{
		MinX: min(b.MinX, other.MinX),
		MinY: min(b.MinY, other.MinY),
		MaxX: max(b.MaxX, other.MaxX),
		MaxY: max(b.MaxY, other.MaxY),
	}
}

// Area returns the box's area in its native scalar type. Callers doing
// repeated accumulation (SAH-like cost sums) should use [wideArea] instead,
// which widens to avoid overflow/precision loss per spec.md 3.1.
func (b Aabb2D[T]) Area() T {
	if b.Empty() {
		return 0
	}
	return (b.MaxX - b.MinX) * (b.MaxY - b.MinY)
}

// ExpandedArea returns the area of Union(b, other) — the "enlargement"
// area used by R-tree insertion and SAH cost comparisons.
func (b Aabb2D[T]) ExpandedArea(other Aabb2D[T]) T {
	return b.Union(other).Area()
}
