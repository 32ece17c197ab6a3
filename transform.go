package canopy

import "math"

// Affine is a 2D affine matrix [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
//
// Carried verbatim from the teacher's matrix layout (transform.go), since
// the composition order and multiply/invert rules are toolkit-agnostic
// linear algebra rather than anything willow-specific.
type Affine [6]float64

// IdentityAffine is the identity matrix.
var IdentityAffine = Affine{1, 0, 0, 1, 0, 0}

// ComposeAffine builds a local affine matrix from TRS-with-pivot-and-skew
// properties, composed as:
//
//	Translate(-pivotX, -pivotY) -> Scale -> Skew -> Rotate -> Translate(x, y)
//
// the same composition order as the teacher's computeLocalTransform.
func ComposeAffine(x, y, scaleX, scaleY, rotation, skewX, skewY, pivotX, pivotY float64) Affine {
	sin, cos := math.Sincos(rotation)

	var tanSkewX, tanSkewY float64
	if skewX != 0 {
		tanSkewX = math.Tan(skewX)
	}
	if skewY != 0 {
		tanSkewY = math.Tan(skewY)
	}

	a := scaleX
	b := tanSkewY * scaleX
	c := tanSkewX * scaleY
	d := scaleY

	preTx := -pivotX*scaleX - tanSkewX*pivotY*scaleY
	preTy := -tanSkewY*pivotX*scaleX - pivotY*scaleY

	ra := cos*a - sin*b
	rb := sin*a + cos*b
	rc := cos*c - sin*d
	rd := sin*c + cos*d
	rtx := cos*preTx - sin*preTy
	rty := sin*preTx + cos*preTy

	return Affine{ra, rb, rc, rd, rtx + x, rty + y}
}

// MultiplyAffine returns parent * child.
func MultiplyAffine(parent, child Affine) Affine {
	return Affine{
		parent[0]*child[0] + parent[2]*child[1],
		parent[1]*child[0] + parent[3]*child[1],
		parent[0]*child[2] + parent[2]*child[3],
		parent[1]*child[2] + parent[3]*child[3],
		parent[0]*child[4] + parent[2]*child[5] + parent[4],
		parent[1]*child[4] + parent[3]*child[5] + parent[5],
	}
}

// InvertAffine returns m's inverse, or the identity if m is singular
// (determinant within 1e-12 of zero).
func InvertAffine(m Affine) Affine {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return IdentityAffine
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return Affine{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// TransformPoint applies m to (x, y).
func (m Affine) TransformPoint(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// TransformAabb returns the AABB of b's four corners after transforming
// each through m — the conservative over-approximation spec.md §1's
// non-goals permit for non-axis-aligned transforms.
func (m Affine) TransformAabb(b Aabb2D[float64]) Aabb2D[float64] {
	if b.Empty() {
		return b
	}
	x0, y0 := m.TransformPoint(b.MinX, b.MinY)
	x1, y1 := m.TransformPoint(b.MaxX, b.MinY)
	x2, y2 := m.TransformPoint(b.MaxX, b.MaxY)
	x3, y3 := m.TransformPoint(b.MinX, b.MaxY)
	return Aabb2D[float64]{
		MinX: math.Min(math.Min(x0, x1), math.Min(x2, x3)),
		MinY: math.Min(math.Min(y0, y1), math.Min(y2, y3)),
		MaxX: math.Max(math.Max(x0, x1), math.Max(x2, x3)),
		MaxY: math.Max(math.Max(y0, y1), math.Max(y2, y3)),
	}
}
