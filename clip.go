package canopy

// RoundedRect is a local-space clip region: an axis-aligned rect with a
// uniform corner radius. canopy approximates its effect on world_bounds as
// the clip's world-space AABB (spec.md §3.3 "AABB approximation of
// transformed clip") — exact rounded-corner geometry is out of scope per
// spec.md §1's non-goals on non-axis-aligned precision.
type RoundedRect struct {
	X, Y, Width, Height float64
	Radius              float64
}

// localAabb returns the clip's untransformed local bounds.
func (r RoundedRect) localAabb() Aabb2D[float64] {
	return Aabb2D[float64]{MinX: r.X, MinY: r.Y, MaxX: r.X + r.Width, MaxY: r.Y + r.Height}
}

// worldAabb returns the clip's AABB after transforming its local bounds by m.
func (r RoundedRect) worldAabb(m Affine) Aabb2D[float64] {
	return m.TransformAabb(r.localAabb())
}

// containsPoint tests local-space point (x, y) against the rounded rect,
// treating the four corners as quarter-circles of the given radius. Used
// by hit-test's precise inside test (spec.md §4.5).
func (r RoundedRect) containsPoint(x, y float64) bool {
	if x < r.X || x > r.X+r.Width || y < r.Y || y > r.Y+r.Height {
		return false
	}
	rad := r.Radius
	if rad <= 0 {
		return true
	}
	if rad > r.Width/2 {
		rad = r.Width / 2
	}
	if rad > r.Height/2 {
		rad = r.Height / 2
	}

	left, right := r.X, r.X+r.Width
	top, bottom := r.Y, r.Y+r.Height

	var cx, cy float64
	switch {
	case x < left+rad && y < top+rad:
		cx, cy = left+rad, top+rad
	case x > right-rad && y < top+rad:
		cx, cy = right-rad, top+rad
	case x < left+rad && y > bottom-rad:
		cx, cy = left+rad, bottom-rad
	case x > right-rad && y > bottom-rad:
		cx, cy = right-rad, bottom-rad
	default:
		return true // not in a corner box, and already inside the rect
	}
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= rad*rad
}
