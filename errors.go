package canopy

import "errors"

// Sentinel errors for canopy's error kinds, declared in the style the
// katalvlaran-lvlath builder package uses for ErrTooFewVertices and
// friends. Every current Index and BoxTree operation is non-fallible, so
// no canopy function returns or wraps these values.
var (
	// ErrKeyStale is the error kind for a key that refers to a removed or
	// never-issued entry. Update and Remove silently no-op on a stale key
	// instead of returning it — see spec.md 7.
	ErrKeyStale = errors.New("canopy: key is stale or unknown")

	// ErrEmptyAabb is the error kind for a box with reversed or degenerate
	// extents. Index.Insert never returns it; it just stores the box as-is,
	// where Aabb2D.Empty makes it permanently unreachable by queries.
	ErrEmptyAabb = errors.New("canopy: aabb has reversed or zero extent")

	// ErrBackendCapacity is reserved for backends with configurable
	// bounds. None of FlatVec, R-tree, or BVH impose such a limit; no
	// canopy operation currently returns it.
	ErrBackendCapacity = errors.New("canopy: backend capacity exceeded")
)
