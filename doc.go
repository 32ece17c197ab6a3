// Package canopy provides foundational spatial data structures for
// interactive 2D UIs, vector/CAD viewers, and graphics editors.
//
// Three cooperating subsystems form the core:
//
//   - A generic 2D AABB [Index] with pluggable spatial backends (linear
//     scan via [NewFlatVec], an R-tree via [NewRTree], a BVH via [NewBVH]),
//     supporting point/rectangle queries and batched mutation with coarse
//     damage reporting.
//   - A [BoxTree] layering scene hierarchy (local bounds, affine
//     transforms, optional rounded clips, z-order, visibility/picking
//     flags) on top of an Index. It derives world-space AABBs, commits
//     updates, and answers hit-test and visibility queries.
//   - A responder chain ([Route]) that, given pre-resolved hits,
//     deterministically selects one target and emits an ordered
//     capture→target→bubble [Dispatch] sequence, plus [HoverState] deriving
//     enter/leave transitions from successive paths via least common
//     ancestor.
//
// canopy does no rendering, no layout, and binds to no specific UI
// toolkit — it is the spatial substrate a retained-mode engine embeds.
//
// # Quick start
//
//	idx := canopy.NewFlatVec[float64, canopy.NodeId]()
//	tree := canopy.NewBoxTree[int](idx)
//	root := tree.Insert(canopy.NoParent, canopy.LocalNode{
//		LocalBounds: canopy.Aabb2D[float64]{MaxX: 200, MaxY: 200},
//		Flags:       canopy.FlagVisible | canopy.FlagPickable,
//		ScaleX:      1, ScaleY: 1,
//	}, 42)
//	tree.Commit()
//	hit, ok := tree.HitTestPoint(50, 50, canopy.QueryFilter{VisibleOnly: true, PickableOnly: true})
//	_ = root
//	_ = hit
//	_ = ok
//
// For ECS integration, see the sibling module canopy/ecs, which bridges
// dispatch sequences to a Donburi world exactly as willow/ecs bridges
// pointer events.
package canopy
