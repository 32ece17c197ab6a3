package canopy

import "sort"

// NodeId is a box-tree node's generational handle, structurally the same
// Key shape the index itself uses (spec.md §3.3 "NodeId is generational"),
// but drawn from the box tree's own arena — never compare a NodeId against
// an Index's Key from a different table.
type NodeId = Key

// NoParent designates a root insertion point for [BoxTree.Insert].
var NoParent NodeId = NilKey

// NodeFlags is a bitset of independent per-node flags (spec.md §3.3).
type NodeFlags uint8

const (
	FlagVisible NodeFlags = 1 << iota
	FlagPickable
)

// LocalNode is the node-local state a caller assigns: bounds, transform
// properties (mirroring the teacher's Node transform fields X/Y/ScaleX/
// ScaleY/Rotation/SkewX/SkewY/PivotX/PivotY), optional clip, stacking
// index, and flags.
type LocalNode struct {
	LocalBounds Aabb2D[float64]
	X, Y        float64
	ScaleX      float64
	ScaleY      float64
	Rotation    float64
	SkewX, SkewY float64
	PivotX, PivotY float64
	Clip   *RoundedRect
	ZIndex int32
	Flags  NodeFlags
}

// QueryFilter gates hit-test/intersect_rect results by flag, propagated
// through the full ancestor chain (spec.md §4.5).
type QueryFilter struct {
	VisibleOnly  bool
	PickableOnly bool
}

// Hit is one box-tree query result: the node, its caller payload, and
// enough geometry for a higher layer to build its own event context, the
// generalization of the teacher's PointerContext Node/UserData/LocalX/
// LocalY fields (node.go) to a generic payload.
type Hit[P any] struct {
	Node        NodeId
	Payload     P
	WorldBounds Aabb2D[float64]
	LocalX      float64
	LocalY      float64
}

// boxNode is one arena record (spec.md §4.5 "arena of (LocalNode, parent,
// children, world_*, index_key, dirty)").
type boxNode[P any] struct {
	local    LocalNode
	payload  P
	parent   NodeId
	children []NodeId

	worldTransform     Affine
	worldBounds        Aabb2D[float64]
	effectiveClipWorld Aabb2D[float64]
	hasClipWorld       bool
	ztuple             []int32

	indexKey    Key
	hasIndexKey bool
	dirty       bool
	insertSeq   uint64
}

// BoxTree layers scene hierarchy on top of an [Index], deriving world-space
// AABBs, committing updates, and answering hit-test/visibility queries
// (spec.md §4.5). Grounded on node.go's arena-of-children shape and
// transform.go's preorder world-transform walk, generalized to NodeId
// handles, clip intersection, and index synchronization.
type BoxTree[P any] struct {
	arena *handleTable[boxNode[P]]
	index *Index[float64, NodeId]
	roots []NodeId

	dirtyRoots []NodeId
	nextSeq    uint64

	hitBuf []Hit[P]
}

// NewBoxTree constructs a BoxTree over idx, which must be an [Index]
// payload-typed to hold NodeId (spec.md §4.5 step 3: "index.insert(world_bounds,
// NodeId) -> index_key").
func NewBoxTree[P any](idx *Index[float64, NodeId]) *BoxTree[P] {
	return &BoxTree[P]{
		arena: newHandleTable[boxNode[P]](),
		index: idx,
	}
}

func (bt *BoxTree[P]) getNode(id NodeId) (boxNode[P], bool) { return bt.arena.Get(id) }
func (bt *BoxTree[P]) setNode(id NodeId, n boxNode[P])       { bt.arena.Set(id, n) }

func (bt *BoxTree[P]) markDirtyRoot(id NodeId) {
	n, ok := bt.getNode(id)
	if !ok {
		return
	}
	n.dirty = true
	bt.setNode(id, n)
	bt.dirtyRoots = append(bt.dirtyRoots, id)
}

// Insert appends a node as the last child of parent (or as a new root when
// parent is [NoParent]). Multiple roots are permitted.
func (bt *BoxTree[P]) Insert(parent NodeId, ln LocalNode, payload P) NodeId {
	bt.nextSeq++
	id := bt.arena.Insert(boxNode[P]{
		local:     ln,
		payload:   payload,
		parent:    parent,
		dirty:     true,
		insertSeq: bt.nextSeq,
	})
	if parent == NoParent {
		bt.roots = append(bt.roots, id)
	} else if p, ok := bt.getNode(parent); ok {
		p.children = append(p.children, id)
		bt.setNode(parent, p)
		debugCheckChildCount(parent, len(p.children))
	}
	debugCheckTreeDepth(bt, id)
	bt.dirtyRoots = append(bt.dirtyRoots, id)
	return id
}

func (bt *BoxTree[P]) detachFromParent(id NodeId, parent NodeId) {
	if parent == NoParent {
		for i, r := range bt.roots {
			if r == id {
				bt.roots = append(bt.roots[:i], bt.roots[i+1:]...)
				break
			}
		}
		return
	}
	p, ok := bt.getNode(parent)
	if !ok {
		return
	}
	for i, c := range p.children {
		if c == id {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	bt.setNode(parent, p)
}

// Remove removes node and its entire subtree, staging an index removal for
// every descendant that had an index key.
func (bt *BoxTree[P]) Remove(node NodeId) {
	n, ok := bt.getNode(node)
	if !ok {
		return
	}
	bt.detachFromParent(node, n.parent)
	bt.removeSubtree(node)
}

func (bt *BoxTree[P]) removeSubtree(node NodeId) {
	n, ok := bt.getNode(node)
	if !ok {
		return
	}
	for _, c := range n.children {
		bt.removeSubtree(c)
	}
	if n.hasIndexKey {
		bt.index.Remove(n.indexKey)
	}
	bt.arena.Remove(node)
}

// SetLocalBounds updates node's local bounds and marks it dirty.
func (bt *BoxTree[P]) SetLocalBounds(node NodeId, bounds Aabb2D[float64]) {
	n, ok := bt.getNode(node)
	if !ok {
		return
	}
	n.local.LocalBounds = bounds
	bt.setNode(node, n)
	bt.markDirtyRoot(node)
}

// SetTransform updates node's local transform properties and marks it dirty.
func (bt *BoxTree[P]) SetTransform(node NodeId, x, y, scaleX, scaleY, rotation, skewX, skewY, pivotX, pivotY float64) {
	n, ok := bt.getNode(node)
	if !ok {
		return
	}
	n.local.X, n.local.Y = x, y
	n.local.ScaleX, n.local.ScaleY = scaleX, scaleY
	n.local.Rotation = rotation
	n.local.SkewX, n.local.SkewY = skewX, skewY
	n.local.PivotX, n.local.PivotY = pivotX, pivotY
	bt.setNode(node, n)
	bt.markDirtyRoot(node)
}

// SetClip updates node's clip (nil clears it) and marks it dirty.
func (bt *BoxTree[P]) SetClip(node NodeId, clip *RoundedRect) {
	n, ok := bt.getNode(node)
	if !ok {
		return
	}
	n.local.Clip = clip
	bt.setNode(node, n)
	bt.markDirtyRoot(node)
}

// SetFlags updates node's flags and marks it dirty.
func (bt *BoxTree[P]) SetFlags(node NodeId, flags NodeFlags) {
	n, ok := bt.getNode(node)
	if !ok {
		return
	}
	n.local.Flags = flags
	bt.setNode(node, n)
	bt.markDirtyRoot(node)
}

// SetZIndex updates node's stacking index and marks it dirty (its z-tuple
// changes, which affects ordering among siblings).
func (bt *BoxTree[P]) SetZIndex(node NodeId, z int32) {
	n, ok := bt.getNode(node)
	if !ok {
		return
	}
	n.local.ZIndex = z
	bt.setNode(node, n)
	bt.markDirtyRoot(node)
}

// Reparent detaches node from its current parent and reinserts it as the
// last child of newParent (or as a new root), marking the subtree dirty.
func (bt *BoxTree[P]) Reparent(node NodeId, newParent NodeId) {
	n, ok := bt.getNode(node)
	if !ok {
		return
	}
	bt.detachFromParent(node, n.parent)
	n.parent = newParent
	bt.setNode(node, n)
	if newParent == NoParent {
		bt.roots = append(bt.roots, node)
	} else if p, ok := bt.getNode(newParent); ok {
		p.children = append(p.children, node)
		bt.setNode(newParent, p)
	}
	bt.markDirtyRoot(node)
}

// ZIndex returns node's last-set stacking index.
func (bt *BoxTree[P]) ZIndex(node NodeId) (int32, bool) {
	n, ok := bt.getNode(node)
	return n.local.ZIndex, ok
}

// ParentOf returns node's parent, or ([NoParent], true) for a root.
func (bt *BoxTree[P]) ParentOf(node NodeId) (NodeId, bool) {
	n, ok := bt.getNode(node)
	return n.parent, ok
}

// WorldTransform returns node's world transform as of the last commit.
func (bt *BoxTree[P]) WorldTransform(node NodeId) (Affine, bool) {
	n, ok := bt.getNode(node)
	return n.worldTransform, ok
}

// WorldBounds returns node's world AABB as of the last commit.
func (bt *BoxTree[P]) WorldBounds(node NodeId) (Aabb2D[float64], bool) {
	n, ok := bt.getNode(node)
	return n.worldBounds, ok
}

// Commit recomputes world transforms/bounds for every dirty node (and its
// descendants), synchronizes the underlying index, and returns the
// resulting world-space [Damage] (spec.md §4.5).
func (bt *BoxTree[P]) Commit() Damage[float64] {
	marked := make(map[NodeId]struct{}, len(bt.dirtyRoots))
	var cascade func(id NodeId)
	cascade = func(id NodeId) {
		if _, ok := marked[id]; ok {
			return
		}
		marked[id] = struct{}{}
		n, ok := bt.getNode(id)
		if !ok {
			return
		}
		n.dirty = true
		bt.setNode(id, n)
		for _, c := range n.children {
			cascade(c)
		}
	}
	for _, id := range bt.dirtyRoots {
		cascade(id)
	}
	bt.dirtyRoots = bt.dirtyRoots[:0]

	for _, r := range bt.roots {
		bt.recomputeSubtree(r, IdentityAffine, Aabb2D[float64]{}, false, nil, false)
	}

	return bt.index.Commit()
}

func (bt *BoxTree[P]) recomputeSubtree(id NodeId, parentTransform Affine, parentClip Aabb2D[float64], parentHasClip bool, parentZTuple []int32, parentRecomputed bool) {
	n, ok := bt.getNode(id)
	if !ok {
		return
	}
	recompute := n.dirty || parentRecomputed
	if recompute {
		local := ComposeAffine(n.local.X, n.local.Y, n.local.ScaleX, n.local.ScaleY, n.local.Rotation, n.local.SkewX, n.local.SkewY, n.local.PivotX, n.local.PivotY)
		worldTransform := MultiplyAffine(parentTransform, local)

		clipWorld := parentClip
		hasClip := parentHasClip
		if n.local.Clip != nil {
			cw := n.local.Clip.worldAabb(worldTransform)
			if hasClip {
				clipWorld = intersectAabb(clipWorld, cw)
			} else {
				clipWorld = cw
				hasClip = true
			}
		}

		worldBounds := worldTransform.TransformAabb(n.local.LocalBounds)
		if hasClip {
			worldBounds = intersectAabb(worldBounds, clipWorld)
		}

		ztuple := make([]int32, len(parentZTuple)+1)
		copy(ztuple, parentZTuple)
		ztuple[len(parentZTuple)] = n.local.ZIndex

		oldBounds := n.worldBounds
		n.worldTransform = worldTransform
		n.effectiveClipWorld = clipWorld
		n.hasClipWorld = hasClip
		n.worldBounds = worldBounds
		n.ztuple = ztuple
		n.dirty = false
		bt.setNode(id, n)

		switch {
		case !n.hasIndexKey:
			key := bt.index.Insert(worldBounds, id)
			n.indexKey = key
			n.hasIndexKey = true
			bt.setNode(id, n)
		case worldBounds != oldBounds:
			bt.index.Update(n.indexKey, worldBounds)
		}
	}

	for _, c := range n.children {
		bt.recomputeSubtree(c, n.worldTransform, n.effectiveClipWorld, n.hasClipWorld, n.ztuple, recompute)
	}
}

func intersectAabb(a, b Aabb2D[float64]) Aabb2D[float64] {
	if a.Empty() || b.Empty() {
		return Aabb2D[float64]{}
	}
	minX, minY := max(a.MinX, b.MinX), max(a.MinY, b.MinY)
	maxX, maxY := min(a.MaxX, b.MaxX), min(a.MaxY, b.MaxY)
	if minX >= maxX || minY >= maxY {
		return Aabb2D[float64]{}
	}
	return Aabb2D[float64]{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// ancestorsPass reports whether node and every ancestor (inclusive) satisfy
// filter, and unconditionally enforces the VISIBLE-ancestor invariant
// (spec.md §3.3: "if any ancestor has VISIBLE=false, the node contributes
// nothing... regardless of its own flag").
func (bt *BoxTree[P]) ancestorsPass(id NodeId, filter QueryFilter) bool {
	cur := id
	for {
		n, ok := bt.getNode(cur)
		if !ok {
			return false
		}
		if n.local.Flags&FlagVisible == 0 {
			return false
		}
		if filter.PickableOnly && n.local.Flags&FlagPickable == 0 {
			return false
		}
		if n.parent == NoParent {
			return true
		}
		cur = n.parent
	}
}

func compareZTuple(a, b []int32) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// HitTestPoint returns the topmost node whose world bounds contain p and
// which passes filter and the precise local inside test (spec.md §4.5).
// The candidate with the greatest z-tuple wins, compared lexicographically
// from the root.
func (bt *BoxTree[P]) HitTestPoint(x, y float64, filter QueryFilter) (Hit[P], bool) {
	var best Hit[P]
	var bestZ []int32
	found := false

	for _, nodeId := range bt.index.QueryPoint(x, y) {
		if !bt.ancestorsPass(nodeId, filter) {
			continue
		}
		n, ok := bt.getNode(nodeId)
		if !ok {
			continue
		}
		lx, ly := InvertAffine(n.worldTransform).TransformPoint(x, y)
		if !n.local.LocalBounds.ContainsPoint(lx, ly) {
			continue
		}
		if n.local.Clip != nil && !n.local.Clip.containsPoint(lx, ly) {
			continue
		}
		if !found || compareZTuple(n.ztuple, bestZ) > 0 {
			found = true
			bestZ = n.ztuple
			best = Hit[P]{Node: nodeId, Payload: n.payload, WorldBounds: n.worldBounds, LocalX: lx, LocalY: ly}
		}
	}
	return best, found
}

// IntersectRect returns every node passing filter whose world bounds
// intersect r, ordered painter's-order back-to-front: ascending by
// (ancestor z-tuple, stable insertion order) (spec.md §4.5).
func (bt *BoxTree[P]) IntersectRect(r Aabb2D[float64], filter QueryFilter) []Hit[P] {
	bt.hitBuf = bt.hitBuf[:0]
	type candidate struct {
		hit       Hit[P]
		ztuple    []int32
		insertSeq uint64
	}
	var candidates []candidate
	for _, nodeId := range bt.index.QueryRect(r) {
		if !bt.ancestorsPass(nodeId, filter) {
			continue
		}
		n, ok := bt.getNode(nodeId)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{
			hit:       Hit[P]{Node: nodeId, Payload: n.payload, WorldBounds: n.worldBounds},
			ztuple:    n.ztuple,
			insertSeq: n.insertSeq,
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if c := compareZTuple(candidates[i].ztuple, candidates[j].ztuple); c != 0 {
			return c < 0
		}
		return candidates[i].insertSeq < candidates[j].insertSeq
	})
	for _, c := range candidates {
		bt.hitBuf = append(bt.hitBuf, c.hit)
	}
	return bt.hitBuf
}
