package canopy

import "sort"

// BVHConfig configures the BVH backend (spec.md 6).
type BVHConfig struct {
	// LeafMax bounds items per leaf. Defaults to 4 when zero.
	LeafMax int
	// RebuildThreshold is the fraction of live items touched since the
	// last full rebuild above which Commit triggers a full SAH rebuild
	// instead of an incremental refit. Defaults to 0.2 when zero.
	RebuildThreshold float64
}

func (c BVHConfig) withDefaults() BVHConfig {
	if c.LeafMax <= 0 {
		c.LeafMax = 4
	}
	if c.RebuildThreshold <= 0 {
		c.RebuildThreshold = 0.2
	}
	return c
}

type bvhItem[T Scalar] struct {
	key Key
	box Aabb2D[T]
}

const bvhNoParent = ^uint32(0)

// bvhNode is one arena slot: a leaf holding items directly, or an internal
// node with exactly two children (spec.md 4.4 "binary BVH").
type bvhNode[T Scalar] struct {
	bounds      Aabb2D[T]
	isLeaf      bool
	items       []bvhItem[T]
	left, right uint32
	parent      uint32
}

// bvh is a binary bounding-volume hierarchy, bulk-built top-down with an
// SAH cost estimate and maintained incrementally between rebuilds (spec.md
// 4.4). The split-and-recurse build mirrors rtree.go's split machinery but
// always produces exactly two children, and mutation between rebuilds
// prefers a cheap refit over restructuring, the same "defer expensive work"
// shape as node.go's dirty-flag transform propagation (transform.go
// markSubtreeDirty) generalized from "recompute on next read" to "rebuild
// once drift crosses a threshold".
type bvh[T Scalar] struct {
	nodes     []bvhNode[T]
	root      uint32
	cfg       BVHConfig
	keyToLeaf map[uint32]uint32
	allItems  map[uint32]bvhItem[T] // slot -> item, the full live set for rebuilds
	opsDirty  int
}

func newBVH[T Scalar](cfg BVHConfig) *bvh[T] {
	cfg = cfg.withDefaults()
	b := &bvh[T]{
		cfg:       cfg,
		keyToLeaf: make(map[uint32]uint32),
		allItems:  make(map[uint32]bvhItem[T]),
	}
	b.root = b.allocNode(true)
	return b
}

// NewBVH constructs an Index backed by the BVH backend (spec.md 4.4).
func NewBVH[T Scalar, P any](cfg BVHConfig) *Index[T, P] {
	return newIndex[T, P](newBVH[T](cfg))
}

func (b *bvh[T]) allocNode(isLeaf bool) uint32 {
	idx := uint32(len(b.nodes))
	b.nodes = append(b.nodes, bvhNode[T]{isLeaf: isLeaf, parent: bvhNoParent, left: bvhNoParent, right: bvhNoParent})
	return idx
}

func (b *bvh[T]) len() int { return len(b.allItems) }

func (b *bvh[T]) recomputeBoundsOnly(idx uint32) {
	node := &b.nodes[idx]
	if node.isLeaf {
		var box Aabb2D[T]
		for _, it := range node.items {
			box = box.Union(it.box)
		}
		node.bounds = box
		return
	}
	node.bounds = b.nodes[node.left].bounds.Union(b.nodes[node.right].bounds)
}

func (b *bvh[T]) recomputeUp(idx uint32) {
	for idx != bvhNoParent {
		before := b.nodes[idx].bounds
		b.recomputeBoundsOnly(idx)
		if b.nodes[idx].bounds == before {
			return
		}
		idx = b.nodes[idx].parent
	}
}

// --- Top-down SAH build ---

// centroid returns the item's box center on the given axis (0=X, 1=Y).
func centroid[T Scalar](box Aabb2D[T], axis int) float64 {
	if axis == 0 {
		return float64(box.MinX+box.MaxX) / 2
	}
	return float64(box.MinY+box.MaxY) / 2
}

// chooseSplit evaluates both axes' SAH cost over every prefix/suffix split
// of items sorted by centroid, and returns the axis and sorted item order
// achieving the lowest cost. Ties prefer the axis of larger extent, then a
// median split (spec.md 4.4).
func chooseSplit[T Scalar](items []bvhItem[T]) (axis int, sortedItems []bvhItem[T], splitAt int) {
	var unionBox Aabb2D[T]
	for _, it := range items {
		unionBox = unionBox.Union(it.box)
	}
	extentX := float64(unionBox.MaxX - unionBox.MinX)
	extentY := float64(unionBox.MaxY - unionBox.MinY)

	type axisResult struct {
		order []bvhItem[T]
		pos   int
		cost  wide
		ok    bool
	}
	eval := func(ax int) axisResult {
		order := append([]bvhItem[T]{}, items...)
		sort.Slice(order, func(i, j int) bool {
			return centroid(order[i].box, ax) < centroid(order[j].box, ax)
		})
		n := len(order)
		prefix := make([]Aabb2D[T], n)
		suffix := make([]Aabb2D[T], n)
		var acc Aabb2D[T]
		for i := 0; i < n; i++ {
			acc = acc.Union(order[i].box)
			prefix[i] = acc
		}
		acc = Aabb2D[T]{}
		for i := n - 1; i >= 0; i-- {
			acc = acc.Union(order[i].box)
			suffix[i] = acc
		}
		best := axisResult{order: order}
		fromMedian := func(p int) int {
			if p > n/2 {
				return p - n/2
			}
			return n/2 - p
		}
		for split := 1; split < n; split++ {
			cost := wideArea(prefix[split-1]).mulCount(split).add(wideArea(suffix[split]).mulCount(n - split))
			if !best.ok || cost.less(best.cost) ||
				(!best.cost.less(cost) && fromMedian(split) < fromMedian(best.pos)) {
				best.ok = true
				best.cost = cost
				best.pos = split
			}
		}
		return best
	}

	rx := eval(0)
	ry := eval(1)
	switch {
	case !rx.ok:
		return 1, ry.order, ry.pos
	case !ry.ok:
		return 0, rx.order, rx.pos
	case rx.cost.less(ry.cost):
		return 0, rx.order, rx.pos
	case ry.cost.less(rx.cost):
		return 1, ry.order, ry.pos
	case extentY > extentX:
		return 1, ry.order, ry.pos
	default:
		return 0, rx.order, rx.pos
	}
}

// buildTopDown recursively bulk-builds a subtree over items, returning the
// new subtree's root node index.
func (b *bvh[T]) buildTopDown(items []bvhItem[T]) uint32 {
	if len(items) <= b.cfg.LeafMax {
		idx := b.allocNode(true)
		b.nodes[idx].items = append([]bvhItem[T]{}, items...)
		b.recomputeBoundsOnly(idx)
		for _, it := range items {
			b.keyToLeaf[it.key.slot] = idx
		}
		return idx
	}
	_, ordered, splitAt := chooseSplit(items)
	if splitAt <= 0 || splitAt >= len(ordered) {
		splitAt = len(ordered) / 2
	}
	leftIdx := b.buildTopDown(ordered[:splitAt])
	rightIdx := b.buildTopDown(ordered[splitAt:])
	idx := b.allocNode(false)
	b.nodes[idx].left = leftIdx
	b.nodes[idx].right = rightIdx
	b.nodes[leftIdx].parent = idx
	b.nodes[rightIdx].parent = idx
	b.recomputeBoundsOnly(idx)
	return idx
}

// rebuild discards the current arena and bulk-builds a fresh tree over
// every live item, resetting the drift counter.
func (b *bvh[T]) rebuild() {
	items := make([]bvhItem[T], 0, len(b.allItems))
	for _, it := range b.allItems {
		items = append(items, it)
	}
	b.nodes = b.nodes[:0]
	b.keyToLeaf = make(map[uint32]uint32, len(items))
	b.opsDirty = 0
	if len(items) == 0 {
		b.root = b.allocNode(true)
		return
	}
	b.root = b.buildTopDown(items)
}

func (b *bvh[T]) maybeRebuild() {
	if len(b.allItems) == 0 {
		return
	}
	if float64(b.opsDirty)/float64(len(b.allItems)) > b.cfg.RebuildThreshold {
		b.rebuild()
	}
}

// --- Incremental insert/remove, update = remove + insert ---

// chooseLeaf descends picking the child whose bounds enlarge least to
// reach box, the same rule rtree.go uses for chooseLeaf.
func (b *bvh[T]) chooseLeaf(box Aabb2D[T]) uint32 {
	cur := b.root
	for {
		node := &b.nodes[cur]
		if node.isLeaf {
			return cur
		}
		leftBox := b.nodes[node.left].bounds
		rightBox := b.nodes[node.right].bounds
		leftEnlarge := wideArea(leftBox.Union(box)).sub(wideArea(leftBox))
		rightEnlarge := wideArea(rightBox.Union(box)).sub(wideArea(rightBox))
		if leftEnlarge.less(rightEnlarge) {
			cur = node.left
		} else {
			cur = node.right
		}
	}
}

func (b *bvh[T]) insert(key Key, box Aabb2D[T]) {
	b.allItems[key.slot] = bvhItem[T]{key: key, box: box}
	leaf := b.chooseLeaf(box)
	b.nodes[leaf].items = append(b.nodes[leaf].items, bvhItem[T]{key: key, box: box})
	b.keyToLeaf[key.slot] = leaf
	b.recomputeUp(leaf)
	if len(b.nodes[leaf].items) > b.cfg.LeafMax {
		b.splitLeafInPlace(leaf)
	}
	b.opsDirty++
	b.maybeRebuild()
}

// splitLeafInPlace bulk-rebuilds an overflowing leaf's own items into a
// small subtree and splices it in where the leaf used to be.
func (b *bvh[T]) splitLeafInPlace(leafIdx uint32) {
	items := append([]bvhItem[T]{}, b.nodes[leafIdx].items...)
	parent := b.nodes[leafIdx].parent
	newSubtree := b.buildTopDown(items)
	b.nodes[newSubtree].parent = parent
	if parent == bvhNoParent {
		b.root = newSubtree
		return
	}
	if b.nodes[parent].left == leafIdx {
		b.nodes[parent].left = newSubtree
	} else {
		b.nodes[parent].right = newSubtree
	}
	b.recomputeUp(parent)
}

func (b *bvh[T]) update(key Key, box Aabb2D[T]) {
	b.remove(key)
	b.insert(key, box)
}

func (b *bvh[T]) remove(key Key) {
	leaf, ok := b.keyToLeaf[key.slot]
	if !ok {
		return
	}
	items := b.nodes[leaf].items
	for i := range items {
		if items[i].key == key {
			items[i] = items[len(items)-1]
			b.nodes[leaf].items = items[:len(items)-1]
			break
		}
	}
	delete(b.keyToLeaf, key.slot)
	delete(b.allItems, key.slot)
	b.opsDirty++

	if len(b.nodes[leaf].items) > 0 || leaf == b.root {
		b.recomputeUp(leaf)
		b.maybeRebuild()
		return
	}
	b.collapseEmptyLeaf(leaf)
	b.maybeRebuild()
}

// collapseEmptyLeaf removes an emptied leaf and promotes its sibling into
// its parent's place, the standard binary-BVH deletion shape.
func (b *bvh[T]) collapseEmptyLeaf(leafIdx uint32) {
	parent := b.nodes[leafIdx].parent
	if parent == bvhNoParent {
		return
	}
	var sibling uint32
	if b.nodes[parent].left == leafIdx {
		sibling = b.nodes[parent].right
	} else {
		sibling = b.nodes[parent].left
	}
	grandparent := b.nodes[parent].parent
	b.nodes[sibling].parent = grandparent
	if grandparent == bvhNoParent {
		b.root = sibling
		return
	}
	if b.nodes[grandparent].left == parent {
		b.nodes[grandparent].left = sibling
	} else {
		b.nodes[grandparent].right = sibling
	}
	b.recomputeUp(grandparent)
}

// --- Queries ---

func (b *bvh[T]) queryPoint(x, y T, yield func(Key) bool) {
	b.walkPoint(b.root, x, y, yield)
}

func (b *bvh[T]) walkPoint(idx uint32, x, y T, yield func(Key) bool) bool {
	if idx == bvhNoParent {
		return true
	}
	node := &b.nodes[idx]
	if !node.bounds.ContainsPoint(x, y) {
		return true
	}
	if node.isLeaf {
		for _, it := range node.items {
			if it.box.ContainsPoint(x, y) {
				if !yield(it.key) {
					return false
				}
			}
		}
		return true
	}
	if !b.walkPoint(node.left, x, y, yield) {
		return false
	}
	return b.walkPoint(node.right, x, y, yield)
}

func (b *bvh[T]) queryRect(r Aabb2D[T], yield func(Key) bool) {
	b.walkRect(b.root, r, yield)
}

func (b *bvh[T]) walkRect(idx uint32, r Aabb2D[T], yield func(Key) bool) bool {
	if idx == bvhNoParent {
		return true
	}
	node := &b.nodes[idx]
	if !node.bounds.Intersects(r) {
		return true
	}
	if node.isLeaf {
		for _, it := range node.items {
			if it.box.Intersects(r) {
				if !yield(it.key) {
					return false
				}
			}
		}
		return true
	}
	if !b.walkRect(node.left, r, yield) {
		return false
	}
	return b.walkRect(node.right, r, yield)
}
