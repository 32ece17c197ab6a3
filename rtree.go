package canopy

// RTreeConfig configures the R-tree backend's fanout (spec.md 6).
type RTreeConfig struct {
	// MinFill and MaxFill bound the number of entries (leaf) or children
	// (internal node) per node. Defaults {4, 8} when zero.
	MinFill, MaxFill int
}

func (c RTreeConfig) withDefaults() RTreeConfig {
	if c.MinFill <= 0 {
		c.MinFill = 4
	}
	if c.MaxFill <= 0 {
		c.MaxFill = 8
	}
	return c
}

// rtreeItem is one leaf entry: a committed key and its box.
type rtreeItem[T Scalar] struct {
	key Key
	box Aabb2D[T]
}

const rtreeNoParent = ^uint32(0)

// rtreeNode is one arena slot: either a leaf (items) or an internal node
// (children, indices into the same arena). bounds is the cached union of
// whichever the node holds, so ancestor traversal never needs to touch
// descendants (spec.md 4.3 "each child carries a cached bounding AABB").
type rtreeNode[T Scalar] struct {
	bounds   Aabb2D[T]
	isLeaf   bool
	items    []rtreeItem[T]
	children []uint32
	parent   uint32
	inUse    bool
}

// rtree is an arena-backed R-tree with quadratic splits and SAH-like
// tie-breaking (spec.md 4.3). The arena-of-slices shape mirrors the
// teacher's Scene-owned preallocated buffers (scene.go commands/sortBuf)
// generalized from a flat slice to a tree of slices addressed by index
// rather than pointer, matching node.go's parent-pointer/children-slice
// shape but keyed by arena index instead of *Node.
type rtree[T Scalar] struct {
	nodes     []rtreeNode[T]
	freeNodes []uint32
	root      uint32
	cfg       RTreeConfig
	keyToLeaf map[uint32]uint32 // key.slot -> leaf node index
}

func newRTree[T Scalar](cfg RTreeConfig) *rtree[T] {
	cfg = cfg.withDefaults()
	rt := &rtree[T]{cfg: cfg, keyToLeaf: make(map[uint32]uint32)}
	rt.root = rt.allocNode(true)
	return rt
}

// NewRTree constructs an Index backed by the R-tree backend (spec.md 4.3).
func NewRTree[T Scalar, P any](cfg RTreeConfig) *Index[T, P] {
	return newIndex[T, P](newRTree[T](cfg))
}

func (rt *rtree[T]) allocNode(isLeaf bool) uint32 {
	if n := len(rt.freeNodes); n > 0 {
		idx := rt.freeNodes[n-1]
		rt.freeNodes = rt.freeNodes[:n-1]
		rt.nodes[idx] = rtreeNode[T]{isLeaf: isLeaf, parent: rtreeNoParent, inUse: true}
		return idx
	}
	idx := uint32(len(rt.nodes))
	rt.nodes = append(rt.nodes, rtreeNode[T]{isLeaf: isLeaf, parent: rtreeNoParent, inUse: true})
	return idx
}

func (rt *rtree[T]) freeNode(idx uint32) {
	rt.nodes[idx] = rtreeNode[T]{}
	rt.freeNodes = append(rt.freeNodes, idx)
}

func (rt *rtree[T]) len() int { return len(rt.keyToLeaf) }

// --- Insertion ---

func (rt *rtree[T]) insert(key Key, box Aabb2D[T]) {
	leaf := rt.chooseLeaf(rt.root, box)
	rt.nodes[leaf].items = append(rt.nodes[leaf].items, rtreeItem[T]{key: key, box: box})
	rt.keyToLeaf[key.slot] = leaf
	rt.recomputeUp(leaf)
	if len(rt.nodes[leaf].items) > rt.cfg.MaxFill {
		rt.splitLeaf(leaf)
	}
}

// chooseLeaf descends from cur, at each internal node picking the child
// whose AABB enlarges least, ties broken by smallest resulting area then
// smallest existing area (spec.md 4.3).
func (rt *rtree[T]) chooseLeaf(cur uint32, box Aabb2D[T]) uint32 {
	for {
		node := &rt.nodes[cur]
		if node.isLeaf {
			return cur
		}
		best := -1
		var bestEnlarge, bestResultArea, bestExistingArea wide
		for i, c := range node.children {
			cb := rt.nodes[c].bounds
			existing := wideArea(cb)
			resultArea := wideArea(cb.Union(box))
			enlarge := resultArea.sub(existing)
			if best == -1 ||
				enlarge.less(bestEnlarge) ||
				(!bestEnlarge.less(enlarge) && resultArea.less(bestResultArea)) ||
				(!bestEnlarge.less(enlarge) && !bestResultArea.less(resultArea) && existing.less(bestExistingArea)) {
				best = i
				bestEnlarge = enlarge
				bestResultArea = resultArea
				bestExistingArea = existing
			}
		}
		cur = node.children[best]
	}
}

// recomputeUp recomputes node's cached bounds from its contents and
// propagates the change up to the root.
func (rt *rtree[T]) recomputeUp(nodeIdx uint32) {
	for nodeIdx != rtreeNoParent {
		node := &rt.nodes[nodeIdx]
		var b Aabb2D[T]
		if node.isLeaf {
			for _, it := range node.items {
				b = b.Union(it.box)
			}
		} else {
			for _, c := range node.children {
				b = b.Union(rt.nodes[c].bounds)
			}
		}
		changed := b != node.bounds
		node.bounds = b
		if !changed {
			return
		}
		nodeIdx = node.parent
	}
}

// --- Quadratic split ---

// pickSeeds chooses the two boxes with the greatest combined dead area
// (area(union) - area(a) - area(b)), the classic quadratic-split seed
// rule (spec.md 4.3). Ties are broken by the SAH-like combined-area cost
// (the secondary criterion spec.md 4.3 names).
func pickSeeds[T Scalar](boxes []Aabb2D[T]) (int, int) {
	bestI, bestJ := 0, 1
	var bestDead, bestCost wide
	first := true
	for i := 0; i < len(boxes); i++ {
		for j := i + 1; j < len(boxes); j++ {
			union := wideArea(boxes[i].Union(boxes[j]))
			dead := union.sub(wideArea(boxes[i])).sub(wideArea(boxes[j]))
			cost := wideArea(boxes[i]).add(wideArea(boxes[j]))
			if first || bestDead.less(dead) || (!dead.less(bestDead) && cost.less(bestCost)) {
				bestI, bestJ, bestDead, bestCost = i, j, dead, cost
				first = false
			}
		}
	}
	return bestI, bestJ
}

// quadraticSplit partitions indices [0,n) into two groups given their
// boxes, seeded by pickSeeds, assigning the rest one at a time to
// whichever group's bounding area grows less (ties: smaller resulting
// area, then fewer entries), respecting minFill (spec.md 4.3).
func quadraticSplit[T Scalar](boxes []Aabb2D[T], minFill int) (groupA, groupB []int) {
	n := len(boxes)
	seedA, seedB := pickSeeds(boxes)
	groupA = []int{seedA}
	groupB = []int{seedB}
	boundsA := boxes[seedA]
	boundsB := boxes[seedB]
	assigned := make([]bool, n)
	assigned[seedA] = true
	assigned[seedB] = true
	remaining := n - 2

	for remaining > 0 {
		// Min-fill guard: if one group needs all remaining entries to
		// reach minFill, force the rest into it.
		if len(groupA)+remaining <= minFill {
			for i := 0; i < n; i++ {
				if !assigned[i] {
					groupA = append(groupA, i)
					boundsA = boundsA.Union(boxes[i])
					assigned[i] = true
				}
			}
			break
		}
		if len(groupB)+remaining <= minFill {
			for i := 0; i < n; i++ {
				if !assigned[i] {
					groupB = append(groupB, i)
					boundsB = boundsB.Union(boxes[i])
					assigned[i] = true
				}
			}
			break
		}

		// Pick the unassigned entry with the greatest area-growth
		// difference between the two groups, assign it to the group
		// that grows less.
		pick := -1
		pickToA := true
		var bestDiff wide
		first := true
		for i := 0; i < n; i++ {
			if assigned[i] {
				continue
			}
			growA := wideArea(boundsA.Union(boxes[i])).sub(wideArea(boundsA))
			growB := wideArea(boundsB.Union(boxes[i])).sub(wideArea(boundsB))
			var toA bool
			switch {
			case growA.less(growB):
				toA = true
			case growB.less(growA):
				toA = false
			default:
				// Tie on area growth (spec.md §4.3): smaller bounding area
				// wins next, then fewer entries, before an arbitrary fallback.
				areaA, areaB := wideArea(boundsA), wideArea(boundsB)
				switch {
				case areaA.less(areaB):
					toA = true
				case areaB.less(areaA):
					toA = false
				case len(groupA) < len(groupB):
					toA = true
				default:
					toA = false
				}
			}
			var diff wide
			if toA {
				diff = growB.sub(growA)
			} else {
				diff = growA.sub(growB)
			}
			if first || bestDiff.less(diff) {
				pick, pickToA, bestDiff, first = i, toA, diff, false
			}
		}

		assigned[pick] = true
		remaining--
		if pickToA {
			groupA = append(groupA, pick)
			boundsA = boundsA.Union(boxes[pick])
		} else {
			groupB = append(groupB, pick)
			boundsB = boundsB.Union(boxes[pick])
		}
	}
	return groupA, groupB
}

func (rt *rtree[T]) splitLeaf(nodeIdx uint32) {
	node := &rt.nodes[nodeIdx]
	items := node.items
	boxes := make([]Aabb2D[T], len(items))
	for i, it := range items {
		boxes[i] = it.box
	}
	ga, gb := quadraticSplit(boxes, rt.cfg.MinFill)

	groupAItems := make([]rtreeItem[T], len(ga))
	for i, idx := range ga {
		groupAItems[i] = items[idx]
	}
	groupBItems := make([]rtreeItem[T], len(gb))
	for i, idx := range gb {
		groupBItems[i] = items[idx]
	}

	parent := node.parent
	node.items = groupAItems
	rt.recomputeBoundsOnly(nodeIdx)

	newIdx := rt.allocNode(true)
	rt.nodes[newIdx].items = groupBItems
	rt.nodes[newIdx].parent = parent
	rt.recomputeBoundsOnly(newIdx)
	for _, it := range groupBItems {
		rt.keyToLeaf[it.key.slot] = newIdx
	}
	for _, it := range groupAItems {
		rt.keyToLeaf[it.key.slot] = nodeIdx
	}

	rt.attachSplitChild(nodeIdx, newIdx, parent)
}

func (rt *rtree[T]) recomputeBoundsOnly(nodeIdx uint32) {
	node := &rt.nodes[nodeIdx]
	var b Aabb2D[T]
	if node.isLeaf {
		for _, it := range node.items {
			b = b.Union(it.box)
		}
	} else {
		for _, c := range node.children {
			b = b.Union(rt.nodes[c].bounds)
		}
	}
	node.bounds = b
}

// attachSplitChild inserts newIdx as a sibling of nodeIdx under parent,
// growing the tree by one level if nodeIdx was the root, and recursively
// splitting parent if it now overflows.
func (rt *rtree[T]) attachSplitChild(nodeIdx, newIdx, parent uint32) {
	if parent == rtreeNoParent {
		newRoot := rt.allocNode(false)
		rt.nodes[newRoot].children = []uint32{nodeIdx, newIdx}
		rt.nodes[nodeIdx].parent = newRoot
		rt.nodes[newIdx].parent = newRoot
		rt.root = newRoot
		rt.recomputeBoundsOnly(newRoot)
		return
	}
	rt.nodes[parent].children = append(rt.nodes[parent].children, newIdx)
	rt.recomputeUp(parent)
	if len(rt.nodes[parent].children) > rt.cfg.MaxFill {
		rt.splitInternal(parent)
	}
}

func (rt *rtree[T]) splitInternal(nodeIdx uint32) {
	node := &rt.nodes[nodeIdx]
	children := node.children
	boxes := make([]Aabb2D[T], len(children))
	for i, c := range children {
		boxes[i] = rt.nodes[c].bounds
	}
	ga, gb := quadraticSplit(boxes, rt.cfg.MinFill)

	groupAChildren := make([]uint32, len(ga))
	for i, idx := range ga {
		groupAChildren[i] = children[idx]
	}
	groupBChildren := make([]uint32, len(gb))
	for i, idx := range gb {
		groupBChildren[i] = children[idx]
	}

	parent := node.parent
	node.children = groupAChildren
	rt.recomputeBoundsOnly(nodeIdx)

	newIdx := rt.allocNode(false)
	rt.nodes[newIdx].children = groupBChildren
	rt.nodes[newIdx].parent = parent
	rt.recomputeBoundsOnly(newIdx)
	for _, c := range groupBChildren {
		rt.nodes[c].parent = newIdx
	}
	for _, c := range groupAChildren {
		rt.nodes[c].parent = nodeIdx
	}

	rt.attachSplitChild(nodeIdx, newIdx, parent)
}

// --- Update / Remove ---

func (rt *rtree[T]) update(key Key, box Aabb2D[T]) {
	leaf, ok := rt.keyToLeaf[key.slot]
	if !ok {
		return
	}
	items := rt.nodes[leaf].items
	for i := range items {
		if items[i].key == key {
			items[i].box = box
			rt.recomputeUp(leaf)
			return
		}
	}
}

func (rt *rtree[T]) remove(key Key) {
	leaf, ok := rt.keyToLeaf[key.slot]
	if !ok {
		return
	}
	items := rt.nodes[leaf].items
	for i := range items {
		if items[i].key == key {
			items[i] = items[len(items)-1]
			rt.nodes[leaf].items = items[:len(items)-1]
			break
		}
	}
	delete(rt.keyToLeaf, key.slot)
	rt.condense(leaf)
}

// condense implements deletion underflow handling (spec.md 4.3): orphan
// a node's remaining entries when it drops below minFill, detach it from
// its parent, propagate up (recursively condensing ancestors that
// themselves underflow), shrink the root if it has been left with a
// single internal child, and finally reinsert every orphaned leaf entry.
func (rt *rtree[T]) condense(leaf uint32) {
	var orphans []rtreeItem[T]
	cur := leaf
	for cur != rt.root {
		node := &rt.nodes[cur]
		underflow := false
		if node.isLeaf {
			underflow = len(node.items) < rt.cfg.MinFill
		} else {
			underflow = len(node.children) < rt.cfg.MinFill
		}
		if !underflow {
			rt.recomputeUp(cur)
			break
		}
		rt.collectOrphans(cur, &orphans)
		parent := node.parent
		rt.detachChild(parent, cur)
		rt.freeNode(cur)
		cur = parent
	}
	if cur == rt.root {
		rt.recomputeUp(rt.root)
	}
	rt.shrinkRoot()
	for _, it := range orphans {
		rt.insert(it.key, it.box)
	}
}

// collectOrphans gathers every leaf item under nodeIdx's subtree (itself
// included) and frees the internal descendants, leaving only leaf items
// for reinsertion.
func (rt *rtree[T]) collectOrphans(nodeIdx uint32, out *[]rtreeItem[T]) {
	node := &rt.nodes[nodeIdx]
	if node.isLeaf {
		*out = append(*out, node.items...)
		for _, it := range node.items {
			delete(rt.keyToLeaf, it.key.slot)
		}
		return
	}
	for _, c := range node.children {
		rt.collectOrphans(c, out)
		rt.freeNode(c)
	}
}

func (rt *rtree[T]) detachChild(parent, child uint32) {
	children := rt.nodes[parent].children
	for i, c := range children {
		if c == child {
			rt.nodes[parent].children = append(children[:i], children[i+1:]...)
			return
		}
	}
}

// shrinkRoot collapses a root with a single internal child, per spec.md
// 4.3 "shrink root when it has a single child that is an internal node".
// An internal root left with no children becomes an empty leaf.
func (rt *rtree[T]) shrinkRoot() {
	for {
		root := &rt.nodes[rt.root]
		if !root.isLeaf && len(root.children) == 0 {
			root.isLeaf = true
			return
		}
		if root.isLeaf || len(root.children) != 1 {
			return
		}
		onlyChild := root.children[0]
		if rt.nodes[onlyChild].isLeaf {
			return
		}
		old := rt.root
		rt.root = onlyChild
		rt.nodes[rt.root].parent = rtreeNoParent
		rt.freeNode(old)
	}
}

// --- Queries ---

func (rt *rtree[T]) queryPoint(x, y T, yield func(Key) bool) {
	rt.walkPoint(rt.root, x, y, yield)
}

func (rt *rtree[T]) walkPoint(nodeIdx uint32, x, y T, yield func(Key) bool) bool {
	node := &rt.nodes[nodeIdx]
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
	for _, c := range node.children {
		if !rt.walkPoint(c, x, y, yield) {
			return false
		}
	}
	return true
}

func (rt *rtree[T]) queryRect(r Aabb2D[T], yield func(Key) bool) {
	rt.walkRect(rt.root, r, yield)
}

func (rt *rtree[T]) walkRect(nodeIdx uint32, r Aabb2D[T], yield func(Key) bool) bool {
	node := &rt.nodes[nodeIdx]
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
	for _, c := range node.children {
		if !rt.walkRect(c, r, yield) {
			return false
		}
	}
	return true
}
