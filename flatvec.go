package canopy

// flatVecEntry is one row of the FlatVec backend's contiguous storage.
type flatVecEntry[T Scalar] struct {
	key Key
	box Aabb2D[T]
}

// flatVec is the reference backend: a contiguous vector scanned linearly
// on every query (spec.md 4.2). Chosen when N is small or mutation
// dominates query. Grounded on the teacher's collectInteractable
// append-then-scan buffer idiom (input.go).
type flatVec[T Scalar] struct {
	rows []flatVecEntry[T]
	// posBySlot maps a key's slot to its position in rows, for O(1)
	// update/remove instead of a linear search.
	posBySlot map[uint32]int
}

func newFlatVec[T Scalar]() *flatVec[T] {
	return &flatVec[T]{posBySlot: make(map[uint32]int)}
}

// NewFlatVec constructs an Index backed by the linear-scan FlatVec
// backend. Use for small N or mutation-heavy workloads (spec.md 4.2).
func NewFlatVec[T Scalar, P any]() *Index[T, P] {
	return newIndex[T, P](newFlatVec[T]())
}

func (f *flatVec[T]) insert(key Key, box Aabb2D[T]) {
	f.posBySlot[key.slot] = len(f.rows)
	f.rows = append(f.rows, flatVecEntry[T]{key: key, box: box})
}

func (f *flatVec[T]) update(key Key, box Aabb2D[T]) {
	if pos, ok := f.posBySlot[key.slot]; ok {
		f.rows[pos].box = box
	}
}

func (f *flatVec[T]) remove(key Key) {
	pos, ok := f.posBySlot[key.slot]
	if !ok {
		return
	}
	last := len(f.rows) - 1
	if pos != last {
		f.rows[pos] = f.rows[last]
		f.posBySlot[f.rows[pos].key.slot] = pos
	}
	f.rows = f.rows[:last]
	delete(f.posBySlot, key.slot)
}

func (f *flatVec[T]) queryPoint(x, y T, yield func(Key) bool) {
	for i := range f.rows {
		if f.rows[i].box.ContainsPoint(x, y) {
			if !yield(f.rows[i].key) {
				return
			}
		}
	}
}

func (f *flatVec[T]) queryRect(r Aabb2D[T], yield func(Key) bool) {
	for i := range f.rows {
		if f.rows[i].box.Intersects(r) {
			if !yield(f.rows[i].key) {
				return
			}
		}
	}
}

func (f *flatVec[T]) len() int { return len(f.rows) }
