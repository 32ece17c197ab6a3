package canopy

// Key is a generational handle: (slot, generation). A live key always
// maps to exactly one entry; a key from a removed entry never resolves to
// a live entry because generation is bumped on every removal of that slot
// (spec.md 3.2). This generalizes the teacher's monotonic
// nodeIDCounter/dispose model (node.go) from a counter that is never
// recycled to a slot+generation pair that recycles slots, since index
// churn under continuous drag/resize is expected to be much higher than
// willow's node lifetime.
type Key struct {
	slot uint32
	gen  uint32
}

// NilKey is the zero Key; it never compares equal to a live key because
// live generations start at 1.
var NilKey = Key{}

// slotEntry[P] is one arena slot: either live (holding a payload) or free
// (linked into the free list via nextFree).
type slotEntry[P any] struct {
	gen      uint32
	alive    bool
	payload  P
	nextFree uint32 // valid when !alive; index of next free slot, or freeListEnd
}

const freeListEnd = ^uint32(0)

// handleTable is a generation-checked slot arena shared by the index
// entry table (payload = user P) and could be reused for any other
// generationally-keyed collection.
type handleTable[P any] struct {
	slots    []slotEntry[P]
	freeHead uint32
	live     int
}

func newHandleTable[P any]() *handleTable[P] {
	return &handleTable[P]{freeHead: freeListEnd}
}

// Insert allocates a slot (recycling a free one if available) and returns
// its Key.
func (t *handleTable[P]) Insert(payload P) Key {
	if t.freeHead != freeListEnd {
		idx := t.freeHead
		slot := &t.slots[idx]
		t.freeHead = slot.nextFree
		slot.alive = true
		slot.payload = payload
		t.live++
		return Key{slot: idx, gen: slot.gen}
	}
	idx := uint32(len(t.slots))
	t.slots = append(t.slots, slotEntry[P]{gen: 1, alive: true, payload: payload})
	t.live++
	return Key{slot: idx, gen: 1}
}

// Get returns the payload for key and whether it is still live.
func (t *handleTable[P]) Get(k Key) (P, bool) {
	var zero P
	if int(k.slot) >= len(t.slots) {
		return zero, false
	}
	s := &t.slots[k.slot]
	if !s.alive || s.gen != k.gen {
		return zero, false
	}
	return s.payload, true
}

// Set overwrites the payload for a live key. Reports false (no-op) if the
// key is stale.
func (t *handleTable[P]) Set(k Key, payload P) bool {
	if int(k.slot) >= len(t.slots) {
		return false
	}
	s := &t.slots[k.slot]
	if !s.alive || s.gen != k.gen {
		return false
	}
	s.payload = payload
	return true
}

// Remove retires key's slot, bumping its generation so the key can never
// resolve again, and links the slot into the free list. Reports false
// (no-op) if the key is already stale.
func (t *handleTable[P]) Remove(k Key) bool {
	if int(k.slot) >= len(t.slots) {
		return false
	}
	s := &t.slots[k.slot]
	if !s.alive || s.gen != k.gen {
		return false
	}
	var zero P
	s.alive = false
	s.payload = zero
	s.gen++
	s.nextFree = t.freeHead
	t.freeHead = k.slot
	t.live--
	return true
}

// Len returns the number of live entries.
func (t *handleTable[P]) Len() int { return t.live }

// IsStale reports whether k does not (or no longer) resolve to a live
// entry.
func (t *handleTable[P]) IsStale(k Key) bool {
	_, ok := t.Get(k)
	return !ok
}
