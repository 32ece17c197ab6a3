package canopy

import "iter"

// backend is the capability set a spatial backend must provide. Index
// holds its backend as a backend[T] interface value, picked at
// construction time via NewFlatVec, NewRTree, or NewBVH; every backend
// call, each query included, goes through interface dispatch. Index is
// not parameterized by the backend type.
type backend[T Scalar] interface {
	insert(key Key, box Aabb2D[T])
	update(key Key, box Aabb2D[T])
	remove(key Key)
	queryPoint(x, y T, yield func(Key) bool)
	queryRect(box Aabb2D[T], yield func(Key) bool)
	len() int
}

// indexEntry is the façade's canonical record for one live key. It is the
// "staging overlay" the spec describes: box/payload always reflect the
// most recent Insert/Update call, while committedBox/backendKey track
// what the backend itself currently knows, so Commit can compute
// per-key damage without replaying a literal op log.
type indexEntry[T Scalar, P any] struct {
	box           Aabb2D[T]
	payload       P
	backendKey    bool // true once this key has been pushed into the backend at least once
	committedBox  Aabb2D[T]
	pendingRemove bool
}

// Index is the user-visible AABB index façade (spec.md 4.1). It buffers
// Insert/Update/Remove calls and applies them to the active backend in
// one batch on Commit, so backends never rebuild mid-batch.
type Index[T Scalar, P any] struct {
	entries   *handleTable[indexEntry[T, P]]
	backend   backend[T]
	dirtyKeys []Key
	dirtySet  map[Key]struct{}
}

func newIndex[T Scalar, P any](b backend[T]) *Index[T, P] {
	return &Index[T, P]{
		entries:  newHandleTable[indexEntry[T, P]](),
		backend:  b,
		dirtySet: make(map[Key]struct{}),
	}
}

func (ix *Index[T, P]) markDirty(k Key) {
	if _, ok := ix.dirtySet[k]; !ok {
		ix.dirtySet[k] = struct{}{}
		ix.dirtyKeys = append(ix.dirtyKeys, k)
	}
}

// Insert adds a new entry, staged for the next Commit, and returns its key.
func (ix *Index[T, P]) Insert(box Aabb2D[T], payload P) Key {
	k := ix.entries.Insert(indexEntry[T, P]{box: box, payload: payload})
	ix.markDirty(k)
	return k
}

// Update changes key's box. No-op if key is stale (spec.md 7).
func (ix *Index[T, P]) Update(key Key, box Aabb2D[T]) {
	e, ok := ix.entries.Get(key)
	if !ok {
		debugCheckStaleKey(true, "Index.Update", key)
		return
	}
	e.box = box
	ix.entries.Set(key, e)
	ix.markDirty(key)
}

// Remove retires key. No-op if key is already stale. If key was inserted
// in the same uncommitted batch, it is fully discarded with no damage
// (spec.md 4.1 "insert-then-remove → no damage"); otherwise it is marked
// pending removal until Commit.
func (ix *Index[T, P]) Remove(key Key) {
	e, ok := ix.entries.Get(key)
	if !ok {
		debugCheckStaleKey(true, "Index.Remove", key)
		return
	}
	if !e.backendKey {
		ix.entries.Remove(key)
		delete(ix.dirtySet, key)
		for i, k := range ix.dirtyKeys {
			if k == key {
				ix.dirtyKeys = append(ix.dirtyKeys[:i], ix.dirtyKeys[i+1:]...)
				break
			}
		}
		return
	}
	e.pendingRemove = true
	ix.entries.Set(key, e)
	ix.markDirty(key)
}

// Len returns the number of live entries, staged or committed.
func (ix *Index[T, P]) Len() int { return ix.entries.Len() }

// IsEmpty reports whether the index holds no entries.
func (ix *Index[T, P]) IsEmpty() bool { return ix.entries.Len() == 0 }

// Commit applies every staged op to the backend and returns the
// aggregate Damage, coalesced per key (spec.md 4.1).
func (ix *Index[T, P]) Commit() Damage[T] {
	var dmg Damage[T]
	for _, key := range ix.dirtyKeys {
		e, ok := ix.entries.Get(key)
		if !ok {
			continue // removed eagerly already (insert-then-remove)
		}
		switch {
		case e.pendingRemove:
			dmg.Removed = append(dmg.Removed, e.committedBox)
			ix.backend.remove(key)
			ix.entries.Remove(key)
		case !e.backendKey:
			ix.backend.insert(key, e.box)
			dmg.Added = append(dmg.Added, e.box)
			e.backendKey = true
			e.committedBox = e.box
			ix.entries.Set(key, e)
		case e.box != e.committedBox:
			ix.backend.update(key, e.box)
			dmg.Moved = append(dmg.Moved, MovedAabb[T]{Old: e.committedBox, New: e.box})
			e.committedBox = e.box
			ix.entries.Set(key, e)
		}
	}
	ix.dirtyKeys = ix.dirtyKeys[:0]
	clear(ix.dirtySet)
	return dmg
}

// QueryPoint yields every live (key, payload) whose box contains (x, y).
// Pre-commit, results reflect the last committed backend state overlaid
// with any staged inserts/updates/removes (spec.md 4.1).
func (ix *Index[T, P]) QueryPoint(x, y T) iter.Seq2[Key, P] {
	return func(yield func(Key, P) bool) {
		if len(ix.dirtyKeys) == 0 {
			ix.backend.queryPoint(x, y, func(k Key) bool {
				e, ok := ix.entries.Get(k)
				if !ok {
					return true
				}
				return yield(k, e.payload)
			})
			return
		}
		cont := true
		ix.backend.queryPoint(x, y, func(k Key) bool {
			if _, dirty := ix.dirtySet[k]; dirty {
				return true
			}
			e, ok := ix.entries.Get(k)
			if !ok {
				return true
			}
			cont = yield(k, e.payload)
			return cont
		})
		if !cont {
			return
		}
		for _, k := range ix.dirtyKeys {
			e, ok := ix.entries.Get(k)
			if !ok || e.pendingRemove {
				continue
			}
			if !e.box.ContainsPoint(x, y) {
				continue
			}
			if !yield(k, e.payload) {
				return
			}
		}
	}
}

// QueryRect yields every live (key, payload) whose box intersects r.
func (ix *Index[T, P]) QueryRect(r Aabb2D[T]) iter.Seq2[Key, P] {
	return func(yield func(Key, P) bool) {
		if len(ix.dirtyKeys) == 0 {
			ix.backend.queryRect(r, func(k Key) bool {
				e, ok := ix.entries.Get(k)
				if !ok {
					return true
				}
				return yield(k, e.payload)
			})
			return
		}
		cont := true
		ix.backend.queryRect(r, func(k Key) bool {
			if _, dirty := ix.dirtySet[k]; dirty {
				return true
			}
			e, ok := ix.entries.Get(k)
			if !ok {
				return true
			}
			cont = yield(k, e.payload)
			return cont
		})
		if !cont {
			return
		}
		for _, k := range ix.dirtyKeys {
			e, ok := ix.entries.Get(k)
			if !ok || e.pendingRemove {
				continue
			}
			if !e.box.Intersects(r) {
				continue
			}
			if !yield(k, e.payload) {
				return
			}
		}
	}
}
