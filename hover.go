package canopy

// HoverEventKind distinguishes enter from leave.
type HoverEventKind uint8

const (
	HoverEnter HoverEventKind = iota
	HoverLeave
)

// HoverEvent is one enter/leave transition emitted by [HoverState.Update].
type HoverEvent[K comparable] struct {
	Node K
	Kind HoverEventKind
}

// HoverState derives enter/leave transitions between successive dispatch
// paths via least common ancestor (spec.md §4.7), generalized from the
// teacher's single hoverNode diff (input.go processPointer) to a full path.
type HoverState[K comparable] struct {
	prevPath []K
}

// NewHoverState returns an empty hover state (prevPath initially empty).
func NewHoverState[K comparable]() *HoverState[K] {
	return &HoverState[K]{}
}

// Update computes the LCA of the current and new path, emits HoverLeave for
// every node of the current path strictly below the LCA (inner→outer),
// HoverEnter for every node of newPath strictly below the LCA (outer→inner),
// then replaces the tracked path with newPath. Pass nil for newPath when
// the pointer has exited — every previously hovered node then leaves.
func (hs *HoverState[K]) Update(newPath []K) []HoverEvent[K] {
	lca := 0
	for lca < len(hs.prevPath) && lca < len(newPath) && hs.prevPath[lca] == newPath[lca] {
		lca++
	}

	var events []HoverEvent[K]
	for i := len(hs.prevPath) - 1; i >= lca; i-- {
		events = append(events, HoverEvent[K]{Node: hs.prevPath[i], Kind: HoverLeave})
	}
	for i := lca; i < len(newPath); i++ {
		events = append(events, HoverEvent[K]{Node: newPath[i], Kind: HoverEnter})
	}

	hs.prevPath = append([]K(nil), newPath...)
	return events
}

// PrevPath returns the path tracked as of the last Update call.
func (hs *HoverState[K]) PrevPath() []K { return hs.prevPath }
