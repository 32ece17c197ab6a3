package canopy

import (
	"fmt"
	"os"
)

// globalDebug gates assertions and warnings that are too expensive (or too
// noisy) for release builds, the same switch the teacher exposes via
// Scene.SetDebug (scene.go globalDebug).
var globalDebug bool

// SetDebug enables or disables debug-mode assertions and warnings for the
// whole process. canopy has no per-instance debug flag (no global state
// otherwise, per spec.md §9, but a single process-wide debug toggle for
// assertions mirrors the teacher's own compromise: globalDebug is consulted
// by node.go's AddChild/RemoveChild hot paths without threading a Scene
// reference through every call).
func SetDebug(enabled bool) {
	globalDebug = enabled
}

// debugCheckStaleKey panics when a stale key reaches a call path that
// should never see one, the debug-build counterpart to the documented
// no-op behavior described in spec.md §7 ("stale-key mutations are
// idempotent no-ops with a debug assertion").
func debugCheckStaleKey(isStale bool, op string, k Key) {
	if !globalDebug || !isStale {
		return
	}
	panic(fmt.Sprintf("canopy debug: %s on stale key {slot:%d gen:%d}", op, k.slot, k.gen))
}

// debugMaxTreeDepth mirrors the teacher's debugCheckTreeDepth threshold
// (debug.go), generalized from *Node/Parent chains to box-tree ancestor
// walks via ParentOf.
const debugMaxTreeDepth = 32

// debugCheckTreeDepth warns on stderr if node's ancestor chain exceeds the
// threshold.
func debugCheckTreeDepth[P any](bt *BoxTree[P], node NodeId) {
	if !globalDebug {
		return
	}
	depth := 0
	cur := node
	for {
		p, ok := bt.ParentOf(cur)
		if !ok || p == NoParent {
			break
		}
		depth++
		cur = p
		if depth > debugMaxTreeDepth {
			_, _ = fmt.Fprintf(os.Stderr, "canopy debug: tree depth exceeds %d at node {slot:%d gen:%d}\n", debugMaxTreeDepth, node.slot, node.gen)
			return
		}
	}
}

// debugMaxChildCount mirrors the teacher's debugCheckChildCount threshold.
const debugMaxChildCount = 1000

func debugCheckChildCount(parent NodeId, childCount int) {
	if !globalDebug {
		return
	}
	if childCount > debugMaxChildCount {
		_, _ = fmt.Fprintf(os.Stderr, "canopy debug: node {slot:%d gen:%d} has %d children (threshold %d)\n",
			parent.slot, parent.gen, childCount, debugMaxChildCount)
	}
}
