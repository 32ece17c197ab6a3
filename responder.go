package canopy

// DepthKindZ and DepthKindDistance tag a [DepthKey]'s kind.
type DepthKind uint8

const (
	DepthKindZ DepthKind = iota
	DepthKindDistance
)

// DepthKey orders [ResolvedHit]s for target selection: Z is higher-is-nearer,
// Distance is lower-is-nearer (spec.md §3.4).
type DepthKey struct {
	Kind  DepthKind
	Z     int32
	Dist  float64
}

// ZDepth constructs a Z-kind DepthKey.
func ZDepth(z int32) DepthKey { return DepthKey{Kind: DepthKindZ, Z: z} }

// DistanceDepth constructs a Distance-kind DepthKey.
func DistanceDepth(d float64) DepthKey { return DepthKey{Kind: DepthKindDistance, Dist: d} }

// MixedDepthPolicy resolves ranking when hits mix Z and Distance kinds
// (spec.md §6 "Configuration options").
type MixedDepthPolicy uint8

const (
	ZAboveDistance MixedDepthPolicy = iota
	DistanceAboveZ
)

// better reports whether a outranks b (a should be preferred as nearer),
// under policy for mixed-kind comparisons.
func (a DepthKey) better(b DepthKey, policy MixedDepthPolicy) bool {
	if a.Kind == b.Kind {
		if a.Kind == DepthKindZ {
			return a.Z > b.Z
		}
		return a.Dist < b.Dist
	}
	if policy == ZAboveDistance {
		return a.Kind == DepthKindZ
	}
	return a.Kind == DepthKindDistance
}

// Phase is one of the three dispatch phases (spec.md §3.4).
type Phase uint8

const (
	PhaseCapture Phase = iota
	PhaseTarget
	PhaseBubble
)

// Outcome is a handler's response, honored by the caller's dispatch loop
// (spec.md §4.6 — canopy only emits the sequence, it does not deliver it).
type Outcome uint8

const (
	Continue Outcome = iota
	Stop
	StopAndConsume
)

// ResolvedHit is one candidate the caller has already resolved from a
// box-tree query, ready for ranking (spec.md §3.4).
type ResolvedHit[K comparable, W any, M any] struct {
	Node      K
	Path      []K // nil if unknown; reconstructed via ParentLookup if needed
	Depth     DepthKey
	Localizer W
	Meta      M
	HasMeta   bool
}

// Dispatch is one step of the emitted capture→target→bubble sequence
// (spec.md §3.4).
type Dispatch[K comparable, W any, M any] struct {
	Node      K
	Phase     Phase
	Localizer W
	Meta      M
	HasMeta   bool
}

// ParentLookup resolves a node's parent, or (zero, false) for a root.
type ParentLookup[K comparable] func(K) (K, bool)

// ScopeFilter reports whether node is in scope. A nil filter admits everything.
type ScopeFilter[K comparable] func(node K) bool

// RouteConfig bundles the router's inputs other than the hit slice itself
// (spec.md §4.6, §6).
type RouteConfig[K comparable] struct {
	Captured     K
	HasCaptured  bool
	ParentLookup ParentLookup[K]
	ScopeFilter  ScopeFilter[K]
	MixedPolicy  MixedDepthPolicy
}

// reconstructPath walks ParentLookup from node up to a root, returning
// [root, ..., node]. Falls back to the singleton path if lookup is nil.
func reconstructPath[K comparable](node K, lookup ParentLookup[K]) []K {
	if lookup == nil {
		return []K{node}
	}
	path := []K{node}
	cur := node
	for {
		parent, ok := lookup(cur)
		if !ok {
			break
		}
		path = append(path, parent)
		cur = parent
	}
	// path is currently [node, ..., root]; reverse to [root, ..., node].
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func pathPasses[K comparable](path []K, filter ScopeFilter[K]) bool {
	if filter == nil {
		return true
	}
	for _, n := range path {
		if !filter(n) {
			return false
		}
	}
	return true
}

// Route implements target selection and dispatch-sequence construction
// (spec.md §4.6): capture takes priority over ranking; otherwise hits are
// ranked by DepthKey (ties won by the last equal hit); the chosen path is
// checked against ScopeFilter, falling through to the next-best hit on
// rejection; the winning path is split into capture/target/bubble phases.
func Route[K comparable, W any, M any](hits []ResolvedHit[K, W, M], cfg RouteConfig[K]) []Dispatch[K, W, M] {
	if cfg.HasCaptured {
		return routeCaptured(hits, cfg)
	}
	return routeRanked(hits, cfg)
}

func routeCaptured[K comparable, W any, M any](hits []ResolvedHit[K, W, M], cfg RouteConfig[K]) []Dispatch[K, W, M] {
	var w W
	var m M
	hasMeta := false
	path := reconstructPath(cfg.Captured, cfg.ParentLookup)
	for _, h := range hits {
		if h.Node == cfg.Captured {
			if h.Path != nil {
				path = h.Path
			}
			w = h.Localizer
			m = h.Meta
			hasMeta = h.HasMeta
			break
		}
	}
	return buildDispatch(path, w, m, hasMeta)
}

func routeRanked[K comparable, W any, M any](hits []ResolvedHit[K, W, M], cfg RouteConfig[K]) []Dispatch[K, W, M] {
	order := make([]int, len(hits))
	for i := range order {
		order[i] = i
	}
	// Select the best hit by DepthKey in a single forward scan. Among
	// equal-depth hits the LAST one wins (spec.md §4.6), so the scan
	// replaces the current best on a strictly better depth and also on an
	// equal one.
	best := -1
	for _, i := range order {
		if best == -1 {
			best = i
			continue
		}
		if hits[i].Depth.better(hits[best].Depth, cfg.MixedPolicy) || isEqualDepth(hits[i].Depth, hits[best].Depth) {
			best = i
		}
	}
	if best == -1 {
		return nil
	}

	tried := make(map[int]bool)
	for {
		tried[best] = true
		h := hits[best]
		path := h.Path
		if path == nil {
			path = reconstructPath(h.Node, cfg.ParentLookup)
		}
		if pathPasses(path, cfg.ScopeFilter) {
			return buildDispatch(path, h.Localizer, h.Meta, h.HasMeta)
		}
		// Find the next-best untried hit.
		next := -1
		for i := range hits {
			if tried[i] {
				continue
			}
			if next == -1 || hits[i].Depth.better(hits[next].Depth, cfg.MixedPolicy) || isEqualDepth(hits[i].Depth, hits[next].Depth) {
				next = i
			}
		}
		if next == -1 {
			return nil
		}
		best = next
	}
}

func isEqualDepth(a, b DepthKey) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == DepthKindZ {
		return a.Z == b.Z
	}
	return a.Dist == b.Dist
}

func buildDispatch[K comparable, W any, M any](path []K, w W, m M, hasMeta bool) []Dispatch[K, W, M] {
	if len(path) == 0 {
		return nil
	}
	out := make([]Dispatch[K, W, M], 0, len(path)*2-1)
	for _, n := range path[:len(path)-1] {
		out = append(out, Dispatch[K, W, M]{Node: n, Phase: PhaseCapture, Localizer: w, Meta: m, HasMeta: hasMeta})
	}
	out = append(out, Dispatch[K, W, M]{Node: path[len(path)-1], Phase: PhaseTarget, Localizer: w, Meta: m, HasMeta: hasMeta})
	for i := len(path) - 2; i >= 0; i-- {
		out = append(out, Dispatch[K, W, M]{Node: path[i], Phase: PhaseBubble, Localizer: w, Meta: m, HasMeta: hasMeta})
	}
	return out
}
