package canopy

import (
	"reflect"
	"testing"
)

func TestRouteCapturedWinsOverRanking(t *testing.T) {
	hits := []ResolvedHit[string, int, any]{
		{Node: "a", Path: []string{"r", "a"}, Depth: ZDepth(5)},
		{Node: "b", Path: []string{"r", "b"}, Depth: ZDepth(0), Localizer: 7},
		{Node: "d", Path: []string{"r", "c", "d"}, Depth: ZDepth(9)},
	}
	cfg := RouteConfig[string]{Captured: "b", HasCaptured: true}

	got := Route(hits, cfg)
	want := []Dispatch[string, int, any]{
		{Node: "r", Phase: PhaseCapture, Localizer: 7},
		{Node: "b", Phase: PhaseTarget, Localizer: 7},
		{Node: "r", Phase: PhaseBubble, Localizer: 7},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Route(captured=b) = %+v, want %+v", got, want)
	}
}

func TestRouteRankedLastEqualDepthWins(t *testing.T) {
	hits := []ResolvedHit[string, int, any]{
		{Node: "a", Path: []string{"r", "a"}, Depth: ZDepth(0)},
		{Node: "b", Path: []string{"r", "b"}, Depth: ZDepth(0)},
		{Node: "d", Path: []string{"r", "c", "d"}, Depth: ZDepth(0)},
	}
	cfg := RouteConfig[string]{}

	got := Route(hits, cfg)
	want := []Dispatch[string, int, any]{
		{Node: "r", Phase: PhaseCapture},
		{Node: "c", Phase: PhaseCapture},
		{Node: "d", Phase: PhaseTarget},
		{Node: "c", Phase: PhaseBubble},
		{Node: "r", Phase: PhaseBubble},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Route(all equal depth) = %+v, want %+v", got, want)
	}
}

func TestRouteRankedHighestZWins(t *testing.T) {
	hits := []ResolvedHit[string, int, any]{
		{Node: "a", Path: []string{"r", "a"}, Depth: ZDepth(1)},
		{Node: "b", Path: []string{"r", "b"}, Depth: ZDepth(9)},
		{Node: "c", Path: []string{"r", "c"}, Depth: ZDepth(3)},
	}
	got := Route(hits, RouteConfig[string]{})
	var target string
	for _, d := range got {
		if d.Phase == PhaseTarget {
			target = d.Node
		}
	}
	if target != "b" {
		t.Errorf("Route should select the highest-Z hit (b); got target=%q", target)
	}
}

func TestRouteScopeFilterFallsBackToNextBest(t *testing.T) {
	hits := []ResolvedHit[string, int, any]{
		{Node: "a", Path: []string{"r", "a"}, Depth: ZDepth(1)},
		{Node: "b", Path: []string{"r", "outside", "b"}, Depth: ZDepth(9)},
	}
	cfg := RouteConfig[string]{
		ScopeFilter: func(n string) bool { return n != "outside" },
	}
	got := Route(hits, cfg)
	if len(got) == 0 {
		t.Fatalf("expected a fallback dispatch, got none")
	}
	var target string
	for _, d := range got {
		if d.Phase == PhaseTarget {
			target = d.Node
		}
	}
	if target != "a" {
		t.Errorf("target = %v, want \"a\" (b's path is out of scope)", target)
	}
}

func TestRouteAllOutOfScopeReturnsNil(t *testing.T) {
	hits := []ResolvedHit[string, int, any]{
		{Node: "b", Path: []string{"outside", "b"}, Depth: ZDepth(1)},
	}
	cfg := RouteConfig[string]{
		ScopeFilter: func(n string) bool { return n != "outside" },
	}
	got := Route(hits, cfg)
	if got != nil {
		t.Errorf("Route with no in-scope hits = %+v, want nil", got)
	}
}

func TestRouteDistanceDepthLowerWins(t *testing.T) {
	hits := []ResolvedHit[string, int, any]{
		{Node: "near", Path: []string{"near"}, Depth: DistanceDepth(2)},
		{Node: "far", Path: []string{"far"}, Depth: DistanceDepth(10)},
	}
	got := Route(hits, RouteConfig[string]{})
	var target string
	for _, d := range got {
		if d.Phase == PhaseTarget {
			target = d.Node
		}
	}
	if target != "near" {
		t.Errorf("target = %q, want \"near\" (lower distance wins)", target)
	}
}

func TestRouteEmptyHitsReturnsNil(t *testing.T) {
	got := Route([]ResolvedHit[string, int, any]{}, RouteConfig[string]{})
	if got != nil {
		t.Errorf("Route(no hits) = %+v, want nil", got)
	}
}
