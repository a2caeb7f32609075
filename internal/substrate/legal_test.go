package substrate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func chainGraph(t *testing.T, n int) *Graph {
	t.Helper()
	edges := make([]Edge, 0, n-1)
	for i := 0; i+1 < n; i++ {
		edges = append(edges, Edge{A: LocalNode(i), B: LocalNode(i + 1)})
	}
	g, err := NewGraph(n, edges)
	if err != nil {
		t.Fatalf("new graph: %v", err)
	}
	return g
}

func TestLegalNodesChainScenario(t *testing.T) {
	g := chainGraph(t, 5)
	anchors := NewNodeSet(4)

	near := LegalNodes(g, anchors, 2, true)
	if diff := cmp.Diff([]LocalNode{2, 3, 4}, near.Sorted()); diff != "" {
		t.Fatalf("frontier mismatch (-want +got):\n%s", diff)
	}
	legal := LegalNodes(g, anchors, 2, false)
	if diff := cmp.Diff([]LocalNode{0, 1}, legal.Sorted()); diff != "" {
		t.Fatalf("legal pool mismatch (-want +got):\n%s", diff)
	}
}

func TestLegalNodesZeroDistanceExcludesAnchorsOnly(t *testing.T) {
	g := chainGraph(t, 5)
	legal := LegalNodes(g, NewNodeSet(1, 3), 0, false)
	if diff := cmp.Diff([]LocalNode{0, 2, 4}, legal.Sorted()); diff != "" {
		t.Fatalf("legal pool mismatch (-want +got):\n%s", diff)
	}
}

func TestLegalNodesEmptyWhenFrontierCoversGraph(t *testing.T) {
	g := chainGraph(t, 4)
	legal := LegalNodes(g, NewNodeSet(0), 10, false)
	if len(legal) != 0 {
		t.Fatalf("expected empty legal pool, got %v", legal.Sorted())
	}
}

func TestLegalNodesIsolatedNodesStayLegal(t *testing.T) {
	g, err := NewGraph(6, []Edge{{A: 0, B: 1}, {A: 1, B: 2}})
	if err != nil {
		t.Fatalf("new graph: %v", err)
	}
	legal := LegalNodes(g, NewNodeSet(0), 5, false)
	if diff := cmp.Diff([]LocalNode{3, 4, 5}, legal.Sorted()); diff != "" {
		t.Fatalf("legal pool mismatch (-want +got):\n%s", diff)
	}
}

func TestLegalNodesMonotoneInDistance(t *testing.T) {
	g, err := NewGraph(9, []Edge{
		{A: 0, B: 1}, {A: 1, B: 2}, {A: 2, B: 3}, {A: 3, B: 4},
		{A: 1, B: 5}, {A: 5, B: 6}, {A: 6, B: 7}, {A: 7, B: 8}, {A: 8, B: 4},
	})
	if err != nil {
		t.Fatalf("new graph: %v", err)
	}
	anchors := NewNodeSet(0, 8)
	prev := LegalNodes(g, anchors, 0, false)
	for d := 1; d <= 6; d++ {
		cur := LegalNodes(g, anchors, d, false)
		for n := range cur {
			if !prev.Has(n) {
				t.Fatalf("distance %d added node %d absent at distance %d", d, n, d-1)
			}
		}
		prev = cur
	}
}

func TestNewGraphRejectsOutOfRangeEdge(t *testing.T) {
	if _, err := NewGraph(3, []Edge{{A: 0, B: 3}}); err == nil {
		t.Fatal("expected out of range edge error")
	}
}

func TestNeighborhoodPanicsOnForeignAnchor(t *testing.T) {
	g := chainGraph(t, 3)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for anchor outside range")
		}
	}()
	Neighborhood(g, NewNodeSet(7), 1)
}
