package substrate

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
)

// Edge is an undirected junction between two component-local nodes.
type Edge struct {
	A LocalNode
	B LocalNode
}

// Graph is the adjacency of a connected component over the fixed index range
// [0, Len()).
type Graph struct {
	n     int
	edges []Edge
	g     *simple.UndirectedGraph
}

// NewGraph builds a graph over nodes [0, n). Every endpoint must lie in that
// range. Self loops are ignored and duplicate edges collapse.
func NewGraph(n int, edges []Edge) (*Graph, error) {
	if n < 0 {
		return nil, fmt.Errorf("node count must be >= 0, got %d", n)
	}
	g := simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}
	kept := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if e.A < 0 || int(e.A) >= n || e.B < 0 || int(e.B) >= n {
			return nil, fmt.Errorf("edge %d-%d outside node range [0, %d)", e.A, e.B, n)
		}
		if e.A == e.B {
			continue
		}
		if g.HasEdgeBetween(int64(e.A), int64(e.B)) {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(e.A), T: simple.Node(e.B)})
		kept = append(kept, e)
	}
	return &Graph{n: n, edges: kept, g: g}, nil
}

// Len reports the size of the node index range.
func (g *Graph) Len() int {
	return g.n
}

// Edges returns the junction list the graph was built from.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// Contains reports whether node lies inside the index range.
func (g *Graph) Contains(node LocalNode) bool {
	return node >= 0 && int(node) < g.n
}

// Neighbors returns the nodes adjacent to node in ascending order.
func (g *Graph) Neighbors(node LocalNode) []LocalNode {
	if !g.Contains(node) {
		panic(fmt.Sprintf("substrate: node %d outside graph range [0, %d)", node, g.n))
	}
	it := g.g.From(int64(node))
	out := make([]LocalNode, 0, it.Len())
	for it.Next() {
		out = append(out, LocalNode(it.Node().ID()))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NodeSet is an unordered set of component-local nodes.
type NodeSet map[LocalNode]struct{}

// NewNodeSet builds a set from the given nodes.
func NewNodeSet(nodes ...LocalNode) NodeSet {
	s := make(NodeSet, len(nodes))
	for _, n := range nodes {
		s[n] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s NodeSet) Has(node LocalNode) bool {
	_, ok := s[node]
	return ok
}

// Sorted returns the members in ascending order.
func (s NodeSet) Sorted() []LocalNode {
	out := make([]LocalNode, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
