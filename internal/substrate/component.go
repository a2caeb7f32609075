package substrate

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// GlobalEdge is a junction expressed in substrate-wide node indices.
type GlobalEdge struct {
	A Node
	B Node
}

// Component is the connected region of the substrate the controller attaches
// channels to. It owns the only translation between substrate-wide and
// component-local indices.
type Component struct {
	members []Node
	index   map[Node]LocalNode
	graph   *Graph
}

// NewComponent builds a component from its member nodes and the substrate
// edges among them. Edges touching non-members are dropped.
func NewComponent(members []Node, edges []GlobalEdge) (*Component, error) {
	sorted := append([]Node(nil), members...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := make(map[Node]LocalNode, len(sorted))
	for i, n := range sorted {
		if _, dup := index[n]; dup {
			return nil, fmt.Errorf("duplicate component member %d", n)
		}
		index[n] = LocalNode(i)
	}
	local := make([]Edge, 0, len(edges))
	for _, e := range edges {
		a, okA := index[e.A]
		b, okB := index[e.B]
		if !okA || !okB {
			continue
		}
		local = append(local, Edge{A: a, B: b})
	}
	g, err := NewGraph(len(sorted), local)
	if err != nil {
		return nil, err
	}
	return &Component{members: sorted, index: index, graph: g}, nil
}

// LargestComponent selects the biggest connected component of a substrate
// with nodes [0, n). Ties go to the component holding the lowest node.
func LargestComponent(n int, edges []GlobalEdge) (*Component, error) {
	g := simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}
	for _, e := range edges {
		if e.A < 0 || int(e.A) >= n || e.B < 0 || int(e.B) >= n {
			return nil, fmt.Errorf("edge %d-%d outside substrate range [0, %d)", e.A, e.B, n)
		}
		if e.A == e.B || g.HasEdgeBetween(int64(e.A), int64(e.B)) {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(e.A), T: simple.Node(e.B)})
	}

	var best []Node
	for _, cc := range topo.ConnectedComponents(g) {
		nodes := make([]Node, 0, len(cc))
		for _, gn := range cc {
			nodes = append(nodes, Node(gn.ID()))
		}
		sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
		if best == nil || len(nodes) > len(best) || (len(nodes) == len(best) && nodes[0] < best[0]) {
			best = nodes
		}
	}
	if len(best) == 0 {
		return nil, fmt.Errorf("substrate has no nodes")
	}
	return NewComponent(best, edges)
}

// Graph returns the component-local adjacency.
func (c *Component) Graph() *Graph {
	return c.graph
}

// Len reports the number of member nodes.
func (c *Component) Len() int {
	return len(c.members)
}

// Nodes returns the member nodes in ascending order.
func (c *Component) Nodes() []Node {
	return append([]Node(nil), c.members...)
}

// Contains reports whether node belongs to the component.
func (c *Component) Contains(node Node) bool {
	_, ok := c.index[node]
	return ok
}

// Local translates a substrate node into the component index space. Nodes
// outside the component are a programming error.
func (c *Component) Local(node Node) LocalNode {
	l, ok := c.index[node]
	if !ok {
		panic(fmt.Sprintf("substrate: node %d is not part of the component", node))
	}
	return l
}

// Global translates a component-local node back into the substrate space.
func (c *Component) Global(node LocalNode) Node {
	if node < 0 || int(node) >= len(c.members) {
		panic(fmt.Sprintf("substrate: local node %d outside component range [0, %d)", node, len(c.members)))
	}
	return c.members[node]
}

// LocalSet translates substrate nodes into a local set.
func (c *Component) LocalSet(nodes []Node) NodeSet {
	out := make(NodeSet, len(nodes))
	for _, n := range nodes {
		out[c.Local(n)] = struct{}{}
	}
	return out
}

// Globals translates a local set into ascending substrate nodes.
func (c *Component) Globals(set NodeSet) []Node {
	sorted := set.Sorted()
	out := make([]Node, 0, len(sorted))
	for _, n := range sorted {
		out = append(out, c.Global(n))
	}
	return out
}

// LegalNodes is LegalNodes evaluated on the component with anchors and result
// in substrate indices.
func (c *Component) LegalNodes(anchors []Node, distance int) []Node {
	return c.Globals(LegalNodes(c.graph, c.LocalSet(anchors), distance, false))
}
