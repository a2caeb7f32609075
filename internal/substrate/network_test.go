package substrate

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLargestComponentTranslatesIndices(t *testing.T) {
	edges := []GlobalEdge{{A: 0, B: 1}, {A: 3, B: 5}, {A: 5, B: 7}, {A: 7, B: 3}}
	c, err := LargestComponent(8, edges)
	if err != nil {
		t.Fatalf("largest component: %v", err)
	}
	if diff := cmp.Diff([]Node{3, 5, 7}, c.Nodes()); diff != "" {
		t.Fatalf("members mismatch (-want +got):\n%s", diff)
	}
	if got := c.Local(5); got != 1 {
		t.Fatalf("expected local 1 for node 5, got %d", got)
	}
	if got := c.Global(2); got != 7 {
		t.Fatalf("expected global 7 for local 2, got %d", got)
	}
	if c.Graph().Len() != 3 || len(c.Graph().Edges()) != 3 {
		t.Fatalf("unexpected component graph: len=%d edges=%d", c.Graph().Len(), len(c.Graph().Edges()))
	}
}

func TestComponentLegalNodesUsesSubstrateIndices(t *testing.T) {
	members := []Node{10, 11, 12, 13, 14}
	edges := []GlobalEdge{{A: 10, B: 11}, {A: 11, B: 12}, {A: 12, B: 13}, {A: 13, B: 14}}
	c, err := NewComponent(members, edges)
	if err != nil {
		t.Fatalf("new component: %v", err)
	}
	if diff := cmp.Diff([]Node{10, 11}, c.LegalNodes([]Node{14}, 2)); diff != "" {
		t.Fatalf("legal nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestComponentLocalPanicsForForeignNode(t *testing.T) {
	c, err := NewComponent([]Node{1, 2}, []GlobalEdge{{A: 1, B: 2}})
	if err != nil {
		t.Fatalf("new component: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	c.Local(0)
}

func TestNetworkGenerationIsDeterministic(t *testing.T) {
	a, err := NewNetwork(DefaultDatasheet())
	if err != nil {
		t.Fatalf("new network: %v", err)
	}
	b, err := NewNetwork(DefaultDatasheet())
	if err != nil {
		t.Fatalf("new network: %v", err)
	}
	if diff := cmp.Diff(a.Component().Nodes(), b.Component().Nodes()); diff != "" {
		t.Fatalf("component differs between identical seeds:\n%s", diff)
	}
	if a.Component().Len() < 4 {
		t.Fatalf("expected a usable component, got %d nodes", a.Component().Len())
	}
}

func TestNetworkStimulateStaysWithinSourceRange(t *testing.T) {
	ctx := context.Background()
	ds := DefaultDatasheet()
	n, err := NewNetwork(ds)
	if err != nil {
		t.Fatalf("new network: %v", err)
	}
	nodes := n.Component().Nodes()
	source, ground := nodes[0], nodes[len(nodes)-1]

	for step := 0; step < 5; step++ {
		err := n.Stimulate(ctx, 0.1,
			[]NodeVoltage{{Node: source, Voltage: 5}},
			[]NodeLoad{{Node: nodes[1], Resistance: 100}},
			[]Node{ground},
		)
		if err != nil {
			t.Fatalf("stimulate: %v", err)
		}
	}
	const eps = 1e-6
	for _, node := range nodes {
		v := n.ReadVoltage(node)
		if v < -eps || v > 5+eps {
			t.Fatalf("node %d voltage %g outside [0, 5]", node, v)
		}
	}
	if v := n.ReadVoltage(source); v < 4.5 {
		t.Fatalf("expected source node near 5V, got %g", v)
	}
}

func TestNetworkCloneIsIndependent(t *testing.T) {
	ctx := context.Background()
	n, err := NewNetwork(DefaultDatasheet())
	if err != nil {
		t.Fatalf("new network: %v", err)
	}
	clone := n.Clone()
	source := n.Component().Nodes()[0]
	if err := clone.Stimulate(ctx, 0.1, []NodeVoltage{{Node: source, Voltage: 3}}, nil, nil); err != nil {
		t.Fatalf("stimulate clone: %v", err)
	}
	if n.ReadVoltage(source) != 0 {
		t.Fatalf("original voltage changed: %g", n.ReadVoltage(source))
	}
	if clone.ReadVoltage(source) == 0 {
		t.Fatal("expected clone voltage to change")
	}
}

func TestNewNetworkValidatesDatasheet(t *testing.T) {
	ds := DefaultDatasheet()
	ds.WiresCount = 0
	if _, err := NewNetwork(ds); err == nil {
		t.Fatal("expected wires count validation")
	}
}
