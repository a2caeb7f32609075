package substrate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

type junction struct {
	a, b Node
	g    float64
}

type wire struct {
	x1, y1, x2, y2 float64
}

// Network is a resistive nanowire substrate: wires dropped at random on a
// square, junctions wherever two wires cross. Node voltages are solved from
// the nodal equations on every stimulation and junction conductances drift
// with the voltage across them.
type Network struct {
	ds        Datasheet
	nodes     int
	junctions []junction
	voltage   []float64
	component *Component
}

// NewNetwork generates a substrate from ds. Generation is deterministic in
// ds.Seed.
func NewNetwork(ds Datasheet) (*Network, error) {
	if ds.WiresCount <= 0 {
		return nil, errors.New("wires count must be > 0")
	}
	if ds.Size <= 0 || ds.WiresLength <= 0 {
		return nil, errors.New("size and wires length must be > 0")
	}
	if ds.MaxStimulationV <= 0 {
		return nil, errors.New("max stimulation voltage must be > 0")
	}
	if ds.MinConductance <= 0 || ds.MaxConductance < ds.MinConductance {
		return nil, fmt.Errorf("invalid conductance range [%g, %g]", ds.MinConductance, ds.MaxConductance)
	}

	rng := rand.New(rand.NewSource(ds.Seed))
	wires := make([]wire, ds.WiresCount)
	for i := range wires {
		cx, cy := rng.Float64()*ds.Size, rng.Float64()*ds.Size
		theta := rng.Float64() * math.Pi
		dx, dy := math.Cos(theta)*ds.WiresLength/2, math.Sin(theta)*ds.WiresLength/2
		wires[i] = wire{x1: cx - dx, y1: cy - dy, x2: cx + dx, y2: cy + dy}
	}

	var junctions []junction
	var edges []GlobalEdge
	for i := 0; i < len(wires); i++ {
		for j := i + 1; j < len(wires); j++ {
			if !crosses(wires[i], wires[j]) {
				continue
			}
			junctions = append(junctions, junction{a: Node(i), b: Node(j), g: ds.MinConductance})
			edges = append(edges, GlobalEdge{A: Node(i), B: Node(j)})
		}
	}

	component, err := LargestComponent(ds.WiresCount, edges)
	if err != nil {
		return nil, err
	}
	return &Network{
		ds:        ds,
		nodes:     ds.WiresCount,
		junctions: junctions,
		voltage:   make([]float64, ds.WiresCount),
		component: component,
	}, nil
}

func (n *Network) Component() *Component {
	return n.component
}

func (n *Network) Datasheet() Datasheet {
	return n.ds
}

// Clone returns an independent copy sharing only the immutable component.
func (n *Network) Clone() Substrate {
	out := *n
	out.junctions = append([]junction(nil), n.junctions...)
	out.voltage = append([]float64(nil), n.voltage...)
	return &out
}

func (n *Network) ReadVoltage(node Node) float64 {
	if node < 0 || int(node) >= n.nodes {
		panic(fmt.Sprintf("substrate: node %d outside substrate range [0, %d)", node, n.nodes))
	}
	return n.voltage[node]
}

// Stimulate updates junction conductances from the previous voltages, then
// solves the component's node voltages for the given sources, loads and
// grounds.
func (n *Network) Stimulate(ctx context.Context, dt float64, reads []NodeVoltage, loads []NodeLoad, grounds []Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.updateConductance(dt)

	c := n.component
	size := c.Len()
	a := mat.NewDense(size, size, nil)
	b := mat.NewVecDense(size, nil)

	for i := 0; i < size; i++ {
		a.Set(i, i, n.ds.Leak)
	}
	for _, j := range n.junctions {
		if !c.Contains(j.a) || !c.Contains(j.b) {
			continue
		}
		la, lb := int(c.Local(j.a)), int(c.Local(j.b))
		a.Set(la, la, a.At(la, la)+j.g)
		a.Set(lb, lb, a.At(lb, lb)+j.g)
		a.Set(la, lb, a.At(la, lb)-j.g)
		a.Set(lb, la, a.At(lb, la)-j.g)
	}
	for _, r := range reads {
		l := int(c.Local(r.Node))
		a.Set(l, l, a.At(l, l)+n.ds.SourceConductance)
		b.SetVec(l, b.AtVec(l)+n.ds.SourceConductance*r.Voltage)
	}
	for _, ld := range loads {
		if ld.Resistance <= 0 {
			panic(fmt.Sprintf("substrate: load on node %d has non-positive resistance %g", ld.Node, ld.Resistance))
		}
		l := int(c.Local(ld.Node))
		a.Set(l, l, a.At(l, l)+1/ld.Resistance)
	}
	for _, g := range grounds {
		l := int(c.Local(g))
		a.Set(l, l, a.At(l, l)+n.ds.GroundConductance)
	}

	var v mat.VecDense
	if err := v.SolveVec(a, b); err != nil {
		// An ill-conditioned system still yields a usable solution.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return fmt.Errorf("solve node voltages: %w", err)
		}
	}
	for i := 0; i < size; i++ {
		n.voltage[c.Global(LocalNode(i))] = v.AtVec(i)
	}
	return nil
}

func (n *Network) updateConductance(dt float64) {
	if dt <= 0 {
		return
	}
	lo, hi := n.ds.MinConductance, n.ds.MaxConductance
	for i := range n.junctions {
		j := &n.junctions[i]
		dv := math.Abs(n.voltage[j.a] - n.voltage[j.b])
		g := j.g + dt*(n.ds.Potentiation*dv*(hi-j.g)-n.ds.Depression*(j.g-lo))
		j.g = math.Min(hi, math.Max(lo, g))
	}
}

func crosses(p, q wire) bool {
	d1 := orient(q.x1, q.y1, q.x2, q.y2, p.x1, p.y1)
	d2 := orient(q.x1, q.y1, q.x2, q.y2, p.x2, p.y2)
	d3 := orient(p.x1, p.y1, p.x2, p.y2, q.x1, q.y1)
	d4 := orient(p.x1, p.y1, p.x2, p.y2, q.x2, q.y2)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func orient(ax, ay, bx, by, cx, cy float64) float64 {
	return (bx-ax)*(cy-ay) - (by-ay)*(cx-ax)
}
