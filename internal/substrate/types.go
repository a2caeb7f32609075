package substrate

import "context"

// Node identifies a node in the whole substrate index space. Couplings store
// Nodes; they are only meaningful for the substrate instance that issued them.
type Node int

// LocalNode identifies a node inside the connected component the controller
// works on. Graph adjacency and legality are expressed in this space.
type LocalNode int

// NodeVoltage is a stimulation applied to a substrate node.
type NodeVoltage struct {
	Node    Node
	Voltage float64
}

// NodeLoad attaches a load resistance between a substrate node and ground.
type NodeLoad struct {
	Node       Node
	Resistance float64
}

// Substrate is the physical or simulated conductive network shared by every
// sensor and actuator channel. Its topology never changes; only the nodes the
// channels are attached to do.
type Substrate interface {
	Component() *Component
	Datasheet() Datasheet
	Stimulate(ctx context.Context, dt float64, reads []NodeVoltage, loads []NodeLoad, grounds []Node) error
	ReadVoltage(node Node) float64
}

// Cloner is implemented by substrates that can hand every replica its own
// independent instance.
type Cloner interface {
	Clone() Substrate
}

// Datasheet describes how a substrate instance is generated and how its
// electrical state evolves.
type Datasheet struct {
	Seed        int64   `yaml:"seed" json:"seed"`
	Size        float64 `yaml:"size" json:"size"`
	WiresCount  int     `yaml:"wires_count" json:"wires_count"`
	WiresLength float64 `yaml:"wires_length" json:"wires_length"`

	MaxStimulationV   float64 `yaml:"max_stimulation_v" json:"max_stimulation_v"`
	MinConductance    float64 `yaml:"min_conductance" json:"min_conductance"`
	MaxConductance    float64 `yaml:"max_conductance" json:"max_conductance"`
	Potentiation      float64 `yaml:"potentiation" json:"potentiation"`
	Depression        float64 `yaml:"depression" json:"depression"`
	Leak              float64 `yaml:"leak" json:"leak"`
	SourceConductance float64 `yaml:"source_conductance" json:"source_conductance"`
	GroundConductance float64 `yaml:"ground_conductance" json:"ground_conductance"`
}

// DefaultDatasheet returns the datasheet used when no substrate section is
// configured.
func DefaultDatasheet() Datasheet {
	return Datasheet{
		Seed:              1,
		Size:              50,
		WiresCount:        120,
		WiresLength:       10,
		MaxStimulationV:   10,
		MinConductance:    0.001,
		MaxConductance:    0.1,
		Potentiation:      0.05,
		Depression:        0.01,
		Leak:              1e-9,
		SourceConductance: 1e3,
		GroundConductance: 1e3,
	}
}
