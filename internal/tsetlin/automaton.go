package tsetlin

// Automaton walks a compiled state table. It is sequential by design: Transit
// advances the only mutable field, the current state pointer.
type Automaton struct {
	states    []State
	start     int
	current   int
	tolerance float64
}

// New validates cfg and positions the automaton on its main state.
func New(cfg Config) (*Automaton, error) {
	states, err := cfg.Compile()
	if err != nil {
		return nil, err
	}
	return &Automaton{
		states:    states,
		start:     cfg.MainState,
		current:   cfg.MainState,
		tolerance: cfg.StagnationTolerance,
	}, nil
}

// State returns the current state.
func (a *Automaton) State() State {
	return a.states[a.current]
}

// StateIndex returns the id of the current state.
func (a *Automaton) StateIndex() int {
	return a.current
}

// Tolerance returns the configured stagnation tolerance.
func (a *Automaton) Tolerance() float64 {
	return a.tolerance
}

// States returns a copy of the state table.
func (a *Automaton) States() []State {
	return append([]State(nil), a.states...)
}

// Transit follows the edge Decide selects for (last, best, tolerance) and
// returns it. Callers normally pass Tolerance().
func (a *Automaton) Transit(last, best, tolerance float64) Edge {
	edge := Decide(last, best, tolerance)
	a.current = a.states[a.current].Next[edge]
	return edge
}

// Reset returns to the main state.
func (a *Automaton) Reset() {
	a.current = a.start
}
