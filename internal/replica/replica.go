// Package replica runs the online wiring-adaptation loop of one experiment:
// evaluate a coupling for an epoch, feed the result to the phase automaton,
// and derive the next coupling from the phase it lands on.
package replica

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"go.uber.org/zap"

	"rewire/internal/coupling"
	"rewire/internal/substrate"
	"rewire/internal/tsetlin"
)

// Config holds the constants of a replica's adaptation loop.
type Config struct {
	Layout coupling.Layout
	// Distance is the minimum hop distance between sensor and actuator nodes.
	Distance     int
	Creation     coupling.Noise
	Modification coupling.Noise
	MinFraction  float64
	// Load is the resistance of every actuator channel.
	Load          float64
	HistoryWeight float64
	EpochDuration int
	// Continuous keeps the body running across epochs instead of resetting it.
	Continuous bool
	TimeStep   float64
	Automaton  tsetlin.Config
	Seed       int64
	Logger     *zap.Logger
}

func (c Config) validate() error {
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if c.Distance < 0 {
		return errors.New("distance must be >= 0")
	}
	if c.Load <= 0 {
		return errors.New("actuator load must be > 0")
	}
	if c.HistoryWeight < 0 || c.HistoryWeight > 1 {
		return errors.New("history weight must be in [0, 1]")
	}
	if c.EpochDuration < 0 {
		return errors.New("epoch duration must be >= 0")
	}
	if c.TimeStep < 0 {
		return errors.New("time step must be >= 0")
	}
	if c.MinFraction < 0 || c.MinFraction > 1 {
		return errors.New("min fraction must be in [0, 1]")
	}
	return nil
}

// Replica owns one substrate instance, its current coupling, its automaton
// and its history. It is not safe for concurrent use.
type Replica struct {
	id         int
	cfg        Config
	substrate  substrate.Substrate
	body       Body
	evaluators EvaluatorFactory
	rng        *rand.Rand
	mutator    *coupling.Mutator
	automaton  *tsetlin.Automaton
	current    *coupling.Coupling
	history    *History
	epoch      int
	log        *zap.Logger
}

// New wires a random first coupling on sub and prepares the automaton.
func New(id int, cfg Config, sub substrate.Substrate, body Body, evaluators EvaluatorFactory) (*Replica, error) {
	if sub == nil || body == nil || evaluators == nil {
		return nil, errors.New("substrate, body and evaluator factory are required")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	automaton, err := tsetlin.New(cfg.Automaton)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	initial, err := coupling.Random(rng, sub.Component(), cfg.Layout, coupling.RandomParams{
		Creation: cfg.Creation,
		Load:     cfg.Load,
		Distance: cfg.Distance,
	})
	if err != nil {
		return nil, fmt.Errorf("replica %d: initial coupling: %w", id, err)
	}

	return &Replica{
		id:         id,
		cfg:        cfg,
		substrate:  sub,
		body:       body,
		evaluators: evaluators,
		rng:        rng,
		mutator:    &coupling.Mutator{Rand: rng, Noise: cfg.Modification, MinFraction: cfg.MinFraction},
		automaton:  automaton,
		current:    initial,
		history:    NewHistory(initial),
		log:        logger.With(zap.Int("replica", id)),
	}, nil
}

func (r *Replica) ID() int                        { return r.id }
func (r *Replica) Current() *coupling.Coupling    { return r.current }
func (r *Replica) History() *History              { return r.history }
func (r *Replica) Automaton() *tsetlin.Automaton  { return r.automaton }
func (r *Replica) Substrate() substrate.Substrate { return r.substrate }
func (r *Replica) Epoch() int                     { return r.epoch }

// Run executes epochs sequentially, stopping early only on error or context
// cancellation between epochs.
func (r *Replica) Run(ctx context.Context, epochs int) error {
	for i := 0; i < epochs; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := r.RunEpoch(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RunEpoch evaluates the current coupling, transits the automaton, updates
// the history and installs the next coupling. The epoch is logged even when
// no next coupling can be wired; the error is returned alongside the entry.
func (r *Replica) RunEpoch(ctx context.Context) (Adaptation, error) {
	if !r.cfg.Continuous {
		if err := r.body.Reset(ctx); err != nil {
			return Adaptation{}, fmt.Errorf("reset body: %w", err)
		}
	}

	evaluated := r.current
	r.cfg.Layout.Check(evaluated, r.substrate.Component())

	evaluator := r.evaluators()
	steps, stopped := 0, false
	for steps < r.cfg.EpochDuration {
		err := r.step(ctx, evaluated, evaluator)
		if errors.Is(err, ErrStopped) {
			stopped = true
			break
		}
		if err != nil {
			return Adaptation{}, fmt.Errorf("epoch %d step %d: %w", r.epoch, steps, err)
		}
		steps++
	}
	performance := 0.0
	if steps > 0 {
		performance = evaluator.Value()
	}
	if stopped {
		r.log.Info("epoch truncated", zap.Int("epoch", r.epoch), zap.Int("steps", steps))
	}

	prev := r.automaton.State()
	prevIndex := r.automaton.StateIndex()
	edge := r.automaton.Transit(performance, r.history.BestPerformance(), r.automaton.Tolerance())
	r.history.Update(prev.Phase, evaluated, performance, r.cfg.HistoryWeight)

	next := r.automaton.State()
	r.log.Debug("phase transition",
		zap.Int("epoch", r.epoch),
		zap.Stringer("edge", edge),
		zap.Int("from", prevIndex),
		zap.Int("to", r.automaton.StateIndex()),
		zap.Stringer("phase", next.Phase),
	)

	following, report, mutateErr := r.nextCoupling(next.Phase, evaluated)

	entry := Adaptation{
		Epoch:       r.epoch,
		Coupling:    evaluated,
		Performance: performance,
		Phase:       prev.Phase,
		StateIndex:  prevIndex,
		Edge:        edge,
		Steps:       steps,
		Stopped:     stopped,
		Best:        r.history.BestPerformance(),
		Mutation:    report,
	}
	r.history.append(entry)
	r.epoch++
	r.log.Info("epoch complete",
		zap.Int("epoch", entry.Epoch),
		zap.Float64("performance", performance),
		zap.Float64("best", entry.Best),
		zap.Stringer("phase", prev.Phase),
	)

	// The evaluated epoch stays logged; the coupling is kept for the next one.
	if mutateErr != nil {
		return entry, fmt.Errorf("epoch %d: %w", entry.Epoch, mutateErr)
	}
	r.current = following
	return entry, nil
}

// nextCoupling applies the three regimes: adaptation perturbs the best known
// coupling, exploration perturbs the one just evaluated, operation reuses the
// best one untouched.
func (r *Replica) nextCoupling(phase tsetlin.Phase, evaluated *coupling.Coupling) (*coupling.Coupling, coupling.Report, error) {
	var base *coupling.Coupling
	switch phase {
	case tsetlin.Operation:
		return r.history.Best(), coupling.Report{}, nil
	case tsetlin.Adaptation:
		base = r.history.Best()
	case tsetlin.Exploration:
		base = evaluated
	default:
		panic(fmt.Sprintf("replica: unexpected phase %d", int(phase)))
	}
	legal := r.substrate.Component().LegalNodes(base.Nodes(r.cfg.Layout.Actuators), r.cfg.Distance)
	return r.mutator.Mutate(base, legal, r.cfg.Layout.Sensors)
}

// step runs one control step: read the body, stimulate the substrate through
// the sensor bindings, and drive the actuators from their node voltages.
func (r *Replica) step(ctx context.Context, c *coupling.Coupling, evaluator Evaluator) error {
	if err := r.body.Step(ctx); err != nil {
		return err
	}
	readings, err := r.body.Sensors(ctx)
	if err != nil {
		return fmt.Errorf("read sensors: %w", err)
	}

	maxV := r.substrate.Datasheet().MaxStimulationV
	reads := make([]substrate.NodeVoltage, 0, len(r.cfg.Layout.Sensors))
	for _, ch := range r.cfg.Layout.Sensors {
		value, ok := readings[ch]
		if !ok {
			return fmt.Errorf("body reported no reading for sensor %s", ch)
		}
		b, _ := c.Binding(ch)
		reads = append(reads, substrate.NodeVoltage{Node: b.Node, Voltage: clamp(value*b.Weight, 0, 1) * maxV})
	}
	loads := make([]substrate.NodeLoad, 0, len(r.cfg.Layout.Actuators))
	for _, ch := range r.cfg.Layout.Actuators {
		b, _ := c.Binding(ch)
		loads = append(loads, substrate.NodeLoad{Node: b.Node, Resistance: b.Weight})
	}
	if err := r.substrate.Stimulate(ctx, r.cfg.TimeStep, reads, loads, nil); err != nil {
		return fmt.Errorf("stimulate substrate: %w", err)
	}

	outputs := make(map[string]float64, len(r.cfg.Layout.Actuators))
	for _, ch := range r.cfg.Layout.Actuators {
		b, _ := c.Binding(ch)
		outputs[ch] = clamp(r.substrate.ReadVoltage(b.Node)/maxV, 0, 1)
	}
	if err := r.body.Drive(ctx, outputs); err != nil {
		return fmt.Errorf("drive actuators: %w", err)
	}
	evaluator.Update()
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
