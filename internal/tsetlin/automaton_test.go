package tsetlin

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func threeStateConfig() Config {
	return Config{
		States: []StateConfig{
			{ID: 0, Phase: Exploration, PerformanceIncrease: ptr(0), PerformanceDecrease: ptr(1), PerformanceStagnation: ptr(0)},
			{ID: 1, Phase: Operation, PerformanceIncrease: ptr(0), PerformanceDecrease: ptr(2), PerformanceStagnation: ptr(1)},
			{ID: 2, Phase: Adaptation, PerformanceIncrease: ptr(1), PerformanceDecrease: ptr(2), PerformanceStagnation: ptr(1)},
		},
		MainState:           1,
		StagnationTolerance: 1.0,
	}
}

func TestTransitThreeStateScenario(t *testing.T) {
	a, err := New(threeStateConfig())
	if err != nil {
		t.Fatalf("new automaton: %v", err)
	}
	steps := []struct {
		last, best float64
		edge       Edge
		state      int
		phase      Phase
	}{
		{last: 10, best: 5, edge: PerformanceIncrease, state: 0, phase: Exploration},
		{last: 4, best: 4.5, edge: PerformanceStagnation, state: 0, phase: Exploration},
		{last: 3, best: 5, edge: PerformanceDecrease, state: 1, phase: Operation},
	}
	for i, s := range steps {
		edge := a.Transit(s.last, s.best, a.Tolerance())
		if edge != s.edge || a.StateIndex() != s.state || a.State().Phase != s.phase {
			t.Fatalf("step %d: got edge=%s state=%d phase=%s, want edge=%s state=%d phase=%s",
				i, edge, a.StateIndex(), a.State().Phase, s.edge, s.state, s.phase)
		}
	}
	a.Reset()
	if a.StateIndex() != 1 {
		t.Fatalf("reset should return to main state, got %d", a.StateIndex())
	}
}

func TestTransitUsesGivenTolerance(t *testing.T) {
	a, err := New(threeStateConfig())
	if err != nil {
		t.Fatalf("new automaton: %v", err)
	}
	if edge := a.Transit(4, 4.5, 0); edge != PerformanceDecrease || a.StateIndex() != 2 {
		t.Fatalf("zero tolerance: got edge=%s state=%d, want decrease to 2", edge, a.StateIndex())
	}
	if edge := a.Transit(4, 4.5, a.Tolerance()); edge != PerformanceStagnation || a.StateIndex() != 1 {
		t.Fatalf("configured tolerance: got edge=%s state=%d, want stagnation to 1", edge, a.StateIndex())
	}
}

func TestDecideOrdering(t *testing.T) {
	cases := []struct {
		name            string
		last, best, tol float64
		want            Edge
	}{
		{name: "strict increase beats tolerance", last: 5.1, best: 5, tol: 1, want: PerformanceIncrease},
		{name: "equal is stagnation", last: 5, best: 5, tol: 0.1, want: PerformanceStagnation},
		{name: "small drop is stagnation", last: 4.95, best: 5, tol: 0.1, want: PerformanceStagnation},
		{name: "boundary is decrease", last: 4, best: 5, tol: 1, want: PerformanceDecrease},
		{name: "zero tolerance equal is decrease", last: 5, best: 5, tol: 0, want: PerformanceDecrease},
	}
	for _, tc := range cases {
		if got := Decide(tc.last, tc.best, tc.tol); got != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, got, tc.want)
		}
	}
}

func TestTransitIsDeterministic(t *testing.T) {
	inputs := [][2]float64{{1, 0}, {0.2, 1}, {1, 1}, {3, 5}, {7, 2}}
	run := func() []int {
		a, err := New(DefaultConfig())
		if err != nil {
			t.Fatalf("new automaton: %v", err)
		}
		var trace []int
		for _, in := range inputs {
			a.Transit(in[0], in[1], a.Tolerance())
			trace = append(trace, a.StateIndex())
		}
		return trace
	}
	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Fatalf("traces differ:\n%s", diff)
	}
}

func TestCompileRejectsBrokenDesigns(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{name: "unknown target", mutate: func(c *Config) { c.States[0].PerformanceDecrease = ptr(9) }, want: ErrUnknownState},
		{name: "duplicate id", mutate: func(c *Config) { c.States[2].ID = 1 }, want: ErrDuplicateState},
		{name: "start out of range", mutate: func(c *Config) { c.MainState = 3 }, want: ErrStartOutOfRange},
		{name: "negative start", mutate: func(c *Config) { c.MainState = -1 }, want: ErrStartOutOfRange},
		{name: "missing edge", mutate: func(c *Config) { c.States[1].PerformanceStagnation = nil }, want: ErrInvalidConfig},
		{name: "id outside range", mutate: func(c *Config) { c.States[2].ID = 5 }, want: ErrInvalidConfig},
		{name: "no states", mutate: func(c *Config) { c.States = nil }, want: ErrInvalidConfig},
	}
	for _, tc := range cases {
		cfg := threeStateConfig()
		tc.mutate(&cfg)
		if _, err := New(cfg); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestDefaultConfigCompiles(t *testing.T) {
	a, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	if a.State().Phase != Operation {
		t.Fatalf("default main state should operate, got %s", a.State().Phase)
	}
	phases := map[Phase]bool{}
	for _, s := range a.States() {
		phases[s.Phase] = true
	}
	if len(phases) != 3 {
		t.Fatalf("expected all three phases in default design, got %v", phases)
	}
}

func TestLoadConfigJSONAndYAML(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "tsetlin.json")
	data, err := json.Marshal(threeStateConfig())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		t.Fatalf("write json: %v", err)
	}
	fromJSON, err := LoadConfig(jsonPath)
	if err != nil {
		t.Fatalf("load json: %v", err)
	}
	if diff := cmp.Diff(threeStateConfig(), fromJSON); diff != "" {
		t.Fatalf("json config mismatch (-want +got):\n%s", diff)
	}

	yamlPath := filepath.Join(dir, "tsetlin.yaml")
	yamlDoc := `
main_state: 1
stagnation_tolerance: 1.0
states:
  - {id: 0, phase: exploration, performance-increase: 0, performance-decrease: 1, performance-stagnation: 0}
  - {id: 1, phase: operation, performance-increase: 0, performance-decrease: 2, performance-stagnation: 1}
  - {id: 2, phase: adaptation, performance-increase: 1, performance-decrease: 2, performance-stagnation: 1}
`
	if err := os.WriteFile(yamlPath, []byte(yamlDoc), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	fromYAML, err := LoadConfig(yamlPath)
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if diff := cmp.Diff(threeStateConfig(), fromYAML); diff != "" {
		t.Fatalf("yaml config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseConfigRejectsUnknownPhase(t *testing.T) {
	doc := `{"states":[{"id":0,"phase":"sleeping","performance-increase":0,"performance-decrease":0,"performance-stagnation":0}],"main_state":0}`
	if _, err := ParseConfig([]byte(doc), "json"); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
}
