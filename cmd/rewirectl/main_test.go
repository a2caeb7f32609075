package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLegalChain(t *testing.T) {
	args := []string{"legal", "--nodes", "6", "--edges", "0-1,1-2,2-3,3-4,4-5", "--anchors", "4", "--distance", "2"}
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("legal: %v", err)
	}
	if got := strings.TrimSpace(out); got != "[0 1]" {
		t.Fatalf("unexpected legal nodes: %q", got)
	}

	out, err = execute(t, append(args, "--negate")...)
	if err != nil {
		t.Fatalf("legal negate: %v", err)
	}
	if got := strings.TrimSpace(out); got != "[2 3 4 5]" {
		t.Fatalf("unexpected frontier: %q", got)
	}
}

func TestLegalRejectsBadInput(t *testing.T) {
	if _, err := execute(t, "legal", "--nodes", "3", "--edges", "0-1", "--anchors", "7"); err == nil {
		t.Fatal("expected anchor range error")
	}
	if _, err := execute(t, "legal", "--nodes", "3", "--edges", "0:1"); err == nil {
		t.Fatal("expected edge parse error")
	}
	if _, err := execute(t, "legal", "--edges", "0-1"); err == nil {
		t.Fatal("expected required --nodes error")
	}
}

func TestAutomatonPrintsStateTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "design.json")
	design := `{
  "main_state": 0,
  "stagnation_tolerance": 0.25,
  "states": [
    {"id": 0, "phase": "operation", "performance-increase": 0, "performance-decrease": 1, "performance-stagnation": 0},
    {"id": 1, "phase": "exploration", "performance-increase": 0, "performance-decrease": 1, "performance-stagnation": 1}
  ]
}`
	if err := os.WriteFile(path, []byte(design), 0o644); err != nil {
		t.Fatalf("write design: %v", err)
	}

	out, err := execute(t, "automaton", "--file", path)
	if err != nil {
		t.Fatalf("automaton: %v", err)
	}
	if !strings.HasPrefix(out, "states=2 main=0 tolerance=0.25\n") {
		t.Fatalf("unexpected header: %q", out)
	}
	if !strings.Contains(out, "exploration") || !strings.Contains(out, "STAGNATION") {
		t.Fatalf("unexpected table: %q", out)
	}
}

func TestAutomatonDefaultDesign(t *testing.T) {
	out, err := execute(t, "automaton")
	if err != nil {
		t.Fatalf("automaton: %v", err)
	}
	if !strings.HasPrefix(out, "states=7 main=4 ") {
		t.Fatalf("unexpected header: %q", out)
	}
}

func TestAutomatonRejectsUnknownState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "design.json")
	design := `{"main_state": 0, "states": [{"id": 0, "phase": "operation", "performance-increase": 3, "performance-decrease": 0, "performance-stagnation": 0}]}`
	if err := os.WriteFile(path, []byte(design), 0o644); err != nil {
		t.Fatalf("write design: %v", err)
	}
	if _, err := execute(t, "automaton", "--file", path); err == nil {
		t.Fatal("expected unknown state error")
	}
}

func TestRunThenInspectArtifacts(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "runs")
	cfgPath := filepath.Join(dir, "exp.yaml")
	cfg := `experiment:
  epoch_duration: 5
coupling:
  distance: 1
substrate:
  datasheet:
    size: 40
    wires_count: 200
`
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	stdout, err := execute(t, "run", "--config", cfgPath, "--epochs", "3", "--replicas", "2", "--seed", "5", "--out", out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	match := regexp.MustCompile(`run_id=(\S+) replicas=2 epochs=3`).FindStringSubmatch(stdout)
	if match == nil {
		t.Fatalf("missing run header: %q", stdout)
	}
	runID := match[1]
	if !strings.Contains(stdout, "replica=1 best=") || !strings.Contains(stdout, "artifacts=") {
		t.Fatalf("unexpected run output: %q", stdout)
	}

	stdout, err = execute(t, "runs", "--out", out)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if !strings.Contains(stdout, "run_id="+runID) || !strings.Contains(stdout, "seed=5") {
		t.Fatalf("run missing from index: %q", stdout)
	}

	stdout, err = execute(t, "history", "--out", out, "--replica", "1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.HasPrefix(stdout, "run_id="+runID+" replica=1 seed=6 ") {
		t.Fatalf("unexpected history header: %q", stdout)
	}
	if got := strings.Count(stdout, "\nepoch="); got != 3 {
		t.Fatalf("expected 3 epoch lines, got %d: %q", got, stdout)
	}

	if !strings.Contains(stdout, "\nbest channel=ps0 node=") {
		t.Fatalf("best coupling missing: %q", stdout)
	}

	stdout, err = execute(t, "history", "--out", out, "--run-id", runID, "--replica", "0", "--csv")
	if err != nil {
		t.Fatalf("history csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 4 || !strings.HasPrefix(lines[0], "replica,epoch,performance") {
		t.Fatalf("unexpected csv: %q", stdout)
	}
	for _, line := range lines[1:] {
		if !strings.HasPrefix(line, "0,") {
			t.Fatalf("row of another replica: %q", line)
		}
	}

	stdout, err = execute(t, "report", "--out", out)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.HasPrefix(stdout, "run_id="+runID+" task=collision scape=corridor replicas=2 epochs=3 ") {
		t.Fatalf("unexpected report header: %q", stdout)
	}
	if got := strings.Count(stdout, "\nepoch="); got != 3 {
		t.Fatalf("expected 3 curve points, got %d: %q", got, stdout)
	}
	if !strings.Contains(stdout, "phase=operation epochs=") {
		t.Fatalf("phase occupancy missing: %q", stdout)
	}

	if _, err := execute(t, "history", "--out", out, "--run-id", runID, "--replica", "9"); err == nil {
		t.Fatal("expected missing replica error")
	}
}

func TestKindsListsRegistries(t *testing.T) {
	out, err := execute(t, "kinds")
	if err != nil {
		t.Fatalf("kinds: %v", err)
	}
	want := "substrates: resistive\nscapes: corridor\ntasks: area collision distance\n"
	if out != want {
		t.Fatalf("kinds output %q, want %q", out, want)
	}
}

func TestReportWithoutRuns(t *testing.T) {
	if _, err := execute(t, "report", "--out", t.TempDir()); err == nil {
		t.Fatal("expected no runs error")
	}
}

func TestRunsEmptyDirectory(t *testing.T) {
	stdout, err := execute(t, "runs", "--out", t.TempDir())
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if strings.TrimSpace(stdout) != "no runs found" {
		t.Fatalf("unexpected output: %q", stdout)
	}
}

func TestRunRejectsInvalidOverride(t *testing.T) {
	if _, err := execute(t, "run", "--replicas", "0", "--out", t.TempDir()); err == nil {
		t.Fatal("expected replicas validation error")
	}
	if _, err := execute(t, "run", "--store", "postgres", "--out", t.TempDir()); err == nil {
		t.Fatal("expected store validation error")
	}
}
