package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/blendga/internal/config"
	"github.com/cwbudde/blendga/internal/ga"
	"github.com/cwbudde/blendga/internal/opt"
	"github.com/cwbudde/blendga/internal/store"
)

// newFlagsCmd returns a throwaway command with the run flags parsed from args.
func newFlagsCmd(t *testing.T, f *runFlags, args ...string) *cobra.Command {
	t.Helper()

	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	return cmd
}

func TestRunFlags_Defaults(t *testing.T) {
	var f runFlags
	cfg, err := f.build(newFlagsCmd(t, &f))
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if cfg.Objective != "wave" || cfg.Dims() != 2 || cfg.PopSize != 50 || cfg.Generations != 50 {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
	if cfg.Bounds[0] != (ga.Bound{Min: 0, Max: 20}) {
		t.Errorf("Unexpected default bounds: %+v", cfg.Bounds)
	}
}

func TestRunFlags_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.toml")
	content := `
objective = "rastrigin"
dims = 3
pop_size = 20
generations = 15
seed = 5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	var f runFlags
	cfg, err := f.build(newFlagsCmd(t, &f, "--config", path, "--pop", "30"))
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if cfg.PopSize != 30 {
		t.Errorf("Expected flag pop 30, got %d", cfg.PopSize)
	}
	if cfg.Generations != 15 || cfg.Seed != 5 {
		t.Errorf("File values lost: gens=%d seed=%d", cfg.Generations, cfg.Seed)
	}
	if cfg.Objective != "rastrigin" || cfg.Dims() != 3 {
		t.Errorf("Expected rastrigin in 3 dimensions, got %s/%d", cfg.Objective, cfg.Dims())
	}
}

func TestRunFlags_ObjectiveAndDims(t *testing.T) {
	var f runFlags
	cfg, err := f.build(newFlagsCmd(t, &f, "--objective", "sphere", "--dims", "4"))
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if cfg.Dims() != 4 {
		t.Fatalf("Expected 4 dimensions, got %d", cfg.Dims())
	}
	for _, b := range cfg.Bounds {
		if b != (ga.Bound{Min: -5.12, Max: 5.12}) {
			t.Errorf("Unexpected sphere bound %+v", b)
		}
	}
}

func TestRunFlags_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"odd population", []string{"--pop", "7"}},
		{"mutation rate", []string{"--mutation", "2"}},
		{"unknown objective", []string{"--objective", "nope"}},
		{"wave needs two dimensions", []string{"--dims", "3"}},
		{"missing config file", []string{"--config", "/nonexistent/run.toml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f runFlags
			if _, err := f.build(newFlagsCmd(t, &f, tt.args...)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

// newRunCmd mirrors runCmd with fresh flag state.
func newRunCmd(t *testing.T, args ...string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	runOpts = runFlags{}
	framesDir = ""
	saveRun = true

	cmd := &cobra.Command{Use: "run", RunE: runOptimization}
	runOpts.register(cmd)
	cmd.Flags().StringVar(&framesDir, "frames", "", "")
	cmd.Flags().BoolVar(&saveRun, "save", true, "")
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}

	var out bytes.Buffer
	cmd.SetOut(&out)
	return cmd, &out
}

func TestRunAndReplay(t *testing.T) {
	tmpDir := useDataDir(t, "fs")
	frames := filepath.Join(tmpDir, "frames")

	cmd, out := newRunCmd(t, "--pop", "10", "--gens", "4", "--seed", "11", "--frames", frames)
	if err := runOptimization(cmd, nil); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !strings.Contains(out.String(), "Objective:") || !strings.Contains(out.String(), "x2 = ") {
		t.Errorf("Missing final report in output:\n%s", out.String())
	}
	for _, name := range []string{"frame00.png", "frame03.png", "convergence.png"} {
		if _, err := os.Stat(filepath.Join(frames, name)); err != nil {
			t.Errorf("Expected %s: %v", name, err)
		}
	}

	runStore, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	infos, err := runStore.ListRuns()
	if err != nil || len(infos) != 1 {
		t.Fatalf("Expected 1 stored run, got %d (%v)", len(infos), err)
	}
	runID := infos[0].RunID

	tr, err := store.NewTraceReader(tmpDir, runID)
	if err != nil {
		t.Fatalf("NewTraceReader failed: %v", err)
	}
	entries, err := tr.ReadAll()
	tr.Close()
	if err != nil || len(entries) != 5 {
		t.Errorf("Expected 5 trace entries, got %d (%v)", len(entries), err)
	}

	out.Reset()
	if err := runReplay(cmd, []string{runID}); err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !strings.Contains(out.String(), "reproduced") {
		t.Errorf("Unexpected replay output: %s", out.String())
	}
}

func TestBuildEngine_ClosesTraceOnError(t *testing.T) {
	trace, err := store.NewTraceWriter(t.TempDir(), "bad-run")
	if err != nil {
		t.Fatalf("NewTraceWriter failed: %v", err)
	}

	cfg := config.Default()
	cfg.PopSize = 7
	if _, err := buildEngine(cfg, trace, []ga.Option{ga.WithObserver(trace)}); !errors.Is(err, ga.ErrConfig) {
		t.Fatalf("Expected config error, got %v", err)
	}

	if err := trace.Flush(); !errors.Is(err, os.ErrClosed) {
		t.Errorf("Expected the trace file to be closed, got %v", err)
	}
}

// newCompareCmd mirrors compareCmd with fresh flag state.
func newCompareCmd(t *testing.T, args ...string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	compareOpts = runFlags{}
	mayflyPop, mayflyIters = opt.MinMayflyPop, 0

	cmd := &cobra.Command{Use: "compare", RunE: runCompare}
	compareOpts.register(cmd)
	cmd.Flags().IntVar(&mayflyPop, "mayfly-pop", opt.MinMayflyPop, "")
	cmd.Flags().IntVar(&mayflyIters, "mayfly-iters", 0, "")
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}

	var out bytes.Buffer
	cmd.SetOut(&out)
	return cmd, &out
}

// compareRow returns the output line of the named optimizer.
func compareRow(t *testing.T, out, name string) string {
	t.Helper()

	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, name+" ") {
			return line
		}
	}
	t.Fatalf("No %s row in output:\n%s", name, out)
	return ""
}

func TestCompare(t *testing.T) {
	cmd, out := newCompareCmd(t, "--objective", "sphere", "--dims", "3", "--pop", "20", "--gens", "3", "--seed", "5")
	if err := runCompare(cmd, nil); err != nil {
		t.Fatalf("compare failed: %v", err)
	}

	if !strings.Contains(out.String(), "Objective sphere, D=3, seed 5") {
		t.Errorf("Missing header:\n%s", out.String())
	}
	// N*(G+1) evaluations: the initial population plus one per generation
	gaRow := compareRow(t, out.String(), "blendga")
	if !strings.Contains(gaRow, " 80 ") {
		t.Errorf("Expected 80 evaluations for the GA, got %q", gaRow)
	}
	if row := compareRow(t, out.String(), "mayfly"); strings.Contains(row, "error") {
		t.Errorf("Mayfly should run on uniform bounds, got %q", row)
	}
}

func TestCompare_NonUniformBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.toml")
	body := `
objective = "sphere"

[[bounds]]
min = -1.0
max = 1.0

[[bounds]]
min = -2.0
max = 2.0
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cmd, out := newCompareCmd(t, "--config", path, "--pop", "20", "--gens", "2")
	if err := runCompare(cmd, nil); err != nil {
		t.Fatalf("compare failed: %v", err)
	}

	if row := compareRow(t, out.String(), "blendga"); strings.Contains(row, "error") {
		t.Errorf("GA should accept any box, got %q", row)
	}
	if row := compareRow(t, out.String(), "mayfly"); !strings.Contains(row, "error:") {
		t.Errorf("Expected mayfly to reject non-uniform bounds, got %q", row)
	}
}

func TestRun_NoSave(t *testing.T) {
	tmpDir := useDataDir(t, "fs")

	cmd, _ := newRunCmd(t, "--pop", "4", "--gens", "1", "--save=false")
	if err := runOptimization(cmd, nil); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "runs")); !os.IsNotExist(err) {
		t.Error("Expected nothing stored with --save=false")
	}
}

func TestCompareRuns_DetectsDivergence(t *testing.T) {
	tmpDir := useDataDir(t, "fs")
	runStore, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	saveTestRun(t, runStore, "run", time.Now())

	record, err := runStore.LoadRun("run")
	if err != nil {
		t.Fatal(err)
	}
	engine, err := record.Config.NewEngine()
	if err != nil {
		t.Fatal(err)
	}
	result, err := engine.Run()
	if err != nil {
		t.Fatal(err)
	}

	if err := compareRuns(record, result); err != nil {
		t.Fatalf("Identical replay reported as divergent: %v", err)
	}

	result.History[1].BestFitness += 1
	if err := compareRuns(record, result); err == nil || !strings.Contains(err.Error(), "generation 1") {
		t.Errorf("Expected divergence at generation 1, got %v", err)
	}
}
