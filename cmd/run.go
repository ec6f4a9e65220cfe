package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cwbudde/blendga/internal/config"
	"github.com/cwbudde/blendga/internal/ga"
	"github.com/cwbudde/blendga/internal/report"
	"github.com/cwbudde/blendga/internal/store"
)

var (
	runOpts   runFlags
	framesDir string
	saveRun   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single optimization",
	Long: `Runs the genetic algorithm and prints the best individual found.
The run is stored under --data-dir unless --save=false, and --frames writes
one design-space PNG per generation plus a convergence plot.`,
	RunE: runOptimization,
}

func init() {
	runOpts.register(runCmd)
	runCmd.Flags().StringVar(&framesDir, "frames", "", "Directory for per-generation frame images (empty = none)")
	runCmd.Flags().BoolVar(&saveRun, "save", true, "Store the run and its generation trace")

	rootCmd.AddCommand(runCmd)
}

// statsLogger logs population statistics for every generation at debug level.
var statsLogger = ga.ObserverFunc(func(s ga.Snapshot) {
	ps := report.Stats(s)
	slog.Debug("Population stats",
		"generation", ps.Generation,
		"best_fitness", ps.Best,
		"worst_fitness", ps.Worst,
		"mean_fitness", ps.Mean,
		"stddev", ps.StdDev,
	)
})

func runOptimization(cmd *cobra.Command, args []string) error {
	cfg, err := runOpts.build(cmd)
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	opts := []ga.Option{ga.WithObserver(statsLogger)}
	tracker := report.NewConvergenceTracker(1e-6)
	opts = append(opts, ga.WithObserver(tracker))

	var frames *report.FrameWriter
	if framesDir != "" {
		frames, err = report.NewFrameWriter(framesDir, cfg.Bounds)
		if err != nil {
			return err
		}
		opts = append(opts, ga.WithObserver(frames))
	}

	var trace *store.TraceWriter
	if saveRun {
		trace, err = store.NewTraceWriter(dataDir, runID)
		if err != nil {
			return err
		}
		opts = append(opts, ga.WithObserver(trace))
	}

	slog.Info("Starting run", "run_id", runID, "objective", cfg.Objective, "dims", cfg.Dims())

	engine, err := buildEngine(cfg, trace, opts)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := engine.Run()
	if trace != nil {
		if cerr := trace.Close(); cerr != nil {
			slog.Warn("Failed to write trace", "run_id", runID, "error", cerr)
		}
	}
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	elapsed := time.Since(start)

	if frames != nil {
		if err := frames.Err(); err != nil {
			slog.Warn("Failed to write frames", "dir", framesDir, "error", err)
		}
		if err := report.WriteConvergence(result.History, filepath.Join(framesDir, "convergence.png")); err != nil {
			slog.Warn("Failed to write convergence plot", "error", err)
		}
	}

	if saveRun {
		// A failed save must not lose the result, which is printed below
		if err := saveRecord(store.NewRunRecord(runID, cfg, result, elapsed)); err != nil {
			slog.Error("Failed to save run", "run_id", runID, "error", err)
		}
	}

	printResult(cmd.OutOrStdout(), runID, cfg, result, tracker.Summary(), elapsed)
	return nil
}

// buildEngine creates the run's engine. trace, when set, is closed if that
// fails.
func buildEngine(cfg config.RunConfig, trace *store.TraceWriter, opts []ga.Option) (*ga.Engine, error) {
	engine, err := cfg.NewEngine(opts...)
	if err != nil {
		if trace != nil {
			trace.Close()
		}
		return nil, err
	}
	return engine, nil
}

func saveRecord(record *store.RunRecord) error {
	runStore, err := openStore()
	if err != nil {
		return err
	}
	defer store.CloseIfSupported(runStore)

	if err := runStore.SaveRun(record); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// printResult writes the final report: the best individual's parameters and
// objective value.
func printResult(w io.Writer, runID string, cfg config.RunConfig, result *ga.RunResult, summary report.Summary, elapsed time.Duration) {
	fmt.Fprintf(w, "Run %s (%s, D=%d, N=%d, G=%d, p=%g, seed %d)\n",
		runID, cfg.Objective, cfg.Dims(), cfg.PopSize, cfg.Generations, cfg.MutationRate, cfg.Seed)
	for d, v := range result.Best.Genes {
		fmt.Fprintf(w, "  x%d = %.6f\n", d+1, v)
	}
	fmt.Fprintf(w, "Objective: %.6f\n", result.Best.Fitness)
	fmt.Fprintf(w, "Improvement: %.6f over %d generations (last at generation %d), %s\n",
		summary.Improvement, cfg.Generations, summary.LastImprovement, elapsed.Round(time.Millisecond))
}
