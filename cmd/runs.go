package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cwbudde/blendga/internal/ga"
	"github.com/cwbudde/blendga/internal/report"
	"github.com/cwbudde/blendga/internal/store"
)

var (
	keepLast      int
	olderThanDays int
	forceClean    bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage stored runs",
	Long:  `List, inspect and clean runs stored under --data-dir.`,
}

var listRunsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored runs",
	Long:  `Display all stored runs with objective, size of the problem, best fitness, age and disk usage.`,
	RunE:  runListRuns,
}

var showRunCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show a stored run",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowRun,
}

var cleanRunsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean old runs",
	Long: `Delete old runs based on retention policy.
You can specify how many runs to keep or delete runs older than N days.`,
	RunE: runCleanRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.AddCommand(listRunsCmd)
	runsCmd.AddCommand(showRunCmd)
	runsCmd.AddCommand(cleanRunsCmd)

	cleanRunsCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the last N runs (0 = keep all)")
	cleanRunsCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete runs older than N days (0 = no age limit)")
	cleanRunsCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")
}

// shortID truncates a run ID for display.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12] + "..."
	}
	return id
}

func runListRuns(cmd *cobra.Command, args []string) error {
	runStore, err := openStore()
	if err != nil {
		return err
	}
	defer store.CloseIfSupported(runStore)

	infos, err := runStore.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No runs found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tOBJECTIVE\tD\tN\tG\tBEST\tAGE\tSIZE")
	fmt.Fprintln(w, "------\t---------\t-\t-\t-\t----\t---\t----")

	for _, info := range infos {
		// Disk usage of the run directory (trace, frames); the sqlite
		// payload itself is not counted
		sizeStr := "-"
		if size, err := getDirSize(store.RunDir(dataDir, info.RunID)); err == nil {
			sizeStr = humanize.Bytes(uint64(size))
		}

		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.6f\t%s\t%s\n",
			shortID(info.RunID),
			info.Objective,
			info.Dims,
			info.PopSize,
			info.Generations,
			info.BestFitness,
			humanize.Time(info.Timestamp),
			sizeStr,
		)
	}

	w.Flush()

	fmt.Printf("\nTotal runs: %d\n", len(infos))
	return nil
}

func runShowRun(cmd *cobra.Command, args []string) error {
	runStore, err := openStore()
	if err != nil {
		return err
	}
	defer store.CloseIfSupported(runStore)

	record, err := runStore.LoadRun(args[0])
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	cfg := record.Config
	summary := report.Summarize(record.History, 1e-6)
	final := report.Stats(ga.Snapshot{Generation: cfg.Generations, Population: record.Population})

	fmt.Printf("Run: %s\n", record.RunID)
	fmt.Printf("Completed: %s (%s)\n", record.Timestamp.Format("2006-01-02 15:04:05"), humanize.Time(record.Timestamp))
	fmt.Println()

	fmt.Println("Configuration:")
	fmt.Printf("  Objective: %s\n", cfg.Objective)
	for d, b := range cfg.Bounds {
		fmt.Printf("  x%d in [%g, %g]\n", d+1, b.Min, b.Max)
	}
	fmt.Printf("  Population: %d\n", cfg.PopSize)
	fmt.Printf("  Generations: %d\n", cfg.Generations)
	fmt.Printf("  Mutation rate: %g\n", cfg.MutationRate)
	fmt.Printf("  Seed: %d\n", cfg.Seed)
	fmt.Println()

	fmt.Println("Result:")
	for d, v := range record.Best.Genes {
		fmt.Printf("  x%d = %.6f\n", d+1, v)
	}
	fmt.Printf("  Objective: %.6f\n", record.Best.Fitness)
	fmt.Printf("  Initial best: %.6f\n", summary.Initial)
	fmt.Printf("  Improvement: %.6f (%.1f%%)\n", summary.Improvement, summary.RelativeImprovement*100)
	fmt.Printf("  Last improvement: generation %d\n", summary.LastImprovement)
	fmt.Printf("  Final population: mean %.6f, stddev %.6f, worst %.6f\n", final.Mean, final.StdDev, final.Worst)
	fmt.Printf("  Elapsed: %s\n", time.Duration(record.ElapsedSeconds*float64(time.Second)).Round(time.Millisecond))

	return nil
}

func runCleanRuns(cmd *cobra.Command, args []string) error {
	if keepLast == 0 && olderThanDays == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	runStore, err := openStore()
	if err != nil {
		return err
	}
	defer store.CloseIfSupported(runStore)

	infos, err := runStore.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No runs to clean.")
		return nil
	}

	toDelete := selectRunsForDeletion(infos, keepLast, olderThanDays)

	if len(toDelete) == 0 {
		fmt.Println("No runs match deletion criteria.")
		return nil
	}

	fmt.Printf("Found %d run(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		fmt.Printf("  - %s (%s, best %.6f, %s)\n",
			shortID(info.RunID),
			info.Objective,
			info.BestFitness,
			info.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}

	// Ask for confirmation unless --force is set
	if !forceClean {
		fmt.Print("\nProceed with deletion? [y/N]: ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	deleted := 0
	failed := 0
	for _, info := range toDelete {
		if err := deleteRun(runStore, info.RunID); err != nil {
			slog.Error("Failed to delete run", "run_id", info.RunID, "error", err)
			failed++
		} else {
			slog.Info("Deleted run", "run_id", info.RunID)
			deleted++
		}
	}

	fmt.Printf("\nDeleted %d run(s), %d failed.\n", deleted, failed)
	return nil
}

// deleteRun removes the stored record and any run directory left next to it
// (the sqlite backend keeps traces and frames on disk).
func deleteRun(runStore store.Store, runID string) error {
	if err := runStore.DeleteRun(runID); err != nil {
		return err
	}
	if err := os.RemoveAll(store.RunDir(dataDir, runID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove run directory: %w", err)
	}
	return nil
}

// selectRunsForDeletion determines which runs should be deleted based on
// retention policy. A run matching both rules is listed once.
func selectRunsForDeletion(infos []store.RunInfo, keepLast int, olderThanDays int) []store.RunInfo {
	var toDelete []store.RunInfo
	selected := make(map[string]bool)

	// Apply age-based deletion
	if olderThanDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -olderThanDays)
		for _, info := range infos {
			if info.Timestamp.Before(cutoff) {
				toDelete = append(toDelete, info)
				selected[info.RunID] = true
			}
		}
	}

	// Apply count-based deletion: keep the newest keepLast runs
	if keepLast > 0 && len(infos) > keepLast {
		sorted := make([]store.RunInfo, len(infos))
		copy(sorted, infos)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		})

		for _, info := range sorted[:len(sorted)-keepLast] {
			if !selected[info.RunID] {
				toDelete = append(toDelete, info)
				selected[info.RunID] = true
			}
		}
	}

	return toDelete
}

// getDirSize calculates the total size of a directory
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
