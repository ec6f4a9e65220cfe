package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/cwbudde/blendga/internal/ga"
	"github.com/cwbudde/blendga/internal/store"
)

var replayCmd = &cobra.Command{
	Use:   "replay [run-id]",
	Short: "Re-run a stored run and verify it reproduces",
	Long: `Loads a stored run's configuration and seed, runs it again and checks that
the best-fitness trajectory and the final best individual are identical.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	runStore, err := openStore()
	if err != nil {
		return err
	}
	defer store.CloseIfSupported(runStore)

	record, err := runStore.LoadRun(args[0])
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	engine, err := record.Config.NewEngine()
	if err != nil {
		return err
	}
	result, err := engine.Run()
	if err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}

	if err := compareRuns(record, result); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Run %s reproduced: %d generations, best %.6f\n",
		record.RunID, len(result.History)-1, result.Best.Fitness)
	return nil
}

// compareRuns returns an error describing the first difference between a
// stored run and its replay. NaN fitness values compare equal to NaN.
func compareRuns(record *store.RunRecord, result *ga.RunResult) error {
	if len(record.History) != len(result.History) {
		return fmt.Errorf("replay diverged: %d history records stored, %d replayed",
			len(record.History), len(result.History))
	}
	for i := range record.History {
		if !sameFitness(record.History[i].BestFitness, result.History[i].BestFitness) {
			return fmt.Errorf("replay diverged at generation %d: stored best %v, replayed %v",
				i, record.History[i].BestFitness, result.History[i].BestFitness)
		}
	}

	if len(record.Best.Genes) != len(result.Best.Genes) {
		return fmt.Errorf("replay diverged: best individual has %d genes, stored %d",
			len(result.Best.Genes), len(record.Best.Genes))
	}
	for d := range record.Best.Genes {
		if record.Best.Genes[d] != result.Best.Genes[d] {
			return fmt.Errorf("replay diverged: best gene %d stored %v, replayed %v",
				d, record.Best.Genes[d], result.Best.Genes[d])
		}
	}
	return nil
}

func sameFitness(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}
