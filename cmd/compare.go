package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/blendga/internal/ga"
	"github.com/cwbudde/blendga/internal/objective"
	"github.com/cwbudde/blendga/internal/opt"
)

var (
	compareOpts runFlags
	mayflyPop   int
	mayflyIters int
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the GA against the Mayfly baseline",
	Long: `Runs the blend crossover GA and the Mayfly optimizer on the same objective
and bounds and prints best cost, evaluation count and wall time for each.
Mayfly needs identical bounds in every dimension.`,
	RunE: runCompare,
}

func init() {
	compareOpts.register(compareCmd)
	compareCmd.Flags().IntVar(&mayflyPop, "mayfly-pop", opt.MinMayflyPop, "Mayfly population size")
	compareCmd.Flags().IntVar(&mayflyIters, "mayfly-iters", 0, "Mayfly iterations (0 = same as --gens)")

	rootCmd.AddCommand(compareCmd)
}

type compareResult struct {
	name  string
	best  []float64
	cost  float64
	evals int
	took  time.Duration
	err   error
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := compareOpts.build(cmd)
	if err != nil {
		return err
	}
	o, err := objective.Lookup(cfg.Objective)
	if err != nil {
		return err
	}

	iters := mayflyIters
	if iters <= 0 {
		iters = cfg.Generations
	}

	optimizers := []opt.Optimizer{
		opt.NewGA(cfg.PopSize, cfg.Generations, cfg.MutationRate, cfg.Seed),
		opt.NewMayfly(iters, mayflyPop, cfg.Seed),
	}

	space, err := ga.NewParameterSpace(cfg.Bounds)
	if err != nil {
		return err
	}
	lower, upper := space.Lower(), space.Upper()

	results := make([]compareResult, 0, len(optimizers))
	for _, optimizer := range optimizers {
		eval, calls := opt.Counted(o.Fn)
		start := time.Now()
		best, cost, err := optimizer.Run(eval, lower, upper)
		res := compareResult{
			name:  optimizer.Name(),
			best:  best,
			cost:  cost,
			evals: *calls,
			took:  time.Since(start),
			err:   err,
		}
		if err != nil {
			slog.Warn("Optimizer failed", "optimizer", res.name, "error", err)
		} else {
			slog.Info("Optimizer finished", "optimizer", res.name, "best_cost", cost, "evaluations", res.evals)
		}
		results = append(results, res)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Objective %s, D=%d, seed %d\n\n", cfg.Objective, cfg.Dims(), cfg.Seed)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OPTIMIZER\tBEST COST\tEVALS\tTIME\tBEST PARAMS")
	fmt.Fprintln(w, "---------\t---------\t-----\t----\t-----------")
	for _, res := range results {
		if res.err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\terror: %v\n", res.name, res.err)
			continue
		}
		fmt.Fprintf(w, "%s\t%.6f\t%d\t%s\t%s\n",
			res.name, res.cost, res.evals, res.took.Round(time.Millisecond), formatParams(res.best))
	}
	return w.Flush()
}

// formatParams renders a parameter vector compactly, eliding long ones.
func formatParams(params []float64) string {
	const maxShown = 4

	s := "["
	for i, v := range params {
		if i == maxShown {
			s += fmt.Sprintf(" ... +%d", len(params)-maxShown)
			break
		}
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%.4f", v)
	}
	return s + "]"
}
