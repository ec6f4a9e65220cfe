package main

import (
	"github.com/spf13/cobra"

	"github.com/cwbudde/blendga/internal/config"
	"github.com/cwbudde/blendga/internal/objective"
)

// runFlags are the run configuration flags shared by run, compare and serve.
type runFlags struct {
	configPath   string
	objective    string
	dims         int
	popSize      int
	generations  int
	mutationRate float64
	seed         int64
	workers      int
}

func (f *runFlags) register(cmd *cobra.Command) {
	def := config.Default()

	cmd.Flags().StringVar(&f.configPath, "config", "", "TOML run configuration file")
	cmd.Flags().StringVar(&f.objective, "objective", def.Objective, "Objective to minimize")
	cmd.Flags().IntVar(&f.dims, "dims", def.Dims(), "Dimensions (for objectives that accept any)")
	cmd.Flags().IntVar(&f.popSize, "pop", def.PopSize, "Population size (even, >= 2)")
	cmd.Flags().IntVar(&f.generations, "gens", def.Generations, "Number of generations")
	cmd.Flags().Float64Var(&f.mutationRate, "mutation", def.MutationRate, "Mutation rate in [0,1]")
	cmd.Flags().Int64Var(&f.seed, "seed", def.Seed, "Random seed")
	cmd.Flags().IntVar(&f.workers, "workers", def.Workers, "Parallel fitness evaluations")
}

// build resolves the run configuration: defaults, then the --config file,
// then every flag the user set explicitly.
func (f *runFlags) build(cmd *cobra.Command) (config.RunConfig, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		cfg, err = config.Load(f.configPath)
		if err != nil {
			return config.RunConfig{}, err
		}
	}

	changed := cmd.Flags().Changed
	if changed("objective") || changed("dims") {
		name := cfg.Objective
		if changed("objective") {
			name = f.objective
		}
		o, err := objective.Lookup(name)
		if err != nil {
			return config.RunConfig{}, err
		}
		dims := cfg.Dims()
		if changed("dims") {
			dims = f.dims
			if err := o.CheckDims(dims); err != nil {
				return config.RunConfig{}, err
			}
		}
		cfg.Objective = name
		cfg.Bounds = o.DefaultBounds(dims)
	}
	if changed("pop") {
		cfg.PopSize = f.popSize
	}
	if changed("gens") {
		cfg.Generations = f.generations
	}
	if changed("mutation") {
		cfg.MutationRate = f.mutationRate
	}
	if changed("seed") {
		cfg.Seed = f.seed
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}

	if err := cfg.Validate(); err != nil {
		return config.RunConfig{}, err
	}
	return cfg, nil
}
