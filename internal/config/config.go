// Package config holds run configuration: defaults, TOML files and
// validation into an engine configuration.
package config

import (
	"fmt"
	"log/slog"

	"github.com/BurntSushi/toml"

	"github.com/cwbudde/blendga/internal/ga"
	"github.com/cwbudde/blendga/internal/objective"
)

// RunConfig describes one optimization run. It is also the JSON body of run
// submissions and the configuration stored with every run record.
type RunConfig struct {
	Objective    string     `json:"objective"`
	Bounds       []ga.Bound `json:"bounds"`
	PopSize      int        `json:"popSize"`
	Generations  int        `json:"generations"`
	MutationRate float64    `json:"mutationRate"`
	Seed         int64      `json:"seed"`
	Workers      int        `json:"workers,omitempty"` // parallel evaluations (0 or 1 = sequential)
}

// Default returns the classic demonstration setup: the wave surface on
// [0,20]x[0,20], 50 individuals, 50 generations, 20% mutation.
func Default() RunConfig {
	return RunConfig{
		Objective:    "wave",
		Bounds:       []ga.Bound{{Min: 0, Max: 20}, {Min: 0, Max: 20}},
		PopSize:      50,
		Generations:  50,
		MutationRate: 0.2,
		Seed:         42,
		Workers:      1,
	}
}

// ForObjective returns Default with the objective's conventional bounds in
// dims dimensions. An empty name keeps the default objective and dims < 1
// keeps its default dimensionality. A dims the objective cannot take is a
// *ga.ConfigError.
func ForObjective(name string, dims int) (RunConfig, error) {
	if name == "" {
		name = Default().Objective
	}
	o, err := objective.Lookup(name)
	if err != nil {
		return RunConfig{}, err
	}
	if dims < 1 {
		dims = 2
	} else if err := o.CheckDims(dims); err != nil {
		return RunConfig{}, err
	}
	cfg := Default()
	cfg.Objective = name
	cfg.Bounds = o.DefaultBounds(dims)
	return cfg, nil
}

// Dims returns D.
func (c RunConfig) Dims() int {
	return len(c.Bounds)
}

// EngineConfig converts to the engine's configuration.
func (c RunConfig) EngineConfig() ga.Config {
	return ga.Config{
		Bounds:       append([]ga.Bound(nil), c.Bounds...),
		PopSize:      c.PopSize,
		Generations:  c.Generations,
		MutationRate: c.MutationRate,
		Seed:         c.Seed,
	}
}

// Validate returns a *ga.ConfigError for an unknown objective, a dimension
// mismatch or any invalid engine parameter.
func (c RunConfig) Validate() error {
	o, err := objective.Lookup(c.Objective)
	if err != nil {
		return err
	}
	if err := c.EngineConfig().Validate(); err != nil {
		return err
	}
	if err := o.CheckDims(c.Dims()); err != nil {
		return err
	}
	if c.Workers < 0 {
		return &ga.ConfigError{Field: "Workers", Reason: fmt.Sprintf("cannot be negative (got %d)", c.Workers)}
	}
	return nil
}

// Evaluator returns the objective's evaluator, run in parallel when Workers > 1.
func (c RunConfig) Evaluator() (ga.Evaluator, error) {
	o, err := objective.Lookup(c.Objective)
	if err != nil {
		return nil, err
	}
	eval := o.Evaluator()
	if c.Workers > 1 {
		return objective.NewParallel(eval, c.Workers), nil
	}
	return eval, nil
}

// NewEngine validates the configuration and builds an engine for it.
func (c RunConfig) NewEngine(opts ...ga.Option) (*ga.Engine, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	eval, err := c.Evaluator()
	if err != nil {
		return nil, err
	}
	return ga.NewEngine(c.EngineConfig(), eval, opts...)
}

// fileConfig mirrors the TOML schema. Pointers tell absent keys apart from
// zero values.
type fileConfig struct {
	Objective    *string    `toml:"objective"`
	Dims         *int       `toml:"dims"`
	Bounds       []ga.Bound `toml:"bounds"`
	PopSize      *int       `toml:"pop_size"`
	Generations  *int       `toml:"generations"`
	MutationRate *float64   `toml:"mutation_rate"`
	Seed         *int64     `toml:"seed"`
	Workers      *int       `toml:"workers"`
}

// Load reads a TOML run file on top of the defaults. When the file sets
// `objective` or `dims` but no [[bounds]], the objective's conventional bounds
// are used with `dims` dimensions. The result is not validated.
func Load(path string) (RunConfig, error) {
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return RunConfig{}, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		slog.Warn("Unknown config key", "path", path, "key", key.String())
	}

	cfg := Default()
	if fc.Objective != nil || fc.Dims != nil {
		var name string
		if fc.Objective != nil {
			name = *fc.Objective
		}
		dims := 0
		if fc.Dims != nil {
			dims = *fc.Dims
		}
		cfg, err = ForObjective(name, dims)
		if err != nil {
			return RunConfig{}, err
		}
	}
	if len(fc.Bounds) > 0 {
		if fc.Dims != nil && *fc.Dims != len(fc.Bounds) {
			return RunConfig{}, &ga.ConfigError{
				Field:  "Bounds",
				Reason: fmt.Sprintf("dims = %d but %d bounds given", *fc.Dims, len(fc.Bounds)),
			}
		}
		cfg.Bounds = fc.Bounds
	}
	if fc.PopSize != nil {
		cfg.PopSize = *fc.PopSize
	}
	if fc.Generations != nil {
		cfg.Generations = *fc.Generations
	}
	if fc.MutationRate != nil {
		cfg.MutationRate = *fc.MutationRate
	}
	if fc.Seed != nil {
		cfg.Seed = *fc.Seed
	}
	if fc.Workers != nil {
		cfg.Workers = *fc.Workers
	}

	slog.Debug("Loaded config", "path", path, "objective", cfg.Objective, "dims", cfg.Dims())
	return cfg, nil
}
