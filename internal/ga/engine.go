package ga

import (
	"fmt"
	"log/slog"
	"math/rand"
)

// Config holds the parameters of one run.
type Config struct {
	Bounds       []Bound // one entry per dimension, D = len(Bounds)
	PopSize      int     // N, even and >= 2
	Generations  int     // G, >= 0
	MutationRate float64 // p in [0, 1]
	Seed         int64
}

// Validate returns a *ConfigError describing the first invalid field.
func (c Config) Validate() error {
	if err := ValidateBounds(c.Bounds); err != nil {
		return err
	}
	if c.PopSize < 2 {
		return &ConfigError{Field: "PopSize", Reason: fmt.Sprintf("must be at least 2 (got %d)", c.PopSize)}
	}
	if c.PopSize%2 != 0 {
		return &ConfigError{Field: "PopSize", Reason: fmt.Sprintf("must be even (got %d)", c.PopSize)}
	}
	if c.Generations < 0 {
		return &ConfigError{Field: "Generations", Reason: fmt.Sprintf("cannot be negative (got %d)", c.Generations)}
	}
	if !(c.MutationRate >= 0 && c.MutationRate <= 1) {
		return &ConfigError{Field: "MutationRate", Reason: fmt.Sprintf("must be in [0, 1] (got %g)", c.MutationRate)}
	}
	return nil
}

// GenerationRecord is the best fitness after a generation was ranked.
// Generation 0 is the initial population.
type GenerationRecord struct {
	Generation  int     `json:"generation"`
	BestFitness float64 `json:"bestFitness"`
}

// RunResult is produced once, when the last generation has been ranked.
type RunResult struct {
	Population Population         `json:"population"`
	Best       Individual         `json:"best"`
	History    []GenerationRecord `json:"history"`
}

// Snapshot is a ranked population handed to observers after each generation.
// It is a deep copy; observers may keep it.
type Snapshot struct {
	Generation int
	Population Population
	History    []GenerationRecord
}

// Observer receives one snapshot per completed generation, including
// generation 0. The engine neither waits for nor depends on what an observer
// does with it.
type Observer interface {
	ObserveGeneration(s Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(s Snapshot)

func (f ObserverFunc) ObserveGeneration(s Snapshot) {
	f(s)
}

// State is the lifecycle of the most recent run of an Engine.
type State int

const (
	StateInitialized State = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver registers an observer. Observers are called in registration
// order.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observers = append(e.observers, o)
	}
}

// Engine runs the generational loop:
// select -> crossover -> mutate -> merge -> evaluate -> rank -> record.
//
// A run is a pure function of (Config, Seed, Evaluator). The random stream is
// created from the seed at the start of every Run, so calling Run again
// replays the same trajectory. An Engine must not run concurrently with
// itself.
type Engine struct {
	cfg       Config
	space     *ParameterSpace
	ranker    *Ranker
	mutants   int
	observers []Observer
	state     State
}

// NewEngine validates cfg and returns an engine ready to run.
func NewEngine(cfg Config, eval Evaluator, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if eval == nil {
		return nil, &ConfigError{Field: "Evaluator", Reason: "cannot be nil"}
	}

	space, err := NewParameterSpace(cfg.Bounds)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		space:   space,
		ranker:  NewRanker(eval),
		mutants: MutantCount(cfg.PopSize, cfg.MutationRate),
		state:   StateInitialized,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Space returns the engine's parameter space.
func (e *Engine) Space() *ParameterSpace {
	return e.space
}

// Mutants returns the number of children reset per generation, before
// capping at the child pool size.
func (e *Engine) Mutants() int {
	return e.mutants
}

// State returns the lifecycle state of the most recent run.
func (e *Engine) State() State {
	return e.state
}

// Run executes exactly Generations generations and returns the result.
// Random draws happen in this order: initial samples, then per generation the
// crossover shuffles and blend factors, the mutation permutation and the
// reset samples. An evaluator error aborts the run and is returned unmodified.
func (e *Engine) Run() (*RunResult, error) {
	e.state = StateRunning
	rng := rand.New(rand.NewSource(e.cfg.Seed))

	slog.Info("Starting evolution",
		"dims", e.space.Dims(),
		"pop_size", e.cfg.PopSize,
		"generations", e.cfg.Generations,
		"mutation_rate", e.cfg.MutationRate,
		"mutants", e.mutants,
		"seed", e.cfg.Seed,
	)

	pop := InitPopulation(rng, e.space, e.cfg.PopSize)
	if err := e.ranker.Rank(pop); err != nil {
		e.state = StateFailed
		return nil, err
	}

	history := make([]GenerationRecord, 0, e.cfg.Generations+1)
	history = append(history, GenerationRecord{Generation: 0, BestFitness: pop[0].Fitness})
	e.notify(0, pop, history)

	for g := 1; g <= e.cfg.Generations; g++ {
		parents := Select(pop)
		children := Crossover(rng, parents)
		Mutate(rng, e.space, children, e.mutants)

		pop = Merge(parents, children)
		if err := e.ranker.Rank(pop); err != nil {
			e.state = StateFailed
			return nil, err
		}

		history = append(history, GenerationRecord{Generation: g, BestFitness: pop[0].Fitness})
		slog.Debug("Generation ranked", "generation", g, "best_fitness", pop[0].Fitness)
		e.notify(g, pop, history)
	}

	e.state = StateCompleted
	slog.Info("Evolution complete",
		"generations", e.cfg.Generations,
		"initial_best", history[0].BestFitness,
		"best_fitness", pop[0].Fitness,
	)

	return &RunResult{
		Population: pop,
		Best:       pop.Best(),
		History:    history,
	}, nil
}

func (e *Engine) notify(generation int, pop Population, history []GenerationRecord) {
	if len(e.observers) == 0 {
		return
	}
	for _, o := range e.observers {
		o.ObserveGeneration(Snapshot{
			Generation: generation,
			Population: pop.Clone(),
			History:    append([]GenerationRecord(nil), history...),
		})
	}
}
