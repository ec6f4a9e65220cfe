package opt

import (
	"fmt"

	"github.com/cwbudde/blendga/internal/ga"
)

// GAAdapter runs the blend crossover GA.
type GAAdapter struct {
	popSize      int
	generations  int
	mutationRate float64
	seed         int64
}

// NewGA creates a GA optimizer adapter.
func NewGA(popSize, generations int, mutationRate float64, seed int64) Optimizer {
	return &GAAdapter{
		popSize:      popSize,
		generations:  generations,
		mutationRate: mutationRate,
		seed:         seed,
	}
}

func (g *GAAdapter) Name() string {
	return "blendga"
}

// Run executes the GA sequentially; eval need not be safe for concurrent use.
func (g *GAAdapter) Run(eval func([]float64) float64, lower, upper []float64) ([]float64, float64, error) {
	if len(lower) != len(upper) {
		return nil, 0, fmt.Errorf("bounds length mismatch: %d lower, %d upper", len(lower), len(upper))
	}

	bounds := make([]ga.Bound, len(lower))
	for d := range bounds {
		bounds[d] = ga.Bound{Min: lower[d], Max: upper[d]}
	}

	engine, err := ga.NewEngine(ga.Config{
		Bounds:       bounds,
		PopSize:      g.popSize,
		Generations:  g.generations,
		MutationRate: g.mutationRate,
		Seed:         g.seed,
	}, ga.Pure(eval))
	if err != nil {
		return nil, 0, err
	}

	result, err := engine.Run()
	if err != nil {
		return nil, 0, err
	}
	return result.Best.Genes, result.Best.Fitness, nil
}
