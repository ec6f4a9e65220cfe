package opt

import (
	"fmt"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// MinMayflyPop is the smallest population the mayfly library accepts.
const MinMayflyPop = 20

// MayflyAdapter wraps the external Mayfly library to conform to our Optimizer interface
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a new Mayfly optimizer adapter
func NewMayfly(maxIters, popSize int, seed int64) Optimizer {
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  popSize,
		seed:     seed,
	}
}

func (m *MayflyAdapter) Name() string {
	return "mayfly"
}

// Run executes the Mayfly optimization using the external library.
// The library takes scalar bounds, so every dimension must share the same box.
func (m *MayflyAdapter) Run(eval func([]float64) float64, lower, upper []float64) ([]float64, float64, error) {
	if len(lower) == 0 || len(lower) != len(upper) {
		return nil, 0, fmt.Errorf("bounds length mismatch: %d lower, %d upper", len(lower), len(upper))
	}
	for d := range lower {
		if lower[d] != lower[0] || upper[d] != upper[0] {
			return nil, 0, fmt.Errorf("mayfly needs identical bounds in every dimension (dimension %d differs)", d)
		}
	}
	if m.popSize < MinMayflyPop {
		return nil, 0, fmt.Errorf("mayfly population must be at least %d (got %d)", MinMayflyPop, m.popSize)
	}

	// Create config for external Mayfly library
	config := mayfly.NewDefaultConfig()

	config.ObjectiveFunc = eval
	config.ProblemSize = len(lower)
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize
	config.LowerBound = lower[0]
	config.UpperBound = upper[0]

	// Set random seed for reproducibility
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		return nil, 0, fmt.Errorf("mayfly optimization failed: %w", err)
	}

	return result.GlobalBest.Position, result.GlobalBest.Cost, nil
}
