// Package opt puts the blend GA and external optimizers behind one
// minimization interface so they can be compared on the same objective.
package opt

// Optimizer defines an optimization algorithm interface
type Optimizer interface {
	// Name identifies the algorithm in reports
	Name() string

	// Run executes the optimization
	// eval: objective function to minimize
	// lower, upper: parameter bounds, one entry per dimension
	// Returns: best parameters and best cost
	Run(eval func([]float64) float64, lower, upper []float64) ([]float64, float64, error)
}

// Counted wraps eval and counts its calls.
func Counted(eval func([]float64) float64) (func([]float64) float64, *int) {
	calls := new(int)
	return func(x []float64) float64 {
		*calls++
		return eval(x)
	}, calls
}
