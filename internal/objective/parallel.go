package objective

import (
	"github.com/sourcegraph/conc/pool"

	"github.com/cwbudde/blendga/internal/ga"
)

// Parallel evaluates a population on a bounded set of goroutines. Results
// land at the index of their gene vector, so the outcome is identical to
// sequential evaluation for a pure evaluator.
type Parallel struct {
	eval    ga.Evaluator
	workers int
}

// NewParallel wraps eval. workers below 1 are treated as 1.
func NewParallel(eval ga.Evaluator, workers int) *Parallel {
	if workers < 1 {
		workers = 1
	}
	return &Parallel{eval: eval, workers: workers}
}

func (p *Parallel) Evaluate(genes []float64) (float64, error) {
	return p.eval.Evaluate(genes)
}

// EvaluateAll scores every gene vector. If any evaluation fails, the error of
// the lowest failing index is returned, matching what a sequential loop would
// have reported.
func (p *Parallel) EvaluateAll(genes [][]float64, out []float64) error {
	errs := make([]error, len(genes))

	wp := pool.New().WithMaxGoroutines(p.workers)
	for i := range genes {
		wp.Go(func() {
			out[i], errs[i] = p.eval.Evaluate(genes[i])
		})
	}
	wp.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
