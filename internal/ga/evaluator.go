package ga

// Evaluator maps a gene vector to a scalar fitness; lower is better.
// Implementations must be deterministic and free of side effects for runs to
// be reproducible. Returned values are used as-is: NaN and Inf are not
// filtered.
type Evaluator interface {
	Evaluate(genes []float64) (float64, error)
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(genes []float64) (float64, error)

func (f EvaluatorFunc) Evaluate(genes []float64) (float64, error) {
	return f(genes)
}

// Pure wraps an infallible objective.
func Pure(f func([]float64) float64) EvaluatorFunc {
	return func(genes []float64) (float64, error) {
		return f(genes), nil
	}
}

// BatchEvaluator is implemented by evaluators that score a whole population at
// once, e.g. in parallel. out[i] must receive the fitness of genes[i], and the
// returned error must be the one sequential evaluation would have hit first.
type BatchEvaluator interface {
	Evaluator
	EvaluateAll(genes [][]float64, out []float64) error
}
