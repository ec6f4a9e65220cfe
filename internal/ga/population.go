package ga

import (
	"math"
	"math/rand"
	"sort"
)

// Individual is one candidate solution.
type Individual struct {
	Genes   []float64 `json:"genes"`
	Fitness float64   `json:"fitness"`
}

// Clone returns a deep copy.
func (ind Individual) Clone() Individual {
	return Individual{
		Genes:   append([]float64(nil), ind.Genes...),
		Fitness: ind.Fitness,
	}
}

// Population is an ordered set of individuals. After ranking it is sorted
// ascending by fitness, so index 0 is the best.
type Population []Individual

// Clone returns a deep copy.
func (p Population) Clone() Population {
	out := make(Population, len(p))
	for i, ind := range p {
		out[i] = ind.Clone()
	}
	return out
}

// Best returns a copy of the first individual. The population must be ranked
// and non-empty.
func (p Population) Best() Individual {
	return p[0].Clone()
}

// Fitnesses returns the fitness values in population order.
func (p Population) Fitnesses() []float64 {
	out := make([]float64, len(p))
	for i, ind := range p {
		out[i] = ind.Fitness
	}
	return out
}

// InitPopulation draws n independent samples from space. Fitness is left
// unset (NaN) until the population is ranked.
func InitPopulation(rng *rand.Rand, space *ParameterSpace, n int) Population {
	pop := make(Population, n)
	for i := range pop {
		pop[i] = Individual{Genes: space.Sample(rng), Fitness: math.NaN()}
	}
	return pop
}

// Ranker evaluates and sorts populations.
type Ranker struct {
	eval Evaluator
}

// NewRanker creates a ranker for eval.
func NewRanker(eval Evaluator) *Ranker {
	return &Ranker{eval: eval}
}

// Evaluate recomputes the fitness of every individual. If the evaluator
// implements BatchEvaluator the whole population is handed over at once.
// The first evaluator error is returned unmodified.
func (r *Ranker) Evaluate(pop Population) error {
	if batch, ok := r.eval.(BatchEvaluator); ok {
		genes := make([][]float64, len(pop))
		for i := range pop {
			genes[i] = pop[i].Genes
		}
		out := make([]float64, len(pop))
		if err := batch.EvaluateAll(genes, out); err != nil {
			return err
		}
		for i := range pop {
			pop[i].Fitness = out[i]
		}
		return nil
	}

	for i := range pop {
		f, err := r.eval.Evaluate(pop[i].Genes)
		if err != nil {
			return err
		}
		pop[i].Fitness = f
	}
	return nil
}

// Rank evaluates pop and sorts it ascending by fitness. The sort is stable:
// equal fitness values keep their relative order.
func (r *Ranker) Rank(pop Population) error {
	if err := r.Evaluate(pop); err != nil {
		return err
	}
	sort.SliceStable(pop, func(i, j int) bool {
		return pop[i].Fitness < pop[j].Fitness
	})
	return nil
}
