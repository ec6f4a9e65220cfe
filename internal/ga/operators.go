package ga

import (
	"math"
	"math/rand"
)

// Select performs truncation selection on a ranked population: the first
// len(pop)/2 individuals, unchanged and in order. The best individuals always
// reach the next merged population, which keeps the best fitness from ever
// getting worse.
func Select(pop Population) Population {
	return pop[:len(pop)/2]
}

// Crossover produces one child per parent by blend crossover. For each child
// the full parent pool is reshuffled and its first two entries are used, so a
// parent can breed with different partners across children but never with
// itself within one child. On every dimension the child lies uniformly between
// the two parents:
//
//	child[d] = min(p1[d], p2[d]) + U(0,1) * |p1[d] - p2[d]|
//
// A pool of one individual pairs it with itself and the child is a copy.
// Children carry NaN fitness until ranked.
func Crossover(rng *rand.Rand, parents Population) Population {
	children := make(Population, len(parents))
	for i := range children {
		order := rng.Perm(len(parents))
		p1 := parents[order[0]].Genes
		p2 := p1
		if len(order) > 1 {
			p2 = parents[order[1]].Genes
		}

		genes := make([]float64, len(p1))
		for d := range genes {
			genes[d] = math.Min(p1[d], p2[d]) + rng.Float64()*math.Abs(p1[d]-p2[d])
		}
		children[i] = Individual{Genes: genes, Fitness: math.NaN()}
	}
	return children
}

// MutantCount returns round(n*p) with ties rounded to even. It is derived from
// the total population size, not the child pool.
func MutantCount(n int, p float64) int {
	return int(math.RoundToEven(float64(n) * p))
}

// Mutate resets whole gene vectors: a random permutation of child indices is
// drawn and the first mutants children in it get a fresh sample from space.
// When mutants exceeds the number of children the surplus is unused. The
// permutation is drawn even when mutants is zero. Returns the mutated indices
// in mutation order.
func Mutate(rng *rand.Rand, space *ParameterSpace, children Population, mutants int) []int {
	order := rng.Perm(len(children))
	if mutants > len(children) {
		mutants = len(children)
	}
	if mutants < 0 {
		mutants = 0
	}
	for _, idx := range order[:mutants] {
		children[idx] = Individual{Genes: space.Sample(rng), Fitness: math.NaN()}
	}
	return order[:mutants]
}

// Merge concatenates parents and children into a new population.
func Merge(parents, children Population) Population {
	merged := make(Population, 0, len(parents)+len(children))
	merged = append(merged, parents...)
	merged = append(merged, children...)
	return merged
}
