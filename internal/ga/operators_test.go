package ga

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-12

func mustSpace(t *testing.T, bounds ...Bound) *ParameterSpace {
	t.Helper()
	space, err := NewParameterSpace(bounds)
	require.NoError(t, err)
	return space
}

func TestParameterSpace_SampleWithinBounds(t *testing.T) {
	space := mustSpace(t, Bound{Min: -3, Max: 5}, Bound{Min: 0, Max: 20}, Bound{Min: 100, Max: 100.5})
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 1000; i++ {
		genes := space.Sample(rng)
		require.Len(t, genes, 3)
		assert.True(t, space.Contains(genes), "sample %v out of bounds", genes)
	}
}

func TestParameterSpace_Validation(t *testing.T) {
	tests := []struct {
		name   string
		bounds []Bound
	}{
		{name: "no dimensions", bounds: nil},
		{name: "min equals max", bounds: []Bound{{Min: 1, Max: 1}}},
		{name: "min above max", bounds: []Bound{{Min: 0, Max: 1}, {Min: 3, Max: 2}}},
		{name: "nan bound", bounds: []Bound{{Min: math.NaN(), Max: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParameterSpace(tt.bounds)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfig)
		})
	}
}

func TestParameterSpace_BoundsAreCopied(t *testing.T) {
	bounds := []Bound{{Min: 0, Max: 1}}
	space := mustSpace(t, bounds...)

	bounds[0].Max = 50
	got := space.Bounds()
	got[0].Min = -50

	assert.Equal(t, []Bound{{Min: 0, Max: 1}}, space.Bounds())
	assert.Equal(t, []float64{0}, space.Lower())
	assert.Equal(t, []float64{1}, space.Upper())
}

func TestSelect_KeepsBestHalfInOrder(t *testing.T) {
	pop := Population{
		{Genes: []float64{1}, Fitness: -4},
		{Genes: []float64{2}, Fitness: -3},
		{Genes: []float64{3}, Fitness: 1},
		{Genes: []float64{4}, Fitness: 9},
	}

	parents := Select(pop)

	require.Len(t, parents, 2)
	assert.Equal(t, pop[0], parents[0])
	assert.Equal(t, pop[1], parents[1])
}

func TestCrossover_ChildrenStayBetweenParents(t *testing.T) {
	space := mustSpace(t, Bound{Min: 0, Max: 20}, Bound{Min: -5, Max: 5}, Bound{Min: 1e-3, Max: 1e3})
	rng := rand.New(rand.NewSource(99))

	for round := 0; round < 200; round++ {
		parents := Population{
			{Genes: space.Sample(rng)},
			{Genes: space.Sample(rng)},
		}
		children := Crossover(rng, parents)
		require.Len(t, children, 2)

		for _, child := range children {
			assert.True(t, math.IsNaN(child.Fitness), "child fitness must be unset")
			for d, v := range child.Genes {
				lo := math.Min(parents[0].Genes[d], parents[1].Genes[d])
				hi := math.Max(parents[0].Genes[d], parents[1].Genes[d])
				assert.GreaterOrEqual(t, v, lo-eps)
				assert.LessOrEqual(t, v, hi+eps)
			}
			assert.True(t, space.Contains(child.Genes))
		}
	}
}

func TestCrossover_IdenticalParentsOnDimension(t *testing.T) {
	parents := Population{
		{Genes: []float64{3.25, 1}},
		{Genes: []float64{3.25, 7}},
		{Genes: []float64{3.25, 4}},
	}
	children := Crossover(rand.New(rand.NewSource(5)), parents)

	require.Len(t, children, 3)
	for _, child := range children {
		assert.Equal(t, 3.25, child.Genes[0])
	}
}

func TestCrossover_NeverPairsParentWithItself(t *testing.T) {
	// Distinct single-gene parents far apart: a self-pairing would produce a
	// child exactly equal to a parent, which is otherwise a measure-zero event.
	parents := Population{
		{Genes: []float64{0}},
		{Genes: []float64{10}},
		{Genes: []float64{20}},
		{Genes: []float64{30}},
	}
	rng := rand.New(rand.NewSource(11))

	for round := 0; round < 100; round++ {
		for _, child := range Crossover(rng, parents) {
			for _, p := range parents {
				assert.NotEqual(t, p.Genes[0], child.Genes[0])
			}
		}
	}
}

func TestCrossover_SingleParentPool(t *testing.T) {
	parents := Population{{Genes: []float64{4.5, 17}, Fitness: -1}}

	children := Crossover(rand.New(rand.NewSource(3)), parents)

	require.Len(t, children, 1)
	assert.Equal(t, []float64{4.5, 17}, children[0].Genes)
	children[0].Genes[0] = 0
	assert.Equal(t, 4.5, parents[0].Genes[0], "child must not alias parent genes")
}

func TestMutantCount(t *testing.T) {
	tests := []struct {
		n    int
		p    float64
		want int
	}{
		{n: 50, p: 0.2, want: 10},
		{n: 4, p: 0, want: 0},
		{n: 10, p: 0.25, want: 2}, // 2.5 rounds to even
		{n: 10, p: 0.35, want: 4}, // 3.5 rounds to even
		{n: 4, p: 1, want: 4},
		{n: 2, p: 0.5, want: 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MutantCount(tt.n, tt.p), "MutantCount(%d, %g)", tt.n, tt.p)
	}
}

func TestMutate_ZeroMutantsLeavesChildren(t *testing.T) {
	space := mustSpace(t, Bound{Min: 0, Max: 20}, Bound{Min: 0, Max: 20})
	children := Population{
		{Genes: []float64{1, 2}},
		{Genes: []float64{3, 4}},
	}
	before := children.Clone()

	mutated := Mutate(rand.New(rand.NewSource(1)), space, children, 0)

	assert.Empty(t, mutated)
	assert.Equal(t, before, children)
}

func TestMutate_SurplusBudgetResetsEveryChild(t *testing.T) {
	space := mustSpace(t, Bound{Min: 0, Max: 20}, Bound{Min: 0, Max: 20})
	children := Population{
		{Genes: []float64{1, 2}},
		{Genes: []float64{3, 4}},
	}

	seed := int64(21)
	mutated := Mutate(rand.New(rand.NewSource(seed)), space, children, MutantCount(4, 1))
	require.Len(t, mutated, 2)

	// Replay the same draws: one permutation, then one sample per mutant.
	rng := rand.New(rand.NewSource(seed))
	order := rng.Perm(2)
	for _, idx := range order {
		assert.Equal(t, space.Sample(rng), children[idx].Genes)
	}
	assert.ElementsMatch(t, []int{0, 1}, mutated)
}

func TestMutate_PartialBudget(t *testing.T) {
	space := mustSpace(t, Bound{Min: 100, Max: 200})
	children := make(Population, 6)
	for i := range children {
		children[i] = Individual{Genes: []float64{float64(i)}}
	}

	mutated := Mutate(rand.New(rand.NewSource(8)), space, children, 2)

	require.Len(t, mutated, 2)
	reset := 0
	for i, child := range children {
		if child.Genes[0] >= 100 {
			reset++
			assert.Contains(t, mutated, i)
		} else {
			assert.Equal(t, float64(i), child.Genes[0])
		}
	}
	assert.Equal(t, 2, reset)
}

func TestRanker_StableSort(t *testing.T) {
	pop := Population{
		{Genes: []float64{5}},
		{Genes: []float64{1}},
		{Genes: []float64{4}},
		{Genes: []float64{2}},
	}
	// Everything below 3 ties, everything above ties.
	eval := Pure(func(g []float64) float64 {
		if g[0] < 3 {
			return 0
		}
		return 1
	})

	require.NoError(t, NewRanker(eval).Rank(pop))

	got := make([]float64, len(pop))
	for i, ind := range pop {
		got[i] = ind.Genes[0]
	}
	assert.Equal(t, []float64{1, 2, 5, 4}, got)
}

type recordingBatch struct {
	calls int
}

func (b *recordingBatch) Evaluate(genes []float64) (float64, error) {
	return genes[0], nil
}

func (b *recordingBatch) EvaluateAll(genes [][]float64, out []float64) error {
	b.calls++
	for i, g := range genes {
		out[i] = g[0]
	}
	return nil
}

func TestRanker_UsesBatchEvaluator(t *testing.T) {
	batch := &recordingBatch{}
	pop := Population{{Genes: []float64{3}}, {Genes: []float64{1}}, {Genes: []float64{2}}}

	require.NoError(t, NewRanker(batch).Rank(pop))

	assert.Equal(t, 1, batch.calls)
	assert.Equal(t, []float64{1, 2, 3}, pop.Fitnesses())
}
