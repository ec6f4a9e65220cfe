// Package report turns engine snapshots into statistics, convergence
// summaries and plots. Nothing here feeds back into a run.
package report

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/blendga/internal/ga"
)

// PopulationStats summarizes one ranked population.
type PopulationStats struct {
	Generation int     `json:"generation"`
	Best       float64 `json:"best"`
	Worst      float64 `json:"worst"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"stdDev"`
	// GeneSpread is max-min of each gene across the population. It shrinks
	// towards zero as the population collapses onto one point.
	GeneSpread []float64 `json:"geneSpread"`
}

// Stats computes fitness and diversity statistics of a ranked snapshot.
func Stats(s ga.Snapshot) PopulationStats {
	ps := PopulationStats{Generation: s.Generation}
	if len(s.Population) == 0 {
		return ps
	}

	fitness := s.Population.Fitnesses()
	ps.Best = s.Population[0].Fitness
	ps.Worst = s.Population[len(s.Population)-1].Fitness
	ps.Mean = stat.Mean(fitness, nil)
	if len(fitness) > 1 {
		ps.StdDev = stat.StdDev(fitness, nil)
	}

	dims := len(s.Population[0].Genes)
	ps.GeneSpread = make([]float64, dims)
	column := make([]float64, len(s.Population))
	for d := 0; d < dims; d++ {
		for i, ind := range s.Population {
			column[i] = ind.Genes[d]
		}
		ps.GeneSpread[d] = floats.Max(column) - floats.Min(column)
	}
	return ps
}
