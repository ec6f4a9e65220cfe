package report

import (
	"log/slog"
	"math"

	"github.com/cwbudde/blendga/internal/ga"
)

// ConvergenceTracker watches the best-fitness history and counts generations
// without significant improvement. It only reports; runs always go the full
// number of generations.
type ConvergenceTracker struct {
	// Threshold is the minimum relative improvement that counts as progress,
	// e.g. 0.001 = 0.1%.
	Threshold float64

	history         []float64
	lastSignificant float64
	lastImprovement int
	staleCount      int
}

// NewConvergenceTracker creates a tracker with the given threshold.
func NewConvergenceTracker(threshold float64) *ConvergenceTracker {
	return &ConvergenceTracker{
		Threshold:       threshold,
		lastSignificant: math.Inf(1),
	}
}

// ObserveGeneration implements ga.Observer.
func (c *ConvergenceTracker) ObserveGeneration(s ga.Snapshot) {
	c.Update(s.History[len(s.History)-1].BestFitness)
}

// Update records the next generation's best fitness. It returns true when
// this generation was a significant improvement.
func (c *ConvergenceTracker) Update(best float64) bool {
	c.history = append(c.history, best)
	generation := len(c.history) - 1

	if generation == 0 {
		c.lastSignificant = best
		return false
	}

	if relativeImprovement(c.lastSignificant, best) >= c.Threshold {
		c.lastSignificant = best
		c.lastImprovement = generation
		c.staleCount = 0
		return true
	}

	c.staleCount++
	slog.Debug("No significant improvement",
		"generation", generation,
		"best_fitness", best,
		"last_significant", c.lastSignificant,
		"stale_count", c.staleCount,
	)
	return false
}

// StaleCount returns the number of generations since the last significant
// improvement.
func (c *ConvergenceTracker) StaleCount() int {
	return c.staleCount
}

// Summary returns the convergence summary so far.
func (c *ConvergenceTracker) Summary() Summary {
	if len(c.history) == 0 {
		return Summary{}
	}
	initial := c.history[0]
	final := c.history[len(c.history)-1]
	return Summary{
		Generations:         len(c.history) - 1,
		Initial:             initial,
		Final:               final,
		Improvement:         initial - final,
		RelativeImprovement: relativeImprovement(initial, final),
		LastImprovement:     c.lastImprovement,
		StaleGenerations:    c.staleCount,
	}
}

// Summary describes how a run converged.
type Summary struct {
	Generations         int     `json:"generations"`
	Initial             float64 `json:"initial"`
	Final               float64 `json:"final"`
	Improvement         float64 `json:"improvement"`
	RelativeImprovement float64 `json:"relativeImprovement"`
	LastImprovement     int     `json:"lastImprovement"`
	StaleGenerations    int     `json:"staleGenerations"`
}

// Summarize replays a recorded history through a tracker.
func Summarize(history []ga.GenerationRecord, threshold float64) Summary {
	tracker := NewConvergenceTracker(threshold)
	for _, rec := range history {
		tracker.Update(rec.BestFitness)
	}
	return tracker.Summary()
}

// relativeImprovement is (from-to)/|from|. Fitness can be negative or zero,
// so a zero reference falls back to the absolute improvement.
func relativeImprovement(from, to float64) float64 {
	if from == 0 {
		return from - to
	}
	return (from - to) / math.Abs(from)
}
