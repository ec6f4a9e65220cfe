package store

import (
	"fmt"
	"time"

	"github.com/cwbudde/blendga/internal/config"
	"github.com/cwbudde/blendga/internal/ga"
)

// RunRecord is a completed run as persisted. A record holds everything needed
// to replay the run: the configuration includes the seed.
type RunRecord struct {
	// RunID is the unique identifier for this run
	RunID string `json:"runId"`

	// Config is the configuration the run was started with
	Config config.RunConfig `json:"config"`

	// Best is the best individual of the final population
	Best ga.Individual `json:"best"`

	// Population is the final ranked population
	Population ga.Population `json:"population"`

	// History holds one record per generation, generation 0 included
	History []ga.GenerationRecord `json:"history"`

	// ElapsedSeconds is the wall-clock duration of the run
	ElapsedSeconds float64 `json:"elapsedSeconds"`

	// Timestamp records when the run completed
	Timestamp time.Time `json:"timestamp"`
}

// RunInfo is run metadata without population data, for listings.
type RunInfo struct {
	RunID       string    `json:"runId"`
	Objective   string    `json:"objective"`
	Dims        int       `json:"dims"`
	PopSize     int       `json:"popSize"`
	Generations int       `json:"generations"`
	BestFitness float64   `json:"bestFitness"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewRunRecord builds a record from a finished run.
func NewRunRecord(runID string, cfg config.RunConfig, result *ga.RunResult, elapsed time.Duration) *RunRecord {
	return &RunRecord{
		RunID:          runID,
		Config:         cfg,
		Best:           result.Best,
		Population:     result.Population,
		History:        result.History,
		ElapsedSeconds: elapsed.Seconds(),
		Timestamp:      time.Now(),
	}
}

// ToInfo converts a full record to RunInfo.
func (r *RunRecord) ToInfo() RunInfo {
	return RunInfo{
		RunID:       r.RunID,
		Objective:   r.Config.Objective,
		Dims:        r.Config.Dims(),
		PopSize:     r.Config.PopSize,
		Generations: r.Config.Generations,
		BestFitness: r.Best.Fitness,
		Timestamp:   r.Timestamp,
	}
}

// Validate checks the record's internal consistency.
func (r *RunRecord) Validate() error {
	if r.RunID == "" {
		return &ValidationError{Field: "RunID", Reason: "cannot be empty"}
	}
	if err := r.Config.Validate(); err != nil {
		return &ValidationError{Field: "Config", Reason: err.Error()}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if len(r.Best.Genes) != r.Config.Dims() {
		return &ValidationError{
			Field:  "Best.Genes",
			Reason: fmt.Sprintf("length mismatch: expected %d genes, got %d", r.Config.Dims(), len(r.Best.Genes)),
		}
	}
	if len(r.Population) != r.Config.PopSize {
		return &ValidationError{
			Field:  "Population",
			Reason: fmt.Sprintf("size mismatch: expected %d individuals, got %d", r.Config.PopSize, len(r.Population)),
		}
	}
	if len(r.History) != r.Config.Generations+1 {
		return &ValidationError{
			Field:  "History",
			Reason: fmt.Sprintf("length mismatch: expected %d records, got %d", r.Config.Generations+1, len(r.History)),
		}
	}
	if r.ElapsedSeconds < 0 {
		return &ValidationError{Field: "ElapsedSeconds", Reason: "cannot be negative"}
	}
	return nil
}

// ValidationError represents a run record validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
