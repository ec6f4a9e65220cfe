package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/blendga/internal/ga"
	"github.com/cwbudde/blendga/internal/store"
)

// runJob executes a job's run and records progress on the job after every
// generation. When runStore is not nil the completed run is persisted under
// the job ID.
func runJob(jm *JobManager, m *metrics, runStore store.Store, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
		j.StartTime = time.Now()
	})
	if err != nil {
		return err
	}
	m.runs.WithLabelValues(string(StateRunning)).Inc()

	slog.Info("Starting job", "job_id", jobID, "objective", job.Config.Objective, "dims", job.Config.Dims())

	progress := ga.ObserverFunc(func(s ga.Snapshot) {
		best := s.Population.Best()
		jm.UpdateJob(jobID, func(j *Job) {
			j.Generation = s.Generation
			j.BestFitness = best.Fitness
			j.BestGenes = best.Genes
			j.History = s.History
		})
		if s.Generation > 0 {
			m.generations.Inc()
		}
		m.bestFitness.WithLabelValues(jobID).Set(best.Fitness)

		jm.broadcaster.Broadcast(ProgressEvent{
			JobID:       jobID,
			State:       StateRunning,
			Generation:  s.Generation,
			Generations: job.Config.Generations,
			BestFitness: best.Fitness,
			Timestamp:   time.Now(),
		})
	})

	engine, err := job.Config.NewEngine(ga.WithObserver(progress))
	if err != nil {
		markJobFailed(jm, m, jobID, err)
		return err
	}

	start := time.Now()
	result, err := engine.Run()
	if err != nil {
		markJobFailed(jm, m, jobID, err)
		return err
	}
	elapsed := time.Since(start)

	endTime := time.Now()
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.BestGenes = result.Best.Genes
		j.BestFitness = result.Best.Fitness
		j.History = result.History
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}
	m.finish(jobID, StateCompleted)

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"initial_best", result.History[0].BestFitness,
		"best_fitness", result.Best.Fitness,
	)

	if runStore != nil {
		record := store.NewRunRecord(jobID, job.Config, result, elapsed)
		if err := runStore.SaveRun(record); err != nil {
			// The job itself succeeded; only persistence failed
			slog.Error("Failed to save run", "job_id", jobID, "error", err)
		}
	}

	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:       jobID,
		State:       StateCompleted,
		Generation:  job.Config.Generations,
		Generations: job.Config.Generations,
		BestFitness: result.Best.Fitness,
		Timestamp:   time.Now(),
	})

	return nil
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, m *metrics, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	m.finish(jobID, StateFailed)
	slog.Error("Job failed", "job_id", jobID, "error", err)

	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:     jobID,
		State:     StateFailed,
		Error:     err.Error(),
		Timestamp: time.Now(),
	})
}
