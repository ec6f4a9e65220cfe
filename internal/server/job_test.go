package server

import (
	"testing"
	"time"

	"github.com/cwbudde/blendga/internal/config"
	"github.com/cwbudde/blendga/internal/ga"
)

func smallConfig() config.RunConfig {
	cfg := config.Default()
	cfg.PopSize = 10
	cfg.Generations = 5
	return cfg
}

func TestJobManager_CreateJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(smallConfig())

	if job.ID == "" {
		t.Error("Job ID should not be empty")
	}

	if job.State != StatePending {
		t.Errorf("Initial state should be pending, got %s", job.State)
	}

	if job.Config.Objective != "wave" || job.Config.PopSize != 10 {
		t.Errorf("Config not set correctly: %+v", job.Config)
	}
}

func TestJobManager_GetJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(smallConfig())

	retrieved, exists := jm.GetJob(job.ID)
	if !exists {
		t.Error("Job should exist")
	}

	if retrieved.ID != job.ID {
		t.Error("Retrieved wrong job")
	}

	_, exists = jm.GetJob("nonexistent")
	if exists {
		t.Error("Should not find nonexistent job")
	}
}

func TestJobManager_GetJobReturnsCopy(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(smallConfig())

	jm.UpdateJob(job.ID, func(j *Job) {
		j.BestGenes = []float64{1, 2}
		j.History = []ga.GenerationRecord{{Generation: 0, BestFitness: -1}}
	})

	copy1, _ := jm.GetJob(job.ID)
	copy1.BestGenes[0] = 99
	copy1.History[0].BestFitness = 99
	copy1.Config.Bounds[0].Max = 99

	copy2, _ := jm.GetJob(job.ID)
	if copy2.BestGenes[0] != 1 || copy2.History[0].BestFitness != -1 || copy2.Config.Bounds[0].Max != 20 {
		t.Errorf("Mutating a returned job leaked into the manager: %+v", copy2)
	}
}

func TestJobManager_ListJobs(t *testing.T) {
	jm := NewJobManager()

	if len(jm.ListJobs()) != 0 {
		t.Error("Should start with no jobs")
	}

	first := jm.CreateJob(smallConfig())
	time.Sleep(time.Millisecond)
	jm.CreateJob(smallConfig())

	jobs := jm.ListJobs()
	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != first.ID {
		t.Error("Jobs should be listed oldest first")
	}
}

func TestJobManager_UpdateJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(smallConfig())

	err := jm.UpdateJob(job.ID, func(j *Job) {
		j.State = StateRunning
		j.Generation = 10
		j.BestFitness = -123.45
	})

	if err != nil {
		t.Errorf("Update should succeed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateRunning {
		t.Error("State should be updated")
	}
	if updated.Generation != 10 {
		t.Error("Generation should be updated")
	}
	if updated.BestFitness != -123.45 {
		t.Error("BestFitness should be updated")
	}

	if len(jm.GetRunningJobs()) != 1 {
		t.Error("Expected one running job")
	}

	err = jm.UpdateJob("nonexistent", func(j *Job) {})
	if err == nil {
		t.Error("Update of nonexistent job should fail")
	}
}

func TestJobManager_ThreadSafety(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(smallConfig())

	// Simulate concurrent updates and reads
	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(generation int) {
			jm.UpdateJob(job.ID, func(j *Job) {
				j.Generation = generation
				j.History = append(j.History, ga.GenerationRecord{Generation: generation})
			})
			jm.GetJob(job.ID)
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	updated, exists := jm.GetJob(job.ID)
	if !exists {
		t.Fatal("Job should still exist after concurrent updates")
	}
	if len(updated.History) != 10 {
		t.Errorf("Expected 10 history entries, got %d", len(updated.History))
	}
}
