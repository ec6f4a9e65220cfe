package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwbudde/blendga/internal/config"
	"github.com/cwbudde/blendga/internal/store"
)

func TestSelectRunsForDeletion_ByAge(t *testing.T) {
	now := time.Now()
	infos := []store.RunInfo{
		{RunID: "run1", Timestamp: now.AddDate(0, 0, -10)}, // 10 days old
		{RunID: "run2", Timestamp: now.AddDate(0, 0, -5)},  // 5 days old
		{RunID: "run3", Timestamp: now.AddDate(0, 0, -1)},  // 1 day old
		{RunID: "run4", Timestamp: now.AddDate(0, 0, -30)}, // 30 days old
	}

	// Delete runs older than 7 days
	toDelete := selectRunsForDeletion(infos, 0, 7)

	if len(toDelete) != 2 {
		t.Fatalf("Expected 2 runs to delete, got %d", len(toDelete))
	}
	if toDelete[0].RunID != "run1" || toDelete[1].RunID != "run4" {
		t.Errorf("Expected run1 and run4, got %s and %s", toDelete[0].RunID, toDelete[1].RunID)
	}
}

func TestSelectRunsForDeletion_ByCount(t *testing.T) {
	now := time.Now()
	infos := []store.RunInfo{
		{RunID: "run1", Timestamp: now.AddDate(0, 0, -10)},
		{RunID: "run2", Timestamp: now.AddDate(0, 0, -5)},
		{RunID: "run3", Timestamp: now.AddDate(0, 0, -1)},
		{RunID: "run4", Timestamp: now.AddDate(0, 0, -30)},
	}

	// Keep only last 2 runs
	toDelete := selectRunsForDeletion(infos, 2, 0)

	if len(toDelete) != 2 {
		t.Fatalf("Expected 2 runs to delete, got %d", len(toDelete))
	}
	// Oldest first
	if toDelete[0].RunID != "run4" || toDelete[1].RunID != "run1" {
		t.Errorf("Expected run4 and run1 (oldest), got %s and %s", toDelete[0].RunID, toDelete[1].RunID)
	}
}

func TestSelectRunsForDeletion_Combined(t *testing.T) {
	now := time.Now()
	infos := []store.RunInfo{
		{RunID: "run1", Timestamp: now.AddDate(0, 0, -10)},
		{RunID: "run2", Timestamp: now.AddDate(0, 0, -5)},
		{RunID: "run3", Timestamp: now.AddDate(0, 0, -1)},
	}

	// run1 matches both rules and is listed once
	toDelete := selectRunsForDeletion(infos, 1, 7)

	if len(toDelete) != 2 {
		t.Fatalf("Expected 2 runs to delete, got %d", len(toDelete))
	}
	if toDelete[0].RunID != "run1" || toDelete[1].RunID != "run2" {
		t.Errorf("Unexpected selection: %+v", toDelete)
	}

	if got := selectRunsForDeletion(infos, 5, 0); len(got) != 0 {
		t.Errorf("Expected nothing to delete when keeping more runs than exist, got %d", len(got))
	}
}

func TestGetDirSize(t *testing.T) {
	tmpDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(tmpDir, "a.txt"), make([]byte, 100), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(tmpDir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "sub", "b.txt"), make([]byte, 50), 0644); err != nil {
		t.Fatal(err)
	}

	size, err := getDirSize(tmpDir)
	if err != nil {
		t.Fatalf("getDirSize failed: %v", err)
	}
	if size != 150 {
		t.Errorf("Expected size 150, got %d", size)
	}

	if _, err := getDirSize(filepath.Join(tmpDir, "missing")); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID(abc) = %s", got)
	}
	if got := shortID("0123456789abcdef"); got != "0123456789ab..." {
		t.Errorf("shortID truncation = %s", got)
	}
}

// useDataDir points the store flags at a temp directory for one test.
func useDataDir(t *testing.T, kind string) string {
	t.Helper()

	tmpDir := t.TempDir()
	origDir, origKind := dataDir, storeKind
	dataDir, storeKind = tmpDir, kind
	t.Cleanup(func() { dataDir, storeKind = origDir, origKind })
	return tmpDir
}

// saveTestRun stores a small completed run with the given timestamp.
func saveTestRun(t *testing.T, runStore store.Store, runID string, ts time.Time) {
	t.Helper()

	cfg := config.Default()
	cfg.PopSize = 6
	cfg.Generations = 2
	engine, err := cfg.NewEngine()
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	result, err := engine.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	record := store.NewRunRecord(runID, cfg, result, time.Second)
	record.Timestamp = ts
	if err := runStore.SaveRun(record); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
}

func TestRunsListCommand_NoRuns(t *testing.T) {
	useDataDir(t, "fs")

	if err := runListRuns(nil, nil); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestRunsListAndShowCommands(t *testing.T) {
	tmpDir := useDataDir(t, "fs")

	runStore, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	saveTestRun(t, runStore, "test-run-id", time.Now())

	if err := runListRuns(nil, nil); err != nil {
		t.Errorf("list: expected no error, got %v", err)
	}
	if err := runShowRun(nil, []string{"test-run-id"}); err != nil {
		t.Errorf("show: expected no error, got %v", err)
	}
	if err := runShowRun(nil, []string{"missing"}); err == nil {
		t.Error("show: expected error for missing run")
	}
}

func TestRunsCleanCommand_NoFlags(t *testing.T) {
	useDataDir(t, "fs")

	keepLast = 0
	olderThanDays = 0

	if err := runCleanRuns(nil, nil); err == nil {
		t.Error("Expected error when no flags specified")
	}
}

func TestRunsCleanCommand_WithForce(t *testing.T) {
	for _, kind := range []string{"fs", "sqlite"} {
		t.Run(kind, func(t *testing.T) {
			tmpDir := useDataDir(t, kind)

			runStore, err := store.NewStore(kind, tmpDir)
			if err != nil {
				t.Fatalf("Failed to create store: %v", err)
			}
			defer store.CloseIfSupported(runStore)

			saveTestRun(t, runStore, "old-run", time.Now().AddDate(0, 0, -30))
			saveTestRun(t, runStore, "new-run", time.Now())

			// A trace next to the old run is removed with it
			tw, err := store.NewTraceWriter(tmpDir, "old-run")
			if err != nil {
				t.Fatalf("NewTraceWriter failed: %v", err)
			}
			tw.Close()

			keepLast = 0
			olderThanDays = 7
			forceClean = true
			defer func() { olderThanDays, forceClean = 0, false }()

			if err := runCleanRuns(nil, nil); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			if _, err := runStore.LoadRun("old-run"); err == nil {
				t.Error("Expected old run to be deleted")
			}
			if _, err := runStore.LoadRun("new-run"); err != nil {
				t.Errorf("Expected new run to be kept: %v", err)
			}
			if _, err := os.Stat(store.RunDir(tmpDir, "old-run")); !os.IsNotExist(err) {
				t.Error("Expected old run directory to be removed")
			}
		})
	}
}
