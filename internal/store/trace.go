package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cwbudde/blendga/internal/ga"
)

// TraceEntry is one line of trace.jsonl: the ranked result of a generation.
type TraceEntry struct {
	Generation  int       `json:"generation"`
	BestFitness float64   `json:"bestFitness"`
	MeanFitness float64   `json:"meanFitness"`
	Timestamp   time.Time `json:"timestamp"`

	// BestGenes is optional; omitted to save space when nil
	BestGenes []float64 `json:"bestGenes,omitempty"`
}

// NewTraceEntry builds an entry from a snapshot.
func NewTraceEntry(s ga.Snapshot, withGenes bool) TraceEntry {
	entry := TraceEntry{
		Generation:  s.Generation,
		BestFitness: s.Population[0].Fitness,
		Timestamp:   time.Now(),
	}
	var sum float64
	for _, ind := range s.Population {
		sum += ind.Fitness
	}
	entry.MeanFitness = sum / float64(len(s.Population))
	if withGenes {
		entry.BestGenes = append([]float64(nil), s.Population[0].Genes...)
	}
	return entry
}

// TracePath returns <baseDir>/runs/<runID>/trace.jsonl.
func TracePath(baseDir, runID string) string {
	return filepath.Join(RunDir(baseDir, runID), "trace.jsonl")
}

// TraceWriter writes trace entries to a JSONL file.
// It uses buffered I/O and is safe for concurrent use.
type TraceWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	path   string
	err    error
}

// NewTraceWriter creates the trace file for the given run, truncating any
// previous one.
func NewTraceWriter(baseDir, runID string) (*TraceWriter, error) {
	if err := os.MkdirAll(RunDir(baseDir, runID), 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	path := TracePath(baseDir, runID)
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	return &TraceWriter{
		file:   file,
		writer: bufio.NewWriterSize(file, 64*1024),
		path:   path,
	}, nil
}

// Write appends a trace entry. The entry is buffered and will be written on
// Flush() or Close().
func (tw *TraceWriter) Write(entry TraceEntry) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal trace entry: %w", err)
	}

	if _, err := tw.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write trace entry: %w", err)
	}
	if err := tw.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

// ObserveGeneration implements ga.Observer. Write errors cannot stop the run;
// the first one is reported by Close.
func (tw *TraceWriter) ObserveGeneration(s ga.Snapshot) {
	if err := tw.Write(NewTraceEntry(s, true)); err != nil {
		tw.mu.Lock()
		if tw.err == nil {
			tw.err = err
		}
		tw.mu.Unlock()
	}
}

// Flush writes any buffered data to the file and syncs it to disk.
func (tw *TraceWriter) Flush() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := tw.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush trace writer: %w", err)
	}
	if err := tw.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync trace file: %w", err)
	}

	return nil
}

// Close flushes buffered data and closes the trace file. It also returns the
// first error swallowed by ObserveGeneration.
func (tw *TraceWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := tw.writer.Flush(); err != nil {
		tw.file.Close()
		return fmt.Errorf("failed to flush on close: %w", err)
	}
	if err := tw.file.Close(); err != nil {
		return fmt.Errorf("failed to close trace file: %w", err)
	}

	return tw.err
}

// Path returns the filesystem path to the trace file.
func (tw *TraceWriter) Path() string {
	return tw.path
}

// TraceReader reads trace entries from a JSONL file.
type TraceReader struct {
	file    *os.File
	scanner *bufio.Scanner
}

// NewTraceReader opens the trace of the given run.
func NewTraceReader(baseDir, runID string) (*TraceReader, error) {
	file, err := os.Open(TracePath(baseDir, runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{RunID: runID}
		}
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024) // 64KB initial, 1MB max

	return &TraceReader{
		file:    file,
		scanner: scanner,
	}, nil
}

// Read reads the next trace entry.
// Returns io.EOF when no more entries are available.
func (tr *TraceReader) Read() (*TraceEntry, error) {
	if !tr.scanner.Scan() {
		if err := tr.scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to scan trace line: %w", err)
		}
		return nil, io.EOF
	}

	var entry TraceEntry
	if err := json.Unmarshal(tr.scanner.Bytes(), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trace entry: %w", err)
	}

	return &entry, nil
}

// ReadAll reads all remaining trace entries.
func (tr *TraceReader) ReadAll() ([]TraceEntry, error) {
	var entries []TraceEntry

	for {
		entry, err := tr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	return entries, nil
}

// Close closes the trace reader.
func (tr *TraceReader) Close() error {
	if err := tr.file.Close(); err != nil {
		return fmt.Errorf("failed to close trace file: %w", err)
	}
	return nil
}
