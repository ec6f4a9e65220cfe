package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps run records in a single SQLite database. Listing columns
// are stored next to the JSON payload so ListRuns never decodes populations.
// created_at holds Unix nanoseconds so ORDER BY sorts by time.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{path: path, db: db}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) SaveRun(record *RunRecord) error {
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if err := record.Validate(); err != nil {
		return err
	}
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to serialize run: %w", err)
	}

	info := record.ToInfo()
	_, err = db.ExecContext(context.Background(), `
		INSERT INTO runs (id, objective, dims, pop_size, generations, best_fitness, created_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			objective = excluded.objective,
			dims = excluded.dims,
			pop_size = excluded.pop_size,
			generations = excluded.generations,
			best_fitness = excluded.best_fitness,
			created_at = excluded.created_at,
			payload = excluded.payload
	`, info.RunID, info.Objective, info.Dims, info.PopSize, info.Generations, info.BestFitness,
		info.Timestamp.UnixNano(), payload)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", record.RunID, err)
	}

	slog.Debug("Run saved", "run_id", record.RunID, "path", s.path)
	return nil
}

func (s *SQLiteStore) LoadRun(runID string) (*RunRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	var payload []byte
	err = db.QueryRowContext(context.Background(), `SELECT payload FROM runs WHERE id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{RunID: runID}
		}
		return nil, err
	}

	var record RunRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", runID, err)
	}
	return &record, nil
}

func (s *SQLiteStore) ListRuns() ([]RunInfo, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(context.Background(), `
		SELECT id, objective, dims, pop_size, generations, best_fitness, created_at
		FROM runs
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	infos := []RunInfo{}
	for rows.Next() {
		var (
			info      RunInfo
			createdAt int64
		)
		if err := rows.Scan(&info.RunID, &info.Objective, &info.Dims, &info.PopSize,
			&info.Generations, &info.BestFitness, &createdAt); err != nil {
			return nil, err
		}
		info.Timestamp = time.Unix(0, createdAt).UTC()
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (s *SQLiteStore) DeleteRun(runID string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	res, err := db.ExecContext(context.Background(), `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &NotFoundError{RunID: runID}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is closed")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			objective TEXT NOT NULL,
			dims INTEGER NOT NULL,
			pop_size INTEGER NOT NULL,
			generations INTEGER NOT NULL,
			best_fitness REAL NOT NULL,
			created_at INTEGER NOT NULL, -- Unix nanoseconds
			payload BLOB NOT NULL
		);
	`)
	return err
}
