package store

import (
	"context"
	"fmt"
	"path/filepath"
)

// NewStore opens the backend named by kind. For "fs" path is the data
// directory; for "sqlite" it is the data directory holding runs.db.
func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "", "fs":
		return NewFSStore(path)
	case "sqlite":
		if _, err := NewFSStore(path); err != nil {
			return nil, err
		}
		return NewSQLiteStore(context.Background(), filepath.Join(path, "runs.db"))
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
