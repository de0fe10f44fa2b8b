// Package storage persists the tracker state. Two backends exist: a JSON
// document with .bak recovery (the default) and a SQLite database that also
// mirrors the archived days into a queryable table.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"ramadan/internal/state"
)

var (
	// ErrNotFound is returned when no state has been written yet.
	ErrNotFound = errors.New("state not found")
	// ErrCorrupt marks a state that could not be decoded.
	ErrCorrupt = errors.New("state corrupt")
)

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"

	// SQLiteFile is the database name inside the data dir.
	SQLiteFile = "ramadan.db"
)

// HistoryEntry is one archived day.
type HistoryEntry struct {
	Date     string              `json:"date"`
	Snapshot state.DailySnapshot `json:"snapshot"`
}

// Backend is what the application needs from a storage implementation.
type Backend interface {
	state.Persister
	LoadState() (*state.AppState, error)
	ReadState() (*state.AppState, error)
	History(ctx context.Context, from, to string) ([]HistoryEntry, error)
	SetOnSaveWithContext(fn func(ctx SaveContext))
	DataDir() string
	Close() error
}

// Open returns the backend named kind rooted at dataDir. An empty kind
// selects the JSON backend.
func Open(dataDir, kind string) (Backend, error) {
	switch kind {
	case "", BackendJSON:
		s, err := New(dataDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendSQLite:
		s, err := OpenSQLite(filepath.Join(dataDir, SQLiteFile))
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want %s or %s)", kind, BackendJSON, BackendSQLite)
	}
}
