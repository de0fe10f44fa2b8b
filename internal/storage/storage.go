package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"ramadan/internal/fsutil"
	"ramadan/internal/state"
)

// SaveContext contains information about a save operation for semantic commit messages.
// It lets git sync write "Toggle slot: After Fajr" instead of "Update state".
type SaveContext struct {
	Filename  string // file that was written, e.g. "state.json"
	Operation string // action kind, "restore" or "init"
	Summary   string // human readable description of the change
}

// Storage persists the application state as a single JSON document.
type Storage struct {
	dataDir           string
	onSaveWithContext func(ctx SaveContext)
	now               func() time.Time // injectable clock for deterministic tests

	mu         sync.Mutex
	lastDigest [32]byte
}

const (
	dataDirPerm  os.FileMode = 0700
	dataFilePerm os.FileMode = 0600

	// StateFile is the name of the JSON state document inside the data dir.
	StateFile = "state.json"
)

// New creates a Storage rooted at dataDir, creating the directory if needed.
func New(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, dataDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Storage{dataDir: dataDir, now: time.Now}, nil
}

// SetNowFunc overrides the clock used for quarantine timestamps.
// Passing nil resets it to time.Now.
func (s *Storage) SetNowFunc(now func() time.Time) {
	if now == nil {
		s.now = time.Now
		return
	}
	s.now = now
}

// Now returns the current time according to the storage clock.
func (s *Storage) Now() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

// SetOnSaveWithContext registers a callback fired after every successful
// state write. Git sync uses it for auto-commits.
func (s *Storage) SetOnSaveWithContext(fn func(ctx SaveContext)) {
	s.onSaveWithContext = fn
}

// DataDir returns the path to the data directory.
func (s *Storage) DataDir() string {
	return s.dataDir
}

// StatePath is the absolute path of the state document.
func (s *Storage) StatePath() string {
	return filepath.Join(s.dataDir, StateFile)
}

// Close is a no-op for the file backend.
func (s *Storage) Close() error { return nil }

// LoadState reads the state document. A missing file yields the first-run
// state, which is written immediately. A corrupt file is recovered from its
// .bak copy or reset to defaults; in both cases the broken file is moved
// aside and the returned error wraps ErrCorrupt while the state is usable.
func (s *Storage) LoadState() (*state.AppState, error) {
	data, err := os.ReadFile(s.StatePath())
	if err != nil {
		if os.IsNotExist(err) {
			st := state.Default()
			if err := s.write(st, SaveContext{Operation: "init", Summary: "Initialize state"}); err != nil {
				return st, err
			}
			return st, nil
		}
		return state.Default(), fmt.Errorf("read %s: %w", StateFile, err)
	}

	if st := state.Decode(data); st != nil {
		s.remember(data)
		return st, nil
	}
	return s.recover()
}

// ReadState decodes the state document without any recovery. It returns
// ErrNotFound when the file does not exist and ErrCorrupt when it cannot be
// decoded. The watcher uses it to pick up external edits.
func (s *Storage) ReadState() (*state.AppState, error) {
	data, err := os.ReadFile(s.StatePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", StateFile, err)
	}
	st := state.Decode(data)
	if st == nil {
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, StateFile)
	}
	return st, nil
}

// IsOwnWrite reports whether the state file on disk still holds exactly
// what this Storage wrote last.
func (s *Storage) IsOwnWrite() bool {
	data, err := os.ReadFile(s.StatePath())
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fsutil.Digest(data) == s.lastDigest
}

// SaveState implements state.Persister.
func (s *Storage) SaveState(st *state.AppState, change state.Change) error {
	return s.write(st, SaveContext{Operation: change.Kind, Summary: change.Summary})
}

// History returns archived days between from and to inclusive, oldest first.
// Empty bounds are open.
func (s *Storage) History(_ context.Context, from, to string) ([]HistoryEntry, error) {
	st, err := s.ReadState()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return filterHistory(st.DailyHistory, from, to), nil
}

func (s *Storage) write(st *state.AppState, ctx SaveContext) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize %s: %w", StateFile, err)
	}

	path := s.StatePath()
	_ = fsutil.BackupFile(path, dataFilePerm)
	if err := fsutil.WriteFileAtomic(path, data, dataFilePerm); err != nil {
		return fmt.Errorf("write %s: %w", StateFile, err)
	}
	s.remember(data)

	ctx.Filename = StateFile
	if s.onSaveWithContext != nil {
		s.onSaveWithContext(ctx)
	}
	return nil
}

func (s *Storage) remember(data []byte) {
	s.mu.Lock()
	s.lastDigest = fsutil.Digest(data)
	s.mu.Unlock()
}

func (s *Storage) recover() (*state.AppState, error) {
	path := s.StatePath()
	at := s.Now()

	if bak, err := os.ReadFile(path + ".bak"); err == nil && len(bytes.TrimSpace(bak)) > 0 {
		if st := state.Decode(bak); st != nil {
			_, _ = fsutil.Quarantine(path, at)
			_ = s.write(st, SaveContext{Operation: "recover", Summary: "Recover state from backup"})
			return st, fmt.Errorf("%w: recovered %s from %s.bak", ErrCorrupt, StateFile, StateFile)
		}
	}

	moved, _ := fsutil.Quarantine(path, at)
	st := state.Default()
	_ = s.write(st, SaveContext{Operation: "recover", Summary: "Reset corrupt state"})
	return st, fmt.Errorf("%w: reset to defaults; original moved to %s", ErrCorrupt, moved)
}

func filterHistory(h map[string]state.DailySnapshot, from, to string) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(h))
	for date, snap := range h {
		if from != "" && date < from {
			continue
		}
		if to != "" && date > to {
			continue
		}
		out = append(out, HistoryEntry{Date: date, Snapshot: snap})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
