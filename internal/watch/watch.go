// Package watch reloads the tracker state when the state file is changed by
// someone other than this process, for example a git pull or a second
// instance running in another terminal.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	gosync "sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"ramadan/internal/state"
)

const (
	defaultDebounce = 300 * time.Millisecond
	pollInterval    = 100 * time.Millisecond
)

// Source is the storage the watcher reads from.
type Source interface {
	StatePath() string
	ReadState() (*state.AppState, error)
	IsOwnWrite() bool
}

// Target receives reloaded state.
type Target interface {
	Reload(s *state.AppState)
}

// Stats counts watcher activity.
type Stats struct {
	Events    int
	Reloads   int
	OwnWrites int
	Failures  int
}

// Watcher observes the directory holding the state file. The directory is
// watched rather than the file because saves replace the file by rename.
type Watcher struct {
	src    Source
	target Target
	logger *zap.Logger

	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu      gosync.Mutex
	running bool
	dirty   time.Time // time of the last unprocessed event
	stats   Stats
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a Watcher. It does not watch anything until Start.
func New(src Source, target Target, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		src:      src,
		target:   target,
		logger:   logger,
		watcher:  fw,
		debounce: defaultDebounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// SetDebounce sets how long the file must be quiet before it is read.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if d > 0 {
		w.debounce = d
	}
}

// Start begins watching. It returns immediately; events are handled on a
// background goroutine until Stop or ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	dir := filepath.Dir(w.src.StatePath())
	if err := w.watcher.Add(dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.Debug("watching state file", zap.String("path", w.src.StatePath()))

	go w.run(ctx)
	return nil
}

// Stop ends the watch loop and releases the OS watch. It is safe to call
// more than once and without Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()

	if wasRunning {
		select {
		case <-w.stopCh:
		default:
			close(w.stopCh)
		}
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("closing file watcher", zap.Error(err))
	}
}

// Stats returns a copy of the activity counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	name := filepath.Base(w.src.StatePath())
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			w.mu.Lock()
			w.stats.Events++
			w.dirty = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", zap.Error(err))

		case now := <-ticker.C:
			w.mu.Lock()
			ready := !w.dirty.IsZero() && now.Sub(w.dirty) >= w.debounce
			if ready {
				w.dirty = time.Time{}
			}
			w.mu.Unlock()
			if ready {
				w.reload()
			}
		}
	}
}

func (w *Watcher) reload() {
	if w.src.IsOwnWrite() {
		w.mu.Lock()
		w.stats.OwnWrites++
		w.mu.Unlock()
		return
	}

	s, err := w.src.ReadState()
	if err != nil {
		// A half-synced or hand-edited file is left alone; the next
		// complete write triggers another attempt.
		w.mu.Lock()
		w.stats.Failures++
		w.mu.Unlock()
		w.logger.Warn("external state change not loaded", zap.Error(err))
		return
	}

	w.target.Reload(s)
	w.mu.Lock()
	w.stats.Reloads++
	w.mu.Unlock()
	w.logger.Info("external state change loaded", zap.String("last_seen", s.LastSeenDate))
}
