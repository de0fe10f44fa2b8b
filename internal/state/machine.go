package state

import (
	"sync"

	"go.uber.org/zap"
)

// Change describes why a state was persisted.
type Change struct {
	Kind    string // action kind, "restore" or "reload"
	Summary string // human readable, e.g. "Toggle slot: After Fajr"
}

// Persister stores the full state after every change.
type Persister interface {
	SaveState(s *AppState, change Change) error
}

// Machine owns the current AppState. Dispatch is the only way user actions
// reach it; every change is persisted and then broadcast to subscribers.
type Machine struct {
	mu     sync.Mutex
	state  *AppState
	store  Persister
	clock  Clock
	logger *zap.Logger

	subMu  sync.Mutex
	subs   map[int]func(*AppState)
	nextID int
}

// NewMachine wraps initial (Default when nil). store and logger may be nil.
func NewMachine(initial *AppState, store Persister, clock Clock, logger *zap.Logger) *Machine {
	if initial == nil {
		initial = Default()
	}
	if clock == nil {
		clock = NewSystemClock(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{
		state:  initial,
		store:  store,
		clock:  clock,
		logger: logger,
		subs:   map[int]func(*AppState){},
	}
}

// State returns a copy of the current state.
func (m *Machine) State() *AppState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Clock returns the clock used for rollover checks.
func (m *Machine) Clock() Clock {
	return m.clock
}

// Transition is the outcome of one applied action.
type Transition struct {
	Prev    *AppState
	Next    *AppState
	Summary string
}

// Dispatch reduces a into the current state. It reports whether the state
// changed; a no-op action is neither saved nor broadcast.
func (m *Machine) Dispatch(a Action) bool {
	_, ok := m.Apply(a)
	return ok
}

// Apply is Dispatch that also hands back copies of the states on both sides
// of the change, which the TUI keeps for undo.
func (m *Machine) Apply(a Action) (Transition, bool) {
	if a == nil {
		return Transition{}, false
	}
	m.mu.Lock()
	t, ok := m.applyLocked(a)
	m.mu.Unlock()
	if !ok {
		return Transition{}, false
	}

	m.broadcast(t.Next)
	return t, true
}

// applyLocked reduces, persists and swaps in the result. m.mu must be held.
func (m *Machine) applyLocked(a Action) (Transition, bool) {
	prev := m.state
	next := Reduce(prev, a)
	if next == prev {
		return Transition{}, false
	}
	m.state = next
	summary := Describe(prev, a)
	m.persist(next, Change{Kind: a.Kind(), Summary: summary})
	return Transition{Prev: prev.Clone(), Next: next.Clone(), Summary: summary}, true
}

// CheckDay runs the rollover against the machine's clock. It returns the
// applied action, or nil when the day has not changed. The snapshot is taken
// and archived under one lock, so concurrent calls archive a day once.
func (m *Machine) CheckDay() Action {
	today := m.clock.Today()

	m.mu.Lock()
	a := Rollover(m.state, today)
	if a == nil {
		m.mu.Unlock()
		return nil
	}
	t, ok := m.applyLocked(a)
	m.mu.Unlock()
	if !ok {
		return nil
	}

	if ar, isArchive := a.(ArchiveAndRollover); isArchive {
		m.logger.Info("day rollover",
			zap.String("archived", ar.ArchivedDate),
			zap.String("today", ar.NewDate),
			zap.Int("pct", ar.Snapshot.Pct),
			zap.Int("pages_read", ar.Snapshot.PagesRead),
		)
	}
	m.broadcast(t.Next)
	return a
}

// Restore replaces the state wholesale, for undo and redo.
func (m *Machine) Restore(s *AppState, summary string) {
	if s == nil {
		return
	}
	m.mu.Lock()
	m.state = s.Clone()
	m.persist(m.state, Change{Kind: "restore", Summary: summary})
	snapshot := m.state.Clone()
	m.mu.Unlock()

	m.broadcast(snapshot)
}

// Reload adopts a state that was written by someone else (a sync pull or a
// second instance). It is not saved back.
func (m *Machine) Reload(s *AppState) {
	if s == nil {
		return
	}
	m.mu.Lock()
	m.state = s.Clone()
	snapshot := m.state.Clone()
	m.mu.Unlock()

	m.logger.Info("state reloaded from disk")
	m.broadcast(snapshot)
}

// Subscribe registers fn to receive a copy of every new state. Subscribers
// share that copy and must not modify it. The returned function removes the
// subscription.
func (m *Machine) Subscribe(fn func(*AppState)) func() {
	m.subMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *Machine) persist(s *AppState, change Change) {
	if m.store == nil {
		return
	}
	if err := m.store.SaveState(s, change); err != nil {
		m.logger.Error("save state failed",
			zap.String("change", change.Kind),
			zap.Error(err),
		)
	}
}

func (m *Machine) broadcast(s *AppState) {
	m.subMu.Lock()
	fns := make([]func(*AppState), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
