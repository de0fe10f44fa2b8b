package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ramadan/internal/state"

	_ "modernc.org/sqlite" // SQLite driver.
)

// SQLiteStore keeps the state blob in SQLite and mirrors dailyHistory into
// its own table for range queries.
type SQLiteStore struct {
	db                *sql.DB
	path              string
	onSaveWithContext func(ctx SaveContext)
	now               func() time.Time
}

// OpenSQLite opens or creates the database at path and applies migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), dataDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// A single connection serializes writers.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, path: path, now: time.Now}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DataDir returns the directory holding the database file.
func (s *SQLiteStore) DataDir() string {
	return filepath.Dir(s.path)
}

// SetNowFunc overrides the clock used for updated_at stamps.
func (s *SQLiteStore) SetNowFunc(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
}

// SetOnSaveWithContext registers a callback fired after every commit.
func (s *SQLiteStore) SetOnSaveWithContext(fn func(ctx SaveContext)) {
	s.onSaveWithContext = fn
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS app_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			blob TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS daily_history (
			date TEXT PRIMARY KEY,
			pct INTEGER NOT NULL,
			quran INTEGER NOT NULL,
			azkar INTEGER NOT NULL,
			subha INTEGER NOT NULL,
			qiyam INTEGER NOT NULL,
			pages_read INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS changes (
			id INTEGER PRIMARY KEY,
			at TEXT NOT NULL,
			kind TEXT NOT NULL,
			summary TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_changes_at ON changes(at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// LoadState reads the stored blob. An empty database yields the first-run
// state, which is written immediately. An undecodable blob is replaced by
// defaults and reported with an error wrapping ErrCorrupt.
func (s *SQLiteStore) LoadState() (*state.AppState, error) {
	blob, err := s.readBlob(context.Background())
	if errors.Is(err, ErrNotFound) {
		st := state.Default()
		return st, s.save(context.Background(), st, SaveContext{Operation: "init", Summary: "Initialize state"})
	}
	if err != nil {
		return state.Default(), err
	}
	if st := state.Decode(blob); st != nil {
		return st, nil
	}

	st := state.Default()
	if err := s.save(context.Background(), st, SaveContext{Operation: "recover", Summary: "Reset corrupt state"}); err != nil {
		return st, err
	}
	return st, fmt.Errorf("%w: stored blob reset to defaults", ErrCorrupt)
}

// ReadState decodes the stored blob without recovery.
func (s *SQLiteStore) ReadState() (*state.AppState, error) {
	blob, err := s.readBlob(context.Background())
	if err != nil {
		return nil, err
	}
	st := state.Decode(blob)
	if st == nil {
		return nil, fmt.Errorf("%w: app_state blob", ErrCorrupt)
	}
	return st, nil
}

// SaveState implements state.Persister.
func (s *SQLiteStore) SaveState(st *state.AppState, change state.Change) error {
	return s.save(context.Background(), st, SaveContext{Operation: change.Kind, Summary: change.Summary})
}

// History returns archived days between from and to inclusive, oldest first.
func (s *SQLiteStore) History(ctx context.Context, from, to string) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, pct, quran, azkar, subha, qiyam, pages_read
		 FROM daily_history
		 WHERE (? = '' OR date >= ?) AND (? = '' OR date <= ?)
		 ORDER BY date`,
		from, from, to, to)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var quran, azkar, subha, qiyam int
		if err := rows.Scan(&e.Date, &e.Snapshot.Pct, &quran, &azkar, &subha, &qiyam, &e.Snapshot.PagesRead); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Snapshot.Quran = quran != 0
		e.Snapshot.Azkar = azkar != 0
		e.Snapshot.Subha = subha != 0
		e.Snapshot.Qiyam = qiyam != 0
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// ChangeRecord is one row of the change log.
type ChangeRecord struct {
	At      time.Time
	Kind    string
	Summary string
}

// RecentChanges returns the newest limit change log entries, newest first.
func (s *SQLiteStore) RecentChanges(ctx context.Context, limit int) ([]ChangeRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, kind, summary FROM changes ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query changes: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []ChangeRecord
	for rows.Next() {
		var rec ChangeRecord
		var at string
		if err := rows.Scan(&at, &rec.Kind, &rec.Summary); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		rec.At, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) readBlob(ctx context.Context) ([]byte, error) {
	var blob string
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM app_state WHERE id = 1`).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	return []byte(blob), nil
}

func (s *SQLiteStore) save(ctx context.Context, st *state.AppState, sc SaveContext) (err error) {
	blob, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("serialize state: %w", err)
	}
	now := s.now().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO app_state (id, blob, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`,
		string(blob), now); err != nil {
		return fmt.Errorf("write state: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM daily_history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	if len(st.DailyHistory) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO daily_history (date, pct, quran, azkar, subha, qiyam, pages_read)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return fmt.Errorf("prepare history: %w", err)
		}
		defer func() {
			_ = stmt.Close()
		}()
		for date, snap := range st.DailyHistory {
			if _, err = stmt.ExecContext(ctx, date, snap.Pct,
				boolInt(snap.Quran), boolInt(snap.Azkar), boolInt(snap.Subha), boolInt(snap.Qiyam),
				snap.PagesRead); err != nil {
				return fmt.Errorf("write history %s: %w", date, err)
			}
		}
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO changes (at, kind, summary) VALUES (?, ?, ?)`,
		now, sc.Operation, sc.Summary); err != nil {
		return fmt.Errorf("write change log: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	sc.Filename = filepath.Base(s.path)
	if s.onSaveWithContext != nil {
		s.onSaveWithContext(sc)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
