// Package backup snapshots the data directory into timestamped folders
// under <data_dir>/backups and restores them. Each snapshot carries a
// manifest with a few figures read from the state so backups can be told
// apart in a listing.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"ramadan/internal/fsutil"
	"ramadan/internal/state"
)

// Version constants for the backup format.
const (
	ManifestVersion = "2"
	ManifestFile    = "manifest.json"
	BackupsDir      = "backups"

	nameLayout = "2006-01-02_150405"
)

var (
	// ErrNoBackups is returned by RestoreLatest when nothing was backed up yet.
	ErrNoBackups = errors.New("no backups available")
	// ErrNotFound is returned for a well-formed name with no backup behind it.
	ErrNotFound = errors.New("backup not found")
)

// DataFiles are the files a backup copies when present. The JSON document
// and the SQLite database are both included so either backend is covered.
var DataFiles = []string{"state.json", "ramadan.db"}

// Manager handles backup and restore operations.
type Manager struct {
	dataDir    string
	backupDir  string
	appVersion string
	now        func() time.Time
}

// Manifest contains metadata about a backup.
type Manifest struct {
	Version    string         `json:"version"`
	CreatedAt  time.Time      `json:"created_at"`
	AppVersion string         `json:"app_version"`
	Files      []string       `json:"files"`
	Stats      map[string]int `json:"stats"`
}

// Info summarizes one backup.
type Info struct {
	Name      string
	Path      string
	CreatedAt time.Time
	Stats     map[string]int
}

// NewManager creates a backup manager for dataDir.
func NewManager(dataDir, appVersion string) *Manager {
	return &Manager{
		dataDir:    dataDir,
		backupDir:  filepath.Join(dataDir, BackupsDir),
		appVersion: appVersion,
		now:        time.Now,
	}
}

// SetNowFunc overrides the clock used to name backups.
func (m *Manager) SetNowFunc(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	m.now = now
}

// Dir returns the directory holding all backups.
func (m *Manager) Dir() string { return m.backupDir }

// Create copies the data files into a new backup and returns its name.
func (m *Manager) Create() (string, error) {
	now := m.now()
	name := fmt.Sprintf("%s_%03d", now.Format(nameLayout), now.Nanosecond()/int(time.Millisecond))
	dst := filepath.Join(m.backupDir, name)
	if err := os.MkdirAll(dst, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	manifest := Manifest{
		Version:    ManifestVersion,
		CreatedAt:  now,
		AppVersion: m.appVersion,
		Files:      []string{},
		Stats:      map[string]int{},
	}
	for _, file := range DataFiles {
		src := filepath.Join(m.dataDir, file)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := fsutil.CopyFile(src, filepath.Join(dst, file), 0600); err != nil {
			_ = os.RemoveAll(dst)
			return "", fmt.Errorf("failed to copy %s: %w", file, err)
		}
		manifest.Files = append(manifest.Files, file)
	}
	if st := m.readState(filepath.Join(dst, "state.json")); st != nil {
		manifest.Stats = stateStats(st)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err == nil {
		err = fsutil.WriteFileAtomic(filepath.Join(dst, ManifestFile), data, 0600)
	}
	if err != nil {
		_ = os.RemoveAll(dst)
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return name, nil
}

// List returns all backups, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	out := []Info{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := m.info(e.Name())
		if err != nil {
			continue
		}
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Get returns information about one backup.
func (m *Manager) Get(name string) (*Info, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(m.backupDir, name)); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return m.info(name)
}

// Restore copies a backup back into the data directory. A safety backup of
// the current data is taken first and named in any error.
func (m *Manager) Restore(name string) error {
	info, err := m.Get(name)
	if err != nil {
		return err
	}

	files := DataFiles
	var manifest Manifest
	if readJSON(filepath.Join(info.Path, ManifestFile), &manifest) == nil && len(manifest.Files) > 0 {
		files = manifest.Files
	}

	// Refuse to restore a state document that would decode to nothing.
	statePath := filepath.Join(info.Path, "state.json")
	if _, err := os.Stat(statePath); err == nil && m.readState(statePath) == nil {
		return fmt.Errorf("backup %s holds an unreadable state.json", name)
	}

	safety, err := m.Create()
	if err != nil {
		return fmt.Errorf("failed to create safety backup: %w", err)
	}

	for _, file := range files {
		src := filepath.Join(info.Path, file)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := fsutil.CopyFile(src, filepath.Join(m.dataDir, file), 0600); err != nil {
			return fmt.Errorf("failed to restore %s (safety backup: %s): %w", file, safety, err)
		}
	}
	return nil
}

// RestoreLatest restores the most recent backup and returns its name.
func (m *Manager) RestoreLatest() (string, error) {
	backups, err := m.List()
	if err != nil {
		return "", err
	}
	if len(backups) == 0 {
		return "", ErrNoBackups
	}
	return backups[0].Name, m.Restore(backups[0].Name)
}

// Delete removes one backup.
func (m *Manager) Delete(name string) error {
	if _, err := m.Get(name); err != nil {
		return err
	}
	return os.RemoveAll(filepath.Join(m.backupDir, name))
}

// Prune keeps the newest keep backups and deletes the rest.
func (m *Manager) Prune(keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("keep must be non-negative")
	}
	backups, err := m.List()
	if err != nil {
		return 0, err
	}
	deleted := 0
	for i := keep; i < len(backups); i++ {
		if err := m.Delete(backups[i].Name); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (m *Manager) info(name string) (*Info, error) {
	path := filepath.Join(m.backupDir, name)
	var manifest Manifest
	if err := readJSON(filepath.Join(path, ManifestFile), &manifest); err != nil {
		created, perr := parseName(name)
		if perr != nil {
			return nil, fmt.Errorf("invalid backup: %s", name)
		}
		manifest.CreatedAt = created
	}
	if manifest.Stats == nil {
		manifest.Stats = map[string]int{}
	}
	return &Info{Name: name, Path: path, CreatedAt: manifest.CreatedAt, Stats: manifest.Stats}, nil
}

func (m *Manager) readState(path string) *state.AppState {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return state.Decode(data)
}

// stateStats are the figures shown next to a backup in listings.
func stateStats(s *state.AppState) map[string]int {
	return map[string]int{
		"history_days": len(s.DailyHistory),
		"total_pages":  s.TotalPages,
		"streak":       s.Streak,
		"best_streak":  s.BestStreak,
		"duas":         len(s.Duas),
	}
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("backup name is required")
	}
	if name != filepath.Base(name) {
		return fmt.Errorf("invalid backup name: %q", name)
	}
	if _, err := parseName(name); err != nil {
		return fmt.Errorf("invalid backup name: %q", name)
	}
	return nil
}

// parseName reads the timestamp out of a backup name. Both the
// millisecond form (2006-01-02_150405_123) and the plain form are accepted.
func parseName(name string) (time.Time, error) {
	if len(name) == len(nameLayout)+4 && name[len(nameLayout)] == '_' {
		base, err := time.ParseInLocation(nameLayout, name[:len(nameLayout)], time.Local)
		if err != nil {
			return time.Time{}, err
		}
		ms, err := strconv.Atoi(name[len(nameLayout)+1:])
		if err != nil || ms < 0 || ms > 999 {
			return time.Time{}, fmt.Errorf("invalid milliseconds in %q", name)
		}
		return base.Add(time.Duration(ms) * time.Millisecond), nil
	}
	return time.ParseInLocation(nameLayout, name, time.Local)
}
