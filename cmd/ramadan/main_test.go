package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramadan/internal/config"
	"ramadan/internal/reports"
	"ramadan/internal/state"
	"ramadan/internal/storage"
)

// setupEnv points config and data at a temp dir and returns the data dir.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv(config.EnvDataDir, filepath.Join(dir, "data"))
	t.Setenv(config.EnvLogLevel, "off")
	return filepath.Join(dir, "data")
}

// seed writes s as the stored state.
func seed(t *testing.T, dataDir string, s *state.AppState) {
	t.Helper()
	store, err := storage.New(dataDir)
	require.NoError(t, err)
	require.NoError(t, store.SaveState(s, state.Change{Kind: "test"}))
}

func readState(t *testing.T, dataDir string) *state.AppState {
	t.Helper()
	store, err := storage.New(dataDir)
	require.NoError(t, err)
	s, err := store.ReadState()
	require.NoError(t, err)
	return s
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func today() string {
	return state.DateString(time.Now())
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "ramadan version dev")
}

func TestRootRejectsUnknownArgs(t *testing.T) {
	setupEnv(t)
	_, err := execute(t, "", "bogus")
	assert.Error(t, err)
}

func TestStatusJSON(t *testing.T) {
	dataDir := setupEnv(t)
	s := state.Default()
	s.SetupDone = true
	s.LastSeenDate = today()
	s.TodaySlots = state.EffectiveSlots(s)
	s.TodaySlots[0].Done = true
	s.Streak = 3
	seed(t, dataDir, s)

	out, err := execute(t, "", "status", "--json")
	require.NoError(t, err)

	var report reports.DailyReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Live)
	assert.Equal(t, today(), report.Date)
	assert.Equal(t, 3, report.Streak)
	assert.Equal(t, s.TodaySlots[0].Pages, report.Snapshot.PagesRead)
	require.NotEmpty(t, report.Slots)
	assert.True(t, report.Slots[0].Done)
}

func TestStatusFirstRun(t *testing.T) {
	dataDir := setupEnv(t)

	out, err := execute(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Quran       0/20 pages (0%)")
	assert.Contains(t, out, "Streak      0 (best 0)")

	// The first run writes the state and stamps today.
	assert.Equal(t, today(), readState(t, dataDir).LastSeenDate)
}

func TestStatusArchivesPreviousDay(t *testing.T) {
	dataDir := setupEnv(t)
	yesterday := state.DateString(time.Now().AddDate(0, 0, -1))

	s := state.Default()
	s.SetupDone = true
	s.LastSeenDate = yesterday
	s.TodaySlots = state.EffectiveSlots(s)
	for i := range s.TodaySlots {
		s.TodaySlots[i].Done = true
	}
	seed(t, dataDir, s)

	_, err := execute(t, "", "status")
	require.NoError(t, err)

	got := readState(t, dataDir)
	assert.Equal(t, today(), got.LastSeenDate)
	require.Contains(t, got.DailyHistory, yesterday)
	assert.True(t, got.DailyHistory[yesterday].Quran)
}

func TestHistoryLast(t *testing.T) {
	dataDir := setupEnv(t)
	now := time.Now()
	recent := state.DateString(now.AddDate(0, 0, -1))
	old := state.DateString(now.AddDate(0, 0, -10))

	s := state.Default()
	s.SetupDone = true
	s.LastSeenDate = today()
	s.DailyHistory = map[string]state.DailySnapshot{
		recent: {Pct: 75, Quran: true, PagesRead: 20},
		old:    {Pct: 10},
	}
	seed(t, dataDir, s)

	out, err := execute(t, "", "history", "--last", "3")
	require.NoError(t, err)
	assert.Contains(t, out, recent)
	assert.Contains(t, out, " 75%")
	assert.NotContains(t, out, old)

	out, err = execute(t, "", "history", "--last", "30", "--json")
	require.NoError(t, err)
	var entries []storage.HistoryEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, old, entries[0].Date)
	assert.Equal(t, recent, entries[1].Date)
}

func TestHistoryEmpty(t *testing.T) {
	setupEnv(t)
	out, err := execute(t, "", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No archived days")
}

func TestHistoryRejectsZero(t *testing.T) {
	setupEnv(t)
	_, err := execute(t, "", "history", "--last", "0")
	assert.Error(t, err)
}

func TestExportToFile(t *testing.T) {
	setupEnv(t)
	path := filepath.Join(t.TempDir(), "reports", "today.json")

	out, err := execute(t, "", "export", "--format", "json", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Report written to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var report reports.DailyReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, today(), report.Date)
}

func TestExportWeeklyMarkdown(t *testing.T) {
	setupEnv(t)
	out, err := execute(t, "", "export", "--weekly")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestExportRejectsBadInput(t *testing.T) {
	setupEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"bad format", []string{"export", "--format", "pdf"}},
		{"bad date", []string{"export", "2026-13-01"}},
		{"both kinds", []string{"export", "--daily", "--weekly"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestResetAction(t *testing.T) {
	tests := []struct {
		name    string
		opts    resetOptions
		want    state.Action
		wantErr bool
	}{
		{"today", resetOptions{today: true}, state.ResetTodayReading{}, false},
		{"quran", resetOptions{quran: true}, state.ResetQuranProgress{}, false},
		{"history", resetOptions{history: true}, state.ClearHistory{}, false},
		{"all", resetOptions{all: true, yes: true}, state.ResetAll{}, false},
		{"none", resetOptions{}, nil, true},
		{"two", resetOptions{today: true, all: true}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, desc, err := resetAction(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, desc)
		})
	}
}

func TestResetConfirmation(t *testing.T) {
	dataDir := setupEnv(t)
	s := state.Default()
	s.SetupDone = true
	s.LastSeenDate = today()
	s.TotalPages = 42
	seed(t, dataDir, s)

	out, err := execute(t, "n\n", "reset", "--quran")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset canceled.")
	assert.Equal(t, 42, readState(t, dataDir).TotalPages)

	// End of input is a no.
	_, err = execute(t, "", "reset", "--quran")
	require.NoError(t, err)
	assert.Equal(t, 42, readState(t, dataDir).TotalPages)

	out, err = execute(t, "y\n", "reset", "--quran")
	require.NoError(t, err)
	assert.Contains(t, out, "✓")
	assert.Equal(t, 0, readState(t, dataDir).TotalPages)
}

func TestResetAllWithYes(t *testing.T) {
	dataDir := setupEnv(t)
	s := state.Default()
	s.SetupDone = true
	s.LastSeenDate = today()
	s.Streak = 5
	s.DailyHistory = map[string]state.DailySnapshot{"2026-01-01": {Pct: 50}}
	seed(t, dataDir, s)

	_, err := execute(t, "", "reset", "--all", "--yes")
	require.NoError(t, err)

	got := readState(t, dataDir)
	assert.False(t, got.SetupDone)
	assert.Zero(t, got.Streak)
	assert.Empty(t, got.DailyHistory)
}

func TestBackupListAndRestore(t *testing.T) {
	dataDir := setupEnv(t)

	out, err := execute(t, "", "backup", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "No backups available.")

	s := state.Default()
	s.SetupDone = true
	s.LastSeenDate = today()
	s.TotalPages = 100
	seed(t, dataDir, s)

	out, err = execute(t, "", "backup")
	require.NoError(t, err)
	assert.Contains(t, out, "Backup created")
	assert.Contains(t, out, "Pages: 100")

	s.TotalPages = 7
	seed(t, dataDir, s)

	out, err = execute(t, "", "backup", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "Available backups:")

	out, err = execute(t, "", "restore", "--latest", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Restore complete.")
	assert.Equal(t, 100, readState(t, dataDir).TotalPages)
}

func TestRestoreRequiresTarget(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "", "restore")
	assert.Error(t, err)

	_, err = execute(t, "", "restore", "--latest", "some-name")
	assert.Error(t, err)

	_, err = execute(t, "", "restore", "--latest")
	assert.Error(t, err)
}

func TestImportCSV(t *testing.T) {
	dataDir := setupEnv(t)
	s := state.Default()
	s.SetupDone = true
	s.LastSeenDate = today()
	s.DailyHistory = map[string]state.DailySnapshot{"2026-01-02": {Pct: 90}}
	seed(t, dataDir, s)

	csvPath := filepath.Join(t.TempDir(), "days.csv")
	csv := "DATE,PCT,QURAN,PAGES\n2026-01-01,80,yes,20\n2026-01-02,10,no,0\nnope,1,,\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(csv), 0600))

	out, err := execute(t, "", "import", "--dry-run", "csv", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run")
	assert.Contains(t, out, "Days added:      1")
	assert.NotContains(t, readState(t, dataDir).DailyHistory, "2026-01-01")

	out, err = execute(t, "", "import", "csv", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Days added:      1")
	assert.Contains(t, out, "Skipped:         1")
	assert.Contains(t, out, "Unreadable rows: 1")

	got := readState(t, dataDir)
	assert.Equal(t, 80, got.DailyHistory["2026-01-01"].Pct)
	assert.Equal(t, 90, got.DailyHistory["2026-01-02"].Pct)
}

func TestImportJSONFromStdin(t *testing.T) {
	dataDir := setupEnv(t)
	input := `[{"date": "2026-01-05", "snapshot": {"pct": 64, "qiyam": true}}]`

	_, err := execute(t, input, "import", "json", "-")
	require.NoError(t, err)
	got := readState(t, dataDir).DailyHistory["2026-01-05"]
	assert.Equal(t, 64, got.Pct)
	assert.True(t, got.Qiyam)
}

func TestImportRejectsUnknownFormat(t *testing.T) {
	setupEnv(t)
	_, err := execute(t, "", "import", "todoist", "x.csv")
	assert.Error(t, err)
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{time.Hour, "1 hour ago"},
		{3 * time.Hour, "3 hours ago"},
		{24 * time.Hour, "1 day ago"},
		{6 * 24 * time.Hour, "6 days ago"},
		{7 * 24 * time.Hour, "1 week ago"},
		{21 * 24 * time.Hour, "3 weeks ago"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatAge(now.Add(-tt.ago), now))
		})
	}
}

func TestMeter(t *testing.T) {
	assert.Equal(t, "█████░░░░░", meter(50, 10))
	assert.Equal(t, "░░░░░░░░░░", meter(-5, 10))
	assert.Equal(t, "██████████", meter(150, 10))
}
