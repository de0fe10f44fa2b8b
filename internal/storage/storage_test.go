package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramadan/internal/state"
)

// createTestStorage creates a Storage instance with a temporary directory.
func createTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create test storage: %v", err)
	}
	store.SetNowFunc(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) })
	return store
}

func TestLoadState_FirstRunWritesDefaults(t *testing.T) {
	store := createTestStorage(t)

	st, err := store.LoadState()
	require.NoError(t, err)
	assert.Equal(t, state.Default(), st)

	_, statErr := os.Stat(store.StatePath())
	require.NoError(t, statErr, "state file should be created on first run")
	assert.True(t, store.IsOwnWrite())
}

func TestSaveStateRoundTrip(t *testing.T) {
	store := createTestStorage(t)
	st := state.Default()
	st = state.Reduce(st, state.ToggleSlot{Index: 1})
	st = state.Reduce(st, state.SubhaInc{Key: state.SubhaSalawat})

	require.NoError(t, store.SaveState(st, state.Change{Kind: "toggle_slot"}))

	loaded, err := store.LoadState()
	require.NoError(t, err)
	assert.Equal(t, st, loaded)
}

func TestSaveState_CallsContextHook(t *testing.T) {
	store := createTestStorage(t)
	var got []SaveContext
	store.SetOnSaveWithContext(func(ctx SaveContext) { got = append(got, ctx) })

	require.NoError(t, store.SaveState(state.Default(), state.Change{Kind: "toggle_check", Summary: "Check: Qiyam"}))

	require.Len(t, got, 1)
	assert.Equal(t, SaveContext{Filename: StateFile, Operation: "toggle_check", Summary: "Check: Qiyam"}, got[0])
}

func TestSaveState_KeepsBackup(t *testing.T) {
	store := createTestStorage(t)
	first := state.Default()
	second := state.Reduce(first, state.SetDailyPages{Pages: 30})

	require.NoError(t, store.SaveState(first, state.Change{}))
	require.NoError(t, store.SaveState(second, state.Change{}))

	bak, err := os.ReadFile(store.StatePath() + ".bak")
	require.NoError(t, err)
	decoded := state.Decode(bak)
	require.NotNil(t, decoded)
	assert.Equal(t, 20, decoded.DailyPages)
}

func TestLoadState_RecoversFromBackup(t *testing.T) {
	store := createTestStorage(t)
	good := state.Reduce(state.Default(), state.SetDailyPages{Pages: 12})
	require.NoError(t, store.SaveState(good, state.Change{}))
	require.NoError(t, store.SaveState(good, state.Change{})) // .bak now holds good

	require.NoError(t, os.WriteFile(store.StatePath(), []byte("[1,2,3]"), 0600))

	st, err := store.LoadState()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorrupt))
	assert.Contains(t, err.Error(), "recovered")
	assert.Equal(t, 12, st.DailyPages)

	_, statErr := os.Stat(store.StatePath() + ".corrupt.20260301-120000")
	assert.NoError(t, statErr, "broken file should be quarantined")
}

func TestLoadState_ResetsWithoutBackup(t *testing.T) {
	store := createTestStorage(t)
	require.NoError(t, os.WriteFile(store.StatePath(), []byte("null"), 0600))

	st, err := store.LoadState()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorrupt))
	assert.Contains(t, err.Error(), "reset to defaults")
	assert.Equal(t, state.Default(), st)

	again, err := store.LoadState()
	require.NoError(t, err)
	assert.Equal(t, state.Default(), again)
}

func TestLoadState_PartiallyBrokenFieldsDoNotTriggerRecovery(t *testing.T) {
	store := createTestStorage(t)
	require.NoError(t, os.WriteFile(store.StatePath(), []byte(`{"dailyPages":"bad","streak":4}`), 0600))

	st, err := store.LoadState()
	require.NoError(t, err)
	assert.Equal(t, 20, st.DailyPages)
	assert.Equal(t, 4, st.Streak)
}

func TestReadState(t *testing.T) {
	store := createTestStorage(t)

	_, err := store.ReadState()
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, os.WriteFile(store.StatePath(), []byte("garbage"), 0600))
	_, err = store.ReadState()
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestIsOwnWrite_DetectsExternalEdit(t *testing.T) {
	store := createTestStorage(t)
	require.NoError(t, store.SaveState(state.Default(), state.Change{}))
	assert.True(t, store.IsOwnWrite())

	external := state.Reduce(state.Default(), state.SetDailyPages{Pages: 3})
	other, err := New(store.DataDir())
	require.NoError(t, err)
	require.NoError(t, other.SaveState(external, state.Change{}))

	assert.False(t, store.IsOwnWrite())
}

func TestHistory_FiltersAndSorts(t *testing.T) {
	store := createTestStorage(t)
	st := state.Default()
	st.DailyHistory = map[string]state.DailySnapshot{
		"2026-03-03": {Pct: 30},
		"2026-03-01": {Pct: 10},
		"2026-03-02": {Pct: 20},
	}
	require.NoError(t, store.SaveState(st, state.Change{}))

	all, err := store.History(context.Background(), "", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2026-03-01", all[0].Date)

	some, err := store.History(context.Background(), "2026-03-02", "2026-03-02")
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, 20, some[0].Snapshot.Pct)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	b, err := Open(dir, "")
	require.NoError(t, err)
	assert.IsType(t, &Storage{}, b)

	_, err = Open(dir, "postgres")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unknown storage backend"))
}

func TestStorage_PermissionsArePrivate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	dir := filepath.Join(t.TempDir(), "data")
	store, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, store.SaveState(state.Default(), state.Change{}))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())

	info, err = os.Stat(store.StatePath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
