package reports

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramadan/internal/state"
	"ramadan/internal/storage"
)

type fakeHistory struct {
	days map[string]state.DailySnapshot
	err  error
}

func (f fakeHistory) History(_ context.Context, from, to string) ([]storage.HistoryEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []storage.HistoryEntry
	for d, s := range f.days {
		if d >= from && d <= to {
			out = append(out, storage.HistoryEntry{Date: d, Snapshot: s})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

var fixedNow = time.Date(2026, 3, 4, 21, 0, 0, 0, time.UTC)

// liveState is Wednesday 2026-03-04 with the first slot read and one
// challenge done.
func liveState() *state.AppState {
	s := state.Default()
	s.LastSeenDate = "2026-03-04"
	s.Streak, s.BestStreak, s.TotalPages = 2, 4, 60
	s = state.Reduce(s, state.ToggleSlot{Index: 0})
	s = state.Reduce(s, state.ToggleCheck{Key: state.GoalQiyam})
	s = state.Reduce(s, state.SubhaInc{Key: state.SubhaSubhanallah})
	return s
}

func newTestGenerator(days map[string]state.DailySnapshot, live *state.AppState) *Generator {
	g := NewGenerator(fakeHistory{days: days}, live)
	g.SetNowFunc(func() time.Time { return fixedNow })
	return g
}

func TestGenerateDaily_Archived(t *testing.T) {
	g := newTestGenerator(map[string]state.DailySnapshot{
		"2026-03-02": {Pct: 100, Quran: true, Azkar: true, PagesRead: 20},
	}, liveState())

	r, err := g.GenerateDaily(context.Background(), "2026-03-02")
	require.NoError(t, err)
	assert.False(t, r.Live)
	assert.Equal(t, "Mon", r.DayOfWeek)
	assert.Equal(t, 100, r.Snapshot.Pct)
	assert.Empty(t, r.Slots)
	assert.Equal(t, 4, r.BestStreak)
	assert.Equal(t, fixedNow, r.GeneratedAt)
}

func TestGenerateDaily_Live(t *testing.T) {
	live := liveState()
	g := newTestGenerator(nil, live)

	r, err := g.GenerateDaily(context.Background(), "2026-03-04")
	require.NoError(t, err)
	assert.True(t, r.Live)
	assert.Equal(t, state.BuildSnapshot(live), r.Snapshot)
	assert.Equal(t, 20, r.DailyPages)
	require.Len(t, r.Slots, len(live.ReadingTimes))
	assert.True(t, r.Slots[0].Done)
	assert.Equal(t, 5, r.Slots[0].Pages)
	assert.Len(t, r.Challenges, len(live.EnabledGoals()))
	require.Len(t, r.Dhikr, 1)
	assert.Equal(t, 1, r.Dhikr[0].Count)
}

func TestGenerateDaily_Errors(t *testing.T) {
	g := newTestGenerator(nil, nil)

	_, err := g.GenerateDaily(context.Background(), "2026-03-09")
	assert.ErrorIs(t, err, ErrNoData)

	_, err = g.GenerateDaily(context.Background(), "2026-3-9")
	assert.Error(t, err)

	broken := NewGenerator(fakeHistory{err: errors.New("disk gone")}, nil)
	_, err = broken.GenerateDaily(context.Background(), "2026-03-09")
	assert.ErrorContains(t, err, "disk gone")
}

func TestGenerateWeekly(t *testing.T) {
	g := newTestGenerator(map[string]state.DailySnapshot{
		"2026-02-28": {Pct: 100}, // previous week
		"2026-03-01": {Pct: 100, Quran: true, Azkar: true, Subha: true, Qiyam: true, PagesRead: 20},
		"2026-03-02": {Pct: 50, Quran: true, PagesRead: 20},
		"2026-03-03": {Pct: 0},
	}, liveState())

	// any day of the week selects the same Sunday-based window
	r, err := g.GenerateWeekly(context.Background(), "2026-03-06")
	require.NoError(t, err)

	assert.Equal(t, "2026-03-01", r.StartDate)
	assert.Equal(t, "2026-03-07", r.EndDate)
	require.Len(t, r.Days, 7)
	assert.Equal(t, "Sun", r.Days[0].DayOfWeek)
	assert.True(t, r.Days[3].Live)
	assert.False(t, r.Days[5].Recorded)

	live := state.BuildSnapshot(liveState())
	assert.Equal(t, 4, r.RecordedDays)
	assert.Equal(t, 1, r.FullDays)
	assert.Equal(t, 40+live.PagesRead, r.PagesRead)
	assert.Equal(t, (150+live.Pct+2)/4, r.AveragePct)
	assert.Equal(t, 1+boolCount(live.Qiyam), r.QiyamDays)
	assert.Equal(t, 2+boolCount(live.Quran), r.QuranDays)
}

func TestGenerateWeekly_Empty(t *testing.T) {
	g := newTestGenerator(nil, nil)
	r, err := g.GenerateWeekly(context.Background(), "2026-03-01")
	require.NoError(t, err)
	assert.Zero(t, r.RecordedDays)
	assert.Zero(t, r.AveragePct)
	assert.Contains(t, FormatWeeklyMarkdown(r), "Nothing recorded")
}

func TestGenerateWeekly_FromStorage(t *testing.T) {
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s := state.Default()
	s.DailyHistory["2026-03-02"] = state.DailySnapshot{Pct: 80, PagesRead: 12}
	require.NoError(t, store.SaveState(s, state.Change{Kind: "test"}))

	r, err := NewGenerator(store, nil).GenerateWeekly(context.Background(), "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, 1, r.RecordedDays)
	assert.Equal(t, 80, r.AveragePct)
}

func TestFormatDailyMarkdown(t *testing.T) {
	g := newTestGenerator(nil, liveState())
	r, err := g.GenerateDaily(context.Background(), "2026-03-04")
	require.NoError(t, err)

	md := FormatDailyMarkdown(r)
	assert.True(t, strings.HasPrefix(md, "# Daily report: 2026-03-04 (Wed)"))
	assert.Contains(t, md, "Day in progress")
	assert.Contains(t, md, "- [x] After Fajr (5 pages)")
	assert.Contains(t, md, "- [x] Qiyam")
	assert.Contains(t, md, "Current: 2 days, best: 4 days")
}

func TestFormatWeeklyMarkdown(t *testing.T) {
	g := newTestGenerator(map[string]state.DailySnapshot{
		"2026-03-01": {Pct: 100, Quran: true, PagesRead: 20},
	}, nil)
	r, err := g.GenerateWeekly(context.Background(), "2026-03-01")
	require.NoError(t, err)

	md := FormatWeeklyMarkdown(r)
	assert.Contains(t, md, "# Weekly report: 2026-03-01 to 2026-03-07")
	assert.Contains(t, md, "| Sun | 2026-03-01 | 100% | 20 | ✓ | · | · | · |")
	assert.Contains(t, md, "| Mon | 2026-03-02 | - |")
}

func TestFormatJSON(t *testing.T) {
	g := newTestGenerator(map[string]state.DailySnapshot{"2026-03-01": {Pct: 70}}, nil)
	weekly, err := g.GenerateWeekly(context.Background(), "2026-03-01")
	require.NoError(t, err)

	data, err := FormatWeeklyJSON(weekly)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	days := decoded["days"].([]any)
	assert.Equal(t, float64(70), days[0].(map[string]any)["pct"])

	daily, err := g.GenerateDaily(context.Background(), "2026-03-01")
	require.NoError(t, err)
	data, err = FormatDailyJSON(daily)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"date": "2026-03-01"`)
}

func TestBar(t *testing.T) {
	assert.Equal(t, "`"+strings.Repeat("░", barWidth)+"`", bar(-5))
	assert.Equal(t, "`"+strings.Repeat("█", barWidth)+"`", bar(150))
	assert.Equal(t, "`"+strings.Repeat("█", 10)+strings.Repeat("░", 10)+"`", bar(50))
}
