package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ramadan/internal/state"
	"ramadan/internal/storage"
)

// ErrNoData is returned for a day that was never archived and is not the
// day in progress.
var ErrNoData = errors.New("no data recorded for that day")

// HistorySource reads archived days in an inclusive date range.
type HistorySource interface {
	History(ctx context.Context, from, to string) ([]storage.HistoryEntry, error)
}

// Generator creates reports from archived history and the live state.
type Generator struct {
	history HistorySource
	current *state.AppState
	now     func() time.Time
}

// NewGenerator creates a report generator. current may be nil, in which case
// only archived days are reported.
func NewGenerator(history HistorySource, current *state.AppState) *Generator {
	return &Generator{history: history, current: current, now: time.Now}
}

// SetNowFunc overrides the clock used for GeneratedAt.
func (g *Generator) SetNowFunc(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	g.now = now
}

// GenerateDaily reports on date (YYYY-MM-DD).
func (g *Generator) GenerateDaily(ctx context.Context, date string) (*DailyReport, error) {
	day, err := state.ParseDate(date)
	if err != nil || !state.IsValidDate(date) {
		return nil, fmt.Errorf("invalid date %q", date)
	}

	report := &DailyReport{
		Date:        date,
		DayOfWeek:   day.Format("Mon"),
		GeneratedAt: g.now(),
	}
	if cur := g.current; cur != nil {
		report.Streak = cur.Streak
		report.BestStreak = cur.BestStreak
		report.TotalPages = cur.TotalPages
	}

	if g.isLive(date) {
		g.fillLive(report)
		return report, nil
	}

	entries, err := g.history.History(ctx, date, date)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, date)
	}
	report.Snapshot = entries[0].Snapshot
	return report, nil
}

// GenerateWeekly reports on the Sunday-to-Saturday week containing date.
func (g *Generator) GenerateWeekly(ctx context.Context, date string) (*WeeklyReport, error) {
	day, err := state.ParseDate(date)
	if err != nil || !state.IsValidDate(date) {
		return nil, fmt.Errorf("invalid date %q", date)
	}
	start := startOfWeekSunday(day)
	end := start.AddDate(0, 0, 6)

	entries, err := g.history.History(ctx, state.DateString(start), state.DateString(end))
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	byDate := make(map[string]state.DailySnapshot, len(entries))
	for _, e := range entries {
		byDate[e.Date] = e.Snapshot
	}

	report := &WeeklyReport{
		StartDate:   state.DateString(start),
		EndDate:     state.DateString(end),
		Days:        make([]DaySummary, 0, 7),
		GeneratedAt: g.now(),
	}
	if cur := g.current; cur != nil {
		report.Streak = cur.Streak
		report.BestStreak = cur.BestStreak
	}

	pctSum := 0
	for i := 0; i < 7; i++ {
		d := start.AddDate(0, 0, i)
		ds := DaySummary{Date: state.DateString(d), DayOfWeek: d.Format("Mon")}
		if g.isLive(ds.Date) {
			ds.Recorded, ds.Live = true, true
			ds.DailySnapshot = state.BuildSnapshot(g.current)
		} else if snap, ok := byDate[ds.Date]; ok {
			ds.Recorded = true
			ds.DailySnapshot = snap
		}
		report.Days = append(report.Days, ds)

		if !ds.Recorded {
			continue
		}
		report.RecordedDays++
		pctSum += ds.Pct
		report.PagesRead += ds.PagesRead
		if ds.Pct >= 100 {
			report.FullDays++
		}
		report.QuranDays += boolCount(ds.Quran)
		report.AzkarDays += boolCount(ds.Azkar)
		report.SubhaDays += boolCount(ds.Subha)
		report.QiyamDays += boolCount(ds.Qiyam)
	}
	if report.RecordedDays > 0 {
		report.AveragePct = (pctSum + report.RecordedDays/2) / report.RecordedDays
	}
	return report, nil
}

func (g *Generator) isLive(date string) bool {
	return g.current != nil && g.current.LastSeenDate == date
}

func (g *Generator) fillLive(r *DailyReport) {
	s := g.current
	r.Live = true
	r.Snapshot = state.BuildSnapshot(s)
	r.DailyPages = s.DailyPages

	for _, slot := range state.EffectiveSlots(s) {
		r.Slots = append(r.Slots, SlotStatus{Label: slot.Label, Done: slot.Done, Pages: slot.Pages})
	}
	for _, k := range s.EnabledGoals() {
		r.Challenges = append(r.Challenges, ChallengeStatus{Key: k, Label: state.GoalLabels[k], Done: s.GoalDone(k)})
	}
	for _, k := range state.SubhaCatalog {
		if n := s.Subha[k]; n > 0 {
			r.Dhikr = append(r.Dhikr, DhikrCount{Key: k, Label: state.SubhaLabels[k], Count: n})
		}
	}
}

func startOfWeekSunday(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return t.AddDate(0, 0, -int(t.Weekday()))
}

func boolCount(b bool) int {
	if b {
		return 1
	}
	return 0
}
