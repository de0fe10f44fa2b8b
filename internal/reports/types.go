// Package reports summarizes the tracker for one day or one week. Archived
// days come from the storage history; the day in progress is computed from
// the live state so a report run mid-day is never stale.
package reports

import (
	"time"

	"ramadan/internal/state"
)

// DailyReport describes one day.
type DailyReport struct {
	Date       string              `json:"date"`
	DayOfWeek  string              `json:"day_of_week"`
	Live       bool                `json:"live"`
	Snapshot   state.DailySnapshot `json:"snapshot"`
	DailyPages int                 `json:"daily_pages,omitempty"`
	Slots      []SlotStatus        `json:"slots,omitempty"`
	Challenges []ChallengeStatus   `json:"challenges,omitempty"`
	Dhikr      []DhikrCount        `json:"dhikr,omitempty"`
	Streak     int                 `json:"streak"`
	BestStreak int                 `json:"best_streak"`
	TotalPages int                 `json:"total_pages"`

	GeneratedAt time.Time `json:"generated_at"`
}

// SlotStatus is one reading slot of the live day.
type SlotStatus struct {
	Label string `json:"label"`
	Done  bool   `json:"done"`
	Pages int    `json:"pages"`
}

// ChallengeStatus is one enabled challenge of the live day.
type ChallengeStatus struct {
	Key   state.GoalKey `json:"key"`
	Label string        `json:"label"`
	Done  bool          `json:"done"`
}

// DhikrCount is one non-zero counter of the live day.
type DhikrCount struct {
	Key   state.SubhaKey `json:"key"`
	Label string         `json:"label"`
	Count int            `json:"count"`
}

// WeeklyReport covers seven days starting on a Sunday.
type WeeklyReport struct {
	StartDate string       `json:"start_date"`
	EndDate   string       `json:"end_date"`
	Days      []DaySummary `json:"days"`

	RecordedDays int `json:"recorded_days"`
	FullDays     int `json:"full_days"`
	AveragePct   int `json:"average_pct"`
	PagesRead    int `json:"pages_read"`
	QuranDays    int `json:"quran_days"`
	AzkarDays    int `json:"azkar_days"`
	SubhaDays    int `json:"subha_days"`
	QiyamDays    int `json:"qiyam_days"`

	Streak     int `json:"streak"`
	BestStreak int `json:"best_streak"`

	GeneratedAt time.Time `json:"generated_at"`
}

// DaySummary is one day within a week. Recorded is false for days with
// neither a history entry nor live data.
type DaySummary struct {
	Date      string `json:"date"`
	DayOfWeek string `json:"day_of_week"`
	Recorded  bool   `json:"recorded"`
	Live      bool   `json:"live,omitempty"`

	state.DailySnapshot
}
