package state

import "math"

// Progress is the live view of today that BuildSnapshot condenses into a
// DailySnapshot. The TUI and the status command render it directly.
type Progress struct {
	PagesRead      int
	QuranPct       int
	ChallengesOn   int
	ChallengesDone int
	ChallengesPct  int
	Pct            int
}

// TodayProgress computes today's completion figures from s.
func TodayProgress(s *AppState) Progress {
	var p Progress
	for _, slot := range EffectiveSlots(s) {
		if slot.Done {
			p.PagesRead += slot.Pages
		}
	}
	daily := max(1, s.DailyPages)
	p.QuranPct = min(100, roundHalfUp(float64(p.PagesRead)/float64(daily)*100))

	for _, k := range s.EnabledGoals() {
		p.ChallengesOn++
		if s.GoalDone(k) {
			p.ChallengesDone++
		}
	}
	if p.ChallengesOn > 0 {
		p.ChallengesPct = roundHalfUp(float64(p.ChallengesDone) / float64(p.ChallengesOn) * 100)
		p.Pct = roundHalfUp(float64(p.QuranPct+p.ChallengesPct) / 2)
	} else {
		p.Pct = p.QuranPct
	}
	p.Pct = clampPct(p.Pct)
	return p
}

// BuildSnapshot condenses the current day into the record archived on
// rollover. It is a pure function of s.
func BuildSnapshot(s *AppState) DailySnapshot {
	p := TodayProgress(s)
	return DailySnapshot{
		Pct:       p.Pct,
		Quran:     p.PagesRead >= max(1, s.DailyPages),
		Azkar:     s.TodayChecks[GoalAzkarMorning] || s.TodayChecks[GoalAzkarEvening],
		Subha:     s.SubhaTotal() > 0,
		Qiyam:     s.TodayChecks[GoalQiyam],
		PagesRead: p.PagesRead,
	}
}

// Rollover decides what has to happen when the app observes today. It
// returns nil when the day has not changed or the clock went backwards.
// After a gap of several days only the last seen day is archived.
func Rollover(s *AppState, today string) Action {
	switch {
	case s.LastSeenDate == "":
		return SetLastSeenDate{Date: today}
	case s.LastSeenDate < today:
		return ArchiveAndRollover{
			ArchivedDate: s.LastSeenDate,
			Snapshot:     BuildSnapshot(s),
			NewDate:      today,
		}
	default:
		return nil
	}
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func clampPct(p int) int {
	return min(100, max(0, p))
}
