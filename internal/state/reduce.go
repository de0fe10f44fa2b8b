package state

import (
	"slices"
	"strings"
)

// Reduce applies a to s and returns the resulting state. It never mutates
// s: the result is a fresh deep copy, or s itself when the action does not
// apply (unknown action types, out-of-range indexes, unknown catalog keys).
func Reduce(s *AppState, a Action) *AppState {
	if s == nil {
		s = Default()
	}
	switch a := a.(type) {
	case SetDailyPages:
		next := s.Clone()
		next.DailyPages = max(1, a.Pages)
		return next

	case AddReadingTime:
		label := strings.TrimSpace(a.Label)
		if label == "" {
			return s
		}
		next := s.Clone()
		next.ReadingTimes = append(next.ReadingTimes, ReadingTime{Label: label, Icon: strings.TrimSpace(a.Icon)})
		next.TodaySlots = resharedSlots(next.ReadingTimes, s.TodaySlots, next.DailyPages)
		return next

	case RemoveReadingTime:
		if a.Index < 0 || a.Index >= len(s.ReadingTimes) {
			return s
		}
		next := s.Clone()
		next.ReadingTimes = slices.Delete(next.ReadingTimes, a.Index, a.Index+1)
		next.TodaySlots = resharedSlots(next.ReadingTimes, s.TodaySlots, next.DailyPages)
		return next

	case ToggleGoal:
		if !IsGoal(a.Key) {
			return s
		}
		next := s.Clone()
		next.Goals = ensureGoals(next.Goals)
		next.Goals[a.Key] = !next.Goals[a.Key]
		return next

	case FinishSetup:
		next := s.Clone()
		next.SetupDone = true
		next.TodaySlots = freshSlots(next.ReadingTimes, next.DailyPages)
		return next

	case ToggleSlot:
		slots := EffectiveSlots(s)
		if a.Index < 0 || a.Index >= len(slots) {
			return s
		}
		next := s.Clone()
		next.TodaySlots = slices.Clone(slots)
		slot := &next.TodaySlots[a.Index]
		slot.Done = !slot.Done
		if slot.Done {
			slot.Pages = PagesPerSlot(next.DailyPages, len(next.ReadingTimes))
		} else {
			slot.Pages = 0
		}
		return next

	case ToggleCheck:
		if !IsGoal(a.Key) {
			return s
		}
		next := s.Clone()
		next.TodayChecks = ensureGoals(next.TodayChecks)
		next.TodayChecks[a.Key] = !next.TodayChecks[a.Key]
		return next

	case ToggleNawafel:
		if a.Key == "" {
			return s
		}
		next := s.Clone()
		if next.NawafelChecks == nil {
			next.NawafelChecks = map[string]bool{}
		}
		next.NawafelChecks[a.Key] = !next.NawafelChecks[a.Key]
		return next

	case SubhaInc:
		if !IsSubha(a.Key) {
			return s
		}
		next := s.Clone()
		next.Subha = ensureSubha(next.Subha)
		next.Subha[a.Key] = max(0, next.Subha[a.Key]) + 1
		return next

	case SubhaReset:
		if !IsSubha(a.Key) {
			return s
		}
		next := s.Clone()
		next.Subha = ensureSubha(next.Subha)
		next.Subha[a.Key] = 0
		return next

	case SubhaResetAll:
		next := s.Clone()
		next.Subha = zeroSubha()
		return next

	case ArchiveAndRollover:
		return archiveAndRollover(s, a)

	case SetLastSeenDate:
		next := s.Clone()
		next.LastSeenDate = a.Date
		return next

	case ClearHistory:
		next := s.Clone()
		next.DailyHistory = map[string]DailySnapshot{}
		return next

	case ResetQuranProgress:
		next := s.Clone()
		next.TotalPages = 0
		return next

	case ResetTodayReading:
		next := s.Clone()
		next.TodaySlots = slices.Clone(EffectiveSlots(s))
		for i := range next.TodaySlots {
			next.TodaySlots[i].Done = false
			next.TodaySlots[i].Pages = 0
		}
		return next

	case ResetAll:
		return Default()

	case AddDua:
		if strings.TrimSpace(a.Text) == "" || a.ID == "" {
			return s
		}
		next := s.Clone()
		next.Duas = append(next.Duas, JournalItem{ID: a.ID, Text: strings.TrimSpace(a.Text), Day: a.Day})
		return next

	case RemoveDua:
		i := slices.IndexFunc(s.Duas, func(it JournalItem) bool { return it.ID == a.ID })
		if i < 0 {
			return s
		}
		next := s.Clone()
		next.Duas = slices.Delete(next.Duas, i, i+1)
		return next

	case AddPodcast:
		if strings.TrimSpace(a.Text) == "" || a.ID == "" {
			return s
		}
		next := s.Clone()
		next.Podcasts = append(next.Podcasts, JournalItem{ID: a.ID, Text: strings.TrimSpace(a.Text), Day: a.Day})
		return next

	case RemovePodcast:
		i := slices.IndexFunc(s.Podcasts, func(it JournalItem) bool { return it.ID == a.ID })
		if i < 0 {
			return s
		}
		next := s.Clone()
		next.Podcasts = slices.Delete(next.Podcasts, i, i+1)
		return next

	case SetLevel:
		next := s.Clone()
		next.Level = max(0, a.Level)
		return next

	case SetReminder:
		if a.Time != "" && !IsClockTime(a.Time) {
			return s
		}
		next := s.Clone()
		next.NotificationsEnabled = a.Enabled
		next.DuaNotifTime = a.Time
		return next

	case SetPrayerLocation:
		next := s.Clone()
		next.PrayerCity = strings.TrimSpace(a.City)
		next.PrayerCountry = strings.TrimSpace(a.Country)
		return next

	case SetAzan:
		next := s.Clone()
		next.SelectedAzan = a.Name
		return next
	}
	return s
}

func archiveAndRollover(s *AppState, a ArchiveAndRollover) *AppState {
	snap := a.Snapshot
	snap.PagesRead = max(0, snap.PagesRead)
	snap.Pct = clampPct(snap.Pct)

	next := s.Clone()
	if next.DailyHistory == nil {
		next.DailyHistory = map[string]DailySnapshot{}
	}
	if a.ArchivedDate != "" {
		next.DailyHistory[a.ArchivedDate] = snap
	}
	next.LastSeenDate = a.NewDate
	next.TodaySlots = freshSlots(next.ReadingTimes, next.DailyPages)
	next.TodayChecks = map[GoalKey]bool{}
	next.NawafelChecks = map[string]bool{}
	next.Subha = zeroSubha()
	next.TotalPages = max(0, next.TotalPages) + snap.PagesRead

	prev, err := PrevDate(a.NewDate)
	contiguous := err == nil && prev == a.ArchivedDate
	if contiguous && snap.Pct >= 100 {
		next.Streak = max(0, next.Streak) + 1
	} else {
		next.Streak = 0
	}
	next.BestStreak = max(next.BestStreak, next.Streak)
	return next
}

func ensureGoals(m map[GoalKey]bool) map[GoalKey]bool {
	if m == nil {
		return map[GoalKey]bool{}
	}
	return m
}

func ensureSubha(m map[SubhaKey]int) map[SubhaKey]int {
	if m == nil {
		return zeroSubha()
	}
	return m
}
