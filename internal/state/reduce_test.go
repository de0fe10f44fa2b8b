package state

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unknownAction struct{}

func (unknownAction) Kind() string { return "unknown" }

func TestReduce_UnknownActionReturnsSameState(t *testing.T) {
	s := Default()
	assert.Same(t, s, Reduce(s, unknownAction{}))
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	actions := []Action{
		SetDailyPages{Pages: 30},
		AddReadingTime{Label: "Before Maghrib", Icon: "🌇"},
		RemoveReadingTime{Index: 0},
		ToggleGoal{Key: GoalSadaqa},
		FinishSetup{},
		ToggleSlot{Index: 2},
		ToggleCheck{Key: GoalQiyam},
		ToggleNawafel{Key: "duha"},
		SubhaInc{Key: SubhaSalawat},
		SubhaReset{Key: SubhaSalawat},
		SubhaResetAll{},
		ArchiveAndRollover{ArchivedDate: "2026-03-01", Snapshot: DailySnapshot{Pct: 100, PagesRead: 20}, NewDate: "2026-03-02"},
		SetLastSeenDate{Date: "2026-03-02"},
		ClearHistory{},
		ResetQuranProgress{},
		ResetTodayReading{},
		NewAddDua("guidance", "3"),
		NewAddPodcast("episode 4", "4"),
		SetLevel{Level: 2},
		SetReminder{Enabled: true, Time: "21:30"},
		SetPrayerLocation{City: "Cairo", Country: "Egypt"},
		SetAzan{Name: "madinah"},
	}

	for _, a := range actions {
		t.Run(a.Kind(), func(t *testing.T) {
			s := Default()
			s.DailyHistory["2026-02-28"] = DailySnapshot{Pct: 40}
			s.Subha[SubhaSalawat] = 7
			before := s.Clone()

			next := Reduce(s, a)
			require.NotNil(t, next)
			if diff := cmp.Diff(before, s); diff != "" {
				t.Fatalf("input mutated (-before +after):\n%s", diff)
			}
		})
	}
}

func TestReduce_SetDailyPagesClamps(t *testing.T) {
	s := Reduce(Default(), SetDailyPages{Pages: -4})
	assert.Equal(t, 1, s.DailyPages)

	s = Reduce(s, SetDailyPages{Pages: 40})
	assert.Equal(t, 40, s.DailyPages)
}

func TestReduce_AddReadingTimeResharesSlots(t *testing.T) {
	s := Default() // 20 pages over 4 slots
	s = Reduce(s, ToggleSlot{Index: 0})
	require.True(t, s.TodaySlots[0].Done)

	s = Reduce(s, AddReadingTime{Label: "Before Maghrib", Icon: "🌇"})
	require.Len(t, s.ReadingTimes, 5)
	require.Len(t, s.TodaySlots, 5)
	assert.True(t, s.TodaySlots[0].Done, "done flag kept for matching slot")
	for _, slot := range s.TodaySlots {
		assert.Equal(t, 4, slot.Pages)
	}
	assert.Equal(t, "Before Maghrib", s.TodaySlots[4].Label)
}

func TestReduce_AddReadingTimeRejectsBlankLabel(t *testing.T) {
	s := Default()
	assert.Same(t, s, Reduce(s, AddReadingTime{Label: "   "}))
}

func TestReduce_RemoveReadingTime(t *testing.T) {
	s := Default()
	s = Reduce(s, ToggleSlot{Index: 3})

	s = Reduce(s, RemoveReadingTime{Index: 0})
	require.Len(t, s.ReadingTimes, 3)
	require.Len(t, s.TodaySlots, 3)
	assert.Equal(t, "After Dhuhr", s.ReadingTimes[0].Label)
	assert.True(t, s.TodaySlots[2].Done)
	for _, slot := range s.TodaySlots {
		assert.Equal(t, 7, slot.Pages) // ceil(20/3)
	}

	same := Reduce(s, RemoveReadingTime{Index: 9})
	assert.Same(t, s, same)
}

func TestReduce_ToggleGoalAndCheck(t *testing.T) {
	s := Default()
	s = Reduce(s, ToggleGoal{Key: GoalTafsir})
	assert.True(t, s.Goals[GoalTafsir])
	s = Reduce(s, ToggleGoal{Key: GoalTafsir})
	assert.False(t, s.Goals[GoalTafsir])

	s = Reduce(s, ToggleCheck{Key: GoalQiyam})
	assert.True(t, s.TodayChecks[GoalQiyam])

	assert.Same(t, s, Reduce(s, ToggleGoal{Key: "nope"}))
	assert.Same(t, s, Reduce(s, ToggleCheck{Key: "nope"}))
}

func TestReduce_FinishSetupFreshSlots(t *testing.T) {
	s := Default()
	s = Reduce(s, ToggleSlot{Index: 1})
	s = Reduce(s, FinishSetup{})

	assert.True(t, s.SetupDone)
	for _, slot := range s.TodaySlots {
		assert.False(t, slot.Done)
		assert.Equal(t, 5, slot.Pages)
	}
}

func TestReduce_ToggleSlot(t *testing.T) {
	s := Default()
	s.DailyPages = 10
	s.ReadingTimes = s.ReadingTimes[:3]

	// Slots are stale (4 vs 3); toggling re-derives first.
	s = Reduce(s, ToggleSlot{Index: 1})
	require.Len(t, s.TodaySlots, 3)
	assert.True(t, s.TodaySlots[1].Done)
	assert.Equal(t, 4, s.TodaySlots[1].Pages) // ceil(10/3)

	s = Reduce(s, ToggleSlot{Index: 1})
	assert.False(t, s.TodaySlots[1].Done)
	assert.Equal(t, 0, s.TodaySlots[1].Pages)

	assert.Same(t, s, Reduce(s, ToggleSlot{Index: -1}))
}

func TestReduce_Subha(t *testing.T) {
	s := Default()
	s = Reduce(s, SubhaInc{Key: SubhaHawqala})
	s = Reduce(s, SubhaInc{Key: SubhaHawqala})
	s = Reduce(s, SubhaInc{Key: SubhaTahlil})
	assert.Equal(t, 2, s.Subha[SubhaHawqala])
	assert.Equal(t, 3, s.SubhaTotal())

	s = Reduce(s, SubhaReset{Key: SubhaHawqala})
	assert.Equal(t, 0, s.Subha[SubhaHawqala])
	assert.Equal(t, 1, s.Subha[SubhaTahlil])

	s = Reduce(s, SubhaResetAll{})
	assert.Equal(t, 0, s.SubhaTotal())
	assert.Len(t, s.Subha, len(SubhaCatalog))

	assert.Same(t, s, Reduce(s, SubhaInc{Key: "bogus"}))
}

func TestReduce_ArchiveAndRollover_Conservation(t *testing.T) {
	s := Default()
	s.TotalPages = 120
	s.DailyHistory = map[string]DailySnapshot{
		"2026-02-27": {Pct: 20, PagesRead: 4},
		"2026-02-28": {Pct: 90, PagesRead: 18},
	}
	s = Reduce(s, ToggleSlot{Index: 0})
	s = Reduce(s, ToggleCheck{Key: GoalAzkarMorning})
	s = Reduce(s, ToggleNawafel{Key: "witr"})
	s = Reduce(s, SubhaInc{Key: SubhaSubhanallah})

	snap := DailySnapshot{Pct: 63, Quran: false, Azkar: true, Subha: true, PagesRead: 5}
	next := Reduce(s, ArchiveAndRollover{ArchivedDate: "2026-03-01", Snapshot: snap, NewDate: "2026-03-02"})

	assert.Equal(t, 125, next.TotalPages)
	assert.Equal(t, snap, next.DailyHistory["2026-03-01"])
	assert.Equal(t, s.DailyHistory["2026-02-27"], next.DailyHistory["2026-02-27"])
	assert.Equal(t, s.DailyHistory["2026-02-28"], next.DailyHistory["2026-02-28"])
	assert.Len(t, next.DailyHistory, 3)

	assert.Equal(t, "2026-03-02", next.LastSeenDate)
	assert.Empty(t, next.TodayChecks)
	assert.Empty(t, next.NawafelChecks)
	assert.Equal(t, 0, next.SubhaTotal())
	for _, slot := range next.TodaySlots {
		assert.False(t, slot.Done)
		assert.Equal(t, 5, slot.Pages)
	}
}

func TestReduce_ArchiveAndRollover_Streak(t *testing.T) {
	tests := []struct {
		name       string
		streak     int
		best       int
		archived   string
		newDate    string
		pct        int
		wantStreak int
		wantBest   int
	}{
		{name: "continuation", streak: 5, best: 5, archived: "2026-03-01", newDate: "2026-03-02", pct: 100, wantStreak: 6, wantBest: 6},
		{name: "continuation below best", streak: 5, best: 9, archived: "2026-03-01", newDate: "2026-03-02", pct: 100, wantStreak: 6, wantBest: 9},
		{name: "gap breaks streak", streak: 5, best: 5, archived: "2026-03-01", newDate: "2026-03-03", pct: 100, wantStreak: 0, wantBest: 5},
		{name: "incomplete day", streak: 5, best: 7, archived: "2026-03-01", newDate: "2026-03-02", pct: 99, wantStreak: 0, wantBest: 7},
		{name: "month boundary", streak: 2, best: 2, archived: "2026-02-28", newDate: "2026-03-01", pct: 100, wantStreak: 3, wantBest: 3},
		{name: "invalid new date", streak: 4, best: 4, archived: "2026-03-01", newDate: "garbage", pct: 100, wantStreak: 0, wantBest: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			s.Streak = tt.streak
			s.BestStreak = tt.best
			next := Reduce(s, ArchiveAndRollover{
				ArchivedDate: tt.archived,
				Snapshot:     DailySnapshot{Pct: tt.pct},
				NewDate:      tt.newDate,
			})
			assert.Equal(t, tt.wantStreak, next.Streak)
			assert.Equal(t, tt.wantBest, next.BestStreak)
		})
	}
}

func TestReduce_ArchiveClampsSnapshot(t *testing.T) {
	s := Default()
	s.TotalPages = 10
	next := Reduce(s, ArchiveAndRollover{
		ArchivedDate: "2026-03-01",
		Snapshot:     DailySnapshot{Pct: 140, PagesRead: -3},
		NewDate:      "2026-03-02",
	})
	assert.Equal(t, 10, next.TotalPages)
	assert.Equal(t, DailySnapshot{Pct: 100}, next.DailyHistory["2026-03-01"])
}

func TestReduce_Resets(t *testing.T) {
	s := Default()
	s.TotalPages = 300
	s.DailyHistory["2026-03-01"] = DailySnapshot{Pct: 100}
	s = Reduce(s, ToggleSlot{Index: 0})
	s = Reduce(s, ToggleSlot{Index: 1})

	today := Reduce(s, ResetTodayReading{})
	for _, slot := range today.TodaySlots {
		assert.False(t, slot.Done)
		assert.Equal(t, 0, slot.Pages)
	}

	assert.Equal(t, 0, Reduce(s, ResetQuranProgress{}).TotalPages)
	assert.Empty(t, Reduce(s, ClearHistory{}).DailyHistory)

	if diff := cmp.Diff(Default(), Reduce(s, ResetAll{})); diff != "" {
		t.Fatalf("ResetAll mismatch (-want +got):\n%s", diff)
	}
}

func TestReduce_Journal(t *testing.T) {
	s := Default()
	add := NewAddDua("  forgiveness for my parents ", "12")
	require.NotEmpty(t, add.ID)

	s = Reduce(s, add)
	require.Len(t, s.Duas, 1)
	assert.Equal(t, "forgiveness for my parents", s.Duas[0].Text)
	assert.Equal(t, "12", s.Duas[0].Day)

	s = Reduce(s, AddPodcast{ID: "p1", Text: "Tafsir of al-Mulk", Day: "12"})
	require.Len(t, s.Podcasts, 1)

	assert.Same(t, s, Reduce(s, RemoveDua{ID: "missing"}))
	s = Reduce(s, RemoveDua{ID: add.ID})
	assert.Empty(t, s.Duas)
	s = Reduce(s, RemovePodcast{ID: "p1"})
	assert.Empty(t, s.Podcasts)

	assert.Same(t, s, Reduce(s, AddDua{ID: "x", Text: "  "}))
}

func TestReduce_Preferences(t *testing.T) {
	s := Default()
	s = Reduce(s, SetReminder{Enabled: true, Time: "04:15"})
	assert.True(t, s.NotificationsEnabled)
	assert.Equal(t, "04:15", s.DuaNotifTime)

	assert.Same(t, s, Reduce(s, SetReminder{Enabled: true, Time: "25:99"}))

	s = Reduce(s, SetPrayerLocation{City: " Rabat ", Country: "Morocco"})
	assert.Equal(t, "Rabat", s.PrayerCity)
	assert.Equal(t, "Morocco", s.PrayerCountry)

	s = Reduce(s, SetAzan{Name: "alaqsa"})
	assert.Equal(t, "alaqsa", s.SelectedAzan)

	s = Reduce(s, SetLevel{Level: -2})
	assert.Equal(t, 0, s.Level)
}

// randomAction draws from every action except ResetAll, which deliberately
// returns to first-run values.
func randomAction(r *rand.Rand, s *AppState) Action {
	dates := []string{"2026-03-01", "2026-03-02", "2026-03-03", "2026-03-05"}
	switch r.Intn(12) {
	case 0:
		return SetDailyPages{Pages: r.Intn(40) - 5}
	case 1:
		return AddReadingTime{Label: "Slot", Icon: string(rune('a' + r.Intn(5)))}
	case 2:
		return RemoveReadingTime{Index: r.Intn(6) - 1}
	case 3:
		return ToggleSlot{Index: r.Intn(6) - 1}
	case 4:
		return ToggleGoal{Key: GoalCatalog[r.Intn(len(GoalCatalog))]}
	case 5:
		return ToggleCheck{Key: GoalCatalog[r.Intn(len(GoalCatalog))]}
	case 6:
		return SubhaInc{Key: SubhaCatalog[r.Intn(len(SubhaCatalog))]}
	case 7:
		return SubhaResetAll{}
	case 8:
		return ClearHistory{}
	case 9:
		return ResetTodayReading{}
	default:
		archived := s.LastSeenDate
		if archived == "" {
			archived = dates[r.Intn(len(dates))]
		}
		return ArchiveAndRollover{
			ArchivedDate: archived,
			Snapshot:     BuildSnapshot(s),
			NewDate:      dates[r.Intn(len(dates))],
		}
	}
}

func TestReduce_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for run := 0; run < 50; run++ {
		s := Default()
		for step := 0; step < 200; step++ {
			a := randomAction(r, s)
			next := Reduce(s, a)

			if next.BestStreak < s.BestStreak {
				t.Fatalf("run %d step %d: bestStreak decreased %d -> %d after %T", run, step, s.BestStreak, next.BestStreak, a)
			}
			if next.BestStreak < next.Streak {
				t.Fatalf("run %d step %d: bestStreak %d below streak %d", run, step, next.BestStreak, next.Streak)
			}
			if next.DailyPages < 1 {
				t.Fatalf("run %d step %d: dailyPages %d", run, step, next.DailyPages)
			}
			p := TodayProgress(next)
			if p.QuranPct < 0 || p.QuranPct > 100 || p.Pct < 0 || p.Pct > 100 {
				t.Fatalf("run %d step %d: percent out of range %+v", run, step, p)
			}
			for k, n := range next.Subha {
				if n < 0 {
					t.Fatalf("run %d step %d: subha %s negative", run, step, k)
				}
			}
			s = next
		}
	}
}
