// Package state holds the application state of the ramadan tracker and the
// pure reducer that evolves it. Every user-visible change goes through
// Reduce; the Machine type owns the current value and persists it.
package state

import (
	"maps"
	"slices"
)

// GoalKey identifies one optional daily challenge from the fixed catalog.
type GoalKey string

const (
	GoalAzkarMorning GoalKey = "azkarMorning"
	GoalAzkarEvening GoalKey = "azkarEvening"
	GoalQiyam        GoalKey = "qiyam"
	GoalSadaqa       GoalKey = "sadaqa"
	GoalPodcast      GoalKey = "podcast"
	GoalDua          GoalKey = "dua"
	GoalTafsir       GoalKey = "tafsir"
	GoalSubha        GoalKey = "subha" // completed by any non-zero dhikr counter
)

// GoalCatalog lists every challenge in display order.
var GoalCatalog = []GoalKey{
	GoalAzkarMorning,
	GoalAzkarEvening,
	GoalQiyam,
	GoalSadaqa,
	GoalPodcast,
	GoalDua,
	GoalTafsir,
	GoalSubha,
}

// GoalLabels are the display names of the challenge catalog.
var GoalLabels = map[GoalKey]string{
	GoalAzkarMorning: "Morning adhkar",
	GoalAzkarEvening: "Evening adhkar",
	GoalQiyam:        "Qiyam",
	GoalSadaqa:       "Charity",
	GoalPodcast:      "Podcast",
	GoalDua:          "Dua",
	GoalTafsir:       "Tafsir",
	GoalSubha:        "Dhikr counter",
}

// IsGoal reports whether k belongs to the challenge catalog.
func IsGoal(k GoalKey) bool {
	_, ok := GoalLabels[k]
	return ok
}

// SubhaKey identifies one of the fixed dhikr phrases.
type SubhaKey string

const (
	SubhaSubhanallah     SubhaKey = "subhanallah"
	SubhaAlhamdulillah   SubhaKey = "alhamdulillah"
	SubhaAllahuAkbar     SubhaKey = "allahuakbar"
	SubhaTahlil          SubhaKey = "tahlil"
	SubhaIstighfar       SubhaKey = "istighfar"
	SubhaSalawat         SubhaKey = "salawat"
	SubhaHawqala         SubhaKey = "hawqala"
	SubhaTasbihBihamdihi SubhaKey = "tasbihBihamdihi"
)

// SubhaCatalog lists the dhikr phrases in display order.
var SubhaCatalog = []SubhaKey{
	SubhaSubhanallah,
	SubhaAlhamdulillah,
	SubhaAllahuAkbar,
	SubhaTahlil,
	SubhaIstighfar,
	SubhaSalawat,
	SubhaHawqala,
	SubhaTasbihBihamdihi,
}

// SubhaLabels are the transliterated phrases shown next to each counter.
var SubhaLabels = map[SubhaKey]string{
	SubhaSubhanallah:     "SubhanAllah",
	SubhaAlhamdulillah:   "Alhamdulillah",
	SubhaAllahuAkbar:     "Allahu Akbar",
	SubhaTahlil:          "La ilaha illa Allah",
	SubhaIstighfar:       "Astaghfirullah",
	SubhaSalawat:         "Salawat",
	SubhaHawqala:         "La hawla wa la quwwata illa billah",
	SubhaTasbihBihamdihi: "SubhanAllahi wa bihamdihi",
}

// IsSubha reports whether k is one of the dhikr phrases.
func IsSubha(k SubhaKey) bool {
	_, ok := SubhaLabels[k]
	return ok
}

// ReadingTime is a user-configured daily reading slot, e.g. "After Fajr".
type ReadingTime struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// Slot is today's instance of a ReadingTime.
type Slot struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Done  bool   `json:"done"`
	Pages int    `json:"pages"`
}

// Matches reports whether the slot belongs to the given reading time.
func (s Slot) Matches(rt ReadingTime) bool {
	return s.Label == rt.Label && s.Icon == rt.Icon
}

// JournalItem is a free-text dua or podcast note tagged with a day label.
type JournalItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Day  string `json:"day"`
}

// DailySnapshot records one archived day. Snapshots are never modified
// after they enter the history.
type DailySnapshot struct {
	Pct       int  `json:"pct"`
	Quran     bool `json:"quran"`
	Azkar     bool `json:"azkar"`
	Subha     bool `json:"subha"`
	Qiyam     bool `json:"qiyam"`
	PagesRead int  `json:"pagesRead"`
}

// AppState is the single persisted root record.
type AppState struct {
	DailyPages    int                      `json:"dailyPages"`
	ReadingTimes  []ReadingTime            `json:"readingTimes"`
	TodaySlots    []Slot                   `json:"todaySlots"`
	SetupDone     bool                     `json:"setupDone"`
	Goals         map[GoalKey]bool         `json:"goals"`
	TodayChecks   map[GoalKey]bool         `json:"todayChecks"`
	NawafelChecks map[string]bool          `json:"nawafelChecks"`
	Subha         map[SubhaKey]int         `json:"subha"`
	TotalPages    int                      `json:"totalPagesEver"`
	Streak        int                      `json:"streak"`
	BestStreak    int                      `json:"bestStreak"`
	Level         int                      `json:"level"`
	LastSeenDate  string                   `json:"lastSeenDate"`
	DailyHistory  map[string]DailySnapshot `json:"dailyHistory"`
	Duas          []JournalItem            `json:"duas"`
	Podcasts      []JournalItem            `json:"podcasts"`

	NotificationsEnabled bool   `json:"notificationsEnabled"`
	DuaNotifTime         string `json:"duaNotifTime"`
	SelectedAzan         string `json:"selectedAzan"`
	PrayerCity           string `json:"prayerCity"`
	PrayerCountry        string `json:"prayerCountry"`
}

const defaultDailyPages = 20

var defaultReadingTimes = []ReadingTime{
	{Label: "After Fajr", Icon: "🌅"},
	{Label: "After Dhuhr", Icon: "☀️"},
	{Label: "After Asr", Icon: "🌤"},
	{Label: "After Isha", Icon: "🌙"},
}

// Default returns the first-run state.
func Default() *AppState {
	times := make([]ReadingTime, len(defaultReadingTimes))
	copy(times, defaultReadingTimes)

	s := &AppState{
		DailyPages:   defaultDailyPages,
		ReadingTimes: times,
		Goals: map[GoalKey]bool{
			GoalAzkarMorning: true,
			GoalAzkarEvening: true,
			GoalQiyam:        true,
			GoalSadaqa:       false,
			GoalPodcast:      false,
			GoalDua:          false,
			GoalTafsir:       false,
			GoalSubha:        true,
		},
		TodayChecks:   map[GoalKey]bool{},
		NawafelChecks: map[string]bool{},
		Subha:         zeroSubha(),
		DailyHistory:  map[string]DailySnapshot{},
		Duas:          []JournalItem{},
		Podcasts:      []JournalItem{},
		SelectedAzan:  "makkah",
	}
	s.TodaySlots = freshSlots(s.ReadingTimes, s.DailyPages)
	return s
}

func zeroSubha() map[SubhaKey]int {
	m := make(map[SubhaKey]int, len(SubhaCatalog))
	for _, k := range SubhaCatalog {
		m[k] = 0
	}
	return m
}

// Clone returns a deep copy. Reduce works on clones so that callers holding
// the previous value never observe a change.
func (s *AppState) Clone() *AppState {
	if s == nil {
		return nil
	}
	c := *s
	c.ReadingTimes = slices.Clone(s.ReadingTimes)
	c.TodaySlots = slices.Clone(s.TodaySlots)
	c.Duas = slices.Clone(s.Duas)
	c.Podcasts = slices.Clone(s.Podcasts)
	c.Goals = maps.Clone(s.Goals)
	c.TodayChecks = maps.Clone(s.TodayChecks)
	c.NawafelChecks = maps.Clone(s.NawafelChecks)
	c.Subha = maps.Clone(s.Subha)
	c.DailyHistory = maps.Clone(s.DailyHistory)
	return &c
}

// SubhaTotal sums every dhikr counter.
func (s *AppState) SubhaTotal() int {
	total := 0
	for _, n := range s.Subha {
		total += n
	}
	return total
}

// EnabledGoals returns the enabled challenges in catalog order.
func (s *AppState) EnabledGoals() []GoalKey {
	var out []GoalKey
	for _, k := range GoalCatalog {
		if s.Goals[k] {
			out = append(out, k)
		}
	}
	return out
}

// GoalDone reports whether an enabled challenge counts as completed today.
func (s *AppState) GoalDone(k GoalKey) bool {
	if k == GoalSubha {
		return s.SubhaTotal() > 0
	}
	return s.TodayChecks[k]
}
