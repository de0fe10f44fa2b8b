package state

import (
	"strconv"

	"github.com/google/uuid"
)

// Action is a user intent or system event that Reduce applies to a state.
type Action interface {
	Kind() string
}

type (
	SetDailyPages      struct{ Pages int }
	AddReadingTime     struct{ Label, Icon string }
	RemoveReadingTime  struct{ Index int }
	ToggleGoal         struct{ Key GoalKey }
	FinishSetup        struct{}
	ToggleSlot         struct{ Index int }
	ToggleCheck        struct{ Key GoalKey }
	ToggleNawafel      struct{ Key string }
	SubhaInc           struct{ Key SubhaKey }
	SubhaReset         struct{ Key SubhaKey }
	SubhaResetAll      struct{}
	SetLastSeenDate    struct{ Date string }
	ClearHistory       struct{}
	ResetQuranProgress struct{}
	ResetTodayReading  struct{}
	ResetAll           struct{}
	RemoveDua          struct{ ID string }
	RemovePodcast      struct{ ID string }
	SetLevel           struct{ Level int }
	SetAzan            struct{ Name string }
)

// ArchiveAndRollover closes ArchivedDate with Snapshot and starts NewDate.
type ArchiveAndRollover struct {
	ArchivedDate string
	Snapshot     DailySnapshot
	NewDate      string
}

// AddDua appends a dua to the journal. Use NewAddDua to get a fresh id.
type AddDua struct {
	ID   string
	Text string
	Day  string
}

// AddPodcast appends a podcast note to the journal.
type AddPodcast struct {
	ID   string
	Text string
	Day  string
}

// SetReminder updates the dua reminder preferences.
type SetReminder struct {
	Enabled bool
	Time    string
}

// SetPrayerLocation stores the city and country used for prayer times.
type SetPrayerLocation struct {
	City    string
	Country string
}

// NewAddDua builds an AddDua with a random id.
func NewAddDua(text, day string) AddDua {
	return AddDua{ID: uuid.NewString(), Text: text, Day: day}
}

// NewAddPodcast builds an AddPodcast with a random id.
func NewAddPodcast(text, day string) AddPodcast {
	return AddPodcast{ID: uuid.NewString(), Text: text, Day: day}
}

func (SetDailyPages) Kind() string      { return "set_daily_pages" }
func (AddReadingTime) Kind() string     { return "add_reading_time" }
func (RemoveReadingTime) Kind() string  { return "remove_reading_time" }
func (ToggleGoal) Kind() string         { return "toggle_goal" }
func (FinishSetup) Kind() string        { return "finish_setup" }
func (ToggleSlot) Kind() string         { return "toggle_slot" }
func (ToggleCheck) Kind() string        { return "toggle_check" }
func (ToggleNawafel) Kind() string      { return "toggle_nawafel" }
func (SubhaInc) Kind() string           { return "subha_inc" }
func (SubhaReset) Kind() string         { return "subha_reset" }
func (SubhaResetAll) Kind() string      { return "subha_reset_all" }
func (ArchiveAndRollover) Kind() string { return "archive_and_rollover" }
func (SetLastSeenDate) Kind() string    { return "set_last_seen_date" }
func (ClearHistory) Kind() string       { return "clear_history" }
func (ResetQuranProgress) Kind() string { return "reset_quran_progress" }
func (ResetTodayReading) Kind() string  { return "reset_today_reading" }
func (ResetAll) Kind() string           { return "reset_all" }
func (AddDua) Kind() string             { return "add_dua" }
func (RemoveDua) Kind() string          { return "remove_dua" }
func (AddPodcast) Kind() string         { return "add_podcast" }
func (RemovePodcast) Kind() string      { return "remove_podcast" }
func (SetLevel) Kind() string           { return "set_level" }
func (SetReminder) Kind() string        { return "set_reminder" }
func (SetPrayerLocation) Kind() string  { return "set_prayer_location" }
func (SetAzan) Kind() string            { return "set_azan" }

// Describe renders an action as a short human sentence against the state it
// was applied to. Used for commit messages and the status bar.
func Describe(s *AppState, a Action) string {
	switch a := a.(type) {
	case SetDailyPages:
		return "Set daily goal: " + strconv.Itoa(a.Pages) + " pages"
	case AddReadingTime:
		return "Add reading time: " + a.Label
	case RemoveReadingTime:
		if s != nil && a.Index >= 0 && a.Index < len(s.ReadingTimes) {
			return "Remove reading time: " + s.ReadingTimes[a.Index].Label
		}
		return "Remove reading time"
	case ToggleGoal:
		return "Toggle challenge: " + goalLabel(a.Key)
	case FinishSetup:
		return "Finish setup"
	case ToggleSlot:
		if s != nil {
			slots := EffectiveSlots(s)
			if a.Index >= 0 && a.Index < len(slots) {
				return "Toggle slot: " + slots[a.Index].Label
			}
		}
		return "Toggle slot"
	case ToggleCheck:
		return "Check: " + goalLabel(a.Key)
	case ToggleNawafel:
		return "Nawafel: " + a.Key
	case SubhaInc:
		return "Dhikr: " + SubhaLabels[a.Key]
	case SubhaReset:
		return "Reset dhikr: " + SubhaLabels[a.Key]
	case SubhaResetAll:
		return "Reset all dhikr"
	case ArchiveAndRollover:
		return "Archive " + a.ArchivedDate
	case SetLastSeenDate:
		return "Start tracking " + a.Date
	case ClearHistory:
		return "Clear history"
	case ResetQuranProgress:
		return "Reset Quran progress"
	case ResetTodayReading:
		return "Reset today's reading"
	case ResetAll:
		return "Reset everything"
	case AddDua:
		return "Add dua"
	case RemoveDua:
		return "Remove dua"
	case AddPodcast:
		return "Add podcast note"
	case RemovePodcast:
		return "Remove podcast note"
	case SetLevel:
		return "Set level " + strconv.Itoa(a.Level)
	case SetReminder:
		return "Update reminder"
	case SetPrayerLocation:
		return "Set prayer location"
	case SetAzan:
		return "Set azan: " + a.Name
	case nil:
		return ""
	default:
		return a.Kind()
	}
}

func goalLabel(k GoalKey) string {
	if l, ok := GoalLabels[k]; ok {
		return l
	}
	return string(k)
}
