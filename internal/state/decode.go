package state

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// journalNamespace seeds deterministic ids for journal items stored
// without one.
var journalNamespace = uuid.MustParse("6f1c7a52-3f0e-4d5e-9a4f-2b8f3f0d1c11")

// Decode turns a persisted blob into a valid AppState. It returns nil when
// the blob is not a JSON object at all; otherwise every field is checked on
// its own and replaced by the default when missing or mistyped, so blobs
// written by older or newer versions still load.
func Decode(data []byte) *AppState {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil || raw == nil {
		return nil
	}

	def := Default()
	s := &AppState{
		DailyPages:   positiveInt(raw["dailyPages"], def.DailyPages),
		ReadingTimes: readingTimes(raw["readingTimes"], def.ReadingTimes),
		SetupDone:    boolOr(raw["setupDone"], def.SetupDone),
		Goals:        goalMap(raw["goals"], def.Goals),
		TodayChecks:  goalMap(raw["todayChecks"], def.TodayChecks),
		Subha:        subhaMap(raw["subha"]),
		TotalPages:   nonNegativeInt(raw["totalPagesEver"], def.TotalPages),
		Streak:       nonNegativeInt(raw["streak"], def.Streak),
		BestStreak:   nonNegativeInt(raw["bestStreak"], def.BestStreak),
		Level:        nonNegativeInt(raw["level"], def.Level),
		LastSeenDate: dateOr(raw["lastSeenDate"], def.LastSeenDate),
		DailyHistory: history(raw["dailyHistory"]),
		Duas:         journal(raw["duas"], "dua"),
		Podcasts:     journal(raw["podcasts"], "podcast"),

		NotificationsEnabled: boolOr(raw["notificationsEnabled"], def.NotificationsEnabled),
		DuaNotifTime:         clockTimeOr(raw["duaNotifTime"], def.DuaNotifTime),
		SelectedAzan:         stringOr(raw["selectedAzan"], def.SelectedAzan),
		PrayerCity:           stringOr(raw["prayerCity"], def.PrayerCity),
		PrayerCountry:        stringOr(raw["prayerCountry"], def.PrayerCountry),
	}
	s.NawafelChecks = boolMap(raw["nawafelChecks"])
	if s.BestStreak < s.Streak {
		s.BestStreak = s.Streak
	}
	s.TodaySlots = DeriveSlots(s.ReadingTimes, storedSlots(raw["todaySlots"]), s.DailyPages)
	return s
}

// DecodeOrDefault is Decode with the first-run fallback. The boolean is
// false when the blob had to be discarded.
func DecodeOrDefault(data []byte) (*AppState, bool) {
	if s := Decode(data); s != nil {
		return s, true
	}
	return Default(), false
}

func isNull(msg json.RawMessage) bool {
	t := bytes.TrimSpace(msg)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func intValue(msg json.RawMessage) (int, bool) {
	if isNull(msg) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(msg, &f); err != nil {
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func positiveInt(msg json.RawMessage, def int) int {
	if n, ok := intValue(msg); ok && n >= 1 {
		return n
	}
	return def
}

func nonNegativeInt(msg json.RawMessage, def int) int {
	if n, ok := intValue(msg); ok && n >= 0 {
		return n
	}
	return def
}

func boolOr(msg json.RawMessage, def bool) bool {
	var b bool
	if isNull(msg) || json.Unmarshal(msg, &b) != nil {
		return def
	}
	return b
}

func stringOr(msg json.RawMessage, def string) string {
	var s string
	if isNull(msg) || json.Unmarshal(msg, &s) != nil {
		return def
	}
	return s
}

func dateOr(msg json.RawMessage, def string) string {
	s := stringOr(msg, def)
	if s == "" || IsValidDate(s) {
		return s
	}
	return def
}

// IsClockTime reports whether v is an HH:MM 24-hour time.
func IsClockTime(v string) bool {
	if len(v) != 5 {
		return false
	}
	_, err := time.Parse("15:04", v)
	return err == nil
}

func clockTimeOr(msg json.RawMessage, def string) string {
	s := stringOr(msg, def)
	if s == "" || IsClockTime(s) {
		return s
	}
	return def
}

func objectFields(msg json.RawMessage) (map[string]json.RawMessage, bool) {
	t := bytes.TrimSpace(msg)
	if len(t) == 0 || t[0] != '{' {
		return nil, false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(t, &m); err != nil {
		return nil, false
	}
	return m, true
}

func arrayItems(msg json.RawMessage) ([]json.RawMessage, bool) {
	t := bytes.TrimSpace(msg)
	if len(t) == 0 || t[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(t, &items); err != nil {
		return nil, false
	}
	return items, true
}

func readingTimes(msg json.RawMessage, def []ReadingTime) []ReadingTime {
	items, ok := arrayItems(msg)
	if !ok {
		return append([]ReadingTime{}, def...)
	}
	out := make([]ReadingTime, 0, len(items))
	for _, item := range items {
		fields, ok := objectFields(item)
		if !ok {
			continue
		}
		label := stringOr(fields["label"], "")
		if strings.TrimSpace(label) == "" {
			continue
		}
		out = append(out, ReadingTime{Label: label, Icon: stringOr(fields["icon"], "")})
	}
	return out
}

func storedSlots(msg json.RawMessage) []Slot {
	items, ok := arrayItems(msg)
	if !ok {
		return nil
	}
	out := make([]Slot, 0, len(items))
	for _, item := range items {
		fields, ok := objectFields(item)
		if !ok {
			continue
		}
		out = append(out, Slot{
			Label: stringOr(fields["label"], ""),
			Icon:  stringOr(fields["icon"], ""),
			Done:  boolOr(fields["done"], false),
			Pages: nonNegativeInt(fields["pages"], 0),
		})
	}
	return out
}

// goalMap overlays stored catalog keys on the defaults; keys outside the
// catalog are dropped.
func goalMap(msg json.RawMessage, def map[GoalKey]bool) map[GoalKey]bool {
	out := make(map[GoalKey]bool, len(def))
	for k, v := range def {
		out[k] = v
	}
	fields, ok := objectFields(msg)
	if !ok {
		return out
	}
	for k, v := range fields {
		key := GoalKey(k)
		if !IsGoal(key) {
			continue
		}
		var b bool
		if json.Unmarshal(v, &b) == nil {
			out[key] = b
		}
	}
	return out
}

func boolMap(msg json.RawMessage) map[string]bool {
	out := map[string]bool{}
	fields, ok := objectFields(msg)
	if !ok {
		return out
	}
	for k, v := range fields {
		var b bool
		if json.Unmarshal(v, &b) == nil {
			out[k] = b
		}
	}
	return out
}

func subhaMap(msg json.RawMessage) map[SubhaKey]int {
	out := zeroSubha()
	fields, ok := objectFields(msg)
	if !ok {
		return out
	}
	for k, v := range fields {
		key := SubhaKey(k)
		if !IsSubha(key) {
			continue
		}
		out[key] = nonNegativeInt(v, 0)
	}
	return out
}

func history(msg json.RawMessage) map[string]DailySnapshot {
	out := map[string]DailySnapshot{}
	fields, ok := objectFields(msg)
	if !ok {
		return out
	}
	for date, v := range fields {
		if !IsValidDate(date) {
			continue
		}
		snap, ok := objectFields(v)
		if !ok {
			continue
		}
		out[date] = DailySnapshot{
			Pct:       clampPct(nonNegativeInt(snap["pct"], 0)),
			Quran:     boolOr(snap["quran"], false),
			Azkar:     boolOr(snap["azkar"], false),
			Subha:     boolOr(snap["subha"], false),
			Qiyam:     boolOr(snap["qiyam"], false),
			PagesRead: nonNegativeInt(snap["pagesRead"], 0),
		}
	}
	return out
}

func journal(msg json.RawMessage, kind string) []JournalItem {
	out := []JournalItem{}
	items, ok := arrayItems(msg)
	if !ok {
		return out
	}
	for i, item := range items {
		fields, ok := objectFields(item)
		if !ok {
			continue
		}
		text := stringOr(fields["text"], "")
		if strings.TrimSpace(text) == "" {
			continue
		}
		day := stringOr(fields["day"], "")
		if n, isNum := intValue(fields["day"]); isNum {
			day = strconv.Itoa(n)
		}
		id := stringOr(fields["id"], "")
		if id == "" {
			id = uuid.NewSHA1(journalNamespace, []byte(kind+"|"+strconv.Itoa(i)+"|"+day+"|"+text)).String()
		}
		out = append(out, JournalItem{ID: id, Text: text, Day: day})
	}
	return out
}
