// Package importer brings progress recorded elsewhere into the tracker: a
// state blob copied from another device, the output of 'ramadan history
// --json', or a spreadsheet of past days.
package importer

import (
	"fmt"
	"io"
	"sort"

	"ramadan/internal/state"
)

// Batch is what an importer read from its input.
type Batch struct {
	Days       map[string]state.DailySnapshot
	Duas       []state.JournalItem
	Podcasts   []state.JournalItem
	TotalPages int
	BestStreak int

	// Errors lists input rows that were skipped as unreadable.
	Errors []string
}

// Dates returns the imported days in order.
func (b *Batch) Dates() []string {
	dates := make([]string, 0, len(b.Days))
	for d := range b.Days {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Result contains statistics about an import operation.
type Result struct {
	Days    int      // archived days added
	Journal int      // duas and podcast notes added
	Skipped int      // days already recorded, journal items already present
	Totals  bool     // total pages or best streak raised
	Errors  []string // rows that could not be read
}

// Changed reports whether the import added anything.
func (r *Result) Changed() bool {
	return r.Days > 0 || r.Journal > 0 || r.Totals
}

// Importer reads one input format.
type Importer interface {
	// Parse reads the input without touching any state.
	Parse(reader io.Reader) (*Batch, error)

	// Name returns the format name used on the command line.
	Name() string
}

// Get returns the importer for format, or nil.
func Get(format string) Importer {
	switch format {
	case "json":
		return &JSONImporter{}
	case "csv":
		return &CSVImporter{}
	default:
		return nil
	}
}

// SupportedFormats returns the list of supported import formats.
func SupportedFormats() []string {
	return []string{"json", "csv"}
}

// Merge folds b into a copy of s. Days already in the history and journal
// items whose id is already present are kept as they are. Today's
// checklist is never touched.
func Merge(s *state.AppState, b *Batch) (*state.AppState, Result) {
	next := s.Clone()
	res := Result{Errors: b.Errors}
	if next.DailyHistory == nil {
		next.DailyHistory = map[string]state.DailySnapshot{}
	}

	for _, date := range b.Dates() {
		if _, ok := next.DailyHistory[date]; ok || !closed(date, s.LastSeenDate) {
			res.Skipped++
			continue
		}
		next.DailyHistory[date] = b.Days[date]
		res.Days++
	}

	next.Duas = mergeJournal(next.Duas, b.Duas, &res)
	next.Podcasts = mergeJournal(next.Podcasts, b.Podcasts, &res)

	if b.TotalPages > next.TotalPages || b.BestStreak > next.BestStreak {
		next.TotalPages = max(next.TotalPages, b.TotalPages)
		next.BestStreak = max(next.BestStreak, b.BestStreak)
		res.Totals = true
	}
	return next, res
}

// closed reports whether date lies before the day in progress. Only closed
// days belong in the history.
func closed(date, lastSeen string) bool {
	return lastSeen == "" || date < lastSeen
}

func mergeJournal(have, add []state.JournalItem, res *Result) []state.JournalItem {
	seen := make(map[string]bool, len(have))
	for _, it := range have {
		seen[it.ID] = true
	}
	for _, it := range add {
		if seen[it.ID] {
			res.Skipped++
			continue
		}
		seen[it.ID] = true
		have = append(have, it)
		res.Journal++
	}
	return have
}

// Restorer is the part of the state machine an import writes through.
type Restorer interface {
	State() *state.AppState
	Restore(s *state.AppState, summary string)
}

// Apply merges b into the machine's state and saves it when anything was
// added.
func Apply(m Restorer, b *Batch) Result {
	next, res := Merge(m.State(), b)
	if res.Changed() {
		m.Restore(next, fmt.Sprintf("Import %d days, %d journal entries", res.Days, res.Journal))
	}
	return res
}
