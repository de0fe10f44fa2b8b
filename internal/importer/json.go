package importer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"ramadan/internal/state"
)

// maxJSONBytes bounds how much of the input is read.
const maxJSONBytes = 16 << 20

// JSONImporter reads either a full state blob (an object, as stored in
// state.json or exported by the phone app) or an array of history entries
// as printed by 'ramadan history --json'.
type JSONImporter struct{}

// historyEntry mirrors storage.HistoryEntry.
type historyEntry struct {
	Date     string              `json:"date"`
	Snapshot state.DailySnapshot `json:"snapshot"`
}

// Name returns the importer name.
func (j *JSONImporter) Name() string {
	return "json"
}

// Parse reads the JSON input.
func (j *JSONImporter) Parse(reader io.Reader) (*Batch, error) {
	br := bufio.NewReader(io.LimitReader(reader, maxJSONBytes))
	prefix, first, err := readFirstNonSpaceByte(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty input")
		}
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	r := io.MultiReader(bytes.NewReader(prefix), br)
	switch first {
	case '{':
		return parseStateBlob(r)
	case '[':
		return parseHistoryArray(r)
	default:
		return nil, fmt.Errorf("expected a JSON object or array, got %q", first)
	}
}

func parseStateBlob(r io.Reader) (*Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	s := state.Decode(data)
	if s == nil {
		return nil, fmt.Errorf("input is not a readable state")
	}

	// The blob's own current day is still open there.
	days := s.DailyHistory
	if days == nil {
		days = map[string]state.DailySnapshot{}
	}
	if s.LastSeenDate != "" {
		days[s.LastSeenDate] = state.BuildSnapshot(s)
	}
	return &Batch{
		Days:       days,
		Duas:       s.Duas,
		Podcasts:   s.Podcasts,
		TotalPages: s.TotalPages,
		BestStreak: s.BestStreak,
	}, nil
}

func parseHistoryArray(r io.Reader) (*Batch, error) {
	dec := json.NewDecoder(r)
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to parse JSON array: %w", err)
	}

	b := &Batch{Days: map[string]state.DailySnapshot{}}
	var idx int
	for dec.More() {
		idx++
		var e historyEntry
		if err := dec.Decode(&e); err != nil {
			return nil, fmt.Errorf("failed to decode entry %d: %w", idx, err)
		}
		if !state.IsValidDate(e.Date) {
			b.Errors = append(b.Errors, fmt.Sprintf("entry %d: invalid date %q", idx, e.Date))
			continue
		}
		b.Days[e.Date] = normalizeSnapshot(e.Snapshot)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to parse JSON array: %w", err)
	}
	return b, nil
}

// normalizeSnapshot clamps figures the way decoding a stored history does.
func normalizeSnapshot(s state.DailySnapshot) state.DailySnapshot {
	s.Pct = min(100, max(0, s.Pct))
	s.PagesRead = max(0, s.PagesRead)
	return s
}

func readFirstNonSpaceByte(r *bufio.Reader) ([]byte, byte, error) {
	var prefix []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && len(prefix) == 0 {
				return nil, 0, io.EOF
			}
			return prefix, 0, err
		}
		prefix = append(prefix, b)
		if !isSpaceByte(b) {
			return prefix, b, nil
		}
	}
}

func isSpaceByte(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}
