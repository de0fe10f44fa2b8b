package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ramadan/internal/state"
)

// CSVImporter reads a table of past days, one row per day, for people who
// kept track in a spreadsheet. DATE is required. PCT, QURAN, AZKAR,
// DHIKR (or SUBHA), QIYAM and PAGES are optional; booleans accept
// yes/no, true/false, 1/0, x and ✓.
type CSVImporter struct{}

// Name returns the importer name.
func (c *CSVImporter) Name() string {
	return "csv"
}

// Parse reads the CSV input.
func (c *CSVImporter) Parse(reader io.Reader) (*Batch, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty input")
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff") // UTF-8 BOM from spreadsheet exports
		}
		colIndex[strings.ToUpper(strings.TrimSpace(col))] = i
	}
	if _, ok := colIndex["DATE"]; !ok {
		return nil, fmt.Errorf("missing required column: DATE")
	}
	if _, ok := colIndex["DHIKR"]; !ok {
		if idx, ok := colIndex["SUBHA"]; ok {
			colIndex["DHIKR"] = idx
		}
	}

	b := &Batch{Days: map[string]state.DailySnapshot{}}
	row := 1
	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", row, err)
		}

		field := func(name string) string {
			if idx, ok := colIndex[name]; ok && idx < len(record) {
				return strings.TrimSpace(record[idx])
			}
			return ""
		}

		date := field("DATE")
		if date == "" {
			continue
		}
		if !state.IsValidDate(date) {
			b.Errors = append(b.Errors, fmt.Sprintf("row %d: invalid date %q", row, date))
			continue
		}

		snap, err := parseRow(field)
		if err != nil {
			b.Errors = append(b.Errors, fmt.Sprintf("row %d: %v", row, err))
			continue
		}
		b.Days[date] = snap
	}
	return b, nil
}

func parseRow(field func(string) string) (state.DailySnapshot, error) {
	var snap state.DailySnapshot
	var err error

	if snap.Pct, err = parseCount(field("PCT")); err != nil {
		return snap, fmt.Errorf("PCT: %w", err)
	}
	if snap.PagesRead, err = parseCount(field("PAGES")); err != nil {
		return snap, fmt.Errorf("PAGES: %w", err)
	}
	snap.Quran = parseBool(field("QURAN"))
	snap.Azkar = parseBool(field("AZKAR"))
	snap.Subha = parseBool(field("DHIKR"))
	snap.Qiyam = parseBool(field("QIYAM"))
	return normalizeSnapshot(snap), nil
}

// parseCount reads a non-negative integer. "75%" is accepted for PCT.
func parseCount(v string) (int, error) {
	v = strings.TrimSuffix(v, "%")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", v)
	}
	if n < 0 {
		return 0, fmt.Errorf("%q is negative", v)
	}
	return n, nil
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "yes", "y", "true", "1", "x", "✓", "✔":
		return true
	default:
		return false
	}
}
