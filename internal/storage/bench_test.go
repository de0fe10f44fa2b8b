package storage

import (
	"fmt"
	"testing"
	"time"

	"ramadan/internal/state"
)

func createBenchStorage(b *testing.B) *Storage {
	b.Helper()
	store, err := New(b.TempDir())
	if err != nil {
		b.Fatalf("failed to create bench storage: %v", err)
	}
	return store
}

// stateWithHistory builds a state carrying the given number of archived days.
func stateWithHistory(days int) *state.AppState {
	st := state.Default()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)
	for i := 0; i < days; i++ {
		date := state.DateString(start.AddDate(0, 0, i))
		st.DailyHistory[date] = state.DailySnapshot{Pct: i % 101, PagesRead: i % 21}
	}
	return st
}

// BenchmarkSaveState measures a full atomic write with backup.
func BenchmarkSaveState(b *testing.B) {
	for _, days := range []int{0, 30, 365} {
		b.Run(fmt.Sprintf("history_%d", days), func(b *testing.B) {
			store := createBenchStorage(b)
			st := stateWithHistory(days)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := store.SaveState(st, state.Change{Kind: "bench"}); err != nil {
					b.Fatalf("SaveState failed: %v", err)
				}
			}
		})
	}
}

// BenchmarkLoadState measures read plus defensive decode.
func BenchmarkLoadState(b *testing.B) {
	for _, days := range []int{0, 30, 365} {
		b.Run(fmt.Sprintf("history_%d", days), func(b *testing.B) {
			store := createBenchStorage(b)
			if err := store.SaveState(stateWithHistory(days), state.Change{}); err != nil {
				b.Fatal(err)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := store.LoadState(); err != nil {
					b.Fatalf("LoadState failed: %v", err)
				}
			}
		})
	}
}
