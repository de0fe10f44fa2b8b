package storage

import (
	"os"
	"testing"
)

// FuzzLoadState writes arbitrary bytes as the state file and checks that
// loading never panics and always yields a usable state.
func FuzzLoadState(f *testing.F) {
	f.Add([]byte(`{}`))
	f.Add([]byte(``))
	f.Add([]byte(`null`))
	f.Add([]byte(`{"dailyPages": 0, "readingTimes": "x"}`))
	f.Add([]byte(`{"todaySlots":[{"label":"a","done":true}],"readingTimes":[{"label":"a"}]}`))
	f.Add([]byte("\x00\x01\x02"))

	f.Fuzz(func(t *testing.T, data []byte) {
		store := createTestStorage(t)
		if err := os.WriteFile(store.StatePath(), data, 0600); err != nil {
			t.Fatal(err)
		}

		st, _ := store.LoadState()
		if st == nil {
			t.Fatal("LoadState returned nil state")
		}
		if st.DailyPages < 1 {
			t.Fatalf("dailyPages %d", st.DailyPages)
		}

		// Whatever was loaded is now a valid document on disk.
		if _, err := store.ReadState(); err != nil {
			t.Fatalf("ReadState after load: %v", err)
		}
	})
}
