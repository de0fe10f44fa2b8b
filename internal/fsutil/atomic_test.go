package fsutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteFileAtomic_ReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	if err := WriteFileAtomic(path, []byte("one"), 0600); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("two"), 0600); err != nil {
		t.Fatalf("second write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "two" {
		t.Fatalf("content = %q, want %q", data, "two")
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "state.json")
	if err := WriteFileAtomic(path, []byte("x"), 0600); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestBackupFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	if err := BackupFile(path, 0600); err != nil {
		t.Fatalf("backup of missing file: %v", err)
	}
	if _, err := os.Stat(path + ".bak"); !os.IsNotExist(err) {
		t.Fatalf("unexpected .bak for missing source")
	}

	if err := os.WriteFile(path, []byte(`{"a":1}`), 0600); err != nil {
		t.Fatal(err)
	}
	if err := BackupFile(path, 0600); err != nil {
		t.Fatalf("backup: %v", err)
	}
	data, err := os.ReadFile(path + ".bak")
	if err != nil || string(data) != `{"a":1}` {
		t.Fatalf("bak = %q, %v", data, err)
	}
}

func TestQuarantine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	if err := os.WriteFile(path, []byte("garbage"), 0600); err != nil {
		t.Fatal(err)
	}

	at := time.Date(2026, 3, 1, 4, 5, 6, 0, time.UTC)
	dst, err := Quarantine(path, at)
	if err != nil {
		t.Fatalf("Quarantine: %v", err)
	}
	if want := path + ".corrupt.20260301-040506"; dst != want {
		t.Fatalf("dst = %q, want %q", dst, want)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("original still present")
	}
}

func TestCopyFileAndDigest(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a")
	dst := filepath.Join(dir, "b")
	if err := os.WriteFile(src, []byte("payload"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := CopyFile(src, dst, 0600); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	a, _ := os.ReadFile(src)
	b, _ := os.ReadFile(dst)
	if Digest(a) != Digest(b) {
		t.Fatal("digests differ after copy")
	}
	if Digest([]byte("x")) == Digest([]byte("y")) {
		t.Fatal("digest collision on different input")
	}
}
