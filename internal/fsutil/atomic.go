// Package fsutil contains the small file primitives shared by storage and
// backup: crash-safe writes, side copies and quarantine of broken files.
package fsutil

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// QuarantineLayout is the timestamp suffix used for quarantined files.
const QuarantineLayout = "20060102-150405"

// WriteFileAtomic replaces path with data. The bytes go to a temp file in
// the same directory which is fsynced and then renamed over path, so
// readers see either the old or the new content.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err = tmp.Chmod(perm); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpPath, err)
	}
	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("fsync %s: %w", tmpPath, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err = replace(tmpPath, path); err != nil {
		return err
	}
	syncDir(dir)
	return nil
}

// replace renames src over dst. Windows refuses to rename onto an existing
// file, so there the destination is removed first.
func replace(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if runtime.GOOS == "windows" {
		if rmErr := os.Remove(dst); rmErr == nil || os.IsNotExist(rmErr) {
			if err = os.Rename(src, dst); err == nil {
				return nil
			}
		}
	}
	return fmt.Errorf("rename %s -> %s: %w", src, dst, err)
}

// BackupFile copies the current content of path to path+".bak". A missing
// source is not an error.
func BackupFile(path string, perm os.FileMode) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	return WriteFileAtomic(path+".bak", data, perm)
}

// Quarantine moves a broken file aside to path.corrupt.<timestamp> and
// returns the new name.
func Quarantine(path string, at time.Time) (string, error) {
	dst := fmt.Sprintf("%s.corrupt.%s", path, at.Format(QuarantineLayout))
	if err := os.Rename(path, dst); err != nil {
		return "", fmt.Errorf("quarantine %s: %w", path, err)
	}
	return dst, nil
}

// CopyFile copies src to dst atomically with the given permissions.
func CopyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	return WriteFileAtomic(dst, data, perm)
}

// Digest fingerprints file content so writers can recognise their own
// changes when a watcher reports them.
func Digest(data []byte) [sha256.Size]byte {
	return sha256.Sum256(data)
}

func syncDir(dir string) {
	f, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = f.Sync()
	_ = f.Close()
}
