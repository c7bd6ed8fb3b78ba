package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// TempFilePrefix is the prefix used for temporary atomic write files.
	// The watcher ignores files carrying it.
	TempFilePrefix = "notestate-tmp-"
)

func isTempFile(name string) bool {
	return strings.HasPrefix(filepath.Base(name), TempFilePrefix)
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it over filename, creating parent directories as needed.
// It returns the modification time of the written file.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) (time.Time, error) {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return time.Time{}, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, TempFilePrefix+"*")
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return time.Time{}, fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return time.Time{}, fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return time.Time{}, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpFile.Name(), perm); err != nil {
		return time.Time{}, fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), filename); err != nil {
		return time.Time{}, fmt.Errorf("failed to rename temp file to %s: %w", filename, err)
	}

	info, err := os.Stat(filename)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
