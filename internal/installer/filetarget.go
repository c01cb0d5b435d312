package installer

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileTarget is an update target backed by a regular file. The image is
// staged next to the destination and renamed into place on End, so the
// file at path is either the previous image or a complete new one,
// never a partial write. It stands in for the device's update
// partition on hosts with a filesystem.
type FileTarget struct {
	path     string
	tmp      *os.File
	expected int64
	written  int64
}

// NewFileTarget builds a target writing to path.
func NewFileTarget(path string) *FileTarget {
	return &FileTarget{path: path}
}

// Begin creates the staging file sized for the incoming image.
func (t *FileTarget) Begin(expected int64) error {
	if t.tmp != nil {
		return fmt.Errorf("update already begun for %s", t.path)
	}
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("creating target directory: %w", err)
	}
	f, err := os.Create(t.path + ".tmp")
	if err != nil {
		return fmt.Errorf("creating staging file: %w", err)
	}
	t.tmp = f
	t.expected = expected
	t.written = 0
	return nil
}

func (t *FileTarget) Write(p []byte) (int, error) {
	if t.tmp == nil {
		return 0, fmt.Errorf("write before Begin on %s", t.path)
	}
	n, err := t.tmp.Write(p)
	t.written += int64(n)
	return n, err
}

// End closes the staging file and renames it over the destination.
func (t *FileTarget) End() error {
	if t.tmp == nil {
		return fmt.Errorf("end before Begin on %s", t.path)
	}
	tmpPath := t.tmp.Name()
	closeErr := t.tmp.Close()
	t.tmp = nil
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing staging file: %w", closeErr)
	}
	if t.written != t.expected {
		os.Remove(tmpPath)
		return fmt.Errorf("staged %d bytes, expected %d", t.written, t.expected)
	}
	if err := os.Rename(tmpPath, t.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("finalizing %s: %w", t.path, err)
	}
	return nil
}

// Abort discards the staging file, leaving the destination untouched.
func (t *FileTarget) Abort() {
	if t.tmp == nil {
		return
	}
	tmpPath := t.tmp.Name()
	t.tmp.Close()
	t.tmp = nil
	os.Remove(tmpPath)
}

// Path returns the destination path.
func (t *FileTarget) Path() string { return t.path }
