package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Staging persists uploaded report files on disk under a base directory,
// one subdirectory per reporting date. Files are fsynced before Save
// returns so consolidation always reads fully-flushed snapshots.
type Staging struct {
	baseDir string
}

// NewStaging ensures the base directory exists and returns a handle.
func NewStaging(baseDir string) (*Staging, error) {
	if baseDir == "" {
		baseDir = "./temp"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	return &Staging{baseDir: baseDir}, nil
}

// Save copies the reader into <base>/<date>/<name> and syncs it to disk.
func (s *Staging) Save(date, name string, r io.Reader) (string, error) {
	dir := filepath.Join(s.baseDir, date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("prepare staging directory: %w", err)
	}

	path := filepath.Join(dir, filepath.Base(name))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}

	if _, err := io.Copy(file, r); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("write staged file: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("sync staged file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close staged file: %w", err)
	}

	return path, nil
}

// Path resolves the absolute location of a staged file.
func (s *Staging) Path(date, name string) string {
	return filepath.Join(s.baseDir, date, filepath.Base(name))
}

// Exists reports whether a staged file is present for a date.
func (s *Staging) Exists(date, name string) bool {
	_, err := os.Stat(s.Path(date, name))
	return err == nil
}

// Cleanup removes the staged files for a reporting date.
func (s *Staging) Cleanup(date string) error {
	if date == "" {
		return nil
	}
	if err := os.RemoveAll(filepath.Join(s.baseDir, date)); err != nil {
		return fmt.Errorf("cleanup staged files: %w", err)
	}
	return nil
}
