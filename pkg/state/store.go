// Package state persists the engine's full snapshot as a single JSON
// document, written atomically (temp file + rename) so the document is
// never observed half-written.
package state

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store reads and writes one JSON snapshot document.
type Store struct {
	Path string
}

// NewStore creates a store for the given snapshot path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Load reads the snapshot into v. A missing file yields ok=false with no
// error. An unreadable or unparseable file also yields ok=false, but the
// error is returned so callers can warn instead of silently starting fresh;
// the corrupt file itself is left in place.
func (s *Store) Load(v any) (bool, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read state file: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parse state file: %w", err)
	}
	return true, nil
}

// Save writes v as the full snapshot document. The document is marshaled,
// written to a temp file in the same directory, and renamed over the target.
func (s *Store) Save(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename state file: %w", err)
	}
	return nil
}

// CacheDir returns the auxiliary cache directory that sits next to the
// state file.
func (s *Store) CacheDir() string {
	return filepath.Join(filepath.Dir(s.Path), "cache")
}

// ClearCacheFiles removes every file inside the auxiliary cache directory.
// A missing directory is fine; individual removal failures are collected.
func (s *Store) ClearCacheFiles() error {
	dir := s.CacheDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read cache directory: %w", err)
	}
	var firstErr error
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
