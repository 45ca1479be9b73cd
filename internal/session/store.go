package session

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// markerValue is the content of an authenticated marker file.
const markerValue = "authenticated\n"

// FileStore keeps the flag as a marker file.
type FileStore struct {
	fs   afero.Fs
	path string
}

// NewFileStore returns a FileStore writing the marker at path on fsys.
func NewFileStore(fsys afero.Fs, path string) *FileStore {
	return &FileStore{fs: fsys, path: path}
}

// Load reports whether the marker exists and holds the authenticated value.
func (s *FileStore) Load() (bool, error) {
	b, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", s.path, err)
	}
	return strings.TrimSpace(string(b)) == strings.TrimSpace(markerValue), nil
}

// Save writes or removes the marker.
func (s *FileStore) Save(authenticated bool) error {
	if !authenticated {
		err := s.fs.Remove(s.path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", s.path, err)
		}
		return nil
	}
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(s.path), err)
	}
	return afero.WriteFile(s.fs, s.path, []byte(markerValue), 0o600)
}

// MemoryStore keeps the flag in memory.
type MemoryStore struct {
	mu sync.Mutex
	ok bool
}

// Load returns the stored flag.
func (s *MemoryStore) Load() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ok, nil
}

// Save stores the flag.
func (s *MemoryStore) Save(authenticated bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ok = authenticated
	return nil
}
