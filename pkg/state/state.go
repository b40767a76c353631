// Package state persists small client-side key/value state (last known
// identity, theme preference) across process restarts. An absent key means
// "unset", never an error.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const filePermission = 0o600

// Store is a file-backed JSON key/value store. All methods are safe for
// concurrent use.
type Store struct {
	path string

	mu   sync.Mutex
	data map[string]json.RawMessage
}

// Open loads the store at path. A missing file yields an empty store; the
// file is created on first write.
func Open(path string) (*Store, error) {
	s := &Store{path: path, data: make(map[string]json.RawMessage)}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state: reading %s: %w", path, err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, fmt.Errorf("state: parsing %s: %w", path, err)
		}
	}
	return s, nil
}

// Get unmarshals the value stored under key into dest. It reports whether
// the key was present; an absent key leaves dest untouched.
func (s *Store) Get(key string, dest any) (bool, error) {
	s.mu.Lock()
	raw, ok := s.data[key]
	s.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("state: decoding %q: %w", key, err)
	}
	return true, nil
}

// Set stores value under key and writes the store to disk.
func (s *Store) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("state: encoding %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = raw
	return s.flush()
}

// Delete removes key and writes the store to disk. Deleting an absent key
// is a no-op.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.flush()
}

// flush writes atomically via a temp file rename. Caller holds s.mu.
func (s *Store) flush() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("state: encoding store: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("state: creating %s: %w", dir, err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, filePermission); err != nil {
		return fmt.Errorf("state: writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("state: replacing %s: %w", s.path, err)
	}
	return nil
}
