// Package prefs is a small key/value preferences store with TOML file
// persistence. The project registry merges loaded archive preferences into
// it and snapshots it back out on save.
package prefs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Store holds preference values in memory. Not internally synchronized;
// it follows the same single-caller model as the registry.
type Store struct {
	values map[string]any
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{values: make(map[string]any)}
}

// Set stores a value under key, replacing any previous value.
func (s *Store) Set(key string, value any) {
	s.values[key] = value
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// All returns a copy of every stored key/value pair.
func (s *Store) All() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Load reads a store from a TOML file. A missing file yields an empty
// store.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewStore(), nil
		}
		return nil, fmt.Errorf("read prefs: %w", err)
	}
	s := NewStore()
	if err := toml.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("read prefs: unmarshal: %w", err)
	}
	return s, nil
}

// Save atomically writes the store to a TOML file via temp + rename.
func (s *Store) Save(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s.values); err != nil {
		return fmt.Errorf("write prefs: encode: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".prefs-tmp-*")
	if err != nil {
		return fmt.Errorf("write prefs: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write prefs: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write prefs: rename: %w", err)
	}
	return nil
}
