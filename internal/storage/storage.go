package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store is the sole gateway to durability for the appraisal core.
// Absence is reported as a false ok, never as an error. Callers must
// treat persisted values as untrusted and parse defensively.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// FileStore persists a flat string map as a JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
	data map[string]string
}

// NewFileStore loads (or creates) the backing file at path.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	s := &FileStore{path: path, data: map[string]string{}}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("open store: %w", err)
	}
	// A corrupt or foreign-shaped file starts the store empty rather
	// than failing construction.
	var data map[string]string
	if err := json.Unmarshal(raw, &data); err == nil && data != nil {
		s.data = data
	}
	return s, nil
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return s.saveUnlocked()
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return s.saveUnlocked()
}

func (s *FileStore) saveUnlocked() error {
	out, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	if err := os.WriteFile(s.path, out, 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return nil
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu   sync.Mutex
	data map[string]string

	// FailWrites makes Set and Delete return an error while still
	// applying the mutation, mimicking a full disk after the fact.
	FailWrites bool
}

func NewMemStore() *MemStore {
	return &MemStore{data: map[string]string{}}
}

func (s *MemStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *MemStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	if s.FailWrites {
		return fmt.Errorf("simulated write failure")
	}
	return nil
}

func (s *MemStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	if s.FailWrites {
		return fmt.Errorf("simulated write failure")
	}
	return nil
}
