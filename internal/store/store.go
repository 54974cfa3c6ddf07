// Package store persists automations as a single JSON document on disk.
// The whole collection is the unit of durability: it is loaded once at
// startup and rewritten wholesale after every mutation.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"autoflow/internal/models"
)

// ErrCorrupt reports that the data file exists but cannot be parsed. It is
// surfaced at startup instead of silently resetting to an empty collection,
// which would lose data.
var ErrCorrupt = errors.New("automation store: corrupt data file")

// Store owns the in-memory automation map and keeps it consistent with the
// data file. Mutations hold the write lock across "mutate map + persist", so
// concurrent creates and deletes are individually atomic.
type Store struct {
	path string

	mu          sync.RWMutex
	automations map[string]models.Automation
}

// New opens the store at path, loading the full collection. A missing file
// yields an empty store; an unparseable one fails with ErrCorrupt.
func New(path string) (*Store, error) {
	s := &Store{
		path:        path,
		automations: make(map[string]models.Automation),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}

	var loaded map[string]models.Automation
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	if loaded != nil {
		s.automations = loaded
	}
	return nil
}

// Get returns the automation for id and whether it exists.
func (s *Store) Get(id string) (models.Automation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.automations[id]
	return a, ok
}

// List returns a snapshot of all stored automations.
func (s *Store) List() []models.Automation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Automation, 0, len(s.automations))
	for _, a := range s.automations {
		out = append(out, a)
	}
	return out
}

// Len reports the number of stored automations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.automations)
}

// Put inserts or replaces the automation keyed by its ID and persists the
// collection. On persist failure the in-memory map is rolled back.
func (s *Store) Put(a models.Automation) error {
	if a.ID == "" {
		return fmt.Errorf("automation store: empty id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.automations[a.ID]
	s.automations[a.ID] = a
	if err := s.persistLocked(); err != nil {
		if existed {
			s.automations[a.ID] = prev
		} else {
			delete(s.automations, a.ID)
		}
		return err
	}
	return nil
}

// Delete removes id and persists the collection. It reports whether the id
// was present; deleting an absent id is not an error.
func (s *Store) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.automations[id]
	if !ok {
		return false, nil
	}
	delete(s.automations, id)
	if err := s.persistLocked(); err != nil {
		s.automations[id] = prev
		return false, err
	}
	return true, nil
}

// persistLocked rewrites the data file via temp file + rename, so a reader of
// the previous snapshot never observes a half-written document. Callers must
// hold the write lock.
func (s *Store) persistLocked() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	data, err := json.MarshalIndent(s.automations, "", "  ")
	if err != nil {
		return fmt.Errorf("encode automations: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".automations-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
