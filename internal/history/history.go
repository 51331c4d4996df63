package history

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/antique-korea/appraiser/internal/models"
	"github.com/antique-korea/appraiser/internal/storage"
)

const key = "appraisal_history"

// Store holds the ordered appraisal history, most recent first. The
// in-memory sequence is the source of truth for the running process; the
// whole sequence is persisted on every mutation. A failed persist is
// reported as a warning and never corrupts in-memory state.
type Store struct {
	mu      sync.RWMutex
	store   storage.Store
	results []models.AppraisalResult
}

// New loads any persisted history from the store. Malformed persisted data
// starts an empty history rather than failing.
func New(store storage.Store) *Store {
	s := &Store{store: store}
	if raw, ok := store.Get(key); ok {
		var results []models.AppraisalResult
		if err := json.Unmarshal([]byte(raw), &results); err != nil {
			slog.Warn("Discarding unreadable appraisal history", "error", err)
		} else {
			s.results = results
		}
	}
	return s
}

// Append prepends result to the history and persists the full sequence.
// The returned error is a persistence warning: the in-memory append has
// already succeeded.
func (s *Store) Append(result models.AppraisalResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = append([]models.AppraisalResult{result}, s.results...)
	return s.saveUnlocked()
}

// All returns the history, most recent first.
func (s *Store) All() []models.AppraisalResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AppraisalResult, len(s.results))
	copy(out, s.results)
	return out
}

// FindByID returns the result with the given id, or ok=false.
func (s *Store) FindByID(id string) (models.AppraisalResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.results {
		if r.ID == id {
			return r, true
		}
	}
	return models.AppraisalResult{}, false
}

// Len returns the number of stored results.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

// Clear removes the entire history. Individual results are never deleted.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = nil
	if err := s.store.Delete(key); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (s *Store) saveUnlocked() error {
	out, err := json.Marshal(s.results)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.store.Set(key, string(out)); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}
