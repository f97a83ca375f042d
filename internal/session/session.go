// Package session holds the per-session dataset. Each browser session owns at
// most one loaded dataset; uploading a new file replaces it.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/kjstillabower/weather-insights/internal/dataset"
)

// Store is an in-memory session-to-dataset map. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	datasets map[string]*dataset.Dataset
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{datasets: make(map[string]*dataset.Dataset)}
}

// NewID mints a session identifier.
func NewID() string {
	return uuid.New().String()
}

// Put stores the dataset for a session, discarding any previous one.
func (s *Store) Put(id string, ds *dataset.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets[id] = ds
}

// Get returns the session's dataset, or false when none is loaded.
func (s *Store) Get(id string) (*dataset.Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.datasets[id]
	return ds, ok
}

// Delete drops the session's dataset, if any.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.datasets, id)
}
