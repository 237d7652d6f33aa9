package source

import (
	"context"
	"sync"

	"github.com/pable/go-football-metrics/internal/model"
)

// MemoryStore keeps timelines for the life of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[int]model.Timeline
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[int]model.Timeline)}
}

// LoadEvents implements Store.
func (s *MemoryStore) LoadEvents(_ context.Context, matchID int) (model.Timeline, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tl, ok := s.events[matchID]
	return tl, ok, nil
}

// SaveEvents implements Store.
func (s *MemoryStore) SaveEvents(_ context.Context, matchID int, events model.Timeline) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[matchID] = events
	return nil
}
