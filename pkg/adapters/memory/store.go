package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/treetrim/pkg/domain"
)

// Store keeps workflow states in a map. States are cloned on the way in and
// out, so callers never share a NodeSnapshot with the store.
type Store struct {
	data map[string]domain.WorkflowState
	mu   sync.RWMutex
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.WorkflowState),
	}
}

// Save stores a copy of state.
func (s *Store) Save(ctx context.Context, sessionID string, state *domain.WorkflowState) error {
	copied := state.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = copied
	return nil
}

// Load returns a copy of the stored state.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.WorkflowState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	out := stored.Clone()
	return &out, nil
}

// Delete forgets a session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns the session IDs in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
