package memory

import (
	"context"
	"sync"

	"github.com/aretw0/treetrim/pkg/domain"
)

// ParameterStore implements ports.ParameterStore in memory.
type ParameterStore struct {
	data map[string]domain.Hyperparameters
	mu   sync.RWMutex
}

// NewParameterStore creates an empty store.
func NewParameterStore() *ParameterStore {
	return &ParameterStore{data: make(map[string]domain.Hyperparameters)}
}

// Load returns the hyperparameters stored under key.
func (s *ParameterStore) Load(ctx context.Context, key string) (domain.Hyperparameters, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.data[key]
	if !ok {
		return domain.Hyperparameters{}, domain.ErrParametersNotFound
	}
	return p, nil
}

// Save replaces the hyperparameters stored under key.
func (s *ParameterStore) Save(ctx context.Context, key string, params domain.Hyperparameters) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = params
	return nil
}
