package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/treetrim/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// ParameterStore implements ports.ParameterStore with one JSON key per model.
// Keys never expire: the hyperparameters outlive any inspection session.
type ParameterStore struct {
	client backend.UniversalClient
	prefix string
}

// NewParameterStore wraps client. An empty prefix defaults to "treetrim:params:".
func NewParameterStore(client backend.UniversalClient, prefix string) *ParameterStore {
	if prefix == "" {
		prefix = "treetrim:params:"
	}
	return &ParameterStore{client: client, prefix: prefix}
}

// Load returns the hyperparameters stored under key.
func (s *ParameterStore) Load(ctx context.Context, key string) (domain.Hyperparameters, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, backend.Nil) {
		return domain.Hyperparameters{}, domain.ErrParametersNotFound
	}
	if err != nil {
		return domain.Hyperparameters{}, fmt.Errorf("failed to load parameters %s: %w", key, err)
	}
	var p domain.Hyperparameters
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Hyperparameters{}, fmt.Errorf("failed to unmarshal parameters %s: %w", key, err)
	}
	return p, nil
}

// Save replaces the hyperparameters stored under key.
func (s *ParameterStore) Save(ctx context.Context, key string, params domain.Hyperparameters) error {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal parameters: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save parameters %s: %w", key, err)
	}
	return nil
}
