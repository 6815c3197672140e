package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/treetrim/pkg/domain"
)

// ParameterStore implements ports.ParameterStore with one JSON file per model key.
type ParameterStore struct {
	BasePath string
}

// NewParameterStore creates a ParameterStore rooted at basePath.
// If basePath is empty, it defaults to ".treetrim/parameters".
func NewParameterStore(basePath string) *ParameterStore {
	if basePath == "" {
		basePath = filepath.Join(".treetrim", "parameters")
	}
	return &ParameterStore{BasePath: basePath}
}

func (s *ParameterStore) path(key string) (string, error) {
	return (&Store{BasePath: s.BasePath}).path(key)
}

// Load returns domain.ErrParametersNotFound if nothing was saved for key.
func (s *ParameterStore) Load(_ context.Context, key string) (domain.Hyperparameters, error) {
	p, err := s.path(key)
	if err != nil {
		return domain.Hyperparameters{}, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Hyperparameters{}, domain.ErrParametersNotFound
		}
		return domain.Hyperparameters{}, fmt.Errorf("failed to read parameters: %w", err)
	}

	var params domain.Hyperparameters
	if err := json.Unmarshal(data, &params); err != nil {
		return domain.Hyperparameters{}, fmt.Errorf("failed to unmarshal parameters: %w", err)
	}
	return params, nil
}

// Save writes the parameters atomically.
func (s *ParameterStore) Save(_ context.Context, key string, params domain.Hyperparameters) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal parameters: %w", err)
	}
	return writeAtomic(s.BasePath, p, data)
}
