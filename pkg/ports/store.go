package ports

import (
	"context"

	"github.com/aretw0/treetrim/pkg/domain"
)

// StateStore defines the interface for persisting workflow state.
// This lets stateless hosts (HTTP, MCP) serve many sessions.
type StateStore interface {
	// Save persists the state for a given session ID.
	Save(ctx context.Context, sessionID string, state *domain.WorkflowState) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.WorkflowState, error)

	// Delete removes the state for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of stored sessions.
	List(ctx context.Context) ([]string, error)
}

// ParameterStore holds the hyperparameters of the model being trimmed.
type ParameterStore interface {
	// Load returns domain.ErrParametersNotFound if nothing is stored under key.
	Load(ctx context.Context, key string) (domain.Hyperparameters, error)
	Save(ctx context.Context, key string, params domain.Hyperparameters) error
}
