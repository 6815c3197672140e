package treetrim

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/treetrim/internal/logging"
	"github.com/aretw0/treetrim/internal/workflow"
	"github.com/aretw0/treetrim/pkg/catalog"
	"github.com/aretw0/treetrim/pkg/domain"
	"github.com/aretw0/treetrim/pkg/ports"
	"github.com/aretw0/treetrim/pkg/snapshot"
)

// Workflow is the high-level entry point for the treetrim library.
// It wraps the internal controller and serializes calls, so a single Workflow
// can be shared by the goroutines of one host (e.g. an MCP server).
type Workflow struct {
	mu  sync.Mutex
	ctl *workflow.Controller

	catalog     *catalog.Catalog
	displayText map[domain.ReasonID]string
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
}

// Option defines a functional option for configuring the Workflow.
type Option func(*Workflow)

// WithCatalog replaces the built-in reason catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(w *Workflow) {
		w.catalog = c
	}
}

// WithDisplayText overrides the text shown for catalog reasons.
func WithDisplayText(text map[domain.ReasonID]string) Option {
	return func(w *Workflow) {
		w.displayText = text
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(w *Workflow) {
		w.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the workflow.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

// New initializes an idle Workflow that commits trims through gateway.
func New(gateway ports.RetrainGateway, opts ...Option) (*Workflow, error) {
	if gateway == nil {
		return nil, fmt.Errorf("retrain gateway is required")
	}

	w := &Workflow{}
	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logging.NewNop()
	}
	if w.catalog == nil {
		w.catalog = catalog.Default()
	}
	if len(w.displayText) > 0 {
		c, err := w.catalog.WithDisplayText(w.displayText)
		if err != nil {
			return nil, fmt.Errorf("invalid display text: %w", err)
		}
		w.catalog = c
	}

	w.ctl = workflow.New(gateway,
		workflow.WithCatalog(w.catalog),
		workflow.WithLifecycleHooks(w.hooks),
		workflow.WithLogger(w.logger),
	)
	return w, nil
}

// SelectNode makes node the active node, dropping any staged change.
// Check State().Trimmable() before offering to trim: the root lists reasons
// but cannot be trimmed.
func (w *Workflow) SelectNode(ctx context.Context, node domain.NodeSnapshot) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ctl.SelectNode(ctx, node)
}

// SelectNodePayload decodes a visualizer payload (see pkg/snapshot) and selects it.
func (w *Workflow) SelectNodePayload(ctx context.Context, payload map[string]any) error {
	node, err := snapshot.Decode(payload)
	if err != nil {
		return err
	}
	return w.SelectNode(ctx, node)
}

// SelectReason stages the adjustment for the given reason, replacing any prior one.
func (w *Workflow) SelectReason(ctx context.Context, id domain.ReasonID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ctl.SelectReason(ctx, id)
}

// ConfirmRetrain commits the staged adjustment and returns to idle.
func (w *Workflow) ConfirmRetrain(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ctl.ConfirmRetrain(ctx)
}

// Cancel drops the staged adjustment, keeping the active node.
func (w *Workflow) Cancel(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ctl.Cancel(ctx)
}

// State returns a copy of the current state for rendering.
func (w *Workflow) State() domain.WorkflowState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ctl.State()
}

// Restore replaces the current state with a stored one.
func (w *Workflow) Restore(state domain.WorkflowState) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ctl.Restore(state)
}

// Catalog returns the reason catalog, including display text overrides.
func (w *Workflow) Catalog() *catalog.Catalog {
	return w.catalog
}
