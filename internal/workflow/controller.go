// Package workflow implements the node trim state machine.
//
// A Controller moves between three phases:
//
//	idle --SelectNode--> inspecting --SelectReason--> staged --ConfirmRetrain--> idle
//
// SelectNode is accepted from any phase and always restarts the workflow for
// the given node. Cancel drops the staged change and keeps the node.
// Every rejected operation leaves the state untouched.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/treetrim/internal/logging"
	"github.com/aretw0/treetrim/pkg/catalog"
	"github.com/aretw0/treetrim/pkg/domain"
	"github.com/aretw0/treetrim/pkg/ports"
	"github.com/aretw0/treetrim/pkg/snapshot"
)

// Controller holds the WorkflowState of a single inspection session.
// It is not safe for concurrent use; hosts serialize calls (see pkg/session).
type Controller struct {
	catalog *catalog.Catalog
	gateway ports.RetrainGateway
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	now     func() time.Time

	state domain.WorkflowState
}

// Option configures a Controller.
type Option func(*Controller)

// WithCatalog replaces the built-in reason catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(ctl *Controller) {
		if c != nil {
			ctl.catalog = c
		}
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(ctl *Controller) {
		ctl.hooks = h
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(ctl *Controller) {
		if l != nil {
			ctl.logger = l
		}
	}
}

// WithClock sets the time source used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(ctl *Controller) {
		if now != nil {
			ctl.now = now
		}
	}
}

// New creates an idle controller that commits through gateway.
func New(gateway ports.RetrainGateway, opts ...Option) *Controller {
	c := &Controller{
		catalog: catalog.Default(),
		gateway: gateway,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromState creates a controller rehydrated from a stored state.
func FromState(gateway ports.RetrainGateway, state domain.WorkflowState, opts ...Option) (*Controller, error) {
	c := New(gateway, opts...)
	if err := c.Restore(state); err != nil {
		return nil, err
	}
	return c, nil
}

// Catalog returns the reason catalog in use.
func (c *Controller) Catalog() *catalog.Catalog {
	return c.catalog
}

// State returns a copy of the current state.
func (c *Controller) State() domain.WorkflowState {
	return c.state.Clone()
}

// SelectNode makes node the active node from any phase.
// Offered reasons are recomputed and any staged change is dropped,
// including when the same node is selected again.
// A root node is still offered reasons but SelectReason rejects them, so
// views should check State().Trimmable() before showing the trim affordance.
func (c *Controller) SelectNode(ctx context.Context, node domain.NodeSnapshot) error {
	if err := snapshot.Validate(node); err != nil {
		return c.reject(ctx, "select_node", err)
	}

	n := node.Clone()
	c.state = domain.WorkflowState{
		ActiveNode:     &n,
		OfferedReasons: c.catalog.ReasonsFor(n.IsLeaf),
	}

	c.logger.Debug("node selected",
		"node_id", n.ID,
		"depth", n.Depth,
		"leaf", n.IsLeaf,
		"offered", len(c.state.OfferedReasons))

	c.emit(ctx, c.hooks.OnNodeSelected, &domain.Event{Type: domain.EventNodeSelected})
	return nil
}

// SelectReason stages the adjustment produced by the reason for the active node.
// A previously staged change is replaced.
func (c *Controller) SelectReason(ctx context.Context, id domain.ReasonID) error {
	if c.state.ActiveNode == nil {
		return c.reject(ctx, "select_reason", fmt.Errorf("%w: select a node before reason %q", domain.ErrNoActiveNode, id))
	}
	if c.state.ActiveNode.IsRoot() {
		return c.reject(ctx, "select_reason", domain.ErrRootNotTrimmable)
	}

	adj, err := c.catalog.RuleFor(id, *c.state.ActiveNode)
	if err != nil {
		return c.reject(ctx, "select_reason", err)
	}

	c.state.Staged = &adj
	c.state.StagedReason = id

	c.logger.Debug("reason staged",
		"node_id", c.state.ActiveNode.ID,
		"reason", id,
		"parameter", adj.Parameter,
		"value", adj.Value)

	c.emit(ctx, c.hooks.OnReasonStaged, &domain.Event{
		Type:       domain.EventReasonStaged,
		Reason:     id,
		Adjustment: &adj,
	})
	return nil
}

// ConfirmRetrain applies the staged adjustment through the gateway, triggers a
// retrain and resets to idle. The retrain itself is not awaited.
//
// If the gateway fails the error is returned and the state is left as is,
// so the same change can be confirmed again.
func (c *Controller) ConfirmRetrain(ctx context.Context) error {
	if c.state.Staged == nil {
		return c.reject(ctx, "confirm_retrain", domain.ErrNothingStaged)
	}
	if c.gateway == nil {
		return c.reject(ctx, "confirm_retrain", errors.New("no retrain gateway configured"))
	}

	adj := *c.state.Staged
	reason := c.state.StagedReason

	if err := c.gateway.ApplyAdjustment(ctx, adj.Parameter, adj.Value); err != nil {
		return c.reject(ctx, "confirm_retrain", fmt.Errorf("apply adjustment: %w", err))
	}
	if err := c.gateway.Retrain(ctx); err != nil {
		return c.reject(ctx, "confirm_retrain", fmt.Errorf("retrain: %w", err))
	}

	// Event carries the node that was trimmed, so build it before the reset.
	evt := c.newEvent(&domain.Event{
		Type:       domain.EventRetrain,
		Reason:     reason,
		Adjustment: &adj,
	})
	c.state = domain.WorkflowState{}
	evt.Phase = c.state.Phase()

	c.logger.Info("retrain requested",
		"node_id", evt.NodeID,
		"reason", reason,
		"parameter", adj.Parameter,
		"value", adj.Value)

	if c.hooks.OnRetrain != nil {
		c.hooks.OnRetrain(ctx, evt)
	}
	return nil
}

// Cancel drops the staged change, keeping the active node.
// From idle it does nothing.
func (c *Controller) Cancel(ctx context.Context) {
	if c.state.Staged == nil {
		return
	}
	reason := c.state.StagedReason
	c.state.Staged = nil
	c.state.StagedReason = ""

	c.logger.Debug("staged change cancelled", "reason", reason)
	c.emit(ctx, c.hooks.OnCancel, &domain.Event{Type: domain.EventCancel, Reason: reason})
}

// Restore replaces the state with a stored one.
// The active node is validated and the offered reasons are recomputed from the
// catalog; a staged change must match what its reason produces for the node.
func (c *Controller) Restore(state domain.WorkflowState) error {
	if state.ActiveNode == nil {
		if state.Staged != nil {
			return fmt.Errorf("%w: staged change without active node", domain.ErrInvalidState)
		}
		c.state = domain.WorkflowState{}
		return nil
	}

	if err := snapshot.Validate(*state.ActiveNode); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidState, err)
	}

	n := state.ActiveNode.Clone()
	next := domain.WorkflowState{
		ActiveNode:     &n,
		OfferedReasons: c.catalog.ReasonsFor(n.IsLeaf),
	}

	if state.Staged != nil {
		if n.IsRoot() {
			return fmt.Errorf("%w: %w", domain.ErrInvalidState, domain.ErrRootNotTrimmable)
		}
		adj, err := c.catalog.RuleFor(state.StagedReason, n)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidState, err)
		}
		if adj != *state.Staged {
			return fmt.Errorf("%w: staged %s=%v does not match reason %q", domain.ErrInvalidState,
				state.Staged.Parameter, state.Staged.Value, state.StagedReason)
		}
		next.Staged = &adj
		next.StagedReason = state.StagedReason
	}

	c.state = next
	return nil
}

func (c *Controller) reject(ctx context.Context, op string, err error) error {
	c.logger.Warn("operation rejected", "op", op, "phase", c.state.Phase(), "err", err)
	c.emit(ctx, c.hooks.OnRejected, &domain.Event{
		Type:      domain.EventRejected,
		Operation: op,
		Err:       err,
	})
	return err
}

func (c *Controller) newEvent(e *domain.Event) *domain.Event {
	e.Timestamp = c.now()
	e.Phase = c.state.Phase()
	if n := c.state.ActiveNode; n != nil {
		e.NodeID = n.ID
		e.Depth = n.Depth
		e.Leaf = n.IsLeaf
	}
	return e
}

func (c *Controller) emit(ctx context.Context, hook func(context.Context, *domain.Event), e *domain.Event) {
	if hook == nil {
		return
	}
	hook(ctx, c.newEvent(e))
}
