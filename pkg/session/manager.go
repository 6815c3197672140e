package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/treetrim/internal/logging"
	"github.com/aretw0/treetrim/internal/workflow"
	"github.com/aretw0/treetrim/pkg/domain"
	"github.com/aretw0/treetrim/pkg/ports"
	"github.com/google/uuid"
)

// lockEntry is the in-process lock of one session, dropped once unused.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager owns the trim sessions of a server. Each operation loads the
// session's WorkflowState, runs it through a controller and saves the result
// while holding that session's lock.
type Manager struct {
	store   ports.StateStore
	gateway ports.RetrainGateway
	ctlOpts []workflow.Option

	mu    sync.Mutex // guards locks
	locks map[string]*lockEntry

	locker   ports.DistributedLocker
	lockTTL  time.Duration
	onChange func(*domain.StateDiff)
	logger   *slog.Logger
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLocker also takes a cross-replica lock around every operation.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the lease of the distributed lock (default 30s).
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithControllerOptions passes options (catalog, hooks, logger) to every
// controller the Manager rehydrates.
func WithControllerOptions(opts ...workflow.Option) Option {
	return func(m *Manager) {
		m.ctlOpts = append(m.ctlOpts, opts...)
	}
}

// OnChange registers a callback invoked with the diff of every state change.
// It runs while the session lock is held.
func OnChange(fn func(*domain.StateDiff)) Option {
	return func(m *Manager) {
		m.onChange = fn
	}
}

// NewManager keeps sessions in store. gateway is handed to every controller
// and receives confirmed trims.
func NewManager(store ports.StateStore, gateway ports.RetrainGateway, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		gateway: gateway,
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire returns the session's entry with one more reference.
// Callers lock entry.mu and call release once unlocked.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.locks[sessionID]
	if !ok {
		e = &lockEntry{}
		m.locks[sessionID] = e
	}
	e.refs++
	return e
}

// release drops a reference.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.locks[sessionID]; ok {
		if e.refs--; e.refs <= 0 {
			delete(m.locks, sessionID)
		}
	}
}

// Create starts a new idle session and returns its ID.
func (m *Manager) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		if err := m.store.Save(ctx, id, &domain.WorkflowState{}); err != nil {
			return fmt.Errorf("create session %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	m.logger.Debug("session created", "session_id", id)
	return id, nil
}

// Get returns the current state of a session.
func (m *Manager) Get(ctx context.Context, sessionID string) (domain.WorkflowState, error) {
	var state domain.WorkflowState
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		ctl, err := m.load(ctx, sessionID)
		if err != nil {
			return err
		}
		state = ctl.State()
		return nil
	})
	return state, err
}

// Do runs fn against the session's controller and persists the outcome.
// When fn fails nothing is saved, and the returned state is the unchanged one.
//
// A failed save after a confirm cannot take back the retrain the gateway
// already received: the stored session stays staged, and confirming it again
// retrains a second time. Do logs that case at Error level with the staged
// change so operators can reconcile.
func (m *Manager) Do(ctx context.Context, sessionID string, fn func(context.Context, *workflow.Controller) error) (domain.WorkflowState, error) {
	var out domain.WorkflowState
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		ctl, err := m.load(ctx, sessionID)
		if err != nil {
			return err
		}
		before := ctl.State()

		if err := fn(ctx, ctl); err != nil {
			out = ctl.State()
			return err
		}

		after := ctl.State()
		if err := m.store.Save(ctx, sessionID, &after); err != nil {
			out = before
			if before.Staged != nil && after.ActiveNode == nil {
				m.logger.Error("retrain issued but session not saved, stored session is still staged",
					"session_id", sessionID,
					"parameter", before.Staged.Parameter,
					"value", before.Staged.Value,
					"err", err)
			}
			return fmt.Errorf("save session %s: %w", sessionID, err)
		}
		out = after

		if m.onChange != nil {
			if diff := domain.Diff(sessionID, &before, &after); diff != nil {
				m.onChange(diff)
			}
		}
		return nil
	})
	return out, err
}

func (m *Manager) load(ctx context.Context, sessionID string) (*workflow.Controller, error) {
	stored, err := m.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	return workflow.FromState(m.gateway, *stored, m.ctlOpts...)
}

// Delete discards a session. Deleting an unknown session is not an error.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if err := m.store.Delete(ctx, sessionID); err != nil {
			return fmt.Errorf("delete session %s: %w", sessionID, err)
		}
		return nil
	})
}

// List returns the IDs of the stored sessions.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store exposes the StateStore sessions are kept in.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// WithLock runs fn while holding the session's lock, and the distributed
// lock too when one is configured.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	e := m.acquire(sessionID)
	e.mu.Lock()
	defer func() {
		e.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("lock session %s: %w", sessionID, err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("session unlock failed, lock expires with its ttl",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
