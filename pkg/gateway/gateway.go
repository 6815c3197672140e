// Package gateway provides the default ports.RetrainGateway.
//
// Adjustments are applied to hyperparameters held in a ports.ParameterStore;
// a retrain fits a new tree with the stored set through a ports.Trainer in
// the background. One Gateway serves many models, each bound with For.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/treetrim/internal/logging"
	"github.com/aretw0/treetrim/pkg/domain"
	"github.com/aretw0/treetrim/pkg/ports"
)

// RetrainResult is reported once a background retrain settles.
type RetrainResult struct {
	Key        string
	Parameters domain.Hyperparameters
	Summary    *domain.TrainingSummary
	Err        error
	Duration   time.Duration
}

// Gateway applies adjustments and runs retrains.
type Gateway struct {
	store    ports.ParameterStore
	trainer  ports.Trainer
	defaults domain.Hyperparameters
	timeout  time.Duration
	onResult func(RetrainResult)
	logger   *slog.Logger

	// mu serializes load-apply-save of the stored parameters.
	mu   sync.Mutex
	wg   sync.WaitGroup
	last sync.Map // key -> RetrainResult
}

// Option configures the Gateway.
type Option func(*Gateway)

// WithDefaults sets the hyperparameters used for keys that have none stored.
func WithDefaults(h domain.Hyperparameters) Option {
	return func(g *Gateway) {
		g.defaults = h
	}
}

// WithTimeout bounds each background retrain.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.timeout = d
	}
}

// OnResult registers a callback invoked from the retrain goroutine.
func OnResult(fn func(RetrainResult)) Option {
	return func(g *Gateway) {
		g.onResult = fn
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a Gateway.
func New(store ports.ParameterStore, trainer ports.Trainer, opts ...Option) *Gateway {
	g := &Gateway{
		store:    store,
		trainer:  trainer,
		defaults: domain.DefaultHyperparameters(),
		timeout:  2 * time.Minute,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// For returns a RetrainGateway bound to the model identified by key.
func (g *Gateway) For(key string) ports.RetrainGateway {
	return &binding{g: g, key: key}
}

// Parameters returns the stored hyperparameters for key, or the defaults.
func (g *Gateway) Parameters(ctx context.Context, key string) (domain.Hyperparameters, error) {
	p, err := g.store.Load(ctx, key)
	if errors.Is(err, domain.ErrParametersNotFound) {
		return g.defaults, nil
	}
	if err != nil {
		return domain.Hyperparameters{}, err
	}
	return p, nil
}

// LastResult returns the most recent settled retrain for key.
func (g *Gateway) LastResult(key string) (RetrainResult, bool) {
	v, ok := g.last.Load(key)
	if !ok {
		return RetrainResult{}, false
	}
	return v.(RetrainResult), true
}

// Wait blocks until all in-flight retrains have settled.
func (g *Gateway) Wait() {
	g.wg.Wait()
}

func (g *Gateway) apply(ctx context.Context, key string, p domain.Parameter, v float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	current, err := g.Parameters(ctx, key)
	if err != nil {
		return err
	}
	next, err := current.Apply(domain.ParameterAdjustment{Parameter: p, Value: v})
	if err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	if err := g.store.Save(ctx, key, next); err != nil {
		return fmt.Errorf("failed to save parameters: %w", err)
	}

	g.logger.Debug("adjustment applied", "model", key, "parameter", p, "value", v)
	return nil
}

func (g *Gateway) retrain(ctx context.Context, key string) error {
	params, err := g.Parameters(ctx, key)
	if err != nil {
		return err
	}

	// The retrain outlives the request that confirmed it.
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer cancel()

		start := time.Now()
		summary, err := g.trainer.Train(bg, params)
		res := RetrainResult{
			Key:        key,
			Parameters: params,
			Summary:    summary,
			Err:        err,
			Duration:   time.Since(start),
		}

		if err != nil {
			g.logger.Error("retrain failed", "model", key, "err", err, "duration", res.Duration)
		} else {
			g.logger.Info("retrain finished", "model", key, "duration", res.Duration)
		}

		g.last.Store(key, res)
		if g.onResult != nil {
			g.onResult(res)
		}
	}()
	return nil
}

type binding struct {
	g   *Gateway
	key string
}

func (b *binding) ApplyAdjustment(ctx context.Context, p domain.Parameter, v float64) error {
	return b.g.apply(ctx, b.key, p, v)
}

func (b *binding) Retrain(ctx context.Context) error {
	return b.g.retrain(ctx, b.key)
}
