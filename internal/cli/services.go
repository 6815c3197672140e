package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/treetrim/internal/config"
	"github.com/aretw0/treetrim/internal/workflow"
	"github.com/aretw0/treetrim/pkg/adapters/file"
	httpAdapter "github.com/aretw0/treetrim/pkg/adapters/http"
	"github.com/aretw0/treetrim/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/treetrim/pkg/adapters/redis"
	"github.com/aretw0/treetrim/pkg/adapters/trainer"
	"github.com/aretw0/treetrim/pkg/catalog"
	"github.com/aretw0/treetrim/pkg/domain"
	"github.com/aretw0/treetrim/pkg/gateway"
	"github.com/aretw0/treetrim/pkg/observability"
	"github.com/aretw0/treetrim/pkg/ports"
	"github.com/aretw0/treetrim/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	backend "github.com/redis/go-redis/v9"
)

// Services is the object graph shared by the serve and mcp commands.
type Services struct {
	Config     config.Config
	Logger     *slog.Logger
	Catalog    *catalog.Catalog
	States     ports.StateStore
	Parameters ports.ParameterStore
	Gateway    *gateway.Gateway
	Registry   *prometheus.Registry
	Metrics    *observability.Metrics
	Streams    *httpAdapter.StreamManager
	Sessions   *session.Manager

	closers []func() error
}

// NewServices wires stores, trainer, gateway, metrics and sessions from cfg.
// Hyperparameters from cfg seed the parameter store when none are stored yet.
func NewServices(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Services, error) {
	s := &Services{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}
	s.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	s.Metrics = observability.NewMetrics(s.Registry)
	s.Streams = httpAdapter.NewStreamManager(logger)

	cat, err := LoadCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	s.Catalog = cat

	var locker ports.DistributedLocker
	switch cfg.Store.Kind {
	case "memory":
		s.States = memory.NewStore()
		s.Parameters = memory.NewParameterStore()
	case "file":
		base := cfg.Store.Path
		if base == "" {
			base = ".treetrim"
		}
		s.States = file.New(filepath.Join(base, "sessions"))
		s.Parameters = file.NewParameterStore(filepath.Join(base, "parameters"))
	case "redis":
		rc := cfg.Store.Redis
		client := backend.NewClient(&backend.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", rc.Addr, err)
		}
		s.closers = append(s.closers, client.Close)

		prefix := rc.Prefix
		if prefix == "" {
			prefix = "treetrim:"
		}
		opts := []redisAdapter.Option{redisAdapter.WithPrefix(prefix + "session:")}
		if rc.TTL > 0 {
			opts = append(opts, redisAdapter.WithTTL(rc.TTL))
		}
		s.States = redisAdapter.NewFromClient(client, opts...)
		s.Parameters = redisAdapter.NewParameterStore(client, prefix+"params:")
		locker = redisAdapter.NewLocker(client, prefix)
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}

	if err := seedParameters(ctx, s.Parameters, cfg.Model, cfg.Hyperparameters); err != nil {
		_ = s.Close()
		return nil, err
	}

	s.Gateway = gateway.New(s.Parameters, newTrainer(cfg.Trainer, logger),
		gateway.WithDefaults(cfg.Hyperparameters),
		gateway.WithTimeout(cfg.Trainer.RetrainTimeout),
		gateway.WithLogger(logger),
		gateway.OnResult(func(res gateway.RetrainResult) {
			s.Metrics.ObserveRetrain(res.Duration, res.Err)
		}),
	)

	sessionOpts := []session.Option{
		session.WithLogger(logger),
		session.OnChange(s.Streams.Publish),
		session.WithControllerOptions(
			workflow.WithCatalog(s.Catalog),
			workflow.WithLogger(logger),
			workflow.WithLifecycleHooks(domain.CombineHooks(s.Metrics.Hooks(), observability.LoggingHooks(logger))),
		),
	}
	if locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(locker), session.WithLockTTL(cfg.Store.LockTTL))
	}
	s.Sessions = session.NewManager(s.States, s.Gateway.For(cfg.Model), sessionOpts...)

	logger.Debug("services ready", "store", cfg.Store.Kind, "model", cfg.Model, "trainer", cfg.Trainer.URL)
	return s, nil
}

// Close waits for in-flight retrains, then releases connections.
func (s *Services) Close() error {
	if s.Gateway != nil {
		s.Gateway.Wait()
	}
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func newTrainer(cfg config.Trainer, logger *slog.Logger) ports.Trainer {
	if cfg.URL == "" {
		logger.Warn("no trainer url configured, retrains are dry runs")
		return trainer.DryRun{Logger: logger}
	}
	opts := []trainer.Option{trainer.WithLogger(logger)}
	if cfg.Timeout > 0 {
		opts = append(opts, trainer.WithTimeout(cfg.Timeout))
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		opts = append(opts, trainer.WithRateLimit(cfg.RateLimit, burst))
	}
	return trainer.New(cfg.URL, opts...)
}

// LoadCatalog returns the default catalog with the configured display text.
func LoadCatalog(cfg config.Catalog) (*catalog.Catalog, error) {
	cat := catalog.Default()
	if cfg.DisplayText == "" {
		return cat, nil
	}
	text, err := catalog.LoadDisplayText(cfg.DisplayText)
	if err != nil {
		return nil, err
	}
	return cat.WithDisplayText(text)
}

func seedParameters(ctx context.Context, store ports.ParameterStore, key string, params domain.Hyperparameters) error {
	_, err := store.Load(ctx, key)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrParametersNotFound) {
		return fmt.Errorf("load parameters for %q: %w", key, err)
	}
	if err := store.Save(ctx, key, params); err != nil {
		return fmt.Errorf("seed parameters for %q: %w", key, err)
	}
	return nil
}
