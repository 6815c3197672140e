package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/treetrim/internal/config"
	"github.com/aretw0/treetrim/internal/logging"
	"github.com/aretw0/treetrim/internal/workflow"
	"github.com/aretw0/treetrim/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServices(t *testing.T, cfg config.Config) *Services {
	t.Helper()
	svc, err := NewServices(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func stagedSession(t *testing.T, svc *Services) string {
	t.Helper()
	ctx := context.Background()
	id, err := svc.Sessions.Create(ctx)
	require.NoError(t, err)

	node, err := decodeFixture(internalNodeJSON)
	require.NoError(t, err)
	_, err = svc.Sessions.Do(ctx, id, func(ctx context.Context, c *workflow.Controller) error {
		if err := c.SelectNode(ctx, node); err != nil {
			return err
		}
		return c.SelectReason(ctx, domain.ReasonLimitDepth)
	})
	require.NoError(t, err)
	return id
}

func TestNewServices_Stores(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name  string
		setup func(cfg *config.Config)
	}{
		{"memory", func(cfg *config.Config) {}},
		{"file", func(cfg *config.Config) {
			cfg.Store.Kind = "file"
			cfg.Store.Path = t.TempDir()
		}},
		{"redis", func(cfg *config.Config) {
			cfg.Store.Kind = "redis"
			cfg.Store.Redis.Addr = mr.Addr()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Model = "iris-" + tt.name
			cfg.Hyperparameters.MaxDepth = 5
			tt.setup(&cfg)
			svc := newServices(t, cfg)
			ctx := context.Background()

			seeded, err := svc.Parameters.Load(ctx, cfg.Model)
			require.NoError(t, err, "configured hyperparameters are seeded")
			assert.Equal(t, 5, seeded.MaxDepth)

			id := stagedSession(t, svc)
			state, err := svc.Sessions.Do(ctx, id, func(ctx context.Context, c *workflow.Controller) error {
				return c.ConfirmRetrain(ctx)
			})
			require.NoError(t, err)
			assert.Equal(t, domain.PhaseIdle, state.Phase())

			svc.Gateway.Wait()
			res, ok := svc.Gateway.LastResult(cfg.Model)
			require.True(t, ok)
			require.NoError(t, res.Err)
			assert.Equal(t, 2, res.Parameters.MaxDepth)

			stored, err := svc.Parameters.Load(ctx, cfg.Model)
			require.NoError(t, err)
			assert.Equal(t, 2, stored.MaxDepth)
		})
	}
}

func TestNewServices_DoesNotOverwriteStoredParameters(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Kind = "file"
	cfg.Store.Path = t.TempDir()
	cfg.Hyperparameters.MaxDepth = 9

	svc := newServices(t, cfg)
	p := cfg.Hyperparameters
	p.MaxDepth = 3
	require.NoError(t, svc.Parameters.Save(context.Background(), cfg.Model, p))
	require.NoError(t, svc.Close())

	again := newServices(t, cfg)
	got, err := again.Gateway.Parameters(context.Background(), cfg.Model)
	require.NoError(t, err)
	assert.Equal(t, 3, got.MaxDepth)
}

func TestNewServices_RedisUnreachable(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Kind = "redis"
	cfg.Store.Redis.Addr = "127.0.0.1:1"

	_, err := NewServices(context.Background(), cfg, logging.NewNop())
	assert.ErrorContains(t, err, "connect to redis")
}

func TestNewServices_DisplayText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reasons.yaml")
	require.NoError(t, os.WriteFile(path, []byte("display_text:\n  limit_depth: Stop here\n"), 0o644))

	cfg := config.Default()
	cfg.Catalog.DisplayText = path
	svc := newServices(t, cfg)

	r, ok := svc.Catalog.Lookup(domain.ReasonLimitDepth)
	require.True(t, ok)
	assert.Equal(t, "Stop here", r.DisplayText)
}

func TestNewHTTPHandler_ServesMetrics(t *testing.T) {
	svc := newServices(t, config.Default())
	stagedSession(t, svc)

	h, err := NewHTTPHandler(svc)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `treetrim_reasons_staged_total{reason="limit_depth"} 1`), w.Body.String())
}
