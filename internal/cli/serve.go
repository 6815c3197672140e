package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpAdapter "github.com/aretw0/treetrim/pkg/adapters/http"
	mcpAdapter "github.com/aretw0/treetrim/pkg/adapters/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// NewHTTPHandler builds the HTTP API over the services.
func NewHTTPHandler(svc *Services) (http.Handler, error) {
	return httpAdapter.NewHandler(httpAdapter.Config{
		Sessions:   svc.Sessions,
		Catalog:    svc.Catalog,
		Parameters: svc.Gateway,
		Model:      svc.Config.Model,
		Streams:    svc.Streams,
		Metrics:    promhttp.HandlerFor(svc.Registry, promhttp.HandlerOpts{}),
		Logger:     svc.Logger,
	})
}

// Serve runs the HTTP API on addr until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, svc *Services, addr string) error {
	handler, err := NewHTTPHandler(svc)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		svc.Logger.Info("treetrim server listening", "address", addr, "store", svc.Config.Store.Kind, "model", svc.Config.Model)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		svc.Logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// SSE streams never end on their own; Close cuts them after the deadline.
		if err := srv.Shutdown(shutdownCtx); err != nil {
			svc.Logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		svc.Logger.Info("treetrim server stopped gracefully")
		return nil
	}
}

// ServeMCP runs the MCP server over stdio or SSE.
func ServeMCP(ctx context.Context, svc *Services, transport, addr string) error {
	srv := mcpAdapter.NewServer(svc.Sessions,
		mcpAdapter.WithCatalog(svc.Catalog),
		mcpAdapter.WithLogger(svc.Logger),
	)

	switch transport {
	case "stdio":
		svc.Logger.Info("starting treetrim MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		return srv.ServeSSE(ctx, addr)
	}
	return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
}
