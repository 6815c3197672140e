package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/treetrim/pkg/domain"
)

// LoggingHooks logs every lifecycle event at Info (Warn for rejections).
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	log := func(ctx context.Context, e *domain.Event) {
		attrs := []any{"phase", e.Phase, "node_id", e.NodeID, "depth", e.Depth, "leaf", e.Leaf}
		if e.Reason != "" {
			attrs = append(attrs, "reason", e.Reason)
		}
		if e.Adjustment != nil {
			attrs = append(attrs, "parameter", e.Adjustment.Parameter, "value", e.Adjustment.Value)
		}
		if e.Type == domain.EventRejected {
			attrs = append(attrs, "op", e.Operation, "err", e.Err)
			logger.WarnContext(ctx, string(e.Type), attrs...)
			return
		}
		logger.InfoContext(ctx, string(e.Type), attrs...)
	}
	return domain.LifecycleHooks{
		OnNodeSelected: log,
		OnReasonStaged: log,
		OnRetrain:      log,
		OnCancel:       log,
		OnRejected:     log,
	}
}
