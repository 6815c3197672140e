package trainer

import (
	"context"
	"log/slog"

	"github.com/aretw0/treetrim/pkg/domain"
)

// DryRun is a ports.Trainer that only validates and logs the request.
// It stands in for the service when no trainer URL is configured.
type DryRun struct {
	Logger *slog.Logger
}

// Train returns an empty summary.
func (d DryRun) Train(ctx context.Context, params domain.Hyperparameters) (*domain.TrainingSummary, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if d.Logger != nil {
		d.Logger.InfoContext(ctx, "dry run: training skipped",
			"criterion", params.Criterion,
			"max_depth", params.MaxDepth,
			"min_samples_split", params.MinSamplesSplit,
			"min_samples_leaf", params.MinSamplesLeaf,
			"min_impurity_decrease", params.MinImpurityDecrease)
	}
	return &domain.TrainingSummary{}, nil
}
