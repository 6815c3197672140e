package ports

import (
	"context"

	"github.com/aretw0/treetrim/pkg/domain"
)

// RetrainGateway is the capability the controller invokes on confirm.
// The controller calls ApplyAdjustment then Retrain, in that order.
// Retrain may complete asynchronously; the controller does not await it.
type RetrainGateway interface {
	ApplyAdjustment(ctx context.Context, parameter domain.Parameter, value float64) error
	Retrain(ctx context.Context) error
}

// Trainer fits a decision tree with the given hyperparameters.
type Trainer interface {
	Train(ctx context.Context, params domain.Hyperparameters) (*domain.TrainingSummary, error)
}
