package domain

import (
	"fmt"
	"math"
)

// Hyperparameters is the training configuration of the decision tree.
// Field names follow the training backend request body.
type Hyperparameters struct {
	Criterion           string  `json:"criterion" yaml:"criterion" mapstructure:"criterion"`
	MaxDepth            int     `json:"max_depth" yaml:"max_depth" mapstructure:"max_depth"`
	MinSamplesSplit     int     `json:"min_samples_split" yaml:"min_samples_split" mapstructure:"min_samples_split"`
	MinSamplesLeaf      int     `json:"min_samples_leaf" yaml:"min_samples_leaf" mapstructure:"min_samples_leaf"`
	MinImpurityDecrease float64 `json:"min_impurity_decrease" yaml:"min_impurity_decrease" mapstructure:"min_impurity_decrease"`
	RandomState         bool    `json:"random_state" yaml:"random_state" mapstructure:"random_state"`
}

// DefaultHyperparameters mirrors the defaults of the tree initialization form.
func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{
		Criterion:       CriterionGini,
		MaxDepth:        20,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		RandomState:     true,
	}
}

// maxIntParameter bounds the integer hyperparameters.
const maxIntParameter = math.MaxInt32

// Apply returns a copy of h with the adjustment applied.
// Values must be finite. Integer parameters reject fractional values and
// values beyond maxIntParameter.
func (h Hyperparameters) Apply(adj ParameterAdjustment) (Hyperparameters, error) {
	if math.IsNaN(adj.Value) || math.IsInf(adj.Value, 0) {
		if !adj.Parameter.Valid() {
			return h, fmt.Errorf("%w: %q", ErrUnknownParameter, adj.Parameter)
		}
		return h, fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidHyperparameters, adj.Parameter, adj.Value)
	}
	out := h
	switch adj.Parameter {
	case ParamMinImpurityDecrease:
		out.MinImpurityDecrease = adj.Value
		return out, nil
	case ParamMaxDepth, ParamMinSamplesSplit, ParamMinSamplesLeaf:
		if adj.Value != math.Trunc(adj.Value) {
			return h, fmt.Errorf("%w: %s must be an integer, got %v", ErrInvalidHyperparameters, adj.Parameter, adj.Value)
		}
		if math.Abs(adj.Value) > maxIntParameter {
			return h, fmt.Errorf("%w: %s out of range, got %v", ErrInvalidHyperparameters, adj.Parameter, adj.Value)
		}
		v := int(adj.Value)
		switch adj.Parameter {
		case ParamMaxDepth:
			out.MaxDepth = v
		case ParamMinSamplesSplit:
			out.MinSamplesSplit = v
		case ParamMinSamplesLeaf:
			out.MinSamplesLeaf = v
		}
		return out, nil
	}
	return h, fmt.Errorf("%w: %q", ErrUnknownParameter, adj.Parameter)
}

// Validate enforces the minimums accepted by the training backend.
func (h Hyperparameters) Validate() error {
	switch {
	case h.Criterion != CriterionGini && h.Criterion != CriterionEntropy:
		return fmt.Errorf("%w: criterion %q", ErrInvalidHyperparameters, h.Criterion)
	case h.MaxDepth < 1:
		return fmt.Errorf("%w: max_depth must be >= 1, got %d", ErrInvalidHyperparameters, h.MaxDepth)
	case h.MinSamplesSplit < 2:
		return fmt.Errorf("%w: min_samples_split must be >= 2, got %d", ErrInvalidHyperparameters, h.MinSamplesSplit)
	case h.MinSamplesLeaf < 1:
		return fmt.Errorf("%w: min_samples_leaf must be >= 1, got %d", ErrInvalidHyperparameters, h.MinSamplesLeaf)
	case math.IsNaN(h.MinImpurityDecrease) || math.IsInf(h.MinImpurityDecrease, 0):
		return fmt.Errorf("%w: min_impurity_decrease must be finite, got %v", ErrInvalidHyperparameters, h.MinImpurityDecrease)
	case h.MinImpurityDecrease < 0:
		return fmt.Errorf("%w: min_impurity_decrease must be >= 0, got %v", ErrInvalidHyperparameters, h.MinImpurityDecrease)
	}
	return nil
}

// FeatureImportance is a feature name with its importance score.
type FeatureImportance struct {
	Feature string  `json:"feature"`
	Score   float64 `json:"score"`
}

// TrainingSummary is what the training backend reports after fitting a tree.
type TrainingSummary struct {
	ClassLabels       []string            `json:"class_labels" mapstructure:"class_labels"`
	ConfusionMatrix   [][]int             `json:"confusion_matrix" mapstructure:"confusion_matrix"`
	ImportantFeatures []FeatureImportance `json:"important_features" mapstructure:"-"`
}
