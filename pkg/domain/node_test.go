package domain_test

import (
	"math"
	"testing"

	"github.com/aretw0/treetrim/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestNodeSnapshot_Summary(t *testing.T) {
	dec := 0.1234567
	pct := 25.5
	internal := domain.NodeSnapshot{
		Depth:                      1,
		Split:                      &domain.Split{Feature: "petal_length", Threshold: 2.45},
		Impurity:                   domain.Impurity{Metric: "gini", Value: 0.5},
		WeightedImpurityDecrease:   &dec,
		PercentageImpurityDecrease: &pct,
		SampleCount:                100,
		ClassDistribution:          []domain.ClassCount{{Label: "setosa", Count: 50}, {Label: "versicolor", Count: 50}},
	}

	assert.Equal(t, []string{
		"Depth: 1",
		"petal_length >= 2.45",
		"gini = 0.5",
		"Impurity decrease: 0.12346 (25.5%)",
		"Number of samples: 100",
		"[setosa: 50, versicolor: 50]",
	}, internal.Summary())

	leaf := domain.NodeSnapshot{
		Depth:             3,
		IsLeaf:            true,
		Impurity:          domain.Impurity{Metric: "entropy", Value: 0},
		SampleCount:       7,
		ClassDistribution: []domain.ClassCount{{Label: "0", Count: 7}},
	}
	assert.Equal(t, []string{
		"Depth: 3",
		"entropy = 0",
		"Number of samples: 7",
		"[0: 7]",
	}, leaf.Summary())
}

func TestHyperparameters_Apply(t *testing.T) {
	base := domain.DefaultHyperparameters()

	tests := []struct {
		name    string
		adj     domain.ParameterAdjustment
		want    func(h domain.Hyperparameters) bool
		wantErr error
	}{
		{"max depth", domain.ParameterAdjustment{Parameter: domain.ParamMaxDepth, Value: 3}, func(h domain.Hyperparameters) bool { return h.MaxDepth == 3 }, nil},
		{"min samples split", domain.ParameterAdjustment{Parameter: domain.ParamMinSamplesSplit, Value: 11}, func(h domain.Hyperparameters) bool { return h.MinSamplesSplit == 11 }, nil},
		{"min samples leaf", domain.ParameterAdjustment{Parameter: domain.ParamMinSamplesLeaf, Value: 8}, func(h domain.Hyperparameters) bool { return h.MinSamplesLeaf == 8 }, nil},
		{"min impurity decrease", domain.ParameterAdjustment{Parameter: domain.ParamMinImpurityDecrease, Value: 0.05}, func(h domain.Hyperparameters) bool { return h.MinImpurityDecrease == 0.05 }, nil},
		{"fractional integer", domain.ParameterAdjustment{Parameter: domain.ParamMaxDepth, Value: 2.5}, nil, domain.ErrInvalidHyperparameters},
		{"unknown parameter", domain.ParameterAdjustment{Parameter: "max_leaf_nodes", Value: 2}, nil, domain.ErrUnknownParameter},
		{"NaN decrease", domain.ParameterAdjustment{Parameter: domain.ParamMinImpurityDecrease, Value: math.NaN()}, nil, domain.ErrInvalidHyperparameters},
		{"infinite depth", domain.ParameterAdjustment{Parameter: domain.ParamMaxDepth, Value: math.Inf(1)}, nil, domain.ErrInvalidHyperparameters},
		{"depth out of range", domain.ParameterAdjustment{Parameter: domain.ParamMaxDepth, Value: 1e300}, nil, domain.ErrInvalidHyperparameters},
		{"samples out of range", domain.ParameterAdjustment{Parameter: domain.ParamMinSamplesLeaf, Value: -1e19}, nil, domain.ErrInvalidHyperparameters},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := base.Apply(tt.adj)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, base, got)
				return
			}
			assert.NoError(t, err)
			assert.True(t, tt.want(got))
		})
	}
}

func TestHyperparameters_Validate(t *testing.T) {
	assert.NoError(t, domain.DefaultHyperparameters().Validate())

	bad := domain.DefaultHyperparameters()
	bad.MinSamplesSplit = 1
	assert.ErrorIs(t, bad.Validate(), domain.ErrInvalidHyperparameters)

	bad = domain.DefaultHyperparameters()
	bad.Criterion = "mse"
	assert.ErrorIs(t, bad.Validate(), domain.ErrInvalidHyperparameters)

	bad = domain.DefaultHyperparameters()
	bad.MaxDepth = 0
	assert.ErrorIs(t, bad.Validate(), domain.ErrInvalidHyperparameters)

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -0.5} {
		bad = domain.DefaultHyperparameters()
		bad.MinImpurityDecrease = v
		assert.ErrorIs(t, bad.Validate(), domain.ErrInvalidHyperparameters, "min_impurity_decrease %v", v)
	}
}
