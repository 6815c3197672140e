package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/treetrim/pkg/catalog"
	"github.com/aretw0/treetrim/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func leaf(depth, samples int) domain.NodeSnapshot {
	return domain.NodeSnapshot{
		Depth:             depth,
		IsLeaf:            true,
		Impurity:          domain.Impurity{Metric: "gini", Value: 0},
		SampleCount:       samples,
		ClassDistribution: []domain.ClassCount{{Label: "a", Count: samples}},
	}
}

func internal(depth, samples int, decrease float64) domain.NodeSnapshot {
	return domain.NodeSnapshot{
		Depth:                      depth,
		Split:                      &domain.Split{Feature: "x", Threshold: 1.5},
		Impurity:                   domain.Impurity{Metric: "gini", Value: 0.4},
		WeightedImpurityDecrease:   ptr(decrease),
		PercentageImpurityDecrease: ptr(12),
		SampleCount:                samples,
		ClassDistribution:          []domain.ClassCount{{Label: "a", Count: samples - 1}, {Label: "b", Count: 1}},
	}
}

func ids(reasons []domain.TrimReason) []domain.ReasonID {
	out := make([]domain.ReasonID, len(reasons))
	for i, r := range reasons {
		out[i] = r.ID
	}
	return out
}

func TestReasonsFor(t *testing.T) {
	c := catalog.Default()

	assert.Equal(t, []domain.ReasonID{
		domain.ReasonInsufficientLeafSamples,
		domain.ReasonLimitDepth,
	}, ids(c.ReasonsFor(true)))

	assert.Equal(t, []domain.ReasonID{
		domain.ReasonInsufficientSplitSamples,
		domain.ReasonLimitDepth,
		domain.ReasonInsufficientImpurityDecrease,
	}, ids(c.ReasonsFor(false)))
}

func TestRuleFor_Table(t *testing.T) {
	c := catalog.Default()

	tests := []struct {
		name   string
		reason domain.ReasonID
		node   domain.NodeSnapshot
		want   domain.ParameterAdjustment
	}{
		{"leaf samples", domain.ReasonInsufficientLeafSamples, leaf(4, 7),
			domain.ParameterAdjustment{Parameter: domain.ParamMinSamplesLeaf, Value: 8}},
		{"depth on internal", domain.ReasonLimitDepth, internal(3, 40, 0.1),
			domain.ParameterAdjustment{Parameter: domain.ParamMaxDepth, Value: 3}},
		{"depth on leaf", domain.ReasonLimitDepth, leaf(5, 2),
			domain.ParameterAdjustment{Parameter: domain.ParamMaxDepth, Value: 5}},
		{"split samples", domain.ReasonInsufficientSplitSamples, internal(2, 10, 0.1),
			domain.ParameterAdjustment{Parameter: domain.ParamMinSamplesSplit, Value: 11}},
		{"impurity decrease", domain.ReasonInsufficientImpurityDecrease, internal(2, 10, 0.0375),
			domain.ParameterAdjustment{Parameter: domain.ParamMinImpurityDecrease, Value: 0.0375}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.RuleFor(tt.reason, tt.node)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRuleFor_Errors(t *testing.T) {
	c := catalog.Default()

	_, err := c.RuleFor("prune_everything", leaf(1, 1))
	assert.ErrorIs(t, err, domain.ErrUnknownReason)

	_, err = c.RuleFor(domain.ReasonInsufficientSplitSamples, leaf(1, 1))
	assert.ErrorIs(t, err, domain.ErrInapplicableReason)

	_, err = c.RuleFor(domain.ReasonInsufficientImpurityDecrease, leaf(1, 1))
	assert.ErrorIs(t, err, domain.ErrInapplicableReason)

	_, err = c.RuleFor(domain.ReasonInsufficientLeafSamples, internal(1, 5, 0.1))
	assert.ErrorIs(t, err, domain.ErrInapplicableReason)

	broken := internal(1, 5, 0)
	broken.WeightedImpurityDecrease = nil
	_, err = c.RuleFor(domain.ReasonInsufficientImpurityDecrease, broken)
	assert.ErrorIs(t, err, domain.ErrInvalidSnapshot)
}

func TestNew_Validation(t *testing.T) {
	rule := func(domain.NodeSnapshot) (domain.ParameterAdjustment, error) { return domain.ParameterAdjustment{}, nil }

	_, err := catalog.New(catalog.Entry{Reason: domain.TrimReason{ID: "a"}})
	assert.Error(t, err, "missing rule")

	_, err = catalog.New(
		catalog.Entry{Reason: domain.TrimReason{ID: "a"}, Rule: rule},
		catalog.Entry{Reason: domain.TrimReason{ID: "a"}, Rule: rule},
	)
	assert.Error(t, err, "duplicate id")
}

func TestWithDisplayText(t *testing.T) {
	base := catalog.Default()

	localized, err := base.WithDisplayText(map[domain.ReasonID]string{
		domain.ReasonLimitDepth: "Limiter l'arbre à cette profondeur",
	})
	require.NoError(t, err)

	r, ok := localized.Lookup(domain.ReasonLimitDepth)
	require.True(t, ok)
	assert.Equal(t, "Limiter l'arbre à cette profondeur", r.DisplayText)

	// Base catalog untouched and behavior identical
	r, _ = base.Lookup(domain.ReasonLimitDepth)
	assert.Equal(t, "I want to limit the tree to this depth", r.DisplayText)

	adj, err := localized.RuleFor(domain.ReasonLimitDepth, leaf(2, 3))
	require.NoError(t, err)
	assert.Equal(t, domain.ParamMaxDepth, adj.Parameter)

	_, err = base.WithDisplayText(map[domain.ReasonID]string{"nope": "x"})
	assert.ErrorIs(t, err, domain.ErrUnknownReason)
}

func TestLoadDisplayText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reasons.yaml")
	content := "display_text:\n  limit_depth: \"Stop here\"\n  insufficient_leaf_samples: \"Leaf too small\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	overrides, err := catalog.LoadDisplayText(path)
	require.NoError(t, err)
	assert.Equal(t, "Stop here", overrides[domain.ReasonLimitDepth])
	assert.Equal(t, "Leaf too small", overrides[domain.ReasonInsufficientLeafSamples])

	_, err = catalog.LoadDisplayText(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
