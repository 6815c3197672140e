package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/treetrim/pkg/catalog"
	"github.com/aretw0/treetrim/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func internalState(depth int) domain.WorkflowState {
	dec := 0.0421
	return domain.WorkflowState{
		ActiveNode: &domain.NodeSnapshot{
			ID:                       "4",
			Depth:                    depth,
			Split:                    &domain.Split{Feature: "petal_width", Threshold: 1.75},
			Impurity:                 domain.Impurity{Metric: "gini", Value: 0.168},
			WeightedImpurityDecrease: &dec,
			SampleCount:              54,
			ClassDistribution:        []domain.ClassCount{{Label: "versicolor", Count: 49}, {Label: "virginica", Count: 5}},
		},
		OfferedReasons: catalog.Default().ReasonsFor(false),
	}
}

func TestStateMarkdown_Idle(t *testing.T) {
	assert.Equal(t, "_No node selected._\n", StateMarkdown(domain.WorkflowState{}))
}

func TestStateMarkdown_Inspecting(t *testing.T) {
	md := StateMarkdown(internalState(2))

	assert.True(t, strings.HasPrefix(md, "# Node 4\n"))
	assert.Contains(t, md, "- petal_width >= 1.75\n")
	assert.Contains(t, md, "1. Not enough samples to split `insufficient_split_samples`\n")
	assert.Contains(t, md, "3. This node doesn't improve the tree enough")
	assert.NotContains(t, md, "Staged")
}

func TestStateMarkdown_Staged(t *testing.T) {
	s := internalState(2)
	s.Staged = &domain.ParameterAdjustment{Parameter: domain.ParamMaxDepth, Value: 2}
	s.StagedReason = domain.ReasonLimitDepth

	md := StateMarkdown(s)
	assert.Contains(t, md, "`limit_depth` **(selected)**")
	assert.Contains(t, md, "**Staged:** set `max_depth` to `2`")
}

func TestStateMarkdown_Root(t *testing.T) {
	md := StateMarkdown(internalState(0))
	assert.Contains(t, md, "cannot be trimmed")
	assert.NotContains(t, md, "Why trim")
}

func TestNewRenderer_NoTTY(t *testing.T) {
	render, err := NewRenderer("notty")
	require.NoError(t, err)

	out, err := render("# Node 4\n\n- Depth: 2\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Node 4")
	assert.Contains(t, out, "Depth: 2")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|_|  |_|_| |_| |_|")
}

func TestTrainingMarkdown(t *testing.T) {
	p := domain.DefaultHyperparameters()
	p.MaxDepth = 2

	md := TrainingMarkdown(p, &domain.TrainingSummary{
		ClassLabels:       []string{"setosa", "versicolor"},
		ConfusionMatrix:   [][]int{{50, 0}, {1, 49}},
		ImportantFeatures: []domain.FeatureImportance{{Feature: "petal_width", Score: 0.92261}},
	})

	assert.Contains(t, md, "| gini | 2 | 2 | 1 | 0 |")
	assert.Contains(t, md, "| | setosa | versicolor |\n|---|---|---|\n")
	assert.Contains(t, md, "| **versicolor** | 1 | 49 |")
	assert.Contains(t, md, "- petal_width: 0.9226")
}

func TestTrainingMarkdown_NoSummary(t *testing.T) {
	md := TrainingMarkdown(domain.DefaultHyperparameters(), &domain.TrainingSummary{})
	assert.NotContains(t, md, "Confusion")
}
