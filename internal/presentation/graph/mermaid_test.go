package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/treetrim/internal/presentation/graph"
	"github.com/aretw0/treetrim/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	dec := 0.0421
	internal := &domain.NodeSnapshot{
		ID:                       "1.4",
		Depth:                    2,
		Split:                    &domain.Split{Feature: "petal_width", Threshold: 1.75},
		Impurity:                 domain.Impurity{Metric: "gini", Value: 0.168},
		WeightedImpurityDecrease: &dec,
		SampleCount:              54,
		ClassDistribution:        []domain.ClassCount{{Label: "versicolor", Count: 49}, {Label: "virginica", Count: 5}},
	}
	leaf := &domain.NodeSnapshot{
		Depth:             3,
		IsLeaf:            true,
		Impurity:          domain.Impurity{Metric: "entropy", Value: 0},
		SampleCount:       12,
		ClassDistribution: []domain.ClassCount{{Label: "virginica", Count: 12}},
	}

	tests := []struct {
		name     string
		state    domain.WorkflowState
		contains []string
		excludes []string
	}{
		{
			name:     "Idle",
			state:    domain.WorkflowState{},
			excludes: []string{"class "},
		},
		{
			name:  "Internal Node Shape",
			state: domain.WorkflowState{ActiveNode: internal},
			contains: []string{
				`node_1_4["Depth: 2<br/>petal_width >= 1.75`,
				`node_1_4 -- "yes" --> node_1_4_left(("..."))`,
				`node_1_4 -- "no" --> node_1_4_right(("..."))`,
				"class node_1_4 current;",
			},
			excludes: []string{"staged"},
		},
		{
			name:  "Leaf Node Shape",
			state: domain.WorkflowState{ActiveNode: leaf},
			contains: []string{
				`node_d3(["Depth: 3<br/>entropy = 0`,
			},
			excludes: []string{"_left"},
		},
		{
			name: "Staged Change",
			state: domain.WorkflowState{
				ActiveNode:   internal,
				Staged:       &domain.ParameterAdjustment{Parameter: domain.ParamMinImpurityDecrease, Value: 0.0421},
				StagedReason: domain.ReasonInsufficientImpurityDecrease,
			},
			contains: []string{
				`node_1_4 -. "insufficient_impurity_decrease" .-> staged[/"min_impurity_decrease = 0.0421"/]`,
				"class staged staged;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.state)
			if !strings.HasPrefix(got, "graph TD\n") {
				t.Errorf("expected flowchart header, got:\n%s", got)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("expected output to contain %q, got:\n%s", want, got)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("expected output not to contain %q, got:\n%s", unwanted, got)
				}
			}
		})
	}
}
