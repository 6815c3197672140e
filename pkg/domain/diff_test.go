package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func leafNode(depth, samples int) *NodeSnapshot {
	return &NodeSnapshot{
		Depth:             depth,
		IsLeaf:            true,
		Impurity:          Impurity{Metric: "gini", Value: 0},
		SampleCount:       samples,
		ClassDistribution: []ClassCount{{Label: "a", Count: samples}},
	}
}

func TestDiff(t *testing.T) {
	reasons := []TrimReason{{ID: ReasonLimitDepth, AppliesTo: AppliesToBoth}}
	staged := &ParameterAdjustment{Parameter: ParamMaxDepth, Value: 2}

	tests := []struct {
		name  string
		old   *WorkflowState
		new   *WorkflowState
		check func(t *testing.T, d *StateDiff)
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new:  &WorkflowState{ActiveNode: leafNode(2, 5), OfferedReasons: reasons},
			check: func(t *testing.T, d *StateDiff) {
				if d == nil || d.Phase == nil || *d.Phase != PhaseInspecting {
					t.Fatalf("expected phase inspecting, got %+v", d)
				}
				if d.ActiveNode == nil || d.ActiveNode.Depth != 2 {
					t.Errorf("expected active node in diff")
				}
				if len(d.OfferedReasons) != 1 {
					t.Errorf("expected offered reasons in diff")
				}
			},
		},
		{
			name: "No Changes",
			old:  &WorkflowState{ActiveNode: leafNode(2, 5), OfferedReasons: reasons},
			new:  &WorkflowState{ActiveNode: leafNode(2, 5), OfferedReasons: reasons},
			check: func(t *testing.T, d *StateDiff) {
				if d != nil {
					t.Errorf("expected nil diff, got %+v", d)
				}
			},
		},
		{
			name: "Reason Staged",
			old:  &WorkflowState{ActiveNode: leafNode(2, 5), OfferedReasons: reasons},
			new:  &WorkflowState{ActiveNode: leafNode(2, 5), OfferedReasons: reasons, Staged: staged, StagedReason: ReasonLimitDepth},
			check: func(t *testing.T, d *StateDiff) {
				if d.Staged == nil || d.Staged.Value != 2 || d.StagedReason != ReasonLimitDepth {
					t.Errorf("expected staged adjustment, got %+v", d.Staged)
				}
				if d.RetrainEnabled == nil || !*d.RetrainEnabled {
					t.Errorf("expected retrain_enabled=true")
				}
				if d.ActiveNode != nil {
					t.Errorf("node did not change, should not be in diff")
				}
			},
		},
		{
			name: "Reset To Idle",
			old:  &WorkflowState{ActiveNode: leafNode(2, 5), OfferedReasons: reasons, Staged: staged},
			new:  &WorkflowState{},
			check: func(t *testing.T, d *StateDiff) {
				if !d.NodeCleared || !d.StagedCleared {
					t.Errorf("expected node and staged cleared, got %+v", d)
				}
				if d.RetrainEnabled == nil || *d.RetrainEnabled {
					t.Errorf("expected retrain_enabled=false")
				}
				if d.Phase == nil || *d.Phase != PhaseIdle {
					t.Errorf("expected idle phase")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Diff("sess-1", tt.old, tt.new))
		})
	}
}

func TestDiff_JSON(t *testing.T) {
	d := Diff("sess-1", &WorkflowState{}, &WorkflowState{ActiveNode: leafNode(1, 3)})
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, `"session_id":"sess-1"`) {
		t.Errorf("missing session id: %s", s)
	}
	if strings.Contains(s, "staged_cleared") {
		t.Errorf("empty fields should be omitted: %s", s)
	}
}
