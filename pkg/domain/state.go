package domain

// Phase is the position of the workflow in its state machine.
type Phase string

const (
	PhaseIdle       Phase = "idle"       // No active node
	PhaseInspecting Phase = "inspecting" // Active node, reasons on display
	PhaseStaged     Phase = "staged"     // Active node with one staged adjustment
)

// WorkflowState is the snapshot of the trimming workflow.
// It is owned by the controller; everything handed out is a copy.
type WorkflowState struct {
	// ActiveNode is the node under inspection, nil when idle.
	ActiveNode *NodeSnapshot `json:"active_node,omitempty"`

	// OfferedReasons are the catalog entries applicable to ActiveNode.
	OfferedReasons []TrimReason `json:"offered_reasons"`

	// Staged is the pending change. Only set while ActiveNode is set.
	Staged *ParameterAdjustment `json:"staged,omitempty"`

	// StagedReason is the reason that produced Staged.
	StagedReason ReasonID `json:"staged_reason,omitempty"`
}

// Phase derives the state machine position.
func (s WorkflowState) Phase() Phase {
	switch {
	case s.ActiveNode == nil:
		return PhaseIdle
	case s.Staged == nil:
		return PhaseInspecting
	default:
		return PhaseStaged
	}
}

// RetrainEnabled reports whether the retrain affordance should be shown.
func (s WorkflowState) RetrainEnabled() bool {
	return s.Staged != nil
}

// Trimmable reports whether the active node may be trimmed at all.
// The root is never trimmable.
func (s WorkflowState) Trimmable() bool {
	return s.ActiveNode != nil && !s.ActiveNode.IsRoot()
}

// Clone returns a deep copy of the state.
func (s WorkflowState) Clone() WorkflowState {
	out := WorkflowState{StagedReason: s.StagedReason}
	if s.ActiveNode != nil {
		n := s.ActiveNode.Clone()
		out.ActiveNode = &n
	}
	if s.OfferedReasons != nil {
		out.OfferedReasons = make([]TrimReason, len(s.OfferedReasons))
		copy(out.OfferedReasons, s.OfferedReasons)
	}
	if s.Staged != nil {
		adj := *s.Staged
		out.Staged = &adj
	}
	return out
}
