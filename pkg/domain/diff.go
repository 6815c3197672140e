package domain

import (
	"reflect"
)

// StateDiff represents the changes between two workflow states.
// It is designed to be serialized to JSON for partial updates on the View.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	Phase *Phase `json:"phase,omitempty"`

	// ActiveNode is set when a (different) node became active.
	// NodeCleared is set when the workflow went back to idle.
	ActiveNode  *NodeSnapshot `json:"active_node,omitempty"`
	NodeCleared bool          `json:"node_cleared,omitempty"`

	// OfferedReasons is sent whenever the offered list changed.
	OfferedReasons []TrimReason `json:"offered_reasons,omitempty"`

	// Staged is set when an adjustment was staged or replaced.
	// StagedCleared is set when the staged adjustment was dropped.
	Staged        *ParameterAdjustment `json:"staged,omitempty"`
	StagedReason  ReasonID             `json:"staged_reason,omitempty"`
	StagedCleared bool                 `json:"staged_cleared,omitempty"`

	RetrainEnabled *bool `json:"retrain_enabled,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, the diff describes the entire newState (initial load).
// It returns nil when nothing changed.
func Diff(sessionID string, oldState, newState *WorkflowState) *StateDiff {
	if newState == nil {
		return nil
	}
	if oldState == nil {
		oldState = &WorkflowState{}
	}

	diff := &StateDiff{SessionID: sessionID}

	if oldState.Phase() != newState.Phase() {
		p := newState.Phase()
		diff.Phase = &p
	}

	switch {
	case newState.ActiveNode == nil && oldState.ActiveNode != nil:
		diff.NodeCleared = true
	case newState.ActiveNode != nil && !reflect.DeepEqual(oldState.ActiveNode, newState.ActiveNode):
		n := newState.ActiveNode.Clone()
		diff.ActiveNode = &n
	}

	if !reflect.DeepEqual(oldState.OfferedReasons, newState.OfferedReasons) && len(newState.OfferedReasons) > 0 {
		diff.OfferedReasons = append([]TrimReason(nil), newState.OfferedReasons...)
	}

	switch {
	case newState.Staged == nil && oldState.Staged != nil:
		diff.StagedCleared = true
	case newState.Staged != nil && (!reflect.DeepEqual(oldState.Staged, newState.Staged) || oldState.StagedReason != newState.StagedReason):
		adj := *newState.Staged
		diff.Staged = &adj
		diff.StagedReason = newState.StagedReason
	}

	if oldState.RetrainEnabled() != newState.RetrainEnabled() {
		enabled := newState.RetrainEnabled()
		diff.RetrainEnabled = &enabled
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.Phase == nil &&
		d.ActiveNode == nil &&
		!d.NodeCleared &&
		len(d.OfferedReasons) == 0 &&
		d.Staged == nil &&
		!d.StagedCleared &&
		d.RetrainEnabled == nil
}
