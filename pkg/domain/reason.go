package domain

// ReasonID is the stable identifier of a trim reason.
// Behavior is keyed on the identifier, never on the display text.
type ReasonID string

const (
	ReasonInsufficientLeafSamples      ReasonID = "insufficient_leaf_samples"
	ReasonInsufficientSplitSamples     ReasonID = "insufficient_split_samples"
	ReasonLimitDepth                   ReasonID = "limit_depth"
	ReasonInsufficientImpurityDecrease ReasonID = "insufficient_impurity_decrease"
)

// Applicability tells which kind of node a reason can be offered for.
type Applicability string

const (
	AppliesToLeaf     Applicability = "leaf"
	AppliesToInternal Applicability = "internal"
	AppliesToBoth     Applicability = "both"
)

// Matches reports whether a node with the given leaf status accepts the reason.
func (a Applicability) Matches(isLeaf bool) bool {
	switch a {
	case AppliesToBoth:
		return true
	case AppliesToLeaf:
		return isLeaf
	case AppliesToInternal:
		return !isLeaf
	}
	return false
}

// TrimReason is a static catalog entry.
type TrimReason struct {
	ID          ReasonID      `json:"id" yaml:"id"`
	DisplayText string        `json:"display_text" yaml:"display_text"`
	AppliesTo   Applicability `json:"applies_to" yaml:"applies_to"`
}

// ParameterAdjustment is a single hyperparameter change awaiting confirmation.
type ParameterAdjustment struct {
	Parameter Parameter `json:"parameter" yaml:"parameter"`
	Value     float64   `json:"value" yaml:"value"`
}
