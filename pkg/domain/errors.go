package domain

import "errors"

// ErrUnknownReason is returned when a reason identifier is not in the catalog.
var ErrUnknownReason = errors.New("unknown trim reason")

// ErrInapplicableReason is returned when a reason does not match the node's leaf status.
var ErrInapplicableReason = errors.New("trim reason not applicable to node")

// ErrNoActiveNode is returned when a reason is selected while no node is active.
var ErrNoActiveNode = errors.New("no active node")

// ErrNothingStaged is returned when a retrain is confirmed without a staged adjustment.
var ErrNothingStaged = errors.New("no adjustment staged")

// ErrRootNotTrimmable is returned when a trim reason is selected for the root node.
var ErrRootNotTrimmable = errors.New("root node cannot be trimmed")

// ErrInvalidSnapshot is returned when a node snapshot violates its invariants.
var ErrInvalidSnapshot = errors.New("invalid node snapshot")

// ErrUnknownParameter is returned when an adjustment names a parameter outside the training vocabulary.
var ErrUnknownParameter = errors.New("unknown hyperparameter")

// ErrInvalidHyperparameters is returned when a hyperparameter set is out of range.
var ErrInvalidHyperparameters = errors.New("invalid hyperparameters")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrParametersNotFound is returned when no hyperparameters are stored for a key.
var ErrParametersNotFound = errors.New("hyperparameters not found")

// ErrInvalidState is returned when a stored workflow state cannot be restored.
var ErrInvalidState = errors.New("invalid workflow state")
