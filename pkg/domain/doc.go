/*
Package domain contains the core domain models of the tree trimming workflow.

It describes the node being inspected, the reasons a user may give for trimming
it, the hyperparameter change each reason produces, and the workflow state
owned by the controller. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - NodeSnapshot: Read-only statistics of the node currently inspected.
  - TrimReason: A catalog entry explaining why a node is undesirable.
  - ParameterAdjustment: The single pending hyperparameter change ("staged").
  - WorkflowState: Active node, offered reasons and staged change.
  - Hyperparameters: The training vocabulary an adjustment is applied to.
*/
package domain
