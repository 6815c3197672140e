/*
Package ports defines the driven ports (interfaces) of the trimming workflow.

These interfaces decouple the core logic from external implementations, allowing
the workflow to work with various training backends and storage backends.

# Key Interfaces

  - RetrainGateway: Applies a staged adjustment and triggers a retrain (host supplied).
  - Trainer: Fits a tree with a full hyperparameter set (e.g. over HTTP).
  - StateStore: Persists WorkflowState per session for multi-user hosts.
  - ParameterStore: Holds the current hyperparameters adjustments are applied to.
  - DistributedLocker: Provides distributed locking for concurrent session access.
*/
package ports
