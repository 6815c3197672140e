/*
Package treetrim drives the pruning of a trained decision tree, one node at a time.

The user inspects a node, states why it is undesirable, and treetrim turns that
reason into a single hyperparameter change that is committed by retraining the
model. The tree itself is never edited: a trim is always "change a parameter
and retrain".

# Concept

The Workflow is a small state machine with three phases:

  - idle: no node is active.
  - inspecting: a node is active and the applicable trim reasons are offered.
  - staged: one adjustment is pending and the retrain affordance is enabled.

Rendering is left to the host (a web view, a TUI, an agent). The host feeds
node snapshots and user gestures in, and reads the WorkflowState back out. The
retrain itself goes through a ports.RetrainGateway supplied by the host; the
pkg/gateway package provides one backed by a training HTTP service.

# Usage

	gw := gateway.New(memory.NewParameterStore(), trainer.New("http://localhost:5000"))
	wf, err := treetrim.New(gw.For("iris"))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := wf.SelectNode(ctx, node); err != nil {
		log.Fatal(err)
	}
	for _, r := range wf.State().OfferedReasons {
		fmt.Println(r.ID, r.DisplayText)
	}
	if err := wf.SelectReason(ctx, domain.ReasonLimitDepth); err != nil {
		log.Fatal(err)
	}
	if err := wf.ConfirmRetrain(ctx); err != nil {
		log.Fatal(err)
	}

# Reasons

Leaf nodes are offered "Not enough samples in leaf" (min_samples_leaf = samples + 1)
and "I want to limit the tree to this depth" (max_depth = depth). Internal nodes are
offered "Not enough samples to split" (min_samples_split = samples + 1), the depth
limit, and "This node doesn't improve the tree enough" (min_impurity_decrease =
weighted impurity decrease). The root node cannot be trimmed.
*/
package treetrim
