/*
Package snapshot turns node payloads emitted by the tree visualization into
domain.NodeSnapshot values and validates them.

The payload uses the keys of the trained tree export:

	{
	  "node_depth": 2,
	  "split": ["petal_width", 1.75],
	  "impurity": ["gini", 0.168],
	  "weighted_impurity_decrease": 0.0392,
	  "percentage_impurity_decrease": 23.3,
	  "n_node_samples": 54,
	  "node_class_counts": [["versicolor", 49], ["virginica", 5]]
	}

A node is a leaf when "leaf" is true or, if the key is absent, when it has no split.
*/
package snapshot
