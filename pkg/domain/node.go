package domain

import (
	"math"
	"strconv"
	"strings"
)

// Split is the decision rule of an internal node: samples with
// Feature >= Threshold go one way, the rest the other.
type Split struct {
	Feature   string  `json:"feature" yaml:"feature" validate:"required"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

// Impurity is a named impurity measurement (e.g. gini = 0.48).
type Impurity struct {
	Metric string  `json:"metric" yaml:"metric" validate:"required"`
	Value  float64 `json:"value" yaml:"value" validate:"gte=0"`
}

// ClassCount is the number of training samples of one class reaching a node.
type ClassCount struct {
	Label string `json:"label" yaml:"label" validate:"required"`
	Count int    `json:"count" yaml:"count" validate:"gte=0"`
}

// NodeSnapshot describes the node currently inspected.
// It is supplied by the tree visualization on every node click and is never
// mutated in place.
type NodeSnapshot struct {
	// ID is an optional identifier assigned by the visualization.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Depth of the node, the root is 0.
	Depth int `json:"depth" yaml:"depth" validate:"gte=0"`

	IsLeaf bool `json:"is_leaf" yaml:"is_leaf"`

	// Split is present iff the node is internal.
	Split *Split `json:"split,omitempty" yaml:"split,omitempty"`

	Impurity Impurity `json:"impurity" yaml:"impurity"`

	// Impurity decreases are present iff the node is internal.
	WeightedImpurityDecrease   *float64 `json:"weighted_impurity_decrease,omitempty" yaml:"weighted_impurity_decrease,omitempty"`
	PercentageImpurityDecrease *float64 `json:"percentage_impurity_decrease,omitempty" yaml:"percentage_impurity_decrease,omitempty"`

	// SampleCount is the number of training samples reaching this node.
	SampleCount int `json:"sample_count" yaml:"sample_count" validate:"gt=0"`

	// ClassDistribution sums to SampleCount.
	ClassDistribution []ClassCount `json:"class_distribution" yaml:"class_distribution" validate:"required,min=1,dive"`
}

// Clone returns a deep copy of the snapshot.
func (n NodeSnapshot) Clone() NodeSnapshot {
	out := n
	if n.Split != nil {
		s := *n.Split
		out.Split = &s
	}
	if n.WeightedImpurityDecrease != nil {
		v := *n.WeightedImpurityDecrease
		out.WeightedImpurityDecrease = &v
	}
	if n.PercentageImpurityDecrease != nil {
		v := *n.PercentageImpurityDecrease
		out.PercentageImpurityDecrease = &v
	}
	if n.ClassDistribution != nil {
		out.ClassDistribution = make([]ClassCount, len(n.ClassDistribution))
		copy(out.ClassDistribution, n.ClassDistribution)
	}
	return out
}

// IsRoot reports whether the node is the root of the tree.
func (n NodeSnapshot) IsRoot() bool {
	return n.Depth == 0
}

// Summary returns the human readable statistics of the node, one per line.
func (n NodeSnapshot) Summary() []string {
	lines := []string{"Depth: " + strconv.Itoa(n.Depth)}

	if !n.IsLeaf && n.Split != nil {
		lines = append(lines, n.Split.Feature+" >= "+formatFloat(n.Split.Threshold))
	}

	lines = append(lines, n.Impurity.Metric+" = "+formatFloat(n.Impurity.Value))

	if !n.IsLeaf && n.WeightedImpurityDecrease != nil {
		line := "Impurity decrease: " + formatFloat(round(*n.WeightedImpurityDecrease, 5))
		if n.PercentageImpurityDecrease != nil {
			line += " (" + formatFloat(*n.PercentageImpurityDecrease) + "%)"
		}
		lines = append(lines, line)
	}

	lines = append(lines, "Number of samples: "+strconv.Itoa(n.SampleCount))
	lines = append(lines, "["+n.DistributionText()+"]")
	return lines
}

// DistributionText renders the class distribution as "label: count, ...".
func (n NodeSnapshot) DistributionText() string {
	parts := make([]string, len(n.ClassDistribution))
	for i, c := range n.ClassDistribution {
		parts[i] = c.Label + ": " + strconv.Itoa(c.Count)
	}
	return strings.Join(parts, ", ")
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
