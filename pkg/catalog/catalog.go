// Package catalog holds the static table of trim reasons and the
// hyperparameter adjustment each one produces.
package catalog

import (
	"fmt"
	"os"

	"github.com/aretw0/treetrim/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Rule computes the adjustment for a node. Rules are pure.
type Rule func(node domain.NodeSnapshot) (domain.ParameterAdjustment, error)

// Entry binds a reason to its rule.
type Entry struct {
	Reason domain.TrimReason
	Rule   Rule
}

// Catalog is a stateless, ordered lookup of trim reasons.
// It is safe for concurrent use since it is never mutated after construction.
type Catalog struct {
	entries []Entry
	index   map[domain.ReasonID]int
}

// New builds a catalog from entries, preserving their order.
func New(entries ...Entry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[domain.ReasonID]int, len(entries)),
	}
	for _, e := range entries {
		if e.Reason.ID == "" {
			return nil, fmt.Errorf("catalog entry without id")
		}
		if e.Rule == nil {
			return nil, fmt.Errorf("catalog entry %q has no rule", e.Reason.ID)
		}
		if _, dup := c.index[e.Reason.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog entry %q", e.Reason.ID)
		}
		c.index[e.Reason.ID] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// Default returns the built-in reason table.
// Leaf nodes are offered the leaf sample reason first, then the depth limit;
// internal nodes get split samples, depth limit and impurity decrease.
func Default() *Catalog {
	c, err := New(
		Entry{
			Reason: domain.TrimReason{
				ID:          domain.ReasonInsufficientLeafSamples,
				DisplayText: "Not enough samples in leaf",
				AppliesTo:   domain.AppliesToLeaf,
			},
			Rule: func(n domain.NodeSnapshot) (domain.ParameterAdjustment, error) {
				return domain.ParameterAdjustment{Parameter: domain.ParamMinSamplesLeaf, Value: float64(n.SampleCount + 1)}, nil
			},
		},
		Entry{
			Reason: domain.TrimReason{
				ID:          domain.ReasonInsufficientSplitSamples,
				DisplayText: "Not enough samples to split",
				AppliesTo:   domain.AppliesToInternal,
			},
			Rule: func(n domain.NodeSnapshot) (domain.ParameterAdjustment, error) {
				return domain.ParameterAdjustment{Parameter: domain.ParamMinSamplesSplit, Value: float64(n.SampleCount + 1)}, nil
			},
		},
		Entry{
			Reason: domain.TrimReason{
				ID:          domain.ReasonLimitDepth,
				DisplayText: "I want to limit the tree to this depth",
				AppliesTo:   domain.AppliesToBoth,
			},
			Rule: func(n domain.NodeSnapshot) (domain.ParameterAdjustment, error) {
				return domain.ParameterAdjustment{Parameter: domain.ParamMaxDepth, Value: float64(n.Depth)}, nil
			},
		},
		Entry{
			Reason: domain.TrimReason{
				ID:          domain.ReasonInsufficientImpurityDecrease,
				DisplayText: "This node doesn't improve the tree enough",
				AppliesTo:   domain.AppliesToInternal,
			},
			Rule: func(n domain.NodeSnapshot) (domain.ParameterAdjustment, error) {
				if n.WeightedImpurityDecrease == nil {
					return domain.ParameterAdjustment{}, fmt.Errorf("%w: internal node without weighted impurity decrease", domain.ErrInvalidSnapshot)
				}
				return domain.ParameterAdjustment{Parameter: domain.ParamMinImpurityDecrease, Value: *n.WeightedImpurityDecrease}, nil
			},
		},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Reasons returns every reason in catalog order.
func (c *Catalog) Reasons() []domain.TrimReason {
	out := make([]domain.TrimReason, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Reason
	}
	return out
}

// ReasonsFor returns the reasons applicable to a leaf (true) or internal (false) node.
func (c *Catalog) ReasonsFor(isLeaf bool) []domain.TrimReason {
	out := make([]domain.TrimReason, 0, len(c.entries))
	for _, e := range c.entries {
		if e.Reason.AppliesTo.Matches(isLeaf) {
			out = append(out, e.Reason)
		}
	}
	return out
}

// Lookup finds a reason by id.
func (c *Catalog) Lookup(id domain.ReasonID) (domain.TrimReason, bool) {
	i, ok := c.index[id]
	if !ok {
		return domain.TrimReason{}, false
	}
	return c.entries[i].Reason, true
}

// RuleFor evaluates the reason's rule against the node.
// It fails with domain.ErrUnknownReason or domain.ErrInapplicableReason.
func (c *Catalog) RuleFor(id domain.ReasonID, node domain.NodeSnapshot) (domain.ParameterAdjustment, error) {
	i, ok := c.index[id]
	if !ok {
		return domain.ParameterAdjustment{}, fmt.Errorf("%w: %q", domain.ErrUnknownReason, id)
	}
	e := c.entries[i]
	if !e.Reason.AppliesTo.Matches(node.IsLeaf) {
		kind := "internal"
		if node.IsLeaf {
			kind = "leaf"
		}
		return domain.ParameterAdjustment{}, fmt.Errorf("%w: %q applies to %s nodes, node is %s",
			domain.ErrInapplicableReason, id, e.Reason.AppliesTo, kind)
	}
	return e.Rule(node)
}

// WithDisplayText returns a copy of the catalog with display texts replaced.
// Behavior is untouched: only the text shown to the user changes.
func (c *Catalog) WithDisplayText(overrides map[domain.ReasonID]string) (*Catalog, error) {
	entries := make([]Entry, len(c.entries))
	copy(entries, c.entries)
	for id, text := range overrides {
		i, ok := c.index[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownReason, id)
		}
		entries[i].Reason.DisplayText = text
	}
	return New(entries...)
}

// displayTextFile is the layout of a display text override file:
//
//	display_text:
//	  limit_depth: "Limiter l'arbre à cette profondeur"
type displayTextFile struct {
	DisplayText map[domain.ReasonID]string `yaml:"display_text"`
}

// LoadDisplayText reads display text overrides from a YAML file.
func LoadDisplayText(path string) (map[domain.ReasonID]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read display text file: %w", err)
	}
	var f displayTextFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse display text file: %w", err)
	}
	return f.DisplayText, nil
}
