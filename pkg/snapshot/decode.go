package snapshot

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/aretw0/treetrim/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// payload mirrors the visualization's node keys.
type payload struct {
	ID                         string   `mapstructure:"id"`
	Leaf                       *bool    `mapstructure:"leaf"`
	NodeDepth                  float64  `mapstructure:"node_depth"`
	Split                      []any    `mapstructure:"split"`
	Impurity                   []any    `mapstructure:"impurity"`
	WeightedImpurityDecrease   *float64 `mapstructure:"weighted_impurity_decrease"`
	PercentageImpurityDecrease *float64 `mapstructure:"percentage_impurity_decrease"`
	NodeSamples                float64  `mapstructure:"n_node_samples"`
	NodeClassCounts            [][]any  `mapstructure:"node_class_counts"`
}

// Decode converts a raw payload map into a snapshot. It does not validate.
// Numbers may arrive as float64, json.Number or strings. Depth, sample count
// and class counts must be whole numbers.
func Decode(raw map[string]any) (domain.NodeSnapshot, error) {
	var p payload
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &p,
	})
	if err != nil {
		return domain.NodeSnapshot{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return domain.NodeSnapshot{}, fmt.Errorf("%w: %v", domain.ErrInvalidSnapshot, err)
	}

	depth, err := wholeNumber("node_depth", p.NodeDepth)
	if err != nil {
		return domain.NodeSnapshot{}, err
	}
	samples, err := wholeNumber("n_node_samples", p.NodeSamples)
	if err != nil {
		return domain.NodeSnapshot{}, err
	}

	node := domain.NodeSnapshot{
		ID:                         p.ID,
		Depth:                      depth,
		WeightedImpurityDecrease:   p.WeightedImpurityDecrease,
		PercentageImpurityDecrease: p.PercentageImpurityDecrease,
		SampleCount:                samples,
	}

	if len(p.Split) > 0 {
		var s domain.Split
		if err := decodePair(p.Split, &s.Feature, &s.Threshold); err != nil {
			return domain.NodeSnapshot{}, fmt.Errorf("%w: split: %v", domain.ErrInvalidSnapshot, err)
		}
		node.Split = &s
	}

	if p.Leaf != nil {
		node.IsLeaf = *p.Leaf
	} else {
		node.IsLeaf = node.Split == nil
	}

	if len(p.Impurity) > 0 {
		if err := decodePair(p.Impurity, &node.Impurity.Metric, &node.Impurity.Value); err != nil {
			return domain.NodeSnapshot{}, fmt.Errorf("%w: impurity: %v", domain.ErrInvalidSnapshot, err)
		}
	}

	for i, pair := range p.NodeClassCounts {
		var (
			c     domain.ClassCount
			count float64
		)
		if err := decodePair(pair, &c.Label, &count); err != nil {
			return domain.NodeSnapshot{}, fmt.Errorf("%w: node_class_counts[%d]: %v", domain.ErrInvalidSnapshot, i, err)
		}
		if c.Count, err = wholeNumber(fmt.Sprintf("node_class_counts[%d]", i), count); err != nil {
			return domain.NodeSnapshot{}, err
		}
		node.ClassDistribution = append(node.ClassDistribution, c)
	}

	return node, nil
}

// DecodeJSON decodes a JSON object payload.
func DecodeJSON(data []byte) (domain.NodeSnapshot, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.NodeSnapshot{}, fmt.Errorf("%w: %v", domain.ErrInvalidSnapshot, err)
	}
	return Decode(raw)
}

// decodePair weakly decodes a two element array into first and second.
func decodePair(pair []any, first, second any) error {
	if len(pair) != 2 {
		return fmt.Errorf("expected a pair, got %d elements", len(pair))
	}
	if err := mapstructure.WeakDecode(pair[0], first); err != nil {
		return err
	}
	return mapstructure.WeakDecode(pair[1], second)
}

// wholeNumber converts v to an int, failing on fractions and on values no
// tree statistic can take.
func wholeNumber(field string, v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s must be a whole number, got %v", domain.ErrInvalidSnapshot, field, v)
	}
	return int(v), nil
}
