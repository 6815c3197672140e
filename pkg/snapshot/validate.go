package snapshot

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/aretw0/treetrim/pkg/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the snapshot invariants:
//   - depth >= 0, sample count > 0, impurity metric present;
//   - split and impurity decreases present iff the node is internal;
//   - impurity, threshold and decreases finite, decreases not negative;
//   - class counts sum to the sample count.
func Validate(n domain.NodeSnapshot) error {
	if err := validate.Struct(n); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("%w: %s", domain.ErrInvalidSnapshot, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidSnapshot, err)
	}

	if n.IsLeaf {
		if n.Split != nil {
			return fmt.Errorf("%w: leaf node has a split", domain.ErrInvalidSnapshot)
		}
		if n.WeightedImpurityDecrease != nil || n.PercentageImpurityDecrease != nil {
			return fmt.Errorf("%w: leaf node has an impurity decrease", domain.ErrInvalidSnapshot)
		}
	} else {
		if n.Split == nil {
			return fmt.Errorf("%w: internal node without split", domain.ErrInvalidSnapshot)
		}
		if n.WeightedImpurityDecrease == nil || n.PercentageImpurityDecrease == nil {
			return fmt.Errorf("%w: internal node without impurity decrease", domain.ErrInvalidSnapshot)
		}
	}

	if !finite(n.Impurity.Value) {
		return fmt.Errorf("%w: impurity must be finite, got %v", domain.ErrInvalidSnapshot, n.Impurity.Value)
	}
	if n.Split != nil && !finite(n.Split.Threshold) {
		return fmt.Errorf("%w: split threshold must be finite, got %v", domain.ErrInvalidSnapshot, n.Split.Threshold)
	}
	for _, d := range []struct {
		name string
		v    *float64
	}{
		{"weighted_impurity_decrease", n.WeightedImpurityDecrease},
		{"percentage_impurity_decrease", n.PercentageImpurityDecrease},
	} {
		if d.v != nil && (!finite(*d.v) || *d.v < 0) {
			return fmt.Errorf("%w: %s must be a finite non-negative number, got %v", domain.ErrInvalidSnapshot, d.name, *d.v)
		}
	}

	sum := 0
	for _, c := range n.ClassDistribution {
		sum += c.Count
	}
	if sum != n.SampleCount {
		return fmt.Errorf("%w: class counts sum to %d, sample count is %d", domain.ErrInvalidSnapshot, sum, n.SampleCount)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Parse decodes and validates a payload.
func Parse(raw map[string]any) (domain.NodeSnapshot, error) {
	n, err := Decode(raw)
	if err != nil {
		return domain.NodeSnapshot{}, err
	}
	if err := Validate(n); err != nil {
		return domain.NodeSnapshot{}, err
	}
	return n, nil
}
