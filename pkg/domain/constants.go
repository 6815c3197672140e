package domain

// Parameter names a training hyperparameter that a trim reason may adjust.
// The values match the keys of the training backend request.
type Parameter string

const (
	ParamMinSamplesSplit     Parameter = "min_samples_split"
	ParamMaxDepth            Parameter = "max_depth"
	ParamMinImpurityDecrease Parameter = "min_impurity_decrease"
	ParamMinSamplesLeaf      Parameter = "min_samples_leaf"
)

// Valid reports whether p is one of the adjustable hyperparameters.
func (p Parameter) Valid() bool {
	switch p {
	case ParamMinSamplesSplit, ParamMaxDepth, ParamMinImpurityDecrease, ParamMinSamplesLeaf:
		return true
	}
	return false
}

// Split criteria accepted by the training backend.
const (
	CriterionGini    = "gini"
	CriterionEntropy = "entropy"
)
