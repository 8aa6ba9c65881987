package tree

import (
	"fmt"

	"github.com/YuminosukeSato/mllib/pkg/errors"
)

// TrainingMode selects how candidate thresholds are generated at each node.
type TrainingMode int

const (
	// BestIterativeSplit tries evenly spaced thresholds between the feature's
	// minimum and maximum in the node.
	BestIterativeSplit TrainingMode = 0
	// BestRandomSplit tries uniformly random thresholds in [min, max].
	BestRandomSplit TrainingMode = 1
)

// String returns the name of the mode.
func (m TrainingMode) String() string {
	switch m {
	case BestIterativeSplit:
		return "BEST_ITERATIVE_SPLIT"
	case BestRandomSplit:
		return "BEST_RANDOM_SPLIT"
	default:
		return fmt.Sprintf("TrainingMode(%d)", int(m))
	}
}

// Valid reports whether m is one of the defined modes.
func (m TrainingMode) Valid() bool {
	return m == BestIterativeSplit || m == BestRandomSplit
}

const (
	hintTrainingMode = "must be a value between 0 and 1"
	hintPositive     = "must be greater than 0"
)

// Params holds every hyperparameter of a DecisionTreeClassifier.
type Params struct {
	TrainingMode              TrainingMode
	NumSplittingSteps         int
	MinSamplesPerNode         int
	MaxDepth                  int
	RemoveFeaturesAtEachSplit bool

	// Criterion is "gini" or "entropy".
	Criterion string
	// RandomState seeds BestRandomSplit. Negative means unseeded.
	RandomState int64
	// UseScaling rescales features to [0,1] before training and prediction.
	UseScaling bool
}

// DefaultParams returns the default hyperparameters.
func DefaultParams() Params {
	return Params{
		TrainingMode:              BestIterativeSplit,
		NumSplittingSteps:         100,
		MinSamplesPerNode:         5,
		MaxDepth:                  10,
		RemoveFeaturesAtEachSplit: false,
		Criterion:                 "gini",
		RandomState:               -1,
		UseScaling:                false,
	}
}

func (p Params) validate() error {
	if !p.TrainingMode.Valid() {
		return errors.NewValidationErrorWithHint("training_mode",
			"must be BEST_ITERATIVE_SPLIT (0) or BEST_RANDOM_SPLIT (1)", hintTrainingMode, int(p.TrainingMode))
	}
	if err := checkPositive("num_splitting_steps", p.NumSplittingSteps); err != nil {
		return err
	}
	if err := checkPositive("min_samples_per_node", p.MinSamplesPerNode); err != nil {
		return err
	}
	if err := checkPositive("max_depth", p.MaxDepth); err != nil {
		return err
	}
	if p.Criterion != "gini" && p.Criterion != "entropy" {
		return errors.NewValidationError("criterion", "must be 'gini' or 'entropy'", p.Criterion)
	}
	return nil
}

func checkPositive(name string, v int) error {
	if v <= 0 {
		return errors.NewValidationErrorWithHint(name, "must be positive", hintPositive, v)
	}
	return nil
}

// Option is a functional option for DecisionTreeClassifier.
type Option func(*DecisionTreeClassifier)

// WithTrainingMode sets the split search mode.
func WithTrainingMode(mode TrainingMode) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.params.TrainingMode = mode
	}
}

// WithNumSplittingSteps sets the number of thresholds tried per feature.
func WithNumSplittingSteps(steps int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.params.NumSplittingSteps = steps
	}
}

// WithMinSamplesPerNode sets the minimum number of samples a node needs to be split.
func WithMinSamplesPerNode(n int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.params.MinSamplesPerNode = n
	}
}

// WithMaxDepth sets the maximum depth of the tree. The root has depth 0.
func WithMaxDepth(depth int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.params.MaxDepth = depth
	}
}

// WithRemoveFeaturesAtEachSplit excludes a feature from the subtree below the node that split on it.
func WithRemoveFeaturesAtEachSplit(remove bool) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.params.RemoveFeaturesAtEachSplit = remove
	}
}

// WithCriterion sets the impurity measure ("gini" or "entropy").
func WithCriterion(criterion string) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.params.Criterion = criterion
	}
}

// WithRandomState sets the seed used by BestRandomSplit.
func WithRandomState(seed int64) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.params.RandomState = seed
	}
}

// WithScaling enables [0,1] feature scaling.
func WithScaling(useScaling bool) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.params.UseScaling = useScaling
	}
}
