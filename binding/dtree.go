package binding

import (
	"github.com/YuminosukeSato/mllib/pkg/errors"
	"github.com/YuminosukeSato/mllib/sklearn/tree"
)

// ClassDTree is the class name of decision tree objects.
const ClassDTree = "ml.dtree"

// NewDTree creates a decision tree object. Scaling is on by default.
func NewDTree(name string, opts ...ObjectOption) *Object {
	core := tree.NewDecisionTreeClassifier(tree.WithScaling(true))
	return newObject(ClassDTree, name, TaskClassification, core, dtreeAttributes(core), opts...)
}

func dtreeAttributes(dt *tree.DecisionTreeClassifier) *Table {
	return NewTable(
		scalingAttribute(dt),
		IntAttribute("training_mode",
			"integer (0 = BEST_ITERATIVE_SPLIT, 1 = BEST_RANDOM_SPLIT) sets the training mode (default 0)",
			func() int { return int(dt.TrainingMode()) },
			func(v int) error {
				if v < 0 || v > 1 {
					return errors.NewValidationErrorWithHint("training_mode", "unknown training mode",
						"must be a value between 0 and 1", v)
				}
				return dt.SetTrainingMode(tree.TrainingMode(v))
			}),
		IntAttribute("num_splitting_steps",
			"integer (n > 0) sets the number of steps used to search for the best splitting value of each node (default 100)",
			dt.NumSplittingSteps, dt.SetNumSplittingSteps),
		IntAttribute("min_samples_per_node",
			"integer (n > 0) a node with fewer samples becomes a leaf (default 5)",
			dt.MinSamplesPerNode, dt.SetMinSamplesPerNode),
		IntAttribute("max_depth",
			"integer (n > 0) a node at this depth becomes a leaf (default 10)",
			dt.MaxDepth, dt.SetMaxDepth),
		BoolAttribute("remove_features_at_each_split",
			"bool (0 or 1) a feature used for a split is not used again below it (default 0)",
			dt.RemoveFeaturesAtEachSplit, dt.SetRemoveFeaturesAtEachSplit),
	)
}
