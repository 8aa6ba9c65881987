// Package log defines standard attribute keys for mllib log records.
//
// Keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples") so records from different objects can be filtered the
// same way.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the object class or core model type.
	// Examples: "ml.dtree", "DecisionTreeClassifier"
	ModelNameKey = "model.name"

	// ObjectKey identifies a named object instance inside a host session.
	ObjectKey = "object.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "set", "get", "save", "load"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is logging.
	ComponentKey = "ml.component"

	// AttributeKey names the host attribute a record is about.
	AttributeKey = "attribute.name"

	// ValueKey carries the raw value received for an attribute.
	ValueKey = "attribute.value"
)

// Data Shape
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// ClassesKey indicates the number of distinct class labels seen in training.
	ClassesKey = "data.classes"
)

// Performance and Model Shape
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// IterationKey records the number of iterations an optimiser ran.
	IterationKey = "training.iteration"

	// LossKey records the final loss value of an optimiser.
	LossKey = "metrics.loss"

	// DepthKey records the depth of a grown tree.
	DepthKey = "tree.depth"

	// LeavesKey records the number of leaves of a grown tree.
	LeavesKey = "tree.leaves"
)

// Error Context
const (
	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information for debugging.
	StacktraceKey = "error.stacktrace"

	// HintKey carries the operator-facing hint of a rejected value.
	HintKey = "error.hint"
)

// Standard attribute value constants.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationSet     = "set"
	OperationGet     = "get"
	OperationSave    = "save"
	OperationLoad    = "load"
)
