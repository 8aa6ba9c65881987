package binding

import (
	"github.com/YuminosukeSato/mllib/core/model"
	linear_model "github.com/YuminosukeSato/mllib/sklearn/linear_model"
)

// ClassLogReg is the class name of logistic regression objects.
const ClassLogReg = "ml.logreg"

// NewLogReg creates a logistic regression object.
func NewLogReg(name string, opts ...ObjectOption) *Object {
	core := linear_model.NewLogisticRegression()
	return newObject(ClassLogReg, name, TaskClassification, core, logregAttributes(core), opts...)
}

func logregAttributes(lr *linear_model.LogisticRegression) *Table {
	return NewTable(
		scalingAttribute(lr),
		IntAttribute("max_iterations",
			"integer (n > 0) maximum number of gradient descent iterations (default 100)",
			lr.MaxIterations, lr.SetMaxIterations),
		FloatAttribute("tolerance",
			"float (r > 0) training stops when the largest gradient component is below this (default 1e-4)",
			lr.Tolerance, lr.SetTolerance),
		FloatAttribute("c",
			"float (r > 0) inverse L2 regularisation strength (default 1)",
			lr.C, lr.SetC),
	)
}

func scalingAttribute(s model.Scalable) Attribute {
	return BoolAttribute("scaling",
		"bool (0 or 1) scales training and input data to [0, 1]",
		s.UseScaling, s.SetUseScaling)
}
