package binding

import (
	"github.com/YuminosukeSato/mllib/linear"
	"github.com/YuminosukeSato/mllib/pkg/errors"
)

// ClassLinReg is the class name of linear regression objects.
const ClassLinReg = "ml.linreg"

// NewLinReg creates a linear regression object.
func NewLinReg(name string, opts ...ObjectOption) *Object {
	core := linear.NewLinearRegression()
	return newObject(ClassLinReg, name, TaskRegression, core, linregAttributes(core), opts...)
}

func linregAttributes(lr *linear.LinearRegression) *Table {
	return NewTable(
		scalingAttribute(lr),
		IntAttribute("solver",
			"integer (0 = GRADIENT_DESCENT, 1 = NORMAL_EQUATION) sets the solver (default 0)",
			func() int { return int(lr.Solver()) },
			func(v int) error {
				if v < 0 || v > 1 {
					return errors.NewValidationErrorWithHint("solver", "unknown solver",
						"must be a value between 0 and 1", v)
				}
				return lr.SetSolver(linear.Solver(v))
			}),
		IntAttribute("max_iterations",
			"integer (n > 0) maximum number of gradient descent epochs (default 500)",
			lr.MaxIterations, lr.SetMaxIterations),
		FloatAttribute("learning_rate",
			"float (r > 0) gradient descent step size (default 0.01)",
			lr.LearningRate, lr.SetLearningRate),
		FloatAttribute("min_change",
			"float (r > 0) training stops when the epoch error changes less than this (default 1e-5)",
			lr.MinChange, lr.SetMinChange),
	)
}
