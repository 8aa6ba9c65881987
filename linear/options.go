package linear

import (
	"fmt"

	"github.com/YuminosukeSato/mllib/pkg/errors"
)

// Solver selects how LinearRegression estimates its weights.
type Solver int

const (
	// GradientDescent runs stochastic gradient descent over shuffled samples.
	GradientDescent Solver = 0
	// NormalEquation solves w = (XᵀX)⁻¹Xᵀy directly.
	NormalEquation Solver = 1
)

// String returns the name of the solver.
func (s Solver) String() string {
	switch s {
	case GradientDescent:
		return "GRADIENT_DESCENT"
	case NormalEquation:
		return "NORMAL_EQUATION"
	default:
		return fmt.Sprintf("Solver(%d)", int(s))
	}
}

// Params holds the hyperparameters of LinearRegression.
type Params struct {
	Solver        Solver
	MaxIterations int     // maximum number of epochs for GradientDescent
	LearningRate  float64 // step size for GradientDescent
	MinChange     float64 // stop when the epoch error changes by at most this much
	RandomState   int64   // seed for weight init and sample order; negative means unseeded
	UseScaling    bool
}

// DefaultParams returns the default hyperparameters.
func DefaultParams() Params {
	return Params{
		Solver:        GradientDescent,
		MaxIterations: 500,
		LearningRate:  0.01,
		MinChange:     1.0e-5,
		RandomState:   -1,
	}
}

func (p Params) validate() error {
	if p.Solver != GradientDescent && p.Solver != NormalEquation {
		return errors.NewValidationErrorWithHint("solver",
			"must be GRADIENT_DESCENT (0) or NORMAL_EQUATION (1)", "must be a value between 0 and 1", int(p.Solver))
	}
	if p.MaxIterations <= 0 {
		return errors.NewValidationErrorWithHint("max_iterations", "must be positive", "must be greater than 0", p.MaxIterations)
	}
	if !(p.LearningRate > 0) {
		return errors.NewValidationErrorWithHint("learning_rate", "must be positive", "must be greater than 0", p.LearningRate)
	}
	if !(p.MinChange > 0) {
		return errors.NewValidationErrorWithHint("min_change", "must be positive", "must be greater than 0", p.MinChange)
	}
	return nil
}

// Option is a function that configures LinearRegression
type Option func(*LinearRegression)

// WithSolver sets the solver
func WithSolver(solver Solver) Option {
	return func(lr *LinearRegression) {
		lr.params.Solver = solver
	}
}

// WithMaxIterations sets the maximum number of gradient descent epochs
func WithMaxIterations(n int) Option {
	return func(lr *LinearRegression) {
		lr.params.MaxIterations = n
	}
}

// WithLearningRate sets the gradient descent step size
func WithLearningRate(rate float64) Option {
	return func(lr *LinearRegression) {
		lr.params.LearningRate = rate
	}
}

// WithMinChange sets the convergence threshold on the epoch error
func WithMinChange(minChange float64) Option {
	return func(lr *LinearRegression) {
		lr.params.MinChange = minChange
	}
}

// WithRandomState sets the seed used by gradient descent
func WithRandomState(seed int64) Option {
	return func(lr *LinearRegression) {
		lr.params.RandomState = seed
	}
}

// WithScaling enables [0,1] feature scaling
func WithScaling(useScaling bool) Option {
	return func(lr *LinearRegression) {
		lr.params.UseScaling = useScaling
	}
}
