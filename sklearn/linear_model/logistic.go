// Package linear_model provides a logistic regression classifier trained by
// gradient descent with an L2 penalty.
package linear_model

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mllib/core/model"
	"github.com/YuminosukeSato/mllib/metrics"
	"github.com/YuminosukeSato/mllib/pkg/errors"
	"github.com/YuminosukeSato/mllib/pkg/log"
	"github.com/YuminosukeSato/mllib/preprocessing"
)

const modelName = "LogisticRegression"

// Params holds the hyperparameters of LogisticRegression.
type Params struct {
	MaxIterations int     // Maximum iterations per binary problem
	Tolerance     float64 // Stop when the largest gradient component falls below this
	C             float64 // Inverse regularization strength (1/alpha)
	RandomState   int64   // Random seed for weight init; negative means unseeded
	UseScaling    bool
}

// DefaultParams returns the default hyperparameters.
func DefaultParams() Params {
	return Params{
		MaxIterations: 100,
		Tolerance:     1e-4,
		C:             1.0,
		RandomState:   -1,
	}
}

func (p Params) validate() error {
	if p.MaxIterations <= 0 {
		return errors.NewValidationErrorWithHint("max_iterations", "must be positive", "must be greater than 0", p.MaxIterations)
	}
	if !(p.Tolerance > 0) {
		return errors.NewValidationErrorWithHint("tolerance", "must be positive", "must be greater than 0", p.Tolerance)
	}
	if !(p.C > 0) {
		return errors.NewValidationErrorWithHint("c", "must be positive", "must be greater than 0", p.C)
	}
	return nil
}

// LogisticRegression implements logistic regression for classification.
// Two classes are fitted as one binary problem, more classes one-vs-rest.
type LogisticRegression struct {
	state  *model.StateManager // State management (composition)
	params Params

	// Model parameters
	coef      [][]float64 // Coefficients (n_classes x n_features or 1 x n_features for binary)
	intercept []float64   // Intercept terms
	classes   []int       // Unique class labels
	nIter     []int       // Actual iterations per binary problem
	scaler    *preprocessing.MinMaxScaler
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:  model.NewStateManager(),
		params: DefaultParams(),
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.params.C = c
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.params.MaxIterations = maxIter
	}
}

// WithLRTol sets the tolerance for stopping criteria
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.params.Tolerance = tol
	}
}

// WithLRRandomState sets the random seed
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.params.RandomState = seed
	}
}

// WithLRScaling enables [0,1] feature scaling
func WithLRScaling(useScaling bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.params.UseScaling = useScaling
	}
}

// MaxIterations returns the iteration limit.
func (lr *LogisticRegression) MaxIterations() int { return lr.params.MaxIterations }

// SetMaxIterations sets the iteration limit.
func (lr *LogisticRegression) SetMaxIterations(n int) error {
	p := lr.params
	p.MaxIterations = n
	return lr.apply(p)
}

// Tolerance returns the gradient tolerance.
func (lr *LogisticRegression) Tolerance() float64 { return lr.params.Tolerance }

// SetTolerance sets the gradient tolerance.
func (lr *LogisticRegression) SetTolerance(tol float64) error {
	p := lr.params
	p.Tolerance = tol
	return lr.apply(p)
}

// C returns the inverse regularization strength.
func (lr *LogisticRegression) C() float64 { return lr.params.C }

// SetC sets the inverse regularization strength.
func (lr *LogisticRegression) SetC(c float64) error {
	p := lr.params
	p.C = c
	return lr.apply(p)
}

// UseScaling implements model.Scalable.
func (lr *LogisticRegression) UseScaling() bool { return lr.params.UseScaling }

// SetUseScaling implements model.Scalable.
func (lr *LogisticRegression) SetUseScaling(useScaling bool) { lr.params.UseScaling = useScaling }

func (lr *LogisticRegression) apply(p Params) error {
	if err := p.validate(); err != nil {
		return err
	}
	lr.params = p
	return nil
}

// Fit trains the logistic regression model
func (lr *LogisticRegression) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "LogisticRegression.Fit")
	start := time.Now()

	if err := lr.params.validate(); err != nil {
		return err
	}

	// Validate inputs
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LogisticRegression.Fit", fmt.Sprintf("y must be a column vector: got shape (%d, %d)", yRows, yCols))
	}

	classes, err := extractClasses(y)
	if err != nil {
		return err
	}
	if len(classes) < 2 {
		return errors.NewValueError("LogisticRegression.Fit", "needs samples of at least 2 classes")
	}

	var scaler *preprocessing.MinMaxScaler
	data := X
	if lr.params.UseScaling {
		scaler = preprocessing.NewMinMaxScalerDefault()
		scaled, err := scaler.FitTransform(X)
		if err != nil {
			return err
		}
		data = scaled
	}

	seed := lr.params.RandomState
	if seed < 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))

	// Binary: a single problem for classes[1]. Multiclass: one-vs-rest.
	targets := classes[1:]
	if len(classes) > 2 {
		targets = classes
	}

	coef := make([][]float64, len(targets))
	intercept := make([]float64, len(targets))
	nIter := make([]int, len(targets))
	for k, class := range targets {
		// Initialize with small random values
		coef[k] = make([]float64, nFeatures)
		for j := range coef[k] {
			coef[k][j] = rng.NormFloat64() * 0.01
		}

		yBinary := make([]float64, nSamples)
		for i := range yBinary {
			if int(y.At(i, 0)) == class {
				yBinary[i] = 1
			}
		}

		nIter[k], err = lr.fitBinary(data, yBinary, coef[k], &intercept[k])
		if err != nil {
			return errors.Wrapf(err, "failed to fit class %d", class)
		}
		if nIter[k] >= lr.params.MaxIterations {
			errors.Warn(errors.NewConvergenceWarning("LogisticRegression", nIter[k],
				fmt.Sprintf("class %d did not reach tolerance %g", class, lr.params.Tolerance)))
		}
	}

	lr.coef = coef
	lr.intercept = intercept
	lr.classes = classes
	lr.nIter = nIter
	lr.scaler = scaler
	lr.state.SetFitted(nFeatures, nSamples)

	log.GetLoggerWithName(modelName).Debug("logistic regression fitted",
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.ClassesKey, len(classes),
		log.IterationKey, slices.Max(nIter),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// extractClasses identifies unique integral class labels, sorted
func extractClasses(y mat.Matrix) ([]int, error) {
	rows, _ := y.Dims()
	classes := make([]int, 0, 2)
	for i := 0; i < rows; i++ {
		v := y.At(i, 0)
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, errors.NewValueError("LogisticRegression.Fit", fmt.Sprintf("label %v at row %d is not an integer", v, i))
		}
		classes = append(classes, int(v))
	}
	slices.Sort(classes)
	return slices.Compact(classes), nil
}

// fitBinary fits one binary problem by gradient descent on the mean log-loss
// plus ||w||²/(2·C·n) and returns the number of iterations run. A result
// equal to MaxIterations means the tolerance was not reached.
func (lr *LogisticRegression) fitBinary(X mat.Matrix, yBinary, weights []float64, intercept *float64) (int, error) {
	nSamples, nFeatures := X.Dims()
	lambda := 1.0 / (lr.params.C * float64(nSamples))

	// Step size 1/L where L bounds the Lipschitz constant of the gradient
	x := make([]float64, nFeatures)
	maxNormSq := 0.0
	for i := 0; i < nSamples; i++ {
		mat.Row(x, i, X)
		maxNormSq = max(maxNormSq, 1+floats.Dot(x, x))
	}
	learningRate := min(1.0, 1.0/(0.25*maxNormSq+lambda))

	gradWeights := make([]float64, nFeatures)
	for iter := 0; iter < lr.params.MaxIterations; iter++ {
		clear(gradWeights)
		gradIntercept := 0.0

		for i := 0; i < nSamples; i++ {
			mat.Row(x, i, X)
			diff := sigmoid(*intercept+floats.Dot(x, weights)) - yBinary[i]
			gradIntercept += diff
			floats.AddScaled(gradWeights, diff, x)
		}

		// Scale gradients by number of samples and add the L2 term
		for j := range gradWeights {
			gradWeights[j] = gradWeights[j]/float64(nSamples) + lambda*weights[j]
		}
		gradIntercept /= float64(nSamples)

		floats.AddScaled(weights, -learningRate, gradWeights)
		*intercept -= learningRate * gradIntercept

		// Check convergence
		maxGrad := max(math.Abs(gradIntercept), floats.Norm(gradWeights, math.Inf(1)))
		if err := errors.CheckScalar("LogisticRegression.fitBinary", maxGrad, iter); err != nil {
			return iter + 1, err
		}
		if maxGrad < lr.params.Tolerance {
			return iter + 1, nil
		}
	}
	return lr.params.MaxIterations, nil
}

// decision returns the raw score of each binary problem for every row.
func (lr *LogisticRegression) decision(X mat.Matrix, method string) (*mat.Dense, error) {
	if err := lr.state.RequireFitted(modelName, method); err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 {
		return nil, errors.NewModelError(modelName+"."+method, "empty data", errors.ErrEmptyData)
	}
	if err := lr.state.RequireFeatures(modelName+"."+method, nFeatures); err != nil {
		return nil, err
	}

	data := X
	if lr.scaler != nil {
		scaled, err := lr.scaler.Transform(X)
		if err != nil {
			return nil, err
		}
		data = scaled
	}

	scores := mat.NewDense(nSamples, len(lr.coef), nil)
	for k, w := range lr.coef {
		var col mat.VecDense
		col.MulVec(data, mat.NewVecDense(nFeatures, slices.Clone(w)))
		for i := 0; i < nSamples; i++ {
			scores.Set(i, k, col.AtVec(i)+lr.intercept[k])
		}
	}
	return scores, nil
}

// Predict makes predictions for input data
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := probas.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		best := 0
		for k := 1; k < len(lr.classes); k++ {
			if probas.At(i, k) > probas.At(i, best) {
				best = k
			}
		}
		predictions.Set(i, 0, float64(lr.classes[best]))
	}
	return predictions, nil
}

// PredictProba returns probability estimates for each class
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	scores, err := lr.decision(X, "PredictProba")
	if err != nil {
		return nil, err
	}

	nSamples, _ := scores.Dims()
	nClasses := len(lr.classes)
	probas := mat.NewDense(nSamples, nClasses, nil)

	if nClasses == 2 {
		for i := 0; i < nSamples; i++ {
			prob1 := sigmoid(scores.At(i, 0))
			probas.Set(i, 0, 1.0-prob1)
			probas.Set(i, 1, prob1)
		}
		return probas, nil
	}

	// Multiclass using softmax over the one-vs-rest scores
	row := make([]float64, nClasses)
	for i := 0; i < nSamples; i++ {
		mat.Row(row, i, scores)
		maxScore := slices.Max(row)
		sum := 0.0
		for k := range row {
			row[k] = math.Exp(row[k] - maxScore)
			sum += row[k]
		}
		for k := range row {
			probas.Set(i, k, row[k]/sum)
		}
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(y, predictions)
}

// Classes returns the sorted class labels seen during Fit.
func (lr *LogisticRegression) Classes() []int {
	return slices.Clone(lr.classes)
}

// NIter returns the iterations run for each binary problem.
func (lr *LogisticRegression) NIter() []int {
	return slices.Clone(lr.nIter)
}

// IsFitted reports whether the model has been fitted.
func (lr *LogisticRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// Reset discards the fitted coefficients and keeps the hyperparameters.
func (lr *LogisticRegression) Reset() {
	lr.coef = nil
	lr.intercept = nil
	lr.classes = nil
	lr.nIter = nil
	lr.scaler = nil
	lr.state.Reset()
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"c":              lr.params.C,
		"max_iterations": lr.params.MaxIterations,
		"tolerance":      lr.params.Tolerance,
		"random_state":   lr.params.RandomState,
		"scaling":        lr.params.UseScaling,
	}
}

// SetParams sets the model hyperparameters. Either all values are applied or none.
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	p := lr.params
	for key, value := range params {
		var ok bool
		switch key {
		case "c":
			p.C, ok = value.(float64)
		case "max_iterations":
			p.MaxIterations, ok = value.(int)
		case "tolerance":
			p.Tolerance, ok = value.(float64)
		case "random_state":
			p.RandomState, ok = value.(int64)
		case "scaling":
			p.UseScaling, ok = value.(bool)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	return lr.apply(p)
}

type snapshot struct {
	Params    Params
	State     model.ModelState
	Coef      [][]float64
	Intercept []float64
	Classes   []int
	NIter     []int
	Scaler    *preprocessing.MinMaxScaler
}

// SaveTo writes the fitted model to w.
func (lr *LogisticRegression) SaveTo(w io.Writer) error {
	if err := lr.state.RequireFitted(modelName, "Save"); err != nil {
		return err
	}
	return model.SaveModelToWriter(snapshot{
		Params:    lr.params,
		State:     lr.state.GetState(),
		Coef:      lr.coef,
		Intercept: lr.intercept,
		Classes:   lr.classes,
		NIter:     lr.nIter,
		Scaler:    lr.scaler,
	}, w)
}

// LoadFrom reads a model from r. The model is unchanged on error.
func (lr *LogisticRegression) LoadFrom(r io.Reader) error {
	var snap snapshot
	if err := model.LoadModelFromReader(&snap, r); err != nil {
		return err
	}
	if err := snap.Params.validate(); err != nil {
		return errors.Wrap(err, "invalid hyperparameters in saved model")
	}
	if len(snap.Classes) < 2 || len(snap.Coef) != len(snap.Intercept) || len(snap.Coef) == 0 {
		return errors.NewModelError(modelName+".Load", "corrupt model", errors.New("coefficient shape does not match classes"))
	}

	lr.params = snap.Params
	lr.coef = snap.Coef
	lr.intercept = snap.Intercept
	lr.classes = snap.Classes
	lr.nIter = snap.NIter
	lr.scaler = snap.Scaler
	lr.state.SetState(snap.State)
	return nil
}

// Save writes the model to path.
func (lr *LogisticRegression) Save(path string) error {
	if err := lr.state.RequireFitted(modelName, "Save"); err != nil {
		return err
	}
	return model.SaveModel(lr, path)
}

// Load reads the model from path.
func (lr *LogisticRegression) Load(path string) error {
	return model.LoadModel(lr, path)
}

// sigmoid computes the sigmoid function
func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + errors.StabilizeExp(-z))
}
