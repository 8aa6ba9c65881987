// Package linear は線形回帰モデルを提供する。
// 確率的勾配降下法（デフォルト）と正規方程式の2つのソルバーを切り替えられる。
package linear

import (
	"io"
	"math/rand"
	"slices"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mllib/core/model"
	"github.com/YuminosukeSato/mllib/metrics"
	"github.com/YuminosukeSato/mllib/pkg/errors"
	"github.com/YuminosukeSato/mllib/pkg/log"
	"github.com/YuminosukeSato/mllib/preprocessing"
)

const modelName = "LinearRegression"

// LinearRegression は線形回帰モデル
type LinearRegression struct {
	state  *model.StateManager
	params Params

	weights   []float64 // 重み（係数）
	intercept float64   // 切片
	scaler    *preprocessing.MinMaxScaler
}

// NewLinearRegression は新しい線形回帰モデルを作成する
//
// 使用例:
//
//	lr := linear.NewLinearRegression(
//	    linear.WithLearningRate(0.05),
//	    linear.WithMaxIterations(1000),
//	)
//	err := lr.Fit(X, y)
func NewLinearRegression(opts ...Option) *LinearRegression {
	lr := &LinearRegression{
		state:  model.NewStateManager(),
		params: DefaultParams(),
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Solver は現在のソルバーを返す
func (lr *LinearRegression) Solver() Solver { return lr.params.Solver }

// SetSolver はソルバーを設定する
func (lr *LinearRegression) SetSolver(s Solver) error {
	p := lr.params
	p.Solver = s
	return lr.apply(p)
}

// MaxIterations は勾配降下法の最大エポック数を返す
func (lr *LinearRegression) MaxIterations() int { return lr.params.MaxIterations }

// SetMaxIterations は勾配降下法の最大エポック数を設定する
func (lr *LinearRegression) SetMaxIterations(n int) error {
	p := lr.params
	p.MaxIterations = n
	return lr.apply(p)
}

// LearningRate は学習率を返す
func (lr *LinearRegression) LearningRate() float64 { return lr.params.LearningRate }

// SetLearningRate は学習率を設定する
func (lr *LinearRegression) SetLearningRate(rate float64) error {
	p := lr.params
	p.LearningRate = rate
	return lr.apply(p)
}

// MinChange は収束判定の閾値を返す
func (lr *LinearRegression) MinChange() float64 { return lr.params.MinChange }

// SetMinChange は収束判定の閾値を設定する
func (lr *LinearRegression) SetMinChange(minChange float64) error {
	p := lr.params
	p.MinChange = minChange
	return lr.apply(p)
}

// UseScaling implements model.Scalable.
func (lr *LinearRegression) UseScaling() bool { return lr.params.UseScaling }

// SetUseScaling implements model.Scalable.
func (lr *LinearRegression) SetUseScaling(useScaling bool) { lr.params.UseScaling = useScaling }

func (lr *LinearRegression) apply(p Params) error {
	if err := p.validate(); err != nil {
		return err
	}
	lr.params = p
	return nil
}

// Fit はモデルを訓練データで学習させる
func (lr *LinearRegression) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "LinearRegression.Fit")
	start := time.Now()

	if err := lr.params.validate(); err != nil {
		return err
	}

	// 入力の検証
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("LinearRegression.Fit", "y must be a column vector")
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

	logger := log.GetLoggerWithName(modelName)

	var weights []float64
	var intercept float64
	switch lr.params.Solver {
	case NormalEquation:
		weights, intercept, err = fitNormalEquation(data, y)
		if err != nil {
			return err
		}
	default:
		seed := lr.params.RandomState
		if seed < 0 {
			seed = rand.Int63()
		}
		res, err := fitGradientDescent(data, y, lr.params, rand.New(rand.NewSource(seed)))
		if err != nil {
			return err
		}
		if !res.converged {
			errors.Warn(errors.NewConvergenceWarning("LinearRegression", res.epochs,
				"the change in squared error stayed above min_change"))
		}
		weights, intercept = res.weights, res.intercept
		logger.Debug("gradient descent finished",
			log.IterationKey, res.epochs,
			log.LossKey, res.sse,
		)
	}

	lr.weights = weights
	lr.intercept = intercept
	lr.scaler = scaler
	lr.state.SetFitted(c, r)

	logger.Debug("linear regression fitted",
		log.SamplesKey, r,
		log.FeaturesKey, c,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Predict は入力データに対する予測を行う
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted(modelName, "Predict"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if r == 0 {
		return nil, errors.NewModelError("LinearRegression.Predict", "empty data", errors.ErrEmptyData)
	}
	if err := lr.state.RequireFeatures("LinearRegression.Predict", c); err != nil {
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

	// 予測: y = X * weights + intercept
	w := mat.NewVecDense(c, slices.Clone(lr.weights))
	var pred mat.VecDense
	pred.MulVec(data, w)

	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		predictions.Set(i, 0, pred.AtVec(i)+lr.intercept)
	}
	return predictions, nil
}

// GetWeights は学習された重み（係数）を返す
func (lr *LinearRegression) GetWeights() []float64 {
	return slices.Clone(lr.weights)
}

// GetIntercept は学習された切片を返す
func (lr *LinearRegression) GetIntercept() float64 {
	if !lr.IsFitted() {
		return 0
	}
	return lr.intercept
}

// Score はモデルの決定係数（R²）を計算する
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(y, yPred)
}

// IsFitted はモデルが学習済みかどうかを返す
func (lr *LinearRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// Reset は学習済みの重みを破棄する。ハイパーパラメータは保持される
func (lr *LinearRegression) Reset() {
	lr.weights = nil
	lr.intercept = 0
	lr.scaler = nil
	lr.state.Reset()
}

// GetParams はハイパーパラメータを返す
func (lr *LinearRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"solver":         int(lr.params.Solver),
		"max_iterations": lr.params.MaxIterations,
		"learning_rate":  lr.params.LearningRate,
		"min_change":     lr.params.MinChange,
		"random_state":   lr.params.RandomState,
		"scaling":        lr.params.UseScaling,
	}
}

// snapshot はgobで保存する形式
type snapshot struct {
	Params    Params
	State     model.ModelState
	Weights   []float64
	Intercept float64
	Scaler    *preprocessing.MinMaxScaler
}

// SaveTo は学習済みモデルをWriterに書き出す
func (lr *LinearRegression) SaveTo(w io.Writer) error {
	if err := lr.state.RequireFitted(modelName, "Save"); err != nil {
		return err
	}
	return model.SaveModelToWriter(snapshot{
		Params:    lr.params,
		State:     lr.state.GetState(),
		Weights:   lr.weights,
		Intercept: lr.intercept,
		Scaler:    lr.scaler,
	}, w)
}

// LoadFrom はReaderからモデルを読み込む。失敗した場合モデルは変更されない
func (lr *LinearRegression) LoadFrom(r io.Reader) error {
	var snap snapshot
	if err := model.LoadModelFromReader(&snap, r); err != nil {
		return err
	}
	if err := snap.Params.validate(); err != nil {
		return errors.Wrap(err, "invalid hyperparameters in saved model")
	}
	if len(snap.Weights) != snap.State.NFeatures {
		return errors.NewDimensionError("LinearRegression.Load", snap.State.NFeatures, len(snap.Weights), 1)
	}

	lr.params = snap.Params
	lr.weights = snap.Weights
	lr.intercept = snap.Intercept
	lr.scaler = snap.Scaler
	lr.state.SetState(snap.State)
	return nil
}

// Save はモデルをファイルに保存する
func (lr *LinearRegression) Save(path string) error {
	if err := lr.state.RequireFitted(modelName, "Save"); err != nil {
		return err
	}
	return model.SaveModel(lr, path)
}

// Load はファイルからモデルを読み込む
func (lr *LinearRegression) Load(path string) error {
	return model.LoadModel(lr, path)
}
