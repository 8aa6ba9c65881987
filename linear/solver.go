package linear

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mllib/core/parallel"
	"github.com/YuminosukeSato/mllib/pkg/errors"
)

// 並列処理の閾値（この値以下の行数では逐次処理を使用）
const parallelThreshold = 1000

// fitNormalEquation は正規方程式 w = (X^T * X)^(-1) * X^T * y で重みを求める
func fitNormalEquation(X, y mat.Matrix) (weights []float64, intercept float64, err error) {
	r, c := X.Dims()

	// 切片項のために X に 1 の列を追加
	// X_with_intercept = [1, X]
	XWithIntercept := mat.NewDense(r, c+1, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			XWithIntercept.Set(i, 0, 1.0)
			for j := 0; j < c; j++ {
				XWithIntercept.Set(i, j+1, X.At(i, j))
			}
		}
	})

	var XTX mat.Dense
	XTX.Mul(XWithIntercept.T(), XWithIntercept)

	var XTXInv mat.Dense
	if err := XTXInv.Inverse(&XTX); err != nil {
		return nil, 0, errors.NewModelError("LinearRegression.Fit", "singular matrix", errors.ErrSingularMatrix)
	}

	yVec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}

	var XTy mat.VecDense
	XTy.MulVec(XWithIntercept.T(), yVec)

	var w mat.VecDense
	w.MulVec(&XTXInv, &XTy)

	// 悪条件の行列では逆行列が求まっても係数が発散することがある
	if err := errors.CheckFinite("LinearRegression.NormalEquation", w.RawVector().Data, 0); err != nil {
		return nil, 0, err
	}

	weights = make([]float64, c)
	for j := range weights {
		weights[j] = w.AtVec(j + 1)
	}
	return weights, w.AtVec(0), nil
}

// sgdResult は勾配降下法の結果
type sgdResult struct {
	weights   []float64
	intercept float64
	epochs    int
	sse       float64 // 最終エポックの二乗誤差の総和
	converged bool
}

// fitGradientDescent は確率的勾配降下法で重みを求める。
// 各エポックでサンプルをランダムな順序で1つずつ処理し、
// 二乗誤差の総和の変化がminChange以下になるか、maxIterationsに達したら終了する。
func fitGradientDescent(X, y mat.Matrix, p Params, rng *rand.Rand) (sgdResult, error) {
	r, c := X.Dims()

	// 重みを[-0.1, 0.1]の一様乱数で初期化
	res := sgdResult{weights: make([]float64, c)}
	res.intercept = rng.Float64()*0.2 - 0.1
	for j := range res.weights {
		res.weights[j] = rng.Float64()*0.2 - 0.1
	}

	x := make([]float64, c)
	lastSSE := math.Inf(1)
	for epoch := 0; epoch < p.MaxIterations; epoch++ {
		sse := 0.0
		for _, i := range rng.Perm(r) {
			mat.Row(x, i, X)

			pred := res.intercept
			for j, w := range res.weights {
				pred += w * x[j]
			}
			diff := y.At(i, 0) - pred
			if err := errors.CheckScalar("LinearRegression.GradientDescent", diff, epoch); err != nil {
				return res, err
			}

			res.intercept += p.LearningRate * diff
			for j := range res.weights {
				res.weights[j] += p.LearningRate * diff * x[j]
			}
			sse += diff * diff
		}

		res.epochs = epoch + 1
		res.sse = sse
		if math.Abs(lastSSE-sse) <= p.MinChange {
			res.converged = true
			break
		}
		lastSSE = sse
	}
	return res, nil
}
