package model

import (
	"io"

	"gonum.org/v1/gonum/mat"
)

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う (n_samples × 1)
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Persistable はファイルやストリームに保存・復元できるモデルのインターフェース
type Persistable interface {
	Save(path string) error
	Load(path string) error
	SaveTo(w io.Writer) error
	LoadFrom(r io.Reader) error
}

// Scalable は入力の[0,1]スケーリングを切り替えられるモデルのインターフェース
type Scalable interface {
	UseScaling() bool
	SetUseScaling(useScaling bool)
}

// Core はホストオブジェクトが所有するモデルの能力をまとめたインターフェース。
// 学習・予測・保存・読込・リセットと、スケーリングの切り替えを提供する。
type Core interface {
	Fitter
	Predictor
	Persistable
	Scalable

	// IsFitted はモデルが学習済みかどうかを返す
	IsFitted() bool
	// Reset は学習済みパラメータを破棄し、ハイパーパラメータは保持する
	Reset()
}

// Classifier は分類モデルのインターフェース
type Classifier interface {
	Core

	// PredictProba は各クラスの確率を返す (n_samples × n_classes)
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes は学習時に見たクラスラベルを昇順で返す
	Classes() []int
}

// Regressor は回帰モデルのインターフェース
type Regressor interface {
	Core

	// Score は決定係数R²を返す
	Score(X, y mat.Matrix) (float64, error)
}
