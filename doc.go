// Package mllib provides small machine learning models for Go together with a
// host layer that exposes them as named objects driven by text messages.
//
// The models (decision tree classifier, linear regression and logistic
// regression) follow a scikit-learn-like API on top of gonum matrices. The
// binding layer turns each model into an object whose hyperparameters are
// attributes: invalid values are rejected with a diagnostic and never change
// the model's state.
//
// # Quick Start
//
// Using a core model directly:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/mllib/sklearn/tree"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(4, 1, []float64{1, 2, 10, 11})
//	    y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})
//
//	    dt := tree.NewDecisionTreeClassifier(tree.WithMinSamplesPerNode(1))
//	    if err := dt.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    pred, err := dt.Predict(mat.NewDense(1, 1, []float64{9}))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(pred.At(0, 0))
//	}
//
// Driving objects with messages, as the mlhost command does:
//
//	s := binding.NewSession(binding.WithOutput(os.Stdout))
//	failures, err := s.Run(strings.NewReader(`
//	new ml.dtree tree
//	tree max_depth 4
//	tree training_mode 1
//	tree get max_depth
//	`))
//
// # Packages
//
//   - sklearn/tree: DecisionTreeClassifier with iterative or random split search
//   - linear: LinearRegression (gradient descent or normal equation)
//   - sklearn/linear_model: LogisticRegression (binary and one-vs-rest)
//   - binding: attribute tables, host objects, registry and message sessions
//   - config: YAML session files for mlhost
//   - metrics: evaluation metrics (MSE, RMSE, MAE, R², accuracy)
//   - preprocessing: MinMaxScaler used for [0, 1] input scaling
//   - core/model: model interfaces, state management and persistence
//   - core/parallel: parallel processing utilities
//   - pkg/errors, pkg/log, pkg/telemetry, pkg/viz: errors, logging, metrics, plots
//
// # Performance
//
// Prediction over more than 1000 rows is parallelized across CPU cores.
//
// # License
//
// mllib is released under the MIT License.
package mllib
