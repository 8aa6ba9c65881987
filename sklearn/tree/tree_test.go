package tree

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mllib/pkg/errors"
)

// TestDecisionTreeClassifier_FitPredict_Binary tests binary classification
func TestDecisionTreeClassifier_FitPredict_Binary(t *testing.T) {
	// Create simple linearly separable data
	X := mat.NewDense(8, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		1, 1,
		3, 3,
		3, 4,
		4, 3,
		4, 4,
	})

	y := mat.NewDense(8, 1, []float64{
		0, 0, 0, 0, // Class 0 (lower left)
		1, 1, 1, 1, // Class 1 (upper right)
	})

	// Create and train model
	dt := NewDecisionTreeClassifier(
		WithCriterion("gini"),
		WithMaxDepth(5),
	)

	err := dt.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	// Test predictions on training data
	predictions, err := dt.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}

	// Check all predictions are correct
	for i := 0; i < 8; i++ {
		pred := predictions.At(i, 0)
		actual := y.At(i, 0)
		if pred != actual {
			t.Errorf("Sample %d: expected %v, got %v", i, actual, pred)
		}
	}

	// Test on new data
	XTest := mat.NewDense(2, 2, []float64{
		0.5, 0.5, // Should be class 0
		3.5, 3.5, // Should be class 1
	})

	testPreds, err := dt.Predict(XTest)
	if err != nil {
		t.Fatalf("Failed to predict on test data: %v", err)
	}

	if testPreds.At(0, 0) != 0 {
		t.Errorf("Test point (0.5,0.5) should be class 0, got %v", testPreds.At(0, 0))
	}

	if testPreds.At(1, 0) != 1 {
		t.Errorf("Test point (3.5,3.5) should be class 1, got %v", testPreds.At(1, 0))
	}
}

// TestDecisionTreeClassifier_PredictProba tests probability predictions
func TestDecisionTreeClassifier_PredictProba(t *testing.T) {
	// Simple data
	X := mat.NewDense(6, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		2, 2,
		2, 3,
		3, 2,
	})

	y := mat.NewDense(6, 1, []float64{
		0, 0, 0, // Class 0
		1, 1, 1, // Class 1
	})

	dt := NewDecisionTreeClassifier(
		WithMaxDepth(3),
	)

	err := dt.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	probas, err := dt.PredictProba(X)
	if err != nil {
		t.Fatalf("Failed to predict probabilities: %v", err)
	}

	rows, cols := probas.Dims()
	if rows != 6 || cols != 2 {
		t.Errorf("Expected probas shape (6, 2), got (%d, %d)", rows, cols)
	}

	// Check that probabilities sum to 1
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			prob := probas.At(i, j)
			if prob < 0 || prob > 1 {
				t.Errorf("Invalid probability at (%d, %d): %v", i, j, prob)
			}
			sum += prob
		}
		if math.Abs(sum-1.0) > 1e-6 {
			t.Errorf("Probabilities for sample %d don't sum to 1: %v", i, sum)
		}
	}
}

// TestDecisionTreeClassifier_Score tests accuracy calculation
func TestDecisionTreeClassifier_Score(t *testing.T) {
	// Create XOR-like data with more samples for better learning
	X := mat.NewDense(8, 2, []float64{
		0.0, 0.0,
		0.0, 0.1,
		0.1, 1.0,
		0.0, 0.9,
		1.0, 0.0,
		0.9, 0.0,
		1.0, 1.0,
		0.9, 0.9,
	})

	// XOR-like pattern: class 0 when both features are similar (both low or both high)
	y := mat.NewDense(8, 1, []float64{
		0, 0, // Both low -> class 0
		1, 1, // One high, one low -> class 1
		1, 1, // One high, one low -> class 1
		0, 0, // Both high -> class 0
	})

	dt := NewDecisionTreeClassifier(
		WithMaxDepth(10), // Allow deeper tree for XOR pattern
		WithMinSamplesPerNode(1),
	)

	err := dt.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	score, err := dt.Score(X, y)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score != 1.0 {
		t.Errorf("Decision tree should perfectly fit XOR-like data with enough samples, got score: %v", score)
	}

	// Also test on simpler linearly separable data
	XSimple := mat.NewDense(6, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		2, 2,
		2, 3,
		3, 2,
	})

	ySimple := mat.NewDense(6, 1, []float64{
		0, 0, 0,
		1, 1, 1,
	})

	dtSimple := NewDecisionTreeClassifier(WithMaxDepth(3))
	if err := dtSimple.Fit(XSimple, ySimple); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	scoreSimple, _ := dtSimple.Score(XSimple, ySimple)
	if scoreSimple != 1.0 {
		t.Errorf("Decision tree should perfectly fit linearly separable data, got score: %v", scoreSimple)
	}
}

// TestDecisionTreeClassifier_Multiclass tests multiclass classification
func TestDecisionTreeClassifier_Multiclass(t *testing.T) {
	// Create 3-class data
	X := mat.NewDense(9, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		3, 3,
		3, 4,
		4, 3,
		6, 6,
		6, 7,
		7, 6,
	})

	y := mat.NewDense(9, 1, []float64{
		0, 0, 0, // Class 0
		1, 1, 1, // Class 1
		2, 2, 2, // Class 2
	})

	dt := NewDecisionTreeClassifier(
		WithCriterion("gini"),
		WithMaxDepth(5),
	)

	err := dt.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit multiclass model: %v", err)
	}

	// Check that we have 3 classes
	if classes := dt.Classes(); len(classes) != 3 {
		t.Errorf("Expected 3 classes, got %v", classes)
	}

	// Check predictions
	predictions, err := dt.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}

	correct := 0
	for i := 0; i < 9; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}

	accuracy := float64(correct) / 9.0
	if accuracy != 1.0 {
		t.Errorf("Expected perfect accuracy on training data, got: %v", accuracy)
	}

	// Test probability predictions
	probas, err := dt.PredictProba(X)
	if err != nil {
		t.Fatalf("Failed to predict probabilities: %v", err)
	}

	rows, cols := probas.Dims()
	if cols != 3 {
		t.Errorf("Expected 3 probability columns, got %d", cols)
	}

	// Check probability constraints
	for i := 0; i < rows; i++ {
		sum := 0.0
		maxProb := 0.0
		maxClass := -1

		for j := 0; j < cols; j++ {
			prob := probas.At(i, j)
			if prob < 0 || prob > 1 {
				t.Errorf("Invalid probability at (%d, %d): %v", i, j, prob)
			}
			sum += prob

			if prob > maxProb {
				maxProb = prob
				maxClass = j
			}
		}

		if math.Abs(sum-1.0) > 1e-6 {
			t.Errorf("Probabilities for sample %d don't sum to 1: %v", i, sum)
		}

		// Check that max probability corresponds to predicted class
		expectedClass := int(y.At(i, 0))
		if maxClass != expectedClass {
			t.Errorf("Sample %d: max probability class %d doesn't match expected %d",
				i, maxClass, expectedClass)
		}
	}
}

// TestDecisionTreeClassifier_Entropy tests entropy criterion
func TestDecisionTreeClassifier_Entropy(t *testing.T) {
	X := mat.NewDense(6, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		2, 2,
		2, 3,
		3, 2,
	})

	y := mat.NewDense(6, 1, []float64{
		0, 0, 0,
		1, 1, 1,
	})

	// Test with entropy criterion
	dt := NewDecisionTreeClassifier(
		WithCriterion("entropy"),
		WithMaxDepth(3),
	)

	err := dt.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit with entropy: %v", err)
	}

	score, err := dt.Score(X, y)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score != 1.0 {
		t.Errorf("Expected perfect score on simple data, got %v", score)
	}
}

// TestDecisionTreeClassifier_FeatureImportance tests feature importance calculation
func TestDecisionTreeClassifier_FeatureImportance(t *testing.T) {
	// Create data where feature 0 is more important
	X := mat.NewDense(8, 3, []float64{
		0, 0, 0, // Feature 0 determines class
		0, 1, 1,
		0, 0, 1,
		0, 1, 0,
		1, 0, 0, // When feature 0 = 1, always class 1
		1, 1, 1,
		1, 0, 1,
		1, 1, 0,
	})

	y := mat.NewDense(8, 1, []float64{
		0, 0, 0, 0, // Class 0 when feature 0 = 0
		1, 1, 1, 1, // Class 1 when feature 0 = 1
	})

	dt := NewDecisionTreeClassifier()
	err := dt.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	importances := dt.GetFeatureImportances()
	if len(importances) != 3 {
		t.Fatalf("Expected 3 feature importances, got %d", len(importances))
	}

	// Feature 0 should have highest importance
	if importances[0] <= importances[1] || importances[0] <= importances[2] {
		t.Errorf("Feature 0 should have highest importance: %v", importances)
	}

	// Sum should be 1 (normalized)
	sum := 0.0
	for _, imp := range importances {
		sum += imp
	}
	if math.Abs(sum-1.0) > 1e-6 {
		t.Errorf("Feature importances should sum to 1, got %v", sum)
	}
}

// TestDecisionTreeClassifier_MaxDepth tests max depth constraint
func TestDecisionTreeClassifier_MaxDepth(t *testing.T) {
	// Create data that would normally require deep tree
	X := mat.NewDense(16, 2, nil)
	y := mat.NewDense(16, 1, nil)

	for i := 0; i < 16; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i%4))
		y.Set(i, 0, float64(i%2))
	}

	// Test with shallow tree
	dt := NewDecisionTreeClassifier(
		WithMaxDepth(2),
	)

	err := dt.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	depth := dt.GetDepth()
	if depth > 2 {
		t.Errorf("Tree depth %d exceeds max_depth=2", depth)
	}
}

// TestDecisionTreeClassifier_MinSamples tests that small nodes are never split
func TestDecisionTreeClassifier_MinSamples(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
	y := mat.NewDense(4, 1, []float64{0, 1, 0, 1})

	dt := NewDecisionTreeClassifier(WithMinSamplesPerNode(5))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	if dt.GetNLeaves() != 1 || dt.GetDepth() != 0 {
		t.Errorf("Expected a single leaf, got %d leaves at depth %d", dt.GetNLeaves(), dt.GetDepth())
	}

	proba, err := dt.PredictProba(X)
	if err != nil {
		t.Fatalf("Failed to predict probabilities: %v", err)
	}
	if proba.At(0, 0) != 0.5 || proba.At(0, 1) != 0.5 {
		t.Errorf("Root leaf should hold the class distribution, got %v", mat.Formatted(proba))
	}

	// Lowering the threshold lets the same data be split
	if err := dt.SetMinSamplesPerNode(1); err != nil {
		t.Fatal(err)
	}
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Failed to refit: %v", err)
	}
	if dt.GetNLeaves() != 4 {
		t.Errorf("Expected 4 leaves, got %d", dt.GetNLeaves())
	}
}

// TestDecisionTreeClassifier_GetSetParams tests parameter management
func TestDecisionTreeClassifier_GetSetParams(t *testing.T) {
	dt := NewDecisionTreeClassifier()

	params := dt.GetParams()
	defaults := map[string]interface{}{
		"training_mode":                 0,
		"num_splitting_steps":           100,
		"min_samples_per_node":          5,
		"max_depth":                     10,
		"remove_features_at_each_split": false,
		"criterion":                     "gini",
	}
	for key, want := range defaults {
		if params[key] != want {
			t.Errorf("Default %s should be %v, got %v", key, want, params[key])
		}
	}

	newParams := map[string]interface{}{
		"criterion":            "entropy",
		"max_depth":            5,
		"min_samples_per_node": 4,
		"training_mode":        1,
	}
	if err := dt.SetParams(newParams); err != nil {
		t.Fatalf("Failed to set params: %v", err)
	}

	if dt.params.Criterion != "entropy" {
		t.Errorf("criterion not updated: expected 'entropy', got %v", dt.params.Criterion)
	}
	if dt.MaxDepth() != 5 {
		t.Errorf("max_depth not updated: expected 5, got %v", dt.MaxDepth())
	}
	if dt.MinSamplesPerNode() != 4 {
		t.Errorf("min_samples_per_node not updated: expected 4, got %v", dt.MinSamplesPerNode())
	}
	if dt.TrainingMode() != BestRandomSplit {
		t.Errorf("training_mode not updated: got %v", dt.TrainingMode())
	}

	// An invalid value rejects the whole batch
	err := dt.SetParams(map[string]interface{}{
		"max_depth":           7,
		"num_splitting_steps": 0,
	})
	if err == nil {
		t.Fatal("Expected error for num_splitting_steps=0")
	}
	if dt.MaxDepth() != 5 {
		t.Errorf("max_depth changed despite rejected batch: %d", dt.MaxDepth())
	}

	if err := dt.SetParams(map[string]interface{}{"min_samples_split": 2}); err == nil {
		t.Error("Expected error for unknown parameter")
	}
}

// TestDecisionTreeClassifier_Setters tests that invalid values leave state unchanged
func TestDecisionTreeClassifier_Setters(t *testing.T) {
	tests := []struct {
		name  string
		set   func(dt *DecisionTreeClassifier) error
		check func(dt *DecisionTreeClassifier) bool
	}{
		{
			name:  "training mode 2",
			set:   func(dt *DecisionTreeClassifier) error { return dt.SetTrainingMode(2) },
			check: func(dt *DecisionTreeClassifier) bool { return dt.TrainingMode() == BestIterativeSplit },
		},
		{
			name:  "training mode -1",
			set:   func(dt *DecisionTreeClassifier) error { return dt.SetTrainingMode(-1) },
			check: func(dt *DecisionTreeClassifier) bool { return dt.TrainingMode() == BestIterativeSplit },
		},
		{
			name:  "zero splitting steps",
			set:   func(dt *DecisionTreeClassifier) error { return dt.SetNumSplittingSteps(0) },
			check: func(dt *DecisionTreeClassifier) bool { return dt.NumSplittingSteps() == 100 },
		},
		{
			name:  "negative min samples",
			set:   func(dt *DecisionTreeClassifier) error { return dt.SetMinSamplesPerNode(-3) },
			check: func(dt *DecisionTreeClassifier) bool { return dt.MinSamplesPerNode() == 5 },
		},
		{
			name:  "zero max depth",
			set:   func(dt *DecisionTreeClassifier) error { return dt.SetMaxDepth(0) },
			check: func(dt *DecisionTreeClassifier) bool { return dt.MaxDepth() == 10 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt := NewDecisionTreeClassifier()
			err := tt.set(dt)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			var vErr *errors.ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("Expected ValidationError, got %T", err)
			}
			if !tt.check(dt) {
				t.Error("State changed after rejected value")
			}
		})
	}

	dt := NewDecisionTreeClassifier()
	if err := dt.SetTrainingMode(BestRandomSplit); err != nil {
		t.Fatal(err)
	}
	if err := dt.SetNumSplittingSteps(42); err != nil {
		t.Fatal(err)
	}
	dt.SetRemoveFeaturesAtEachSplit(true)
	if dt.TrainingMode() != BestRandomSplit || dt.NumSplittingSteps() != 42 || !dt.RemoveFeaturesAtEachSplit() {
		t.Errorf("Accepted values not read back: %v", dt.GetParams())
	}
	if dt.MaxDepth() != 10 || dt.MinSamplesPerNode() != 5 {
		t.Errorf("Unrelated fields changed: %v", dt.GetParams())
	}
}

// TestDecisionTreeClassifier_RandomSplit tests the random threshold mode
func TestDecisionTreeClassifier_RandomSplit(t *testing.T) {
	X := mat.NewDense(8, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		1, 1,
		3, 3,
		3, 4,
		4, 3,
		4, 4,
	})
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 1, 1, 1, 1})

	fit := func() *DecisionTreeClassifier {
		dt := NewDecisionTreeClassifier(
			WithTrainingMode(BestRandomSplit),
			WithNumSplittingSteps(50),
			WithRandomState(7),
		)
		if err := dt.Fit(X, y); err != nil {
			t.Fatalf("Failed to fit: %v", err)
		}
		return dt
	}

	a, b := fit(), fit()
	if a.root.Threshold != b.root.Threshold || a.root.Feature != b.root.Feature {
		t.Errorf("Same seed should give the same tree: %v/%v vs %v/%v",
			a.root.Feature, a.root.Threshold, b.root.Feature, b.root.Threshold)
	}
	if score, _ := a.Score(X, y); score != 1.0 {
		t.Errorf("Expected perfect score, got %v", score)
	}
}

// TestDecisionTreeClassifier_RemoveFeatures tests that a split feature is not reused below
func TestDecisionTreeClassifier_RemoveFeatures(t *testing.T) {
	// Only feature 0 carries signal, and it needs two thresholds
	X := mat.NewDense(9, 2, []float64{
		0, 5,
		1, 5,
		2, 5,
		3, 5,
		4, 5,
		5, 5,
		6, 5,
		7, 5,
		8, 5,
	})
	y := mat.NewDense(9, 1, []float64{0, 0, 0, 1, 1, 1, 0, 0, 0})

	dt := NewDecisionTreeClassifier(
		WithMinSamplesPerNode(1),
		WithRemoveFeaturesAtEachSplit(true),
	)
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}
	if dt.GetDepth() != 1 {
		t.Errorf("Feature 0 should be used once, got depth %d", dt.GetDepth())
	}

	dtReuse := NewDecisionTreeClassifier(WithMinSamplesPerNode(1))
	if err := dtReuse.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}
	if score, _ := dtReuse.Score(X, y); score != 1.0 {
		t.Errorf("Reusing feature 0 should fit perfectly, got %v", score)
	}
}

// TestDecisionTreeClassifier_Scaling tests prediction with [0,1] scaling enabled
func TestDecisionTreeClassifier_Scaling(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{100, 110, 120, 300, 310, 320})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})

	dt := NewDecisionTreeClassifier(WithScaling(true), WithMinSamplesPerNode(2))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}
	if dt.root.Threshold <= 0 || dt.root.Threshold >= 1 {
		t.Errorf("Threshold should be in scaled space, got %v", dt.root.Threshold)
	}

	pred, err := dt.Predict(mat.NewDense(2, 1, []float64{105, 315}))
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}
	if pred.At(0, 0) != 0 || pred.At(1, 0) != 1 {
		t.Errorf("Unexpected predictions: %v", mat.Formatted(pred))
	}
}

// TestDecisionTreeClassifier_SaveLoad tests persistence
func TestDecisionTreeClassifier_SaveLoad(t *testing.T) {
	X := mat.NewDense(6, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		2, 2,
		2, 3,
		3, 2,
	})
	y := mat.NewDense(6, 1, []float64{3, 3, 3, 7, 7, 7})

	dt := NewDecisionTreeClassifier(WithMaxDepth(4), WithScaling(true))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	path := filepath.Join(t.TempDir(), "tree.gob")
	if err := dt.Save(path); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	loaded := NewDecisionTreeClassifier()
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Failed to load: %v", err)
	}

	if loaded.MaxDepth() != 4 || !loaded.UseScaling() {
		t.Errorf("Hyperparameters not restored: %v", loaded.GetParams())
	}
	want, _ := dt.Predict(X)
	got, err := loaded.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict with loaded model: %v", err)
	}
	if !mat.Equal(want, got) {
		t.Errorf("Predictions differ after load: %v vs %v", mat.Formatted(want), mat.Formatted(got))
	}

	// A corrupt stream leaves the model untouched
	if err := loaded.LoadFrom(bytes.NewBufferString("not a model")); err == nil {
		t.Error("Expected error for corrupt stream")
	}
	if !loaded.IsFitted() || loaded.MaxDepth() != 4 {
		t.Error("Failed load modified the model")
	}

	if err := NewDecisionTreeClassifier().Save(path); err == nil {
		t.Error("Expected error when saving an unfitted model")
	}
}

// TestDecisionTreeClassifier_InvalidInput tests input validation
func TestDecisionTreeClassifier_InvalidInput(t *testing.T) {
	dt := NewDecisionTreeClassifier()

	if err := dt.Fit(mat.NewDense(2, 1, []float64{0, 1}), mat.NewDense(2, 1, []float64{0, 0.5})); err == nil {
		t.Error("Expected error for non-integral labels")
	}
	if err := dt.Fit(mat.NewDense(3, 1, []float64{0, 1, 2}), mat.NewDense(2, 1, []float64{0, 1})); err == nil {
		t.Error("Expected error for mismatched rows")
	}

	if err := dt.Fit(mat.NewDense(2, 2, []float64{0, 0, 1, 1}), mat.NewDense(2, 1, []float64{0, 1})); err != nil {
		t.Fatal(err)
	}
	if _, err := dt.Predict(mat.NewDense(1, 3, []float64{0, 0, 0})); err == nil {
		t.Error("Expected dimension error for wrong feature count")
	}

	dt.Reset()
	if dt.IsFitted() {
		t.Error("Reset should clear fitted state")
	}
}

// TestDecisionTreeClassifier_NotFitted tests error when predicting without fitting
func TestDecisionTreeClassifier_NotFitted(t *testing.T) {
	dt := NewDecisionTreeClassifier()

	X := mat.NewDense(2, 2, []float64{
		1, 2,
		3, 4,
	})

	_, err := dt.Predict(X)
	if err == nil {
		t.Error("Expected error when predicting without fitting")
	}

	_, err = dt.PredictProba(X)
	if err == nil {
		t.Error("Expected error when predicting probabilities without fitting")
	}
}
