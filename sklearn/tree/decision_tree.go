// Package tree implements a CART-style decision tree classifier whose split
// search is controlled by a training mode and a number of splitting steps.
package tree

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"slices"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mllib/core/model"
	"github.com/YuminosukeSato/mllib/core/parallel"
	"github.com/YuminosukeSato/mllib/metrics"
	"github.com/YuminosukeSato/mllib/pkg/errors"
	"github.com/YuminosukeSato/mllib/pkg/log"
	"github.com/YuminosukeSato/mllib/preprocessing"
)

const modelName = "DecisionTreeClassifier"

// predictParallelThreshold is the number of rows above which Predict fans out.
const predictParallelThreshold = 1000

// DecisionTreeClassifier is a decision tree for classification.
type DecisionTreeClassifier struct {
	state  *model.StateManager
	params Params

	root        *Node
	classes     []int
	importances []float64
	scaler      *preprocessing.MinMaxScaler
}

// NewDecisionTreeClassifier creates a new decision tree classifier.
//
// Defaults: BEST_ITERATIVE_SPLIT, 100 splitting steps, 5 samples per node,
// depth 10, features are not removed after a split.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		state:  model.NewStateManager(),
		params: DefaultParams(),
	}
	for _, opt := range opts {
		opt(dt)
	}
	return dt
}

// TrainingMode returns the split search mode.
func (dt *DecisionTreeClassifier) TrainingMode() TrainingMode { return dt.params.TrainingMode }

// SetTrainingMode sets the split search mode. Values other than
// BestIterativeSplit and BestRandomSplit are rejected.
func (dt *DecisionTreeClassifier) SetTrainingMode(mode TrainingMode) error {
	p := dt.params
	p.TrainingMode = mode
	return dt.apply(p)
}

// NumSplittingSteps returns the number of thresholds tried per feature.
func (dt *DecisionTreeClassifier) NumSplittingSteps() int { return dt.params.NumSplittingSteps }

// SetNumSplittingSteps sets the number of thresholds tried per feature.
func (dt *DecisionTreeClassifier) SetNumSplittingSteps(steps int) error {
	p := dt.params
	p.NumSplittingSteps = steps
	return dt.apply(p)
}

// MinSamplesPerNode returns the minimum number of samples needed to split a node.
func (dt *DecisionTreeClassifier) MinSamplesPerNode() int { return dt.params.MinSamplesPerNode }

// SetMinSamplesPerNode sets the minimum number of samples needed to split a node.
func (dt *DecisionTreeClassifier) SetMinSamplesPerNode(n int) error {
	p := dt.params
	p.MinSamplesPerNode = n
	return dt.apply(p)
}

// MaxDepth returns the maximum depth of the tree.
func (dt *DecisionTreeClassifier) MaxDepth() int { return dt.params.MaxDepth }

// SetMaxDepth sets the maximum depth of the tree.
func (dt *DecisionTreeClassifier) SetMaxDepth(depth int) error {
	p := dt.params
	p.MaxDepth = depth
	return dt.apply(p)
}

// RemoveFeaturesAtEachSplit reports whether split features are removed from descendants.
func (dt *DecisionTreeClassifier) RemoveFeaturesAtEachSplit() bool {
	return dt.params.RemoveFeaturesAtEachSplit
}

// SetRemoveFeaturesAtEachSplit sets whether split features are removed from descendants.
func (dt *DecisionTreeClassifier) SetRemoveFeaturesAtEachSplit(remove bool) {
	dt.params.RemoveFeaturesAtEachSplit = remove
}

// UseScaling implements model.Scalable.
func (dt *DecisionTreeClassifier) UseScaling() bool { return dt.params.UseScaling }

// SetUseScaling implements model.Scalable.
func (dt *DecisionTreeClassifier) SetUseScaling(useScaling bool) {
	dt.params.UseScaling = useScaling
}

// apply validates p and installs it. On error the current parameters are kept.
func (dt *DecisionTreeClassifier) apply(p Params) error {
	if err := p.validate(); err != nil {
		return err
	}
	dt.params = p
	return nil
}

// Fit builds the tree from X (n_samples × n_features) and y (n_samples × 1).
// Labels must be integral.
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "DecisionTreeClassifier.Fit")
	start := time.Now()

	if err := dt.params.validate(); err != nil {
		return err
	}
	rows, cols, err := checkXY(X, y)
	if err != nil {
		return err
	}

	var scaler *preprocessing.MinMaxScaler
	var data mat.Matrix = X
	if dt.params.UseScaling {
		scaler = preprocessing.NewMinMaxScalerDefault()
		scaled, err := scaler.FitTransform(X)
		if err != nil {
			return err
		}
		data = scaled
	}

	classes, labels, err := encodeLabels(y)
	if err != nil {
		return err
	}

	seed := dt.params.RandomState
	if seed < 0 {
		seed = rand.Int63()
	}
	s := &splitter{
		X:        toRows(data),
		y:        labels,
		nClasses: len(classes),
		mode:     dt.params.TrainingMode,
		steps:    dt.params.NumSplittingSteps,
		impurity: impurityFor(dt.params.Criterion),
		rng:      rand.New(rand.NewSource(seed)),
		left:     make([]int, len(classes)),
		right:    make([]int, len(classes)),
	}

	b := &builder{
		params:      dt.params,
		splitter:    s,
		importances: make([]float64, cols),
	}
	samples := make([]int, rows)
	for i := range samples {
		samples[i] = i
	}
	features := make([]int, cols)
	for j := range features {
		features[j] = j
	}
	root := b.build(samples, features, 0)

	dt.root = root
	dt.classes = classes
	dt.importances = normalise(b.importances)
	dt.scaler = scaler
	dt.state.SetFitted(cols, rows)

	log.GetLoggerWithName(modelName).Debug("decision tree fitted",
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.ClassesKey, len(classes),
		log.DepthKey, root.maxDepth(),
		log.LeavesKey, root.countLeaves(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// builder grows the tree recursively.
type builder struct {
	params      Params
	splitter    *splitter
	importances []float64
}

func (b *builder) build(samples, features []int, depth int) *Node {
	s := b.splitter
	counts := make([]int, s.nClasses)
	for _, i := range samples {
		counts[s.y[i]]++
	}
	n := len(samples)

	node := &Node{
		Feature:  -1,
		Impurity: s.impurity(counts, n),
		NSamples: n,
		Depth:    depth,
		Value:    make([]float64, s.nClasses),
	}
	for k, c := range counts {
		node.Value[k] = float64(c) / float64(n)
	}

	if n < b.params.MinSamplesPerNode || depth >= b.params.MaxDepth ||
		node.Impurity == 0 || len(features) == 0 {
		return node
	}

	best, ok := s.best(samples, features)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range samples {
		if s.X[i][best.feature] < best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	childFeatures := features
	if b.params.RemoveFeaturesAtEachSplit {
		childFeatures = slices.DeleteFunc(slices.Clone(features), func(f int) bool {
			return f == best.feature
		})
	}

	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = b.build(left, childFeatures, depth+1)
	node.Right = b.build(right, childFeatures, depth+1)

	b.importances[best.feature] += float64(n)*node.Impurity -
		float64(node.Left.NSamples)*node.Left.Impurity -
		float64(node.Right.NSamples)*node.Right.Impurity
	return node
}

// Predict returns the most probable class for each row of X (n_samples × 1).
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	leaves, err := dt.leaves(X, "Predict")
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(len(leaves), 1, nil)
	for i, leaf := range leaves {
		out.Set(i, 0, float64(dt.classes[argmax(leaf.Value)]))
	}
	return out, nil
}

// PredictProba returns the class distribution of the leaf each row falls in
// (n_samples × n_classes, columns ordered as Classes()).
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	leaves, err := dt.leaves(X, "PredictProba")
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(len(leaves), len(dt.classes), nil)
	for i, leaf := range leaves {
		out.SetRow(i, leaf.Value)
	}
	return out, nil
}

func (dt *DecisionTreeClassifier) leaves(X mat.Matrix, method string) ([]*Node, error) {
	if err := dt.state.RequireFitted(modelName, method); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if rows == 0 {
		return nil, errors.NewModelError(modelName+"."+method, "empty data", errors.ErrEmptyData)
	}
	if err := dt.state.RequireFeatures(modelName+"."+method, cols); err != nil {
		return nil, err
	}

	data := X
	if dt.scaler != nil {
		scaled, err := dt.scaler.Transform(X)
		if err != nil {
			return nil, err
		}
		data = scaled
	}

	leaves := make([]*Node, rows)
	parallel.ParallelizeWithThreshold(rows, predictParallelThreshold, func(start, end int) {
		x := make([]float64, cols)
		for i := start; i < end; i++ {
			mat.Row(x, i, data)
			leaves[i] = dt.root.leaf(x)
		}
	})
	return leaves, nil
}

// Score returns the mean accuracy on X and y.
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := dt.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(y, pred)
}

// Classes returns the sorted class labels seen during Fit.
func (dt *DecisionTreeClassifier) Classes() []int {
	return slices.Clone(dt.classes)
}

// GetDepth returns the depth of the deepest leaf (0 for a single leaf).
func (dt *DecisionTreeClassifier) GetDepth() int {
	if dt.root == nil {
		return 0
	}
	return dt.root.maxDepth()
}

// GetNLeaves returns the number of leaves.
func (dt *DecisionTreeClassifier) GetNLeaves() int {
	if dt.root == nil {
		return 0
	}
	return dt.root.countLeaves()
}

// GetFeatureImportances returns the normalised impurity decrease per feature.
func (dt *DecisionTreeClassifier) GetFeatureImportances() []float64 {
	return slices.Clone(dt.importances)
}

// IsFitted reports whether Fit has completed.
func (dt *DecisionTreeClassifier) IsFitted() bool {
	return dt.state.IsFitted()
}

// Reset discards the fitted tree and keeps the hyperparameters.
func (dt *DecisionTreeClassifier) Reset() {
	dt.root = nil
	dt.classes = nil
	dt.importances = nil
	dt.scaler = nil
	dt.state.Reset()
}

// GetParams returns the hyperparameters keyed by their attribute names.
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"training_mode":                 int(dt.params.TrainingMode),
		"num_splitting_steps":           dt.params.NumSplittingSteps,
		"min_samples_per_node":          dt.params.MinSamplesPerNode,
		"max_depth":                     dt.params.MaxDepth,
		"remove_features_at_each_split": dt.params.RemoveFeaturesAtEachSplit,
		"criterion":                     dt.params.Criterion,
		"random_state":                  dt.params.RandomState,
		"scaling":                       dt.params.UseScaling,
	}
}

// SetParams sets several hyperparameters at once. Either all of them are
// applied or, on error, none.
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	p := dt.params
	for key, value := range params {
		var err error
		switch key {
		case "training_mode":
			var v int
			v, err = toInt(key, value)
			p.TrainingMode = TrainingMode(v)
		case "num_splitting_steps":
			p.NumSplittingSteps, err = toInt(key, value)
		case "min_samples_per_node":
			p.MinSamplesPerNode, err = toInt(key, value)
		case "max_depth":
			p.MaxDepth, err = toInt(key, value)
		case "remove_features_at_each_split":
			p.RemoveFeaturesAtEachSplit, err = toBool(key, value)
		case "scaling":
			p.UseScaling, err = toBool(key, value)
		case "criterion":
			s, isString := value.(string)
			if !isString {
				err = errors.NewValidationError(key, "must be a string", value)
			}
			p.Criterion = s
		case "random_state":
			var v int
			v, err = toInt(key, value)
			p.RandomState = int64(v)
		default:
			err = errors.NewValidationError(key, "unknown parameter", value)
		}
		if err != nil {
			return err
		}
	}
	return dt.apply(p)
}

// snapshot is the gob form of a fitted tree.
type snapshot struct {
	Params      Params
	State       model.ModelState
	Classes     []int
	Importances []float64
	Root        *Node
	Scaler      *preprocessing.MinMaxScaler
}

// SaveTo writes the fitted tree and its hyperparameters to w.
func (dt *DecisionTreeClassifier) SaveTo(w io.Writer) error {
	if err := dt.state.RequireFitted(modelName, "Save"); err != nil {
		return err
	}
	return model.SaveModelToWriter(snapshot{
		Params:      dt.params,
		State:       dt.state.GetState(),
		Classes:     dt.classes,
		Importances: dt.importances,
		Root:        dt.root,
		Scaler:      dt.scaler,
	}, w)
}

// LoadFrom replaces the tree with one read from r. The model is unchanged on error.
func (dt *DecisionTreeClassifier) LoadFrom(r io.Reader) error {
	var snap snapshot
	if err := model.LoadModelFromReader(&snap, r); err != nil {
		return err
	}
	if err := snap.Params.validate(); err != nil {
		return errors.Wrap(err, "invalid hyperparameters in saved tree")
	}
	if snap.Root == nil || len(snap.Classes) == 0 {
		return errors.NewModelError(modelName+".Load", "corrupt model", errors.New("missing tree"))
	}

	dt.params = snap.Params
	dt.classes = snap.Classes
	dt.importances = snap.Importances
	dt.root = snap.Root
	dt.scaler = snap.Scaler
	dt.state.SetState(snap.State)
	return nil
}

// Save writes the model to path.
func (dt *DecisionTreeClassifier) Save(path string) error {
	if err := dt.state.RequireFitted(modelName, "Save"); err != nil {
		return err
	}
	return model.SaveModel(dt, path)
}

// Load reads the model from path.
func (dt *DecisionTreeClassifier) Load(path string) error {
	return model.LoadModel(dt, path)
}

func checkXY(X, y mat.Matrix) (rows, cols int, err error) {
	rows, cols = X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 {
		return 0, 0, errors.NewModelError(modelName+".Fit", "empty data", errors.ErrEmptyData)
	}
	if yCols != 1 {
		return 0, 0, errors.NewValueError(modelName+".Fit", fmt.Sprintf("y must be a column vector, got %d columns", yCols))
	}
	if yRows != rows {
		return 0, 0, errors.NewDimensionError(modelName+".Fit", rows, yRows, 0)
	}
	return rows, cols, nil
}

// encodeLabels maps integral labels to indices into the sorted class list.
func encodeLabels(y mat.Matrix) (classes, labels []int, err error) {
	rows, _ := y.Dims()
	labels = make([]int, rows)
	for i := 0; i < rows; i++ {
		v := y.At(i, 0)
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, nil, errors.NewValueError(modelName+".Fit", fmt.Sprintf("label %v at row %d is not an integer", v, i))
		}
		labels[i] = int(v)
	}

	classes = slices.Clone(labels)
	slices.Sort(classes)
	classes = slices.Compact(classes)

	for i, l := range labels {
		labels[i], _ = slices.BinarySearch(classes, l)
	}
	return classes, labels, nil
}

func toRows(X mat.Matrix) [][]float64 {
	rows, cols := X.Dims()
	out := make([][]float64, rows)
	for i := range out {
		out[i] = mat.Row(make([]float64, cols), i, X)
	}
	return out
}

func normalise(v []float64) []float64 {
	total := 0.0
	for _, x := range v {
		total += x
	}
	out := make([]float64, len(v))
	if total <= 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / total
	}
	return out
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

func toInt(name string, value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v == math.Trunc(v) {
			return int(v), nil
		}
	}
	return 0, errors.NewValidationError(name, "must be an integer", value)
}

func toBool(name string, value interface{}) (bool, error) {
	b, ok := value.(bool)
	if !ok {
		return false, errors.NewValidationError(name, "must be a boolean", value)
	}
	return b, nil
}
