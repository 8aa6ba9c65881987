// Package binding exposes core models as host objects: named objects whose
// hyperparameters are read and written as attributes and which respond to
// add, train, predict, write, read, clear and help messages.
package binding

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mllib/core/model"
	"github.com/YuminosukeSato/mllib/pkg/errors"
	"github.com/YuminosukeSato/mllib/pkg/log"
	"github.com/YuminosukeSato/mllib/pkg/telemetry"
	"github.com/YuminosukeSato/mllib/pkg/viz"
)

// Task tells whether an object classifies or regresses.
type Task int

const (
	TaskClassification Task = iota
	TaskRegression
)

func (t Task) String() string {
	if t == TaskRegression {
		return "regression"
	}
	return "classification"
}

// Object is a named host object. It owns exactly one core model and keeps
// the labelled samples added since the last clear.
type Object struct {
	class string
	name  string
	task  Task
	core  model.Core
	attrs *Table

	logger  log.Logger
	metrics *telemetry.Metrics

	labels   []float64
	features [][]float64
}

// ObjectOption configures an Object.
type ObjectOption func(*Object)

// WithLogger sets the logger that receives diagnostics.
func WithLogger(l log.Logger) ObjectOption {
	return func(o *Object) {
		o.logger = l
	}
}

// WithMetrics enables Prometheus metrics for the object.
func WithMetrics(m *telemetry.Metrics) ObjectOption {
	return func(o *Object) {
		o.metrics = m
	}
}

func newObject(class, name string, task Task, core model.Core, attrs *Table, opts ...ObjectOption) *Object {
	o := &Object{
		class: class,
		name:  name,
		task:  task,
		core:  core,
		attrs: attrs,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.GetLoggerWithName("binding")
	}
	o.logger = o.logger.With(log.ModelNameKey, class, log.ObjectKey, name)
	o.metrics.ObjectCreated(class)
	return o
}

// Class returns the object class, e.g. "ml.dtree".
func (o *Object) Class() string { return o.class }

// Name returns the object name.
func (o *Object) Name() string { return o.name }

// Task returns whether the object classifies or regresses.
func (o *Object) Task() Task { return o.task }

// Core returns the model owned by the object.
func (o *Object) Core() model.Core { return o.core }

// Attributes returns the attribute table.
func (o *Object) Attributes() *Table { return o.attrs }

// NumSamples returns the number of buffered samples.
func (o *Object) NumSamples() int { return len(o.labels) }

// Set writes an attribute. A rejected value leaves the core unchanged, emits
// "unable to set <name>, hint: <hint>" and returns the error.
func (o *Object) Set(name string, value any) (err error) {
	defer errors.Recover(&err, "Object.Set")

	attr, err := o.attrs.Lookup(name)
	if err == nil {
		err = attr.Set(value)
	}
	o.metrics.RecordAttributeSet(o.class, name, err == nil)
	if err != nil {
		o.diagnose(name, err)
		return err
	}

	o.logger.Debug("attribute set",
		log.OperationKey, log.OperationSet,
		log.AttributeKey, name,
		log.ValueKey, FormatValue(attr.Get()),
	)
	return nil
}

func (o *Object) diagnose(name string, err error) {
	hint := errors.Hint(err)
	if hint == "" {
		hint = err.Error()
	}
	o.logger.Error(fmt.Sprintf("unable to set %s, hint: %s", name, hint), err,
		log.OperationKey, log.OperationSet,
		log.AttributeKey, name,
		log.HintKey, hint,
	)
}

// Get reads an attribute from the core.
func (o *Object) Get(name string) (v any, err error) {
	defer errors.Recover(&err, "Object.Get")

	attr, err := o.attrs.Lookup(name)
	if err != nil {
		return nil, err
	}
	return attr.Get(), nil
}

// Add appends one labelled sample. Every sample must have as many features
// as the first one.
func (o *Object) Add(label float64, features ...float64) error {
	if len(features) == 0 {
		return errors.NewValueError(o.name+".add", "a sample needs at least one feature")
	}
	if len(o.features) > 0 && len(features) != len(o.features[0]) {
		return errors.NewDimensionError(o.name+".add", len(o.features[0]), len(features), 1)
	}
	o.labels = append(o.labels, label)
	o.features = append(o.features, append([]float64(nil), features...))
	return nil
}

// Train fits the core on the buffered samples.
func (o *Object) Train() (err error) {
	defer errors.Recover(&err, "Object.Train")

	if len(o.labels) == 0 {
		return errors.NewModelError(o.name+".train", "no training data", errors.ErrEmptyData)
	}
	X, y := o.matrices()

	start := time.Now()
	err = o.core.Fit(X, y)
	elapsed := time.Since(start)
	o.metrics.RecordTrain(o.class, elapsed, err)
	if err != nil {
		o.logger.Error("training failed", err, log.OperationKey, log.OperationFit)
		return err
	}

	o.logger.Info("trained",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, len(o.labels),
		log.FeaturesKey, len(o.features[0]),
		log.DurationMsKey, elapsed.Milliseconds(),
	)
	return nil
}

// Predict returns the core's prediction for one feature vector.
func (o *Object) Predict(features ...float64) (v float64, err error) {
	defer errors.Recover(&err, "Object.Predict")
	defer func() { o.metrics.RecordPrediction(o.class, err) }()

	if len(features) == 0 {
		return 0, errors.NewValueError(o.name+".predict", "no features given")
	}
	out, err := o.core.Predict(mat.NewDense(1, len(features), append([]float64(nil), features...)))
	if err != nil {
		return 0, err
	}
	return out.At(0, 0), nil
}

// Save writes the trained core to path.
func (o *Object) Save(path string) (err error) {
	defer errors.Recover(&err, "Object.Save")

	if err := o.core.Save(path); err != nil {
		return err
	}
	o.logger.Info("model saved", log.OperationKey, log.OperationSave, "path", path)
	return nil
}

// Load replaces the core's state with the model stored at path.
func (o *Object) Load(path string) (err error) {
	defer errors.Recover(&err, "Object.Load")

	if err := o.core.Load(path); err != nil {
		return err
	}
	o.logger.Info("model loaded", log.OperationKey, log.OperationLoad, "path", path)
	return nil
}

// Clear drops the buffered samples and the trained model. Attributes keep
// their values.
func (o *Object) Clear() {
	o.labels = nil
	o.features = nil
	o.core.Reset()
}

// Plot saves a target-vs-prediction scatter of the buffered samples.
// Only regression objects can plot.
func (o *Object) Plot(path string) (err error) {
	defer errors.Recover(&err, "Object.Plot")

	if o.task != TaskRegression {
		return errors.NewValueError(o.name+".plot", "plot is only available for regression objects")
	}
	if len(o.labels) == 0 {
		return errors.NewModelError(o.name+".plot", "no samples", errors.ErrEmptyData)
	}
	X, _ := o.matrices()
	pred, err := o.core.Predict(X)
	if err != nil {
		return err
	}
	return viz.SavePredictionScatter(path, o.class+" "+o.name, o.labels, mat.Col(nil, 0, pred))
}

// GraphWriter is implemented by cores that can render themselves as a graph.
type GraphWriter interface {
	WriteGraph(w io.Writer, format string) error
}

// Draw renders the trained model to path. The format follows the file
// extension (dot, svg, png, jpg). Only tree objects can draw.
func (o *Object) Draw(path string) (err error) {
	defer errors.Recover(&err, "Object.Draw")

	gw, ok := o.core.(GraphWriter)
	if !ok {
		return errors.NewValueError(o.name+".draw", "draw is only available for tree objects")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if err := gw.WriteGraph(f, filepath.Ext(path)); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "failed to close %s", path)
}

// Help describes the object, its attributes and their current values.
func (o *Object) Help() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", o.class, o.task)
	b.WriteString("attributes:\n")
	for _, a := range o.attrs.All() {
		fmt.Fprintf(&b, "  %s:\t%s = %s\t%s\n", a.Name, a.Kind, FormatValue(a.Get()), a.Help)
	}
	b.WriteString("methods:\n")
	b.WriteString("  add <label> <features...>\tadd a labelled sample\n")
	b.WriteString("  train\ttrain the model on the added samples\n")
	b.WriteString("  predict <features...>\tpredict the label of a feature vector\n")
	b.WriteString("  write <path>\tsave the trained model\n")
	b.WriteString("  read <path>\tload a trained model\n")
	b.WriteString("  clear\tremove all samples and the trained model\n")
	if o.task == TaskRegression {
		b.WriteString("  plot <path>\tsave a target vs prediction plot\n")
	}
	if _, ok := o.core.(GraphWriter); ok {
		b.WriteString("  draw <path>\trender the trained tree (dot, svg, png, jpg)\n")
	}
	b.WriteString("  help\tshow this message\n")
	return b.String()
}

// Close releases the object's telemetry.
func (o *Object) Close() {
	o.metrics.ObjectRemoved(o.class)
}

func (o *Object) matrices() (*mat.Dense, *mat.Dense) {
	rows, cols := len(o.features), len(o.features[0])
	X := mat.NewDense(rows, cols, nil)
	for i, f := range o.features {
		X.SetRow(i, f)
	}
	y := mat.NewDense(rows, 1, append([]float64(nil), o.labels...))
	return X, y
}
