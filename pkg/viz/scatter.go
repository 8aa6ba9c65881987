// Package viz renders diagnostic plots for regression objects.
package viz

import (
	"io"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/mllib/pkg/errors"
)

// DefaultSize is the width and height used when saving plots.
const DefaultSize = 4 * vg.Inch

// PredictionScatter plots predictions against targets with an identity line.
// Points on the line are perfect predictions.
func PredictionScatter(title string, target, prediction []float64) (*plot.Plot, error) {
	if len(target) == 0 {
		return nil, errors.NewModelError("viz.PredictionScatter", "empty data", errors.ErrEmptyData)
	}
	if len(target) != len(prediction) {
		return nil, errors.NewDimensionError("viz.PredictionScatter", len(target), len(prediction), 0)
	}

	pts := make(plotter.XYs, len(target))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range target {
		pts[i].X = target[i]
		pts[i].Y = prediction[i]
		lo = min(lo, target[i], prediction[i])
		hi = max(hi, target[i], prediction[i])
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "target"
	p.Y.Label.Text = "prediction"
	p.Add(plotter.NewGrid())

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build scatter")
	}
	identity, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build identity line")
	}
	identity.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(scatter, identity)
	p.Legend.Add("samples", scatter)
	p.Legend.Add("y = x", identity)
	return p, nil
}

// SavePredictionScatter writes the scatter to path. The format follows the
// file extension (png, svg, pdf, ...).
func SavePredictionScatter(path, title string, target, prediction []float64) error {
	p, err := PredictionScatter(title, target, prediction)
	if err != nil {
		return err
	}
	if err := p.Save(DefaultSize, DefaultSize, path); err != nil {
		return errors.Wrapf(err, "failed to save plot to %s", path)
	}
	return nil
}

// WritePredictionScatter encodes the scatter to w in the given format.
func WritePredictionScatter(w io.Writer, format, title string, target, prediction []float64) error {
	p, err := PredictionScatter(title, target, prediction)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(DefaultSize, DefaultSize, strings.ToLower(format))
	if err != nil {
		return errors.Wrapf(err, "unsupported plot format %q", format)
	}
	_, err = wt.WriteTo(w)
	return errors.Wrap(err, "failed to write plot")
}

// FormatOf returns the plot format implied by a file name.
func FormatOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
