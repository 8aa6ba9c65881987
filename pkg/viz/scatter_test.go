package viz

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/mllib/pkg/errors"
)

func TestPredictionScatter(t *testing.T) {
	p, err := PredictionScatter("fit", []float64{1, 2, 3}, []float64{1.1, 1.9, 3.2})
	require.NoError(t, err)
	assert.Equal(t, "fit", p.Title.Text)
	assert.LessOrEqual(t, p.X.Min, 1.0)
	assert.GreaterOrEqual(t, p.Y.Max, 3.2)
}

func TestPredictionScatter_InvalidInput(t *testing.T) {
	_, err := PredictionScatter("x", nil, nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))

	_, err = PredictionScatter("x", []float64{1, 2}, []float64{1})
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}

func TestWritePredictionScatter_PNG(t *testing.T) {
	var buf bytes.Buffer
	err := WritePredictionScatter(&buf, "PNG", "fit", []float64{0, 1}, []float64{0, 1})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))

	err = WritePredictionScatter(&buf, "bmp3", "fit", []float64{0, 1}, []float64{0, 1})
	assert.Error(t, err)
}

func TestSavePredictionScatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fit.svg")
	require.NoError(t, SavePredictionScatter(path, "fit", []float64{1, 2, 3}, []float64{1, 2, 3}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
	assert.Equal(t, "svg", FormatOf(path))
}
