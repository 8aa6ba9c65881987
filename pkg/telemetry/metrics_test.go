package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return NewMetrics(prometheus.NewRegistry())
}

func TestMetrics_RecordAttributeSet(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordAttributeSet("ml.dtree", "max_depth", true)
	m.RecordAttributeSet("ml.dtree", "training_mode", false)
	m.RecordAttributeSet("ml.dtree", "training_mode", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AttributeSets.WithLabelValues("ml.dtree", "max_depth", OutcomeOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AttributeSets.WithLabelValues("ml.dtree", "training_mode", OutcomeRejected)))
}

func TestMetrics_RecordTrainAndPredict(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordTrain("ml.linreg", 20*time.Millisecond, nil)
	m.RecordTrain("ml.linreg", time.Millisecond, errors.New("boom"))
	m.RecordPrediction("ml.linreg", nil)

	assert.Equal(t, 2, testutil.CollectAndCount(m.TrainDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Predictions.WithLabelValues("ml.linreg", OutcomeOK)))
}

func TestMetrics_Objects(t *testing.T) {
	m := newTestMetrics(t)

	m.ObjectCreated("ml.logreg")
	m.ObjectCreated("ml.logreg")
	m.ObjectRemoved("ml.logreg")
	m.RecordMessageFailure("train")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Objects.WithLabelValues("ml.logreg")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessageFailures.WithLabelValues("train")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.RecordAttributeSet("ml.dtree", "max_depth", true)
		m.RecordTrain("ml.dtree", time.Second, nil)
		m.RecordPrediction("ml.dtree", nil)
		m.ObjectCreated("ml.dtree")
		m.ObjectRemoved("ml.dtree")
		m.RecordMessageFailure("new")
	})
}

func TestDefault_Singleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}
