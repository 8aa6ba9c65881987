// Package telemetry exposes Prometheus metrics for host objects.
//
// Every method is safe on a nil *Metrics, so objects created without
// telemetry pay nothing.
package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mllib"

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics holds the collectors for one registry.
type Metrics struct {
	// AttributeSets counts attribute messages.
	// Labels: class, attribute, outcome (ok, rejected)
	AttributeSets *prometheus.CounterVec

	// TrainDuration measures Fit latency.
	// Labels: class, outcome (ok, error)
	TrainDuration *prometheus.HistogramVec

	// Predictions counts predict messages.
	// Labels: class, outcome (ok, error)
	Predictions *prometheus.CounterVec

	// Objects tracks live objects per class.
	// Labels: class
	Objects *prometheus.GaugeVec

	// MessageFailures counts session messages that failed.
	// Labels: verb
	MessageFailures *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// Registering twice with the same registry panics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AttributeSets: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "binding",
			Name:      "attribute_sets_total",
			Help:      "Attribute set messages by class, attribute and outcome",
		}, []string{"class", "attribute", "outcome"}),

		TrainDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "train_duration_seconds",
			Help:      "Time spent in train by class and outcome",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"class", "outcome"}),

		Predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "predictions_total",
			Help:      "Predict messages by class and outcome",
		}, []string{"class", "outcome"}),

		Objects: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "objects",
			Help:      "Live host objects by class",
		}, []string{"class"}),

		MessageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "message_failures_total",
			Help:      "Session messages that failed, by verb",
		}, []string{"verb"}),
	}
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns metrics registered with prometheus.DefaultRegisterer.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// RecordAttributeSet counts one attribute set.
func (m *Metrics) RecordAttributeSet(class, attribute string, accepted bool) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if !accepted {
		outcome = OutcomeRejected
	}
	m.AttributeSets.WithLabelValues(class, attribute, outcome).Inc()
}

// RecordTrain observes one train call.
func (m *Metrics) RecordTrain(class string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.TrainDuration.WithLabelValues(class, outcome(err)).Observe(d.Seconds())
}

// RecordPrediction counts one predict call.
func (m *Metrics) RecordPrediction(class string, err error) {
	if m == nil {
		return
	}
	m.Predictions.WithLabelValues(class, outcome(err)).Inc()
}

// ObjectCreated increments the live object gauge.
func (m *Metrics) ObjectCreated(class string) {
	if m == nil {
		return
	}
	m.Objects.WithLabelValues(class).Inc()
}

// ObjectRemoved decrements the live object gauge.
func (m *Metrics) ObjectRemoved(class string) {
	if m == nil {
		return
	}
	m.Objects.WithLabelValues(class).Dec()
}

// RecordMessageFailure counts a failed session message.
func (m *Metrics) RecordMessageFailure(verb string) {
	if m == nil {
		return
	}
	m.MessageFailures.WithLabelValues(verb).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
