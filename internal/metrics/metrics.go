package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels successful operations.
	OutcomeSuccess = "success"
	// OutcomeError labels failed operations (insufficient data or storage issues).
	OutcomeError = "error"
)

var (
	retrainsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prediccion",
			Name:      "retrains_total",
			Help:      "Total number of training runs, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	projectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prediccion",
			Name:      "projections_total",
			Help:      "Total number of projection requests, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	projectionDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "prediccion",
			Name:      "projection_seconds",
			Help:      "Projection request latency in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
	)

	modelVersion = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "prediccion",
			Name:      "model_version",
			Help:      "Version of the currently published trained model.",
		},
	)
)

// Register attaches the service collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		retrainsTotal,
		projectionsTotal,
		projectionDurationSeconds,
		modelVersion,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveRetrain records a training run outcome.
func ObserveRetrain(outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	retrainsTotal.WithLabelValues(label).Inc()
}

// ObserveProjection records a projection duration and outcome label.
func ObserveProjection(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	projectionsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	projectionDurationSeconds.Observe(duration.Seconds())
}

// SetModelVersion publishes the active model version as a gauge.
func SetModelVersion(version int64) {
	modelVersion.Set(float64(version))
}
