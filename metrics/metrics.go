package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"

	KindFee = "fee"
	KindGas = "gas"
)

type MetricsGenerator interface {
	// IncEstimation counts an estimator run of kind (fee, gas) by outcome.
	IncEstimation(kind, status string)
	IncDigest(status string)
	IncSigned()

	ObserveBuildSeconds(float64)
}

// UserOpMetrics contains instrumented metrics for building user operations
type UserOpMetrics struct {
	numEstimations *prometheus.CounterVec
	numDigests     *prometheus.CounterVec
	numSigned      prometheus.Counter
	buildSeconds   prometheus.Histogram
}

const apNamespace = "ap"
const subsystem = "userop"

func NewUserOpMetrics(reg prometheus.Registerer) *UserOpMetrics {
	return &UserOpMetrics{
		numEstimations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: apNamespace,
				Subsystem: subsystem,
				Name:      "num_estimations_total",
				Help:      "The number of fee and gas estimations, by kind and outcome",
			}, []string{"kind", "status"}),

		numDigests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: apNamespace,
				Subsystem: subsystem,
				Name:      "num_digests_total",
				Help:      "The number of user operation hashes computed, by outcome",
			}, []string{"status"}),

		numSigned: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: apNamespace,
				Subsystem: subsystem,
				Name:      "num_signed_total",
				Help:      "The number of user operations signed",
			}),

		buildSeconds: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: apNamespace,
				Subsystem: subsystem,
				Name:      "build_duration_seconds",
				Help:      "Time to estimate and hash a user operation, chain round trips included",
				Buckets:   prometheus.DefBuckets,
			}),
	}
}

func (m *UserOpMetrics) IncEstimation(kind, status string) {
	m.numEstimations.WithLabelValues(kind, status).Inc()
}

func (m *UserOpMetrics) IncDigest(status string) {
	m.numDigests.WithLabelValues(status).Inc()
}

func (m *UserOpMetrics) IncSigned() {
	m.numSigned.Inc()
}

func (m *UserOpMetrics) ObserveBuildSeconds(seconds float64) {
	m.buildSeconds.Observe(seconds)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) IncEstimation(string, string) {}
func (NoopMetrics) IncDigest(string)             {}
func (NoopMetrics) IncSigned()                   {}
func (NoopMetrics) ObserveBuildSeconds(float64)  {}

// Status maps an error to a status label.
func Status(err error) string {
	if err != nil {
		return StatusFailure
	}
	return StatusSuccess
}
