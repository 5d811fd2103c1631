package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ResultSuccess labels successful attempts; failures use the failure kind.
const ResultSuccess = "success"

// Metrics holds all Prometheus metrics for knock.
type Metrics struct {
	registry *prometheus.Registry

	ProbesTotal    *prometheus.CounterVec
	ProbeDuration  *prometheus.HistogramVec
	ProbesInFlight prometheus.Gauge
}

// NewMetrics creates the metrics on a private registry, so several runs in
// one process (tests) never collide on registration.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ProbesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "knock",
				Name:      "probes_total",
				Help:      "Total number of probe attempts by protocol and result",
			},
			[]string{"protocol", "result"},
		),
		ProbeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "knock",
				Name:      "probe_duration_seconds",
				Help:      "Latency of successful probe attempts",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16), // 0.5ms to ~16s
			},
			[]string{"protocol"},
		),
		ProbesInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "knock",
				Name:      "probes_in_flight",
				Help:      "Whether a probe attempt is currently running (1=yes, 0=no)",
			},
		),
	}
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordSuccess records a successful attempt and its latency.
func (m *Metrics) RecordSuccess(protocol string, elapsed time.Duration) {
	m.ProbesTotal.WithLabelValues(protocol, ResultSuccess).Inc()
	m.ProbeDuration.WithLabelValues(protocol).Observe(elapsed.Seconds())
}

// RecordFailure records a failed attempt under its failure kind.
func (m *Metrics) RecordFailure(protocol, kind string) {
	m.ProbesTotal.WithLabelValues(protocol, kind).Inc()
}

// ProbeStarted marks an attempt as running.
func (m *Metrics) ProbeStarted() {
	m.ProbesInFlight.Inc()
}

// ProbeFinished marks the running attempt as done.
func (m *Metrics) ProbeFinished() {
	m.ProbesInFlight.Dec()
}
