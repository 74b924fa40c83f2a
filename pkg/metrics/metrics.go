// Package metrics exposes Prometheus collectors for acquisition and the
// simulation server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics is safe to use through a nil pointer; every recorder is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	SourceAttempts      *prometheus.CounterVec
	SourceLatency       *prometheus.HistogramVec
	RefreshDuration     prometheus.Histogram
	RefreshFailures     prometheus.Counter
	EnsembleGeneration  prometheus.Gauge
	EnsemblePaths       prometheus.Gauge
	LastRefreshUnixTime prometheus.Gauge
}

// New registers all collectors on a fresh registry, so several instances can
// coexist in one process.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "montecarlo"
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SourceAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acquisition",
			Name:      "source_attempts_total",
			Help:      "Data source fetch attempts by source and outcome",
		}, []string{"source", "outcome"}),
		SourceLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "acquisition",
			Name:      "source_latency_seconds",
			Help:      "Time spent in a data source fetch",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}, []string{"source"}),
		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "refresh_duration_seconds",
			Help:      "Wall time of ensemble generation",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		RefreshFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "refresh_failures_total",
			Help:      "Ensemble refreshes that failed",
		}),
		EnsembleGeneration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "ensemble_generation",
			Help:      "Generation number of the served ensemble",
		}),
		EnsemblePaths: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "ensemble_paths",
			Help:      "Number of paths in the served ensemble",
		}),
		LastRefreshUnixTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "last_refresh_timestamp_seconds",
			Help:      "Unix time of the last successful refresh",
		}),
	}
}

func (m *Metrics) ObserveSource(source string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.SourceAttempts.WithLabelValues(source, outcome).Inc()
	m.SourceLatency.WithLabelValues(source).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveRefresh(generation int64, paths int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RefreshDuration.Observe(elapsed.Seconds())
	m.EnsembleGeneration.Set(float64(generation))
	m.EnsemblePaths.Set(float64(paths))
	m.LastRefreshUnixTime.SetToCurrentTime()
}

func (m *Metrics) RefreshFailed() {
	if m == nil {
		return
	}
	m.RefreshFailures.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
