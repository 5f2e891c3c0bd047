// Package metrics holds the Prometheus instruments of the pool daemon.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "poolpicks"

type Metrics struct {
	registry *prometheus.Registry

	validations  *prometheus.CounterVec
	commits      *prometheus.CounterVec
	cellsWritten prometheus.Counter
	jobRuns      *prometheus.CounterVec
	apiLatency   *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	auto := promauto.With(reg)

	return &Metrics{
		registry: reg,
		validations: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Pick set validations by outcome.",
		}, []string{"result"}),
		commits: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_total",
			Help:      "Grid commits by outcome.",
		}, []string{"result"}),
		cellsWritten: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grid_cells_written_total",
			Help:      "Grid cells changed by commits.",
		}),
		jobRuns: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduled_job_runs_total",
			Help:      "Scheduled job runs by job and outcome.",
		}, []string{"job", "result"}),
		apiLatency: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_seconds",
			Help:      "Latency of ESPN and Gemini calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"upstream"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Validation(valid bool) {
	m.validations.WithLabelValues(result(valid)).Inc()
}

func (m *Metrics) Commit(ok bool, cells int) {
	m.commits.WithLabelValues(result(ok)).Inc()
	m.cellsWritten.Add(float64(cells))
}

func (m *Metrics) JobRun(job string, ok bool) {
	m.jobRuns.WithLabelValues(job, result(ok)).Inc()
}

func (m *Metrics) ObserveUpstream(upstream string, seconds float64) {
	m.apiLatency.WithLabelValues(upstream).Observe(seconds)
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
