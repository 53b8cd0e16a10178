// Package metrics exposes Prometheus collectors for media jobs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Job outcomes used as label values.
const (
	OutcomeSuccess = "success"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
)

// Metrics holds the collectors recorded by the job service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	jobsTotal   *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	activeJobs  *prometheus.GaugeVec
}

// New creates a Metrics instance with its own registry, including the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediajobs",
			Name:      "jobs_total",
			Help:      "Number of media jobs handled, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mediajobs",
			Name:      "job_duration_seconds",
			Help:      "Time spent processing a media job, including ffmpeg.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 12),
		}, []string{"kind", "outcome"}),
		activeJobs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mediajobs",
			Name:      "active_jobs",
			Help:      "Number of media jobs currently being processed.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.jobsTotal, m.jobDuration, m.activeJobs)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns the HTTP handler serving the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// JobStarted marks a job of kind as in flight and returns a function that
// records its outcome and duration when called.
func (m *Metrics) JobStarted(kind string) func(outcome string) {
	if m == nil {
		return func(string) {}
	}

	start := time.Now()
	m.activeJobs.WithLabelValues(kind).Inc()

	return func(outcome string) {
		m.activeJobs.WithLabelValues(kind).Dec()
		m.jobsTotal.WithLabelValues(kind, outcome).Inc()
		m.jobDuration.WithLabelValues(kind, outcome).Observe(time.Since(start).Seconds())
	}
}
