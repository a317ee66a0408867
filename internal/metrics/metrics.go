// Package metrics provides Prometheus metrics for the statement services.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes used as the status label.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance
	Registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Pipeline metrics
	StatementsProcessed *prometheus.CounterVec
	RecordsExtracted    prometheus.Counter
	JourneysBuilt       prometheus.Counter
	PipelineDuration    prometheus.Histogram

	// Job queue metrics
	JobsQueued  prometheus.Gauge
	JobsRetried prometheus.Counter
	RateLimited prometheus.Counter
}

// New creates and registers all application metrics with a new registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barik_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "barik_http_request_duration_seconds",
			Help:    "HTTP request latency distribution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	statementsProcessed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barik_statements_processed_total",
			Help: "Statements run through the pipeline, by outcome",
		},
		[]string{"status"},
	)

	recordsExtracted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "barik_records_extracted_total",
		Help: "Transaction records extracted from statements",
	})

	journeysBuilt := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "barik_journeys_built_total",
		Help: "Journey blocks built from statements",
	})

	pipelineDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "barik_pipeline_duration_seconds",
		Help:    "Statement pipeline latency distribution",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	jobsQueued := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "barik_jobs_queued",
		Help: "Jobs waiting for a worker",
	})

	jobsRetried := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "barik_jobs_retried_total",
		Help: "Job attempts that were retried after a failure",
	})

	rateLimited := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "barik_http_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})

	registry.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		statementsProcessed,
		recordsExtracted,
		journeysBuilt,
		pipelineDuration,
		jobsQueued,
		jobsRetried,
		rateLimited,
	)

	return &Metrics{
		Registry:            registry,
		HTTPRequestsTotal:   httpRequestsTotal,
		HTTPRequestDuration: httpRequestDuration,
		StatementsProcessed: statementsProcessed,
		RecordsExtracted:    recordsExtracted,
		JourneysBuilt:       journeysBuilt,
		PipelineDuration:    pipelineDuration,
		JobsQueued:          jobsQueued,
		JobsRetried:         jobsRetried,
		RateLimited:         rateLimited,
	}
}

// ObserveRun records the outcome of one pipeline run. Safe on a nil receiver.
func (m *Metrics) ObserveRun(err error, records, journeys int, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := StatusSucceeded
	if err != nil {
		status = StatusFailed
	}
	m.StatementsProcessed.WithLabelValues(status).Inc()
	m.RecordsExtracted.Add(float64(records))
	m.JourneysBuilt.Add(float64(journeys))
	m.PipelineDuration.Observe(elapsed.Seconds())
}
