// Package metrics owns the prometheus registry and the series the services record
// A nil *Registry is valid and records nothing
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "signalgate"

// Registry bundles the collectors for one process
type Registry struct {
	reg *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	ingestItems        *prometheus.CounterVec
	ingestAuthFailures *prometheus.CounterVec
	rateLimitGrants    *prometheus.CounterVec

	extractRows      *prometheus.CounterVec
	extractBatchSecs prometheus.Histogram

	analysisRequests *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
}

// New builds a Registry with process and go runtime collectors attached
func New() *Registry {
	m := &Registry{
		reg: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ingestItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_items_total",
			Help:      "Submitted items by source and outcome status",
		}, []string{"source", "status"}),
		ingestAuthFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_auth_failures_total",
			Help:      "Submissions rejected for a bad or missing signature",
		}, []string{"source"}),
		rateLimitGrants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_slots_total",
			Help:      "Rate limit slots requested and granted per source",
		}, []string{"source", "kind"}),
		extractRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extract_rows_total",
			Help:      "Pipeline rows by terminal outcome",
		}, []string{"outcome"}),
		extractBatchSecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extract_batch_duration_seconds",
			Help:      "Wall time of one pipeline batch",
			Buckets:   []float64{.1, .5, 1, 5, 15, 30, 60, 120},
		}),
		analysisRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_requests_total",
			Help:      "Text analysis calls by provider and result",
		}, []string{"provider", "result"}),
		analysisDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Text analysis call latency",
			Buckets:   []float64{.25, .5, 1, 2, 5, 10, 20, 30},
		}, []string{"provider"}),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration,
		m.ingestItems, m.ingestAuthFailures, m.rateLimitGrants,
		m.extractRows, m.extractBatchSecs,
		m.analysisRequests, m.analysisDuration,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format
func (m *Registry) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Gatherer exposes the underlying registry for tests and custom exporters
func (m *Registry) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.reg
}

// HTTPRequest records one served request
func (m *Registry) HTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// IngestItem records one item outcome (accepted, duplicate, rate_limited, rejected)
func (m *Registry) IngestItem(source, status string) {
	if m == nil {
		return
	}
	m.ingestItems.WithLabelValues(source, status).Inc()
}

// IngestAuthFailure records a signature rejection
func (m *Registry) IngestAuthFailure(source string) {
	if m == nil {
		return
	}
	m.ingestAuthFailures.WithLabelValues(source).Inc()
}

// RateLimitReserve records requested vs granted slots
func (m *Registry) RateLimitReserve(source string, requested, granted int) {
	if m == nil {
		return
	}
	m.rateLimitGrants.WithLabelValues(source, "requested").Add(float64(requested))
	m.rateLimitGrants.WithLabelValues(source, "granted").Add(float64(granted))
}

// ExtractRow records one pipeline row outcome
func (m *Registry) ExtractRow(outcome string) {
	if m == nil {
		return
	}
	m.extractRows.WithLabelValues(outcome).Inc()
}

// ExtractBatch records the duration of one batch
func (m *Registry) ExtractBatch(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.extractBatchSecs.Observe(elapsed.Seconds())
}

// AnalysisCall records one capability call
func (m *Registry) AnalysisCall(provider, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.analysisRequests.WithLabelValues(provider, result).Inc()
	m.analysisDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}
