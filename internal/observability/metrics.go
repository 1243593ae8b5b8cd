package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonathan/job-matcher/internal/cache"
	"github.com/jonathan/job-matcher/internal/types"
)

const namespace = "jobmatch"

// Classification outcomes
const (
	OutcomeJob          = "job"
	OutcomeSectorOnly   = "sector_only"
	OutcomeUnclassified = "unclassified"
)

// Metrics holds the Prometheus collectors of the matcher. Each Metrics owns its registry so
// tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	classifications *prometheus.CounterVec
	matchScores     prometheus.Histogram
	blockingFactors *prometheus.CounterVec
	jobsPerMatch    prometheus.Histogram
}

// NewMetrics creates and registers the matcher collectors plus the Go runtime collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Classifications by context and outcome.",
		}, []string{"context", "outcome"}),
		matchScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_score",
			Help:      "Distribution of match scores.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		blockingFactors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocking_factors_total",
			Help:      "Blocking factors raised, by type.",
		}, []string{"type"}),
		jobsPerMatch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_jobs",
			Help:      "Number of jobs per match request.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.classifications,
		m.matchScores,
		m.blockingFactors,
		m.jobsPerMatch,
	)
	return m
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveClassification records the outcome of one classification.
func (m *Metrics) ObserveClassification(c types.Context, cls *types.Classification) {
	m.classifications.WithLabelValues(string(c), ClassificationOutcome(cls)).Inc()
}

// ObserveMatch records the scores and blocking factors of one match call.
func (m *Metrics) ObserveMatch(jobs int, results []*types.MatchResult) {
	m.jobsPerMatch.Observe(float64(jobs))
	for _, r := range results {
		m.matchScores.Observe(float64(r.Score))
		for _, bf := range r.BlockingFactors {
			m.blockingFactors.WithLabelValues(bf.Type).Inc()
		}
	}
}

// RegisterCache exposes the classification cache counters. stats is read at scrape time.
func (m *Metrics) RegisterCache(stats func() cache.Stats) {
	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Classification cache hits.",
		}, func() float64 { return float64(stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Classification cache misses.",
		}, func() float64 { return float64(stats().Misses) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "l2_errors_total",
			Help:      "Shared cache tier failures, counted as misses.",
		}, func() float64 { return float64(stats().L2Errors) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Entries in the in-process cache tier.",
		}, func() float64 { return float64(stats().Entries) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "breaker_open",
			Help:      "1 when the shared tier circuit breaker is open.",
		}, func() float64 {
			if stats().Breaker == "open" {
				return 1
			}
			return 0
		}),
	)
}

// ClassificationOutcome buckets a classification for metrics and summaries.
func ClassificationOutcome(cls *types.Classification) string {
	switch {
	case cls.HasJob():
		return OutcomeJob
	case cls.HasSector():
		return OutcomeSectorOnly
	default:
		return OutcomeUnclassified
	}
}
