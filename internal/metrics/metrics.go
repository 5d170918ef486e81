// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sevigo/codesage/internal/core"
)

// Version is reported through codesage_api_info.
const (
	Version = "1.0.0"
	Author  = "CodeSage"
)

// Metrics groups the service's collectors. Each instance registers on its own
// registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	ReviewRequests      *prometheus.CounterVec
	ReviewLatency       prometheus.Histogram
	BugsDetected        *prometheus.CounterVec
	SuggestionsMade     prometheus.Counter
	WebhookRequests     *prometheus.CounterVec
	FeedbackSubmissions *prometheus.CounterVec
	CacheHits           prometheus.Counter
	CacheMisses         prometheus.Counter
	RateLimitExceeded   prometheus.Counter
	ActiveReviews       prometheus.Gauge
	PullRequestReviews  *prometheus.CounterVec
	APIInfo             *prometheus.GaugeVec
}

// New creates and registers all collectors, including the Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		ReviewRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "codesage_review_requests_total",
			Help: "Total code review requests",
		}, []string{"language"}),
		ReviewLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "codesage_review_latency_seconds",
			Help:    "Latency of code review requests",
			Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
		}),
		BugsDetected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "codesage_bugs_detected_total",
			Help: "Total bugs detected",
		}, []string{"severity"}),
		SuggestionsMade: factory.NewCounter(prometheus.CounterOpts{
			Name: "codesage_suggestions_total",
			Help: "Total improvement suggestions made",
		}),
		WebhookRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "codesage_github_webhook_requests_total",
			Help: "Total GitHub webhook requests",
		}, []string{"event_type"}),
		FeedbackSubmissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "codesage_feedback_submissions_total",
			Help: "Total feedback submissions",
		}, []string{"helpful"}), // helpful: yes, no
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "codesage_cache_hits_total",
			Help: "Total cache hits",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "codesage_cache_misses_total",
			Help: "Total cache misses",
		}),
		RateLimitExceeded: factory.NewCounter(prometheus.CounterOpts{
			Name: "codesage_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded events",
		}),
		ActiveReviews: factory.NewGauge(prometheus.GaugeOpts{
			Name: "codesage_active_reviews",
			Help: "Number of reviews currently being processed",
		}),
		PullRequestReviews: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "codesage_pull_request_reviews_total",
			Help: "Total background pull request reviews, by outcome",
		}, []string{"status"}), // status: posted, skipped, failed
		APIInfo: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "codesage_api_info",
			Help: "Information about the CodeSage API",
		}, []string{"version", "author"}),
	}

	m.APIInfo.WithLabelValues(Version, Author).Set(1)
	return m
}

// Handler serves the registry in the Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveReview records a freshly generated review.
func (m *Metrics) ObserveReview(result *core.ReviewResult, elapsed time.Duration) {
	m.ReviewLatency.Observe(elapsed.Seconds())
	for _, bug := range result.Findings {
		m.BugsDetected.WithLabelValues(string(bug.Severity)).Inc()
	}
	m.SuggestionsMade.Add(float64(len(result.Suggestions)))
}

// ObserveFeedback counts one feedback submission.
func (m *Metrics) ObserveFeedback(helpful bool) {
	label := "no"
	if helpful {
		label = "yes"
	}
	m.FeedbackSubmissions.WithLabelValues(label).Inc()
}
