package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookfinder_upstream_requests_total",
		Help: "Total number of requests sent to the bibliographic API",
	}, []string{"endpoint", "status"})

	UpstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bookfinder_upstream_request_duration_seconds",
		Help:    "Duration of requests to the bibliographic API in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	AuthorFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookfinder_author_fallbacks_total",
		Help: "Author references that could not be resolved and were replaced by a placeholder",
	})

	StaleResponsesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookfinder_stale_responses_total",
		Help: "Search responses discarded because a newer search superseded them",
	})

	ActiveSearchSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bookfinder_search_sessions",
		Help: "Number of search sessions currently held in memory",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookfinder_http_requests_total",
		Help: "Total number of HTTP requests served",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bookfinder_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})
)
