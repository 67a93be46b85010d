package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	labelResult   = "result"
	labelStrategy = "strategy"
	labelOutcome  = "outcome"
	labelMethod   = "method"
	labelRoute    = "route"
	labelStatus   = "status"

	cacheResultHit     = "hit"
	cacheResultMiss    = "miss"
	cacheResultExpired = "expired"

	outcomeSuccess  = "success"
	outcomeFailure  = "failure"
	outcomeFallback = "fallback"
)

// Metadata resolution metrics
var (
	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrapboard_metadata_cache_lookups_total",
			Help: "Metadata cache lookups by result",
		},
		[]string{labelResult},
	)

	cacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scrapboard_metadata_cache_entries",
			Help: "Number of entries currently held in the metadata cache",
		},
	)

	resolverStrategyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrapboard_resolver_strategy_total",
			Help: "Metadata resolution attempts by strategy and outcome",
		},
		[]string{labelStrategy, labelOutcome},
	)

	resolverDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scrapboard_resolver_duration_seconds",
			Help:    "Time spent resolving metadata on a cache miss",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{labelStrategy},
	)
)

// Board metrics
var (
	boardItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scrapboard_board_items",
			Help: "Number of items on the board",
		},
	)

	intakeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrapboard_intake_total",
			Help: "Scrap intake attempts by outcome",
		},
		[]string{labelOutcome},
	)
)

// HTTP metrics
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrapboard_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{labelMethod, labelRoute, labelStatus},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scrapboard_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{labelMethod, labelRoute},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scrapboard_http_requests_in_flight",
			Help: "Number of HTTP requests being served",
		},
	)
)

// statusRecorder wraps http.ResponseWriter to capture the status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware records request counts and latency per route pattern
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		// route pattern keeps item ids out of the label set
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
