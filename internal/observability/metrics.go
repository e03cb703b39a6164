package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	upstreamFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playdash",
		Subsystem: "upstream",
		Name:      "fetches_total",
		Help:      "Upstream fetches by endpoint and outcome (ok, transport, parse).",
	}, []string{"endpoint", "outcome"})
	upstreamLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "playdash",
		Subsystem: "upstream",
		Name:      "fetch_duration_seconds",
		Help:      "Latency of upstream fetches.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
	cacheReads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playdash",
		Subsystem: "cache",
		Name:      "reads_total",
		Help:      "Dataset cache reads by state (fresh, stale, absent).",
	}, []string{"state"})
	cacheWrites = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "playdash",
		Subsystem: "cache",
		Name:      "writes_total",
		Help:      "Successful dataset cache writes.",
	})
	discardedResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playdash",
		Subsystem: "dashboard",
		Name:      "superseded_results_total",
		Help:      "Fetch results discarded because a newer fetch was already applied.",
	}, []string{"kind"})
	panelFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playdash",
		Subsystem: "dashboard",
		Name:      "panel_failures_total",
		Help:      "Panels that could not be rendered, by panel.",
	}, []string{"panel"})
	shapeMismatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playdash",
		Subsystem: "normalize",
		Name:      "shape_mismatches_total",
		Help:      "Payloads that did not match any known shape and were normalized with a fallback.",
	}, []string{"payload"})
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playdash",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "code"})
	httpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "playdash",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency of HTTP requests by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
	rateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "playdash",
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	})
	lastRefreshGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "playdash",
		Subsystem: "dashboard",
		Name:      "last_refresh_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful combined fetch.",
	})
)

func init() {
	prometheus.MustRegister(
		upstreamFetches,
		upstreamLatency,
		cacheReads,
		cacheWrites,
		discardedResults,
		panelFailures,
		shapeMismatches,
		httpRequests,
		httpLatency,
		rateLimited,
		lastRefreshGauge,
	)
}

// RecordFetch counts one upstream fetch and observes its latency.
func RecordFetch(endpoint, outcome string, d time.Duration) {
	upstreamFetches.WithLabelValues(endpoint, outcome).Inc()
	upstreamLatency.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordCacheRead counts a dataset cache read in the given state.
func RecordCacheRead(state string) {
	cacheReads.WithLabelValues(state).Inc()
}

// RecordCacheWrite counts a dataset cache write.
func RecordCacheWrite() {
	cacheWrites.Inc()
}

// RecordSuperseded counts a discarded fetch result of the given kind (dataset, calendar).
func RecordSuperseded(kind string) {
	discardedResults.WithLabelValues(kind).Inc()
}

// RecordPanelFailure counts a failed panel render.
func RecordPanelFailure(panel string) {
	panelFailures.WithLabelValues(panel).Inc()
}

// RecordShapeMismatch counts a payload handled by the tolerant fallback.
func RecordShapeMismatch(payload string) {
	shapeMismatches.WithLabelValues(payload).Inc()
}

// RecordRefresh updates the refresh watermark gauge.
func RecordRefresh(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastRefreshGauge.Set(float64(ts.Unix()))
}

// RecordHTTPRequest counts a served request. route is the matched mux
// pattern, or "unmatched".
func RecordHTTPRequest(method, route string, code int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpLatency.WithLabelValues(route).Observe(d.Seconds())
}

// RecordRateLimited counts a rejected request.
func RecordRateLimited() {
	rateLimited.Inc()
}
