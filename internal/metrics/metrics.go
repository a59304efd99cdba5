// Package metrics defines the Prometheus instruments of the API server.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/unklstewy/nightsky/pkg/events"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nightsky_http_requests_total",
			Help: "Total HTTP requests by route pattern, method and status code",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nightsky_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nightsky_rate_limited_total",
			Help: "Total requests rejected by the per-client rate limiter",
		},
	)

	EventsComputeLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nightsky_events_compute_seconds",
			Help:    "Time to answer an event query, cache hits included",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	EventDiagnosticsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nightsky_event_diagnostics_total",
			Help: "Total per-body computations skipped and reported as diagnostics",
		},
	)

	SnapshotsSavedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nightsky_snapshots_saved_total",
			Help: "Event snapshots written to the database",
		},
		[]string{"status"},
	)
)

// ObserveRequest records one served HTTP request.
func ObserveRequest(route, method string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPRequestLatency.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveEvents records an answered event query.
func ObserveEvents(r *events.Result, d time.Duration) {
	EventsComputeLatency.Observe(d.Seconds())
	if r != nil {
		EventDiagnosticsTotal.Add(float64(len(r.Diagnostics)))
	}
}

// ObserveSnapshot records a snapshot write.
func ObserveSnapshot(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	SnapshotsSavedTotal.WithLabelValues(status).Inc()
}

// RegisterCache exports the result cache counters on reg.
func RegisterCache(reg prometheus.Registerer, cache *events.Cache) error {
	collectors := []prometheus.Collector{
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "nightsky_cache_hits_total",
			Help: "Event queries answered from the result cache",
		}, func() float64 { return float64(cache.Stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "nightsky_cache_misses_total",
			Help: "Event queries that had to be computed",
		}, func() float64 { return float64(cache.Stats().Misses) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "nightsky_cache_entries",
			Help: "Results currently held in the cache",
		}, func() float64 { return float64(cache.Stats().Size) }),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
