// Package metrics exposes Prometheus instrumentation for the polling pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Stream metrics
	StreamConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nowplaying_stream_connections",
			Help: "Current number of open event stream connections",
		},
	)

	PollCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nowplaying_poll_cycles_total",
			Help: "Total number of poll cycles by outcome",
		},
		[]string{"outcome"}, // "changed", "unchanged", "failed"
	)

	PollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nowplaying_poll_duration_seconds",
			Help:    "Duration of one poll cycle in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	StreamPushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nowplaying_stream_events_total",
			Help: "Total number of events written to stream clients",
		},
		[]string{"event"},
	)

	StreamInterval = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nowplaying_stream_interval_seconds",
			Help:    "Poll interval chosen after each pushed update",
			Buckets: []float64{5, 10, 15, 30},
		},
	)

	// Upstream metrics
	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nowplaying_catalog_requests_total",
			Help: "Total number of catalog requests by outcome",
		},
		[]string{"outcome"}, // "ok", "not_found", "rate_limited", "error"
	)

	ShortCircuits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nowplaying_short_circuits_total",
			Help: "Upstream calls skipped without a network request",
		},
		[]string{"reason"}, // "backoff", "suppressed", "not_found", "breaker_open"
	)

	LastfmRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nowplaying_lastfm_requests_total",
			Help: "Total number of Last.fm requests",
		},
		[]string{"method", "outcome"},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nowplaying_cache_hits_total",
			Help: "Metadata cache hits by namespace",
		},
		[]string{"namespace"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nowplaying_cache_misses_total",
			Help: "Metadata cache misses by namespace",
		},
		[]string{"namespace"},
	)
)

// ObservePoll records a finished poll cycle.
func ObservePoll(outcome string, d time.Duration) {
	PollCycles.WithLabelValues(outcome).Inc()
	PollDuration.Observe(d.Seconds())
}
