// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "students_http_requests_total",
			Help: "Total number of HTTP requests by method, route pattern and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "students_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Repository
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "students_cache_hits_total",
			Help: "Reads served from the repository read cache",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "students_cache_misses_total",
			Help: "Reads that had to go to the storage backend",
		},
	)

	StoreDegraded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "students_store_degraded",
			Help: "1 when the repository is running on in-memory storage after a storage failure",
		},
	)

	StoreWriteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "students_store_write_errors_total",
			Help: "Failed writes to the storage backend",
		},
		[]string{"driver"},
	)

	StudentsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "students_records",
			Help: "Number of student records at the last full read",
		},
	)

	// Client sync
	SyncTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "students_sync_total",
			Help: "Client snapshot merges by outcome (merged, unchanged, seeded, empty, ignored)",
		},
		[]string{"outcome"},
	)
)

// Sync outcomes.
const (
	SyncMerged    = "merged"
	SyncUnchanged = "unchanged"
	SyncSeeded    = "seeded"
	SyncEmpty     = "empty"
	SyncIgnored   = "ignored"
)
