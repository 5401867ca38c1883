// Package metrics provides Prometheus metrics for the Banyan service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CollectionRunsTotal tracks collection runs by outcome
	CollectionRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "banyan",
			Subsystem: "collection",
			Name:      "runs_total",
			Help:      "Total number of collection runs by outcome",
		},
		[]string{"outcome"},
	)

	// CollectionDuration tracks end-to-end collection run duration in seconds
	CollectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "banyan",
			Subsystem: "collection",
			Name:      "run_duration_seconds",
			Help:      "Duration of collection runs in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
	)

	// UnitsDiscovered tracks business units found by discovery signal
	UnitsDiscovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "banyan",
			Subsystem: "discovery",
			Name:      "units_total",
			Help:      "Total number of business units discovered by signal",
		},
		[]string{"signal"},
	)

	// PeopleMerged tracks canonical person outcomes from entity resolution
	PeopleMerged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "banyan",
			Subsystem: "resolution",
			Name:      "people_total",
			Help:      "Total number of canonical person records by outcome",
		},
		[]string{"outcome"},
	)

	// ChangesDetected tracks leadership changes by type
	ChangesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "banyan",
			Subsystem: "changes",
			Name:      "detected_total",
			Help:      "Total number of leadership changes detected by type",
		},
		[]string{"change_type"},
	)

	// SnapshotsBuilt tracks org chart snapshots persisted
	SnapshotsBuilt = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "banyan",
			Subsystem: "orgchart",
			Name:      "snapshots_total",
			Help:      "Total number of org chart snapshots persisted",
		},
	)

	// HTTPRequestsTotal tracks outbound HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "banyan",
			Subsystem: "http_client",
			Name:      "requests_total",
			Help:      "Total number of outbound HTTP requests",
		},
		[]string{"method", "status_code"},
	)

	// HTTPRequestDuration tracks outbound HTTP request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "banyan",
			Subsystem: "http_client",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound HTTP requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)

	// HTTPCacheHits tracks response cache hits and misses
	HTTPCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "banyan",
			Subsystem: "http_client",
			Name:      "cache_total",
			Help:      "Response cache lookups by result",
		},
		[]string{"result"},
	)
)
