package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by layer (redis, memory)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokegrid_cache_hits_total",
			Help: "Total number of upstream cache hits",
		},
		[]string{"layer"},
	)

	// CacheMisses tracks cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokegrid_cache_misses_total",
			Help: "Total number of upstream cache misses",
		},
	)

	// CacheSize tracks bytes written by layer
	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pokegrid_cache_size_bytes",
			Help: "Bytes written to the upstream cache",
		},
		[]string{"layer"},
	)

	// NotModifiedResponses tracks 304 Not Modified revalidations
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokegrid_304_responses_total",
			Help: "Total number of upstream 304 Not Modified responses",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokegrid_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
