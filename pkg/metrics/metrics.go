// Package metrics exposes the Prometheus registry shared by pokegrid.
// Metrics are defined in the packages that record them (pokeapi, cache,
// aggregate, scroll) and registered via promauto; this package serves them
// and documents what exists.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every pokegrid metric is registered with.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer Handler serves from.
var Gatherer = prometheus.DefaultGatherer

// Handler serves all registered metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Upstream Metrics (pkg/pokeapi):
//   - pokeapi_requests_total{endpoint, status} (Counter): Upstream requests by endpoint and HTTP status
//   - pokeapi_request_duration_seconds{endpoint} (Histogram): Upstream request duration
//   - pokeapi_errors_total{class} (Counter): Errors by class (client, server, network, decode, shape)
//
// Cache Metrics (pkg/cache):
//   - pokegrid_cache_hits_total{layer} (Counter): Cache hits by store layer (memory, redis)
//   - pokegrid_cache_misses_total (Counter): Cache misses
//   - pokegrid_cache_size_bytes{layer} (Gauge): Bytes written to the cache
//   - pokegrid_304_responses_total (Counter): 304 Not Modified responses
//   - pokegrid_cache_errors_total{operation} (Counter): Cache operation errors
//
// Aggregation Metrics (pkg/aggregate):
//   - pokegrid_aggregate_requests_total{outcome} (Counter): /api/sample requests (ok, invalid, error)
//   - pokegrid_aggregate_fanout (Histogram): Detail fetches per aggregated page
//   - pokegrid_aggregate_duration_seconds (Histogram): Time to aggregate one page
//
// List Controller Metrics (pkg/scroll):
//   - pokegrid_scroll_page_fetches_total{outcome} (Counter): Page fetches (ok, error, cancelled)
//   - pokegrid_scroll_page_fetch_duration_seconds (Histogram): Page fetch duration
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(pokegrid_cache_hits_total[5m])) /
//   (sum(rate(pokegrid_cache_hits_total[5m])) + sum(rate(pokegrid_cache_misses_total[5m])))
//
//   # Aggregation Error Rate
//   rate(pokegrid_aggregate_requests_total{outcome="error"}[5m])
//
//   # P95 Upstream Latency
//   histogram_quantile(0.95, rate(pokeapi_request_duration_seconds_bucket[5m]))
//
//   # Average Fan-out
//   rate(pokegrid_aggregate_fanout_sum[5m]) / rate(pokegrid_aggregate_fanout_count[5m])
