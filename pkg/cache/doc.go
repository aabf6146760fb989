// Package cache provides upstream response caching for the PokeAPI client.
//
// The cache manager implements the following features:
//
// - Freshness from Cache-Control max-age or Expires headers
// - ETag support for conditional requests (If-None-Match)
// - Last-Modified support (If-Modified-Since)
// - Retention beyond freshness so "force-cache" lookups can serve stale entries
// - Redis (shared) or in-memory LRU (per process) backends
// - Prometheus metrics for observability
// - Deterministic cache key generation
//
// # Basic Usage
//
//	store, err := cache.NewMemoryStore(1024)
//	if err != nil {
//		return err
//	}
//	manager := cache.NewManager(store, 24*time.Hour)
//
//	key := cache.KeyFromURL(req.URL)
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from upstream
//	}
//
// A Redis backend is shared between server replicas:
//
//	manager := cache.NewManager(cache.NewRedisStore(redisClient), 24*time.Hour)
//
// # Storing Responses
//
//	entry := cache.NewEntry(resp.StatusCode(), resp.Header(), resp.Body())
//	if err := manager.Set(ctx, key, entry); err != nil {
//		return err
//	}
//
// # Conditional Requests
//
//	if cache.ShouldMakeConditionalRequest(entry) {
//		req.SetHeaders(cache.ConditionalHeaders(entry))
//	}
//
// # Metrics
//
//   - pokegrid_cache_hits_total{layer} - Cache hits
//   - pokegrid_cache_misses_total - Cache misses
//   - pokegrid_cache_size_bytes{layer} - Bytes written
//   - pokegrid_304_responses_total - Conditional request successes
//   - pokegrid_cache_errors_total{operation} - Cache operation errors
package cache
