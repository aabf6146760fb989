// Package cache provides upstream response caching with pluggable Redis or
// in-memory backends and ETag support for conditional requests.
package cache

import (
	"net/http"
	"time"
)

// Entry is one stored upstream body plus the validators needed to revalidate it.
type Entry struct {
	Data         []byte      `json:"data"`
	ETag         string      `json:"etag"`
	Expires      time.Time   `json:"expires"`
	LastModified time.Time   `json:"last_modified"`
	StatusCode   int         `json:"status_code"`
	Headers      http.Header `json:"headers"`
	CachedAt     time.Time   `json:"cached_at"`
}

// IsExpired reports whether the upstream freshness lifetime has passed.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL is the remaining freshness, zero once stale.
func (e *Entry) TTL() time.Duration {
	return max(0, time.Until(e.Expires))
}

// Servable reports whether the entry may answer a request without going
// upstream. Stale entries qualify only when serveStale is set.
func (e *Entry) Servable(serveStale bool) bool {
	return serveStale || !e.IsExpired()
}

// StoreTTL is how long a store keeps the entry: its freshness or retention,
// whichever is longer. Zero means the entry is not worth storing.
func (e *Entry) StoreTTL(retention time.Duration) time.Duration {
	return max(e.TTL(), retention, 0)
}

// Age is the time since the entry was cached. Entries without CachedAt
// report zero.
func (e *Entry) Age() time.Duration {
	if e.CachedAt.IsZero() {
		return 0
	}
	return time.Since(e.CachedAt)
}
