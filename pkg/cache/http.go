package cache

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTTL is the fallback freshness lifetime when the response carries
	// neither Cache-Control max-age nor Expires.
	DefaultTTL = 5 * time.Minute
)

// NewEntry builds an Entry from the parts of an already-read HTTP response.
func NewEntry(statusCode int, header http.Header, body []byte) *Entry {
	entry := &Entry{
		Data:       body,
		ETag:       header.Get("ETag"),
		StatusCode: statusCode,
		Headers:    header.Clone(),
		CachedAt:   time.Now(),
		Expires:    parseExpires(header),
	}

	if lastModStr := header.Get("Last-Modified"); lastModStr != "" {
		if lastMod, err := http.ParseTime(lastModStr); err == nil {
			entry.LastModified = lastMod
		}
	}

	return entry
}

// parseExpires derives the expiry time from Cache-Control max-age, falling
// back to the Expires header and finally to now + DefaultTTL.
func parseExpires(headers http.Header) time.Time {
	now := time.Now()

	if maxAge, ok := parseMaxAge(headers.Get("Cache-Control")); ok {
		return now.Add(maxAge)
	}

	expiresStr := headers.Get("Expires")
	if expiresStr == "" {
		return now.Add(DefaultTTL)
	}

	expires, err := http.ParseTime(expiresStr)
	if err != nil {
		return now.Add(DefaultTTL)
	}

	if expires.Before(now) {
		return now
	}

	return expires
}

// parseMaxAge extracts max-age from a Cache-Control value.
func parseMaxAge(cacheControl string) (time.Duration, bool) {
	for _, directive := range strings.Split(cacheControl, ",") {
		name, value, found := strings.Cut(strings.TrimSpace(directive), "=")
		if !found || !strings.EqualFold(name, "max-age") {
			continue
		}
		seconds, err := strconv.Atoi(strings.Trim(value, `"`))
		if err != nil || seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	return 0, false
}

// ShouldMakeConditionalRequest determines if we should add conditional
// request headers (If-None-Match or If-Modified-Since) based on the cache entry.
func ShouldMakeConditionalRequest(entry *Entry) bool {
	if entry == nil {
		return false
	}
	return entry.ETag != "" || !entry.LastModified.IsZero()
}

// ConditionalHeaders returns If-None-Match (ETag) or If-Modified-Since
// headers for revalidating entry. Returns nil when entry cannot be revalidated.
func ConditionalHeaders(entry *Entry) map[string]string {
	if entry == nil {
		return nil
	}

	// Prefer ETag over Last-Modified (more accurate)
	if entry.ETag != "" {
		return map[string]string{"If-None-Match": entry.ETag}
	}
	if !entry.LastModified.IsZero() {
		return map[string]string{"If-Modified-Since": entry.LastModified.Format(http.TimeFormat)}
	}
	return nil
}
