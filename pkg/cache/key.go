package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every key written by this package.
const KeyPrefix = "pokegrid"

// Key represents a unique identifier for a cached upstream response.
type Key struct {
	// Host is the upstream host (e.g., "pokeapi.co")
	Host string

	// Path is the request path (e.g., "/api/v2/pokemon/")
	Path string

	// QueryParams are the query parameters (e.g., {"offset": "20"})
	QueryParams url.Values
}

// KeyFromURL builds a Key from a parsed request URL.
func KeyFromURL(u *url.URL) Key {
	return Key{
		Host:        u.Host,
		Path:        u.Path,
		QueryParams: u.Query(),
	}
}

// String generates a deterministic cache key string.
// Format: pokegrid:host:path:query1=val1:query2=val2
//
// Example:
//
//	pokegrid:pokeapi.co:api/v2/pokemon:offset=20
func (k Key) String() string {
	parts := []string{KeyPrefix}

	if k.Host != "" {
		parts = append(parts, strings.ToLower(k.Host))
	}

	// Trailing slashes are significant to nobody upstream; normalize them away.
	if path := strings.Trim(k.Path, "/"); path != "" {
		parts = append(parts, path)
	}

	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.QueryParams.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
