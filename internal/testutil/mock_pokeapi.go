// Package testutil provides testing utilities for pokegrid.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// APIPrefix is the path prefix the mock serves, matching the real API.
	APIPrefix = "/api/v2"

	// DefaultPageSize matches the upstream default listing limit.
	DefaultPageSize = 20
)

// MockResponse defines a canned response for a path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockPokemon is one record served by the mock. A nil Image serializes as
// "front_default": null.
type MockPokemon struct {
	Name  string
	Image *string
}

// MockPokeAPI is a configurable mock PokeAPI server for testing.
type MockPokeAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc
	pokemon  []MockPokemon
	delays   map[int]time.Duration
	pageSize int

	// Tracking
	requestCount      int
	conditionalCount  int
	paths             []string
	lastRequestHeader http.Header
}

// NewMockPokeAPI creates a new mock server.
func NewMockPokeAPI() *MockPokeAPI {
	mock := &MockPokeAPI{
		handlers: make(map[string]http.HandlerFunc),
		delays:   make(map[int]time.Duration),
		pageSize: DefaultPageSize,
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.paths = append(mock.paths, r.URL.RequestURI())
		mock.lastRequestHeader = r.Header.Clone()
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.conditionalCount++
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server root URL.
func (m *MockPokeAPI) URL() string {
	return m.server.URL
}

// BaseURL returns the API root to configure clients with.
func (m *MockPokeAPI) BaseURL() string {
	return m.server.URL + APIPrefix
}

// Close shuts down the mock server.
func (m *MockPokeAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockPokeAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.conditionalCount = 0
	m.paths = nil
	m.lastRequestHeader = nil
}

// SetPokemon replaces the records the default handlers serve.
func (m *MockPokeAPI) SetPokemon(pokemon ...MockPokemon) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pokemon = append([]MockPokemon(nil), pokemon...)
}

// SetPageSize changes the listing limit used when a request carries none.
func (m *MockPokeAPI) SetPageSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageSize = n
}

// SetDetailDelay delays the detail response of the Pokemon with the given id.
func (m *MockPokeAPI) SetDetailDelay(id int, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[id] = d
}

// SetHandler sets a custom handler for a specific path.
func (m *MockPokeAPI) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockPokeAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// RequestCount returns the number of requests made to the server.
func (m *MockPokeAPI) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// ConditionalCount returns the number of conditional requests.
func (m *MockPokeAPI) ConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conditionalCount
}

// Paths returns the request URIs seen so far, in arrival order.
func (m *MockPokeAPI) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.paths...)
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockPokeAPI) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader
}

// ListingPath is the path of the listing endpoint.
func ListingPath() string {
	return APIPrefix + "/pokemon"
}

// DetailPath is the path of the detail endpoint for id (1-based).
func DetailPath(id int) string {
	return fmt.Sprintf("%s/pokemon/%d/", APIPrefix, id)
}

// SpriteURL is the image URL the mock reports for id.
func SpriteURL(id int) string {
	return fmt.Sprintf("https://sprites.example/pokemon/%d.png", id)
}

// Named builds MockPokemon records whose images are SpriteURL(position).
func Named(names ...string) []MockPokemon {
	out := make([]MockPokemon, len(names))
	for i, name := range names {
		img := SpriteURL(i + 1)
		out[i] = MockPokemon{Name: name, Image: &img}
	}
	return out
}

// defaultHandler serves listing and detail resources from the configured records.
func (m *MockPokeAPI) defaultHandler(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == ListingPath() || r.URL.Path == ListingPath()+"/":
		m.serveListing(w, r)
	case strings.HasPrefix(r.URL.Path, ListingPath()+"/"):
		m.serveDetail(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Not Found"))
	}
}

func (m *MockPokeAPI) serveListing(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	pokemon := m.pokemon
	limit := m.pageSize
	m.mu.RUnlock()

	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		offset = n
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	type result struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	results := []result{}
	for i := offset; i < len(pokemon) && i < offset+limit; i++ {
		results = append(results, result{
			Name: pokemon[i].Name,
			URL:  m.server.URL + DetailPath(i+1),
		})
	}

	m.writeJSON(w, r, fmt.Sprintf(`"list-%d-%d"`, offset, limit), map[string]any{
		"count":    len(pokemon),
		"next":     nil,
		"previous": nil,
		"results":  results,
	})
}

func (m *MockPokeAPI) serveDetail(w http.ResponseWriter, r *http.Request) {
	idStr := strings.Trim(strings.TrimPrefix(r.URL.Path, ListingPath()+"/"), "/")
	id, err := strconv.Atoi(idStr)

	m.mu.RLock()
	pokemon := m.pokemon
	delay := m.delays[id]
	m.mu.RUnlock()

	if err != nil || id < 1 || id > len(pokemon) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Not Found"))
		return
	}
	if delay > 0 {
		time.Sleep(delay)
	}

	p := pokemon[id-1]
	m.writeJSON(w, r, fmt.Sprintf(`"pokemon-%d"`, id), map[string]any{
		"id":   id,
		"name": p.Name,
		"sprites": map[string]any{
			"front_default": p.Image,
		},
	})
}

// writeJSON writes v with PokeAPI-like caching headers, answering 304 when
// the request already holds etag.
func (m *MockPokeAPI) writeJSON(w http.ResponseWriter, r *http.Request, etag string, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400, s-maxage=86400")
	w.Header().Set("ETag", etag)

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}
