// Package pokeapi provides the upstream PokeAPI HTTP client with response
// caching and error classification.
package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/pokegrid/pkg/cache"
	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for upstream operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokeapi_requests_total",
		Help: "Total PokeAPI requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pokeapi_request_duration_seconds",
		Help:    "PokeAPI request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokeapi_errors_total",
		Help: "Total PokeAPI errors by class",
	}, []string{"class"})
)

// DefaultBaseURL is the public PokeAPI root.
const DefaultBaseURL = "https://pokeapi.co/api/v2"

// CachePolicy selects how cached entries are used.
type CachePolicy int

const (
	// PolicyForceCache serves any stored entry, fresh or stale, and only goes
	// upstream when nothing is stored.
	PolicyForceCache CachePolicy = iota

	// PolicyDefault serves fresh entries and revalidates stale ones with
	// conditional requests.
	PolicyDefault
)

// ParseCachePolicy maps "force-cache" and "default" to a CachePolicy.
func ParseCachePolicy(s string) (CachePolicy, error) {
	switch strings.ToLower(s) {
	case "", "force-cache":
		return PolicyForceCache, nil
	case "default":
		return PolicyDefault, nil
	default:
		return 0, fmt.Errorf("unknown cache policy %q", s)
	}
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root, e.g. https://pokeapi.co/api/v2
	BaseURL string

	// UserAgent header sent upstream
	UserAgent string

	// Timeout per upstream request
	Timeout time.Duration

	// Cache is optional; nil disables caching
	Cache *cache.Manager

	// Policy applies to every upstream call
	Policy CachePolicy
}

// DefaultConfig returns a configuration pointed at the public API.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: "pokegrid/0.1.0",
		Timeout:   30 * time.Second,
		Policy:    PolicyForceCache,
	}
}

// Client is the PokeAPI client.
type Client struct {
	http    *resty.Client
	baseURL *url.URL
	cache   *cache.Manager
	config  Config
	logger  zerolog.Logger
}

// New creates a new PokeAPI client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "pokeapi").Logger()

	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		httpClient.SetHeader("User-Agent", cfg.UserAgent)
	}

	c := &Client{
		http:    httpClient,
		baseURL: base,
		cache:   cfg.Cache,
		config:  cfg,
		logger:  logger,
	}
	c.instrument()

	return c, nil
}

// instrument attaches logging hooks to the resty client.
func (c *Client) instrument() {
	c.http.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		c.logger.Debug().
			Str("method", req.Method).
			Str("url", req.URL).
			Msg("Executing upstream request")
		return nil
	})
	c.http.OnError(func(req *resty.Request, err error) {
		c.logger.Error().
			Err(err).
			Str("url", req.URL).
			Msg("Upstream request failed")
	})
}

// ListPokemon fetches one page of the /pokemon listing. offset is forwarded
// verbatim when non-empty; upstream decides the page size.
func (c *Client) ListPokemon(ctx context.Context, offset string) (*NamedResourceList, error) {
	u := c.baseURL.JoinPath("pokemon")
	if offset != "" {
		q := u.Query()
		q.Set("offset", offset)
		u.RawQuery = q.Encode()
	}

	var list NamedResourceList
	if err := c.getJSON(ctx, u, &list); err != nil {
		return nil, err
	}
	if list.Results == nil {
		return nil, c.shapeError(u, "listing has no results")
	}
	for i, r := range list.Results {
		if r.URL == "" {
			return nil, c.shapeError(u, "result "+strconv.Itoa(i)+" has no url")
		}
	}

	return &list, nil
}

// GetPokemon fetches a detail resource by the URL found in a listing.
// Relative URLs are resolved against the base URL.
func (c *Client) GetPokemon(ctx context.Context, rawURL string) (*Pokemon, error) {
	ref, err := url.Parse(rawURL)
	if err != nil {
		return nil, &UpstreamError{URL: rawURL, ErrorClass: ErrorClassShape, Err: fmt.Errorf("%w: %v", ErrShapeMismatch, err)}
	}
	u := c.baseURL.ResolveReference(ref)

	var p Pokemon
	if err := c.getJSON(ctx, u, &p); err != nil {
		return nil, err
	}
	if p.Sprites == nil {
		return nil, c.shapeError(u, "detail has no sprites")
	}

	return &p, nil
}

func (c *Client) shapeError(u *url.URL, msg string) error {
	errorsTotal.WithLabelValues(string(ErrorClassShape)).Inc()
	return &UpstreamError{
		URL:        u.String(),
		ErrorClass: ErrorClassShape,
		Message:    msg,
		Err:        ErrShapeMismatch,
	}
}

// getJSON fetches u and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, u *url.URL, out any) error {
	body, err := c.fetch(ctx, u)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return &UpstreamError{
			URL:        u.String(),
			ErrorClass: ErrorClassDecode,
			Message:    "invalid JSON body",
			Err:        err,
		}
	}
	return nil
}

// fetch performs a GET with cache lookup, conditional revalidation and
// cache population. It returns the response body.
func (c *Client) fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	endpoint := endpointLabel(u.Path)
	key := cache.KeyFromURL(u)

	// Step 1: Check Cache
	var cached *cache.Entry
	if c.cache != nil {
		entry, err := c.cache.Lookup(ctx, key)
		switch {
		case err == nil:
			cached = entry
		case errors.Is(err, cache.ErrCacheMiss):
		default:
			c.logger.Warn().Err(err).Str("url", u.String()).Msg("Cache lookup error")
		}
	}

	if cached != nil && cached.Servable(c.config.Policy == PolicyForceCache) {
		c.logger.Debug().
			Str("url", u.String()).
			Bool("stale", cached.IsExpired()).
			Dur("age", cached.Age()).
			Msg("Serving from cache")
		requestsTotal.WithLabelValues(endpoint, "cache").Inc()
		return cached.Data, nil
	}

	// Step 2: Build request, conditional if we hold a stale entry
	req := c.http.R().SetContext(ctx)
	if cache.ShouldMakeConditionalRequest(cached) {
		req.SetHeaders(cache.ConditionalHeaders(cached))
		c.logger.Debug().
			Str("url", u.String()).
			Str("etag", cached.ETag).
			Msg("Making conditional request")
	}

	// Step 3: Execute
	startTime := time.Now()
	resp, err := req.Get(u.String())
	requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, &UpstreamError{
			URL:        u.String(),
			ErrorClass: ErrorClassNetwork,
			Err:        err,
		}
	}

	status := resp.StatusCode()
	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()

	// Step 4: 304 Not Modified refreshes the stored entry
	if status == http.StatusNotModified && cached != nil {
		cache.NotModifiedResponses.Inc()
		refreshed := cache.NewEntry(status, resp.Header(), nil)
		if err := c.cache.UpdateTTL(ctx, key, refreshed.Expires); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
		}
		c.logger.Debug().Str("url", u.String()).Msg("304 Not Modified - using cache")
		return cached.Data, nil
	}

	// Step 5: HTTP errors
	if status < 200 || status >= 300 {
		class := classifyStatus(status)
		errorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Warn().
			Str("url", u.String()).
			Int("status", status).
			Str("error_class", string(class)).
			Msg("Upstream request error")
		return nil, &UpstreamError{
			URL:        u.String(),
			StatusCode: status,
			ErrorClass: class,
			Message:    resp.Status(),
		}
	}

	body := resp.Body()

	// Step 6: Populate cache
	if c.cache != nil && status == http.StatusOK {
		entry := cache.NewEntry(status, resp.Header(), body)
		if err := c.cache.Set(ctx, key, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		}
	}

	return body, nil
}

var numericSegment = regexp.MustCompile(`/\d+(/|$)`)

// endpointLabel collapses numeric path segments so detail URLs share one
// metrics label: /api/v2/pokemon/25/ -> /api/v2/pokemon/{id}/
func endpointLabel(path string) string {
	return numericSegment.ReplaceAllString(path, "/{id}$1")
}

// Close releases idle upstream connections.
func (c *Client) Close() error {
	c.http.GetClient().CloseIdleConnections()
	return nil
}
