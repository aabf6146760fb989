package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/pokegrid/internal/config"
	"github.com/Sternrassler/pokegrid/pkg/aggregate"
	"github.com/Sternrassler/pokegrid/pkg/cache"
	"github.com/Sternrassler/pokegrid/pkg/metrics"
	"github.com/Sternrassler/pokegrid/pkg/pokeapi"
)

// server wires the upstream client, the cache and the sample endpoint.
type server struct {
	upstream *pokeapi.Client
	cache    *cache.Manager // nil when caching is disabled
	sample   *aggregate.Handler
	logger   zerolog.Logger
}

func newServer(cfg *config.Config, store cache.Store) (*server, error) {
	var mgr *cache.Manager
	if store != nil {
		mgr = cache.NewManager(store, cfg.Retention())
	}

	upstreamCfg := cfg.UpstreamClientConfig()
	upstreamCfg.Cache = mgr
	client, err := pokeapi.New(upstreamCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream client: %w", err)
	}

	var maxAge time.Duration
	if upstreamCfg.Policy == pokeapi.PolicyForceCache {
		maxAge = cfg.Retention()
	}

	return &server{
		upstream: client,
		cache:    mgr,
		sample:   aggregate.NewHandler(aggregate.NewAggregator(client), aggregate.HandlerConfig{CacheMaxAge: maxAge}),
		logger:   log.With().Str("component", "server").Logger(),
	}, nil
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", s.readyHandler)
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle(aggregate.Route, s.sample)

	return accessLog(s.logger, mux)
}

func (s *server) Close() {
	s.upstream.Close()
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// readyHandler reports whether the cache backend is reachable.
func (s *server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if s.cache != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.cache.Ping(ctx); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Str("layer", s.cache.Layer()).Msg("Cache not ready")
			http.Error(w, "cache unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// accessLog attaches a request-scoped logger and logs every request.
func accessLog(logger zerolog.Logger, next http.Handler) http.Handler {
	h := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request handled")
	})(next)
	h = hlog.RequestIDHandler("req_id", "X-Request-Id")(h)
	return hlog.NewHandler(logger)(h)
}
