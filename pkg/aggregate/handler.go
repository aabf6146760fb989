package aggregate

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Route is where the handler is mounted.
const Route = "/api/sample"

var (
	validate      = validator.New()
	schemaDecoder = schema.NewDecoder()

	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokegrid_aggregate_requests_total",
		Help: "Aggregation endpoint requests by outcome",
	}, []string{"outcome"})
)

func init() {
	schemaDecoder.IgnoreUnknownKeys(true)
}

// PageQuery is the query string accepted by the handler.
type PageQuery struct {
	Offset *int `schema:"offset" validate:"omitempty,min=0"`
}

// ErrorBody is the JSON body of every non-200 response.
type ErrorBody struct {
	Error string `json:"error"`
}

// HandlerConfig configures the HTTP handler.
type HandlerConfig struct {
	// CacheMaxAge is advertised in Cache-Control on successful responses.
	// Zero omits the header.
	CacheMaxAge time.Duration
}

// Handler serves aggregated card pages as JSON.
type Handler struct {
	agg    *Aggregator
	config HandlerConfig
	logger zerolog.Logger
}

// NewHandler creates the HTTP handler for agg.
func NewHandler(agg *Aggregator, cfg HandlerConfig) *Handler {
	return &Handler{
		agg:    agg,
		config: cfg,
		logger: log.With().Str("component", "aggregate").Logger(),
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		requestsTotal.WithLabelValues("invalid").Inc()
		writeJSON(w, http.StatusMethodNotAllowed, ErrorBody{Error: "method not allowed"})
		return
	}

	offset, err := parseOffset(r)
	if err != nil {
		requestsTotal.WithLabelValues("invalid").Inc()
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: err.Error()})
		return
	}

	cards, err := h.agg.Page(r.Context(), offset)
	if err != nil {
		requestsTotal.WithLabelValues("error").Inc()
		h.logger.Error().
			Err(err).
			Str("offset", offset).
			Msg("Aggregation failed")
		writeJSON(w, http.StatusInternalServerError, ErrorBody{Error: err.Error()})
		return
	}

	requestsTotal.WithLabelValues("ok").Inc()
	h.logger.Info().
		Str("offset", offset).
		Int("cards", len(cards)).
		Msg("Served page")

	if h.config.CacheMaxAge > 0 {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.config.CacheMaxAge.Seconds())))
	}
	writeJSON(w, http.StatusOK, cards)
}

// parseOffset returns the offset to forward upstream, "" when absent.
func parseOffset(r *http.Request) (string, error) {
	var q PageQuery
	if err := schemaDecoder.Decode(&q, r.URL.Query()); err != nil {
		return "", fmt.Errorf("invalid query: offset must be a non-negative integer")
	}
	if err := validate.Struct(q); err != nil {
		return "", fmt.Errorf("invalid query: offset must be a non-negative integer")
	}
	if q.Offset == nil {
		return "", nil
	}
	return strconv.Itoa(*q.Offset), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}
