package pagination

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/pokegrid/pkg/aggregate"
)

// DefaultPageSize matches the upstream listing's default page length.
const DefaultPageSize = 20

// Offset converts a 1-based page number into a listing offset.
func Offset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL is the origin serving /api/sample, e.g. http://localhost:8080
	BaseURL string

	// PageSize is the number of cards per page (default 20)
	PageSize int

	// Timeout per request
	Timeout time.Duration

	// UserAgent header
	UserAgent string
}

// Client fetches pages from the sample endpoint.
type Client struct {
	http     *resty.Client
	endpoint string
	pageSize int
	logger   zerolog.Logger
}

// NewClient creates a page client.
func NewClient(cfg ClientConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		httpClient.SetHeader("User-Agent", cfg.UserAgent)
	}

	return &Client{
		http:     httpClient,
		endpoint: base.JoinPath(aggregate.Route).String(),
		pageSize: cfg.PageSize,
		logger:   log.With().Str("component", "pagination").Logger(),
	}, nil
}

// PageSize returns the configured page size.
func (c *Client) PageSize() int {
	return c.pageSize
}

// FetchPage fetches one page of cards. Non-200 responses are returned as
// errors carrying the endpoint's error message when it sent one.
func (c *Client) FetchPage(ctx context.Context, page int) ([]aggregate.Card, error) {
	offset := Offset(page, c.pageSize)

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("offset", strconv.Itoa(offset)).
		Get(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", page, err)
	}

	if resp.StatusCode() != 200 {
		var body aggregate.ErrorBody
		if json.Unmarshal(resp.Body(), &body) == nil && body.Error != "" {
			return nil, fmt.Errorf("fetch page %d: status %d: %s", page, resp.StatusCode(), body.Error)
		}
		return nil, fmt.Errorf("fetch page %d: status %d", page, resp.StatusCode())
	}

	var cards []aggregate.Card
	if err := json.Unmarshal(resp.Body(), &cards); err != nil {
		return nil, fmt.Errorf("decode page %d: %w", page, err)
	}

	c.logger.Debug().
		Int("page", page).
		Int("offset", offset).
		Int("cards", len(cards)).
		Msg("Page fetched")

	return cards, nil
}
