// Package aggregate combines one upstream listing page with the detail
// resource of every entry into a flat list of cards.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/pokegrid/pkg/pokeapi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	fanoutSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pokegrid_aggregate_fanout",
		Help:    "Number of detail requests issued per aggregated page",
		Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
	})

	pageDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pokegrid_aggregate_duration_seconds",
		Help:    "Time to build one aggregated page",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})
)

// Card is the combined record served to clients.
type Card struct {
	Name     string `json:"name"`
	ImageURL string `json:"imgUrl"`
}

// Upstream is the subset of the PokeAPI client the aggregator needs.
type Upstream interface {
	ListPokemon(ctx context.Context, offset string) (*pokeapi.NamedResourceList, error)
	GetPokemon(ctx context.Context, url string) (*pokeapi.Pokemon, error)
}

// Aggregator builds card pages from an Upstream.
type Aggregator struct {
	upstream Upstream
	logger   zerolog.Logger
}

// NewAggregator creates an aggregator over upstream.
func NewAggregator(upstream Upstream) *Aggregator {
	return &Aggregator{
		upstream: upstream,
		logger:   log.With().Str("component", "aggregate").Logger(),
	}
}

// Page fetches the listing at offset, then every detail concurrently, and
// returns one card per listing entry in listing order. Any failure returns
// no cards at all.
func (a *Aggregator) Page(ctx context.Context, offset string) ([]Card, error) {
	start := time.Now()
	defer func() {
		pageDuration.Observe(time.Since(start).Seconds())
	}()

	list, err := a.upstream.ListPokemon(ctx, offset)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}

	fanoutSize.Observe(float64(len(list.Results)))

	// Each goroutine owns exactly one slot, so the zip below is by index
	// no matter which detail finishes first.
	details := make([]*pokeapi.Pokemon, len(list.Results))
	g, gctx := errgroup.WithContext(ctx)
	for i, result := range list.Results {
		g.Go(func() error {
			p, err := a.upstream.GetPokemon(gctx, result.URL)
			if err != nil {
				return fmt.Errorf("fetch detail %q: %w", result.Name, err)
			}
			details[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cards := make([]Card, len(list.Results))
	for i, result := range list.Results {
		cards[i] = Card{
			Name:     result.Name,
			ImageURL: details[i].ImageURL(),
		}
	}

	a.logger.Debug().
		Str("offset", offset).
		Int("cards", len(cards)).
		Dur("duration", time.Since(start)).
		Msg("Aggregated page")

	return cards, nil
}
