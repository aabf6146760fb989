package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds batch fetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel page requests.
	// Each page fans out to one upstream call per card, so keep it small.
	MaxConcurrency int
	// Timeout per page fetch
	Timeout time.Duration
}

// DefaultConfig returns the default batch configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        30 * time.Second,
	}
}

// PageFetcher fetches a single page of items.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, page int) ([]T, error)
}

// PageResult is the outcome of fetching a single page
type PageResult[T any] struct {
	PageNumber int
	Items      []T
	Error      error
}

// BatchFetcher fetches page ranges with a worker pool
type BatchFetcher[T any] struct {
	fetcher PageFetcher[T]
	config  Config
}

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher[T any](fetcher PageFetcher[T], config Config) *BatchFetcher[T] {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &BatchFetcher[T]{
		fetcher: fetcher,
		config:  config,
	}
}

// FetchPages fetches pages first..last inclusive in parallel.
// Returns map of pageNumber -> items for successful pages. If any page
// fails the map holds the pages that did succeed and the error reports how
// many were missed.
func (bf *BatchFetcher[T]) FetchPages(ctx context.Context, first, last int) (map[int][]T, error) {
	if first < 1 || last < first {
		return nil, fmt.Errorf("invalid page range %d..%d", first, last)
	}

	start := time.Now()
	total := last - first + 1
	workers := min(bf.config.MaxConcurrency, total)

	log.Info().
		Int("first", first).
		Int("last", last).
		Int("workers", workers).
		Msg("Starting parallel page fetch")

	pageQueue := make(chan int, total)
	for page := first; page <= last; page++ {
		pageQueue <- page
	}
	close(pageQueue)

	pageResults := make(chan PageResult[T], total)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go bf.worker(ctx, pageQueue, pageResults, &wg, i)
	}

	go func() {
		wg.Wait()
		close(pageResults)
	}()

	results := make(map[int][]T, total)
	var failed int
	var firstErr error
	for result := range pageResults {
		if result.Error != nil {
			failed++
			if firstErr == nil {
				firstErr = result.Error
			}
			continue
		}
		results[result.PageNumber] = result.Items
	}

	if err := ctx.Err(); err != nil && len(results)+failed < total {
		return results, fmt.Errorf("fetch interrupted (partial data: %d/%d pages): %w", len(results), total, err)
	}

	if firstErr != nil {
		log.Warn().
			Err(firstErr).
			Int("fetched_pages", len(results)).
			Int("failed_pages", failed).
			Msg("Returning partial results")
		return results, fmt.Errorf("page fetch failed (partial data: %d/%d pages): %w", len(results), total, firstErr)
	}

	log.Info().
		Int("pages", len(results)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return results, nil
}

// worker processes pages from the queue
func (bf *BatchFetcher[T]) worker(ctx context.Context, pageQueue <-chan int, results chan<- PageResult[T], wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	pagesProcessed := 0

	for pageNum := range pageQueue {
		if ctx.Err() != nil {
			log.Debug().
				Int("worker_id", workerID).
				Int("pages_processed", pagesProcessed).
				Msg("Worker stopping (context cancelled)")
			return
		}

		pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
		items, err := bf.fetcher.FetchPage(pageCtx, pageNum)
		cancel()

		if err != nil {
			log.Warn().
				Err(err).
				Int("worker_id", workerID).
				Int("page", pageNum).
				Msg("Page fetch failed")
		}

		results <- PageResult[T]{PageNumber: pageNum, Items: items, Error: err}
		pagesProcessed++
	}

	log.Debug().
		Int("worker_id", workerID).
		Int("pages_processed", pagesProcessed).
		Msg("Worker completed")
}

// Flatten concatenates pages first..last in page order, skipping missing
// pages.
func Flatten[T any](pages map[int][]T, first, last int) []T {
	var out []T
	for page := first; page <= last; page++ {
		out = append(out, pages[page]...)
	}
	return out
}
