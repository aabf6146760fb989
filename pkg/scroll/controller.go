package scroll

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/pokegrid/pkg/visibility"
)

var (
	pageFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokegrid_scroll_page_fetches_total",
			Help: "Page fetches issued by list controllers, by outcome",
		},
		[]string{"outcome"},
	)

	pageFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pokegrid_scroll_page_fetch_duration_seconds",
			Help:    "Duration of page fetches issued by list controllers",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// DefaultInitialPage is used when Config.InitialPage is not positive.
const DefaultInitialPage = 1

// FetchFunc returns the items of one page. It may fail; the controller logs
// the error and treats the page as empty.
type FetchFunc[T any] func(ctx context.Context, page int) ([]T, error)

// Config configures a Controller.
type Config[T, R any] struct {
	// Fetch loads one page. Required.
	Fetch FetchFunc[T]

	// Render turns an item into the host's renderable. Required.
	Render func(T) R

	// InitialPage is the first page requested (default 1).
	InitialPage int

	// Visibility configures the tracker attached to the last item.
	Visibility visibility.Config

	// Observer creates the host's visibility observers. Required.
	Observer visibility.ObserverFactory

	// Class is passed through to View untouched.
	Class string

	// OnUpdate, if set, runs after the item list grows. It is called
	// outside the controller's lock and may call View.
	OnUpdate func()
}

// Wrapper is one rendered item.
type Wrapper[R any] struct {
	// Key is the item's position in the list.
	Key int

	// Content is the rendered item.
	Content R

	// Ref registers the element holding this wrapper with the visibility
	// tracker. Only the last wrapper carries it. Hosts call Ref with nil
	// when the element leaves their render tree.
	Ref func(visibility.Element)
}

// View is a snapshot of the rendered list.
type View[R any] struct {
	Class string
	Items []Wrapper[R]
}

type pageResult[T any] struct {
	items []T
}

// Controller owns the page cursor and the accumulated items.
type Controller[T, R any] struct {
	config  Config[T, R]
	tracker *visibility.Tracker
	logger  zerolog.Logger

	mu       sync.Mutex
	cursor   int
	next     int // next page to append
	items    []T
	pending  map[int]pageResult[T]
	inflight map[int]struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	closed   bool
	active   int // fetches not yet returned
	idle     *sync.Cond
}

// New creates a controller in its initial state: cursor at InitialPage, no
// items, nothing fetched. Call Start to issue the first fetch.
func New[T, R any](cfg Config[T, R]) *Controller[T, R] {
	if cfg.Fetch == nil {
		panic("scroll: Config.Fetch must not be nil")
	}
	if cfg.Render == nil {
		panic("scroll: Config.Render must not be nil")
	}
	if cfg.Observer == nil {
		panic("scroll: Config.Observer must not be nil")
	}
	if cfg.InitialPage <= 0 {
		cfg.InitialPage = DefaultInitialPage
	}

	c := &Controller[T, R]{
		config:   cfg,
		logger:   log.With().Str("component", "scroll").Logger(),
		cursor:   cfg.InitialPage,
		next:     cfg.InitialPage,
		pending:  make(map[int]pageResult[T]),
		inflight: make(map[int]struct{}),
	}
	c.idle = sync.NewCond(&c.mu)
	c.tracker = visibility.NewTracker(cfg.Observer, cfg.Visibility, c.advance)
	return c
}

// Start issues the fetch for the initial page. Fetches run under a context
// derived from ctx that is cancelled by Close. Calling Start twice is a
// no-op.
func (c *Controller[T, R]) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started || c.closed {
		return
	}
	c.started = true
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.requestLocked(c.cursor)
}

// advance runs on every reveal of the last item.
func (c *Controller[T, R]) advance() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started || c.closed {
		return
	}
	c.cursor++
	c.logger.Debug().Int("page", c.cursor).Msg("Advancing page cursor")
	c.requestLocked(c.cursor)
}

// requestLocked issues the fetch for page unless it was requested before.
func (c *Controller[T, R]) requestLocked(page int) {
	if page < c.next {
		return
	}
	if _, ok := c.inflight[page]; ok {
		return
	}
	if _, ok := c.pending[page]; ok {
		return
	}

	c.inflight[page] = struct{}{}
	c.active++
	go c.fetch(c.ctx, page)
}

func (c *Controller[T, R]) fetch(ctx context.Context, page int) {
	defer c.done()

	start := time.Now()
	items, err := c.config.Fetch(ctx, page)
	pageFetchDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		pageFetches.WithLabelValues("ok").Inc()
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		pageFetches.WithLabelValues("cancelled").Inc()
		c.logger.Debug().Int("page", page).Msg("Page fetch cancelled")
		items = nil
	default:
		pageFetches.WithLabelValues("error").Inc()
		c.logger.Error().
			Err(err).
			Int("page", page).
			Msg("Page fetch failed")
		items = nil
	}

	c.complete(page, items)
}

func (c *Controller[T, R]) done() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active--
	if c.active == 0 {
		c.idle.Broadcast()
	}
}

// complete parks the result and appends every page that is now in order.
func (c *Controller[T, R]) complete(page int, items []T) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	delete(c.inflight, page)
	c.pending[page] = pageResult[T]{items: items}

	grew := false
	for {
		res, ok := c.pending[c.next]
		if !ok {
			break
		}
		delete(c.pending, c.next)
		if len(res.items) > 0 {
			c.items = append(c.items, res.items...)
			grew = true
		}
		c.next++
	}
	if len(c.pending) > 0 {
		c.logger.Debug().
			Int("waiting_for", c.next).
			Int("parked", len(c.pending)).
			Msg("Page completed out of order")
	}
	onUpdate := c.config.OnUpdate
	c.mu.Unlock()

	if grew && onUpdate != nil {
		onUpdate()
	}
}

// View renders every item in order. Only the last wrapper carries Ref.
func (c *Controller[T, R]) View() View[R] {
	c.mu.Lock()
	items := make([]T, len(c.items))
	copy(items, c.items)
	c.mu.Unlock()

	v := View[R]{
		Class: c.config.Class,
		Items: make([]Wrapper[R], len(items)),
	}
	for i, item := range items {
		v.Items[i] = Wrapper[R]{Key: i, Content: c.config.Render(item)}
	}
	if n := len(v.Items); n > 0 {
		v.Items[n-1].Ref = c.tracker.Attach
	}
	return v
}

// Cursor returns the current page cursor.
func (c *Controller[T, R]) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// Items returns a copy of the accumulated items.
func (c *Controller[T, R]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Visible reports whether the last item has been revealed since it was
// attached.
func (c *Controller[T, R]) Visible() bool {
	return c.tracker.IsVisible()
}

// Wait blocks until no fetch is outstanding. Fetches issued by reveals
// during the wait are waited for too.
func (c *Controller[T, R]) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.active > 0 {
		c.idle.Wait()
	}
}

// Close releases the tracker and cancels outstanding fetches. Results that
// arrive afterwards are discarded.
func (c *Controller[T, R]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	c.tracker.Close()
}
