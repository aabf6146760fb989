package visibility

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds tracker configuration.
type Config struct {
	// UnobserveWhenVisible stops observing an element once it is revealed.
	UnobserveWhenVisible bool

	// RootMargin grows the viewport used as trigger region.
	RootMargin Margin
}

// DefaultConfig returns the default configuration: unobserve after the
// first reveal, 40 units of margin on every side.
func DefaultConfig() Config {
	return Config{
		UnobserveWhenVisible: true,
		RootMargin:           UniformMargin(40),
	}
}

// Tracker follows one element at a time and remembers whether it has
// entered the trigger region since it was attached.
type Tracker struct {
	factory   ObserverFactory
	config    Config
	onVisible func()
	logger    zerolog.Logger

	mu       sync.Mutex
	current  Element
	observer Observer
	visible  bool
	closed   bool
}

// NewTracker creates a tracker. onVisible, if non-nil, runs on every
// false-to-true transition of IsVisible, outside the tracker's lock.
func NewTracker(factory ObserverFactory, cfg Config, onVisible func()) *Tracker {
	return &Tracker{
		factory:   factory,
		config:    cfg,
		onVisible: onVisible,
		logger:    log.With().Str("component", "visibility").Logger(),
	}
}

// Attach starts tracking el. Attaching the element already tracked is a
// no-op. Attaching a different element, or nil, releases the previous
// observer and resets IsVisible to false.
func (t *Tracker) Attach(el Element) {
	t.mu.Lock()
	if t.closed || el == t.current {
		t.mu.Unlock()
		return
	}

	if t.observer != nil {
		t.observer.Disconnect()
		t.observer = nil
	}
	t.current = el
	t.visible = false

	if el == nil {
		t.mu.Unlock()
		return
	}

	var obs Observer
	obs = t.factory(func(entries []Entry, o Observer) {
		t.handle(obs, entries, o)
	}, t.config.RootMargin)
	t.observer = obs
	t.mu.Unlock()

	// Observe may deliver the initial state synchronously.
	obs.Observe(el)
}

// handle processes entries delivered to owner. Entries from an observer
// that has since been replaced are ignored.
func (t *Tracker) handle(owner Observer, entries []Entry, o Observer) {
	t.mu.Lock()
	if t.closed || owner == nil || owner != t.observer {
		t.mu.Unlock()
		return
	}

	revealed := false
	var done []Element
	for _, entry := range entries {
		if !entry.IsIntersecting || entry.Target != t.current {
			continue
		}
		if !t.visible {
			t.visible = true
			revealed = true
		}
		if t.config.UnobserveWhenVisible {
			done = append(done, entry.Target)
		}
	}
	t.mu.Unlock()

	for _, el := range done {
		o.Unobserve(el)
	}

	if revealed {
		t.logger.Debug().Msg("Element revealed")
		if t.onVisible != nil {
			t.onVisible()
		}
	}
}

// IsVisible reports whether the attached element has entered the trigger
// region since it was attached.
func (t *Tracker) IsVisible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visible
}

// Close releases the observer. The tracker ignores later calls.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.observer != nil {
		t.observer.Disconnect()
		t.observer = nil
	}
	t.current = nil
	t.visible = false
	t.closed = true
}
