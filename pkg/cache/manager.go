package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Manager handles caching operations on top of a Store.
type Manager struct {
	store     Store
	retention time.Duration
}

// NewManager creates a new cache manager. Entries are kept in the store for
// at least retention, even after they turn stale, so a force-cache lookup can
// still serve them.
func NewManager(store Store, retention time.Duration) *Manager {
	if store == nil {
		panic("cache store cannot be nil")
	}
	return &Manager{
		store:     store,
		retention: retention,
	}
}

// Layer names the backing store.
func (m *Manager) Layer() string {
	return m.store.Layer()
}

// Ping checks that the backing store is reachable.
func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

// Lookup retrieves a stored entry whether or not it is still fresh.
// Returns ErrCacheMiss if the key doesn't exist.
func (m *Manager) Lookup(ctx context.Context, key Key) (*Entry, error) {
	data, err := m.store.Get(ctx, key.String())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	CacheHits.WithLabelValues(m.store.Layer()).Inc()
	return &entry, nil
}

// Get retrieves a fresh cache entry by key.
// Returns ErrCacheMiss if the key doesn't exist or entry is expired.
func (m *Manager) Get(ctx context.Context, key Key) (*Entry, error) {
	entry, err := m.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if entry.IsExpired() {
		return nil, ErrCacheMiss
	}
	return entry, nil
}

// Set stores a cache entry. The store TTL is the longer of the entry's
// remaining freshness and the manager retention.
func (m *Manager) Set(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	ttl := entry.StoreTTL(m.retention)
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := m.store.Set(ctx, key.String(), data, ttl); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return err
	}

	CacheSize.WithLabelValues(m.store.Layer()).Add(float64(len(data)))
	return nil
}

// Delete removes a cache entry.
func (m *Manager) Delete(ctx context.Context, key Key) error {
	if err := m.store.Delete(ctx, key.String()); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return err
	}
	return nil
}

// UpdateTTL updates the expiry of an existing cache entry.
// This is used when a 304 Not Modified response carries new freshness headers.
func (m *Manager) UpdateTTL(ctx context.Context, key Key, newExpires time.Time) error {
	entry, err := m.Lookup(ctx, key)
	if err != nil {
		return err
	}

	entry.Expires = newExpires
	return m.Set(ctx, key, entry)
}
