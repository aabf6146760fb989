package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by a Store when the key is absent.
var ErrNotFound = errors.New("key not found")

// Store is the byte-level backend behind a Manager.
type Store interface {
	// Layer names the backend for metrics ("redis", "memory").
	Layer() string
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// RedisStore keeps entries in Redis so several server processes share one cache.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{redis: redisClient}
}

func (s *RedisStore) Layer() string { return "redis" }

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := s.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}

type memoryItem struct {
	data     []byte
	deadline time.Time
}

// MemoryStore is a size-bounded in-process LRU with per-key deadlines.
type MemoryStore struct {
	lru *lru.Cache[string, memoryItem]
}

// NewMemoryStore creates an in-memory store holding at most size entries.
func NewMemoryStore(size int) (*MemoryStore, error) {
	c, err := lru.New[string, memoryItem](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &MemoryStore{lru: c}, nil
}

func (s *MemoryStore) Layer() string { return "memory" }

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	item, ok := s.lru.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	if !item.deadline.IsZero() && time.Now().After(item.deadline) {
		s.lru.Remove(key)
		return nil, ErrNotFound
	}
	return item.data, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	item := memoryItem{data: data}
	if ttl > 0 {
		item.deadline = time.Now().Add(ttl)
	}
	s.lru.Add(key, item)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.lru.Remove(key)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// Len reports the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	return s.lru.Len()
}
