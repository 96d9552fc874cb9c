// Package redis provides a Redis-backed implementation of cache.Store with
// per-key TTL support.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adeilh/go-empdir/cache"
)

// Store implements cache.Store on top of a Redis connection.
type Store struct {
	client *redis.Client
}

func NewStore(opts Options) *Store {
	opts = opts.withDefaults()
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
		ReadTimeout: opts.ReadTimeout,
	})
	return &Store{client: client}
}

// NewStoreFromClient wraps an existing client; the caller keeps ownership of
// its lifecycle.
func NewStoreFromClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Ping verifies the connection is usable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache/redis: ping: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cache.ErrNotFound
		}
		return nil, fmt.Errorf("cache/redis: get %q: %w", key, err)
	}
	return val, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache/redis: set %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	deleted, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("cache/redis: delete %q: %w", key, err)
	}
	if deleted == 0 {
		return cache.ErrNotFound
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ cache.Store = (*Store)(nil)
