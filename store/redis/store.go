package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/hr"
	"github.com/xraph/hrflow/notify"
)

// Compile-time interface checks.
var (
	_ graph.Store  = (*Store)(nil)
	_ hr.Store     = (*Store)(nil)
	_ notify.Store = (*Store)(nil)
)

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store implements the hrflow store contracts backed by Redis.
type Store struct {
	client goredis.Cmdable
	logger *slog.Logger
}

// New creates a new Redis-backed store. The caller owns the Redis client
// lifecycle.
func New(client goredis.Cmdable, opts ...Option) *Store {
	s := &Store{client: client, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Client returns the underlying Redis client.
func (s *Store) Client() goredis.Cmdable { return s.client }

// Migrate is a no-op for Redis (schemaless).
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close is a no-op. The caller owns the Redis client lifecycle.
func (s *Store) Close() error { return nil }

// ── helpers ──

// putJSON stores v as JSON at key and adds id to the enumeration set.
func (s *Store) putJSON(ctx context.Context, key, idsKey, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("hrflow/redis: encode %s: %w", key, err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, idsKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("hrflow/redis: put %s: %w", key, err)
	}
	return nil
}

// getJSON loads the JSON value at key into v. It returns notFound when
// the key does not exist.
func (s *Store) getJSON(ctx context.Context, key string, v any, notFound error) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return notFound
		}
		return fmt.Errorf("hrflow/redis: get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("hrflow/redis: decode %s: %w", key, err)
	}
	return nil
}

// updateJSON overwrites key with v, failing with notFound when the key
// does not already exist.
func (s *Store) updateJSON(ctx context.Context, key string, v any, notFound error) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("hrflow/redis: encode %s: %w", key, err)
	}
	ok, err := s.client.SetXX(ctx, key, data, 0).Result()
	if err != nil {
		return fmt.Errorf("hrflow/redis: update %s: %w", key, err)
	}
	if !ok {
		return notFound
	}
	return nil
}
