// Package cache provides the key-value store used by the market data gateway.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds every single Redis round trip.
const DefaultTimeout = 500 * time.Millisecond

// ErrUnavailable reports that the store could not be reached.
// It never leaves the layer that consumes the store.
var ErrUnavailable = errors.New("cache unavailable")

// RedisStore is a get/set-with-TTL wrapper around Redis that tolerates the
// server being down. A store without a client always misses and drops writes.
type RedisStore struct {
	rdb     *redis.Client
	timeout time.Duration
	log     zerolog.Logger
}

// Option configures a RedisStore.
type Option func(*RedisStore)

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *RedisStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger used for connection events.
func WithLogger(l zerolog.Logger) Option {
	return func(s *RedisStore) {
		s.log = l.With().Str("component", "cache").Logger()
	}
}

// NewRedisStore wraps rdb. rdb may be nil, in which case caching is bypassed.
func NewRedisStore(rdb *redis.Client, opts ...Option) *RedisStore {
	s := &RedisStore{
		rdb:     rdb,
		timeout: DefaultTimeout,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect checks the connection once at startup. A failure is reported but the
// store stays usable: the client reconnects on its own and calls degrade to misses meanwhile.
func (s *RedisStore) Connect(ctx context.Context) error {
	if s.rdb == nil {
		s.log.Warn().Msg("no redis client configured, caching disabled")
		return nil
	}
	if err := s.Ping(ctx); err != nil {
		s.log.Warn().Err(err).Str("address", s.rdb.Options().Addr).Msg("redis connection failed, serving without cache")
		return err
	}
	s.log.Info().Str("address", s.rdb.Options().Addr).Msg("redis connection successful")
	return nil
}

// Disconnect closes the underlying client.
func (s *RedisStore) Disconnect() error {
	if s.rdb == nil {
		return nil
	}
	if err := s.rdb.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}

// Ping reports whether the server answers within the store timeout.
func (s *RedisStore) Ping(ctx context.Context) error {
	if s.rdb == nil {
		return fmt.Errorf("%w: no client", ErrUnavailable)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get returns the value stored at key. A missing key is (nil, false, nil);
// a store failure is (nil, false, ErrUnavailable).
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.rdb == nil {
		return nil, false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	b, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("%w: get %s: %v", ErrUnavailable, key, err)
	}
	return b, true, nil
}

// Set stores value at key with the given expiry.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.rdb == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// Del removes keys, used to evict entries that failed to decode.
func (s *RedisStore) Del(ctx context.Context, keys ...string) error {
	if s.rdb == nil || len(keys) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: del: %v", ErrUnavailable, err)
	}
	return nil
}
