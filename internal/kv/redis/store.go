// Package redis implements the counter store and response cache on Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tjfontaine/travel-gateway/internal/core/domain"
	"github.com/tjfontaine/travel-gateway/internal/core/ports"
	"github.com/tjfontaine/travel-gateway/internal/kv"
)

// incrementScript increments every key and sets its TTL when it was just
// created. ARGV[i] is the TTL of KEYS[i] in milliseconds.
var incrementScript = redis.NewScript(`
local counts = {}
for i, key in ipairs(KEYS) do
  local n = redis.call('INCR', key)
  if n == 1 then
    redis.call('PEXPIRE', key, ARGV[i])
  end
  counts[i] = n
end
return counts
`)

// Store is a Redis-backed ports.CounterStore and ports.ResponseCache.
type Store struct {
	client *redis.Client
}

var (
	_ ports.CounterStore  = (*Store)(nil)
	_ ports.ResponseCache = (*Store)(nil)
)

// New connects to redisURL and verifies the connection.
func New(ctx context.Context, redisURL string) (*Store, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// IncrementWindows implements ports.CounterStore with a single script call.
func (s *Store) IncrementWindows(ctx context.Context, keyID string, windows []domain.Window, now time.Time) ([]domain.WindowCount, error) {
	if len(windows) == 0 {
		return nil, nil
	}

	keys := make([]string, len(windows))
	ttls := make([]any, len(windows))
	out := make([]domain.WindowCount, len(windows))
	for i, w := range windows {
		start := w.Start(now)
		keys[i] = kv.CounterKey(keyID, w, start)
		ttls[i] = w.Duration().Milliseconds()
		out[i] = domain.WindowCount{Window: w, Start: start}
	}

	counts, err := incrementScript.Run(ctx, s.client, keys, ttls...).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to increment rate counters: %w", err)
	}
	if len(counts) != len(windows) {
		return nil, fmt.Errorf("increment script returned %d counts for %d windows", len(counts), len(windows))
	}
	for i := range out {
		out[i].Count = counts[i]
	}
	return out, nil
}

// Get implements ports.ResponseCache.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, kv.CacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached response: %w", err)
	}
	return data, true, nil
}

// Set implements ports.ResponseCache.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, kv.CacheKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache response: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}
