// Package memory implements the counter store and response cache in process.
// Counters are not shared between instances; use it for single-instance
// development and tests only.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tjfontaine/travel-gateway/internal/core/domain"
	"github.com/tjfontaine/travel-gateway/internal/core/ports"
	"github.com/tjfontaine/travel-gateway/internal/kv"
)

type counter struct {
	count     int64
	expiresAt time.Time
}

type cached struct {
	value     []byte
	expiresAt time.Time
}

// Store is an in-memory ports.CounterStore and ports.ResponseCache.
type Store struct {
	mu       sync.Mutex
	counters map[string]*counter
	cache    map[string]cached
	now      func() time.Time
}

var (
	_ ports.CounterStore  = (*Store)(nil)
	_ ports.ResponseCache = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		counters: make(map[string]*counter),
		cache:    make(map[string]cached),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IncrementWindows implements ports.CounterStore. All windows are
// incremented under one lock.
func (s *Store) IncrementWindows(_ context.Context, keyID string, windows []domain.Window, now time.Time) ([]domain.WindowCount, error) {
	clock := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.WindowCount, len(windows))
	for i, w := range windows {
		start := w.Start(now)
		key := kv.CounterKey(keyID, w, start)
		c, ok := s.counters[key]
		if !ok || !clock.Before(c.expiresAt) {
			c = &counter{expiresAt: clock.Add(w.Duration())}
			s.counters[key] = c
		}
		c.count++
		out[i] = domain.WindowCount{Window: w, Start: start, Count: c.count}
	}
	return out, nil
}

// Get implements ports.ResponseCache.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.cache[kv.CacheKey(key)]
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set implements ports.ResponseCache.
func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	buf := make([]byte, len(value))
	copy(buf, value)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[kv.CacheKey(key)] = cached{value: buf, expiresAt: s.now().Add(ttl)}
	return nil
}

// Cleanup drops expired counters and cache entries.
func (s *Store) Cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, c := range s.counters {
		if !now.Before(c.expiresAt) {
			delete(s.counters, k)
		}
	}
	for k, e := range s.cache {
		if !now.Before(e.expiresAt) {
			delete(s.cache, k)
		}
	}
}

// StartJanitor runs Cleanup every interval until ctx is done.
func (s *Store) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

// Len returns the number of live counters.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}
