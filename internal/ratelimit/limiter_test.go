package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjfontaine/travel-gateway/internal/core/domain"
	"github.com/tjfontaine/travel-gateway/internal/kv/memory"
	kvredis "github.com/tjfontaine/travel-gateway/internal/kv/redis"
)

var fixedNow = time.Date(2026, 3, 10, 14, 25, 30, 0, time.UTC)

func clock() time.Time { return fixedNow }

func testKey(minute, hour, day int64) *domain.APIKey {
	return &domain.APIKey{
		ID:             "key-1",
		Prefix:         "tg_live_abcd",
		QuotaPerMinute: minute,
		QuotaPerHour:   hour,
		QuotaPerDay:    day,
		Status:         domain.KeyStatusActive,
	}
}

type failingStore struct{}

func (failingStore) IncrementWindows(context.Context, string, []domain.Window, time.Time) ([]domain.WindowCount, error) {
	return nil, errors.New("connection refused")
}

type countingStore struct {
	calls int
}

func (s *countingStore) IncrementWindows(context.Context, string, []domain.Window, time.Time) ([]domain.WindowCount, error) {
	s.calls++
	return nil, nil
}

func TestParseFailureMode(t *testing.T) {
	tests := []struct {
		in      string
		want    FailureMode
		wantErr bool
	}{
		{"", FailClosed, false},
		{"closed", FailClosed, false},
		{"open", FailOpen, false},
		{"sideways", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFailureMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFailureMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFailureMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCheck_DeniedExactlyWhenCountExceedsLimit(t *testing.T) {
	l := New(memory.New(), WithClock(clock))
	key := testKey(5, 0, 0)

	for n := int64(1); n <= 8; n++ {
		res, err := l.Check(context.Background(), key)
		require.NoError(t, err)
		assert.Equal(t, n <= 5, res.Allowed, "request %d", n)
		assert.Equal(t, int64(5), res.Limit)
		assert.Equal(t, max(0, 5-n), res.Remaining, "request %d", n)
		assert.Equal(t, domain.WindowMinute, res.Window)
		assert.Equal(t, time.Date(2026, 3, 10, 14, 26, 0, 0, time.UTC), res.ResetAt)
	}
}

func TestCheck_RolloverResets(t *testing.T) {
	now := fixedNow
	l := New(memory.New(), WithClock(func() time.Time { return now }))
	key := testKey(1, 0, 0)

	res, _ := l.Check(context.Background(), key)
	assert.True(t, res.Allowed)
	res, _ = l.Check(context.Background(), key)
	assert.False(t, res.Allowed)

	now = now.Add(time.Minute)
	res, _ = l.Check(context.Background(), key)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)
}

func TestCheck_ReportsLongestTrippedWindow(t *testing.T) {
	l := New(memory.New(), WithClock(clock))
	key := testKey(2, 2, 100)

	var res *domain.RateLimitResult
	for i := 0; i < 3; i++ {
		var err error
		res, err = l.Check(context.Background(), key)
		require.NoError(t, err)
	}

	assert.False(t, res.Allowed)
	assert.Equal(t, domain.WindowHour, res.Window)
	assert.Equal(t, time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC), res.ResetAt)
}

func TestCheck_AllowedReportsSmallestRemaining(t *testing.T) {
	l := New(memory.New(), WithClock(clock))

	res, err := l.Check(context.Background(), testKey(100, 10, 1000))
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, domain.WindowHour, res.Window)
	assert.Equal(t, int64(9), res.Remaining)

	// ties go to the shorter window
	res, err = l.Check(context.Background(), &domain.APIKey{ID: "key-2", QuotaPerMinute: 10, QuotaPerDay: 10})
	require.NoError(t, err)
	assert.Equal(t, domain.WindowMinute, res.Window)
}

func TestCheck_UnlimitedKeySkipsStore(t *testing.T) {
	store := &countingStore{}
	l := New(store)

	res, err := l.Check(context.Background(), testKey(0, -1, 0))
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Zero(t, res.Limit)
	assert.Zero(t, store.calls)
}

func TestCheck_FailureModes(t *testing.T) {
	t.Run("closed", func(t *testing.T) {
		l := New(failingStore{})
		_, err := l.Check(context.Background(), testKey(5, 0, 0))
		require.Error(t, err)

		apiErr := domain.AsAPIError(err)
		assert.Equal(t, domain.ErrorCodeRateLimiterUnavailable, apiErr.Code)
		assert.Equal(t, 503, apiErr.HTTPStatusCode())
	})

	t.Run("open", func(t *testing.T) {
		l := New(failingStore{}, WithFailureMode(FailOpen))
		res, err := l.Check(context.Background(), testKey(5, 0, 0))
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Zero(t, res.Limit)
	})
}

func TestCheck_ConcurrentNoDoubleSpend(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	stores := map[string]*Limiter{
		"memory": New(memory.New(), WithClock(clock)),
		"redis":  New(kvredis.NewFromClient(client), WithClock(clock)),
	}

	for name, l := range stores {
		t.Run(name, func(t *testing.T) {
			const n = 40
			key := testKey(25, 0, 0)

			var (
				mu        sync.Mutex
				remaining = make(map[int64]int)
				allowed   int
				wg        sync.WaitGroup
			)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					res, err := l.Check(context.Background(), key)
					if err != nil {
						t.Errorf("Check() error = %v", err)
						return
					}
					mu.Lock()
					defer mu.Unlock()
					if res.Allowed {
						allowed++
						remaining[res.Remaining]++
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, 25, allowed)
			for r, seen := range remaining {
				assert.Equal(t, 1, seen, "remaining %d granted %d times", r, seen)
			}
		})
	}
}
