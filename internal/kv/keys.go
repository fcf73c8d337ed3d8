// Package kv holds the key layout shared by the key-value store adapters.
package kv

import (
	"fmt"
	"time"

	"github.com/tjfontaine/travel-gateway/internal/core/domain"
)

// CounterKey returns the key of the counter for keyID in the window starting at start.
// The key id is wrapped in a hash tag so every window of one key lands in
// the same Redis Cluster slot and can be incremented by one script.
func CounterKey(keyID string, w domain.Window, start time.Time) string {
	return fmt.Sprintf("ratelimit:{%s}:%s:%d", keyID, w, start.Unix())
}

// CacheKey returns the key of a cached response.
func CacheKey(key string) string {
	return "idempotency:" + key
}
