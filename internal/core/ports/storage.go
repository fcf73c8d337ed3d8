package ports

import (
	"context"
	"time"

	"github.com/tjfontaine/travel-gateway/internal/core/domain"
)

// KeyStore is the read side of the relational store for API keys.
type KeyStore interface {
	// GetKeyByPrefix returns the key whose stored prefix matches.
	// Returns domain.ErrNotFound when no key has that prefix.
	GetKeyByPrefix(ctx context.Context, prefix string) (*domain.APIKey, error)
}

// ContextStore persists resolved search contexts so later turns can merge against them.
type ContextStore interface {
	// SaveSearchContext stores a context under its ID for a tenant.
	SaveSearchContext(ctx context.Context, tenantID string, sc *domain.SearchContext) error

	// LatestSearchContext returns the most recent context of a conversation.
	// Returns domain.ErrNotFound when the conversation has none.
	LatestSearchContext(ctx context.Context, tenantID, conversationID string) (*domain.SearchContext, error)

	// GetSearchContext returns a context by ID.
	// Returns domain.ErrNotFound when it does not exist for the tenant.
	GetSearchContext(ctx context.Context, tenantID, id string) (*domain.SearchContext, error)
}

// StorageProvider is the full relational store.
// Implementations: SQLite (default), in-memory.
type StorageProvider interface {
	KeyStore
	ContextStore

	// CreateKey inserts a key record. Used by tooling and tests only.
	CreateKey(ctx context.Context, key *domain.APIKey) error

	Close() error
}

// CounterStore is the atomic counter substrate of the rate limiter.
type CounterStore interface {
	// IncrementWindows atomically increments the counter of every window for
	// keyID at time now, creating counters with a TTL equal to the window
	// length. It returns the post-increment counts in the order given.
	IncrementWindows(ctx context.Context, keyID string, windows []domain.Window, now time.Time) ([]domain.WindowCount, error)
}

// ResponseCache caches serialized responses of recent identical requests.
type ResponseCache interface {
	// Get returns the cached payload and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a payload with a TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
