// Package memory is an in-process relational store for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tjfontaine/travel-gateway/internal/core/domain"
	"github.com/tjfontaine/travel-gateway/internal/core/ports"
)

type storedContext struct {
	tenantID string
	seq      uint64
	context  *domain.SearchContext
}

// Store is an in-memory implementation of ports.StorageProvider
type Store struct {
	mu       sync.RWMutex
	keys     map[string]*domain.APIKey // by prefix
	contexts map[string]*storedContext // by id
	seq      uint64
}

var _ ports.StorageProvider = (*Store)(nil)

// New creates a new in-memory store
func New() *Store {
	return &Store{
		keys:     make(map[string]*domain.APIKey),
		contexts: make(map[string]*storedContext),
	}
}

func (s *Store) CreateKey(ctx context.Context, key *domain.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.keys[key.Prefix]; exists {
		return fmt.Errorf("api key with prefix %s already exists", key.Prefix)
	}
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now().UTC()
	}
	if key.Status == "" {
		key.Status = domain.KeyStatusActive
	}

	k := *key
	s.keys[key.Prefix] = &k
	return nil
}

func (s *Store) GetKeyByPrefix(ctx context.Context, prefix string) (*domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, exists := s.keys[prefix]
	if !exists {
		return nil, domain.ErrNotFound
	}
	k := *key
	return &k, nil
}

func (s *Store) SaveSearchContext(ctx context.Context, tenantID string, sc *domain.SearchContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.contexts[sc.ID] = &storedContext{tenantID: tenantID, seq: s.seq, context: sc.Clone()}
	return nil
}

func (s *Store) LatestSearchContext(ctx context.Context, tenantID, conversationID string) (*domain.SearchContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *storedContext
	for _, c := range s.contexts {
		if c.tenantID != tenantID || c.context.ConversationID != conversationID {
			continue
		}
		if latest == nil || c.seq > latest.seq {
			latest = c
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest.context.Clone(), nil
}

func (s *Store) GetSearchContext(ctx context.Context, tenantID, id string) (*domain.SearchContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.contexts[id]
	if !exists || c.tenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return c.context.Clone(), nil
}

func (s *Store) Close() error {
	return nil
}
