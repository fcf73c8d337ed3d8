// Package sqldb is the relational store for API keys and search contexts.
package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/tjfontaine/travel-gateway/internal/core/domain"
	"github.com/tjfontaine/travel-gateway/internal/core/ports"
	"github.com/tjfontaine/travel-gateway/internal/storage/dialect"
)

// Store is a SQL implementation of ports.StorageProvider.
type Store struct {
	db      *sqlx.DB
	dialect dialect.Dialect
	now     func() time.Time
}

var _ ports.StorageProvider = (*Store)(nil)

// Config holds database connection configuration
type Config struct {
	Driver string // Driver name: sqlite, postgres
	DSN    string // Data source name / connection string
}

// New creates a new SQL store with the specified configuration.
func New(cfg Config) (*Store, error) {
	d, err := dialect.FromDriverName(cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("unsupported database driver: %w", err)
	}

	db, err := sqlx.Open(d.DriverName(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, stmt := range d.PragmaStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute pragma: %w", err)
		}
	}

	store := &Store{db: db, dialect: d, now: time.Now}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// NewSQLite creates a SQLite store at dbPath.
func NewSQLite(dbPath string) (*Store, error) {
	return New(Config{Driver: "sqlite", DSN: dbPath})
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS api_keys (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			prefix TEXT NOT NULL UNIQUE,
			key_hash TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			market TEXT NOT NULL DEFAULT '',
			quota_minute INTEGER NOT NULL DEFAULT 0,
			quota_hour INTEGER NOT NULL DEFAULT 0,
			quota_day INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS search_contexts (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			conversation_id TEXT NOT NULL,
			context TEXT NOT NULL,
			created_ns INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_api_keys_tenant ON api_keys(tenant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_search_contexts_conversation ON search_contexts(tenant_id, conversation_id, created_ns)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(s.dialect.Rebind(stmt)); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// CreateKey inserts a key record.
func (s *Store) CreateKey(ctx context.Context, key *domain.APIKey) error {
	if key.CreatedAt.IsZero() {
		key.CreatedAt = s.now().UTC()
	}
	if key.Status == "" {
		key.Status = domain.KeyStatusActive
	}

	query := s.dialect.Rebind(`INSERT INTO api_keys (
		id, tenant_id, prefix, key_hash, name, market,
		quota_minute, quota_hour, quota_day, status, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		key.ID, key.TenantID, key.Prefix, key.KeyHash, key.Name, key.Market,
		key.QuotaPerMinute, key.QuotaPerHour, key.QuotaPerDay, key.Status, key.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}
	return nil
}

// GetKeyByPrefix implements ports.KeyStore.
func (s *Store) GetKeyByPrefix(ctx context.Context, prefix string) (*domain.APIKey, error) {
	query := s.dialect.Rebind(`SELECT
		id, tenant_id, prefix, key_hash, name, market,
		quota_minute, quota_hour, quota_day, status, created_at
	FROM api_keys WHERE prefix = ?`)

	var key domain.APIKey
	if err := s.db.GetContext(ctx, &key, query, prefix); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}
	return &key, nil
}

// SetKeyStatus changes the status of a key. Used by tooling.
func (s *Store) SetKeyStatus(ctx context.Context, id string, status domain.KeyStatus) error {
	query := s.dialect.Rebind(`UPDATE api_keys SET status = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update api key: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SaveSearchContext implements ports.ContextStore.
func (s *Store) SaveSearchContext(ctx context.Context, tenantID string, sc *domain.SearchContext) error {
	data, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("failed to marshal search context: %w", err)
	}

	query := s.dialect.Rebind(`INSERT INTO search_contexts (id, tenant_id, conversation_id, context, created_ns)
		VALUES (?, ?, ?, ?, ?) ` + s.dialect.UpsertClause("id", []string{"context", "created_ns"}))

	if _, err := s.db.ExecContext(ctx, query, sc.ID, tenantID, sc.ConversationID, string(data), s.now().UnixNano()); err != nil {
		return fmt.Errorf("failed to save search context: %w", err)
	}
	return nil
}

// LatestSearchContext implements ports.ContextStore.
func (s *Store) LatestSearchContext(ctx context.Context, tenantID, conversationID string) (*domain.SearchContext, error) {
	query := s.dialect.Rebind(`SELECT context FROM search_contexts
		WHERE tenant_id = ? AND conversation_id = ?
		ORDER BY created_ns DESC LIMIT 1`)
	return s.getContext(ctx, query, tenantID, conversationID)
}

// GetSearchContext implements ports.ContextStore.
func (s *Store) GetSearchContext(ctx context.Context, tenantID, id string) (*domain.SearchContext, error) {
	query := s.dialect.Rebind(`SELECT context FROM search_contexts WHERE tenant_id = ? AND id = ?`)
	return s.getContext(ctx, query, tenantID, id)
}

func (s *Store) getContext(ctx context.Context, query string, args ...any) (*domain.SearchContext, error) {
	var raw string
	if err := s.db.GetContext(ctx, &raw, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get search context: %w", err)
	}

	var sc domain.SearchContext
	if err := json.Unmarshal([]byte(raw), &sc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal search context: %w", err)
	}
	return &sc, nil
}

// DB returns the underlying sqlx.DB for advanced operations
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
