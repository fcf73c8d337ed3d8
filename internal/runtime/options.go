package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tjfontaine/travel-gateway/internal/catalog"
	"github.com/tjfontaine/travel-gateway/internal/core/ports"
	kvmemory "github.com/tjfontaine/travel-gateway/internal/kv/memory"
	kvredis "github.com/tjfontaine/travel-gateway/internal/kv/redis"
	"github.com/tjfontaine/travel-gateway/internal/pkg/config"
	"github.com/tjfontaine/travel-gateway/internal/storage/memory"
	"github.com/tjfontaine/travel-gateway/internal/storage/sqldb"
)

// Option is a functional option for configuring a Gateway.
type Option func(*Gateway) error

// WithConfig uses an already loaded configuration.
func WithConfig(cfg *config.Config) Option {
	return func(g *Gateway) error {
		g.config = cfg
		return nil
	}
}

// WithFileConfig loads the configuration from a config.yaml file plus
// environment overrides.
func WithFileConfig(path string) Option {
	return func(g *Gateway) error {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		g.config = cfg
		return nil
	}
}

// WithSQLite uses SQLite storage (default for single-instance deployments).
func WithSQLite(path string) Option {
	return func(g *Gateway) error {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		store, err := sqldb.NewSQLite(path)
		if err != nil {
			return fmt.Errorf("create sqlite storage: %w", err)
		}
		g.setStorage(store)
		return nil
	}
}

// WithDatabase uses a database/sql driver registered under driver.
func WithDatabase(driver, dsn string) Option {
	return func(g *Gateway) error {
		store, err := sqldb.New(sqldb.Config{Driver: driver, DSN: dsn})
		if err != nil {
			return fmt.Errorf("create %s storage: %w", driver, err)
		}
		g.setStorage(store)
		return nil
	}
}

// WithMemoryStorage keeps keys and search contexts in process.
func WithMemoryStorage() Option {
	return func(g *Gateway) error {
		g.setStorage(memory.New())
		return nil
	}
}

// WithStorageProvider sets a custom storage provider.
func WithStorageProvider(provider ports.StorageProvider) Option {
	return func(g *Gateway) error {
		g.storage = provider
		return nil
	}
}

func (g *Gateway) setStorage(store ports.StorageProvider) {
	g.storage = store
	g.closers = append(g.closers, store.Close)
}

// WithRedis keeps rate-limit counters and cached responses in Redis.
// Required when several gateway instances share quotas.
func WithRedis(redisURL string) Option {
	return func(g *Gateway) error {
		store, err := kvredis.New(context.Background(), redisURL)
		if err != nil {
			return fmt.Errorf("create redis kv: %w", err)
		}
		g.counters, g.cache = store, store
		g.closers = append(g.closers, store.Close)
		return nil
	}
}

// WithMemoryKV keeps counters and cached responses in process.
func WithMemoryKV() Option {
	return func(g *Gateway) error {
		store := kvmemory.New()
		g.counters, g.cache = store, store
		return nil
	}
}

// WithKVStore sets custom counter and cache stores.
func WithKVStore(counters ports.CounterStore, cache ports.ResponseCache) Option {
	return func(g *Gateway) error {
		g.counters, g.cache = counters, cache
		return nil
	}
}

// WithProviders replaces the configured providers.
func WithProviders(providers ...ports.Provider) Option {
	return func(g *Gateway) error {
		g.providers = providers
		return nil
	}
}

// WithCatalog replaces the embedded catalog.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(g *Gateway) error {
		g.catalog = cat
		return nil
	}
}

// WithVersion sets the version reported by the health endpoint.
func WithVersion(version string) Option {
	return func(g *Gateway) error {
		g.version = version
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) error {
		g.logger = logger
		return nil
	}
}
