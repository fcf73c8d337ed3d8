// Package runtime assembles the travel gateway from configuration and
// manages its HTTP server lifecycle.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/tjfontaine/travel-gateway/internal/auth"
	"github.com/tjfontaine/travel-gateway/internal/catalog"
	"github.com/tjfontaine/travel-gateway/internal/core/ports"
	"github.com/tjfontaine/travel-gateway/internal/filter"
	searchfd "github.com/tjfontaine/travel-gateway/internal/frontdoor/search"
	"github.com/tjfontaine/travel-gateway/internal/iteration"
	kvmemory "github.com/tjfontaine/travel-gateway/internal/kv/memory"
	"github.com/tjfontaine/travel-gateway/internal/pkg/config"
	"github.com/tjfontaine/travel-gateway/internal/provider"
	"github.com/tjfontaine/travel-gateway/internal/ratelimit"
	"github.com/tjfontaine/travel-gateway/internal/resolver"
	"github.com/tjfontaine/travel-gateway/internal/search"
	"github.com/tjfontaine/travel-gateway/internal/server"
	"github.com/tjfontaine/travel-gateway/internal/telemetry"
	"github.com/tjfontaine/travel-gateway/internal/transform"
)

// janitorInterval is how often the in-process KV store drops expired entries.
const janitorInterval = time.Minute

// Gateway is the main entry point for running the travel gateway.
// It owns the stores, the providers and the HTTP server.
type Gateway struct {
	// Dependencies (injected via options or built from config)
	config    *config.Config
	storage   ports.StorageProvider
	counters  ports.CounterStore
	cache     ports.ResponseCache
	catalog   *catalog.Catalog
	providers []ports.Provider
	version   string

	// Internal state
	router  *server.Server
	server  *http.Server
	closers []func() error
	logger  *slog.Logger

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
}

// New creates a Gateway with the given options. Collaborators not set by
// an option are built from the configuration.
func New(opts ...Option) (*Gateway, error) {
	gw := &Gateway{
		logger:  slog.Default(),
		version: "dev",
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(gw); err != nil {
			gw.close()
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if gw.config == nil {
		gw.close()
		return nil, errors.New("config required (use WithConfig or WithFileConfig)")
	}

	if err := gw.init(); err != nil {
		gw.close()
		return nil, err
	}
	return gw, nil
}

func (g *Gateway) init() error {
	cfg := g.config

	if g.catalog == nil {
		cat, err := catalog.Default()
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		g.catalog = cat
	}

	if g.storage == nil {
		if err := g.initStorage(cfg.Storage); err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
	}

	if g.counters == nil || g.cache == nil {
		if err := g.initKV(cfg.KV); err != nil {
			return fmt.Errorf("init kv: %w", err)
		}
	}

	if g.providers == nil {
		if err := g.initProviders(cfg); err != nil {
			return fmt.Errorf("init providers: %w", err)
		}
	}

	if err := g.initRouter(cfg); err != nil {
		return fmt.Errorf("init router: %w", err)
	}
	return nil
}

// initStorage opens the relational store named by the configuration.
func (g *Gateway) initStorage(cfg config.StorageConfig) error {
	switch cfg.Type {
	case "memory":
		return WithMemoryStorage()(g)
	case "database":
		return WithDatabase(cfg.Database.Driver, cfg.Database.DSN)(g)
	case "", "sqlite":
		return WithSQLite(cfg.SQLite.Path)(g)
	default:
		return fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// initKV opens the key-value store named by the configuration.
func (g *Gateway) initKV(cfg config.KVConfig) error {
	switch cfg.Type {
	case "memory":
		return WithMemoryKV()(g)
	case "", "redis":
		return WithRedis(cfg.RedisURL)(g)
	default:
		return fmt.Errorf("unknown kv type %q", cfg.Type)
	}
}

// initProviders creates the configured providers.
func (g *Gateway) initProviders(cfg *config.Config) error {
	g.logger.Debug("initializing providers", slog.Int("count", len(cfg.Providers)))

	providers, err := provider.NewRegistry().CreateProviders(cfg.Providers)
	if err != nil {
		return err
	}
	g.providers = providers

	for _, p := range providers {
		g.logger.Info("provider ready",
			slog.String("name", p.Name()),
			slog.String("kind", string(p.Kind())))
	}
	return nil
}

// initRouter builds the search pipeline and the HTTP router.
func (g *Gateway) initRouter(cfg *config.Config) error {
	mode, err := ratelimit.ParseFailureMode(cfg.RateLimit.FailureMode)
	if err != nil {
		return err
	}

	res, err := resolver.New(g.catalog,
		resolver.WithCacheSize(cfg.Cache.ResolverSize),
		resolver.WithLogger(g.logger))
	if err != nil {
		return err
	}

	handler := searchfd.NewHandler(searchfd.HandlerConfig{
		Contexts: g.storage,
		Cache:    g.cache,
		Detector: iteration.NewDetector(res, iteration.WithLogger(g.logger)),
		Resolver: res,
		Searcher: search.NewOrchestrator(g.providers,
			search.WithDefaultTimeout(cfg.Search.ProviderTimeout),
			search.WithTracer(telemetry.Tracer()),
			search.WithLogger(g.logger)),
		Enricher: transform.NewEnricher(g.catalog),
		Filters: filter.NewStack(filter.Config{
			Disabled:             cfg.Filters.Disabled,
			LightFareAirlines:    cfg.Filters.LightFareAirlines,
			DestinationWhitelist: cfg.Filters.DestinationWhitelist,
		}, g.catalog, filter.WithLogger(g.logger)),
		CacheTTL: cfg.Cache.ResponseTTL,
		Logger:   g.logger,
	})

	limiter := ratelimit.New(g.counters,
		ratelimit.WithFailureMode(mode),
		ratelimit.WithLogger(g.logger))

	g.router = server.New(server.Config{
		Version:        g.version,
		Production:     cfg.Server.IsProduction(),
		RequestTimeout: cfg.Server.RequestTimeout,
	}, g.logger, auth.NewValidator(g.storage, g.logger), limiter)
	g.router.Protected(handler.Routes)
	return nil
}

// Handler returns the HTTP handler of the gateway.
func (g *Gateway) Handler() http.Handler {
	return g.router.Router
}

// Start starts the HTTP server in the background.
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.server != nil {
		return errors.New("gateway already started")
	}

	g.ctx, g.cancel = context.WithCancel(ctx)

	if janitor, ok := g.counters.(*kvmemory.Store); ok {
		janitor.StartJanitor(g.ctx, janitorInterval)
	}

	port := g.config.Server.Port
	g.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           g.router.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in background
	go func() {
		g.logger.Info("HTTP server listening", slog.Int("port", port))
		if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	g.logger.Info("gateway started",
		slog.Int("port", port),
		slog.Int("providers", len(g.providers)),
		slog.String("version", g.version))
	return nil
}

// Shutdown gracefully stops the gateway and closes its stores.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.logger.Info("shutting down gateway")

	if g.cancel != nil {
		g.cancel()
	}

	// Stop HTTP server
	if g.server != nil {
		if err := g.server.Shutdown(ctx); err != nil {
			g.logger.Error("failed to shutdown server", slog.String("error", err.Error()))
			return err
		}
	}

	g.close()
	g.logger.Info("gateway shutdown complete")
	return nil
}

// close releases every store opened by the gateway, newest first.
func (g *Gateway) close() {
	for i := len(g.closers) - 1; i >= 0; i-- {
		if err := g.closers[i](); err != nil {
			g.logger.Error("failed to close resource", slog.String("error", err.Error()))
		}
	}
	g.closers = nil
}
