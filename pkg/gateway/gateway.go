// Package gateway provides the public API for embedding the travel gateway.
// This is the stable API for external consumers.
package gateway

import (
	"github.com/tjfontaine/travel-gateway/internal/runtime"
)

// Gateway is the main entry point for running the travel gateway.
// See internal/runtime.Gateway for full documentation.
type Gateway = runtime.Gateway

// Option is a functional option for configuring a Gateway.
type Option = runtime.Option

// New creates a new Gateway with the given options.
// Example:
//
//	gw, err := gateway.New(
//	    gateway.WithFileConfig("config.yaml"),
//	    gateway.WithSQLite("./data/gateway.db"),
//	)
var New = runtime.New

// Configuration options
var (
	// Config sources
	WithConfig     = runtime.WithConfig
	WithFileConfig = runtime.WithFileConfig

	// Storage
	WithSQLite          = runtime.WithSQLite
	WithDatabase        = runtime.WithDatabase
	WithMemoryStorage   = runtime.WithMemoryStorage
	WithStorageProvider = runtime.WithStorageProvider

	// Counters and response cache
	WithRedis    = runtime.WithRedis
	WithMemoryKV = runtime.WithMemoryKV
	WithKVStore  = runtime.WithKVStore

	// Advanced options
	WithProviders = runtime.WithProviders
	WithCatalog   = runtime.WithCatalog
	WithVersion   = runtime.WithVersion
	WithLogger    = runtime.WithLogger
)
