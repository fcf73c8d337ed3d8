package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides. Nesting uses "__":
// TG_SERVER__PORT=9000 sets server.port.
const EnvPrefix = "TG_"

// DefaultPath is the config file read by Load.
const DefaultPath = "config.yaml"

type Config struct {
	Server    ServerConfig     `koanf:"server"`
	Log       LogConfig        `koanf:"log"`
	Storage   StorageConfig    `koanf:"storage"`
	KV        KVConfig         `koanf:"kv"`
	RateLimit RateLimitConfig  `koanf:"ratelimit"`
	Cache     CacheConfig      `koanf:"cache"`
	Search    SearchConfig     `koanf:"search"`
	Providers []ProviderConfig `koanf:"providers"`
	Filters   FiltersConfig    `koanf:"filters"`
	Telemetry TelemetryConfig  `koanf:"telemetry"`
}

type ServerConfig struct {
	Port           int           `koanf:"port"`
	Environment    string        `koanf:"environment"` // production redacts internal error messages
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// IsProduction reports whether the server runs in production mode.
func (s ServerConfig) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // sqlite, memory
	SQLite SQLiteConfig `koanf:"sqlite"`
	// Database is the generic database configuration for multi-dialect support
	Database DatabaseConfig `koanf:"database"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// DatabaseConfig is the generic database configuration supporting multiple dialects.
type DatabaseConfig struct {
	Driver string `koanf:"driver"` // sqlite, postgres
	DSN    string `koanf:"dsn"`    // Data source name / connection string
}

type KVConfig struct {
	Type     string `koanf:"type"` // redis, memory
	RedisURL string `koanf:"redis_url"`
}

type RateLimitConfig struct {
	FailureMode string `koanf:"failure_mode"` // closed, open
}

type CacheConfig struct {
	ResponseTTL  time.Duration `koanf:"response_ttl"`
	ResolverSize int           `koanf:"resolver_size"`
}

type SearchConfig struct {
	ProviderTimeout time.Duration `koanf:"provider_timeout"`
}

type ProviderConfig struct {
	Name    string        `koanf:"name"`
	Type    string        `koanf:"type"` // flightapi, hotelapi
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"` // Optional: overrides search.provider_timeout
	RPS     float64       `koanf:"rps"`     // Optional: outbound requests per second, 0 = unpaced
	Burst   int           `koanf:"burst"`

	// AllowPrivateNetwork permits base URLs on loopback or private
	// addresses, for local mocks.
	AllowPrivateNetwork bool `koanf:"allow_private_network"`
}

type FiltersConfig struct {
	Disabled             []string            `koanf:"disabled"`
	LightFareAirlines    []string            `koanf:"light_fare_airlines"`
	DestinationWhitelist map[string][]string `koanf:"destination_whitelist"` // market -> destination codes
}

type TelemetryConfig struct {
	Enabled bool `koanf:"enabled"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

var defaults = map[string]any{
	"server.port":             8080,
	"server.environment":      "development",
	"server.request_timeout":  "30s",
	"log.level":               "info",
	"storage.type":            "sqlite",
	"storage.sqlite.path":     "./data/gateway.db",
	"kv.type":                 "redis",
	"kv.redis_url":            "redis://localhost:6379/0",
	"ratelimit.failure_mode":  "closed",
	"cache.response_ttl":      "60s",
	"cache.resolver_size":     4096,
	"search.provider_timeout": "8s",
}

// Load reads config.yaml if present, then TG_ environment overrides.
func Load() (*Config, error) {
	path := DefaultPath
	if p := os.Getenv(EnvPrefix + "CONFIG"); p != "" {
		path = p
	}
	return LoadFile(path)
}

// LoadFile reads the configuration from path (optional), then environment
// overrides, then defaults for absent keys.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	// Load environment variables (can override file config)
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	for key, v := range defaults {
		if !k.Exists(key) {
			k.Set(key, v)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Substitute environment variables in secrets
	for i := range cfg.Providers {
		cfg.Providers[i].APIKey = substituteEnvVars(cfg.Providers[i].APIKey)
	}
	cfg.KV.RedisURL = substituteEnvVars(cfg.KV.RedisURL)
	cfg.Storage.Database.DSN = substituteEnvVars(cfg.Storage.Database.DSN)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values koanf cannot type-check.
func (c *Config) Validate() error {
	switch c.KV.Type {
	case "redis", "memory":
	default:
		return fmt.Errorf("unsupported kv type: %q", c.KV.Type)
	}
	switch c.Storage.Type {
	case "sqlite", "memory", "database":
	default:
		return fmt.Errorf("unsupported storage type: %q", c.Storage.Type)
	}

	seen := make(map[string]bool)
	for _, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("provider of type %q has no name", p.Type)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate provider name: %s", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
