// Package config defines the service configuration and how it is loaded.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config contains process configuration.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is "console" or "json".
	LogFormat string `koanf:"log_format"`

	// StoreDriver selects the player and audit store: postgres or memory.
	StoreDriver          string `koanf:"store_driver"`
	DatabaseURL          string `koanf:"database_url"`
	DBMaxOpenConns       int    `koanf:"db_max_open_conns"`
	DBMaxIdleConns       int    `koanf:"db_max_idle_conns"`
	DBConnMaxLifetimeMin int    `koanf:"db_conn_max_lifetime_minutes"`

	// RedisURL is host:port. Empty disables Redis.
	RedisURL      string `koanf:"redis_url"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	JWTSecret string `koanf:"jwt_secret"`

	// AllowedOrigins is the CORS allow list. A comma separated env value is split.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// Per-window request budgets.
	RateLimitGames  int           `koanf:"rate_limit_games"`
	RateLimitReads  int           `koanf:"rate_limit_reads"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// UpdateGlobalRating also overwrites the global rating on every settlement.
	UpdateGlobalRating bool `koanf:"update_global_rating"`

	LeaderboardDefaultLimit int           `koanf:"leaderboard_default_limit"`
	LeaderboardMaxLimit     int           `koanf:"leaderboard_max_limit"`
	LeaderboardCacheTTL     time.Duration `koanf:"leaderboard_cache_ttl"`

	// ReconcileInterval of zero disables the reconciliation worker.
	ReconcileInterval time.Duration `koanf:"reconcile_interval"`
	ReconcileRepair   bool          `koanf:"reconcile_repair"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		Addr:                    ":8080",
		LogLevel:                "info",
		LogFormat:               "console",
		StoreDriver:             StoreDriverPostgres,
		DBMaxOpenConns:          25,
		DBMaxIdleConns:          25,
		DBConnMaxLifetimeMin:    5,
		RedisURL:                "localhost:6379",
		JWTSecret:               "your-secret-key-change-this-in-production",
		RateLimitGames:          10,
		RateLimitReads:          20,
		RateLimitWindow:         time.Minute,
		UpdateGlobalRating:      true,
		LeaderboardDefaultLimit: 10,
		LeaderboardMaxLimit:     50,
		LeaderboardCacheTTL:     30 * time.Second,
		ReconcileInterval:       time.Hour,
	}
}

// defaultOrigins is used when no allow list is configured.
var defaultOrigins = []string{"http://localhost:5173"}

// Validate checks the loaded values and fills list defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: database_url is required for the postgres store", ErrInvalidConfig)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("%w: jwt_secret must not be empty", ErrInvalidConfig)
	}
	if c.RateLimitGames <= 0 || c.RateLimitReads <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("%w: rate limits and window must be positive", ErrInvalidConfig)
	}
	if c.LeaderboardDefaultLimit <= 0 || c.LeaderboardMaxLimit < c.LeaderboardDefaultLimit {
		return fmt.Errorf("%w: leaderboard limits must satisfy 0 < default <= max", ErrInvalidConfig)
	}
	if c.ReconcileInterval < 0 {
		return fmt.Errorf("%w: reconcile_interval must not be negative", ErrInvalidConfig)
	}

	origins := make([]string, 0, len(c.AllowedOrigins))
	for _, o := range c.AllowedOrigins {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		origins = append(origins, defaultOrigins...)
	}
	c.AllowedOrigins = origins
	return nil
}
