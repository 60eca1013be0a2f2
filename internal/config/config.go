// Package config defines all configuration structures for the ChannelIQ
// platform.  No I/O or parsing logic lives here — only plain data types and
// validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	TenantHeader    string        `mapstructure:"tenant_header"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds the analysis-event producer parameters.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	Enabled         bool          `mapstructure:"enabled"`
	ProducerRetries int           `mapstructure:"producer_retries"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
	TopicPrefix     string        `mapstructure:"topic_prefix"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
}

// EngineConfig holds every tunable of the channel-product fit engine.
type EngineConfig struct {
	// MinContributors is the k-anonymity gate: the minimum number of distinct
	// other tenants that must contribute to a (cluster, marketplace) aggregate
	// before it is exposed to scoring and recommendations.
	MinContributors int `mapstructure:"min_contributors"`

	// BenchmarkTTL bounds how often the cross-tenant aggregation queries run
	// system-wide.
	BenchmarkTTL time.Duration `mapstructure:"benchmark_ttl"`

	// LookbackDays is the default analysis lookback; must be one of 30, 60, 90.
	LookbackDays int `mapstructure:"lookback_days"`

	// MaxProducts is the number of products per report (hard cap 20).
	MaxProducts int `mapstructure:"max_products"`

	// DataRichMinTenants is the tenant-population threshold above which the
	// platform operates in the data-rich phase.
	DataRichMinTenants int `mapstructure:"data_rich_min_tenants"`

	// PopulationTTL bounds how often the tenant-population count is refreshed.
	PopulationTTL time.Duration `mapstructure:"population_ttl"`

	// PopulationTimeout / FetchTimeout / BenchmarkTimeout time-box the three
	// classes of external calls.  A timeout degrades the request; it never
	// fails it.
	PopulationTimeout time.Duration `mapstructure:"population_timeout"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
	BenchmarkTimeout  time.Duration `mapstructure:"benchmark_timeout"`

	// BenchmarkWeight is the share of the composite score carried by the
	// platform-benchmark signal when a qualified benchmark exists.
	BenchmarkWeight float64 `mapstructure:"benchmark_weight"`
}

// PrivacyConfig holds the cross-tenant pseudonymization parameters.
type PrivacyConfig struct {
	// PseudonymSecret is the keyed-hash secret used to pseudonymize tenant
	// identifiers before they touch any cache.  Must be at least 32 characters
	// in any production deployment; absence is a fatal startup error outside of
	// allow-listed environments.
	PseudonymSecret string `mapstructure:"pseudonym_secret"`

	// Environment identifies the deployment environment ("production",
	// "staging", "dev", "test", "local").
	Environment string `mapstructure:"environment"`
}

// nonProductionEnvironments are the environments allowed to run without a
// pseudonymization secret (a development fallback is derived instead).
var nonProductionEnvironments = map[string]bool{
	"dev":         true,
	"development": true,
	"test":        true,
	"local":       true,
}

// IsProduction reports whether the configured environment requires the full
// privacy posture.
func (p PrivacyConfig) IsProduction() bool {
	return !nonProductionEnvironments[p.Environment]
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the entire platform.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Log      LogConfig      `mapstructure:"log"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Privacy  PrivacyConfig  `mapstructure:"privacy"`
}

// validLookbacks are the supported analysis lookback windows, in days.
var validLookbacks = map[int]bool{30: true, 60: true, 90: true}

// MaxProductsHardCap bounds max_products regardless of configuration.
const MaxProductsHardCap = 20

// MinPseudonymSecretLen is the minimum accepted secret length.
const MinPseudonymSecretLen = 32

// Validate performs semantic validation of the fully-populated Config.  It
// returns the first error encountered; callers must treat any error as fatal
// and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// Database
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config: database.max_conns must be ≥ 1, got %d", c.Database.MaxConns)
	}

	// Redis
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	// Kafka (only when enabled)
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker when kafka is enabled")
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Engine
	if c.Engine.MinContributors < 2 {
		return fmt.Errorf("config: engine.min_contributors must be ≥ 2, got %d", c.Engine.MinContributors)
	}
	if !validLookbacks[c.Engine.LookbackDays] {
		return fmt.Errorf("config: engine.lookback_days %d is invalid; expected 30, 60 or 90", c.Engine.LookbackDays)
	}
	if c.Engine.MaxProducts < 1 || c.Engine.MaxProducts > MaxProductsHardCap {
		return fmt.Errorf("config: engine.max_products %d is out of range [1, %d]", c.Engine.MaxProducts, MaxProductsHardCap)
	}
	if c.Engine.BenchmarkWeight < 0 || c.Engine.BenchmarkWeight >= 1 {
		return fmt.Errorf("config: engine.benchmark_weight %.2f is out of range [0, 1)", c.Engine.BenchmarkWeight)
	}
	if c.Engine.BenchmarkTTL <= 0 {
		return fmt.Errorf("config: engine.benchmark_ttl must be positive")
	}

	// Privacy: the pseudonymization secret is mandatory in production.
	if c.Privacy.IsProduction() {
		if c.Privacy.PseudonymSecret == "" {
			return fmt.Errorf("config: privacy.pseudonym_secret is required in environment %q", c.Privacy.Environment)
		}
		if len(c.Privacy.PseudonymSecret) < MinPseudonymSecretLen {
			return fmt.Errorf("config: privacy.pseudonym_secret must be at least %d characters, got %d",
				MinPseudonymSecretLen, len(c.Privacy.PseudonymSecret))
		}
	}

	return nil
}
