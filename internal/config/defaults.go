package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort   = 8080
	DefaultServerMode   = "debug"
	DefaultTenantHeader = "X-Tenant-ID"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "channeliq"
	DefaultDBUser     = "channeliq"
	DefaultDBMaxConns = 25

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisDB        = 0
	DefaultRedisKeyPrefix = "channeliq:"

	DefaultKafkaTopicPrefix = "channeliq"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMinContributors    = 5
	DefaultLookbackDays       = 30
	DefaultMaxProducts        = 10
	DefaultDataRichMinTenants = 25
	DefaultBenchmarkWeight    = 0.20

	DefaultBenchmarkTTL      = 24 * time.Hour
	DefaultPopulationTTL     = 10 * time.Minute
	DefaultPopulationTimeout = 5 * time.Second
	DefaultFetchTimeout      = 30 * time.Second
	DefaultBenchmarkTimeout  = 30 * time.Second

	DefaultEnvironment = "dev"
)

// ApplyDefaults fills every zero-value field in cfg with the platform default.
// Fields already set by the caller are left unchanged so explicit
// configuration always wins.  It must be called after unmarshalling and
// before Validate().
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Server.TenantHeader == "" {
		cfg.Server.TenantHeader = DefaultTenantHeader
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.User == "" {
		cfg.Database.User = DefaultDBUser
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 5 * time.Minute
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = "migrations"
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = 3 * time.Second
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = 3 * time.Second
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if cfg.Kafka.ProducerRetries == 0 {
		cfg.Kafka.ProducerRetries = 3
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = 100 * time.Millisecond
	}
	if cfg.Kafka.TopicPrefix == "" {
		cfg.Kafka.TopicPrefix = DefaultKafkaTopicPrefix
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	if cfg.Engine.MinContributors == 0 {
		cfg.Engine.MinContributors = DefaultMinContributors
	}
	if cfg.Engine.BenchmarkTTL == 0 {
		cfg.Engine.BenchmarkTTL = DefaultBenchmarkTTL
	}
	if cfg.Engine.LookbackDays == 0 {
		cfg.Engine.LookbackDays = DefaultLookbackDays
	}
	if cfg.Engine.MaxProducts == 0 {
		cfg.Engine.MaxProducts = DefaultMaxProducts
	}
	if cfg.Engine.DataRichMinTenants == 0 {
		cfg.Engine.DataRichMinTenants = DefaultDataRichMinTenants
	}
	if cfg.Engine.PopulationTTL == 0 {
		cfg.Engine.PopulationTTL = DefaultPopulationTTL
	}
	if cfg.Engine.PopulationTimeout == 0 {
		cfg.Engine.PopulationTimeout = DefaultPopulationTimeout
	}
	if cfg.Engine.FetchTimeout == 0 {
		cfg.Engine.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.Engine.BenchmarkTimeout == 0 {
		cfg.Engine.BenchmarkTimeout = DefaultBenchmarkTimeout
	}
	if cfg.Engine.BenchmarkWeight == 0 {
		cfg.Engine.BenchmarkWeight = DefaultBenchmarkWeight
	}

	// ── Privacy ───────────────────────────────────────────────────────────────
	if cfg.Privacy.Environment == "" {
		cfg.Privacy.Environment = DefaultEnvironment
	}
}

// NewDefaultConfig returns a Config populated entirely with defaults,
// suitable for local development and tests.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
