// Package config provides configuration loading, defaults, and validation for
// the ChannelIQ platform.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all platform settings.
const envPrefix = "CHANNELIQ"

// newViper builds a pre-configured Viper instance with the platform's
// standard settings: YAML file type, CHANNELIQ_ env prefix, automatic env
// binding, and a key replacer that maps "." → "_" so that nested keys like
// "database.host" resolve to "CHANNELIQ_DATABASE_HOST".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvKeys(v)
	return v
}

// configKeys is the full flattened key surface.  Viper only resolves env
// variables for keys it already knows about, so every key must be bound
// explicitly for file-less (env-only) loading to work.
var configKeys = []string{
	"server.port", "server.mode", "server.read_timeout", "server.write_timeout",
	"server.shutdown_timeout", "server.tenant_header",

	"database.host", "database.port", "database.user", "database.password",
	"database.db_name", "database.ssl_mode", "database.max_conns",
	"database.min_conns", "database.conn_max_lifetime",
	"database.conn_max_idle_time", "database.migration_path",

	"redis.addr", "redis.password", "redis.db", "redis.pool_size",
	"redis.min_idle_conns", "redis.dial_timeout", "redis.read_timeout",
	"redis.write_timeout", "redis.key_prefix",

	"kafka.brokers", "kafka.enabled", "kafka.producer_retries",
	"kafka.batch_timeout", "kafka.topic_prefix",

	"log.level", "log.format",

	"engine.min_contributors", "engine.benchmark_ttl", "engine.lookback_days",
	"engine.max_products", "engine.data_rich_min_tenants",
	"engine.population_ttl", "engine.population_timeout",
	"engine.fetch_timeout", "engine.benchmark_timeout",
	"engine.benchmark_weight",

	"privacy.pseudonym_secret", "privacy.environment",
}

func bindEnvKeys(v *viper.Viper) {
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}
}

// Load reads the YAML file at configPath, merges any CHANNELIQ_* environment
// variable overrides, applies platform defaults for unset fields, and
// validates the result.  It returns a fully-populated *Config or a
// descriptive error.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from CHANNELIQ_* environment
// variables, with no config file required.  This is the preferred loading
// strategy for containerised deployments.
//
//	CHANNELIQ_<SECTION>_<FIELD>   e.g.  CHANNELIQ_DATABASE_HOST,
//	                                    CHANNELIQ_PRIVACY_PSEUDONYM_SECRET
func LoadFromEnv() (*Config, error) {
	v := newViper()
	return unmarshalAndFinalize(v)
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk.  It is intended for
// hot-reloading non-critical settings such as log level; callers are
// responsible for applying only the safe subset of changes at runtime.
// Privacy and engine invariant settings (pseudonym secret, k-anonymity
// minimum) must never be hot-reloaded.
//
// Watch is non-blocking; it starts a background goroutine managed by viper.
// Files that fail to parse or validate are ignored.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)
	_ = v.ReadInConfig()

	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}
