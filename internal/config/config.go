package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	StorageBackendPostgres  = "postgres"
	StorageBackendFirestore = "firestore"

	DefaultStatsCacheSizeMB      = 128
	DefaultStatsCacheMaxBundleKB = 128
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// storage
	StorageBackend       string `toml:"storage_backend"`
	PostgresHost         string `toml:"postgres_host"`
	PostgresPort         string `toml:"postgres_port"`
	PostgresDBName       string `toml:"postgres_db_name"`
	PostgresUser         string `toml:"postgres_user"`
	PostgresMaxConns     int32  `toml:"postgres_max_conns"`
	FirestoreProjectID   string `toml:"firestore_project_id"`
	FirestoreCredentials string `toml:"firestore_credentials"`
	FirestoreCollection  string `toml:"firestore_collection"`
	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// kafka, notifications disabled when no brokers are set
	KafkaBrokers []string `toml:"kafka_brokers"`
	KafkaTopic   string   `toml:"kafka_topic"`
	// entries and stats
	EntriesWriteRateLimit int    `toml:"entries_write_rate_limit"`
	StatsCacheSizeMB      int    `toml:"stats_cache_size_mb"`
	StatsCacheMaxBundleKB int    `toml:"stats_cache_max_bundle_kb"`
	StatsCacheTTL         string `toml:"stats_cache_ttl"`
	Timezone              string `toml:"timezone"`
	DefaultWeightUnit     string `toml:"default_weight_unit"`
	SessionTTL            string `toml:"session_ttl"`
	// cors
	AllowedOrigins []string `toml:"allowed_origins"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML file at path and returns the config section for env.
func Load(env, path string) (*Config, error) {
	var tomlConfig Toml
	if _, err := toml.DecodeFile(path, &tomlConfig); err != nil {
		return nil, fmt.Errorf("decode toml [%s]: %w", path, err)
	}

	cfg, err := tomlConfig.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] missing", env)
	}

	if err := cfg.setDefaultsAndValidate(); err != nil {
		return nil, fmt.Errorf("invalid [%s] config: %w", env, err)
	}

	return cfg, nil
}

func (c *Config) setDefaultsAndValidate() error {
	if c.Port == 0 {
		return errors.New("port not set")
	}
	if c.StorageBackend == "" {
		c.StorageBackend = StorageBackendPostgres
	}
	switch c.StorageBackend {
	case StorageBackendPostgres:
	case StorageBackendFirestore:
		if c.FirestoreProjectID == "" {
			return errors.New("firestore project id not set")
		}
	default:
		return fmt.Errorf("unknown storage backend: %s", c.StorageBackend)
	}
	if c.StatsCacheSizeMB <= 0 {
		c.StatsCacheSizeMB = DefaultStatsCacheSizeMB
	}
	if c.StatsCacheMaxBundleKB <= 0 {
		c.StatsCacheMaxBundleKB = DefaultStatsCacheMaxBundleKB
	}
	// the cache keeps entries up to 1/1024 of its size: 1 MB of cache per KB of bundle
	if c.StatsCacheSizeMB < c.StatsCacheMaxBundleKB {
		return fmt.Errorf(
			"stats_cache_size_mb (%d) too small for stats_cache_max_bundle_kb (%d), must be at least %d",
			c.StatsCacheSizeMB, c.StatsCacheMaxBundleKB, c.StatsCacheMaxBundleKB,
		)
	}
	if c.StatsCacheTTL == "" {
		c.StatsCacheTTL = "1h"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.DefaultWeightUnit == "" {
		c.DefaultWeightUnit = "kg"
	}
	if c.SessionTTL == "" {
		c.SessionTTL = "720h"
	}
	if c.KafkaTopic == "" {
		c.KafkaTopic = "trackfit.entries"
	}

	for name, value := range map[string]string{
		"stats_cache_ttl": c.StatsCacheTTL,
		"session_ttl":     c.SessionTTL,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}

	return nil
}

func (c *Config) StatsCacheTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.StatsCacheTTL)
	return d
}

func (c *Config) SessionTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.SessionTTL)
	return d
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
