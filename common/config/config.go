// Package config provides centralized configuration management for the pos-sync services.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the master configuration struct for both services and the shared
// infrastructure they depend on.
type Config struct {
	Poller    PollerConfig    `mapstructure:"poller"`
	Processor ProcessorConfig `mapstructure:"processor"`

	NATS      NATSConfig      `mapstructure:"nats"`
	Warehouse WarehouseConfig `mapstructure:"warehouse"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// PollerConfig holds poller service configuration.
type PollerConfig struct {
	Server ServerConfig `mapstructure:"server"`
	API    APIConfig    `mapstructure:"api"`

	// BusinessTimezone is the zone the vendor partitions business dates in.
	BusinessTimezone string `mapstructure:"business_timezone"`

	// EndpointsFile optionally overrides the built-in endpoint descriptors.
	EndpointsFile string `mapstructure:"endpoints_file"`

	// DefaultDaysBack is used when a sync request omits days_back.
	DefaultDaysBack int `mapstructure:"default_days_back"`

	Secrets SecretsConfig `mapstructure:"secrets"`
}

// APIConfig holds vendor OData API settings.
type APIConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryWait  time.Duration `mapstructure:"retry_wait"`
	PageSize   int           `mapstructure:"page_size"`
}

// SecretsConfig selects the credential provider.
type SecretsConfig struct {
	// Source is "env" (SITE_ID / API_ACCESS_TOKEN variables) or "file".
	Source          string `mapstructure:"source"`
	SiteIDFile      string `mapstructure:"site_id_file"`
	AccessTokenFile string `mapstructure:"access_token_file"`
}

// ProcessorConfig holds processor service configuration.
type ProcessorConfig struct {
	Server ServerConfig `mapstructure:"server"`
	DLQ    DLQConfig    `mapstructure:"dlq"`
	Dedup  DedupConfig  `mapstructure:"dedup"`
}

// DLQConfig holds dead letter queue configuration.
type DLQConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BasePath string `mapstructure:"base_path"`
}

// DedupConfig controls the redis-backed record_id duplicate filter.
type DedupConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// NATSConfig holds message broker settings.
type NATSConfig struct {
	URL        string        `mapstructure:"url"`
	Name       string        `mapstructure:"name"`
	AckTimeout time.Duration `mapstructure:"ack_timeout"`
}

// WarehouseConfig holds destination database settings.
type WarehouseConfig struct {
	DatabaseURL    string `mapstructure:"database_url"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// Addr returns the listen address for the server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// Load reads configuration from the optional YAML file at path plus POSSYNC_*
// environment overrides (POSSYNC_NATS_URL, POSSYNC_WAREHOUSE_DATABASE_URL, ...).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("POSSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("poller.server.port", 8080)
	v.SetDefault("poller.server.read_timeout", 10*time.Second)
	v.SetDefault("poller.server.write_timeout", 10*time.Minute) // sync runs are synchronous
	v.SetDefault("poller.server.idle_timeout", 2*time.Minute)
	v.SetDefault("poller.api.timeout", 60*time.Second)
	v.SetDefault("poller.api.max_retries", 3)
	v.SetDefault("poller.api.retry_wait", time.Second)
	v.SetDefault("poller.api.page_size", 1000)
	v.SetDefault("poller.business_timezone", "America/Chicago")
	v.SetDefault("poller.default_days_back", 7)
	v.SetDefault("poller.secrets.source", "env")

	v.SetDefault("processor.server.port", 8081)
	v.SetDefault("processor.server.read_timeout", 10*time.Second)
	v.SetDefault("processor.server.write_timeout", 30*time.Second)
	v.SetDefault("processor.server.idle_timeout", 2*time.Minute)
	v.SetDefault("processor.dlq.enabled", true)
	v.SetDefault("processor.dlq.base_path", "/var/lib/pos-sync/dlq")
	v.SetDefault("processor.dedup.enabled", false)
	v.SetDefault("processor.dedup.ttl", 24*time.Hour)

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.name", "pos-sync")
	v.SetDefault("nats.ack_timeout", 30*time.Second)

	v.SetDefault("warehouse.migrations_path", "migrations")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// bindEnvKeys makes AutomaticEnv work for nested keys without requiring a
// config file that mentions them.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"poller.server.port",
		"poller.api.base_url",
		"poller.api.timeout",
		"poller.business_timezone",
		"poller.endpoints_file",
		"poller.default_days_back",
		"poller.secrets.source",
		"poller.secrets.site_id_file",
		"poller.secrets.access_token_file",
		"processor.server.port",
		"processor.dlq.enabled",
		"processor.dlq.base_path",
		"processor.dedup.enabled",
		"processor.dedup.ttl",
		"nats.url",
		"nats.name",
		"nats.ack_timeout",
		"warehouse.database_url",
		"warehouse.migrations_path",
		"redis.addr",
		"redis.password",
		"redis.db",
		"logging.level",
		"logging.format",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// ValidatePoller checks the settings a poller process cannot run without.
func (c *Config) ValidatePoller() error {
	if c.Poller.API.BaseURL == "" {
		return fmt.Errorf("poller.api.base_url is required")
	}
	if c.Poller.DefaultDaysBack < 1 || c.Poller.DefaultDaysBack > 365 {
		return fmt.Errorf("poller.default_days_back must be between 1 and 365")
	}
	return nil
}

// ValidateProcessor checks the settings a processor process cannot run without.
func (c *Config) ValidateProcessor() error {
	if c.Warehouse.DatabaseURL == "" {
		return fmt.Errorf("warehouse.database_url is required")
	}
	return nil
}
