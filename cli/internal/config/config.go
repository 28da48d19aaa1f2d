// Package config loads the CLI's profile configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the service URLs the CLI talks to.
type Config struct {
	PollerURL    string `mapstructure:"poller_url"`
	ProcessorURL string `mapstructure:"processor_url"`
}

// Default returns the local-development configuration.
func Default() *Config {
	return &Config{
		PollerURL:    "http://localhost:8080",
		ProcessorURL: "http://localhost:8081",
	}
}

// Load reads the config file at path, or $HOME/.possync/config.yaml when
// path is empty. A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("poller_url", Default().PollerURL)
	v.SetDefault("processor_url", Default().ProcessorURL)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return Default(), nil
		}
		v.SetConfigFile(filepath.Join(home, ".possync", "config.yaml"))
	}
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) || path == "" {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
