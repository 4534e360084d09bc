// Package config provides configuration management for weft using Viper,
// loading from .weft.yml, environment variables with the WEFT_ prefix, and
// command-line flags bound by cmd.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the full weft configuration.
type Config struct {
	Frontend FrontendConfig `yaml:"frontend"`
	Server   ServerConfig   `yaml:"server"`
	Cache    CacheConfig    `yaml:"cache"`
	Watch    WatchConfig    `yaml:"watch"`
	Build    BuildConfig    `yaml:"build"`
	Log      LogConfig      `yaml:"log"`
}

// FrontendConfig locates the frontend tree the engine composes from.
type FrontendConfig struct {
	BasePath string `yaml:"base_path"`
}

// ServerConfig holds dev-server settings.
type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	DefaultPage string `yaml:"default_page"`
}

// CacheConfig holds cache tier settings.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
	Timeout time.Duration `yaml:"timeout"`
}

// WatchConfig holds file-watcher settings.
type WatchConfig struct {
	Debounce   time.Duration `yaml:"debounce"`
	Extensions []string      `yaml:"extensions"`
}

// BuildConfig holds composition settings.
type BuildConfig struct {
	Concurrent bool `yaml:"concurrent"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the configuration from viper and applies defaults for anything
// unset. Missing or malformed config files degrade to defaults; viper is
// initialized by the CLI.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.Frontend.BasePath == "" {
		config.Frontend.BasePath = "src/frontend"
	}
	if viper.IsSet("frontend.base_path") {
		config.Frontend.BasePath = viper.GetString("frontend.base_path")
	}

	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8000
	}
	if config.Server.DefaultPage == "" {
		config.Server.DefaultPage = "Welcome"
	}
	if viper.IsSet("server.default_page") {
		config.Server.DefaultPage = viper.GetString("server.default_page")
	}

	if !viper.IsSet("cache.enabled") {
		config.Cache.Enabled = true
	} else {
		config.Cache.Enabled = viper.GetBool("cache.enabled")
	}
	if config.Cache.TTL == 0 {
		config.Cache.TTL = 300 * time.Second
	}
	if config.Cache.Timeout == 0 {
		config.Cache.Timeout = 30 * time.Second
	}

	if config.Watch.Debounce == 0 {
		config.Watch.Debounce = 500 * time.Millisecond
	}
	if len(config.Watch.Extensions) == 0 {
		config.Watch.Extensions = []string{".html", ".css", ".js", ".descriptor", ".yaml", ".yml"}
	}

	if viper.IsSet("build.concurrent") {
		config.Build.Concurrent = viper.GetBool("build.concurrent")
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}

	return &config, nil
}

// Address returns the host:port the dev server listens on.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
