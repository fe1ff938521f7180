// Package config loads and validates scan engine configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds every knob the engine consumes. A single immutable value is
// injected into the fetcher and scanner at construction; extraction logic
// never reads ambient settings.
type Config struct {
	// Direct retrieval.
	Timeout        time.Duration `mapstructure:"timeout" validate:"required,min=1s,max=2m"`
	RequestDelay   time.Duration `mapstructure:"request_delay" validate:"min=0,max=30s"`
	UserAgent      string        `mapstructure:"user_agent" validate:"required,min=10"`
	AcceptLanguage string        `mapstructure:"accept_language" validate:"required"`

	// Unlocking relay (metered). Used only when both key and zone are set.
	RelayEndpoint string `mapstructure:"relay_endpoint" validate:"omitempty,url"`
	RelayAPIKey   string `mapstructure:"relay_api_key"`
	RelayZone     string `mapstructure:"relay_zone"`

	// Scheduling.
	DefaultScanInterval time.Duration `mapstructure:"default_scan_interval" validate:"required,min=1m,max=168h"`
	CycleInterval       time.Duration `mapstructure:"cycle_interval" validate:"required,min=1m,max=24h"`

	// Storage and observability.
	DatabasePath string `mapstructure:"database_path" validate:"required,min=1"`
	MetricsAddr  string `mapstructure:"metrics_addr" validate:"omitempty,hostname_port"`
	Verbose      bool   `mapstructure:"verbose"`
}

// DefaultConfig returns conservative defaults matching a single-process
// deployment scanning a few dozen targets.
func DefaultConfig() *Config {
	return &Config{
		Timeout:             10 * time.Second,
		RequestDelay:        time.Second,
		UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		AcceptLanguage:      "en-US,en;q=0.9",
		RelayEndpoint:       "https://api.brightdata.com/request",
		DefaultScanInterval: time.Hour,
		CycleInterval:       15 * time.Minute,
		DatabasePath:        "data/pricesentry.db",
	}
}

// RelayConfigured reports whether the metered relay may be used at all.
func (c *Config) RelayConfigured() bool {
	return c.RelayEndpoint != "" && c.RelayAPIKey != "" && c.RelayZone != ""
}

// Load reads configuration from an optional YAML file plus PRICESENTRY_*
// environment overrides, layered over DefaultConfig.
func Load(path string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("request_delay", def.RequestDelay)
	v.SetDefault("user_agent", def.UserAgent)
	v.SetDefault("accept_language", def.AcceptLanguage)
	v.SetDefault("relay_endpoint", def.RelayEndpoint)
	v.SetDefault("relay_api_key", def.RelayAPIKey)
	v.SetDefault("relay_zone", def.RelayZone)
	v.SetDefault("default_scan_interval", def.DefaultScanInterval)
	v.SetDefault("cycle_interval", def.CycleInterval)
	v.SetDefault("database_path", def.DatabasePath)
	v.SetDefault("metrics_addr", def.MetricsAddr)
	v.SetDefault("verbose", def.Verbose)

	v.SetEnvPrefix("PRICESENTRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) && len(errs) > 0 {
			first := errs[0]
			return fmt.Errorf("config field %s failed %s validation", first.Field(), first.Tag())
		}
		return fmt.Errorf("validate config: %w", err)
	}

	// Partial relay credentials are a misconfiguration, not a silent disable.
	if c.RelayAPIKey != "" && c.RelayZone == "" {
		return fmt.Errorf("relay_api_key set without relay_zone")
	}
	if c.RelayZone != "" && c.RelayAPIKey == "" {
		return fmt.Errorf("relay_zone set without relay_api_key")
	}
	return nil
}

// EnvInt reads an integer environment variable, reporting presence and parse
// errors separately so callers can keep flag defaults.
func EnvInt(key string) (int, bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, true, nil
}

// EnvString reads a string environment variable and whether it was set.
func EnvString(key string) (string, bool) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}
