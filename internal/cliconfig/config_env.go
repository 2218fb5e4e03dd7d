package cliconfig

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "HOMEINFO_"

// EnvConfig lists the HOMEINFO_* variables. Durations and booleans are
// kept as strings so an unset variable never overrides a lower source.
type EnvConfig struct {
	CacheDir      string `env:"CACHE_DIR"`
	CacheKey      string `env:"CACHE_KEY"`
	ServiceURL    string `env:"SERVICE_URL"`
	Path          string `env:"PATH_PREFIX"`
	AuthKey       string `env:"AUTH_KEY"`
	HTTPTimeout   string `env:"HTTP_TIMEOUT"`
	DebounceDelay string `env:"DEBOUNCE_DELAY"`
	LogLevel      string `env:"LOG_LEVEL"`
	JSON          string `env:"JSON"`
	Once          string `env:"ONCE"`
}

// LoadEnvConfig reads the HOMEINFO_* variables.
func LoadEnvConfig() (EnvConfig, error) {
	var ec EnvConfig
	if err := env.ParseWithOptions(&ec, env.Options{Prefix: EnvPrefix}); err != nil {
		return ec, fmt.Errorf("parse env: %w", err)
	}
	return ec, nil
}

// ApplyEnvConfig applies HOMEINFO_* environment variables to cfg.
// They override file config but are overridden by flags (changed map).
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	ec, err := LoadEnvConfig()
	if err != nil {
		return err
	}

	s := newConfigSetter(changed)

	s.setString("cache-dir", ec.CacheDir, &cfg.CacheDir)
	s.setString("cache-key", ec.CacheKey, &cfg.CacheKey)
	s.setString("service-url", ec.ServiceURL, &cfg.ServiceURL)
	s.setString("path", ec.Path, &cfg.Path)
	s.setString("auth-key", ec.AuthKey, &cfg.AuthKey)
	s.setString("log-level", ec.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("timeout", ec.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("debounce", ec.DebounceDelay, &cfg.DebounceDelay); err != nil {
		return err
	}

	s.setBoolFromString("json", ec.JSON, &cfg.JSON)
	s.setBoolFromString("once", ec.Once, &cfg.Once)

	return nil
}
