package cliconfig

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/homeinfo/internal/adapters/fs"
	"github.com/bft-labs/homeinfo/pkg/homeinfo"
)

// Config holds CLI configuration for homeinfo.
type Config struct {
	CacheDir   string
	CacheKey   string
	ServiceURL string
	Path       string
	AuthKey    string

	HTTPTimeout   time.Duration
	DebounceDelay time.Duration

	LogLevel string
	JSON     bool
	Once     bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	lib := homeinfo.DefaultConfig()
	return Config{
		CacheDir:      lib.CacheDir,
		CacheKey:      lib.CacheKey,
		Path:          lib.Path,
		HTTPTimeout:   lib.HTTPTimeout,
		DebounceDelay: lib.DebounceDelay,
		LogLevel:      "info",
	}
}

// Validate checks the configuration for errors and normalizes the service
// URL. The service URL itself is only required by commands that fetch.
func (c *Config) Validate() error {
	if c.CacheDir == "" {
		return fmt.Errorf("cache-dir is required")
	}
	if err := fs.ValidateKey(c.CacheKey); err != nil {
		return fmt.Errorf("cache-key: %w", err)
	}

	// Ensure no trailing slash
	c.ServiceURL = strings.TrimRight(c.ServiceURL, "/")

	if c.Path != "" && !strings.HasPrefix(c.Path, "/") {
		c.Path = "/" + c.Path
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.DebounceDelay <= 0 {
		return fmt.Errorf("debounce must be positive")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log-level: %w", err)
	}
	return nil
}

// Library converts the CLI configuration to the library configuration.
func (c Config) Library() homeinfo.Config {
	return homeinfo.Config{
		CacheDir:      c.CacheDir,
		CacheKey:      c.CacheKey,
		ServiceURL:    c.ServiceURL,
		Path:          c.Path,
		AuthKey:       c.AuthKey,
		HTTPTimeout:   c.HTTPTimeout,
		DebounceDelay: c.DebounceDelay,
	}
}

// Masked returns a copy safe for logging.
func (c Config) Masked() Config {
	if len(c.AuthKey) > 0 {
		c.AuthKey = "*****"
	}
	return c
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
