package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	CacheDir      string `toml:"cache_dir"`
	CacheKey      string `toml:"cache_key"`
	ServiceURL    string `toml:"service_url"`
	Path          string `toml:"path"`
	AuthKey       string `toml:"auth_key"`
	HTTPTimeout   string `toml:"http_timeout"`
	DebounceDelay string `toml:"debounce_delay"`
	LogLevel      string `toml:"log_level"`
	JSON          *bool  `toml:"json"`
	Once          *bool  `toml:"once"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.homeinfo/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".homeinfo", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("cache-dir", fc.CacheDir, &cfg.CacheDir)
	s.setString("cache-key", fc.CacheKey, &cfg.CacheKey)
	s.setString("service-url", fc.ServiceURL, &cfg.ServiceURL)
	s.setString("path", fc.Path, &cfg.Path)
	s.setString("auth-key", fc.AuthKey, &cfg.AuthKey)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("debounce", fc.DebounceDelay, &cfg.DebounceDelay); err != nil {
		return err
	}

	s.setBool("json", fc.JSON, &cfg.JSON)
	s.setBool("once", fc.Once, &cfg.Once)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
