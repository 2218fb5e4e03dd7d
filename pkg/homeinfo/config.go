package homeinfo

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bft-labs/homeinfo/internal/adapters/fs"
	httpAdapter "github.com/bft-labs/homeinfo/internal/adapters/http"
	"github.com/bft-labs/homeinfo/internal/domain"
)

// Default configuration values.
const (
	DefaultCacheKey      = domain.DefaultCacheKey
	DefaultPath          = httpAdapter.DefaultPath
	DefaultHTTPTimeout   = 15 * time.Second
	DefaultDebounceDelay = fs.DefaultDebounceDelay
)

// Config holds the settings of a Client.
type Config struct {
	// CacheDir is the directory holding the persisted snapshot.
	// Defaults to ~/.homeinfo/cache.
	CacheDir string

	// CacheKey names the persisted entry. It must be a plain file name.
	CacheKey string

	// ServiceURL is the base URL of the home info service. Required unless
	// a fetcher is injected with WithFetcher.
	ServiceURL string

	// Path is appended to ServiceURL.
	Path string

	// AuthKey is sent as a bearer token when set.
	AuthKey string

	// HTTPTimeout bounds a single retrieval.
	HTTPTimeout time.Duration

	// DebounceDelay coalesces bursts of filesystem events.
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with all defaults applied.
func DefaultConfig() Config {
	var cfg Config
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills zero fields with their default values.
func (c *Config) SetDefaults() {
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir()
	}
	if c.CacheKey == "" {
		c.CacheKey = DefaultCacheKey
	}
	if c.Path == "" {
		c.Path = DefaultPath
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.DebounceDelay == 0 {
		c.DebounceDelay = DefaultDebounceDelay
	}
}

// Validate checks the configuration for use with the HTTP fetcher.
func (c Config) Validate() error {
	return c.validate(true)
}

func (c Config) validate(requireURL bool) error {
	if c.CacheDir == "" {
		return fmt.Errorf("%w: cache dir is required", ErrInvalidConfig)
	}
	if err := fs.ValidateKey(c.CacheKey); err != nil {
		return fmt.Errorf("%w: cache key: %v", ErrInvalidConfig, err)
	}
	if requireURL && c.ServiceURL == "" {
		return fmt.Errorf("%w: service URL is required", ErrInvalidConfig)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("%w: http timeout must not be negative", ErrInvalidConfig)
	}
	if c.DebounceDelay < 0 {
		return fmt.Errorf("%w: debounce delay must not be negative", ErrInvalidConfig)
	}
	return nil
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "homeinfo")
	}
	return filepath.Join(home, ".homeinfo", "cache")
}
