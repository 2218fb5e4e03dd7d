package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"

	"github.com/bft-labs/homeinfo/internal/domain"
	"github.com/bft-labs/homeinfo/internal/ports"
	"github.com/bft-labs/homeinfo/pkg/log"
)

// DefaultPath is the endpoint path serving the home info resource.
const DefaultPath = "/v1/home-info"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// ErrResponseTooLarge is returned when a response body exceeds 4 MiB.
var ErrResponseTooLarge = errors.New("response exceeds 4 MiB")

// FetcherConfig contains the endpoint settings for Fetcher.
type FetcherConfig struct {
	ServiceURL string
	Path       string
	AuthKey    string
}

// Fetcher implements ports.Fetcher using HTTP GET.
type Fetcher struct {
	client ports.HTTPClient
	config FetcherConfig
	logger log.Logger
}

// NewFetcher creates a new HTTP home info fetcher.
func NewFetcher(client ports.HTTPClient, cfg FetcherConfig, logger log.Logger) *Fetcher {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Fetcher{
		client: client,
		config: cfg,
		logger: logger,
	}
}

// URL returns the full endpoint URL.
func (f *Fetcher) URL() string {
	return f.config.ServiceURL + f.config.Path
}

// Fetch retrieves the resource. A 2xx response whose body is not a
// non-empty JSON object or array yields a nil resource and a nil error.
func (f *Fetcher) Fetch(ctx context.Context) (domain.Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Agent-Hostname", hostname())
	req.Header.Set("X-Agent-OSArch", runtime.GOOS+"/"+runtime.GOARCH)
	if f.config.AuthKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.config.AuthKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	// One byte past the cap tells a body of exactly maxBodyBytes apart
	// from a longer one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	tooLarge := len(body) > maxBodyBytes
	if tooLarge {
		body = body[:maxBodyBytes]
	}

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(bytes.TrimSpace(body)))
	}
	if tooLarge {
		return nil, ErrResponseTooLarge
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		f.logger.Debug("empty home info response", log.Int("status", resp.StatusCode))
		return nil, nil
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("decode response: invalid JSON")
	}

	return domain.DecodeResource(body), nil
}

// hostname returns the current hostname.
func hostname() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "unknown"
}
