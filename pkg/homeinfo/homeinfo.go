package homeinfo

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bft-labs/homeinfo/internal/adapters/fs"
	httpAdapter "github.com/bft-labs/homeinfo/internal/adapters/http"
	"github.com/bft-labs/homeinfo/internal/app"
	"github.com/bft-labs/homeinfo/internal/domain"
	"github.com/bft-labs/homeinfo/internal/ports"
	"github.com/bft-labs/homeinfo/pkg/log"
)

// Client is an embeddable home info cache.
// Use New() to create an instance, then Mount() to start an activation.
type Client struct {
	config Config
	store  *app.Store
}

// New creates a new unmounted Client with the given configuration.
// Returns an error if the configuration is invalid.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.SetDefaults()

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.validate(o.fetcher == nil); err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	storage := o.storage
	if storage == nil {
		storage = fs.NewFileStorage(cfg.CacheDir, logger)
	}

	subscriber, err := resolveSubscriber(o, storage, cfg, logger)
	if err != nil {
		return nil, err
	}

	fetcher := o.fetcher
	if fetcher == nil {
		client := o.httpClient
		if client == nil {
			client = &http.Client{Timeout: cfg.HTTPTimeout}
		}
		fetcher = httpAdapter.NewFetcher(client, httpAdapter.FetcherConfig{
			ServiceURL: cfg.ServiceURL,
			Path:       cfg.Path,
			AuthKey:    cfg.AuthKey,
		}, logger)
	}
	fetcher = app.NewWriteBackFetcher(fetcher, storage, cfg.CacheKey, logger)

	var emitter app.StateEmitter
	if o.eventHandler != nil {
		emitter = eventEmitterWrapper{handler: o.eventHandler}
	}

	return &Client{
		config: cfg,
		store:  app.NewStore(cfg.CacheKey, storage, subscriber, fetcher, logger, emitter),
	}, nil
}

// resolveSubscriber picks the change notification source for storage.
func resolveSubscriber(o options, storage ports.Storage, cfg Config, logger log.Logger) (ports.ChangeSubscriber, error) {
	if o.subscriber != nil {
		return o.subscriber, nil
	}
	switch s := storage.(type) {
	case *fs.FileStorage:
		return fs.NewWatcher(s, cfg.DebounceDelay, logger), nil
	case ports.ChangeSubscriber:
		return s, nil
	default:
		return nil, fmt.Errorf("%w: storage %T needs a subscriber", ErrInvalidConfig, storage)
	}
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.config
}

// Mount seeds the state from the cache, subscribes to changes from other
// contexts and starts one fetch in the background. Returns
// ErrAlreadyMounted if an activation is in progress.
//
// Cancelling ctx drops the outcome of the pending fetch, so Loading may
// stay true. The client stays mounted until Unmount or Close is called.
func (c *Client) Mount(ctx context.Context) error {
	return c.store.Mount(ctx)
}

// Unmount ends the current activation. The outcome of a pending fetch is
// discarded. Returns ErrNotMounted if no activation is in progress.
func (c *Client) Unmount() error {
	return c.store.Unmount()
}

// State returns the current state. Safe to call concurrently from any
// goroutine. The returned resource must not be modified.
func (c *Client) State() State {
	return c.store.State()
}

// Mounted reports whether an activation is in progress.
func (c *Client) Mounted() bool {
	return c.store.Mounted()
}

// Settled returns a channel closed once the fetch of the current (or most
// recent) activation has returned.
func (c *Client) Settled() <-chan struct{} {
	return c.store.Settled()
}

// Close unmounts the client if needed, which releases the change
// subscription. It is safe to call more than once.
func (c *Client) Close() error {
	if err := c.store.Unmount(); err != nil && !errors.Is(err, domain.ErrNotMounted) {
		return err
	}
	return nil
}

// eventEmitterWrapper adapts EventHandler to the internal emitter interface.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e eventEmitterWrapper) OnStateChange(previous, current domain.State, reason string) {
	e.handler.OnStateChange(StateChangeEvent{
		Previous: previous,
		Current:  current,
		Reason:   reason,
	})
}
