package homeinfo

import (
	"github.com/bft-labs/homeinfo/internal/domain"
	"github.com/bft-labs/homeinfo/internal/ports"
	"github.com/bft-labs/homeinfo/pkg/log"
)

// Re-exported types for embedders.
type (
	// State is the (Resource, Loading, Err) triple.
	State = domain.State

	// Resource is the cached home info value, an Object or an Array.
	Resource = domain.Resource

	// Object is a decoded JSON object.
	Object = domain.Object

	// Array is a decoded JSON array.
	Array = domain.Array

	// ChangeEvent is a notification about the cached entry.
	ChangeEvent = domain.ChangeEvent

	// Storage persists raw values by key.
	Storage = ports.Storage

	// ChangeSubscriber delivers changes made by other contexts.
	ChangeSubscriber = ports.ChangeSubscriber

	// Fetcher retrieves the resource.
	Fetcher = ports.Fetcher

	// FetcherFunc adapts a function to Fetcher.
	FetcherFunc = ports.FetcherFunc

	// HTTPClient is satisfied by *http.Client.
	HTTPClient = ports.HTTPClient

	// Logger is the structured logger from pkg/log.
	Logger = log.Logger
)

// Errors reported by the client, usable with errors.Is.
var (
	ErrAlreadyMounted = domain.ErrAlreadyMounted
	ErrNotMounted     = domain.ErrNotMounted
	ErrInvalidConfig  = domain.ErrInvalidConfig
	ErrNoResults      = domain.ErrNoResults
)

// Option configures optional behavior of a Client.
type Option func(*options)

type options struct {
	httpClient   ports.HTTPClient
	logger       log.Logger
	fetcher      ports.Fetcher
	storage      ports.Storage
	subscriber   ports.ChangeSubscriber
	eventHandler EventHandler
}

// WithHTTPClient sets the client used by the built-in HTTP fetcher.
// If not provided, an *http.Client with Config.HTTPTimeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFetcher replaces the built-in HTTP fetcher. Config.ServiceURL is then
// optional. Valid results are still written back to storage.
func WithFetcher(fetcher Fetcher) Option {
	return func(o *options) {
		o.fetcher = fetcher
	}
}

// WithStorage replaces the file storage. If the storage also implements
// ChangeSubscriber it is used for change notification unless
// WithSubscriber is given.
func WithStorage(storage Storage) Option {
	return func(o *options) {
		o.storage = storage
	}
}

// WithSubscriber replaces the change notification source.
func WithSubscriber(subscriber ChangeSubscriber) Option {
	return func(o *options) {
		o.subscriber = subscriber
	}
}

// WithEventHandler sets a handler for state change events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}
