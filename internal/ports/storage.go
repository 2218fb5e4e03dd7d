package ports

import "context"

// Storage is a text key/value store shared between execution contexts.
type Storage interface {
	// Get returns the value stored under key.
	// ok is false and err is nil when the key does not exist.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	// Implementations must make the new value visible atomically.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}
