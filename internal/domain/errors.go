package domain

import "errors"

// Domain errors represent error conditions in the homeinfo domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrNoResults is reported in State.Err when a retrieval succeeds but
	// yields no valid resource. The message is user facing.
	ErrNoResults = errors.New("No results found")

	// ErrAlreadyMounted is returned when Mount is called on a mounted store.
	ErrAlreadyMounted = errors.New("homeinfo: already mounted")

	// ErrNotMounted is returned when Unmount is called on an unmounted store.
	ErrNotMounted = errors.New("homeinfo: not mounted")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("homeinfo: invalid configuration")
)
