package domain

import "fmt"

// State is the triple exposed to consumers of the store.
//
// At most one of Resource and Err is the outcome of the latest completed
// fetch: success clears Err, failure clears Resource. Loading is true while
// a fetch the consumer should wait on is outstanding.
type State struct {
	Resource Resource
	Loading  bool
	Err      error
}

// Seed returns the initial state for a resource read from the cache.
// A valid resource is shown immediately; anything else means there is
// nothing to show and the consumer must wait for the fetch.
func Seed(r Resource) State {
	if Valid(r) {
		return State{Resource: r}
	}
	return State{Loading: true}
}

// HasResource reports whether the state holds a valid resource.
func (s State) HasResource() bool {
	return Valid(s.Resource)
}

// Empty reports the silent-empty state: no resource, not loading and no
// error. It is reachable when another context clears the cache after the
// local fetch has settled.
func (s State) Empty() bool {
	return !s.HasResource() && !s.Loading && s.Err == nil
}

// String returns a compact description for logs.
func (s State) String() string {
	switch {
	case s.Err != nil:
		return fmt.Sprintf("error(%v) loading=%t", s.Err, s.Loading)
	case s.HasResource():
		return fmt.Sprintf("resource(%d keys) loading=%t", Size(s.Resource), s.Loading)
	case s.Loading:
		return "loading"
	default:
		return "empty"
	}
}
