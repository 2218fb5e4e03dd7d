package ports

import "github.com/bft-labs/homeinfo/internal/domain"

// ChangeSubscriber delivers notifications about storage entries changed by
// other execution contexts.
type ChangeSubscriber interface {
	// Subscribe registers fn for changes to key and returns a function that
	// removes the registration. Events for other keys are never passed to fn.
	// The returned function must be called exactly once. Changes made after
	// it returns are not delivered to fn.
	Subscribe(key string, fn func(domain.ChangeEvent)) (unsubscribe func(), err error)
}
