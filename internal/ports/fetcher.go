package ports

import (
	"context"

	"github.com/bft-labs/homeinfo/internal/domain"
)

// Fetcher retrieves the home info resource.
// Implementations should be idempotent and safe to call repeatedly.
type Fetcher interface {
	// Fetch returns the retrieved resource. A nil or empty resource with a
	// nil error means the retrieval succeeded but found nothing.
	Fetch(ctx context.Context) (domain.Resource, error)
}

// FetcherFunc adapts an ordinary function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) (domain.Resource, error)

// Fetch calls f(ctx).
func (f FetcherFunc) Fetch(ctx context.Context) (domain.Resource, error) {
	return f(ctx)
}
