package app

import (
	"context"
	"time"

	"github.com/bft-labs/homeinfo/internal/domain"
	"github.com/bft-labs/homeinfo/internal/ports"
	"github.com/bft-labs/homeinfo/pkg/log"
)

// WriteBackFetcher decorates a Fetcher so that every valid result is
// persisted as a snapshot under the cache key, where other contexts pick it
// up. Failures and empty results leave the cache untouched.
type WriteBackFetcher struct {
	next    ports.Fetcher
	storage ports.Storage
	key     string
	logger  log.Logger
	now     func() time.Time
}

// NewWriteBackFetcher wraps next.
func NewWriteBackFetcher(next ports.Fetcher, storage ports.Storage, key string, logger log.Logger) *WriteBackFetcher {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &WriteBackFetcher{
		next:    next,
		storage: storage,
		key:     key,
		logger:  logger,
		now:     time.Now,
	}
}

// Fetch calls the wrapped fetcher and persists a valid result. A failed
// write is logged and does not change the returned outcome.
func (f *WriteBackFetcher) Fetch(ctx context.Context) (domain.Resource, error) {
	res, err := f.next.Fetch(ctx)
	if err != nil || !domain.Valid(res) {
		return res, err
	}

	raw, encErr := domain.NewSnapshot(res, f.now()).Encode()
	if encErr != nil {
		f.logger.Warn("encode cache snapshot", log.String("key", f.key), log.Err(encErr))
		return res, nil
	}

	// The data is good even if the activation that asked for it is gone.
	if err := f.storage.Set(context.WithoutCancel(ctx), f.key, raw); err != nil {
		f.logger.Warn("write cache snapshot", log.String("key", f.key), log.Err(err))
		return res, nil
	}

	f.logger.Debug("cache snapshot written", log.String("key", f.key), log.Int("bytes", len(raw)))
	return res, nil
}
