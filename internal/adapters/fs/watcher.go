package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/homeinfo/internal/domain"
	"github.com/bft-labs/homeinfo/pkg/log"
)

// DefaultDebounceDelay coalesces the burst of events a single atomic write
// produces (temp create, write, rename) into one read.
const DefaultDebounceDelay = 50 * time.Millisecond

// Watcher implements ports.ChangeSubscriber by watching the storage
// directory of a FileStorage with fsnotify.
//
// Every subscription owns its own fsnotify watcher and goroutine. Changes
// written through the paired FileStorage are not reported back.
type Watcher struct {
	storage *FileStorage
	delay   time.Duration
	logger  log.Logger
}

// NewWatcher creates a Watcher for storage. A non-positive delay disables
// debouncing and every relevant event triggers a read.
func NewWatcher(storage *FileStorage, delay time.Duration, logger log.Logger) *Watcher {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Watcher{
		storage: storage,
		delay:   delay,
		logger:  logger,
	}
}

// Subscribe starts watching key and calls fn from the watch goroutine for
// every change observed. The returned function stops the watch and waits
// for the goroutine to exit, so it must not be called from within fn.
func (w *Watcher) Subscribe(key string, fn func(domain.ChangeEvent)) (func(), error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	dir := w.storage.Dir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer fsw.Close()
		w.watchLoop(ctx, fsw, key, fn)
	}()

	w.logger.Debug("watching storage key", log.String("key", key), log.String("dir", dir))

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

func (w *Watcher) watchLoop(ctx context.Context, fsw *fsnotify.Watcher, key string, fn func(domain.ChangeEvent)) {
	name := filepath.Base(w.storage.Path(key))

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if w.delay <= 0 {
				w.deliver(ctx, key, fn)
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.delay)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.deliver(ctx, key, fn)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("storage watcher error", log.String("key", key), log.Err(err))
		}
	}
}

// deliver reads the current value of key and passes it to fn unless it is
// this process's own write.
func (w *Watcher) deliver(ctx context.Context, key string, fn func(domain.ChangeEvent)) {
	value, ok, err := w.storage.Get(ctx, key)
	if err != nil {
		w.logger.Warn("storage watcher read failed", log.String("key", key), log.Err(err))
		return
	}
	if w.storage.consumeOwn(key, value, !ok) {
		w.logger.Debug("skipping own storage write", log.String("key", key))
		return
	}
	if ctx.Err() != nil {
		return
	}

	fn(domain.ChangeEvent{Key: key, NewValue: value, Removed: !ok})
}
