package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/bft-labs/homeinfo/internal/domain"
	"github.com/bft-labs/homeinfo/internal/ports"
	"github.com/bft-labs/homeinfo/pkg/log"
)

// Reasons passed to StateEmitter.OnStateChange.
const (
	ReasonMount      = "mount"
	ReasonFetched    = "fetch succeeded"
	ReasonNoResults  = "fetch returned no results"
	ReasonFetchError = "fetch failed"
	ReasonSync       = "changed in another context"
)

// StateEmitter is called after every observable state change.
// Calls are serialized in mutation order. Implementations must not call
// Mount or Unmount on the emitting store.
type StateEmitter interface {
	OnStateChange(previous, current domain.State, reason string)
}

// Store keeps one cached resource consistent across a fetch per activation,
// cancellation on unmount and changes made by other contexts.
//
// Each Mount starts an activation: the state is seeded from storage, a
// subscription for the cache key is registered and one fetch is started.
// Unmount bumps the generation so nothing from that activation can mutate
// state afterwards.
type Store struct {
	key        string
	storage    ports.Storage
	subscriber ports.ChangeSubscriber
	fetcher    ports.Fetcher
	logger     log.Logger
	emitter    StateEmitter

	// emitMu serializes mutate-then-emit so handlers observe changes in order.
	emitMu sync.Mutex

	mu          sync.Mutex
	state       domain.State
	generation  uint64
	mounted     bool
	cancel      context.CancelFunc
	unsubscribe func()
	settled     chan struct{}
}

// NewStore creates an unmounted store for key.
// A nil logger discards output; a nil emitter disables change events.
func NewStore(
	key string,
	storage ports.Storage,
	subscriber ports.ChangeSubscriber,
	fetcher ports.Fetcher,
	logger log.Logger,
	emitter StateEmitter,
) *Store {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	settled := make(chan struct{})
	close(settled)

	return &Store{
		key:        key,
		storage:    storage,
		subscriber: subscriber,
		fetcher:    fetcher,
		logger:     logger.With(log.String("key", key)),
		emitter:    emitter,
		state:      domain.State{Loading: true},
		settled:    settled,
	}
}

// Key returns the cache key the store manages.
func (s *Store) Key() string {
	return s.key
}

// State returns the current state. The resource is shared and must not be
// modified by the caller.
func (s *Store) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Mounted reports whether an activation is in progress.
func (s *Store) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

// Settled returns a channel that is closed once the fetch of the current
// (or most recent) activation has returned. Before the first Mount the
// channel is already closed.
func (s *Store) Settled() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settled
}

// Mount starts an activation. It seeds the state from storage
// synchronously, subscribes to changes of the cache key and starts the
// fetch in the background. ctx bounds the activation: cancelling it drops
// the pending fetch outcome as Unmount does, but the store stays mounted and
// keeps whatever Loading value it had. The caller must still call Unmount.
func (s *Store) Mount(ctx context.Context) error {
	seed := s.readSeed(ctx)

	s.emitMu.Lock()
	s.mu.Lock()
	if s.mounted {
		s.mu.Unlock()
		s.emitMu.Unlock()
		return domain.ErrAlreadyMounted
	}

	s.generation++
	gen := s.generation
	actx, cancel := context.WithCancel(ctx)
	settled := make(chan struct{})

	prev := s.state
	s.state = domain.Seed(seed)
	if !s.state.HasResource() {
		s.state.Loading = true
	}
	s.mounted = true
	s.cancel = cancel
	s.settled = settled
	cur := s.state
	s.mu.Unlock()

	s.emit(prev, cur, ReasonMount)
	s.emitMu.Unlock()

	s.logger.Info("mounted",
		log.Uint64("generation", gen),
		log.Bool("seeded", cur.HasResource()),
	)

	s.subscribe(gen)

	go s.fetch(actx, gen, settled)

	return nil
}

// Unmount ends the current activation. A pending fetch is cancelled and
// its outcome discarded; the change subscription is removed.
func (s *Store) Unmount() error {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return domain.ErrNotMounted
	}
	s.mounted = false
	s.generation++
	cancel := s.cancel
	unsubscribe := s.unsubscribe
	s.cancel = nil
	s.unsubscribe = nil
	s.mu.Unlock()

	// Outside the lock: an fs unsubscribe waits for an in-flight delivery,
	// and that delivery needs s.mu to find out it is stale.
	cancel()
	if unsubscribe != nil {
		unsubscribe()
	}

	s.logger.Info("unmounted")
	return nil
}

// readSeed returns the valid resource persisted under the cache key, or nil.
func (s *Store) readSeed(ctx context.Context) domain.Resource {
	raw, ok, err := s.storage.Get(ctx, s.key)
	if err != nil {
		s.logger.Debug("cache read failed, treating as empty", log.Err(err))
		return nil
	}
	if !ok {
		return nil
	}
	return domain.ParseSnapshot(raw)
}

// subscribe registers the cross-context listener for activation gen.
func (s *Store) subscribe(gen uint64) {
	unsubscribe, err := s.subscriber.Subscribe(s.key, func(ev domain.ChangeEvent) {
		s.onChange(gen, ev)
	})
	if err != nil {
		s.logger.Warn("cross-context sync disabled", log.Err(err))
		return
	}

	s.mu.Lock()
	if !s.mounted || s.generation != gen {
		s.mu.Unlock()
		unsubscribe()
		return
	}
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
}

// fetch runs the single retrieval of activation gen and reconciles its
// outcome unless the activation was cancelled in the meantime.
func (s *Store) fetch(ctx context.Context, gen uint64, settled chan struct{}) {
	defer close(settled)

	res, err := s.callFetcher(ctx)

	reason := ReasonFetched
	applied := s.update(func(st *domain.State) bool {
		if s.generation != gen || ctx.Err() != nil {
			return false
		}
		switch {
		case err != nil:
			st.Resource = nil
			st.Err = err
			reason = ReasonFetchError
		case domain.Valid(res):
			st.Resource = res
			st.Err = nil
		default:
			st.Resource = nil
			st.Err = domain.ErrNoResults
			reason = ReasonNoResults
		}
		st.Loading = false
		return true
	}, &reason)

	if applied && err != nil {
		s.logger.Error("error fetching home info", log.Err(err))
	}
}

// callFetcher invokes the fetcher, turning a panic into an error.
func (s *Store) callFetcher(ctx context.Context) (res domain.Resource, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("fetcher panic: %v", r)
		}
	}()
	return s.fetcher.Fetch(ctx)
}

// onChange mirrors a cross-context change into the resource. Loading and
// Err are never touched here.
func (s *Store) onChange(gen uint64, ev domain.ChangeEvent) {
	if ev.Key != s.key {
		return
	}
	res := ev.Resource()

	reason := ReasonSync
	applied := s.update(func(st *domain.State) bool {
		if !s.mounted || s.generation != gen {
			return false
		}
		st.Resource = res
		return true
	}, &reason)

	if applied {
		s.logger.Debug("cache changed in another context",
			log.Bool("removed", ev.Removed),
			log.Bool("has_resource", res != nil),
		)
	}
}

// update applies mutate under the state lock and emits the change. mutate
// returns false to leave the state untouched. reason is read after mutate
// so the closure can pick it.
func (s *Store) update(mutate func(st *domain.State) bool, reason *string) bool {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	prev := s.state
	if !mutate(&s.state) {
		s.mu.Unlock()
		return false
	}
	cur := s.state
	s.mu.Unlock()

	s.emit(prev, cur, *reason)
	return true
}

func (s *Store) emit(prev, cur domain.State, reason string) {
	if s.emitter != nil {
		s.emitter.OnStateChange(prev, cur, reason)
	}
}
