// Package memory provides in-process implementations of the storage and
// change subscriber ports.
//
// A Hub holds the shared values; each Storage opened from it is a separate
// execution context. Writes through one Storage are delivered synchronously
// to subscribers of every other Storage on the same hub, never to the
// writer's own subscribers. Synchronous delivery keeps tests deterministic.
package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/bft-labs/homeinfo/internal/domain"
)

// Hub is the shared medium behind one or more Storage contexts.
type Hub struct {
	mu     sync.Mutex
	values map[string][]byte
	views  []*Storage
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{values: make(map[string][]byte)}
}

// Open returns a new context attached to the hub.
func (h *Hub) Open() *Storage {
	s := &Storage{hub: h, subs: make(map[uint64]subscription)}
	h.mu.Lock()
	h.views = append(h.views, s)
	h.mu.Unlock()
	return s
}

// New returns a Storage on a private hub.
func New() *Storage {
	return NewHub().Open()
}

// Storage implements ports.Storage and ports.ChangeSubscriber in memory.
type Storage struct {
	hub *Hub

	mu   sync.Mutex
	subs map[uint64]subscription
	next uint64
}

type subscription struct {
	key string
	fn  func(domain.ChangeEvent)
}

// Get returns a copy of the value stored under key.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()

	v, ok := s.hub.values[key]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

// Set stores value under key and notifies the other contexts.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	s.hub.mu.Lock()
	s.hub.values[key] = bytes.Clone(value)
	others := s.others()
	s.hub.mu.Unlock()

	ev := domain.ChangeEvent{Key: key, NewValue: bytes.Clone(value)}
	for _, o := range others {
		o.Emit(ev)
	}
	return nil
}

// Remove deletes key and notifies the other contexts if it existed.
func (s *Storage) Remove(ctx context.Context, key string) error {
	s.hub.mu.Lock()
	_, existed := s.hub.values[key]
	delete(s.hub.values, key)
	others := s.others()
	s.hub.mu.Unlock()

	if !existed {
		return nil
	}
	ev := domain.ChangeEvent{Key: key, Removed: true}
	for _, o := range others {
		o.Emit(ev)
	}
	return nil
}

// others returns every context on the hub except s. Caller holds hub.mu.
func (s *Storage) others() []*Storage {
	out := make([]*Storage, 0, len(s.hub.views))
	for _, v := range s.hub.views {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

// Subscribe registers fn for events on key delivered to this context.
func (s *Storage) Subscribe(key string, fn func(domain.ChangeEvent)) (func(), error) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = subscription{key: key, fn: fn}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}, nil
}

// Emit delivers ev to this context's subscribers for ev.Key as if another
// context had produced it. The stored value is not modified, which lets
// tests deliver arbitrary (even malformed) notifications.
func (s *Storage) Emit(ev domain.ChangeEvent) {
	s.mu.Lock()
	var fns []func(domain.ChangeEvent)
	for _, sub := range s.subs {
		if sub.key == ev.Key {
			fns = append(fns, sub.fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Subscribers returns the number of active subscriptions.
func (s *Storage) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
