// Package session holds short-lived server state keyed by opaque strings:
// login tokens and payment reservations.
package session

import (
	"sync"
	"time"
)

type Store[V any] interface {
	Set(key string, value V, ttl time.Duration)
	Get(key string) (V, bool)
	// Update mutates a live entry in place, keeping its expiry.
	Update(key string, mutate func(v *V)) bool
	// Take returns and removes a live entry.
	Take(key string) (V, bool)
	Delete(key string)
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

type MemoryStore[V any] struct {
	mu    sync.Mutex
	items map[string]entry[V]
	now   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

func NewMemoryStore[V any]() *MemoryStore[V] {
	return &MemoryStore[V]{
		items: make(map[string]entry[V]),
		now:   time.Now,
		stop:  make(chan struct{}),
	}
}

// WithClock replaces the time source. Used by tests.
func (s *MemoryStore[V]) WithClock(now func() time.Time) *MemoryStore[V] {
	s.now = now
	return s
}

func (s *MemoryStore[V]) Set(key string, value V, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = entry[V]{value: value, expiresAt: s.now().Add(ttl)}
}

func (s *MemoryStore[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	return e.value, ok
}

func (s *MemoryStore[V]) Update(key string, mutate func(v *V)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok {
		return false
	}
	mutate(&e.value)
	s.items[key] = e
	return true
}

func (s *MemoryStore[V]) Take(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if ok {
		delete(s.items, key)
	}
	return e.value, ok
}

func (s *MemoryStore[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

func (s *MemoryStore[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// live must be called with mu held. Expired entries are dropped on access.
func (s *MemoryStore[V]) live(key string) (entry[V], bool) {
	e, ok := s.items[key]
	if !ok {
		return entry[V]{}, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.items, key)
		return entry[V]{}, false
	}
	return e, true
}

// Sweep removes every expired entry and returns how many were dropped.
func (s *MemoryStore[V]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for key, e := range s.items {
		if !now.Before(e.expiresAt) {
			delete(s.items, key)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps every interval until Close is called.
func (s *MemoryStore[V]) StartJanitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *MemoryStore[V]) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}
