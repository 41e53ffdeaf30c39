package state

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Observer is notified after each snapshot publication. Observers are
// called synchronously in registration order from the publishing
// goroutine; they must not call back into the publishing engine.
type Observer func(*Snapshot)

// Store owns the current snapshot. Publication atomically replaces the
// snapshot pointer, so any number of readers can call Current without
// blocking and always see a complete, internally consistent snapshot.
//
// The store does no validation or dependency logic itself; it only
// replaces and hands out snapshots. There is exactly one writer (the
// engine's transaction path); writes are serialized upstream.
type Store struct {
	snap atomic.Pointer[Snapshot]

	mu        sync.Mutex
	observers map[int]Observer
	nextObsID int
}

// NewStore creates a store holding an empty version-0 snapshot.
func NewStore() *Store {
	s := &Store{observers: make(map[int]Observer)}
	s.snap.Store(NewSnapshot())
	return s
}

// Current returns the latest published snapshot. Non-blocking and safe
// from any goroutine.
func (s *Store) Current() *Snapshot {
	return s.snap.Load()
}

// Publish atomically replaces the current snapshot and notifies
// observers. The next snapshot's version must be strictly greater than
// the current one; a stale publish is rejected so a superseded
// asynchronous result can never roll state backwards.
func (s *Store) Publish(next *Snapshot) error {
	cur := s.snap.Load()
	if next.Version <= cur.Version {
		return fmt.Errorf("stale publish: version %d <= current %d", next.Version, cur.Version)
	}
	s.snap.Store(next)

	s.mu.Lock()
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	obs := make([]Observer, 0, len(ids))
	for _, id := range ids {
		obs = append(obs, s.observers[id])
	}
	s.mu.Unlock()

	for _, o := range obs {
		o(next)
	}
	return nil
}

// Subscribe registers an observer and returns a handle for Unsubscribe.
func (s *Store) Subscribe(o Observer) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = o
	return id
}

// Unsubscribe removes a previously registered observer.
func (s *Store) Unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.observers, id)
}

// ObserverCount returns the number of registered observers.
// Used for testing and introspection.
func (s *Store) ObserverCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}
