// Package statestore implements the shared-state object store used between
// the acquisition pipeline and its collaborators: typed last-value-wins
// records with change notification. There is no queuing and no backpressure;
// a reader always sees the most recent complete value.
package statestore

import "sync"

// Record is a single shared-state cell. Writers replace the whole value,
// readers get a copy, so a value read at the top of an acquisition cycle
// stays consistent for the rest of that cycle.
type Record[T any] struct {
	mu       sync.RWMutex
	val      T
	version  uint64
	watchers []func(T)
}

func New[T any](initial T) *Record[T] {
	return &Record[T]{val: initial}
}

// Get returns the current value.
func (r *Record[T]) Get() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.val
}

// Version returns how many times the record has been set. Zero means the
// record still holds its initial value.
func (r *Record[T]) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Set stores a new value and then runs the watchers on the caller's
// goroutine, outside the lock. Watcher order follows registration order.
func (r *Record[T]) Set(v T) {
	r.mu.Lock()
	r.val = v
	r.version++
	watchers := r.watchers
	r.mu.Unlock()

	for _, w := range watchers {
		w(v)
	}
}

// Watch registers fn to run after every Set. The callback must not block:
// it runs synchronously on whichever goroutine performed the Set.
func (r *Record[T]) Watch(fn func(T)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Copy-on-write so Set can iterate without holding the lock.
	watchers := make([]func(T), len(r.watchers), len(r.watchers)+1)
	copy(watchers, r.watchers)
	r.watchers = append(watchers, fn)
}
