// Package ref provides an observable value container. Store caches expose
// their state as refs so that UI bindings can react to mutations without
// polling.
package ref

import (
	"sort"
	"sync"
)

// Ref wraps a value of type T. Subscribers are notified synchronously after
// the value changes, in subscription order. Callers observe the same Ref
// mutate in place rather than receiving a new reference.
type Ref[T any] struct {
	mu    sync.Mutex
	value T
	next  int
	subs  map[int]func(T)
}

// New creates a Ref holding the given initial value.
func New[T any](value T) *Ref[T] {
	return &Ref[T]{value: value, subs: make(map[int]func(T))}
}

// Get returns the current value.
func (r *Ref[T]) Get() T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

// Set stores the value, then notifies subscribers. The value is written
// before any subscriber runs so re-entrant Get calls observe it.
func (r *Ref[T]) Set(value T) {
	r.mu.Lock()
	r.value = value
	subs := r.snapshot()
	r.mu.Unlock()

	for _, fn := range subs {
		fn(value)
	}
}

// Update applies fn to the current value and stores the result, notifying
// subscribers with the new value.
func (r *Ref[T]) Update(fn func(T) T) {
	r.mu.Lock()
	r.value = fn(r.value)
	value := r.value
	subs := r.snapshot()
	r.mu.Unlock()

	for _, sub := range subs {
		sub(value)
	}
}

// Subscribe registers fn to run after every change. The returned function
// cancels the subscription.
func (r *Ref[T]) Subscribe(fn func(T)) (cancel func()) {
	r.mu.Lock()
	id := r.next
	r.next++
	r.subs[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// snapshot returns subscribers in registration order. Caller holds r.mu.
func (r *Ref[T]) snapshot() []func(T) {
	ids := make([]int, 0, len(r.subs))
	for id := range r.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	subs := make([]func(T), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, r.subs[id])
	}
	return subs
}
