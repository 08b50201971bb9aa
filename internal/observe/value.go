// Package observe provides a push-based observable value: the latest value
// plus change notifications, with no historical replay. The bridge exposes
// every playback snapshot field as one of these.
package observe

import (
	"sync"
)

// Observer receives the new value after each change.
type Observer[T any] func(value T)

// CancelFunc removes a previously registered observer.
type CancelFunc func()

// Value holds a single value of type T and notifies observers on change.
//
// Thread-safety: all methods may be called from multiple goroutines.
// Observers are invoked synchronously on the goroutine that calls Set,
// outside the internal lock, in registration order.
type Value[T any] struct {
	mu        sync.RWMutex
	current   T
	observers map[uint64]Observer[T]
	nextID    uint64
}

// NewValue creates a Value initialized to initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		current:   initial,
		observers: make(map[uint64]Observer[T]),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Set stores value and notifies every observer with it.
func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	v.current = value

	// Copy observers so a handler can subscribe/unsubscribe re-entrantly.
	observers := make([]Observer[T], 0, len(v.observers))
	ids := make([]uint64, 0, len(v.observers))
	for id := range v.observers {
		ids = append(ids, id)
	}
	sortIDs(ids)
	for _, id := range ids {
		observers = append(observers, v.observers[id])
	}
	v.mu.Unlock()

	for _, observer := range observers {
		observer(value)
	}
}

// Observe registers an observer for subsequent changes. It does not replay
// the current value; callers that need it use Get first.
func (v *Value[T]) Observe(observer Observer[T]) CancelFunc {
	if observer == nil {
		panic("observer cannot be nil")
	}

	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.observers[id] = observer
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		delete(v.observers, id)
		v.mu.Unlock()
	}
}

// ObserverCount returns the number of registered observers, for debugging.
func (v *Value[T]) ObserverCount() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.observers)
}

// sortIDs orders subscription ids so observers fire in registration order.
func sortIDs(ids []uint64) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
