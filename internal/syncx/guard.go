// Package syncx provides extended synchronization primitives
package syncx

import "sync"

// RWGuard holds a value behind a RWMutex. Every method holds the lock only for
// the duration of the read or write it performs.
type RWGuard[T any] struct {
	mu    sync.RWMutex
	value T
}

// NewGuard creates a guarded value.
func NewGuard[T any](initial T) *RWGuard[T] {
	return &RWGuard[T]{value: initial}
}

// Get returns a copy of the value (T should be value type or immutable).
func (g *RWGuard[T]) Get() T {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.value
}

// Set atomically replaces the value.
func (g *RWGuard[T]) Set(v T) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value = v
}

// Swap atomically replaces and returns old value.
func (g *RWGuard[T]) Swap(v T) T {
	g.mu.Lock()
	defer g.mu.Unlock()
	old := g.value
	g.value = v
	return old
}

// CompareAndSet replaces the value with next only if it currently equals
// expected, reporting whether it did.
func CompareAndSet[T comparable](g *RWGuard[T], expected, next T) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.value != expected {
		return false
	}
	g.value = next
	return true
}
