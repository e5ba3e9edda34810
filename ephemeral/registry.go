// Package ephemeral holds per-user transient objects (cart, result cursor)
// created on first access. The registry mutex protects only the map
// structure; serializing mutation of a fetched handle is the caller's job,
// which the session engine provides via its per-chat lock.
package ephemeral

import "sync"

// Registry maps owner keys to lazily created handles. Inject it into
// handlers; do not keep a package-level instance.
type Registry[T any] struct {
	mu    sync.Mutex
	items map[int64]T
	new   func(ownerID int64) T
}

func NewRegistry[T any](factory func(ownerID int64) T) *Registry[T] {
	return &Registry[T]{items: make(map[int64]T), new: factory}
}

// GetOrCreate returns the owner's handle, creating it on first access. The
// same handle is returned for the same key across concurrent calls.
func (r *Registry[T]) GetOrCreate(ownerID int64) T {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item, ok := r.items[ownerID]; ok {
		return item
	}
	item := r.new(ownerID)
	r.items[ownerID] = item
	return item
}

// Drop removes the owner's handle, typically on session expiry.
func (r *Registry[T]) Drop(ownerID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, ownerID)
}

// Len reports the number of live handles.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
