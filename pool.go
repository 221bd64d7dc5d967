// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memarena

// ObjectPool is a generic object pool interface with configurable blocking
// semantics, layered above the byte-level Allocator for callers who want
// typed, reusable values (parsed tokens, AST nodes, analysis scratch
// buffers) rather than raw payload slices.
//
// Implementations may operate in blocking or non-blocking mode. In blocking
// mode, Get blocks until an item is available and Put blocks until space
// is available. In non-blocking mode, both operations return
// iox.ErrWouldBlock instead of blocking.
//
// All implementations must be safe for concurrent use.
type ObjectPool[T any] interface {
	// Put returns the item to the pool.
	// Returns iox.ErrWouldBlock if non-blocking and full.
	Put(item T) error

	// Get acquires an item from the pool.
	// Returns iox.ErrWouldBlock if non-blocking and empty.
	Get() (item T, err error)
}

// IndirectPool manages items by index rather than by value, enabling
// zero-copy access to pooled values whose storage is owned elsewhere (a
// slab-cache object, or a slice carved out of a Pool arena).
//
// Usage pattern:
//
//	idx, _ := pool.Get()     // Acquire an index
//	val := pool.Value(idx)   // Access the underlying value
//	// Use val...
//	pool.Put(idx)            // Return the index to the pool
type IndirectPool[T any] interface {
	ObjectPool[int]

	// Value returns the value associated with the given indirect index.
	// The caller must have acquired this index via Get.
	Value(indirect int) T

	// SetValue updates the value at the specified indirect index.
	// The caller must have acquired this index via Get.
	SetValue(indirect int, item T)
}
