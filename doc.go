// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package memarena provides a thread-safe pooled memory allocator for
// workloads that allocate many short-lived objects in bursts alongside a
// smaller number of long-lived bulk buffers — the shape of a typical
// language-analysis pipeline (tokens, per-request working sets, a handful
// of large translation buffers).
//
// # Architecture
//
// Allocation requests are routed between two backends:
//
//   - A size-classed slab front-end serves small, sub-cacheline requests
//     (<= SlabMaxSize) from fixed-stride object caches, avoiding per-pool
//     free-list walks for the hottest path.
//   - A set of pool arenas, each a contiguous backing buffer with its own
//     address-ordered free list, serves everything else. Pools are indexed
//     by capacity in a red-black tree so the allocator can best-fit a
//     request to the smallest pool that can satisfy it in O(log N).
//
// # Usage
//
//	cfg := memarena.DefaultConfig()
//	a, err := memarena.Init(cfg)
//	if err != nil {
//	    // handle
//	}
//	defer a.Cleanup()
//
//	p := a.Alloc(128)
//	if p == nil {
//	    // allocation failed, recoverable
//	}
//	a.Free(p)
//
// # Thread safety
//
// Every exported method on Allocator and Pool is safe for concurrent use.
// The locking hierarchy is, in acquisition order: the allocator's global
// mutex, a pool's mutex, the slab cache's mutex. No code path acquires more
// than one pool mutex at a time.
//
// # Failure semantics
//
// Capacity and misuse errors (AllocFailed, InvalidFree, InvalidPool,
// PoolFull) are recoverable: they are logged through the configured
// DiagnosticSink and returned to the caller. Corruption (a bad header magic,
// a double free, an accounting impossibility) is fatal: the allocator logs
// and terminates the process, because its internal invariants can no longer
// be trusted.
//
// # Dependencies
//
// memarena depends on:
//   - code.hybscloud.com/iox: semantic non-blocking errors
//   - code.hybscloud.com/spin: bounded spin-wait primitives
//   - github.com/rs/zerolog: the default DiagnosticSink implementation
//   - golang.org/x/sys/unix: mmap-backed arenas on the large-pool path
package memarena
