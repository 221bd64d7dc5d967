// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memarena

import "sync"

// Allocator is the package's global façade: a size-classed slab front-end
// for small requests, backed by a red-black-tree-indexed set of small
// pools, with a single designated large pool as the final fallback.
//
// The large pool is deliberately kept out of index and pools: it is never
// enumerated by CreatePool's MaxPools budget and never torn down through
// DestroyPool, matching the pool-index invariant that every live pool
// other than the designated large pool is indexed exactly once. Alloc
// consults index first and only falls back to large when no small pool
// fits.
//
// Lock order is always global mutex, then a pool's own mutex, then the
// slab cache's mutex — never the reverse.
type Allocator struct {
	_ noCopy

	mu    sync.Mutex
	index *rbTree
	pools map[*Pool]struct{}
	large *Pool

	slabs *slabCache
	cfg   Config
	diag  *diagnostics
}

// Init builds an Allocator from cfg: it creates the designated large pool,
// initializes the pool index, and creates cfg.MaxPools small pools (each
// of cfg.SmallPoolSize), inserting every small pool into the index.
func Init(cfg Config) (*Allocator, error) {
	if err := cfg.validate(); err != nil {
		return nil, ErrInitFailed
	}

	diag := newDiagnostics(cfg.Diagnostics)
	a := &Allocator{
		index: &rbTree{},
		pools: make(map[*Pool]struct{}, cfg.MaxPools),
		slabs: newSlabCache(cfg.SlabObjectsPerSlab, diag),
		cfg:   cfg,
		diag:  diag,
	}

	useMmap := cfg.UseMmapForLargePool && cfg.LargePoolSize >= cfg.MmapThreshold
	large, err := newPool(cfg.LargePoolSize, useMmap, diag)
	if err != nil {
		return nil, ErrInitFailed
	}
	large.diag = diag
	a.large = large

	for i := 0; i < cfg.MaxPools; i++ {
		small, err := newPool(cfg.SmallPoolSize, false, diag)
		if err != nil {
			_ = a.Cleanup()
			return nil, ErrInitFailed
		}
		small.diag = diag
		a.index.insert(small)
		a.pools[small] = struct{}{}
	}

	return a, nil
}

// Cleanup destroys every pool the allocator owns, including the
// designated large pool. Callers must ensure no live allocations remain.
func (a *Allocator) Cleanup() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var firstErr error
	for p := range a.pools {
		if err := p.destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(a.pools, p)
	}
	a.index = &rbTree{}

	if a.large != nil {
		if err := a.large.destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.large = nil
	}
	return firstErr
}

// Alloc returns a payload slice of size bytes, served by the slab front-end
// or a pool arena, or nil on failure. The memory is not cleared before it
// is returned, so a reused slab object or pool block still holds whatever
// was last written to it. Requests of 0
// bytes still return a valid, unique, non-nil slice: nil is reserved for
// failure.
func (a *Allocator) Alloc(size int) []byte {
	req := size
	if req < 1 {
		req = 1
	}

	if req <= SlabMaxSize {
		if ptr := a.slabs.alloc(req); ptr != nil {
			out := ptr[:size]
			trackAlloc(out)
			return out
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	needed := alignUp(req) + headerSize
	pool := a.index.findBestFit(needed)
	if pool == nil {
		// No small pool fits; fall back to the designated large pool.
		pool = a.large
	}
	if pool == nil {
		a.diag.record(CallerToken{}, SeverityError, ErrorAllocFailed, "no pool fits request of %d bytes", size)
		return nil
	}

	ptr, err := pool.allocFrom(req)
	if err != nil {
		a.diag.record(CallerToken{}, SeverityError, ErrorAllocFailed, "pool alloc failed for %d bytes: %v", size, err)
		return nil
	}
	out := ptr[:size]
	trackAlloc(out)
	return out
}

// findOwningPoolLocked returns the small or large pool that owns ptr, or
// nil if none does. Caller must hold a.mu.
func (a *Allocator) findOwningPoolLocked(ptr []byte) *Pool {
	for p := range a.pools {
		if p.Contains(ptr) {
			return p
		}
	}
	if a.large != nil && a.large.Contains(ptr) {
		return a.large
	}
	return nil
}

// Free releases a payload slice previously returned by Alloc, AllocFrom, or
// Realloc/ReallocFrom. A ptr not owned by any slab class or pool is logged
// as ErrorInvalidFree and otherwise ignored.
func (a *Allocator) Free(ptr []byte) {
	if ptr == nil {
		return
	}
	trackFree(ptr)
	if a.slabs.freeByAddr(ptr) {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if p := a.findOwningPoolLocked(ptr); p != nil {
		_ = p.freeTo(ptr)
		return
	}
	a.diag.record(CallerToken{}, SeverityError, ErrorInvalidFree, "free of pointer not owned by this allocator")
}

// Realloc resizes ptr to newSize, preserving existing content up to
// min(oldSize, newSize). It never shrinks by splitting in place when
// newSize still fits the current block; it is a no-op in that case.
func (a *Allocator) Realloc(ptr []byte, newSize int) []byte {
	if ptr == nil {
		return a.Alloc(newSize)
	}
	if newSize == 0 {
		a.Free(ptr)
		return a.Alloc(0)
	}

	if idx, ok := a.slabs.classOf(ptr); ok {
		stride := a.slabs.classes[idx].stride
		if newSize <= stride {
			return ptr[:newSize]
		}
		fresh := a.Alloc(newSize)
		if fresh == nil {
			return nil
		}
		copy(fresh, ptr)
		a.Free(ptr)
		return fresh
	}

	a.mu.Lock()
	p := a.findOwningPoolLocked(ptr)
	if p == nil {
		a.mu.Unlock()
		a.diag.record(CallerToken{}, SeverityError, ErrorInvalidFree, "realloc of pointer not owned by this allocator")
		return nil
	}
	grown, ok, err := p.reallocFrom(ptr, newSize)
	a.mu.Unlock()
	if err == nil && ok {
		return grown
	}

	fresh := a.Alloc(newSize)
	if fresh == nil {
		return nil
	}
	copy(fresh, ptr)
	a.Free(ptr)
	return fresh
}

// Stats reports total backing bytes across every small pool and the
// designated large pool, and bytes currently occupied by live allocations
// across them. Slab-class memory is intentionally excluded from both
// figures: it is carved from the Go heap rather than a pool arena, so it
// never moves allocated or used (an alloc served entirely by the slab
// front-end leaves Stats unchanged).
func (a *Allocator) Stats() (totalAllocated, totalUsed int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for p := range a.pools {
		totalAllocated += p.TotalSize()
		totalUsed += p.UsedSize()
	}
	if a.large != nil {
		totalAllocated += a.large.TotalSize()
		totalUsed += a.large.UsedSize()
	}
	return totalAllocated, totalUsed
}

// ownsPoolLocked reports whether p is a pool this allocator knows about:
// one of the indexed small pools, or the designated large pool. Caller
// must hold a.mu.
func (a *Allocator) ownsPoolLocked(p *Pool) bool {
	if _, ok := a.pools[p]; ok {
		return true
	}
	return p == a.large
}

// CreatePool adds a new small-pool arena of the given size, subject to
// MaxPools. The designated large pool is created once at Init and is not
// part of this budget.
func (a *Allocator) CreatePool(size int) (*Pool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.pools) >= a.cfg.MaxPools {
		a.diag.record(CallerToken{}, SeverityError, ErrorPoolFull, "pool limit of %d reached", a.cfg.MaxPools)
		return nil, ErrPoolFull
	}

	useMmap := a.cfg.UseMmapForLargePool && size >= a.cfg.MmapThreshold
	p, err := newPool(size, useMmap, a.diag)
	if err != nil {
		return nil, err
	}
	a.index.insert(p)
	a.pools[p] = struct{}{}
	return p, nil
}

// DestroyPool removes and releases p. Callers must ensure p has no live
// allocations.
func (a *Allocator) DestroyPool(p *Pool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.pools[p]; !ok {
		a.diag.record(CallerToken{}, SeverityError, ErrorInvalidPool, "destroy of unknown pool")
		return ErrInvalidPool
	}
	a.index.remove(p)
	delete(a.pools, p)
	return p.destroy()
}

// AllocFrom allocates size bytes from a specific pool, bypassing the
// best-fit index and the slab front-end entirely.
func (a *Allocator) AllocFrom(p *Pool, size int) []byte {
	a.mu.Lock()
	owned := a.ownsPoolLocked(p)
	a.mu.Unlock()
	if !owned {
		a.diag.record(CallerToken{}, SeverityError, ErrorInvalidPool, "AllocFrom: unknown pool")
		return nil
	}

	ptr, err := p.allocFrom(size)
	if err != nil {
		a.diag.record(CallerToken{}, SeverityError, ErrorAllocFailed, "AllocFrom failed for %d bytes: %v", size, err)
		return nil
	}
	return ptr
}

// FreeTo releases ptr back to a specific pool.
func (a *Allocator) FreeTo(p *Pool, ptr []byte) {
	if err := p.freeTo(ptr); err != nil {
		a.diag.record(CallerToken{}, SeverityError, ErrorInvalidFree, "FreeTo failed: %v", err)
	}
}

// ReallocFrom resizes ptr within a specific pool, falling back to
// alloc-copy-free inside that same pool when it cannot grow in place.
func (a *Allocator) ReallocFrom(p *Pool, ptr []byte, newSize int) []byte {
	grown, ok, err := p.reallocFrom(ptr, newSize)
	if err == nil && ok {
		return grown
	}

	fresh, allocErr := p.allocFrom(newSize)
	if allocErr != nil {
		a.diag.record(CallerToken{}, SeverityError, ErrorAllocFailed, "ReallocFrom: fallback alloc failed: %v", allocErr)
		return nil
	}
	copy(fresh, ptr)
	_ = p.freeTo(ptr)
	return fresh
}

// Contains reports whether ptr was allocated from p.
func (a *Allocator) Contains(p *Pool, ptr []byte) bool {
	return p.Contains(ptr)
}

// Defragment runs a synchronous full coalescing sweep over p.
func (a *Allocator) Defragment(p *Pool) error {
	a.mu.Lock()
	owned := a.ownsPoolLocked(p)
	a.mu.Unlock()
	if !owned {
		return ErrInvalidPool
	}

	p.defragment()
	return nil
}

// LastError returns the most recent diagnostic record filed under tok.
func (a *Allocator) LastError(tok CallerToken) Record {
	return a.diag.LastError(tok)
}

// History returns a snapshot of the most recent diagnostic records across
// every caller, oldest first.
func (a *Allocator) History() []Record {
	return a.diag.History()
}
