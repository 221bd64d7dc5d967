// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memarena

import (
	"sync"
	"unsafe"
)

// exitFunc terminates the process on unrecoverable corruption. It is a
// variable, not a direct os.Exit call, so tests can swap in a panic or a
// recorder instead of killing the test binary.
var exitFunc = osExit

// Pool is a single contiguous arena carved into an address-ordered list of
// intrusive blocks. It is the unit the allocator façade's pool index (the
// red-black tree in rbtree.go) and size-classed slab front-end both sit in
// front of.
type Pool struct {
	_ noCopy

	mu sync.Mutex
	rw sync.RWMutex

	buf       []byte
	release   func() error
	head      *blockHeader
	totalSize int
	usedSize  int
	mmapped   bool

	diag *diagnostics
}

// newPool carves a fresh arena of size bytes, optionally mmap-backed, and
// initializes it as a single free block spanning the whole usable payload.
func newPool(size int, useMmap bool, diag *diagnostics) (*Pool, error) {
	buf, release, err := acquireBacking(size, useMmap)
	if err != nil {
		return nil, ErrAllocFailed
	}

	payload := len(buf) - headerSize
	if payload < MinPayload {
		_ = release()
		return nil, ErrInvalidArgument
	}

	p := &Pool{
		buf:       buf,
		release:   release,
		totalSize: len(buf),
		mmapped:   useMmap,
		diag:      diag,
	}

	h := headerAt(buf, 0)
	h.magic = BlockMagic
	h.inUse = 0
	h.size = uint64(payload)
	h.prev = nil
	h.next = nil
	p.head = h

	return p, nil
}

// TotalSize returns the arena's total backing size in bytes, including
// header overhead. It is the key the pool index sorts on.
func (p *Pool) TotalSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalSize
}

// UsedSize returns bytes currently occupied by live allocations (payload
// plus their headers).
func (p *Pool) UsedSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.usedSize
}

func (p *Pool) offsetOf(h *blockHeader) int {
	return int(uintptr(unsafe.Pointer(h)) - uintptr(unsafe.Pointer(&p.buf[0])))
}

// headerOf recovers the header preceding a payload slice previously
// returned by allocFrom.
func headerOf(ptr []byte) *blockHeader {
	base := unsafe.Pointer(unsafe.SliceData(ptr))
	return (*blockHeader)(unsafe.Add(base, -headerSize))
}

func (p *Pool) fatal(code ErrorCode, format string, args ...any) {
	if p.diag != nil {
		p.diag.record(CallerToken{}, SeverityFatal, code, format, args...)
	}
	exitFunc(1)
}

// allocFrom rounds size up to Alignment and first-fits it within p,
// splitting the chosen block when the remainder can host another
// MinPayload-sized block plus its own header.
func (p *Pool) allocFrom(size int) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	size = alignUp(size)

	for b := p.head; b != nil; b = b.next {
		if !b.checkMagic() {
			p.fatal(ErrorCorruption, "block header corrupted during alloc scan")
			return nil, nil // unreachable: fatal terminates the process
		}
		if !b.isFree() || int(b.size) < size {
			continue
		}

		if int(b.size) >= size+headerSize+MinPayload {
			newOff := p.offsetOf(b) + headerSize + size
			nb := headerAt(p.buf, newOff)
			nb.magic = BlockMagic
			nb.inUse = 0
			nb.size = uint64(int(b.size) - size - headerSize)
			nb.next = b.next
			nb.prev = b
			if b.next != nil {
				b.next.prev = nb
			}
			b.next = nb
			b.size = uint64(size)
		}

		b.occupy()
		p.usedSize += headerSize + int(b.size)
		return b.payload(), nil
	}

	return nil, ErrAllocFailed
}

// coalesce merges h with its free neighbors. Next is merged before prev, so
// a free-freed-free run of three collapses into one block in one call.
func (p *Pool) coalesce(h *blockHeader) {
	if n := h.next; n != nil && n.isFree() {
		h.size += uint64(headerSize) + n.size
		h.next = n.next
		if n.next != nil {
			n.next.prev = h
		}
	}
	if prev := h.prev; prev != nil && prev.isFree() {
		prev.size += uint64(headerSize) + h.size
		prev.next = h.next
		if h.next != nil {
			h.next.prev = prev
		}
	}
}

// freeTo releases a previously allocated payload slice back to its arena.
// A bad magic or a double-free (an intact, already-free header) is treated
// as corruption: both indicate the allocator's own bookkeeping no longer
// matches reality, so the process is terminated rather than risk silent
// data corruption downstream.
func (p *Pool) freeTo(ptr []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	h := headerOf(ptr)
	if !h.checkMagic() {
		p.fatal(ErrorCorruption, "free: block header corrupted")
		return nil
	}
	if h.isFree() {
		p.fatal(ErrorCorruption, "free: double free detected")
		return nil
	}

	h.free()
	p.usedSize -= headerSize + int(h.size)
	p.coalesce(h)
	return nil
}

// reallocFrom attempts to grow ptr's block in place. A newSize that already
// fits the block is a no-op: ptr is returned unchanged with
// grewInPlace=true and the block is not shrunk. It reports
// grewInPlace=false when the arena cannot satisfy newSize without moving
// the payload, leaving the fresh-alloc/copy/free decision to the façade
// (which can then also consider other pools).
func (p *Pool) reallocFrom(ptr []byte, newSize int) (newPtr []byte, grewInPlace bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	newSize = alignUp(newSize)
	h := headerOf(ptr)
	if !h.checkMagic() {
		p.fatal(ErrorCorruption, "realloc: block header corrupted")
		return nil, false, nil
	}

	oldSize := int(h.size)
	if newSize <= oldSize {
		return ptr, true, nil
	}

	if n := h.next; n != nil && n.isFree() && oldSize+headerSize+int(n.size) >= newSize {
		h.size += uint64(headerSize) + n.size
		h.next = n.next
		if n.next != nil {
			n.next.prev = h
		}

		if int(h.size) >= newSize+headerSize+MinPayload {
			newOff := p.offsetOf(h) + headerSize + newSize
			nb := headerAt(p.buf, newOff)
			nb.magic = BlockMagic
			nb.inUse = 0
			nb.size = uint64(int(h.size) - newSize - headerSize)
			nb.next = h.next
			nb.prev = h
			if h.next != nil {
				h.next.prev = nb
			}
			h.next = nb
			h.size = uint64(newSize)
		}

		p.usedSize += int(h.size) - oldSize
		return h.payload(), true, nil
	}

	return nil, false, nil
}

// Contains reports whether ptr's backing address falls within p's arena.
// It uses an address-range check rather than walking the block list, so
// zero-length (but non-nil) payload slices from Alloc(0) are handled
// without indexing into an empty slice.
func (p *Pool) Contains(ptr []byte) bool {
	p.rw.RLock()
	defer p.rw.RUnlock()

	addr := addrOf(ptr)
	start := addrOf(p.buf)
	end := start + uintptr(len(p.buf))
	return addr >= start && addr < end
}

// defragment performs a full synchronous coalescing sweep over every block
// in address order. Ordinary Free calls already coalesce locally; this
// exists for pools that accumulated fragmentation through a sequence of
// frees and reallocs whose local coalescing left adjacent free runs (e.g.
// after a Realloc that moved a block out from between two free neighbors
// before the second neighbor was freed).
func (p *Pool) defragment() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for b := p.head; b != nil; b = b.next {
		if b.isFree() {
			p.coalesce(b)
		}
	}
}

// destroy releases the arena's backing storage. Callers must ensure no
// live allocations remain; the allocator does not relocate survivors.
func (p *Pool) destroy() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.release()
}
