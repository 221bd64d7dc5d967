// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memarena

import (
	"sync"
	"unsafe"
)

// slabClassCount is derived from SlabMinSize/SlabMaxSize at package init:
// class i holds objects of size SlabMinSize<<i. The backing array reserves
// 8 slots of headroom; the classes actually populated are whatever
// SlabMinSize/SlabMaxSize produce (16, 32, 64, 128 by default).
var slabClassCount = func() int {
	n := 0
	for size := SlabMinSize; size <= SlabMaxSize; size <<= 1 {
		n++
	}
	return n
}()

// slabClass is one size class's fixed-stride object cache. Free objects are
// threaded through the first machine word of each free object (a LIFO
// stack).
type slabClass struct {
	stride    int
	slabs     [][]byte // backing regions owned by this class, for range checks
	freeHead  unsafe.Pointer
	freeCount int
}

// slabCache is the allocator's size-classed front-end for small requests.
// A single mutex guards every class: the slab front-end is a fast path, not
// so hot under this workload's contention profile as to need per-class
// sharding.
type slabCache struct {
	_ noCopy

	mu             sync.Mutex
	classes        [slabClassCapacity]slabClass
	objectsPerSlab int
	diag           *diagnostics
}

func newSlabCache(objectsPerSlab int, diag *diagnostics) *slabCache {
	sc := &slabCache{objectsPerSlab: objectsPerSlab, diag: diag}
	for i := 0; i < slabClassCount; i++ {
		sc.classes[i].stride = SlabMinSize << i
	}
	return sc
}

// classFor returns the index of the smallest class able to hold size, or -1
// if size exceeds SlabMaxSize.
func classFor(size int) int {
	if size > SlabMaxSize {
		return -1
	}
	for i := 0; i < slabClassCount; i++ {
		if SlabMinSize<<i >= size {
			return i
		}
	}
	return -1
}

// alloc rounds size up to the smallest class >= size and pops a free
// object, growing the class with a fresh slab of objectsPerSlab objects
// when its free list is empty.
func (sc *slabCache) alloc(size int) []byte {
	idx := classFor(size)
	if idx < 0 {
		return nil
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	cls := &sc.classes[idx]
	if cls.freeHead == nil {
		sc.growLocked(cls)
	}
	if cls.freeHead == nil {
		return nil
	}

	obj := cls.freeHead
	cls.freeHead = *(*unsafe.Pointer)(obj)
	cls.freeCount--

	return unsafe.Slice((*byte)(obj), cls.stride)
}

// growLocked obtains a fresh slab of stride*objectsPerSlab bytes from the
// system allocator, slices it into stride-sized, Alignment-aligned objects
// and chains them into the class's free list. Caller holds sc.mu.
func (sc *slabCache) growLocked(cls *slabClass) {
	n := sc.objectsPerSlab
	if n <= 0 {
		n = DefaultSlabObjectsPerSlab
	}
	buf := AlignedMem(cls.stride*n, Alignment)
	cls.slabs = append(cls.slabs, buf)

	base := unsafe.Pointer(unsafe.SliceData(buf))
	var head unsafe.Pointer
	for i := n - 1; i >= 0; i-- {
		obj := unsafe.Add(base, i*cls.stride)
		*(*unsafe.Pointer)(obj) = head
		head = obj
	}
	cls.freeHead = head
	cls.freeCount += n
}

// free returns the object addressed by ptr (of nominal size) to its class's
// free list. size is used only to locate the class; the class is also what
// Free (the pointer-only entry point) derives from classOf's range scan.
func (sc *slabCache) free(ptr []byte, size int) {
	idx := classFor(size)
	if idx < 0 {
		return
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()

	cls := &sc.classes[idx]
	obj := unsafe.Pointer(unsafe.SliceData(ptr))
	*(*unsafe.Pointer)(obj) = cls.freeHead
	cls.freeHead = obj
	cls.freeCount++
}

// classOf determines which class, if any, owns ptr by range-checking every
// class's slab regions — callers of the top-level Free need not remember
// the original requested size.
func (sc *slabCache) classOf(ptr []byte) (idx int, ok bool) {
	addr := addrOf(ptr)
	if addr == 0 {
		return 0, false
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	for i := 0; i < slabClassCount; i++ {
		for _, s := range sc.classes[i].slabs {
			start := addrOf(s)
			end := start + uintptr(len(s))
			if addr >= start && addr < end {
				return i, true
			}
		}
	}
	return 0, false
}

// freeByAddr is used by the allocator façade's pointer-only Free: it
// determines the class from the address alone, then pushes the object back
// without the caller needing to know the original requested size.
func (sc *slabCache) freeByAddr(ptr []byte) bool {
	idx, ok := sc.classOf(ptr)
	if !ok {
		return false
	}
	sc.mu.Lock()
	cls := &sc.classes[idx]
	obj := unsafe.Pointer(unsafe.SliceData(ptr))
	*(*unsafe.Pointer)(obj) = cls.freeHead
	cls.freeHead = obj
	cls.freeCount++
	sc.mu.Unlock()
	return true
}
