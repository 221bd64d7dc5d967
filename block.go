// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memarena

import "unsafe"

// blockHeader prefixes every block inside a pool's backing buffer. It is
// decoded in place via unsafe.Pointer arithmetic over the pool's []byte,
// the direct Go analogue of the C `(char*)block + sizeof(header)` cast —
// matching how AlignedMem already works over a []byte via unsafe rather
// than reimplementing an offset index.
//
// Invariants (the magic is checked on every header touch; the others are
// maintained by the pool's split and coalesce code, not checked):
//   - magic == BlockMagic
//   - size  >= MinPayload
//   - prev.end + headerSize == next.start for adjacent blocks
//   - no two adjacent blocks are both free (coalescing invariant)
type blockHeader struct {
	magic uint32
	inUse uint32
	size  uint64
	prev  *blockHeader
	next  *blockHeader
}

const headerSize = int(unsafe.Sizeof(blockHeader{}))

// headerAt reinterprets the bytes at offset off within buf as a block
// header. The caller must ensure off+headerSize <= len(buf).
func headerAt(buf []byte, off int) *blockHeader {
	return (*blockHeader)(unsafe.Pointer(&buf[off]))
}

// payload returns the payload slice following h, of length h.size.
func (h *blockHeader) payload() []byte {
	base := unsafe.Add(unsafe.Pointer(h), headerSize)
	return unsafe.Slice((*byte)(base), int(h.size))
}

// checkMagic reports whether the header's sentinel is intact.
func (h *blockHeader) checkMagic() bool {
	return h.magic == BlockMagic
}

// free marks the block unused. Callers must hold the owning pool's mutex.
func (h *blockHeader) free() {
	h.inUse = 0
}

// occupy marks the block in use. Callers must hold the owning pool's mutex.
func (h *blockHeader) occupy() {
	h.inUse = 1
}

func (h *blockHeader) isFree() bool {
	return h.inUse == 0
}
