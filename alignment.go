// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memarena

import (
	"unsafe"

	"code.hybscloud.com/memarena/internal"
)

// AlignedMem returns a byte slice with the specified size and starting
// address aligned to align bytes. Every pool arena's Go-managed backing
// buffer is obtained this way so payload pointers can honor Alignment
// regardless of whether the pool ends up mmap-backed.
//
// The returned slice shares underlying memory with a larger allocation;
// do not assume len(result) == cap(result).
func AlignedMem(size int, align uintptr) []byte {
	p := make([]byte, uintptr(size)+align-1)
	base := unsafe.Pointer(unsafe.SliceData(p))
	offset := ((uintptr(base)+align-1)/align)*align - uintptr(base)
	return unsafe.Slice((*byte)(unsafe.Add(base, offset)), size)
}

// AlignedMemBlock returns a single page-aligned block using the system page size.
func AlignedMemBlock() []byte {
	return AlignedMem(int(PageSize), PageSize)
}

// CacheLineSize is the CPU L1 cache line size for the current architecture,
// detected at compile time. CacheLineAlignedMem aligns to it.
const CacheLineSize = internal.CacheLineSize

// CacheLineAlignedMem returns a byte slice with the specified size and
// starting address aligned to the CPU cache line size.
func CacheLineAlignedMem(size int) []byte {
	return AlignedMem(size, uintptr(CacheLineSize))
}

// addrOf returns the address of the first byte of a slice's backing array,
// without panicking on a zero-length (but non-nil-backed) slice.
func addrOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}
