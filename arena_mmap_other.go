// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !unix

package memarena

// acquireBacking falls back to a Go-heap-backed, alignment-padded buffer on
// non-unix platforms; mmap-backed arenas are a unix-only optimization and
// UseMmapForLargePool is silently ignored elsewhere.
func acquireBacking(size int, useMmap bool) (buf []byte, release func() error, err error) {
	buf = AlignedMem(size, Alignment)
	return buf, func() error { return nil }, nil
}
