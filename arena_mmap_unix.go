// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package memarena

import "golang.org/x/sys/unix"

// acquireBacking obtains a pool's backing buffer. When useMmap is set and
// size reaches the caller's configured threshold, the buffer is obtained
// via an anonymous private mmap instead of the Go heap, keeping very large
// pools off the garbage collector's scan set.
func acquireBacking(size int, useMmap bool) (buf []byte, release func() error, err error) {
	if !useMmap {
		buf = AlignedMem(size, Alignment)
		return buf, func() error { return nil }, nil
	}

	buf, err = unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, nil, err
	}
	return buf, func() error { return unix.Munmap(buf) }, nil
}
