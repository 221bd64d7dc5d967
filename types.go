// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memarena

// PageSize defines the standard memory page size (4 KiB) used by
// AlignedMemBlock. Pool arenas do not use it: Go-heap arenas are aligned
// to Alignment and mmap-backed arenas take the kernel's page alignment.
var PageSize uintptr = 4096

// SetPageSize updates the package-level page size used for allocations.
func SetPageSize(size int) {
	PageSize = uintptr(size)
}

// noCopy is a sentinel embedded in Pool and Allocator to make `go vet`
// flag accidental copies of a value guarding a mutex.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
