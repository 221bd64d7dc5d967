// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build memdebug

package memarena

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"
)

// leakEntry records one outstanding allocation's call site, for debug
// builds only.
type leakEntry struct {
	addr uintptr
	size int
	site string
}

var (
	leakMu      sync.Mutex
	leakEntries = make(map[uintptr]leakEntry)
)

func trackAlloc(ptr []byte) {
	if len(ptr) == 0 && cap(ptr) == 0 {
		return
	}
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(ptr)))
	site := callSite(3)

	leakMu.Lock()
	leakEntries[addr] = leakEntry{addr: addr, size: len(ptr), site: site}
	leakMu.Unlock()
}

func trackFree(ptr []byte) {
	if ptr == nil {
		return
	}
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(ptr)))

	leakMu.Lock()
	delete(leakEntries, addr)
	leakMu.Unlock()
}

func callSite(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// LeakReport returns every allocation tracked by trackAlloc that has not
// been released via trackFree, for use in memdebug-tagged test binaries.
func LeakReport() []string {
	leakMu.Lock()
	defer leakMu.Unlock()

	out := make([]string, 0, len(leakEntries))
	for _, e := range leakEntries {
		out = append(out, fmt.Sprintf("leaked %d bytes allocated at %s", e.size, e.site))
	}
	return out
}
