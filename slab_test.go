// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memarena

import (
	"sync"
	"testing"
)

func TestClassFor(t *testing.T) {
	cases := []struct {
		size int
		want int
	}{
		{1, 0},
		{16, 0},
		{17, 1},
		{32, 1},
		{33, 2},
		{64, 2},
		{65, 3},
		{128, 3},
		{129, -1},
	}
	for _, c := range cases {
		if got := classFor(c.size); got != c.want {
			t.Errorf("classFor(%d) = %d, want %d", c.size, got, c.want)
		}
	}
}

func TestSlabCache_AllocFree_Roundtrip(t *testing.T) {
	sc := newSlabCache(8, nil)
	ptr := sc.alloc(32)
	if ptr == nil {
		t.Fatal("alloc(32) returned nil")
	}
	if len(ptr) != 32 {
		t.Fatalf("alloc(32) returned slice of length %d", len(ptr))
	}

	ptr[0] = 0x42
	sc.free(ptr, 32)

	ptr2 := sc.alloc(32)
	if ptr2 == nil {
		t.Fatal("second alloc(32) returned nil")
	}
}

func TestSlabCache_GrowsOnDemand(t *testing.T) {
	sc := newSlabCache(4, nil)
	var got []([]byte)
	for i := 0; i < 9; i++ {
		p := sc.alloc(16)
		if p == nil {
			t.Fatalf("alloc(16) #%d returned nil", i)
		}
		got = append(got, p)
	}

	idx := classFor(16)
	if len(sc.classes[idx].slabs) < 2 {
		t.Errorf("expected class to have grown at least twice, got %d slabs", len(sc.classes[idx].slabs))
	}

	for _, p := range got {
		sc.free(p, 16)
	}
}

func TestSlabCache_ClassOf(t *testing.T) {
	sc := newSlabCache(16, nil)
	ptr := sc.alloc(64)

	idx, ok := sc.classOf(ptr)
	if !ok {
		t.Fatal("classOf reported false for a slab-owned pointer")
	}
	if idx != classFor(64) {
		t.Errorf("classOf = %d, want %d", idx, classFor(64))
	}

	foreign := make([]byte, 64)
	if _, ok := sc.classOf(foreign); ok {
		t.Error("classOf reported true for a pointer the slab cache never allocated")
	}
}

func TestSlabCache_FreeByAddr(t *testing.T) {
	sc := newSlabCache(16, nil)
	ptr := sc.alloc(48)

	if !sc.freeByAddr(ptr) {
		t.Fatal("freeByAddr returned false for a slab-owned pointer")
	}

	foreign := make([]byte, 48)
	if sc.freeByAddr(foreign) {
		t.Error("freeByAddr returned true for a foreign pointer")
	}
}

func TestSlabCache_ConcurrentAllocFree(t *testing.T) {
	sc := newSlabCache(32, nil)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				p := sc.alloc(64)
				if p == nil {
					t.Error("alloc(64) returned nil under concurrency")
					return
				}
				sc.free(p, 64)
			}
		}()
	}
	wg.Wait()
}
