// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memarena

import "testing"

func TestPool_AllocFree_Basic(t *testing.T) {
	p, err := newPool(4096, false, nil)
	if err != nil {
		t.Fatalf("newPool failed: %v", err)
	}

	ptr, err := p.allocFrom(64)
	if err != nil {
		t.Fatalf("allocFrom(64) failed: %v", err)
	}
	if len(ptr) != 64 {
		t.Fatalf("allocFrom(64) returned slice of length %d", len(ptr))
	}

	used := p.UsedSize()
	if used != headerSize+64 {
		t.Errorf("UsedSize() = %d, want %d", used, headerSize+64)
	}

	if err := p.freeTo(ptr); err != nil {
		t.Fatalf("freeTo failed: %v", err)
	}
	if p.UsedSize() != 0 {
		t.Errorf("UsedSize() after free = %d, want 0", p.UsedSize())
	}
}

func TestPool_SplitOnAlloc(t *testing.T) {
	p, err := newPool(4096, false, nil)
	if err != nil {
		t.Fatalf("newPool failed: %v", err)
	}

	_, err = p.allocFrom(32)
	if err != nil {
		t.Fatalf("allocFrom(32) failed: %v", err)
	}

	count := 0
	for b := p.head; b != nil; b = b.next {
		count++
	}
	if count < 2 {
		t.Errorf("expected the remainder to split off as a second block, got %d blocks", count)
	}
}

func TestPool_CoalesceOnFree(t *testing.T) {
	p, err := newPool(4096, false, nil)
	if err != nil {
		t.Fatalf("newPool failed: %v", err)
	}

	a, _ := p.allocFrom(32)
	b, _ := p.allocFrom(32)
	c, _ := p.allocFrom(32)

	_ = p.freeTo(a)
	_ = p.freeTo(c)
	_ = p.freeTo(b)

	count := 0
	for blk := p.head; blk != nil; blk = blk.next {
		count++
	}
	if count != 1 {
		t.Errorf("expected full coalescing back into a single block, got %d blocks", count)
	}
}

func TestPool_AllocFailsWhenFull(t *testing.T) {
	p, err := newPool(256, false, nil)
	if err != nil {
		t.Fatalf("newPool failed: %v", err)
	}

	if _, err := p.allocFrom(4096); err != ErrAllocFailed {
		t.Fatalf("allocFrom(4096) on a 256-byte pool: err = %v, want ErrAllocFailed", err)
	}
}

func TestPool_ReallocGrowsInPlace(t *testing.T) {
	p, err := newPool(4096, false, nil)
	if err != nil {
		t.Fatalf("newPool failed: %v", err)
	}

	ptr, _ := p.allocFrom(32)
	copy(ptr, []byte("hello world, this is a test"))

	grown, ok, err := p.reallocFrom(ptr, 64)
	if err != nil {
		t.Fatalf("reallocFrom failed: %v", err)
	}
	if !ok {
		t.Fatal("reallocFrom did not grow in place despite free successor space")
	}
	if string(grown[:11]) != "hello world" {
		t.Errorf("realloc did not preserve existing content: got %q", grown[:11])
	}
}

func TestPool_ReallocNoShrink(t *testing.T) {
	p, err := newPool(4096, false, nil)
	if err != nil {
		t.Fatalf("newPool failed: %v", err)
	}

	ptr, _ := p.allocFrom(64)
	shrunk, ok, err := p.reallocFrom(ptr, 32)
	if err != nil {
		t.Fatalf("reallocFrom failed: %v", err)
	}
	if !ok {
		t.Fatal("reallocFrom(smaller) should report success (no-op)")
	}
	if &shrunk[0] != &ptr[0] {
		t.Error("reallocFrom(smaller) should return the same backing pointer")
	}
}

func TestPool_Contains(t *testing.T) {
	p, err := newPool(4096, false, nil)
	if err != nil {
		t.Fatalf("newPool failed: %v", err)
	}

	ptr, _ := p.allocFrom(32)
	if !p.Contains(ptr) {
		t.Error("Contains() = false for a pointer this pool allocated")
	}

	foreign := make([]byte, 32)
	if p.Contains(foreign) {
		t.Error("Contains() = true for a pointer never allocated from this pool")
	}
}

func TestPool_Defragment(t *testing.T) {
	p, err := newPool(4096, false, nil)
	if err != nil {
		t.Fatalf("newPool failed: %v", err)
	}

	a, _ := p.allocFrom(32)
	_, _ = p.allocFrom(32)
	c, _ := p.allocFrom(32)

	_ = p.freeTo(a)
	_ = p.freeTo(c)

	p.defragment()

	free := 0
	for blk := p.head; blk != nil; blk = blk.next {
		if blk.isFree() {
			free++
		}
	}
	if free != 2 {
		t.Errorf("expected 2 free blocks remaining after defragment (middle still occupied), got %d", free)
	}
}
