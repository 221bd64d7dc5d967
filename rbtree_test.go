// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memarena

import (
	"math/rand"
	"testing"
)

func poolOfSize(size int) *Pool {
	return &Pool{totalSize: size}
}

func TestRBTree_InsertFindBestFit(t *testing.T) {
	tree := &rbTree{}
	sizes := []int{128, 256, 64, 512, 1024, 32}
	for _, s := range sizes {
		tree.insert(poolOfSize(s))
	}

	if !tree.validate() {
		t.Fatal("tree invariants violated after inserts")
	}

	got := tree.findBestFit(200)
	if got == nil || got.totalSize != 256 {
		t.Fatalf("findBestFit(200) = %v, want pool of size 256", got)
	}

	got = tree.findBestFit(1024)
	if got == nil || got.totalSize != 1024 {
		t.Fatalf("findBestFit(1024) = %v, want pool of size 1024", got)
	}

	if got := tree.findBestFit(2048); got != nil {
		t.Fatalf("findBestFit(2048) = %v, want nil (no pool large enough)", got)
	}
}

func TestRBTree_Remove(t *testing.T) {
	tree := &rbTree{}
	pools := make([]*Pool, 0, 8)
	for _, s := range []int{10, 20, 30, 40, 50, 60, 70, 80} {
		p := poolOfSize(s)
		pools = append(pools, p)
		tree.insert(p)
	}

	if !tree.remove(pools[3]) {
		t.Fatal("remove reported false for an existing pool")
	}
	if !tree.validate() {
		t.Fatal("tree invariants violated after remove")
	}
	if tree.size != len(pools)-1 {
		t.Fatalf("tree.size = %d, want %d", tree.size, len(pools)-1)
	}

	if tree.remove(poolOfSize(999)) {
		t.Fatal("remove reported true for a pool never inserted")
	}
}

func TestRBTree_RemoveDuplicateKeys(t *testing.T) {
	// Several pools share the same capacity, as happens with a set of
	// identically sized small pools. remove must delete the exact node by
	// pool identity, not just any node whose key happens to match.
	tree := &rbTree{}
	pools := make([]*Pool, 0, 8)
	for i := 0; i < 8; i++ {
		p := poolOfSize(1 << 20)
		pools = append(pools, p)
		tree.insert(p)
	}

	if tree.remove(poolOfSize(1 << 20)) {
		t.Fatal("remove matched a never-inserted pool sharing a capacity with real entries")
	}

	for i, p := range pools {
		if !tree.remove(p) {
			t.Fatalf("remove(pools[%d]) reported false", i)
		}
		if !tree.validate() {
			t.Fatalf("tree invariants violated after removing pools[%d]", i)
		}
		if tree.size != len(pools)-i-1 {
			t.Fatalf("tree.size = %d, want %d", tree.size, len(pools)-i-1)
		}
		if tree.remove(p) {
			t.Fatalf("pools[%d] removed twice", i)
		}
	}
}

func TestRBTree_RandomizedInvariants(t *testing.T) {
	tree := &rbTree{}
	rng := rand.New(rand.NewSource(1))
	var pools []*Pool

	for i := 0; i < 500; i++ {
		if len(pools) == 0 || rng.Intn(2) == 0 {
			p := poolOfSize(rng.Intn(1 << 20))
			pools = append(pools, p)
			tree.insert(p)
		} else {
			idx := rng.Intn(len(pools))
			tree.remove(pools[idx])
			pools = append(pools[:idx], pools[idx+1:]...)
		}
		if !tree.validate() {
			t.Fatalf("invariant violated at step %d", i)
		}
	}
}
