// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

package bitset

import (
	"math/rand/v2"
	"slices"
	"testing"
)

func TestZeroValue512(t *testing.T) {
	t.Parallel()
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("a zero value bitset must not panic: %v", r)
		}
	}()

	var b BitSet512
	b.Test(42)
	b.Size()
	b.Rank0(100)
	b.NextSet(0)
	b.FirstSet()
	b.IsEmpty()
	b.IsFull()
	b.AsSlice(nil)
	b.All()
	c := BitSet512{}
	b.Union(&c)
	b.Intersection(&c)
	b.Equal(&c)
}

func TestSetClearTest512(t *testing.T) {
	t.Parallel()
	prng := rand.New(rand.NewPCG(42, 42))

	var b BitSet512
	gold := map[uint]bool{}
	for range 10_000 {
		bit := uint(prng.IntN(512))
		if prng.IntN(2) == 0 {
			b.MustSet(bit)
			gold[bit] = true
		} else {
			b.MustClear(bit)
			delete(gold, bit)
		}
	}

	for bit := uint(0); bit < 512; bit++ {
		if b.Test(bit) != gold[bit] {
			t.Fatalf("Test(%d) = %v, gold %v", bit, b.Test(bit), gold[bit])
		}
	}
	if b.Size() != len(gold) {
		t.Fatalf("Size = %d, gold %d", b.Size(), len(gold))
	}

	var want []uint
	for bit := range gold {
		want = append(want, bit)
	}
	slices.Sort(want)
	if got := b.All(); !slices.Equal(got, want) {
		t.Fatalf("All = %v, want %v", got, want)
	}
	if got := b.AsSlice(make([]uint, 0, 512)); !slices.Equal(got, want) {
		t.Fatalf("AsSlice = %v, want %v", got, want)
	}
}

func TestRank512(t *testing.T) {
	t.Parallel()

	var b BitSet512
	for _, bit := range []uint{0, 7, 63, 64, 100, 500, 511} {
		b.MustSet(bit)
	}

	// Rank0 is the inclusive popcount minus 1, the slice index mapping
	testCases := []struct {
		idx  uint
		want int
	}{
		{0, 0},
		{1, 0},
		{7, 1},
		{63, 2},
		{64, 3},
		{99, 3},
		{100, 4},
		{511, 6},
	}
	for _, tc := range testCases {
		if got := b.Rank0(tc.idx); got != tc.want {
			t.Errorf("Rank0(%d) = %d, want %d", tc.idx, got, tc.want)
		}
	}
}

func TestNextSet512(t *testing.T) {
	t.Parallel()

	var b BitSet512
	b.MustSet(5)
	b.MustSet(300)

	if got, ok := b.NextSet(0); !ok || got != 5 {
		t.Errorf("NextSet(0) = (%d, %v), want (5, true)", got, ok)
	}
	if got, ok := b.NextSet(5); !ok || got != 5 {
		t.Errorf("NextSet(5) = (%d, %v), want (5, true)", got, ok)
	}
	if got, ok := b.NextSet(6); !ok || got != 300 {
		t.Errorf("NextSet(6) = (%d, %v), want (300, true)", got, ok)
	}
	if _, ok := b.NextSet(301); ok {
		t.Error("NextSet past the last bit must report false")
	}
}

func TestFullAndAll512(t *testing.T) {
	t.Parallel()

	var b BitSet512
	b.SetAll()
	if !b.IsFull() || b.Size() != 512 {
		t.Fatal("SetAll must fill the set")
	}
	b.ClearAll()
	if !b.IsEmpty() {
		t.Fatal("ClearAll must empty the set")
	}
}

func TestBitSet4096(t *testing.T) {
	t.Parallel()
	prng := rand.New(rand.NewPCG(42, 42))

	var b BitSet4096
	gold := map[uint]bool{}
	for range 10_000 {
		bit := uint(prng.IntN(4096))
		if prng.IntN(2) == 0 {
			b.MustSet(bit)
			gold[bit] = true
		} else {
			b.MustClear(bit)
			delete(gold, bit)
		}
	}
	for bit := uint(0); bit < 4096; bit++ {
		if b.Test(bit) != gold[bit] {
			t.Fatalf("Test(%d) = %v, gold %v", bit, b.Test(bit), gold[bit])
		}
	}
	if b.Size() != len(gold) {
		t.Fatalf("Size = %d, gold %d", b.Size(), len(gold))
	}

	// Rank0 against brute force, inclusive popcount minus 1
	for _, idx := range []uint{0, 63, 64, 1000, 4095} {
		want := -1
		for bit := uint(0); bit <= idx; bit++ {
			if gold[bit] {
				want++
			}
		}
		if got := b.Rank0(idx); got != want {
			t.Fatalf("Rank0(%d) = %d, want %d", idx, got, want)
		}
	}

	var other BitSet4096
	if b.IntersectsAny(&other) {
		t.Fatal("intersection with the empty set")
	}
	if first, ok := b.FirstSet(); ok {
		other.MustSet(first)
		if !b.IntersectsAny(&other) {
			t.Fatal("IntersectsAny missed a shared bit")
		}
	}
}
