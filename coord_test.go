// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

package voxtree

import (
	"testing"
)

func TestCoordMaskLow(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in   Coord
		log2 uint8
		want Coord
	}{
		{Coord{0, 0, 0}, leafTotalLog2, Coord{0, 0, 0}},
		{Coord{7, 7, 7}, leafTotalLog2, Coord{0, 0, 0}},
		{Coord{8, 9, 15}, leafTotalLog2, Coord{8, 8, 8}},
		{Coord{0, 9, 9}, leafTotalLog2, Coord{0, 8, 8}},
		{Coord{100, 35, 800}, leafTotalLog2, Coord{96, 32, 800}},
		// negative coordinates align down, not toward zero
		{Coord{-1, -1, -1}, leafTotalLog2, Coord{-8, -8, -8}},
		{Coord{-8, -9, -7}, leafTotalLog2, Coord{-8, -16, -8}},
		{Coord{-1, 0, 2047}, upperTotalLog2, Coord{-2048, 0, 0}},
	}

	for _, tc := range testCases {
		if got := tc.in.maskLow(tc.log2); got != tc.want {
			t.Errorf("maskLow(%v, %d) = %v, want %v", tc.in, tc.log2, got, tc.want)
		}
	}
}

func TestCoordNoAliasing(t *testing.T) {
	t.Parallel()
	prng := newPrng()

	// two distinct coordinates in distinct leaf regions must never
	// resolve to the same leaf origin and offset
	seen := make(map[[2]uint64]Coord)
	for range workLoadN() {
		c := randomCoord(prng, 1<<24)
		key := [2]uint64{c.maskLow(leafTotalLog2).Hash(), uint64(leafOffset(c))}
		if prev, ok := seen[key]; ok && prev != c {
			// hash collisions of different origins are possible, but
			// origin+offset of the same origin never collide
			if prev.maskLow(leafTotalLog2) == c.maskLow(leafTotalLog2) {
				t.Fatalf("coords %v and %v alias to the same voxel slot", prev, c)
			}
		}
		seen[key] = c
	}
}

func TestCoordShift(t *testing.T) {
	t.Parallel()

	// arithmetic right shift keeps the sign, -17 >> 3 is floor(-17/8)
	if got, want := (Coord{-1, 16, -17}).Shr(3), (Coord{-1, 2, -3}); got != want {
		t.Errorf("Shr(3) = %v, want %v", got, want)
	}
	if got, want := (Coord{1, -2, 3}).Shl(4), (Coord{16, -32, 48}); got != want {
		t.Errorf("Shl(4) = %v, want %v", got, want)
	}

	// shift down and back up is the leaf alignment
	for _, c := range []Coord{{0, 0, 0}, {7, 8, 9}, {-1, -8, -9}, {123, -456, 789}} {
		got := c.Shr(leafLog2Dim).Shl(leafLog2Dim)
		if want := c.maskLow(leafLog2Dim); got != want {
			t.Errorf("Shr/Shl alignment of %v = %v, want %v", c, got, want)
		}
	}
}

func TestCoordCompare(t *testing.T) {
	t.Parallel()

	a := Coord{1, 2, 3}
	b := Coord{1, 2, 4}
	if !a.Less(b) || b.Less(a) {
		t.Error("lexicographic order broken on z")
	}
	if a.Compare(a) != 0 {
		t.Error("Compare not reflexive")
	}
	if (Coord{-1, 0, 0}).Compare(Coord{1, 0, 0}) != -1 {
		t.Error("negative x must sort before positive x")
	}
}

func TestBBoxBasics(t *testing.T) {
	t.Parallel()

	b := EmptyBBox()
	if !b.IsEmpty() {
		t.Fatal("EmptyBBox must be empty")
	}

	b.ExpandCoord(Coord{1, 2, 3})
	if b.IsEmpty() || !b.Contains(Coord{1, 2, 3}) {
		t.Fatal("bbox of one coord must contain it")
	}
	if got := b.Volume(); got != 1 {
		t.Fatalf("volume = %d, want 1", got)
	}

	b.ExpandCoord(Coord{-1, 2, 5})
	want := CoordBBox{Min: Coord{-1, 2, 3}, Max: Coord{1, 2, 5}}
	if b != want {
		t.Fatalf("bbox = %v, want %v", b, want)
	}
	if got := b.Volume(); got != 3*1*3 {
		t.Fatalf("volume = %d, want 9", got)
	}

	n := 0
	for range b.All() {
		n++
	}
	if n != 9 {
		t.Fatalf("All yielded %d coords, want 9", n)
	}
}

func TestBBoxIntersect(t *testing.T) {
	t.Parallel()

	a := CoordBBox{Min: Coord{0, 0, 0}, Max: Coord{10, 10, 10}}
	a.Intersect(CoordBBox{Min: Coord{5, 5, 5}, Max: Coord{20, 20, 20}})
	want := CoordBBox{Min: Coord{5, 5, 5}, Max: Coord{10, 10, 10}}
	if a != want {
		t.Fatalf("intersect = %v, want %v", a, want)
	}

	a.Intersect(CoordBBox{Min: Coord{100, 0, 0}, Max: Coord{200, 0, 0}})
	if !a.IsEmpty() {
		t.Fatal("disjoint intersection must be empty")
	}
}

func TestBBoxExpandEmptyNoop(t *testing.T) {
	t.Parallel()

	b := CoordBBox{Min: Coord{0, 0, 0}, Max: Coord{1, 1, 1}}
	b.ExpandBBox(EmptyBBox())
	want := CoordBBox{Min: Coord{0, 0, 0}, Max: Coord{1, 1, 1}}
	if b != want {
		t.Fatalf("expanding by an empty bbox changed %v", b)
	}
}
