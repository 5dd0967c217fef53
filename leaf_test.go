// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

package voxtree

import (
	"testing"
)

func TestLeafOffset(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		c    Coord
		want uint
	}{
		{Coord{0, 0, 0}, 0},
		{Coord{0, 0, 1}, 1},
		{Coord{0, 1, 0}, 8},
		{Coord{1, 0, 0}, 64},
		{Coord{7, 7, 7}, 511},
		// only the low bits count, any leaf maps the same way
		{Coord{8, 16, 24}, 0},
		{Coord{-8, -8, -8}, 0},
		{Coord{-1, -1, -1}, 511},
	}
	for _, tc := range testCases {
		if got := leafOffset(tc.c); got != tc.want {
			t.Errorf("leafOffset(%v) = %d, want %d", tc.c, got, tc.want)
		}
	}
}

func TestLeafOriginAlignment(t *testing.T) {
	t.Parallel()

	l := newLeaf[int](Coord{13, -3, 100}, 0, false)
	if l.Origin() != (Coord{8, -8, 96}) {
		t.Fatalf("leaf origin = %v, want (8,-8,96)", l.Origin())
	}
}

func TestLeafFillAndConstant(t *testing.T) {
	t.Parallel()

	l := newLeaf[int](Coord{0, 0, 0}, 7, true)
	if got := l.OnVoxelCount(); got != 512 {
		t.Fatalf("active fill count = %d, want 512", got)
	}
	eq := func(a, b int) bool { return a == b }
	v, on, ok := l.isConstant(eq)
	if !ok || v != 7 || !on {
		t.Fatalf("isConstant = (%d, %v, %v), want (7, true, true)", v, on, ok)
	}

	l.setValueOn(Coord{1, 1, 1}, 8)
	if _, _, ok := l.isConstant(eq); ok {
		t.Fatal("leaf with one deviating voxel must not be constant")
	}

	l.fill(0, false)
	if got := l.OnVoxelCount(); got != 0 {
		t.Fatalf("off fill count = %d, want 0", got)
	}
	if v, on, ok := l.isConstant(eq); !ok || v != 0 || on {
		t.Fatalf("isConstant = (%d, %v, %v), want (0, false, true)", v, on, ok)
	}
}

func TestLeafSetVariants(t *testing.T) {
	t.Parallel()

	l := newLeaf[int](Coord{0, 0, 0}, 0, false)
	c := Coord{3, 4, 5}

	l.setValueOn(c, 1)
	if v, on := l.probeValue(c); v != 1 || !on {
		t.Fatalf("setValueOn: (%d, %v)", v, on)
	}
	l.setValueOff(c, 2)
	if v, on := l.probeValue(c); v != 2 || on {
		t.Fatalf("setValueOff: (%d, %v)", v, on)
	}
	l.setValueOnly(c, 3)
	if v, on := l.probeValue(c); v != 3 || on {
		t.Fatalf("setValueOnly: (%d, %v)", v, on)
	}
	l.setActiveState(c, true)
	if v, on := l.probeValue(c); v != 3 || !on {
		t.Fatalf("setActiveState: (%d, %v)", v, on)
	}
}

func TestLeafBBoxAndTopology(t *testing.T) {
	t.Parallel()

	l := newLeaf[int](Coord{8, 8, 8}, 0, false)
	want := CoordBBox{Min: Coord{8, 8, 8}, Max: Coord{15, 15, 15}}
	if l.bbox() != want {
		t.Fatalf("leaf bbox = %v, want %v", l.bbox(), want)
	}

	b := EmptyBBox()
	l.evalActiveBoundingBox(&b)
	if !b.IsEmpty() {
		t.Fatal("empty leaf must not contribute to the active bbox")
	}
	l.setValueOn(Coord{9, 10, 11}, 1)
	l.evalActiveBoundingBox(&b)
	if b.Min != (Coord{9, 10, 11}) || b.Max != (Coord{9, 10, 11}) {
		t.Fatalf("active bbox = %v", b)
	}

	o := newLeaf[int](Coord{8, 8, 8}, 99, false)
	o.setValueOn(Coord{9, 10, 11}, 123)
	if !l.topologyEquals(o) {
		t.Fatal("same mask, different values must be topology equal")
	}
	o.setValueOn(Coord{8, 8, 8}, 1)
	if l.topologyEquals(o) {
		t.Fatal("different masks must not be topology equal")
	}
}

func TestLeafDeepCopy(t *testing.T) {
	t.Parallel()

	l := newLeaf[int](Coord{0, 0, 0}, 0, false)
	l.setValueOn(Coord{1, 2, 3}, 42)

	c := l.deepCopy()
	c.setValueOn(Coord{1, 2, 3}, 99)
	if got := l.getValue(Coord{1, 2, 3}); got != 42 {
		t.Fatalf("copy write reached the original: %d", got)
	}
}

func TestLeafRawBufferAccess(t *testing.T) {
	t.Parallel()

	l := newLeaf[float32](Coord{0, 0, 0}, 0, false)
	buf := l.Buffer()
	if len(buf) != leafSize {
		t.Fatalf("buffer len = %d, want %d", len(buf), leafSize)
	}
	buf[leafOffset(Coord{1, 2, 3})] = 5
	if got := l.getValue(Coord{1, 2, 3}); got != 5 {
		t.Fatalf("raw buffer write not visible: %v", got)
	}

	words := l.MaskWords()
	if len(words) != leafSize/64 {
		t.Fatalf("mask words = %d, want %d", len(words), leafSize/64)
	}
}
