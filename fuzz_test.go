// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

package voxtree

import (
	"testing"
)

func FuzzVoxelOps(f *testing.F) {
	f.Add(int32(0), int32(0), int32(0), uint32(1))
	f.Add(int32(-1), int32(-1), int32(-1), uint32(42))
	f.Add(int32(2047), int32(2048), int32(-2049), uint32(0))
	f.Add(int32(1)<<30, -int32(1)<<30, int32(7), uint32(99))

	f.Fuzz(func(t *testing.T, x, y, z int32, v uint32) {
		c := Coord{x, y, z}

		tr := New[uint32](7)
		acc := NewAccessor(tr)
		defer acc.Release()

		tr.SetValue(c, v)
		if got := tr.GetValue(c); got != v {
			t.Fatalf("GetValue(%v) = %d, want %d", c, got, v)
		}
		if !tr.IsValueOn(c) {
			t.Fatalf("IsValueOn(%v) = false after SetValue", c)
		}
		if got := acc.GetValue(c); got != v {
			t.Fatalf("accessor GetValue(%v) = %d, want %d", c, got, v)
		}
		if got := tr.GetValueDepth(c); got != 3 {
			t.Fatalf("GetValueDepth(%v) = %d, want 3", c, got)
		}

		// a neighbor in another leaf region must be untouched
		far := c.Offset(leafDim, 0, 0)
		if tr.IsValueOn(far) {
			t.Fatalf("IsValueOn(%v) = true, never written", far)
		}
		if got := tr.GetValue(far); got != 7 {
			t.Fatalf("GetValue(%v) = %d, want background", far, got)
		}

		if got := tr.ActiveVoxelCount(); got != 1 {
			t.Fatalf("ActiveVoxelCount = %d, want 1", got)
		}

		l := tr.ProbeLeaf(c)
		if l == nil || l.Origin() != c.maskLow(leafTotalLog2) {
			t.Fatalf("ProbeLeaf(%v) = %v", c, l)
		}

		tr.SetValueOff(c, v+1)
		if gv, on := tr.ProbeValue(c); on || gv != v+1 {
			t.Fatalf("after SetValueOff: (%d, %v)", gv, on)
		}

		tr.Prune()
		if gv, on := tr.ProbeValue(c); on || gv != v+1 {
			t.Fatalf("prune must keep the non-background voxel: (%d, %v)", gv, on)
		}
	})
}
