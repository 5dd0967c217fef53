// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

package voxtree

import (
	"testing"
)

func TestDilateErodeSingleVoxel(t *testing.T) {
	t.Parallel()

	tr := New[float32](0)
	center := Coord{4, 4, 4} // center of the origin leaf
	tr.SetValue(center, 1)

	DilateActiveValues(tr, 1)
	if got := tr.ActiveVoxelCount(); got != 7 {
		t.Fatalf("one face-neighbor dilation = %d active voxels, want 7", got)
	}
	for _, d := range faceNeighbors {
		if !tr.IsValueOn(center.Add(d)) {
			t.Fatalf("face neighbor %v not active after dilation", d)
		}
	}

	ErodeActiveValues(tr, 1)
	if got := tr.ActiveVoxelCount(); got != 1 {
		t.Fatalf("erosion after dilation = %d active voxels, want 1", got)
	}
	if !tr.IsValueOn(center) {
		t.Fatal("the original voxel must survive the erosion")
	}
}

func TestDilateTwice(t *testing.T) {
	t.Parallel()

	tr := New[int](0)
	tr.SetValue(Coord{4, 4, 4}, 1)

	DilateActiveValues(tr, 2)
	// taxicab ball of radius 2: 1 + 6 + 18
	if got := tr.ActiveVoxelCount(); got != 25 {
		t.Fatalf("two dilations = %d active voxels, want 25", got)
	}
}

func TestDilateAcrossLeafBoundary(t *testing.T) {
	t.Parallel()

	tr := New[int](0)
	tr.SetValue(Coord{7, 0, 0}, 1) // at the +x face of the origin leaf
	DilateActiveValues(tr, 1)

	if !tr.IsValueOn(Coord{8, 0, 0}) {
		t.Fatal("dilation must cross into the neighbor leaf")
	}
	if got := tr.LeafCount(); got < 2 {
		t.Fatalf("leaf count = %d, want at least 2 after boundary dilation", got)
	}
	if got := tr.ActiveVoxelCount(); got != 7 {
		t.Fatalf("boundary dilation = %d active voxels, want 7", got)
	}
}

func TestErodeTileBoundary(t *testing.T) {
	t.Parallel()

	tr := New[int](0)
	if err := tr.AddTile(lowerLevel, Coord{0, 0, 0}, 5, true); err != nil {
		t.Fatal(err)
	}
	if got := tr.ActiveVoxelCount(); got != 512 {
		t.Fatalf("tile = %d active voxels, want 512", got)
	}

	ErodeActiveValues(tr, 1)
	// the 8³ block shrinks to its 6³ interior
	if got := tr.ActiveVoxelCount(); got != 6*6*6 {
		t.Fatalf("eroded tile = %d active voxels, want 216", got)
	}
	if tr.IsValueOn(Coord{0, 0, 0}) {
		t.Fatal("tile corner must be eroded")
	}
	if !tr.IsValueOn(Coord{4, 4, 4}) {
		t.Fatal("tile interior must survive")
	}
}

func TestDilateValuesKeepCurrent(t *testing.T) {
	t.Parallel()

	tr := New[float32](9)
	tr.SetValue(Coord{4, 4, 4}, 1)
	DilateActiveValues(tr, 1)

	// freshly activated voxels keep the value they had, the background
	if got := tr.GetValue(Coord{5, 4, 4}); got != 9 {
		t.Fatalf("dilated voxel = %v, want background 9", got)
	}
	if got := tr.GetValue(Coord{4, 4, 4}); got != 1 {
		t.Fatalf("original voxel = %v, want 1", got)
	}
}

func TestMorphologyNoopOnEmpty(t *testing.T) {
	t.Parallel()

	tr := New[int](0)
	DilateActiveValues(tr, 3)
	ErodeActiveValues(tr, 3)
	if !tr.Empty() {
		t.Fatal("morphology on an empty tree must stay empty")
	}
}
