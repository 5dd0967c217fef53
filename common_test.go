// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

package voxtree

import (
	"math/rand/v2"
	"testing"
)

// workLoadN to adjust loops for tests with -short
func workLoadN() int {
	if testing.Short() {
		return 500
	}
	return 5_000
}

func newPrng() *rand.Rand {
	return rand.New(rand.NewPCG(42, 42))
}

// randomCoord returns a coordinate uniform in [-span, span) per axis,
// crossing all node boundaries including the negative octants.
func randomCoord(prng *rand.Rand, span int32) Coord {
	return Coord{
		X: prng.Int32N(2*span) - span,
		Y: prng.Int32N(2*span) - span,
		Z: prng.Int32N(2*span) - span,
	}
}

// goldVoxel is one entry of the gold model, value and active state.
type goldVoxel[V comparable] struct {
	v  V
	on bool
}

// goldTree is the brute force reference model: a flat map from
// coordinate to voxel, background everywhere else.
type goldTree[V comparable] struct {
	bg     V
	voxels map[Coord]goldVoxel[V]
}

func newGoldTree[V comparable](bg V) *goldTree[V] {
	return &goldTree[V]{bg: bg, voxels: make(map[Coord]goldVoxel[V])}
}

func (g *goldTree[V]) setValue(c Coord, v V) {
	g.voxels[c] = goldVoxel[V]{v: v, on: true}
}

func (g *goldTree[V]) setValueOff(c Coord, v V) {
	g.voxels[c] = goldVoxel[V]{v: v, on: false}
}

func (g *goldTree[V]) getValue(c Coord) V {
	if gv, ok := g.voxels[c]; ok {
		return gv.v
	}
	return g.bg
}

func (g *goldTree[V]) isValueOn(c Coord) bool {
	return g.voxels[c].on
}
