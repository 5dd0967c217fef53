// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

package voxtree

import (
	"cmp"
	"fmt"
	"math"
)

// Coord is a 3D integer coordinate. Any Coord is a valid voxel address,
// including negative components; coordinates outside all represented
// regions resolve to the tree's background value.
type Coord struct {
	X, Y, Z int32
}

// MinCoord and MaxCoord are the extreme representable coordinates, used
// as the canonical-empty sentinels of CoordBBox.
var (
	MinCoord = Coord{math.MinInt32, math.MinInt32, math.MinInt32}
	MaxCoord = Coord{math.MaxInt32, math.MaxInt32, math.MaxInt32}
)

func (c Coord) String() string {
	return fmt.Sprintf("[%d, %d, %d]", c.X, c.Y, c.Z)
}

// Add returns the component-wise sum c+o.
func (c Coord) Add(o Coord) Coord {
	return Coord{c.X + o.X, c.Y + o.Y, c.Z + o.Z}
}

// Sub returns the component-wise difference c-o.
func (c Coord) Sub(o Coord) Coord {
	return Coord{c.X - o.X, c.Y - o.Y, c.Z - o.Z}
}

// Offset returns c translated by (dx, dy, dz).
func (c Coord) Offset(dx, dy, dz int32) Coord {
	return Coord{c.X + dx, c.Y + dy, c.Z + dz}
}

// Shr shifts every component arithmetically right by n bits.
func (c Coord) Shr(n uint8) Coord {
	return Coord{c.X >> n, c.Y >> n, c.Z >> n}
}

// Shl shifts every component left by n bits.
func (c Coord) Shl(n uint8) Coord {
	return Coord{c.X << n, c.Y << n, c.Z << n}
}

// maskLow clears the low log2 bits of every component, aligning c down
// to the origin of the node region of extent 1<<log2 that contains it.
// Two's complement makes this correct for negative components as well,
// e.g. -1 aligned to 8 is -8.
func (c Coord) maskLow(log2 uint8) Coord {
	m := int32(1)<<log2 - 1
	return Coord{c.X &^ m, c.Y &^ m, c.Z &^ m}
}

// Compare orders coordinates lexicographically by (x, y, z), suitable
// for use as an ordered dictionary key.
func (c Coord) Compare(o Coord) int {
	if r := cmp.Compare(c.X, o.X); r != 0 {
		return r
	}
	if r := cmp.Compare(c.Y, o.Y); r != 0 {
		return r
	}
	return cmp.Compare(c.Z, o.Z)
}

// Less reports whether c sorts before o in the lexicographic order.
func (c Coord) Less(o Coord) bool {
	return c.Compare(o) < 0
}

// Hash returns a spatial hash of c. Distinct coordinates that share all
// but their low bits still hash apart, which is what the per-leaf hash
// maps built on top of this need.
func (c Coord) Hash() uint64 {
	return uint64(uint32(c.X)*73856093 ^ uint32(c.Y)*19349663 ^ uint32(c.Z)*83492791)
}

// Min returns the component-wise minimum of a and b.
func (c Coord) Min(o Coord) Coord {
	return Coord{min(c.X, o.X), min(c.Y, o.Y), min(c.Z, o.Z)}
}

// Max returns the component-wise maximum of a and b.
func (c Coord) Max(o Coord) Coord {
	return Coord{max(c.X, o.X), max(c.Y, o.Y), max(c.Z, o.Z)}
}
