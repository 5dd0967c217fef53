// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

package voxtree

import (
	"fmt"
	"iter"
)

// CoordBBox is an axis-aligned bounding box over Coord with INCLUSIVE
// bounds: a single voxel at c has Min == Max == c.
//
// The empty box is canonically Min == MaxCoord, Max == MinCoord; there
// is no separate emptiness flag. All operations treat that sentinel
// pair as empty.
type CoordBBox struct {
	Min, Max Coord
}

// EmptyBBox returns the canonical empty box.
func EmptyBBox() CoordBBox {
	return CoordBBox{Min: MaxCoord, Max: MinCoord}
}

// BBoxFromCoords returns the tightest box containing both a and b.
func BBoxFromCoords(a, b Coord) CoordBBox {
	return CoordBBox{Min: a.Min(b), Max: a.Max(b)}
}

func (b CoordBBox) String() string {
	return fmt.Sprintf("%v -> %v", b.Min, b.Max)
}

// IsEmpty reports whether the box contains no coordinates.
func (b CoordBBox) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Contains reports whether c lies inside the box.
func (b CoordBBox) Contains(c Coord) bool {
	return c.X >= b.Min.X && c.X <= b.Max.X &&
		c.Y >= b.Min.Y && c.Y <= b.Max.Y &&
		c.Z >= b.Min.Z && c.Z <= b.Max.Z
}

// ExpandCoord grows the box to include c.
func (b *CoordBBox) ExpandCoord(c Coord) {
	b.Min = b.Min.Min(c)
	b.Max = b.Max.Max(c)
}

// ExpandBBox grows the box to include all of o. Expanding by an empty
// box is a no-op, the sentinel pair never shrinks a bound.
func (b *CoordBBox) ExpandBBox(o CoordBBox) {
	if o.IsEmpty() {
		return
	}
	b.Min = b.Min.Min(o.Min)
	b.Max = b.Max.Max(o.Max)
}

// Intersect shrinks the box to the intersection with o. Disjoint boxes
// yield a box for which IsEmpty is true.
func (b *CoordBBox) Intersect(o CoordBBox) {
	b.Min = b.Min.Max(o.Min)
	b.Max = b.Max.Min(o.Max)
}

// Dim returns the per-axis extents. Computed in int64, an inclusive box
// over the full int32 range does not fit a 32-bit extent.
func (b CoordBBox) Dim() (dx, dy, dz int64) {
	if b.IsEmpty() {
		return 0, 0, 0
	}
	dx = int64(b.Max.X) - int64(b.Min.X) + 1
	dy = int64(b.Max.Y) - int64(b.Min.Y) + 1
	dz = int64(b.Max.Z) - int64(b.Min.Z) + 1
	return dx, dy, dz
}

// Volume returns the number of coordinates in the box, computed in a
// wider integer type than the coordinates themselves.
func (b CoordBBox) Volume() uint64 {
	dx, dy, dz := b.Dim()
	return uint64(dx) * uint64(dy) * uint64(dz)
}

// All iterates the coordinates of the box in lexicographic order.
func (b CoordBBox) All() iter.Seq[Coord] {
	return func(yield func(Coord) bool) {
		if b.IsEmpty() {
			return
		}
		for x := b.Min.X; ; x++ {
			for y := b.Min.Y; ; y++ {
				for z := b.Min.Z; ; z++ {
					if !yield(Coord{x, y, z}) {
						return
					}
					if z == b.Max.Z {
						break
					}
				}
				if y == b.Max.Y {
					break
				}
			}
			if x == b.Max.X {
				break
			}
		}
	}
}
