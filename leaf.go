// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

package voxtree

import (
	"unsafe"

	"github.com/voxtree/voxtree/internal/bitset"
)

// leafBuffer is the dense voxel storage of one leaf. It lives behind a
// pointer so an out-of-core leaf carries no buffer at all.
type leafBuffer[V comparable] [leafSize]V

// Leaf is a leaf node: a dense 8³ block of values plus a parallel
// bitmask marking which voxels are active. Storage is dense, so every
// voxel has a defined value regardless of its active state.
//
// A Leaf is owned exclusively by its parent internal node. The exported
// surface exists for the serialization and code-generation collaborators
// (raw buffer and mask access); algorithms go through Tree or Accessor.
type Leaf[V comparable] struct {
	origin Coord // aligned down to a multiple of 8
	buf    *leafBuffer[V]
	mask   bitset.BitSet512

	// fillValue backs a delay-loaded buffer until restore runs.
	fillValue V
	restore   func(*Leaf[V]) error
}

// leafOffset maps a global coordinate to the voxel offset inside its
// leaf. The low bits are masked here deterministically, a coordinate
// outside the leaf's region addresses the congruent voxel instead of
// trampling memory.
func leafOffset(c Coord) uint {
	x := uint32(c.X) & (leafDim - 1)
	y := uint32(c.Y) & (leafDim - 1)
	z := uint32(c.Z) & (leafDim - 1)
	return uint(x<<(2*leafLog2Dim) | y<<leafLog2Dim | z)
}

// offsetToCoord is the inverse of leafOffset, relative to origin.
func (l *Leaf[V]) offsetToCoord(off uint) Coord {
	return Coord{
		l.origin.X + int32(off>>(2*leafLog2Dim))&(leafDim-1),
		l.origin.Y + int32(off>>leafLog2Dim)&(leafDim-1),
		l.origin.Z + int32(off)&(leafDim-1),
	}
}

// newLeaf returns a leaf with every voxel set to value and the given
// active state.
func newLeaf[V comparable](origin Coord, value V, active bool) *Leaf[V] {
	l := &Leaf[V]{origin: origin.maskLow(leafTotalLog2), buf: new(leafBuffer[V])}
	l.fill(value, active)
	return l
}

// newLeafOutOfCore returns a leaf whose buffer is not resident. Any
// access materializes it first by running restore, which must fill the
// buffer and the mask. Until then the leaf reports fillValue.
func newLeafOutOfCore[V comparable](origin Coord, fillValue V, restore func(*Leaf[V]) error) *Leaf[V] {
	return &Leaf[V]{origin: origin.maskLow(leafTotalLog2), fillValue: fillValue, restore: restore}
}

// Origin returns the leaf's origin, a multiple of 8 on every axis.
func (l *Leaf[V]) Origin() Coord { return l.origin }

// IsOutOfCore reports whether the voxel buffer is not resident.
func (l *Leaf[V]) IsOutOfCore() bool { return l.buf == nil }

// LoadBuffer materializes a delay-loaded buffer. It is idempotent and
// reports the restore error, if any. All other accessors materialize
// implicitly and panic if restore fails; I/O layers that need to handle
// load failures call LoadBuffer first.
func (l *Leaf[V]) LoadBuffer() error {
	if l.buf != nil {
		return nil
	}
	l.buf = new(leafBuffer[V])
	for i := range l.buf {
		l.buf[i] = l.fillValue
	}
	if l.restore == nil {
		return nil
	}
	restore := l.restore
	l.restore = nil
	if err := restore(l); err != nil {
		l.buf = nil
		l.restore = restore
		return err
	}
	return nil
}

func (l *Leaf[V]) mustLoad() {
	if l.buf != nil {
		return
	}
	if err := l.LoadBuffer(); err != nil {
		panic("voxtree: leaf buffer restore failed: " + err.Error())
	}
}

// Buffer returns the raw voxel buffer, materializing it first. Writes
// through the returned slice bypass the active mask; they must not be
// assumed to keep a constant-looking leaf pruned, pruning remains an
// explicit step.
func (l *Leaf[V]) Buffer() []V {
	l.mustLoad()
	return l.buf[:]
}

// MaskWords returns the raw words of the active mask, low bit first.
func (l *Leaf[V]) MaskWords() []uint64 {
	return l.mask[:]
}

func (l *Leaf[V]) getValue(c Coord) V {
	if l.buf == nil {
		l.mustLoad()
	}
	return l.buf[leafOffset(c)]
}

func (l *Leaf[V]) isValueOn(c Coord) bool {
	return l.mask.Test(leafOffset(c))
}

func (l *Leaf[V]) probeValue(c Coord) (V, bool) {
	if l.buf == nil {
		l.mustLoad()
	}
	off := leafOffset(c)
	return l.buf[off], l.mask.Test(off)
}

func (l *Leaf[V]) setValueOn(c Coord, v V) {
	l.mustLoad()
	off := leafOffset(c)
	l.buf[off] = v
	l.mask.MustSet(off)
}

func (l *Leaf[V]) setValueOff(c Coord, v V) {
	l.mustLoad()
	off := leafOffset(c)
	l.buf[off] = v
	l.mask.MustClear(off)
}

// setValueOnly writes the value without touching the active mask.
func (l *Leaf[V]) setValueOnly(c Coord, v V) {
	l.mustLoad()
	l.buf[leafOffset(c)] = v
}

func (l *Leaf[V]) setActiveState(c Coord, on bool) {
	l.mustLoad()
	off := leafOffset(c)
	if on {
		l.mask.MustSet(off)
	} else {
		l.mask.MustClear(off)
	}
}

// fill sets every voxel to value with the given active state.
func (l *Leaf[V]) fill(value V, active bool) {
	l.mustLoad()
	for i := range l.buf {
		l.buf[i] = value
	}
	if active {
		l.mask.SetAll()
	} else {
		l.mask.ClearAll()
	}
}

// OnVoxelCount returns the number of active voxels.
func (l *Leaf[V]) OnVoxelCount() int { return l.mask.Size() }

// OffVoxelCount returns the number of inactive voxels.
func (l *Leaf[V]) OffVoxelCount() int { return leafSize - l.mask.Size() }

// isConstant reports whether every voxel has the same value under eq
// and the same active state, and returns that value and state.
func (l *Leaf[V]) isConstant(eq func(a, b V) bool) (value V, active bool, ok bool) {
	switch {
	case l.mask.IsEmpty():
		active = false
	case l.mask.IsFull():
		active = true
	default:
		return value, false, false
	}
	l.mustLoad()
	value = l.buf[0]
	for i := 1; i < leafSize; i++ {
		if !eq(value, l.buf[i]) {
			return value, active, false
		}
	}
	return value, active, true
}

// MemUsage returns the resident bytes of the leaf, excluding a
// non-resident buffer.
func (l *Leaf[V]) MemUsage() uint64 {
	n := uint64(unsafe.Sizeof(*l))
	if l.buf != nil {
		n += uint64(unsafe.Sizeof(*l.buf))
	}
	return n
}

// MemUsageIfLoaded returns the bytes the leaf occupies once fully
// materialized, regardless of its current residency.
func (l *Leaf[V]) MemUsageIfLoaded() uint64 {
	return uint64(unsafe.Sizeof(*l)) + uint64(unsafe.Sizeof(leafBuffer[V]{}))
}

// bbox returns the leaf's voxel region, inclusive.
func (l *Leaf[V]) bbox() CoordBBox {
	return CoordBBox{Min: l.origin, Max: l.origin.Offset(leafDim-1, leafDim-1, leafDim-1)}
}

func (l *Leaf[V]) evalActiveBoundingBox(b *CoordBBox) {
	for off, ok := l.mask.FirstSet(); ok; off, ok = l.mask.NextSet(off + 1) {
		b.ExpandCoord(l.offsetToCoord(off))
	}
}

func (l *Leaf[V]) topologyEquals(o *Leaf[V]) bool {
	return l.origin == o.origin && l.mask.Equal(&o.mask)
}

func (l *Leaf[V]) deepCopy() *Leaf[V] {
	c := &Leaf[V]{origin: l.origin, mask: l.mask, fillValue: l.fillValue, restore: l.restore}
	if l.buf != nil {
		c.buf = new(leafBuffer[V])
		*c.buf = *l.buf
	}
	return c
}

// forEachOn calls fn for every active voxel with its global coordinate
// and value, stopping early if fn returns false.
func (l *Leaf[V]) forEachOn(fn func(c Coord, v V) bool) bool {
	if l.mask.IsEmpty() {
		return true
	}
	l.mustLoad()
	for off, ok := l.mask.FirstSet(); ok; off, ok = l.mask.NextSet(off + 1) {
		if !fn(l.offsetToCoord(off), l.buf[off]) {
			return false
		}
	}
	return true
}
