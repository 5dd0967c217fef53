// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

package voxtree

import (
	"iter"
	"unsafe"

	"github.com/voxtree/voxtree/internal/bitset"
	"github.com/voxtree/voxtree/internal/sparse"
)

// internalNode is a fixed fan-out 16³ interior node. Every slot is in
// exactly one of three states:
//
//   - child:  a live child node, bit set in the children bitset
//   - tile:   an inline constant value for the whole child-sized region,
//     bit set in the tiles bitset, active state in valueMask
//   - empty:  implicitly the tree's background, inactive
//
// A slot never holds a child and a tile at the same time. The child and
// tile tables are popcount-compressed sparse arrays, the deliberate
// two-bitmask-plus-compact-table trade against a per-slot tagged union.
type internalNode[V comparable] struct {
	origin Coord // aligned down to a multiple of the node's span
	level  uint8 // lowerLevel: children are leaves, upperLevel: children are lower internals

	children  sparse.Array4096[noder[V]]
	tiles     sparse.Array4096[V]
	valueMask bitset.BitSet4096 // active bits, tile slots only
}

func newInternal[V comparable](origin Coord, level uint8) *internalNode[V] {
	return &internalNode[V]{origin: origin.maskLow(nodeTotalLog2(level)), level: level}
}

// newInternalFromTile densifies a (value, active) tile into a node: a
// background-inactive tile yields an empty node, anything else yields a
// node with every slot holding that tile.
func newInternalFromTile[V comparable](origin Coord, level uint8, v V, active bool, bg V) *internalNode[V] {
	n := newInternal[V](origin, level)
	if !active && v == bg {
		return n
	}
	items := make([]V, nodeSize)
	for i := range items {
		items[i] = v
	}
	n.tiles.Items = items
	n.tiles.BitSet4096.SetAll()
	if active {
		n.valueMask.SetAll()
	}
	return n
}

// slotOf maps a global coordinate to the slot index inside this node.
// High and low bits are masked deterministically, the caller cannot
// address outside the table.
func (n *internalNode[V]) slotOf(c Coord) uint {
	cl := childTotalLog2(n.level)
	x := (uint32(c.X) >> cl) & (nodeDim - 1)
	y := (uint32(c.Y) >> cl) & (nodeDim - 1)
	z := (uint32(c.Z) >> cl) & (nodeDim - 1)
	return uint(x<<(2*nodeLog2Dim) | y<<nodeLog2Dim | z)
}

// slotOrigin returns the voxel origin of the child region at slot.
func (n *internalNode[V]) slotOrigin(slot uint) Coord {
	cl := childTotalLog2(n.level)
	x := int32(slot>>(2*nodeLog2Dim)) & (nodeDim - 1)
	y := int32(slot>>nodeLog2Dim) & (nodeDim - 1)
	z := int32(slot) & (nodeDim - 1)
	return Coord{n.origin.X + x<<cl, n.origin.Y + y<<cl, n.origin.Z + z<<cl}
}

// slotBBox returns the inclusive voxel region of the child slot.
func (n *internalNode[V]) slotBBox(slot uint) CoordBBox {
	o := n.slotOrigin(slot)
	d := int32(1)<<childTotalLog2(n.level) - 1
	return CoordBBox{Min: o, Max: o.Offset(d, d, d)}
}

func (n *internalNode[V]) nodeOrigin() Coord { return n.origin }

// isChildMaskOn reports whether slot holds a live child.
func (n *internalNode[V]) isChildMaskOn(slot uint) bool {
	return n.children.Test(slot)
}

// isValueMaskOn reports whether slot holds an active tile.
func (n *internalNode[V]) isValueMaskOn(slot uint) bool {
	return n.valueMask.Test(slot)
}

// probeChild returns the child node containing c, or nil if the slot
// holds a tile or is empty. Non-recursive, single level.
func (n *internalNode[V]) probeChild(c Coord) noder[V] {
	if child, ok := n.children.Get(n.slotOf(c)); ok {
		return child
	}
	return nil
}

// ensureChild returns the child at c's slot, densifying a tile (or the
// implicit background) into a real child first. This preserves the
// invariant that only a whole constant sub-region is ever a tile.
func (n *internalNode[V]) ensureChild(c Coord, bg V) noder[V] {
	slot := n.slotOf(c)
	if child, ok := n.children.Get(slot); ok {
		return child
	}

	v, active := bg, false
	if tv, ok := n.tiles.DeleteAt(slot); ok {
		v = tv
		active = n.valueMask.Test(slot)
		n.valueMask.MustClear(slot)
	}

	var child noder[V]
	if n.level == lowerLevel {
		child = newLeaf(n.slotOrigin(slot), v, active)
	} else {
		child = newInternalFromTile(n.slotOrigin(slot), n.level-1, v, active, bg)
	}
	n.children.InsertAt(slot, child)
	return child
}

// setTile replaces whatever is in c's slot with a tile, recursively
// releasing a present child. The controlled collapse, inverse of
// ensureChild.
func (n *internalNode[V]) setTile(c Coord, v V, active bool) {
	slot := n.slotOf(c)
	n.children.DeleteAt(slot)
	n.tiles.InsertAt(slot, v)
	if active {
		n.valueMask.MustSet(slot)
	} else {
		n.valueMask.MustClear(slot)
	}
}

// addTileRec descends to the node owning tiles of the given level and
// plants the tile there. level has been validated by the tree.
func (n *internalNode[V]) addTileRec(level uint8, c Coord, v V, active bool, bg V) {
	if n.level == level {
		n.setTile(c, v, active)
		return
	}
	// level < n.level, the target node is deeper down
	child := n.ensureChild(c, bg).(*internalNode[V])
	child.addTileRec(level, c, v, active, bg)
}

func (n *internalNode[V]) probeVoxel(c Coord) (v V, active, found bool) {
	slot := n.slotOf(c)
	if child, ok := n.children.Get(slot); ok {
		return child.probeVoxel(c)
	}
	if tv, ok := n.tiles.Get(slot); ok {
		return tv, n.valueMask.Test(slot), true
	}
	return v, false, false
}

func (n *internalNode[V]) valueDepthRec(c Coord) int {
	slot := n.slotOf(c)
	if child, ok := n.children.Get(slot); ok {
		return child.valueDepthRec(c)
	}
	if n.tiles.Test(slot) {
		return treeDepth - 1 - int(n.level)
	}
	return -1
}

func (n *internalNode[V]) setValueRec(c Coord, v V, mode setMode, bg V) {
	n.ensureChild(c, bg).setValueRec(c, v, mode, bg)
}

func (n *internalNode[V]) setActiveStateRec(c Coord, on bool, bg V) {
	slot := n.slotOf(c)
	if child, ok := n.children.Get(slot); ok {
		child.setActiveStateRec(c, on, bg)
		return
	}
	// tile or empty slot: already uniform in the requested state?
	if n.valueMask.Test(slot) == on {
		return
	}
	n.ensureChild(c, bg).setActiveStateRec(c, on, bg)
}

func (n *internalNode[V]) activeVoxelCount() (cnt uint64) {
	cnt = uint64(n.valueMask.Size()) * tileVoxels(n.level)
	for _, child := range n.children.Items {
		cnt += child.activeVoxelCount()
	}
	return
}

func (n *internalNode[V]) activeTileCount() (cnt uint64) {
	cnt = uint64(n.valueMask.Size())
	for _, child := range n.children.Items {
		cnt += child.activeTileCount()
	}
	return
}

func (n *internalNode[V]) leafCount() (cnt uint64) {
	for _, child := range n.children.Items {
		cnt += child.leafCount()
	}
	return
}

func (n *internalNode[V]) nonLeafCount() (cnt uint64) {
	cnt = 1
	for _, child := range n.children.Items {
		cnt += child.nonLeafCount()
	}
	return
}

func (n *internalNode[V]) memUsage() (b uint64) {
	b = uint64(unsafe.Sizeof(*n))
	b += uint64(cap(n.tiles.Items)) * uint64(unsafe.Sizeof(*new(V)))
	b += uint64(cap(n.children.Items)) * uint64(unsafe.Sizeof(uintptr(0)))
	for _, child := range n.children.Items {
		b += child.memUsage()
	}
	return
}

func (n *internalNode[V]) memUsageIfLoaded() (b uint64) {
	b = uint64(unsafe.Sizeof(*n))
	b += uint64(cap(n.tiles.Items)) * uint64(unsafe.Sizeof(*new(V)))
	b += uint64(cap(n.children.Items)) * uint64(unsafe.Sizeof(uintptr(0)))
	for _, child := range n.children.Items {
		b += child.memUsageIfLoaded()
	}
	return
}

func (n *internalNode[V]) evalActiveBoundingBox(b *CoordBBox) {
	for slot, ok := n.valueMask.FirstSet(); ok; slot, ok = n.valueMask.NextSet(slot + 1) {
		b.ExpandBBox(n.slotBBox(slot))
	}
	for _, child := range n.children.Items {
		child.evalActiveBoundingBox(b)
	}
}

func (n *internalNode[V]) evalLeafBoundingBox(b *CoordBBox) {
	for _, child := range n.children.Items {
		child.evalLeafBoundingBox(b)
	}
}

// childOn iterates the slots holding a live child, positioned by
// bit-scan over the child mask.
func (n *internalNode[V]) childOn() iter.Seq2[uint, noder[V]] {
	return func(yield func(uint, noder[V]) bool) {
		for slot, ok := n.children.FirstSet(); ok; slot, ok = n.children.NextSet(slot + 1) {
			if !yield(slot, n.children.MustGet(slot)) {
				return
			}
		}
	}
}

// valueOn iterates the active tile slots, excluding child slots.
func (n *internalNode[V]) valueOn() iter.Seq2[uint, V] {
	return func(yield func(uint, V) bool) {
		for slot, ok := n.valueMask.FirstSet(); ok; slot, ok = n.valueMask.NextSet(slot + 1) {
			if !yield(slot, n.tiles.MustGet(slot)) {
				return
			}
		}
	}
}

// valueOff iterates all inactive non-child slots, including the empty
// ones, which resolve to bg.
func (n *internalNode[V]) valueOff(bg V) iter.Seq2[uint, V] {
	return func(yield func(uint, V) bool) {
		for slot := uint(0); slot < nodeSize; slot++ {
			if n.children.Test(slot) || n.valueMask.Test(slot) {
				continue
			}
			v := bg
			if tv, ok := n.tiles.Get(slot); ok {
				v = tv
			}
			if !yield(slot, v) {
				return
			}
		}
	}
}

// pruneRec first collapses every uniform child into a tile, then
// reports whether the node itself became uniform.
func (n *internalNode[V]) pruneRec(eq func(a, b V) bool, bg V) (V, bool, bool) {
	// collapse uniform children, bottom-up
	var buf [nodeSize]uint
	for _, slot := range n.children.AsSlice(buf[:0]) {
		child := n.children.MustGet(slot)
		v, active, uniform := child.pruneRec(eq, bg)
		if !uniform {
			continue
		}
		n.children.DeleteAt(slot)
		if !active && eq(v, bg) {
			continue // background, the absent state
		}
		n.tiles.InsertAt(slot, v)
		if active {
			n.valueMask.MustSet(slot)
		}
	}

	// drop tiles indistinguishable from background
	for _, slot := range n.tiles.AsSlice(buf[:0]) {
		if !n.valueMask.Test(slot) && eq(n.tiles.MustGet(slot), bg) {
			n.tiles.DeleteAt(slot)
		}
	}

	if n.children.Len() > 0 {
		return bg, false, false
	}
	switch n.tiles.Len() {
	case 0:
		return bg, false, true
	case nodeSize:
		v := n.tiles.Items[0]
		for _, tv := range n.tiles.Items[1:] {
			if !eq(v, tv) {
				return bg, false, false
			}
		}
		if n.valueMask.IsFull() {
			return v, true, true
		}
		if n.valueMask.IsEmpty() {
			return v, false, true
		}
	}
	return bg, false, false
}

func (n *internalNode[V]) topoEqual(o noder[V]) bool {
	on, ok := o.(*internalNode[V])
	if !ok || n.origin != on.origin || n.level != on.level {
		return false
	}
	// inactive tiles and empty slots are topologically the same, only
	// the child and active-value masks matter
	if !n.children.BitSet4096.Equal(&on.children.BitSet4096) {
		return false
	}
	if !n.valueMask.Equal(&on.valueMask) {
		return false
	}
	for i, child := range n.children.Items {
		if !child.topoEqual(on.children.Items[i]) {
			return false
		}
	}
	return true
}

func (n *internalNode[V]) deepCopyRec() noder[V] {
	c := &internalNode[V]{
		origin:    n.origin,
		level:     n.level,
		children:  n.children.Copy(),
		tiles:     n.tiles.Copy(),
		valueMask: n.valueMask,
	}
	for i, child := range c.children.Items {
		c.children.Items[i] = child.deepCopyRec()
	}
	return c
}

func (n *internalNode[V]) eachLeaf(fn func(*Leaf[V]) bool) bool {
	for _, child := range n.children.Items {
		if !child.eachLeaf(fn) {
			return false
		}
	}
	return true
}

func (n *internalNode[V]) probeLeafRec(c Coord) *Leaf[V] {
	if child, ok := n.children.Get(n.slotOf(c)); ok {
		return child.probeLeafRec(c)
	}
	return nil
}

func (n *internalNode[V]) touchLeafRec(c Coord, bg V) *Leaf[V] {
	return n.ensureChild(c, bg).touchLeafRec(c, bg)
}
