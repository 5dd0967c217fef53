// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

package voxtree

import (
	"fmt"
	"iter"
	"sync"
)

// Tree is the voxel-level façade over the node chain. It owns the root
// node and, transitively, every node beneath it: the node graph is a
// strict ownership tree with no sharing and no cycles.
//
// The tree itself is passive and performs no internal threading.
// Concurrent reads are safe while no structural mutation is in flight;
// concurrent writes are safe when they target disjoint, already
// existing leaves. Everything else needs external synchronization, see
// the package documentation.
type Tree[V comparable] struct {
	root rootNode[V]

	// structMu serializes node creation and collapse so that multiple
	// writers densifying tiles on disjoint paths don't tear the tables.
	structMu sync.Mutex

	// registry of live accessors; structural mutations invalidate
	// their cached paths. Back-references only, no ownership.
	regMu     sync.Mutex
	accessors map[*Accessor[V]]struct{}
}

// New returns an empty tree with the given background value: every
// coordinate reads background, inactive, until written.
func New[V comparable](background V) *Tree[V] {
	return &Tree[V]{
		root:      newRootNode(background),
		accessors: make(map[*Accessor[V]]struct{}),
	}
}

// Background returns the value of every unrepresented coordinate.
func (t *Tree[V]) Background() V { return t.root.background }

// SetBackground swaps the background value. With updateChildNodes the
// whole tree is traversed and every inactive value equal to the old
// background is rewritten, preserving the "background looks
// unrepresented" semantic. Without it only the root's sentinel changes,
// existing values are left as literal numbers - the documented escape
// hatch for advanced background swaps.
func (t *Tree[V]) SetBackground(v V, updateChildNodes bool) {
	t.structMu.Lock()
	defer t.structMu.Unlock()
	t.root.setBackground(v, updateChildNodes)
}

// GetValue returns the value at c: the last value explicitly set there,
// or the tile value covering it, or the background.
func (t *Tree[V]) GetValue(c Coord) V {
	return t.root.getValue(c)
}

// IsValueOn reports whether the voxel at c is active.
func (t *Tree[V]) IsValueOn(c Coord) bool {
	_, on, _ := t.root.probeVoxel(c)
	return on
}

// ProbeValue returns the value at c and whether it is active.
func (t *Tree[V]) ProbeValue(c Coord) (V, bool) {
	v, on, found := t.root.probeVoxel(c)
	if !found {
		return t.root.background, false
	}
	return v, on
}

// SetValue sets the voxel at c to v and marks it active, densifying
// any tile on the path down to the leaf.
func (t *Tree[V]) SetValue(c Coord, v V) {
	t.setValue(c, v, setOn)
}

// SetValueOff sets the voxel at c to v and marks it inactive.
func (t *Tree[V]) SetValueOff(c Coord, v V) {
	t.setValue(c, v, setOff)
}

// SetValueOnly sets the voxel's value without touching its active state.
func (t *Tree[V]) SetValueOnly(c Coord, v V) {
	t.setValue(c, v, setOnly)
}

func (t *Tree[V]) setValue(c Coord, v V, mode setMode) {
	// fast path: the leaf already exists, a pure value/state update
	if l := t.root.probeLeaf(c); l != nil {
		l.setValueRec(c, v, mode, t.root.background)
		return
	}
	t.structMu.Lock()
	defer t.structMu.Unlock()
	t.root.setValue(c, v, mode)
}

// SetActiveState flips the active state at c without changing values.
// Activating a background voxel densifies its path.
func (t *Tree[V]) SetActiveState(c Coord, on bool) {
	if l := t.root.probeLeaf(c); l != nil {
		l.setActiveState(c, on)
		return
	}
	t.structMu.Lock()
	defer t.structMu.Unlock()
	t.root.setActiveState(c, on)
}

// GetValueDepth returns the tree depth at which c is represented:
// 0 for a root tile, up to 3 for a voxel, and -1 for background.
func (t *Tree[V]) GetValueDepth(c Coord) int {
	return t.root.valueDepth(c)
}

// TouchLeaf returns the leaf containing c, creating it (and densifying
// tiles on the way) if needed. The leaf is initialized from whatever
// tile or background covered the region.
func (t *Tree[V]) TouchLeaf(c Coord) *Leaf[V] {
	if l := t.root.probeLeaf(c); l != nil {
		return l
	}
	t.structMu.Lock()
	defer t.structMu.Unlock()
	return t.root.touchLeaf(c)
}

// ProbeLeaf returns the leaf containing c, or nil if the region is
// covered by a tile or unrepresented.
func (t *Tree[V]) ProbeLeaf(c Coord) *Leaf[V] {
	return t.root.probeLeaf(c)
}

// AddTile replaces the subtree at the given level containing c with a
// constant tile, recursively releasing any children. Valid levels are
// 1 (8³ region) through 3 (2048³ region).
func (t *Tree[V]) AddTile(level int, c Coord, v V, active bool) error {
	if level < lowerLevel || level > rootLevel {
		return fmt.Errorf("%w: tile level %d not in [%d, %d]", ErrIndex, level, lowerLevel, rootLevel)
	}
	t.structMu.Lock()
	t.root.addTile(uint8(level), c, v, active)
	t.structMu.Unlock()

	// children were possibly released, cached paths may dangle
	t.invalidateAccessors()
	return nil
}

// Fill sets every voxel in the inclusive box b to v with the given
// active state. Blocks that cover whole leaf regions are written as
// tiles rather than voxels.
func (t *Tree[V]) Fill(b CoordBBox, v V, active bool) {
	if b.IsEmpty() {
		return
	}
	acc := NewAccessor(t)
	defer acc.Release()

	// walk leaf-aligned blocks overlapping the box
	lo, hi := b.Min.maskLow(leafTotalLog2), b.Max.maskLow(leafTotalLog2)
	for x := lo.X; ; x += leafDim {
		for y := lo.Y; ; y += leafDim {
			for z := lo.Z; ; z += leafDim {
				org := Coord{x, y, z}
				block := CoordBBox{Min: org, Max: org.Offset(leafDim-1, leafDim-1, leafDim-1)}
				if b.Contains(block.Min) && b.Contains(block.Max) {
					// whole leaf region inside the box: one tile, not 512 voxels
					_ = t.AddTile(lowerLevel, org, v, active)
				} else {
					block.Intersect(b)
					for c := range block.All() {
						if active {
							acc.SetValue(c, v)
						} else {
							acc.SetValueOff(c, v)
						}
					}
				}
				if z == hi.Z {
					break
				}
			}
			if y == hi.Y {
				break
			}
		}
		if x == hi.X {
			break
		}
	}
}

// Clear removes every node and tile; only the background remains.
func (t *Tree[V]) Clear() {
	t.structMu.Lock()
	t.root.clear()
	t.structMu.Unlock()
	t.invalidateAccessors()
}

// Empty reports whether the tree stores no nodes and no tiles.
func (t *Tree[V]) Empty() bool {
	return t.root.table.Len() == 0
}

// Prune collapses every subtree that is uniform in value and active
// state into a tile, and removes tiles indistinguishable from the
// background. Pruning is idempotent.
func (t *Tree[V]) Prune() {
	t.structMu.Lock()
	t.root.prune(func(a, b V) bool { return a == b })
	t.structMu.Unlock()
	t.invalidateAccessors()
}

// pruneWith is the equality-functor hook used by PruneTolerance.
func (t *Tree[V]) pruneWith(eq func(a, b V) bool) {
	t.structMu.Lock()
	t.root.prune(eq)
	t.structMu.Unlock()
	t.invalidateAccessors()
}

// ActiveVoxelCount returns the exact number of active voxels, counting
// each active tile as its full region.
func (t *Tree[V]) ActiveVoxelCount() uint64 { return t.root.activeVoxelCount() }

// ActiveTileCount returns the number of active tiles at all levels.
func (t *Tree[V]) ActiveTileCount() uint64 { return t.root.activeTileCount() }

// LeafCount returns the number of leaf nodes.
func (t *Tree[V]) LeafCount() uint64 { return t.root.leafCount() }

// NonLeafCount returns the number of non-leaf nodes, including the root.
func (t *Tree[V]) NonLeafCount() uint64 { return t.root.nonLeafCount() }

// MemUsage returns the resident bytes of all nodes; out-of-core leaf
// buffers are excluded.
func (t *Tree[V]) MemUsage() uint64 { return t.root.memUsage(false) }

// MemUsageIfLoaded returns the bytes the tree would use with every
// delay-loaded buffer materialized.
func (t *Tree[V]) MemUsageIfLoaded() uint64 { return t.root.memUsage(true) }

// EvalActiveBoundingBox returns the tight inclusive bound of all active
// voxels and tiles, or the canonical empty box if none exist.
func (t *Tree[V]) EvalActiveBoundingBox() CoordBBox {
	b := EmptyBBox()
	t.root.evalActiveBoundingBox(&b)
	return b
}

// EvalLeafBoundingBox returns the inclusive bound of all leaf nodes -
// leaf-aligned, extending to the far edge of every touched leaf - or
// the canonical empty box if the tree has no leaves.
func (t *Tree[V]) EvalLeafBoundingBox() CoordBBox {
	b := EmptyBBox()
	t.root.evalLeafBoundingBox(&b)
	return b
}

// HasSameTopology reports whether both trees have identical node
// boundaries and active masks. Values are not compared: topology and
// values are orthogonal.
func (t *Tree[V]) HasSameTopology(o *Tree[V]) bool {
	return t.root.topoEqual(&o.root)
}

// DeepCopy returns a tree sharing nothing with t.
func (t *Tree[V]) DeepCopy() *Tree[V] {
	c := New[V](t.root.background)
	c.root = t.root.deepCopy()
	return c
}

// Leaves iterates all leaf nodes.
func (t *Tree[V]) Leaves() iter.Seq[*Leaf[V]] {
	return func(yield func(*Leaf[V]) bool) {
		t.root.eachLeaf(yield)
	}
}

// ActiveVoxels iterates every active voxel with its value. Active tiles
// are expanded voxel by voxel; prune-level consumers should walk tiles
// through the node iterators instead.
func (t *Tree[V]) ActiveVoxels() iter.Seq2[Coord, V] {
	return func(yield func(Coord, V) bool) {
		span := int32(1)<<upperTotalLog2 - 1
		t.root.ascend(func(e rootEntry[V]) bool {
			if e.isChild() {
				return eachActiveVoxel[V](e.child, yield)
			}
			if e.active {
				box := CoordBBox{Min: e.key, Max: e.key.Offset(span, span, span)}
				for c := range box.All() {
					if !yield(c, e.tile) {
						return false
					}
				}
			}
			return true
		})
	}
}

func eachActiveVoxel[V comparable](nd noder[V], fn func(Coord, V) bool) bool {
	switch n := nd.(type) {
	case *Leaf[V]:
		return n.forEachOn(fn)
	case *internalNode[V]:
		for slot, v := range n.valueOn() {
			for c := range n.slotBBox(slot).All() {
				if !fn(c, v) {
					return false
				}
			}
		}
		for _, child := range n.children.Items {
			if !eachActiveVoxel(child, fn) {
				return false
			}
		}
	}
	return true
}

// ########## accessor registry ##########

func (t *Tree[V]) registerAccessor(a *Accessor[V]) {
	t.regMu.Lock()
	t.accessors[a] = struct{}{}
	t.regMu.Unlock()
}

func (t *Tree[V]) releaseAccessor(a *Accessor[V]) {
	t.regMu.Lock()
	delete(t.accessors, a)
	t.regMu.Unlock()
}

// invalidateAccessors drops every registered accessor's cached path.
// Called after any mutation that may delete or replace nodes without
// routing through the accessors themselves.
func (t *Tree[V]) invalidateAccessors() {
	t.regMu.Lock()
	for a := range t.accessors {
		a.clearCache()
	}
	t.regMu.Unlock()
}
