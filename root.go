// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

package voxtree

import (
	"github.com/google/btree"
)

// rootDegree is the branching factor of the root's btree table. Root
// entries are few (one per 2048³ region), a small degree keeps the
// nodes cache friendly.
const rootDegree = 8

// rootEntry is one slot of the root table: either a child node or a
// tile, the same duality as an internal slot but keyed by origin since
// the root has unbounded fan-out.
type rootEntry[V comparable] struct {
	key    Coord // origin of the 2048³ region, maskLow(upperTotalLog2)
	child  *internalNode[V]
	tile   V
	active bool
}

func (e rootEntry[V]) isChild() bool { return e.child != nil }

// rootNode is the sparse top of the tree: an ordered dictionary from
// top-level node origins to children or tiles, plus the single
// background value answering for everything else.
type rootNode[V comparable] struct {
	table      *btree.BTreeG[rootEntry[V]]
	background V
}

func newRootNode[V comparable](background V) rootNode[V] {
	return rootNode[V]{
		table: btree.NewG(rootDegree, func(a, b rootEntry[V]) bool {
			return a.key.Less(b.key)
		}),
		background: background,
	}
}

// rootKey aligns c down to the origin of the top-level node covering it.
func rootKey(c Coord) Coord {
	return c.maskLow(upperTotalLog2)
}

func (r *rootNode[V]) getEntry(key Coord) (rootEntry[V], bool) {
	return r.table.Get(rootEntry[V]{key: key})
}

func (r *rootNode[V]) setEntry(e rootEntry[V]) {
	r.table.ReplaceOrInsert(e)
}

func (r *rootNode[V]) deleteEntry(key Coord) {
	r.table.Delete(rootEntry[V]{key: key})
}

// ascend visits the entries in ascending key order, for deterministic
// iteration; correctness never depends on the order.
func (r *rootNode[V]) ascend(fn func(e rootEntry[V]) bool) {
	r.table.Ascend(func(e rootEntry[V]) bool { return fn(e) })
}

// ensureChild returns the top-level child covering c, creating it (from
// the background, or by densifying a root tile) if needed.
func (r *rootNode[V]) ensureChild(c Coord) *internalNode[V] {
	key := rootKey(c)
	e, ok := r.getEntry(key)
	if ok && e.isChild() {
		return e.child
	}

	var child *internalNode[V]
	if ok {
		child = newInternalFromTile(key, upperLevel, e.tile, e.active, r.background)
	} else {
		child = newInternal[V](key, upperLevel)
	}
	r.setEntry(rootEntry[V]{key: key, child: child})
	return child
}

func (r *rootNode[V]) probeVoxel(c Coord) (V, bool, bool) {
	e, ok := r.getEntry(rootKey(c))
	if !ok {
		return r.background, false, false
	}
	if e.isChild() {
		if v, on, found := e.child.probeVoxel(c); found {
			return v, on, true
		}
		return r.background, false, false
	}
	return e.tile, e.active, true
}

func (r *rootNode[V]) getValue(c Coord) V {
	v, _, found := r.probeVoxel(c)
	if !found {
		return r.background
	}
	return v
}

func (r *rootNode[V]) setValue(c Coord, v V, mode setMode) {
	r.ensureChild(c).setValueRec(c, v, mode, r.background)
}

func (r *rootNode[V]) setActiveState(c Coord, on bool) {
	key := rootKey(c)
	if e, ok := r.getEntry(key); ok {
		if e.isChild() {
			e.child.setActiveStateRec(c, on, r.background)
			return
		}
		if e.active == on {
			return
		}
	} else if !on {
		return // background is already inactive
	}
	r.ensureChild(c).setActiveStateRec(c, on, r.background)
}

// addTile plants a tile at the given level. The level has been
// validated by the tree façade.
func (r *rootNode[V]) addTile(level uint8, c Coord, v V, active bool) {
	key := rootKey(c)
	if level == rootLevel {
		r.setEntry(rootEntry[V]{key: key, tile: v, active: active})
		return
	}
	r.ensureChild(c).addTileRec(level, c, v, active, r.background)
}

// addChild grafts a fully built top-level node into the table,
// replacing whatever entry covered its origin.
func (r *rootNode[V]) addChild(child *internalNode[V]) {
	r.setEntry(rootEntry[V]{key: rootKey(child.origin), child: child})
}

func (r *rootNode[V]) valueDepth(c Coord) int {
	e, ok := r.getEntry(rootKey(c))
	if !ok {
		return -1
	}
	if e.isChild() {
		return e.child.valueDepthRec(c)
	}
	return 0
}

func (r *rootNode[V]) activeVoxelCount() (cnt uint64) {
	r.ascend(func(e rootEntry[V]) bool {
		if e.isChild() {
			cnt += e.child.activeVoxelCount()
		} else if e.active {
			cnt += tileVoxels(rootLevel)
		}
		return true
	})
	return
}

func (r *rootNode[V]) activeTileCount() (cnt uint64) {
	r.ascend(func(e rootEntry[V]) bool {
		if e.isChild() {
			cnt += e.child.activeTileCount()
		} else if e.active {
			cnt++
		}
		return true
	})
	return
}

func (r *rootNode[V]) leafCount() (cnt uint64) {
	r.ascend(func(e rootEntry[V]) bool {
		if e.isChild() {
			cnt += e.child.leafCount()
		}
		return true
	})
	return
}

func (r *rootNode[V]) nonLeafCount() (cnt uint64) {
	cnt = 1 // the root itself
	r.ascend(func(e rootEntry[V]) bool {
		if e.isChild() {
			cnt += e.child.nonLeafCount()
		}
		return true
	})
	return
}

func (r *rootNode[V]) memUsage(ifLoaded bool) (b uint64) {
	r.ascend(func(e rootEntry[V]) bool {
		if e.isChild() {
			if ifLoaded {
				b += e.child.memUsageIfLoaded()
			} else {
				b += e.child.memUsage()
			}
		}
		return true
	})
	return
}

func (r *rootNode[V]) evalActiveBoundingBox(b *CoordBBox) {
	span := int32(1)<<upperTotalLog2 - 1
	r.ascend(func(e rootEntry[V]) bool {
		if e.isChild() {
			e.child.evalActiveBoundingBox(b)
		} else if e.active {
			b.ExpandBBox(CoordBBox{Min: e.key, Max: e.key.Offset(span, span, span)})
		}
		return true
	})
}

func (r *rootNode[V]) evalLeafBoundingBox(b *CoordBBox) {
	r.ascend(func(e rootEntry[V]) bool {
		if e.isChild() {
			e.child.evalLeafBoundingBox(b)
		}
		return true
	})
}

// prune collapses uniform subtrees to tiles and drops entries
// indistinguishable from background.
func (r *rootNode[V]) prune(eq func(a, b V) bool) {
	type update struct {
		e      rootEntry[V]
		remove bool
	}
	var updates []update

	r.ascend(func(e rootEntry[V]) bool {
		if e.isChild() {
			v, active, uniform := e.child.pruneRec(eq, r.background)
			if uniform {
				if !active && eq(v, r.background) {
					updates = append(updates, update{e: e, remove: true})
				} else {
					updates = append(updates, update{e: rootEntry[V]{key: e.key, tile: v, active: active}})
				}
			}
		} else if !e.active && eq(e.tile, r.background) {
			updates = append(updates, update{e: e, remove: true})
		}
		return true
	})

	for _, u := range updates {
		if u.remove {
			r.deleteEntry(u.e.key)
		} else {
			r.setEntry(u.e)
		}
	}
}

// setBackground swaps the background sentinel. With updateChildNodes it
// also rewrites every inactive tile and voxel that carried the old
// background, preserving the "background == unrepresented" semantic;
// without it only the sentinel changes, the documented escape hatch.
func (r *rootNode[V]) setBackground(newBg V, updateChildNodes bool) {
	oldBg := r.background
	r.background = newBg
	if !updateChildNodes || oldBg == newBg {
		return
	}

	var retained []rootEntry[V]
	r.ascend(func(e rootEntry[V]) bool {
		if !e.isChild() && !e.active && e.tile == oldBg {
			retained = append(retained, rootEntry[V]{key: e.key, tile: newBg})
		}
		return true
	})
	for _, e := range retained {
		r.setEntry(e)
	}

	r.ascend(func(e rootEntry[V]) bool {
		if e.isChild() {
			rewriteBackground(e.child, oldBg, newBg)
		}
		return true
	})
}

// rewriteBackground replaces inactive occurrences of oldBg with newBg
// throughout the subtree.
func rewriteBackground[V comparable](n *internalNode[V], oldBg, newBg V) {
	var buf [nodeSize]uint
	for i, slot := range n.tiles.AsSlice(buf[:0]) {
		if n.tiles.Items[i] == oldBg && !n.valueMask.Test(slot) {
			n.tiles.Items[i] = newBg
		}
	}
	for _, child := range n.children.Items {
		switch c := child.(type) {
		case *internalNode[V]:
			rewriteBackground(c, oldBg, newBg)
		case *Leaf[V]:
			c.mustLoad()
			for off := range c.buf {
				if c.buf[off] == oldBg && !c.mask.Test(uint(off)) {
					c.buf[off] = newBg
				}
			}
		}
	}
}

func (r *rootNode[V]) topoEqual(o *rootNode[V]) bool {
	// collect the topology-relevant entries of both tables: children
	// and active tiles; inactive tiles are indistinguishable from
	// absent entries
	var a, b []rootEntry[V]
	r.ascend(func(e rootEntry[V]) bool {
		if e.isChild() || e.active {
			a = append(a, e)
		}
		return true
	})
	o.ascend(func(e rootEntry[V]) bool {
		if e.isChild() || e.active {
			b = append(b, e)
		}
		return true
	})

	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ea, eb := a[i], b[i]
		if ea.key != eb.key || ea.isChild() != eb.isChild() {
			return false
		}
		if ea.isChild() && !ea.child.topoEqual(eb.child) {
			return false
		}
	}
	return true
}

func (r *rootNode[V]) deepCopy() rootNode[V] {
	c := newRootNode(r.background)
	r.ascend(func(e rootEntry[V]) bool {
		if e.isChild() {
			e.child = e.child.deepCopyRec().(*internalNode[V])
		}
		c.setEntry(e)
		return true
	})
	return c
}

func (r *rootNode[V]) clear() {
	r.table.Clear(false)
}

func (r *rootNode[V]) eachLeaf(fn func(*Leaf[V]) bool) {
	r.ascend(func(e rootEntry[V]) bool {
		if e.isChild() {
			return e.child.eachLeaf(fn)
		}
		return true
	})
}

func (r *rootNode[V]) probeLeaf(c Coord) *Leaf[V] {
	e, ok := r.getEntry(rootKey(c))
	if !ok || !e.isChild() {
		return nil
	}
	return e.child.probeLeafRec(c)
}

func (r *rootNode[V]) touchLeaf(c Coord) *Leaf[V] {
	return r.ensureChild(c).touchLeafRec(c, r.background)
}
