// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

package voxtree

import (
	"github.com/voxtree/voxtree/internal/bitset"
)

// faceNeighbors are the six face-adjacent voxel steps.
var faceNeighbors = [6]Coord{
	{X: -1}, {X: 1},
	{Y: -1}, {Y: 1},
	{Z: -1}, {Z: 1},
}

// DilateActiveValues grows the active set by iterations face-neighbor
// steps: every inactive voxel with an active face neighbor becomes
// active, keeping its current value. Active tiles are densified to
// leaves first so their boundary can grow voxel by voxel; call Prune
// afterwards to collapse the uniform interiors back into tiles.
func DilateActiveValues[V comparable](t *Tree[V], iterations int) {
	if iterations <= 0 || t.Empty() {
		return
	}
	densifyActiveTiles(t)

	acc := NewAccessor(t)
	defer acc.Release()

	for i := 0; i < iterations; i++ {
		scratch := make(map[Coord]*bitset.BitSet512)
		mark := func(c Coord) {
			org := c.maskLow(leafTotalLog2)
			m, ok := scratch[org]
			if !ok {
				m = &bitset.BitSet512{}
				scratch[org] = m
			}
			m.MustSet(leafOffset(c))
		}

		for l := range t.Leaves() {
			l.forEachOn(func(c Coord, _ V) bool {
				for _, d := range faceNeighbors {
					mark(c.Add(d))
				}
				return true
			})
		}

		for org, m := range scratch {
			l := acc.TouchLeaf(org)
			l.mustLoad()
			l.mask.Union(m)
		}
	}
	t.invalidateAccessors()
}

// ErodeActiveValues shrinks the active set by iterations face-neighbor
// steps: every active voxel with an inactive face neighbor becomes
// inactive, keeping its value. The inverse of DilateActiveValues on
// solid regions. Emptied leaves stay in place until the next Prune.
func ErodeActiveValues[V comparable](t *Tree[V], iterations int) {
	if iterations <= 0 || t.Empty() {
		return
	}
	densifyActiveTiles(t)

	acc := NewAccessor(t)
	defer acc.Release()

	for i := 0; i < iterations; i++ {
		// two phases: compute all surviving masks against the current
		// state, then swap them in
		scratch := make(map[*Leaf[V]]*bitset.BitSet512)
		for l := range t.Leaves() {
			m := &bitset.BitSet512{}
			l.forEachOn(func(c Coord, _ V) bool {
				for _, d := range faceNeighbors {
					if !acc.IsValueOn(c.Add(d)) {
						return true
					}
				}
				m.MustSet(leafOffset(c))
				return true
			})
			scratch[l] = m
		}
		for l, m := range scratch {
			l.mask = *m
		}
	}
	t.invalidateAccessors()
}

// densifyActiveTiles replaces every active tile, at every level, with
// an equivalent fully active subtree of real nodes.
func densifyActiveTiles[V comparable](t *Tree[V]) {
	var activeKeys []Coord
	t.root.ascend(func(e rootEntry[V]) bool {
		if !e.isChild() && e.active {
			activeKeys = append(activeKeys, e.key)
		}
		return true
	})
	for _, key := range activeKeys {
		t.root.ensureChild(key)
	}

	t.root.ascend(func(e rootEntry[V]) bool {
		if e.isChild() {
			densifyNodeTiles(e.child, t.root.background)
		}
		return true
	})
	t.invalidateAccessors()
}

func densifyNodeTiles[V comparable](n *internalNode[V], bg V) {
	for slot := uint(0); slot < nodeSize; slot++ {
		if n.isChildMaskOn(slot) {
			if child, ok := n.children.Get(slot); ok {
				if inner, ok := child.(*internalNode[V]); ok {
					densifyNodeTiles(inner, bg)
				}
			}
			continue
		}
		if n.isValueMaskOn(slot) {
			child := n.ensureChild(n.slotOrigin(slot), bg)
			if inner, ok := child.(*internalNode[V]); ok {
				densifyNodeTiles(inner, bg)
			}
		}
	}
}
