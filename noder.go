// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

package voxtree

// setMode selects which flavor of write a descent performs.
type setMode uint8

const (
	setOn   setMode = iota // write value, mark active
	setOff                 // write value, mark inactive
	setOnly                // write value, leave the mask alone
)

// noder is the common interface of the two node kinds below the root,
// *internalNode[V] and *Leaf[V]. The background value bg is threaded
// through descents because empty slots represent it implicitly; nodes
// do not store their own copy.
type noder[V comparable] interface {
	nodeOrigin() Coord

	// probeVoxel resolves c to a value and active state. found is
	// false when c falls through to the background.
	probeVoxel(c Coord) (v V, active, found bool)

	// valueDepthRec returns the tree depth at which c is represented,
	// or -1 for background.
	valueDepthRec(c Coord) int

	setValueRec(c Coord, v V, mode setMode, bg V)
	setActiveStateRec(c Coord, on bool, bg V)

	activeVoxelCount() uint64
	activeTileCount() uint64
	leafCount() uint64
	nonLeafCount() uint64
	memUsage() uint64
	memUsageIfLoaded() uint64

	evalActiveBoundingBox(b *CoordBBox)
	evalLeafBoundingBox(b *CoordBBox)

	// pruneRec prunes the subtree bottom-up and reports whether the
	// whole subtree is uniform under eq, and if so as which value and
	// active state.
	pruneRec(eq func(a, b V) bool, bg V) (v V, active, uniform bool)

	topoEqual(o noder[V]) bool
	deepCopyRec() noder[V]

	eachLeaf(fn func(*Leaf[V]) bool) bool
	probeLeafRec(c Coord) *Leaf[V]
	touchLeafRec(c Coord, bg V) *Leaf[V]
}

// ########## Leaf as noder ##########

func (l *Leaf[V]) nodeOrigin() Coord { return l.origin }

func (l *Leaf[V]) probeVoxel(c Coord) (V, bool, bool) {
	v, on := l.probeValue(c)
	return v, on, true
}

func (l *Leaf[V]) valueDepthRec(Coord) int { return treeDepth - 1 }

func (l *Leaf[V]) setValueRec(c Coord, v V, mode setMode, _ V) {
	switch mode {
	case setOn:
		l.setValueOn(c, v)
	case setOff:
		l.setValueOff(c, v)
	case setOnly:
		l.setValueOnly(c, v)
	}
}

func (l *Leaf[V]) setActiveStateRec(c Coord, on bool, _ V) {
	l.setActiveState(c, on)
}

func (l *Leaf[V]) activeVoxelCount() uint64 { return uint64(l.mask.Size()) }
func (l *Leaf[V]) activeTileCount() uint64  { return 0 }
func (l *Leaf[V]) leafCount() uint64        { return 1 }
func (l *Leaf[V]) nonLeafCount() uint64     { return 0 }
func (l *Leaf[V]) memUsage() uint64         { return l.MemUsage() }
func (l *Leaf[V]) memUsageIfLoaded() uint64 { return l.MemUsageIfLoaded() }

func (l *Leaf[V]) evalLeafBoundingBox(b *CoordBBox) {
	b.ExpandBBox(l.bbox())
}

func (l *Leaf[V]) pruneRec(eq func(a, b V) bool, _ V) (V, bool, bool) {
	return l.isConstant(eq)
}

func (l *Leaf[V]) topoEqual(o noder[V]) bool {
	ol, ok := o.(*Leaf[V])
	return ok && l.topologyEquals(ol)
}

func (l *Leaf[V]) deepCopyRec() noder[V] { return l.deepCopy() }

func (l *Leaf[V]) eachLeaf(fn func(*Leaf[V]) bool) bool { return fn(l) }

func (l *Leaf[V]) probeLeafRec(Coord) *Leaf[V] { return l }

func (l *Leaf[V]) touchLeafRec(Coord, V) *Leaf[V] { return l }
