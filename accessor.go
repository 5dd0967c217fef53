// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

package voxtree

// Accessor is a cursor over one tree that remembers the node path of
// its last lookup. Spatially coherent access patterns then resolve in
// the leaf instead of descending from the root every time.
//
// An accessor belongs to one goroutine. Independent accessors on the
// same tree are safe for concurrent reads, and for concurrent writes
// into disjoint, already existing leaves; anything structural needs
// external synchronization, see the package documentation.
type Accessor[V comparable] struct {
	tree *Tree[V]

	// number of cached levels, counted from the leaf up
	levels int

	leaf  *Leaf[V]
	lower *internalNode[V]
	upper *internalNode[V]

	leafKey  Coord
	lowerKey Coord
	upperKey Coord

	// background at release time, answered by reads afterwards
	bg V
}

// NewAccessor returns a fully caching accessor (leaf, lower and upper
// internal node) registered with t. Call Release when done with it.
func NewAccessor[V comparable](t *Tree[V]) *Accessor[V] {
	return NewAccessorCached(t, treeDepth-1)
}

// NewAccessorCached returns an accessor caching the lowest levels
// nodes of each lookup path, 0 (no caching) through 3.
func NewAccessorCached[V comparable](t *Tree[V], levels int) *Accessor[V] {
	if levels < 0 || levels >= treeDepth {
		panic("voxtree: accessor cache levels out of range")
	}
	a := &Accessor[V]{tree: t, levels: levels}
	t.registerAccessor(a)
	return a
}

// Release deregisters the accessor. Reads afterwards answer the
// background the tree had at release time, writes panic.
func (a *Accessor[V]) Release() {
	if a.tree == nil {
		return
	}
	a.tree.releaseAccessor(a)
	a.clearCache()
	a.bg = a.tree.root.background
	a.tree = nil
}

// background is the tree's background, surviving Release.
func (a *Accessor[V]) background() V {
	if a.tree == nil {
		return a.bg
	}
	return a.tree.root.background
}

// Clear drops the cached path; the next access descends from the root.
func (a *Accessor[V]) Clear() { a.clearCache() }

func (a *Accessor[V]) clearCache() {
	a.leaf, a.lower, a.upper = nil, nil, nil
}

// IsCached reports whether any cached node on the path covers c.
func (a *Accessor[V]) IsCached(c Coord) bool {
	return a.leafFor(c) != nil || a.lowerFor(c) != nil || a.upperFor(c) != nil
}

func (a *Accessor[V]) leafFor(c Coord) *Leaf[V] {
	if a.leaf != nil && c.maskLow(leafTotalLog2) == a.leafKey {
		return a.leaf
	}
	return nil
}

func (a *Accessor[V]) lowerFor(c Coord) *internalNode[V] {
	if a.lower != nil && c.maskLow(lowerTotalLog2) == a.lowerKey {
		return a.lower
	}
	return nil
}

func (a *Accessor[V]) upperFor(c Coord) *internalNode[V] {
	if a.upper != nil && c.maskLow(upperTotalLog2) == a.upperKey {
		return a.upper
	}
	return nil
}

func (a *Accessor[V]) cacheLeaf(c Coord, l *Leaf[V]) {
	if a.levels >= 1 {
		a.leaf, a.leafKey = l, c.maskLow(leafTotalLog2)
	}
}

func (a *Accessor[V]) cacheLower(c Coord, n *internalNode[V]) {
	if a.levels >= 2 {
		a.lower, a.lowerKey = n, c.maskLow(lowerTotalLog2)
	}
}

func (a *Accessor[V]) cacheUpper(c Coord, n *internalNode[V]) {
	if a.levels >= 3 {
		a.upper, a.upperKey = n, c.maskLow(upperTotalLog2)
	}
}

// probe resolves c through the cache, descending from the deepest valid
// cached node and caching every node it passes. Reports the value, its
// active state, and whether c is represented at all.
func (a *Accessor[V]) probe(c Coord) (V, bool, bool) {
	if a.tree == nil {
		return a.bg, false, false
	}
	if l := a.leafFor(c); l != nil {
		v, on := l.probeValue(c)
		return v, on, true
	}
	if n := a.lowerFor(c); n != nil {
		return a.probeFrom(c, n)
	}
	if n := a.upperFor(c); n != nil {
		return a.probeFrom(c, n)
	}

	e, ok := a.tree.root.getEntry(rootKey(c))
	if !ok {
		return a.tree.root.background, false, false
	}
	if !e.isChild() {
		return e.tile, e.active, true
	}
	a.cacheUpper(c, e.child)
	return a.probeFrom(c, e.child)
}

// probeFrom descends from the given internal node, caching as it goes.
func (a *Accessor[V]) probeFrom(c Coord, n *internalNode[V]) (V, bool, bool) {
	for {
		slot := n.slotOf(c)
		if !n.isChildMaskOn(slot) {
			v, _ := n.tiles.Get(slot)
			return v, n.isValueMaskOn(slot), n.tiles.Test(slot)
		}
		child := n.children.MustGet(slot)
		switch nd := child.(type) {
		case *Leaf[V]:
			a.cacheLeaf(c, nd)
			v, on := nd.probeValue(c)
			return v, on, true
		case *internalNode[V]:
			a.cacheLower(c, nd)
			n = nd
		}
	}
}

// ensureLeaf returns the leaf containing c, creating the path if
// needed, and caches every node it touches.
func (a *Accessor[V]) ensureLeaf(c Coord) *Leaf[V] {
	if a.tree == nil {
		panic("voxtree: write through a released accessor")
	}
	if l := a.leafFor(c); l != nil {
		return l
	}

	n := a.lowerFor(c)
	if n == nil {
		n = a.upperFor(c)
	}
	if n == nil {
		a.tree.structMu.Lock()
		n = a.tree.root.ensureChild(c)
		a.tree.structMu.Unlock()
		a.cacheUpper(c, n)
	}

	bg := a.tree.root.background
	for {
		child := n.probeChild(c)
		if child == nil {
			a.tree.structMu.Lock()
			child = n.ensureChild(c, bg)
			a.tree.structMu.Unlock()
		}
		switch nd := child.(type) {
		case *Leaf[V]:
			a.cacheLeaf(c, nd)
			return nd
		case *internalNode[V]:
			a.cacheLower(c, nd)
			n = nd
		}
	}
}

// GetValue returns the value at c.
func (a *Accessor[V]) GetValue(c Coord) V {
	v, _, found := a.probe(c)
	if !found {
		return a.background()
	}
	return v
}

// IsValueOn reports whether the voxel at c is active.
func (a *Accessor[V]) IsValueOn(c Coord) bool {
	_, on, _ := a.probe(c)
	return on
}

// ProbeValue returns the value at c and whether it is active.
func (a *Accessor[V]) ProbeValue(c Coord) (V, bool) {
	v, on, found := a.probe(c)
	if !found {
		return a.background(), false
	}
	return v, on
}

// SetValue sets the voxel at c to v and marks it active.
func (a *Accessor[V]) SetValue(c Coord, v V) {
	a.ensureLeaf(c).setValueOn(c, v)
}

// SetValueOn is an alias of SetValue.
func (a *Accessor[V]) SetValueOn(c Coord, v V) {
	a.ensureLeaf(c).setValueOn(c, v)
}

// SetValueOff sets the voxel at c to v and marks it inactive.
func (a *Accessor[V]) SetValueOff(c Coord, v V) {
	a.ensureLeaf(c).setValueOff(c, v)
}

// SetValueOnly sets the voxel's value without touching its active state.
func (a *Accessor[V]) SetValueOnly(c Coord, v V) {
	a.ensureLeaf(c).setValueOnly(c, v)
}

// SetActiveState flips the active state at c without changing values.
func (a *Accessor[V]) SetActiveState(c Coord, on bool) {
	if l := a.leafFor(c); l != nil {
		l.setActiveState(c, on)
		return
	}
	// deactivating unrepresented space is a no-op, don't densify for it
	if !on {
		if _, _, found := a.probe(c); !found {
			return
		}
	}
	a.ensureLeaf(c).setActiveState(c, on)
}

// GetValueDepth returns the depth at which c is represented, caching
// the path like any other lookup.
func (a *Accessor[V]) GetValueDepth(c Coord) int {
	if a.tree == nil {
		return -1
	}
	if a.leafFor(c) != nil {
		return treeDepth - 1
	}
	if n := a.lowerFor(c); n != nil {
		return a.depthFrom(c, n)
	}
	if n := a.upperFor(c); n != nil {
		return a.depthFrom(c, n)
	}
	e, ok := a.tree.root.getEntry(rootKey(c))
	if !ok {
		return -1
	}
	if !e.isChild() {
		return 0
	}
	a.cacheUpper(c, e.child)
	return a.depthFrom(c, e.child)
}

func (a *Accessor[V]) depthFrom(c Coord, n *internalNode[V]) int {
	for {
		slot := n.slotOf(c)
		if !n.isChildMaskOn(slot) {
			if n.tiles.Test(slot) {
				return treeDepth - 1 - int(n.level)
			}
			return -1
		}
		switch nd := n.children.MustGet(slot).(type) {
		case *Leaf[V]:
			a.cacheLeaf(c, nd)
			return treeDepth - 1
		case *internalNode[V]:
			a.cacheLower(c, nd)
			n = nd
		}
	}
}

// TouchLeaf returns the leaf containing c, creating it if needed.
func (a *Accessor[V]) TouchLeaf(c Coord) *Leaf[V] {
	return a.ensureLeaf(c)
}

// ProbeLeaf returns the leaf containing c without creating one,
// caching the path on a hit.
func (a *Accessor[V]) ProbeLeaf(c Coord) *Leaf[V] {
	if a.tree == nil {
		return nil
	}
	if l := a.leafFor(c); l != nil {
		return l
	}
	n := a.lowerFor(c)
	if n == nil {
		n = a.upperFor(c)
	}
	if n == nil {
		e, ok := a.tree.root.getEntry(rootKey(c))
		if !ok || !e.isChild() {
			return nil
		}
		a.cacheUpper(c, e.child)
		n = e.child
	}
	for {
		child := n.probeChild(c)
		if child == nil {
			return nil
		}
		switch nd := child.(type) {
		case *Leaf[V]:
			a.cacheLeaf(c, nd)
			return nd
		case *internalNode[V]:
			a.cacheLower(c, nd)
			n = nd
		}
	}
}
