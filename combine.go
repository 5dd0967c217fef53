// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

package voxtree

import (
	"fmt"
	"unsafe"
)

// Numeric is the value constraint of the arithmetic compositing family.
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// CombineOp merges one point of two trees: both values with their
// active states in, the combined value and state out. It is applied
// over the union of both trees' represented space; the unrepresented
// side reads its tree's background, inactive.
type CombineOp[V any] func(av, bv V, aOn, bOn bool) (V, bool)

// isFloat reports whether V is a floating point type. Runs on values,
// not reflection, so ~named float types qualify too.
func isFloat[V Numeric]() bool {
	return V(1)/V(2) != 0
}

// intLimits returns the representable range of an integer V.
// Must not be called for float types.
func intLimits[V Numeric]() (lo, hi V) {
	if V(0)-V(1) > 0 {
		return 0, V(0) - V(1) // unsigned wraps to max
	}
	// signed: build 2^(bits-1)-1 by doubling, no overflow on the way
	bits := unsafe.Sizeof(lo) * 8
	m := V(1)
	for i := uintptr(2); i < bits; i++ {
		m *= 2
	}
	hi = m - 1 + m
	lo = -hi - 1
	return lo, hi
}

// divide is the compositing division: floats produce ±Inf and NaN the
// IEEE way, integer division by zero saturates to the type limits with
// 0/0 defined as 0. Saturation stands in for infinity on types that
// have none, a numeric decision, not an error path.
func divide[V Numeric](x, y V) V {
	if isFloat[V]() || y != 0 {
		return x / y
	}
	switch {
	case x == 0:
		return 0
	case x > 0:
		_, hi := intLimits[V]()
		return hi
	default:
		lo, _ := intLimits[V]()
		return lo
	}
}

// Combine merges b into a with op, voxel by voxel and tile by tile over
// the union of both topologies. b is consumed: its nodes are grafted
// into a where a has none, and b is left empty. a keeps its background.
// Combining a tree with itself applies op(v, v) over its topology and
// leaves the tree intact.
func Combine[V comparable](a, b *Tree[V], op CombineOp[V]) {
	if a == b {
		// read the operand from a snapshot, consume that instead
		b = a.DeepCopy()
	}
	a.structMu.Lock()
	combineRoot(&a.root, &b.root, op)
	a.structMu.Unlock()
	b.Clear()
	a.invalidateAccessors()
}

// Combine2 is the non-destructive variant: a and b are left untouched,
// the combined tree is returned.
func Combine2[V comparable](a, b *Tree[V], op CombineOp[V]) *Tree[V] {
	out := a.DeepCopy()
	scratch := b.DeepCopy()
	Combine(out, scratch, op)
	return out
}

func combineRoot[V comparable](a, b *rootNode[V], op CombineOp[V]) {
	bgA, bgB := a.background, b.background

	// snapshot both tables, the merge below mutates a's
	var aEntries, bEntries []rootEntry[V]
	a.ascend(func(e rootEntry[V]) bool { aEntries = append(aEntries, e); return true })
	b.ascend(func(e rootEntry[V]) bool { bEntries = append(bEntries, e); return true })

	inB := make(map[Coord]bool, len(bEntries))
	for _, be := range bEntries {
		inB[be.key] = true
		ae, ok := a.getEntry(be.key)
		if !ok {
			ae = rootEntry[V]{key: be.key, tile: bgA}
		}
		a.setEntry(combineEntries(ae, be, op, bgA, bgB))
	}
	for _, ae := range aEntries {
		if inB[ae.key] {
			continue
		}
		// region only represented in a, the b side reads background
		be := rootEntry[V]{key: ae.key, tile: bgB}
		a.setEntry(combineEntries(ae, be, op, bgA, bgB))
	}
}

func combineEntries[V comparable](ae, be rootEntry[V], op CombineOp[V], bgA, bgB V) rootEntry[V] {
	switch {
	case ae.isChild() && be.isChild():
		combineNode(ae.child, be.child, op, bgA, bgB)
		return ae
	case ae.isChild():
		combineNodeTile[V](ae.child, be.tile, be.active, op, bgA, bgA, false)
		return ae
	case be.isChild():
		// graft b's node into a, then fold a's tile into it
		combineNodeTile[V](be.child, ae.tile, ae.active, op, bgB, bgA, true)
		return rootEntry[V]{key: ae.key, child: be.child}
	default:
		v, on := op(ae.tile, be.tile, ae.active, be.active)
		return rootEntry[V]{key: ae.key, tile: v, active: on}
	}
}

// combineNode merges same-level internal node y into x slot by slot.
func combineNode[V comparable](x, y *internalNode[V], op CombineOp[V], bgA, bgB V) {
	for slot := uint(0); slot < nodeSize; slot++ {
		xc, xIsChild := x.children.Get(slot)
		yc, yIsChild := y.children.Get(slot)

		switch {
		case xIsChild && yIsChild:
			combineChildren(xc, yc, op, bgA, bgB)

		case xIsChild:
			yv, yOn := bgB, false
			if tv, ok := y.tiles.Get(slot); ok {
				yv, yOn = tv, y.valueMask.Test(slot)
			}
			combineNodeTile[V](xc, yv, yOn, op, bgA, bgA, false)

		case yIsChild:
			xv, xOn := bgA, false
			if tv, ok := x.tiles.Get(slot); ok {
				xv, xOn = tv, x.valueMask.Test(slot)
				x.tiles.DeleteAt(slot)
				x.valueMask.MustClear(slot)
			}
			combineNodeTile[V](yc, xv, xOn, op, bgB, bgA, true)
			x.children.InsertAt(slot, yc)

		default:
			xv, xOn, xHad := bgA, false, false
			if tv, ok := x.tiles.Get(slot); ok {
				xv, xOn, xHad = tv, x.valueMask.Test(slot), true
			}
			yv, yOn := bgB, false
			if tv, ok := y.tiles.Get(slot); ok {
				yv, yOn = tv, y.valueMask.Test(slot)
			}
			v, on := op(xv, yv, xOn, yOn)
			if xHad || on || v != bgA {
				x.setTile(x.slotOrigin(slot), v, on)
			}
		}
	}
}

// combineChildren merges two same-level children, leaves or internals.
func combineChildren[V comparable](x, y noder[V], op CombineOp[V], bgA, bgB V) {
	switch xn := x.(type) {
	case *Leaf[V]:
		combineLeaf(xn, y.(*Leaf[V]), op)
	case *internalNode[V]:
		combineNode(xn, y.(*internalNode[V]), op, bgA, bgB)
	}
}

func combineLeaf[V comparable](x, y *Leaf[V], op CombineOp[V]) {
	x.mustLoad()
	y.mustLoad()
	for off := uint(0); off < leafSize; off++ {
		v, on := op(x.buf[off], y.buf[off], x.mask.Test(off), y.mask.Test(off))
		x.buf[off] = v
		if on {
			x.mask.MustSet(off)
		} else {
			x.mask.MustClear(off)
		}
	}
}

// combineNodeTile folds a constant tile into an existing subtree.
// bgIn is what the subtree's empty slots read as input, bgOut is the
// background of the tree the subtree will belong to afterwards.
// tileOnLeft keeps the operand order for non-commutative ops.
func combineNodeTile[V comparable](nd noder[V], tv V, tOn bool, op CombineOp[V], bgIn, bgOut V, tileOnLeft bool) {
	apply := func(v V, on bool) (V, bool) {
		if tileOnLeft {
			return op(tv, v, tOn, on)
		}
		return op(v, tv, on, tOn)
	}

	switch n := nd.(type) {
	case *Leaf[V]:
		n.mustLoad()
		for off := uint(0); off < leafSize; off++ {
			v, on := apply(n.buf[off], n.mask.Test(off))
			n.buf[off] = v
			if on {
				n.mask.MustSet(off)
			} else {
				n.mask.MustClear(off)
			}
		}

	case *internalNode[V]:
		for slot := uint(0); slot < nodeSize; slot++ {
			if child, ok := n.children.Get(slot); ok {
				combineNodeTile[V](child, tv, tOn, op, bgIn, bgOut, tileOnLeft)
				continue
			}
			if n.tiles.Test(slot) {
				on := n.valueMask.Test(slot)
				n.tiles.UpdateAt(slot, func(cv V, _ bool) V {
					v, o := apply(cv, on)
					on = o
					return v
				})
				if on {
					n.valueMask.MustSet(slot)
				} else {
					n.valueMask.MustClear(slot)
				}
				continue
			}
			v, on := apply(bgIn, false)
			if on || v != bgOut {
				n.setTile(n.slotOrigin(slot), v, on)
			}
		}
	}
}

// ########## compositing wrappers ##########

// CompMax composites b into a keeping the larger value; b is consumed.
func CompMax[V Numeric](a, b *Tree[V]) {
	Combine(a, b, func(x, y V, xOn, yOn bool) (V, bool) { return max(x, y), xOn || yOn })
}

// CompMin composites b into a keeping the smaller value; b is consumed.
func CompMin[V Numeric](a, b *Tree[V]) {
	Combine(a, b, func(x, y V, xOn, yOn bool) (V, bool) { return min(x, y), xOn || yOn })
}

// CompSum adds b into a; b is consumed.
func CompSum[V Numeric](a, b *Tree[V]) {
	Combine(a, b, func(x, y V, xOn, yOn bool) (V, bool) { return x + y, xOn || yOn })
}

// CompMul multiplies b into a; b is consumed.
func CompMul[V Numeric](a, b *Tree[V]) {
	Combine(a, b, func(x, y V, xOn, yOn bool) (V, bool) { return x * y, xOn || yOn })
}

// CompDiv divides a by b in place; b is consumed. Division by zero
// follows the divide saturation rules.
func CompDiv[V Numeric](a, b *Tree[V]) {
	Combine(a, b, func(x, y V, xOn, yOn bool) (V, bool) { return divide(x, y), xOn || yOn })
}

// CompReplace copies b's active values into a; b is consumed.
func CompReplace[V comparable](a, b *Tree[V]) {
	Combine(a, b, func(x, y V, xOn, yOn bool) (V, bool) {
		if yOn {
			return y, true
		}
		return x, xOn
	})
}

// ########## CSG on level sets ##########

// levelSetGuard rejects CSG on value types that cannot hold a signed
// distance field.
func levelSetGuard[V Numeric]() error {
	if !isFloat[V]() {
		var zero V
		return fmt.Errorf("%w: csg requires a floating point level set, got %T values", ErrValue, zero)
	}
	return nil
}

// CSGUnion merges level set b into a (signed distance minimum).
// b is consumed. Both trees should share the same background half-width.
func CSGUnion[V Numeric](a, b *Tree[V]) error {
	if err := levelSetGuard[V](); err != nil {
		return err
	}
	Combine(a, b, func(x, y V, xOn, yOn bool) (V, bool) { return min(x, y), xOn || yOn })
	a.Prune()
	return nil
}

// CSGIntersection intersects level set b with a (signed distance
// maximum). b is consumed.
func CSGIntersection[V Numeric](a, b *Tree[V]) error {
	if err := levelSetGuard[V](); err != nil {
		return err
	}
	Combine(a, b, func(x, y V, xOn, yOn bool) (V, bool) { return max(x, y), xOn || yOn })
	a.Prune()
	return nil
}

// CSGDifference carves level set b out of a (maximum against the
// negated operand). b is consumed.
func CSGDifference[V Numeric](a, b *Tree[V]) error {
	if err := levelSetGuard[V](); err != nil {
		return err
	}
	Combine(a, b, func(x, y V, xOn, yOn bool) (V, bool) { return max(x, -y), xOn || yOn })
	a.Prune()
	return nil
}

// PruneTolerance collapses subtrees whose values agree within tol, the
// relaxed variant of Tree.Prune for approximately uniform regions.
func PruneTolerance[V Numeric](t *Tree[V], tol V) {
	t.pruneWith(func(a, b V) bool {
		if a < b {
			a, b = b, a
		}
		return a-b <= tol
	})
}
