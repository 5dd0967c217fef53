// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

// Package bitset implements fixed-size bitsets, a mapping between
// non-negative integers and boolean values.
//
// Studied [github.com/bits-and-blooms/bitset] inside out and rewrote
// the needed parts from scratch for this project. The value-array
// representation keeps the masks inline in their nodes, no pointer and
// no length word per mask.
package bitset

import (
	"math/bits"
)

const wordsPer512 = 512 / 64 // 8

// BitSet512 is a fixed size bitset [0..511], the active-voxel mask of a
// leaf node.
type BitSet512 [wordsPer512]uint64

// MustSet sets the bit, it panics if bit is > 511 by intention!
func (b *BitSet512) MustSet(bit uint) {
	b[bit>>6] |= 1 << (bit & 63)
}

// MustClear clears the bit, it panics if bit is > 511 by intention!
func (b *BitSet512) MustClear(bit uint) {
	b[bit>>6] &^= 1 << (bit & 63)
}

// Test if the bit is set.
func (b *BitSet512) Test(bit uint) (ok bool) {
	if x := int(bit >> 6); x < wordsPer512 {
		return b[x&7]&(1<<(bit&63)) != 0 // [x&7] is bounds check elimination (BCE)
	}
	return
}

// FirstSet returns the first bit set along with an ok code.
func (b *BitSet512) FirstSet() (first uint, ok bool) {
	for wIdx, word := range b {
		if word != 0 {
			return uint(wIdx<<6 + bits.TrailingZeros64(word)), true
		}
	}
	return
}

// NextSet returns the next bit set from the specified start bit,
// including possibly the current bit, along with an ok code.
func (b *BitSet512) NextSet(bit uint) (uint, bool) {
	wIdx := int(bit >> 6)
	if wIdx >= wordsPer512 {
		return 0, false
	}

	// process the first (maybe partial) word
	if first := b[wIdx] >> (bit & 63); first != 0 {
		return bit + uint(bits.TrailingZeros64(first)), true
	}

	// process the following words until the next bit is set
	wIdx++
	for jIdx, word := range b[wIdx:] {
		if word != 0 {
			return uint((wIdx+jIdx)<<6 + bits.TrailingZeros64(word)), true
		}
	}
	return 0, false
}

// Rank0 returns the set bits up to and including idx, minus 1, the
// mapping between bit index and compressed slice index.
func (b *BitSet512) Rank0(idx uint) (rnk int) {
	idx++ // Rank count is inclusive
	wIdx := min(wordsPer512, int(idx>>6))

	// sum up the popcounts of the full words ...
	for jIdx := range wIdx {
		rnk += bits.OnesCount64(b[jIdx])
	}

	// ... plus the partial word at wIdx
	if wIdx < wordsPer512 {
		rnk += bits.OnesCount64(b[wIdx] << (64 - idx&63))
	}

	rnk-- // decrement, offset by one for slice index
	return
}

// IsEmpty returns true if no bit is set.
func (b *BitSet512) IsEmpty() bool {
	for _, word := range b {
		if word != 0 {
			return false
		}
	}
	return true
}

// IsFull returns true if every bit is set.
func (b *BitSet512) IsFull() bool {
	for _, word := range b {
		if word != ^uint64(0) {
			return false
		}
	}
	return true
}

// SetAll sets every bit.
func (b *BitSet512) SetAll() {
	for wIdx := range b {
		b[wIdx] = ^uint64(0)
	}
}

// ClearAll clears every bit.
func (b *BitSet512) ClearAll() {
	clear(b[:])
}

// Size is the number of set bits (popcount).
func (b *BitSet512) Size() (cnt int) {
	for _, word := range b {
		cnt += bits.OnesCount64(word)
	}
	return
}

// Equal reports whether both sets have exactly the same bits set.
func (b *BitSet512) Equal(c *BitSet512) bool {
	return *b == *c
}

// Union sets b to the union of b and c.
func (b *BitSet512) Union(c *BitSet512) {
	for wIdx, word := range c {
		b[wIdx] |= word
	}
}

// Intersection sets b to the intersection of b and c.
func (b *BitSet512) Intersection(c *BitSet512) {
	for wIdx, word := range c {
		b[wIdx] &= word
	}
}

// AsSlice returns all set bits as a slice of uint without heap
// allocations.
//
// This is faster than allocating per call, but also more dangerous,
// it panics if the capacity of buf is < b.Size().
func (b *BitSet512) AsSlice(buf []uint) []uint {
	buf = buf[:cap(buf)] // use cap as max len

	size := 0
	for wIdx, word := range b {
		for ; word != 0; size++ {
			buf[size] = uint(wIdx<<6 + bits.TrailingZeros64(word))

			// clear the rightmost set bit
			word &= word - 1
		}
	}

	return buf[:size]
}

// All returns all set bits. Simpler API but slower than AsSlice.
func (b *BitSet512) All() []uint {
	return b.AsSlice(make([]uint, 0, 512))
}
