// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

package bitset

import (
	"math/bits"
)

const wordsPer4096 = 4096 / 64 // 64

// BitSet4096 is a fixed size bitset [0..4095], the child and value
// masks of an internal node.
type BitSet4096 [wordsPer4096]uint64

// MustSet sets the bit, it panics if bit is > 4095 by intention!
func (b *BitSet4096) MustSet(bit uint) {
	b[bit>>6] |= 1 << (bit & 63)
}

// MustClear clears the bit, it panics if bit is > 4095 by intention!
func (b *BitSet4096) MustClear(bit uint) {
	b[bit>>6] &^= 1 << (bit & 63)
}

// Test if the bit is set.
func (b *BitSet4096) Test(bit uint) (ok bool) {
	if x := int(bit >> 6); x < wordsPer4096 {
		return b[x&63]&(1<<(bit&63)) != 0 // [x&63] is bounds check elimination (BCE)
	}
	return
}

// FirstSet returns the first bit set along with an ok code.
func (b *BitSet4096) FirstSet() (first uint, ok bool) {
	for wIdx, word := range b {
		if word != 0 {
			return uint(wIdx<<6 + bits.TrailingZeros64(word)), true
		}
	}
	return
}

// NextSet returns the next bit set from the specified start bit,
// including possibly the current bit, along with an ok code.
func (b *BitSet4096) NextSet(bit uint) (uint, bool) {
	wIdx := int(bit >> 6)
	if wIdx >= wordsPer4096 {
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
func (b *BitSet4096) Rank0(idx uint) (rnk int) {
	idx++ // Rank count is inclusive
	wIdx := min(wordsPer4096, int(idx>>6))

	// sum up the popcounts of the full words ...
	for jIdx := range wIdx {
		rnk += bits.OnesCount64(b[jIdx])
	}

	// ... plus the partial word at wIdx
	if wIdx < wordsPer4096 {
		rnk += bits.OnesCount64(b[wIdx] << (64 - idx&63))
	}

	rnk-- // decrement, offset by one for slice index
	return
}

// IsEmpty returns true if no bit is set.
func (b *BitSet4096) IsEmpty() bool {
	for _, word := range b {
		if word != 0 {
			return false
		}
	}
	return true
}

// IsFull returns true if every bit is set.
func (b *BitSet4096) IsFull() bool {
	for _, word := range b {
		if word != ^uint64(0) {
			return false
		}
	}
	return true
}

// SetAll sets every bit.
func (b *BitSet4096) SetAll() {
	for wIdx := range b {
		b[wIdx] = ^uint64(0)
	}
}

// ClearAll clears every bit.
func (b *BitSet4096) ClearAll() {
	clear(b[:])
}

// Size is the number of set bits (popcount).
func (b *BitSet4096) Size() (cnt int) {
	for _, word := range b {
		cnt += bits.OnesCount64(word)
	}
	return
}

// Equal reports whether both sets have exactly the same bits set.
func (b *BitSet4096) Equal(c *BitSet4096) bool {
	return *b == *c
}

// IntersectsAny returns true if the intersection of b and c is not the
// empty set.
func (b *BitSet4096) IntersectsAny(c *BitSet4096) bool {
	for wIdx, word := range c {
		if b[wIdx]&word != 0 {
			return true
		}
	}
	return false
}

// AsSlice returns all set bits as a slice of uint without heap
// allocations.
//
// This is faster than allocating per call, but also more dangerous,
// it panics if the capacity of buf is < b.Size().
func (b *BitSet4096) AsSlice(buf []uint) []uint {
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
func (b *BitSet4096) All() []uint {
	return b.AsSlice(make([]uint, 0, 4096))
}
