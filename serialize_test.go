// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

package voxtree

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamRoundTrip(t *testing.T) {
	t.Parallel()
	prng := newPrng()

	src := New[float32](0.5)
	var coords []Coord
	for range workLoadN() {
		c := randomCoord(prng, 1<<16)
		coords = append(coords, c)
		src.SetValue(c, prng.Float32())
	}
	require.NoError(t, src.AddTile(lowerLevel, Coord{-4096, 0, 0}, 7, true))
	require.NoError(t, src.AddTile(upperLevel, Coord{1 << 20, 0, 0}, 8, false))

	var buf bytes.Buffer
	n, err := src.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)

	dst := New[float32](0)
	m, err := dst.ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, n, m)

	assert.Equal(t, src.Background(), dst.Background())
	assert.True(t, src.HasSameTopology(dst), "topology must survive the round trip")
	assert.Equal(t, src.ActiveVoxelCount(), dst.ActiveVoxelCount())
	assert.Equal(t, src.LeafCount(), dst.LeafCount())

	for _, c := range coords {
		wantV, wantOn := src.ProbeValue(c)
		gotV, gotOn := dst.ProbeValue(c)
		require.Equal(t, wantV, gotV, "value at %v", c)
		require.Equal(t, wantOn, gotOn, "state at %v", c)
	}
	v, on := dst.ProbeValue(Coord{-4090, 3, 3})
	assert.Equal(t, float32(7), v)
	assert.True(t, on)
}

func TestStreamChecksum(t *testing.T) {
	t.Parallel()

	src := New[int32](0)
	src.SetValue(Coord{1, 2, 3}, 42)

	var buf bytes.Buffer
	_, err := src.WriteTo(&buf)
	require.NoError(t, err)

	// flip one payload byte, the checksum must catch it
	raw := buf.Bytes()
	raw[len(raw)/2] ^= 0xff

	dst := New[int32](0)
	_, err = dst.ReadFrom(bytes.NewReader(raw))
	require.Error(t, err)
}

func TestStreamBadMagic(t *testing.T) {
	t.Parallel()

	dst := New[int32](0)
	_, err := dst.ReadFrom(bytes.NewReader([]byte("BOGUS stream content")))
	require.ErrorIs(t, err, ErrValue)
}

func TestStreamUnsupportedVersion(t *testing.T) {
	t.Parallel()

	src := New[int32](0)
	src.SetValue(Coord{0, 0, 0}, 1)
	var buf bytes.Buffer
	_, err := src.WriteTo(&buf)
	require.NoError(t, err)

	// bump the version field behind the magic
	raw := buf.Bytes()
	raw[4] = 0xfe

	dst := New[int32](0)
	_, err = dst.ReadFrom(bytes.NewReader(raw))
	require.ErrorIs(t, err, ErrValue)
}

func TestLeafBufferStream(t *testing.T) {
	t.Parallel()

	for _, codec := range []Codec{CodecNone, CodecLZF} {
		src := newLeaf[int16](Coord{0, 0, 0}, 3, false)
		src.setValueOn(Coord{1, 2, 3}, 99)

		var buf bytes.Buffer
		ws := NewWriteStream(&buf, codec)
		require.NoError(t, src.WriteBuffers(ws))

		dst := newLeaf[int16](Coord{0, 0, 0}, 0, false)
		rs := NewReadStream(bytes.NewReader(buf.Bytes()), StreamVersion)
		require.NoError(t, dst.ReadBuffers(rs))

		assert.Equal(t, int16(99), dst.getValue(Coord{1, 2, 3}), "codec %d", codec)
		assert.Equal(t, int16(3), dst.getValue(Coord{0, 0, 0}), "codec %d", codec)
	}
}

func TestLeafBufferStreamUntagged(t *testing.T) {
	t.Parallel()

	l := newLeaf[int16](Coord{0, 0, 0}, 0, false)
	rs := NewReadStream(bytes.NewReader(nil), 0)
	require.ErrorIs(t, l.ReadBuffers(rs), ErrValue)

	rs = NewReadStream(bytes.NewReader(nil), StreamVersion+1)
	require.ErrorIs(t, l.ReadBuffers(rs), ErrValue)
}

func TestOutOfCoreLeaf(t *testing.T) {
	t.Parallel()

	// serialize one leaf, then restore it lazily on first access
	src := newLeaf[float32](Coord{8, 0, 0}, 0, false)
	src.setValueOn(Coord{9, 1, 1}, 5)

	var buf bytes.Buffer
	require.NoError(t, src.WriteBuffers(NewWriteStream(&buf, CodecLZF)))

	restored := 0
	l := newLeafOutOfCore[float32](Coord{8, 0, 0}, 0, func(l *Leaf[float32]) error {
		restored++
		return l.ReadBuffers(NewReadStream(bytes.NewReader(buf.Bytes()), StreamVersion))
	})
	l.mask = src.mask

	require.True(t, l.IsOutOfCore())
	mem := l.MemUsage()
	memLoaded := l.MemUsageIfLoaded()
	assert.Less(t, mem, memLoaded, "out-of-core leaf must not account the buffer")

	// value access faults the buffer in exactly once
	assert.Equal(t, float32(5), l.getValue(Coord{9, 1, 1}))
	assert.Equal(t, float32(5), l.getValue(Coord{9, 1, 1}))
	assert.False(t, l.IsOutOfCore())
	assert.Equal(t, 1, restored)
	assert.Equal(t, memLoaded, l.MemUsage())
}
