// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

package voxtree

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
	lzf "github.com/zhuyie/golzf"

	"github.com/voxtree/voxtree/internal/bitset"
)

// stream format:
//
//	magic "VOXT" | version u32 | codec u8
//	background value
//	root entry count u32
//	per entry: key 3xi32 | kind u8 | tile (value, active u8) or node
//	per node: level u8 | child mask | value mask | tile mask |
//	          tile values in rank order | children in slot order
//	per leaf: active mask | buffer record (codec u8, raw u32,
//	          stored u32, bytes)
//	footer: blake3 sum (32 bytes) over everything before it
//
// all integers little endian

var streamMagic = [4]byte{'V', 'O', 'X', 'T'}

// StreamVersion is the current on-stream format version. Readers accept
// any version they know how to decode, never a later one.
const StreamVersion uint32 = 1

// Codec selects the leaf buffer compression.
type Codec uint8

const (
	CodecNone Codec = iota
	CodecLZF
)

const checksumLen = 32

var le = binary.LittleEndian

// Stream carries the format context of one serialization pass. Leaf
// buffer read paths consult Version instead of assuming a layout, the
// on-stream leaf layout may change between versions.
type Stream struct {
	Version uint32
	Codec   Codec

	w io.Writer
	r io.Reader
}

// NewWriteStream returns a stream writing the current version with the
// given leaf codec.
func NewWriteStream(w io.Writer, codec Codec) *Stream {
	return &Stream{Version: StreamVersion, Codec: codec, w: w}
}

// NewReadStream returns a stream reading buffers tagged with the given
// version.
func NewReadStream(r io.Reader, version uint32) *Stream {
	return &Stream{Version: version, r: r}
}

func (s *Stream) checkVersion() error {
	if s.Version == 0 || s.Version > StreamVersion {
		return fmt.Errorf("%w: unsupported stream version %d", ErrValue, s.Version)
	}
	return nil
}

// ########## value codec ##########

// writeValue encodes one fixed-size value. Value types binary/encoding
// cannot size are not streamable.
func writeValue[V comparable](w io.Writer, v V) error {
	if err := binary.Write(w, le, v); err != nil {
		return fmt.Errorf("%w: value type %T is not streamable: %w", ErrNotImplemented, v, err)
	}
	return nil
}

func readValue[V comparable](r io.Reader, v *V) error {
	if err := binary.Read(r, le, v); err != nil {
		return fmt.Errorf("read value: %w", err)
	}
	return nil
}

// ########## leaf buffers ##########

// WriteBuffers writes the leaf's voxel buffer to the stream, compressed
// with the stream's codec. The active mask is the caller's concern, the
// record holds values only.
func (l *Leaf[V]) WriteBuffers(s *Stream) error {
	if err := s.checkVersion(); err != nil {
		return err
	}
	l.mustLoad()

	var raw bytes.Buffer
	if err := writeValue(&raw, *l.buf); err != nil {
		return err
	}

	codec, data := CodecNone, raw.Bytes()
	if s.Codec == CodecLZF {
		// keep the compressed form only when it is actually smaller
		out := make([]byte, len(data)-1)
		if n, err := lzf.Compress(data, out); err == nil && n > 0 {
			codec, data = CodecLZF, out[:n]
		}
	}

	if _, err := s.w.Write([]byte{byte(codec)}); err != nil {
		return err
	}
	if err := binary.Write(s.w, le, uint32(raw.Len())); err != nil {
		return err
	}
	if err := binary.Write(s.w, le, uint32(len(data))); err != nil {
		return err
	}
	_, err := s.w.Write(data)
	return err
}

// ReadBuffers reads the leaf's voxel buffer from the stream. The stream
// must have been tagged with the serialization version first.
func (l *Leaf[V]) ReadBuffers(s *Stream) error {
	if err := s.checkVersion(); err != nil {
		return err
	}

	var rec [1]byte
	if _, err := io.ReadFull(s.r, rec[:]); err != nil {
		return err
	}
	var rawLen, storedLen uint32
	if err := binary.Read(s.r, le, &rawLen); err != nil {
		return err
	}
	if err := binary.Read(s.r, le, &storedLen); err != nil {
		return err
	}
	data := make([]byte, storedLen)
	if _, err := io.ReadFull(s.r, data); err != nil {
		return err
	}

	switch Codec(rec[0]) {
	case CodecNone:
	case CodecLZF:
		out := make([]byte, rawLen)
		if _, err := lzf.Decompress(data, out); err != nil {
			return fmt.Errorf("lzf decompress: %w", err)
		}
		data = out
	default:
		return fmt.Errorf("%w: unknown leaf codec %d", ErrValue, rec[0])
	}

	l.buf = new(leafBuffer[V])
	l.restore = nil
	return readValue(bytes.NewReader(data), l.buf)
}

// ########## tree stream ##########

// WriteTo streams the whole tree, LZF-compressed leaf buffers and a
// blake3 checksum footer. Implements io.WriterTo.
func (t *Tree[V]) WriteTo(w io.Writer) (int64, error) {
	hasher := blake3.New()
	cw := &countWriter{w: io.MultiWriter(w, hasher)}
	s := NewWriteStream(cw, CodecLZF)

	err := func() error {
		if _, err := cw.Write(streamMagic[:]); err != nil {
			return err
		}
		if err := binary.Write(cw, le, s.Version); err != nil {
			return err
		}
		if _, err := cw.Write([]byte{byte(s.Codec)}); err != nil {
			return err
		}
		if err := writeValue(cw, t.root.background); err != nil {
			return err
		}

		if err := binary.Write(cw, le, uint32(t.root.table.Len())); err != nil {
			return err
		}
		var entryErr error
		t.root.ascend(func(e rootEntry[V]) bool {
			entryErr = writeRootEntry(s, e)
			return entryErr == nil
		})
		return entryErr
	}()
	if err != nil {
		return cw.n, err
	}

	sum := hasher.Sum(nil)
	m, err := w.Write(sum)
	return cw.n + int64(m), err
}

func writeRootEntry[V comparable](s *Stream, e rootEntry[V]) error {
	if err := binary.Write(s.w, le, e.key); err != nil {
		return err
	}
	if !e.isChild() {
		if _, err := s.w.Write([]byte{0}); err != nil {
			return err
		}
		if err := writeValue(s.w, e.tile); err != nil {
			return err
		}
		return binary.Write(s.w, le, e.active)
	}
	if _, err := s.w.Write([]byte{1}); err != nil {
		return err
	}
	return writeNode(s, e.child)
}

func writeNode[V comparable](s *Stream, n *internalNode[V]) error {
	if err := binary.Write(s.w, le, n.level); err != nil {
		return err
	}
	if err := binary.Write(s.w, le, n.children.BitSet4096); err != nil {
		return err
	}
	if err := binary.Write(s.w, le, n.valueMask); err != nil {
		return err
	}
	if err := binary.Write(s.w, le, n.tiles.BitSet4096); err != nil {
		return err
	}
	for _, v := range n.tiles.Items {
		if err := writeValue(s.w, v); err != nil {
			return err
		}
	}
	for _, child := range n.children.Items {
		switch c := child.(type) {
		case *Leaf[V]:
			if err := binary.Write(s.w, le, c.mask); err != nil {
				return err
			}
			if err := c.WriteBuffers(s); err != nil {
				return err
			}
		case *internalNode[V]:
			if err := writeNode(s, c); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadFrom replaces the tree's contents with a stream written by
// WriteTo, verifying the checksum footer. Implements io.ReaderFrom.
func (t *Tree[V]) ReadFrom(r io.Reader) (int64, error) {
	hasher := blake3.New()
	cr := &countReader{r: io.TeeReader(r, hasher)}

	var magic [4]byte
	if _, err := io.ReadFull(cr, magic[:]); err != nil {
		return cr.n, err
	}
	if magic != streamMagic {
		return cr.n, fmt.Errorf("%w: bad stream magic %q", ErrValue, magic[:])
	}
	var version uint32
	if err := binary.Read(cr, le, &version); err != nil {
		return cr.n, err
	}
	var codec [1]byte
	if _, err := io.ReadFull(cr, codec[:]); err != nil {
		return cr.n, err
	}
	s := NewReadStream(cr, version)
	s.Codec = Codec(codec[0])
	if err := s.checkVersion(); err != nil {
		return cr.n, err
	}

	var bg V
	if err := readValue(cr, &bg); err != nil {
		return cr.n, err
	}
	root := newRootNode(bg)

	var entries uint32
	if err := binary.Read(cr, le, &entries); err != nil {
		return cr.n, err
	}
	for i := uint32(0); i < entries; i++ {
		e, err := readRootEntry[V](s)
		if err != nil {
			return cr.n, err
		}
		root.setEntry(e)
	}

	sum := hasher.Sum(nil)
	var stored [checksumLen]byte
	m, err := io.ReadFull(r, stored[:])
	if err != nil {
		return cr.n + int64(m), err
	}
	if !bytes.Equal(sum, stored[:]) {
		return cr.n + int64(m), fmt.Errorf("%w: stream checksum mismatch", ErrValue)
	}

	t.structMu.Lock()
	t.root = root
	t.structMu.Unlock()
	t.invalidateAccessors()
	return cr.n + int64(m), nil
}

func readRootEntry[V comparable](s *Stream) (rootEntry[V], error) {
	var e rootEntry[V]
	if err := binary.Read(s.r, le, &e.key); err != nil {
		return e, err
	}
	var kind [1]byte
	if _, err := io.ReadFull(s.r, kind[:]); err != nil {
		return e, err
	}
	if kind[0] == 0 {
		if err := readValue(s.r, &e.tile); err != nil {
			return e, err
		}
		err := binary.Read(s.r, le, &e.active)
		return e, err
	}
	child, err := readNode[V](s, e.key, upperLevel)
	e.child = child
	return e, err
}

func readNode[V comparable](s *Stream, origin Coord, wantLevel uint8) (*internalNode[V], error) {
	var level uint8
	if err := binary.Read(s.r, le, &level); err != nil {
		return nil, err
	}
	if level != wantLevel {
		return nil, fmt.Errorf("%w: node level %d, want %d", ErrValue, level, wantLevel)
	}

	n := newInternal[V](origin, level)
	var childMask bitset.BitSet4096
	if err := binary.Read(s.r, le, &childMask); err != nil {
		return nil, err
	}
	if err := binary.Read(s.r, le, &n.valueMask); err != nil {
		return nil, err
	}
	if err := binary.Read(s.r, le, &n.tiles.BitSet4096); err != nil {
		return nil, err
	}

	n.tiles.Items = make([]V, n.tiles.BitSet4096.Size())
	for i := range n.tiles.Items {
		if err := readValue(s.r, &n.tiles.Items[i]); err != nil {
			return nil, err
		}
	}

	n.children.BitSet4096 = childMask
	n.children.Items = make([]noder[V], childMask.Size())
	i := 0
	for slot, ok := childMask.FirstSet(); ok; slot, ok = childMask.NextSet(slot + 1) {
		childOrigin := n.slotOrigin(slot)
		if level == lowerLevel {
			l := newLeaf[V](childOrigin, *new(V), false)
			if err := binary.Read(s.r, le, &l.mask); err != nil {
				return nil, err
			}
			if err := l.ReadBuffers(s); err != nil {
				return nil, err
			}
			n.children.Items[i] = l
		} else {
			child, err := readNode[V](s, childOrigin, level-1)
			if err != nil {
				return nil, err
			}
			n.children.Items[i] = child
		}
		i++
	}
	return n, nil
}

// ########## counting wrappers ##########

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

type countReader struct {
	r io.Reader
	n int64
}

func (c *countReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
