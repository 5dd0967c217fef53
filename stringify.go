// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

package voxtree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// MarshalText implements the [encoding.TextMarshaler] interface,
// just a wrapper for [Tree.Fprint].
func (t *Tree[V]) MarshalText() ([]byte, error) {
	w := new(bytes.Buffer)
	if err := t.Fprint(w); err != nil {
		return nil, err
	}

	return w.Bytes(), nil
}

// String returns a hierarchical diagram of the node topology as string,
// just a wrapper for [Tree.Fprint]. If Fprint returns an error, String
// panics.
func (t *Tree[V]) String() string {
	w := new(strings.Builder)
	if err := t.Fprint(w); err != nil {
		panic(err)
	}

	return w.String()
}

// Fprint writes a hierarchical diagram of the node topology to w:
// every node with its origin and level, tiles with value and state,
// leaves with their active voxel count. If w is nil, Fprint panics.
//
//	▼
//	├─ node/2 (0,0,0) childs:1 tiles:2
//	│  └─ node/1 (0,0,0) childs:2
//	│     ├─ leaf (0,8,8) on:1/512
//	│     └─ tile/1 (0,16,8) = 5 (on)
//	└─ tile/3 (2048,0,0) = 1 (off)
func (t *Tree[V]) Fprint(w io.Writer) error {
	if t.Empty() {
		return nil
	}
	if _, err := fmt.Fprint(w, "▼\n"); err != nil {
		return err
	}

	var entries []rootEntry[V]
	t.root.ascend(func(e rootEntry[V]) bool { entries = append(entries, e); return true })

	for i, e := range entries {
		glyphe, spacer := "├─ ", "│  "
		if i == len(entries)-1 {
			glyphe, spacer = "└─ ", "   "
		}
		if !e.isChild() {
			if err := fprintTile(w, glyphe, rootLevel, e.key, e.tile, e.active); err != nil {
				return err
			}
			continue
		}
		if err := fprintNodeRec(w, e.child, glyphe, spacer); err != nil {
			return err
		}
	}
	return nil
}

func fprintTile[V any](w io.Writer, pad string, level uint8, origin Coord, v V, active bool) error {
	state := "off"
	if active {
		state = "on"
	}
	_, err := fmt.Fprintf(w, "%stile/%d %s = %v (%s)\n", pad, level, origin, v, state)
	return err
}

func fprintNodeRec[V comparable](w io.Writer, n *internalNode[V], pad, spacer string) error {
	_, err := fmt.Fprintf(w, "%snode/%d %s childs:%d tiles:%d\n",
		pad, n.level, n.origin, n.children.Len(), n.tiles.Len())
	if err != nil {
		return err
	}

	// interleave children and tiles in slot order
	type slotLine struct {
		slot  uint
		child noder[V]
	}
	var lines []slotLine
	for slot := uint(0); slot < nodeSize; slot++ {
		if n.isChildMaskOn(slot) || n.tiles.Test(slot) {
			child, _ := n.children.Get(slot)
			lines = append(lines, slotLine{slot: slot, child: child})
		}
	}

	glyphe, nextSpacer := "├─ ", "│  "
	for i, line := range lines {
		if i == len(lines)-1 {
			glyphe, nextSpacer = "└─ ", "   "
		}
		switch c := line.child.(type) {
		case nil:
			v := n.tiles.MustGet(line.slot)
			if err := fprintTile(w, spacer+glyphe, n.level, n.slotOrigin(line.slot), v, n.isValueMaskOn(line.slot)); err != nil {
				return err
			}
		case *Leaf[V]:
			_, err := fmt.Fprintf(w, "%sleaf %s on:%d/%d\n", spacer+glyphe, c.origin, c.OnVoxelCount(), leafSize)
			if err != nil {
				return err
			}
		case *internalNode[V]:
			if err := fprintNodeRec(w, c, spacer+glyphe, spacer+nextSpacer); err != nil {
				return err
			}
		}
	}
	return nil
}

// ListElement is one topology element of the JSON dump: a node, a tile
// or a leaf, children nested in slot order.
type ListElement[V any] struct {
	Origin   Coord            `json:"origin"`
	Level    uint8            `json:"level"`
	Tile     *V               `json:"tile,omitempty"`
	Active   bool             `json:"active,omitempty"`
	OnVoxels int              `json:"onVoxels,omitempty"`
	Children []ListElement[V] `json:"children,omitempty"`
}

// MarshalJSON dumps the tree as background plus the nested topology,
// an array per level because slot order matters.
func (t *Tree[V]) MarshalJSON() ([]byte, error) {
	result := struct {
		Background V                `json:"background"`
		Roots      []ListElement[V] `json:"roots,omitempty"`
	}{Background: t.root.background}

	result.Roots = t.DumpList()
	return json.Marshal(result)
}

// DumpList dumps the tree into a list of top-level elements and their
// nested children.
func (t *Tree[V]) DumpList() []ListElement[V] {
	var elements []ListElement[V]
	t.root.ascend(func(e rootEntry[V]) bool {
		if e.isChild() {
			elements = append(elements, dumpNode(e.child))
		} else {
			tile := e.tile
			elements = append(elements, ListElement[V]{
				Origin: e.key,
				Level:  rootLevel,
				Tile:   &tile,
				Active: e.active,
			})
		}
		return true
	})
	return elements
}

func dumpNode[V comparable](n *internalNode[V]) ListElement[V] {
	el := ListElement[V]{Origin: n.origin, Level: n.level}
	for slot := uint(0); slot < nodeSize; slot++ {
		switch {
		case n.isChildMaskOn(slot):
			switch c := n.children.MustGet(slot).(type) {
			case *Leaf[V]:
				el.Children = append(el.Children, ListElement[V]{
					Origin:   c.origin,
					OnVoxels: c.OnVoxelCount(),
				})
			case *internalNode[V]:
				el.Children = append(el.Children, dumpNode(c))
			}
		case n.tiles.Test(slot):
			tile := n.tiles.MustGet(slot)
			el.Children = append(el.Children, ListElement[V]{
				Origin: n.slotOrigin(slot),
				Level:  n.level,
				Tile:   &tile,
				Active: n.isValueMaskOn(slot),
			})
		}
	}
	return el
}
