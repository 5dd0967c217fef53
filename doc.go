// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

// Package voxtree provides a hierarchical sparse volume: a fixed-depth
// tree mapping 3D integer coordinates to typed values, with per-region
// active/inactive state and a caching accessor for fast localized access.
//
// The node chain is statically fixed: a RootNode with unbounded fan-out
// over two levels of 16³ internal nodes down to 8³ leaf nodes, so a
// top-level child spans 2048³ voxels. Internal nodes keep two parallel
// bitmasks (child-present and value-active) with popcount-compressed
// child and tile tables, so a constant cubic region costs one table slot
// instead of a subtree.
//
// Values are set and queried through the Tree façade or, much faster for
// spatially coherent access patterns, through a ValueAccessor that caches
// the last visited node per level:
//
//	tree := voxtree.New[float32](1.0) // background 1.0
//	acc := voxtree.NewAccessor(tree)
//	acc.SetValue(voxtree.Coord{X: 1, Y: 2, Z: 3}, 0.5)
//	v := acc.GetValue(voxtree.Coord{X: 1, Y: 2, Z: 3})
//
// A single accessor is not safe for concurrent use; independent accessors
// bound to the same tree may be used concurrently for reads and for
// writes to disjoint leaf regions.
package voxtree
