// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

package voxtree

// The node chain is fixed at compile time: 8³ leaves under two levels of
// 16³ internal nodes under the root. Coordinates are chunked into bit
// strides per axis, the multibit strides are 4,4,3.
const (
	leafLog2Dim = 3                      // 8 voxels per leaf axis
	leafDim     = 1 << leafLog2Dim       // 8
	leafSize    = 1 << (3 * leafLog2Dim) // 512 voxels per leaf

	nodeLog2Dim = 4                      // 16 children per internal axis
	nodeDim     = 1 << nodeLog2Dim       // 16
	nodeSize    = 1 << (3 * nodeLog2Dim) // 4096 slots per internal node

	// log2 of the voxel extent covered by a node at each level
	leafTotalLog2  = leafLog2Dim                  // leaf spans 8
	lowerTotalLog2 = leafTotalLog2 + nodeLog2Dim  // lower internal spans 128
	upperTotalLog2 = lowerTotalLog2 + nodeLog2Dim // upper internal spans 2048

	// tree depth: root=0, upper internal=1, lower internal=2, leaf=3
	treeDepth = 4
)

// Tile levels as used by AddTile and GetValueDepth: a tile at level L
// stands in for the whole subtree that would otherwise hang at depth
// treeDepth-L.
const (
	leafLevel  = 0 // voxels, not a valid tile level
	lowerLevel = 1 // tile covers a leaf region, 8³, slot of a lower internal node
	upperLevel = 2 // tile covers 128³, slot of an upper internal node
	rootLevel  = 3 // tile covers 2048³, entry of the root table
)

// childTotalLog2 returns the log2 voxel extent of the children of an
// internal node at the given level (lowerLevel or upperLevel).
func childTotalLog2(level uint8) uint8 {
	if level == lowerLevel {
		return leafTotalLog2
	}
	return lowerTotalLog2
}

// nodeTotalLog2 returns the log2 voxel extent of an internal node itself.
func nodeTotalLog2(level uint8) uint8 {
	return childTotalLog2(level) + nodeLog2Dim
}

// tileVoxels returns the number of voxels covered by a tile at level.
func tileVoxels(level uint8) uint64 {
	switch level {
	case lowerLevel:
		return 1 << (3 * leafTotalLog2)
	case upperLevel:
		return 1 << (3 * lowerTotalLog2)
	default:
		return 1 << (3 * upperTotalLog2)
	}
}
