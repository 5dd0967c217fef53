// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

// voxbench fills a tree with random voxel clusters and hammers it with
// accessor probes, printing topology and memory stats.
package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/dustin/go-humanize"

	"github.com/voxtree/voxtree"
)

var (
	prng = rand.New(rand.NewPCG(42, 42))
	tree = voxtree.New[float32](0)
)

const (
	clusters     = 1_000
	clusterSpan  = 32
	voxelsPer    = 500
	probeRounds  = 10_000_000
	probeAnchors = 11
)

func main() {
	acc := voxtree.NewAccessor(tree)
	defer acc.Release()

	for range clusters {
		center := randomCoord(1 << 20)
		for range voxelsPer {
			acc.SetValue(jitter(center, clusterSpan), prng.Float32())
		}
	}

	anchors := make([]voxtree.Coord, probeAnchors)
	for i := range anchors {
		anchors[i] = randomCoord(1 << 20)
	}

	var hits int
	for i := range probeRounds {
		c := jitter(anchors[i%probeAnchors], clusterSpan)
		if acc.IsValueOn(c) {
			hits++
		}
	}

	fmt.Printf("leaves:        %d\n", tree.LeafCount())
	fmt.Printf("non-leaves:    %d\n", tree.NonLeafCount())
	fmt.Printf("active voxels: %d\n", tree.ActiveVoxelCount())
	fmt.Printf("active bbox:   %v\n", tree.EvalActiveBoundingBox())
	fmt.Printf("probe hits:    %d/%d\n", hits, probeRounds)
	fmt.Printf("mem usage:     %s\n", humanize.IBytes(tree.MemUsage()))

	tree.Prune()
	fmt.Printf("after prune:   %s\n", humanize.IBytes(tree.MemUsage()))
}

// randomCoord returns a coordinate uniform in [-span, span) per axis.
func randomCoord(span int32) voxtree.Coord {
	return voxtree.Coord{
		X: prng.Int32N(2*span) - span,
		Y: prng.Int32N(2*span) - span,
		Z: prng.Int32N(2*span) - span,
	}
}

func jitter(c voxtree.Coord, span int32) voxtree.Coord {
	return c.Offset(
		prng.Int32N(2*span)-span,
		prng.Int32N(2*span)-span,
		prng.Int32N(2*span)-span,
	)
}
