// Copyright (c) 2026 The voxtree authors
// SPDX-License-Identifier: MIT

package voxtree

import (
	"fmt"
	"math"
	"sync"
)

// valueTypeName returns the stable identifier of V used in tree type
// names and dynamic dispatch.
func valueTypeName[V comparable]() string {
	var zero V
	return fmt.Sprintf("%T", zero)
}

// TreeTypeName returns the stable type name of the Tree[V]
// configuration, e.g. "Tree_float32_4_4_3".
func TreeTypeName[V comparable]() string {
	return fmt.Sprintf("Tree_%s_%d_%d_%d", valueTypeName[V](), nodeLog2Dim, nodeLog2Dim, leafLog2Dim)
}

// GridBase is the type-erased surface of a grid, the unit of dynamic
// dispatch in registries and I/O pipelines.
type GridBase interface {
	Name() string
	SetName(name string)
	ValueType() string
	TreeType() string
	VoxelSize() float64
	ActiveVoxelCount() uint64
	MemUsage() uint64
}

// Grid couples a tree with a world transform and user metadata. The
// transform is a uniform scale plus a translation: index coordinates
// times voxel size, offset by the grid origin.
type Grid[V comparable] struct {
	name      string
	voxelSize float64
	origin    [3]float64
	tree      *Tree[V]

	metaMu sync.Mutex
	meta   map[string]string
}

// NewGrid returns a named grid around a fresh tree with the given
// background and a voxel size of 1.
func NewGrid[V comparable](name string, background V) *Grid[V] {
	return &Grid[V]{
		name:      name,
		voxelSize: 1,
		tree:      New(background),
		meta:      make(map[string]string),
	}
}

// Tree returns the grid's tree. The grid stays the owner.
func (g *Grid[V]) Tree() *Tree[V] { return g.tree }

func (g *Grid[V]) Name() string        { return g.name }
func (g *Grid[V]) SetName(name string) { g.name = name }

func (g *Grid[V]) ValueType() string { return valueTypeName[V]() }
func (g *Grid[V]) TreeType() string  { return TreeTypeName[V]() }

func (g *Grid[V]) VoxelSize() float64 { return g.voxelSize }

// SetVoxelSize sets the uniform index-to-world scale.
func (g *Grid[V]) SetVoxelSize(s float64) error {
	if s <= 0 || math.IsInf(s, 0) || math.IsNaN(s) {
		return fmt.Errorf("%w: voxel size %v", ErrValue, s)
	}
	g.voxelSize = s
	return nil
}

// Origin returns the world-space position of index coordinate (0,0,0).
func (g *Grid[V]) Origin() (x, y, z float64) {
	return g.origin[0], g.origin[1], g.origin[2]
}

// SetOrigin sets the translation part of the transform.
func (g *Grid[V]) SetOrigin(x, y, z float64) error {
	for _, v := range [3]float64{x, y, z} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return fmt.Errorf("%w: grid origin (%v, %v, %v)", ErrValue, x, y, z)
		}
	}
	g.origin = [3]float64{x, y, z}
	return nil
}

// IndexToWorld maps an index coordinate to world space.
func (g *Grid[V]) IndexToWorld(c Coord) (x, y, z float64) {
	return float64(c.X)*g.voxelSize + g.origin[0],
		float64(c.Y)*g.voxelSize + g.origin[1],
		float64(c.Z)*g.voxelSize + g.origin[2]
}

// WorldToIndex maps a world position to the index coordinate of the
// voxel containing it.
func (g *Grid[V]) WorldToIndex(x, y, z float64) Coord {
	return Coord{
		X: int32(math.Floor((x - g.origin[0]) / g.voxelSize)),
		Y: int32(math.Floor((y - g.origin[1]) / g.voxelSize)),
		Z: int32(math.Floor((z - g.origin[2]) / g.voxelSize)),
	}
}

func (g *Grid[V]) ActiveVoxelCount() uint64 { return g.tree.ActiveVoxelCount() }
func (g *Grid[V]) MemUsage() uint64         { return g.tree.MemUsage() }

// SetMeta stores one metadata entry, overwriting a present key.
func (g *Grid[V]) SetMeta(key, value string) {
	g.metaMu.Lock()
	g.meta[key] = value
	g.metaMu.Unlock()
}

// Meta returns one metadata entry.
func (g *Grid[V]) Meta(key string) (string, bool) {
	g.metaMu.Lock()
	defer g.metaMu.Unlock()
	v, ok := g.meta[key]
	return v, ok
}

// GridRegistry maps tree type names to grid factories for reflective
// creation by name. Registries are explicit objects passed by the
// embedding application, there is no package-level instance.
type GridRegistry struct {
	mu        sync.RWMutex
	factories map[string]func(name string) GridBase
}

func NewGridRegistry() *GridRegistry {
	return &GridRegistry{factories: make(map[string]func(name string) GridBase)}
}

// Register adds a factory under the given tree type name.
func (r *GridRegistry) Register(treeType string, f func(name string) GridBase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[treeType]; ok {
		return fmt.Errorf("%w: grid type %q already registered", ErrValue, treeType)
	}
	r.factories[treeType] = f
	return nil
}

// Create instantiates a grid by tree type name.
func (r *GridRegistry) Create(treeType, name string) (GridBase, error) {
	r.mu.RLock()
	f, ok := r.factories[treeType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no grid type %q registered", ErrType, treeType)
	}
	return f(name), nil
}

// RegisterGridType registers the standard factory of Grid[V] under its
// tree type name.
func RegisterGridType[V comparable](r *GridRegistry, background V) error {
	return r.Register(TreeTypeName[V](), func(name string) GridBase {
		return NewGrid(name, background)
	})
}

// CombineGrids is the dynamic entry to [Combine2]: both grids must wrap
// trees of value type V, anything else is a type error naming the two
// incompatible types. The result grid takes a's name and transform.
func CombineGrids[V comparable](a, b GridBase, op CombineOp[V]) (*Grid[V], error) {
	ga, ok := a.(*Grid[V])
	if !ok {
		return nil, fmt.Errorf("%w: cannot combine %s into a %s result",
			ErrType, a.TreeType(), TreeTypeName[V]())
	}
	gb, ok := b.(*Grid[V])
	if !ok {
		return nil, fmt.Errorf("%w: cannot combine %s into a %s result",
			ErrType, b.TreeType(), TreeTypeName[V]())
	}

	out := &Grid[V]{
		name:      ga.name,
		voxelSize: ga.voxelSize,
		tree:      Combine2(ga.tree, gb.tree, op),
		meta:      make(map[string]string),
	}
	return out, nil
}
