// Package model assembles loaded COLLADA data into immutable skinned models
// and hands out independently animated instances of them.
package model

import "errors"

// ErrInvalidMesh is returned when mesh arrays break their length or index invariants.
var ErrInvalidMesh = errors.New("invalid mesh data")

// Vertex is one interleaved vertex of a skinned mesh.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
	Joints   [3]int32
	Weights  [3]float32
}

// Mesh holds the complete model mesh data ready for GPU upload.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds
}

// TriangleCount returns the number of triangles in the index buffer.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Bounds holds the axis-aligned bounding box of the model.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Size returns the extent of the box along each axis.
func (b Bounds) Size() [3]float32 {
	return [3]float32{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1], b.Max[2] - b.Min[2]}
}
