package collada

import (
	"fmt"

	"github.com/Faultbox/daerig/pkg/anim"
	"github.com/Faultbox/daerig/pkg/math"
)

// Influence is one joint's contribution to a vertex.
type Influence struct {
	JointIndex int
	Weight     float32
}

// VertexSkinData holds a vertex's influences sorted by descending weight,
// padded with (0, 0) entries to the configured length.
type VertexSkinData []Influence

// Sum returns the total weight.
func (v VertexSkinData) Sum() float32 {
	var sum float32
	for _, in := range v {
		sum += in.Weight
	}
	return sum
}

// SkinningData is the output of the skin loader.
type SkinningData struct {
	// JointOrder fixes the joint indices used by the skeleton and the mesh.
	JointOrder []string

	// VerticesSkinData has one entry per raw position of the geometry.
	VerticesSkinData []VertexSkinData
}

// JointData is a joint of the authored hierarchy in its bind pose.
type JointData struct {
	// Index is the position of NameID in the joint order, or -1.
	Index              int
	NameID             string
	BindLocalTransform math.Mat4
	Children           []*JointData
}

// SkeletonData is the output of the skeleton loader.
type SkeletonData struct {
	JointCount int
	HeadJoint  *JointData
}

// MeshData is a renderer-ready triangle list. Every per-vertex array holds the
// same vertex count N and every index is below N.
type MeshData struct {
	Positions []float32 // 3 per vertex
	TexCoords []float32 // 2 per vertex, V flipped
	Normals   []float32 // 3 per vertex
	Indices   []uint32  // 3 per triangle
	JointIDs  []int     // InfluencesPerVertex per vertex
	Weights   []float32 // InfluencesPerVertex per vertex

	// FurthestPoint is the largest distance of a vertex from the origin.
	FurthestPoint float32
}

// VertexCount returns the number of vertices.
func (m *MeshData) VertexCount() int {
	return len(m.Positions) / 3
}

// Validate checks the array length and index range invariants.
func (m *MeshData) Validate() error {
	n := m.VertexCount()
	switch {
	case len(m.Positions) != n*3:
		return fmt.Errorf("positions length %d is not a multiple of 3", len(m.Positions))
	case len(m.TexCoords) != n*2:
		return fmt.Errorf("%d texture coordinates for %d vertices", len(m.TexCoords)/2, n)
	case len(m.Normals) != n*3:
		return fmt.Errorf("%d normals for %d vertices", len(m.Normals)/3, n)
	case len(m.JointIDs) != n*InfluencesPerVertex:
		return fmt.Errorf("%d joint id sets for %d vertices", len(m.JointIDs)/InfluencesPerVertex, n)
	case len(m.Weights) != n*InfluencesPerVertex:
		return fmt.Errorf("%d weight sets for %d vertices", len(m.Weights)/InfluencesPerVertex, n)
	case len(m.Indices)%3 != 0:
		return fmt.Errorf("index count %d is not a multiple of 3", len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= n {
			return fmt.Errorf("index %d at %d out of range [0, %d)", idx, i, n)
		}
	}
	return nil
}

// ModelData is everything read from one document.
type ModelData struct {
	Skin       *SkinningData
	Skeleton   *SkeletonData
	Mesh       *MeshData
	Animations []*anim.Animation
}
