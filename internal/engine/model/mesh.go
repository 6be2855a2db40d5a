package model

import (
	"fmt"

	"github.com/Faultbox/daerig/pkg/collada"
)

// BuildMesh interleaves flat mesh arrays into a vertex buffer.
// The arrays are validated first; nothing is built from inconsistent data.
func BuildMesh(data *collada.MeshData) (*Mesh, error) {
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMesh, err)
	}

	n := data.VertexCount()
	vertices := make([]Vertex, n)

	// Track bounding box
	bounds := Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}
	if n == 0 {
		bounds = Bounds{}
	}

	const k = collada.InfluencesPerVertex
	for i := range vertices {
		v := &vertices[i]
		v.Position = [3]float32{data.Positions[i*3], data.Positions[i*3+1], data.Positions[i*3+2]}
		v.Normal = [3]float32{data.Normals[i*3], data.Normals[i*3+1], data.Normals[i*3+2]}
		v.TexCoord = [2]float32{data.TexCoords[i*2], data.TexCoords[i*2+1]}
		for j := 0; j < k; j++ {
			v.Joints[j] = int32(data.JointIDs[i*k+j])
			v.Weights[j] = data.Weights[i*k+j]
		}
		updateBounds(&bounds, v.Position)
	}

	indices := make([]uint32, len(data.Indices))
	copy(indices, data.Indices)

	return &Mesh{
		Vertices: vertices,
		Indices:  indices,
		Bounds:   bounds,
	}, nil
}

func updateBounds(b *Bounds, p [3]float32) {
	if p[0] < b.Min[0] {
		b.Min[0] = p[0]
	}
	if p[1] < b.Min[1] {
		b.Min[1] = p[1]
	}
	if p[2] < b.Min[2] {
		b.Min[2] = p[2]
	}
	if p[0] > b.Max[0] {
		b.Max[0] = p[0]
	}
	if p[1] > b.Max[1] {
		b.Max[1] = p[1]
	}
	if p[2] > b.Max[2] {
		b.Max[2] = p[2]
	}
}
