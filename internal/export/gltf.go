// Package export writes assembled models as glTF 2.0 documents.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/daerig/internal/engine/model"
	"github.com/Faultbox/daerig/pkg/math"
)

// ErrNoMesh is returned for models without vertices.
var ErrNoMesh = errors.New("model has no mesh data")

// Options controls the output encoding.
type Options struct {
	// Binary writes a single GLB container instead of JSON with an embedded buffer.
	Binary bool
}

// BuildDocument converts a model into a glTF document with one skinned mesh,
// one node per joint and a skin whose joint list follows the model's joint order.
func BuildDocument(m *model.Model) (*gltf.Document, error) {
	if m == nil || m.Mesh == nil || len(m.Mesh.Vertices) == 0 {
		return nil, ErrNoMesh
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "daerig"

	meshIdx := writeMesh(doc, m)
	skin, rootNode := writeSkeleton(doc, m)

	node := newNode(m.Name, math.Identity())
	node.Mesh = gltf.Index(meshIdx)
	node.Skin = skin
	doc.Nodes = append(doc.Nodes, node)
	meshNode := uint32(len(doc.Nodes) - 1)

	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, rootNode, meshNode)
	return doc, nil
}

// WriteGLTF encodes a model to w.
func WriteGLTF(w io.Writer, m *model.Model, opts Options) error {
	doc, err := BuildDocument(m)
	if err != nil {
		return err
	}

	if !opts.Binary {
		for _, b := range doc.Buffers {
			if b.URI == "" {
				b.EmbeddedResource()
			}
		}
	}

	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = opts.Binary
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encoding glTF: %w", err)
	}
	return nil
}

// ExportFile writes a model to path. A .glb extension forces binary output
// and .gltf forces JSON; any other extension follows opts.
func ExportFile(path string, m *model.Model, opts Options) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".glb":
		opts.Binary = true
	case ".gltf":
		opts.Binary = false
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}

	if err := WriteGLTF(f, m, opts); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// OutputName returns the file name used for a model exported into dir.
func OutputName(dir, name string, binary bool) string {
	ext := ".gltf"
	if binary {
		ext = ".glb"
	}
	return filepath.Join(dir, name+ext)
}

func writeMesh(doc *gltf.Document, m *model.Model) uint32 {
	n := len(m.Mesh.Vertices)
	positions := make([][3]float32, n)
	normals := make([][3]float32, n)
	uvs := make([][2]float32, n)
	joints := make([][4]uint16, n)
	weights := make([][4]float32, n)

	for i, v := range m.Mesh.Vertices {
		positions[i] = v.Position
		normals[i] = v.Normal
		uvs[i] = v.TexCoord
		for k := range v.Joints {
			if v.Weights[k] == 0 {
				continue
			}
			joints[i][k] = uint16(v.Joints[k])
			weights[i][k] = v.Weights[k]
		}
	}

	attributes := map[string]uint32{
		"POSITION":   modeler.WritePosition(doc, positions),
		"NORMAL":     modeler.WriteNormal(doc, normals),
		"TEXCOORD_0": modeler.WriteTextureCoord(doc, uvs),
		"JOINTS_0":   modeler.WriteJoints(doc, joints),
		"WEIGHTS_0":  modeler.WriteWeights(doc, weights),
	}
	indices := modeler.WriteIndices(doc, m.Mesh.Indices)

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: m.Name,
		Primitives: []*gltf.Primitive{
			{
				Indices:    gltf.Index(indices),
				Attributes: attributes,
			},
		},
	})
	return uint32(len(doc.Meshes) - 1)
}

// writeSkeleton adds one node per joint and the skin. Joint order entries
// without a joint in the hierarchy get an empty node under the root so the
// skin's joint list stays aligned with JOINTS_0. No skin is written for an
// empty joint order.
func writeSkeleton(doc *gltf.Document, m *model.Model) (skin *uint32, root uint32) {
	s := m.Skeleton()
	base := uint32(len(doc.Nodes))

	byIndex := make(map[int]uint32)
	for slot := 0; slot < s.JointCount(); slot++ {
		j := s.Joint(slot)
		node := newNode(j.Name, j.LocalBindTransform)
		for _, c := range j.Children {
			node.Children = append(node.Children, base+uint32(c))
		}
		doc.Nodes = append(doc.Nodes, node)
		if j.Index >= 0 {
			if _, dup := byIndex[j.Index]; !dup {
				byIndex[j.Index] = base + uint32(slot)
			}
		}
	}

	if len(m.JointOrder) == 0 {
		return nil, base
	}

	inverseBind := make([]math.Mat4, len(m.JointOrder))
	jointNodes := make([]uint32, len(m.JointOrder))
	for i, name := range m.JointOrder {
		nodeIdx, ok := byIndex[i]
		if !ok {
			doc.Nodes = append(doc.Nodes, newNode(name, math.Identity()))
			nodeIdx = uint32(len(doc.Nodes) - 1)
			doc.Nodes[base].Children = append(doc.Nodes[base].Children, nodeIdx)
			inverseBind[i] = s.Root().AnimatedTransform.Inverse()
		} else {
			inverseBind[i] = s.Joint(int(nodeIdx - base)).InverseBindTransform
		}
		jointNodes[i] = nodeIdx
	}

	doc.Skins = append(doc.Skins, &gltf.Skin{
		Name:                m.Name,
		Skeleton:            gltf.Index(base),
		Joints:              jointNodes,
		InverseBindMatrices: gltf.Index(writeMatrices(doc, inverseBind)),
	})
	return gltf.Index(uint32(len(doc.Skins) - 1)), base
}

func newNode(name string, local math.Mat4) *gltf.Node {
	return &gltf.Node{
		Name:     name,
		Matrix:   [16]float32(local),
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	}
}

// writeMatrices stores column-major matrices as a MAT4 accessor.
func writeMatrices(doc *gltf.Document, mats []math.Mat4) uint32 {
	cols := make([][4]float32, len(mats)*4)
	for i, m := range mats {
		for c := 0; c < 4; c++ {
			cols[i*4+c] = [4]float32{m[c*4], m[c*4+1], m[c*4+2], m[c*4+3]}
		}
	}
	acc := modeler.WriteTangent(doc, cols)
	doc.Accessors[acc].Type = gltf.AccessorMat4
	doc.Accessors[acc].Count /= 4
	doc.BufferViews[*doc.Accessors[acc].BufferView].ByteStride *= 4
	return acc
}
