package collada

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// Parse loads a COLLADA document from memory.
func Parse(data []byte, opts Options) (*ModelData, error) {
	return ParseReader(bytes.NewReader(data), opts)
}

// ParseFile loads a COLLADA document from disk.
func ParseFile(path string, opts Options) (*ModelData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening COLLADA file: %w", err)
	}
	defer f.Close()

	return ParseReader(f, opts)
}

// ParseReader loads a COLLADA document from a stream.
func ParseReader(r io.Reader, opts Options) (*ModelData, error) {
	root, err := ParseXML(r)
	if err != nil {
		return nil, err
	}
	return Load(root, opts)
}

// Load reads skin, skeleton, geometry and animations from a parsed document.
// Any failure discards the whole model.
func Load(root Element, opts Options) (*ModelData, error) {
	opts = opts.withDefaults()
	log := opts.Logger.Named("collada")

	if root.Name() != "COLLADA" {
		return nil, malformed("root element is <%s>, want <COLLADA>", root.Name())
	}

	controllers := root.Child("library_controllers")
	if controllers == nil {
		return nil, malformed("no <library_controllers>")
	}
	skin, err := NewSkinLoader(controllers, opts.MaxWeights, log).ExtractSkinData()
	if err != nil {
		return nil, fmt.Errorf("reading skin: %w", err)
	}

	scenes := root.Child("library_visual_scenes")
	if scenes == nil {
		return nil, malformed("no <library_visual_scenes>")
	}
	skeleton, err := NewSkeletonLoader(scenes, skin.JointOrder, opts.ArmatureID, log).ExtractBoneData()
	if err != nil {
		return nil, fmt.Errorf("reading skeleton: %w", err)
	}

	geometries := root.Child("library_geometries")
	if geometries == nil {
		return nil, malformed("no <library_geometries>")
	}
	mesh, err := NewGeometryLoader(geometries, skin.VerticesSkinData, log).ExtractModelData()
	if err != nil {
		return nil, fmt.Errorf("reading geometry: %w", err)
	}

	model := &ModelData{Skin: skin, Skeleton: skeleton, Mesh: mesh}

	if library := root.Child("library_animations"); library != nil {
		clip, err := NewAnimationLoader(library, skeleton.HeadJoint.NameID, log).ExtractAnimation()
		if err != nil {
			return nil, fmt.Errorf("reading animation: %w", err)
		}
		if clip != nil {
			model.Animations = append(model.Animations, clip)
		}
	}

	log.Info("COLLADA model loaded",
		zap.Int("joints", skeleton.JointCount),
		zap.Int("vertices", mesh.VertexCount()),
		zap.Int("indices", len(mesh.Indices)),
		zap.Int("animations", len(model.Animations)))
	return model, nil
}
