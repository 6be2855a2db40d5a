package model

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/daerig/pkg/anim"
	"github.com/Faultbox/daerig/pkg/collada"
)

// Model is a loaded skinned asset. It is never modified after Build, so one
// Model may back any number of instances on any goroutines.
type Model struct {
	Name          string
	Mesh          *Mesh
	JointOrder    []string
	Animations    []*anim.Animation
	FurthestPoint float32

	skeleton *anim.Skeleton
}

// Build packages loaded COLLADA data into a model.
func Build(name string, data *collada.ModelData) (*Model, error) {
	if data == nil || data.Mesh == nil || data.Skeleton == nil || data.Skin == nil {
		return nil, fmt.Errorf("%w: incomplete model data", ErrInvalidMesh)
	}

	mesh, err := BuildMesh(data.Mesh)
	if err != nil {
		return nil, err
	}
	if err := checkJointRange(mesh, len(data.Skin.JointOrder)); err != nil {
		return nil, err
	}

	skeleton, err := BuildSkeleton(data.Skeleton)
	if err != nil {
		return nil, err
	}

	return &Model{
		Name:          name,
		Mesh:          mesh,
		JointOrder:    append([]string(nil), data.Skin.JointOrder...),
		Animations:    append([]*anim.Animation(nil), data.Animations...),
		FurthestPoint: data.Mesh.FurthestPoint,
		skeleton:      skeleton,
	}, nil
}

// Load parses a COLLADA stream and builds a model from it.
func Load(r io.Reader, name string, opts collada.Options) (*Model, error) {
	data, err := collada.ParseReader(r, opts)
	if err != nil {
		return nil, err
	}
	return Build(name, data)
}

// LoadFile parses a .dae file and builds a model named after the file.
func LoadFile(path string, opts collada.Options) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening model: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Load(f, name, opts)
}

// BuildSkeleton converts a joint tree into the runtime skeleton in bind pose.
func BuildSkeleton(data *collada.SkeletonData) (*anim.Skeleton, error) {
	if data == nil || data.HeadJoint == nil {
		return nil, anim.ErrEmptySkeleton
	}

	b := anim.NewSkeletonBuilder()
	var add func(parent int, j *collada.JointData)
	add = func(parent int, j *collada.JointData) {
		slot := b.AddJoint(parent, j.Index, j.NameID, j.BindLocalTransform)
		for _, c := range j.Children {
			add(slot, c)
		}
	}
	add(anim.NoParent, data.HeadJoint)

	s, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("building skeleton: %w", err)
	}
	if s.JointCount() != data.JointCount {
		return nil, fmt.Errorf("%w: skeleton has %d joints, expected %d", ErrInvalidMesh, s.JointCount(), data.JointCount)
	}
	return s, nil
}

// JointCount returns the number of joints in the hierarchy.
func (m *Model) JointCount() int {
	return m.skeleton.JointCount()
}

// Skeleton returns a fresh copy of the skeleton in bind pose.
func (m *Model) Skeleton() *anim.Skeleton {
	return m.skeleton.Clone()
}

// Animation returns the clip with the given name.
func (m *Model) Animation(name string) (*anim.Animation, bool) {
	for _, a := range m.Animations {
		if a.Name() == name {
			return a, true
		}
	}
	return nil, false
}

// NewInstance creates an independently posed copy of the model.
func (m *Model) NewInstance() *Instance {
	s := m.skeleton.Clone()
	return &Instance{
		Model:    m,
		Skeleton: s,
		Animator: anim.NewAnimator(s),
	}
}

func checkJointRange(mesh *Mesh, jointCount int) error {
	for i := range mesh.Vertices {
		v := &mesh.Vertices[i]
		for k, j := range v.Joints {
			if v.Weights[k] == 0 {
				continue
			}
			if j < 0 || int(j) >= jointCount {
				return fmt.Errorf("%w: vertex %d references joint %d of %d", ErrInvalidMesh, i, j, jointCount)
			}
		}
	}
	return nil
}
