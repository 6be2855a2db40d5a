package anim

import (
	"errors"
	"fmt"

	"github.com/Faultbox/daerig/pkg/math"
)

// NoParent marks the root joint's parent slot.
const NoParent = -1

// Skeleton errors.
var (
	ErrEmptySkeleton    = errors.New("skeleton has no joints")
	ErrInvalidJointSlot = errors.New("invalid joint parent slot")
	ErrMultipleRoots    = errors.New("skeleton has more than one root joint")
)

// Joint is one node of the runtime joint hierarchy.
// Joints live in a Skeleton arena; Parent and Children are arena slots.
type Joint struct {
	// Index is the joint's position in the skin's joint order, or -1 for
	// helper nodes that no vertex is weighted to.
	Index int
	Name  string

	Parent   int
	Children []int

	LocalBindTransform   math.Mat4
	InverseBindTransform math.Mat4

	// AnimatedTransform is the model-space transform of the current pose.
	AnimatedTransform math.Mat4

	bindPose JointTransform
}

// Skeleton is an arena of joints stored in pre-order: every parent slot is
// lower than its children's slots and slot 0 is the root.
type Skeleton struct {
	joints    []Joint
	byName    map[string]int
	indexSize int
}

// SkeletonBuilder assembles a Skeleton top-down.
type SkeletonBuilder struct {
	joints []Joint
	err    error
}

// NewSkeletonBuilder creates an empty builder.
func NewSkeletonBuilder() *SkeletonBuilder {
	return &SkeletonBuilder{}
}

// AddJoint appends a joint under the given parent slot (NoParent for the root)
// and returns the new joint's slot. A parent must be added before its children.
func (b *SkeletonBuilder) AddJoint(parent, index int, name string, localBind math.Mat4) int {
	slot := len(b.joints)
	if b.err == nil {
		switch {
		case parent == NoParent && slot != 0:
			b.err = fmt.Errorf("%w: %q", ErrMultipleRoots, name)
		case parent != NoParent && (parent < 0 || parent >= slot):
			b.err = fmt.Errorf("%w: joint %q parent %d", ErrInvalidJointSlot, name, parent)
		}
	}

	b.joints = append(b.joints, Joint{
		Index:              index,
		Name:               name,
		Parent:             parent,
		LocalBindTransform: localBind,
		bindPose:           TransformFromMatrix(localBind),
	})
	if b.err == nil && parent != NoParent {
		b.joints[parent].Children = append(b.joints[parent].Children, slot)
	}
	return slot
}

// Build computes the inverse bind transforms and returns the skeleton in its bind pose.
func (b *SkeletonBuilder) Build() (*Skeleton, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.joints) == 0 {
		return nil, ErrEmptySkeleton
	}

	s := &Skeleton{
		joints: b.joints,
		byName: make(map[string]int, len(b.joints)),
	}
	b.joints = nil

	for slot := range s.joints {
		j := &s.joints[slot]

		bind := j.LocalBindTransform
		if j.Parent != NoParent {
			bind = s.joints[j.Parent].AnimatedTransform.Mul(bind)
		}
		j.AnimatedTransform = bind
		j.InverseBindTransform = bind.Inverse()

		if _, dup := s.byName[j.Name]; !dup {
			s.byName[j.Name] = slot
		}
		if j.Index+1 > s.indexSize {
			s.indexSize = j.Index + 1
		}
	}
	if len(s.joints) > s.indexSize {
		s.indexSize = len(s.joints)
	}

	return s, nil
}

// JointCount returns the number of joints in the hierarchy, including unmatched helpers.
func (s *Skeleton) JointCount() int {
	return len(s.joints)
}

// Root returns the root joint.
func (s *Skeleton) Root() Joint {
	return s.joints[0]
}

// Joint returns a copy of the joint in the given slot.
func (s *Skeleton) Joint(slot int) Joint {
	return s.joints[slot]
}

// Find returns the slot of the first joint with the given name.
func (s *Skeleton) Find(name string) (int, bool) {
	slot, ok := s.byName[name]
	return slot, ok
}

// Walk visits joints parent-first. Returning false stops the walk.
func (s *Skeleton) Walk(fn func(slot, depth int, j Joint) bool) {
	var visit func(slot, depth int) bool
	visit = func(slot, depth int) bool {
		if !fn(slot, depth, s.joints[slot]) {
			return false
		}
		for _, child := range s.joints[slot].Children {
			if !visit(child, depth+1) {
				return false
			}
		}
		return true
	}
	visit(0, 0)
}

// JointTransforms returns the model-space transform of every skinned joint,
// placed at the joint's Index. Unmatched joints (Index -1) are left out and
// unused entries are identity.
func (s *Skeleton) JointTransforms() []math.Mat4 {
	out := s.identityArray()
	for i := range s.joints {
		if j := &s.joints[i]; j.Index >= 0 {
			out[j.Index] = j.AnimatedTransform
		}
	}
	return out
}

// SkinTransforms returns AnimatedTransform * InverseBindTransform for every
// skinned joint, indexed like JointTransforms. In the bind pose every entry is identity.
func (s *Skeleton) SkinTransforms() []math.Mat4 {
	out := s.identityArray()
	for i := range s.joints {
		if j := &s.joints[i]; j.Index >= 0 {
			out[j.Index] = j.AnimatedTransform.Mul(j.InverseBindTransform)
		}
	}
	return out
}

// ResetPose puts every joint back into its bind pose.
func (s *Skeleton) ResetPose() {
	for i := range s.joints {
		j := &s.joints[i]
		j.AnimatedTransform = j.LocalBindTransform
		if j.Parent != NoParent {
			j.AnimatedTransform = s.joints[j.Parent].AnimatedTransform.Mul(j.LocalBindTransform)
		}
	}
}

// Clone returns an independent copy that can be posed without affecting s.
func (s *Skeleton) Clone() *Skeleton {
	c := &Skeleton{
		joints:    make([]Joint, len(s.joints)),
		byName:    s.byName,
		indexSize: s.indexSize,
	}
	copy(c.joints, s.joints)
	for i := range c.joints {
		c.joints[i].Children = append([]int(nil), s.joints[i].Children...)
	}
	return c
}

// applyLocalTransforms propagates per-slot local transforms down the hierarchy.
func (s *Skeleton) applyLocalTransforms(locals []math.Mat4) {
	for i := range s.joints {
		j := &s.joints[i]
		parent := math.Identity()
		if j.Parent != NoParent {
			parent = s.joints[j.Parent].AnimatedTransform
		}
		j.AnimatedTransform = parent.Mul(locals[i])
	}
}

func (s *Skeleton) identityArray() []math.Mat4 {
	out := make([]math.Mat4, s.indexSize)
	for i := range out {
		out[i] = math.Identity()
	}
	return out
}
