package model

import (
	"fmt"

	"github.com/Faultbox/daerig/pkg/anim"
	"github.com/Faultbox/daerig/pkg/math"
)

// Instance is one animated copy of a Model. Instances share the model's mesh
// but own their skeleton and animator; drive each from a single goroutine.
type Instance struct {
	Model    *Model
	Skeleton *anim.Skeleton
	Animator *anim.Animator
}

// Play starts the named clip from the beginning. An empty name plays the first clip.
func (in *Instance) Play(name string) error {
	if name == "" {
		if len(in.Model.Animations) == 0 {
			return fmt.Errorf("model %q has no animations", in.Model.Name)
		}
		in.Animator.DoAnimation(in.Model.Animations[0])
		return nil
	}

	clip, ok := in.Model.Animation(name)
	if !ok {
		return fmt.Errorf("model %q has no animation %q", in.Model.Name, name)
	}
	in.Animator.DoAnimation(clip)
	return nil
}

// Update advances the current clip by deltaTime seconds.
func (in *Instance) Update(deltaTime float32) {
	in.Animator.Update(deltaTime)
}

// JointTransforms returns the model-space joint transforms indexed by joint index.
func (in *Instance) JointTransforms() []math.Mat4 {
	return in.Skeleton.JointTransforms()
}

// SkinTransforms returns the per-joint skinning matrices indexed by joint index.
func (in *Instance) SkinTransforms() []math.Mat4 {
	return in.Skeleton.SkinTransforms()
}

// Reset stops playback and returns the skeleton to its bind pose.
func (in *Instance) Reset() {
	in.Animator.DoAnimation(nil)
	in.Skeleton.ResetPose()
}
