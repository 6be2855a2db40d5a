// Package anim provides skeletal animation clips, the runtime joint hierarchy
// and the animator that evaluates poses on the CPU.
package anim

import (
	"github.com/Faultbox/daerig/pkg/math"
)

// JointTransform is a joint's bone-space transform at one point in time:
// a translation relative to the parent joint and a rotation.
type JointTransform struct {
	Position math.Vec3
	Rotation math.Quat
}

// TransformFromMatrix decomposes an affine matrix without scale
// into a translation and a rotation.
func TransformFromMatrix(m math.Mat4) JointTransform {
	return JointTransform{
		Position: m.Translation(),
		Rotation: math.QuatFromMat4(m),
	}
}

// LocalTransform returns translate(Position) * rotate(Rotation).
func (jt JointTransform) LocalTransform() math.Mat4 {
	return math.Translate(jt.Position.X, jt.Position.Y, jt.Position.Z).Mul(jt.Rotation.ToMat4())
}

// Interpolate blends two transforms. progress=0 returns a, progress=1 returns b.
// Positions are interpolated linearly, rotations along the shortest arc.
func Interpolate(a, b JointTransform, progress float32) JointTransform {
	return JointTransform{
		Position: a.Position.Lerp(b.Position, progress),
		Rotation: a.Rotation.Slerp(b.Rotation, progress),
	}
}
