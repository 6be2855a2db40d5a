package anim

import (
	gomath "math"

	"github.com/Faultbox/daerig/pkg/math"
)

// Animator plays one looping clip on a skeleton.
//
// An Animator is Idle until DoAnimation is called and Playing afterwards;
// clips loop forever. It is not safe for concurrent use: drive each animated
// instance from a single goroutine.
type Animator struct {
	skeleton *Skeleton
	current  *Animation
	time     float32

	pose   []JointTransform
	locals []math.Mat4
}

// NewAnimator creates an idle animator for the skeleton.
func NewAnimator(s *Skeleton) *Animator {
	return &Animator{
		skeleton: s,
		pose:     make([]JointTransform, s.JointCount()),
		locals:   make([]math.Mat4, s.JointCount()),
	}
}

// DoAnimation starts playing clip from the beginning, replacing any clip in progress.
// The pose at time zero is applied immediately.
func (a *Animator) DoAnimation(clip *Animation) {
	a.current = clip
	a.time = 0
	if clip != nil {
		a.applyPose()
	}
}

// Playing reports whether a clip is set.
func (a *Animator) Playing() bool {
	return a.current != nil
}

// Current returns the clip being played, or nil when idle.
func (a *Animator) Current() *Animation {
	return a.current
}

// Time returns the elapsed time within the current clip, in seconds.
func (a *Animator) Time() float32 {
	return a.time
}

// Skeleton returns the skeleton being posed.
func (a *Animator) Skeleton() *Skeleton {
	return a.skeleton
}

// Update advances the clip by deltaTime seconds, wrapping past the end,
// and recomputes every joint's AnimatedTransform. It does nothing when idle.
func (a *Animator) Update(deltaTime float32) {
	if a.current == nil {
		return
	}

	a.time += deltaTime
	if length := a.current.Length(); length > 0 && (a.time > length || a.time < 0) {
		a.time = float32(gomath.Mod(float64(a.time), float64(length)))
		if a.time < 0 {
			a.time += length
		}
	}

	a.applyPose()
}

// LocalPose returns the interpolated bone-space transform of the named joint
// for the current pose.
func (a *Animator) LocalPose(name string) (JointTransform, bool) {
	slot, ok := a.skeleton.Find(name)
	if !ok || a.current == nil {
		return JointTransform{}, false
	}
	return a.pose[slot], true
}

func (a *Animator) applyPose() {
	prev, next, progress := a.current.Bracket(a.time)

	for slot := range a.skeleton.joints {
		j := &a.skeleton.joints[slot]

		from, okFrom := prev.Pose[j.Name]
		to, okTo := next.Pose[j.Name]
		if !okFrom && !okTo {
			// not animated: keep the exact bind matrix, including any scale
			a.pose[slot] = j.bindPose
			a.locals[slot] = j.LocalBindTransform
			continue
		}

		// a joint missing from one side of the bracket blends from/to its bind pose
		if !okFrom {
			from = j.bindPose
		}
		if !okTo {
			to = j.bindPose
		}

		a.pose[slot] = Interpolate(from, to, progress)
		a.locals[slot] = a.pose[slot].LocalTransform()
	}

	a.skeleton.applyLocalTransforms(a.locals)
}
