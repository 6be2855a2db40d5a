package anim

import (
	"errors"
	"fmt"
	"sort"
)

// Animation errors.
var (
	ErrNoKeyFrames     = errors.New("animation has no keyframes")
	ErrInvalidDuration = errors.New("invalid animation duration")
)

// KeyFrame is the pose of a set of joints at one timestamp.
// Pose is keyed by joint name; joints absent from the map have no
// authored transform at this time.
type KeyFrame struct {
	TimeStamp float32
	Pose      map[string]JointTransform
}

// Animation is an immutable clip: keyframes sorted by timestamp and a total length in seconds.
type Animation struct {
	name      string
	keyFrames []KeyFrame
	length    float32
}

// NewAnimation creates a clip. Keyframes are copied and sorted by timestamp.
// length must not be shorter than the last keyframe.
func NewAnimation(name string, length float32, keyFrames []KeyFrame) (*Animation, error) {
	if len(keyFrames) == 0 {
		return nil, ErrNoKeyFrames
	}

	frames := make([]KeyFrame, len(keyFrames))
	copy(frames, keyFrames)
	sort.SliceStable(frames, func(i, j int) bool {
		return frames[i].TimeStamp < frames[j].TimeStamp
	})

	if frames[0].TimeStamp < 0 {
		return nil, fmt.Errorf("%w: keyframe at negative time %v", ErrInvalidDuration, frames[0].TimeStamp)
	}
	if last := frames[len(frames)-1].TimeStamp; length < last {
		return nil, fmt.Errorf("%w: length %v shorter than last keyframe %v", ErrInvalidDuration, length, last)
	}

	return &Animation{name: name, keyFrames: frames, length: length}, nil
}

// Name returns the clip name.
func (a *Animation) Name() string {
	return a.name
}

// Length returns the clip duration in seconds.
func (a *Animation) Length() float32 {
	return a.length
}

// KeyFrames returns the keyframes in timestamp order. The slice must not be modified.
func (a *Animation) KeyFrames() []KeyFrame {
	return a.keyFrames
}

// Bracket returns the keyframes surrounding time t and how far t is between them (0..1).
// Outside the [first, last) keyframe range the clip is treated as cyclic:
// the last keyframe is paired with the first one.
func (a *Animation) Bracket(t float32) (prev, next *KeyFrame, progress float32) {
	frames := a.keyFrames
	n := len(frames)
	if n == 1 {
		return &frames[0], &frames[0], 0
	}

	first := &frames[0]
	last := &frames[n-1]

	if t < first.TimeStamp || t >= last.TimeStamp {
		span := first.TimeStamp + a.length - last.TimeStamp
		elapsed := t - last.TimeStamp
		if t < first.TimeStamp {
			elapsed = t + a.length - last.TimeStamp
		}
		if span <= 0 {
			return last, first, 0
		}
		return last, first, clamp01(elapsed / span)
	}

	for i := 1; i < n; i++ {
		if frames[i].TimeStamp > t {
			prev = &frames[i-1]
			next = &frames[i]
			break
		}
	}

	progress = (t - prev.TimeStamp) / (next.TimeStamp - prev.TimeStamp)
	return prev, next, clamp01(progress)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
