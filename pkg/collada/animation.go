package collada

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/daerig/pkg/anim"
	"github.com/Faultbox/daerig/pkg/math"
)

// AnimationLoader reads baked joint matrices from <library_animations> into one clip.
type AnimationLoader struct {
	library   Element
	rootJoint string
	log       *zap.Logger
}

// NewAnimationLoader creates a loader. rootJoint names the joint whose
// keyframes get the Z-up to Y-up correction.
func NewAnimationLoader(library Element, rootJoint string, log *zap.Logger) *AnimationLoader {
	return &AnimationLoader{library: library, rootJoint: rootJoint, log: nopIfNil(log)}
}

type channel struct {
	joint      string
	times      []float32
	transforms []anim.JointTransform
}

// ExtractAnimation merges every matrix channel into a single clip.
// It returns nil when the library holds no usable channel.
func (l *AnimationLoader) ExtractAnimation() (*anim.Animation, error) {
	var channels []channel
	for _, el := range collectAnimations(l.library) {
		ch, ok, err := l.readChannel(el)
		if err != nil {
			return nil, err
		}
		if ok {
			channels = append(channels, ch)
		}
	}
	if len(channels) == 0 {
		return nil, nil
	}

	// every channel is sampled at every key time so each keyframe carries
	// every animated joint
	seen := make(map[float32]bool)
	var times []float32
	for _, ch := range channels {
		for _, ts := range ch.times {
			if !seen[ts] {
				seen[ts] = true
				times = append(times, ts)
			}
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	frames := make([]anim.KeyFrame, len(times))
	for i, ts := range times {
		pose := make(map[string]anim.JointTransform, len(channels))
		for _, ch := range channels {
			pose[ch.joint] = ch.sample(ts)
		}
		frames[i] = anim.KeyFrame{TimeStamp: ts, Pose: pose}
	}

	clip, err := anim.NewAnimation(l.clipName(), frames[len(frames)-1].TimeStamp, frames)
	if err != nil {
		return nil, malformed("animation: %v", err)
	}
	l.log.Debug("animation loaded",
		zap.String("clip", clip.Name()),
		zap.Int("channels", len(channels)),
		zap.Int("keyframes", len(frames)),
		zap.Float32("length", clip.Length()))
	return clip, nil
}

// readChannel reads the matrix channel of one <animation>. ok is false for
// channels that do not carry 4x4 matrices.
func (l *AnimationLoader) readChannel(el Element) (channel, bool, error) {
	chEl := el.Child("channel")
	target := chEl.Attribute("target")
	joint, _, _ := strings.Cut(target, "/")
	if joint == "" {
		return channel{}, false, malformed("animation %q channel has no target", el.Attribute("id"))
	}

	samplerID := sourceID(chEl.Attribute("source"))
	sampler := el.ChildWithAttribute("sampler", "id", samplerID)
	if sampler == nil {
		return channel{}, false, malformed("sampler %q not found", samplerID)
	}
	inputEl := sampler.ChildWithAttribute("input", "semantic", "INPUT")
	outputEl := sampler.ChildWithAttribute("input", "semantic", "OUTPUT")
	if inputEl == nil || outputEl == nil {
		return channel{}, false, malformed("sampler %q needs INPUT and OUTPUT", samplerID)
	}

	times, err := floatSource(el, sourceID(inputEl.Attribute("source")))
	if err != nil {
		return channel{}, false, err
	}
	outputs, err := floatSource(el, sourceID(outputEl.Attribute("source")))
	if err != nil {
		return channel{}, false, err
	}
	if len(times) == 0 {
		return channel{}, false, nil
	}
	if len(outputs) != len(times)*16 {
		l.log.Warn("skipping non-matrix animation channel",
			zap.String("target", target),
			zap.Int("keys", len(times)),
			zap.Int("values", len(outputs)))
		return channel{}, false, nil
	}

	ch := channel{joint: joint, times: times, transforms: make([]anim.JointTransform, len(times))}
	for i := range times {
		var rows [16]float32
		copy(rows[:], outputs[i*16:(i+1)*16])
		m := math.FromRowMajor(rows)
		if joint == l.rootJoint {
			m = axisCorrection.Mul(m)
		}
		ch.transforms[i] = anim.TransformFromMatrix(m)
	}
	sort.Sort(byTime(ch))
	return ch, true, nil
}

// sample returns the channel's transform at ts. Between keys it interpolates
// the neighbouring keys; outside its range it holds the first or last key.
func (ch channel) sample(ts float32) anim.JointTransform {
	n := len(ch.times)
	if ts <= ch.times[0] {
		return ch.transforms[0]
	}
	if ts >= ch.times[n-1] {
		return ch.transforms[n-1]
	}

	i := sort.Search(n, func(i int) bool { return ch.times[i] >= ts })
	if ch.times[i] == ts {
		return ch.transforms[i]
	}
	t0, t1 := ch.times[i-1], ch.times[i]
	return anim.Interpolate(ch.transforms[i-1], ch.transforms[i], (ts-t0)/(t1-t0))
}

// byTime orders a channel's keys by time.
type byTime channel

func (c byTime) Len() int           { return len(c.times) }
func (c byTime) Less(i, j int) bool { return c.times[i] < c.times[j] }
func (c byTime) Swap(i, j int) {
	c.times[i], c.times[j] = c.times[j], c.times[i]
	c.transforms[i], c.transforms[j] = c.transforms[j], c.transforms[i]
}

func (l *AnimationLoader) clipName() string {
	top := l.library.Children("animation")
	if len(top) == 1 {
		if name := top[0].Attribute("name"); name != "" {
			return name
		}
		if id := top[0].Attribute("id"); id != "" {
			return id
		}
	}
	if name := l.library.Attribute("name"); name != "" {
		return name
	}
	return "default"
}

// collectAnimations returns every <animation>, nested ones included, that owns a <channel>.
func collectAnimations(parent Element) []Element {
	var out []Element
	for _, el := range parent.Children("animation") {
		if el.Child("channel") != nil {
			out = append(out, el)
		}
		out = append(out, collectAnimations(el)...)
	}
	return out
}
