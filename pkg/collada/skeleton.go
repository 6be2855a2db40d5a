package collada

import (
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/daerig/pkg/math"
)

// SkeletonLoader reads the joint hierarchy from <library_visual_scenes>.
type SkeletonLoader struct {
	scenes     Element
	armatureID string
	jointIndex map[string]int
	log        *zap.Logger

	jointCount int
}

// NewSkeletonLoader creates a loader that numbers joints by their position in jointOrder.
func NewSkeletonLoader(visualScenes Element, jointOrder []string, armatureID string, log *zap.Logger) *SkeletonLoader {
	if armatureID == "" {
		armatureID = DefaultArmatureID
	}
	index := make(map[string]int, len(jointOrder))
	for i, name := range jointOrder {
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	return &SkeletonLoader{
		scenes:     visualScenes,
		armatureID: armatureID,
		jointIndex: index,
		log:        nopIfNil(log),
	}
}

// ExtractBoneData builds the joint tree in its bind pose.
// The root's transform is converted from Z-up to Y-up.
func (l *SkeletonLoader) ExtractBoneData() (*SkeletonData, error) {
	scene := l.scenes.Child("visual_scene")
	if scene == nil {
		return nil, malformed("no <visual_scene>")
	}

	head, err := l.headNode(scene)
	if err != nil {
		return nil, err
	}

	l.jointCount = 0
	root, err := l.loadJoint(head, true)
	if err != nil {
		return nil, err
	}

	l.log.Debug("skeleton loaded", zap.String("root", root.NameID), zap.Int("joints", l.jointCount))
	return &SkeletonData{JointCount: l.jointCount, HeadJoint: root}, nil
}

func (l *SkeletonLoader) headNode(scene Element) (Element, error) {
	if armature := findNode(scene, func(n Element) bool { return n.Attribute("id") == l.armatureID }); armature != nil {
		head := armature.Child("node")
		if head == nil {
			return nil, malformed("armature %q has no joints", l.armatureID)
		}
		return head, nil
	}

	head := findNode(scene, func(n Element) bool { return n.Attribute("type") == "JOINT" })
	if head == nil {
		return nil, malformed("no armature %q and no JOINT node in visual scene", l.armatureID)
	}
	l.log.Debug("armature node not found, using first joint node",
		zap.String("armature", l.armatureID),
		zap.String("root", head.Attribute("id")))
	return head, nil
}

func (l *SkeletonLoader) loadJoint(node Element, isRoot bool) (*JointData, error) {
	id := node.Attribute("id")

	matrixEl := node.Child("matrix")
	if matrixEl == nil {
		return nil, malformed("joint %q has no <matrix>", id)
	}
	transform, err := parseMatrix(matrixEl)
	if err != nil {
		return nil, malformed("joint %q matrix: %v", id, err)
	}
	if isRoot {
		transform = axisCorrection.Mul(transform)
	}
	if hasScale(transform) {
		l.log.Warn("joint bind matrix has scale; blends toward the bind pose drop it",
			zap.String("joint", id))
	}

	joint := &JointData{
		Index:              l.lookup(node),
		NameID:             id,
		BindLocalTransform: transform,
	}
	if joint.Index < 0 {
		l.log.Warn("joint not in skin joint order", zap.String("joint", id))
	}
	l.jointCount++

	for _, child := range node.Children("node") {
		c, err := l.loadJoint(child, false)
		if err != nil {
			return nil, err
		}
		joint.Children = append(joint.Children, c)
	}
	return joint, nil
}

// lookup matches a node against the joint order by id, then by sid.
func (l *SkeletonLoader) lookup(node Element) int {
	if i, ok := l.jointIndex[node.Attribute("id")]; ok {
		return i
	}
	if sid := node.Attribute("sid"); sid != "" {
		if i, ok := l.jointIndex[sid]; ok {
			return i
		}
	}
	return -1
}

// hasScale reports whether the upper 3x3 of a column-major matrix is not a pure rotation.
func hasScale(m math.Mat4) bool {
	const eps = 1e-4
	for c := 0; c < 3; c++ {
		x, y, z := m[c*4], m[c*4+1], m[c*4+2]
		if gomath.Abs(float64(x*x+y*y+z*z)-1) > eps {
			return true
		}
	}
	return false
}

// findNode searches <node> elements depth-first.
func findNode(parent Element, match func(Element) bool) Element {
	for _, n := range parent.Children("node") {
		if match(n) {
			return n
		}
		if found := findNode(n, match); found != nil {
			return found
		}
	}
	return nil
}
