// Package collada reads skinned meshes, joint hierarchies and animation clips
// from COLLADA 1.4/1.5 (.dae) documents.
//
// Loading runs in dependency order: the skin is read first because its joint
// order fixes the joint indices used by both the skeleton and the mesh.
// Every loader returns flat, freshly allocated data; nothing is shared between
// two loads.
package collada

import (
	"errors"
	"fmt"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/daerig/pkg/math"
)

// COLLADA loading errors.
var (
	ErrMalformedAsset = errors.New("malformed COLLADA asset")
	ErrInvalidXML     = errors.New("invalid XML document")
)

const (
	// DefaultMaxWeights is the number of skin influences kept per vertex.
	DefaultMaxWeights = 3

	// DefaultArmatureID is the id of the visual scene node holding the joints.
	DefaultArmatureID = "Armature"

	// InfluencesPerVertex is the number of (joint, weight) pairs stored per
	// vertex in MeshData.
	InfluencesPerVertex = 3
)

// axisCorrection turns the Z-up authoring convention into the runtime's Y-up.
var axisCorrection = math.RotateX(-gomath.Pi / 2)

// Options configures a load.
type Options struct {
	// MaxWeights is the number of strongest influences kept per vertex (default 3).
	MaxWeights int

	// ArmatureID is the id of the node whose first child is the root joint
	// (default "Armature").
	ArmatureID string

	// Logger receives non-fatal warnings and stage summaries. nil disables logging.
	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxWeights <= 0 {
		o.MaxWeights = DefaultMaxWeights
	}
	if o.ArmatureID == "" {
		o.ArmatureID = DefaultArmatureID
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedAsset, fmt.Sprintf(format, args...))
}

func nopIfNil(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
