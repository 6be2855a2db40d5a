package collada

import (
	"sort"
	"strconv"

	"go.uber.org/zap"
)

// SkinLoader reads joint influences from <library_controllers>.
type SkinLoader struct {
	controllers Element
	maxWeights  int
	log         *zap.Logger
}

// NewSkinLoader creates a loader keeping at most maxWeights influences per vertex.
func NewSkinLoader(controllers Element, maxWeights int, log *zap.Logger) *SkinLoader {
	if maxWeights <= 0 {
		maxWeights = DefaultMaxWeights
	}
	return &SkinLoader{controllers: controllers, maxWeights: maxWeights, log: nopIfNil(log)}
}

// ExtractSkinData reads the joint order and the per-vertex influences of the
// first controller's skin.
func (l *SkinLoader) ExtractSkinData() (*SkinningData, error) {
	controllers := l.controllers.Children("controller")
	if len(controllers) == 0 {
		return nil, malformed("no <controller> in library_controllers")
	}
	if len(controllers) > 1 {
		l.log.Warn("only the first controller is used",
			zap.String("controller", controllers[0].Attribute("id")),
			zap.Int("ignored", len(controllers)-1))
	}

	skin := controllers[0].Child("skin")
	if skin == nil {
		return nil, malformed("controller %q has no <skin>", controllers[0].Attribute("id"))
	}
	weightsEl := skin.Child("vertex_weights")
	if weightsEl == nil {
		return nil, malformed("skin has no <vertex_weights>")
	}

	inputs, stride, err := readInputs(weightsEl)
	if err != nil {
		return nil, err
	}
	jointInput, ok := inputs["JOINT"]
	if !ok {
		return nil, malformed("vertex_weights has no JOINT input")
	}
	weightInput, ok := inputs["WEIGHT"]
	if !ok {
		return nil, malformed("vertex_weights has no WEIGHT input")
	}

	jointOrder, err := nameSource(skin, jointInput.source)
	if err != nil {
		return nil, err
	}
	weights, err := floatSource(skin, weightInput.source)
	if err != nil {
		return nil, err
	}

	raw, err := readInfluences(weightsEl, stride, jointInput.offset, weightInput.offset, len(jointOrder), weights)
	if err != nil {
		return nil, err
	}

	data := &SkinningData{
		JointOrder:       jointOrder,
		VerticesSkinData: make([]VertexSkinData, len(raw)),
	}
	underweighted := 0
	for i, influences := range raw {
		var ok bool
		data.VerticesSkinData[i], ok = limitInfluences(influences, l.maxWeights)
		if !ok {
			underweighted++
		}
	}

	if underweighted > 0 {
		l.log.Warn("vertices without skin influences bound to joint 0", zap.Int("count", underweighted))
	}
	l.log.Debug("skin loaded",
		zap.Int("joints", len(jointOrder)),
		zap.Int("vertices", len(data.VerticesSkinData)))

	return data, nil
}

// readInfluences decodes the variable-length <vcount>/<v> lists into raw
// per-vertex influences.
func readInfluences(el Element, stride, jointOffset, weightOffset, jointCount int, weights []float32) ([][]Influence, error) {
	vcountEl, vEl := el.Child("vcount"), el.Child("v")
	if vcountEl == nil || vEl == nil {
		return nil, malformed("vertex_weights needs <vcount> and <v>")
	}
	counts, err := parseInts(vcountEl.Text())
	if err != nil {
		return nil, malformed("vcount: %v", err)
	}
	values, err := parseInts(vEl.Text())
	if err != nil {
		return nil, malformed("v: %v", err)
	}
	if raw := el.Attribute("count"); raw != "" {
		if n, err := strconv.Atoi(raw); err != nil || n != len(counts) {
			return nil, malformed("vertex_weights count %q does not match %d vcount entries", raw, len(counts))
		}
	}

	out := make([][]Influence, len(counts))
	cursor := 0
	for vertex, n := range counts {
		if n < 0 {
			return nil, malformed("vertex %d has negative influence count", vertex)
		}
		if cursor+n*stride > len(values) {
			return nil, malformed("<v> ends before vertex %d", vertex)
		}

		influences := make([]Influence, n)
		for i := 0; i < n; i++ {
			joint := values[cursor+jointOffset]
			weight := values[cursor+weightOffset]
			if joint < 0 || joint >= jointCount {
				return nil, malformed("vertex %d references joint %d of %d", vertex, joint, jointCount)
			}
			if weight < 0 || weight >= len(weights) {
				return nil, malformed("vertex %d references weight %d of %d", vertex, weight, len(weights))
			}
			influences[i] = Influence{JointIndex: joint, Weight: weights[weight]}
			cursor += stride
		}
		out[vertex] = influences
	}

	return out, nil
}

// limitInfluences keeps the strongest maxWeights influences, rescales them to
// sum to 1 and pads to maxWeights. A vertex without any weight is bound fully
// to joint 0 and reported with ok=false.
func limitInfluences(influences []Influence, maxWeights int) (VertexSkinData, bool) {
	sort.SliceStable(influences, func(i, j int) bool {
		return influences[i].Weight > influences[j].Weight
	})
	if len(influences) > maxWeights {
		influences = influences[:maxWeights]
	}

	out := make(VertexSkinData, maxWeights)
	var total float32
	for _, in := range influences {
		total += in.Weight
	}
	if total <= 0 {
		out[0] = Influence{JointIndex: 0, Weight: 1}
		return out, false
	}

	for i, in := range influences {
		out[i] = Influence{JointIndex: in.JointIndex, Weight: in.Weight / total}
	}
	return out, true
}
