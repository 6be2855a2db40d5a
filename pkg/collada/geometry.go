package collada

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/daerig/pkg/math"
)

// vertex is a build-time vertex. Texture and normal are -1 until the vertex
// is first referenced by a triangle corner.
type vertex struct {
	position math.Vec3
	texture  int
	normal   int
	skin     VertexSkinData
}

func (v *vertex) isSet() bool {
	return v.texture >= 0 && v.normal >= 0
}

func (v *vertex) matches(texture, normal int) bool {
	return v.texture == texture && v.normal == normal
}

// corner is one triangle corner of the index stream.
type corner struct {
	position, normal, texture int
}

// GeometryLoader reads the first mesh of <library_geometries> and splits
// shared positions into one vertex per distinct (position, texture, normal).
type GeometryLoader struct {
	geometries Element
	skin       []VertexSkinData
	log        *zap.Logger

	positions []math.Vec3
	normals   []math.Vec3
	texCoords [][2]float32

	// vertices[i] has unique index i; the first len(positions) are the base vertices.
	vertices []vertex
	// dups[base] lists the unique indices split off a base vertex, in creation order.
	dups    [][]int
	indices []uint32
}

// NewGeometryLoader creates a loader. skin must have one entry per raw position.
func NewGeometryLoader(geometries Element, skin []VertexSkinData, log *zap.Logger) *GeometryLoader {
	return &GeometryLoader{geometries: geometries, skin: skin, log: nopIfNil(log)}
}

// ExtractModelData reads, splits and flattens the mesh.
func (l *GeometryLoader) ExtractModelData() (*MeshData, error) {
	geometries := l.geometries.Children("geometry")
	if len(geometries) == 0 {
		return nil, malformed("no <geometry> in library_geometries")
	}
	if len(geometries) > 1 {
		l.log.Warn("only the first geometry is used",
			zap.String("geometry", geometries[0].Attribute("id")),
			zap.Int("ignored", len(geometries)-1))
	}
	mesh := geometries[0].Child("mesh")
	if mesh == nil {
		return nil, malformed("geometry %q has no <mesh>", geometries[0].Attribute("id"))
	}

	primitives := append(mesh.Children("triangles"), mesh.Children("polylist")...)
	if len(primitives) == 0 {
		return nil, malformed("mesh has no <triangles> or <polylist>")
	}

	inputs, _, err := readInputs(primitives[0])
	if err != nil {
		return nil, err
	}
	if err := l.readRawData(mesh, inputs); err != nil {
		return nil, err
	}

	var corners []corner
	for i, primitive := range primitives {
		primInputs, stride, err := readInputs(primitive)
		if err != nil {
			return nil, err
		}
		if err := sameSources(inputs, primInputs); err != nil {
			return nil, malformed("primitive %d (%s): %v", i, primitive.Attribute("material"), err)
		}
		c, err := readCorners(primitive, primInputs, stride)
		if err != nil {
			return nil, err
		}
		corners = append(corners, c...)
	}

	l.assembleVertices()
	for i, c := range corners {
		if err := l.checkCorner(c); err != nil {
			return nil, malformed("corner %d: %v", i, err)
		}
		l.processVertex(c.position, c.texture, c.normal)
	}
	l.removeUnusedVertices()

	data := l.flatten()
	l.log.Debug("geometry loaded",
		zap.Int("primitives", len(primitives)),
		zap.Int("positions", len(l.positions)),
		zap.Int("vertices", len(l.vertices)),
		zap.Int("triangles", len(l.indices)/3))
	return data, nil
}

func (l *GeometryLoader) readRawData(mesh Element, inputs map[string]input) error {
	vertexInput, ok := inputs["VERTEX"]
	if !ok {
		return malformed("primitive has no VERTEX input")
	}
	normalInput, ok := inputs["NORMAL"]
	if !ok {
		return malformed("primitive has no NORMAL input")
	}
	texInput, ok := inputs["TEXCOORD"]
	if !ok {
		return malformed("primitive has no TEXCOORD input")
	}

	vertices := mesh.ChildWithAttribute("vertices", "id", vertexInput.source)
	if vertices == nil {
		return malformed("vertices %q not found", vertexInput.source)
	}
	positionInput := vertices.ChildWithAttribute("input", "semantic", "POSITION")
	if positionInput == nil {
		return malformed("vertices %q has no POSITION input", vertexInput.source)
	}

	raw, err := floatSource(mesh, sourceID(positionInput.Attribute("source")))
	if err != nil {
		return err
	}
	l.positions = make([]math.Vec3, len(raw)/3)
	for i := range l.positions {
		p := math.Vec3{X: raw[i*3], Y: raw[i*3+1], Z: raw[i*3+2]}
		l.positions[i] = axisCorrection.TransformVec3(p)
	}

	raw, err = floatSource(mesh, normalInput.source)
	if err != nil {
		return err
	}
	l.normals = make([]math.Vec3, len(raw)/3)
	for i := range l.normals {
		n := [3]float32{raw[i*3], raw[i*3+1], raw[i*3+2]}
		l.normals[i] = math.Vec3FromArray(axisCorrection.TransformDirection(n))
	}

	raw, err = floatSource(mesh, texInput.source)
	if err != nil {
		return err
	}
	l.texCoords = make([][2]float32, len(raw)/2)
	for i := range l.texCoords {
		l.texCoords[i] = [2]float32{raw[i*2], raw[i*2+1]}
	}

	if len(l.skin) < len(l.positions) {
		return malformed("skin covers %d vertices, mesh has %d positions", len(l.skin), len(l.positions))
	}
	return nil
}

// sameSources checks that a primitive reads the vertex, normal and texture
// arrays the mesh was loaded from.
func sameSources(want, got map[string]input) error {
	for _, semantic := range []string{"VERTEX", "NORMAL", "TEXCOORD"} {
		in, ok := got[semantic]
		if !ok {
			return fmt.Errorf("no %s input", semantic)
		}
		if in.source != want[semantic].source {
			return fmt.Errorf("%s source %q differs from %q", semantic, in.source, want[semantic].source)
		}
	}
	return nil
}

// readCorners returns the triangle corners of a <triangles> element, or of a
// <polylist> split into triangle fans.
func readCorners(primitive Element, inputs map[string]input, stride int) ([]corner, error) {
	pEl := primitive.Child("p")
	if pEl == nil {
		return nil, malformed("<%s> has no <p>", primitive.Name())
	}
	p, err := parseInts(pEl.Text())
	if err != nil {
		return nil, malformed("<p>: %v", err)
	}
	if len(p)%stride != 0 {
		return nil, malformed("<p> has %d indices, not a multiple of %d", len(p), stride)
	}

	vOff, nOff, tOff := inputs["VERTEX"].offset, inputs["NORMAL"].offset, inputs["TEXCOORD"].offset
	at := func(i int) corner {
		base := i * stride
		return corner{position: p[base+vOff], normal: p[base+nOff], texture: p[base+tOff]}
	}
	total := len(p) / stride

	if primitive.Name() == "triangles" {
		if total%3 != 0 {
			return nil, malformed("%d corners do not form whole triangles", total)
		}
		corners := make([]corner, total)
		for i := range corners {
			corners[i] = at(i)
		}
		return corners, nil
	}

	vcountEl := primitive.Child("vcount")
	if vcountEl == nil {
		return nil, malformed("polylist has no <vcount>")
	}
	counts, err := parseInts(vcountEl.Text())
	if err != nil {
		return nil, malformed("vcount: %v", err)
	}

	var corners []corner
	next := 0
	for poly, n := range counts {
		if n < 3 {
			return nil, malformed("polygon %d has %d corners", poly, n)
		}
		if next+n > total {
			return nil, malformed("<p> ends before polygon %d", poly)
		}
		for k := 1; k < n-1; k++ {
			corners = append(corners, at(next), at(next+k), at(next+k+1))
		}
		next += n
	}
	return corners, nil
}

func (l *GeometryLoader) checkCorner(c corner) error {
	switch {
	case c.position < 0 || c.position >= len(l.positions):
		return fmt.Errorf("position index %d of %d", c.position, len(l.positions))
	case c.normal < 0 || c.normal >= len(l.normals):
		return fmt.Errorf("normal index %d of %d", c.normal, len(l.normals))
	case c.texture < 0 || c.texture >= len(l.texCoords):
		return fmt.Errorf("texture index %d of %d", c.texture, len(l.texCoords))
	}
	return nil
}

func (l *GeometryLoader) assembleVertices() {
	l.vertices = make([]vertex, len(l.positions))
	l.dups = make([][]int, len(l.positions))
	l.indices = nil
	for i, p := range l.positions {
		l.vertices[i] = vertex{position: p, texture: -1, normal: -1, skin: l.skin[i]}
	}
}

// processVertex resolves a corner to a unique vertex and appends its index.
func (l *GeometryLoader) processVertex(position, texture, normal int) int {
	base := &l.vertices[position]
	if !base.isSet() {
		base.texture = texture
		base.normal = normal
		return l.emit(position)
	}
	if base.matches(texture, normal) {
		return l.emit(position)
	}

	for _, dup := range l.dups[position] {
		if l.vertices[dup].matches(texture, normal) {
			return l.emit(dup)
		}
	}

	unique := len(l.vertices)
	l.vertices = append(l.vertices, vertex{
		position: base.position,
		texture:  texture,
		normal:   normal,
		skin:     base.skin,
	})
	l.dups[position] = append(l.dups[position], unique)
	return l.emit(unique)
}

func (l *GeometryLoader) emit(unique int) int {
	l.indices = append(l.indices, uint32(unique))
	return unique
}

func (l *GeometryLoader) removeUnusedVertices() {
	for i := range l.vertices {
		if v := &l.vertices[i]; !v.isSet() {
			v.texture = 0
			v.normal = 0
		}
	}
}

func (l *GeometryLoader) flatten() *MeshData {
	n := len(l.vertices)
	data := &MeshData{
		Positions: make([]float32, n*3),
		TexCoords: make([]float32, n*2),
		Normals:   make([]float32, n*3),
		Indices:   l.indices,
		JointIDs:  make([]int, n*InfluencesPerVertex),
		Weights:   make([]float32, n*InfluencesPerVertex),
	}
	if data.Indices == nil {
		data.Indices = []uint32{}
	}

	for i := range l.vertices {
		v := &l.vertices[i]
		if length := v.position.Length(); length > data.FurthestPoint {
			data.FurthestPoint = length
		}
		copy(data.Positions[i*3:], []float32{v.position.X, v.position.Y, v.position.Z})

		// unreferenced vertices of a mesh without normals or UVs keep zeros
		if v.texture < len(l.texCoords) {
			tc := l.texCoords[v.texture]
			data.TexCoords[i*2] = tc[0]
			data.TexCoords[i*2+1] = 1 - tc[1]
		}
		if v.normal < len(l.normals) {
			nv := l.normals[v.normal]
			copy(data.Normals[i*3:], []float32{nv.X, nv.Y, nv.Z})
		}

		for k := 0; k < InfluencesPerVertex && k < len(v.skin); k++ {
			data.JointIDs[i*InfluencesPerVertex+k] = v.skin[k].JointIndex
			data.Weights[i*InfluencesPerVertex+k] = v.skin[k].Weight
		}
	}
	return data
}
