package collada

import (
	"fmt"
	"strings"
)

// cubeFaces lists the corners of each cube face, counter-clockwise seen from
// outside. Corner i sits at ((i&1)*2-1, (i>>1&1)*2-1, (i>>2&1)*2-1).
var cubeFaces = [6][4]int{
	{0, 4, 6, 2}, // -X
	{1, 3, 7, 5}, // +X
	{0, 1, 5, 4}, // -Y
	{2, 6, 7, 3}, // +Y
	{0, 2, 3, 1}, // -Z
	{4, 5, 7, 6}, // +Z
}

var cubeNormals = [6][3]int{
	{-1, 0, 0}, {1, 0, 0}, {0, -1, 0}, {0, 1, 0}, {0, 0, -1}, {0, 0, 1},
}

type cubeFixture struct {
	armatureID string
	polylist   bool
	helper     bool
	animation  bool
}

func (f cubeFixture) positions() string {
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&sb, "%d %d %d ", (i&1)*2-1, (i>>1&1)*2-1, (i>>2&1)*2-1)
	}
	return strings.TrimSpace(sb.String())
}

func (f cubeFixture) normals() string {
	var sb strings.Builder
	for _, n := range cubeNormals {
		fmt.Fprintf(&sb, "%d %d %d ", n[0], n[1], n[2])
	}
	return strings.TrimSpace(sb.String())
}

func (f cubeFixture) primitive() string {
	var p strings.Builder
	corner := func(face, k int) {
		fmt.Fprintf(&p, "%d %d %d ", cubeFaces[face][k], face, k)
	}

	inputs := `<input semantic="VERTEX" source="#Cube-mesh-vertices" offset="0"/>
        <input semantic="NORMAL" source="#Cube-mesh-normals" offset="1"/>
        <input semantic="TEXCOORD" source="#Cube-mesh-map-0" offset="2" set="0"/>`

	if f.polylist {
		for face := range cubeFaces {
			for k := 0; k < 4; k++ {
				corner(face, k)
			}
		}
		return fmt.Sprintf(`<polylist material="Material-material" count="6">
        %s
        <vcount>4 4 4 4 4 4</vcount>
        <p>%s</p>
      </polylist>`, inputs, strings.TrimSpace(p.String()))
	}

	for face := range cubeFaces {
		for _, k := range []int{0, 1, 2, 0, 2, 3} {
			corner(face, k)
		}
	}
	return fmt.Sprintf(`<triangles material="Material-material" count="12">
        %s
        <p>%s</p>
      </triangles>`, inputs, strings.TrimSpace(p.String()))
}

func (f cubeFixture) skeleton() string {
	helper := ""
	if f.helper {
		helper = `<node id="Hips_helper" name="Hips_helper" type="NODE">
            <matrix>1 0 0 0 0 1 0 0 0 0 1 0 0 0 0 1</matrix>
          </node>`
	}
	joints := fmt.Sprintf(`<node id="Hips" name="Hips" sid="Hips" type="JOINT">
          <matrix>1 0 0 0 0 1 0 0 0 0 1 1 0 0 0 1</matrix>
          <node id="Spine" name="Spine" sid="Spine" type="JOINT">
            <matrix>1 0 0 0 0 1 0 0 0 0 1 0.5 0 0 0 1</matrix>
          </node>
          %s
        </node>`, helper)

	if f.armatureID == "" {
		return joints
	}
	return fmt.Sprintf(`<node id="%s" name="%s" type="NODE">
        <matrix>1 0 0 0 0 1 0 0 0 0 1 0 0 0 0 1</matrix>
        %s
      </node>`, f.armatureID, f.armatureID, joints)
}

func (f cubeFixture) animations() string {
	if !f.animation {
		return ""
	}
	return `<library_animations>
    <animation id="Armature_Hips_pose_matrix" name="Armature">
      <source id="hips-input"><float_array id="hips-input-array" count="2">0 1</float_array></source>
      <source id="hips-output"><float_array id="hips-output-array" count="32">
        1 0 0 0 0 1 0 0 0 0 1 1 0 0 0 1
        1 0 0 0 0 1 0 0 0 0 1 3 0 0 0 1
      </float_array></source>
      <sampler id="hips-sampler">
        <input semantic="INPUT" source="#hips-input"/>
        <input semantic="OUTPUT" source="#hips-output"/>
      </sampler>
      <channel source="#hips-sampler" target="Hips/transform"/>
      <animation id="Armature_Spine_pose_matrix">
        <source id="spine-input"><float_array id="spine-input-array" count="2">0 0.5</float_array></source>
        <source id="spine-output"><float_array id="spine-output-array" count="32">
          1 0 0 0 0 1 0 0 0 0 1 0.5 0 0 0 1
          1 0 0 0 0 1 0 0 0 0 1 0.75 0 0 0 1
        </float_array></source>
        <sampler id="spine-sampler">
          <input semantic="INPUT" source="#spine-input"/>
          <input semantic="OUTPUT" source="#spine-output"/>
        </sampler>
        <channel source="#spine-sampler" target="Spine/transform"/>
      </animation>
      <animation id="Armature_Spine_location_x">
        <source id="loc-input"><float_array id="loc-input-array" count="2">0 1</float_array></source>
        <source id="loc-output"><float_array id="loc-output-array" count="2">0 1</float_array></source>
        <sampler id="loc-sampler">
          <input semantic="INPUT" source="#loc-input"/>
          <input semantic="OUTPUT" source="#loc-output"/>
        </sampler>
        <channel source="#loc-sampler" target="Spine/location.X"/>
      </animation>
    </animation>
  </library_animations>`
}

// String renders a skinned cube: 8 positions, 6 normals, 4 UVs and the
// joints Hips -> Spine. Vertex 0 has no influences, vertex 1 is bound to
// Spine only and the rest are split 0.25 Hips / 0.75 Spine.
func (f cubeFixture) String() string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<COLLADA xmlns="http://www.collada.org/2005/11/COLLADASchema" version="1.4.1">
  <library_controllers>
    <controller id="Armature_Cube-skin" name="Armature">
      <skin source="#Cube-mesh">
        <bind_shape_matrix>1 0 0 0 0 1 0 0 0 0 1 0 0 0 0 1</bind_shape_matrix>
        <source id="skin-joints"><Name_array id="skin-joints-array" count="2">Hips Spine</Name_array></source>
        <source id="skin-weights"><float_array id="skin-weights-array" count="3">1 0.25 0.75</float_array></source>
        <vertex_weights count="8">
          <input semantic="JOINT" source="#skin-joints" offset="0"/>
          <input semantic="WEIGHT" source="#skin-weights" offset="1"/>
          <vcount>0 1 2 2 2 2 2 2</vcount>
          <v>1 0 0 1 1 2 0 1 1 2 0 1 1 2 0 1 1 2 0 1 1 2 0 1 1 2</v>
        </vertex_weights>
      </skin>
    </controller>
  </library_controllers>
  <library_geometries>
    <geometry id="Cube-mesh" name="Cube">
      <mesh>
        <source id="Cube-mesh-positions"><float_array id="Cube-mesh-positions-array" count="24">%s</float_array></source>
        <source id="Cube-mesh-normals"><float_array id="Cube-mesh-normals-array" count="18">%s</float_array></source>
        <source id="Cube-mesh-map-0"><float_array id="Cube-mesh-map-0-array" count="8">0 0 1 0 1 1 0 1</float_array></source>
        <vertices id="Cube-mesh-vertices">
          <input semantic="POSITION" source="#Cube-mesh-positions"/>
        </vertices>
        %s
      </mesh>
    </geometry>
  </library_geometries>
  %s
  <library_visual_scenes>
    <visual_scene id="Scene" name="Scene">
      %s
      <node id="Cube" name="Cube" type="NODE">
        <instance_controller url="#Armature_Cube-skin"/>
      </node>
    </visual_scene>
  </library_visual_scenes>
</COLLADA>`, f.positions(), f.normals(), f.primitive(), f.animations(), f.skeleton())
}

func defaultCube() cubeFixture {
	return cubeFixture{armatureID: "Armature"}
}
