package model

import (
	"errors"
	gomath "math"
	"sync"
	"testing"

	"github.com/Faultbox/daerig/pkg/collada"
	"github.com/Faultbox/daerig/pkg/math"
)

func loadRig(t *testing.T) *Model {
	t.Helper()
	m, err := LoadFile("testdata/rig.dae", collada.Options{})
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	return m
}

func near(a, b float32) bool {
	return gomath.Abs(float64(a-b)) <= 1e-5
}

func translationNear(m math.Mat4, x, y, z float32) bool {
	p := m.Translation()
	return near(p.X, x) && near(p.Y, y) && near(p.Z, z)
}

func TestLoadFile(t *testing.T) {
	m := loadRig(t)

	if m.Name != "rig" {
		t.Errorf("expected name rig, got %q", m.Name)
	}
	if len(m.Mesh.Vertices) != 7 {
		t.Errorf("expected 7 vertices, got %d", len(m.Mesh.Vertices))
	}
	if m.Mesh.TriangleCount() != 3 {
		t.Errorf("expected 3 triangles, got %d", m.Mesh.TriangleCount())
	}
	if m.JointCount() != 2 || len(m.JointOrder) != 2 {
		t.Errorf("expected 2 joints, got %d (order %v)", m.JointCount(), m.JointOrder)
	}
	if _, ok := m.Animation("Wave"); !ok {
		t.Error("expected animation Wave")
	}
	if !near(m.FurthestPoint, 2) {
		t.Errorf("furthest point: got %v, want 2", m.FurthestPoint)
	}
}

func TestBuildMeshBounds(t *testing.T) {
	m := loadRig(t)

	want := Bounds{Min: [3]float32{-1, 0, 0}, Max: [3]float32{1, 2, 0}}
	for i := 0; i < 3; i++ {
		if !near(m.Mesh.Bounds.Min[i], want.Min[i]) || !near(m.Mesh.Bounds.Max[i], want.Max[i]) {
			t.Fatalf("bounds: got %+v, want %+v", m.Mesh.Bounds, want)
		}
	}
	if size := m.Mesh.Bounds.Size(); !near(size[1], 2) {
		t.Errorf("height: got %v, want 2", size[1])
	}
}

func TestBuildMeshInterleaves(t *testing.T) {
	data := &collada.MeshData{
		Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		TexCoords: []float32{0, 1, 1, 1, 0, 0},
		Normals:   []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
		Indices:   []uint32{0, 1, 2},
		JointIDs:  []int{0, 0, 0, 1, 0, 0, 1, 0, 0},
		Weights:   []float32{1, 0, 0, 0.6, 0.4, 0, 1, 0, 0},
	}

	mesh, err := BuildMesh(data)
	if err != nil {
		t.Fatalf("BuildMesh failed: %v", err)
	}

	v := mesh.Vertices[1]
	if v.Position != [3]float32{1, 0, 0} || v.TexCoord != [2]float32{1, 1} {
		t.Errorf("vertex 1: got %+v", v)
	}
	if v.Joints != [3]int32{1, 0, 0} || v.Weights != [3]float32{0.6, 0.4, 0} {
		t.Errorf("vertex 1 skin: got %v %v", v.Joints, v.Weights)
	}

	// the mesh owns its index buffer
	data.Indices[0] = 2
	if mesh.Indices[0] != 0 {
		t.Error("mesh indices alias the input")
	}
}

func TestBuildMeshInvalid(t *testing.T) {
	tests := []struct {
		name string
		data *collada.MeshData
	}{
		{
			"index out of range",
			&collada.MeshData{
				Positions: make([]float32, 9), TexCoords: make([]float32, 6), Normals: make([]float32, 9),
				JointIDs: make([]int, 9), Weights: make([]float32, 9),
				Indices: []uint32{0, 1, 3},
			},
		},
		{
			"missing normals",
			&collada.MeshData{
				Positions: make([]float32, 9), TexCoords: make([]float32, 6), Normals: make([]float32, 6),
				JointIDs: make([]int, 9), Weights: make([]float32, 9),
				Indices: []uint32{0, 1, 2},
			},
		},
		{
			"partial triangle",
			&collada.MeshData{
				Positions: make([]float32, 9), TexCoords: make([]float32, 6), Normals: make([]float32, 9),
				JointIDs: make([]int, 9), Weights: make([]float32, 9),
				Indices: []uint32{0, 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh, err := BuildMesh(tt.data)
			if !errors.Is(err, ErrInvalidMesh) {
				t.Errorf("expected ErrInvalidMesh, got %v", err)
			}
			if mesh != nil {
				t.Error("expected nil mesh on error")
			}
		})
	}
}

func TestBuildRejectsUnknownJoint(t *testing.T) {
	data := &collada.ModelData{
		Skin: &collada.SkinningData{JointOrder: []string{"Root"}},
		Skeleton: &collada.SkeletonData{
			JointCount: 1,
			HeadJoint:  &collada.JointData{Index: 0, NameID: "Root", BindLocalTransform: math.Identity()},
		},
		Mesh: &collada.MeshData{
			Positions: make([]float32, 9), TexCoords: make([]float32, 6), Normals: make([]float32, 9),
			JointIDs: []int{0, 0, 0, 3, 0, 0, 0, 0, 0},
			Weights:  []float32{1, 0, 0, 1, 0, 0, 1, 0, 0},
			Indices:  []uint32{0, 1, 2},
		},
	}

	if _, err := Build("bad", data); !errors.Is(err, ErrInvalidMesh) {
		t.Errorf("expected ErrInvalidMesh, got %v", err)
	}
	if _, err := Build("empty", nil); !errors.Is(err, ErrInvalidMesh) {
		t.Errorf("expected ErrInvalidMesh for nil data, got %v", err)
	}
}

func TestBuildSkeleton(t *testing.T) {
	m := loadRig(t)
	s := m.Skeleton()

	if s.Root().Name != "Hips" {
		t.Errorf("expected root Hips, got %q", s.Root().Name)
	}
	for i, st := range s.SkinTransforms() {
		if !st.ApproxEqual(math.Identity(), 1e-5) {
			t.Errorf("bind pose skin transform %d is not identity: %v", i, st)
		}
	}

	// Spine sits one unit above Hips once Z-up becomes Y-up
	if jt := s.JointTransforms()[1]; !translationNear(jt, 0, 1, 0) {
		t.Errorf("Spine bind position: got %v", jt.Translation())
	}
}

func TestInstancePlay(t *testing.T) {
	m := loadRig(t)
	in := m.NewInstance()

	if err := in.Play("Wave"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	in.Update(0.5)

	// Spine slides from (0, 0, 1) to (2, 0, 1) in Hips space, which is rotated to Y-up
	if jt := in.JointTransforms()[1]; !translationNear(jt, 1, 1, 0) {
		t.Errorf("Spine at 0.5s: got %v, want (1, 1, 0)", jt.Translation())
	}

	if err := in.Play("Missing"); err == nil {
		t.Error("expected error for unknown clip")
	}

	in.Reset()
	if in.Animator.Playing() {
		t.Error("Reset should stop playback")
	}
	if jt := in.JointTransforms()[1]; !translationNear(jt, 0, 1, 0) {
		t.Errorf("Spine after Reset: got %v", jt.Translation())
	}
}

func TestInstancePlayDefault(t *testing.T) {
	m := loadRig(t)
	in := m.NewInstance()
	if err := in.Play(""); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if in.Animator.Current().Name() != "Wave" {
		t.Errorf("expected Wave, got %q", in.Animator.Current().Name())
	}

	m.Animations = nil
	if err := m.NewInstance().Play(""); err == nil {
		t.Error("expected error for model without animations")
	}
}

func TestInstancesIndependent(t *testing.T) {
	m := loadRig(t)

	var wg sync.WaitGroup
	got := make([]float32, 5)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := m.NewInstance()
			if err := in.Play("Wave"); err != nil {
				t.Errorf("Play failed: %v", err)
				return
			}
			in.Update(float32(i) * 0.2)
			got[i] = in.JointTransforms()[1].Translation().X
		}(i)
	}
	wg.Wait()

	for i, x := range got {
		if want := float32(i) * 0.4; !near(x, want) {
			t.Errorf("instance %d: Spine x = %v, want %v", i, x, want)
		}
	}
}
