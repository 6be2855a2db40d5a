package collada

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func isMalformed(err error) bool {
	return errors.Is(err, ErrMalformedAsset)
}

func TestParse(t *testing.T) {
	f := defaultCube()
	f.animation = true

	model, err := Parse([]byte(f.String()), Options{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if model.Skeleton.JointCount != 2 || model.Skeleton.HeadJoint.NameID != "Hips" {
		t.Errorf("skeleton: got %d joints rooted at %q", model.Skeleton.JointCount, model.Skeleton.HeadJoint.NameID)
	}
	if model.Mesh.VertexCount() != 24 || len(model.Mesh.Indices) != 36 {
		t.Errorf("mesh: got %d vertices, %d indices", model.Mesh.VertexCount(), len(model.Mesh.Indices))
	}
	if len(model.Skin.JointOrder) != 2 {
		t.Errorf("skin: got joint order %v", model.Skin.JointOrder)
	}
	if len(model.Animations) != 1 {
		t.Errorf("expected 1 animation, got %d", len(model.Animations))
	}
}

func TestParseWithoutAnimations(t *testing.T) {
	model, err := Parse([]byte(defaultCube().String()), Options{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(model.Animations) != 0 {
		t.Errorf("expected no animations, got %d", len(model.Animations))
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.dae")
	if err := os.WriteFile(path, []byte(defaultCube().String()), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	if _, err := ParseFile(path, Options{}); err != nil {
		t.Errorf("ParseFile failed: %v", err)
	}

	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.dae"), Options{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{"not xml", "{}", ErrInvalidXML},
		{"wrong root", "<scene/>", ErrMalformedAsset},
		{"no controllers", "<COLLADA/>", ErrMalformedAsset},
		{
			"no visual scenes",
			strings.Replace(defaultCube().String(), "library_visual_scenes", "library_cameras", 2),
			ErrMalformedAsset,
		},
		{
			"no geometries",
			strings.Replace(defaultCube().String(), "library_geometries", "library_lights", 2),
			ErrMalformedAsset,
		},
		{
			"bad geometry",
			strings.Replace(defaultCube().String(), "<p>0 0 0", "<p>99 0 0", 1),
			ErrMalformedAsset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, err := Parse([]byte(tt.doc), Options{})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if model != nil {
				t.Error("expected no model on error")
			}
		})
	}
}

func TestParseLogsWarnings(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	f := defaultCube()
	f.helper = true
	f.animation = true

	if _, err := Parse([]byte(f.String()), Options{Logger: zap.New(core)}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	wantMessages := []string{
		"vertices without skin influences bound to joint 0",
		"joint not in skin joint order",
		"skipping non-matrix animation channel",
	}
	for _, msg := range wantMessages {
		if logs.FilterMessage(msg).Len() != 1 {
			t.Errorf("expected one %q warning, got %d", msg, logs.FilterMessage(msg).Len())
		}
	}
	if entry := logs.FilterMessage("joint not in skin joint order").All(); len(entry) == 1 {
		if entry[0].LoggerName != "collada" {
			t.Errorf("expected logger name collada, got %q", entry[0].LoggerName)
		}
	}
}
