package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Import.MaxWeights != 3 {
		t.Errorf("expected max weights 3, got %d", cfg.Import.MaxWeights)
	}
	if cfg.Import.ArmatureID != "Armature" {
		t.Errorf("expected armature id 'Armature', got %s", cfg.Import.ArmatureID)
	}

	if !cfg.Export.Binary {
		t.Error("expected binary export by default")
	}
	if cfg.Export.OutputDir != "." {
		t.Errorf("expected output dir '.', got %s", cfg.Export.OutputDir)
	}

	if len(cfg.Assets.SearchPaths) != 1 || cfg.Assets.SearchPaths[0] != "." {
		t.Errorf("expected search paths [.], got %v", cfg.Assets.SearchPaths)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestColladaOptions(t *testing.T) {
	cfg := Default()
	cfg.Import.MaxWeights = 4
	cfg.Import.ArmatureID = "Rig"

	opts := cfg.ColladaOptions(nil)
	if opts.MaxWeights != 4 {
		t.Errorf("expected max weights 4, got %d", opts.MaxWeights)
	}
	if opts.ArmatureID != "Rig" {
		t.Errorf("expected armature id 'Rig', got %s", opts.ArmatureID)
	}
	if opts.Logger != nil {
		t.Error("expected nil logger to pass through")
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "daerig.yaml")

	yamlContent := `
import:
  max_weights: 4
  armature_id: "Root"

export:
  binary: false
  output_dir: "out"

assets:
  search_paths:
    - "models"
    - "overrides"

logging:
  level: "debug"
  log_file: "daerig.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Import.MaxWeights != 4 {
		t.Errorf("expected max weights 4, got %d", cfg.Import.MaxWeights)
	}
	if cfg.Import.ArmatureID != "Root" {
		t.Errorf("expected armature id 'Root', got %s", cfg.Import.ArmatureID)
	}
	if cfg.Export.Binary {
		t.Error("expected binary to be false")
	}
	if cfg.Export.OutputDir != "out" {
		t.Errorf("expected output dir 'out', got %s", cfg.Export.OutputDir)
	}
	if len(cfg.Assets.SearchPaths) != 2 || cfg.Assets.SearchPaths[1] != "overrides" {
		t.Errorf("expected search paths [models overrides], got %v", cfg.Assets.SearchPaths)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "daerig.log" {
		t.Errorf("expected log file 'daerig.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFilePartial(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "daerig.yaml")

	if err := os.WriteFile(configPath, []byte("import:\n  max_weights: 2\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Import.MaxWeights != 2 {
		t.Errorf("expected max weights 2, got %d", cfg.Import.MaxWeights)
	}
	// Untouched keys keep their defaults
	if cfg.Import.ArmatureID != "Armature" {
		t.Errorf("expected default armature id, got %s", cfg.Import.ArmatureID)
	}
	if !cfg.Export.Binary {
		t.Error("expected default binary export")
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
import:
  max_weights: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/daerig.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)

	// Keep the user config dir out of the way
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Setenv("HOME", filepath.Join(tmpDir, "home"))
	t.Setenv("APPDATA", filepath.Join(tmpDir, "appdata"))

	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, FileName)
	if err := os.WriteFile(configPath, []byte("import:\n  max_weights: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	path = findConfigFile()
	if path == "" {
		t.Error("expected to find daerig.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name: "debug flag",
			setup: func() {
				*flagDebug = true
			},
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() {
				*flagDebug = false
			},
		},
		{
			name: "max weights flag",
			setup: func() {
				*flagMaxWeights = 4
			},
			verify: func(cfg *Config) {
				if cfg.Import.MaxWeights != 4 {
					t.Errorf("expected max weights 4, got %d", cfg.Import.MaxWeights)
				}
			},
			teardown: func() {
				*flagMaxWeights = 0
			},
		},
		{
			name: "armature flag",
			setup: func() {
				*flagArmature = "Rig"
			},
			verify: func(cfg *Config) {
				if cfg.Import.ArmatureID != "Rig" {
					t.Errorf("expected armature id 'Rig', got %s", cfg.Import.ArmatureID)
				}
			},
			teardown: func() {
				*flagArmature = ""
			},
		},
		{
			name: "ascii flag",
			setup: func() {
				*flagASCII = true
			},
			verify: func(cfg *Config) {
				if cfg.Export.Binary {
					t.Error("expected binary to be false with ascii flag")
				}
			},
			teardown: func() {
				*flagASCII = false
			},
		},
		{
			name: "out dir flag",
			setup: func() {
				*flagOutDir = "build"
			},
			verify: func(cfg *Config) {
				if cfg.Export.OutputDir != "build" {
					t.Errorf("expected output dir 'build', got %s", cfg.Export.OutputDir)
				}
			},
			teardown: func() {
				*flagOutDir = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "daerig.yaml")

	yamlContent := `
import:
  max_weights: 2
  armature_id: "FileRig"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagMaxWeights = 4
	defer func() {
		*flagConfig = ""
		*flagMaxWeights = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Flag beats file
	if cfg.Import.MaxWeights != 4 {
		t.Errorf("expected max weights 4 from flag, got %d", cfg.Import.MaxWeights)
	}
	// File beats default
	if cfg.Import.ArmatureID != "FileRig" {
		t.Errorf("expected armature id 'FileRig' from file, got %s", cfg.Import.ArmatureID)
	}
}

func TestSaveTo(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", FileName)

	cfg := Default()
	cfg.Import.MaxWeights = 5
	cfg.Export.OutputDir = "exports"

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload saved config: %v", err)
	}
	if loaded.Import.MaxWeights != 5 {
		t.Errorf("expected max weights 5, got %d", loaded.Import.MaxWeights)
	}
	if loaded.Export.OutputDir != "exports" {
		t.Errorf("expected output dir 'exports', got %s", loaded.Export.OutputDir)
	}
}

func TestSaveToLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	if err := Default().SaveTo(filepath.Join(dir, FileName)); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != FileName {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only %s, got %v", FileName, names)
	}
}

func TestSave(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv("HOME", tmpDir)
	t.Setenv("APPDATA", tmpDir)

	cfg := Default()
	cfg.Import.ArmatureID = "Saved"

	path, err := cfg.Save()
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if path != filepath.Join(ConfigDir(), FileName) {
		t.Errorf("expected path in config dir, got %s", path)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload saved config: %v", err)
	}
	if loaded.Import.ArmatureID != "Saved" {
		t.Errorf("expected armature id 'Saved', got %s", loaded.Import.ArmatureID)
	}
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := Default().Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"max_weights: 3", "armature_id: Armature", "binary: true", "level: info"} {
		if !strings.Contains(out, want) {
			t.Errorf("encoded config missing %q:\n%s", want, out)
		}
	}
}
