// Package config handles daerig configuration loading and management.
package config

import (
	"go.uber.org/zap"

	"github.com/Faultbox/daerig/pkg/collada"
)

// Config holds all pipeline settings.
type Config struct {
	Import  ImportConfig  `yaml:"import"`
	Export  ExportConfig  `yaml:"export"`
	Assets  AssetsConfig  `yaml:"assets"`
	Logging LoggingConfig `yaml:"logging"`
}

// ImportConfig holds COLLADA loading settings.
type ImportConfig struct {
	MaxWeights int    `yaml:"max_weights"` // Influences kept per vertex
	ArmatureID string `yaml:"armature_id"` // Visual scene node holding the joint tree
}

// ExportConfig holds glTF output settings.
type ExportConfig struct {
	Binary    bool   `yaml:"binary"`
	OutputDir string `yaml:"output_dir"`
}

// AssetsConfig holds asset lookup paths.
type AssetsConfig struct {
	SearchPaths []string `yaml:"search_paths"` // Later paths take priority
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Import: ImportConfig{
			MaxWeights: collada.DefaultMaxWeights,
			ArmatureID: collada.DefaultArmatureID,
		},
		Export: ExportConfig{
			Binary:    true,
			OutputDir: ".",
		},
		Assets: AssetsConfig{
			SearchPaths: []string{"."},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// ColladaOptions converts the import settings into loader options.
func (c *Config) ColladaOptions(log *zap.Logger) collada.Options {
	return collada.Options{
		MaxWeights: c.Import.MaxWeights,
		ArmatureID: c.Import.ArmatureID,
		Logger:     log,
	}
}
