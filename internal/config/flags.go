package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagMaxWeights = flag.Int("max-weights", 0, "Joint influences kept per vertex")
	flagArmature   = flag.String("armature", "", "Armature node id in the visual scene")
	flagASCII      = flag.Bool("ascii", false, "Export .gltf JSON instead of .glb")
	flagOutDir     = flag.String("out-dir", "", "Output directory for exports")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagMaxWeights > 0 {
		cfg.Import.MaxWeights = *flagMaxWeights
	}
	if *flagArmature != "" {
		cfg.Import.ArmatureID = *flagArmature
	}
	if *flagASCII {
		cfg.Export.Binary = false
	}
	if *flagOutDir != "" {
		cfg.Export.OutputDir = *flagOutDir
	}
}
