// daetool is a CLI utility for inspecting and converting skinned COLLADA models.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/daerig/internal/assets"
	"github.com/Faultbox/daerig/internal/config"
	"github.com/Faultbox/daerig/internal/engine/model"
	"github.com/Faultbox/daerig/internal/export"
	"github.com/Faultbox/daerig/internal/logger"
	"github.com/Faultbox/daerig/pkg/anim"
)

// tool bundles what every command needs.
type tool struct {
	cfg    *config.Config
	assets *assets.Manager
	log    *zap.Logger
}

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	t := newTool(cfg, logger.Named("daetool"))
	defer t.assets.Close()

	command := args[0]
	args = args[1:]

	switch command {
	case "info":
		err = t.cmdInfo(args)
	case "convert", "c":
		err = t.cmdConvert(args)
	case "pose":
		err = t.cmdPose(args)
	case "dump":
		err = t.cmdDump(args)
	case "config":
		err = t.cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`daetool - skinned COLLADA model utility

Usage:
  daetool [global flags] <command> [options]

Commands:
  info <file.dae>                        Show mesh, joint tree and clips
  convert <file.dae> [output]            Export to glTF (.glb or .gltf)
  pose [-t sec] [-clip name] <file.dae>  Print joint positions at a time in a clip
  dump <file.dae>                        Dump parsed skeleton and mesh summary
  config [-write] [-o path]              Print or save the effective config

Global flags:
  --config <path>    Config file (default ./daerig.yaml)
  --debug            Debug logging
  --max-weights <n>  Joint influences kept per vertex
  --armature <id>    Armature node id
  --ascii            Write .gltf JSON instead of .glb
  --out-dir <dir>    Output directory for convert

Examples:
  daetool info models/hero.dae
  daetool --ascii convert models/hero.dae
  daetool pose -t 0.5 -clip Walk models/hero.dae
  daetool --max-weights 4 config -write`)
}

func newTool(cfg *config.Config, log *zap.Logger) *tool {
	mgr := assets.NewManager()
	for _, dir := range cfg.Assets.SearchPaths {
		if err := mgr.AddDir(dir); err != nil {
			log.Warn("skipping search path", zap.String("path", dir), zap.Error(err))
		}
	}
	return &tool{cfg: cfg, assets: mgr, log: log}
}

func (t *tool) loadModel(name string) (*model.Model, error) {
	m, err := t.assets.LoadModel(name, t.cfg.ColladaOptions(logger.Log))
	if err != nil {
		return nil, err
	}
	t.log.Debug("model ready",
		zap.String("name", m.Name),
		zap.Int("vertices", len(m.Mesh.Vertices)),
		zap.Int("joints", m.JointCount()),
		zap.Int("clips", len(m.Animations)))
	return m, nil
}

func (t *tool) cmdInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: daetool info <file.dae>")
	}

	m, err := t.loadModel(args[0])
	if err != nil {
		return err
	}
	writeInfo(os.Stdout, args[0], m)
	return nil
}

func writeInfo(w io.Writer, path string, m *model.Model) {
	size := m.Mesh.Bounds.Size()

	fmt.Fprintf(w, "Model:     %s (%s)\n", m.Name, path)
	fmt.Fprintf(w, "Vertices:  %d\n", len(m.Mesh.Vertices))
	fmt.Fprintf(w, "Triangles: %d\n", m.Mesh.TriangleCount())
	fmt.Fprintf(w, "Bounds:    %.3f x %.3f x %.3f\n", size[0], size[1], size[2])
	fmt.Fprintf(w, "Furthest:  %.3f\n", m.FurthestPoint)
	fmt.Fprintf(w, "Joints:    %d (%d skinned)\n", m.JointCount(), len(m.JointOrder))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Joint tree:")
	m.Skeleton().Walk(func(slot, depth int, j anim.Joint) bool {
		index := "-"
		if j.Index >= 0 {
			index = fmt.Sprintf("%d", j.Index)
		}
		fmt.Fprintf(w, "  %s%s [%s]\n", strings.Repeat("  ", depth), j.Name, index)
		return true
	})

	fmt.Fprintln(w)
	if len(m.Animations) == 0 {
		fmt.Fprintln(w, "Clips: none")
		return
	}
	fmt.Fprintln(w, "Clips:")
	for _, clip := range m.Animations {
		fmt.Fprintf(w, "  %-16s %.3fs %d keyframes\n", clip.Name(), clip.Length(), len(clip.KeyFrames()))
	}
}

func (t *tool) cmdConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: daetool convert <file.dae> [output]")
	}

	m, err := t.loadModel(fs.Arg(0))
	if err != nil {
		return err
	}

	opts := export.Options{Binary: t.cfg.Export.Binary}
	out := export.OutputName(t.cfg.Export.OutputDir, m.Name, opts.Binary)
	if fs.NArg() > 1 {
		out = fs.Arg(1)
	}

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	if err := export.ExportFile(out, m, opts); err != nil {
		return err
	}

	t.log.Info("model exported", zap.String("model", m.Name), zap.String("output", out))
	fmt.Printf("Wrote %s\n", out)
	return nil
}

func (t *tool) cmdPose(args []string) error {
	fs := flag.NewFlagSet("pose", flag.ExitOnError)
	at := fs.Float64("t", 0, "Time in seconds from the clip start")
	clip := fs.String("clip", "", "Clip name (default: first clip)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: daetool pose [-t sec] [-clip name] <file.dae>")
	}

	m, err := t.loadModel(fs.Arg(0))
	if err != nil {
		return err
	}

	inst := m.NewInstance()
	if err := inst.Play(*clip); err != nil {
		return err
	}
	inst.Update(float32(*at))

	writePose(os.Stdout, inst)
	return nil
}

func writePose(w io.Writer, inst *model.Instance) {
	clip := inst.Animator.Current()
	fmt.Fprintf(w, "Clip %s at %.3fs of %.3fs\n", clip.Name(), inst.Animator.Time(), clip.Length())

	inst.Skeleton.Walk(func(slot, depth int, j anim.Joint) bool {
		p := j.AnimatedTransform.Translation()
		fmt.Fprintf(w, "  %-*s % .4f % .4f % .4f\n", 24, strings.Repeat("  ", depth)+j.Name, p.X, p.Y, p.Z)
		return true
	})
}

func (t *tool) cmdDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	depth := fs.Int("depth", 0, "Maximum nesting depth (0 = unlimited)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: daetool dump [-depth n] <file.dae>")
	}

	data, err := t.assets.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	return writeDump(os.Stdout, data, t.cfg.ColladaOptions(logger.Log), *depth)
}

func (t *tool) cmdConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	write := fs.Bool("write", false, "Save to the user config directory")
	out := fs.String("o", "", "Save to this path instead")
	fs.Parse(args)

	path, err := saveConfig(t.cfg, *write, *out)
	if err != nil {
		return err
	}
	if path == "" {
		return t.cfg.Encode(os.Stdout)
	}

	t.log.Info("config saved", zap.String("path", path))
	fmt.Printf("Wrote %s\n", path)
	return nil
}

// saveConfig writes cfg to out, or to the user config directory when only
// write is set. It returns "" when nothing was written.
func saveConfig(cfg *config.Config, write bool, out string) (string, error) {
	switch {
	case out != "":
		return out, cfg.SaveTo(out)
	case write:
		return cfg.Save()
	}
	return "", nil
}
