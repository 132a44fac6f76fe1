// geomtool is a CLI for the geometry kernel: it inspects and evaluates scene
// files, tessellates them to meshes and outlines, and generates the
// parametric lamp.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/geomkernel/internal/config"
	"github.com/Faultbox/geomkernel/internal/export"
	"github.com/Faultbox/geomkernel/internal/lamp"
	"github.com/Faultbox/geomkernel/internal/logger"
	"github.com/Faultbox/geomkernel/internal/pipeline"
	"github.com/Faultbox/geomkernel/internal/scene"
	"github.com/Faultbox/geomkernel/pkg/planar"
	"github.com/Faultbox/geomkernel/pkg/tessellate"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(args)
	case "eval":
		err = cmdEval(args)
	case "tessellate", "t":
		err = cmdTessellate(args)
	case "planar":
		err = cmdPlanar(args)
	case "lamp":
		err = cmdLamp(args)
	case "config":
		err = cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fatalf("%v", err)
	}
}

// errUsage marks a command invoked with missing arguments.
var errUsage = errors.New("usage")

func usage(line string) error {
	return fmt.Errorf("%w: geomtool %s", errUsage, line)
}

func printUsage() {
	fmt.Println(`geomtool - NURBS evaluation, tessellation and planar outline utility

Usage:
  geomtool <command> [options]

Commands:
  info <scene.yaml>                  List scene entities
  eval <scene.yaml> <name> <u> [v]   Evaluate a curve or surface
  tessellate <scene.yaml>            Tessellate exported entities to files
  planar <scene.yaml>                Write curve outlines and offsets as SVG
  lamp                               Generate the parametric lamp
  config                             Print or save the effective config

Common options:
  -config <file>     Config file (default: geomtool.yaml)
  -tolerance <d>     Curvature tolerance
  -uniform <n>       Uniform sampling with n samples
  -workers <n>       Concurrent jobs
  -format <fmt>      stl, obj, json or svg
  -out <dir>         Output directory
  -debug             Debug logging

Examples:
  geomtool info scene.yaml
  geomtool eval scene.yaml vase 0.25 0.5
  geomtool tessellate -format obj -out build scene.yaml
  geomtool planar scene.yaml > outline.svg
  geomtool lamp -params lamp.yaml -format stl -out lamp
  geomtool config -tolerance 0.005 -save geomtool.yaml`)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// setup parses args, loads the layered config and starts logging.
func setup(fs *flag.FlagSet, args []string) (*config.Config, error) {
	flags := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

func cmdInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		return usage("info <scene.yaml>")
	}

	s, err := scene.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	exported := lo.Filter(s.Entities, func(e scene.Entity, _ int) bool { return !e.Construction })

	fmt.Printf("Scene:        %s\n", fs.Arg(0))
	fmt.Printf("Entities:     %d\n", len(s.Entities))
	fmt.Printf("Exported:     %d\n", len(exported))
	fmt.Printf("Construction: %d\n", len(s.Entities)-len(exported))
	fmt.Println()
	fmt.Println("Entities by kind:")

	kinds := lo.Uniq(lo.Map(s.Entities, func(e scene.Entity, _ int) string { return e.Kind }))
	sort.Strings(kinds)
	for _, k := range kinds {
		n := lo.CountBy(s.Entities, func(e scene.Entity) bool { return e.Kind == k })
		fmt.Printf("  %-12s %d\n", k, n)
	}

	fmt.Println()
	for _, e := range s.Entities {
		flags := ""
		if e.Construction {
			flags += " construction"
		}
		if !e.Planar.Empty() {
			flags += " planar"
		}
		if e.Overrides != nil {
			flags += " overrides"
		}
		fmt.Printf("  %-24s %-12s %s%s\n", e.Name, e.Kind, e.Geometry.Kind, flags)
	}
	return nil
}

func cmdEval(args []string) error {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 3 {
		return usage("eval <scene.yaml> <name> <u> [v]")
	}

	s, err := scene.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	e, ok := s.Lookup(fs.Arg(1))
	if !ok {
		return fmt.Errorf("entity not found: %s", fs.Arg(1))
	}
	u, err := strconv.ParseFloat(fs.Arg(2), 64)
	if err != nil {
		return fmt.Errorf("parameter u: %w", err)
	}

	g := e.Geometry
	switch g.Kind {
	case tessellate.KindCurve:
		start, end := g.Curve.Domain()
		fmt.Printf("Curve:     %s (degree %d, %d control points)\n", e.Name, g.Curve.Degree, len(g.Curve.ControlPoints))
		fmt.Printf("Domain:    [%g, %g]\n", start, end)
		fmt.Printf("Point:     %v\n", g.Curve.Point(u))
		fmt.Printf("Tangent:   %v\n", g.Curve.Tangent(u))
		fmt.Printf("Curvature: %g\n", g.Curve.Curvature(u))
	case tessellate.KindSurface:
		if fs.NArg() < 4 {
			return fmt.Errorf("surface %s needs both u and v", e.Name)
		}
		v, err := strconv.ParseFloat(fs.Arg(3), 64)
		if err != nil {
			return fmt.Errorf("parameter v: %w", err)
		}
		uMin, uMax, vMin, vMax := g.Surface.Domain()
		sp := g.Surface.Evaluate(u, v)
		fmt.Printf("Surface:   %s (degree %dx%d, %dx%d control points)\n",
			e.Name, g.Surface.DegreeU, g.Surface.DegreeV, g.Surface.Rows(), g.Surface.Cols())
		fmt.Printf("Domain:    [%g, %g] x [%g, %g]\n", uMin, uMax, vMin, vMax)
		fmt.Printf("Point:     %v\n", sp.Position)
		fmt.Printf("Normal:    %v\n", sp.Normal)
		if sp.Degenerate {
			fmt.Println("           (degenerate, fallback normal)")
		}
	default:
		return fmt.Errorf("%s is a %s and cannot be evaluated", e.Name, g.Kind)
	}
	return nil
}

// run tessellates entities with the configured pipeline. Interrupts cancel
// the remaining jobs.
func run(cfg *config.Config, entities []scene.Entity) ([]pipeline.Output, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return pipeline.Run(ctx, entities, pipeline.FromConfig(cfg))
}

func parts(outputs []pipeline.Output) []export.Part {
	return lo.Map(outputs, func(o pipeline.Output, _ int) export.Part {
		return export.Part{Name: o.Name, Result: o.Result}
	})
}

// layers groups the outline output of a run into SVG layers.
func layers(outputs []pipeline.Output) []export.Layer {
	var curves, outlines, offsets []planar.Polyline
	for _, o := range outputs {
		if o.Result.Polyline == nil {
			continue
		}
		if o.Outline != nil {
			outlines = append(outlines, *o.Outline)
		} else {
			pl := o.Result.Polyline
			curves = append(curves, planar.FromVec3(pl.Points, pl.Closed))
		}
		if o.Offset != nil {
			offsets = append(offsets, *o.Offset)
		}
	}
	return []export.Layer{
		{Name: "curves", Stroke: "black", Polylines: curves},
		{Name: "outlines", Stroke: "blue", Polylines: outlines},
		{Name: "offsets", Stroke: "red", Polylines: offsets},
	}
}

func writeSVGFile(path string, ls []export.Layer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteSVG(f, ls, export.DefaultSVGOptions()); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Printf("Wrote: %s\n", path)
	return nil
}

// writeOutputs writes a run in the configured format.
func writeOutputs(cfg *config.Config, name string, outputs []pipeline.Output) error {
	if cfg.Output.Format == config.FormatSVG {
		if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
			return err
		}
		return writeSVGFile(filepath.Join(cfg.Output.Dir, export.FileName(name, config.FormatSVG)), layers(outputs))
	}

	written, err := export.WriteParts(cfg.Output.Dir, cfg.Output.Format, parts(outputs))
	for _, path := range written {
		fmt.Printf("Wrote: %s\n", path)
	}
	return err
}

func summarize(outputs []pipeline.Output) {
	truncated := lo.CountBy(outputs, func(o pipeline.Output) bool { return o.Result.Truncated() })
	triangles := lo.SumBy(outputs, func(o pipeline.Output) int {
		if o.Result.Mesh == nil {
			return 0
		}
		return o.Result.Mesh.TriangleCount()
	})
	fmt.Fprintf(os.Stderr, "\n(%d entities, %d triangles, %d truncated)\n", len(outputs), triangles, truncated)
}

func cmdTessellate(args []string) error {
	fs := flag.NewFlagSet("tessellate", flag.ExitOnError)
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if fs.NArg() < 1 {
		return usage("tessellate [options] <scene.yaml>")
	}

	path := fs.Arg(0)
	s, err := scene.Load(path)
	if err != nil {
		return err
	}
	outputs, err := run(cfg, s.Exported())
	if err != nil {
		return err
	}

	name := filepath.Base(path)
	name = name[:len(name)-len(filepath.Ext(name))]
	if err := writeOutputs(cfg, name, outputs); err != nil {
		return err
	}
	summarize(outputs)
	return nil
}

func cmdPlanar(args []string) error {
	fs := flag.NewFlagSet("planar", flag.ExitOnError)
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if fs.NArg() < 1 {
		return usage("planar [options] <scene.yaml>")
	}

	s, err := scene.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	curves := lo.Filter(s.Exported(), func(e scene.Entity, _ int) bool {
		return e.Geometry.Kind != tessellate.KindSurface
	})
	outputs, err := run(cfg, curves)
	if err != nil {
		return err
	}

	for _, o := range outputs {
		if o.Offset != nil && planar.SelfIntersects(*o.Offset) {
			logger.Warn("offset outline intersects itself", zap.String("entity", o.Name))
		}
	}
	return export.WriteSVG(os.Stdout, layers(outputs), export.DefaultSVGOptions())
}

func cmdLamp(args []string) error {
	fs := flag.NewFlagSet("lamp", flag.ExitOnError)
	paramsPath := fs.String("params", "", "Lamp parameter file (YAML)")
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer logger.Sync()

	params := lamp.DefaultParams()
	if *paramsPath != "" {
		if params, err = lamp.LoadParams(*paramsPath); err != nil {
			return err
		}
	}

	design, err := lamp.Build(params)
	if err != nil {
		return err
	}

	gap, err := design.SleeveFit(cfg.Tessellation)
	if err != nil {
		return fmt.Errorf("sleeve fit: %w", err)
	}
	if gap < 0 {
		logger.Warn("sleeve does not clear the neck", zap.Float64("gap", gap))
	}

	outputs, err := run(cfg, design.Entities())
	if err != nil {
		return err
	}
	if err := writeOutputs(cfg, "lamp", outputs); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return err
	}
	footprint, err := design.Footprint(cfg.Tessellation)
	if err != nil {
		return fmt.Errorf("footprint: %w", err)
	}
	err = writeSVGFile(filepath.Join(cfg.Output.Dir, "lamp-pattern.svg"), []export.Layer{
		{Name: "windows", Stroke: "black", Polylines: design.PatternLayer()},
	})
	if err != nil {
		return err
	}
	err = writeSVGFile(filepath.Join(cfg.Output.Dir, "lamp-footprint.svg"), []export.Layer{
		{Name: "footprint", Stroke: "black", Polylines: []planar.Polyline{footprint}},
	})
	if err != nil {
		return err
	}

	fmt.Printf("Base:      %s, %.1f mm\n", design.Params.BaseType, design.BaseHeight)
	fmt.Printf("Pattern:   %s, %d windows\n", design.Params.ShadePattern, len(design.Windows))
	fmt.Printf("Port:      %.1f mm radius\n", design.PortRadius)
	fmt.Printf("Sleeve:    %.2f mm bore, %.3f mm fit gap\n", design.SleeveRadius, gap)
	if len(design.Adjusted) > 0 {
		fmt.Printf("Adjusted:  %v\n", design.Adjusted)
	}
	summarize(outputs)
	return nil
}

// cmdConfig prints the effective config (defaults, file, then flags) as
// YAML, or writes it with -save or -user.
func cmdConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	savePath := fs.String("save", "", "Write the effective config to this file")
	user := fs.Bool("user", false, "Write the effective config to the user config directory")
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer logger.Sync()

	switch {
	case *savePath != "":
		if err := cfg.SaveTo(*savePath); err != nil {
			return err
		}
		fmt.Printf("Wrote: %s\n", *savePath)
	case *user:
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Printf("Wrote: %s\n", filepath.Join(config.ConfigDir(), config.FileName))
	default:
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	}
	return nil
}
