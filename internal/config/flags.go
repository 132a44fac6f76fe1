package config

import (
	"flag"

	"github.com/Faultbox/geomkernel/pkg/tessellate"
)

// Flags holds command-line overrides bound to a FlagSet.
type Flags struct {
	Config     *string
	Debug      *bool
	Tolerance  *float64
	MinSamples *int
	MaxSamples *int
	Uniform    *int
	Workers    *int
	Format     *string
	Out        *string
}

// RegisterFlags binds the shared overrides to fs. Each geomtool command
// registers them on its own FlagSet.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		Config:     fs.String("config", "", "Path to config file"),
		Debug:      fs.Bool("debug", false, "Enable debug logging"),
		Tolerance:  fs.Float64("tolerance", -1, "Curvature tolerance (chord deviation)"),
		MinSamples: fs.Int("min-samples", 0, "Minimum samples per curve or surface direction"),
		MaxSamples: fs.Int("max-samples", 0, "Sample budget per curve"),
		Uniform:    fs.Int("uniform", 0, "Use N uniform samples instead of adaptive refinement"),
		Workers:    fs.Int("workers", -1, "Concurrent tessellation jobs (0 = all CPUs)"),
		Format:     fs.String("format", "", "Output format: stl, obj, json or svg"),
		Out:        fs.String("out", "", "Output directory"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil || f.Config == nil {
		return ""
	}
	return *f.Config
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug != nil && *f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Tolerance != nil && *f.Tolerance >= 0 {
		cfg.Tessellation.CurvatureTolerance = *f.Tolerance
	}
	if f.MinSamples != nil && *f.MinSamples > 0 {
		cfg.Tessellation.MinSamples = *f.MinSamples
	}
	if f.MaxSamples != nil && *f.MaxSamples > 0 {
		cfg.Tessellation.MaxSamples = *f.MaxSamples
	}
	if f.Uniform != nil && *f.Uniform > 0 {
		cfg.Tessellation.Mode = tessellate.ModeUniform
		cfg.Tessellation.UniformSamples = *f.Uniform
	}
	if f.Workers != nil && *f.Workers >= 0 {
		cfg.Pipeline.Workers = *f.Workers
	}
	if f.Format != nil && *f.Format != "" {
		cfg.Output.Format = *f.Format
	}
	if f.Out != nil && *f.Out != "" {
		cfg.Output.Dir = *f.Out
	}
}
