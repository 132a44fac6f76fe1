// Package config handles geomtool configuration loading and management.
package config

import (
	"github.com/Faultbox/geomkernel/pkg/planar"
	"github.com/Faultbox/geomkernel/pkg/tessellate"
)

// Config holds all tool settings.
type Config struct {
	Tessellation tessellate.Options   `yaml:"tessellation"`
	Offset       planar.OffsetOptions `yaml:"offset"`
	Simplify     SimplifyConfig       `yaml:"simplify"`
	Pipeline     PipelineConfig       `yaml:"pipeline"`
	Output       OutputConfig         `yaml:"output"`
	Logging      LoggingConfig        `yaml:"logging"`
}

// SimplifyConfig holds default planar simplification tolerances.
type SimplifyConfig struct {
	Tolerance  float64 `yaml:"tolerance"`   // Douglas–Peucker distance, 0 = off
	MergeAngle float64 `yaml:"merge_angle"` // colinear merge angle in radians, 0 = off
}

// PipelineConfig holds batch tessellation settings.
type PipelineConfig struct {
	Workers int  `yaml:"workers"` // Concurrent jobs, 0 = GOMAXPROCS
	Cache   bool `yaml:"cache"`
}

// OutputConfig holds export settings.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // stl, obj, json or svg
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Output formats understood by the exporters.
const (
	FormatSTL  = "stl"
	FormatOBJ  = "obj"
	FormatJSON = "json"
	FormatSVG  = "svg"
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Tessellation: tessellate.Default(),
		Offset:       planar.DefaultOffsetOptions(),
		Simplify: SimplifyConfig{
			Tolerance:  0,
			MergeAngle: 0,
		},
		Pipeline: PipelineConfig{
			Workers: 0,
			Cache:   true,
		},
		Output: OutputConfig{
			Dir:    "out",
			Format: FormatSTL,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
