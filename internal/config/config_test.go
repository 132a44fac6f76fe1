package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/geomkernel/pkg/planar"
	"github.com/Faultbox/geomkernel/pkg/tessellate"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test tessellation defaults
	if cfg.Tessellation != tessellate.Default() {
		t.Errorf("expected tessellate.Default(), got %+v", cfg.Tessellation)
	}
	if cfg.Tessellation.CurvatureTolerance != 0.01 {
		t.Errorf("expected curvature tolerance 0.01, got %f", cfg.Tessellation.CurvatureTolerance)
	}

	// Test offset defaults
	if cfg.Offset.Join != planar.JoinMiter {
		t.Errorf("expected miter join, got %s", cfg.Offset.Join)
	}
	if cfg.Offset.MiterLimit != 4 {
		t.Errorf("expected miter limit 4, got %f", cfg.Offset.MiterLimit)
	}

	// Test pipeline and output defaults
	if cfg.Pipeline.Workers != 0 {
		t.Errorf("expected 0 workers, got %d", cfg.Pipeline.Workers)
	}
	if !cfg.Pipeline.Cache {
		t.Error("expected cache to be enabled by default")
	}
	if cfg.Output.Format != FormatSTL {
		t.Errorf("expected format stl, got %s", cfg.Output.Format)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "geomtool.yaml")

	yamlContent := `
tessellation:
  curvature_tolerance: 0.001
  max_angle: 0.2
  min_samples: 4
  max_samples: 256
  mode: uniform
  uniform_samples: 12

offset:
  join: round
  miter_limit: 2
  arc_tolerance: 0.05

simplify:
  tolerance: 0.1
  merge_angle: 0.01

pipeline:
  workers: 3
  cache: false

output:
  dir: "build"
  format: "obj"

logging:
  level: "debug"
  log_file: "geomtool.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Load config
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify values were loaded
	if cfg.Tessellation.CurvatureTolerance != 0.001 {
		t.Errorf("expected curvature tolerance 0.001, got %f", cfg.Tessellation.CurvatureTolerance)
	}
	if cfg.Tessellation.MaxSamples != 256 {
		t.Errorf("expected max samples 256, got %d", cfg.Tessellation.MaxSamples)
	}
	if cfg.Tessellation.Mode != tessellate.ModeUniform {
		t.Errorf("expected uniform mode, got %s", cfg.Tessellation.Mode)
	}
	// Unset keys keep their defaults.
	if cfg.Tessellation.MaxTriangles != 200000 {
		t.Errorf("expected default max triangles, got %d", cfg.Tessellation.MaxTriangles)
	}

	if cfg.Offset.Join != planar.JoinRound {
		t.Errorf("expected round join, got %s", cfg.Offset.Join)
	}
	if cfg.Offset.ArcTolerance != 0.05 {
		t.Errorf("expected arc tolerance 0.05, got %f", cfg.Offset.ArcTolerance)
	}

	if cfg.Simplify.Tolerance != 0.1 {
		t.Errorf("expected simplify tolerance 0.1, got %f", cfg.Simplify.Tolerance)
	}

	if cfg.Pipeline.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.Cache {
		t.Error("expected cache to be disabled")
	}

	if cfg.Output.Dir != "build" || cfg.Output.Format != FormatOBJ {
		t.Errorf("expected build/obj, got %s/%s", cfg.Output.Dir, cfg.Output.Format)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "geomtool.log" {
		t.Errorf("expected log file 'geomtool.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	// Create temporary config file with invalid YAML
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
tessellation:
  min_samples: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Try to load - should error
	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/geomtool.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidateAggregates(t *testing.T) {
	cfg := Default()
	cfg.Tessellation.MinSamples = 1
	cfg.Offset.MiterLimit = 0
	cfg.Pipeline.Workers = -2
	cfg.Output.Format = "dxf"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, tessellate.ErrInvalidOptions) {
		t.Errorf("expected ErrInvalidOptions in %v", err)
	}
	if !errors.Is(err, planar.ErrInvalidOffset) {
		t.Errorf("expected ErrInvalidOffset in %v", err)
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig in %v", err)
	}
}

func TestValidateWrapsSectionErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		section error
	}{
		{"tessellation", func(c *Config) { c.Tessellation.MinSamples = 1 }, tessellate.ErrInvalidOptions},
		{"offset", func(c *Config) { c.Offset.MiterLimit = 0.5 }, planar.ErrInvalidOffset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig in %v", err)
			}
			if !errors.Is(err, tt.section) {
				t.Errorf("expected %v in %v", tt.section, err)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Just verify it returns a non-empty path
	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}

	// Verify path is absolute
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	// Save current directory
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	// Create temp directory and change to it
	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	// No config file exists - should return empty
	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	// Create geomtool.yaml in current directory
	configPath := filepath.Join(tmpDir, FileName)
	if err := os.WriteFile(configPath, []byte("pipeline:\n  workers: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Should find it now
	path = findConfigFile()
	if path == "" {
		t.Error("expected to find geomtool.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "no flags",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				if *cfg != *Default() {
					t.Errorf("expected defaults, got %+v", cfg)
				}
			},
		},
		{
			name: "debug flag",
			args: []string{"-debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "sampling flags",
			args: []string{"-tolerance", "0", "-min-samples", "3", "-max-samples", "99"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Tessellation.CurvatureTolerance != 0 {
					t.Errorf("expected tolerance 0, got %f", cfg.Tessellation.CurvatureTolerance)
				}
				if cfg.Tessellation.MinSamples != 3 || cfg.Tessellation.MaxSamples != 99 {
					t.Errorf("expected 3/99 samples, got %d/%d", cfg.Tessellation.MinSamples, cfg.Tessellation.MaxSamples)
				}
			},
		},
		{
			name: "uniform flag",
			args: []string{"-uniform", "17"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Tessellation.Mode != tessellate.ModeUniform {
					t.Errorf("expected uniform mode, got %s", cfg.Tessellation.Mode)
				}
				if cfg.Tessellation.UniformSamples != 17 {
					t.Errorf("expected 17 uniform samples, got %d", cfg.Tessellation.UniformSamples)
				}
			},
		},
		{
			name: "output flags",
			args: []string{"-workers", "0", "-format", "svg", "-out", "/tmp/x"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Pipeline.Workers != 0 {
					t.Errorf("expected 0 workers, got %d", cfg.Pipeline.Workers)
				}
				if cfg.Output.Format != FormatSVG || cfg.Output.Dir != "/tmp/x" {
					t.Errorf("expected svg in /tmp/x, got %s in %s", cfg.Output.Format, cfg.Output.Dir)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet(tt.name, flag.ContinueOnError)
			flags := RegisterFlags(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parse: %v", err)
			}

			// Apply flags to default config
			cfg := Default()
			flags.apply(cfg)

			// Verify
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "geomtool.yaml")

	yamlContent := `
tessellation:
  min_samples: 5
  max_samples: 500
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Set flag to override config file
	fs := flag.NewFlagSet("load", flag.ContinueOnError)
	flags := RegisterFlags(fs)
	if err := fs.Parse([]string{"-config", configPath, "-max-samples", "1000"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	// Load config
	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Max samples should be from flag (1000), not file (500)
	if cfg.Tessellation.MaxSamples != 1000 {
		t.Errorf("expected max samples 1000 from flag, got %d", cfg.Tessellation.MaxSamples)
	}

	// Min samples should be from file (5) since no flag override
	if cfg.Tessellation.MinSamples != 5 {
		t.Errorf("expected min samples 5 from file, got %d", cfg.Tessellation.MinSamples)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "geomtool.yaml")
	if err := os.WriteFile(configPath, []byte("output:\n  format: dwg\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	fs := flag.NewFlagSet("load", flag.ContinueOnError)
	flags := RegisterFlags(fs)
	if err := fs.Parse([]string{"-config", configPath}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := Load(flags); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "geomtool.yaml")

	cfg := Default()
	cfg.Offset.Join = planar.JoinBevel
	cfg.Tessellation.MaxSegmentLength = 2.5
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}
