// Package lamp generates a parametric table lamp on top of the kernel: a
// base (box, triangular prism or lofted vase), a neck ring, a cord port, a
// shade with a tolerance-fit sleeve and a slot or lattice window pattern.
//
// Dimensions are in millimetres. The generator produces surfaces and
// window outlines; solid booleans between them are left to the consumer.
package lamp

import (
	"errors"
	"fmt"
	gomath "math"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

var ErrInvalidParams = errors.New("invalid lamp parameters")

// BaseType selects the base body.
type BaseType string

const (
	BaseCube     BaseType = "cube"
	BaseTriangle BaseType = "triangle"
	BaseVase     BaseType = "vase"
)

// Pattern selects the shade window layout.
type Pattern string

const (
	PatternLattice Pattern = "lattice"
	PatternSlots   Pattern = "slots"
	PatternNone    Pattern = "none"
)

// Params holds every tunable dimension.
type Params struct {
	BaseType       BaseType `yaml:"base_type"`
	BaseWidth      float64  `yaml:"base_width"`
	BaseDepth      float64  `yaml:"base_depth"`
	BaseHeight     float64  `yaml:"base_height"`
	TriangleSide   float64  `yaml:"triangle_side"`
	VaseHeight     float64  `yaml:"vase_height"`
	VaseBaseRadius float64  `yaml:"vase_base_radius"`
	VaseMidRadius  float64  `yaml:"vase_mid_radius"`
	VaseNeckRadius float64  `yaml:"vase_neck_radius"`

	// Neck is the attachment ring on top of the base.
	NeckOuterRadius float64 `yaml:"neck_outer_radius"`
	NeckHeight      float64 `yaml:"neck_height"`
	NeckWallMin     float64 `yaml:"neck_wall_min"`

	ShadeHeight      float64 `yaml:"shade_height"`
	ShadeOuterRadius float64 `yaml:"shade_outer_radius"`
	ShadeWall        float64 `yaml:"shade_wall"`
	SleeveHeight     float64 `yaml:"sleeve_height"`
	ShadePattern     Pattern `yaml:"shade_pattern"`

	// Tolerance is the radial clearance of the sleeve fit.
	Tolerance float64 `yaml:"tolerance"`

	SlotCount         int     `yaml:"slot_count"`
	SlotWidth         float64 `yaml:"slot_width"`
	SlotDepth         float64 `yaml:"slot_depth"`
	SlotMargin        float64 `yaml:"slot_margin"`
	SlotVariation     float64 `yaml:"slot_variation"`
	SlotWaveFrequency float64 `yaml:"slot_wave_frequency"`

	LatticeRows         int     `yaml:"lattice_rows"`
	LatticeColumns      int     `yaml:"lattice_columns"`
	LatticeWindowWidth  float64 `yaml:"lattice_window_width"`
	LatticeWindowHeight float64 `yaml:"lattice_window_height"`
	LatticeWindowDepth  float64 `yaml:"lattice_window_depth"`
	LatticeMargin       float64 `yaml:"lattice_margin"`
	LatticeOffsetRatio  float64 `yaml:"lattice_offset_ratio"`
	LatticeTwistDegrees float64 `yaml:"lattice_twist_degrees"`

	CordDiameter  float64 `yaml:"cord_diameter"`
	BulbDiameter  float64 `yaml:"bulb_diameter"`
	PortClearance float64 `yaml:"port_clearance"`
}

// DefaultParams returns the reference lamp.
func DefaultParams() Params {
	return Params{
		BaseType:       BaseCube,
		BaseWidth:      80,
		BaseDepth:      80,
		BaseHeight:     60,
		TriangleSide:   90,
		VaseHeight:     75,
		VaseBaseRadius: 42,
		VaseMidRadius:  55,
		VaseNeckRadius: 34,

		NeckOuterRadius: 24,
		NeckHeight:      12,
		NeckWallMin:     2.4,

		ShadeHeight:      120,
		ShadeOuterRadius: 58,
		ShadeWall:        2.4,
		SleeveHeight:     14,
		ShadePattern:     PatternLattice,

		Tolerance: 0.4,

		SlotCount:         24,
		SlotWidth:         6,
		SlotDepth:         12,
		SlotMargin:        12,
		SlotVariation:     0.25,
		SlotWaveFrequency: 2,

		LatticeRows:         6,
		LatticeColumns:      30,
		LatticeWindowWidth:  8,
		LatticeWindowHeight: 18,
		LatticeWindowDepth:  12,
		LatticeMargin:       12,
		LatticeOffsetRatio:  0.5,
		LatticeTwistDegrees: 8,

		CordDiameter:  7,
		BulbDiameter:  28,
		PortClearance: 2,
	}
}

// LoadParams reads YAML parameters over the defaults.
func LoadParams(path string) (Params, error) {
	p := DefaultParams()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("lamp params %s: %w", path, err)
	}
	return p, nil
}

type dimension struct {
	name  string
	value float64
}

// Validate rejects parameters no clamp can repair.
func (p Params) Validate() error {
	var err error
	switch p.BaseType {
	case BaseCube, BaseTriangle, BaseVase:
	default:
		err = multierr.Append(err, fmt.Errorf("%w: unknown base_type %q", ErrInvalidParams, p.BaseType))
	}
	switch p.ShadePattern {
	case PatternLattice, PatternSlots, PatternNone:
	default:
		err = multierr.Append(err, fmt.Errorf("%w: unknown shade_pattern %q", ErrInvalidParams, p.ShadePattern))
	}

	dims := []dimension{
		{"base_height", p.BaseHeight},
		{"neck_height", p.NeckHeight},
		{"shade_height", p.ShadeHeight},
		{"shade_wall", p.ShadeWall},
		{"tolerance", p.Tolerance},
	}
	switch p.BaseType {
	case BaseCube:
		dims = append(dims, dimension{"base_width", p.BaseWidth}, dimension{"base_depth", p.BaseDepth})
	case BaseTriangle:
		dims = append(dims, dimension{"triangle_side", p.TriangleSide})
	case BaseVase:
		dims = append(dims,
			dimension{"vase_height", p.VaseHeight},
			dimension{"vase_base_radius", p.VaseBaseRadius},
			dimension{"vase_mid_radius", p.VaseMidRadius},
			dimension{"vase_neck_radius", p.VaseNeckRadius},
		)
	}
	for _, d := range dims {
		if !(d.value > 0) {
			err = multierr.Append(err, fmt.Errorf("%w: %s must be positive, got %g", ErrInvalidParams, d.name, d.value))
		}
	}
	if p.ShadePattern == PatternSlots && p.SlotCount < 1 {
		err = multierr.Append(err, fmt.Errorf("%w: slot_count must be at least 1", ErrInvalidParams))
	}
	if p.ShadePattern == PatternLattice && (p.LatticeRows < 1 || p.LatticeColumns < 1) {
		err = multierr.Append(err, fmt.Errorf("%w: lattice needs at least one row and column", ErrInvalidParams))
	}
	return err
}

// Normalize clamps dependent dimensions so the parts fit together and
// returns the cord port radius. Each adjusted field is reported by its YAML
// name.
func (p *Params) Normalize() (portRadius float64, adjusted []string) {
	portRadius = gomath.Max(p.CordDiameter, p.BulbDiameter)/2 + p.PortClearance

	clamp := func(name string, v *float64, min float64) {
		if *v < min {
			*v = min
			adjusted = append(adjusted, name)
		}
	}
	clamp("neck_outer_radius", &p.NeckOuterRadius, portRadius+p.NeckWallMin)
	clamp("shade_outer_radius", &p.ShadeOuterRadius, p.NeckOuterRadius+p.Tolerance+p.ShadeWall)
	clamp("shade_height", &p.ShadeHeight, p.NeckHeight+2*p.ShadeWall)

	if p.SleeveHeight < p.NeckHeight {
		p.SleeveHeight = p.NeckHeight + 1
		adjusted = append(adjusted, "sleeve_height")
	}
	if ceiling := p.ShadeHeight - 2*p.ShadeWall; p.SleeveHeight > ceiling {
		p.SleeveHeight = ceiling
		adjusted = append(adjusted, "sleeve_height")
	}
	return portRadius, adjusted
}
