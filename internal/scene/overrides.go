package scene

import "github.com/Faultbox/geomkernel/pkg/tessellate"

// Overrides replaces selected tessellation options for one entity. Nil
// fields keep the configured value.
type Overrides struct {
	MaxSegmentLength   *float64         `yaml:"max_segment_length"`
	MaxAngle           *float64         `yaml:"max_angle"`
	CurvatureTolerance *float64         `yaml:"curvature_tolerance"`
	MinSamples         *int             `yaml:"min_samples"`
	MaxSamples         *int             `yaml:"max_samples"`
	MaxTriangles       *int             `yaml:"max_triangles"`
	Mode               *tessellate.Mode `yaml:"mode"`
	UniformSamples     *int             `yaml:"uniform_samples"`
}

// Apply returns base with the set fields replaced. A nil receiver returns
// base unchanged.
func (o *Overrides) Apply(base tessellate.Options) tessellate.Options {
	if o == nil {
		return base
	}
	if o.MaxSegmentLength != nil {
		base.MaxSegmentLength = *o.MaxSegmentLength
	}
	if o.MaxAngle != nil {
		base.MaxAngle = *o.MaxAngle
	}
	if o.CurvatureTolerance != nil {
		base.CurvatureTolerance = *o.CurvatureTolerance
	}
	if o.MinSamples != nil {
		base.MinSamples = *o.MinSamples
	}
	if o.MaxSamples != nil {
		base.MaxSamples = *o.MaxSamples
	}
	if o.MaxTriangles != nil {
		base.MaxTriangles = *o.MaxTriangles
	}
	if o.Mode != nil {
		base.Mode = *o.Mode
	}
	if o.UniformSamples != nil {
		base.UniformSamples = *o.UniformSamples
	}
	return base
}
