// Package tessellate converts NURBS curves and surfaces into flat polyline
// and triangle buffers under a geometric error bound.
//
// Every call is stateless: inputs are never retained or mutated and every
// result owns freshly allocated buffers. When a sample or triangle budget is
// exhausted the best result under the cap is returned with Truncated set.
package tessellate

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	gomath "math"
)

var (
	ErrInvalidOptions = errors.New("invalid tessellation options")
	ErrUnknownKind    = errors.New("unknown geometry kind")
	ErrMissingData    = errors.New("geometry has no data for its kind")
)

// Mode selects between error-bounded and fixed-count sampling.
type Mode string

const (
	ModeAdaptive Mode = "adaptive"
	ModeUniform  Mode = "uniform"
)

// Options bounds a tessellation. A zero MaxSegmentLength, MaxAngle or
// CurvatureTolerance disables that refinement criterion.
type Options struct {
	// MaxSegmentLength is the longest allowed chord in model units.
	MaxSegmentLength float64 `yaml:"max_segment_length"`
	// MaxAngle is the largest allowed turn between adjacent tangents (or
	// patch normals), in radians.
	MaxAngle float64 `yaml:"max_angle"`
	// CurvatureTolerance bounds both curvature*chord and the chord's
	// deviation from the true geometry.
	CurvatureTolerance float64 `yaml:"curvature_tolerance"`

	MinSamples   int `yaml:"min_samples"`
	MaxSamples   int `yaml:"max_samples"`
	MaxTriangles int `yaml:"max_triangles"`

	Mode Mode `yaml:"mode"`
	// UniformSamples is the per-direction sample count in ModeUniform.
	UniformSamples int `yaml:"uniform_samples"`
}

// Default returns the options used when no configuration is supplied.
func Default() Options {
	return Options{
		MaxSegmentLength:   0,
		MaxAngle:           10 * gomath.Pi / 180,
		CurvatureTolerance: 0.01,
		MinSamples:         8,
		MaxSamples:         4096,
		MaxTriangles:       200000,
		Mode:               ModeAdaptive,
		UniformSamples:     32,
	}
}

// Validate checks that the options describe a bounded tessellation.
func (o Options) Validate() error {
	for name, v := range map[string]float64{
		"max_segment_length":  o.MaxSegmentLength,
		"max_angle":           o.MaxAngle,
		"curvature_tolerance": o.CurvatureTolerance,
	} {
		if gomath.IsNaN(v) || gomath.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s must be a finite non-negative number, got %g", ErrInvalidOptions, name, v)
		}
	}
	if o.MinSamples < 2 {
		return fmt.Errorf("%w: min_samples must be at least 2, got %d", ErrInvalidOptions, o.MinSamples)
	}
	if o.MaxSamples < o.MinSamples {
		return fmt.Errorf("%w: max_samples %d below min_samples %d", ErrInvalidOptions, o.MaxSamples, o.MinSamples)
	}
	if o.MaxTriangles < 0 || o.MaxTriangles == 1 {
		return fmt.Errorf("%w: max_triangles must be 0 or at least 2, got %d", ErrInvalidOptions, o.MaxTriangles)
	}
	switch o.Mode {
	case "", ModeAdaptive:
	case ModeUniform:
		if o.UniformSamples < 2 {
			return fmt.Errorf("%w: uniform_samples must be at least 2, got %d", ErrInvalidOptions, o.UniformSamples)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidOptions, o.Mode)
	}
	return nil
}

// Hash returns a stable digest of every field, for use in cache keys.
func (o Options) Hash() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	put(gomath.Float64bits(o.MaxSegmentLength))
	put(gomath.Float64bits(o.MaxAngle))
	put(gomath.Float64bits(o.CurvatureTolerance))
	put(uint64(o.MinSamples))
	put(uint64(o.MaxSamples))
	put(uint64(o.MaxTriangles))
	put(uint64(o.UniformSamples))
	h.Write([]byte(o.mode()))
	return h.Sum64()
}

func (o Options) mode() Mode {
	if o.Mode == "" {
		return ModeAdaptive
	}
	return o.Mode
}
