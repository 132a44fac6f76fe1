package tessellate

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/geomkernel/pkg/math"
	"github.com/Faultbox/geomkernel/pkg/nurbs"
)

// minSpanFraction stops subdivision once a parameter interval shrinks below
// this fraction of the domain, bounding work at cusps.
const minSpanFraction = 1e-9

// closeTolerance decides whether a sampled curve is reported as closed.
const closeTolerance = 1e-9

type curveSample struct {
	u       float64
	p       math.Vec3
	tangent math.Vec3
}

func sampleCurve(c *nurbs.Curve, u float64) curveSample {
	d := c.Derivatives(u, 1)
	return curveSample{u: u, p: c.Point(u), tangent: d[1].Normalize()}
}

// Curve samples c adaptively (or uniformly in ModeUniform). The curve and
// options are validated before any evaluation.
func Curve(c *nurbs.Curve, opts Options) (*Polyline, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if opts.mode() == ModeUniform {
		return CurveUniform(c, opts.UniformSamples)
	}
	return adaptiveCurve(c, opts), nil
}

// CurveUniform samples c at n evenly spaced parameters including both ends.
func CurveUniform(c *nurbs.Curve, n int) (*Polyline, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: uniform sample count must be at least 2, got %d", ErrInvalidOptions, n)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	lo, hi := c.Domain()
	pl := &Polyline{
		Points: make([]math.Vec3, n),
		Params: make([]float64, n),
	}
	for i := range pl.Points {
		u := uniformParam(lo, hi, i, n)
		pl.Params[i] = u
		pl.Points[i] = c.Point(u)
	}
	pl.Closed = c.IsClosed(closeTolerance)
	return pl, nil
}

func uniformParam(lo, hi float64, i, n int) float64 {
	if i == n-1 {
		return hi
	}
	return lo + (hi-lo)*float64(i)/float64(n-1)
}

// adaptiveCurve refines a MinSamples seed breadth-first: every pass splits
// all unsettled segments that fail a criterion, so when MaxSamples runs out
// the extra samples are spread over the whole curve rather than spent on its
// first bad region.
func adaptiveCurve(c *nurbs.Curve, opts Options) *Polyline {
	lo, hi := c.Domain()
	samples := make([]curveSample, opts.MinSamples)
	for i := range samples {
		samples[i] = sampleCurve(c, uniformParam(lo, hi, i, opts.MinSamples))
	}
	settled := make([]bool, len(samples)-1)
	minSpan := (hi - lo) * minSpanFraction

	truncated := false
	for {
		budget := opts.MaxSamples - len(samples)
		next := make([]curveSample, 1, 2*len(samples))
		next[0] = samples[0]
		nextSettled := make([]bool, 0, 2*len(settled))
		split := false

		for i, done := range settled {
			a, b := samples[i], samples[i+1]
			if !done && b.u-a.u > minSpan {
				mid := sampleCurve(c, (a.u+b.u)/2)
				if segmentNeedsSplit(c, a, b, mid, opts) {
					if budget > 0 {
						budget--
						split = true
						next = append(next, mid, b)
						nextSettled = append(nextSettled, false, false)
						continue
					}
					truncated = true
				}
			}
			next = append(next, b)
			nextSettled = append(nextSettled, true)
		}

		samples, settled = next, nextSettled
		if !split {
			break
		}
	}

	pl := &Polyline{
		Points:    make([]math.Vec3, len(samples)),
		Params:    make([]float64, len(samples)),
		Truncated: truncated,
	}
	for i, s := range samples {
		pl.Points[i] = s.p
		pl.Params[i] = s.u
	}
	pl.Closed = c.IsClosed(closeTolerance)
	return pl
}

// quarterSamples are the extra chord-deviation samples of a segment. A
// symmetric S-shaped span has its midpoint on the chord, zero curvature there
// and parallel end tangents; only off-center samples see it.
var quarterSamples = [...]float64{0.25, 0.75}

func segmentNeedsSplit(c *nurbs.Curve, a, b, mid curveSample, opts Options) bool {
	chord := a.p.Distance(b.p)
	if tol := opts.CurvatureTolerance; tol > 0 {
		if c.Curvature(mid.u)*chord > tol {
			return true
		}
		if mid.p.DistanceToSegment(a.p, b.p) > tol {
			return true
		}
		for _, f := range quarterSamples {
			q := c.Point(a.u + (b.u-a.u)*f)
			if q.DistanceToSegment(a.p, b.p) > tol {
				return true
			}
		}
	}
	if opts.MaxSegmentLength > 0 && chord > opts.MaxSegmentLength {
		return true
	}
	if opts.MaxAngle > 0 && angleBetween(a.tangent, b.tangent) > opts.MaxAngle {
		return true
	}
	return false
}

// angleBetween returns the angle between two unit vectors.
func angleBetween(a, b math.Vec3) float64 {
	d := a.Dot(b)
	if d > 1 {
		d = 1
	} else if d < -1 {
		d = -1
	}
	return gomath.Acos(d)
}
