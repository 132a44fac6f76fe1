package planar

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/geomkernel/pkg/math"
)

var (
	ErrInvalidOffset = errors.New("invalid offset options")
	ErrTooFewPoints  = errors.New("polyline has too few distinct points")
)

// JoinStyle selects how offset segments meet at outer corners.
type JoinStyle string

const (
	// JoinMiter extends both offset edges to their intersection.
	JoinMiter JoinStyle = "miter"
	// JoinBevel connects the offset edges with a straight chamfer.
	JoinBevel JoinStyle = "bevel"
	// JoinRound connects them with an arc-approximating fan.
	JoinRound JoinStyle = "round"
)

// OffsetOptions configures Offset.
type OffsetOptions struct {
	Join JoinStyle `yaml:"join"`
	// MiterLimit bounds the miter length as a multiple of the offset
	// distance. Corners that would exceed it are beveled.
	MiterLimit float64 `yaml:"miter_limit"`
	// ArcTolerance is the maximum sagitta of round join chords.
	ArcTolerance float64 `yaml:"arc_tolerance"`
}

// DefaultOffsetOptions returns miter joins with the conventional limit of 4.
func DefaultOffsetOptions() OffsetOptions {
	return OffsetOptions{Join: JoinMiter, MiterLimit: 4, ArcTolerance: 0.01}
}

// Validate checks the join style and limits.
func (o OffsetOptions) Validate() error {
	switch o.Join {
	case JoinMiter, JoinBevel, JoinRound:
	default:
		return fmt.Errorf("%w: unknown join %q", ErrInvalidOffset, o.Join)
	}
	if !(o.MiterLimit >= 1) || gomath.IsInf(o.MiterLimit, 0) {
		return fmt.Errorf("%w: miter_limit must be at least 1, got %g", ErrInvalidOffset, o.MiterLimit)
	}
	if o.Join == JoinRound && !(o.ArcTolerance > 0) {
		return fmt.Errorf("%w: arc_tolerance must be positive, got %g", ErrInvalidOffset, o.ArcTolerance)
	}
	return nil
}

// maxArcSteps caps the fan size of a single round join.
const maxArcSteps = 256

// Offset moves every segment of pl sideways by d. For an open polyline a
// positive d offsets to the left of the direction of travel; for a closed
// polygon a positive d offsets outward whatever its winding.
//
// Each vertex moves along the bisector of its adjacent edge normals. Outer
// corners use the configured join; a miter longer than MiterLimit*|d|
// always falls back to a bevel. Inner corners take the miter point, or a
// bevel beyond the same limit.
func Offset(pl Polyline, d float64, opts OffsetOptions) (Polyline, error) {
	if err := opts.Validate(); err != nil {
		return Polyline{}, err
	}
	src := dedupe(pl, math.Epsilon)
	if len(src.Points) < 2 || (src.Closed && len(src.Points) < 3) {
		return Polyline{}, fmt.Errorf("%w: %d", ErrTooFewPoints, len(src.Points))
	}
	if d == 0 {
		return src, nil
	}

	// Work with left normals; a counter-clockwise polygon's outside is on
	// its right.
	dist := d
	if src.Closed && WindingOf(src.Points) == CounterClockwise {
		dist = -d
	}

	pts := src.Points
	n := len(pts)
	out := Polyline{Closed: src.Closed, Points: make([]math.Vec2, 0, n+n/2)}
	normal := func(i int) math.Vec2 {
		return pts[(i+1)%n].Sub(pts[i]).Normalize().Perp()
	}

	for i := 0; i < n; i++ {
		p := pts[i]
		if !src.Closed && (i == 0 || i == n-1) {
			seg := i
			if i == n-1 {
				seg = n - 2
			}
			out.Points = append(out.Points, p.Add(normal(seg).Scale(dist)))
			continue
		}
		prev := (i - 1 + n) % n
		out.Points = appendJoin(out.Points, p, normal(prev), normal(i), dist, opts)
	}
	return out, nil
}

// appendJoin emits the offset geometry of the corner at p between edges with
// left normals n0 and n1.
func appendJoin(dst []math.Vec2, p, n0, n1 math.Vec2, dist float64, opts OffsetOptions) []math.Vec2 {
	// Edge directions are the normals rotated back; their cross and dot
	// equal those of the normals.
	cross := n0.Cross(n1)
	dot := n0.Dot(n1)

	if dot > 0 && gomath.Abs(cross) < 1e-12 {
		return append(dst, p.Add(n0.Scale(dist)))
	}

	a := p.Add(n0.Scale(dist))
	b := p.Add(n1.Scale(dist))

	// 1/cos(theta/2) <= limit, with theta the turn angle.
	withinLimit := 2 < (1+dot)*opts.MiterLimit*opts.MiterLimit
	outer := cross*dist < 0 || dot <= -1+1e-12

	if !outer || opts.Join == JoinMiter {
		if withinLimit {
			m := n0.Add(n1).Scale(dist / (1 + dot))
			return append(dst, p.Add(m))
		}
		return append(dst, a, b)
	}

	if opts.Join == JoinBevel {
		return append(dst, a, b)
	}

	// Round: sweep n0 to n1 the short way, or around the outside when the
	// path reverses.
	sweep := gomath.Atan2(cross, dot)
	if dot <= -1+1e-12 {
		sweep = gomath.Copysign(gomath.Pi, -dist)
	}
	r := gomath.Abs(dist)
	step := gomath.Pi
	if opts.ArcTolerance < r {
		step = 2 * gomath.Acos(1-opts.ArcTolerance/r)
	}
	steps := int(gomath.Ceil(gomath.Abs(sweep) / step))
	if steps < 1 {
		steps = 1
	}
	if steps > maxArcSteps {
		steps = maxArcSteps
	}
	dst = append(dst, a)
	for k := 1; k < steps; k++ {
		ang := sweep * float64(k) / float64(steps)
		s, c := gomath.Sincos(ang)
		rot := math.Vec2{X: n0.X*c - n0.Y*s, Y: n0.X*s + n0.Y*c}
		dst = append(dst, p.Add(rot.Scale(dist)))
	}
	return append(dst, b)
}
