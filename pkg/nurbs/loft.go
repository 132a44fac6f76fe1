package nurbs

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/geomkernel/pkg/math"
)

// knotTolerance bounds the difference between knots treated as equal when
// checking curve compatibility.
const knotTolerance = 1e-9

// Loft returns a surface that interpolates the section curves in order. All
// sections must share degree, knot vector and weights; the V direction runs
// across sections with degree min(degreeV, len(curves)-1).
func Loft(curves []*Curve, degreeV int) (*Surface, error) {
	if len(curves) < 2 {
		return nil, fmt.Errorf("%w: loft needs 2 sections, have %d", ErrTooFewControlPoints, len(curves))
	}
	if degreeV < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDegree, degreeV)
	}
	if degreeV > len(curves)-1 {
		degreeV = len(curves) - 1
	}

	first := curves[0]
	for i, c := range curves[1:] {
		if err := compatible(first, c); err != nil {
			return nil, fmt.Errorf("section %d: %w", i+1, err)
		}
	}

	rows := len(first.ControlPoints)
	columns := make([][]math.Vec3, rows)
	for i := range columns {
		columns[i] = make([]math.Vec3, len(curves))
		for k, c := range curves {
			columns[i][k] = c.ControlPoints[i]
		}
	}

	params := sectionParams(columns)
	knotsV := averagedKnots(params, degreeV)

	points := make([][]math.Vec3, rows)
	var weights [][]float64
	if first.IsRational() {
		weights = make([][]float64, rows)
	}
	for i, col := range columns {
		ctrl, err := solveInterpolation(col, params, degreeV, knotsV)
		if err != nil {
			return nil, err
		}
		points[i] = ctrl
		if weights != nil {
			weights[i] = make([]float64, len(ctrl))
			for j := range weights[i] {
				weights[i][j] = first.Weights[i]
			}
		}
	}
	return NewSurface(first.Degree, degreeV, points, weights, first.Knots, knotsV)
}

func compatible(a, b *Curve) error {
	if a.Degree != b.Degree {
		return fmt.Errorf("%w: degree %d vs %d", ErrIncompatibleCurves, a.Degree, b.Degree)
	}
	if len(a.Knots) != len(b.Knots) {
		return fmt.Errorf("%w: %d vs %d knots", ErrIncompatibleCurves, len(a.Knots), len(b.Knots))
	}
	for i := range a.Knots {
		if gomath.Abs(a.Knots[i]-b.Knots[i]) > knotTolerance {
			return fmt.Errorf("%w: knot %d differs", ErrIncompatibleCurves, i)
		}
	}
	for i := range a.ControlPoints {
		if gomath.Abs(a.weight(i)-b.weight(i)) > knotTolerance {
			return fmt.Errorf("%w: weight %d differs", ErrIncompatibleCurves, i)
		}
	}
	return nil
}

// sectionParams averages the chord-length parameters of every column that
// has non-zero length (The NURBS Book eq. 9.35). Columns collapsed to a
// point do not contribute.
func sectionParams(columns [][]math.Vec3) []float64 {
	k := len(columns[0])
	params := make([]float64, k)
	used := 0
	for _, col := range columns {
		total := 0.0
		for j := 1; j < k; j++ {
			total += col[j].Distance(col[j-1])
		}
		if total < math.Epsilon {
			continue
		}
		used++
		for j, p := range chordParams(col) {
			params[j] += p
		}
	}
	if used == 0 {
		for j := range params {
			params[j] = float64(j) / float64(k-1)
		}
		return params
	}
	for j := range params {
		params[j] /= float64(used)
	}
	params[k-1] = 1
	return params
}

// Extrude sweeps the curve along direction. The curve runs in U; V is linear
// over [0, 1].
func Extrude(c *Curve, direction math.Vec3) (*Surface, error) {
	if direction.Length() < math.Epsilon {
		return nil, fmt.Errorf("%w: zero extrusion", ErrEmptyDomain)
	}
	points := make([][]math.Vec3, len(c.ControlPoints))
	var weights [][]float64
	if c.IsRational() {
		weights = make([][]float64, len(c.ControlPoints))
	}
	for i, p := range c.ControlPoints {
		points[i] = []math.Vec3{p, p.Add(direction)}
		if weights != nil {
			weights[i] = []float64{c.Weights[i], c.Weights[i]}
		}
	}
	return NewSurface(c.Degree, 1, points, weights, c.Knots, []float64{0, 0, 1, 1})
}

// Revolve sweeps the profile curve around the axis through origin by angle
// radians (The NURBS Book A8.1). The sweep runs in U as a rational
// quadratic arc and the profile runs in V. Profile points on the axis
// collapse to a pole.
func Revolve(profile *Curve, origin, axis math.Vec3, angle float64) (*Surface, error) {
	dir := axis.Normalize()
	if axis.Length() < math.Epsilon {
		return nil, fmt.Errorf("%w: zero revolution axis", ErrEmptyDomain)
	}

	// An arc template in the unit XY frame gives the sweep weights, knots
	// and per-point (cos, sin) coordinates.
	arc, err := Arc(math.Vec3{}, math.Vec3{X: 1}, math.Vec3{Y: 1}, 1, 0, angle)
	if err != nil {
		return nil, err
	}

	rows := len(arc.ControlPoints)
	cols := len(profile.ControlPoints)
	points := make([][]math.Vec3, rows)
	weights := make([][]float64, rows)
	for i := range points {
		points[i] = make([]math.Vec3, cols)
		weights[i] = make([]float64, cols)
	}

	for j, p := range profile.ControlPoints {
		o := origin.Add(dir.Scale(p.Sub(origin).Dot(dir)))
		x := p.Sub(o)
		r := x.Length()
		var y math.Vec3
		if r >= math.Epsilon {
			x = x.Scale(1 / r)
			y = dir.Cross(x)
		}
		for i, t := range arc.ControlPoints {
			points[i][j] = o.Add(x.Scale(r * t.X)).Add(y.Scale(r * t.Y))
			weights[i][j] = arc.Weights[i] * profile.weight(j)
		}
	}
	return NewSurface(2, profile.Degree, points, weights, arc.Knots, profile.Knots)
}

// Cylinder returns the side surface of a cylinder whose base circle is
// centered at base and perpendicular to axis.
func Cylinder(base, axis math.Vec3, radius, height float64) (*Surface, error) {
	dir := axis.Normalize()
	x := perpendicular(dir)
	circle, err := Circle(base, x, dir.Cross(x), radius)
	if err != nil {
		return nil, err
	}
	return Extrude(circle, dir.Scale(height))
}

// perpendicular returns a unit vector orthogonal to n.
func perpendicular(n math.Vec3) math.Vec3 {
	ref := math.Vec3{X: 1}
	if gomath.Abs(n.X) > 0.9 {
		ref = math.Vec3{Y: 1}
	}
	return n.Cross(ref).Normalize()
}
