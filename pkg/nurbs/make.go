package nurbs

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/geomkernel/pkg/math"
)

// Line returns the degree-1 curve from a to b over [0, 1].
func Line(a, b math.Vec3) *Curve {
	return &Curve{
		Degree:        1,
		ControlPoints: []math.Vec3{a, b},
		Knots:         []float64{0, 0, 1, 1},
	}
}

// PolylineCurve returns a degree-1 curve through points, parameterized by
// normalized chord length. When closed is set the first point is appended
// again to close the loop.
func PolylineCurve(points []math.Vec3, closed bool) (*Curve, error) {
	pts := append([]math.Vec3(nil), points...)
	if closed && len(pts) > 0 && !pts[0].ApproxEqual(pts[len(pts)-1], 0) {
		pts = append(pts, pts[0])
	}
	if len(pts) < 2 {
		return nil, fmt.Errorf("%w: polyline needs 2 points, have %d", ErrTooFewControlPoints, len(pts))
	}

	params := chordParams(pts)
	knots := make([]float64, 0, len(pts)+2)
	knots = append(knots, 0)
	knots = append(knots, params...)
	knots = append(knots, 1)
	return NewCurve(1, pts, nil, knots)
}

// Bezier returns the clamped curve whose degree is len(points)-1.
func Bezier(points []math.Vec3) (*Curve, error) {
	degree := len(points) - 1
	knots := make([]float64, 2*(degree+1))
	for i := degree + 1; i < len(knots); i++ {
		knots[i] = 1
	}
	return NewCurve(degree, points, nil, knots)
}

// Arc returns a rational quadratic circular arc (The NURBS Book A7.1). xAxis
// and yAxis span the arc plane and are normalized; angles are in radians
// measured from xAxis. An end angle below the start angle wraps once around.
func Arc(center, xAxis, yAxis math.Vec3, radius, startAngle, endAngle float64) (*Curve, error) {
	if endAngle < startAngle {
		endAngle += 2 * gomath.Pi
	}
	theta := endAngle - startAngle
	if theta <= 0 || radius <= 0 {
		return nil, fmt.Errorf("%w: arc sweep %g, radius %g", ErrEmptyDomain, theta, radius)
	}
	if theta > 2*gomath.Pi {
		theta = 2 * gomath.Pi
	}

	var numArcs int
	switch {
	case theta <= gomath.Pi/2:
		numArcs = 1
	case theta <= gomath.Pi:
		numArcs = 2
	case theta <= 3*gomath.Pi/2:
		numArcs = 3
	default:
		numArcs = 4
	}

	x, y := xAxis.Normalize(), yAxis.Normalize()
	at := func(angle, r float64) math.Vec3 {
		return center.Add(x.Scale(r * gomath.Cos(angle))).Add(y.Scale(r * gomath.Sin(angle)))
	}

	dtheta := theta / float64(numArcs)
	w1 := gomath.Cos(dtheta / 2)

	points := make([]math.Vec3, 2*numArcs+1)
	weights := make([]float64, 2*numArcs+1)
	points[0], weights[0] = at(startAngle, radius), 1
	for i := 1; i <= numArcs; i++ {
		a0 := startAngle + float64(i-1)*dtheta
		// The middle control point sits where the end tangents meet.
		points[2*i-1] = at(a0+dtheta/2, radius/w1)
		weights[2*i-1] = w1
		points[2*i] = at(a0+dtheta, radius)
		weights[2*i] = 1
	}

	knots := make([]float64, 2*numArcs+4)
	for i := 0; i < 3; i++ {
		knots[i] = 0
		knots[len(knots)-1-i] = 1
	}
	for i := 1; i < numArcs; i++ {
		k := float64(i) / float64(numArcs)
		knots[2*i+1] = k
		knots[2*i+2] = k
	}
	return NewCurve(2, points, weights, knots)
}

// Circle returns a full rational circle of the given radius in the plane
// spanned by xAxis and yAxis.
func Circle(center, xAxis, yAxis math.Vec3, radius float64) (*Curve, error) {
	return Arc(center, xAxis, yAxis, radius, 0, 2*gomath.Pi)
}

// HorizontalCircle returns a circle parallel to the XY plane at center.
func HorizontalCircle(center math.Vec3, radius float64) (*Curve, error) {
	return Circle(center, math.Vec3{X: 1}, math.Vec3{Y: 1}, radius)
}

// chordParams returns normalized cumulative chord lengths, or uniform
// parameters when every point coincides.
func chordParams(points []math.Vec3) []float64 {
	params := make([]float64, len(points))
	if len(points) < 2 {
		return params
	}
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += points[i].Distance(points[i-1])
		params[i] = total
	}
	if total < math.Epsilon {
		for i := range params {
			params[i] = float64(i) / float64(len(points)-1)
		}
		return params
	}
	for i := range params {
		params[i] /= total
	}
	params[len(params)-1] = 1
	return params
}
