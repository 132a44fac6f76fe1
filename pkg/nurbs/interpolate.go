package nurbs

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/Faultbox/geomkernel/pkg/math"
)

// Interpolate returns a non-rational clamped curve of the given degree that
// passes through every point (The NURBS Book A9.1): chord-length parameters,
// knots by averaging, and a dense linear solve for the control points.
func Interpolate(points []math.Vec3, degree int) (*Curve, error) {
	if degree < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDegree, degree)
	}
	if len(points) < degree+1 {
		return nil, fmt.Errorf("%w: %d points, degree %d", ErrTooFewControlPoints, len(points), degree)
	}
	params := chordParams(points)
	knots := averagedKnots(params, degree)
	ctrl, err := solveInterpolation(points, params, degree, knots)
	if err != nil {
		return nil, err
	}
	return NewCurve(degree, ctrl, nil, knots)
}

// averagedKnots places interior knots at running averages of degree
// consecutive parameters (The NURBS Book eq. 9.8).
func averagedKnots(params []float64, degree int) []float64 {
	n := len(params) - 1
	knots := make([]float64, n+degree+2)
	for i := n + 1; i < len(knots); i++ {
		knots[i] = 1
	}
	for j := 1; j <= n-degree; j++ {
		sum := 0.0
		for i := j; i < j+degree; i++ {
			sum += params[i]
		}
		knots[j+degree] = sum / float64(degree)
	}
	return knots
}

func solveInterpolation(points []math.Vec3, params []float64, degree int, knots []float64) ([]math.Vec3, error) {
	m := len(points)
	a := mat.NewDense(m, m, nil)
	b := mat.NewDense(m, 3, nil)
	for i, u := range params {
		span := FindSpan(m-1, degree, u, knots)
		for j, v := range basisFunctions(span, u, degree, knots) {
			a.Set(i, span-degree+j, v)
		}
		b.Set(i, 0, points[i].X)
		b.Set(i, 1, points[i].Y)
		b.Set(i, 2, points[i].Z)
	}

	var x mat.Dense
	if err := x.Solve(a, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularSystem, err)
	}

	ctrl := make([]math.Vec3, m)
	for i := range ctrl {
		ctrl[i] = math.Vec3{X: x.At(i, 0), Y: x.At(i, 1), Z: x.At(i, 2)}
	}
	return ctrl, nil
}
