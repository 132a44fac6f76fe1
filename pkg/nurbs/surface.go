package nurbs

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/geomkernel/pkg/math"
)

// Surface is a tensor-product NURBS surface. ControlPoints[i][j] is indexed by
// the U direction first: len(ControlPoints) rows pair with KnotsU and
// DegreeU, len(ControlPoints[i]) columns with KnotsV and DegreeV. Weights may
// be nil for a non-rational surface.
type Surface struct {
	DegreeU, DegreeV int
	ControlPoints    [][]math.Vec3
	Weights          [][]float64
	KnotsU, KnotsV   []float64
}

// SurfacePoint is the result of evaluating a surface at (u, v).
// Degenerate is set when the partial derivatives are parallel or vanish, in
// which case Normal holds the fallback math.UnitZ.
type SurfacePoint struct {
	Position   math.Vec3
	Normal     math.Vec3
	Degenerate bool
}

// NewSurface copies its inputs into a new surface and validates it.
func NewSurface(degreeU, degreeV int, points [][]math.Vec3, weights [][]float64, knotsU, knotsV []float64) (*Surface, error) {
	s := &Surface{
		DegreeU:       degreeU,
		DegreeV:       degreeV,
		ControlPoints: make([][]math.Vec3, len(points)),
		KnotsU:        append([]float64(nil), knotsU...),
		KnotsV:        append([]float64(nil), knotsV...),
	}
	for i, row := range points {
		s.ControlPoints[i] = append([]math.Vec3(nil), row...)
	}
	if weights != nil {
		s.Weights = make([][]float64, len(weights))
		for i, row := range weights {
			s.Weights[i] = append([]float64(nil), row...)
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Rows returns the number of control points in the U direction.
func (s *Surface) Rows() int { return len(s.ControlPoints) }

// Cols returns the number of control points in the V direction.
func (s *Surface) Cols() int {
	if len(s.ControlPoints) == 0 {
		return 0
	}
	return len(s.ControlPoints[0])
}

// Validate reports every violated construction invariant.
func (s *Surface) Validate() error {
	rows, cols := s.Rows(), s.Cols()
	var err error
	for i, row := range s.ControlPoints {
		if len(row) != cols {
			err = multierr.Append(err, fmt.Errorf("%w: row %d has %d points, want %d", ErrGridShape, i, len(row), cols))
		}
		for j, p := range row {
			if !finite(p) {
				err = multierr.Append(err, fmt.Errorf("%w: control point (%d,%d)", ErrNonFinite, i, j))
			}
		}
	}
	if e := validateKnots(s.DegreeU, rows, s.KnotsU); e != nil {
		err = multierr.Append(err, fmt.Errorf("u direction: %w", e))
	}
	if e := validateKnots(s.DegreeV, cols, s.KnotsV); e != nil {
		err = multierr.Append(err, fmt.Errorf("v direction: %w", e))
	}
	if s.Weights != nil {
		if len(s.Weights) != rows {
			err = multierr.Append(err, fmt.Errorf("%w: %d weight rows, want %d", ErrGridShape, len(s.Weights), rows))
		} else {
			for i, row := range s.Weights {
				if e := validateWeights(row, cols); e != nil {
					err = multierr.Append(err, fmt.Errorf("weight row %d: %w", i, e))
				}
			}
		}
	}
	if err != nil {
		return fmt.Errorf("invalid surface: %w", err)
	}
	return nil
}

// IsRational reports whether the surface carries weights.
func (s *Surface) IsRational() bool {
	return s.Weights != nil
}

// Domain returns the parameter ranges in U and V.
func (s *Surface) Domain() (uMin, uMax, vMin, vMax float64) {
	uMin, uMax = s.KnotsU[s.DegreeU], s.KnotsU[s.Rows()]
	vMin, vMax = s.KnotsV[s.DegreeV], s.KnotsV[s.Cols()]
	return
}

func (s *Surface) weight(i, j int) float64 {
	if s.Weights == nil {
		return 1
	}
	return s.Weights[i][j]
}

// Point evaluates the surface position at (u, v), clamped to the domain.
func (s *Surface) Point(u, v float64) math.Vec3 {
	uMin, uMax, vMin, vMax := s.Domain()
	u, v = clamp(u, uMin, uMax), clamp(v, vMin, vMax)
	spanU := FindSpan(s.Rows()-1, s.DegreeU, u, s.KnotsU)
	spanV := FindSpan(s.Cols()-1, s.DegreeV, v, s.KnotsV)
	nu := basisFunctions(spanU, u, s.DegreeU, s.KnotsU)
	nv := basisFunctions(spanV, v, s.DegreeV, s.KnotsV)
	if k, l := unitIndex(nu), unitIndex(nv); k >= 0 && l >= 0 {
		return s.ControlPoints[spanU-s.DegreeU+k][spanV-s.DegreeV+l]
	}

	var p math.Vec3
	w := 0.0
	for k := 0; k <= s.DegreeU; k++ {
		i := spanU - s.DegreeU + k
		for l := 0; l <= s.DegreeV; l++ {
			j := spanV - s.DegreeV + l
			b := nu[k] * nv[l] * s.weight(i, j)
			p = p.Add(s.ControlPoints[i][j].Scale(b))
			w += b
		}
	}
	if !s.IsRational() {
		return p
	}
	return p.Scale(1 / w)
}

// Derivatives returns SKL[k][l], the k-th U and l-th V partial derivative, for
// k+l <= d. Rational surfaces are differentiated in homogeneous space
// (The NURBS Book A3.6 and A4.4).
func (s *Surface) Derivatives(u, v float64, d int) [][]math.Vec3 {
	if d < 0 {
		d = 0
	}
	uMin, uMax, vMin, vMax := s.Domain()
	u, v = clamp(u, uMin, uMax), clamp(v, vMin, vMax)
	spanU := FindSpan(s.Rows()-1, s.DegreeU, u, s.KnotsU)
	spanV := FindSpan(s.Cols()-1, s.DegreeV, v, s.KnotsV)
	du := basisDerivatives(spanU, u, s.DegreeU, d, s.KnotsU)
	dv := basisDerivatives(spanV, v, s.DegreeV, d, s.KnotsV)

	aders := make([][]math.Vec3, d+1)
	wders := make([][]float64, d+1)
	for k := 0; k <= d; k++ {
		aders[k] = make([]math.Vec3, d+1)
		wders[k] = make([]float64, d+1)
	}

	for k := 0; k <= d; k++ {
		// temp holds the U-direction partial for each V control row.
		temp := make([]math.Vec3, s.DegreeV+1)
		tempW := make([]float64, s.DegreeV+1)
		for l := 0; l <= s.DegreeV; l++ {
			j := spanV - s.DegreeV + l
			for r := 0; r <= s.DegreeU; r++ {
				i := spanU - s.DegreeU + r
				w := s.weight(i, j)
				temp[l] = temp[l].Add(s.ControlPoints[i][j].Scale(du[k][r] * w))
				tempW[l] += du[k][r] * w
			}
		}
		for l := 0; l <= d-k; l++ {
			for r := 0; r <= s.DegreeV; r++ {
				aders[k][l] = aders[k][l].Add(temp[r].Scale(dv[l][r]))
				wders[k][l] += tempW[r] * dv[l][r]
			}
		}
	}

	if !s.IsRational() {
		return aders
	}

	skl := make([][]math.Vec3, d+1)
	for k := range skl {
		skl[k] = make([]math.Vec3, d+1)
	}
	for k := 0; k <= d; k++ {
		for l := 0; l <= d-k; l++ {
			acc := aders[k][l]
			for j := 1; j <= l; j++ {
				acc = acc.Sub(skl[k][l-j].Scale(binomial(l, j) * wders[0][j]))
			}
			for i := 1; i <= k; i++ {
				acc = acc.Sub(skl[k-i][l].Scale(binomial(k, i) * wders[i][0]))
				var mixed math.Vec3
				for j := 1; j <= l; j++ {
					mixed = mixed.Add(skl[k-i][l-j].Scale(binomial(l, j) * wders[i][j]))
				}
				acc = acc.Sub(mixed.Scale(binomial(k, i)))
			}
			skl[k][l] = acc.Scale(1 / wders[0][0])
		}
	}
	return skl
}

// Evaluate returns the position and unit normal at (u, v). The normal is
// Su x Sv normalized; when that cross product is shorter than math.Epsilon
// (a pole or collapsed patch edge) Normal is math.UnitZ and Degenerate is set.
func (s *Surface) Evaluate(u, v float64) SurfacePoint {
	skl := s.Derivatives(u, v, 1)
	n := skl[1][0].Cross(skl[0][1])
	if n.Length() < math.Epsilon {
		return SurfacePoint{Position: skl[0][0], Normal: math.UnitZ, Degenerate: true}
	}
	return SurfacePoint{Position: skl[0][0], Normal: n.Normalize()}
}

// Normal returns the unit normal at (u, v) with the same fallback as Evaluate.
func (s *Surface) Normal(u, v float64) math.Vec3 {
	return s.Evaluate(u, v).Normal
}

// IsoCurvatures returns the curvature of the U and V iso-parametric curves
// through (u, v), each 0 where its tangent vanishes.
func (s *Surface) IsoCurvatures(u, v float64) (ku, kv float64) {
	skl := s.Derivatives(u, v, 2)
	ku = curvatureOf(skl[1][0], skl[2][0])
	kv = curvatureOf(skl[0][1], skl[0][2])
	return ku, kv
}

func curvatureOf(d1, d2 math.Vec3) float64 {
	speed := d1.Length()
	if speed < math.Epsilon {
		return 0
	}
	return d1.Cross(d2).Length() / (speed * speed * speed)
}

// Transform returns a copy with control points mapped by m.
func (s *Surface) Transform(m math.Mat4) *Surface {
	out := &Surface{
		DegreeU:       s.DegreeU,
		DegreeV:       s.DegreeV,
		ControlPoints: make([][]math.Vec3, len(s.ControlPoints)),
		KnotsU:        append([]float64(nil), s.KnotsU...),
		KnotsV:        append([]float64(nil), s.KnotsV...),
	}
	for i, row := range s.ControlPoints {
		out.ControlPoints[i] = make([]math.Vec3, len(row))
		for j, p := range row {
			out.ControlPoints[i][j] = m.TransformPoint(p)
		}
	}
	if s.Weights != nil {
		out.Weights = make([][]float64, len(s.Weights))
		for i, row := range s.Weights {
			out.Weights[i] = append([]float64(nil), row...)
		}
	}
	return out
}
