package nurbs

import (
	"fmt"
	gomath "math"

	"go.uber.org/multierr"

	"github.com/Faultbox/geomkernel/pkg/math"
)

// Curve is a NURBS curve. Weights may be nil for a non-rational curve.
// len(Knots) must equal len(ControlPoints)+Degree+1.
type Curve struct {
	Degree        int
	ControlPoints []math.Vec3
	Weights       []float64
	Knots         []float64
}

// NewCurve copies its inputs into a new curve and validates it.
func NewCurve(degree int, points []math.Vec3, weights, knots []float64) (*Curve, error) {
	c := &Curve{
		Degree:        degree,
		ControlPoints: append([]math.Vec3(nil), points...),
		Knots:         append([]float64(nil), knots...),
	}
	if weights != nil {
		c.Weights = append([]float64(nil), weights...)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports every violated construction invariant.
func (c *Curve) Validate() error {
	err := validateKnots(c.Degree, len(c.ControlPoints), c.Knots)
	if c.Weights != nil {
		err = multierr.Append(err, validateWeights(c.Weights, len(c.ControlPoints)))
	}
	for i, p := range c.ControlPoints {
		if !finite(p) {
			err = multierr.Append(err, fmt.Errorf("%w: control point %d", ErrNonFinite, i))
		}
	}
	if err != nil {
		return fmt.Errorf("invalid curve: %w", err)
	}
	return nil
}

func validateWeights(weights []float64, n int) error {
	if len(weights) != n {
		return fmt.Errorf("%w: have %d, want %d", ErrWeightCount, len(weights), n)
	}
	var err error
	for i, w := range weights {
		if !(w > 0) || gomath.IsInf(w, 0) {
			err = multierr.Append(err, fmt.Errorf("%w: weight %d is %g", ErrNonPositiveWeight, i, w))
		}
	}
	return err
}

func finite(p math.Vec3) bool {
	for _, v := range [3]float64{p.X, p.Y, p.Z} {
		if gomath.IsNaN(v) || gomath.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// IsRational reports whether the curve carries weights.
func (c *Curve) IsRational() bool {
	return c.Weights != nil
}

// Domain returns the valid parameter range [knots[degree], knots[n+1]].
func (c *Curve) Domain() (min, max float64) {
	n := len(c.ControlPoints) - 1
	return c.Knots[c.Degree], c.Knots[n+1]
}

func (c *Curve) weight(i int) float64 {
	if c.Weights == nil {
		return 1
	}
	return c.Weights[i]
}

// BasisFunctions returns the span index and the Degree+1 non-vanishing basis
// functions at u. They sum to one for every u in the domain.
func (c *Curve) BasisFunctions(u float64) (span int, basis []float64) {
	lo, hi := c.Domain()
	u = clamp(u, lo, hi)
	n := len(c.ControlPoints) - 1
	span = FindSpan(n, c.Degree, u, c.Knots)
	return span, basisFunctions(span, u, c.Degree, c.Knots)
}

// Point evaluates the curve at u, clamped to the domain.
func (c *Curve) Point(u float64) math.Vec3 {
	span, basis := c.BasisFunctions(u)
	first := span - c.Degree
	if j := unitIndex(basis); j >= 0 {
		return c.ControlPoints[first+j]
	}

	if !c.IsRational() {
		var p math.Vec3
		for j, b := range basis {
			p = p.Add(c.ControlPoints[first+j].Scale(b))
		}
		return p
	}

	var p math.Vec3
	w := 0.0
	for j, b := range basis {
		bw := b * c.Weights[first+j]
		p = p.Add(c.ControlPoints[first+j].Scale(bw))
		w += bw
	}
	return p.Scale(1 / w)
}

// Derivatives returns C(u), C'(u), ..., C^(k)(u). Rational curves are
// differentiated in homogeneous space and projected with the quotient rule
// (The NURBS Book A4.2).
func (c *Curve) Derivatives(u float64, k int) []math.Vec3 {
	if k < 0 {
		k = 0
	}
	lo, hi := c.Domain()
	u = clamp(u, lo, hi)
	n := len(c.ControlPoints) - 1
	span := FindSpan(n, c.Degree, u, c.Knots)
	ders := basisDerivatives(span, u, c.Degree, k, c.Knots)
	first := span - c.Degree

	// Homogeneous derivatives: aders is the weighted point part, wders the weight.
	aders := make([]math.Vec3, k+1)
	wders := make([]float64, k+1)
	for i := 0; i <= k; i++ {
		for j := 0; j <= c.Degree; j++ {
			w := c.weight(first + j)
			aders[i] = aders[i].Add(c.ControlPoints[first+j].Scale(ders[i][j] * w))
			wders[i] += ders[i][j] * w
		}
	}
	if !c.IsRational() {
		return aders
	}

	ck := make([]math.Vec3, k+1)
	for i := 0; i <= k; i++ {
		v := aders[i]
		for j := 1; j <= i; j++ {
			v = v.Sub(ck[i-j].Scale(binomial(i, j) * wders[j]))
		}
		ck[i] = v.Scale(1 / wders[0])
	}
	return ck
}

// Tangent returns the unit tangent at u. Where the first derivative vanishes
// (a cusp or collapsed control points) the fallback math.UnitZ is returned.
func (c *Curve) Tangent(u float64) math.Vec3 {
	return c.Derivatives(u, 1)[1].Normalize()
}

// Curvature returns |C' x C''| / |C'|^3 at u, or 0 where |C'| is below
// math.Epsilon.
func (c *Curve) Curvature(u float64) float64 {
	d := c.Derivatives(u, 2)
	return curvatureOf(d[1], d[2])
}

// IsClosed reports whether the end points coincide within tol.
func (c *Curve) IsClosed(tol float64) bool {
	lo, hi := c.Domain()
	return c.Point(lo).Distance(c.Point(hi)) <= tol
}

// Transform returns a copy with control points mapped by m. Weights and knots
// are unchanged, which is exact for affine m.
func (c *Curve) Transform(m math.Mat4) *Curve {
	out := &Curve{
		Degree:        c.Degree,
		ControlPoints: make([]math.Vec3, len(c.ControlPoints)),
		Knots:         append([]float64(nil), c.Knots...),
	}
	if c.Weights != nil {
		out.Weights = append([]float64(nil), c.Weights...)
	}
	for i, p := range c.ControlPoints {
		out.ControlPoints[i] = m.TransformPoint(p)
	}
	return out
}

// Reverse returns the curve traversed in the opposite direction over the same domain.
func (c *Curve) Reverse() *Curve {
	n := len(c.ControlPoints)
	out := &Curve{
		Degree:        c.Degree,
		ControlPoints: make([]math.Vec3, n),
		Knots:         make([]float64, len(c.Knots)),
	}
	for i, p := range c.ControlPoints {
		out.ControlPoints[n-1-i] = p
	}
	if c.Weights != nil {
		out.Weights = make([]float64, n)
		for i, w := range c.Weights {
			out.Weights[n-1-i] = w
		}
	}
	lo, hi := c.Domain()
	for i, k := range c.Knots {
		out.Knots[len(c.Knots)-1-i] = lo + hi - k
	}
	return out
}
