package nurbs

import (
	"gonum.org/v1/gonum/integrate/quad"
)

// lengthNodes is the Gauss–Legendre order used per knot span.
const lengthNodes = 16

// Length returns the arc length of the curve, integrating |C'(u)| with
// Gauss–Legendre quadrature over each non-empty knot span of the domain.
func (c *Curve) Length() float64 {
	lo, hi := c.Domain()
	speed := func(u float64) float64 {
		return c.Derivatives(u, 1)[1].Length()
	}

	total := 0.0
	a := lo
	for _, k := range c.Knots {
		if k <= a {
			continue
		}
		b := k
		if b > hi {
			b = hi
		}
		total += quad.Fixed(speed, a, b, lengthNodes, quad.Legendre{}, 0)
		a = b
		if a >= hi {
			break
		}
	}
	return total
}
