package nurbs

import (
	"fmt"
	"math"

	"go.uber.org/multierr"
)

// validateKnots checks one parametric direction: the knot count invariant,
// monotonicity, interior multiplicity and a non-empty domain.
func validateKnots(degree, numPoints int, knots []float64) error {
	var err error
	if degree < 1 {
		err = multierr.Append(err, fmt.Errorf("%w: got %d", ErrInvalidDegree, degree))
	}
	if numPoints < degree+1 {
		err = multierr.Append(err, fmt.Errorf("%w: %d points, degree %d", ErrTooFewControlPoints, numPoints, degree))
	}
	if len(knots) != numPoints+degree+1 {
		// Every remaining check indexes knots by degree; stop here.
		return multierr.Append(err, fmt.Errorf("%w: have %d, want %d", ErrKnotCount, len(knots), numPoints+degree+1))
	}
	if err != nil {
		return err
	}

	for i, k := range knots {
		if math.IsNaN(k) || math.IsInf(k, 0) {
			err = multierr.Append(err, fmt.Errorf("%w: knot %d", ErrNonFinite, i))
		}
	}
	for i := 1; i < len(knots); i++ {
		if knots[i] < knots[i-1] {
			err = multierr.Append(err, fmt.Errorf("%w: knot %d (%g) < knot %d (%g)", ErrKnotOrder, i, knots[i], i-1, knots[i-1]))
		}
	}
	if err != nil {
		return err
	}

	n := numPoints - 1
	lo, hi := knots[degree], knots[n+1]
	if hi <= lo {
		return fmt.Errorf("%w: [%g, %g]", ErrEmptyDomain, lo, hi)
	}

	// Interior multiplicity, counted on values strictly inside the domain.
	for i := degree + 1; i <= n; {
		j := i
		for j+1 <= n && knots[j+1] == knots[i] {
			j++
		}
		if mult := j - i + 1; knots[i] > lo && knots[i] < hi && mult > degree {
			err = multierr.Append(err, fmt.Errorf("%w: value %g has multiplicity %d", ErrKnotMultiplicity, knots[i], mult))
		}
		i = j + 1
	}
	return err
}

// FindSpan returns the knot span index i such that knots[i] <= u < knots[i+1],
// with u clamped to the domain [knots[degree], knots[n+1]]. A parameter on the
// upper bound resolves to the last non-empty span (inclusive upper boundary).
func FindSpan(n, degree int, u float64, knots []float64) int {
	if u >= knots[n+1] {
		// Skip trailing zero-length spans.
		span := n
		for span > degree && knots[span] == knots[span+1] {
			span--
		}
		return span
	}
	if u <= knots[degree] {
		span := degree
		for span < n && knots[span+1] == knots[span] {
			span++
		}
		return span
	}

	low, high := degree, n+1
	mid := (low + high) / 2
	for u < knots[mid] || u >= knots[mid+1] {
		if u < knots[mid] {
			high = mid
		} else {
			low = mid
		}
		mid = (low + high) / 2
	}
	return mid
}

// basisFunctions computes the degree+1 non-vanishing basis functions at u in
// span (The NURBS Book A2.2). The triangular Cox–de Boor table is filled
// bottom-up so the evaluation never recurses.
func basisFunctions(span int, u float64, degree int, knots []float64) []float64 {
	n := make([]float64, degree+1)

	// At a knot of multiplicity >= degree the basis is a unit vector; the
	// table would round it, which breaks exact endpoint interpolation.
	switch {
	case u == knots[span] && knots[span-degree+1] == u:
		n[0] = 1
		return n
	case u == knots[span+1] && knots[span+degree] == u:
		n[degree] = 1
		return n
	}

	left := make([]float64, degree+1)
	right := make([]float64, degree+1)

	n[0] = 1
	for j := 1; j <= degree; j++ {
		left[j] = u - knots[span+1-j]
		right[j] = knots[span+j] - u
		saved := 0.0
		for r := 0; r < j; r++ {
			temp := n[r] / (right[r+1] + left[j-r])
			n[r] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		n[j] = saved
	}
	return n
}

// unitIndex returns j when basis[j] is exactly 1, else -1. The curve then
// passes through that control point regardless of weights.
func unitIndex(basis []float64) int {
	for j, b := range basis {
		if b == 1 {
			return j
		}
	}
	return -1
}

// basisDerivatives computes the non-vanishing basis functions and their
// derivatives up to order d at u (The NURBS Book A2.3). ders[k][j] is the k-th
// derivative of N_{span-degree+j}. Orders above degree are zero.
func basisDerivatives(span int, u float64, degree, d int, knots []float64) [][]float64 {
	ndu := make([][]float64, degree+1)
	for i := range ndu {
		ndu[i] = make([]float64, degree+1)
	}
	left := make([]float64, degree+1)
	right := make([]float64, degree+1)

	ndu[0][0] = 1
	for j := 1; j <= degree; j++ {
		left[j] = u - knots[span+1-j]
		right[j] = knots[span+j] - u
		saved := 0.0
		for r := 0; r < j; r++ {
			// Lower triangle holds knot differences.
			ndu[j][r] = right[r+1] + left[j-r]
			temp := ndu[r][j-1] / ndu[j][r]
			// Upper triangle holds basis functions.
			ndu[r][j] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		ndu[j][j] = saved
	}

	ders := make([][]float64, d+1)
	for k := range ders {
		ders[k] = make([]float64, degree+1)
	}
	for j := 0; j <= degree; j++ {
		ders[0][j] = ndu[j][degree]
	}

	a := [2][]float64{make([]float64, degree+1), make([]float64, degree+1)}
	top := d
	if top > degree {
		top = degree
	}
	for r := 0; r <= degree; r++ {
		s1, s2 := 0, 1
		a[0][0] = 1
		for k := 1; k <= top; k++ {
			dd := 0.0
			rk := r - k
			pk := degree - k
			if r >= k {
				a[s2][0] = a[s1][0] / ndu[pk+1][rk]
				dd = a[s2][0] * ndu[rk][pk]
			}
			j1 := 1
			if rk < -1 {
				j1 = -rk
			}
			j2 := k - 1
			if r-1 > pk {
				j2 = degree - r
			}
			for j := j1; j <= j2; j++ {
				a[s2][j] = (a[s1][j] - a[s1][j-1]) / ndu[pk+1][rk+j]
				dd += a[s2][j] * ndu[rk+j][pk]
			}
			if r <= pk {
				a[s2][k] = -a[s1][k-1] / ndu[pk+1][r]
				dd += a[s2][k] * ndu[r][pk]
			}
			ders[k][r] = dd
			s1, s2 = s2, s1
		}
	}

	factor := float64(degree)
	for k := 1; k <= top; k++ {
		for j := 0; j <= degree; j++ {
			ders[k][j] *= factor
		}
		factor *= float64(degree - k)
	}
	return ders
}

// ClampedUniformKnots returns a clamped knot vector on [0, 1] with uniformly
// spaced interior knots for numPoints control points of the given degree.
func ClampedUniformKnots(numPoints, degree int) []float64 {
	m := numPoints + degree + 1
	knots := make([]float64, m)
	interior := numPoints - degree
	for i := 0; i < m; i++ {
		switch {
		case i <= degree:
			knots[i] = 0
		case i >= numPoints:
			knots[i] = 1
		default:
			knots[i] = float64(i-degree) / float64(interior)
		}
	}
	return knots
}

// binomial returns n choose k for the small orders used by rational derivatives.
func binomial(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	r := 1.0
	for i := 1; i <= k; i++ {
		r = r * float64(n-k+i) / float64(i)
	}
	return r
}

func clamp(u, lo, hi float64) float64 {
	if u < lo {
		return lo
	}
	if u > hi {
		return hi
	}
	return u
}
