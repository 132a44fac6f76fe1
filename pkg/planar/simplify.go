package planar

import (
	gomath "math"

	"github.com/Faultbox/geomkernel/pkg/math"
)

// DouglasPeucker removes points whose deviation from the simplified polyline
// stays within tol. The output never has more points than the input, keeps
// the first and last points of an open polyline and keeps the seam point of
// a closed one. A tol of zero or less returns an unchanged copy.
func DouglasPeucker(pl Polyline, tol float64) Polyline {
	n := len(pl.Points)
	if tol <= 0 || n < 3 {
		return pl.Clone()
	}
	if !pl.Closed {
		keep := make([]bool, n)
		markKept(pl.Points, 0, n-1, tol, keep)
		return collect(pl, keep)
	}

	// Split the ring at the point farthest from the seam and simplify both
	// chains, each anchored at the seam.
	far, best := 0, -1.0
	for i := 1; i < n; i++ {
		if d := pl.Points[i].Distance(pl.Points[0]); d > best {
			far, best = i, d
		}
	}
	ring := append(append([]math.Vec2(nil), pl.Points...), pl.Points[0])
	keep := make([]bool, n+1)
	markKept(ring, 0, far, tol, keep)
	markKept(ring, far, n, tol, keep)
	return collect(pl, keep[:n])
}

// markKept runs Douglas–Peucker over pts[first..last] with an explicit stack.
func markKept(pts []math.Vec2, first, last int, tol float64, keep []bool) {
	keep[first], keep[last] = true, true
	type span struct{ lo, hi int }
	stack := []span{{first, last}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.hi-s.lo < 2 {
			continue
		}
		idx, dmax := -1, tol
		for i := s.lo + 1; i < s.hi; i++ {
			if d := pts[i].DistanceToSegment(pts[s.lo], pts[s.hi]); d > dmax {
				idx, dmax = i, d
			}
		}
		if idx < 0 {
			continue
		}
		keep[idx] = true
		stack = append(stack, span{s.lo, idx}, span{idx, s.hi})
	}
}

func collect(pl Polyline, keep []bool) Polyline {
	out := Polyline{Closed: pl.Closed}
	for i, k := range keep {
		if k {
			out.Points = append(out.Points, pl.Points[i])
		}
	}
	return out
}

// MergeColinear drops interior vertices where the direction changes by less
// than angleTol radians, and any repeated point. It does not use a distance
// tolerance, so it is independent of DouglasPeucker. The first point of
// an open or closed polyline is kept; an open polyline also keeps its last.
func MergeColinear(pl Polyline, angleTol float64) Polyline {
	src := dedupe(pl, 0)
	n := len(src.Points)
	if n < 3 {
		return src
	}

	out := Polyline{Closed: src.Closed, Points: []math.Vec2{src.Points[0]}}
	last := n - 1
	if src.Closed {
		last = n
	}
	for i := 1; i < last; i++ {
		prev := out.Points[len(out.Points)-1]
		cur := src.Points[i]
		next := src.Points[(i+1)%n]
		if turnAngle(cur.Sub(prev), next.Sub(cur)) < angleTol {
			continue
		}
		out.Points = append(out.Points, cur)
	}
	if !src.Closed {
		out.Points = append(out.Points, src.Points[n-1])
	}
	return out
}

// turnAngle returns the unsigned angle between directions a and b.
func turnAngle(a, b math.Vec2) float64 {
	return gomath.Abs(gomath.Atan2(a.Cross(b), a.Dot(b)))
}

// Simplify applies DouglasPeucker with tol and then MergeColinear with
// angleTol. A zero angleTol skips the merge.
func Simplify(pl Polyline, tol, angleTol float64) Polyline {
	out := DouglasPeucker(pl, tol)
	if angleTol > 0 {
		out = MergeColinear(out, angleTol)
	}
	return out
}
