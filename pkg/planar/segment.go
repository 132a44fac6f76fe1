package planar

import (
	gomath "math"

	"github.com/Faultbox/geomkernel/pkg/math"
)

// Intersection is a proper crossing of two segments: T1 and T2 are the
// parameters along each segment, both in [0, 1].
type Intersection struct {
	Point  math.Vec2
	T1, T2 float64
}

// SegmentIntersection intersects segments a1-a2 and b1-b2. Parallel or
// colinear segments, whose direction cross product is within math.Epsilon
// relative to their lengths, report no intersection.
func SegmentIntersection(a1, a2, b1, b2 math.Vec2) (Intersection, bool) {
	d1 := a2.Sub(a1)
	d2 := b2.Sub(b1)
	denom := d1.Cross(d2)
	if gomath.Abs(denom) <= math.Epsilon*d1.Length()*d2.Length() || denom == 0 {
		return Intersection{}, false
	}
	w := b1.Sub(a1)
	t1 := w.Cross(d2) / denom
	t2 := w.Cross(d1) / denom
	if t1 < 0 || t1 > 1 || t2 < 0 || t2 > 1 {
		return Intersection{}, false
	}
	return Intersection{Point: a1.Add(d1.Scale(t1)), T1: t1, T2: t2}, true
}

// LineIntersection intersects the infinite lines through a1-a2 and b1-b2.
func LineIntersection(a1, a2, b1, b2 math.Vec2) (math.Vec2, bool) {
	d1 := a2.Sub(a1)
	d2 := b2.Sub(b1)
	denom := d1.Cross(d2)
	if gomath.Abs(denom) <= math.Epsilon*d1.Length()*d2.Length() || denom == 0 {
		return math.Vec2{}, false
	}
	t := b1.Sub(a1).Cross(d2) / denom
	return a1.Add(d1.Scale(t)), true
}
