package planar

import (
	"github.com/Faultbox/geomkernel/pkg/math"
)

// Winding is the orientation of a closed polygon.
type Winding int

const (
	Degenerate Winding = iota
	CounterClockwise
	Clockwise
)

func (w Winding) String() string {
	switch w {
	case CounterClockwise:
		return "ccw"
	case Clockwise:
		return "cw"
	default:
		return "degenerate"
	}
}

// SignedArea returns the shoelace area of the polygon through pts. It is
// positive for counter-clockwise order.
func SignedArea(pts []math.Vec2) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += pts[i].Cross(pts[(i+1)%n])
	}
	return sum / 2
}

// WindingOf classifies the orientation of pts. Polygons with |area| below
// math.Epsilon are Degenerate.
func WindingOf(pts []math.Vec2) Winding {
	a := SignedArea(pts)
	switch {
	case a > math.Epsilon:
		return CounterClockwise
	case a < -math.Epsilon:
		return Clockwise
	default:
		return Degenerate
	}
}

// BoundaryMode selects how ContainsPoint treats points on the boundary.
type BoundaryMode int

const (
	BoundaryExclusive BoundaryMode = iota
	BoundaryInclusive
)

// boundaryTolerance is the distance within which a point counts as on an
// edge.
const boundaryTolerance = 1e-9

// PointInPolygon reports whether p lies strictly inside the polygon through
// pts using the crossing-number rule. Boundary points are outside.
func PointInPolygon(p math.Vec2, pts []math.Vec2) bool {
	return ContainsPoint(p, pts, BoundaryExclusive)
}

// ContainsPoint is PointInPolygon with an explicit boundary policy.
func ContainsPoint(p math.Vec2, pts []math.Vec2, mode BoundaryMode) bool {
	n := len(pts)
	if n < 3 {
		return false
	}
	if OnBoundary(p, pts, boundaryTolerance) {
		return mode == BoundaryInclusive
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := pts[j], pts[i]
		// Half-open rule on y so a vertex on the ray is counted once.
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// OnBoundary reports whether p is within tol of any polygon edge.
func OnBoundary(p math.Vec2, pts []math.Vec2, tol float64) bool {
	n := len(pts)
	for i := 0; i < n; i++ {
		if p.DistanceToSegment(pts[i], pts[(i+1)%n]) <= tol {
			return true
		}
	}
	return false
}
