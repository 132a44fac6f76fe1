// Package planar implements 2D predicates and polyline operations used for
// trim, offset and simplify workflows: segment intersection, point in
// polygon, signed area, offsetting with miter, bevel or round joins,
// Douglas–Peucker simplification and colinear merging.
//
// Inputs are never modified; every operation returns a new Polyline.
package planar

import (
	"github.com/Faultbox/geomkernel/pkg/math"
)

// Polyline is an ordered point sequence. A closed polyline has an implicit
// segment from the last point back to the first; the first point is not
// repeated.
type Polyline struct {
	Points []math.Vec2
	Closed bool
}

// FromVec3 projects points onto the XY plane. For a closed polyline a final
// point equal to the first is dropped.
func FromVec3(points []math.Vec3, closed bool) Polyline {
	pl := Polyline{Points: make([]math.Vec2, 0, len(points)), Closed: closed}
	for _, p := range points {
		pl.Points = append(pl.Points, p.XY())
	}
	if closed && len(pl.Points) > 1 && pl.Points[0] == pl.Points[len(pl.Points)-1] {
		pl.Points = pl.Points[:len(pl.Points)-1]
	}
	return pl
}

// Vec3 lifts the polyline to height z. A closed polyline repeats its first
// point at the end, matching sampled curve output.
func (pl Polyline) Vec3(z float64) []math.Vec3 {
	out := make([]math.Vec3, 0, len(pl.Points)+1)
	for _, p := range pl.Points {
		out = append(out, p.Vec3(z))
	}
	if pl.Closed && len(pl.Points) > 0 {
		out = append(out, pl.Points[0].Vec3(z))
	}
	return out
}

// Len returns the number of points.
func (pl Polyline) Len() int { return len(pl.Points) }

// SegmentCount returns the number of segments, including the closing one.
func (pl Polyline) SegmentCount() int {
	n := len(pl.Points)
	switch {
	case n < 2:
		return 0
	case pl.Closed:
		return n
	default:
		return n - 1
	}
}

// Segment returns the end points of segment i.
func (pl Polyline) Segment(i int) (a, b math.Vec2) {
	return pl.Points[i], pl.Points[(i+1)%len(pl.Points)]
}

// Length returns the summed segment length.
func (pl Polyline) Length() float64 {
	total := 0.0
	for i := 0; i < pl.SegmentCount(); i++ {
		a, b := pl.Segment(i)
		total += a.Distance(b)
	}
	return total
}

// Clone returns a deep copy.
func (pl Polyline) Clone() Polyline {
	return Polyline{Points: append([]math.Vec2(nil), pl.Points...), Closed: pl.Closed}
}

// Reverse returns the polyline traversed backwards. A closed polyline keeps
// its first point.
func (pl Polyline) Reverse() Polyline {
	out := pl.Clone()
	pts := out.Points
	start := 0
	if pl.Closed {
		start = 1
	}
	for i, j := start, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
	return out
}

// dedupe drops consecutive points closer than tol, including a closing
// duplicate on closed polylines.
func dedupe(pl Polyline, tol float64) Polyline {
	out := Polyline{Closed: pl.Closed}
	for _, p := range pl.Points {
		if n := len(out.Points); n > 0 && out.Points[n-1].Distance(p) <= tol {
			continue
		}
		out.Points = append(out.Points, p)
	}
	if pl.Closed && len(out.Points) > 1 && out.Points[0].Distance(out.Points[len(out.Points)-1]) <= tol {
		out.Points = out.Points[:len(out.Points)-1]
	}
	return out
}
