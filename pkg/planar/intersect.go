package planar

import (
	gomath "math"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/Faultbox/geomkernel/pkg/math"
)

// Crossing is an intersection between segments I and J of one polyline.
type Crossing struct {
	I, J int
	Intersection
}

// segmentBox indexes one polyline segment in an R-tree.
type segmentBox struct {
	index int
	rect  rtreego.Rect
}

func (s *segmentBox) Bounds() rtreego.Rect { return s.rect }

// boxPadding grows segment boxes so touching and axis-aligned segments
// still overlap.
const boxPadding = 1e-9

func segmentRect(a, b math.Vec2) rtreego.Rect {
	lo := rtreego.Point{gomath.Min(a.X, b.X) - boxPadding, gomath.Min(a.Y, b.Y) - boxPadding}
	hi := rtreego.Point{gomath.Max(a.X, b.X) + boxPadding, gomath.Max(a.Y, b.Y) + boxPadding}
	// Padding keeps every side positive, so construction cannot fail.
	r, _ := rtreego.NewRectFromPoints(lo, hi)
	return r
}

// SelfCrossings returns every intersection between non-adjacent segments of
// pl, ordered by segment indices. Candidate pairs come from an R-tree over
// segment bounding boxes.
func SelfCrossings(pl Polyline) []Crossing {
	m := pl.SegmentCount()
	if m < 2 {
		return nil
	}
	boxes := make([]rtreego.Spatial, m)
	for i := 0; i < m; i++ {
		a, b := pl.Segment(i)
		boxes[i] = &segmentBox{index: i, rect: segmentRect(a, b)}
	}
	tree := rtreego.NewTree(2, 4, 16, boxes...)

	var out []Crossing
	for i := 0; i < m; i++ {
		a1, a2 := pl.Segment(i)
		for _, hit := range tree.SearchIntersect(boxes[i].Bounds()) {
			j := hit.(*segmentBox).index
			if j <= i || adjacent(i, j, m, pl.Closed) {
				continue
			}
			b1, b2 := pl.Segment(j)
			if x, ok := SegmentIntersection(a1, a2, b1, b2); ok {
				out = append(out, Crossing{I: i, J: j, Intersection: x})
			}
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].I != out[b].I {
			return out[a].I < out[b].I
		}
		return out[a].J < out[b].J
	})
	return out
}

func adjacent(i, j, m int, closed bool) bool {
	if j == i+1 {
		return true
	}
	return closed && i == 0 && j == m-1
}

// SelfIntersects reports whether any two non-adjacent segments cross.
func SelfIntersects(pl Polyline) bool {
	return len(SelfCrossings(pl)) > 0
}

// Clip splits pl against the closed region and returns the pieces inside it
// (or outside when keepInside is false). Pieces follow the input order.
func Clip(pl Polyline, region []math.Vec2, keepInside bool) []Polyline {
	if pl.SegmentCount() == 0 || len(region) < 3 {
		return nil
	}
	var pieces []Polyline
	var cur []math.Vec2
	flush := func() {
		if len(cur) >= 2 {
			pieces = append(pieces, Polyline{Points: cur})
		}
		cur = nil
	}

	for i := 0; i < pl.SegmentCount(); i++ {
		a, b := pl.Segment(i)
		ts := []float64{0, 1}
		for k := range region {
			if x, ok := SegmentIntersection(a, b, region[k], region[(k+1)%len(region)]); ok {
				ts = append(ts, x.T1)
			}
		}
		sort.Float64s(ts)
		at := func(t float64) math.Vec2 {
			if t == 1 {
				return b
			}
			return a.Lerp(b, t)
		}
		for k := 1; k < len(ts); k++ {
			t0, t1 := ts[k-1], ts[k]
			if t1-t0 <= math.Epsilon {
				continue
			}
			p0, p1 := at(t0), at(t1)
			mid := a.Lerp(b, (t0+t1)/2)
			if ContainsPoint(mid, region, BoundaryInclusive) != keepInside {
				flush()
				continue
			}
			if len(cur) == 0 {
				cur = append(cur, p0)
			}
			cur = append(cur, p1)
		}
	}
	flush()

	// A closed input whose seam lies inside the kept region wraps around.
	if pl.Closed && len(pieces) > 1 {
		first, last := pieces[0], pieces[len(pieces)-1]
		if first.Points[0] == pl.Points[0] && last.Points[len(last.Points)-1] == pl.Points[0] {
			joined := append(append([]math.Vec2(nil), last.Points...), first.Points[1:]...)
			pieces = append([]Polyline{{Points: joined}}, pieces[1:len(pieces)-1]...)
		}
	}
	return pieces
}
