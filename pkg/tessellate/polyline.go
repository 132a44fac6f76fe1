package tessellate

import (
	gomath "math"

	"github.com/Faultbox/geomkernel/pkg/math"
)

// Polyline is a sampled curve. Params holds the curve parameter of each point
// and is nil for polylines that did not come from a curve. A closed polyline
// repeats its first point at the end.
type Polyline struct {
	Points    []math.Vec3
	Params    []float64
	Closed    bool
	Truncated bool
}

// Len returns the number of points.
func (p *Polyline) Len() int { return len(p.Points) }

// Length returns the summed segment length.
func (p *Polyline) Length() float64 {
	total := 0.0
	for i := 1; i < len(p.Points); i++ {
		total += p.Points[i].Distance(p.Points[i-1])
	}
	return total
}

// Buffer returns the points as a tightly packed xyz float32 array, the line
// buffer layout handed to a renderer.
func (p *Polyline) Buffer() []float32 {
	buf := make([]float32, 0, 3*len(p.Points))
	for _, pt := range p.Points {
		buf = append(buf, float32(pt.X), float32(pt.Y), float32(pt.Z))
	}
	return buf
}

// Clone returns a deep copy.
func (p *Polyline) Clone() *Polyline {
	out := &Polyline{
		Points:    append([]math.Vec3(nil), p.Points...),
		Closed:    p.Closed,
		Truncated: p.Truncated,
	}
	if p.Params != nil {
		out.Params = append([]float64(nil), p.Params...)
	}
	return out
}

// densify splits every segment longer than maxLen into equal parts, adding at
// most budget points in total.
func densify(pl *Polyline, maxLen float64, budget int) *Polyline {
	out := &Polyline{Closed: pl.Closed, Truncated: pl.Truncated}
	if len(pl.Points) == 0 {
		return out
	}
	if budget < 0 {
		budget = 0
	}
	out.Points = append(out.Points, pl.Points[0])
	for i := 1; i < len(pl.Points); i++ {
		a, b := pl.Points[i-1], pl.Points[i]
		if maxLen > 0 {
			parts := int(gomath.Ceil(a.Distance(b) / maxLen))
			if parts < 1 {
				parts = 1
			}
			if parts-1 > budget {
				parts = budget + 1
				out.Truncated = true
			}
			budget -= parts - 1
			for k := 1; k < parts; k++ {
				out.Points = append(out.Points, a.Lerp(b, float64(k)/float64(parts)))
			}
		}
		out.Points = append(out.Points, b)
	}
	return out
}
