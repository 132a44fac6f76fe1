package scene

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/geomkernel/pkg/math"
	"github.com/Faultbox/geomkernel/pkg/tessellate"
)

// Placement moves an entity after it is built: a uniform scale about the
// origin, a rotation of Degrees about Axis through the origin, then a
// translation. A zero Scale means 1.
type Placement struct {
	Axis      Point   `yaml:"axis"`
	Degrees   float64 `yaml:"degrees"`
	Scale     float64 `yaml:"scale"`
	Translate Point   `yaml:"translate"`
}

// Matrix returns the transform of the placement. It is rigid unless Scale
// is set to something other than 1.
func (p *Placement) Matrix() (math.Mat4, error) {
	axis, err := p.Axis.vecOr(math.UnitZ)
	if err != nil {
		return math.Mat4{}, fmt.Errorf("place axis: %w", err)
	}
	if axis.Length() < math.Epsilon {
		return math.Mat4{}, fmt.Errorf("%w: place axis is zero", ErrBadPoint)
	}
	offset, err := p.Translate.vecOr(math.Vec3{})
	if err != nil {
		return math.Mat4{}, fmt.Errorf("place translate: %w", err)
	}
	if p.Scale < 0 || gomath.IsNaN(p.Scale) || gomath.IsInf(p.Scale, 0) {
		return math.Mat4{}, fmt.Errorf("%w: %v", ErrBadScale, p.Scale)
	}
	rot := math.QuatFromAxisAngle(axis, p.Degrees*gomath.Pi/180)
	m := math.RigidTransform(rot, offset)
	if p.Scale != 0 && p.Scale != 1 {
		m = m.Mul(math.Scale(p.Scale, p.Scale, p.Scale))
	}
	return m, nil
}

// place applies the placement to g in place.
func (p *Placement) place(g *tessellate.Geometry) error {
	if p == nil {
		return nil
	}
	m, err := p.Matrix()
	if err != nil {
		return err
	}
	switch g.Kind {
	case tessellate.KindCurve:
		g.Curve = g.Curve.Transform(m)
	case tessellate.KindSurface:
		g.Surface = g.Surface.Transform(m)
	case tessellate.KindPolyline:
		pl := *g.Polyline
		pl.Points = make([]math.Vec3, len(g.Polyline.Points))
		for i, pt := range g.Polyline.Points {
			pl.Points[i] = m.TransformPoint(pt)
		}
		g.Polyline = &pl
	}
	return nil
}
