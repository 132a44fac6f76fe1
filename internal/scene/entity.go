package scene

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/geomkernel/pkg/math"
	"github.com/Faultbox/geomkernel/pkg/nurbs"
	"github.com/Faultbox/geomkernel/pkg/tessellate"
)

// Entity kinds accepted in a document.
const (
	KindCurve       = "curve"
	KindSurface     = "surface"
	KindLine        = "line"
	KindPolyline    = "polyline"
	KindBezier      = "bezier"
	KindArc         = "arc"
	KindCircle      = "circle"
	KindInterpolate = "interpolate"
	KindLoft        = "loft"
	KindExtrude     = "extrude"
	KindRevolve     = "revolve"
	KindCylinder    = "cylinder"
)

// Point is a 2 or 3 component coordinate; a missing z is zero.
type Point []float64

// EntitySpec is the YAML form of one entity. Which fields apply depends on
// Kind.
type EntitySpec struct {
	Name         string `yaml:"name"`
	Kind         string `yaml:"kind"`
	Construction bool   `yaml:"construction"`

	Degree  int       `yaml:"degree"`
	Points  []Point   `yaml:"points"`
	Weights []float64 `yaml:"weights"`
	Knots   []float64 `yaml:"knots"`
	Closed  bool      `yaml:"closed"`

	DegreeU     int         `yaml:"degree_u"`
	DegreeV     int         `yaml:"degree_v"`
	Grid        [][]Point   `yaml:"grid"`
	GridWeights [][]float64 `yaml:"grid_weights"`
	KnotsU      []float64   `yaml:"knots_u"`
	KnotsV      []float64   `yaml:"knots_v"`

	Center    Point   `yaml:"center"`
	XAxis     Point   `yaml:"x_axis"`
	YAxis     Point   `yaml:"y_axis"`
	Radius    float64 `yaml:"radius"`
	Start     float64 `yaml:"start"`
	End       float64 `yaml:"end"`
	Origin    Point   `yaml:"origin"`
	Axis      Point   `yaml:"axis"`
	Direction Point   `yaml:"direction"`
	Angle     float64 `yaml:"angle"`
	Height    float64 `yaml:"height"`

	Source   string   `yaml:"source"`
	Sections []string `yaml:"sections"`

	Place        *Placement `yaml:"place"`
	Planar       PlanarOps  `yaml:",inline"`
	Tessellation *Overrides `yaml:"tessellation"`
}

// vec converts p, reporting ErrBadPoint for the wrong arity or non-finite
// values.
func (p Point) vec() (math.Vec3, error) {
	if len(p) != 2 && len(p) != 3 {
		return math.Vec3{}, fmt.Errorf("%w: %v", ErrBadPoint, []float64(p))
	}
	for _, c := range p {
		if gomath.IsNaN(c) || gomath.IsInf(c, 0) {
			return math.Vec3{}, fmt.Errorf("%w: %v", ErrBadPoint, []float64(p))
		}
	}
	v := math.Vec3{X: p[0], Y: p[1]}
	if len(p) == 3 {
		v.Z = p[2]
	}
	return v, nil
}

// vecOr converts p, or returns def when p is absent.
func (p Point) vecOr(def math.Vec3) (math.Vec3, error) {
	if p == nil {
		return def, nil
	}
	return p.vec()
}

func points(ps []Point, min int) ([]math.Vec3, error) {
	if len(ps) < min {
		return nil, fmt.Errorf("%w: points (need %d, got %d)", ErrMissingField, min, len(ps))
	}
	out := make([]math.Vec3, len(ps))
	for i, p := range ps {
		v, err := p.vec()
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (e *EntitySpec) degreeOr(def int) int {
	if e.Degree == 0 {
		return def
	}
	return e.Degree
}

// build creates the kernel geometry for the entity. Earlier entities are
// resolved through s.
func (e *EntitySpec) build(name string, s *Scene) (tessellate.Geometry, error) {
	switch e.Kind {
	case KindCurve, KindLine, KindPolyline, KindBezier, KindArc, KindCircle, KindInterpolate:
		if e.Kind == KindPolyline {
			pts, err := points(e.Points, 2)
			if err != nil {
				return tessellate.Geometry{}, err
			}
			if e.Closed {
				pts = append(pts, pts[0])
			}
			return tessellate.PolylineGeometry(name, &tessellate.Polyline{Points: pts, Closed: e.Closed}), nil
		}
		c, err := e.curve()
		if err != nil {
			return tessellate.Geometry{}, err
		}
		return tessellate.CurveGeometry(name, c), nil
	case KindSurface, KindLoft, KindExtrude, KindRevolve, KindCylinder:
		srf, err := e.surface(s)
		if err != nil {
			return tessellate.Geometry{}, err
		}
		return tessellate.SurfaceGeometry(name, srf), nil
	case "":
		return tessellate.Geometry{}, fmt.Errorf("%w: kind", ErrMissingField)
	default:
		return tessellate.Geometry{}, fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
}

func (e *EntitySpec) curve() (*nurbs.Curve, error) {
	switch e.Kind {
	case KindCurve:
		pts, err := points(e.Points, 2)
		if err != nil {
			return nil, err
		}
		degree := e.degreeOr(3)
		if degree >= len(pts) {
			degree = len(pts) - 1
		}
		knots := e.Knots
		if knots == nil {
			knots = nurbs.ClampedUniformKnots(len(pts), degree)
		}
		return nurbs.NewCurve(degree, pts, e.Weights, knots)
	case KindLine:
		pts, err := points(e.Points, 2)
		if err != nil {
			return nil, err
		}
		if len(pts) != 2 {
			return nil, fmt.Errorf("%w: line needs exactly 2 points, got %d", ErrMissingField, len(pts))
		}
		return nurbs.Line(pts[0], pts[1]), nil
	case KindBezier:
		pts, err := points(e.Points, 2)
		if err != nil {
			return nil, err
		}
		return nurbs.Bezier(pts)
	case KindInterpolate:
		pts, err := points(e.Points, 2)
		if err != nil {
			return nil, err
		}
		return nurbs.Interpolate(pts, e.degreeOr(3))
	case KindArc, KindCircle:
		center, err := e.Center.vecOr(math.Vec3{})
		if err != nil {
			return nil, fmt.Errorf("center: %w", err)
		}
		x, err := e.XAxis.vecOr(math.Vec3{X: 1})
		if err != nil {
			return nil, fmt.Errorf("x_axis: %w", err)
		}
		y, err := e.YAxis.vecOr(math.Vec3{Y: 1})
		if err != nil {
			return nil, fmt.Errorf("y_axis: %w", err)
		}
		if e.Kind == KindCircle {
			return nurbs.Circle(center, x, y, e.Radius)
		}
		return nurbs.Arc(center, x, y, e.Radius, e.Start, e.End)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
}

// refCurve resolves a reference to an earlier curve entity. Polylines are
// promoted to degree 1 curves.
func refCurve(s *Scene, name string) (*nurbs.Curve, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: source", ErrMissingField)
	}
	ent, ok := s.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownReference, name)
	}
	switch g := ent.Geometry; g.Kind {
	case tessellate.KindCurve:
		return g.Curve, nil
	case tessellate.KindPolyline:
		return nurbs.PolylineCurve(g.Polyline.Points, g.Polyline.Closed)
	default:
		return nil, fmt.Errorf("%w: %q is %s", ErrNotACurve, name, g.Kind)
	}
}

func (e *EntitySpec) surface(s *Scene) (*nurbs.Surface, error) {
	switch e.Kind {
	case KindSurface:
		if len(e.Grid) == 0 {
			return nil, fmt.Errorf("%w: grid", ErrMissingField)
		}
		grid := make([][]math.Vec3, len(e.Grid))
		for i, row := range e.Grid {
			pts, err := points(row, 1)
			if err != nil {
				return nil, fmt.Errorf("grid row %d: %w", i, err)
			}
			grid[i] = pts
		}
		du, dv := e.DegreeU, e.DegreeV
		if du == 0 {
			du = min(3, len(grid)-1)
		}
		if dv == 0 {
			dv = min(3, len(grid[0])-1)
		}
		ku, kv := e.KnotsU, e.KnotsV
		if ku == nil {
			ku = nurbs.ClampedUniformKnots(len(grid), du)
		}
		if kv == nil {
			kv = nurbs.ClampedUniformKnots(len(grid[0]), dv)
		}
		return nurbs.NewSurface(du, dv, grid, e.GridWeights, ku, kv)
	case KindLoft:
		if len(e.Sections) < 2 {
			return nil, fmt.Errorf("%w: sections (need 2, got %d)", ErrMissingField, len(e.Sections))
		}
		curves := make([]*nurbs.Curve, len(e.Sections))
		for i, ref := range e.Sections {
			c, err := refCurve(s, ref)
			if err != nil {
				return nil, fmt.Errorf("section %d: %w", i, err)
			}
			curves[i] = c
		}
		return nurbs.Loft(curves, e.degreeOr(3))
	case KindExtrude:
		c, err := refCurve(s, e.Source)
		if err != nil {
			return nil, err
		}
		dir, err := e.Direction.vecOr(math.Vec3{})
		if err != nil {
			return nil, fmt.Errorf("direction: %w", err)
		}
		if dir.IsZero() {
			return nil, fmt.Errorf("%w: direction", ErrMissingField)
		}
		return nurbs.Extrude(c, dir)
	case KindRevolve:
		c, err := refCurve(s, e.Source)
		if err != nil {
			return nil, err
		}
		origin, err := e.Origin.vecOr(math.Vec3{})
		if err != nil {
			return nil, fmt.Errorf("origin: %w", err)
		}
		axis, err := e.Axis.vecOr(math.UnitZ)
		if err != nil {
			return nil, fmt.Errorf("axis: %w", err)
		}
		angle := e.Angle
		if angle == 0 {
			angle = 2 * gomath.Pi
		}
		return nurbs.Revolve(c, origin, axis, angle)
	case KindCylinder:
		base, err := e.Center.vecOr(math.Vec3{})
		if err != nil {
			return nil, fmt.Errorf("center: %w", err)
		}
		axis, err := e.Axis.vecOr(math.UnitZ)
		if err != nil {
			return nil, fmt.Errorf("axis: %w", err)
		}
		return nurbs.Cylinder(base, axis, e.Radius, e.Height)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
}
