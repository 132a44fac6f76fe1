package tessellate

import (
	"fmt"

	"github.com/Faultbox/geomkernel/pkg/nurbs"
)

// Kind discriminates the Geometry variant.
type Kind int

const (
	KindCurve Kind = iota + 1
	KindSurface
	KindPolyline
)

func (k Kind) String() string {
	switch k {
	case KindCurve:
		return "curve"
	case KindSurface:
		return "surface"
	case KindPolyline:
		return "polyline"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Geometry is a tagged variant: exactly the field matching Kind is read.
// ID identifies the geometry to a Cache.
type Geometry struct {
	Kind     Kind
	ID       string
	Curve    *nurbs.Curve
	Surface  *nurbs.Surface
	Polyline *Polyline
}

// CurveGeometry wraps a curve.
func CurveGeometry(id string, c *nurbs.Curve) Geometry {
	return Geometry{Kind: KindCurve, ID: id, Curve: c}
}

// SurfaceGeometry wraps a surface.
func SurfaceGeometry(id string, s *nurbs.Surface) Geometry {
	return Geometry{Kind: KindSurface, ID: id, Surface: s}
}

// PolylineGeometry wraps an already sampled polyline.
func PolylineGeometry(id string, pl *Polyline) Geometry {
	return Geometry{Kind: KindPolyline, ID: id, Polyline: pl}
}

// Result holds the output of Tessellate: Polyline for curve and polyline
// kinds, Mesh for surfaces.
type Result struct {
	Kind     Kind
	ID       string
	Polyline *Polyline
	Mesh     *RenderMesh
}

// Truncated reports whether a budget cap was hit.
func (r Result) Truncated() bool {
	switch {
	case r.Polyline != nil:
		return r.Polyline.Truncated
	case r.Mesh != nil:
		return r.Mesh.Truncated
	}
	return false
}

// Tessellate dispatches on g.Kind. A polyline is copied, with segments longer
// than MaxSegmentLength split while MaxSamples allows.
func Tessellate(g Geometry, opts Options) (Result, error) {
	res := Result{Kind: g.Kind, ID: g.ID}
	var err error
	switch g.Kind {
	case KindCurve:
		if g.Curve == nil {
			return res, fmt.Errorf("tessellate %s: %w", g.ID, ErrMissingData)
		}
		res.Polyline, err = Curve(g.Curve, opts)
	case KindSurface:
		if g.Surface == nil {
			return res, fmt.Errorf("tessellate %s: %w", g.ID, ErrMissingData)
		}
		res.Mesh, err = Surface(g.Surface, opts)
	case KindPolyline:
		if g.Polyline == nil {
			return res, fmt.Errorf("tessellate %s: %w", g.ID, ErrMissingData)
		}
		if err = opts.Validate(); err == nil {
			res.Polyline = densify(g.Polyline, opts.MaxSegmentLength, opts.MaxSamples-g.Polyline.Len())
		}
	default:
		return res, fmt.Errorf("tessellate %s: %w: %v", g.ID, ErrUnknownKind, g.Kind)
	}
	if err != nil {
		return Result{}, fmt.Errorf("tessellate %s %s: %w", g.Kind, g.ID, err)
	}
	return res, nil
}
