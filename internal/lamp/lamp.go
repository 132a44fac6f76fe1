package lamp

import (
	"fmt"
	gomath "math"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/geomkernel/internal/logger"
	"github.com/Faultbox/geomkernel/internal/scene"
	"github.com/Faultbox/geomkernel/pkg/math"
	"github.com/Faultbox/geomkernel/pkg/nurbs"
	"github.com/Faultbox/geomkernel/pkg/planar"
	"github.com/Faultbox/geomkernel/pkg/tessellate"
)

// Part names.
const (
	PartBase       = "base"
	PartNeck       = "neck"
	PartPort       = "port"
	PartShadeOuter = "shade_outer"
	PartShadeInner = "shade_inner"
	PartSleeve     = "sleeve"
)

// Part is one named surface of the lamp.
type Part struct {
	Name string
	// Cut parts are removed from the solid they overlap.
	Cut     bool
	Surface *nurbs.Surface
}

// Design is a generated lamp.
type Design struct {
	// Params are the normalized parameters the design was built from.
	Params     Params
	Adjusted   []string
	BaseHeight float64
	PortRadius float64
	// SleeveRadius is the bore of the shade sleeve that slides over the
	// neck.
	SleeveRadius float64
	Parts        []Part
	Windows      []Window
}

// Build validates and normalizes p and generates every part.
func Build(p Params) (*Design, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	log := logger.Named("lamp")

	portRadius, adjusted := p.Normalize()
	if len(adjusted) > 0 {
		log.Info("parameters clamped", zap.Strings("fields", adjusted))
	}

	d := &Design{
		Params:       p,
		Adjusted:     adjusted,
		PortRadius:   portRadius,
		SleeveRadius: p.NeckOuterRadius + p.Tolerance,
	}

	base, baseHeight, err := buildBase(p)
	if err != nil {
		return nil, err
	}
	d.BaseHeight = baseHeight
	d.Parts = append(d.Parts, Part{Name: PartBase, Surface: base})

	up := math.UnitZ
	shadeInner := p.ShadeOuterRadius - p.ShadeWall
	upper := gomath.Max(p.ShadeHeight-p.SleeveHeight, 2*p.ShadeWall)
	cylinders := []struct {
		name   string
		cut    bool
		z      float64
		radius float64
		height float64
	}{
		{PartNeck, false, baseHeight, p.NeckOuterRadius, p.NeckHeight},
		{PartPort, true, -2, portRadius, baseHeight + p.NeckHeight + 5},
		{PartShadeOuter, false, baseHeight, p.ShadeOuterRadius, p.ShadeHeight},
		{PartShadeInner, true, baseHeight + p.SleeveHeight, shadeInner, upper},
		{PartSleeve, true, baseHeight, d.SleeveRadius, p.SleeveHeight},
	}
	var errs error
	for _, c := range cylinders {
		s, err := nurbs.Cylinder(math.Vec3{Z: c.z}, up, c.radius, c.height)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", c.name, err))
			continue
		}
		d.Parts = append(d.Parts, Part{Name: c.name, Cut: c.cut, Surface: s})
	}
	if errs != nil {
		return nil, errs
	}

	d.Windows = Windows(p, baseHeight)
	log.Debug("lamp built",
		zap.String("base", string(p.BaseType)),
		zap.String("pattern", string(p.ShadePattern)),
		zap.Int("windows", len(d.Windows)),
		zap.Float64("port_radius", portRadius),
	)
	return d, nil
}

// buildBase returns the side surface of the base body and its height.
func buildBase(p Params) (*nurbs.Surface, float64, error) {
	switch p.BaseType {
	case BaseVase:
		h := p.VaseHeight
		sections := []struct{ z, r float64 }{
			{0, p.VaseBaseRadius},
			{0.35 * h, p.VaseMidRadius},
			{0.7 * h, p.VaseNeckRadius},
			{h, p.VaseNeckRadius * 1.05},
		}
		curves := make([]*nurbs.Curve, 0, len(sections))
		for _, s := range sections {
			c, err := nurbs.HorizontalCircle(math.Vec3{Z: s.z}, s.r)
			if err != nil {
				return nil, 0, fmt.Errorf("vase section at z=%g: %w", s.z, err)
			}
			curves = append(curves, c)
		}
		s, err := nurbs.Loft(curves, 3)
		return s, h, err
	case BaseTriangle:
		r := p.TriangleSide / gomath.Sqrt(3)
		pts := make([]math.Vec3, 3)
		for i := range pts {
			a := degrees(90 + 120*float64(i))
			pts[i] = math.Vec3{X: r * gomath.Cos(a), Y: r * gomath.Sin(a)}
		}
		s, err := prism(pts, p.BaseHeight)
		return s, p.BaseHeight, err
	default:
		w, dp := p.BaseWidth/2, p.BaseDepth/2
		s, err := prism([]math.Vec3{
			{X: -w, Y: -dp},
			{X: w, Y: -dp},
			{X: w, Y: dp},
			{X: -w, Y: dp},
		}, p.BaseHeight)
		return s, p.BaseHeight, err
	}
}

// prism extrudes a closed outline straight up.
func prism(outline []math.Vec3, height float64) (*nurbs.Surface, error) {
	c, err := nurbs.PolylineCurve(outline, true)
	if err != nil {
		return nil, err
	}
	return nurbs.Extrude(c, math.Vec3{Z: height})
}

// Part returns the named part.
func (d *Design) Part(name string) (Part, bool) {
	for _, p := range d.Parts {
		if p.Name == name {
			return p, true
		}
	}
	return Part{}, false
}

// Entities exposes the parts and window outlines as scene entities so they
// run through the tessellation pipeline like any authored scene.
func (d *Design) Entities() []scene.Entity {
	out := make([]scene.Entity, 0, len(d.Parts)+len(d.Windows))
	for _, p := range d.Parts {
		out = append(out, scene.Entity{
			Name:     p.Name,
			Kind:     scene.KindSurface,
			Geometry: tessellate.SurfaceGeometry(p.Name, p.Surface),
		})
	}
	for _, w := range d.Windows {
		name := fmt.Sprintf("window-%d-%d", w.Row, w.Column)
		pl := &tessellate.Polyline{Points: w.Outline(d.Params.ShadeOuterRadius), Closed: true}
		out = append(out, scene.Entity{
			Name:     name,
			Kind:     scene.KindPolyline,
			Geometry: tessellate.PolylineGeometry(name, pl),
		})
	}
	return out
}

// PatternLayer returns every window unrolled onto the outer shade surface.
func (d *Design) PatternLayer() []planar.Polyline {
	out := make([]planar.Polyline, len(d.Windows))
	for i, w := range d.Windows {
		out[i] = w.Unrolled(d.Params.ShadeOuterRadius)
	}
	return out
}

// Footprint returns the base outline on the ground plane.
func (d *Design) Footprint(opts tessellate.Options) (planar.Polyline, error) {
	if d.Params.BaseType == BaseVase {
		c, err := nurbs.HorizontalCircle(math.Vec3{}, d.Params.VaseBaseRadius)
		if err != nil {
			return planar.Polyline{}, err
		}
		pl, err := tessellate.Curve(c, opts)
		if err != nil {
			return planar.Polyline{}, err
		}
		return planar.FromVec3(pl.Points, true), nil
	}

	base, ok := d.Part(PartBase)
	if !ok {
		return planar.Polyline{}, fmt.Errorf("lamp has no %s part", PartBase)
	}
	// Prism bases are degree 1 around the outline, so the bottom control
	// points are the corners.
	rim := make([]math.Vec3, 0, base.Surface.Rows())
	for _, row := range base.Surface.ControlPoints {
		rim = append(rim, row[0])
	}
	return planar.FromVec3(rim, true), nil
}

// SleeveFit tessellates the neck rim, offsets it outward by the fit
// tolerance with round joins and returns the smallest radial gap left to
// the sleeve bore. A negative gap means the shade would not slide on.
func (d *Design) SleeveFit(opts tessellate.Options) (float64, error) {
	rim, err := nurbs.HorizontalCircle(math.Vec3{}, d.Params.NeckOuterRadius)
	if err != nil {
		return 0, err
	}
	pl, err := tessellate.Curve(rim, opts)
	if err != nil {
		return 0, err
	}
	clearance, err := planar.Offset(planar.FromVec3(pl.Points, true), d.Params.Tolerance, planar.OffsetOptions{
		Join:         planar.JoinRound,
		MiterLimit:   4,
		ArcTolerance: d.Params.Tolerance / 50,
	})
	if err != nil {
		return 0, err
	}
	var reach float64
	for _, p := range clearance.Points {
		reach = gomath.Max(reach, p.Length())
	}
	return d.SleeveRadius - reach, nil
}
