package lamp

import (
	"context"
	gomath "math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/geomkernel/internal/logger"
	"github.com/Faultbox/geomkernel/internal/pipeline"
	"github.com/Faultbox/geomkernel/pkg/math"
	"github.com/Faultbox/geomkernel/pkg/planar"
	"github.com/Faultbox/geomkernel/pkg/tessellate"
)

const eps = 1e-9

func radius(p math.Vec3) float64 { return gomath.Hypot(p.X, p.Y) }

func TestNormalizeDefaults(t *testing.T) {
	p := DefaultParams()
	port, adjusted := p.Normalize()

	assert.InDelta(t, 16.0, port, eps)
	assert.Empty(t, adjusted)
	assert.Equal(t, DefaultParams(), p)
}

func TestNormalizeClamps(t *testing.T) {
	p := DefaultParams()
	p.BulbDiameter = 60
	p.ShadeOuterRadius = 20
	p.SleeveHeight = 5

	port, adjusted := p.Normalize()

	assert.InDelta(t, 32.0, port, eps)
	assert.InDelta(t, 34.4, p.NeckOuterRadius, eps)
	assert.InDelta(t, 37.2, p.ShadeOuterRadius, eps)
	assert.InDelta(t, 13.0, p.SleeveHeight, eps)
	assert.Equal(t, []string{"neck_outer_radius", "shade_outer_radius", "sleeve_height"}, adjusted)
}

func TestNormalizeSleeveCeiling(t *testing.T) {
	p := DefaultParams()
	p.ShadeHeight = 20
	p.SleeveHeight = 30

	_, adjusted := p.Normalize()

	assert.InDelta(t, 15.2, p.SleeveHeight, eps)
	assert.Equal(t, []string{"sleeve_height"}, adjusted)
}

func TestNormalizeShadeHeight(t *testing.T) {
	p := DefaultParams()
	p.ShadeWall = 2
	p.ShadeHeight = 10
	p.SleeveHeight = 12

	_, adjusted := p.Normalize()

	assert.InDelta(t, 16.0, p.ShadeHeight, eps)
	assert.InDelta(t, 12.0, p.SleeveHeight, eps)
	assert.Equal(t, []string{"shade_height"}, adjusted)
}

func TestValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	p := DefaultParams()
	p.BaseType = "sphere"
	p.Tolerance = -1
	p.ShadePattern = "dots"
	err := p.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidParams)
	assert.Len(t, multierr.Errors(err), 3)

	p = DefaultParams()
	p.BaseType = BaseVase
	p.VaseMidRadius = 0
	err = p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vase_mid_radius")

	_, err = Build(p)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestLoadParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lamp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_type: vase\nshade_pattern: slots\nslot_count: 12\n"), 0o644))

	p, err := LoadParams(path)
	require.NoError(t, err)
	assert.Equal(t, BaseVase, p.BaseType)
	assert.Equal(t, PatternSlots, p.ShadePattern)
	assert.Equal(t, 12, p.SlotCount)
	assert.InDelta(t, 58.0, p.ShadeOuterRadius, eps)

	_, err = LoadParams(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBuildDefault(t *testing.T) {
	d, err := Build(DefaultParams())
	require.NoError(t, err)

	assert.InDelta(t, 60.0, d.BaseHeight, eps)
	assert.InDelta(t, 16.0, d.PortRadius, eps)
	assert.InDelta(t, 24.4, d.SleeveRadius, eps)
	require.Len(t, d.Parts, 6)

	cuts := map[string]bool{}
	for _, p := range d.Parts {
		cuts[p.Name] = p.Cut
		require.NoError(t, p.Surface.Validate(), p.Name)
	}
	assert.Equal(t, map[string]bool{
		PartBase:       false,
		PartNeck:       false,
		PartPort:       true,
		PartShadeOuter: false,
		PartShadeInner: true,
		PartSleeve:     true,
	}, cuts)

	shade, ok := d.Part(PartShadeOuter)
	require.True(t, ok)
	uMin, _, vMin, vMax := shade.Surface.Domain()
	bottom := shade.Surface.Point(uMin, vMin)
	top := shade.Surface.Point(uMin, vMax)
	assert.InDelta(t, 58.0, radius(bottom), 1e-6)
	assert.InDelta(t, 60.0, bottom.Z, 1e-6)
	assert.InDelta(t, 180.0, top.Z, 1e-6)

	sleeve, _ := d.Part(PartSleeve)
	neck, _ := d.Part(PartNeck)
	su, _, sv, _ := sleeve.Surface.Domain()
	nu, _, nv, _ := neck.Surface.Domain()
	clearance := radius(sleeve.Surface.Point(su, sv)) - radius(neck.Surface.Point(nu, nv))
	assert.InDelta(t, d.Params.Tolerance, clearance, 1e-6)

	port, _ := d.Part(PartPort)
	pu, _, pv0, pv1 := port.Surface.Domain()
	assert.InDelta(t, -2.0, port.Surface.Point(pu, pv0).Z, 1e-6)
	assert.InDelta(t, 75.0, port.Surface.Point(pu, pv1).Z, 1e-6)

	_, ok = d.Part("handle")
	assert.False(t, ok)
}

func TestBuildLogsClamps(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := logger.Log
	logger.Log = zap.New(core)
	t.Cleanup(func() { logger.Log = prev })

	p := DefaultParams()
	p.CordDiameter = 50
	_, err := Build(p)
	require.NoError(t, err)

	clamped := logs.FilterMessage("parameters clamped").All()
	require.Len(t, clamped, 1)
	assert.Equal(t, "lamp", clamped[0].LoggerName)
	assert.Equal(t, []interface{}{"neck_outer_radius"}, clamped[0].ContextMap()["fields"])
	assert.Equal(t, 1, logs.FilterMessage("lamp built").Len())
}

func TestLatticeLayout(t *testing.T) {
	d, err := Build(DefaultParams())
	require.NoError(t, err)
	require.Len(t, d.Windows, 6*30)

	rowStep := 82.0 / 6
	height := 0.85 * rowStep
	step := 2 * gomath.Pi / 30
	for _, w := range d.Windows {
		assert.InDelta(t, height, w.Height(), 1e-9)
		assert.GreaterOrEqual(t, w.Z0, 60.0+14+12-eps)
		assert.LessOrEqual(t, w.Z1, 60.0+120-12+eps)
		assert.InDelta(t, 46.0, w.Inner, eps)
		assert.InDelta(t, 59.0, w.Outer, eps)
		assert.InDelta(t, 8.0, w.Width, eps)
	}

	first := d.Windows[0]
	assert.Zero(t, first.Angle)
	assert.InDelta(t, 86+rowStep/2, (first.Z0+first.Z1)/2, 1e-9)

	odd := d.Windows[30]
	assert.Equal(t, 1, odd.Row)
	assert.Equal(t, 0, odd.Column)
	assert.InDelta(t, 0.5*step+8*gomath.Pi/180, odd.Angle, 1e-12)

	second := d.Windows[31]
	assert.InDelta(t, step, second.Angle-odd.Angle, 1e-12)
}

func TestSlotLayout(t *testing.T) {
	p := DefaultParams()
	p.ShadePattern = PatternSlots
	d, err := Build(p)
	require.NoError(t, err)
	require.Len(t, d.Windows, 24)

	first := d.Windows[0]
	assert.InDelta(t, 86.0, first.Z0, eps)
	assert.InDelta(t, 82*(1-0.25*0.5), first.Height(), 1e-9)

	// Frequency 2 puts the first crest at 45 degrees, slot 3.
	crest := d.Windows[3]
	assert.InDelta(t, gomath.Pi/4, crest.Angle, 1e-12)
	assert.InDelta(t, 82*0.75, crest.Height(), 1e-9)
	for _, w := range d.Windows {
		assert.LessOrEqual(t, w.Height(), first.Height()+82*0.125+eps)
		assert.GreaterOrEqual(t, w.Height(), crest.Height()-eps)
	}
}

func TestPatternDisabled(t *testing.T) {
	p := DefaultParams()
	p.ShadePattern = PatternNone
	d, err := Build(p)
	require.NoError(t, err)
	assert.Empty(t, d.Windows)

	p = DefaultParams()
	p.LatticeMargin = 60
	assert.Empty(t, Windows(p, 0))
}

func TestWindowOutline(t *testing.T) {
	w := Window{Angle: gomath.Pi / 2, Z0: 10, Z1: 20, Width: 4}
	pts := w.Outline(50)
	require.Len(t, pts, 5)
	assert.True(t, pts[0].ApproxEqual(pts[4], 1e-12))
	assert.True(t, pts[0].ApproxEqual(math.Vec3{X: 2, Y: 50, Z: 10}, 1e-9), "%v", pts[0])
	assert.True(t, pts[2].ApproxEqual(math.Vec3{X: -2, Y: 50, Z: 20}, 1e-9), "%v", pts[2])
	for _, p := range pts {
		assert.InDelta(t, gomath.Hypot(50, 2), radius(p), 1e-9)
	}
}

func TestPatternLayer(t *testing.T) {
	d, err := Build(DefaultParams())
	require.NoError(t, err)

	layer := d.PatternLayer()
	require.Len(t, layer, len(d.Windows))
	circumference := 2 * gomath.Pi * 58
	for i, pl := range layer {
		require.Len(t, pl.Points, 4)
		assert.True(t, pl.Closed)
		assert.InDelta(t, 8*d.Windows[i].Height(), gomath.Abs(planar.SignedArea(pl.Points)), 1e-6)
		assert.GreaterOrEqual(t, pl.Points[0].X, -4.0)
		assert.LessOrEqual(t, pl.Points[1].X, circumference+4)
	}

	// Neighbours in a row are a column step apart and never overlap.
	a, b := layer[0], layer[1]
	assert.InDelta(t, circumference/30, b.Points[0].X-a.Points[0].X, 1e-9)
	assert.Less(t, a.Points[1].X, b.Points[0].X)
}

func TestFootprint(t *testing.T) {
	tests := []struct {
		name   string
		base   BaseType
		points int
		area   float64
	}{
		{"cube", BaseCube, 4, 80 * 80},
		{"triangle", BaseTriangle, 3, gomath.Sqrt(3) / 4 * 90 * 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			p.BaseType = tt.base
			d, err := Build(p)
			require.NoError(t, err)

			fp, err := d.Footprint(tessellate.Default())
			require.NoError(t, err)
			assert.Len(t, fp.Points, tt.points)
			assert.InDelta(t, tt.area, gomath.Abs(planar.SignedArea(fp.Points)), 1e-6)
		})
	}

	p := DefaultParams()
	p.BaseType = BaseTriangle
	d, err := Build(p)
	require.NoError(t, err)
	fp, err := d.Footprint(tessellate.Default())
	require.NoError(t, err)
	assert.InDelta(t, 90/gomath.Sqrt(3), fp.Points[0].Length(), 1e-9)
	assert.InDelta(t, 90/gomath.Sqrt(3), fp.Points[0].Y, 1e-9)
}

func TestVaseBase(t *testing.T) {
	p := DefaultParams()
	p.BaseType = BaseVase
	d, err := Build(p)
	require.NoError(t, err)
	assert.InDelta(t, 75.0, d.BaseHeight, eps)

	base, ok := d.Part(PartBase)
	require.True(t, ok)
	uMin, uMax, vMin, vMax := base.Surface.Domain()
	for _, u := range []float64{uMin, (uMin + uMax) / 3, uMax} {
		bottom := base.Surface.Point(u, vMin)
		top := base.Surface.Point(u, vMax)
		assert.InDelta(t, 42.0, radius(bottom), 1e-6)
		assert.InDelta(t, 0.0, bottom.Z, 1e-6)
		assert.InDelta(t, 35.7, radius(top), 1e-6)
		assert.InDelta(t, 75.0, top.Z, 1e-6)
	}

	neck, _ := d.Part(PartNeck)
	nu, _, nv, _ := neck.Surface.Domain()
	assert.InDelta(t, 75.0, neck.Surface.Point(nu, nv).Z, 1e-6)

	fp, err := d.Footprint(tessellate.Default())
	require.NoError(t, err)
	for _, pt := range fp.Points {
		assert.InDelta(t, 42.0, pt.Length(), 1e-6)
	}
}

func TestSleeveFit(t *testing.T) {
	d, err := Build(DefaultParams())
	require.NoError(t, err)

	gap, err := d.SleeveFit(tessellate.Default())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, gap, -1e-9)
	assert.Less(t, gap, 0.01)

	d.SleeveRadius -= 0.2
	gap, err = d.SleeveFit(tessellate.Default())
	require.NoError(t, err)
	assert.Less(t, gap, -0.19)
}

func TestEntitiesThroughPipeline(t *testing.T) {
	p := DefaultParams()
	p.ShadePattern = PatternSlots
	d, err := Build(p)
	require.NoError(t, err)

	entities := d.Entities()
	require.Len(t, entities, 6+24)
	assert.Equal(t, PartBase, entities[0].Name)
	assert.Equal(t, "window-0-0", entities[6].Name)
	assert.Equal(t, "window-0-23", entities[29].Name)

	opts := tessellate.Default()
	opts.Mode = tessellate.ModeUniform
	opts.UniformSamples = 12
	outputs, err := pipeline.Run(context.Background(), entities, pipeline.Options{
		Tessellation: opts,
		Offset:       planar.DefaultOffsetOptions(),
		Workers:      4,
	})
	require.NoError(t, err)
	require.Len(t, outputs, len(entities))

	for i, out := range outputs {
		assert.Equal(t, entities[i].Name, out.Name)
		if i < 6 {
			require.NotNil(t, out.Result.Mesh, out.Name)
			assert.False(t, out.Result.Mesh.IsEmpty(), out.Name)
			continue
		}
		require.NotNil(t, out.Result.Polyline, out.Name)
		assert.True(t, out.Result.Polyline.Closed)
		assert.Len(t, out.Result.Polyline.Points, 5)
	}
}
