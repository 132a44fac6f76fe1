package lamp

import (
	gomath "math"

	"github.com/Faultbox/geomkernel/pkg/math"
	"github.com/Faultbox/geomkernel/pkg/planar"
)

// Window is a rectangular cut through the shade wall. It is a radial box
// from Inner to Outer, Width wide and spanning Z0..Z1, rotated about the
// Z axis by Angle radians.
type Window struct {
	Row    int
	Column int
	Angle  float64
	Z0, Z1 float64
	Inner  float64
	Outer  float64
	Width  float64
}

// Height returns the vertical extent of the window.
func (w Window) Height() float64 { return w.Z1 - w.Z0 }

// Placement returns the rotation that carries the window from the +X axis
// to its position.
func (w Window) Placement() math.Mat4 { return math.RotateZ(w.Angle) }

// Outline returns the closed rectangle where the window meets radius r,
// with its first point repeated at the end.
func (w Window) Outline(r float64) []math.Vec3 {
	half := w.Width / 2
	m := w.Placement()
	local := []math.Vec3{
		{X: r, Y: -half, Z: w.Z0},
		{X: r, Y: half, Z: w.Z0},
		{X: r, Y: half, Z: w.Z1},
		{X: r, Y: -half, Z: w.Z1},
		{X: r, Y: -half, Z: w.Z0},
	}
	out := make([]math.Vec3, len(local))
	for i, p := range local {
		out[i] = m.TransformPoint(p)
	}
	return out
}

// Unrolled returns the window as a closed rectangle in the developed plane
// of a cylinder of the given radius: X is arc length from angle zero and
// Y is height.
func (w Window) Unrolled(radius float64) planar.Polyline {
	s := normalizeAngle(w.Angle) * radius
	half := w.Width / 2
	return planar.Polyline{
		Points: []math.Vec2{
			{X: s - half, Y: w.Z0},
			{X: s + half, Y: w.Z0},
			{X: s + half, Y: w.Z1},
			{X: s - half, Y: w.Z1},
		},
		Closed: true,
	}
}

func normalizeAngle(a float64) float64 {
	a = gomath.Mod(a, 2*gomath.Pi)
	if a < 0 {
		a += 2 * gomath.Pi
	}
	return a
}

func degrees(d float64) float64 { return d * gomath.Pi / 180 }

// radialExtent returns the inner and outer radius of a window cut of the
// given depth, always reaching past the inner wall.
func radialExtent(p Params, depth float64) (inner, outer float64) {
	shadeInner := p.ShadeOuterRadius - p.ShadeWall
	inner = gomath.Max(0.5, gomath.Min(shadeInner-1, p.ShadeOuterRadius-depth))
	return inner, p.ShadeOuterRadius + 1
}

// slotWindows lays out full-height slots whose height follows a sine wave
// around the shade.
func slotWindows(p Params, baseHeight float64) []Window {
	wall := p.ShadeWall
	if p.SlotCount <= 0 {
		return nil
	}
	body := p.ShadeHeight - p.SleeveHeight - 2*p.SlotMargin
	if body <= wall {
		return nil
	}
	inner, outer := radialExtent(p, gomath.Max(p.SlotDepth, wall+1))
	z0 := baseHeight + p.SleeveHeight + p.SlotMargin
	top := baseHeight + p.ShadeHeight - p.SlotMargin
	step := 2 * gomath.Pi / float64(p.SlotCount)

	windows := make([]Window, 0, p.SlotCount)
	for i := 0; i < p.SlotCount; i++ {
		angle := step * float64(i)
		wave := 0.5 + 0.5*gomath.Sin(angle*p.SlotWaveFrequency)
		h := gomath.Max(body*(1-p.SlotVariation*wave), 2*wall)
		h = gomath.Min(h, top-z0)
		if h <= wall {
			continue
		}
		windows = append(windows, Window{
			Column: i,
			Angle:  angle,
			Z0:     z0,
			Z1:     z0 + h,
			Inner:  inner,
			Outer:  outer,
			Width:  p.SlotWidth,
		})
	}
	return windows
}

// latticeWindows lays out rows of windows. Odd rows shift by a fraction of
// the column step and every row twists further around the shade.
func latticeWindows(p Params, baseHeight float64) []Window {
	wall := p.ShadeWall
	if p.LatticeRows <= 0 || p.LatticeColumns <= 0 {
		return nil
	}
	available := p.ShadeHeight - p.SleeveHeight - 2*p.LatticeMargin
	if available <= wall {
		return nil
	}
	rowStep := available / float64(p.LatticeRows)
	height := gomath.Min(p.LatticeWindowHeight, 0.85*rowStep)
	if height <= wall {
		return nil
	}
	inner, outer := radialExtent(p, gomath.Max(p.LatticeWindowDepth, wall+1))
	angleStep := 2 * gomath.Pi / float64(p.LatticeColumns)
	lowest := baseHeight + p.SleeveHeight + p.LatticeMargin
	highest := baseHeight + p.ShadeHeight - p.LatticeMargin

	windows := make([]Window, 0, p.LatticeRows*p.LatticeColumns)
	for row := 0; row < p.LatticeRows; row++ {
		center := lowest + rowStep*(float64(row)+0.5)
		z0 := gomath.Max(center-height/2, lowest)
		z1 := gomath.Min(center+height/2, highest)
		if z1-z0 <= wall {
			continue
		}
		twist := float64(row) * degrees(p.LatticeTwistDegrees)
		offset := float64(row%2) * p.LatticeOffsetRatio * angleStep
		for col := 0; col < p.LatticeColumns; col++ {
			windows = append(windows, Window{
				Row:    row,
				Column: col,
				Angle:  float64(col)*angleStep + offset + twist,
				Z0:     z0,
				Z1:     z1,
				Inner:  inner,
				Outer:  outer,
				Width:  p.LatticeWindowWidth,
			})
		}
	}
	return windows
}

// Windows lays out the shade pattern selected by p.ShadePattern.
func Windows(p Params, baseHeight float64) []Window {
	switch p.ShadePattern {
	case PatternSlots:
		return slotWindows(p, baseHeight)
	case PatternLattice:
		return latticeWindows(p, baseHeight)
	}
	return nil
}
