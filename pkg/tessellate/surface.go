package tessellate

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/geomkernel/pkg/math"
	"github.com/Faultbox/geomkernel/pkg/nurbs"
)

// Surface triangulates s adaptively (or on a grid in ModeUniform). The
// surface and options are validated before any evaluation.
//
// Adaptive refinement is a breadth-first quadtree over a
// (MinSamples-1) x (MinSamples-1) seed grid. Neighboring patches refined to
// different depths meet with T-junctions; no crack stitching is attempted.
func Surface(s *nurbs.Surface, opts Options) (*RenderMesh, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if opts.mode() == ModeUniform {
		return SurfaceUniform(s, opts.UniformSamples, opts.UniformSamples)
	}
	return adaptiveSurface(s, opts), nil
}

// SurfaceUniform triangulates s over a grid of nu x nv vertices.
func SurfaceUniform(s *nurbs.Surface, nu, nv int) (*RenderMesh, error) {
	if nu < 2 || nv < 2 {
		return nil, fmt.Errorf("%w: uniform grid must be at least 2x2, got %dx%d", ErrInvalidOptions, nu, nv)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	uMin, uMax, vMin, vMax := s.Domain()
	b := newMeshBuilder(s, nu*nv)
	for i := 0; i < nu-1; i++ {
		for j := 0; j < nv-1; j++ {
			b.quad(patch{
				u0: uniformParam(uMin, uMax, i, nu), u1: uniformParam(uMin, uMax, i+1, nu),
				v0: uniformParam(vMin, vMax, j, nv), v1: uniformParam(vMin, vMax, j+1, nv),
			})
		}
	}
	return b.mesh, nil
}

type patch struct {
	u0, u1, v0, v1 float64
}

func (p patch) split() [4]patch {
	um, vm := (p.u0+p.u1)/2, (p.v0+p.v1)/2
	return [4]patch{
		{p.u0, um, p.v0, vm},
		{um, p.u1, p.v0, vm},
		{p.u0, um, vm, p.v1},
		{um, p.u1, vm, p.v1},
	}
}

func (p patch) corners() [4][2]float64 {
	return [4][2]float64{{p.u0, p.v0}, {p.u1, p.v0}, {p.u1, p.v1}, {p.u0, p.v1}}
}

func adaptiveSurface(s *nurbs.Surface, opts Options) *RenderMesh {
	uMin, uMax, vMin, vMax := s.Domain()

	budget := opts.MaxTriangles
	if budget == 0 {
		budget = 2 * (opts.MaxSamples - 1) * (opts.MaxSamples - 1)
	}

	// The seed grid is coarsened when it alone would exceed the budget.
	truncated := false
	cells := opts.MinSamples - 1
	if 2*cells*cells > budget {
		cells = int(gomath.Sqrt(float64(budget / 2)))
		if cells < 1 {
			cells = 1
		}
		truncated = true
	}

	queue := make([]patch, 0, cells*cells)
	for i := 0; i < cells; i++ {
		for j := 0; j < cells; j++ {
			queue = append(queue, patch{
				u0: uniformParam(uMin, uMax, i, cells+1), u1: uniformParam(uMin, uMax, i+1, cells+1),
				v0: uniformParam(vMin, vMax, j, cells+1), v1: uniformParam(vMin, vMax, j+1, cells+1),
			})
		}
	}
	triangles := 2 * len(queue)
	minU := (uMax - uMin) * minSpanFraction
	minV := (vMax - vMin) * minSpanFraction

	var leaves []patch
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if p.u1-p.u0 <= minU || p.v1-p.v0 <= minV || !patchNeedsSplit(s, p, opts) {
			leaves = append(leaves, p)
			continue
		}
		// Splitting one leaf into four adds six triangles.
		if triangles+6 > budget {
			truncated = true
			leaves = append(leaves, p)
			continue
		}
		triangles += 6
		children := p.split()
		queue = append(queue, children[:]...)
	}

	b := newMeshBuilder(s, len(leaves)+1)
	for _, p := range leaves {
		b.quad(p)
	}
	b.mesh.Truncated = truncated
	return b.mesh
}

// patchNeedsSplit applies the curve criteria along the four corner-to-center
// chords of a patch. Deviations are measured along the center normal so
// flat regions never refine, whatever their parameterization.
func patchNeedsSplit(s *nurbs.Surface, p patch, opts Options) bool {
	um, vm := (p.u0+p.u1)/2, (p.v0+p.v1)/2
	center := s.Evaluate(um, vm)
	corners := p.corners()
	var cp [4]nurbs.SurfacePoint
	for i, c := range corners {
		cp[i] = s.Evaluate(c[0], c[1])
	}

	// deviation measures q against the chord from end to the center.
	deviation := func(q, end math.Vec3) float64 {
		if center.Degenerate {
			return q.DistanceToSegment(end, center.Position)
		}
		return gomath.Abs(q.Sub(center.Position).Dot(center.Normal))
	}

	if tol := opts.CurvatureTolerance; tol > 0 {
		ku, kv := s.IsoCurvatures(um, vm)
		k := gomath.Max(ku, kv)
		var avg math.Vec3
		for i, c := range corners {
			chord := cp[i].Position.Distance(center.Position)
			if k*chord > tol {
				return true
			}
			q := s.Point((c[0]+um)/2, (c[1]+vm)/2)
			if deviation(q, cp[i].Position) > tol {
				return true
			}
			avg = avg.Add(cp[i].Position.Scale(0.25))
		}
		if deviation(avg, center.Position) > tol {
			return true
		}
	}
	if l := opts.MaxSegmentLength; l > 0 {
		for i := range cp {
			if cp[i].Position.Distance(cp[(i+1)%4].Position) > l {
				return true
			}
		}
	}
	if opts.MaxAngle > 0 && !center.Degenerate {
		for i := range cp {
			if !cp[i].Degenerate && angleBetween(cp[i].Normal, center.Normal) > opts.MaxAngle {
				return true
			}
		}
	}
	return false
}

// meshBuilder emits vertices on demand, sharing any vertex whose (u, v) key
// has been seen before.
type meshBuilder struct {
	s     *nurbs.Surface
	index map[[2]float64]uint32
	mesh  *RenderMesh
}

func newMeshBuilder(s *nurbs.Surface, sizeHint int) *meshBuilder {
	return &meshBuilder{
		s:     s,
		index: make(map[[2]float64]uint32, sizeHint),
		mesh: &RenderMesh{
			Positions: make([]float32, 0, 3*sizeHint),
			Normals:   make([]float32, 0, 3*sizeHint),
			UVs:       make([]float32, 0, 2*sizeHint),
			Indices:   make([]uint32, 0, 6*sizeHint),
		},
	}
}

func (b *meshBuilder) vertex(u, v float64) uint32 {
	key := [2]float64{u, v}
	if idx, ok := b.index[key]; ok {
		return idx
	}
	sp := b.s.Evaluate(u, v)
	idx := uint32(b.mesh.VertexCount())
	m := b.mesh
	m.Positions = append(m.Positions, float32(sp.Position.X), float32(sp.Position.Y), float32(sp.Position.Z))
	m.Normals = append(m.Normals, float32(sp.Normal.X), float32(sp.Normal.Y), float32(sp.Normal.Z))
	m.UVs = append(m.UVs, float32(u), float32(v))
	if sp.Degenerate {
		m.Degenerate++
	}
	b.index[key] = idx
	return idx
}

// quad emits two triangles wound counter-clockwise around Su x Sv.
func (b *meshBuilder) quad(p patch) {
	i00 := b.vertex(p.u0, p.v0)
	i10 := b.vertex(p.u1, p.v0)
	i11 := b.vertex(p.u1, p.v1)
	i01 := b.vertex(p.u0, p.v1)
	b.mesh.Indices = append(b.mesh.Indices, i00, i10, i11, i00, i11, i01)
}
