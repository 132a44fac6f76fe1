package tessellate

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/geomkernel/pkg/math"
	"github.com/Faultbox/geomkernel/pkg/nurbs"
)

func planeSurface(t *testing.T) *nurbs.Surface {
	t.Helper()
	s, err := nurbs.Extrude(nurbs.Line(math.Vec3{}, math.Vec3{X: 4}), math.Vec3{Y: 2})
	require.NoError(t, err)
	return s
}

func triangleNormal(m *RenderMesh, tri [3]uint32) math.Vec3 {
	v := func(i uint32) math.Vec3 {
		p := m.Vertex(int(i))
		return math.Vec3{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
	}
	a, b, c := v(tri[0]), v(tri[1]), v(tri[2])
	return b.Sub(a).Cross(c.Sub(a))
}

func TestSurfacePlaneNotRefined(t *testing.T) {
	opts := Options{CurvatureTolerance: 0.01, MaxAngle: 0.1, MinSamples: 4, MaxSamples: 64}
	m, err := Surface(planeSurface(t), opts)
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	assert.Equal(t, 16, m.VertexCount())
	assert.Equal(t, 18, m.TriangleCount())
	assert.False(t, m.Truncated)
	assert.Zero(t, m.Degenerate)

	for tIdx := 0; tIdx < m.TriangleCount(); tIdx++ {
		n := triangleNormal(m, m.Triangle(tIdx))
		assert.Greater(t, n.Z, 0.0, "triangle %d wound clockwise", tIdx)
	}
	assert.InDelta(t, 8.0, float64(m.Area()), 1e-5)
}

func TestSurfaceCylinderWithinTolerance(t *testing.T) {
	s, err := nurbs.Cylinder(math.Vec3{}, math.Vec3{Z: 1}, 2, 5)
	require.NoError(t, err)
	const tol = 0.2
	opts := Options{CurvatureTolerance: tol, MinSamples: 3, MaxSamples: 256, MaxTriangles: 100000}
	m, err := Surface(s, opts)
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	require.False(t, m.Truncated)

	for i := 0; i < m.VertexCount(); i++ {
		p := m.Vertex(i)
		assert.InDelta(t, 2, gomath.Hypot(float64(p[0]), float64(p[1])), 1e-5)
	}
	for tIdx := 0; tIdx < m.TriangleCount(); tIdx++ {
		tri := m.Triangle(tIdx)
		var cx, cy float64
		for _, idx := range tri {
			p := m.Vertex(int(idx))
			cx += float64(p[0]) / 3
			cy += float64(p[1]) / 3
		}
		assert.LessOrEqual(t, 2-gomath.Hypot(cx, cy), tol)
		// Outward normals on a cylinder built counter-clockwise.
		n := triangleNormal(m, tri)
		assert.Greater(t, n.X*cx+n.Y*cy, 0.0)
	}
	assert.Greater(t, m.TriangleCount(), 2*2*2)
}

func TestSurfaceTriangleBudget(t *testing.T) {
	s, err := nurbs.Cylinder(math.Vec3{}, math.Vec3{Z: 1}, 2, 5)
	require.NoError(t, err)
	opts := Options{CurvatureTolerance: 1e-9, MinSamples: 4, MaxSamples: 64, MaxTriangles: 40}
	m, err := Surface(s, opts)
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	assert.True(t, m.Truncated)
	assert.Equal(t, 36, m.TriangleCount())
}

func TestSurfaceSeedGridRespectsBudget(t *testing.T) {
	s, err := nurbs.Cylinder(math.Vec3{}, math.Vec3{Z: 1}, 2, 5)
	require.NoError(t, err)

	tests := []struct {
		maxTriangles int
		want         int
	}{
		{20, 18},
		{8, 8},
		{2, 2},
	}
	for _, tt := range tests {
		opts := Default()
		opts.MaxTriangles = tt.maxTriangles
		m, err := Surface(s, opts)
		require.NoError(t, err)
		require.NoError(t, m.Validate())
		assert.True(t, m.Truncated, "max_triangles=%d", tt.maxTriangles)
		assert.Equal(t, tt.want, m.TriangleCount(), "max_triangles=%d", tt.maxTriangles)
		assert.LessOrEqual(t, m.TriangleCount(), tt.maxTriangles)
	}

	opts := Default()
	opts.MaxTriangles = 1
	_, err = Surface(s, opts)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestSurfaceUniform(t *testing.T) {
	m, err := SurfaceUniform(planeSurface(t), 5, 4)
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	assert.Equal(t, 20, m.VertexCount())
	assert.Equal(t, 24, m.TriangleCount())

	minB, maxB := m.Bounds()
	assert.Equal(t, [3]float32{0, 0, 0}, minB)
	assert.Equal(t, [3]float32{4, 2, 0}, maxB)

	opts := Default()
	opts.Mode = ModeUniform
	opts.UniformSamples = 3
	m, err = Surface(planeSurface(t), opts)
	require.NoError(t, err)
	assert.Equal(t, 9, m.VertexCount())

	_, err = SurfaceUniform(planeSurface(t), 1, 4)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestSurfacePoleFlagsDegenerate(t *testing.T) {
	profile, err := nurbs.Arc(math.Vec3{}, math.Vec3{Z: 1}, math.Vec3{X: 1}, 1, 0, gomath.Pi)
	require.NoError(t, err)
	sphere, err := nurbs.Revolve(profile, math.Vec3{}, math.Vec3{Z: 1}, 2*gomath.Pi)
	require.NoError(t, err)

	m, err := SurfaceUniform(sphere, 9, 9)
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	// Both pole rows of nine vertices fall back.
	assert.Equal(t, 18, m.Degenerate)

	opts := Options{CurvatureTolerance: 0.1, MinSamples: 5, MaxSamples: 64, MaxTriangles: 5000}
	m, err = Surface(sphere, opts)
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	assert.Greater(t, m.Degenerate, 0)
}

func TestSurfaceRejectsInvalid(t *testing.T) {
	bad := &nurbs.Surface{
		DegreeU: 1, DegreeV: 1,
		ControlPoints: [][]math.Vec3{{{}, {X: 1}}, {{Y: 1}}},
		KnotsU:        []float64{0, 0, 1, 1},
		KnotsV:        []float64{0, 0, 1, 1},
	}
	_, err := Surface(bad, Default())
	assert.ErrorIs(t, err, nurbs.ErrGridShape)
}
