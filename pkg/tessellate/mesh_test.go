package tessellate

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func unitSquareMesh() *RenderMesh {
	return &RenderMesh{
		Positions: []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0},
		Normals:   []float32{0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1},
		UVs:       []float32{0, 0, 1, 0, 1, 1, 0, 1},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	}
}

func TestRenderMeshCounts(t *testing.T) {
	m := unitSquareMesh()
	assert.NoError(t, m.Validate())
	assert.Equal(t, 4, m.VertexCount())
	assert.Equal(t, 2, m.TriangleCount())
	assert.False(t, m.IsEmpty())
	assert.InDelta(t, 1.0, float64(m.Area()), 1e-6)
	assert.True(t, (&RenderMesh{}).IsEmpty())
}

func TestRenderMeshValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *RenderMesh)
	}{
		{"positions stride", func(m *RenderMesh) { m.Positions = m.Positions[:11] }},
		{"normals length", func(m *RenderMesh) { m.Normals = m.Normals[:9] }},
		{"uv length", func(m *RenderMesh) { m.UVs = m.UVs[:6] }},
		{"index stride", func(m *RenderMesh) { m.Indices = m.Indices[:5] }},
		{"index range", func(m *RenderMesh) { m.Indices[4] = 4 }},
		{"nan", func(m *RenderMesh) { m.Normals[2] = math32.NaN() }},
		{"inf", func(m *RenderMesh) { m.Positions[0] = math32.Inf(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := unitSquareMesh()
			tt.mutate(m)
			assert.Error(t, m.Validate())
		})
	}
}

func TestRenderMeshBounds(t *testing.T) {
	m := unitSquareMesh()
	m.Positions[7] = -2
	min, max := m.Bounds()
	assert.Equal(t, [3]float32{0, -2, 0}, min)
	assert.Equal(t, [3]float32{1, 1, 0}, max)

	min, max = (&RenderMesh{}).Bounds()
	assert.Equal(t, [3]float32{}, min)
	assert.Equal(t, [3]float32{}, max)
}

func TestRenderMeshAppend(t *testing.T) {
	m := unitSquareMesh()
	other := unitSquareMesh()
	other.Truncated = true
	other.Degenerate = 2
	m.Append(other)

	assert.NoError(t, m.Validate())
	assert.Equal(t, 8, m.VertexCount())
	assert.Equal(t, [3]uint32{4, 5, 6}, m.Triangle(2))
	assert.True(t, m.Truncated)
	assert.Equal(t, 2, m.Degenerate)
}
