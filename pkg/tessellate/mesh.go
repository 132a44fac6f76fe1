package tessellate

import (
	"fmt"

	"github.com/chewxy/math32"
)

// RenderMesh is the flat, renderer-facing triangle buffer. Positions and
// Normals hold xyz triples, UVs hold surface parameter pairs and Indices
// reference vertices three per triangle, wound counter-clockwise around the
// normal.
type RenderMesh struct {
	Positions []float32
	Normals   []float32
	UVs       []float32
	Indices   []uint32

	// Truncated is set when the triangle budget stopped refinement early.
	Truncated bool
	// Degenerate counts vertices that carry the fallback normal.
	Degenerate int
}

// VertexCount returns the number of vertices.
func (m *RenderMesh) VertexCount() int { return len(m.Positions) / 3 }

// TriangleCount returns the number of triangles.
func (m *RenderMesh) TriangleCount() int { return len(m.Indices) / 3 }

// IsEmpty reports whether the mesh has no triangles.
func (m *RenderMesh) IsEmpty() bool { return len(m.Indices) == 0 }

// Validate checks the buffer shape contract: array lengths are multiples of
// their stride, per-vertex arrays agree, every index is in range and every
// value is finite.
func (m *RenderMesh) Validate() error {
	if len(m.Positions)%3 != 0 {
		return fmt.Errorf("positions length %d is not a multiple of 3", len(m.Positions))
	}
	vc := m.VertexCount()
	if len(m.Normals) != 3*vc {
		return fmt.Errorf("normals length %d, want %d", len(m.Normals), 3*vc)
	}
	if len(m.UVs) != 2*vc {
		return fmt.Errorf("uvs length %d, want %d", len(m.UVs), 2*vc)
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("indices length %d is not a multiple of 3", len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= vc {
			return fmt.Errorf("index %d references vertex %d of %d", i, idx, vc)
		}
	}
	for _, buf := range [][]float32{m.Positions, m.Normals, m.UVs} {
		for i, v := range buf {
			if math32.IsNaN(v) || math32.IsInf(v, 0) {
				return fmt.Errorf("non-finite value at %d", i)
			}
		}
	}
	return nil
}

// Bounds returns the axis-aligned bounding box of the positions. An empty
// mesh returns zero bounds.
func (m *RenderMesh) Bounds() (min, max [3]float32) {
	if len(m.Positions) < 3 {
		return min, max
	}
	min = [3]float32{math32.Inf(1), math32.Inf(1), math32.Inf(1)}
	max = [3]float32{math32.Inf(-1), math32.Inf(-1), math32.Inf(-1)}
	for i := 0; i+2 < len(m.Positions); i += 3 {
		for k := 0; k < 3; k++ {
			min[k] = math32.Min(min[k], m.Positions[i+k])
			max[k] = math32.Max(max[k], m.Positions[i+k])
		}
	}
	return min, max
}

// Vertex returns the position of vertex i.
func (m *RenderMesh) Vertex(i int) [3]float32 {
	return [3]float32{m.Positions[3*i], m.Positions[3*i+1], m.Positions[3*i+2]}
}

// Triangle returns the vertex indices of triangle t.
func (m *RenderMesh) Triangle(t int) [3]uint32 {
	return [3]uint32{m.Indices[3*t], m.Indices[3*t+1], m.Indices[3*t+2]}
}

// Area returns the summed triangle area.
func (m *RenderMesh) Area() float32 {
	var total float32
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		a, b, c := m.Vertex(int(tri[0])), m.Vertex(int(tri[1])), m.Vertex(int(tri[2]))
		e1 := [3]float32{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
		e2 := [3]float32{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
		x := e1[1]*e2[2] - e1[2]*e2[1]
		y := e1[2]*e2[0] - e1[0]*e2[2]
		z := e1[0]*e2[1] - e1[1]*e2[0]
		total += math32.Sqrt(x*x+y*y+z*z) / 2
	}
	return total
}

// Append adds other's vertices and triangles to m, offsetting its indices.
func (m *RenderMesh) Append(other *RenderMesh) {
	base := uint32(m.VertexCount())
	m.Positions = append(m.Positions, other.Positions...)
	m.Normals = append(m.Normals, other.Normals...)
	m.UVs = append(m.UVs, other.UVs...)
	for _, idx := range other.Indices {
		m.Indices = append(m.Indices, base+idx)
	}
	m.Truncated = m.Truncated || other.Truncated
	m.Degenerate += other.Degenerate
}
