package export

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/Faultbox/geomkernel/pkg/tessellate"
)

// Triangles converts indexed meshes to the triangle soup sdfx renders.
func Triangles(meshes ...*tessellate.RenderMesh) []*sdf.Triangle3 {
	n := 0
	for _, m := range meshes {
		n += m.TriangleCount()
	}
	out := make([]*sdf.Triangle3, 0, n)
	for _, m := range meshes {
		vertex := func(i uint32) v3.Vec {
			return v3.Vec{
				X: float64(m.Positions[3*i]),
				Y: float64(m.Positions[3*i+1]),
				Z: float64(m.Positions[3*i+2]),
			}
		}
		for t := 0; t < m.TriangleCount(); t++ {
			idx := m.Indices[3*t : 3*t+3]
			out = append(out, &sdf.Triangle3{vertex(idx[0]), vertex(idx[1]), vertex(idx[2])})
		}
	}
	return out
}

// WriteSTL writes the meshes as one binary STL file.
func WriteSTL(path string, meshes ...*tessellate.RenderMesh) error {
	tris := Triangles(meshes...)
	if len(tris) == 0 {
		return fmt.Errorf("stl %s: %w", path, ErrNothingToWrite)
	}
	return render.SaveSTL(path, tris)
}
