package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Faultbox/geomkernel/pkg/tessellate"
)

// WriteOBJ writes mesh as a Wavefront OBJ object with positions, normals
// and texture coordinates. Face indices are 1-based.
func WriteOBJ(w io.Writer, name string, mesh *tessellate.RenderMesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "o %s\n", name)
	for i := 0; i < mesh.VertexCount(); i++ {
		p := mesh.Positions[3*i : 3*i+3]
		fmt.Fprintf(bw, "v %g %g %g\n", p[0], p[1], p[2])
	}
	hasNormals := len(mesh.Normals) == len(mesh.Positions)
	if hasNormals {
		for i := 0; i < mesh.VertexCount(); i++ {
			n := mesh.Normals[3*i : 3*i+3]
			fmt.Fprintf(bw, "vn %g %g %g\n", n[0], n[1], n[2])
		}
	}
	hasUVs := len(mesh.UVs) == 2*mesh.VertexCount()
	if hasUVs {
		for i := 0; i < mesh.VertexCount(); i++ {
			fmt.Fprintf(bw, "vt %g %g\n", mesh.UVs[2*i], mesh.UVs[2*i+1])
		}
	}
	for t := 0; t < mesh.TriangleCount(); t++ {
		bw.WriteString("f")
		for _, idx := range mesh.Indices[3*t : 3*t+3] {
			k := idx + 1
			switch {
			case hasNormals && hasUVs:
				fmt.Fprintf(bw, " %d/%d/%d", k, k, k)
			case hasNormals:
				fmt.Fprintf(bw, " %d//%d", k, k)
			case hasUVs:
				fmt.Fprintf(bw, " %d/%d", k, k)
			default:
				fmt.Fprintf(bw, " %d", k)
			}
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}
