package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/geomkernel/pkg/math"
	"github.com/Faultbox/geomkernel/pkg/nurbs"
	"github.com/Faultbox/geomkernel/pkg/planar"
	"github.com/Faultbox/geomkernel/pkg/tessellate"
)

func planeMesh(t *testing.T) *tessellate.RenderMesh {
	t.Helper()
	s, err := nurbs.Extrude(nurbs.Line(math.Vec3{}, math.Vec3{X: 2}), math.Vec3{Y: 1})
	require.NoError(t, err)
	m, err := tessellate.SurfaceUniform(s, 3, 2)
	require.NoError(t, err)
	require.Equal(t, 6, m.VertexCount())
	require.Equal(t, 4, m.TriangleCount())
	return m
}

func circlePolyline(t *testing.T) *tessellate.Polyline {
	t.Helper()
	c, err := nurbs.HorizontalCircle(math.Vec3{}, 1)
	require.NoError(t, err)
	pl, err := tessellate.CurveUniform(c, 9)
	require.NoError(t, err)
	return pl
}

func TestTriangles(t *testing.T) {
	m := planeMesh(t)
	tris := Triangles(m, m)
	require.Len(t, tris, 8)
	for k, tri := range tris[:4] {
		for j := 0; j < 3; j++ {
			v := m.Vertex(int(m.Triangle(k)[j]))
			assert.Equal(t, float64(v[0]), tri[j].X)
			assert.Equal(t, float64(v[1]), tri[j].Y)
			assert.Equal(t, float64(v[2]), tri[j].Z)
		}
	}
}

func TestWriteSTL(t *testing.T) {
	m := planeMesh(t)
	path := filepath.Join(t.TempDir(), "plane.stl")
	require.NoError(t, WriteSTL(path, m))

	info, err := os.Stat(path)
	require.NoError(t, err)
	// Binary STL: 80 byte header, triangle count, 50 bytes per triangle.
	assert.Equal(t, int64(84+50*m.TriangleCount()), info.Size())

	err = WriteSTL(filepath.Join(t.TempDir(), "empty.stl"), &tessellate.RenderMesh{})
	assert.ErrorIs(t, err, ErrNothingToWrite)
}

func TestWriteOBJ(t *testing.T) {
	m := planeMesh(t)
	var buf bytes.Buffer
	require.NoError(t, WriteOBJ(&buf, "plane", m))

	counts := map[string]int{}
	var firstFace string
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		tag, _, _ := strings.Cut(sc.Text(), " ")
		counts[tag]++
		if tag == "f" && firstFace == "" {
			firstFace = sc.Text()
		}
	}
	assert.Equal(t, 1, counts["o"])
	assert.Equal(t, 6, counts["v"])
	assert.Equal(t, 6, counts["vn"])
	assert.Equal(t, 6, counts["vt"])
	assert.Equal(t, 4, counts["f"])

	tri := m.Triangle(0)
	want := fmt.Sprintf("f %d/%d/%d %d/%d/%d %d/%d/%d",
		tri[0]+1, tri[0]+1, tri[0]+1, tri[1]+1, tri[1]+1, tri[1]+1, tri[2]+1, tri[2]+1, tri[2]+1)
	assert.Equal(t, want, firstFace)
}

func TestDocumentJSON(t *testing.T) {
	m := planeMesh(t)
	parts := []Part{
		{Name: "plane", Result: tessellate.Result{Kind: tessellate.KindSurface, Mesh: m}},
		{Name: "ring", Result: tessellate.Result{Kind: tessellate.KindCurve, Polyline: circlePolyline(t)}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, []MeshDocument{Document(parts[0]), Document(parts[1])}))

	var docs []MeshDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "surface", docs[0].Kind)
	assert.Equal(t, m.Positions, docs[0].Positions)
	assert.Equal(t, m.Indices, docs[0].Indices)
	assert.Empty(t, docs[0].Polyline)

	assert.Equal(t, "curve", docs[1].Kind)
	assert.Len(t, docs[1].Polyline, 27)
	assert.True(t, docs[1].Closed)
	assert.Empty(t, docs[1].Indices)
}

func TestWriteParts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	parts := []Part{
		{Name: "base wall", Result: tessellate.Result{Kind: tessellate.KindSurface, Mesh: planeMesh(t)}},
		{Name: "ring", Result: tessellate.Result{Kind: tessellate.KindCurve, Polyline: circlePolyline(t)}},
	}

	stl, err := WriteParts(dir, "stl", parts)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "base_wall.stl")}, stl)

	obj, err := WriteParts(dir, "obj", parts)
	require.NoError(t, err)
	assert.Len(t, obj, 1)

	js, err := WriteParts(dir, "json", parts)
	require.NoError(t, err)
	assert.Len(t, js, 2)
	for _, p := range append(stl, js...) {
		assert.FileExists(t, p)
	}

	_, err = WriteParts(dir, "step", parts)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "shade_outer.stl", FileName("shade outer", "stl"))
	assert.Equal(t, "a_b_c-1.json", FileName("a/b\\c-1", "json"))
}

func TestWriteSVG(t *testing.T) {
	square := planar.Polyline{Closed: true, Points: []math.Vec2{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 2}, {X: 0, Y: 2}}}
	path := planar.Polyline{Points: []math.Vec2{{X: 1, Y: 1}, {X: 3, Y: 1}}}

	var buf bytes.Buffer
	err := WriteSVG(&buf, []Layer{
		{Name: "outline", Polylines: []planar.Polyline{square}},
		{Name: "offset", Stroke: "red", Polylines: []planar.Polyline{path}},
	}, DefaultSVGOptions())
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"), out)
	assert.Contains(t, out, `id="outline"`)
	assert.Contains(t, out, `id="offset"`)
	assert.Contains(t, out, "stroke:red")
	assert.Equal(t, 1, strings.Count(out, "<polygon"))
	assert.Equal(t, 1, strings.Count(out, "<polyline"))
	// View box spans the content plus the margin, with Y flipped.
	assert.Contains(t, out, `viewBox="-1.0000 -3.0000 6.0000 4.0000"`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "</svg>"))

	err = WriteSVG(&buf, nil, DefaultSVGOptions())
	assert.ErrorIs(t, err, ErrNothingToWrite)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteSVGReportsWriteErrors(t *testing.T) {
	pl := planar.Polyline{Points: []math.Vec2{{}, {X: 1, Y: 1}}}
	err := WriteSVG(failingWriter{}, []Layer{{Name: "l", Polylines: []planar.Polyline{pl}}}, DefaultSVGOptions())
	assert.EqualError(t, err, "disk full")
}
