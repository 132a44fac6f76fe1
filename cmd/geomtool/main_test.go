package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/geomkernel/internal/config"
	"github.com/Faultbox/geomkernel/internal/lamp"
	"github.com/Faultbox/geomkernel/internal/pipeline"
	"github.com/Faultbox/geomkernel/pkg/math"
	"github.com/Faultbox/geomkernel/pkg/planar"
	"github.com/Faultbox/geomkernel/pkg/tessellate"
)

func TestLayers(t *testing.T) {
	square := planar.Polyline{Points: []math.Vec2{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}, Closed: true}
	grown := planar.Polyline{Points: []math.Vec2{{X: -1, Y: -1}, {X: 2, Y: -1}, {X: 2, Y: 2}, {X: -1, Y: 2}}, Closed: true}
	line := &tessellate.Polyline{Points: []math.Vec3{{}, {X: 3, Z: 5}}}

	outputs := []pipeline.Output{
		{Name: "path", Result: tessellate.Result{Kind: tessellate.KindCurve, Polyline: line}},
		{Name: "ring", Result: tessellate.Result{Kind: tessellate.KindCurve, Polyline: line}, Outline: &square, Offset: &grown},
		{Name: "shell", Result: tessellate.Result{Kind: tessellate.KindSurface, Mesh: &tessellate.RenderMesh{}}},
	}

	ls := layers(outputs)
	require.Len(t, ls, 3)
	assert.Equal(t, []string{"curves", "outlines", "offsets"}, []string{ls[0].Name, ls[1].Name, ls[2].Name})

	require.Len(t, ls[0].Polylines, 1)
	assert.Equal(t, []math.Vec2{{}, {X: 3}}, ls[0].Polylines[0].Points)
	assert.Equal(t, []planar.Polyline{square}, ls[1].Polylines)
	assert.Equal(t, []planar.Polyline{grown}, ls[2].Polylines)

	ps := parts(outputs)
	require.Len(t, ps, 3)
	assert.Equal(t, "shell", ps[2].Name)
	assert.NotNil(t, ps[2].Result.Mesh)
}

const smokeScene = `
entities:
  - name: ring
    kind: circle
    radius: 2
    construction: true
  - name: shell
    kind: cylinder
    radius: 1
    height: 2
  - name: outline
    kind: polyline
    points: [[0, 0], [4, 0], [4, 3]]
    closed: true
    offset: 0.5
`

// isolate keeps the commands away from any user or working-directory config.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return t.TempDir()
}

func TestTessellateWritesParts(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "smoke.yaml")
	require.NoError(t, os.WriteFile(path, []byte(smokeScene), 0644))

	objDir := filepath.Join(dir, "obj")
	require.NoError(t, cmdTessellate([]string{"-uniform", "8", "-format", "obj", "-out", objDir, path}))
	assert.FileExists(t, filepath.Join(objDir, "shell.obj"))
	assert.NoFileExists(t, filepath.Join(objDir, "outline.obj"))
	assert.NoFileExists(t, filepath.Join(objDir, "ring.obj"))

	data, err := os.ReadFile(filepath.Join(objDir, "shell.obj"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\nf ")

	jsonDir := filepath.Join(dir, "json")
	require.NoError(t, cmdTessellate([]string{"-uniform", "8", "-format", "json", "-out", jsonDir, path}))
	assert.FileExists(t, filepath.Join(jsonDir, "shell.json"))
	assert.FileExists(t, filepath.Join(jsonDir, "outline.json"))

	svgDir := filepath.Join(dir, "svg")
	require.NoError(t, cmdTessellate([]string{"-uniform", "8", "-format", "svg", "-out", svgDir, path}))
	data, err = os.ReadFile(filepath.Join(svgDir, "smoke.svg"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestTessellateErrors(t *testing.T) {
	dir := isolate(t)

	assert.ErrorIs(t, cmdTessellate([]string{"-out", dir}), errUsage)
	assert.True(t, os.IsNotExist(cmdTessellate([]string{"-out", dir, filepath.Join(dir, "missing.yaml")})))
	assert.ErrorIs(t, cmdTessellate([]string{"-format", "dxf", "-out", dir, "scene.yaml"}), config.ErrInvalidConfig)
}

func TestLampWritesParts(t *testing.T) {
	dir := isolate(t)
	out := filepath.Join(dir, "lamp")

	require.NoError(t, cmdLamp([]string{"-uniform", "8", "-format", "obj", "-out", out}))
	for _, name := range []string{"base", "neck", "port", "sleeve"} {
		assert.FileExists(t, filepath.Join(out, name+".obj"))
	}
	assert.NoFileExists(t, filepath.Join(out, "window-0-0.obj"))

	for _, name := range []string{"lamp-pattern.svg", "lamp-footprint.svg"} {
		data, err := os.ReadFile(filepath.Join(out, name))
		require.NoError(t, err)
		assert.Contains(t, string(data), "<svg", name)
	}

	params := filepath.Join(dir, "params.yaml")
	require.NoError(t, os.WriteFile(params, []byte("base_type: hexagon\n"), 0644))
	assert.ErrorIs(t, cmdLamp([]string{"-params", params, "-out", out}), lamp.ErrInvalidParams)
}

func TestConfigSave(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "geomtool.yaml")

	require.NoError(t, cmdConfig([]string{"-tolerance", "0.005", "-workers", "3", "-save", path}))

	cfg, err := config.Load(&config.Flags{Config: &path})
	require.NoError(t, err)
	assert.Equal(t, 0.005, cfg.Tessellation.CurvatureTolerance)
	assert.Equal(t, 3, cfg.Pipeline.Workers)

	require.NoError(t, cmdConfig([]string{"-config", path, "-user"}))
	assert.FileExists(t, filepath.Join(config.ConfigDir(), config.FileName))
}
