// Package export writes tessellation output to interchange formats: binary
// STL through sdfx, SVG through svgo, Wavefront OBJ and JSON.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/geomkernel/pkg/tessellate"
)

var (
	ErrUnknownFormat  = errors.New("unknown export format")
	ErrNothingToWrite = errors.New("nothing to write")
)

// Part is one named tessellated entity.
type Part struct {
	Name   string
	Result tessellate.Result
}

// MeshDocument is the JSON layout of a tessellated part. Curves fill
// Polyline, surfaces fill the triangle arrays.
type MeshDocument struct {
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Positions []float32 `json:"positions,omitempty"`
	Normals   []float32 `json:"normals,omitempty"`
	UVs       []float32 `json:"uvs,omitempty"`
	Indices   []uint32  `json:"indices,omitempty"`
	Polyline  []float32 `json:"polyline,omitempty"`
	Closed    bool      `json:"closed,omitempty"`
	Truncated bool      `json:"truncated,omitempty"`
}

// Document converts a part to its JSON layout.
func Document(p Part) MeshDocument {
	doc := MeshDocument{Name: p.Name, Kind: p.Result.Kind.String(), Truncated: p.Result.Truncated()}
	if m := p.Result.Mesh; m != nil {
		doc.Positions = m.Positions
		doc.Normals = m.Normals
		doc.UVs = m.UVs
		doc.Indices = m.Indices
	}
	if pl := p.Result.Polyline; pl != nil {
		doc.Polyline = pl.Buffer()
		doc.Closed = pl.Closed
	}
	return doc
}

// WriteJSON encodes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FileName returns a filesystem-safe file name for a part.
func FileName(name, format string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
	return safe + "." + format
}

// WriteParts writes each part to dir in format ("stl", "obj" or "json") and
// returns the written paths. Parts without output for the format are
// skipped: STL and OBJ need a mesh.
func WriteParts(dir, format string, parts []Part) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	var written []string
	for _, p := range parts {
		path := filepath.Join(dir, FileName(p.Name, format))
		var err error
		switch format {
		case "stl":
			if p.Result.Mesh == nil {
				continue
			}
			err = WriteSTL(path, p.Result.Mesh)
		case "obj":
			if p.Result.Mesh == nil {
				continue
			}
			err = writeFile(path, func(w io.Writer) error { return WriteOBJ(w, p.Name, p.Result.Mesh) })
		case "json":
			err = writeFile(path, func(w io.Writer) error { return WriteJSON(w, Document(p)) })
		default:
			return written, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
		}
		if err != nil {
			return written, fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}
