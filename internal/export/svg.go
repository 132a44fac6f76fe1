package export

import (
	"fmt"
	"io"
	gomath "math"

	svg "github.com/ajstarks/svgo/float"

	"github.com/Faultbox/geomkernel/pkg/planar"
)

// Layer is a named group of outlines drawn with one stroke.
type Layer struct {
	Name      string
	Stroke    string
	Polylines []planar.Polyline
}

// SVGOptions sizes the drawing. Width is in pixels; the height follows the
// aspect ratio of the content.
type SVGOptions struct {
	Width       float64
	Margin      float64 // in model units
	StrokeWidth float64 // in model units
}

// DefaultSVGOptions returns an 800 pixel wide drawing.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{Width: 800, Margin: 1, StrokeWidth: 0.05}
}

// errWriter keeps the first write error; svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return len(p), nil
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, nil
}

// WriteSVG draws every layer in model coordinates with Y up. Closed
// polylines become polygons.
func WriteSVG(w io.Writer, layers []Layer, opts SVGOptions) error {
	minX, minY := gomath.Inf(1), gomath.Inf(1)
	maxX, maxY := gomath.Inf(-1), gomath.Inf(-1)
	for _, l := range layers {
		for _, pl := range l.Polylines {
			for _, p := range pl.Points {
				minX, maxX = gomath.Min(minX, p.X), gomath.Max(maxX, p.X)
				minY, maxY = gomath.Min(minY, p.Y), gomath.Max(maxY, p.Y)
			}
		}
	}
	if gomath.IsInf(minX, 1) {
		return fmt.Errorf("svg: %w", ErrNothingToWrite)
	}

	vw := maxX - minX + 2*opts.Margin
	vh := maxY - minY + 2*opts.Margin
	if vw <= 0 || vh <= 0 {
		vw, vh = gomath.Max(vw, 1), gomath.Max(vh, 1)
	}
	width := opts.Width
	if width <= 0 {
		width = DefaultSVGOptions().Width
	}

	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Decimals = 4
	// Y is flipped by negating coordinates, so the view box starts at -maxY.
	canvas.Startview(width, width*vh/vw, minX-opts.Margin, -maxY-opts.Margin, vw, vh)
	for _, l := range layers {
		stroke := l.Stroke
		if stroke == "" {
			stroke = "black"
		}
		canvas.Gid(l.Name)
		canvas.Gstyle(fmt.Sprintf("fill:none;stroke:%s;stroke-width:%g", stroke, opts.StrokeWidth))
		for _, pl := range l.Polylines {
			if pl.Len() < 2 {
				continue
			}
			xs := make([]float64, pl.Len())
			ys := make([]float64, pl.Len())
			for i, p := range pl.Points {
				xs[i], ys[i] = p.X, -p.Y
			}
			if pl.Closed {
				canvas.Polygon(xs, ys)
			} else {
				canvas.Polyline(xs, ys)
			}
		}
		canvas.Gend()
		canvas.Gend()
	}
	canvas.End()
	return ew.err
}
