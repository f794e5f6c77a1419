// Package svgpdf draws simple vector primitives, text and images
// on a PDF page.
//
// Surfaces work in PDF user space: the origin is the bottom-left
// corner of the page and y grows upward. Callers coming from SVG
// coordinates flip with yOut = pageHeight - yIn (- height).
package svgpdf

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	"github.com/benoitkugler/svgedit/svgpath"
)

// ErrUnsupportedImage is returned for embedded images other than PNG or JPEG.
var ErrUnsupportedImage = errors.New("svgpdf: only PNG and JPEG images are supported")

// Style describes how a shape is painted. A nil color disables
// the corresponding operation.
type Style struct {
	Fill, Stroke *color.RGBA
	LineWidth    float64
	EvenOdd      bool
	// Opacity applies to the whole shape. Zero is read as 1.
	Opacity float64
}

func (st Style) opacity() float64 {
	if st.Opacity <= 0 || st.Opacity > 1 {
		return 1
	}
	return st.Opacity
}

// Font selects one of the standard fonts.
type Font struct {
	Family       string
	Size         float64
	Bold, Italic bool
}

// Surface is a single page PDF target.
type Surface interface {
	// BeginLayer starts an optional content group, closed by EndLayer.
	BeginLayer(name string, visible bool)
	EndLayer()

	// Rect draws the rectangle with (x, y) as bottom-left corner.
	Rect(x, y, w, h float64, st Style)
	Ellipse(cx, cy, rx, ry float64, st Style)
	Line(x1, y1, x2, y2 float64, st Style)
	// Path draws a path already expressed in page coordinates.
	Path(p svgpath.Path, st Style)
	// Text draws lines separated by '\n', the first baseline at (x, y),
	// going downward.
	Text(x, y float64, text string, font Font, fill color.RGBA)
	// Image embeds an encoded PNG or JPEG image, with (x, y) as
	// bottom-left corner.
	Image(data []byte, x, y, w, h float64) error
}

// Recorder is a Surface keeping a readable trace of the
// operations, one line per operation.
type Recorder struct {
	Ops []string
}

var _ Surface = (*Recorder)(nil)

func hexColor(c *color.RGBA) string {
	if c == nil {
		return "none"
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (st Style) String() string {
	out := fmt.Sprintf("fill=%s stroke=%s", hexColor(st.Fill), hexColor(st.Stroke))
	if st.Stroke != nil {
		out += fmt.Sprintf(" width=%g", st.LineWidth)
	}
	if o := st.opacity(); o != 1 {
		out += fmt.Sprintf(" opacity=%g", o)
	}
	return out
}

func (r *Recorder) record(format string, args ...interface{}) {
	r.Ops = append(r.Ops, fmt.Sprintf(format, args...))
}

func (r *Recorder) BeginLayer(name string, visible bool) {
	r.record("layer %q visible=%t", name, visible)
}

func (r *Recorder) EndLayer() { r.record("end layer") }

func (r *Recorder) Rect(x, y, w, h float64, st Style) {
	r.record("rect %g %g %g %g %s", x, y, w, h, st)
}

func (r *Recorder) Ellipse(cx, cy, rx, ry float64, st Style) {
	r.record("ellipse %g %g %g %g %s", cx, cy, rx, ry, st)
}

func (r *Recorder) Line(x1, y1, x2, y2 float64, st Style) {
	r.record("line %g %g %g %g %s", x1, y1, x2, y2, st)
}

func (r *Recorder) Path(p svgpath.Path, st Style) {
	r.record("path %s %s", p.ToSVGPath(), st)
}

func (r *Recorder) Text(x, y float64, text string, font Font, fill color.RGBA) {
	r.record("text %g %g %q %s %g %s", x, y, text, font.Family, font.Size, hexColor(&fill))
}

func (r *Recorder) Image(data []byte, x, y, w, h float64) error {
	kind, err := imageType(data)
	if err != nil {
		return err
	}
	r.record("image %s %g %g %g %g", strings.ToLower(kind), x, y, w, h)
	return nil
}
