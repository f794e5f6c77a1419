package svgpdf

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // image.DecodeConfig
	_ "image/png"
	"io"
	"strings"

	"github.com/h2non/filetype"
	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/math/fixed"

	"github.com/benoitkugler/svgedit/svgpath"
)

// lineHeight is the factor applied to the font size between text lines.
const lineHeight = 1.2

var _ Surface = (*Document)(nil)

// Document is a Surface writing a one page PDF file,
// by wrapping github.com/jung-kurt/gofpdf.
type Document struct {
	pdf    *gofpdf.Fpdf
	pageH  float64
	tr     func(string) string
	images int
	layers bool
}

// Info holds the document metadata.
type Info struct {
	Title, Creator, Producer string
}

// pageFormat returns the gofpdf orientation and size for a w x h page.
// gofpdf expects the portrait size and swaps it for landscape pages.
func pageFormat(w, h float64) (string, gofpdf.SizeType) {
	if w > h {
		return "L", gofpdf.SizeType{Wd: h, Ht: w}
	}
	return "P", gofpdf.SizeType{Wd: w, Ht: h}
}

// NewDocument starts a document with one w x h page, in points.
func NewDocument(w, h float64, info Info) *Document {
	orientation, size := pageFormat(w, h)
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "pt",
		Size:           size,
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	if info.Title != "" {
		pdf.SetTitle(info.Title, true)
	}
	if info.Creator != "" {
		pdf.SetCreator(info.Creator, true)
	}
	if info.Producer != "" {
		pdf.SetProducer(info.Producer, true)
	}
	pdf.AddPage()
	return &Document{
		pdf:   pdf,
		pageH: h,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

// PageSize returns the page size, in points.
func (d *Document) PageSize() (w, h float64) {
	return d.pdf.GetPageSize()
}

// Err returns the first error met while building the document.
func (d *Document) Err() error { return d.pdf.Error() }

// Output writes the document to w. The document may not be
// modified afterwards.
func (d *Document) Output(w io.Writer) error {
	if d.layers {
		d.pdf.OpenLayerPane()
	}
	return d.pdf.Output(w)
}

// Bytes returns the encoded document.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	err := d.Output(&buf)
	return buf.Bytes(), err
}

func (d *Document) BeginLayer(name string, visible bool) {
	d.layers = true
	id := d.pdf.AddLayer(name, visible)
	d.pdf.BeginLayer(id)
}

func (d *Document) EndLayer() { d.pdf.EndLayer() }

// top converts a y-up ordinate to the gofpdf top-left origin.
func (d *Document) top(y float64) float64 { return d.pageH - y }

// setStyle applies st and returns the gofpdf painting operator,
// or an empty string if nothing has to be drawn.
func (d *Document) setStyle(st Style) string {
	var op string
	if st.Fill != nil {
		d.pdf.SetFillColor(int(st.Fill.R), int(st.Fill.G), int(st.Fill.B))
		op += "F"
	}
	if st.Stroke != nil && st.LineWidth > 0 {
		d.pdf.SetDrawColor(int(st.Stroke.R), int(st.Stroke.G), int(st.Stroke.B))
		d.pdf.SetLineWidth(st.LineWidth)
		op += "D"
	}
	if op != "" {
		d.pdf.SetAlpha(st.opacity(), "Normal")
	}
	return op
}

func (d *Document) Rect(x, y, w, h float64, st Style) {
	if op := d.setStyle(st); op != "" {
		d.pdf.Rect(x, d.top(y+h), w, h, op)
	}
}

func (d *Document) Ellipse(cx, cy, rx, ry float64, st Style) {
	if op := d.setStyle(st); op != "" {
		d.pdf.Ellipse(cx, d.top(cy), rx, ry, 0, op)
	}
}

func (d *Document) Line(x1, y1, x2, y2 float64, st Style) {
	st.Fill = nil
	if op := d.setStyle(st); op != "" {
		d.pdf.Line(x1, d.top(y1), x2, d.top(y2))
	}
}

func (d *Document) Path(p svgpath.Path, st Style) {
	op := d.setStyle(st)
	if op == "" || len(p) == 0 {
		return
	}
	if st.EvenOdd && st.Fill != nil {
		op += "*"
	}
	p.AddTo(pather{d})
	d.pdf.DrawPath(op)
}

func fontStyle(f Font) string {
	var s string
	if f.Bold {
		s += "B"
	}
	if f.Italic {
		s += "I"
	}
	return s
}

// standardFamily maps a CSS font family list to one of the
// PDF core fonts.
func standardFamily(family string) string {
	for _, name := range strings.Split(family, ",") {
		switch strings.ToLower(strings.Trim(strings.TrimSpace(name), `"'`)) {
		case "serif", "times", "times new roman", "georgia":
			return "Times"
		case "monospace", "courier", "courier new":
			return "Courier"
		case "sans-serif", "helvetica", "arial", "verdana":
			return "Helvetica"
		}
	}
	return "Helvetica"
}

func (d *Document) Text(x, y float64, text string, font Font, fill color.RGBA) {
	if font.Size <= 0 {
		return
	}
	d.pdf.SetFont(standardFamily(font.Family), fontStyle(font), font.Size)
	d.pdf.SetTextColor(int(fill.R), int(fill.G), int(fill.B))
	d.pdf.SetAlpha(1, "Normal")
	for i, line := range strings.Split(text, "\n") {
		d.pdf.Text(x, d.top(y)+float64(i)*font.Size*lineHeight, d.tr(line))
	}
}

// imageType returns the gofpdf image type for data.
func imageType(data []byte) (string, error) {
	kind, err := filetype.Match(data)
	if err != nil {
		return "", err
	}
	switch kind.MIME.Value {
	case "image/png":
		return "PNG", nil
	case "image/jpeg":
		return "JPG", nil
	}
	return "", ErrUnsupportedImage
}

func (d *Document) Image(data []byte, x, y, w, h float64) error {
	kind, err := imageType(data)
	if err != nil {
		return err
	}
	// gofpdf errors are fatal to the whole document: reject
	// corrupted images first
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("svgpdf: invalid image: %w", err)
	}
	d.images++
	name := fmt.Sprintf("img%d", d.images)
	opts := gofpdf.ImageOptions{ImageType: kind}
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if err := d.pdf.Error(); err != nil {
		return err
	}
	d.pdf.SetAlpha(1, "Normal")
	d.pdf.ImageOptions(name, x, d.top(y+h), w, h, false, opts, 0, "")
	return d.pdf.Error()
}

// pather writes the path commands, flipping
// the ordinates
type pather struct {
	d *Document
}

func (p pather) point(a fixed.Point26_6) (float64, float64) {
	x, y := svgpath.FixedToF(a)
	return x, p.d.top(y)
}

func (p pather) Start(a fixed.Point26_6) {
	p.d.pdf.MoveTo(p.point(a))
}

func (p pather) Line(b fixed.Point26_6) {
	p.d.pdf.LineTo(p.point(b))
}

func (p pather) QuadBezier(b, c fixed.Point26_6) {
	cx, cy := p.point(b)
	x, y := p.point(c)
	p.d.pdf.CurveTo(cx, cy, x, y)
}

func (p pather) CubeBezier(b, c, d fixed.Point26_6) {
	cx0, cy0 := p.point(b)
	cx1, cy1 := p.point(c)
	x, y := p.point(d)
	p.d.pdf.CurveBezierCubicTo(cx0, cy0, cx1, cy1, x, y)
}

func (p pather) Stop(closeLoop bool) {
	if closeLoop {
		p.d.pdf.ClosePath()
	}
}
