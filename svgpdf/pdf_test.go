package svgpdf

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benoitkugler/svgedit/svgpath"
)

func encodePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func encodeGIF(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4)), nil))
	return buf.Bytes()
}

func TestPageFormat(t *testing.T) {
	o, s := pageFormat(640, 480)
	assert.Equal(t, "L", o)
	assert.Equal(t, 480., s.Wd)

	o, s = pageFormat(100, 300)
	assert.Equal(t, "P", o)
	assert.Equal(t, 100., s.Wd)
}

func TestDocument(t *testing.T) {
	doc := NewDocument(640, 480, Info{Title: "Drawing", Creator: "test"})
	w, h := doc.PageSize()
	assert.Equal(t, 640., w)
	assert.Equal(t, 480., h)

	red := &color.RGBA{R: 0xff, A: 0xff}
	doc.BeginLayer("Layer 1", true)
	doc.Rect(10, 10, 100, 50, Style{Fill: red})
	doc.Ellipse(200, 200, 40, 20, Style{Stroke: red, LineWidth: 2})
	doc.Line(0, 0, 640, 480, Style{Stroke: red, LineWidth: 1})
	var p svgpath.Path
	p.AddRect(300, 300, 350, 350, 0)
	doc.Path(p, Style{Fill: red, EvenOdd: true, Opacity: 0.5})
	doc.Text(20, 400, "Hello\nwörld", Font{Family: "serif", Size: 12}, color.RGBA{A: 0xff})
	doc.EndLayer()

	doc.BeginLayer("Hidden", false)
	require.NoError(t, doc.Image(encodePNG(t), 0, 0, 40, 40))
	doc.EndLayer()

	assert.ErrorIs(t, doc.Image(encodeGIF(t), 0, 0, 40, 40), ErrUnsupportedImage)
	assert.Error(t, doc.Image([]byte("\x89PNG\r\n\x1a\nbroken"), 0, 0, 40, 40))
	require.NoError(t, doc.Err())

	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, 2, bytes.Count(out, []byte("/Type /OCG")))
	// layer names are written as UTF-16BE text strings
	assert.Contains(t, string(out), "\xfe\xff\x00L\x00a\x00y\x00e\x00r\x00 \x001")
}

func TestStandardFamily(t *testing.T) {
	assert.Equal(t, "Helvetica", standardFamily(""))
	assert.Equal(t, "Helvetica", standardFamily("Arial"))
	assert.Equal(t, "Times", standardFamily("'Times New Roman', serif"))
	assert.Equal(t, "Courier", standardFamily("Unknown, monospace"))
}

func TestRecorder(t *testing.T) {
	var r Recorder
	blue := &color.RGBA{B: 0xff, A: 0xff}
	r.BeginLayer("a", true)
	r.Rect(1, 2, 3, 4, Style{Fill: blue})
	r.Line(0, 0, 1, 1, Style{Stroke: blue, LineWidth: 2, Opacity: 0.5})
	require.NoError(t, r.Image(encodePNG(t), 0, 0, 1, 1))
	assert.Error(t, r.Image(encodeGIF(t), 0, 0, 1, 1))
	r.EndLayer()

	assert.Equal(t, []string{
		`layer "a" visible=true`,
		"rect 1 2 3 4 fill=#0000ff stroke=none",
		"line 0 0 1 1 fill=none stroke=#0000ff width=2 opacity=0.5",
		"image png 0 0 1 1",
		"end layer",
	}, r.Ops)
}
