package svgexport

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/benoitkugler/svgedit/imagecache"
	"github.com/benoitkugler/svgedit/svgcanvas"
	"github.com/benoitkugler/svgedit/svgpdf"
)

func newCanvas(t *testing.T, svg string) *svgcanvas.Canvas {
	t.Helper()
	c := svgcanvas.New()
	require.NoError(t, c.SetSVGString(svg, true))
	return c
}

func pngDataURI(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return imagecache.DataURI("image/png", buf.Bytes())
}

func gifDataURI(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2)), nil))
	return imagecache.DataURI("image/gif", buf.Bytes())
}

// stubImages resolves the urls it knows
type stubImages map[string]string

func (s stubImages) ResolveAll(_ context.Context, urls []string) map[string]error {
	out := make(map[string]error)
	for _, u := range urls {
		if _, ok := s[u]; !ok {
			out[u] = errors.New("not found")
		}
	}
	return out
}

func (s stubImages) Encodable(u string) (string, bool) {
	d, ok := s[u]
	return d, ok
}

type recorder struct {
	*svgpdf.Recorder
	info svgpdf.Info
}

func (r recorder) Bytes() ([]byte, error) { return []byte(strings.Join(r.Ops, "\n")), nil }

// recordingBackend returns a backend storing the surface in *rec.
func recordingBackend(rec *recorder) PDFBackend {
	return func(w, h float64, info svgpdf.Info) (PDFSurface, error) {
		*rec = recorder{Recorder: &svgpdf.Recorder{}, info: info}
		return *rec, nil
	}
}

func TestParseColor(t *testing.T) {
	for _, test := range []struct {
		in       string
		expected *color.RGBA
	}{
		{"", nil},
		{"none", nil},
		{"#ff0000", &color.RGBA{0xff, 0, 0, 0xff}},
		{"#0f0", &color.RGBA{0, 0xff, 0, 0xff}},
		{"rgb(0, 0, 255)", &color.RGBA{0, 0, 0xff, 0xff}},
		{"rgb(300,0,0)", &color.RGBA{0xff, 0, 0, 0xff}},
		{"Yellow", &color.RGBA{0xff, 0xff, 0, 0xff}},
		{"orange", &black},
		{"#zzz", &black},
		{"url(#grad)", &black},
	} {
		assert.Equal(t, test.expected, ParseColor(test.in), test.in)
	}
}

const rasterDoc = `<svg xmlns="http://www.w3.org/2000/svg" width="20" height="10">
<defs><filter id="blur"><feGaussianBlur stdDeviation="1"/></filter></defs>
<g><title>Layer 1</title>
<rect x="0" y="0" width="10" height="10" fill="#ff0000"/>
<rect x="10" y="0" width="10" height="10" fill="blue" filter="url(#blur)"/>
</g></svg>`

func TestRasterExport(t *testing.T) {
	ex := New(newCanvas(t, rasterDoc))
	var events []*RasterResult
	ex.OnExported(func(res *RasterResult) { events = append(events, res) })

	res, err := ex.RasterExport(context.Background(), "png", 0, "", RasterOptions{})
	require.NoError(t, err)
	assert.Equal(t, "PNG", res.Type)
	assert.Equal(t, "image/png", res.MIMEType)
	assert.Equal(t, 1., res.Quality)
	assert.Equal(t, "Exported Image", res.WindowName)
	assert.Equal(t, []string{"feGaussianBlur"}, res.IssueCodes)
	assert.Equal(t, []string{"Blurred elements will appear as un-blurred"}, res.Issues)
	assert.Contains(t, res.SVG, "<rect")
	require.Len(t, events, 1)

	mime, data, err := imagecache.ParseDataURI(res.DataURI)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 10), img.Bounds())
	r, g, b, a := img.At(5, 5).RGBA()
	assert.Equal(t, [4]uint32{0xffff, 0, 0, 0xffff}, [4]uint32{r, g, b, a})

	blob, ok := ex.Blobs().Get(res.BlobURL)
	require.True(t, ok)
	assert.Equal(t, data, blob.Data)
	ex.Blobs().Revoke(res.BlobURL)
	_, ok = ex.Blobs().Get(res.BlobURL)
	assert.False(t, ok)

	res, err = ex.RasterExport(context.Background(), "ICO", 0.5, "w", RasterOptions{AvoidEvent: true})
	require.NoError(t, err)
	assert.Equal(t, "ICO", res.Type)
	assert.Equal(t, "image/bmp", res.MIMEType)
	assert.True(t, strings.HasPrefix(res.DataURI, "data:image/bmp;base64,"))
	assert.Len(t, events, 1)

	res, err = ex.RasterExport(context.Background(), "WEBP", 1, "", RasterOptions{AvoidEvent: true})
	require.NoError(t, err)
	assert.Equal(t, "image/webp", res.MIMEType)
	assert.True(t, strings.HasPrefix(res.DataURI, "data:image/png;base64,"))
}

func TestRasterExportImages(t *testing.T) {
	c := newCanvas(t, `<svg xmlns="http://www.w3.org/2000/svg" width="20" height="20">
	<image x="0" y="0" width="10" height="10" href="http://example.com/known.png"/>
	<image x="10" y="10" width="10" height="10" href="http://example.com/unknown.png"/>
	</svg>`)
	core, logs := observer.New(zap.WarnLevel)
	ex := New(c, WithImages(stubImages{"http://example.com/known.png": pngDataURI(t)}), WithLogger(zap.New(core)))

	res, err := ex.RasterExport(context.Background(), "PNG", 1, "", RasterOptions{})
	require.NoError(t, err)
	assert.Contains(t, res.SVG, "data:image/png;base64,")
	assert.Contains(t, res.SVG, "http://example.com/unknown.png")
	assert.Equal(t, 1, logs.FilterMessage("image not embedded in export").Len())
	// the live document is not modified
	assert.NotContains(t, c.SVGCanvasToString(), "data:image/png")
}

func TestExportPDF(t *testing.T) {
	ex := New(newCanvas(t, `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="100">
	<title>Doc title</title><rect width="10" height="10"/></svg>`))
	var events []*PDFResult
	ex.OnExportedPDF(func(res *PDFResult) { events = append(events, res) })

	res, err := ex.ExportPDF(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "svg.pdf", res.WindowName)
	assert.True(t, strings.HasPrefix(res.Output, "data:application/pdf;filename=svg.pdf;base64,"))
	assert.True(t, bytes.HasPrefix(res.Data, []byte("%PDF-")))
	assert.Nil(t, res.Options)
	assert.Len(t, events, 1)

	var rec recorder
	ex = New(newCanvas(t, `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="100">
	<title>Doc title</title><rect width="10" height="10"/></svg>`), WithPDFBackend(recordingBackend(&rec)))
	_, err = ex.ExportPDF(context.Background(), "out.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Doc title", rec.info.Title)
	assert.Equal(t, []string{"image png 0 0 200 100"}, rec.Ops)
}

const layeredDoc = `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="50">
<g><title>Layer 1</title>
<rect x="10" y="5" width="20" height="10" fill="#ff0000"/>
<circle cx="50" cy="25" r="5" fill="blue" stroke="rgb(0,255,0)" stroke-width="2"/>
<text x="10" y="40" font-size="10" font-family="serif">Hi</text>
<path d="M0 0L10 10" stroke="black"/>
</g>
<g display="none"><title>Layer 2</title>
<line x1="0" y1="0" x2="100" y2="50" stroke="red"/>
</g></svg>`

func TestExportAdvancedPDFHybrid(t *testing.T) {
	var rec recorder
	ex := New(newCanvas(t, layeredDoc), WithPDFBackend(recordingBackend(&rec)))
	res, err := ex.ExportAdvancedPDF(context.Background(), "", DefaultAdvancedOptions())
	require.NoError(t, err)

	assert.Equal(t, "svg-advanced.pdf", res.WindowName)
	assert.Equal(t, Hybrid, res.Options.VectorMode)
	assert.Equal(t, advancedCreator, rec.info.Creator)
	assert.Empty(t, res.IssueCodes)
	assert.Equal(t, []string{
		`layer "Layer 1" visible=true`,
		"rect 10 35 20 10 fill=#ff0000 stroke=none",
		"ellipse 50 25 5 5 fill=#0000ff stroke=#00ff00 width=2",
		`text 10 0 "Hi" serif 10 #000000`,
		"image png 0 0 100 50",
		"end layer",
		`layer "Layer 2" visible=false`,
		"line 0 50 100 0 fill=none stroke=#ff0000 width=1",
		"end layer",
	}, rec.Ops)
}

func TestExportAdvancedPDFPure(t *testing.T) {
	c := newCanvas(t, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="100" height="50">
	<g><title>Layer 1</title>
	<polygon points="0,0 10,0 10,10" fill="red"/>
	<path d="M0 0L10 10" stroke="black"/>
	<rect id="r" width="5" height="5" transform="translate(1,1)"/>
	<use xlink:href="#r" x="20"/>
	<image x="0" y="0" width="10" height="10" href="http://example.com/a.png"/>
	<image x="0" y="0" width="10" height="10" href="`+gifDataURI(t)+`"/>
	</g></svg>`)
	core, logs := observer.New(zap.WarnLevel)
	var rec recorder
	ex := New(c, WithPDFBackend(recordingBackend(&rec)), WithLogger(zap.New(core)),
		WithImages(stubImages{"http://example.com/a.png": pngDataURI(t)}))

	_, err := ex.ExportAdvancedPDF(context.Background(), "", AdvancedOptions{VectorMode: Pure})
	require.NoError(t, err)

	require.Len(t, rec.Ops, 3)
	assert.True(t, strings.HasPrefix(rec.Ops[0], "path M0.000,50.000 L10.000,50.000 L10.000,40.000"), rec.Ops[0])
	assert.Equal(t, "image png 0 40 10 10", rec.Ops[1])
	assert.Equal(t, "image png 0 0 100 50", rec.Ops[2])

	assert.Equal(t, 1, logs.FilterMessage("element not supported in pure vector mode").Len())
	assert.Equal(t, 1, logs.FilterMessage("shape skipped in PDF export").Len())
}

func TestExportAdvancedPDFRaster(t *testing.T) {
	var rec recorder
	ex := New(newCanvas(t, layeredDoc), WithPDFBackend(recordingBackend(&rec)))
	res, err := ex.ExportAdvancedPDF(context.Background(), "", AdvancedOptions{VectorMode: Raster})
	require.NoError(t, err)
	assert.Equal(t, []string{"image png 0 0 100 50"}, rec.Ops)
	assert.Equal(t, []string{"text"}, res.IssueCodes)

	// gofpdf output, with optional content groups
	ex = New(newCanvas(t, layeredDoc))
	res, err = ex.ExportAdvancedPDF(context.Background(), "out.pdf", DefaultAdvancedOptions())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(res.Data, []byte("%PDF-")))
	assert.Contains(t, string(res.Data), "/OCG")
}

func TestExportAdvancedPDFErrors(t *testing.T) {
	failing := func(float64, float64, svgpdf.Info) (PDFSurface, error) {
		return nil, errors.New("no backend")
	}
	ex := New(newCanvas(t, layeredDoc), WithPDFBackend(failing))
	var events int
	ex.OnExportedPDF(func(*PDFResult) { events++ })

	_, err := ex.ExportAdvancedPDF(context.Background(), "", DefaultAdvancedOptions())
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	_, err = ex.ExportPDF(context.Background(), "")
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Zero(t, events)

	_, err = New(newCanvas(t, layeredDoc)).ExportAdvancedPDF(context.Background(), "", AdvancedOptions{VectorMode: "vector"})
	assert.ErrorIs(t, err, ErrVectorMode)
}

func TestTransformedShapesAreRasterized(t *testing.T) {
	var rec recorder
	ex := New(newCanvas(t, `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="50">
	<g><title>Layer 1</title>
	<g transform="rotate(45)"><rect width="10" height="10"/></g>
	<rect width="10" height="10" transform="translate(0 0)"/>
	</g></svg>`), WithPDFBackend(recordingBackend(&rec)))
	_, err := ex.ExportAdvancedPDF(context.Background(), "", AdvancedOptions{VectorMode: Hybrid})
	require.NoError(t, err)
	assert.Equal(t, []string{"rect 0 40 10 10 fill=#000000 stroke=none", "image png 0 0 100 50"}, rec.Ops)
}

func TestPaintInlineStyle(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<g style="stroke: #00ff00; stroke-width: 3"><rect style="fill:#ff0000"/></g>`))
	g := doc.Root()
	p := defaultPaint().with(g).with(g.ChildElements()[0])

	st := p.style()
	require.NotNil(t, st.Fill)
	require.NotNil(t, st.Stroke)
	assert.Equal(t, color.RGBA{0xff, 0, 0, 0xff}, *st.Fill)
	assert.Equal(t, color.RGBA{0, 0xff, 0, 0xff}, *st.Stroke)
	assert.Equal(t, 3., st.LineWidth)
}
