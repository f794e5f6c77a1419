package svgraster

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benoitkugler/svgedit/svgicon"
)

func render(t *testing.T, svg string, w, h int) *image.RGBA {
	t.Helper()
	icon, err := svgicon.ReadIconStream(strings.NewReader(svg), svgicon.StrictErrorMode)
	require.NoError(t, err)
	img, errs := Rasterize(icon, w, h, nil, nil)
	require.Empty(t, errs)
	return img
}

func rgba(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestRasterizeFill(t *testing.T) {
	img := render(t, `<svg xmlns="http://www.w3.org/2000/svg" width="20" height="20">
	<rect x="0" y="0" width="10" height="20" fill="red"/>
	<rect x="10" y="0" width="10" height="20" fill="#0000ff" fill-opacity="0.5"/>
	</svg>`, 20, 20)

	assert.Equal(t, color.RGBA{0xff, 0, 0, 0xff}, rgba(img, 5, 10))
	right := rgba(img, 15, 10)
	assert.Zero(t, right.R)
	assert.InDelta(t, 0x7f, int(right.A), 2)
}

func TestRasterizeScale(t *testing.T) {
	img := render(t, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10">
	<rect width="5" height="5" fill="black"/>
	</svg>`, 40, 40)

	assert.Equal(t, color.RGBA{0, 0, 0, 0xff}, rgba(img, 10, 10))
	assert.Equal(t, color.RGBA{}, rgba(img, 30, 30))
}

func TestRasterizeStroke(t *testing.T) {
	img := render(t, `<svg xmlns="http://www.w3.org/2000/svg" width="20" height="20">
	<line x1="0" y1="10" x2="20" y2="10" stroke="lime" stroke-width="4"/>
	</svg>`, 20, 20)

	assert.Equal(t, color.RGBA{0, 0xff, 0, 0xff}, rgba(img, 10, 10))
	assert.Equal(t, color.RGBA{}, rgba(img, 10, 2))
}

func TestRasterizeGradient(t *testing.T) {
	img := render(t, `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="10">
	<linearGradient id="g"><stop offset="0" stop-color="black"/><stop offset="1" stop-color="white"/></linearGradient>
	<rect width="100" height="10" fill="url(#g)"/>
	</svg>`, 100, 10)

	left, right := rgba(img, 2, 5), rgba(img, 97, 5)
	assert.Less(t, int(left.R), 0x20)
	assert.Greater(t, int(right.R), 0xe0)
}

func dataURI(t *testing.T, img image.Image) string {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestRasterizeImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}
	svg := `<svg xmlns="http://www.w3.org/2000/svg" width="20" height="20">
	<image x="10" y="10" width="10" height="10" href="` + dataURI(t, src) + `"/>
	<image x="0" y="0" width="10" height="10" href="http://example.com/a.png"/>
	</svg>`
	icon, err := svgicon.ReadIconStream(strings.NewReader(svg), svgicon.StrictErrorMode)
	require.NoError(t, err)
	img, errs := Rasterize(icon, 20, 20, color.Black, nil)

	assert.Len(t, errs, 1)
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xff, 0xff}, rgba(img, 15, 15))
	assert.Equal(t, color.RGBA{0, 0, 0, 0xff}, rgba(img, 5, 5))
}

func TestRasterSVGIconToImage(t *testing.T) {
	img, err := RasterSVGIconToImage(strings.NewReader(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 30 12"/>`), nil)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 30, 12), img.Bounds())

	_, err = RasterSVGIconToImage(strings.NewReader(`not xml`), nil)
	assert.Error(t, err)
}

func TestEncode(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for _, test := range []struct {
		mime, expected string
	}{
		{"image/png", "image/png"},
		{"image/jpeg", "image/jpeg"},
		{"image/bmp", "image/bmp"},
		{"image/webp", "image/png"},
	} {
		var buf bytes.Buffer
		got, err := Encode(&buf, img, test.mime, 0)
		require.NoError(t, err)
		assert.Equal(t, test.expected, got)
		assert.NotZero(t, buf.Len())
	}
	assert.True(t, CanEncode("image/jpeg"))
	assert.False(t, CanEncode("image/webp"))
}
