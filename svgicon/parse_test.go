package svgicon

import (
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/fixed"
)

func readString(t *testing.T, text string, mode ErrorMode) *SvgIcon {
	t.Helper()
	icon, err := ReadIconStream(strings.NewReader(text), mode)
	require.NoError(t, err)
	return icon
}

func TestReadViewBox(t *testing.T) {
	icon := readString(t, `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="100"/>`, StrictErrorMode)
	assert.Equal(t, Bounds{0, 0, 200, 100}, icon.ViewBox)
	assert.Equal(t, "200", icon.Width)

	icon = readString(t, `<svg xmlns="http://www.w3.org/2000/svg" width="2in" viewBox="10 10 50 40"/>`, StrictErrorMode)
	assert.Equal(t, Bounds{10, 10, 50, 40}, icon.ViewBox)

	_, err := ReadIconStream(strings.NewReader(`<html/>`), IgnoreErrorMode)
	assert.ErrorIs(t, err, ErrInvalidIcon)
	_, err = ReadIconStream(strings.NewReader(`<svg`), IgnoreErrorMode)
	assert.ErrorIs(t, err, ErrInvalidIcon)
}

func TestReadShapes(t *testing.T) {
	icon := readString(t, `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="100">
	<title>shapes</title>
	<rect x="10" y="10" width="20" height="20"/>
	<rect width="0" height="20"/>
	<circle cx="50" cy="50" r="10" fill="red"/>
	<ellipse cx="50" cy="50" rx="10" ry="5" fill="none" stroke="blue"/>
	<line x1="0" y1="0" x2="100" y2="100" stroke="#0f0"/>
	<polyline points="0,0 10,10 20,0"/>
	<polygon points="0,0 10,10 20,0"/>
	<path d="M0 0L10 10z"/>
	</svg>`, StrictErrorMode)

	require.Len(t, icon.SVGPaths, 7)
	assert.Equal(t, []string{"shapes"}, icon.Titles)
	assert.Equal(t, NewPlainColor(0xff, 0, 0, 0xff), icon.SVGPaths[1].Style.FillerColor)
	assert.Nil(t, icon.SVGPaths[2].Style.FillerColor)
	assert.Equal(t, NewPlainColor(0, 0, 0xff, 0xff), icon.SVGPaths[2].Style.LinerColor)
	assert.Equal(t, NewPlainColor(0, 0xff, 0, 0xff), icon.SVGPaths[3].Style.LinerColor)
}

func TestStyleInheritance(t *testing.T) {
	icon := readString(t, `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="100">
	<g fill="blue" opacity="0.5" style="stroke: red; stroke-width: 3" transform="translate(10 20)">
		<rect width="10" height="10" style="fill-opacity:50%;fill-rule:evenodd"/>
		<g color="#00ff00"><rect width="10" height="10" fill="currentColor" stroke-dasharray="1 2 3"/></g>
		<rect width="10" height="10" display="none"/>
		<rect width="10" height="10" visibility="hidden"/>
	</g>
	</svg>`, StrictErrorMode)

	require.Len(t, icon.SVGPaths, 2)
	s := icon.SVGPaths[0].Style
	assert.Equal(t, NewPlainColor(0, 0, 0xff, 0xff), s.FillerColor)
	assert.Equal(t, NewPlainColor(0xff, 0, 0, 0xff), s.LinerColor)
	assert.Equal(t, 3., s.LineWidth)
	assert.Equal(t, 0.5, s.Opacity)
	assert.Equal(t, 0.5, s.FillOpacity)
	assert.False(t, s.UseNonZeroWinding)
	assert.Equal(t, Identity.Translate(10, 20), s.transform)

	s = icon.SVGPaths[1].Style
	assert.Equal(t, NewPlainColor(0, 0xff, 0, 0xff), s.FillerColor)
	assert.Equal(t, []float64{1, 2, 3, 1, 2, 3}, s.Dash.Dash)
	assert.True(t, s.UseNonZeroWinding)
}

func TestUnterminatedStyle(t *testing.T) {
	icon := readString(t, `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="100">
	<rect width="10" height="10" style="fill:#ff0000"/>
	<rect width="10" height="10" style="fill:#ff0000;"/>
	<rect width="10" height="10" style="stroke: blue ; stroke-width: 4"/>
	</svg>`, StrictErrorMode)

	require.Len(t, icon.SVGPaths, 3)
	assert.Equal(t, NewPlainColor(0xff, 0, 0, 0xff), icon.SVGPaths[0].Style.FillerColor)
	assert.Equal(t, NewPlainColor(0xff, 0, 0, 0xff), icon.SVGPaths[1].Style.FillerColor)
	assert.Equal(t, NewPlainColor(0, 0, 0xff, 0xff), icon.SVGPaths[2].Style.LinerColor)
	assert.Equal(t, 4., icon.SVGPaths[2].Style.LineWidth)
}

func TestGradients(t *testing.T) {
	icon := readString(t, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="100" height="100">
	<defs>
		<linearGradient id="base" x2="0.5" spreadMethod="reflect">
			<stop offset="0" stop-color="red"/>
			<stop offset="100%" style="stop-color:blue;stop-opacity:0.5"/>
		</linearGradient>
		<linearGradient id="user" xlink:href="#base" gradientUnits="userSpaceOnUse" x1="10" x2="90"/>
		<radialGradient id="radial" cx="0.2" fx="0.1"><stop offset="0.5" stop-color="#fff"/></radialGradient>
	</defs>
	<rect width="10" height="10" fill="url(#base)"/>
	<rect width="10" height="10" fill="url(#user)"/>
	<rect width="10" height="10" fill="url(#radial)"/>
	<rect width="10" height="10" fill="url(#missing) green"/>
	<rect width="10" height="10" fill="url(#missing)"/>
	</svg>`, StrictErrorMode)

	require.Len(t, icon.SVGPaths, 5)
	base := icon.SVGPaths[0].Style.FillerColor.(Gradient)
	assert.Equal(t, Linear{0, 0, 0.5, 0}, base.Direction)
	assert.Equal(t, ReflectSpread, base.Spread)
	assert.Equal(t, ObjectBoundingBox, base.Units)
	require.Len(t, base.Stops, 2)
	assert.Equal(t, 1., base.Stops[1].Offset)
	assert.Equal(t, 0.5, base.Stops[1].Opacity)
	assert.Equal(t, color.NRGBA{0, 0, 0xff, 0xff}, base.Stops[1].StopColor)

	user := icon.SVGPaths[1].Style.FillerColor.(Gradient)
	assert.Equal(t, UserSpaceOnUse, user.Units)
	assert.Equal(t, Linear{10, 0, 90, 0}, user.Direction)
	assert.Equal(t, ReflectSpread, user.Spread)
	assert.Len(t, user.Stops, 2)

	radial := icon.SVGPaths[2].Style.FillerColor.(Gradient)
	assert.Equal(t, Radial{0.2, 0.5, 0.1, 0.5, 0.5, 0}, radial.Direction)

	assert.Equal(t, NewPlainColor(0, 0x80, 0, 0xff), icon.SVGPaths[3].Style.FillerColor)
	assert.Nil(t, icon.SVGPaths[4].Style.FillerColor)
}

func TestUse(t *testing.T) {
	icon := readString(t, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="100" height="100">
	<defs>
		<rect id="r" width="10" height="10"/>
		<symbol id="s" viewBox="0 0 10 10"><circle cx="5" cy="5" r="5"/></symbol>
	</defs>
	<use xlink:href="#r" x="5" fill="red"/>
	<use href="#s" width="20" height="20"/>
	</svg>`, StrictErrorMode)

	require.Len(t, icon.SVGPaths, 2)
	assert.Equal(t, Identity.Translate(5, 0), icon.SVGPaths[0].Style.transform)
	assert.Equal(t, NewPlainColor(0xff, 0, 0, 0xff), icon.SVGPaths[0].Style.FillerColor)
	assert.Equal(t, Identity.Scale(2, 2), icon.SVGPaths[1].Style.transform)
}

func TestUseErrors(t *testing.T) {
	cyclic := `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="100">
	<g id="g"><use href="#g"/></g>
	</svg>`
	_, err := ReadIconStream(strings.NewReader(cyclic), StrictErrorMode)
	assert.ErrorIs(t, err, errUseCycle)

	icon, err := ReadIconStream(strings.NewReader(cyclic), IgnoreErrorMode)
	assert.NoError(t, err)
	assert.Empty(t, icon.SVGPaths)

	_, err = ReadIconStream(strings.NewReader(`<svg xmlns="http://www.w3.org/2000/svg"><use href="#nope"/></svg>`), StrictErrorMode)
	assert.Error(t, err)
}

func TestUnsupported(t *testing.T) {
	text := `<svg xmlns="http://www.w3.org/2000/svg" xmlns:se="http://svg-edit.googlecode.com" width="100" height="100">
	<text x="10" y="10">hello</text>
	<foreignObject width="10" height="10"/>
	<se:custom/>
	<rect width="10" height="10"/>
	</svg>`
	icon := readString(t, text, IgnoreErrorMode)
	assert.Equal(t, map[string]int{"text": 1, "foreignObject": 1}, icon.Unsupported)
	assert.Len(t, icon.SVGPaths, 1)

	_, err := ReadIconStream(strings.NewReader(text), StrictErrorMode)
	assert.ErrorIs(t, err, ErrUnsupportedElement)
}

type recordDriver struct {
	ops    []string
	images []string
}

type recordDrawer struct {
	d    *recordDriver
	kind string
}

func (r recordDrawer) Clear()                                  {}
func (r recordDrawer) Start(a fixed.Point26_6)                 { r.d.ops = append(r.d.ops, r.kind+":M") }
func (r recordDrawer) Line(b fixed.Point26_6)                  { r.d.ops = append(r.d.ops, r.kind+":L") }
func (r recordDrawer) QuadBezier(b, c fixed.Point26_6)         { r.d.ops = append(r.d.ops, r.kind+":Q") }
func (r recordDrawer) CubeBezier(b, c, d fixed.Point26_6)      { r.d.ops = append(r.d.ops, r.kind+":C") }
func (r recordDrawer) Stop(closeLoop bool)                     {}
func (r recordDrawer) SetColor(color Pattern, opacity float64) {}
func (r recordDrawer) Draw()                                   { r.d.ops = append(r.d.ops, r.kind+":draw") }
func (r recordDrawer) SetWinding(bool)                         {}
func (r recordDrawer) SetStrokeOptions(StrokeOptions)          {}

func (d *recordDriver) SetupDrawers(willFill, willStroke bool) (f Filler, s Stroker) {
	if willFill {
		f = recordDrawer{d, "fill"}
	}
	if willStroke {
		s = recordDrawer{d, "stroke"}
	}
	return f, s
}

func (d *recordDriver) DrawImage(href string, dst Bounds, m Matrix2D, opacity float64) {
	d.images = append(d.images, href)
	d.ops = append(d.ops, "image")
}

func TestDraw(t *testing.T) {
	icon := readString(t, `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="100">
	<line x1="0" y1="0" x2="10" y2="10" stroke="red" fill="none"/>
	<image href="a.png" width="10" height="10"/>
	<line x1="0" y1="0" x2="10" y2="10"/>
	</svg>`, StrictErrorMode)

	var d recordDriver
	icon.Draw(&d, 1)
	assert.Equal(t, []string{"stroke:M", "stroke:L", "stroke:draw", "image", "fill:M", "fill:L", "fill:draw"}, d.ops)
	assert.Equal(t, []string{"a.png"}, d.images)
}

func TestSetTarget(t *testing.T) {
	icon := &SvgIcon{ViewBox: Bounds{10, 10, 50, 50}}
	icon.SetTarget(0, 0, 100, 100)
	x, y := icon.Transform.Transform(10, 10)
	assert.InDelta(t, 0, x, 1e-9)
	assert.InDelta(t, 0, y, 1e-9)
	x, y = icon.Transform.Transform(60, 60)
	assert.InDelta(t, 100, x, 1e-9)
	assert.InDelta(t, 100, y, 1e-9)
}

func TestParseColor(t *testing.T) {
	black := color.NRGBA{A: 0xff}
	for _, test := range []struct {
		in       string
		expected optionnalColor
	}{
		{"none", optionnalColor{}},
		{"#abc", optionnalColor{true, color.NRGBA{0xaa, 0xbb, 0xcc, 0xff}}},
		{"#A0B1C2", optionnalColor{true, color.NRGBA{0xa0, 0xb1, 0xc2, 0xff}}},
		{"rgb(10, 20%, 300)", optionnalColor{true, color.NRGBA{10, 51, 255, 0xff}}},
		{"CornflowerBlue", optionnalColor{true, color.NRGBA{100, 149, 237, 0xff}}},
		{"currentColor", optionnalColor{true, black}},
	} {
		got, err := parseSVGColor(test.in, black)
		assert.NoError(t, err, test.in)
		assert.Equal(t, test.expected, got, test.in)
	}
	for _, bad := range []string{"", "#abcd", "rgb(1,2)", "nocolor", "#ggg"} {
		_, err := parseSVGColor(bad, black)
		assert.Error(t, err, bad)
	}
}
