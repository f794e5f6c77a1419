// Implements a raster backend to render SVG images,
// by wrapping rasterx.
package svgraster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/benoitkugler/svgedit/imagecache"
	"github.com/benoitkugler/svgedit/svgicon"
)

// assert interface conformance
var (
	_ svgicon.Driver      = (*Renderer)(nil)
	_ svgicon.ImageDrawer = (*Renderer)(nil)
	_ svgicon.Filler      = filler{}
	_ svgicon.Stroker     = stroker{}
)

// ImageLoader provides the content of <image> elements.
type ImageLoader interface {
	Image(href string) (image.Image, error)
}

// DataURIs decodes images given as data URIs.
type DataURIs struct{}

func (DataURIs) Image(href string) (image.Image, error) {
	if !strings.HasPrefix(href, "data:") {
		return nil, fmt.Errorf("svgraster: %q is not a data URI", href)
	}
	mime, data, err := imagecache.ParseDataURI(href)
	if err != nil {
		return nil, err
	}
	if mime == "image/svg+xml" {
		return nil, imagecache.ErrNotImage
	}
	return imaging.Decode(bytes.NewReader(data))
}

type Renderer struct {
	dasher *rasterx.Dasher // to avoid shared state
	filler *rasterx.Filler // we use separated instance

	dst    draw.Image
	images ImageLoader
	// ImageErrors collects the images which could not be drawn.
	ImageErrors []error
}

// NewRenderer returns a renderer with default values.
// In addition to rasterizing lines like a Scanner,
// it can also rasterize quadratic and cubic bezier curves.
// Images are composited on dst and loaded with images, which may be nil
// to only accept data URIs.
func NewRenderer(dst draw.Image, images ImageLoader) *Renderer {
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	if images == nil {
		images = DataURIs{}
	}
	return &Renderer{
		dasher: rasterx.NewDasher(w, h, scanner),
		filler: rasterx.NewFiller(w, h, scanner),
		dst:    dst,
		images: images,
	}
}

// RasterSVGIconToImage renders the icon at its viewBox size
// and returns it.
func RasterSVGIconToImage(icon io.Reader, images ImageLoader) (*image.RGBA, error) {
	parsedIcon, err := svgicon.ReadIconStream(icon, svgicon.IgnoreErrorMode)
	if err != nil {
		return nil, err
	}
	img, _ := Rasterize(parsedIcon, int(parsedIcon.ViewBox.W), int(parsedIcon.ViewBox.H), nil, images)
	return img, nil
}

// Rasterize draws the icon scaled to a w x h image, over the given
// background (transparent if nil). The errors of the images which could not
// be drawn are returned.
func Rasterize(icon *svgicon.SvgIcon, w, h int, background color.Color, images ImageLoader) (*image.RGBA, []error) {
	img := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	if background != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	}
	renderer := NewRenderer(img, images)
	icon.SetTarget(0, 0, float64(w), float64(h))
	icon.Draw(renderer, 1.0)
	return img, renderer.ImageErrors
}

// SetupDrawers implements svgicon.Driver
func (rd *Renderer) SetupDrawers(willFill, willStroke bool) (f svgicon.Filler, s svgicon.Stroker) {
	if willFill {
		f = filler{rd.filler}
	}
	if willStroke {
		s = stroker{rd.dasher}
	}
	return f, s
}

// DrawImage implements svgicon.ImageDrawer
func (rd *Renderer) DrawImage(href string, dst svgicon.Bounds, m svgicon.Matrix2D, opacity float64) {
	src, err := rd.images.Image(href)
	if err != nil {
		rd.ImageErrors = append(rd.ImageErrors, err)
		return
	}
	b := src.Bounds()
	if b.Empty() {
		return
	}
	m = m.Translate(dst.X, dst.Y).
		Scale(dst.W/float64(b.Dx()), dst.H/float64(b.Dy())).
		Translate(-float64(b.Min.X), -float64(b.Min.Y))
	var opts *draw.Options
	if opacity < 1 {
		opts = &draw.Options{SrcMask: image.NewUniform(color.Alpha{A: uint8(opacity * 0xff)})}
	}
	draw.BiLinear.Transform(rd.dst, f64.Aff3{m.A, m.C, m.E, m.B, m.D, m.F}, src, b, draw.Over, opts)
}

type filler struct{ *rasterx.Filler }

type stroker struct{ *rasterx.Dasher }

func toRasterxGradient(grad svgicon.Gradient) rasterx.Gradient {
	var (
		points   [5]float64
		isRadial bool
	)
	switch dir := grad.Direction.(type) {
	case svgicon.Linear:
		points[0], points[1], points[2], points[3] = dir[0], dir[1], dir[2], dir[3]
		isRadial = false
	case svgicon.Radial:
		points[0], points[1], points[2], points[3], points[4] = dir[0], dir[1], dir[2], dir[3], dir[4] // in rasterx fr is ignored
		isRadial = true
	}
	stops := make([]rasterx.GradStop, len(grad.Stops))
	for i := range grad.Stops {
		stops[i] = rasterx.GradStop(grad.Stops[i])
	}
	return rasterx.Gradient{
		Points:   points,
		Stops:    stops,
		Bounds:   grad.Bounds,
		Matrix:   rasterx.Matrix2D(grad.Matrix),
		Spread:   rasterx.SpreadMethod(grad.Spread),
		Units:    rasterx.GradientUnits(grad.Units),
		IsRadial: isRadial,
	}
}

// resolve gradient color
func setColorFromPattern(color svgicon.Pattern, opacity float64, scanner rasterx.Scanner) {
	switch fillerColor := color.(type) {
	case svgicon.PlainColor:
		scanner.SetColor(rasterx.ApplyOpacity(fillerColor, opacity))
	case svgicon.Gradient:
		if fillerColor.Units == svgicon.ObjectBoundingBox {
			fRect := scanner.GetPathExtent()
			mnx, mny := float64(fRect.Min.X)/64, float64(fRect.Min.Y)/64
			mxx, mxy := float64(fRect.Max.X)/64, float64(fRect.Max.Y)/64
			fillerColor.Bounds.X, fillerColor.Bounds.Y = mnx, mny
			fillerColor.Bounds.W, fillerColor.Bounds.H = mxx-mnx, mxy-mny
		}
		rasterxGradient := toRasterxGradient(fillerColor)
		scanner.SetColor(rasterxGradient.GetColorFunction(opacity))
	}
}

func (f filler) SetColor(color svgicon.Pattern, opacity float64) {
	setColorFromPattern(color, opacity, f.Scanner)
}

func (s stroker) SetColor(color svgicon.Pattern, opacity float64) {
	setColorFromPattern(color, opacity, s.Scanner)
}

var (
	joinToJoin = [...]rasterx.JoinMode{
		svgicon.Round:     rasterx.Round,
		svgicon.Bevel:     rasterx.Bevel,
		svgicon.Miter:     rasterx.Miter,
		svgicon.MiterClip: rasterx.MiterClip,
		svgicon.Arc:       rasterx.Arc,
		svgicon.ArcClip:   rasterx.ArcClip,
	}

	capToFunc = [...]rasterx.CapFunc{
		svgicon.ButtCap:      rasterx.ButtCap,
		svgicon.SquareCap:    rasterx.SquareCap,
		svgicon.RoundCap:     rasterx.RoundCap,
		svgicon.CubicCap:     rasterx.CubicCap,
		svgicon.QuadraticCap: rasterx.QuadraticCap,
	}

	gapToFunc = [...]rasterx.GapFunc{
		svgicon.FlatGap:      rasterx.FlatGap,
		svgicon.RoundGap:     rasterx.RoundGap,
		svgicon.CubicGap:     rasterx.CubicGap,
		svgicon.QuadraticGap: rasterx.QuadraticGap,
	}
)

func (s stroker) SetStrokeOptions(options svgicon.StrokeOptions) {
	s.SetStroke(
		options.LineWidth, options.Join.MiterLimit, capToFunc[options.Join.LeadLineCap],
		capToFunc[options.Join.TrailLineCap], gapToFunc[options.Join.LineGap],
		joinToJoin[options.Join.LineJoin], options.Dash.Dash, options.Dash.DashOffset,
	)
}
