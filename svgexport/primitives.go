package svgexport

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/benoitkugler/svgedit/imagecache"
	"github.com/benoitkugler/svgedit/svgdom"
	"github.com/benoitkugler/svgedit/svgpath"
	"github.com/benoitkugler/svgedit/svgpdf"
)

// primitive is an element kind the PDF export may draw as vectors.
type primitive uint8

const (
	primRect primitive = iota + 1
	primCircle
	primEllipse
	primLine
	primPolyline
	primPolygon
	primText
	primImage
	primPath
)

var primitives = map[string]primitive{
	"rect":     primRect,
	"circle":   primCircle,
	"ellipse":  primEllipse,
	"line":     primLine,
	"polyline": primPolyline,
	"polygon":  primPolygon,
	"text":     primText,
	"image":    primImage,
	"path":     primPath,
}

// elements walked through
var containers = map[string]bool{"g": true, "a": true, "switch": true}

// elements not drawn by themselves
var nonRendered = map[string]bool{
	"defs": true, "title": true, "desc": true, "metadata": true, "symbol": true,
	"clipPath": true, "mask": true, "marker": true, "pattern": true, "filter": true,
	"style": true, "script": true, "linearGradient": true, "radialGradient": true,
}

// paint is the inherited presentation state
type paint struct {
	fill, stroke string
	strokeWidth  float64
	fillRule     string
	opacity      float64
	fontSize     float64
	fontFamily   string
	fontWeight   string
	fontStyle    string
	display      string
}

func defaultPaint() paint {
	return paint{fill: "black", stroke: "none", strokeWidth: 1, opacity: 1, fontSize: 12}
}

// properties returns the presentation attributes of e overridden
// by its inline style.
func properties(e *etree.Element) map[string]string {
	out := make(map[string]string)
	for _, a := range e.Attr {
		if a.Space == "" && a.Key != "style" {
			out[a.Key] = strings.TrimSpace(a.Value)
		}
	}
	if style := e.SelectAttrValue("style", ""); strings.TrimSpace(style) != "" {
		if decls, err := svgdom.ParseStyle(style); err == nil {
			for _, d := range decls {
				out[d.Property] = d.Value
			}
		}
	}
	return out
}

func (p paint) with(e *etree.Element) paint {
	props := properties(e)
	str := func(name string, dst *string) {
		if v, ok := props[name]; ok && v != "" && v != "inherit" {
			*dst = v
		}
	}
	str("fill", &p.fill)
	str("stroke", &p.stroke)
	str("fill-rule", &p.fillRule)
	str("font-family", &p.fontFamily)
	str("font-weight", &p.fontWeight)
	str("font-style", &p.fontStyle)
	p.display = props["display"]
	if v, ok := props["stroke-width"]; ok {
		if f, err := svgpath.ConvertToNum("stroke-width", v, 0, 0); err == nil {
			p.strokeWidth = f
		}
	}
	if v, ok := props["font-size"]; ok {
		if f, err := svgpath.ConvertToNum("font-size", v, 0, 0); err == nil && f > 0 {
			p.fontSize = f
		}
	}
	if v, ok := props["opacity"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			p.opacity *= min(max(f, 0), 1)
		}
	}
	return p
}

func (p paint) style() svgpdf.Style {
	return svgpdf.Style{
		Fill:      ParseColor(p.fill),
		Stroke:    ParseColor(p.stroke),
		LineWidth: p.strokeWidth,
		EvenOdd:   p.fillRule == "evenodd",
		Opacity:   p.opacity,
	}
}

func (p paint) font() svgpdf.Font {
	bold := p.fontWeight == "bold" || p.fontWeight == "bolder"
	if n, err := strconv.Atoi(p.fontWeight); err == nil && n >= 600 {
		bold = true
	}
	return svgpdf.Font{
		Family: p.fontFamily,
		Size:   p.fontSize,
		Bold:   bold,
		Italic: p.fontStyle == "italic" || p.fontStyle == "oblique",
	}
}

// hasTransform reports whether e is drawn with a transform
// other than the identity.
func hasTransform(e *etree.Element) bool {
	v, ok := svgdom.Attr(e, "transform")
	if !ok || strings.TrimSpace(v) == "" {
		return false
	}
	m, err := svgpath.ParseTransform(svgpath.Identity, v)
	return err != nil || !m.IsIdentity()
}

// vectorizer draws primitives on a page of height pageH,
// flipping the SVG coordinates.
type vectorizer struct {
	surface      svgpdf.Surface
	pageW, pageH float64
}

func (v vectorizer) num(e *etree.Element, name string) float64 {
	val, ok := svgdom.Attr(e, name)
	if !ok {
		return 0
	}
	// x and y of text may be lists
	if fields := strings.Fields(strings.ReplaceAll(val, ",", " ")); len(fields) > 1 {
		val = fields[0]
	}
	f, err := svgpath.ConvertToNum(name, val, v.pageW, v.pageH)
	if err != nil {
		return 0
	}
	return f
}

// flip maps SVG user space to PDF user space.
func (v vectorizer) flip() svgpath.Matrix2D {
	return svgpath.Identity.Translate(0, v.pageH).Scale(1, -1)
}

// draw renders e, of the given kind, with the inherited paint p.
func (v vectorizer) draw(kind primitive, e *etree.Element, p paint) error {
	switch kind {
	case primRect:
		return v.rect(e, p)
	case primCircle:
		r := v.num(e, "r")
		if r <= 0 {
			return nil
		}
		v.surface.Ellipse(v.num(e, "cx"), v.pageH-v.num(e, "cy"), r, r, p.style())
	case primEllipse:
		rx, ry := v.num(e, "rx"), v.num(e, "ry")
		if rx <= 0 || ry <= 0 {
			return nil
		}
		v.surface.Ellipse(v.num(e, "cx"), v.pageH-v.num(e, "cy"), rx, ry, p.style())
	case primLine:
		st := p.style()
		st.Fill = nil
		v.surface.Line(v.num(e, "x1"), v.pageH-v.num(e, "y1"), v.num(e, "x2"), v.pageH-v.num(e, "y2"), st)
	case primPolyline, primPolygon:
		return v.poly(e, p, kind == primPolygon)
	case primText:
		v.text(e, p)
	case primImage:
		return v.image(e)
	default:
		return fmt.Errorf("svgexport: <%s> can't be drawn as vectors", e.Tag)
	}
	return nil
}

func (v vectorizer) rect(e *etree.Element, p paint) error {
	x, y, w, h := v.num(e, "x"), v.num(e, "y"), v.num(e, "width"), v.num(e, "height")
	if w <= 0 || h <= 0 {
		return nil
	}
	rx, ry := v.num(e, "rx"), v.num(e, "ry")
	if rx <= 0 && ry <= 0 {
		v.surface.Rect(x, v.pageH-y-h, w, h, p.style())
		return nil
	}
	if rx <= 0 {
		rx = ry
	} else if ry <= 0 {
		ry = rx
	}
	var path svgpath.Path
	path.AddRoundRect(x, y, x+w, y+h, rx, ry, 0)
	v.surface.Path(path.Transform(v.flip()), p.style())
	return nil
}

func (v vectorizer) poly(e *etree.Element, p paint, closed bool) error {
	points, err := svgpath.ParseNumbers(e.SelectAttrValue("points", ""))
	if err != nil {
		return err
	}
	if len(points)%2 != 0 {
		return errors.New("svgexport: odd number of coordinates in points")
	}
	if len(points) < 4 {
		return nil
	}
	var path svgpath.Path
	path.Start(svgpath.ToFixedP(points[0], points[1]))
	for i := 2; i < len(points); i += 2 {
		path.Line(svgpath.ToFixedP(points[i], points[i+1]))
	}
	path.Stop(closed)
	st := p.style()
	if !closed && st.Stroke == nil {
		return nil
	}
	v.surface.Path(path.Transform(v.flip()), st)
	return nil
}

func (v vectorizer) text(e *etree.Element, p paint) {
	content := svgdom.TextContent(e)
	if spans := svgdom.DescendantsByTag(e, "tspan"); len(spans) != 0 {
		lines := make([]string, len(spans))
		for i, span := range spans {
			lines[i] = svgdom.TextContent(span)
		}
		content = strings.Join(lines, "\n")
	}
	if strings.TrimSpace(content) == "" {
		return
	}
	fill := ParseColor(p.fill)
	if fill == nil {
		fill = &black
	}
	font := p.font()
	v.surface.Text(v.num(e, "x"), v.pageH-v.num(e, "y")-font.Size, content, font, *fill)
}

func (v vectorizer) image(e *etree.Element) error {
	x, y, w, h := v.num(e, "x"), v.num(e, "y"), v.num(e, "width"), v.num(e, "height")
	href := svgdom.Href(e)
	if href == "" || w <= 0 || h <= 0 {
		return nil
	}
	if !strings.HasPrefix(href, "data:") {
		return fmt.Errorf("svgexport: image %q is not embedded", href)
	}
	_, data, err := imagecache.ParseDataURI(href)
	if err != nil {
		return err
	}
	return v.surface.Image(data, x, v.pageH-y-h, w, h)
}
