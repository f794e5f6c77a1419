package svgicon

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/benoitkugler/svgedit/svgdom"
	"github.com/benoitkugler/svgedit/svgpath"
)

func init() {
	// avoids cyclical static declaration
	drawFuncs["use"] = useF
	drawFuncs["g"] = gF
	drawFuncs["a"] = gF
	drawFuncs["switch"] = gF
	drawFuncs["svg"] = svgF
}

type svgFunc func(c *iconCursor, e *etree.Element) error

var drawFuncs = map[string]svgFunc{
	"line":     lineF,
	"rect":     rectF,
	"circle":   circleF,
	"ellipse":  circleF, // circleF handles ellipse also
	"polyline": polylineF,
	"polygon":  polygonF,
	"path":     pathF,
	"image":    imageF,
	"desc":     descF,
	"title":    titleF,
}

// lengths reads the given attributes, stopping at the first error.
func (c *iconCursor) lengths(e *etree.Element, attrs ...string) ([]float64, error) {
	out := make([]float64, len(attrs))
	for i, attr := range attrs {
		v, err := c.length(e, attr)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// viewBoxTransform maps the viewBox of e on a w x h viewport,
// honoring preserveAspectRatio="none" and centering otherwise.
func viewBoxTransform(e *etree.Element, w, h float64) (Matrix2D, bool) {
	v, ok := svgdom.Attr(e, "viewBox")
	if !ok {
		return Identity, false
	}
	vb, err := svgpath.ParseNumbers(v)
	if err != nil || len(vb) != 4 || vb[2] <= 0 || vb[3] <= 0 || w <= 0 || h <= 0 {
		return Identity, false
	}
	sx, sy := w/vb[2], h/vb[3]
	if strings.TrimSpace(e.SelectAttrValue("preserveAspectRatio", "")) == "none" {
		return Identity.Scale(sx, sy).Translate(-vb[0], -vb[1]), true
	}
	s := min(sx, sy)
	tx, ty := (w-vb[2]*s)/2, (h-vb[3]*s)/2
	return Identity.Translate(tx, ty).Scale(s, s).Translate(-vb[0], -vb[1]), true
}

// g, a and switch do nothing but push the style
func gF(c *iconCursor, e *etree.Element) error { return c.readChildren(e) }

// svgF reads a nested viewport
func svgF(c *iconCursor, e *etree.Element) error {
	vals, err := c.lengths(e, "x", "y", "width", "height")
	if err != nil {
		return err
	}
	w, h := vals[2], vals[3]
	if _, ok := svgdom.Attr(e, "width"); !ok {
		w = c.icon.ViewBox.W
	}
	if _, ok := svgdom.Attr(e, "height"); !ok {
		h = c.icon.ViewBox.H
	}
	style := c.top()
	style.transform = style.transform.Translate(vals[0], vals[1])
	if m, ok := viewBoxTransform(e, w, h); ok {
		style.transform = style.transform.Mult(m)
	}
	return c.readChildren(e)
}

func rectF(c *iconCursor, e *etree.Element) error {
	vals, err := c.lengths(e, "x", "y", "width", "height", "rx", "ry")
	if err != nil {
		return err
	}
	x, y, w, h, rx, ry := vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]
	if w <= 0 || h <= 0 {
		return nil
	}
	_, hasRx := svgdom.Attr(e, "rx")
	_, hasRy := svgdom.Attr(e, "ry")
	if hasRx && !hasRy {
		ry = rx
	} else if hasRy && !hasRx {
		rx = ry
	}
	c.path.AddRoundRect(x, y, w+x, h+y, rx, ry, 0)
	return nil
}

func circleF(c *iconCursor, e *etree.Element) error {
	vals, err := c.lengths(e, "cx", "cy", "r", "rx", "ry")
	if err != nil {
		return err
	}
	cx, cy, rx, ry := vals[0], vals[1], vals[3], vals[4]
	if e.Tag == "circle" {
		rx, ry = vals[2], vals[2]
	}
	if rx <= 0 || ry <= 0 { // not drawn, but not an error
		return nil
	}
	c.path.AddEllipse(cx, cy, rx, ry)
	return nil
}

func lineF(c *iconCursor, e *etree.Element) error {
	vals, err := c.lengths(e, "x1", "y1", "x2", "y2")
	if err != nil {
		return err
	}
	c.path.Start(svgpath.ToFixedP(vals[0], vals[1]))
	c.path.Line(svgpath.ToFixedP(vals[2], vals[3]))
	return nil
}

func (c *iconCursor) readPoints(e *etree.Element) ([]float64, error) {
	points, err := svgpath.ParseNumbers(e.SelectAttrValue("points", ""))
	if err != nil {
		return nil, err
	}
	if len(points)%2 != 0 {
		return nil, errors.New("svgicon: polygon has odd number of points")
	}
	return points, nil
}

func polylineF(c *iconCursor, e *etree.Element) error {
	points, err := c.readPoints(e)
	if err != nil {
		return err
	}
	if len(points) < 4 {
		return nil
	}
	c.path.Start(svgpath.ToFixedP(points[0], points[1]))
	for i := 2; i < len(points)-1; i += 2 {
		c.path.Line(svgpath.ToFixedP(points[i], points[i+1]))
	}
	return nil
}

func polygonF(c *iconCursor, e *etree.Element) error {
	if err := polylineF(c, e); err != nil {
		return err
	}
	if len(c.path) > 0 {
		c.path.Stop(true)
	}
	return nil
}

func pathF(c *iconCursor, e *etree.Element) error {
	d := e.SelectAttrValue("d", "")
	if strings.TrimSpace(d) == "" {
		return nil
	}
	segs, err := svgpath.ParsePathData(d)
	if err != nil {
		return err
	}
	c.path = append(c.path, segs.ToPath()...)
	return nil
}

func imageF(c *iconCursor, e *etree.Element) error {
	href := svgdom.Href(e)
	if href == "" {
		return nil
	}
	vals, err := c.lengths(e, "x", "y", "width", "height")
	if err != nil {
		return err
	}
	style := c.top()
	if vals[2] <= 0 || vals[3] <= 0 || style.invisible {
		return nil
	}
	c.icon.Images = append(c.icon.Images, SvgImage{
		Href:      href,
		Rect:      Bounds{vals[0], vals[1], vals[2], vals[3]},
		Opacity:   style.Opacity,
		transform: style.transform,
		before:    len(c.icon.SVGPaths),
	})
	return nil
}

func descF(c *iconCursor, e *etree.Element) error {
	c.icon.Descriptions = append(c.icon.Descriptions, svgdom.TextContent(e))
	return nil
}

func titleF(c *iconCursor, e *etree.Element) error {
	c.icon.Titles = append(c.icon.Titles, svgdom.TextContent(e))
	return nil
}

func useF(c *iconCursor, e *etree.Element) error {
	id, ok := svgdom.HrefRef(e)
	if !ok {
		return errors.New("svgicon: only local <use> references are supported")
	}
	ref := c.ids[id]
	if ref == nil {
		return fmt.Errorf("svgicon: <use> reference #%s not found", id)
	}
	if c.using[ref] {
		return fmt.Errorf("%w: #%s", errUseCycle, id)
	}
	c.using[ref] = true
	defer delete(c.using, ref)

	vals, err := c.lengths(e, "x", "y", "width", "height")
	if err != nil {
		return err
	}
	style := c.top()
	style.transform = style.transform.Translate(vals[0], vals[1])

	switch ref.Tag {
	case "symbol", "svg":
		if err := c.pushStyle(ref); err != nil {
			return err
		}
		defer c.popStyle()
		w, h := vals[2], vals[3]
		if w == 0 {
			w, _ = c.length(ref, "width")
		}
		if h == 0 {
			h, _ = c.length(ref, "height")
		}
		if m, ok := viewBoxTransform(ref, w, h); ok {
			c.top().transform = c.top().transform.Mult(m)
		}
		return c.readChildren(ref)
	default:
		return c.readElement(ref)
	}
}

// gradient resolves the gradient with the given id, following
// the href chain for the attributes and stops not given.
// It returns nil if id is not a gradient.
func (c *iconCursor) gradient(id string) *Gradient {
	if g, ok := c.grads[id]; ok {
		return g
	}
	var chain []*etree.Element
	seen := map[*etree.Element]bool{}
	for e := c.ids[id]; e != nil && !seen[e]; {
		if e.Tag != "linearGradient" && e.Tag != "radialGradient" {
			break
		}
		seen[e] = true
		chain = append(chain, e)
		ref, ok := svgdom.HrefRef(e)
		if !ok {
			break
		}
		e = c.ids[ref]
	}
	if len(chain) == 0 {
		c.grads[id] = nil
		return nil
	}
	attr := func(name string) (string, bool) {
		for _, e := range chain {
			if v, ok := svgdom.Attr(e, name); ok {
				return v, true
			}
		}
		return "", false
	}

	grad := &Gradient{Bounds: c.icon.ViewBox, Matrix: Identity}
	if v, _ := attr("gradientUnits"); strings.TrimSpace(v) == "userSpaceOnUse" {
		grad.Units = UserSpaceOnUse
	}
	switch v, _ := attr("spreadMethod"); strings.TrimSpace(v) {
	case "reflect":
		grad.Spread = ReflectSpread
	case "repeat":
		grad.Spread = RepeatSpread
	}
	if v, ok := attr("gradientTransform"); ok {
		if m, err := svgpath.ParseTransform(Identity, v); err == nil {
			grad.Matrix = m
		}
	}
	coord := func(name string, def float64) float64 {
		v, ok := attr(name)
		if !ok {
			return def
		}
		if grad.Units == UserSpaceOnUse {
			if f, err := svgpath.ConvertToNum(name, v, c.icon.ViewBox.W, c.icon.ViewBox.H); err == nil {
				return f
			}
			return def
		}
		v = strings.TrimSpace(v)
		if strings.HasSuffix(v, "%") {
			f, err := parseFloat(strings.TrimSuffix(v, "%"))
			if err != nil {
				return def
			}
			return f / 100
		}
		if f, err := parseFloat(v); err == nil {
			return f
		}
		return def
	}

	// the kind is given by the first element of the chain
	if chain[0].Tag == "linearGradient" {
		x2 := 1.
		if grad.Units == UserSpaceOnUse {
			x2 = c.icon.ViewBox.W
		}
		grad.Direction = Linear{coord("x1", 0), coord("y1", 0), coord("x2", x2), coord("y2", 0)}
	} else {
		cx, cy, r := 0.5, 0.5, 0.5
		if grad.Units == UserSpaceOnUse {
			cx, cy, r = c.icon.ViewBox.W/2, c.icon.ViewBox.H/2, c.icon.ViewBox.W/2
		}
		cx, cy = coord("cx", cx), coord("cy", cy)
		grad.Direction = Radial{cx, cy, coord("fx", cx), coord("fy", cy), coord("r", r), coord("fr", 0)}
	}

	for _, e := range chain {
		stops := e.SelectElements("stop")
		if len(stops) == 0 {
			continue
		}
		for _, s := range stops {
			grad.Stops = append(grad.Stops, c.readStop(s))
		}
		break
	}
	c.grads[id] = grad
	return grad
}

func (c *iconCursor) readStop(e *etree.Element) GradStop {
	stop := GradStop{Opacity: 1.0, StopColor: DefaultStyle.current.NRGBA}
	for _, d := range declarations(e) {
		switch d.name {
		case "offset":
			if f, err := readFraction(d.value); err == nil {
				stop.Offset = f
			}
		case "stop-color":
			if col, err := parseSVGColor(d.value, c.top().current.NRGBA); err == nil {
				stop.StopColor = col.asColor()
			}
		case "stop-opacity":
			if f, err := readFraction(d.value); err == nil {
				stop.Opacity = f
			}
		}
	}
	return stop
}
