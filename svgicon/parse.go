package svgicon

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/image/math/fixed"

	"github.com/benoitkugler/svgedit/svgdom"
	"github.com/benoitkugler/svgedit/svgpath"
)

// iconCursor is used while parsing SVG documents
type iconCursor struct {
	icon       *SvgIcon
	log        *zap.Logger
	errorMode  ErrorMode
	styleStack []PathStyle
	path       Path

	ids   map[string]*etree.Element
	grads map[string]*Gradient
	// elements being instantiated by a <use>
	using map[*etree.Element]bool
}

func fToFixed(f float64) fixed.Int26_6 { return fixed.Int26_6(f * 64) }

// DefaultStyle sets the default PathStyle to fill black, winding rule,
// full opacity, no stroke, ButtCap line end and Miter line connect.
var DefaultStyle = PathStyle{
	Opacity:           1.0,
	FillOpacity:       1.0,
	LineOpacity:       1.0,
	LineWidth:         1.0,
	UseNonZeroWinding: true,
	Join: JoinOptions{
		MiterLimit:   fToFixed(4),
		LineJoin:     Miter,
		TrailLineCap: ButtCap,
		LineGap:      FlatGap,
	},
	FillerColor: NewPlainColor(0x00, 0x00, 0x00, 0xff),
	transform:   Identity,
	current:     NewPlainColor(0x00, 0x00, 0x00, 0xff),
}

func newCursor(icon *SvgIcon, root *etree.Element, errMode ErrorMode) *iconCursor {
	c := &iconCursor{
		icon:       icon,
		log:        zap.NewNop(),
		errorMode:  errMode,
		styleStack: []PathStyle{DefaultStyle},
		ids:        make(map[string]*etree.Element),
		grads:      make(map[string]*Gradient),
		using:      make(map[*etree.Element]bool),
	}
	svgdom.Walk(root, func(e *etree.Element) bool {
		if id, _ := svgdom.Attr(e, "id"); id != "" {
			c.ids[id] = e
		}
		return true
	})
	return c
}

func (c *iconCursor) top() *PathStyle { return &c.styleStack[len(c.styleStack)-1] }

func (c *iconCursor) popStyle() { c.styleStack = c.styleStack[:len(c.styleStack)-1] }

// handle applies the error mode to a recoverable error.
func (c *iconCursor) handle(err error) error {
	if err == nil {
		return nil
	}
	switch c.errorMode {
	case StrictErrorMode:
		return err
	case WarnErrorMode:
		c.log.Warn("skipping invalid svg content", zap.Error(err))
	}
	return nil
}

func (c *iconCursor) unsupported(tag string) error {
	c.icon.Unsupported[tag]++
	return c.handle(fmt.Errorf("%w: <%s>", ErrUnsupportedElement, tag))
}

// length resolves a length attribute against the icon viewport.
func (c *iconCursor) length(e *etree.Element, attr string) (float64, error) {
	v, ok := svgdom.Attr(e, attr)
	if !ok || strings.TrimSpace(v) == "" {
		return 0, nil
	}
	f, err := svgpath.ConvertToNum(attr, v, c.icon.ViewBox.W, c.icon.ViewBox.H)
	if err != nil {
		return 0, fmt.Errorf("svgicon: attribute %s of <%s>: %w", attr, e.Tag, err)
	}
	return f, nil
}

func parseFloat(v string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(v), 64)
}

// readFraction parses a number or a percentage, clamped to [0, 1].
func readFraction(v string) (f float64, err error) {
	v = strings.TrimSpace(v)
	d := 1.0
	if strings.HasSuffix(v, "%") {
		d = 100
		v = strings.TrimSuffix(v, "%")
	}
	f, err = parseFloat(v)
	f /= d
	return max(0, min(1, f)), err
}

// declaration is a style property, given as attribute or in
// the inline style
type declaration struct{ name, value string }

// declarations returns the presentation attributes of e followed by its
// inline style declarations, which take precedence.
func declarations(e *etree.Element) []declaration {
	var out []declaration
	style := ""
	for _, a := range e.Attr {
		if a.Space != "" {
			continue
		}
		if a.Key == "style" {
			style = a.Value
			continue
		}
		out = append(out, declaration{a.Key, a.Value})
	}
	if strings.TrimSpace(style) == "" {
		return out
	}
	decls, err := svgdom.ParseStyle(style)
	if err != nil {
		for _, pair := range strings.Split(style, ";") {
			if k, v, ok := strings.Cut(pair, ":"); ok {
				out = append(out, declaration{strings.ToLower(strings.TrimSpace(k)), strings.TrimSpace(v)})
			}
		}
		return out
	}
	for _, d := range decls {
		out = append(out, declaration{d.Property, d.Value})
	}
	return out
}

func (c *iconCursor) readPaint(v string) (Pattern, error) {
	if id, ok := svgdom.URLRef(v); ok {
		if grad := c.gradient(id); grad != nil {
			return *grad, nil
		}
		// fallback paint, or none
		_, fallback, _ := strings.Cut(v, ")")
		if strings.TrimSpace(fallback) == "" {
			return nil, nil
		}
		v = fallback
	}
	col, err := parseSVGColor(v, c.top().current.NRGBA)
	return col.asPattern(), err
}

var (
	capModes = map[string]CapMode{
		"butt": ButtCap, "round": RoundCap, "square": SquareCap,
		"cubic": CubicCap, "quadratic": QuadraticCap,
	}
	joinModes = map[string]JoinMode{
		"miter": Miter, "miter-clip": MiterClip, "arc-clip": ArcClip,
		"round": Round, "arc": Arc, "bevel": Bevel,
	}
	gapModes = map[string]GapMode{
		"flat": FlatGap, "round": RoundGap, "cubic": CubicGap, "quadratic": QuadraticGap,
	}
)

func (c *iconCursor) readStyleAttr(curStyle *PathStyle, k, v string) error {
	switch k {
	case "fill":
		p, err := c.readPaint(v)
		if err != nil {
			return err
		}
		curStyle.FillerColor = p
	case "stroke":
		p, err := c.readPaint(v)
		if err != nil {
			return err
		}
		curStyle.LinerColor = p
	case "color":
		col, err := parseSVGColor(v, curStyle.current.NRGBA)
		if err != nil {
			return err
		}
		if col.valid {
			curStyle.current = PlainColor{col.color}
		}
	case "display":
		if v == "none" {
			curStyle.hidden = true
		}
	case "visibility":
		curStyle.invisible = v == "hidden" || v == "collapse"
	case "fill-rule":
		curStyle.UseNonZeroWinding = v != "evenodd"
	case "stroke-linegap":
		if g, ok := gapModes[v]; ok {
			curStyle.Join.LineGap = g
		}
	case "stroke-leadlinecap":
		if cp, ok := capModes[v]; ok {
			curStyle.Join.LeadLineCap = cp
		}
	case "stroke-linecap":
		if cp, ok := capModes[v]; ok {
			curStyle.Join.TrailLineCap = cp
		}
	case "stroke-linejoin":
		if j, ok := joinModes[v]; ok {
			curStyle.Join.LineJoin = j
		}
	case "stroke-miterlimit":
		mLimit, err := parseFloat(v)
		if err != nil {
			return err
		}
		curStyle.Join.MiterLimit = fToFixed(mLimit)
	case "stroke-width":
		width, err := svgpath.ConvertToNum(k, v, c.icon.ViewBox.W, c.icon.ViewBox.H)
		if err != nil {
			return err
		}
		curStyle.LineWidth = width
	case "stroke-dashoffset":
		dashOffset, err := parseFloat(v)
		if err != nil {
			return err
		}
		curStyle.Dash.DashOffset = dashOffset
	case "stroke-dasharray":
		if v == "none" {
			curStyle.Dash.Dash = nil
			break
		}
		dList, err := svgpath.ParseNumbers(v)
		if err != nil {
			return err
		}
		if len(dList)%2 == 1 {
			dList = append(dList, dList...)
		}
		curStyle.Dash.Dash = dList
	case "opacity":
		op, err := readFraction(v)
		if err != nil {
			return err
		}
		curStyle.Opacity *= op
	case "fill-opacity":
		op, err := readFraction(v)
		if err != nil {
			return err
		}
		curStyle.FillOpacity = op
	case "stroke-opacity":
		op, err := readFraction(v)
		if err != nil {
			return err
		}
		curStyle.LineOpacity = op
	case "transform":
		m, err := svgpath.ParseTransform(curStyle.transform, v)
		if err != nil {
			return err
		}
		curStyle.transform = m
	}
	return nil
}

// pushStyle reads the presentation attributes and the inline style
// of e, and push the resulting style on the style stack.
// `color` is read first so that `currentColor` resolves to the element value.
func (c *iconCursor) pushStyle(e *etree.Element) error {
	curStyle := *c.top()
	decls := declarations(e)
	for _, d := range decls {
		if d.name == "color" {
			if err := c.handle(c.readStyleAttr(&curStyle, d.name, d.value)); err != nil {
				return err
			}
		}
	}
	// the top of the stack is read by readPaint
	c.styleStack = append(c.styleStack, curStyle)
	top := c.top()
	for _, d := range decls {
		if d.name == "color" {
			continue
		}
		if err := c.readStyleAttr(top, d.name, d.value); err != nil {
			if err = c.handle(fmt.Errorf("svgicon: property %s=%q of <%s>: %w", d.name, d.value, e.Tag, err)); err != nil {
				return err
			}
		}
	}
	return nil
}

// flushPath stores the path built by the last element.
func (c *iconCursor) flushPath() {
	if len(c.path) == 0 {
		return
	}
	if style := c.top(); !style.invisible {
		pathCopy := append(Path{}, c.path...)
		c.icon.SVGPaths = append(c.icon.SVGPaths, SvgPath{Path: pathCopy, Style: *style})
	}
	c.path = c.path[:0]
}

// elements not painted where they appear
var skippedElements = map[string]bool{
	"defs": true, "linearGradient": true, "radialGradient": true, "symbol": true,
	"clipPath": true, "mask": true, "marker": true, "pattern": true, "filter": true,
	"style": true, "script": true, "metadata": true, "stop": true,
}

func (c *iconCursor) readElement(e *etree.Element) error {
	if svgdom.ElementNS(e) != svgdom.NSSVG || skippedElements[e.Tag] {
		return nil
	}
	if err := c.pushStyle(e); err != nil {
		return err
	}
	defer c.popStyle()
	if c.top().hidden {
		return nil
	}
	df, ok := drawFuncs[e.Tag]
	if !ok {
		return c.unsupported(e.Tag)
	}
	if err := df(c, e); err != nil {
		c.path = c.path[:0]
		return c.handle(err)
	}
	c.flushPath()
	return nil
}

func (c *iconCursor) readChildren(e *etree.Element) error {
	for _, child := range e.ChildElements() {
		if err := c.readElement(child); err != nil {
			return err
		}
	}
	return nil
}

// readRoot reads the outermost <svg>, setting up the icon viewport.
func (c *iconCursor) readRoot(root *etree.Element) error {
	c.icon.Width = root.SelectAttrValue("width", "")
	c.icon.Height = root.SelectAttrValue("height", "")
	var width, height float64
	if c.icon.Width != "" {
		width, _ = svgpath.ConvertToNum("width", c.icon.Width, 0, 0)
	}
	if c.icon.Height != "" {
		height, _ = svgpath.ConvertToNum("height", c.icon.Height, 0, 0)
	}
	if vb, ok := svgdom.Attr(root, "viewBox"); ok {
		nums, err := svgpath.ParseNumbers(vb)
		if err == nil && len(nums) != 4 {
			err = errParamMismatch
		}
		if err != nil {
			if err = c.handle(fmt.Errorf("svgicon: viewBox %q: %w", vb, err)); err != nil {
				return err
			}
		} else {
			c.icon.ViewBox = Bounds{nums[0], nums[1], nums[2], nums[3]}
		}
	}
	if c.icon.ViewBox.W == 0 {
		c.icon.ViewBox.W = width
	}
	if c.icon.ViewBox.H == 0 {
		c.icon.ViewBox.H = height
	}

	if err := c.pushStyle(root); err != nil {
		return err
	}
	defer c.popStyle()
	if c.top().hidden {
		return nil
	}
	return c.readChildren(root)
}
