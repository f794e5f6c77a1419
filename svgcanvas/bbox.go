package svgcanvas

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/benoitkugler/svgedit/svgdom"
	"github.com/benoitkugler/svgedit/svgpath"
)

// BBoxer computes the bounding box of an element, in its own user space.
// It returns false when the element is not rendered or has no geometry.
type BBoxer interface {
	BBox(e *etree.Element) (svgpath.Rect, bool)
}

// GeometryBBox computes bounding boxes from the element geometry attributes.
// Text boxes are estimated from the font size.
type GeometryBBox struct{}

var _ BBoxer = GeometryBBox{}

// number resolves the length attribute name of e to user units,
// percentages being relative to the nearest svg viewport.
func number(e *etree.Element, name string) float64 {
	v, ok := svgdom.Attr(e, name)
	if !ok {
		return 0
	}
	var w, h float64
	if strings.HasSuffix(strings.TrimSpace(v), "%") {
		w, h = viewportOf(e)
	}
	f, err := svgpath.ConvertToNum(name, v, w, h)
	if err != nil {
		return 0
	}
	return f
}

// viewportOf returns the size of the closest svg ancestor of e,
// from its viewBox or its width and height.
func viewportOf(e *etree.Element) (w, h float64) {
	for p := e.Parent(); p != nil; p = p.Parent() {
		if p.Tag != "svg" {
			continue
		}
		if vb, err := svgpath.ParseNumbers(p.SelectAttrValue("viewBox", "")); err == nil && len(vb) == 4 {
			return vb[2], vb[3]
		}
		if pw, ok := svgdom.Attr(p, "width"); ok && !strings.HasSuffix(pw, "%") {
			w, _ = svgpath.ConvertToNum("width", pw, 0, 0)
		}
		if ph, ok := svgdom.Attr(p, "height"); ok && !strings.HasSuffix(ph, "%") {
			h, _ = svgpath.ConvertToNum("height", ph, 0, 0)
		}
		return w, h
	}
	return 0, 0
}

// transformOf returns the matrix of the `transform` attribute of e.
func transformOf(e *etree.Element) svgpath.Matrix2D {
	v, ok := svgdom.Attr(e, "transform")
	if !ok {
		return svgpath.Identity
	}
	m, err := svgpath.ParseTransform(svgpath.Identity, v)
	if err != nil {
		return svgpath.Identity
	}
	return m
}

func pointsBounds(v string) (svgpath.Rect, bool) {
	nums, err := svgpath.ParseNumbers(v)
	if err != nil || len(nums) < 2 {
		return svgpath.Rect{}, false
	}
	var p svgpath.Path
	p.Start(svgpath.ToFixedP(nums[0], nums[1]))
	for i := 2; i+1 < len(nums); i += 2 {
		p.Line(svgpath.ToFixedP(nums[i], nums[i+1]))
	}
	if len(nums) == 2 {
		return svgpath.Rect{X: nums[0], Y: nums[1]}, true
	}
	return p.Bounds()
}

func (g GeometryBBox) BBox(e *etree.Element) (svgpath.Rect, bool) {
	if svgdom.Closest(e, "defs") != nil || svgdom.Closest(e, "symbol") != nil {
		return svgpath.Rect{}, false
	}
	return g.bbox(e)
}

func (g GeometryBBox) bbox(e *etree.Element) (svgpath.Rect, bool) {
	switch e.Tag {
	case "rect", "image", "use", "foreignObject", "svg":
		return svgpath.Rect{X: number(e, "x"), Y: number(e, "y"), W: number(e, "width"), H: number(e, "height")}, true
	case "circle":
		r := number(e, "r")
		return svgpath.Rect{X: number(e, "cx") - r, Y: number(e, "cy") - r, W: 2 * r, H: 2 * r}, true
	case "ellipse":
		rx, ry := number(e, "rx"), number(e, "ry")
		return svgpath.Rect{X: number(e, "cx") - rx, Y: number(e, "cy") - ry, W: 2 * rx, H: 2 * ry}, true
	case "line":
		x1, y1, x2, y2 := number(e, "x1"), number(e, "y1"), number(e, "x2"), number(e, "y2")
		return svgpath.Rect{X: min(x1, x2), Y: min(y1, y2), W: max(x1, x2) - min(x1, x2), H: max(y1, y2) - min(y1, y2)}, true
	case "polyline", "polygon":
		return pointsBounds(e.SelectAttrValue("points", ""))
	case "path":
		segs, err := svgpath.ParsePathData(e.SelectAttrValue("d", ""))
		if err != nil || len(segs) == 0 {
			return svgpath.Rect{}, false
		}
		return segs.ToPath().Bounds()
	case "text":
		size := number(e, "font-size")
		if size == 0 {
			size = 16
		}
		n := len([]rune(strings.TrimSpace(svgdom.TextContent(e))))
		return svgpath.Rect{X: number(e, "x"), Y: number(e, "y") - size, W: 0.6 * size * float64(n), H: size}, true
	case "g", "a", "switch":
		var (
			out   svgpath.Rect
			found bool
		)
		for _, child := range e.ChildElements() {
			if !svgdom.VisibleElements[child.Tag] {
				continue
			}
			r, ok := g.bbox(child)
			if !ok {
				continue
			}
			r = r.Transform(transformOf(child))
			if found {
				out = out.Union(r)
			} else {
				out, found = r, true
			}
		}
		return out, found
	}
	return svgpath.Rect{}, false
}

// strokedBBox returns the union of the boxes of elems, enlarged by half
// their stroke width and mapped by their transforms.
func strokedBBox(b BBoxer, elems []*etree.Element) (svgpath.Rect, bool) {
	var (
		out   svgpath.Rect
		found bool
	)
	for _, e := range elems {
		r, ok := b.BBox(e)
		if !ok {
			continue
		}
		if stroke, _ := svgdom.Attr(e, "stroke"); stroke != "" && stroke != "none" {
			w := 1.
			if _, ok := svgdom.Attr(e, "stroke-width"); ok {
				w = number(e, "stroke-width")
			}
			r = r.Outset(w / 2)
		}
		r = r.Transform(transformOf(e))
		if found {
			out = out.Union(r)
		} else {
			out, found = r, true
		}
	}
	return out, found
}

// visibleBBox returns the stroked box of the visible top level
// content of the layers of root.
func visibleBBox(b BBoxer, root *etree.Element) (svgpath.Rect, bool) {
	var elems []*etree.Element
	for _, layer := range root.ChildElements() {
		if layer.SelectAttrValue("display", "") == "none" {
			continue
		}
		for _, e := range layer.ChildElements() {
			if svgdom.VisibleElements[e.Tag] && e.SelectAttrValue("display", "") != "none" {
				elems = append(elems, e)
			}
		}
	}
	return strokedBBox(b, elems)
}
