package svgcanvas

import (
	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/benoitkugler/svgedit/svgdom"
	"github.com/benoitkugler/svgedit/svgpath"
)

// paintConsumers returns the elements under scope painted with `url(#id)`.
func paintConsumers(scope *etree.Element, id string) []*etree.Element {
	ref := svgdom.URL(id)
	return svgdom.Descendants(scope, func(e *etree.Element) bool {
		fill, _ := svgdom.Attr(e, "fill")
		stroke, _ := svgdom.Attr(e, "stroke")
		return fill == ref || stroke == ref
	})
}

func isUserSpaceGradient(e *etree.Element) bool {
	return (e.Tag == "linearGradient" || e.Tag == "radialGradient") &&
		e.SelectAttrValue("gradientUnits", "") == "userSpaceOnUse"
}

// gradientConsumers returns the elements painted by grad, following one
// level of href chaining when grad is only used as a template.
func gradientConsumers(scope, grad *etree.Element) []*etree.Element {
	id := grad.SelectAttrValue("id", "")
	if id == "" {
		return nil
	}
	if consumers := paintConsumers(scope, id); len(consumers) > 0 {
		return consumers
	}
	hreffers := svgdom.Descendants(scope, func(e *etree.Element) bool { return svgdom.Href(e) == "#"+id })
	if len(hreffers) == 0 || !isUserSpaceGradient(hreffers[0]) {
		return nil
	}
	chained := hreffers[0].SelectAttrValue("id", "")
	if chained == "" {
		return nil
	}
	return paintConsumers(scope, chained)
}

// viewportSize returns the nominal size of the document rooted at root.
func (c *Canvas) viewportSize(root *etree.Element) (w, h float64) {
	if vb, ok := svgdom.Attr(root, "viewBox"); ok {
		if nums, err := svgpath.ParseNumbers(vb); err == nil && len(nums) == 4 && nums[2] > 0 && nums[3] > 0 {
			return nums[2], nums[3]
		}
	}
	w, h = c.cfg.Dimensions[0], c.cfg.Dimensions[1]
	if v, ok := svgdom.Attr(root, "width"); ok {
		if f, err := svgpath.ConvertToNum("width", v, w, h); err == nil && f > 0 {
			w = f
		}
	}
	if v, ok := svgdom.Attr(root, "height"); ok {
		if f, err := svgpath.ConvertToNum("height", v, w, h); err == nil && f > 0 {
			h = f
		}
	}
	return w, h
}

// convertGradients rewrites the userSpaceOnUse linear gradients under elem
// with exactly one consumer in scope, to coordinates relative to the
// bounding box of that consumer.
func (c *Canvas) convertGradients(scope, elem *etree.Element) {
	vw, vh := c.viewportSize(scope)
	grads := svgdom.DescendantsByTag(elem, "linearGradient", "radialGradient")
	for _, grad := range grads {
		if grad.SelectAttrValue("gradientUnits", "") != "userSpaceOnUse" {
			continue
		}
		consumers := gradientConsumers(scope, grad)
		if len(consumers) != 1 {
			continue
		}
		bb, ok := c.bbox.BBox(consumers[0])
		if !ok {
			continue
		}
		if grad.Tag != "linearGradient" {
			// radial gradients are kept in user space
			continue
		}
		// a flat box falls back on the viewport extent
		if bb.W == 0 {
			bb.W = vw
		}
		if bb.H == 0 {
			bb.H = vh
		}

		coord := func(name string) float64 {
			v, ok := svgdom.Attr(grad, name)
			if !ok {
				if name == "x2" {
					return vw
				}
				return 0
			}
			f, _ := svgpath.ConvertToNum(name, v, vw, vh)
			return f
		}
		x1, y1, x2, y2 := coord("x1"), coord("y1"), coord("x2"), coord("y2")
		if tr, ok := svgdom.Attr(grad, "gradientTransform"); ok {
			if m, err := svgpath.ParseTransform(svgpath.Identity, tr); err == nil {
				x1, y1 = m.Transform(x1, y1)
				x2, y2 = m.Transform(x2, y2)
			} else {
				c.log.Warn("invalid gradient transform", zap.String("transform", tr), zap.Error(err))
			}
			grad.RemoveAttr("gradientTransform")
		}
		digits := c.cfg.RoundDigits
		grad.CreateAttr("x1", svgpath.ShortFloat((x1-bb.X)/bb.W, digits))
		grad.CreateAttr("y1", svgpath.ShortFloat((y1-bb.Y)/bb.H, digits))
		grad.CreateAttr("x2", svgpath.ShortFloat((x2-bb.X)/bb.W, digits))
		grad.CreateAttr("y2", svgpath.ShortFloat((y2-bb.Y)/bb.H, digits))
		grad.RemoveAttr("gradientUnits")
	}
}

// ConvertGradients converts the gradients under elem to bounding box
// units. Gradients already in bounding box units are not modified.
func (c *Canvas) ConvertGradients(elem *etree.Element) {
	c.convertGradients(c.content, elem)
}
