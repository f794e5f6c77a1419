package svgcanvas

import (
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/benoitkugler/svgedit/svgdom"
	"github.com/benoitkugler/svgedit/svgpath"
)

// default values stripped before serialization
var cleanupDefaults = [...]struct{ name, value string }{
	{"fill-opacity", "1"},
	{"opacity", "1"},
	{"rx", "0"},
	{"ry", "0"},
	{"stop-opacity", "1"},
	{"stroke", "none"},
	{"stroke-dasharray", "none"},
	{"stroke-linecap", "butt"},
	{"stroke-linejoin", "miter"},
	{"stroke-opacity", "1"},
	{"stroke-width", "1"},
}

// cleanupElement removes the attributes set to their default value.
func cleanupElement(e *etree.Element) {
	for _, d := range cleanupDefaults {
		if e.Tag == "ellipse" && (d.name == "rx" || d.name == "ry") {
			continue
		}
		if v, ok := svgdom.Attr(e, d.name); ok && v == d.value {
			e.RemoveAttr(d.name)
		}
	}
}

// properties which may also be given as presentation attributes
var cssProperties = map[string]bool{
	"clip-path": true, "clip-rule": true, "color": true, "display": true,
	"fill": true, "fill-opacity": true, "fill-rule": true, "filter": true,
	"font-family": true, "font-size": true, "font-style": true, "font-weight": true,
	"letter-spacing": true, "marker-end": true, "marker-mid": true, "marker-start": true,
	"mask": true, "opacity": true, "stop-color": true, "stop-opacity": true,
	"stroke": true, "stroke-dasharray": true, "stroke-dashoffset": true,
	"stroke-linecap": true, "stroke-linejoin": true, "stroke-miterlimit": true,
	"stroke-opacity": true, "stroke-width": true, "text-anchor": true,
	"text-decoration": true, "visibility": true, "word-spacing": true,
}

// restatesStyle reports whether the attribute name is a style property,
// either known or declared in the inline style of e.
func restatesStyle(e *etree.Element, name string) bool {
	if cssProperties[name] {
		return true
	}
	style, ok := svgdom.Attr(e, "style")
	if !ok {
		return false
	}
	decls, err := svgdom.ParseStyle(style)
	if err != nil {
		return false
	}
	for _, d := range decls {
		if d.Property == name {
			return true
		}
	}
	return false
}

// attribute name on output, using the fixed namespace prefixes
func outputName(a *etree.Attr) (string, bool) {
	ns := svgdom.AttrNS(a)
	switch ns {
	case "", svgdom.NSSVG:
		return a.Key, true
	case svgdom.NSXMLNS:
		return a.FullKey(), true
	}
	prefix, ok := svgdom.NSMap[ns]
	if !ok {
		return "", false
	}
	return prefix + ":" + a.Key, true
}

// root attributes written from the canvas state
var rootManagedAttrs = map[string]bool{
	"width": true, "height": true, "xmlns": true, "x": true, "y": true,
	"viewBox": true, "id": true, "overflow": true,
}

// isEmptyDefs reports whether a <defs> has no content worth writing.
func isEmptyDefs(e *etree.Element) bool {
	for _, tok := range e.Child {
		switch tok := tok.(type) {
		case *etree.Element, *etree.Comment:
			return false
		case *etree.CharData:
			if strings.TrimSpace(tok.Data) != "" {
				return false
			}
		}
	}
	return true
}

// SVGCanvasToString returns the current document as canonical SVG text.
// Unused definitions are removed first, the editing modes are left,
// and nested documents are written as <svg> elements.
func (c *Canvas) SVGCanvasToString() string {
	c.pruneDefs()
	c.clearPathEdit()

	var comments []*etree.Comment
	for i, tok := range c.content.Child {
		if com, ok := tok.(*etree.Comment); ok && i > 0 && strings.Contains(com.Data, "Created with") {
			comments = append(comments, com)
		}
	}
	for _, com := range comments {
		c.content.RemoveChild(com)
		c.content.InsertChildAt(0, com)
	}

	if g := c.currentGroup; g != nil {
		c.LeaveContext()
		c.ClearSelection()
		c.AddToSelection(g)
	}

	type unwrapped struct{ wrapper, svg *etree.Element }
	var naked []unwrapped
	for _, g := range svgdom.DescendantsByTag(c.content, "g") {
		svg, ok := c.nestedWrappers[g]
		if !ok || svg.Parent() != g || !svgdom.HasOnlyAttrs(g, "id", "style") {
			continue
		}
		parent := g.Parent()
		parent.InsertChildAt(g.Index(), svg)
		parent.RemoveChild(g)
		naked = append(naked, unwrapped{g, svg})
	}

	out := c.SVGToString(c.content, 0)

	for _, n := range naked {
		parent := n.svg.Parent()
		parent.InsertChildAt(n.svg.Index(), n.wrapper)
		n.wrapper.AddChild(n.svg)
	}
	return out
}

// SVGToString writes elem and its content as SVG text, indented
// by `indent` spaces. The root of the document (with id "svgcontent")
// receives the canvas size and every namespace declaration.
// An empty <defs> is omitted.
func (c *Canvas) SVGToString(elem *etree.Element, indent int) string {
	var sb strings.Builder
	c.writeElement(&sb, elem, indent)
	return sb.String()
}

func (c *Canvas) writeRootAttrs(sb *strings.Builder, elem *etree.Element) {
	if c.cfg.DynamicOutput {
		vb, _ := svgdom.Attr(elem, "viewBox")
		if vb == "" {
			w, h := c.Resolution()
			vb = "0 0 " + svgpath.ShortFloat(w, c.cfg.RoundDigits) + " " + svgpath.ShortFloat(h, c.cfg.RoundDigits)
		}
		sb.WriteString(` viewBox="` + svgdom.ToXML(vb) + `" xmlns="` + svgdom.NSSVG + `"`)
	} else {
		w, h := c.Resolution()
		ws, hs := svgpath.ShortFloat(w, c.cfg.RoundDigits), svgpath.ShortFloat(h, c.cfg.RoundDigits)
		if unit := c.cfg.BaseUnit; unit != "" && unit != "px" {
			ws = svgpath.ConvertUnit(w, unit, c.cfg.RoundDigits) + unit
			hs = svgpath.ConvertUnit(h, unit, c.cfg.RoundDigits) + unit
		}
		sb.WriteString(` width="` + ws + `" height="` + hs + `" xmlns="` + svgdom.NSSVG + `"`)
	}

	declared := make(map[string]bool)
	declare := func(uri string) {
		prefix, ok := svgdom.NSMap[uri]
		if uri == "" || declared[uri] || !ok || prefix == "xmlns" || prefix == "xml" {
			return
		}
		declared[uri] = true
		sb.WriteString(` xmlns:` + prefix + `="` + uri + `"`)
	}
	for _, e := range append(svgdom.Descendants(elem, nil), elem) {
		declare(svgdom.ElementNS(e))
		for i := range e.Attr {
			declare(svgdom.AttrNS(&e.Attr[i]))
		}
	}

	type namedAttr struct{ name, value string }
	var attrs []namedAttr
	for i := range elem.Attr {
		a := &elem.Attr[i]
		if a.Space == "xmlns" || rootManagedAttrs[a.Key] || a.Value == "" {
			continue
		}
		name, ok := outputName(a)
		if !ok {
			continue
		}
		attrs = append(attrs, namedAttr{name, a.Value})
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].name < attrs[j].name })
	for _, a := range attrs {
		sb.WriteString(" " + a.name + `="` + svgdom.ToXML(a.value) + `"`)
	}
}

// attrValue returns the value written for the attribute a of elem.
func (c *Canvas) attrValue(elem *etree.Element, a *etree.Attr) string {
	val := a.Value
	digits := c.cfg.RoundDigits
	if a.Space == "" && a.Key == "d" {
		if conv, err := svgpath.ConvertPathData(val, true, digits); err == nil {
			val = conv
		}
	}
	if svgpath.IsNumeric(val) {
		f, _ := strconv.ParseFloat(strings.TrimSpace(val), 64)
		val = svgpath.ShortFloat(f, digits)
	} else if c.unitRe.MatchString(val) {
		unit := c.cfg.BaseUnit
		f, _ := strconv.ParseFloat(strings.TrimSuffix(val, unit), 64)
		val = svgpath.ShortFloat(f, digits) + unit
	}
	if c.cfg.ApplyImageOptions && c.cfg.Images == ImagesEmbed && elem.Tag == "image" && a.Key == "href" {
		if img, ok := c.images.Encodable(val); ok {
			val = img
		}
	}
	return val
}

func (c *Canvas) writeAttrs(sb *strings.Builder, elem *etree.Element) {
	type namedAttr struct {
		name string
		attr *etree.Attr
	}
	var attrs []namedAttr
	for i := range elem.Attr {
		a := &elem.Attr[i]
		name, ok := outputName(a)
		if !ok {
			continue
		}
		attrs = append(attrs, namedAttr{name, a})
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].name > attrs[j].name })

	for _, na := range attrs {
		a := na.attr
		switch {
		case a.Key == "-moz-math-font-style" || a.Key == "_moz-math-font-style":
			continue
		case a.Value == "null" && restatesStyle(elem, a.Key):
			continue
		case a.Value == "":
			continue
		case strings.HasPrefix(a.Value, "pointer-events"):
			continue
		case a.Key == "class" && strings.HasPrefix(a.Value, "se_"):
			continue
		}
		val := c.attrValue(elem, a)
		if val == "" {
			continue
		}
		sb.WriteString(" " + na.name + `="` + svgdom.ToXML(val) + `"`)
	}
}

func (c *Canvas) writeElement(sb *strings.Builder, elem *etree.Element, indent int) {
	isRoot := elem.SelectAttrValue("id", "") == "svgcontent"
	if !isRoot && elem.Tag == "defs" && isEmptyDefs(elem) {
		return
	}
	cleanupElement(elem)

	sb.WriteString(strings.Repeat(" ", indent))
	sb.WriteString("<" + elem.Tag)
	if isRoot {
		c.writeRootAttrs(sb, elem)
	} else {
		c.writeAttrs(sb, elem)
	}

	if len(elem.Child) == 0 {
		sb.WriteString("/>")
		return
	}

	sb.WriteString(">")
	indent++
	oneLine := false
	for _, tok := range elem.Child {
		switch tok := tok.(type) {
		case *etree.Element:
			child := c.SVGToString(tok, indent)
			if child != "" {
				sb.WriteString("\n" + child)
			}
		case *etree.CharData:
			if tok.IsCData() {
				sb.WriteString("\n" + strings.Repeat(" ", indent) + "<![CDATA[" + tok.Data + "]]>")
				continue
			}
			if str := strings.TrimSpace(tok.Data); str != "" {
				oneLine = true
				sb.WriteString(svgdom.ToXML(str))
			}
		case *etree.Comment:
			sb.WriteString("\n" + strings.Repeat(" ", indent) + "<!--" + tok.Data + "-->")
		}
	}
	indent--
	if !oneLine {
		sb.WriteString("\n" + strings.Repeat(" ", indent))
	}
	sb.WriteString("</" + elem.Tag + ">")
}
