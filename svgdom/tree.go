package svgdom

import (
	"strings"

	"github.com/beevik/etree"
)

// VisibleElements lists the tags drawn on the canvas.
var VisibleElements = map[string]bool{
	"a": true, "circle": true, "ellipse": true, "foreignObject": true, "g": true,
	"image": true, "line": true, "path": true, "polygon": true, "polyline": true,
	"rect": true, "svg": true, "text": true, "tspan": true, "use": true,
}

// Walk calls fn on e and all its descendant elements, in document order.
// Returning false from fn skips the children of the current element.
func Walk(e *etree.Element, fn func(*etree.Element) bool) {
	if !fn(e) {
		return
	}
	for _, child := range e.ChildElements() {
		Walk(child, fn)
	}
}

// Descendants returns the strict descendants of e matching `keep`
// (all of them for a nil `keep`), in document order.
func Descendants(e *etree.Element, keep func(*etree.Element) bool) []*etree.Element {
	var out []*etree.Element
	for _, child := range e.ChildElements() {
		Walk(child, func(d *etree.Element) bool {
			if keep == nil || keep(d) {
				out = append(out, d)
			}
			return true
		})
	}
	return out
}

// DescendantsByTag returns the strict descendants of e with one of the given tags.
func DescendantsByTag(e *etree.Element, tags ...string) []*etree.Element {
	return Descendants(e, func(d *etree.Element) bool {
		for _, tag := range tags {
			if d.Tag == tag {
				return true
			}
		}
		return false
	})
}

// Closest returns the nearest ancestor (e excluded) with the given tag, or nil.
func Closest(e *etree.Element, tag string) *etree.Element {
	for p := e.Parent(); p != nil; p = p.Parent() {
		if p.Tag == tag {
			return p
		}
	}
	return nil
}

// IsAttached reports whether root is e or one of its ancestors.
func IsAttached(e, root *etree.Element) bool {
	for p := e; p != nil; p = p.Parent() {
		if p == root {
			return true
		}
	}
	return false
}

// ElementByID returns the first element under root (included) with the given id.
func ElementByID(root *etree.Element, id string) *etree.Element {
	if id == "" {
		return nil
	}
	var found *etree.Element
	Walk(root, func(e *etree.Element) bool {
		if found != nil {
			return false
		}
		if e.SelectAttrValue("id", "") == id {
			found = e
			return false
		}
		return true
	})
	return found
}

// FindDefs returns the first <defs> element under root,
// creating one after root's first child if needed.
func FindDefs(root *etree.Element) *etree.Element {
	if defs := DescendantsByTag(root, "defs"); len(defs) > 0 {
		return defs[0]
	}
	defs := etree.NewElement("defs")
	children := root.ChildElements()
	if len(children) > 0 {
		root.InsertChildAt(children[0].Index()+1, defs)
	} else {
		root.AddChild(defs)
	}
	return defs
}

// InsertBefore inserts e as a child of parent, just before `next`,
// or at the end when next is nil or not a child of parent.
func InsertBefore(parent, e, next *etree.Element) {
	if next != nil && next.Parent() == parent {
		parent.InsertChildAt(next.Index(), e)
		return
	}
	parent.AddChild(e)
}

// NextSiblingElement returns the element following e in its parent, or nil.
func NextSiblingElement(e *etree.Element) *etree.Element {
	parent := e.Parent()
	if parent == nil {
		return nil
	}
	for _, tok := range parent.Child[e.Index()+1:] {
		if el, ok := tok.(*etree.Element); ok {
			return el
		}
	}
	return nil
}

// Detach removes e from its parent, if any.
func Detach(e *etree.Element) {
	if parent := e.Parent(); parent != nil {
		parent.RemoveChild(e)
	}
}

// TextContent returns the concatenated character data of e and its descendants.
func TextContent(e *etree.Element) string {
	var sb strings.Builder
	var rec func(*etree.Element)
	rec = func(el *etree.Element) {
		for _, tok := range el.Child {
			switch tok := tok.(type) {
			case *etree.CharData:
				sb.WriteString(tok.Data)
			case *etree.Element:
				rec(tok)
			}
		}
	}
	rec(e)
	return sb.String()
}

// HasOnlyAttrs reports whether every attribute of e has one of the given keys.
func HasOnlyAttrs(e *etree.Element, keys ...string) bool {
	for _, a := range e.Attr {
		ok := false
		for _, k := range keys {
			if a.Space == "" && a.Key == k {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

// ToXML escapes the XML special characters of s.
func ToXML(s string) string {
	return xmlEscaper.Replace(s)
}
