package svgdom

import (
	"regexp"
	"strings"

	"github.com/beevik/etree"
)

// RefAttrs are the attributes which may hold a `url(#id)` reference.
var RefAttrs = []string{"clip-path", "fill", "filter", "marker-end", "marker-mid", "marker-start", "mask", "stroke"}

// HrefElements are the elements whose href may point to another element.
var HrefElements = map[string]bool{
	"filter": true, "linearGradient": true, "pattern": true, "radialGradient": true,
	"symbol": true, "textPath": true, "use": true,
}

var urlRe = regexp.MustCompile(`url\(\s*["']?#([^)"']+)["']?\s*\)`)

// URLRef extracts the id from a `url(#id)` value.
func URLRef(v string) (string, bool) {
	m := urlRe.FindStringSubmatch(v)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// URL builds the reference value `url(#id)`.
func URL(id string) string { return "url(#" + id + ")" }

// Href returns the value of the `xlink:href` attribute of e,
// falling back to a plain `href`.
func Href(e *etree.Element) string {
	for _, a := range e.Attr {
		if a.Key != "href" {
			continue
		}
		if a.Space == "" || AttrNS(&a) == NSXLink {
			return a.Value
		}
	}
	return ""
}

// SetHref updates the existing href attribute of e, or
// creates an `xlink:href` one.
func SetHref(e *etree.Element, v string) {
	for i := range e.Attr {
		a := &e.Attr[i]
		if a.Key == "href" && (a.Space == "" || AttrNS(a) == NSXLink) {
			a.Value = v
			return
		}
	}
	e.CreateAttr("xlink:href", v)
}

// HrefRef returns the id of a local href `#id`.
func HrefRef(e *etree.Element) (string, bool) {
	h := Href(e)
	if !strings.HasPrefix(h, "#") || len(h) == 1 {
		return "", false
	}
	return h[1:], true
}

// Attr returns the value of the unqualified attribute `key`.
func Attr(e *etree.Element, key string) (string, bool) {
	for _, a := range e.Attr {
		if a.Space == "" && a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}
