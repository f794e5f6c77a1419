// Package svgdom gathers the SVG specific helpers
// on top of the generic etree element tree :
// namespaces, references, tree lookups and escaping.
package svgdom

import (
	"github.com/beevik/etree"
)

// Namespace URIs known by the editor.
const (
	NSHTML  = "http://www.w3.org/1999/xhtml"
	NSMath  = "http://www.w3.org/1998/Math/MathML"
	NSSE    = "http://svg-edit.googlecode.com"
	NSSVG   = "http://www.w3.org/2000/svg"
	NSXLink = "http://www.w3.org/1999/xlink"
	NSOI    = "http://www.optimistik.fr/namespace/svg/OIdata"
	NSXML   = "http://www.w3.org/XML/1998/namespace"
	NSXMLNS = "http://www.w3.org/2000/xmlns/"
)

// NSMap maps each known namespace URI to its fixed prefix.
var NSMap = map[string]string{
	NSHTML:  "html",
	NSMath:  "math",
	NSSE:    "se",
	NSSVG:   "svg",
	NSXLink: "xlink",
	NSOI:    "oi",
	NSXML:   "xml",
	NSXMLNS: "xmlns",
}

// prefixToURI is the reverse of NSMap, used when a prefix is not declared
var prefixToURI = func() map[string]string {
	out := make(map[string]string, len(NSMap))
	for uri, prefix := range NSMap {
		out[prefix] = uri
	}
	return out
}()

// URIForPrefix returns the namespace of a fixed prefix.
func URIForPrefix(prefix string) (string, bool) {
	uri, ok := prefixToURI[prefix]
	return uri, ok
}

// ElementNS returns the namespace URI of e. Elements without any namespace
// declaration in scope belong to the SVG namespace, as does any element
// created by the editor.
func ElementNS(e *etree.Element) string {
	if uri := e.NamespaceURI(); uri != "" {
		return uri
	}
	if e.Space != "" {
		if uri, ok := prefixToURI[e.Space]; ok {
			return uri
		}
		return ""
	}
	return NSSVG
}

// AttrNS returns the namespace URI of a, or the empty string for
// unqualified attributes.
func AttrNS(a *etree.Attr) string {
	switch a.Space {
	case "":
		if a.Key == "xmlns" {
			return NSXMLNS
		}
		return ""
	case "xmlns":
		return NSXMLNS
	case "xml":
		return NSXML
	}
	if uri := a.NamespaceURI(); uri != "" {
		return uri
	}
	if uri, ok := prefixToURI[a.Space]; ok {
		return uri
	}
	return ""
}

// IsSVG reports whether e is the SVG element `tag`.
func IsSVG(e *etree.Element, tag string) bool {
	return e.Tag == tag && ElementNS(e) == NSSVG
}
