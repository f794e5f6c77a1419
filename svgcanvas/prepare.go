package svgcanvas

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/benoitkugler/svgedit/svgdom"
	"github.com/benoitkugler/svgedit/svgpath"
)

// parseSVG parses text and returns its root element, detached from
// its document. The root must be in the SVG namespace.
func parseSVG(text string) (*etree.Element, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromString(text); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrParse, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrParse)
	}
	if ns := svgdom.ElementNS(root); ns != svgdom.NSSVG {
		return nil, fmt.Errorf("%w: got %q", ErrNamespaceMismatch, ns)
	}
	doc.RemoveChild(root)
	return root, nil
}

func isScriptHref(a *etree.Attr) bool {
	return a.Key == "href" && strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.Value)), "javascript:")
}

// sanitize drops scripts, event handlers and elements of unknown namespaces,
// and removes the prefix of SVG elements and attributes.
func sanitize(log *zap.Logger, root *etree.Element) {
	var drop []*etree.Element
	svgdom.Walk(root, func(e *etree.Element) bool {
		ns := svgdom.ElementNS(e)
		if _, known := svgdom.NSMap[ns]; !known || e.Tag == "script" {
			drop = append(drop, e)
			return false
		}
		if ns == svgdom.NSSVG {
			e.Space = ""
		}
		attrs := e.Attr[:0]
		for _, a := range e.Attr {
			if a.Space == "" && strings.HasPrefix(strings.ToLower(a.Key), "on") || isScriptHref(&a) {
				log.Debug("dropped attribute", zap.String("tag", e.Tag), zap.String("attr", a.FullKey()))
				continue
			}
			if a.Space != "" && svgdom.AttrNS(&a) == svgdom.NSSVG {
				a.Space = ""
			}
			attrs = append(attrs, a)
		}
		e.Attr = attrs
		return true
	})
	for _, e := range drop {
		if e == root {
			continue
		}
		log.Debug("dropped element", zap.String("tag", e.FullTag()))
		svgdom.Detach(e)
	}
}

// prepareSVG sanitizes the tree rooted at root and converts
// every path to canonical absolute data.
func (c *Canvas) prepareSVG(root *etree.Element) {
	sanitize(c.log, root)
	for _, p := range svgdom.DescendantsByTag(root, "path") {
		d, ok := svgdom.Attr(p, "d")
		if !ok {
			continue
		}
		conv, err := svgpath.ConvertPathData(d, false, c.cfg.RoundDigits)
		if err != nil {
			c.log.Warn("invalid path data", zap.String("id", p.SelectAttrValue("id", "")), zap.Error(err))
			continue
		}
		p.CreateAttr("d", conv)
	}
}

const svgeditURLParam = ";svgedit_url="

// EncodeImageURL inserts the original url of an embedded
// image in its data URI.
func EncodeImageURL(dataURI, originalURL string) string {
	head, data, ok := strings.Cut(dataURI, ";base64,")
	if !ok {
		return dataURI
	}
	return head + svgeditURLParam + url.QueryEscape(originalURL) + ";base64," + data
}

// decodeImageURL extracts the original url stored in a data URI.
func decodeImageURL(dataURI string) (string, bool) {
	_, rest, ok := strings.Cut(dataURI, svgeditURLParam)
	if !ok {
		return "", false
	}
	enc, _, ok := strings.Cut(rest, ";")
	if !ok {
		return "", false
	}
	u, err := url.QueryUnescape(enc)
	if err != nil {
		return "", false
	}
	return u, true
}

// embedImages restores the url of the images embedded by the editor,
// seeding the image cache with their data, and starts the resolution
// of the other ones.
func (c *Canvas) embedImages(root *etree.Element) {
	for _, img := range svgdom.DescendantsByTag(root, "image") {
		val := svgdom.Href(img)
		if val == "" {
			continue
		}
		if strings.HasPrefix(val, "data:") {
			if u, ok := decodeImageURL(val); ok {
				c.images.Seed(u, val)
				svgdom.SetHref(img, u)
				continue
			}
		}
		c.images.EmbedAsync(val)
	}
}
