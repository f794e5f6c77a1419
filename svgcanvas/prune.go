package svgcanvas

import (
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/benoitkugler/svgedit/svgdom"
)

// attributes considered by the pruner
var pruneRefAttrs = []string{"fill", "stroke", "filter", "marker-start", "marker-mid", "marker-end"}

// definitions which may be pruned
var prunableDefs = map[string]bool{
	"linearGradient": true, "radialGradient": true, "filter": true,
	"marker": true, "svg": true, "symbol": true,
}

// referencedIDs collects the targets of every reference under root,
// including the hrefs chaining definitions.
func referencedIDs(root *etree.Element) map[string]bool {
	used := make(map[string]bool)
	svgdom.Walk(root, func(e *etree.Element) bool {
		for _, name := range pruneRefAttrs {
			v, ok := svgdom.Attr(e, name)
			if !ok {
				continue
			}
			if id, ok := svgdom.URLRef(v); ok {
				used[id] = true
			}
		}
		if h := svgdom.Href(e); strings.HasPrefix(h, "#") {
			used[h[1:]] = true
		}
		return true
	})
	return used
}

// RemoveUnusedDefElems removes the definitions no element refers to,
// returning the number of removed elements. Since a removed definition
// may have been the only user of another one, callers should repeat
// until zero is returned.
func (c *Canvas) RemoveUnusedDefElems() int {
	defs := svgdom.DescendantsByTag(c.content, "defs")
	if len(defs) == 0 {
		return 0
	}
	used := referencedIDs(c.content)
	removed := 0
	for _, def := range defs {
		elems := svgdom.Descendants(def, func(e *etree.Element) bool { return prunableDefs[e.Tag] })
		for i := len(elems) - 1; i >= 0; i-- {
			e := elems[i]
			id := e.SelectAttrValue("id", "")
			if used[id] {
				continue
			}
			c.removedElements[id] = e
			svgdom.Detach(e)
			removed++
			c.log.Debug("removed unused definition", zap.String("tag", e.Tag), zap.String("id", id))
		}
	}
	return removed
}

// pruneDefs calls RemoveUnusedDefElems until nothing is removed.
func (c *Canvas) pruneDefs() int {
	total := 0
	for {
		n := c.RemoveUnusedDefElems()
		if n == 0 {
			return total
		}
		total += n
	}
}
