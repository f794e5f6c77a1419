package svgcanvas

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/benoitkugler/svgedit/svgdom"
)

// DocumentTitle returns the text of the first <title> child of the drawing.
func (c *Canvas) DocumentTitle() string {
	for _, child := range c.content.ChildElements() {
		if child.Tag == "title" && svgdom.IsSVG(child, "title") {
			return strings.TrimSpace(svgdom.TextContent(child))
		}
	}
	return ""
}

// Issue is a known limitation of the raster and PDF exports.
type Issue struct {
	// Code is the locale independent selector which detected the issue.
	Code        string
	Description string
	matches     func(e *etree.Element) bool
}

func hasTag(tag string) func(e *etree.Element) bool {
	return func(e *etree.Element) bool { return e.Tag == tag }
}

func hasDashArray(e *etree.Element) bool { return e.SelectAttr("stroke-dasharray") != nil }

var (
	issueBlur          = Issue{"feGaussianBlur", "Blurred elements will appear as un-blurred", hasTag("feGaussianBlur")}
	issueForeignObject = Issue{"foreignObject", "foreignObject elements will not appear", hasTag("foreignObject")}
	issueDashArray     = Issue{"[stroke-dasharray]", "Strokes will appear filled", hasDashArray}
	issueText          = Issue{"text", "Text may not appear as expected", hasTag("text")}
)

// Issues lists the constructs of the drawing the exports can't render
// faithfully. textRendering is false when the target can't draw text.
// The selection is cleared.
func (c *Canvas) Issues(textRendering bool) []Issue {
	c.ClearSelection()
	candidates := []Issue{issueBlur, issueForeignObject, issueDashArray}
	if !textRendering {
		candidates = append(candidates, issueText)
	}
	var out []Issue
	for _, issue := range candidates {
		if len(svgdom.Descendants(c.content, issue.matches)) != 0 {
			out = append(out, issue)
		}
	}
	return out
}
