package svgcanvas

import (
	"encoding/hex"
	"fmt"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/benoitkugler/svgedit/history"
	"github.com/benoitkugler/svgedit/svgdom"
	"github.com/benoitkugler/svgedit/svgpath"
)

func contentHash(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// fitTransform returns the transform scaling the document svg to one
// third of the largest dimension of a canvasW x canvasH canvas.
func fitTransform(svg *etree.Element, canvasW, canvasH float64, digits int) string {
	innerW, _ := svgpath.ConvertToNum("width", svg.SelectAttrValue("width", ""), canvasW, canvasH)
	innerH, _ := svgpath.ConvertToNum("height", svg.SelectAttrValue("height", ""), canvasW, canvasH)
	vb := []float64{0, 0, innerW, innerH}
	if v, ok := svgdom.Attr(svg, "viewBox"); ok {
		if nums, err := svgpath.ParseNumbers(v); err == nil && len(nums) == 4 {
			vb = nums
		}
	}
	dim := vb[2]
	if innerH > innerW {
		dim = vb[3]
	}
	scale := 1.
	if dim > 0 {
		scale = max(canvasW, canvasH) / 3 / dim
	}
	return "translate(0) scale(" + svgpath.ShortFloat(scale, digits) + ") translate(0)"
}

// ImportSVGString imports text as a <symbol> in the definitions and
// inserts a <use> of it in the current group or layer. Importing the
// same text again reuses the symbol, as long as it is still in the document.
// Unless preserveDimensions is true, the <use> is scaled to a third of the canvas.
// The new <use> is selected and returned.
func (c *Canvas) ImportSVGString(text string, preserveDimensions bool) (use *etree.Element, err error) {
	defer func() {
		if r := recover(); r != nil {
			use, err = nil, fmt.Errorf("svgcanvas: symbol import failed: %v", r)
		}
		if err != nil {
			c.log.Error("symbol import aborted", zap.Error(err))
		}
	}()

	parent, err := c.CurrentContext()
	if err != nil {
		return nil, err
	}

	uid := contentHash(text)
	batch := history.NewBatchCommand("Import Image")

	var (
		symbol *etree.Element
		xform  string
	)
	if cached, ok := c.importIDs[uid]; ok && svgdom.IsAttached(cached.symbol, c.root) {
		symbol, xform = cached.symbol, cached.xform
	} else {
		svg, err := parseSVG(text)
		if err != nil {
			return nil, err
		}
		c.prepareSVG(svg)
		c.UniquifyElems(svg)

		canvasW, canvasH := c.Resolution()
		xform = fitTransform(svg, canvasW*c.zoom, canvasH*c.zoom, c.cfg.RoundDigits)

		symbol = etree.NewElement("symbol")
		defs := svgdom.FindDefs(c.content)
		if c.cfg.GeckoDefsWorkaround {
			for _, e := range svgdom.DescendantsByTag(svg, "linearGradient", "radialGradient", "pattern") {
				defs.AddChild(e)
			}
		}
		for len(svg.Child) > 0 {
			tok := svg.Child[0]
			svg.RemoveChildAt(0)
			symbol.AddChild(tok)
		}
		for _, a := range svg.Attr {
			symbol.CreateAttr(a.FullKey(), a.Value)
		}
		symbol.CreateAttr("id", c.NextID())

		c.importIDs[uid] = importedSymbol{symbol: symbol, xform: xform}
		defs.AddChild(symbol)
		batch.AddSubCommand(history.NewInsertElementCommand(symbol, ""))
	}

	use = etree.NewElement("use")
	use.CreateAttr("id", c.NextID())
	svgdom.SetHref(use, "#"+symbol.SelectAttrValue("id", ""))
	parent.AddChild(use)
	batch.AddSubCommand(history.NewInsertElementCommand(use, ""))
	c.ClearSelection()

	if !preserveDimensions {
		use.CreateAttr("transform", xform)
	}
	c.useSymbols[use] = true
	c.AddToSelection(use)

	c.addCommandToHistory(batch)
	c.callChanged([]*etree.Element{c.content})
	return use, nil
}
