package svgcanvas

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benoitkugler/svgedit/history"
	"github.com/benoitkugler/svgedit/svgdom"
)

const fragment = `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="50">
	<linearGradient id="g"/>
	<rect id="r" width="100" height="50" fill="url(#g)"/>
</svg>`

func TestFitTransform(t *testing.T) {
	svg := parseTree(t, fragment)
	assert.Equal(t, "translate(0) scale(2.13333) translate(0)", fitTransform(svg, 640, 480, 5))

	// taller than wide : the viewBox height is used
	svg = parseTree(t, `<svg width="10" height="20" viewBox="0 0 40 80"/>`)
	assert.Equal(t, "translate(0) scale(2.66667) translate(0)", fitTransform(svg, 640, 480, 5))
}

func TestImportSymbol(t *testing.T) {
	var um history.UndoManager
	c := New(WithHistory(&um))
	layer := c.Drawing().CurrentLayer().Group()

	use, err := c.ImportSVGString(fragment, false)
	require.NoError(t, err)
	assert.Same(t, layer, use.Parent())
	assert.Equal(t, "translate(0) scale(2.13333) translate(0)", use.SelectAttrValue("transform", ""))
	assert.Equal(t, []*etree.Element{use}, c.SelectedElements())
	assert.True(t, c.IsBoundUse(use))

	symbol, isSymbol := c.UseRef(use)
	require.NotNil(t, symbol)
	assert.True(t, isSymbol)
	assert.Equal(t, "defs", symbol.Parent().Tag)
	assert.Equal(t, "100", symbol.SelectAttrValue("width", ""))
	// the fragment ids are renamed, with the references
	rect := svgdom.DescendantsByTag(symbol, "rect")[0]
	assert.NotEqual(t, "r", rect.SelectAttrValue("id", ""))
	ref, _ := svgdom.URLRef(rect.SelectAttrValue("fill", ""))
	assert.Equal(t, "linearGradient", c.ElementByID(ref).Tag)
	assertUniqueIDs(t, c.SVGRoot())

	batch := um.Last().(*history.BatchCommand)
	assert.Equal(t, "Import Image", batch.Text())
	assert.Len(t, batch.Commands(), 2)

	// same text : the symbol is reused
	use2, err := c.ImportSVGString(fragment, true)
	require.NoError(t, err)
	symbol2, _ := c.UseRef(use2)
	assert.Same(t, symbol, symbol2)
	assert.Nil(t, use2.SelectAttr("transform"))
	assert.Len(t, um.Last().(*history.BatchCommand).Commands(), 1)
	assert.Len(t, svgdom.DescendantsByTag(c.SVGContent(), "symbol"), 1)

	// a removed symbol is not reused
	symbol.Parent().RemoveChild(symbol)
	use3, err := c.ImportSVGString(fragment, false)
	require.NoError(t, err)
	symbol3, _ := c.UseRef(use3)
	assert.NotSame(t, symbol, symbol3)
	assert.Equal(t, 3, um.UndoStackSize())
}

func TestImportSymbolErrors(t *testing.T) {
	var um history.UndoManager
	c := New(WithHistory(&um))

	_, err := c.ImportSVGString(`<svg><rect></svg>`, false)
	assert.ErrorIs(t, err, ErrParse)

	c.SetCurrentGroup(nil)
	c.drawing.current = nil
	_, err = c.ImportSVGString(fragment, false)
	assert.ErrorIs(t, err, ErrNoLayer)

	assert.Equal(t, 0, um.UndoStackSize())
}

func TestImportSymbolInGroup(t *testing.T) {
	c := New()
	load(t, c, `<svg><g><title>L</title><g id="grp"/></g></svg>`)
	grp := c.ElementByID("grp")
	c.SetCurrentGroup(grp)
	use, err := c.ImportSVGString(fragment, true)
	require.NoError(t, err)
	assert.Same(t, grp, use.Parent())
}
