package svgdom

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, s string) *etree.Element {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(s))
	return doc.Root()
}

func TestNamespaces(t *testing.T) {
	root := parse(t, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" xmlns:foo="http://foo">
	<use xlink:href="#a"/><foo:bar foo:x="1"/></svg>`)
	assert.Equal(t, NSSVG, ElementNS(root))
	children := root.ChildElements()
	use, bar := children[0], children[1]
	assert.Equal(t, NSSVG, ElementNS(use))
	assert.Equal(t, NSXLink, AttrNS(&use.Attr[0]))
	assert.Equal(t, "http://foo", ElementNS(bar))
	assert.Equal(t, "http://foo", AttrNS(&bar.Attr[0]))
	assert.Equal(t, NSXMLNS, AttrNS(&root.Attr[0]))

	bare := parse(t, `<svg><rect se:x="1"/></svg>`)
	assert.Equal(t, NSSVG, ElementNS(bare))
	assert.Equal(t, NSSE, AttrNS(&bare.ChildElements()[0].Attr[0]))
}

func TestRefs(t *testing.T) {
	id, ok := URLRef(`url(#grad1)`)
	assert.True(t, ok)
	assert.Equal(t, "grad1", id)
	id, ok = URLRef(`url( "#g" )`)
	assert.True(t, ok)
	assert.Equal(t, "g", id)
	_, ok = URLRef("red")
	assert.False(t, ok)

	root := parse(t, `<svg><use href="#a"/><use/></svg>`)
	uses := root.ChildElements()
	id, ok = HrefRef(uses[0])
	assert.True(t, ok)
	assert.Equal(t, "a", id)
	SetHref(uses[0], "#b")
	assert.Equal(t, "#b", Href(uses[0]))
	SetHref(uses[1], "#c")
	assert.Equal(t, "#c", uses[1].SelectAttrValue("xlink:href", ""))
}

func TestTreeHelpers(t *testing.T) {
	root := parse(t, `<svg><title>t</title><g id="g1"><rect id="r"/></g></svg>`)
	r := ElementByID(root, "r")
	require.NotNil(t, r)
	assert.Equal(t, "g1", Closest(r, "g").SelectAttrValue("id", ""))
	assert.True(t, IsAttached(r, root))

	defs := FindDefs(root)
	assert.Equal(t, 1, defs.Index())
	assert.Same(t, defs, FindDefs(root))

	Detach(r)
	assert.False(t, IsAttached(r, root))
	assert.Nil(t, ElementByID(root, "r"))

	assert.Equal(t, "&lt;a href=&quot;x&quot;&gt; &amp; &#x27;", ToXML(`<a href="x"> & '`))
	assert.Equal(t, "t", TextContent(root))
}

func TestParseStyle(t *testing.T) {
	decls, err := ParseStyle("Stroke: red; stroke-width: 3")
	require.NoError(t, err)
	assert.Equal(t, []Declaration{{"stroke", "red"}, {"stroke-width", "3"}}, decls)

	decls, err = ParseStyle("fill:#ff0000;")
	require.NoError(t, err)
	assert.Equal(t, []Declaration{{"fill", "#ff0000"}}, decls)

	decls, err = ParseStyle("  ")
	require.NoError(t, err)
	assert.Empty(t, decls)
}
