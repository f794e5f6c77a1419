package history

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tree(t *testing.T) *etree.Element {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<svg><g id="a"/><g id="b"/></svg>`))
	return doc.Root()
}

func ids(root *etree.Element) []string {
	var out []string
	for _, c := range root.ChildElements() {
		out = append(out, c.SelectAttrValue("id", ""))
	}
	return out
}

func TestInsertRemove(t *testing.T) {
	root := tree(t)
	var um UndoManager

	c := etree.NewElement("rect")
	c.CreateAttr("id", "c")
	root.InsertChildAt(1, c)
	um.AddCommandToHistory(NewInsertElementCommand(c, ""))
	assert.Equal(t, []string{"a", "c", "b"}, ids(root))

	require.True(t, um.Undo())
	assert.Equal(t, []string{"a", "b"}, ids(root))
	require.True(t, um.Redo())
	assert.Equal(t, []string{"a", "c", "b"}, ids(root))

	a := root.ChildElements()[0]
	next := root.ChildElements()[1]
	root.RemoveChild(a)
	um.AddCommandToHistory(NewRemoveElementCommand(a, next, root, ""))
	assert.Equal(t, []string{"c", "b"}, ids(root))
	require.True(t, um.Undo())
	assert.Equal(t, []string{"a", "c", "b"}, ids(root))
	assert.Equal(t, 1, um.RedoStackSize())
}

func TestChangeAndBatch(t *testing.T) {
	root := tree(t)
	var um UndoManager
	a := root.ChildElements()[0]

	batch := NewBatchCommand("Change Source")
	a.CreateAttr("fill", "red")
	batch.AddSubCommand(NewChangeElementCommand(a, map[string]string{"fill": ""}, ""))
	a.CreateAttr("xlink:href", "#b")
	batch.AddSubCommand(NewChangeElementCommand(a, map[string]string{"xlink:href": ""}, ""))
	assert.False(t, batch.IsEmpty())
	assert.Len(t, batch.Elements(), 1)
	um.AddCommandToHistory(batch)

	require.True(t, um.Undo())
	assert.Nil(t, a.SelectAttr("fill"))
	assert.Nil(t, a.SelectAttr("xlink:href"))
	require.True(t, um.Redo())
	assert.Equal(t, "red", a.SelectAttrValue("fill", ""))
	assert.Equal(t, "#b", a.SelectAttrValue("xlink:href", ""))
	assert.Same(t, batch, um.Last())

	assert.False(t, um.Redo())
	assert.True(t, um.Undo())
	assert.False(t, um.Undo())
}
