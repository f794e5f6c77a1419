// Package history implements the undoable commands
// recorded by the editing operations, and a simple
// undo/redo stack to replay them.
package history

import (
	"github.com/beevik/etree"

	"github.com/benoitkugler/svgedit/svgdom"
)

// Command is an undoable change of the element tree.
type Command interface {
	// Apply performs (again) the change.
	Apply()
	// Unapply reverts the change.
	Unapply()
	// Elements returns the elements affected by the command.
	Elements() []*etree.Element
	// Text is a short description of the command.
	Text() string
}

// Log is the sink of the recorded commands.
type Log interface {
	AddCommandToHistory(cmd Command)
}

var (
	_ Command = (*InsertElementCommand)(nil)
	_ Command = (*RemoveElementCommand)(nil)
	_ Command = (*ChangeElementCommand)(nil)
	_ Command = (*BatchCommand)(nil)
)

// InsertElementCommand records the insertion of an element,
// which must already be attached when the command is created.
type InsertElementCommand struct {
	elem, parent, next *etree.Element
	text               string
}

func NewInsertElementCommand(elem *etree.Element, text string) *InsertElementCommand {
	if text == "" {
		text = "Create " + elem.Tag
	}
	return &InsertElementCommand{
		elem:   elem,
		parent: elem.Parent(),
		next:   svgdom.NextSiblingElement(elem),
		text:   text,
	}
}

func (c *InsertElementCommand) Apply() {
	svgdom.InsertBefore(c.parent, c.elem, c.next)
}

func (c *InsertElementCommand) Unapply() {
	c.parent.RemoveChild(c.elem)
}

func (c *InsertElementCommand) Elements() []*etree.Element { return []*etree.Element{c.elem} }

func (c *InsertElementCommand) Text() string { return c.text }

// RemoveElementCommand records the removal of an element, which
// must already be detached from `parent` when the command is created.
type RemoveElementCommand struct {
	elem, parent, next *etree.Element
	text               string
}

func NewRemoveElementCommand(elem, oldNextSibling, oldParent *etree.Element, text string) *RemoveElementCommand {
	if text == "" {
		text = "Delete " + elem.Tag
	}
	return &RemoveElementCommand{elem: elem, parent: oldParent, next: oldNextSibling, text: text}
}

func (c *RemoveElementCommand) Apply() {
	c.parent.RemoveChild(c.elem)
}

func (c *RemoveElementCommand) Unapply() {
	svgdom.InsertBefore(c.parent, c.elem, c.next)
}

func (c *RemoveElementCommand) Elements() []*etree.Element { return []*etree.Element{c.elem} }

func (c *RemoveElementCommand) Text() string { return c.text }

// ChangeElementCommand records attribute changes. The old values are given
// at creation, and the new ones are read from the element at that time.
// An empty value means the attribute is absent.
type ChangeElementCommand struct {
	elem      *etree.Element
	oldValues map[string]string
	newValues map[string]string
	text      string
}

func NewChangeElementCommand(elem *etree.Element, oldValues map[string]string, text string) *ChangeElementCommand {
	if text == "" {
		text = "Change " + elem.Tag
	}
	newValues := make(map[string]string, len(oldValues))
	for key := range oldValues {
		newValues[key] = elem.SelectAttrValue(key, "")
	}
	return &ChangeElementCommand{elem: elem, oldValues: oldValues, newValues: newValues, text: text}
}

func setAttrs(elem *etree.Element, values map[string]string) {
	for key, value := range values {
		if value == "" {
			elem.RemoveAttr(key)
		} else {
			elem.CreateAttr(key, value)
		}
	}
}

func (c *ChangeElementCommand) Apply() { setAttrs(c.elem, c.newValues) }

func (c *ChangeElementCommand) Unapply() { setAttrs(c.elem, c.oldValues) }

func (c *ChangeElementCommand) Elements() []*etree.Element { return []*etree.Element{c.elem} }

func (c *ChangeElementCommand) Text() string { return c.text }

// BatchCommand groups several commands into one history entry.
type BatchCommand struct {
	stack []Command
	text  string
}

func NewBatchCommand(text string) *BatchCommand {
	return &BatchCommand{text: text}
}

// AddSubCommand appends cmd to the batch.
func (c *BatchCommand) AddSubCommand(cmd Command) {
	c.stack = append(c.stack, cmd)
}

// IsEmpty returns true if no sub command has been added.
func (c *BatchCommand) IsEmpty() bool { return len(c.stack) == 0 }

// Commands returns the sub commands, in application order.
func (c *BatchCommand) Commands() []Command { return c.stack }

func (c *BatchCommand) Apply() {
	for _, cmd := range c.stack {
		cmd.Apply()
	}
}

func (c *BatchCommand) Unapply() {
	for i := len(c.stack) - 1; i >= 0; i-- {
		c.stack[i].Unapply()
	}
}

func (c *BatchCommand) Elements() []*etree.Element {
	var out []*etree.Element
	seen := map[*etree.Element]bool{}
	for _, cmd := range c.stack {
		for _, e := range cmd.Elements() {
			if !seen[e] {
				seen[e] = true
				out = append(out, e)
			}
		}
	}
	return out
}

func (c *BatchCommand) Text() string { return c.text }

// UndoManager is a Log supporting undo and redo.
type UndoManager struct {
	stack []Command
	index int // number of applied commands
}

var _ Log = (*UndoManager)(nil)

func (um *UndoManager) AddCommandToHistory(cmd Command) {
	// a new command discards the redo tail
	um.stack = append(um.stack[:um.index], cmd)
	um.index = len(um.stack)
}

// UndoStackSize returns the number of commands which may be undone.
func (um *UndoManager) UndoStackSize() int { return um.index }

// RedoStackSize returns the number of commands which may be redone.
func (um *UndoManager) RedoStackSize() int { return len(um.stack) - um.index }

// Undo reverts the last applied command, returning false if there is none.
func (um *UndoManager) Undo() bool {
	if um.index == 0 {
		return false
	}
	um.index--
	um.stack[um.index].Unapply()
	return true
}

// Redo re-applies the last undone command, returning false if there is none.
func (um *UndoManager) Redo() bool {
	if um.index == len(um.stack) {
		return false
	}
	um.stack[um.index].Apply()
	um.index++
	return true
}

// Last returns the most recent applied command, or nil.
func (um *UndoManager) Last() Command {
	if um.index == 0 {
		return nil
	}
	return um.stack[um.index-1]
}
