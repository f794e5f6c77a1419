package svgcanvas

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/benoitkugler/svgedit/history"
	"github.com/benoitkugler/svgedit/svgdom"
	"github.com/benoitkugler/svgedit/svgpath"
)

// ImportStage is a step of the import of a document.
type ImportStage uint8

const (
	StageParsing ImportStage = iota
	StageNamespaceCheck
	StageAdopting
	StageNormalizing
	StageSizing
	StageLayerIdentification
	StageCommitted
)

func (s ImportStage) String() string {
	switch s {
	case StageParsing:
		return "parsing"
	case StageNamespaceCheck:
		return "namespace check"
	case StageAdopting:
		return "adopting"
	case StageNormalizing:
		return "normalizing"
	case StageSizing:
		return "sizing"
	case StageLayerIdentification:
		return "layer identification"
	case StageCommitted:
		return "committed"
	default:
		return fmt.Sprintf("<invalid stage %d>", s)
	}
}

// ImportError is returned when an import fails. The live
// document is never modified in this case.
type ImportError struct {
	Stage ImportStage
	Err   error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("svgcanvas: import failed during %s: %s", e.Stage, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// staged import : the new content and its bookkeeping,
// swapped in the canvas only on success
type stagedImport struct {
	content  *etree.Element
	drawing  *Drawing
	wrappers map[*etree.Element]*etree.Element
	uses     map[*etree.Element]bool
	width    string
	height   string
}

// SetSVGString replaces the current document by the one described by text.
// The normalization runs on the parsed tree before it replaces the
// current one, so that on failure the current document is left untouched.
// Unless preventUndo is true, a "Change Source" batch command is recorded.
func (c *Canvas) SetSVGString(text string, preventUndo bool) (err error) {
	stage := StageParsing
	defer func() {
		if r := recover(); r != nil {
			err = &ImportError{Stage: stage, Err: fmt.Errorf("unexpected failure: %v", r)}
		}
		if err != nil {
			c.log.Error("import aborted", zap.Error(err))
		}
	}()

	content, err := parseSVG(text)
	if err != nil {
		if errors.Is(err, ErrNamespaceMismatch) {
			stage = StageNamespaceCheck
		}
		return &ImportError{Stage: stage, Err: err}
	}

	stage = StageAdopting
	c.prepareSVG(content)
	st := &stagedImport{
		content: content,
		drawing: newDrawing(content, c.cfg.IDPrefix),
	}

	stage = StageNormalizing
	c.normalizeImport(st)

	stage = StageSizing
	percentages := c.sizeImport(st)

	stage = StageLayerIdentification
	st.drawing.IdentifyLayers()
	for _, child := range content.ChildElements() {
		for _, e := range svgdom.Descendants(child, func(e *etree.Element) bool { return svgdom.VisibleElements[e.Tag] }) {
			if id, _ := svgdom.Attr(e, "id"); id == "" {
				e.CreateAttr("id", st.drawing.NextID())
			}
		}
	}
	if percentages {
		bb, _ := visibleBBox(c.bbox, content)
		st.width = svgpath.ShortFloat(bb.W+bb.X, c.cfg.RoundDigits)
		st.height = svgpath.ShortFloat(bb.H+bb.Y, c.cfg.RoundDigits)
	}
	st.width, st.height = positiveSize(st.width), positiveSize(st.height)
	content.CreateAttr("width", st.width)
	content.CreateAttr("height", st.height)

	stage = StageCommitted
	c.commitImport(st, preventUndo)
	return nil
}

// normalizeImport binds images, ids, nested documents, uses and gradients.
func (c *Canvas) normalizeImport(st *stagedImport) {
	content := st.content
	if nonce := st.drawing.Nonce(); nonce != "" {
		c.log.Debug("document nonce", zap.String("nonce", nonce))
	}
	c.embedImages(content)

	// the first element keeps a duplicated id
	seen := make(map[string]bool)
	for _, e := range svgdom.Descendants(content, nil) {
		id, _ := svgdom.Attr(e, "id")
		if id == "" {
			continue
		}
		if seen[id] {
			e.CreateAttr("id", st.drawing.NextID())
			continue
		}
		seen[id] = true
	}

	st.wrappers = make(map[*etree.Element]*etree.Element)
	for _, nested := range svgdom.DescendantsByTag(content, "svg") {
		if svgdom.Closest(nested, "defs") != nil {
			continue
		}
		uniquify(nested, st.drawing)
		parent := nested.Parent()
		if parent.Tag == "g" && len(parent.ChildElements()) == 1 && len(parent.Child) == 1 {
			if id, _ := svgdom.Attr(parent, "id"); id == "" {
				parent.CreateAttr("id", st.drawing.NextID())
			}
			st.wrappers[parent] = nested
		} else {
			st.wrappers[groupSVGElem(nested, st.drawing)] = nested
		}
	}

	if c.cfg.GeckoDefsWorkaround {
		defs := svgdom.FindDefs(content)
		for _, e := range svgdom.DescendantsByTag(content, "linearGradient", "radialGradient", "pattern") {
			if e.Parent() != defs {
				defs.AddChild(e)
			}
		}
	}

	st.uses = bindUses(c.log, content, content)
	c.convertGradients(content, content)

	content.CreateAttr("id", "svgcontent")
	content.CreateAttr("overflow", c.overflow())
}

// sizeImport resolves the document size from its viewBox or its
// width and height, returning true if both are percentages.
func (c *Canvas) sizeImport(st *stagedImport) (percentages bool) {
	content := st.content
	if vb, ok := svgdom.Attr(content, "viewBox"); ok && vb != "" {
		parts := strings.FieldsFunc(vb, func(r rune) bool { return r == ' ' || r == ',' })
		if len(parts) == 4 {
			st.width, st.height = parts[2], parts[3]
			return false
		}
	}
	dims := [2]*string{&st.width, &st.height}
	for i, dim := range [2]string{"width", "height"} {
		val, _ := svgdom.Attr(content, dim)
		if val == "" {
			val = "100%"
		}
		if strings.HasSuffix(val, "%") {
			percentages = true
			continue
		}
		f, err := svgpath.ConvertToNum(dim, val, c.cfg.Dimensions[0], c.cfg.Dimensions[1])
		if err != nil {
			c.log.Warn("invalid document size", zap.String(dim, val), zap.Error(err))
		}
		*dims[i] = svgpath.ShortFloat(f, c.cfg.RoundDigits)
	}
	return percentages
}

func positiveSize(v string) string {
	f, err := svgpath.ConvertToNum("width", v, 0, 0)
	if err != nil || f <= 0 {
		return "100"
	}
	return v
}

// commitImport swaps the staged content in, recording the change.
func (c *Canvas) commitImport(st *stagedImport, preventUndo bool) {
	batch := history.NewBatchCommand("Change Source")

	old := c.content
	next := svgdom.NextSiblingElement(old)
	c.root.RemoveChild(old)
	batch.AddSubCommand(history.NewRemoveElementCommand(old, next, c.root, ""))

	svgdom.InsertBefore(c.root, st.content, next)
	batch.AddSubCommand(history.NewInsertElementCommand(st.content, ""))

	changes := map[string]string{
		"width":  c.root.SelectAttrValue("width", ""),
		"height": c.root.SelectAttrValue("height", ""),
	}
	c.root.CreateAttr("width", st.width)
	c.root.CreateAttr("height", st.height)
	batch.AddSubCommand(history.NewChangeElementCommand(c.root, changes, ""))

	swap := &sourceCommand{
		c:    c,
		prev: sessionState{c.content, c.drawing, c.nestedWrappers, c.useSymbols},
		next: sessionState{st.content, st.drawing, st.wrappers, st.uses},
	}
	swap.next.install(c)
	batch.AddSubCommand(swap)

	c.SetZoom(1)

	if !preventUndo {
		c.addCommandToHistory(batch)
	}
	c.callSourceChanged()
}

// sessionState is the canvas bookkeeping tied to one svgcontent element.
type sessionState struct {
	content  *etree.Element
	drawing  *Drawing
	wrappers map[*etree.Element]*etree.Element
	uses     map[*etree.Element]bool
}

func (s sessionState) install(c *Canvas) {
	c.content = s.content
	c.drawing = s.drawing
	c.nestedWrappers = s.wrappers
	c.useSymbols = s.uses
	c.currentGroup = nil
	c.pathEditing = nil
	c.ClearSelection()
}

// sourceCommand switches the canvas between the documents
// exchanged by a source change.
type sourceCommand struct {
	c          *Canvas
	prev, next sessionState
}

var _ history.Command = (*sourceCommand)(nil)

func (cmd *sourceCommand) Apply() {
	cmd.next.install(cmd.c)
	cmd.c.callSourceChanged()
}

func (cmd *sourceCommand) Unapply() {
	cmd.prev.install(cmd.c)
	cmd.c.callSourceChanged()
}

func (cmd *sourceCommand) Elements() []*etree.Element {
	return []*etree.Element{cmd.next.content}
}

func (cmd *sourceCommand) Text() string { return "" }

// groupSVGElem wraps elem in a new group, at the same position.
func groupSVGElem(elem *etree.Element, gen IDGenerator) *etree.Element {
	g := etree.NewElement("g")
	g.CreateAttr("id", gen.NextID())
	parent := elem.Parent()
	parent.InsertChildAt(elem.Index(), g)
	g.AddChild(elem)
	return g
}
