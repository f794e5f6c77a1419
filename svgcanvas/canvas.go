// Package svgcanvas implements the document session of the editor:
// import of external SVG text, normalization of identifiers, references,
// definitions and gradients, and serialization back to canonical SVG text.
package svgcanvas

import (
	"regexp"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/benoitkugler/svgedit/history"
	"github.com/benoitkugler/svgedit/svgdom"
	"github.com/benoitkugler/svgedit/svgpath"
)

const createdWith = " Created with SVG-edit - https://github.com/SVG-Edit/svgedit"

// ImageCache is the side cache of embeddable images.
type ImageCache interface {
	// EmbedAsync starts the resolution of url in the background.
	// Failures are only logged.
	EmbedAsync(url string)
	// Seed stores an already known data URI for url.
	Seed(url, dataURI string)
	// Encodable returns the data URI of a successfully resolved url.
	Encodable(url string) (string, bool)
}

type noImages struct{}

func (noImages) EmbedAsync(string)               {}
func (noImages) Seed(string, string)             {}
func (noImages) Encodable(string) (string, bool) { return "", false }

type discardLog struct{}

func (discardLog) AddCommandToHistory(history.Command) {}

type importedSymbol struct {
	symbol *etree.Element
	xform  string
}

// Canvas is an editing session over one SVG document.
// It is not safe for concurrent use.
type Canvas struct {
	cfg     Config
	log     *zap.Logger
	bbox    BBoxer
	images  ImageCache
	history history.Log

	doc     *etree.Document
	root    *etree.Element // svgroot
	content *etree.Element // svgcontent
	drawing *Drawing

	importIDs       map[string]importedSymbol
	removedElements map[string]*etree.Element
	// nested <svg> wrapped in a group, by wrapper
	nestedWrappers map[*etree.Element]*etree.Element
	// <use> bound to a <symbol> or <svg>
	useSymbols map[*etree.Element]bool

	currentGroup *etree.Element
	pathEditing  *etree.Element
	selected     []*etree.Element
	zoom         float64
	// numbers suffixed by the base unit
	unitRe *regexp.Regexp

	onSourceChanged []func(content *etree.Element)
	onChanged       []func(elems []*etree.Element)
}

// Option customizes a Canvas.
type Option func(*Canvas)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option { return func(c *Canvas) { c.cfg = cfg } }

// WithLogger sets the logger used for diagnostics.
func WithLogger(log *zap.Logger) Option { return func(c *Canvas) { c.log = log } }

// WithBBoxer sets the bounding box provider.
func WithBBoxer(b BBoxer) Option { return func(c *Canvas) { c.bbox = b } }

// WithImageCache sets the image cache consulted on import and save.
func WithImageCache(images ImageCache) Option { return func(c *Canvas) { c.images = images } }

// WithHistory sets the sink receiving the undoable commands.
func WithHistory(log history.Log) Option { return func(c *Canvas) { c.history = log } }

// New returns a canvas holding an empty drawing with one layer.
func New(opts ...Option) *Canvas {
	c := &Canvas{
		cfg:             DefaultConfig(),
		log:             zap.NewNop(),
		bbox:            GeometryBBox{},
		images:          noImages{},
		history:         discardLog{},
		importIDs:       make(map[string]importedSymbol),
		removedElements: make(map[string]*etree.Element),
		nestedWrappers:  make(map[*etree.Element]*etree.Element),
		useSymbols:      make(map[*etree.Element]bool),
		zoom:            1,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.unitRe = regexp.MustCompile(`^-?[\d.]+` + regexp.QuoteMeta(c.cfg.BaseUnit) + `$`)

	w := svgpath.ShortFloat(c.cfg.Dimensions[0], c.cfg.RoundDigits)
	h := svgpath.ShortFloat(c.cfg.Dimensions[1], c.cfg.RoundDigits)

	c.doc = etree.NewDocument()
	c.root = c.doc.CreateElement("svg")
	c.root.CreateAttr("id", "svgroot")
	c.root.CreateAttr("xmlns", svgdom.NSSVG)
	c.root.CreateAttr("width", w)
	c.root.CreateAttr("height", h)
	c.root.CreateAttr("x", "0")
	c.root.CreateAttr("y", "0")
	c.root.CreateAttr("overflow", "visible")

	c.content = c.root.CreateElement("svg")
	c.content.CreateAttr("id", "svgcontent")
	c.content.CreateAttr("width", w)
	c.content.CreateAttr("height", h)
	c.content.CreateAttr("x", "0")
	c.content.CreateAttr("y", "0")
	c.content.CreateAttr("overflow", c.overflow())
	c.content.CreateAttr("xmlns", svgdom.NSSVG)
	c.content.CreateAttr("xmlns:se", svgdom.NSSE)
	c.content.CreateAttr("xmlns:xlink", svgdom.NSXLink)
	c.content.CreateComment(createdWith)

	c.drawing = newDrawing(c.content, c.cfg.IDPrefix)
	c.drawing.IdentifyLayers()
	return c
}

func (c *Canvas) overflow() string {
	if c.cfg.ShowOutsideCanvas {
		return "visible"
	}
	return "hidden"
}

// Config returns the active configuration.
func (c *Canvas) Config() Config { return c.cfg }

// SVGRoot returns the outer editor element, parent of the content.
func (c *Canvas) SVGRoot() *etree.Element { return c.root }

// SVGContent returns the root of the edited document.
func (c *Canvas) SVGContent() *etree.Element { return c.content }

// Drawing returns the current drawing.
func (c *Canvas) Drawing() *Drawing { return c.drawing }

// NextID returns a fresh identifier for the current drawing.
func (c *Canvas) NextID() string { return c.drawing.NextID() }

// ElementByID looks up id in the whole editor tree.
func (c *Canvas) ElementByID(id string) *etree.Element { return svgdom.ElementByID(c.root, id) }

// RemovedElements returns the definitions removed by the pruner, by id.
func (c *Canvas) RemovedElements() map[string]*etree.Element { return c.removedElements }

// Resolution returns the size of the document in user units.
func (c *Canvas) Resolution() (w, h float64) {
	w, _ = svgpath.ConvertToNum("width", c.content.SelectAttrValue("width", ""), 0, 0)
	h, _ = svgpath.ConvertToNum("height", c.content.SelectAttrValue("height", ""), 0, 0)
	return w / c.zoom, h / c.zoom
}

// Zoom returns the current zoom level.
func (c *Canvas) Zoom() float64 { return c.zoom }

// SetZoom changes the zoom level. Non positive values are ignored.
func (c *Canvas) SetZoom(z float64) {
	if z > 0 {
		c.zoom = z
	}
}

// CurrentGroup returns the group being edited in place, or nil.
func (c *Canvas) CurrentGroup() *etree.Element { return c.currentGroup }

// SetCurrentGroup enters the in-group editing context of g.
func (c *Canvas) SetCurrentGroup(g *etree.Element) { c.currentGroup = g }

// LeaveContext exits the in-group editing context.
func (c *Canvas) LeaveContext() { c.currentGroup = nil }

// EditPath enters the path editing mode for the given path.
func (c *Canvas) EditPath(path *etree.Element) { c.pathEditing = path }

// PathEditing returns the path being edited, or nil.
func (c *Canvas) PathEditing() *etree.Element { return c.pathEditing }

// clearPathEdit leaves the path editing mode, writing back the
// path data in canonical absolute form.
func (c *Canvas) clearPathEdit() {
	if c.pathEditing == nil {
		return
	}
	if d, ok := svgdom.Attr(c.pathEditing, "d"); ok {
		if conv, err := svgpath.ConvertPathData(d, false, c.cfg.RoundDigits); err == nil {
			c.pathEditing.CreateAttr("d", conv)
		}
	}
	c.pathEditing = nil
}

// SelectedElements returns the current selection.
func (c *Canvas) SelectedElements() []*etree.Element { return c.selected }

// ClearSelection empties the selection.
func (c *Canvas) ClearSelection() { c.selected = nil }

// AddToSelection appends elems to the selection, ignoring duplicates.
func (c *Canvas) AddToSelection(elems ...*etree.Element) {
outer:
	for _, e := range elems {
		for _, s := range c.selected {
			if s == e {
				continue outer
			}
		}
		c.selected = append(c.selected, e)
	}
}

// OnSourceChanged registers a listener called after a successful import.
func (c *Canvas) OnSourceChanged(fn func(content *etree.Element)) {
	c.onSourceChanged = append(c.onSourceChanged, fn)
}

// OnChanged registers a listener called after elements are added.
func (c *Canvas) OnChanged(fn func(elems []*etree.Element)) {
	c.onChanged = append(c.onChanged, fn)
}

func (c *Canvas) callSourceChanged() {
	for _, fn := range c.onSourceChanged {
		fn(c.content)
	}
}

func (c *Canvas) callChanged(elems []*etree.Element) {
	for _, fn := range c.onChanged {
		fn(elems)
	}
}

func (c *Canvas) addCommandToHistory(cmd history.Command) {
	c.history.AddCommandToHistory(cmd)
}

// CurrentContext returns the element receiving new content :
// the current group, or the current layer.
func (c *Canvas) CurrentContext() (*etree.Element, error) {
	if c.currentGroup != nil {
		return c.currentGroup, nil
	}
	if l := c.drawing.CurrentLayer(); l != nil {
		return l.Group(), nil
	}
	return nil, ErrNoLayer
}
