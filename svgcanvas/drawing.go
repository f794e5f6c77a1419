package svgcanvas

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/benoitkugler/svgedit/svgdom"
)

// IDGenerator produces identifiers unique in a document.
type IDGenerator interface {
	NextID() string
}

// Layer is a top level group of the drawing, named by its <title> child.
type Layer struct {
	name  string
	group *etree.Element
}

// Name returns the layer name.
func (l *Layer) Name() string { return l.name }

// Group returns the <g> element holding the layer content.
func (l *Layer) Group() *etree.Element { return l.group }

// IsVisible returns false if the layer group is hidden with display="none".
func (l *Layer) IsVisible() bool {
	return l.group.SelectAttrValue("display", "") != "none"
}

// SetVisible shows or hides the layer.
func (l *Layer) SetVisible(visible bool) {
	if visible {
		l.group.CreateAttr("display", "inline")
	} else {
		l.group.CreateAttr("display", "none")
	}
}

// Opacity returns the layer opacity, defaulting to 1.
func (l *Layer) Opacity() float64 {
	v, ok := svgdom.Attr(l.group, "opacity")
	if !ok {
		return 1
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 1
	}
	return f
}

func (l *Layer) setName(name string) {
	l.name = name
	title := layerTitle(l.group)
	if title == nil {
		title = etree.NewElement("title")
		l.group.InsertChildAt(0, title)
	}
	title.SetText(name)
}

// Drawing is the content of one <svg> document: its layers
// and its identifier generator.
type Drawing struct {
	svgElem *etree.Element
	prefix  string
	nonce   string
	objNum  int

	// elements renamed by the uniquifier, by new id
	assigned map[string]*etree.Element
	// ids found in the tree on the first call to NextID
	used     map[string]bool

	layers  []*Layer
	current *Layer
}

var _ IDGenerator = (*Drawing)(nil)

func newDrawing(svgElem *etree.Element, prefix string) *Drawing {
	d := &Drawing{svgElem: svgElem, prefix: prefix, assigned: make(map[string]*etree.Element)}
	for _, a := range svgElem.Attr {
		if a.Key == "nonce" && svgdom.AttrNS(&a) == svgdom.NSSE {
			d.nonce = a.Value
		}
	}
	return d
}

// Nonce returns the value of the se:nonce attribute of the drawing, if any.
func (d *Drawing) Nonce() string { return d.nonce }

func (d *Drawing) id(num int) string {
	if d.nonce != "" {
		return d.prefix + d.nonce + "_" + strconv.Itoa(num)
	}
	return d.prefix + strconv.Itoa(num)
}

// NextID returns a fresh identifier, never used before by this drawing
// and absent from its tree.
// The tree is scanned once: later ids come from this generator
// or from documents uniquified with it.
func (d *Drawing) NextID() string {
	if d.used == nil {
		d.used = make(map[string]bool)
		svgdom.Walk(d.svgElem, func(e *etree.Element) bool {
			if id, _ := svgdom.Attr(e, "id"); id != "" {
				d.used[id] = true
			}
			return true
		})
	}
	for {
		d.objNum++
		id := d.id(d.objNum)
		if !d.used[id] {
			d.used[id] = true
			return id
		}
	}
}

// Layers returns the layers, in document order.
func (d *Drawing) Layers() []*Layer { return d.layers }

// CurrentLayer returns the layer receiving new content.
func (d *Drawing) CurrentLayer() *Layer { return d.current }

// LayerByName returns the layer with the given name, or nil.
func (d *Drawing) LayerByName(name string) *Layer {
	for _, l := range d.layers {
		if l.name == name {
			return l
		}
	}
	return nil
}

func layerTitle(g *etree.Element) *etree.Element {
	for _, child := range g.ChildElements() {
		if child.Tag == "title" {
			return child
		}
	}
	return nil
}

func addLayerClass(g *etree.Element) {
	class := g.SelectAttrValue("class", "")
	for _, c := range strings.Fields(class) {
		if c == "layer" {
			return
		}
	}
	if class == "" {
		g.CreateAttr("class", "layer")
	} else {
		g.CreateAttr("class", class+" layer")
	}
}

func (d *Drawing) newLayerName() string {
	names := make(map[string]bool, len(d.layers))
	for _, l := range d.layers {
		names[l.name] = true
	}
	i := len(d.layers)
	for {
		i++
		name := "Layer " + strconv.Itoa(i)
		if !names[name] {
			return name
		}
	}
}

// IdentifyLayers rebuilds the layer list from the top level children
// of the drawing. Groups with a <title> are layers ; untitled groups and
// visible elements are moved into a new layer, which is also created
// when there is no group at all. Duplicated names are made unique.
func (d *Drawing) IdentifyLayers() {
	d.layers = nil
	d.current = nil
	var (
		orphans     []*etree.Element
		childGroups bool
		seen        = map[string]bool{}
	)
	for _, child := range d.svgElem.ChildElements() {
		if child.Tag == "g" {
			childGroups = true
			title := layerTitle(child)
			if title == nil {
				orphans = append(orphans, child)
				continue
			}
			l := &Layer{name: strings.TrimSpace(svgdom.TextContent(title)), group: child}
			addLayerClass(child)
			d.layers = append(d.layers, l)
			if seen[l.name] {
				l.setName(d.newLayerName())
			}
			seen[l.name] = true
		} else if svgdom.VisibleElements[child.Tag] {
			orphans = append(orphans, child)
		}
	}

	if len(orphans) > 0 || !childGroups {
		g := etree.NewElement("g")
		addLayerClass(g)
		l := &Layer{group: g}
		l.setName(d.newLayerName())
		d.svgElem.AddChild(g)
		for _, o := range orphans {
			g.AddChild(o)
		}
		d.layers = append(d.layers, l)
	}
	d.current = d.layers[len(d.layers)-1]
}
