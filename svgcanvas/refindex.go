package svgcanvas

import (
	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/benoitkugler/svgedit/svgdom"
)

// AttrRef is an attribute holding a `url(#id)` reference.
type AttrRef struct {
	Element *etree.Element
	Name    string
}

// RefEntry gathers the element owning an id and its referrers.
type RefEntry struct {
	// Owner is the last element carrying the id, or nil
	// for a dangling reference.
	Owner *etree.Element
	// Duplicates are the other elements carrying the same id,
	// in document order.
	Duplicates []*etree.Element
	Attrs      []AttrRef
	Hrefs      []*etree.Element
}

// RefIndex maps each identifier of a subtree to its owner and referrers.
type RefIndex struct {
	ids     []string
	entries map[string]*RefEntry
}

func (idx *RefIndex) entry(id string) *RefEntry {
	e, ok := idx.entries[id]
	if !ok {
		e = new(RefEntry)
		idx.entries[id] = e
		idx.ids = append(idx.ids, id)
	}
	return e
}

// BuildRefIndex walks the subtree rooted at root (included) once, registering
// owned ids, `url(#id)` reference attributes and local hrefs
// of the elements allowed to alias another one.
//
// References hidden in custom attributes (like `se:connector`) are not indexed.
func BuildRefIndex(root *etree.Element) *RefIndex {
	idx := &RefIndex{entries: make(map[string]*RefEntry)}
	svgdom.Walk(root, func(e *etree.Element) bool {
		if id, _ := svgdom.Attr(e, "id"); id != "" {
			entry := idx.entry(id)
			if entry.Owner != nil {
				entry.Duplicates = append(entry.Duplicates, entry.Owner)
			}
			entry.Owner = e
		}
		for _, name := range svgdom.RefAttrs {
			v, ok := svgdom.Attr(e, name)
			if !ok {
				continue
			}
			if id, ok := svgdom.URLRef(v); ok && id != "" {
				entry := idx.entry(id)
				entry.Attrs = append(entry.Attrs, AttrRef{Element: e, Name: name})
			}
		}
		if svgdom.HrefElements[e.Tag] {
			if id, ok := svgdom.HrefRef(e); ok {
				entry := idx.entry(id)
				entry.Hrefs = append(entry.Hrefs, e)
			}
		}
		return true
	})
	return idx
}

// IDs returns the registered identifiers, in discovery order.
func (idx *RefIndex) IDs() []string { return idx.ids }

// Entry returns the entry for id, or nil.
func (idx *RefIndex) Entry(id string) *RefEntry { return idx.entries[id] }

// Referrers returns the elements pointing to id, through an attribute or an href.
func (idx *RefIndex) Referrers(id string) []*etree.Element {
	entry := idx.entries[id]
	if entry == nil {
		return nil
	}
	out := make([]*etree.Element, 0, len(entry.Attrs)+len(entry.Hrefs))
	for _, a := range entry.Attrs {
		out = append(out, a.Element)
	}
	return append(out, entry.Hrefs...)
}

// uniquify gives a fresh id to every element owning one under root and
// rewrites the references accordingly. Dangling references are left untouched,
// as are the elements already renamed by a previous call.
// The returned map associates the new ids to the old ones.
func uniquify(root *etree.Element, d *Drawing) map[string]string {
	idx := BuildRefIndex(root)
	next := func() string {
		for {
			id := d.NextID()
			if _, used := idx.entries[id]; !used {
				return id
			}
		}
	}
	renamed := make(map[string]string)
	for _, oldID := range idx.ids {
		entry := idx.entries[oldID]
		if entry.Owner == nil {
			continue
		}
		if len(entry.Duplicates) == 0 && d.assigned[oldID] == entry.Owner {
			continue
		}
		for _, dup := range entry.Duplicates {
			id := next()
			dup.CreateAttr("id", id)
			d.assigned[id] = dup
		}
		newID := next()
		entry.Owner.CreateAttr("id", newID)
		d.assigned[newID] = entry.Owner
		renamed[newID] = oldID

		for _, a := range entry.Attrs {
			a.Element.CreateAttr(a.Name, svgdom.URL(newID))
		}
		for _, e := range entry.Hrefs {
			svgdom.SetHref(e, "#"+newID)
		}
	}
	return renamed
}

// UniquifyElems renames every id found under root with a fresh
// identifier of the current drawing, keeping references consistent.
func (c *Canvas) UniquifyElems(root *etree.Element) {
	renamed := uniquify(root, c.drawing)
	c.log.Debug("uniquified ids", zap.Int("count", len(renamed)))
}
