package svgcanvas

import (
	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/benoitkugler/svgedit/svgdom"
)

// bindUses checks the target of every <use> under parent (included),
// looking ids up in scope. It returns the uses referring to a <symbol> or
// a nested <svg>. Dangling uses are logged and skipped.
func bindUses(log *zap.Logger, scope, parent *etree.Element) map[*etree.Element]bool {
	out := make(map[*etree.Element]bool)
	var uses []*etree.Element
	if parent.Tag == "use" {
		uses = []*etree.Element{parent}
	} else {
		uses = svgdom.DescendantsByTag(parent, "use")
	}
	for _, use := range uses {
		id, ok := svgdom.HrefRef(use)
		target := svgdom.ElementByID(scope, id)
		if !ok || target == nil {
			log.Warn("dangling use reference", zap.String("href", svgdom.Href(use)))
			continue
		}
		out[use] = target.Tag == "symbol" || target.Tag == "svg"
	}
	return out
}

// SetUseData binds the <use> elements under parent (included) to their target.
func (c *Canvas) SetUseData(parent *etree.Element) {
	for use, isSymbol := range bindUses(c.log, c.root, parent) {
		c.useSymbols[use] = isSymbol
	}
}

// UseRef returns the element referenced by use, resolved through its
// current href, and whether it is a symbol (or nested svg).
func (c *Canvas) UseRef(use *etree.Element) (ref *etree.Element, isSymbol bool) {
	id, ok := svgdom.HrefRef(use)
	if !ok {
		return nil, false
	}
	ref = c.ElementByID(id)
	if ref == nil {
		return nil, false
	}
	return ref, ref.Tag == "symbol" || ref.Tag == "svg"
}

// IsBoundUse reports whether use has been bound by SetUseData
// or by the import of a symbol.
func (c *Canvas) IsBoundUse(use *etree.Element) bool {
	_, ok := c.useSymbols[use]
	return ok
}
