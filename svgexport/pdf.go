package svgexport

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"net/url"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/benoitkugler/svgedit/svgpdf"
	"github.com/benoitkugler/svgedit/svgraster"
)

const (
	advancedCreator  = "SVGEdit Advanced PDF Export"
	advancedProducer = "SVGEdit with gofpdf"
	// resolution factor of the rasterized parts of an advanced export
	rasterScale = 2
)

// VectorMode selects what an advanced PDF export draws as vectors.
type VectorMode string

const (
	// Pure draws rectangles, circles, ellipses, lines, polylines, polygons,
	// text and images as vectors, rasterizes paths and drops the other
	// elements.
	Pure VectorMode = "pure"
	// Hybrid draws rectangles, circles, ellipses, lines and text as
	// vectors, everything else being rasterized.
	Hybrid VectorMode = "hybrid"
	// Raster rasterizes the whole drawing.
	Raster VectorMode = "raster"
)

// AdvancedOptions tunes an advanced PDF export.
type AdvancedOptions struct {
	// PreserveLayers writes each layer as an optional content group.
	PreserveLayers bool
	// EmbedFonts is accepted, but standard fonts are always used.
	EmbedFonts bool
	VectorMode VectorMode
}

// DefaultAdvancedOptions returns the options used by the editor.
func DefaultAdvancedOptions() AdvancedOptions {
	return AdvancedOptions{PreserveLayers: true, VectorMode: Hybrid}
}

// PDFResult is the outcome of a PDF export.
type PDFResult struct {
	Diagnostics
	// Output is the document as a data URI.
	Output string
	// Data is the encoded document.
	Data []byte
	// SVG is the serialized drawing which was exported.
	SVG        string
	WindowName string
	// Options is nil for the simple export.
	Options *AdvancedOptions
}

func pdfDataURI(windowName string, data []byte) string {
	return "data:application/pdf;filename=" + url.PathEscape(windowName) + ";base64," +
		base64.StdEncoding.EncodeToString(data)
}

func (ex *Exporter) newDocument(w, h float64, info svgpdf.Info) (PDFSurface, error) {
	doc, err := ex.backend(w, h, info)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, err)
	}
	return doc, nil
}

func encodePDF(doc PDFSurface) ([]byte, error) {
	data, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, err)
	}
	return data, nil
}

func (ex *Exporter) notifyPDF(res *PDFResult) {
	for _, fn := range ex.onExportedPDF {
		fn(res)
	}
}

// ExportPDF writes the drawing, rasterized at its resolution, in
// a one page document of the same size.
func (ex *Exporter) ExportPDF(ctx context.Context, windowName string) (*PDFResult, error) {
	if windowName == "" {
		windowName = "svg.pdf"
	}
	w, h := ex.canvas.Resolution()
	diag := ex.diagnostics(false)
	svg := ex.canvas.SVGToString(ex.snapshot(ctx), 0)

	img, err := ex.rasterize(svg, int(math.Ceil(w)), int(math.Ceil(h)), nil)
	if err != nil {
		return nil, err
	}
	var png bytes.Buffer
	if _, err := svgraster.Encode(&png, img, "image/png", 1); err != nil {
		return nil, fmt.Errorf("svgexport: encoding image: %w", err)
	}

	doc, err := ex.newDocument(w, h, svgpdf.Info{Title: ex.canvas.DocumentTitle()})
	if err != nil {
		return nil, err
	}
	if err := doc.Image(png.Bytes(), 0, 0, w, h); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, err)
	}
	data, err := encodePDF(doc)
	if err != nil {
		return nil, err
	}
	res := &PDFResult{
		Diagnostics: diag,
		Output:      pdfDataURI(windowName, data),
		Data:        data,
		SVG:         svg,
		WindowName:  windowName,
	}
	ex.notifyPDF(res)
	return res, nil
}

// scope is the part of the drawing written in one optional content
// group: a layer, given by its index in the drawing children, or the
// whole drawing for index -1.
type scope struct {
	name    string
	visible bool
	index   int
}

func (ex *Exporter) scopes(preserveLayers bool) (out []scope, layerIndexes map[int]bool) {
	layerIndexes = make(map[int]bool)
	if !preserveLayers {
		return []scope{{name: "Main Layer", visible: true, index: -1}}, layerIndexes
	}
	children := ex.canvas.SVGContent().ChildElements()
	for _, layer := range ex.canvas.Drawing().Layers() {
		for i, child := range children {
			if child == layer.Group() {
				out = append(out, scope{name: layer.Name(), visible: layer.IsVisible(), index: i})
				layerIndexes[i] = true
			}
		}
	}
	if len(out) == 0 {
		out = []scope{{name: "Main Layer", visible: true, index: -1}}
	}
	return out, layerIndexes
}

// advancedExport holds the state of one advanced export
type advancedExport struct {
	ex   *Exporter
	doc  PDFSurface
	opts AdvancedOptions
	vectorizer
}

// ExportAdvancedPDF writes the drawing in a one page document,
// drawing the simple shapes as vectors according to opts.
// A shape which can't be drawn is logged and skipped; a failure
// of the PDF backend fails the whole export.
func (ex *Exporter) ExportAdvancedPDF(ctx context.Context, windowName string, opts AdvancedOptions) (*PDFResult, error) {
	if windowName == "" {
		windowName = "svg-advanced.pdf"
	}
	switch opts.VectorMode {
	case "":
		opts.VectorMode = Hybrid
	case Pure, Hybrid, Raster:
	default:
		return nil, fmt.Errorf("%w: %q", ErrVectorMode, opts.VectorMode)
	}
	if opts.EmbedFonts {
		ex.log.Debug("font embedding not available, using standard fonts")
	}

	w, h := ex.canvas.Resolution()
	diag := ex.diagnostics(opts.VectorMode != Raster)
	clone := ex.snapshot(ctx)
	svg := ex.canvas.SVGToString(clone.Copy(), 0)

	doc, err := ex.newDocument(w, h, svgpdf.Info{
		Title:    ex.canvas.DocumentTitle(),
		Creator:  advancedCreator,
		Producer: advancedProducer,
	})
	if err != nil {
		return nil, err
	}
	adv := &advancedExport{ex: ex, doc: doc, opts: opts, vectorizer: vectorizer{surface: doc, pageW: w, pageH: h}}
	scopes, layers := ex.scopes(opts.PreserveLayers)
	for _, sc := range scopes {
		if err := adv.render(clone, sc, layers); err != nil {
			return nil, err
		}
	}
	data, err := encodePDF(doc)
	if err != nil {
		return nil, err
	}
	res := &PDFResult{
		Diagnostics: diag,
		Output:      pdfDataURI(windowName, data),
		Data:        data,
		SVG:         svg,
		WindowName:  windowName,
		Options:     &opts,
	}
	ex.notifyPDF(res)
	return res, nil
}

// render writes one scope: its vector shapes first, then
// the raster image of what remains.
func (adv *advancedExport) render(clone *etree.Element, sc scope, layers map[int]bool) error {
	page := clone.Copy()
	root := page
	p := defaultPaint().with(page)
	if sc.index >= 0 {
		children := page.ChildElements()
		for i := range layers {
			if i != sc.index {
				page.RemoveChild(children[i])
			}
		}
		root = children[sc.index]
		// hidden layers are drawn in an hidden group
		root.RemoveAttr("display")
		p = p.with(root)
	}
	if adv.opts.PreserveLayers {
		adv.doc.BeginLayer(sc.name, sc.visible)
		defer adv.doc.EndLayer()
	}

	needRaster := true
	if adv.opts.VectorMode != Raster {
		var dropped []*etree.Element
		needRaster = adv.walk(root, p, false, &dropped)
		for _, e := range dropped {
			e.Parent().RemoveChild(e)
		}
	}
	if !needRaster {
		return nil
	}
	return adv.rasterLayer(page)
}

type disposition uint8

const (
	vectorize disposition = iota
	rasterize
	drop
)

func (m VectorMode) dispose(kind primitive) disposition {
	switch m {
	case Pure:
		switch kind {
		case primPath:
			return rasterize
		case 0:
			return drop
		}
		return vectorize
	default:
		switch kind {
		case primRect, primCircle, primEllipse, primLine, primText:
			return vectorize
		}
		return rasterize
	}
}

// walk draws the vector shapes below e, recording them in dropped,
// and reports whether something remains to be rasterized.
func (adv *advancedExport) walk(e *etree.Element, p paint, transformed bool, dropped *[]*etree.Element) (needRaster bool) {
	for _, child := range e.ChildElements() {
		if nonRendered[child.Tag] {
			continue
		}
		cp := p.with(child)
		if cp.display == "none" {
			continue
		}
		t := transformed || hasTransform(child)
		if containers[child.Tag] {
			if adv.walk(child, cp, t, dropped) {
				needRaster = true
			}
			continue
		}
		kind := primitives[child.Tag]
		disp := adv.opts.VectorMode.dispose(kind)
		if disp == vectorize && t {
			disp = rasterize
		}
		switch disp {
		case vectorize:
			if err := adv.draw(kind, child, cp); err != nil {
				adv.ex.log.Warn("shape skipped in PDF export", zap.String("tag", child.Tag),
					zap.String("id", child.SelectAttrValue("id", "")), zap.Error(err))
			}
			*dropped = append(*dropped, child)
		case drop:
			adv.ex.log.Warn("element not supported in pure vector mode", zap.String("tag", child.Tag),
				zap.String("id", child.SelectAttrValue("id", "")))
			*dropped = append(*dropped, child)
		case rasterize:
			needRaster = true
		}
	}
	return needRaster
}

// rasterLayer draws page at a higher resolution on the whole page.
func (adv *advancedExport) rasterLayer(page *etree.Element) error {
	svg := adv.ex.canvas.SVGToString(page, 0)
	w := int(math.Ceil(adv.pageW * rasterScale))
	h := int(math.Ceil(adv.pageH * rasterScale))
	img, err := adv.ex.rasterize(svg, w, h, nil)
	if err != nil {
		return err
	}
	var png bytes.Buffer
	if _, err := svgraster.Encode(&png, img, "image/png", 1); err != nil {
		return fmt.Errorf("svgexport: encoding image: %w", err)
	}
	if err := adv.doc.Image(png.Bytes(), 0, 0, adv.pageW, adv.pageH); err != nil {
		return fmt.Errorf("%w: %s", ErrBackendUnavailable, err)
	}
	return nil
}
