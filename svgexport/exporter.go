// Package svgexport turns the drawing of a canvas into raster images
// and PDF documents.
//
// Every export works on a copy of the drawing, whose external images
// are first resolved to data URIs. The copy is serialized, and the
// serialized text is returned with the produced artifact.
package svgexport

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/benoitkugler/svgedit/imagecache"
	"github.com/benoitkugler/svgedit/svgcanvas"
	"github.com/benoitkugler/svgedit/svgdom"
	"github.com/benoitkugler/svgedit/svgpdf"
)

// ImageResolver loads the external images of the drawing.
// It is implemented by *imagecache.Cache.
type ImageResolver interface {
	// ResolveAll loads urls, returning the failures by url.
	ResolveAll(ctx context.Context, urls []string) map[string]error
	// Encodable returns the data URI of a loaded url.
	Encodable(url string) (string, bool)
}

// PDFSurface is a PDF page which can be encoded once drawn.
type PDFSurface interface {
	svgpdf.Surface
	Bytes() ([]byte, error)
}

// PDFBackend creates the one page w x h document of a PDF export.
type PDFBackend func(w, h float64, info svgpdf.Info) (PDFSurface, error)

func gofpdfBackend(w, h float64, info svgpdf.Info) (PDFSurface, error) {
	return svgpdf.NewDocument(w, h, info), nil
}

// Exporter produces the exports of one canvas.
// Like the canvas, it is not safe for concurrent use.
type Exporter struct {
	canvas  *svgcanvas.Canvas
	log     *zap.Logger
	images  ImageResolver
	blobs   *BlobStore
	backend PDFBackend

	onExported    []func(*RasterResult)
	onExportedPDF []func(*PDFResult)
}

// Option customizes an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger used for diagnostics.
func WithLogger(log *zap.Logger) Option { return func(ex *Exporter) { ex.log = log } }

// WithImages sets the resolver used for external images.
func WithImages(images ImageResolver) Option { return func(ex *Exporter) { ex.images = images } }

// WithBlobStore sets the store receiving the raster exports.
func WithBlobStore(blobs *BlobStore) Option { return func(ex *Exporter) { ex.blobs = blobs } }

// WithPDFBackend replaces the gofpdf backend.
func WithPDFBackend(backend PDFBackend) Option { return func(ex *Exporter) { ex.backend = backend } }

// New returns an exporter for canvas.
func New(canvas *svgcanvas.Canvas, opts ...Option) *Exporter {
	ex := &Exporter{
		canvas:  canvas,
		log:     zap.NewNop(),
		blobs:   NewBlobStore(),
		backend: gofpdfBackend,
	}
	for _, opt := range opts {
		opt(ex)
	}
	if ex.images == nil {
		ex.images = imagecache.New(imagecache.WithLogger(ex.log))
	}
	return ex
}

// Blobs returns the store of the raster exports.
func (ex *Exporter) Blobs() *BlobStore { return ex.blobs }

// OnExported registers a listener called after each raster export.
func (ex *Exporter) OnExported(fn func(*RasterResult)) {
	ex.onExported = append(ex.onExported, fn)
}

// OnExportedPDF registers a listener called after each PDF export.
func (ex *Exporter) OnExportedPDF(fn func(*PDFResult)) {
	ex.onExportedPDF = append(ex.onExportedPDF, fn)
}

// Diagnostics lists the known limitations met by an export.
type Diagnostics struct {
	// Issues are the human readable descriptions.
	Issues []string
	// IssueCodes are the locale independent codes, in the same order.
	IssueCodes []string
}

func (ex *Exporter) diagnostics(textRendering bool) Diagnostics {
	var d Diagnostics
	for _, issue := range ex.canvas.Issues(textRendering) {
		d.Issues = append(d.Issues, issue.Description)
		d.IssueCodes = append(d.IssueCodes, issue.Code)
	}
	return d
}

// snapshot copies the drawing, replacing the external
// images which could be loaded by data URIs.
func (ex *Exporter) snapshot(ctx context.Context) *etree.Element {
	clone := ex.canvas.SVGContent().Copy()
	images := svgdom.DescendantsByTag(clone, "image")
	var urls []string
	seen := map[string]bool{}
	for _, img := range images {
		href := svgdom.Href(img)
		if href == "" || strings.HasPrefix(href, "data:") || seen[href] {
			continue
		}
		seen[href] = true
		urls = append(urls, href)
	}
	if len(urls) == 0 {
		return clone
	}
	failures := ex.images.ResolveAll(ctx, urls)
	for url, err := range failures {
		ex.log.Warn("image not embedded in export", zap.String("url", url), zap.Error(err))
	}
	for _, img := range images {
		if data, ok := ex.images.Encodable(svgdom.Href(img)); ok {
			svgdom.SetHref(img, data)
		}
	}
	return clone
}

// pixelSize returns the size of the drawing at the current zoom.
func (ex *Exporter) pixelSize() (int, int) {
	w, h := ex.canvas.Resolution()
	z := ex.canvas.Zoom()
	return int(math.Ceil(w * z)), int(math.Ceil(h * z))
}

// BlobStore keeps exported artifacts available by URL
// until they are revoked.
type BlobStore struct {
	mu    sync.Mutex
	next  int
	blobs map[string]Blob
}

// Blob is an exported artifact.
type Blob struct {
	MIME string
	Data []byte
}

// NewBlobStore returns an empty store.
func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string]Blob)}
}

// Create stores data and returns its URL.
func (s *BlobStore) Create(mime string, data []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	url := "blob:svgedit/" + strconv.Itoa(s.next)
	s.blobs[url] = Blob{MIME: mime, Data: data}
	return url
}

// Get returns the blob stored for url.
func (s *BlobStore) Get(url string) (Blob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[url]
	return b, ok
}

// Revoke releases url. Unknown urls are ignored.
func (s *BlobStore) Revoke(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, url)
}

// URLs returns the live urls, sorted.
func (s *BlobStore) URLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.blobs))
	for url := range s.blobs {
		out = append(out, url)
	}
	sort.Strings(out)
	return out
}
