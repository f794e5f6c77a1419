package svgexport

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"

	"go.uber.org/zap"

	"github.com/benoitkugler/svgedit/imagecache"
	"github.com/benoitkugler/svgedit/svgicon"
	"github.com/benoitkugler/svgedit/svgraster"
)

// RasterOptions tunes a raster export.
type RasterOptions struct {
	// AvoidEvent disables the OnExported listeners.
	AvoidEvent bool
}

// RasterResult is the outcome of a raster export.
type RasterResult struct {
	Diagnostics
	// DataURI holds the encoded image.
	DataURI string
	// BlobURL references the encoded image in the exporter blob store.
	BlobURL string
	// SVG is the serialized drawing which was rendered.
	SVG string
	// Type is the requested type, like "PNG" or "ICO".
	Type string
	// MIMEType is the MIME type derived from Type. Types without
	// encoder are written as PNG, which DataURI reflects.
	MIMEType   string
	Quality    float64
	WindowName string
}

// rasterize renders the serialized drawing svg on a w x h image.
func (ex *Exporter) rasterize(svg string, w, h int, background color.Color) (*image.RGBA, error) {
	icon, err := svgicon.ReadIconStream(strings.NewReader(svg), svgicon.WarnErrorMode, svgicon.WithLogger(ex.log))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRender, err)
	}
	img, errs := svgraster.Rasterize(icon, w, h, background, svgraster.DataURIs{})
	for _, err := range errs {
		ex.log.Warn("image skipped in export", zap.Error(err))
	}
	return img, nil
}

// RasterExport renders the drawing at its size on screen and encodes
// it with the given type (PNG, JPEG, BMP, WEBP or ICO, written as BMP).
// quality, in ]0, 1], defaults to 1 and is only used for JPEG.
// Images which can't be loaded are skipped.
func (ex *Exporter) RasterExport(ctx context.Context, imgType string, quality float64, windowName string, opts RasterOptions) (*RasterResult, error) {
	if imgType == "" {
		imgType = "PNG"
	}
	imgType = strings.ToUpper(imgType)
	if quality <= 0 || quality > 1 {
		quality = 1
	}
	if windowName == "" {
		windowName = "Exported Image"
	}
	typ := imgType
	if typ == "ICO" {
		typ = "BMP"
	}
	mime := "image/" + strings.ToLower(typ)

	diag := ex.diagnostics(false)
	svg := ex.canvas.SVGToString(ex.snapshot(ctx), 0)

	// formats without alpha channel are composed on white
	var background color.Color
	if mime == "image/jpeg" || mime == "image/bmp" {
		background = color.White
	}
	w, h := ex.pixelSize()
	img, err := ex.rasterize(svg, w, h, background)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	used, err := svgraster.Encode(&buf, img, mime, quality)
	if err != nil {
		return nil, fmt.Errorf("svgexport: encoding %s: %w", mime, err)
	}
	data := buf.Bytes()
	res := &RasterResult{
		Diagnostics: diag,
		DataURI:     imagecache.DataURI(used, data),
		BlobURL:     ex.blobs.Create(used, data),
		SVG:         svg,
		Type:        imgType,
		MIMEType:    mime,
		Quality:     quality,
		WindowName:  windowName,
	}
	if !opts.AvoidEvent {
		for _, fn := range ex.onExported {
			fn(res)
		}
	}
	return res, nil
}
