package svgraster

import (
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// DefaultQuality is the JPEG quality used when none is given.
const DefaultQuality = 0.92

var encoders = map[string]imaging.Format{
	"image/png":  imaging.PNG,
	"image/jpeg": imaging.JPEG,
	"image/bmp":  imaging.BMP,
	"image/gif":  imaging.GIF,
	"image/tiff": imaging.TIFF,
}

// CanEncode reports whether images may be written with the given MIME type.
func CanEncode(mime string) bool {
	_, ok := encoders[mime]
	return ok
}

// Encode writes img with the given MIME type, falling back to PNG for
// unsupported types, and returns the MIME type actually used.
// quality, in ]0, 1], is only used for JPEG.
func Encode(w io.Writer, img image.Image, mime string, quality float64) (string, error) {
	format, ok := encoders[mime]
	if !ok {
		mime, format = "image/png", imaging.PNG
	}
	if quality <= 0 || quality > 1 {
		quality = DefaultQuality
	}
	err := imaging.Encode(w, img, format, imaging.JPEGQuality(int(quality*100+0.5)))
	return mime, err
}
