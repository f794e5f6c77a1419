package svgexport

import "errors"

var (
	// ErrBackendUnavailable is returned when the PDF document can't be
	// created or assembled. No partial document is produced.
	ErrBackendUnavailable = errors.New("svgexport: PDF backend unavailable")
	// ErrRender is returned when the drawing can't be rasterized.
	ErrRender = errors.New("svgexport: rendering failed")
	// ErrVectorMode is returned for an unknown advanced PDF vector mode.
	ErrVectorMode = errors.New("svgexport: unknown vector mode")
)
