package svgcanvas

import "errors"

var (
	// ErrParse is returned for malformed XML input.
	ErrParse = errors.New("svgcanvas: malformed SVG text")
	// ErrNamespaceMismatch is returned when the parsed root is not an SVG element.
	ErrNamespaceMismatch = errors.New("svgcanvas: root element is not in the SVG namespace")
	// ErrNoLayer is returned when an operation needs a drawing context and none is available.
	ErrNoLayer = errors.New("svgcanvas: no current layer")
)
