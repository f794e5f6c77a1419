// Provides parsing and rendering of SVG images.
// SVG documents are parsed into an abstract representation,
// which can then be consumed by painting drivers.
// See for example svgedit/svgraster.
package svgicon

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/benoitkugler/svgedit/svgdom"
	"github.com/benoitkugler/svgedit/svgpath"
)

type (
	Matrix2D = svgpath.Matrix2D
	Path     = svgpath.Path
)

// Identity is the identity transformation.
var Identity = svgpath.Identity

var (
	errParamMismatch = errors.New("svgicon: param mismatch")
	errUseCycle      = errors.New("svgicon: cyclic <use> reference")

	// ErrInvalidIcon is returned for input which is not an SVG document.
	ErrInvalidIcon = errors.New("svgicon: invalid svg xml icon")
	// ErrUnsupportedElement is returned in StrictErrorMode
	// for elements the renderer can't draw.
	ErrUnsupportedElement = errors.New("svgicon: unsupported element")
)

// ErrorMode is the policy applied to elements
// the renderer does not handle.
type ErrorMode uint8

const (
	// IgnoreErrorMode skips them silently.
	IgnoreErrorMode ErrorMode = iota
	// WarnErrorMode logs a warning and skips them.
	WarnErrorMode
	// StrictErrorMode aborts the parsing.
	StrictErrorMode
)

// PathStyle holds the state of the SVG style
type PathStyle struct {
	Opacity                  float64 // group opacity, accumulated
	FillOpacity, LineOpacity float64
	LineWidth                float64
	UseNonZeroWinding        bool

	Join                    JoinOptions
	Dash                    DashOptions
	FillerColor, LinerColor Pattern // either PlainColor or Gradient

	transform Matrix2D // current transform
	current   PlainColor
	hidden    bool // display: none
	invisible bool // visibility: hidden
}

// SvgPath binds a style to a path
type SvgPath struct {
	Path  Path
	Style PathStyle
}

// SvgImage is an <image> element, whose content is
// resolved by the driver.
type SvgImage struct {
	Href    string
	Rect    Bounds
	Opacity float64

	transform Matrix2D
	// index of the first path painted after the image
	before int
}

// Bounds defines a bounding box, such as a viewport
// or a path extent.
type Bounds struct{ X, Y, W, H float64 }

// SvgIcon holds data from parsed SVGs.
// See the `Draw` methods to use it.
type SvgIcon struct {
	ViewBox      Bounds
	Titles       []string // Title elements collect here
	Descriptions []string // Description elements collect here
	SVGPaths     []SvgPath
	Images       []SvgImage
	Transform    Matrix2D

	Width, Height string // top level width and height attributes

	// Unsupported counts the elements skipped, by tag.
	Unsupported map[string]int
}

// ReadOption customizes the parsing.
type ReadOption func(*iconCursor)

// WithLogger sets the logger used in WarnErrorMode.
func WithLogger(log *zap.Logger) ReadOption {
	return func(c *iconCursor) { c.log = log }
}

// ReadIconElement builds the icon from an already parsed <svg> element.
// This only supports a sub-set of SVG, but
// is enough to draw many documents. errMode determines if the icon ignores, errors out, or logs a warning
// if it does not handle an element found in the tree.
func ReadIconElement(root *etree.Element, errMode ErrorMode, opts ...ReadOption) (*SvgIcon, error) {
	if root == nil || !svgdom.IsSVG(root, "svg") {
		return nil, ErrInvalidIcon
	}
	icon := &SvgIcon{Transform: Identity, Unsupported: make(map[string]int)}
	cursor := newCursor(icon, root, errMode)
	for _, opt := range opts {
		opt(cursor)
	}
	if err := cursor.readRoot(root); err != nil {
		return icon, err
	}
	return icon, nil
}

// ReadIconStream reads the Icon from the given io.Reader.
// See ReadIconElement for the supported subset.
func ReadIconStream(stream io.Reader, errMode ErrorMode, opts ...ReadOption) (*SvgIcon, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if _, err := doc.ReadFrom(stream); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidIcon, err)
	}
	return ReadIconElement(doc.Root(), errMode, opts...)
}

// ReadIcon reads the Icon from the named file
func ReadIcon(iconFile string, errMode ErrorMode, opts ...ReadOption) (*SvgIcon, error) {
	fin, errf := os.Open(iconFile)
	if errf != nil {
		return nil, errf
	}
	defer fin.Close()
	return ReadIconStream(fin, errMode, opts...)
}
