package svgicon

import (
	"errors"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

var errColorSyntax = errors.New("svgicon: invalid color")

// Pattern is the paint of a fill or a stroke:
// either a PlainColor or a Gradient.
type Pattern interface {
	isPattern()
}

func (PlainColor) isPattern() {}
func (Gradient) isPattern()   {}

// PlainColor is an uniform paint.
type PlainColor struct {
	color.NRGBA
}

// NewPlainColor returns the color with the given components.
func NewPlainColor(r, g, b, a uint8) PlainColor {
	return PlainColor{color.NRGBA{R: r, G: g, B: b, A: a}}
}

// GradientUnits is the type for gradient units
type GradientUnits byte

// SVG bounds paremater constants
const (
	ObjectBoundingBox GradientUnits = iota
	UserSpaceOnUse
)

// SpreadMethod is the type for spread parameters
type SpreadMethod byte

// SVG spread parameter constants
const (
	PadSpread SpreadMethod = iota
	ReflectSpread
	RepeatSpread
)

// GradStop represents a stop in the SVG 2.0 gradient specification
type GradStop struct {
	StopColor color.Color
	Offset    float64
	Opacity   float64
}

// Gradient holds a description of an SVG 2.0 gradient
type Gradient struct {
	Direction gradientDirecter
	Stops     []GradStop
	Bounds    Bounds
	Matrix    Matrix2D
	Spread    SpreadMethod
	Units     GradientUnits
}

// radial or linear
type gradientDirecter interface {
	isRadial() bool
}

// Linear holds x1, y1, x2, y2
type Linear [4]float64

func (Linear) isRadial() bool { return false }

// Radial holds cx, cy, fx, fy, r, fr
type Radial [6]float64

func (Radial) isRadial() bool { return true }

// optionnalColor is nil for `none`
type optionnalColor struct {
	valid bool
	color color.NRGBA
}

func (o optionnalColor) asPattern() Pattern {
	if !o.valid {
		return nil
	}
	return PlainColor{o.color}
}

func (o optionnalColor) asColor() color.Color {
	if !o.valid {
		return color.NRGBA{}
	}
	return o.color
}

// parseSVGColorNum reads the SVG color string e.g. #FBD9BD
func parseSVGColorNum(colorStr string) (r, g, b uint8, err error) {
	colorStr = strings.TrimPrefix(colorStr, "#")
	switch len(colorStr) {
	case 3:
		// duplicate characters for 3 digit hex numbers
		colorStr = string([]byte{colorStr[0], colorStr[0],
			colorStr[1], colorStr[1], colorStr[2], colorStr[2]})
	case 6:
	default:
		return 0, 0, 0, errColorSyntax
	}
	for _, v := range []struct {
		c *uint8
		s string
	}{
		{&r, colorStr[0:2]},
		{&g, colorStr[2:4]},
		{&b, colorStr[4:6]},
	} {
		t, err := strconv.ParseUint(v.s, 16, 8)
		if err != nil {
			return 0, 0, 0, errColorSyntax
		}
		*v.c = uint8(t)
	}
	return r, g, b, nil
}

// parseSVGColor parses an SVG color string in all forms,
// including all SVG1.1 names. `currentColor` resolves to `current`.
func parseSVGColor(colorStr string, current color.NRGBA) (optionnalColor, error) {
	v := strings.ToLower(strings.TrimSpace(colorStr))
	switch v {
	case "none", "transparent":
		return optionnalColor{}, nil
	case "currentcolor":
		return optionnalColor{valid: true, color: current}, nil
	case "":
		return optionnalColor{}, errColorSyntax
	}
	if cn, ok := colornames.Map[v]; ok {
		return optionnalColor{valid: true, color: color.NRGBA{cn.R, cn.G, cn.B, cn.A}}, nil
	}
	if cStr := strings.TrimPrefix(v, "rgb("); cStr != v {
		vals := strings.Split(strings.TrimSuffix(cStr, ")"), ",")
		if len(vals) != 3 {
			return optionnalColor{}, errColorSyntax
		}
		var cvals [3]uint8
		for i := range cvals {
			c, err := parseColorValue(vals[i])
			if err != nil {
				return optionnalColor{}, err
			}
			cvals[i] = c
		}
		return optionnalColor{valid: true, color: color.NRGBA{cvals[0], cvals[1], cvals[2], 0xFF}}, nil
	}
	if v[0] == '#' {
		r, g, b, err := parseSVGColorNum(v)
		if err != nil {
			return optionnalColor{}, err
		}
		return optionnalColor{valid: true, color: color.NRGBA{r, g, b, 0xFF}}, nil
	}
	return optionnalColor{}, errColorSyntax
}

func parseColorValue(v string) (uint8, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, errColorSyntax
	}
	percent := strings.HasSuffix(v, "%")
	n, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
	if err != nil {
		return 0, errColorSyntax
	}
	if percent {
		n = n * 0xFF / 100
	}
	return uint8(max(0, min(255, n))), nil
}
