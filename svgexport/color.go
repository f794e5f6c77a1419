package svgexport

import (
	"image/color"
	"regexp"
	"strconv"
	"strings"
)

var (
	black = color.RGBA{A: 0xff}

	namedColors = map[string]color.RGBA{
		"black":   black,
		"white":   {0xff, 0xff, 0xff, 0xff},
		"red":     {0xff, 0, 0, 0xff},
		"green":   {0, 0xff, 0, 0xff},
		"blue":    {0, 0, 0xff, 0xff},
		"yellow":  {0xff, 0xff, 0, 0xff},
		"cyan":    {0, 0xff, 0xff, 0xff},
		"magenta": {0xff, 0, 0xff, 0xff},
	}

	rgbRe = regexp.MustCompile(`^rgb\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*\)$`)
)

// ParseColor reads the paint colors understood by the PDF export:
// #rgb and #rrggbb, rgb(r, g, b) and a few color names.
// It returns nil for "none" or an empty value, and black
// for anything else.
func ParseColor(s string) *color.RGBA {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "none" {
		return nil
	}
	out := black
	switch {
	case strings.HasPrefix(s, "#"):
		if c, ok := parseHex(s[1:]); ok {
			out = c
		}
	case rgbRe.MatchString(s):
		m := rgbRe.FindStringSubmatch(s)
		var v [3]uint8
		for i := range v {
			n, _ := strconv.Atoi(m[i+1])
			v[i] = uint8(min(n, 0xff))
		}
		out = color.RGBA{v[0], v[1], v[2], 0xff}
	default:
		if c, ok := namedColors[s]; ok {
			out = c
		}
	}
	return &out
}

func parseHex(s string) (color.RGBA, bool) {
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xff}, true
}
