package svgpath

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// UnitsPerPx gives the size in user units (pixels) of one unit.
var UnitsPerPx = map[string]float64{
	"px": 1,
	"in": 96,
	"cm": 96 / 2.54,
	"mm": 96 / 25.4,
	"pt": 96. / 72,
	"pc": 96. / 6,
	"em": 16,
	"ex": 8,
	"%":  0,
}

// attributes resolved against the viewport width (resp. height)
var (
	widthAttrs  = map[string]bool{"x": true, "x1": true, "x2": true, "cx": true, "rx": true, "width": true}
	heightAttrs = map[string]bool{"y": true, "y1": true, "y2": true, "cy": true, "ry": true, "height": true}
)

var numberRe = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// IsNumeric reports whether s is a plain number literal.
func IsNumeric(s string) bool {
	return numberRe.MatchString(strings.TrimSpace(s))
}

// ShortFloat rounds v to `digits` decimals and formats it
// without trailing zeros.
func ShortFloat(v float64, digits int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', digits, 64), 64)
	if r == 0 {
		r = 0 // normalizes -0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// ConvertUnit expresses the user space length `px` in `unit`,
// shortened to `digits` decimals.
func ConvertUnit(px float64, unit string, digits int) string {
	factor, ok := UnitsPerPx[unit]
	if !ok || factor == 0 {
		return ShortFloat(px, digits)
	}
	return ShortFloat(px/factor, digits)
}

// ConvertToNum resolves the length `val` of the attribute `attr`
// to user units. Percentages are resolved against the viewport size.
func ConvertToNum(attr, val string, viewportW, viewportH float64) (float64, error) {
	val = strings.TrimSpace(val)
	if IsNumeric(val) {
		return strconv.ParseFloat(val, 64)
	}
	if strings.HasSuffix(val, "%") {
		num, err := strconv.ParseFloat(strings.TrimSuffix(val, "%"), 64)
		if err != nil {
			return 0, err
		}
		num /= 100
		switch {
		case widthAttrs[attr]:
			return num * viewportW, nil
		case heightAttrs[attr]:
			return num * viewportH, nil
		default:
			return num * math.Sqrt(viewportW*viewportW+viewportH*viewportH) / math.Sqrt2, nil
		}
	}
	if len(val) < 2 {
		return 0, fmt.Errorf("svgpath: invalid length %q", val)
	}
	unit := val[len(val)-2:]
	factor, ok := UnitsPerPx[unit]
	if !ok {
		return 0, fmt.Errorf("svgpath: unknown unit in %q", val)
	}
	num, err := strconv.ParseFloat(strings.TrimSpace(val[:len(val)-2]), 64)
	if err != nil {
		return 0, err
	}
	return num * factor, nil
}
