package svgpath

import (
	"fmt"

	"github.com/tdewolff/parse/v2/strconv"
)

func isSeparator(c byte) bool {
	return c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func skipSeparators(b []byte, i int) int {
	for i < len(b) && isSeparator(b[i]) {
		i++
	}
	return i
}

// ParseNumbers reads a list of numbers separated by
// whitespace and/or commas, as found in `points`, `viewBox`
// or transform arguments.
func ParseNumbers(s string) ([]float64, error) {
	b := []byte(s)
	var out []float64
	for i := skipSeparators(b, 0); i < len(b); i = skipSeparators(b, i) {
		f, n := strconv.ParseFloat(b[i:])
		if n == 0 {
			return out, fmt.Errorf("svgpath: invalid number at %q", s[i:])
		}
		out = append(out, f)
		i += n
	}
	return out, nil
}
