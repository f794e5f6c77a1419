package svgdom

import (
	"strings"

	"github.com/aymerick/douceur/parser"
)

// Declaration is one property of an inline style.
type Declaration struct{ Property, Value string }

// ParseStyle returns the declarations of the inline style s, in order,
// with lower case property names and trimmed values.
func ParseStyle(s string) ([]Declaration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	// douceur drops the value of an unterminated last declaration
	if !strings.HasSuffix(s, ";") {
		s += ";"
	}
	decls, err := parser.ParseDeclarations(s)
	if err != nil {
		return nil, err
	}
	out := make([]Declaration, len(decls))
	for i, d := range decls {
		out[i] = Declaration{strings.ToLower(strings.TrimSpace(d.Property)), strings.TrimSpace(d.Value)}
	}
	return out, nil
}
