package design

import (
	"regexp"
	"strings"
)

var (
	commentRe    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	colorRe      = regexp.MustCompile(`#[0-9a-fA-F]{3,8}\b|(?:rgb|hsl)a?\([^)]*\)`)
	breakpointRe = regexp.MustCompile(`@media[^{]*?\(\s*(?:max|min)-width\s*:\s*([0-9.]+(?:px|em|rem))\s*\)`)
)

var colorKeywords = map[string]bool{
	"inherit":      true,
	"initial":      true,
	"unset":        true,
	"transparent":  true,
	"currentcolor": true,
	"none":         true,
}

type declaration struct {
	prop  string
	value string
}

// stylesheetDeclarations returns the declarations of every rule block in
// css, including blocks nested in at-rules.
func stylesheetDeclarations(css string) []declaration {
	css = commentRe.ReplaceAllString(css, "")
	var (
		out []declaration
		seg strings.Builder
	)
	for _, r := range css {
		switch r {
		case '{':
			seg.Reset()
		case '}':
			out = append(out, parseDeclarations(seg.String())...)
			seg.Reset()
		default:
			seg.WriteRune(r)
		}
	}
	return out
}

// parseDeclarations reads "prop: value; ..." as found in a rule block or a
// style attribute.
func parseDeclarations(block string) []declaration {
	var out []declaration
	for _, part := range strings.Split(block, ";") {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.TrimSpace(prop)
		if !strings.HasPrefix(prop, "--") {
			prop = strings.ToLower(prop)
		}
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important"))
		if prop == "" || value == "" || strings.ContainsAny(prop, " \t\n") {
			continue
		}
		out = append(out, declaration{prop: prop, value: value})
	}
	return out
}

// colorValues extracts hex and functional colors from a value; a lone
// named color is returned as is.
func colorValues(value string) []string {
	if found := colorRe.FindAllString(value, -1); len(found) > 0 {
		return found
	}
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" || strings.ContainsAny(v, " (") || colorKeywords[v] || strings.HasPrefix(v, "var") {
		return nil
	}
	return []string{v}
}

func breakpoints(sheets []string) []string {
	s := newSet()
	for _, css := range sheets {
		for _, m := range breakpointRe.FindAllStringSubmatch(css, -1) {
			s.add(m[1])
		}
	}
	return s.list()
}
