package rewrite

import (
	"bytes"
	"go/ast"
	"strings"

	"github.com/teranos/cachedprop/naming"
)

// directive is one //cachedprop:<name> <payload> comment
type directive struct {
	comment *ast.Comment
	name    string
	payload string
}

func (d *directive) known() bool {
	return d.name == naming.StructDirective || d.name == naming.PropertyDirective
}

// parseDirective recognizes a directive comment. The name is the run of
// letters after the prefix; everything after it is the payload.
func parseDirective(c *ast.Comment) (*directive, bool) {
	rest, ok := strings.CutPrefix(c.Text, naming.DirectivePrefix)
	if !ok {
		return nil, false
	}

	i := 0
	for i < len(rest) && isLetter(rest[i]) {
		i++
	}
	return &directive{
		comment: c,
		name:    rest[:i],
		payload: strings.TrimSpace(rest[i:]),
	}, true
}

func isLetter(b byte) bool {
	return 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z' || b == '_'
}

// HasDirective reports whether src contains anything that looks like a
// cachedprop directive. It is a cheap pre-filter; File does the real parsing.
func HasDirective(src []byte) bool {
	return bytes.Contains(src, []byte(naming.DirectivePrefix))
}
