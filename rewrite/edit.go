package rewrite

import (
	"bytes"
	"go/ast"
	"go/printer"
	"go/token"
	"sort"
	"strings"

	"github.com/teranos/cachedprop/errors"
	"github.com/teranos/cachedprop/naming"
)

// edit replaces src[start:end] with text. start == end inserts.
type edit struct {
	start, end int
	text       string
}

func (u *unit) insert(off int, text string) {
	u.edits = append(u.edits, edit{start: off, end: off, text: text})
}

func (u *unit) replace(start, end int, text string) {
	u.edits = append(u.edits, edit{start: start, end: end, text: text})
}

func (u *unit) offset(pos token.Pos) int {
	return u.tf.Offset(pos)
}

// ownLine reports whether only blanks precede off on its line, and if so
// returns the offset of the line start
func (u *unit) ownLine(off int) (int, bool) {
	i := off
	for i > 0 && (u.src[i-1] == ' ' || u.src[i-1] == '\t') {
		i--
	}
	if i == 0 || u.src[i-1] == '\n' {
		return i, true
	}
	return off, false
}

func (u *unit) lineStart(off int) int {
	start, _ := u.ownLine(off)
	return start
}

// lineEnd extends off past the newline ending its line, if off is there
func (u *unit) lineEnd(off int) int {
	if off < len(u.src) && u.src[off] == '\n' {
		return off + 1
	}
	if off+1 < len(u.src) && u.src[off] == '\r' && u.src[off+1] == '\n' {
		return off + 2
	}
	return off
}

// dropDirectiveLines deletes the directive lines of a doc comment, keeping
// the rest of the documentation
func (u *unit) dropDirectiveLines(doc *ast.CommentGroup) {
	if doc == nil {
		return
	}
	kept := make(map[*ast.Comment]bool)
	for _, c := range keptComments(doc, u.isDirective) {
		kept[c] = true
	}
	for _, c := range doc.List {
		if !kept[c] {
			u.replace(u.lineStart(u.offset(c.Pos())), u.lineEnd(u.offset(c.End())), "")
		}
	}
}

// keptComments filters a doc comment, also dropping the bare "//" lines
// left dangling at its end
func keptComments(doc *ast.CommentGroup, skip func(*ast.Comment) bool) []*ast.Comment {
	var kept []*ast.Comment
	for _, c := range doc.List {
		if skip == nil || !skip(c) {
			kept = append(kept, c)
		}
	}
	for len(kept) > 0 && strings.TrimSpace(kept[len(kept)-1].Text) == "//" {
		kept = kept[:len(kept)-1]
	}
	return kept
}

// applyEdits applies non-overlapping edits to src. Insertions at an offset
// go before a replacement starting there.
func applyEdits(src []byte, edits []edit) ([]byte, error) {
	sorted := make([]edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].start != sorted[j].start {
			return sorted[i].start < sorted[j].start
		}
		return sorted[i].end < sorted[j].end
	})

	var buf bytes.Buffer
	last := 0
	for _, e := range sorted {
		if e.start < last || e.end < e.start || e.end > len(src) {
			return nil, errors.Newf("edit [%d,%d) overlaps a previous edit ending at %d", e.start, e.end, last)
		}
		buf.Write(src[last:e.start])
		buf.WriteString(e.text)
		last = e.end
	}
	buf.Write(src[last:])
	return buf.Bytes(), nil
}

// printNode prints a synthesized node. Synthesized nodes have no positions of
// their own, so they are printed against an empty file set; comments are
// rendered separately by docText.
func printNode(node any) (string, error) {
	var buf bytes.Buffer
	cfg := printer.Config{Mode: printer.UseSpaces | printer.TabIndent, Tabwidth: 8}
	if err := cfg.Fprint(&buf, token.NewFileSet(), node); err != nil {
		return "", errors.Wrap(err, "failed to print generated declaration")
	}
	return buf.String(), nil
}

// docText renders a doc comment one comment per line, leaving out comments
// for which skip returns true
func docText(doc *ast.CommentGroup, skip func(*ast.Comment) bool) string {
	if doc == nil {
		return ""
	}
	var b strings.Builder
	for _, c := range keptComments(doc, skip) {
		b.WriteString(c.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// renderStorage renders the storage type with its doc, as a standalone
// declaration or as a spec inside a type group
func renderStorage(spec *ast.TypeSpec, standalone bool) (string, error) {
	bare := *spec
	bare.Doc = nil
	bare.Comment = nil

	text, err := printNode(&bare)
	if err != nil {
		return "", err
	}
	if standalone {
		text = "type " + text
	}
	return docText(spec.Doc, nil) + text, nil
}

// renderField renders the storage field appended to an augmented record
func renderField(record *ast.TypeSpec) (string, error) {
	fields := record.Type.(*ast.StructType).Fields.List
	last := fields[len(fields)-1]

	typ, err := printNode(last.Type)
	if err != nil {
		return "", err
	}
	return naming.StorageField + " " + typ, nil
}

func renderFunc(fd *ast.FuncDecl) (string, error) {
	bare := *fd
	bare.Doc = nil
	return printNode(&bare)
}
