package rewrite

import (
	"fmt"
	"go/ast"
	"go/build/constraint"
	"go/token"
	"slices"
	"strings"

	"github.com/teranos/cachedprop/augment"
	"github.com/teranos/cachedprop/errors"
	"github.com/teranos/cachedprop/logger"
	"github.com/teranos/cachedprop/naming"
	"github.com/teranos/cachedprop/split"
)

// splitMethod is a method pass result with the declaration it came from
type splitMethod struct {
	*split.Result
	decl *ast.FuncDecl
}

// unit is the state of one File call
type unit struct {
	t        *Transformer
	fset     *token.FileSet
	tf       *token.File
	file     *ast.File
	filename string
	src      []byte

	directives map[*ast.Comment]*directive
	consumed   map[*ast.Comment]bool
	declared   map[string]bool
	records    map[string]*augment.Result
	methods    []splitMethod

	// receiver type -> method name -> declaring method, as written
	userMethods map[string]map[string]string

	edits  []edit
	diags  []*Diagnostic
	report FileReport
}

func newUnit(t *Transformer, fset *token.FileSet, file *ast.File, filename string, src []byte) *unit {
	return &unit{
		t:          t,
		fset:       fset,
		tf:         fset.File(file.Pos()),
		file:       file,
		filename:   filename,
		src:        src,
		directives: make(map[*ast.Comment]*directive),
		consumed:   make(map[*ast.Comment]bool),
		declared:   make(map[string]bool),
		records:    make(map[string]*augment.Result),

		userMethods: make(map[string]map[string]string),
		report:      FileReport{Input: filename},
	}
}

// scan finds every directive comment in the file and reports unknown names
func (u *unit) scan() {
	for _, group := range u.file.Comments {
		for _, c := range group.List {
			d, ok := parseDirective(c)
			if !ok {
				continue
			}
			if !d.known() {
				u.fail(c.Pos(), "", errors.WithHintf(
					errors.NewUnknownDirectiveError("%s%s", naming.DirectivePrefix, d.name),
					"known directives are %s and %s",
					naming.Directive(naming.StructDirective), naming.Directive(naming.PropertyDirective)))
				u.consumed[c] = true
				continue
			}
			u.directives[c] = d
		}
	}
}

// take returns the known directives in a doc comment and marks them consumed
func (u *unit) take(doc *ast.CommentGroup) []*directive {
	if doc == nil {
		return nil
	}
	var out []*directive
	for _, c := range doc.List {
		if d, ok := u.directives[c]; ok {
			u.consumed[c] = true
			out = append(out, d)
		}
	}
	return out
}

func (u *unit) fail(pos token.Pos, decl string, err error) {
	u.diags = append(u.diags, &Diagnostic{
		Pos:  u.fset.Position(pos),
		Decl: decl,
		Err:  err,
	})
}

func (u *unit) misplaced(d *directive, decl, format string, args ...interface{}) {
	u.fail(d.comment.Pos(), decl, errors.NewMisplacedDirectiveError(
		"%s %s", naming.Directive(d.name), fmt.Sprintf(format, args...)))
}

func (u *unit) genDecl(gen *ast.GenDecl) {
	dirs := u.take(gen.Doc)

	if gen.Tok != token.TYPE {
		for _, spec := range gen.Specs {
			if vs, ok := spec.(*ast.ValueSpec); ok {
				dirs = append(dirs, u.take(vs.Doc)...)
			}
		}
		for _, d := range dirs {
			u.misplaced(d, "", "cannot annotate a %s declaration", gen.Tok)
		}
		return
	}

	for _, spec := range gen.Specs {
		u.declared[spec.(*ast.TypeSpec).Name.Name] = true
	}

	if gen.Lparen.IsValid() {
		for _, d := range dirs {
			u.fail(d.comment.Pos(), "", errors.WithHint(
				errors.NewMisplacedDirectiveError("%s is on a grouped type declaration", naming.Directive(d.name)),
				"move the directive onto the type inside the group"))
		}
		for _, spec := range gen.Specs {
			ts := spec.(*ast.TypeSpec)
			u.typeSpec(ts, ts.Pos(), ts.Doc, u.take(ts.Doc), true)
		}
		return
	}

	u.typeSpec(gen.Specs[0].(*ast.TypeSpec), gen.Pos(), gen.Doc, dirs, false)
}

// typeSpec runs the struct pass for a type carrying a struct directive.
// start is where the declaration begins and doc is the comment group holding
// the directive: the GenDecl's for a standalone declaration, the TypeSpec's
// inside a group.
func (u *unit) typeSpec(spec *ast.TypeSpec, start token.Pos, doc *ast.CommentGroup, dirs []*directive, grouped bool) {
	name := spec.Name.Name

	var found *directive
	for _, d := range dirs {
		switch {
		case d.name == naming.PropertyDirective:
			u.misplaced(d, name, "applies to methods, not types")
		case found != nil:
			u.misplaced(d, name, "is repeated")
		default:
			found = d
		}
	}
	if found == nil {
		return
	}

	props, err := augment.ParseProperties(found.payload)
	if err != nil {
		u.fail(found.comment.Pos(), name, err)
		return
	}
	res, err := augment.Struct(spec, props)
	if err != nil {
		u.fail(spec.Name.Pos(), name, err)
		return
	}

	storage, err := renderStorage(res.Storage, !grouped)
	if err != nil {
		u.fail(spec.Name.Pos(), name, err)
		return
	}
	field, err := renderField(res.Record)
	if err != nil {
		u.fail(spec.Name.Pos(), name, err)
		return
	}

	if doc != nil {
		start = doc.Pos()
	}
	u.insert(u.lineStart(u.offset(start)), storage+"\n\n")
	u.dropDirectiveLines(doc)
	u.appendField(spec.Type.(*ast.StructType), field)

	u.records[name] = res
	u.report.Records = append(u.report.Records, RecordReport{
		Name:       name,
		Storage:    res.Storage.Name.Name,
		Properties: res.PropertyNames(),
	})
	u.t.log.Debugw("Augmented struct",
		logger.FieldFile, u.filename,
		logger.FieldDecl, name,
		logger.FieldCount, len(props))
}

// appendField adds the storage field before the struct's closing brace
func (u *unit) appendField(st *ast.StructType, field string) {
	closing := u.offset(st.Fields.Closing)
	if start, ok := u.ownLine(closing); ok {
		u.insert(start, field+"\n")
		return
	}
	u.insert(closing, "\n"+field+"\n")
}

func (u *unit) funcDecl(fd *ast.FuncDecl) {
	desc := split.Describe(fd)
	dirs := u.take(fd.Doc)

	if fd.Recv != nil && len(fd.Recv.List) > 0 {
		recv := split.BaseTypeName(fd.Recv.List[0].Type)
		if u.userMethods[recv] == nil {
			u.userMethods[recv] = make(map[string]string)
		}
		u.userMethods[recv][fd.Name.Name] = desc
	}

	var found *directive
	for _, d := range dirs {
		switch {
		case d.name == naming.StructDirective:
			u.misplaced(d, desc, "applies to struct types, not methods")
		case found != nil:
			u.misplaced(d, desc, "is repeated")
		default:
			found = d
		}
	}
	if found == nil {
		return
	}

	res, err := split.Method(fd, found.payload)
	if err != nil {
		u.fail(fd.Name.Pos(), desc, err)
		return
	}

	prefetch, err := renderFunc(res.Prefetch)
	if err != nil {
		u.fail(fd.Name.Pos(), desc, err)
		return
	}
	cachedRead, err := renderFunc(res.CachedRead)
	if err != nil {
		u.fail(fd.Name.Pos(), desc, err)
		return
	}

	// The user's documentation moves to the cached read, which keeps the name.
	funcStart := u.lineStart(u.offset(fd.Pos()))
	docStart := funcStart
	if fd.Doc != nil {
		docStart = u.lineStart(u.offset(fd.Doc.Pos()))
	}
	u.replace(docStart, funcStart, docText(res.Original.Doc, nil))
	u.replace(u.offset(fd.Name.Pos()), u.offset(fd.Name.End()), res.Original.Name.Name)

	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(docText(res.Prefetch.Doc, nil))
	b.WriteString(prefetch)
	b.WriteString("\n\n")
	b.WriteString(docText(res.CachedRead.Doc, u.isDirective))
	b.WriteString(cachedRead)
	u.insert(u.offset(fd.End()), b.String())

	u.methods = append(u.methods, splitMethod{Result: res, decl: fd})
	u.report.Methods = append(u.report.Methods, MethodReport{
		Receiver:   res.Receiver,
		Property:   res.Property,
		Original:   res.Original.Name.Name,
		Prefetch:   res.Prefetch.Name.Name,
		CachedRead: res.CachedRead.Name.Name,
	})
	u.t.log.Debugw("Split method",
		logger.FieldFile, u.filename,
		logger.FieldDecl, desc)
}

func (u *unit) isDirective(c *ast.Comment) bool {
	_, ok := u.directives[c]
	return ok
}

// collisions reports generated methods whose name is already taken on their
// receiver, either by a method declared in the file or by a method generated
// for another property. Derived names capitalize the property, so Area and
// area both map to cachedPropertyMethodArea.
func (u *unit) collisions() {
	taken := make(map[string]map[string]string)
	for recv, names := range u.userMethods {
		taken[recv] = make(map[string]string, len(names))
		for name, desc := range names {
			taken[recv][name] = "method " + desc
		}
	}

	for _, m := range u.methods {
		desc := split.Describe(m.decl)
		if taken[m.Receiver] == nil {
			taken[m.Receiver] = make(map[string]string)
		}
		for _, name := range []string{m.Original.Name.Name, m.Prefetch.Name.Name} {
			if owner, ok := taken[m.Receiver][name]; ok {
				u.fail(m.decl.Name.Pos(), desc, errors.WithHintf(
					errors.NewUnsupportedSignatureError("generated method %s collides with %s", name, owner),
					"rename %s or the other method; generated names must be unique on %s", m.Property, m.Receiver))
				continue
			}
			taken[m.Receiver][name] = "the method generated for " + desc
		}
	}
}

// strays reports directives that no declaration picked up, such as ones on
// struct fields, inside function bodies or separated from a declaration by a
// blank line
func (u *unit) strays() {
	for _, group := range u.file.Comments {
		for _, c := range group.List {
			d, ok := u.directives[c]
			if !ok || u.consumed[c] {
				continue
			}
			u.fail(c.Pos(), "", errors.WithHint(
				errors.NewMisplacedDirectiveError("%s is not attached to a declaration", naming.Directive(d.name)),
				"place the directive in the doc comment directly above a struct type or method"))
		}
	}
}

// checkReceivers warns about split methods whose storage cannot exist: the
// receiver is declared in this file but does not list the property. The
// passes stay independent, so this never fails the file; the compiler will.
func (u *unit) checkReceivers() {
	for _, m := range u.methods {
		rec, annotated := u.records[m.Receiver]
		switch {
		case annotated && !slices.Contains(rec.PropertyNames(), m.Property):
			u.t.log.Warnw("Cached property is not declared on its receiver",
				logger.FieldFile, u.filename,
				logger.FieldDecl, m.Receiver,
				logger.FieldProperty, m.Property)
		case !annotated && u.declared[m.Receiver]:
			u.t.log.Warnw("Receiver of cached property has no struct directive",
				logger.FieldFile, u.filename,
				logger.FieldDecl, m.Receiver,
				logger.FieldProperty, m.Property)
		}
	}
}

// dropBuildConstraint removes the build tag that keeps the input out of
// normal builds. A tag inside a conjunction is removed from it; anything
// more complex is left alone with a warning.
func (u *unit) dropBuildConstraint() {
	tag := u.t.opts.BuildTag
	for _, group := range u.file.Comments {
		if group.Pos() >= u.file.Package {
			break
		}
		for _, c := range group.List {
			if !constraint.IsGoBuild(c.Text) && !constraint.IsPlusBuild(c.Text) {
				continue
			}
			expr, err := constraint.Parse(c.Text)
			if err != nil {
				continue
			}

			rest, found := withoutTag(expr, tag)
			switch {
			case !found:
				if mentionsTag(expr, tag) {
					u.t.log.Warnw("Build constraint mentions the cachedprop tag but cannot be simplified",
						logger.FieldFile, u.filename,
						"constraint", c.Text)
				}
			case rest == nil:
				start := u.lineStart(u.offset(c.Pos()))
				u.replace(start, u.lineEnd(u.offset(c.End())), "")
			case constraint.IsGoBuild(c.Text):
				u.replace(u.offset(c.Pos()), u.offset(c.End()), "//go:build "+rest.String())
			default:
				u.t.log.Warnw("Leaving legacy +build line unchanged",
					logger.FieldFile, u.filename,
					"constraint", c.Text)
			}
		}
	}
}

// withoutTag removes tag from a constraint when it is the whole constraint
// or one operand of a conjunction. A nil result means nothing remains.
func withoutTag(x constraint.Expr, tag string) (constraint.Expr, bool) {
	switch x := x.(type) {
	case *constraint.TagExpr:
		if x.Tag == tag {
			return nil, true
		}
	case *constraint.AndExpr:
		if l, ok := withoutTag(x.X, tag); ok {
			if l == nil {
				return x.Y, true
			}
			return &constraint.AndExpr{X: l, Y: x.Y}, true
		}
		if r, ok := withoutTag(x.Y, tag); ok {
			if r == nil {
				return x.X, true
			}
			return &constraint.AndExpr{X: x.X, Y: r}, true
		}
	}
	return x, false
}

func mentionsTag(x constraint.Expr, tag string) bool {
	switch x := x.(type) {
	case *constraint.TagExpr:
		return x.Tag == tag
	case *constraint.NotExpr:
		return mentionsTag(x.X, tag)
	case *constraint.AndExpr:
		return mentionsTag(x.X, tag) || mentionsTag(x.Y, tag)
	case *constraint.OrExpr:
		return mentionsTag(x.X, tag) || mentionsTag(x.Y, tag)
	}
	return false
}
