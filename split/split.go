// Package split implements the method pass.
//
// A //cachedprop:property method is split into three methods sharing its
// result type:
//
//   - the original computation, renamed so it is no longer called directly
//   - a prefetch variant that computes on a miss and stores the result
//   - a cached-read variant, under the original name, that returns the stored
//     value when present and otherwise computes without storing
//
// The pass only relies on the naming convention to find the storage slot. It
// never looks at the struct declaration.
package split

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	"github.com/teranos/cachedprop/errors"
	"github.com/teranos/cachedprop/naming"
)

// Result holds the three methods produced for one annotated method
type Result struct {
	// Original is the unmodified computation under its renamed identifier
	Original *ast.FuncDecl

	// Prefetch computes on a miss and stores the result
	Prefetch *ast.FuncDecl

	// CachedRead returns the stored value when present, computing otherwise
	CachedRead *ast.FuncDecl

	// Receiver is the receiver's base type name
	Receiver string

	// Property is the name of the cached property, equal to the method name
	Property string
}

// Decls returns the produced methods in emission order
func (r *Result) Decls() []*ast.FuncDecl {
	return []*ast.FuncDecl{r.Original, r.Prefetch, r.CachedRead}
}

// Method runs the method pass over fd.
//
// payload is whatever followed the directive name and must be empty. The
// method must have a pointer receiver, no parameters, exactly one result and
// a body. fd itself is not modified.
func Method(fd *ast.FuncDecl, payload string) (*Result, error) {
	if p := strings.TrimSpace(payload); p != "" {
		return nil, errors.WithHint(
			errors.NewUnexpectedArgumentsError("%s takes no arguments, got %q", naming.Directive(naming.PropertyDirective), p),
			"remove everything after the directive name")
	}

	if fd.Recv == nil || len(fd.Recv.List) == 0 {
		return nil, errors.WithHint(
			errors.NewUnsupportedSignatureError("%s is a function, not a method", fd.Name.Name),
			"cached properties are methods on the annotated struct")
	}

	recv := fd.Recv.List[0]
	star, ok := unparen(recv.Type).(*ast.StarExpr)
	if !ok {
		return nil, errors.WithHint(
			errors.NewUnsupportedSignatureError("%s has a value receiver", Describe(fd)),
			"use a pointer receiver so the prefetch variant can store the result")
	}
	typeName := BaseTypeName(star.X)

	if n := fd.Type.Params.NumFields(); n > 0 {
		return nil, errors.WithHint(
			errors.NewUnsupportedSignatureError("%s takes %d parameter(s) besides the receiver", Describe(fd), n),
			"a cached property is computed from the receiver alone")
	}
	if n := fd.Type.Results.NumFields(); n != 1 {
		return nil, errors.NewUnsupportedSignatureError("%s returns %d values, want exactly 1", Describe(fd), n)
	}
	if fd.Body == nil {
		return nil, errors.NewUnsupportedSignatureError("%s has no body", Describe(fd))
	}

	name := fd.Name.Name
	recvName := naming.ReceiverName(typeName)
	if len(recv.Names) > 0 && recv.Names[0].Name != "_" {
		recvName = recv.Names[0].Name
	}
	resultType := fd.Type.Results.List[0].Type

	original := *fd
	original.Name = &ast.Ident{NamePos: fd.Name.NamePos, Name: naming.RenamedMethod(name)}
	original.Doc = docComment(fmt.Sprintf("// %s computes %s without consulting the cache.",
		original.Name.Name, name))

	prefetch := &ast.FuncDecl{
		Doc: docComment(fmt.Sprintf("// %s returns %s, computing and caching it on first use.",
			naming.PrefetchMethod(name), name)),
		Recv: receiver(recvName, recv.Type),
		Name: ast.NewIdent(naming.PrefetchMethod(name)),
		Type: signature(resultType),
		Body: prefetchBody(recvName, name),
	}

	cachedRead := &ast.FuncDecl{
		Doc:  fd.Doc,
		Recv: receiver(recvName, recv.Type),
		Name: ast.NewIdent(name),
		Type: signature(resultType),
		Body: cachedReadBody(recvName, name),
	}

	return &Result{
		Original:   &original,
		Prefetch:   prefetch,
		CachedRead: cachedRead,
		Receiver:   typeName,
		Property:   name,
	}, nil
}

// Describe renders a function or method for diagnostics: "(*Shape).Area",
// "(Shape).Area" or "Area"
func Describe(fd *ast.FuncDecl) string {
	if fd.Recv == nil || len(fd.Recv.List) == 0 {
		return fd.Name.Name
	}
	return fmt.Sprintf("(%s).%s", types.ExprString(unparen(fd.Recv.List[0].Type)), fd.Name.Name)
}

// BaseTypeName returns the named type underneath pointers, parentheses and
// type arguments, or "" when there is none
func BaseTypeName(expr ast.Expr) string {
	for {
		switch x := expr.(type) {
		case *ast.Ident:
			return x.Name
		case *ast.ParenExpr:
			expr = x.X
		case *ast.StarExpr:
			expr = x.X
		case *ast.IndexExpr:
			expr = x.X
		case *ast.IndexListExpr:
			expr = x.X
		default:
			return ""
		}
	}
}

func unparen(expr ast.Expr) ast.Expr {
	for {
		p, ok := expr.(*ast.ParenExpr)
		if !ok {
			return expr
		}
		expr = p.X
	}
}

func receiver(name string, typ ast.Expr) *ast.FieldList {
	return &ast.FieldList{List: []*ast.Field{{
		Names: []*ast.Ident{ast.NewIdent(name)},
		Type:  typ,
	}}}
}

// signature is func() T, dropping any result name
func signature(result ast.Expr) *ast.FuncType {
	return &ast.FuncType{
		Params:  &ast.FieldList{},
		Results: &ast.FieldList{List: []*ast.Field{{Type: result}}},
	}
}

// slotOf is recv.cachedProperties.<property>
func slotOf(recv, property string) ast.Expr {
	return selector(selector(ast.NewIdent(recv), naming.StorageField), property)
}

// prefetchBody is:
//
//	return recv.cachedProperties.P.GetOrInsertWith(recv.cachedPropertyMethodP)
func prefetchBody(recv, property string) *ast.BlockStmt {
	call := &ast.CallExpr{
		Fun:  selector(slotOf(recv, property), naming.GetOrInsertWithMethod),
		Args: []ast.Expr{selector(ast.NewIdent(recv), naming.RenamedMethod(property))},
	}
	return &ast.BlockStmt{List: []ast.Stmt{
		&ast.ReturnStmt{Results: []ast.Expr{call}},
	}}
}

// cachedReadBody is:
//
//	if v, ok := recv.cachedProperties.P.TryGet(); ok {
//		return v
//	}
//	return recv.cachedPropertyMethodP()
func cachedReadBody(recv, property string) *ast.BlockStmt {
	value, found := "v", "ok"
	if recv == value {
		value = "cached"
	}
	if recv == found {
		found = "present"
	}

	lookup := &ast.AssignStmt{
		Lhs: []ast.Expr{ast.NewIdent(value), ast.NewIdent(found)},
		Tok: token.DEFINE,
		Rhs: []ast.Expr{&ast.CallExpr{Fun: selector(slotOf(recv, property), naming.TryGetMethod)}},
	}
	compute := &ast.CallExpr{Fun: selector(ast.NewIdent(recv), naming.RenamedMethod(property))}

	return &ast.BlockStmt{List: []ast.Stmt{
		&ast.IfStmt{
			Init: lookup,
			Cond: ast.NewIdent(found),
			Body: &ast.BlockStmt{List: []ast.Stmt{
				&ast.ReturnStmt{Results: []ast.Expr{ast.NewIdent(value)}},
			}},
		},
		&ast.ReturnStmt{Results: []ast.Expr{compute}},
	}}
}

func selector(x ast.Expr, sel string) *ast.SelectorExpr {
	return &ast.SelectorExpr{X: x, Sel: ast.NewIdent(sel)}
}

func docComment(text string) *ast.CommentGroup {
	return &ast.CommentGroup{List: []*ast.Comment{{Text: text}}}
}
