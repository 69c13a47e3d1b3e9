// Package augment implements the struct pass.
//
// Given a struct type and the properties named by its //cachedprop:struct
// directive, the pass synthesizes a storage struct holding one slot per
// property and returns a copy of the original struct with one extra field
// embedding that storage. The input declaration is never modified.
package augment

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/types"
	"strings"

	"github.com/teranos/cachedprop/errors"
	"github.com/teranos/cachedprop/naming"
)

// Property is one cached property: its name and value type
type Property struct {
	Name string
	Type ast.Expr
}

// Result holds the declarations produced for one annotated struct
type Result struct {
	// Storage is the synthesized storage struct
	Storage *ast.TypeSpec

	// Record is the annotated struct with the storage field appended
	Record *ast.TypeSpec

	// Properties are the cached properties in declaration order
	Properties []Property
}

// Specs returns the produced type specs in emission order: storage first
func (r *Result) Specs() []*ast.TypeSpec {
	return []*ast.TypeSpec{r.Storage, r.Record}
}

// PropertyNames returns the property names in declaration order
func (r *Result) PropertyNames() []string {
	names := make([]string, len(r.Properties))
	for i, p := range r.Properties {
		names[i] = p.Name
	}
	return names
}

// ParseProperties parses a struct directive payload.
//
// The payload is a Go field list with or without braces:
//
//	{Area float64; Label string}
//	Area, Perimeter float64
//
// Each entry must be named. Names must be unique.
func ParseProperties(payload string) ([]Property, error) {
	text := strings.TrimSpace(payload)
	if !strings.HasPrefix(text, "{") {
		text = "{" + text + "}"
	}

	expr, err := parser.ParseExpr("struct" + text)
	if err != nil {
		return nil, errors.WithHint(
			errors.NewMalformedPropertyListError("cannot parse property list %q: %v", payload, err),
			"write properties as Go fields separated by ';', e.g. {Area float64; Label string}")
	}
	st, ok := expr.(*ast.StructType)
	if !ok {
		return nil, errors.NewMalformedPropertyListError("property list %q is not a field list", payload)
	}

	seen := make(map[string]bool)
	var props []Property
	for i, field := range st.Fields.List {
		if len(field.Names) == 0 {
			return nil, errors.WithHint(
				errors.NewMalformedPropertyListError("entry %d (%s) has no name", i+1, types.ExprString(field.Type)),
				"every property needs a name matching the method that computes it")
		}
		if field.Tag != nil {
			return nil, errors.NewMalformedPropertyListError("property %s has a tag; tags are not supported", field.Names[0].Name)
		}
		for _, name := range field.Names {
			if name.Name == "_" {
				return nil, errors.NewMalformedPropertyListError("entry %d has a blank name", i+1)
			}
			if seen[name.Name] {
				return nil, errors.NewMalformedPropertyListError("property %s is declared more than once", name.Name)
			}
			seen[name.Name] = true
			props = append(props, Property{Name: name.Name, Type: field.Type})
		}
	}

	return props, nil
}

// Struct runs the struct pass over spec.
// It fails with errors.ErrUnsupportedShape unless spec declares a struct type
// whose fields are all named.
func Struct(spec *ast.TypeSpec, props []Property) (*Result, error) {
	name := spec.Name.Name

	if spec.Assign.IsValid() {
		return nil, errors.WithHint(
			errors.NewUnsupportedShapeError("%s is a type alias", name),
			"annotate the aliased struct declaration instead")
	}

	st, ok := spec.Type.(*ast.StructType)
	if !ok {
		return nil, errors.WithHint(
			errors.NewUnsupportedShapeError("%s is not a struct type (%s)", name, types.ExprString(spec.Type)),
			"cachedprop:struct may only be used on struct types with named fields")
	}

	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			return nil, errors.WithHint(
				errors.NewUnsupportedShapeError("%s embeds %s; only named fields are supported", name, types.ExprString(field.Type)),
				"give the embedded field a name")
		}
		for _, fieldName := range field.Names {
			if fieldName.Name == naming.StorageField {
				return nil, errors.NewUnsupportedShapeError("%s already declares field %s", name, naming.StorageField)
			}
		}
	}

	storageName := naming.StorageType(name)
	storage := &ast.TypeSpec{
		Doc:        docComment(fmt.Sprintf("// %s holds the cached properties of %s.", storageName, name)),
		Name:       ast.NewIdent(storageName),
		TypeParams: spec.TypeParams,
		Type: &ast.StructType{
			Fields: &ast.FieldList{List: storageFields(props)},
		},
	}

	fields := make([]*ast.Field, 0, len(st.Fields.List)+1)
	fields = append(fields, st.Fields.List...)
	fields = append(fields, &ast.Field{
		Names: []*ast.Ident{ast.NewIdent(naming.StorageField)},
		Type:  instantiate(storageName, spec.TypeParams),
	})

	augmented := *st
	augmented.Fields = &ast.FieldList{
		Opening: st.Fields.Opening,
		List:    fields,
		Closing: st.Fields.Closing,
	}

	record := *spec
	record.Type = &augmented

	return &Result{
		Storage:    storage,
		Record:     &record,
		Properties: props,
	}, nil
}

// storageFields declares one slot.Slot[T] field per property
func storageFields(props []Property) []*ast.Field {
	fields := make([]*ast.Field, len(props))
	for i, p := range props {
		fields[i] = &ast.Field{
			Names: []*ast.Ident{ast.NewIdent(p.Name)},
			Type: &ast.IndexExpr{
				X: &ast.SelectorExpr{
					X:   ast.NewIdent(naming.RuntimePackage),
					Sel: ast.NewIdent(naming.SlotType),
				},
				Index: p.Type,
			},
		}
	}
	return fields
}

// instantiate references the storage type, passing the record's type
// parameters through when the record is generic
func instantiate(storageName string, params *ast.FieldList) ast.Expr {
	var args []ast.Expr
	if params != nil {
		for _, field := range params.List {
			for _, n := range field.Names {
				args = append(args, ast.NewIdent(n.Name))
			}
		}
	}

	switch len(args) {
	case 0:
		return ast.NewIdent(storageName)
	case 1:
		return &ast.IndexExpr{X: ast.NewIdent(storageName), Index: args[0]}
	default:
		return &ast.IndexListExpr{X: ast.NewIdent(storageName), Indices: args}
	}
}

func docComment(text string) *ast.CommentGroup {
	return &ast.CommentGroup{List: []*ast.Comment{{Text: text}}}
}
