package split

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/printer"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cachedprop/errors"
	cptest "github.com/teranos/cachedprop/internal/testing"
)

const methods = `package shapes

// Area is the surface of the shape.
func (s *Shape) Area() float64 { return s.Width * s.Height }

func (s *Shape) perimeter() float64 { return 2 * (s.Width + s.Height) }

func (*Shape) Unnamed() string { return "unnamed" }

func (_ *Shape) Blank() string { return "blank" }

func (s *Shape) Named() (total float64) { total = s.Width; return }

func (s (*Shape)) Wrapped() int { return 1 }

func (v *Vector) Length() float64 { return v.X }

func (p *Pair[K, V]) Swapped() Pair[V, K] { return Pair[V, K]{Key: p.Value, Value: p.Key} }

func (s Shape) ByValue() float64 { return s.Width }

func (s *Shape) Scale(f float64) float64 { return s.Width * f }

func (s *Shape) Nothing() {}

func (s *Shape) Both() (float64, error) { return 0, nil }

func (s *Shape) Pairwise() (a, b int) { return 1, 2 }

func (s *Shape) External() int

func Free() int { return 1 }
`

// render prints a synthesized declaration without its doc comment
func render(t *testing.T, fd *ast.FuncDecl) string {
	t.Helper()

	decl := *fd
	decl.Doc = nil

	var buf bytes.Buffer
	require.NoError(t, printer.Fprint(&buf, token.NewFileSet(), &decl))
	out, err := format.Source(buf.Bytes())
	require.NoError(t, err, buf.String())
	return strings.TrimSpace(string(out))
}

func names(res *Result) []string {
	var out []string
	for _, fd := range res.Decls() {
		out = append(out, fd.Name.Name)
	}
	return out
}

func TestMethodProducesThreeMethods(t *testing.T) {
	_, file := cptest.ParseSource(t, methods)
	fd := cptest.FuncDecl(t, file, "Area")

	res, err := Method(fd, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"cachedPropertyMethodArea", "PrefetchArea", "Area"}, names(res))
	assert.Equal(t, "Shape", res.Receiver)
	assert.Equal(t, "Area", res.Property)
}

func TestMethodOriginalKeepsComputation(t *testing.T) {
	_, file := cptest.ParseSource(t, methods)
	fd := cptest.FuncDecl(t, file, "Area")

	res, err := Method(fd, "")
	require.NoError(t, err)

	assert.Same(t, fd.Body, res.Original.Body)
	assert.Same(t, fd.Recv, res.Original.Recv)
	assert.Same(t, fd.Type, res.Original.Type)
	assert.Equal(t, "Area", fd.Name.Name, "input declaration must not be renamed")
	require.NotNil(t, res.Original.Doc)
	assert.Contains(t, res.Original.Doc.Text(), "without consulting the cache")
}

func TestMethodPrefetchBody(t *testing.T) {
	_, file := cptest.ParseSource(t, methods)

	res, err := Method(cptest.FuncDecl(t, file, "Area"), "")
	require.NoError(t, err)

	want := `func (s *Shape) PrefetchArea() float64 {
	return s.cachedProperties.Area.GetOrInsertWith(s.cachedPropertyMethodArea)
}`
	assert.Equal(t, want, render(t, res.Prefetch))
}

func TestMethodCachedReadBody(t *testing.T) {
	_, file := cptest.ParseSource(t, methods)
	fd := cptest.FuncDecl(t, file, "Area")

	res, err := Method(fd, "")
	require.NoError(t, err)

	want := `func (s *Shape) Area() float64 {
	if v, ok := s.cachedProperties.Area.TryGet(); ok {
		return v
	}
	return s.cachedPropertyMethodArea()
}`
	assert.Equal(t, want, render(t, res.CachedRead))
	assert.Same(t, fd.Doc, res.CachedRead.Doc, "cached read keeps the user's documentation")
}

func TestMethodUnexported(t *testing.T) {
	_, file := cptest.ParseSource(t, methods)

	res, err := Method(cptest.FuncDecl(t, file, "perimeter"), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"cachedPropertyMethodPerimeter", "prefetchPerimeter", "perimeter"}, names(res))
}

func TestMethodReceiverNames(t *testing.T) {
	_, file := cptest.ParseSource(t, methods)

	tests := []struct {
		method string
		prefix string
	}{
		{"Unnamed", "func (s *Shape) PrefetchUnnamed() string"},
		{"Blank", "func (s *Shape) PrefetchBlank() string"},
		{"Wrapped", "func (s (*Shape)) PrefetchWrapped() int"},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			fd := cptest.FuncDecl(t, file, tt.method)
			res, err := Method(fd, "")
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(render(t, res.Prefetch), tt.prefix), render(t, res.Prefetch))
			assert.Same(t, fd.Recv, res.Original.Recv, "original keeps its receiver as declared")
		})
	}
}

func TestMethodReceiverShadowing(t *testing.T) {
	_, file := cptest.ParseSource(t, methods)

	res, err := Method(cptest.FuncDecl(t, file, "Length"), "")
	require.NoError(t, err)

	want := `func (v *Vector) Length() float64 {
	if cached, ok := v.cachedProperties.Length.TryGet(); ok {
		return cached
	}
	return v.cachedPropertyMethodLength()
}`
	assert.Equal(t, want, render(t, res.CachedRead))
}

func TestMethodDropsResultNames(t *testing.T) {
	_, file := cptest.ParseSource(t, methods)

	res, err := Method(cptest.FuncDecl(t, file, "Named"), "")
	require.NoError(t, err)

	for _, fd := range []*ast.FuncDecl{res.Prefetch, res.CachedRead} {
		require.Len(t, fd.Type.Results.List, 1)
		assert.Empty(t, fd.Type.Results.List[0].Names)
	}
	assert.Len(t, res.Original.Type.Results.List[0].Names, 1, "original keeps its result name")
}

func TestMethodGenericReceiver(t *testing.T) {
	_, file := cptest.ParseSource(t, methods)

	res, err := Method(cptest.FuncDecl(t, file, "Swapped"), "")
	require.NoError(t, err)

	assert.Equal(t, "Pair", res.Receiver)
	want := `func (p *Pair[K, V]) PrefetchSwapped() Pair[V, K] {
	return p.cachedProperties.Swapped.GetOrInsertWith(p.cachedPropertyMethodSwapped)
}`
	assert.Equal(t, want, render(t, res.Prefetch))
}

func TestMethodUnexpectedArguments(t *testing.T) {
	_, file := cptest.ParseSource(t, methods)

	res, err := Method(cptest.FuncDecl(t, file, "Area"), "ttl=5s")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, errors.ErrUnexpectedArguments))

	_, err = Method(cptest.FuncDecl(t, file, "Area"), "   ")
	assert.NoError(t, err, "whitespace is not an argument")
}

func TestMethodUnsupportedSignature(t *testing.T) {
	_, file := cptest.ParseSource(t, methods)

	tests := []struct {
		name    string
		method  string
		message string
	}{
		{"value receiver", "ByValue", "value receiver"},
		{"extra parameter", "Scale", "1 parameter"},
		{"no result", "Nothing", "returns 0 values"},
		{"two results", "Both", "returns 2 values"},
		{"two named results", "Pairwise", "returns 2 values"},
		{"no body", "External", "no body"},
		{"plain function", "Free", "not a method"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Method(cptest.FuncDecl(t, file, tt.method), "")
			require.Error(t, err)
			assert.Nil(t, res, "no declarations may be emitted on failure")
			assert.True(t, errors.Is(err, errors.ErrUnsupportedSignature), "got %v", err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestDescribe(t *testing.T) {
	_, file := cptest.ParseSource(t, methods)

	assert.Equal(t, "(*Shape).Area", Describe(cptest.FuncDecl(t, file, "Area")))
	assert.Equal(t, "(Shape).ByValue", Describe(cptest.FuncDecl(t, file, "ByValue")))
	assert.Equal(t, "(*Pair[K, V]).Swapped", Describe(cptest.FuncDecl(t, file, "Swapped")))
	assert.Equal(t, "Free", Describe(cptest.FuncDecl(t, file, "Free")))
}

func TestBaseTypeName(t *testing.T) {
	_, file := cptest.ParseSource(t, methods)

	assert.Equal(t, "Shape", BaseTypeName(cptest.FuncDecl(t, file, "Wrapped").Recv.List[0].Type))
	assert.Equal(t, "Pair", BaseTypeName(cptest.FuncDecl(t, file, "Swapped").Recv.List[0].Type))
	assert.Equal(t, "", BaseTypeName(&ast.ArrayType{Elt: ast.NewIdent("int")}))
}
