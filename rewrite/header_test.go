package rewrite

import (
	"go/build/constraint"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cachedprop/errors"
)

func TestParseHeader(t *testing.T) {
	src := []byte("// Code generated by cachedprop from shape.go. DO NOT EDIT.\n" +
		"// cachedprop:naming 1.2.0\n" +
		"// cachedprop:digest 00000000000000ff\n" +
		"\npackage shapes\n")

	h, err := ParseHeader(src)
	require.NoError(t, err)
	assert.Equal(t, Header{Source: "shape.go", Naming: "1.2.0", Digest: "00000000000000ff"}, *h)
}

func TestParseHeaderMissing(t *testing.T) {
	_, err := ParseHeader([]byte("package shapes\n"))
	assert.True(t, errors.Is(err, ErrNoHeader))

	_, err = ParseHeader([]byte("// Code generated by cachedprop from a.go. DO NOT EDIT.\n\npackage a\n"))
	assert.True(t, errors.Is(err, ErrNoHeader), "incomplete header")

	_, err = ParseHeader([]byte("// Code generated by stringer. DO NOT EDIT.\n\npackage a\n"))
	assert.True(t, errors.Is(err, ErrNoHeader), "other generators")
}

func TestHeaderCompatible(t *testing.T) {
	tests := []struct {
		naming string
		want   bool
	}{
		{"1.0.0", true},
		{"1.7.3", true},
		{"2.0.0", false},
		{"0.9.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.naming, func(t *testing.T) {
			ok, err := Header{Naming: tt.naming}.Compatible()
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	_, err := Header{Naming: "latest"}.Compatible()
	assert.Error(t, err)
}

func TestHeaderString(t *testing.T) {
	h := NewHeader("/src/shapes/shape.go", []byte("package shapes\n"))

	assert.Equal(t, "shape.go", h.Source)
	assert.Len(t, h.Digest, 16)
	assert.Equal(t, "// Code generated by cachedprop from shape.go. DO NOT EDIT.\n"+
		"// cachedprop:naming 1.0.0\n"+
		"// cachedprop:digest "+h.Digest+"\n", h.String())
}

func TestWithoutTag(t *testing.T) {
	tests := []struct {
		expr  string
		want  string
		found bool
	}{
		{"//go:build cachedprop", "", true},
		{"//go:build cachedprop && linux", "linux", true},
		{"//go:build (linux || darwin) && cachedprop", "linux || darwin", true},
		{"//go:build cachedprop || linux", "", false},
		{"//go:build !cachedprop", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			expr, err := constraint.Parse(tt.expr)
			require.NoError(t, err)

			rest, found := withoutTag(expr, "cachedprop")
			assert.Equal(t, tt.found, found)
			if tt.found && tt.want == "" {
				assert.Nil(t, rest)
			}
			if tt.found && tt.want != "" {
				require.NotNil(t, rest)
				assert.Equal(t, tt.want, rest.String())
			}
			assert.True(t, mentionsTag(expr, "cachedprop"))
		})
	}
}

func TestApplyEdits(t *testing.T) {
	src := []byte("abcdef")

	out, err := applyEdits(src, []edit{
		{start: 4, end: 6, text: "XY"},
		{start: 1, end: 1, text: "+"},
		{start: 1, end: 2, text: ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "a+cdXY", string(out))

	_, err = applyEdits(src, []edit{{start: 0, end: 3}, {start: 2, end: 4}})
	assert.Error(t, err)
}

func TestHasDirective(t *testing.T) {
	assert.True(t, HasDirective([]byte("//cachedprop:struct {A int}")))
	assert.False(t, HasDirective([]byte("// cachedprop:naming 1.0.0")))
}
