package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpperFirst(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"area", "Area"},
		{"Area", "Area"},
		{"", ""},
		{"x", "X"},
		{"élan", "Élan"},
		{"_hidden", "_hidden"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, UpperFirst(tt.input))
		})
	}
}

func TestLowerFirst(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Shape", "shape"},
		{"shape", "shape"},
		{"", ""},
		{"HTTPClient", "hTTPClient"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, LowerFirst(tt.input))
		})
	}
}

func TestToCamelCase(t *testing.T) {
	assert.Equal(t, "prefetchArea", ToCamelCase("prefetch", "area"))
	assert.Equal(t, "prefetchArea", ToCamelCase("Prefetch", "Area"))
	assert.Equal(t, "area", ToCamelCase("", "area"))
}

func TestToPascalCase(t *testing.T) {
	assert.Equal(t, "PrefetchArea", ToPascalCase("prefetch", "Area"))
	assert.Equal(t, "PrefetchArea", ToPascalCase("Prefetch", "area"))
}
