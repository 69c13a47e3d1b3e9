package util

import (
	"unicode"
	"unicode/utf8"
)

// UpperFirst returns s with its first rune upper-cased.
// Used to join a lower camelCase prefix with an identifier ("prefetch" + "area" -> "prefetchArea").
func UpperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// LowerFirst returns s with its first rune lower-cased
func LowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || unicode.IsLower(r) {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// ToCamelCase joins a lower camelCase prefix and a name into one identifier
func ToCamelCase(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return LowerFirst(prefix) + UpperFirst(name)
}

// ToPascalCase joins a prefix and a name into one exported identifier
func ToPascalCase(prefix, name string) string {
	return UpperFirst(prefix) + UpperFirst(name)
}
