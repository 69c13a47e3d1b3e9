// Package naming is the convention that couples the struct and method passes.
//
// The two passes never exchange state. A method split by the method pass reads
// and writes storage that the struct pass declared, and the only thing tying the
// two together is the identifiers derived here. Changing any of them changes the
// generated code, so the convention carries a semantic version that generated
// files record in their header.
package naming

import (
	"fmt"
	"go/token"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/cachedprop/errors"
	"github.com/teranos/cachedprop/internal/util"
)

// Version is the version of the naming convention.
// Bump the major version when a derived identifier changes.
const Version = "1.0.0"

// Identifiers shared by both passes
const (
	// StorageField is the field appended to every annotated struct
	StorageField = "cachedProperties"

	// StorageTypePrefix prefixes the record name to form the storage type name
	StorageTypePrefix = "cachedPropertyStorageFor"

	// MethodPrefix prefixes the method name to form the renamed, uncached computation
	MethodPrefix = "cachedPropertyMethod"

	// PrefetchPrefix prefixes the method name to form the populating variant
	PrefetchPrefix = "prefetch"
)

// Directive syntax
const (
	DirectivePrefix   = "//cachedprop:"
	StructDirective   = "struct"
	PropertyDirective = "property"
)

// Runtime support referenced by generated code
const (
	RuntimeImportPath     = "github.com/teranos/cachedprop/slot"
	RuntimePackage        = "slot"
	SlotType              = "Slot"
	TryGetMethod          = "TryGet"
	GetOrInsertWithMethod = "GetOrInsertWith"
)

// fallbackReceiver names a receiver whose type name yields no usable identifier
const fallbackReceiver = "recv"

// StorageType returns the storage type name for a record
func StorageType(record string) string {
	return StorageTypePrefix + util.UpperFirst(record)
}

// RenamedMethod returns the name the original computation is moved to.
// It is always unexported.
func RenamedMethod(method string) string {
	return MethodPrefix + util.UpperFirst(method)
}

// PrefetchMethod returns the name of the populating variant.
// Exportedness follows the original method.
func PrefetchMethod(method string) string {
	if token.IsExported(method) {
		return util.ToPascalCase(PrefetchPrefix, method)
	}
	return util.ToCamelCase(PrefetchPrefix, method)
}

// ReceiverName derives a receiver identifier from a type name, following the
// usual one-letter receiver style ("Shape" -> "s")
func ReceiverName(typeName string) string {
	for _, r := range typeName {
		name := util.LowerFirst(string(r))
		if token.IsIdentifier(name) && name != "_" {
			return name
		}
		break
	}
	return fallbackReceiver
}

// Directive returns the full comment text of a directive ("//cachedprop:struct")
func Directive(name string) string {
	return DirectivePrefix + name
}

// SemVer returns the parsed convention version
func SemVer() *semver.Version {
	return semver.MustParse(Version)
}

// Compatible reports whether code generated under convention version v can
// be mixed with code generated under the current convention. Versions are
// compatible when they share a major version.
func Compatible(v string) (bool, error) {
	other, err := semver.NewVersion(v)
	if err != nil {
		return false, errors.Wrapf(err, "invalid naming version %q", v)
	}

	current := SemVer()
	constraint, err := semver.NewConstraint(fmt.Sprintf("^%d.0.0", current.Major()))
	if err != nil {
		return false, errors.Wrap(err, "failed to build naming version constraint")
	}

	return constraint.Check(other), nil
}
