// Package errors provides error handling for cachedprop.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints attached to diagnostics
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := parse(); err != nil {
//	    return errors.Wrap(err, "failed to parse input")
//	}
//
//	// Classify a transformation failure
//	return errors.NewUnsupportedSignatureError("method %s has a value receiver", name)
//
//	// Check errors
//	if errors.Is(err, errors.ErrUnsupportedSignature) {
//	    // report diagnostic
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is            = crdb.Is
	IsAny         = crdb.IsAny
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	UnwrapAll     = crdb.UnwrapAll
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints  = crdb.FlattenHints
)

// Transformation failure kinds. Every diagnostic produced by the struct and
// method passes wraps exactly one of these, so callers can classify a failure
// with errors.Is without parsing messages.
var (
	// ErrUnsupportedShape indicates the annotated type is not a struct with only named fields
	ErrUnsupportedShape = New("unsupported shape")

	// ErrMalformedPropertyList indicates a struct directive payload entry has no usable name
	ErrMalformedPropertyList = New("malformed property list")

	// ErrUnexpectedArguments indicates the method directive was given a payload
	ErrUnexpectedArguments = New("unexpected arguments")

	// ErrUnsupportedSignature indicates the method is not a pointer-receiver method without parameters
	ErrUnsupportedSignature = New("unsupported signature")

	// ErrUnknownDirective indicates a cachedprop directive with an unrecognized name
	ErrUnknownDirective = New("unknown directive")

	// ErrMisplacedDirective indicates a directive attached to a declaration it cannot annotate
	ErrMisplacedDirective = New("misplaced directive")
)

// IsTransformError reports whether err wraps one of the transformation failure kinds
func IsTransformError(err error) bool {
	return err != nil && IsAny(err,
		ErrUnsupportedShape,
		ErrMalformedPropertyList,
		ErrUnexpectedArguments,
		ErrUnsupportedSignature,
		ErrUnknownDirective,
		ErrMisplacedDirective,
	)
}

// NewUnsupportedShapeError creates an unsupported-shape error with a formatted message
func NewUnsupportedShapeError(format string, args ...interface{}) error {
	return Wrap(ErrUnsupportedShape, Newf(format, args...).Error())
}

// NewMalformedPropertyListError creates a malformed-property-list error with a formatted message
func NewMalformedPropertyListError(format string, args ...interface{}) error {
	return Wrap(ErrMalformedPropertyList, Newf(format, args...).Error())
}

// NewUnexpectedArgumentsError creates an unexpected-arguments error with a formatted message
func NewUnexpectedArgumentsError(format string, args ...interface{}) error {
	return Wrap(ErrUnexpectedArguments, Newf(format, args...).Error())
}

// NewUnsupportedSignatureError creates an unsupported-signature error with a formatted message
func NewUnsupportedSignatureError(format string, args ...interface{}) error {
	return Wrap(ErrUnsupportedSignature, Newf(format, args...).Error())
}

// NewUnknownDirectiveError creates an unknown-directive error with a formatted message
func NewUnknownDirectiveError(format string, args ...interface{}) error {
	return Wrap(ErrUnknownDirective, Newf(format, args...).Error())
}

// NewMisplacedDirectiveError creates a misplaced-directive error with a formatted message
func NewMisplacedDirectiveError(format string, args ...interface{}) error {
	return Wrap(ErrMisplacedDirective, Newf(format, args...).Error())
}
