package logger

import (
	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across cachedprop.
// Use these constants instead of raw strings to ensure consistency.
const (
	FieldOperation = "operation"

	// Source locations
	FieldFile    = "file"
	FieldOutput  = "output"
	FieldPackage = "package"

	// Declarations
	FieldDecl     = "decl"
	FieldProperty = "property"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts
	FieldCount      = "count"
	FieldTotalCount = "total_count"

	// Status
	FieldStatus = "status"
)

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	type Transformer struct {
//	    log *zap.SugaredLogger
//	}
//
//	func NewTransformer() *Transformer {
//	    return &Transformer{
//	        log: logger.ComponentLogger("rewrite"),
//	    }
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
//
// Example:
//
//	fileLogger := logger.ChildLogger(baseLogger, logger.FieldFile, path)
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}
