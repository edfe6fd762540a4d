package logger

import (
	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across mavgen.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Components
	FieldComponent = "component"
	FieldOperation = "operation"

	// Definitions
	FieldDialect = "dialect"
	FieldFile    = "file"
	FieldInclude = "include"
	FieldMessage = "message"
	FieldEnum    = "enum"
	FieldID      = "id"

	// Output
	FieldLanguage = "lang"
	FieldOutput   = "output"
	FieldPath     = "path"

	// Collaborators
	FieldSource  = "source"
	FieldPatch   = "patch"
	FieldCommand = "command"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount = "count"
	FieldSize  = "size"
)

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	type Driver struct {
//	    logger *zap.SugaredLogger
//	}
//
//	func NewDriver() *Driver {
//	    return &Driver{
//	        logger: logger.ComponentLogger("compiler"),
//	    }
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
//
// Example:
//
//	dialectLogger := logger.ChildLogger(baseLogger, logger.FieldDialect, "common")
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}

// OrNop returns log, or a no-op logger when log is nil. Library entry
// points accept a nil logger.
func OrNop(log *zap.SugaredLogger) *zap.SugaredLogger {
	if log == nil {
		return zap.NewNop().Sugar()
	}
	return log
}
