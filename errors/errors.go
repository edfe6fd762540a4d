// Package errors provides error handling for mavgen.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints and details surfaced by the CLI
//
// On top of the re-exports it defines the compile-time error kinds raised
// while loading, modelling and planning dialect definitions. Every kind is a
// sentinel: wrap it to add the file, dialect or element that failed and
// check it with errors.Is. The runtime codec kinds (truncated payload,
// unknown dialect, unknown message id) follow the same pattern.
//
// Usage:
//
//	// Wrap a kind with the failing element
//	return errors.Wrapf(errors.ErrUnknownEnumReference, "%s.%s: enum %q", msg, field, enum)
//
//	// Check the kind
//	if errors.Is(err, errors.ErrIncludeCycle) {
//	    // report the cycle
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
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Schema errors: the definition files themselves are unusable.
var (
	// ErrMalformedSchema indicates a definition file does not match the
	// expected document structure.
	ErrMalformedSchema = New("malformed schema")

	// ErrMissingInclude indicates an include reference names a file that
	// does not exist in the search directory.
	ErrMissingInclude = New("missing include")

	// ErrIncludeCycle indicates the include graph revisits a file that is
	// already on the active include path.
	ErrIncludeCycle = New("include cycle")
)

// Model errors: the definitions parse but do not describe a valid dialect.
var (
	ErrDuplicateEnumEntry   = New("duplicate enum entry")
	ErrDuplicateMessageID   = New("duplicate message id")
	ErrDuplicateMessageName = New("duplicate message name")
	ErrUnknownEnumReference = New("unknown enum reference")
	ErrInvalidArrayLength   = New("invalid array length")
	ErrMalformedMessage     = New("malformed message")
	ErrDuplicateDialect     = New("duplicate dialect")
)

// Codec errors: raised at runtime by generated code and the dynamic codec.
var (
	// ErrTruncatedPayload indicates a payload shorter than the message's
	// base fields.
	ErrTruncatedPayload = New("truncated payload")

	// ErrUnknownDialect indicates a dispatch tag that names no bound dialect.
	ErrUnknownDialect = New("unknown dialect")

	// ErrUnknownMessageID indicates a message id the dialect does not define.
	ErrUnknownMessageID = New("unknown message id")
)

// Schema wraps ErrMalformedSchema with the offending file.
func Schema(file, format string, args ...interface{}) error {
	return WithDetailf(Wrapf(ErrMalformedSchema, format, args...), "file: %s", file)
}

// Element wraps one of the model kinds with the dialect and element that
// failed, so a single error line locates the problem.
func Element(kind error, dialect, element, format string, args ...interface{}) error {
	err := Wrapf(kind, format, args...)
	err = Wrapf(err, "%s", element)
	return WithDetailf(err, "dialect: %s", dialect)
}

// IsSchemaError reports whether err is one of the schema error kinds.
func IsSchemaError(err error) bool {
	return err != nil && IsAny(err, ErrMalformedSchema, ErrMissingInclude, ErrIncludeCycle)
}

// IsCodecError reports whether err is one of the codec error kinds.
func IsCodecError(err error) bool {
	return err != nil && IsAny(err, ErrTruncatedPayload, ErrUnknownDialect, ErrUnknownMessageID)
}

// IsModelError reports whether err is one of the model error kinds.
func IsModelError(err error) bool {
	return err != nil && IsAny(err,
		ErrDuplicateEnumEntry,
		ErrDuplicateMessageID,
		ErrDuplicateMessageName,
		ErrUnknownEnumReference,
		ErrInvalidArrayLength,
		ErrMalformedMessage,
		ErrDuplicateDialect,
	)
}
