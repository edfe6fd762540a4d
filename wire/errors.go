package wire

import (
	"github.com/teranos/mavgen/errors"
)

// Codec error kinds, aliases of the kinds in the errors package so callers
// of generated code can match them without importing it.
var (
	ErrTruncatedPayload = errors.ErrTruncatedPayload
	ErrUnknownDialect   = errors.ErrUnknownDialect
	ErrUnknownMessageID = errors.ErrUnknownMessageID
)

// CheckLength fails with ErrTruncatedPayload when payload cannot hold the
// base fields of the named message.
func CheckLength(name string, payload []byte, minLength int) error {
	if len(payload) >= minLength {
		return nil
	}
	return errors.Wrapf(ErrTruncatedPayload, "%s: %d bytes, base fields need %d", name, len(payload), minLength)
}

// UnknownMessageID reports an id the dialect does not define.
func UnknownMessageID(dialect string, id uint32) error {
	return errors.WithDetailf(errors.Wrapf(ErrUnknownMessageID, "id %d", id), "dialect: %s", dialect)
}

// UnknownDialect reports a dispatch tag no dialect is bound to.
func UnknownDialect(tag string) error {
	return errors.Wrapf(ErrUnknownDialect, "%q", tag)
}
