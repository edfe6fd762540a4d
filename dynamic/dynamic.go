// Package dynamic encodes and decodes message payloads straight from a
// planned dialect, without generated code. It shares the wire primitives of
// generated packages, so both agree byte for byte; the CLI decode command and
// the codec property tests are built on it.
//
// Field values are carried as:
//
//	signed integers     int64
//	unsigned integers   uint64
//	float, double       float64
//	char, char[N]       string (cut at the first NUL), or []byte holding
//	                    the whole array when non-zero bytes follow a NUL
//	numeric arrays      []int64, []uint64 or []float64
package dynamic

import (
	"bytes"

	"github.com/teranos/mavgen/errors"
	"github.com/teranos/mavgen/layout"
	"github.com/teranos/mavgen/model"
	"github.com/teranos/mavgen/wire"
)

// Fields maps field names to values.
type Fields map[string]any

// Kinds raised when Encode is handed values the layout cannot carry.
var (
	ErrUnknownField = errors.New("unknown field")
	ErrInvalidValue = errors.New("invalid field value")
)

// Options tune Encode.
type Options struct {
	// TrimExtensions drops trailing all-zero extension fields.
	TrimExtensions bool
}

// Encode serializes fields in msg's wire order. Missing fields encode as
// zero; names msg does not define are ErrUnknownField.
func Encode(msg *layout.Message, fields Fields, opts Options) ([]byte, error) {
	for name := range fields {
		if msg.Field(name) == nil {
			return nil, errors.Wrapf(ErrUnknownField, "%s.%s", msg.Name, name)
		}
	}

	w := wire.NewWriter(msg.MaxLength)
	for _, f := range msg.WireOrder {
		if err := put(w, f, fields[f.Name]); err != nil {
			return nil, errors.Wrapf(err, "%s.%s", msg.Name, f.Name)
		}
	}
	payload := w.Payload()
	if opts.TrimExtensions {
		payload = wire.TrimExtensions(payload, msg.ExtensionOffsets()...)
	}
	return payload, nil
}

// Decode parses payload as msg. Payloads shorter than the base fields fail
// with ErrTruncatedPayload. Shorter payloads decode as if padded with zero
// bytes to the full length, so an extension field keeps whatever low bytes
// arrived.
func Decode(msg *layout.Message, payload []byte) (Fields, error) {
	if err := wire.CheckLength(msg.Name, payload, msg.MinLength); err != nil {
		return nil, err
	}
	r := wire.NewReader(payload)
	out := make(Fields, len(msg.WireOrder))
	for _, f := range msg.WireOrder {
		out[f.Name] = get(r.Sub(f.Type.Size()), f.Type)
	}
	return out, nil
}

// Zero returns the decoded form of an all-zero field of type t.
func Zero(t model.FieldType) any {
	return get(wire.NewReader(nil).Sub(t.Size()), t)
}

func get(r *wire.Reader, t model.FieldType) any {
	if t.Kind == model.KindChar {
		buf := make([]byte, t.Len())
		r.Bytes(buf)
		s := wire.CString(buf)
		if len(bytes.TrimRight(buf, "\x00")) > len(s) {
			return buf
		}
		return s
	}
	if !t.IsArray() {
		return scalar(r, t.Kind)
	}

	switch {
	case t.Kind.IsFloat():
		out := make([]float64, t.ArrayLen)
		for i := range out {
			out[i] = scalar(r, t.Kind).(float64)
		}
		return out
	case t.Kind.IsSigned():
		out := make([]int64, t.ArrayLen)
		for i := range out {
			out[i] = scalar(r, t.Kind).(int64)
		}
		return out
	default:
		out := make([]uint64, t.ArrayLen)
		for i := range out {
			out[i] = scalar(r, t.Kind).(uint64)
		}
		return out
	}
}

func scalar(r *wire.Reader, k model.Kind) any {
	switch k {
	case model.KindInt8:
		return int64(r.Int8())
	case model.KindInt16:
		return int64(r.Int16())
	case model.KindInt32:
		return int64(r.Int32())
	case model.KindInt64:
		return r.Int64()
	case model.KindUint8:
		return uint64(r.Uint8())
	case model.KindUint16:
		return uint64(r.Uint16())
	case model.KindUint32:
		return uint64(r.Uint32())
	case model.KindUint64:
		return r.Uint64()
	case model.KindFloat:
		return float64(r.Float32())
	case model.KindDouble:
		return r.Float64()
	}
	return nil
}
