package model

import (
	"strconv"
	"strings"

	"github.com/teranos/mavgen/errors"
)

// Kind is the closed set of wire primitives a field can have.
type Kind uint8

const (
	KindInt8 Kind = iota + 1
	KindUint8
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindFloat
	KindDouble
	KindChar
)

var kindNames = map[Kind]string{
	KindInt8:   "int8_t",
	KindUint8:  "uint8_t",
	KindInt16:  "int16_t",
	KindUint16: "uint16_t",
	KindInt32:  "int32_t",
	KindUint32: "uint32_t",
	KindInt64:  "int64_t",
	KindUint64: "uint64_t",
	KindFloat:  "float",
	KindDouble: "double",
	KindChar:   "char",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = k
	}
	return m
}()

// String returns the definition-file spelling of the kind. It is also the
// text hashed into crc_extra.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

// Size is the width of one element on the wire, in bytes.
func (k Kind) Size() int {
	switch k {
	case KindInt8, KindUint8, KindChar:
		return 1
	case KindInt16, KindUint16:
		return 2
	case KindInt32, KindUint32, KindFloat:
		return 4
	case KindInt64, KindUint64, KindDouble:
		return 8
	}
	return 0
}

// IsInteger reports whether the kind is a signed or unsigned integer.
func (k Kind) IsInteger() bool {
	switch k {
	case KindInt8, KindUint8, KindInt16, KindUint16, KindInt32, KindUint32, KindInt64, KindUint64:
		return true
	}
	return false
}

// IsSigned reports whether the kind is a signed integer.
func (k Kind) IsSigned() bool {
	switch k {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return true
	}
	return false
}

// IsFloat reports whether the kind is float or double.
func (k Kind) IsFloat() bool {
	return k == KindFloat || k == KindDouble
}

// MaxArrayLen is the largest array length a field can declare; the length
// is hashed into crc_extra as a single byte.
const MaxArrayLen = 255

// FieldType is a field's parsed type: a primitive kind, optionally a
// fixed-length array of it.
type FieldType struct {
	Kind Kind
	// ArrayLen is the element count, 0 for scalars.
	ArrayLen int
	// MavlinkVersion marks uint8_t_mavlink_version: a uint8 on the wire
	// whose value encoders may fill with the protocol version.
	MavlinkVersion bool
}

// IsArray reports whether the type is an array.
func (t FieldType) IsArray() bool {
	return t.ArrayLen > 0
}

// Len is the number of elements: ArrayLen for arrays, 1 for scalars.
func (t FieldType) Len() int {
	if t.ArrayLen > 0 {
		return t.ArrayLen
	}
	return 1
}

// Size is the total wire size of the field in bytes.
func (t FieldType) Size() int {
	return t.Kind.Size() * t.Len()
}

// IsString reports whether the field is a character array.
func (t FieldType) IsString() bool {
	return t.Kind == KindChar && t.IsArray()
}

func (t FieldType) String() string {
	if t.MavlinkVersion {
		return "uint8_t_mavlink_version"
	}
	if t.IsArray() {
		return t.Kind.String() + "[" + strconv.Itoa(t.ArrayLen) + "]"
	}
	return t.Kind.String()
}

// ParseFieldType converts definition type text such as "uint16_t",
// "char[16]" or "uint8_t_mavlink_version" into a FieldType. Unknown type
// names are ErrMalformedMessage; bad array lengths are
// ErrInvalidArrayLength.
func ParseFieldType(text string) (FieldType, error) {
	text = strings.TrimSpace(text)
	if text == "uint8_t_mavlink_version" {
		return FieldType{Kind: KindUint8, MavlinkVersion: true}, nil
	}

	base, length := text, ""
	if open := strings.IndexByte(text, '['); open >= 0 {
		if !strings.HasSuffix(text, "]") {
			return FieldType{}, errors.Wrapf(errors.ErrInvalidArrayLength, "type %q", text)
		}
		base, length = text[:open], text[open+1:len(text)-1]
	}

	kind, ok := kindsByName[base]
	if !ok {
		return FieldType{}, errors.Wrapf(errors.ErrMalformedMessage, "unknown type %q", text)
	}

	ft := FieldType{Kind: kind}
	if length == "" && base == text {
		return ft, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(length))
	if err != nil || n < 1 || n > MaxArrayLen {
		return FieldType{}, errors.Wrapf(errors.ErrInvalidArrayLength, "type %q: length must be an integer in [1, %d]", text, MaxArrayLen)
	}
	ft.ArrayLen = n
	return ft, nil
}
