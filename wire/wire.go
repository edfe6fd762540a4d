// Package wire is the runtime shared by generated dialect packages and the
// dynamic codec: fixed-width little-endian field primitives, extension
// trimming, payload length checks and the codec error kinds.
//
// Payloads handled here are message payloads only. Framing (start marker,
// header, frame checksum, signatures) belongs to the transport that carries
// them. Payloads whose trailing zero bytes were cut by a MAVLink 2 sender
// decode as they are: missing bytes read as zero.
package wire

import (
	"sort"
)

// Message is implemented by every generated message type.
type Message interface {
	// MessageID is the numeric id of the message in its dialect.
	MessageID() uint32
	// MessageName is the definition name, e.g. "HEARTBEAT".
	MessageName() string
	// CRCExtra is the seed byte peers mix into the frame checksum.
	CRCExtra() uint8
	MarshalWire() []byte
	UnmarshalWire(payload []byte) error
}

// MessageInfo describes one message for framing layers that need lengths
// and crc_extra by id without decoding.
type MessageInfo struct {
	ID        uint32 `json:"id" yaml:"id" toml:"id"`
	Name      string `json:"name" yaml:"name" toml:"name"`
	CRCExtra  uint8  `json:"crc_extra" yaml:"crc_extra" toml:"crc_extra"`
	MinLength int    `json:"min_length" yaml:"min_length" toml:"min_length"`
	MaxLength int    `json:"max_length" yaml:"max_length" toml:"max_length"`
}

// FindInfo looks up id in infos, which must be sorted by id as generated
// Messages tables are.
func FindInfo(infos []MessageInfo, id uint32) (MessageInfo, bool) {
	i := sort.Search(len(infos), func(i int) bool { return infos[i].ID >= id })
	if i < len(infos) && infos[i].ID == id {
		return infos[i], true
	}
	return MessageInfo{}, false
}

// TrimExtensions drops trailing extension fields whose bytes are all zero.
// extOffsets are the start offsets of the extension fields in wire order;
// base fields are never trimmed.
func TrimExtensions(payload []byte, extOffsets ...int) []byte {
	end := len(payload)
	for i := len(extOffsets) - 1; i >= 0; i-- {
		start := extOffsets[i]
		if start > end {
			continue
		}
		if !allZero(payload[start:end]) {
			break
		}
		end = start
	}
	return payload[:end]
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// CString returns the text of a fixed-length character array, which is
// NUL-terminated only when shorter than the array.
func CString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// SetCString copies s into dst, zeroing the remainder. Text longer than dst
// is cut. It reports whether s fit.
func SetCString(dst []byte, s string) bool {
	n := copy(dst, s)
	clear(dst[n:])
	return n == len(s)
}
