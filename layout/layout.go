// Package layout derives the wire layout of each message: the order its
// fields are serialized in, their byte offsets, the payload length bounds
// and the crc_extra seed byte.
//
// Base fields are serialized widest element first, ties keeping declaration
// order. Extension fields follow in declaration order and are never
// reordered, so appending extensions never moves a base field.
package layout

import (
	"sort"

	"fortio.org/safecast"

	"github.com/teranos/mavgen/errors"
	"github.com/teranos/mavgen/model"
)

// Message is a model message together with its planned layout.
type Message struct {
	*model.Message

	// WireOrder is every field in serialization order.
	WireOrder []*model.Field
	// Offsets[i] is the byte offset of WireOrder[i].
	Offsets []int
	// MinLength is the payload length of the base fields alone; shorter
	// payloads cannot be decoded.
	MinLength int
	// MaxLength is the payload length with every extension present.
	MaxLength int
	CRCExtra  uint8
}

// ExtensionOffsets returns the offsets of the extension fields in wire
// order. The first one, when present, equals MinLength.
func (m *Message) ExtensionOffsets() []int {
	var out []int
	for i, f := range m.WireOrder {
		if f.Extension {
			out = append(out, m.Offsets[i])
		}
	}
	return out
}

// Dialect is a model set with every message planned.
type Dialect struct {
	Set      *model.Set
	Messages []*Message
	byID     map[uint32]*Message
}

// Name is the dialect name.
func (d *Dialect) Name() string {
	return d.Set.Name
}

// Message returns the planned message with the given id, or nil.
func (d *Dialect) Message(id uint32) *Message {
	return d.byID[id]
}

// Plan lays out every message of set, in set order.
func Plan(set *model.Set) (*Dialect, error) {
	d := &Dialect{
		Set:      set,
		Messages: make([]*Message, 0, len(set.Messages)),
		byID:     make(map[uint32]*Message, len(set.Messages)),
	}
	for _, msg := range set.Messages {
		planned, err := Layout(msg)
		if err != nil {
			return nil, errors.WithDetailf(err, "dialect: %s", set.Name)
		}
		d.Messages = append(d.Messages, planned)
		d.byID[msg.ID] = planned
	}
	return d, nil
}

// Layout plans one message.
func Layout(msg *model.Message) (*Message, error) {
	order := WireOrder(msg)
	crc, err := CRCExtra(msg)
	if err != nil {
		return nil, err
	}

	m := &Message{
		Message:   msg,
		WireOrder: order,
		Offsets:   make([]int, len(order)),
		MinLength: -1,
		CRCExtra:  crc,
	}
	offset := 0
	for i, f := range order {
		if f.Extension && m.MinLength < 0 {
			m.MinLength = offset
		}
		m.Offsets[i] = offset
		offset += f.Type.Size()
	}
	m.MaxLength = offset
	if m.MinLength < 0 {
		m.MinLength = offset
	}
	return m, nil
}

// WireOrder returns msg's fields in serialization order: base fields
// stably sorted by decreasing element width, then extension fields in
// declaration order.
func WireOrder(msg *model.Message) []*model.Field {
	base := msg.BaseFields()
	sort.SliceStable(base, func(i, j int) bool {
		return base[i].Type.Kind.Size() > base[j].Type.Kind.Size()
	})
	return append(base, msg.ExtensionFields()...)
}

// CRCExtra computes the crc_extra byte of msg: the X.25 checksum of the
// message name and, for each base field in wire order, its element type
// name, its name and (for arrays) its length byte, folded to one byte.
// Extension fields, descriptions and units do not contribute.
func CRCExtra(msg *model.Message) (uint8, error) {
	crc := NewCRC()
	crc.WriteString(msg.Name + " ")
	for _, f := range WireOrder(msg) {
		if f.Extension {
			break
		}
		crc.WriteString(f.Type.Kind.String() + " ")
		crc.WriteString(f.Name + " ")
		if f.Type.IsArray() {
			n, err := safecast.Conv[uint8](f.Type.ArrayLen)
			if err != nil {
				return 0, errors.Wrapf(errors.ErrInvalidArrayLength, "%s.%s: length %d", msg.Name, f.Name, f.Type.ArrayLen)
			}
			crc.AddByte(n)
		}
	}
	return crc.Fold(), nil
}
