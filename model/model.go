// Package model is the semantic model of one dialect: the flattened,
// validated enums and messages of a definition file and everything it
// includes.
//
// A Set is built once by Build and never mutated afterwards. Field types
// are already converted to the closed Kind set, enum references are known
// to resolve, and ordering is deterministic (enums by name, entries by
// value, messages by id), so later stages never see raw definition text.
package model

import (
	"github.com/teranos/mavgen/schema"
)

// MaxPayloadLen is the largest message payload MAVLink 2 can frame.
const MaxPayloadLen = 255

// Set is the validated model of one dialect.
type Set struct {
	// Name is the dialect name derived from the root file name.
	Name string
	// Path is the canonical path of the root definition file.
	Path string
	// Files lists the closure's file names, included files first.
	Files []string

	Version       int
	HasVersion    bool
	DialectNumber int
	HasDialect    bool

	Enums    []*Enum
	Messages []*Message

	enumsByName    map[string]*Enum
	messagesByID   map[uint32]*Message
	messagesByName map[string]*Message
}

// Enum returns the enum with the given definition name, or nil.
func (s *Set) Enum(name string) *Enum {
	return s.enumsByName[name]
}

// Message returns the message with the given id, or nil.
func (s *Set) Message(id uint32) *Message {
	return s.messagesByID[id]
}

// MessageByName returns the message with the given definition name, or nil.
func (s *Set) MessageByName(name string) *Message {
	return s.messagesByName[name]
}

// Enum is a merged enumeration. Same-named enums from different files of
// the closure are one Enum holding the union of their entries.
type Enum struct {
	Name        string
	Description string
	Bitmask     bool
	Deprecated  *schema.Deprecation
	Entries     []*Entry
	// Origin is the file that first declared the enum.
	Origin string
}

// Entry looks up an entry by name.
func (e *Enum) Entry(name string) *Entry {
	for _, entry := range e.Entries {
		if entry.Name == name {
			return entry
		}
	}
	return nil
}

// MaxValue is the largest entry value, 0 for an enum without entries.
func (e *Enum) MaxValue() uint64 {
	var max uint64
	for _, entry := range e.Entries {
		if entry.Value > max {
			max = entry.Value
		}
	}
	return max
}

// Entry is one named enum value.
type Entry struct {
	Name        string
	Value       uint64
	Description string
	Params      []schema.Param
	// Bitmask is inherited from the enum declaration the entry came from.
	Bitmask    bool
	Deprecated *schema.Deprecation
	WIP        bool
	Origin     string
}

// Message is one message definition. Fields are in declaration order; the
// wire order and crc_extra are derived by the layout package.
type Message struct {
	ID          uint32
	Name        string
	Description string
	Fields      []*Field
	Deprecated  *schema.Deprecation
	WIP         bool
	Origin      string
}

// BaseFields returns the fields declared before the extensions marker.
func (m *Message) BaseFields() []*Field {
	var out []*Field
	for _, f := range m.Fields {
		if !f.Extension {
			out = append(out, f)
		}
	}
	return out
}

// ExtensionFields returns the fields declared after the extensions marker.
func (m *Message) ExtensionFields() []*Field {
	var out []*Field
	for _, f := range m.Fields {
		if f.Extension {
			out = append(out, f)
		}
	}
	return out
}

// Field looks up a field by name.
func (m *Message) Field(name string) *Field {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Field is one message field.
type Field struct {
	Name string
	Type FieldType
	// Enum names the enum the value is drawn from; empty when none.
	Enum        string
	Units       string
	Display     string
	PrintFormat string
	Invalid     string
	Description string
	Extension   bool
	// Index is the position in declaration order.
	Index int
}
