package model

import (
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/teranos/mavgen/errors"
	"github.com/teranos/mavgen/logger"
	"github.com/teranos/mavgen/schema"
)

// Builder flattens include graphs into Sets.
type Builder struct {
	Logger *zap.SugaredLogger
}

// Build flattens g with a default Builder.
func Build(g *schema.Graph) (*Set, error) {
	return (&Builder{}).Build(g)
}

// Build flattens the include closure of g into a validated Set.
//
// Files are merged in closure order (included files first). Same-named
// enums are merged entry by entry; messages are keyed by id and name and
// must be unique across the closure.
func (b *Builder) Build(g *schema.Graph) (*Set, error) {
	rootFile := g.File(g.Root)
	if rootFile == nil {
		return nil, errors.AssertionFailedf("include graph has no root file %s", g.Root)
	}

	set := &Set{
		Name:           schema.DialectName(g.Root),
		Path:           g.Root,
		enumsByName:    make(map[string]*Enum),
		messagesByID:   make(map[uint32]*Message),
		messagesByName: make(map[string]*Message),
	}
	log := logger.ChildLogger(logger.OrNop(b.Logger), logger.FieldDialect, set.Name)

	closure := g.Closure()
	for _, file := range closure {
		set.Files = append(set.Files, filepath.Base(file.Path))
	}

	// Version and dialect number come from the root, falling back to the
	// nearest included file that declares one.
	for i := len(closure) - 1; i >= 0; i-- {
		f := closure[i]
		if f.HasVersion && !set.HasVersion {
			set.Version, set.HasVersion = f.Version, true
		}
		if f.HasDialect && !set.HasDialect {
			set.DialectNumber, set.HasDialect = f.Dialect, true
		}
	}

	for _, file := range closure {
		origin := filepath.Base(file.Path)
		for _, raw := range file.Enums {
			if err := set.mergeEnum(raw, origin); err != nil {
				return nil, err
			}
		}
		for _, raw := range file.Messages {
			msg, err := set.convertMessage(raw, origin)
			if err != nil {
				return nil, err
			}
			if err := set.addMessage(msg); err != nil {
				return nil, err
			}
		}
	}

	for _, msg := range set.Messages {
		if err := set.validateMessage(msg); err != nil {
			return nil, err
		}
	}

	set.sort()
	log.Debugw("model built",
		"files", len(set.Files),
		"enums", len(set.Enums),
		"messages", len(set.Messages),
	)
	return set, nil
}

func (s *Set) mergeEnum(raw *schema.Enum, origin string) error {
	enum, exists := s.enumsByName[raw.Name]
	if !exists {
		enum = &Enum{
			Name:        raw.Name,
			Description: raw.Description,
			Deprecated:  raw.Deprecated,
			Origin:      origin,
		}
		s.enumsByName[raw.Name] = enum
		s.Enums = append(s.Enums, enum)
	}
	enum.Bitmask = enum.Bitmask || raw.Bitmask
	if enum.Description == "" {
		enum.Description = raw.Description
	}

	for _, e := range raw.Entries {
		if prev := enum.Entry(e.Name); prev != nil {
			if prev.Value != e.Value {
				return errors.Element(errors.ErrDuplicateEnumEntry, s.Name, raw.Name+"."+e.Name,
					"value %d in %s conflicts with %d in %s", e.Value, origin, prev.Value, prev.Origin)
			}
			continue
		}
		enum.Entries = append(enum.Entries, &Entry{
			Name:        e.Name,
			Value:       e.Value,
			Description: e.Description,
			Params:      e.Params,
			Bitmask:     raw.Bitmask,
			Deprecated:  e.Deprecated,
			WIP:         e.WIP,
			Origin:      origin,
		})
	}
	return nil
}

func (s *Set) convertMessage(raw *schema.Message, origin string) (*Message, error) {
	if raw.ExtensionMarkers > 1 {
		return nil, errors.Element(errors.ErrMalformedMessage, s.Name, raw.Name,
			"%d extension markers, at most one allowed", raw.ExtensionMarkers)
	}

	msg := &Message{
		ID:          raw.ID,
		Name:        raw.Name,
		Description: raw.Description,
		Deprecated:  raw.Deprecated,
		WIP:         raw.WIP,
		Origin:      origin,
	}
	seen := make(map[string]bool, len(raw.Fields))
	for i, rf := range raw.Fields {
		if seen[rf.Name] {
			return nil, errors.Element(errors.ErrMalformedMessage, s.Name, raw.Name+"."+rf.Name, "duplicate field name")
		}
		seen[rf.Name] = true

		ft, err := ParseFieldType(rf.Type)
		if err != nil {
			return nil, errors.WithDetailf(errors.Wrapf(err, "%s.%s", raw.Name, rf.Name), "dialect: %s", s.Name)
		}
		msg.Fields = append(msg.Fields, &Field{
			Name:        rf.Name,
			Type:        ft,
			Enum:        rf.Enum,
			Units:       rf.Units,
			Display:     rf.Display,
			PrintFormat: rf.PrintFormat,
			Invalid:     rf.Invalid,
			Description: rf.Description,
			Extension:   rf.Extension,
			Index:       i,
		})
	}
	return msg, nil
}

func (s *Set) addMessage(msg *Message) error {
	if prev, ok := s.messagesByID[msg.ID]; ok {
		return errors.WithHint(
			errors.Element(errors.ErrDuplicateMessageID, s.Name, msg.Name,
				"id %d in %s is already used by %s in %s", msg.ID, msg.Origin, prev.Name, prev.Origin),
			"message ids must be unique across a dialect and everything it includes",
		)
	}
	if prev, ok := s.messagesByName[msg.Name]; ok {
		return errors.Element(errors.ErrDuplicateMessageName, s.Name, msg.Name,
			"id %d in %s reuses the name of id %d in %s", msg.ID, msg.Origin, prev.ID, prev.Origin)
	}
	s.messagesByID[msg.ID] = msg
	s.messagesByName[msg.Name] = msg
	s.Messages = append(s.Messages, msg)
	return nil
}

// validateMessage runs once every file is merged, so enum references may
// point at enums declared in any file of the closure.
func (s *Set) validateMessage(msg *Message) error {
	if len(msg.BaseFields()) == 0 {
		return errors.Element(errors.ErrMalformedMessage, s.Name, msg.Name, "no fields before the extensions marker")
	}

	size := 0
	for _, f := range msg.Fields {
		size += f.Type.Size()
		if f.Enum == "" {
			continue
		}
		if s.enumsByName[f.Enum] == nil {
			return errors.Element(errors.ErrUnknownEnumReference, s.Name, msg.Name+"."+f.Name, "enum %q is not defined", f.Enum)
		}
		if !f.Type.Kind.IsInteger() {
			return errors.Element(errors.ErrMalformedMessage, s.Name, msg.Name+"."+f.Name,
				"enum %q on non-integer type %s", f.Enum, f.Type)
		}
	}
	if size > MaxPayloadLen {
		return errors.Element(errors.ErrMalformedMessage, s.Name, msg.Name,
			"payload is %d bytes, at most %d allowed", size, MaxPayloadLen)
	}
	return nil
}

func (s *Set) sort() {
	sort.Slice(s.Enums, func(i, j int) bool { return s.Enums[i].Name < s.Enums[j].Name })
	for _, e := range s.Enums {
		sort.SliceStable(e.Entries, func(i, j int) bool {
			if e.Entries[i].Value != e.Entries[j].Value {
				return e.Entries[i].Value < e.Entries[j].Value
			}
			return e.Entries[i].Name < e.Entries[j].Name
		})
	}
	sort.Slice(s.Messages, func(i, j int) bool { return s.Messages[i].ID < s.Messages[j].ID })
}
