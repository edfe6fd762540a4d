package golang

import (
	"strconv"

	"github.com/teranos/mavgen/codegen"
	"github.com/teranos/mavgen/layout"
	"github.com/teranos/mavgen/model"
)

// Package-level names every dialect package declares.
var packageReserved = []string{
	"Dialect", "Version", "DialectNumber",
	"Message", "Decode", "Messages", "Info",
}

// Methods every message type declares; fields must not collide with them.
var messageReserved = []string{
	"MessageID", "MessageName", "CRCExtra", "MarshalWire", "UnmarshalWire",
}

// dialectDecls fixes every identifier of one dialect package. Identifiers
// are declared in a fixed order (reserved names, enums by name, their
// entries, messages by id) so escaping is deterministic.
type dialectDecls struct {
	d        *layout.Dialect
	pkg      string
	enums    []*enumDecl
	enumByID map[string]*enumDecl
	messages []*messageDecl
}

type enumDecl struct {
	enum       *model.Enum
	ident      string
	underlying string
	bitmask    bool
	entries    []entryDecl
}

type entryDecl struct {
	entry *model.Entry
	ident string
	// duplicate marks an entry whose value an earlier entry already has.
	duplicate bool
}

type messageDecl struct {
	msg      *layout.Message
	ident    string
	idConst  string
	crcConst string
	minConst string
	maxConst string
	fields   map[*model.Field]string
}

func declare(d *layout.Dialect) *dialectDecls {
	namer := codegen.NewNamer()
	scope := codegen.NewScope(packageReserved...)
	decls := &dialectDecls{
		d:        d,
		pkg:      codegen.PackageName(d.Name(), "wire", "strconv", "strings"),
		enumByID: make(map[string]*enumDecl, len(d.Set.Enums)),
	}

	for _, e := range d.Set.Enums {
		ed := &enumDecl{
			enum:       e,
			ident:      scope.Declare(namer.Pascal(e.Name)),
			bitmask:    e.Bitmask,
			underlying: "uint" + strconv.Itoa(8*enumWidth(d, e)),
		}
		for _, msg := range d.Messages {
			for _, f := range msg.Fields {
				if f.Enum == e.Name && f.Display == "bitmask" {
					ed.bitmask = true
				}
			}
		}
		decls.enums = append(decls.enums, ed)
		decls.enumByID[e.Name] = ed
	}
	for _, ed := range decls.enums {
		seen := make(map[uint64]bool, len(ed.enum.Entries))
		for _, entry := range ed.enum.Entries {
			ed.entries = append(ed.entries, entryDecl{
				entry:     entry,
				ident:     scope.Declare(namer.Pascal(entry.Name)),
				duplicate: seen[entry.Value],
			})
			seen[entry.Value] = true
		}
	}

	for _, msg := range d.Messages {
		ident := scope.Declare(namer.Pascal(msg.Name))
		md := &messageDecl{
			msg:      msg,
			ident:    ident,
			idConst:  scope.Declare(ident + "ID"),
			crcConst: scope.Declare(ident + "CRCExtra"),
			minConst: scope.Declare(ident + "MinLength"),
			maxConst: scope.Declare(ident + "MaxLength"),
			fields:   make(map[*model.Field]string, len(msg.Fields)),
		}
		fieldScope := codegen.NewScope(messageReserved...)
		for _, f := range msg.Fields {
			md.fields[f] = fieldScope.Declare(namer.Pascal(f.Name))
		}
		decls.messages = append(decls.messages, md)
	}
	return decls
}

// typeIdents lists the exported type names of the package in declaration
// order, for re-export.
func (d *dialectDecls) typeIdents() []string {
	out := []string{"Message"}
	for _, e := range d.enums {
		out = append(out, e.ident)
	}
	for _, m := range d.messages {
		out = append(out, m.ident)
	}
	return out
}

// enumWidth is the byte width of an enum's underlying type: wide enough for
// every entry value and for every field that carries the enum.
func enumWidth(d *layout.Dialect, e *model.Enum) int {
	width := 1
	switch top := e.MaxValue(); {
	case top > 0xFFFFFFFF:
		width = 8
	case top > 0xFFFF:
		width = 4
	case top > 0xFF:
		width = 2
	}
	for _, msg := range d.Messages {
		for _, f := range msg.Fields {
			if f.Enum == e.Name && f.Type.Kind.Size() > width {
				width = f.Type.Kind.Size()
			}
		}
	}
	return width
}
