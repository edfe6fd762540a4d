package golang

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/teranos/mavgen/codegen"
	"github.com/teranos/mavgen/model"
	"github.com/teranos/mavgen/schema"
)

// dialectFile renders one dialect package.
type dialectFile struct {
	decls *dialectDecls
	opts  Options
	b     strings.Builder
}

func (f *dialectFile) printf(format string, args ...any) {
	fmt.Fprintf(&f.b, format, args...)
}

func (f *dialectFile) render() []byte {
	d := f.decls.d
	set := d.Set

	f.printf("// %s\n", codegen.Header)
	f.printf("// Source: %s\n", filepath.Base(set.Path))
	if len(set.Files) > 1 {
		f.printf("// Includes: %s\n", strings.Join(set.Files[:len(set.Files)-1], ", "))
	}
	f.printf("\n")
	f.b.WriteString(codegen.Comment("", "// ", fmt.Sprintf(
		"Package %s holds the messages and enums of the %s MAVLink dialect.", f.decls.pkg, d.Name())))
	f.printf("//\n")
	f.b.WriteString(codegen.Comment("", "// ",
		"Enum-typed fields carry the raw wire integer. Values without a declared entry are valid and survive a decode and encode unchanged."))
	f.printf("package %s\n\n", f.decls.pkg)

	f.printf("import (\n")
	if len(f.decls.enums) > 0 {
		f.printf("\t%q\n", "strconv")
	}
	if f.hasBitmask() {
		f.printf("\t%q\n", "strings")
	}
	f.printf("\n\t%q\n)\n\n", WireImport)

	f.printf("const (\n")
	f.printf("\t// Dialect is the tag this dialect is dispatched under.\n")
	f.printf("\tDialect = %q\n", d.Name())
	if set.HasVersion {
		f.printf("\t// Version is the protocol version the definitions declare.\n")
		f.printf("\tVersion = %d\n", set.Version)
	}
	if set.HasDialect {
		f.printf("\t// DialectNumber is the dialect number the definitions declare.\n")
		f.printf("\tDialectNumber = %d\n", set.DialectNumber)
	}
	f.printf(")\n\n")

	for _, e := range f.decls.enums {
		f.renderEnum(e)
	}

	f.printf("// Message is implemented by every message of the %s dialect.\n", d.Name())
	f.printf("type Message interface {\n\twire.Message\n\tisMessage()\n}\n\n")

	for _, m := range f.decls.messages {
		f.renderMessage(m)
	}

	f.renderDecode()
	return []byte(f.b.String())
}

func (f *dialectFile) hasBitmask() bool {
	for _, e := range f.decls.enums {
		if e.bitmask {
			return true
		}
	}
	return false
}

// docParagraphs renders the standard trailing paragraphs of a definition.
func (f *dialectFile) docParagraphs(indent string, dep *schema.Deprecation, wip bool) {
	if wip {
		f.printf("%s//\n", indent)
		f.b.WriteString(codegen.Comment(indent, "// ", "Work in progress: this definition may still change."))
	}
	if dep != nil {
		f.printf("%s//\n", indent)
		f.b.WriteString(codegen.Comment(indent, "// ", deprecationText(dep)))
	}
}

func deprecationText(dep *schema.Deprecation) string {
	text := "Deprecated:"
	if dep.Since != "" {
		text += " since " + dep.Since + "."
	}
	if dep.ReplacedBy != "" {
		text += " Use " + dep.ReplacedBy + " instead."
	}
	if dep.Note != "" {
		text += " " + dep.Note
	}
	if text == "Deprecated:" {
		text += " do not use in new code."
	}
	return text
}

func (f *dialectFile) renderEnum(e *enumDecl) {
	summary := fmt.Sprintf("%s is %s.", e.ident, e.enum.Name)
	if desc := codegen.NormalizeText(e.enum.Description); desc != "" {
		summary = fmt.Sprintf("%s is %s: %s", e.ident, e.enum.Name, desc)
	}
	f.b.WriteString(codegen.Comment("", "// ", summary))
	if e.bitmask {
		f.printf("//\n// Values are bit flags; combine them with |.\n")
	}
	f.docParagraphs("", e.enum.Deprecated, false)
	f.printf("type %s %s\n\n", e.ident, e.underlying)

	if len(e.entries) > 0 {
		f.printf("const (\n")
		for i, entry := range e.entries {
			if i > 0 {
				f.printf("\n")
			}
			f.renderEntry(e, entry)
		}
		f.printf(")\n\n")
	}

	f.printf("// String returns the definition name of e, or %s(n) for a value\n// without an entry.\n", e.ident)
	f.printf("func (e %s) String() string {\n", e.ident)
	if known := e.known(); len(known) > 0 {
		f.printf("\tswitch e {\n")
		for _, entry := range known {
			f.printf("\tcase %s:\n\t\treturn %q\n", entry.ident, entry.entry.Name)
		}
		f.printf("\t}\n")
	}
	if e.bitmask {
		f.printf("\tvar names []string\n\trest := e\n")
		f.printf("\tfor _, flag := range [...]%s{", e.ident)
		first := true
		for _, entry := range e.known() {
			if entry.entry.Value == 0 {
				continue
			}
			if !first {
				f.printf(", ")
			}
			f.printf("%s", entry.ident)
			first = false
		}
		f.printf("} {\n")
		f.printf("\t\tif rest&flag == flag {\n\t\t\tnames = append(names, flag.String())\n\t\t\trest &^= flag\n\t\t}\n\t}\n")
		f.printf("\tif rest != 0 || len(names) == 0 {\n")
		f.printf("\t\tnames = append(names, %q+strconv.FormatUint(uint64(rest), 10)+\")\")\n", e.ident+"(")
		f.printf("\t}\n\treturn strings.Join(names, \"|\")\n}\n\n")
	} else {
		f.printf("\treturn %q + strconv.FormatUint(uint64(e), 10) + \")\"\n}\n\n", e.ident+"(")
	}

	f.printf("// IsKnown reports whether e is a declared entry.\n")
	f.printf("func (e %s) IsKnown() bool {\n", e.ident)
	if known := e.known(); len(known) > 0 {
		idents := make([]string, len(known))
		for i, entry := range known {
			idents[i] = entry.ident
		}
		f.printf("\tswitch e {\n\tcase %s:\n\t\treturn true\n\t}\n", strings.Join(idents, ", "))
	}
	f.printf("\treturn false\n}\n\n")

	if e.bitmask {
		f.printf("// Has reports whether every bit of flag is set in e.\n")
		f.printf("func (e %s) Has(flag %s) bool {\n\treturn e&flag == flag\n}\n\n", e.ident, e.ident)
	}
}

// known returns the entries with distinct values, first name first.
func (e *enumDecl) known() []entryDecl {
	var out []entryDecl
	for _, entry := range e.entries {
		if !entry.duplicate {
			out = append(out, entry)
		}
	}
	return out
}

func (f *dialectFile) renderEntry(e *enumDecl, entry entryDecl) {
	summary := fmt.Sprintf("%s is %s.", entry.ident, entry.entry.Name)
	if desc := codegen.NormalizeText(entry.entry.Description); desc != "" {
		summary = fmt.Sprintf("%s is %s: %s", entry.ident, entry.entry.Name, desc)
	}
	f.b.WriteString(codegen.Comment("\t", "// ", summary))
	if len(entry.entry.Params) > 0 {
		f.printf("\t//\n")
		for _, p := range entry.entry.Params {
			f.b.WriteString(codegen.Comment("\t", "// ", paramText(p)))
		}
	}
	f.docParagraphs("\t", entry.entry.Deprecated, entry.entry.WIP)
	f.printf("\t%s %s = %d\n", entry.ident, e.ident, entry.entry.Value)
}

func paramText(p schema.Param) string {
	text := "Param " + strconv.Itoa(p.Index)
	if p.Label != "" {
		text += " (" + p.Label + ")"
	}
	text += ":"
	if p.Description != "" {
		text += " " + p.Description
	}
	if p.Units != "" {
		text += " [" + p.Units + "]"
	}
	return text
}

// goType is the Go type of a field, enum fields typed with their enum.
func (f *dialectFile) goType(field *model.Field) string {
	elem := f.elemType(field)
	if field.Type.IsArray() {
		return "[" + strconv.Itoa(field.Type.ArrayLen) + "]" + elem
	}
	return elem
}

func (f *dialectFile) elemType(field *model.Field) string {
	if field.Enum != "" {
		return f.decls.enumByID[field.Enum].ident
	}
	return scalarType(field.Type.Kind)
}

func scalarType(k model.Kind) string {
	switch k {
	case model.KindChar:
		return "byte"
	case model.KindFloat:
		return "float32"
	case model.KindDouble:
		return "float64"
	}
	return strings.TrimSuffix(k.String(), "_t")
}

// codecMethod is the wire.Writer / wire.Reader method for a kind.
func codecMethod(k model.Kind) string {
	switch k {
	case model.KindInt8:
		return "Int8"
	case model.KindUint8, model.KindChar:
		return "Uint8"
	case model.KindInt16:
		return "Int16"
	case model.KindUint16:
		return "Uint16"
	case model.KindInt32:
		return "Int32"
	case model.KindUint32:
		return "Uint32"
	case model.KindInt64:
		return "Int64"
	case model.KindUint64:
		return "Uint64"
	case model.KindFloat:
		return "Float32"
	case model.KindDouble:
		return "Float64"
	}
	return ""
}

func (f *dialectFile) renderMessage(m *messageDecl) {
	msg := m.msg
	summary := fmt.Sprintf("%s is %s (id %d).", m.ident, msg.Name, msg.ID)
	if desc := codegen.NormalizeText(msg.Description); desc != "" {
		summary = fmt.Sprintf("%s is %s (id %d): %s", m.ident, msg.Name, msg.ID, desc)
	}
	f.b.WriteString(codegen.Comment("", "// ", summary))
	f.docParagraphs("", msg.Deprecated, msg.WIP)
	f.printf("type %s struct {\n", m.ident)
	for i, field := range msg.Fields {
		if field.Extension && (i == 0 || !msg.Fields[i-1].Extension) {
			f.printf("\n\t// Extension fields may be cut from the payload; missing bytes read as zero.\n")
		}
		if i > 0 {
			f.printf("\n")
		}
		f.b.WriteString(codegen.Comment("\t", "// ", field.Description))
		if field.Units != "" {
			f.printf("\t// Units: %s\n", field.Units)
		}
		if field.Invalid != "" {
			f.printf("\t// Invalid value: %s\n", field.Invalid)
		}
		if field.Type.MavlinkVersion {
			f.printf("\t// Set this to the protocol version.\n")
		}
		f.printf("\t%s %s\n", m.fields[field], f.goType(field))
	}
	f.printf("}\n\n")

	f.printf("// Identity and payload bounds of %s.\n", msg.Name)
	f.printf("const (\n")
	f.printf("\t%s uint32 = %d\n", m.idConst, msg.ID)
	f.printf("\t%s uint8 = %d\n", m.crcConst, msg.CRCExtra)
	f.printf("\t%s = %d\n", m.minConst, msg.MinLength)
	f.printf("\t%s = %d\n", m.maxConst, msg.MaxLength)
	f.printf(")\n\n")

	f.printf("// MessageID returns %s.\n", m.idConst)
	f.printf("func (*%s) MessageID() uint32 { return %s }\n\n", m.ident, m.idConst)
	f.printf("// MessageName returns %q.\n", msg.Name)
	f.printf("func (*%s) MessageName() string { return %q }\n\n", m.ident, msg.Name)
	f.printf("// CRCExtra returns %s.\n", m.crcConst)
	f.printf("func (*%s) CRCExtra() uint8 { return %s }\n\n", m.ident, m.crcConst)
	f.printf("func (*%s) isMessage() {}\n\n", m.ident)

	f.renderMarshal(m)
	f.renderUnmarshal(m)
}

func (f *dialectFile) renderMarshal(m *messageDecl) {
	msg := m.msg
	f.printf("// MarshalWire encodes m in wire order.\n")
	f.printf("func (m *%s) MarshalWire() []byte {\n", m.ident)
	f.printf("\tw := wire.NewWriter(%s)\n", m.maxConst)
	for _, field := range msg.WireOrder {
		name := "m." + m.fields[field]
		method := codecMethod(field.Type.Kind)
		switch {
		case field.Type.IsString():
			f.printf("\tw.Bytes(%s[:])\n", name)
		case field.Type.IsArray():
			f.printf("\tfor _, v := range %s {\n\t\tw.%s(%s)\n\t}\n", name, method, convert(field, "v"))
		default:
			f.printf("\tw.%s(%s)\n", method, convert(field, name))
		}
	}
	offsets := msg.ExtensionOffsets()
	if f.opts.TrimExtensions && len(offsets) > 0 {
		strs := make([]string, len(offsets))
		for i, o := range offsets {
			strs[i] = strconv.Itoa(o)
		}
		f.printf("\treturn wire.TrimExtensions(w.Payload(), %s)\n}\n\n", strings.Join(strs, ", "))
		return
	}
	f.printf("\treturn w.Payload()\n}\n\n")
}

// convert wraps expr in the wire type conversion an enum-typed field needs.
func convert(field *model.Field, expr string) string {
	if field.Enum == "" {
		return expr
	}
	return scalarType(field.Type.Kind) + "(" + expr + ")"
}

func (f *dialectFile) renderUnmarshal(m *messageDecl) {
	msg := m.msg
	f.printf("// UnmarshalWire decodes payload into m. Payloads shorter than\n")
	f.printf("// %s fail with wire.ErrTruncatedPayload.\n", m.minConst)
	f.printf("func (m *%s) UnmarshalWire(payload []byte) error {\n", m.ident)
	f.printf("\tif err := wire.CheckLength(%q, payload, %s); err != nil {\n\t\treturn err\n\t}\n", msg.Name, m.minConst)
	f.printf("\tr := wire.NewReader(payload)\n")
	for _, field := range msg.WireOrder {
		name := "m." + m.fields[field]
		method := codecMethod(field.Type.Kind)
		switch {
		case field.Type.IsString():
			f.printf("\tr.Bytes(%s[:])\n", name)
		case field.Type.IsArray():
			f.printf("\tfor i, sub := 0, r.Sub(%d); i < len(%s); i++ {\n", field.Type.Size(), name)
			f.printf("\t\t%s[i] = %s\n\t}\n", name, f.fromWire(field, "sub."+method+"()"))
		default:
			f.printf("\t%s = %s\n", name, f.fromWire(field, "r."+method+"()"))
		}
	}
	f.printf("\treturn nil\n}\n\n")
}

func (f *dialectFile) fromWire(field *model.Field, expr string) string {
	if field.Enum == "" {
		return expr
	}
	return f.elemType(field) + "(" + expr + ")"
}

func (f *dialectFile) renderDecode() {
	f.printf("var messages = []wire.MessageInfo{\n")
	for _, m := range f.decls.messages {
		f.printf("\t{ID: %s, Name: %q, CRCExtra: %s, MinLength: %s, MaxLength: %s},\n",
			m.idConst, m.msg.Name, m.crcConst, m.minConst, m.maxConst)
	}
	f.printf("}\n\n")

	f.printf("// Messages describes every message of the dialect, sorted by id.\n")
	f.printf("func Messages() []wire.MessageInfo {\n\treturn append([]wire.MessageInfo(nil), messages...)\n}\n\n")

	f.printf("// Info describes message id, for framing layers that need its\n// crc_extra or lengths.\n")
	f.printf("func Info(id uint32) (wire.MessageInfo, bool) {\n\treturn wire.FindInfo(messages, id)\n}\n\n")

	f.printf("// Decode parses payload as message id of this dialect. Unknown ids fail\n// with wire.ErrUnknownMessageID.\n")
	f.printf("func Decode(id uint32, payload []byte) (Message, error) {\n")
	f.printf("\tvar m Message\n\tswitch id {\n")
	for _, m := range f.decls.messages {
		f.printf("\tcase %s:\n\t\tm = new(%s)\n", m.idConst, m.ident)
	}
	f.printf("\tdefault:\n\t\treturn nil, wire.UnknownMessageID(Dialect, id)\n\t}\n")
	f.printf("\tif err := m.UnmarshalWire(payload); err != nil {\n\t\treturn nil, err\n\t}\n")
	f.printf("\treturn m, nil\n}\n")
}
