package schema

import (
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/teranos/mavgen/errors"
)

// MaxMessageID is the largest id a MAVLink 2 message can carry (24 bits).
const MaxMessageID = 1<<24 - 1

// Parse reads and parses the definition file at path.
func Parse(path string) (*File, error) {
	canonical, err := Canonical(path)
	if err != nil {
		return nil, err
	}

	fh, err := os.Open(canonical)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer fh.Close()

	return ParseReader(canonical, fh)
}

// ParseReader parses a definition document. path is recorded as the file's
// identity and used in error messages; it is not opened.
func ParseReader(path string, r io.Reader) (*File, error) {
	p := &parser{dec: xml.NewDecoder(r), path: path}
	file := &File{
		Path: path,
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	root, err := p.root()
	if err != nil {
		return nil, err
	}
	if root.Name.Local != "mavlink" {
		return nil, p.errorf("root element is <%s>, want <mavlink>", root.Name.Local)
	}

	_, err = p.children(func(el xml.StartElement) error {
		switch el.Name.Local {
		case "include":
			line := p.line()
			text, err := p.text(el)
			if err != nil {
				return err
			}
			if text == "" {
				return p.errorf("line %d: empty <include>", line)
			}
			file.Includes = append(file.Includes, Include{Path: text, Line: line})
		case "version":
			v, err := p.intElement(el)
			if err != nil {
				return err
			}
			file.Version, file.HasVersion = v, true
		case "dialect":
			v, err := p.intElement(el)
			if err != nil {
				return err
			}
			file.Dialect, file.HasDialect = v, true
		case "enums":
			return p.enums(el, file)
		case "messages":
			return p.messages(el, file)
		default:
			return p.unknown(el, "mavlink")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}

type parser struct {
	dec  *xml.Decoder
	path string
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return errors.Schema(p.path, "%s: "+format, append([]interface{}{filepath.Base(p.path)}, args...)...)
}

func (p *parser) line() int {
	line, _ := p.dec.InputPos()
	return line
}

func (p *parser) unknown(el xml.StartElement, parent string) error {
	return p.errorf("line %d: unknown element <%s> in <%s>", p.line(), el.Name.Local, parent)
}

// root skips the prolog and returns the document element.
func (p *parser) root() (xml.StartElement, error) {
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			return xml.StartElement{}, p.errorf("no root element")
		}
		if err != nil {
			return xml.StartElement{}, p.errorf("%v", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return t, nil
		case xml.CharData:
			if len(strings.TrimSpace(string(t))) > 0 {
				return xml.StartElement{}, p.errorf("text outside the root element")
			}
		}
	}
}

// children walks the content of the element whose start tag was just read,
// calling fn for every child element. fn must consume the child through to
// its end tag. The element's own text content is returned trimmed.
func (p *parser) children(fn func(xml.StartElement) error) (string, error) {
	var text strings.Builder
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			return "", p.errorf("unexpected end of document")
		}
		if err != nil {
			return "", p.errorf("%v", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := fn(t); err != nil {
				return "", err
			}
		case xml.EndElement:
			return strings.TrimSpace(text.String()), nil
		case xml.CharData:
			text.Write(t)
		}
	}
}

// text reads a leaf element's text content; child elements are rejected.
func (p *parser) text(el xml.StartElement) (string, error) {
	return p.children(func(child xml.StartElement) error {
		return p.unknown(child, el.Name.Local)
	})
}

func (p *parser) intElement(el xml.StartElement) (int, error) {
	line := p.line()
	text, err := p.text(el)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(text)
	if err != nil {
		return 0, p.errorf("line %d: <%s> %q is not an integer", line, el.Name.Local, text)
	}
	return v, nil
}

func attr(el xml.StartElement, name string) (string, bool) {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return strings.TrimSpace(a.Value), true
		}
	}
	return "", false
}

func (p *parser) required(el xml.StartElement, name string, line int) (string, error) {
	v, ok := attr(el, name)
	if !ok || v == "" {
		return "", p.errorf("line %d: <%s> is missing required attribute %q", line, el.Name.Local, name)
	}
	return v, nil
}

func (p *parser) deprecation(el xml.StartElement) (*Deprecation, error) {
	note, err := p.text(el)
	if err != nil {
		return nil, err
	}
	since, _ := attr(el, "since")
	replaced, _ := attr(el, "replaced_by")
	return &Deprecation{Since: since, ReplacedBy: replaced, Note: note}, nil
}

func (p *parser) enums(el xml.StartElement, file *File) error {
	_, err := p.children(func(child xml.StartElement) error {
		if child.Name.Local != "enum" {
			return p.unknown(child, el.Name.Local)
		}
		enum, err := p.enum(child)
		if err != nil {
			return err
		}
		file.Enums = append(file.Enums, enum)
		return nil
	})
	return err
}

func (p *parser) enum(el xml.StartElement) (*Enum, error) {
	line := p.line()
	name, err := p.required(el, "name", line)
	if err != nil {
		return nil, err
	}
	enum := &Enum{Name: name, Line: line}
	if b, ok := attr(el, "bitmask"); ok {
		enum.Bitmask = b == "true" || b == "1"
	}

	var next uint64
	_, err = p.children(func(child xml.StartElement) error {
		switch child.Name.Local {
		case "description":
			d, err := p.text(child)
			enum.Description = d
			return err
		case "deprecated", "superseded":
			d, err := p.deprecation(child)
			enum.Deprecated = d
			return err
		case "wip":
			_, err := p.text(child)
			return err
		case "entry":
			entry, err := p.entry(child, next)
			if err != nil {
				return err
			}
			enum.Entries = append(enum.Entries, entry)
			next = entry.Value + 1
			return nil
		default:
			return p.unknown(child, "enum "+name)
		}
	})
	if err != nil {
		return nil, err
	}
	return enum, nil
}

func (p *parser) entry(el xml.StartElement, implicit uint64) (*Entry, error) {
	line := p.line()
	name, err := p.required(el, "name", line)
	if err != nil {
		return nil, err
	}
	entry := &Entry{Name: name, Value: implicit, Line: line}
	if raw, ok := attr(el, "value"); ok {
		v, err := ParseValue(raw)
		if err != nil {
			return nil, p.errorf("line %d: entry %s: %v", line, name, err)
		}
		entry.Value = v
	}

	_, err = p.children(func(child xml.StartElement) error {
		switch child.Name.Local {
		case "description":
			d, err := p.text(child)
			entry.Description = d
			return err
		case "param":
			param, err := p.param(child)
			if err != nil {
				return err
			}
			entry.Params = append(entry.Params, param)
			return nil
		case "deprecated", "superseded":
			d, err := p.deprecation(child)
			entry.Deprecated = d
			return err
		case "wip":
			entry.WIP = true
			_, err := p.text(child)
			return err
		default:
			return p.unknown(child, "entry "+name)
		}
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (p *parser) param(el xml.StartElement) (Param, error) {
	line := p.line()
	raw, err := p.required(el, "index", line)
	if err != nil {
		return Param{}, err
	}
	index, err := strconv.Atoi(raw)
	if err != nil {
		return Param{}, p.errorf("line %d: param index %q is not an integer", line, raw)
	}
	label, _ := attr(el, "label")
	units, _ := attr(el, "units")
	desc, err := p.text(el)
	if err != nil {
		return Param{}, err
	}
	return Param{Index: index, Label: label, Units: units, Description: desc}, nil
}

func (p *parser) messages(el xml.StartElement, file *File) error {
	_, err := p.children(func(child xml.StartElement) error {
		if child.Name.Local != "message" {
			return p.unknown(child, el.Name.Local)
		}
		msg, err := p.message(child)
		if err != nil {
			return err
		}
		file.Messages = append(file.Messages, msg)
		return nil
	})
	return err
}

func (p *parser) message(el xml.StartElement) (*Message, error) {
	line := p.line()
	name, err := p.required(el, "name", line)
	if err != nil {
		return nil, err
	}
	rawID, err := p.required(el, "id", line)
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil || id > MaxMessageID {
		return nil, p.errorf("line %d: message %s: id %q is not an integer in [0, %d]", line, name, rawID, MaxMessageID)
	}

	msg := &Message{ID: uint32(id), Name: name, Line: line}
	_, err = p.children(func(child xml.StartElement) error {
		switch child.Name.Local {
		case "description":
			d, err := p.text(child)
			msg.Description = d
			return err
		case "field":
			field, err := p.field(child)
			if err != nil {
				return err
			}
			field.Extension = msg.ExtensionMarkers > 0
			msg.Fields = append(msg.Fields, field)
			return nil
		case "extensions":
			msg.ExtensionMarkers++
			_, err := p.text(child)
			return err
		case "deprecated", "superseded":
			d, err := p.deprecation(child)
			msg.Deprecated = d
			return err
		case "wip":
			msg.WIP = true
			_, err := p.text(child)
			return err
		default:
			return p.unknown(child, "message "+name)
		}
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (p *parser) field(el xml.StartElement) (*Field, error) {
	line := p.line()
	typ, err := p.required(el, "type", line)
	if err != nil {
		return nil, err
	}
	name, err := p.required(el, "name", line)
	if err != nil {
		return nil, err
	}
	f := &Field{Type: typ, Name: name, Line: line}
	f.Enum, _ = attr(el, "enum")
	f.Units, _ = attr(el, "units")
	f.Display, _ = attr(el, "display")
	f.PrintFormat, _ = attr(el, "print_format")
	f.Invalid, _ = attr(el, "invalid")

	f.Description, err = p.text(el)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ParseValue parses an enum entry value: decimal, 0x hex, 0b binary,
// 0o octal, or a power of two written as 2**N.
func ParseValue(raw string) (uint64, error) {
	s := strings.TrimSpace(raw)
	if exp, ok := strings.CutPrefix(s, "2**"); ok {
		n, err := strconv.ParseUint(strings.TrimSpace(exp), 10, 8)
		if err != nil || n > 63 {
			return 0, errors.Newf("value %q is not a valid power of two", raw)
		}
		return uint64(1) << n, nil
	}

	base := 10
	digits := s
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			base, digits = 16, s[2:]
		case 'b', 'B':
			base, digits = 2, s[2:]
		case 'o', 'O':
			base, digits = 8, s[2:]
		}
	}
	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return 0, errors.Newf("value %q is not an unsigned integer", raw)
	}
	return v, nil
}

// Canonical returns the arena key for path: absolute, cleaned, with
// symlinks resolved when the file exists.
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve %s", path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return filepath.Clean(abs), nil
}
