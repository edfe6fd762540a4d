// Package markdown renders planned dialects as reference pages: one page
// per dialect with every enum and message, and a README indexing them.
//
// Message tables list fields in wire order with their byte offsets, which is
// what someone reading a packet capture needs.
package markdown

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/teranos/mavgen/binder"
	"github.com/teranos/mavgen/codegen"
	"github.com/teranos/mavgen/layout"
	"github.com/teranos/mavgen/model"
)

// Generator implements codegen.Generator for Markdown
type Generator struct{}

// NewGenerator creates a new Markdown generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Language returns "markdown"
func (g *Generator) Language() string {
	return "markdown"
}

// FileExtension returns "md"
func (g *Generator) FileExtension() string {
	return "md"
}

// GenerateUnit renders the reference page of one dialect.
func (g *Generator) GenerateUnit(d *layout.Dialect) (*codegen.Unit, error) {
	var sb strings.Builder
	set := d.Set

	sb.WriteString(fmt.Sprintf("<!-- %s -->\n\n", codegen.Header))
	sb.WriteString(fmt.Sprintf("# %s\n\n", d.Name()))
	sb.WriteString(fmt.Sprintf("Source: `%s`", filepath.Base(set.Path)))
	if set.HasVersion {
		sb.WriteString(fmt.Sprintf(" · version %d", set.Version))
	}
	if set.HasDialect {
		sb.WriteString(fmt.Sprintf(" · dialect %d", set.DialectNumber))
	}
	sb.WriteString("\n\n")
	if len(set.Files) > 1 {
		includes := make([]string, 0, len(set.Files)-1)
		for _, f := range set.Files[:len(set.Files)-1] {
			includes = append(includes, "`"+f+"`")
		}
		sb.WriteString("Includes: " + strings.Join(includes, ", ") + "\n\n")
	}

	if len(set.Enums) > 0 {
		sb.WriteString("## Enums\n\n")
		for _, e := range set.Enums {
			writeEnum(&sb, e)
		}
	}
	if len(d.Messages) > 0 {
		sb.WriteString("## Messages\n\n")
		for _, m := range d.Messages {
			writeMessage(&sb, m)
		}
	}

	return &codegen.Unit{
		Path:    d.Name() + "." + g.FileExtension(),
		Dialect: d.Name(),
		Content: []byte(strings.TrimRight(sb.String(), "\n") + "\n"),
	}, nil
}

func writeEnum(sb *strings.Builder, e *model.Enum) {
	sb.WriteString(fmt.Sprintf("### %s\n\n", e.Name))
	if desc := codegen.NormalizeText(e.Description); desc != "" {
		sb.WriteString(desc + "\n\n")
	}
	if e.Bitmask {
		sb.WriteString("Bitmask: values combine as flags.\n\n")
	}
	if e.Deprecated != nil {
		sb.WriteString(deprecated(e.Deprecated.Since, e.Deprecated.ReplacedBy) + "\n\n")
	}
	if len(e.Entries) == 0 {
		return
	}

	sb.WriteString("| Value | Name | Description |\n")
	sb.WriteString("|---:|---|---|\n")
	for _, entry := range e.Entries {
		desc := codegen.NormalizeText(entry.Description)
		for _, p := range entry.Params {
			param := fmt.Sprintf("Param %d", p.Index)
			if p.Label != "" {
				param += " (" + p.Label + ")"
			}
			if text := codegen.NormalizeText(p.Description); text != "" {
				param += ": " + text
			}
			desc = joinCell(desc, param)
		}
		if entry.Deprecated != nil {
			desc = joinCell(desc, deprecated(entry.Deprecated.Since, entry.Deprecated.ReplacedBy))
		}
		if entry.WIP {
			desc = joinCell(desc, "*Work in progress.*")
		}
		sb.WriteString(fmt.Sprintf("| %d | `%s` | %s |\n", entry.Value, entry.Name, cell(desc)))
	}
	sb.WriteString("\n")
}

func writeMessage(sb *strings.Builder, m *layout.Message) {
	sb.WriteString(fmt.Sprintf("### %s (%d)\n\n", m.Name, m.ID))
	if desc := codegen.NormalizeText(m.Description); desc != "" {
		sb.WriteString(desc + "\n\n")
	}
	if m.WIP {
		sb.WriteString("*Work in progress.*\n\n")
	}
	if m.Deprecated != nil {
		sb.WriteString(deprecated(m.Deprecated.Since, m.Deprecated.ReplacedBy) + "\n\n")
	}

	lengths := strconv.Itoa(m.MinLength) + " bytes"
	if m.MaxLength != m.MinLength {
		lengths = fmt.Sprintf("%d to %d bytes", m.MinLength, m.MaxLength)
	}
	sb.WriteString(fmt.Sprintf("crc_extra `%d` · payload %s\n\n", m.CRCExtra, lengths))

	sb.WriteString("| Offset | Field | Type | Units | Enum | Description |\n")
	sb.WriteString("|---:|---|---|---|---|---|\n")
	for i, f := range m.WireOrder {
		name := "`" + f.Name + "`"
		if f.Extension {
			name += " (ext)"
		}
		enum := ""
		if f.Enum != "" {
			enum = "`" + f.Enum + "`"
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | `%s` | %s | %s | %s |\n",
			m.Offsets[i], name, f.Type, cell(f.Units), enum, cell(codegen.NormalizeText(f.Description))))
	}
	sb.WriteString("\n")
}

func deprecated(since, replacedBy string) string {
	text := "**Deprecated**"
	if since != "" {
		text += " since " + since
	}
	if replacedBy != "" {
		text += ", use `" + replacedBy + "`"
	}
	return text + "."
}

func joinCell(a, b string) string {
	if a == "" {
		return b
	}
	return a + "<br>" + b
}

// cell escapes text for a table cell.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// GenerateAggregate renders the README indexing every dialect.
func (g *Generator) GenerateAggregate(agg *binder.Aggregate) (*codegen.Unit, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("<!-- %s -->\n\n", codegen.Header))
	sb.WriteString("# Dialects\n\n")
	sb.WriteString("| Dialect | Source | Enums | Messages |\n")
	sb.WriteString("|---|---|---:|---:|\n")
	for _, d := range agg.Dialects {
		sb.WriteString(fmt.Sprintf("| [%s](%s.%s) | `%s` | %d | %d |\n",
			d.Name(), d.Name(), g.FileExtension(), filepath.Base(d.Set.Path), len(d.Set.Enums), len(d.Messages)))
	}

	var conflicts []binder.SharedID
	for _, s := range agg.SharedIDs() {
		if s.Distinct() {
			conflicts = append(conflicts, s)
		}
	}
	if len(conflicts) > 0 {
		sb.WriteString("\n## Conflicting message ids\n\n")
		sb.WriteString("These ids name different messages in different dialects. Decoding them needs the dialect.\n\n")
		sb.WriteString("| Id | Dialect | Message | crc_extra |\n")
		sb.WriteString("|---:|---|---|---:|\n")
		for _, s := range conflicts {
			dialects := make([]string, 0, len(s.Messages))
			for name := range s.Messages {
				dialects = append(dialects, name)
			}
			sort.Strings(dialects)
			for _, name := range dialects {
				m := s.Messages[name]
				sb.WriteString(fmt.Sprintf("| %d | %s | `%s` | %d |\n", s.ID, name, m.Name, m.CRCExtra))
			}
		}
	}

	return &codegen.Unit{
		Path:    "README." + g.FileExtension(),
		Content: []byte(sb.String()),
	}, nil
}
