package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/mavgen/compiler"
	"github.com/teranos/mavgen/errors"
	"github.com/teranos/mavgen/layout"
	"github.com/teranos/mavgen/logger"
	"github.com/teranos/mavgen/wire"
)

// InspectCmd prints planned dialects
var InspectCmd = &cobra.Command{
	Use:   "inspect [dialect...]",
	Short: "Print the planned wire layout of dialects",
	Long: `Compile dialects without emitting code and print what the planner produced:
every enum with its entries and every message with its crc_extra, payload
length bounds and fields in wire order with byte offsets.

With no arguments every dialect is printed.

Examples:
  mavgen inspect common
  mavgen inspect common ardupilotmega --format json
  mavgen inspect common --messages-only -f toml`,
	RunE: runInspect,
}

var (
	inspectFormat   string
	inspectMessages bool
)

func init() {
	InspectCmd.Flags().String("defs", "", "Definitions directory (overrides definitions.dir)")
	InspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", "yaml", "Output format: yaml, json, toml")
	InspectCmd.Flags().BoolVar(&inspectMessages, "messages-only", false, "Omit enums")
}

type inspectDoc struct {
	Dialects []dialectView `json:"dialects" yaml:"dialects" toml:"dialects"`
}

type dialectView struct {
	Name          string        `json:"name" yaml:"name" toml:"name"`
	Files         []string      `json:"files" yaml:"files" toml:"files"`
	Version       *int          `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
	DialectNumber *int          `json:"dialect,omitempty" yaml:"dialect,omitempty" toml:"dialect,omitempty"`
	Enums         []enumView    `json:"enums,omitempty" yaml:"enums,omitempty" toml:"enums,omitempty"`
	Messages      []messageView `json:"messages" yaml:"messages" toml:"messages"`
}

type enumView struct {
	Name    string      `json:"name" yaml:"name" toml:"name"`
	Bitmask bool        `json:"bitmask,omitempty" yaml:"bitmask,omitempty" toml:"bitmask,omitempty"`
	Entries []entryView `json:"entries" yaml:"entries" toml:"entries"`
}

type entryView struct {
	Name  string `json:"name" yaml:"name" toml:"name"`
	Value uint64 `json:"value" yaml:"value" toml:"value"`
}

type messageView struct {
	wire.MessageInfo `yaml:",inline"`
	Fields           []fieldView `json:"fields" yaml:"fields" toml:"fields"`
}

type fieldView struct {
	Name      string `json:"name" yaml:"name" toml:"name"`
	Type      string `json:"type" yaml:"type" toml:"type"`
	Offset    int    `json:"offset" yaml:"offset" toml:"offset"`
	Size      int    `json:"size" yaml:"size" toml:"size"`
	Enum      string `json:"enum,omitempty" yaml:"enum,omitempty" toml:"enum,omitempty"`
	Units     string `json:"units,omitempty" yaml:"units,omitempty" toml:"units,omitempty"`
	Extension bool   `json:"extension,omitempty" yaml:"extension,omitempty" toml:"extension,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}

	res, err := compiler.Plan(cmd.Context(), &compiler.Options{
		DefinitionsDir: cfg.Definitions.Dir,
		Dialects:       args,
		Jobs:           cfg.Build.Jobs,
		Logger:         logger.ComponentLogger("inspect"),
	})
	if err != nil {
		return err
	}

	doc := inspectDoc{}
	for _, d := range res.Dialects {
		doc.Dialects = append(doc.Dialects, viewDialect(d, !inspectMessages))
	}
	return writeDoc(cmd.OutOrStdout(), inspectFormat, doc)
}

func viewDialect(d *layout.Dialect, withEnums bool) dialectView {
	v := dialectView{Name: d.Name(), Files: d.Set.Files}
	if d.Set.HasVersion {
		n := d.Set.Version
		v.Version = &n
	}
	if d.Set.HasDialect {
		n := d.Set.DialectNumber
		v.DialectNumber = &n
	}
	if withEnums {
		for _, e := range d.Set.Enums {
			ev := enumView{Name: e.Name, Bitmask: e.Bitmask}
			for _, entry := range e.Entries {
				ev.Entries = append(ev.Entries, entryView{Name: entry.Name, Value: entry.Value})
			}
			v.Enums = append(v.Enums, ev)
		}
	}
	for _, m := range d.Messages {
		mv := messageView{MessageInfo: wire.MessageInfo{
			ID:        m.ID,
			Name:      m.Name,
			CRCExtra:  m.CRCExtra,
			MinLength: m.MinLength,
			MaxLength: m.MaxLength,
		}}
		for i, f := range m.WireOrder {
			mv.Fields = append(mv.Fields, fieldView{
				Name:      f.Name,
				Type:      f.Type.String(),
				Offset:    m.Offsets[i],
				Size:      f.Type.Size(),
				Enum:      f.Enum,
				Units:     f.Units,
				Extension: f.Extension,
			})
		}
		v.Messages = append(v.Messages, mv)
	}
	return v
}

// writeDoc encodes v in the requested format.
func writeDoc(w io.Writer, format string, v any) error {
	var data []byte
	var err error
	switch format {
	case "yaml":
		data, err = yaml.Marshal(v)
	case "json":
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	case "toml":
		data, err = toml.Marshal(v)
	default:
		return errors.Newf("unsupported format: %s (supported: yaml, json, toml)", format)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to marshal %s", format)
	}
	_, err = fmt.Fprint(w, string(data))
	return err
}
