package commands

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teranos/mavgen/compiler"
	"github.com/teranos/mavgen/dynamic"
	"github.com/teranos/mavgen/errors"
	"github.com/teranos/mavgen/logger"
	"github.com/teranos/mavgen/model"
)

// DecodeCmd decodes one payload against a dialect
var DecodeCmd = &cobra.Command{
	Use:   "decode <dialect> <message> <hex payload>...",
	Short: "Decode a message payload against a dialect",
	Long: `Decode a MAVLink payload (without framing) as one message of one dialect.

The dialect tag is required: the same message id can mean different messages
in different dialects. The message is given by id or by name. The payload is
hex; spaces, colons and 0x prefixes are ignored, and the remaining arguments
are joined, so output from tcpdump or a logger can be pasted as is.

Payloads shorter than the message (MAVLink 2 trims trailing zero bytes) decode
with the missing bytes as zero.

Examples:
  mavgen decode common HEARTBEAT 04030201 02 03 81 04 03
  mavgen decode common 30 --format json 0000...`,
	Args: cobra.MinimumNArgs(3),
	RunE: runDecode,
}

var decodeFormat string

func init() {
	DecodeCmd.Flags().String("defs", "", "Definitions directory (overrides definitions.dir)")
	DecodeCmd.Flags().StringVarP(&decodeFormat, "format", "f", "yaml", "Output format: yaml, json, toml")
}

type decodedView struct {
	Dialect string            `json:"dialect" yaml:"dialect" toml:"dialect"`
	Message string            `json:"message" yaml:"message" toml:"message"`
	ID      uint32            `json:"id" yaml:"id" toml:"id"`
	Length  int               `json:"length" yaml:"length" toml:"length"`
	Fields  dynamic.Fields    `json:"fields" yaml:"fields" toml:"fields"`
	Labels  map[string]string `json:"labels,omitempty" yaml:"labels,omitempty" toml:"labels,omitempty"`
}

func runDecode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}
	tag := args[0]
	payload, err := parseHex(strings.Join(args[2:], ""))
	if err != nil {
		return err
	}

	res, err := compiler.Plan(cmd.Context(), &compiler.Options{
		DefinitionsDir: cfg.Definitions.Dir,
		Dialects:       []string{tag},
		Logger:         logger.ComponentLogger("decode"),
	})
	if err != nil {
		return err
	}
	reg, err := dynamic.NewRegistry(res.Dialects...)
	if err != nil {
		return err
	}
	d, err := reg.Dialect(tag)
	if err != nil {
		return err
	}

	id, err := messageID(d.Set, args[1])
	if err != nil {
		return err
	}
	decoded, err := reg.Dispatch(tag, id, payload)
	if err != nil {
		return err
	}

	view := decodedView{
		Dialect: decoded.Dialect,
		Message: decoded.Message.Name,
		ID:      decoded.Message.ID,
		Length:  len(payload),
		Fields:  decoded.Fields,
		Labels:  enumLabels(d.Set, decoded),
	}
	return writeDoc(cmd.OutOrStdout(), decodeFormat, view)
}

// messageID resolves a message given by decimal id or by name.
func messageID(set *model.Set, ref string) (uint32, error) {
	if id, err := strconv.ParseUint(ref, 10, 32); err == nil {
		return uint32(id), nil
	}
	if msg := set.MessageByName(strings.ToUpper(ref)); msg != nil {
		return msg.ID, nil
	}
	return 0, errors.WithHintf(
		errors.Newf("dialect %s has no message %q", set.Name, ref),
		"list messages with: mavgen inspect %s --messages-only", set.Name,
	)
}

func parseHex(s string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", ":", "", "0x", "", "0X", "", "\n", "", "\t", "").Replace(s)
	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, errors.Wrap(err, "payload is not valid hex")
	}
	return b, nil
}

// enumLabels names the enum values of scalar enum fields. Values without
// an entry are left out; bitmask values list their set flags.
func enumLabels(set *model.Set, decoded *dynamic.Decoded) map[string]string {
	labels := make(map[string]string)
	for _, f := range decoded.Message.Fields {
		if f.Enum == "" || f.Type.IsArray() {
			continue
		}
		e := set.Enum(f.Enum)
		if e == nil {
			continue
		}
		var v uint64
		switch n := decoded.Fields[f.Name].(type) {
		case uint64:
			v = n
		case int64:
			if n < 0 {
				continue
			}
			v = uint64(n)
		default:
			continue
		}
		if label := enumLabel(e, v); label != "" {
			labels[f.Name] = label
		}
	}
	if len(labels) == 0 {
		return nil
	}
	return labels
}

func enumLabel(e *model.Enum, v uint64) string {
	for _, entry := range e.Entries {
		if entry.Value == v {
			return entry.Name
		}
	}
	if !e.Bitmask || v == 0 {
		return ""
	}
	var flags []string
	rest := v
	for _, entry := range e.Entries {
		if entry.Value != 0 && entry.Value&(entry.Value-1) == 0 && v&entry.Value != 0 {
			flags = append(flags, entry.Name)
			rest &^= entry.Value
		}
	}
	if len(flags) == 0 {
		return ""
	}
	if rest != 0 {
		flags = append(flags, "0x"+strconv.FormatUint(rest, 16))
	}
	return strings.Join(flags, "|")
}
