// Package schema loads MAVLink dialect definition files.
//
// Parse turns one XML file into a File: the raw enum and message
// definitions in document order, with no cross-referencing. ResolveIncludes
// follows <include> references from a root file and returns the acyclic
// Graph of every file reachable from it. Type text, enum references and ID
// uniqueness are left to the model package; this package only guarantees
// that each file has the expected document structure.
package schema

// File is one parsed dialect definition file.
type File struct {
	// Path is the canonical (absolute, cleaned) path and the arena key.
	Path string
	// Name is the base file name without extension, e.g. "common".
	Name string

	Includes []Include

	Version    int
	HasVersion bool
	Dialect    int
	HasDialect bool

	Enums    []*Enum
	Messages []*Message
}

// Include is a raw include reference, relative to the search directory.
type Include struct {
	Path string
	Line int
}

// Enum is a raw <enum> definition.
type Enum struct {
	Name        string
	Description string
	Bitmask     bool
	Deprecated  *Deprecation
	Entries     []*Entry
	Line        int
}

// Entry is a raw enum <entry>. Value is already resolved: entries without
// a value attribute take the previous entry's value plus one.
type Entry struct {
	Name        string
	Value       uint64
	Description string
	Params      []Param
	Deprecated  *Deprecation
	WIP         bool
	Line        int
}

// Param documents one parameter of a command entry.
type Param struct {
	Index       int
	Label       string
	Units       string
	Description string
}

// Message is a raw <message> definition.
type Message struct {
	ID          uint32
	Name        string
	Description string
	Fields      []*Field
	// ExtensionMarkers counts <extensions/> elements; more than one is a
	// model error, not a parse error.
	ExtensionMarkers int
	Deprecated       *Deprecation
	WIP              bool
	Line             int
}

// Field is a raw <field>. Type is the unparsed type text, e.g. "char[16]".
type Field struct {
	Type        string
	Name        string
	Enum        string
	Units       string
	Display     string
	PrintFormat string
	Invalid     string
	Description string
	// Extension is set for fields declared after the extensions marker.
	Extension bool
	Line      int
}

// Deprecation carries <deprecated> or <superseded> metadata.
type Deprecation struct {
	Since      string
	ReplacedBy string
	Note       string
}
