package codegen

import (
	"go/token"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Namer converts definition names to identifiers. The transform is fixed:
// the name is split at every character that is not a letter or digit and
// each part is title-cased, so "MAV_STATE_UNINIT" becomes "MavStateUninit"
// and "param_id" becomes "ParamId". Generated code keeps the original names
// in its metadata, which makes the mapping reversible.
//
// A Namer is not safe for concurrent use.
type Namer struct {
	title cases.Caser
}

// NewNamer returns a Namer.
func NewNamer() *Namer {
	return &Namer{title: cases.Title(language.Und)}
}

// Pascal returns the exported identifier for name. Names starting with a
// digit get an "X" prefix.
func (n *Namer) Pascal(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, part := range parts {
		b.WriteString(n.title.String(strings.ToLower(part)))
	}
	ident := b.String()
	if ident == "" || unicode.IsDigit([]rune(ident)[0]) {
		ident = "X" + ident
	}
	return ident
}

// PackageName returns the Go package name for a dialect. Dialect names are
// already lower-case identifiers; keywords and reserved names get the
// escape suffix.
func PackageName(dialect string, reserved ...string) string {
	name := dialect
	if token.IsKeyword(name) {
		return name + EscapeSuffix
	}
	for _, r := range reserved {
		if name == r {
			return name + EscapeSuffix
		}
	}
	return name
}

// EscapeSuffix is appended to identifiers that collide with a reserved or
// already declared name, as often as needed.
const EscapeSuffix = "_"

// Scope hands out unique identifiers within one namespace.
type Scope struct {
	taken map[string]bool
}

// NewScope returns a scope in which reserved names are already taken.
func NewScope(reserved ...string) *Scope {
	s := &Scope{taken: make(map[string]bool, len(reserved))}
	for _, r := range reserved {
		s.taken[r] = true
	}
	return s
}

// Declare takes ident, escaping it until it is unused.
func (s *Scope) Declare(ident string) string {
	for s.taken[ident] {
		ident += EscapeSuffix
	}
	s.taken[ident] = true
	return ident
}
