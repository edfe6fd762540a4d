// Package golang renders planned dialects as Go packages.
//
// Each dialect becomes a package <out>/<dialect>/<dialect>.go holding one
// integer type per enum, one struct per message with MarshalWire and
// UnmarshalWire, a sealed Message interface and a Decode switch. The
// aggregate unit <out>/<aggregate>.go binds them behind a DialectTag.
//
// Generated code depends only on the wire runtime package.
package golang

import (
	"path"

	"github.com/teranos/mavgen/binder"
	"github.com/teranos/mavgen/codegen"
	"github.com/teranos/mavgen/errors"
	"github.com/teranos/mavgen/layout"
)

// WireImport is the import path of the runtime generated code uses.
const WireImport = "github.com/teranos/mavgen/wire"

// Options configure the Go target.
type Options struct {
	// ImportPath is the import path of the output directory. Required for
	// the aggregate unit, which imports every dialect package below it.
	ImportPath string
	// AggregatePackage names the aggregate package (default "dialects").
	AggregatePackage string
	// TrimExtensions makes MarshalWire drop trailing all-zero extension
	// fields.
	TrimExtensions bool
	// Reexport adds <Dialect><Type> aliases for every dialect type to the
	// aggregate package.
	Reexport bool
}

// Generator implements codegen.Generator for Go
type Generator struct {
	opts Options
}

// NewGenerator creates a new Go generator
func NewGenerator(opts Options) *Generator {
	if opts.AggregatePackage == "" {
		opts.AggregatePackage = "dialects"
	}
	return &Generator{opts: opts}
}

// Language returns "go"
func (g *Generator) Language() string {
	return "go"
}

// FileExtension returns "go"
func (g *Generator) FileExtension() string {
	return "go"
}

// GenerateUnit renders the package of one dialect.
func (g *Generator) GenerateUnit(d *layout.Dialect) (*codegen.Unit, error) {
	decls := declare(d)
	f := &dialectFile{decls: decls, opts: g.opts}
	content := f.render()
	return &codegen.Unit{
		Path:    path.Join(decls.pkg, decls.pkg+"."+g.FileExtension()),
		Dialect: d.Name(),
		Content: content,
	}, nil
}

// GenerateAggregate renders the package binding every dialect.
func (g *Generator) GenerateAggregate(agg *binder.Aggregate) (*codegen.Unit, error) {
	if g.opts.ImportPath == "" {
		return nil, errors.WithHint(
			errors.New("go aggregate: import path of the output directory is not set"),
			"set output.import_path in mavgen.toml",
		)
	}
	f := &aggregateFile{agg: agg, opts: g.opts}
	for _, d := range agg.Dialects {
		f.dialects = append(f.dialects, declare(d))
	}
	return &codegen.Unit{
		Path:    g.opts.AggregatePackage + "." + g.FileExtension(),
		Content: f.render(),
	}, nil
}
