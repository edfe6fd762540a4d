package golang

import (
	"fmt"
	"path"
	"strings"

	"github.com/teranos/mavgen/binder"
	"github.com/teranos/mavgen/codegen"
)

// Names the aggregate package declares itself.
var aggregateReserved = []string{"DialectTag", "Tags", "Decoded", "Dispatch", "Info"}

// aggregateFile renders the package binding every dialect.
type aggregateFile struct {
	agg      *binder.Aggregate
	opts     Options
	dialects []*dialectDecls
	b        strings.Builder
}

type boundDialect struct {
	decls    *dialectDecls
	alias    string
	tag      string
	accessor string
}

func (f *aggregateFile) printf(format string, args ...any) {
	fmt.Fprintf(&f.b, format, args...)
}

func (f *aggregateFile) bind() []boundDialect {
	namer := codegen.NewNamer()
	scope := codegen.NewScope(aggregateReserved...)
	imports := codegen.NewScope(f.opts.AggregatePackage, "wire")
	methods := codegen.NewScope("Dialect", "Message")

	out := make([]boundDialect, len(f.dialects))
	for i, d := range f.dialects {
		out[i] = boundDialect{
			decls:    d,
			alias:    imports.Declare(d.pkg),
			tag:      scope.Declare("Dialect" + namer.Pascal(d.d.Name())),
			accessor: methods.Declare(namer.Pascal(d.d.Name())),
		}
	}
	return out
}

func (f *aggregateFile) render() []byte {
	bound := f.bind()
	pkg := f.opts.AggregatePackage

	f.printf("// %s\n\n", codegen.Header)
	names := f.agg.Names()
	if len(names) > 0 {
		f.b.WriteString(codegen.Comment("", "// ", fmt.Sprintf("Package %s binds the generated dialects %s.", pkg, strings.Join(names, ", "))))
	} else {
		f.printf("// Package %s binds the generated dialects.\n", pkg)
	}
	f.printf("//\n")
	f.b.WriteString(codegen.Comment("", "// ",
		"Message ids are only unique within a dialect, so Dispatch always takes a DialectTag. The same id under two tags may decode to unrelated messages."))
	f.printf("package %s\n\n", pkg)

	f.printf("import (\n\t%q\n", WireImport)
	if len(bound) > 0 {
		f.printf("\n")
	}
	for _, bd := range bound {
		importPath := path.Join(f.opts.ImportPath, bd.decls.pkg)
		if bd.alias != bd.decls.pkg {
			f.printf("\t%s %q\n", bd.alias, importPath)
		} else {
			f.printf("\t%q\n", importPath)
		}
	}
	f.printf(")\n\n")

	f.printf("// DialectTag names a bound dialect.\ntype DialectTag string\n\n")
	if len(bound) > 0 {
		f.printf("// Bound dialects.\nconst (\n")
		for _, bd := range bound {
			f.printf("\t%s DialectTag = %s.Dialect\n", bd.tag, bd.alias)
		}
		f.printf(")\n\n")
	}

	f.printf("// Tags lists every bound dialect, sorted.\nfunc Tags() []DialectTag {\n\treturn []DialectTag{")
	for i, bd := range bound {
		if i > 0 {
			f.printf(", ")
		}
		f.printf("%s", bd.tag)
	}
	f.printf("}\n}\n\n")

	f.printf("// Decoded is a message decoded under a dialect tag. Message is one of\n")
	f.printf("// the sealed message types of that dialect.\n")
	f.printf("type Decoded struct {\n\tDialect DialectTag\n\tMessage wire.Message\n}\n\n")
	for _, bd := range bound {
		f.printf("// %s returns the message when it was decoded under %s.\n", bd.accessor, bd.tag)
		f.printf("func (d Decoded) %s() (%s.Message, bool) {\n", bd.accessor, bd.alias)
		f.printf("\tif d.Dialect != %s {\n\t\treturn nil, false\n\t}\n", bd.tag)
		f.printf("\tm, ok := d.Message.(%s.Message)\n\treturn m, ok\n}\n\n", bd.alias)
	}

	f.printf("// Dispatch decodes payload as message id of the dialect tag names.\n")
	f.printf("// Unbound tags fail with wire.ErrUnknownDialect, ids the dialect does\n")
	f.printf("// not define with wire.ErrUnknownMessageID.\n")
	f.printf("func Dispatch(tag DialectTag, id uint32, payload []byte) (Decoded, error) {\n")
	f.printf("\tvar (\n\t\tm   wire.Message\n\t\terr error\n\t)\n")
	f.printf("\tswitch tag {\n")
	for _, bd := range bound {
		f.printf("\tcase %s:\n\t\tm, err = %s.Decode(id, payload)\n", bd.tag, bd.alias)
	}
	f.printf("\tdefault:\n\t\treturn Decoded{}, wire.UnknownDialect(string(tag))\n\t}\n")
	f.printf("\tif err != nil {\n\t\treturn Decoded{}, err\n\t}\n")
	f.printf("\treturn Decoded{Dialect: tag, Message: m}, nil\n}\n\n")

	f.printf("// Info describes message id of the dialect tag names.\n")
	f.printf("func Info(tag DialectTag, id uint32) (wire.MessageInfo, bool) {\n\tswitch tag {\n")
	for _, bd := range bound {
		f.printf("\tcase %s:\n\t\treturn %s.Info(id)\n", bd.tag, bd.alias)
	}
	f.printf("\t}\n\treturn wire.MessageInfo{}, false\n}\n")

	if f.opts.Reexport && len(bound) > 0 {
		f.renderReexports(bound)
	}
	return []byte(f.b.String())
}

// renderReexports aliases every dialect type as <Dialect><Type>.
func (f *aggregateFile) renderReexports(bound []boundDialect) {
	namer := codegen.NewNamer()
	scope := codegen.NewScope(aggregateReserved...)
	for _, bd := range bound {
		scope.Declare(bd.tag)
	}
	for _, bd := range bound {
		prefix := namer.Pascal(bd.decls.d.Name())
		f.printf("\n// Types of the %s dialect.\ntype (\n", bd.decls.d.Name())
		for _, ident := range bd.decls.typeIdents() {
			f.printf("\t%s = %s.%s\n", scope.Declare(prefix+ident), bd.alias, ident)
		}
		f.printf(")\n")
	}
}
