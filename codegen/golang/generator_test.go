package golang

import (
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/mavgen/binder"
	mavtest "github.com/teranos/mavgen/internal/testing"
	"github.com/teranos/mavgen/layout"
)

const importPath = "example.com/drone/dialects"

func dialect(t *testing.T, name string) *layout.Dialect {
	t.Helper()
	return mavtest.Plan(t, mavtest.DefinitionsDir(t), name+".xml")
}

// parse checks src is valid, gofmt-able Go and returns its AST.
func parse(t *testing.T, src []byte) *ast.File {
	t.Helper()
	file, err := parser.ParseFile(token.NewFileSet(), "unit.go", src, parser.ParseComments)
	require.NoError(t, err, "generated source:\n%s", src)
	_, err = format.Source(src)
	require.NoError(t, err)
	return file
}

// decls indexes top-level declarations: types, funcs, and methods as
// "Recv.Name".
func decls(file *ast.File) map[string]bool {
	out := make(map[string]bool)
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			name := d.Name.Name
			if d.Recv != nil {
				recv := d.Recv.List[0].Type
				if star, ok := recv.(*ast.StarExpr); ok {
					recv = star.X
				}
				name = recv.(*ast.Ident).Name + "." + name
			}
			out[name] = true
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					out[s.Name.Name] = true
				case *ast.ValueSpec:
					for _, n := range s.Names {
						out[n.Name] = true
					}
				}
			}
		}
	}
	return out
}

func generate(t *testing.T, opts Options, d *layout.Dialect) string {
	t.Helper()
	unit, err := NewGenerator(opts).GenerateUnit(d)
	require.NoError(t, err)
	return string(unit.Content)
}

func TestGenerateUnitFixtures(t *testing.T) {
	g := NewGenerator(Options{ImportPath: importPath})
	for _, d := range mavtest.PlanAll(t) {
		t.Run(d.Name(), func(t *testing.T) {
			unit, err := g.GenerateUnit(d)
			require.NoError(t, err)
			assert.Equal(t, d.Name()+"/"+d.Name()+".go", unit.Path)
			assert.Equal(t, d.Name(), unit.Dialect)

			file := parse(t, unit.Content)
			assert.Equal(t, d.Name(), file.Name.Name)
			assert.True(t, strings.HasPrefix(string(unit.Content), "// Code generated by mavgen. DO NOT EDIT.\n"))

			got := decls(file)
			for _, name := range []string{"Dialect", "Message", "Decode", "Messages", "Info"} {
				assert.True(t, got[name], "missing %s", name)
			}
			for _, method := range []string{"MessageID", "MessageName", "CRCExtra", "MarshalWire", "UnmarshalWire", "isMessage"} {
				assert.True(t, got["Heartbeat."+method], "missing Heartbeat.%s", method)
			}
		})
	}
}

func TestGenerateHeartbeat(t *testing.T) {
	src := generate(t, Options{}, dialect(t, "common"))

	assert.Contains(t, src, "type MavAutopilot uint8\n")
	assert.Contains(t, src, "\tMavAutopilotPx4 MavAutopilot = 12\n")
	assert.Contains(t, src, "\tHeartbeatCRCExtra uint8 = 50\n")
	assert.Contains(t, src, "\tHeartbeatMinLength = 9\n")
	assert.Contains(t, src, "\tHeartbeatMaxLength = 9\n")
	assert.Contains(t, src, "\tType MavType\n")
	assert.Contains(t, src, "\tCustomMode uint32\n")
	assert.Contains(t, src, "\tVersion = 3\n")
	assert.Contains(t, src, "\t// Set this to the protocol version.\n\tMavlinkVersion uint8\n")

	// Wire order: the uint32 first, then the bytes in declaration order.
	assert.Contains(t, src, "\tw.Uint32(m.CustomMode)\n"+
		"\tw.Uint8(uint8(m.Type))\n"+
		"\tw.Uint8(uint8(m.Autopilot))\n"+
		"\tw.Uint8(uint8(m.BaseMode))\n"+
		"\tw.Uint8(uint8(m.SystemStatus))\n"+
		"\tw.Uint8(m.MavlinkVersion)\n"+
		"\treturn w.Payload()\n")
	assert.Contains(t, src, "\tm.Type = MavType(r.Uint8())\n")
	assert.Contains(t, src, `wire.CheckLength("HEARTBEAT", payload, HeartbeatMinLength)`)
	assert.Contains(t, src, "\tcase HeartbeatID:\n\t\tm = new(Heartbeat)\n")
}

func TestGenerateOpenEnums(t *testing.T) {
	src := generate(t, Options{}, dialect(t, "common"))

	// Unknown values render as Type(n) instead of failing.
	assert.Contains(t, src, `return "MavState(" + strconv.FormatUint(uint64(e), 10) + ")"`)
	assert.Contains(t, src, "func (e MavState) IsKnown() bool {\n\tswitch e {\n\tcase MavStateUninit, MavStateStandby, MavStateActive:\n")

	// MAV_MODE_FLAG is declared as a bitmask.
	assert.Contains(t, src, "func (e MavModeFlag) Has(flag MavModeFlag) bool {")
	assert.Contains(t, src, "range [...]MavModeFlag{MavModeFlagCustomModeEnabled, MavModeFlagAutoEnabled, MavModeFlagSafetyArmed}")
	assert.Contains(t, src, "\tMavModeFlagAutoEnabled MavModeFlag = 4\n")
	assert.NotContains(t, src, "func (e MavState) Has(")

	// MAV_CMD needs 16 bits; its entry params are documented.
	assert.Contains(t, src, "type MavCmd uint16\n")
	assert.Contains(t, src, "\t// Param 1 (Arm): 0: disarm, 1: arm\n")
}

func TestGenerateArraysAndExtensions(t *testing.T) {
	d := dialect(t, "alpha")
	src := generate(t, Options{}, d)

	assert.Contains(t, src, "\tLabel [8]byte\n")
	assert.Contains(t, src, "\tSamples [3]int16\n")
	assert.Contains(t, src, "\tw.Bytes(m.Label[:])\n")
	assert.Contains(t, src, "\tfor _, v := range m.Samples {\n\t\tw.Int16(v)\n\t}\n")
	assert.Contains(t, src, "\tfor i, sub := 0, r.Sub(6); i < len(m.Samples); i++ {\n\t\tm.Samples[i] = sub.Int16()\n\t}\n")
	assert.Contains(t, src, "\tr.Bytes(m.Label[:])\n")
	assert.Contains(t, src, "\t// Extension fields may be cut from the payload; missing bytes read as zero.\n")
	assert.NotContains(t, src, "wire.TrimExtensions", "trimming is off by default")

	msg := d.Message(43)
	require.NotNil(t, msg)
	assert.Contains(t, src, "\tAlphaKindsMinLength = "+strconv.Itoa(msg.MinLength)+"\n")
	assert.Contains(t, src, "\tAlphaKindsMaxLength = "+strconv.Itoa(msg.MaxLength)+"\n")

	// ALPHA_MODE entries without a value count up from the previous one.
	assert.Contains(t, src, "\tAlphaModeRun AlphaMode = 1\n")
	assert.Contains(t, src, "\tAlphaModeFault AlphaMode = 16\n")
	assert.Contains(t, src, "\tMavStateAlphaHold MavState = 9\n", "merged entries from the including file")
}

func TestGenerateTrimExtensions(t *testing.T) {
	src := generate(t, Options{TrimExtensions: true}, dialect(t, "common"))
	assert.Contains(t, src, "\treturn wire.TrimExtensions(w.Payload(), 51, 53)\n")
	assert.Contains(t, src, "func (m *Heartbeat) MarshalWire() []byte {")
	// Messages without extensions are never trimmed.
	heartbeat := src[strings.Index(src, "func (m *Heartbeat) MarshalWire()"):]
	heartbeat = heartbeat[:strings.Index(heartbeat, "\n}\n")]
	assert.NotContains(t, heartbeat, "TrimExtensions")
}

func TestGenerateEscapesReservedNames(t *testing.T) {
	dir := t.TempDir()
	mavtest.WriteDefinitions(t, dir, map[string]string{"edge.xml": `<mavlink>
  <enums>
    <enum name="DIALECT"><entry value="1" name="DECODE"/><entry value="1" name="DECODE_ALIAS"/></enum>
  </enums>
  <messages>
    <message id="1" name="MESSAGE">
      <field type="uint8_t" name="marshal_wire">m</field>
      <field type="uint8_t" name="message_id">id</field>
      <field type="uint8_t" name="crc_extra">c</field>
      <field type="char" name="c">single char</field>
    </message>
    <message id="2" name="MESSAGES"><field type="uint8_t" name="x">x</field></message>
  </messages>
</mavlink>`})
	d := mavtest.Plan(t, dir, "edge.xml")

	src := generate(t, Options{}, d)
	file := parse(t, []byte(src))
	got := decls(file)

	assert.True(t, got["Dialect_"], "enum DIALECT is escaped")
	assert.True(t, got["Decode_"], "entry DECODE is escaped")
	assert.True(t, got["Message_"], "message MESSAGE is escaped")
	assert.True(t, got["Messages_"])
	assert.True(t, got["Message_.MarshalWire"])
	assert.Contains(t, src, "\tMarshalWire_ uint8\n", "field colliding with a method is escaped")
	assert.Contains(t, src, "\tMessageId uint8\n")
	assert.Contains(t, src, "\tCrcExtra uint8\n")
	assert.Contains(t, src, "\tC byte\n")

	// Aliased values are constants but only the first name is a case.
	assert.Contains(t, src, "\tDecodeAlias Dialect_ = 1\n")
	assert.Contains(t, src, "\tcase Decode_:\n\t\treturn \"DECODE\"\n")
	assert.NotContains(t, src, "case Decode_, DecodeAlias")
}

func TestGenerateIsDeterministic(t *testing.T) {
	d := dialect(t, "alpha")
	first := generate(t, Options{TrimExtensions: true}, d)
	second := generate(t, Options{TrimExtensions: true}, dialect(t, "alpha"))
	assert.Equal(t, first, second)
}

func TestGenerateAggregate(t *testing.T) {
	agg, err := binder.Bind(mavtest.PlanAll(t))
	require.NoError(t, err)

	unit, err := NewGenerator(Options{ImportPath: importPath, Reexport: true}).GenerateAggregate(agg)
	require.NoError(t, err)
	assert.Equal(t, "dialects.go", unit.Path)
	assert.Empty(t, unit.Dialect)

	file := parse(t, unit.Content)
	assert.Equal(t, "dialects", file.Name.Name)
	src := string(unit.Content)

	var imports []string
	for _, imp := range file.Imports {
		imports = append(imports, strings.Trim(imp.Path.Value, `"`))
	}
	assert.Equal(t, []string{WireImport, importPath + "/alpha", importPath + "/charlie", importPath + "/common"}, imports)

	assert.Contains(t, src, "\tDialectAlpha DialectTag = alpha.Dialect\n")
	assert.Contains(t, src, "\tcase DialectCharlie:\n\t\tm, err = charlie.Decode(id, payload)\n")
	assert.Contains(t, src, "\t\treturn Decoded{}, wire.UnknownDialect(string(tag))\n")
	assert.Contains(t, src, "func (d Decoded) Alpha() (alpha.Message, bool) {")
	assert.Contains(t, src, "return []DialectTag{DialectAlpha, DialectCharlie, DialectCommon}")

	// Re-exports are namespaced per dialect.
	assert.Contains(t, src, "\tAlphaHeartbeat = alpha.Heartbeat\n")
	assert.Contains(t, src, "\tCharlieCharlieVector = charlie.CharlieVector\n")
	assert.Contains(t, src, "\tCommonMessage = common.Message\n")

	got := decls(file)
	assert.True(t, got["Dispatch"])
	assert.False(t, got["Decode"], "there is no dispatch without a dialect tag")
}

func TestGenerateAggregateWithoutReexports(t *testing.T) {
	agg, err := binder.Bind(mavtest.PlanAll(t))
	require.NoError(t, err)

	unit, err := NewGenerator(Options{ImportPath: importPath, AggregatePackage: "mav"}).GenerateAggregate(agg)
	require.NoError(t, err)
	assert.Equal(t, "mav.go", unit.Path)
	parse(t, unit.Content)
	assert.NotContains(t, string(unit.Content), "AlphaHeartbeat")
}

func TestGenerateAggregateAliasesClashingPackage(t *testing.T) {
	dir := t.TempDir()
	mavtest.WriteDefinitions(t, dir, map[string]string{
		"dialects.xml": `<mavlink><messages><message id="1" name="A"><field type="uint8_t" name="x">x</field></message></messages></mavlink>`,
	})
	agg, err := binder.Bind([]*layout.Dialect{mavtest.Plan(t, dir, "dialects.xml")})
	require.NoError(t, err)

	unit, err := NewGenerator(Options{ImportPath: importPath}).GenerateAggregate(agg)
	require.NoError(t, err)
	parse(t, unit.Content)
	assert.Contains(t, string(unit.Content), "\tdialects_ \""+importPath+"/dialects\"\n")
	assert.Contains(t, string(unit.Content), "m, err = dialects_.Decode(id, payload)")
}

func TestGenerateAggregateNeedsImportPath(t *testing.T) {
	agg, err := binder.Bind(mavtest.PlanAll(t))
	require.NoError(t, err)
	_, err = NewGenerator(Options{}).GenerateAggregate(agg)
	require.Error(t, err)
}
