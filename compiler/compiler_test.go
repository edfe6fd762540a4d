package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/mavgen/am"
	"github.com/teranos/mavgen/codegen"
	"github.com/teranos/mavgen/codegen/golang"
	"github.com/teranos/mavgen/codegen/markdown"
	"github.com/teranos/mavgen/errors"
	"github.com/teranos/mavgen/format"
	mavtest "github.com/teranos/mavgen/internal/testing"
)

const importPath = "example.com/flight/dialects"

func options(dir string) *Options {
	return &Options{
		DefinitionsDir: dir,
		Generators: []codegen.Generator{
			golang.NewGenerator(golang.Options{ImportPath: importPath, Reexport: true}),
			markdown.NewGenerator(),
		},
	}
}

func paths(units []*codegen.Unit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Path
	}
	return out
}

func TestCompileFixtures(t *testing.T) {
	res, err := Compile(context.Background(), options(mavtest.DefinitionsDir(t)))
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "charlie", "common"}, res.Aggregate.Names())
	assert.Equal(t, []string{
		"alpha/alpha.go",
		"charlie/charlie.go",
		"common/common.go",
		"dialects.go",
		"alpha.md",
		"charlie.md",
		"common.md",
		"README.md",
	}, paths(res.Units))
	assert.Len(t, res.Inputs, 3, "common.xml is read by three dialects but listed once")
	assert.Equal(t, "common", res.Unit("common/common.go").Dialect)
	assert.Nil(t, res.Unit("missing.go"))
}

func TestCompileIsDeterministicAcrossJobs(t *testing.T) {
	dir := mavtest.DefinitionsDir(t)

	serial := options(dir)
	serial.Jobs = 1
	a, err := Compile(context.Background(), serial)
	require.NoError(t, err)

	parallel := options(dir)
	parallel.Jobs = 8
	b, err := Compile(context.Background(), parallel)
	require.NoError(t, err)

	require.Equal(t, paths(a.Units), paths(b.Units))
	for i := range a.Units {
		assert.Equal(t, string(a.Units[i].Content), string(b.Units[i].Content), a.Units[i].Path)
	}
}

func TestCompileFailureNamesDialect(t *testing.T) {
	dir := mavtest.DefinitionsDir(t)
	mavtest.WriteDefinitions(t, dir, map[string]string{
		"broken.xml": `<?xml version="1.0"?><mavlink><include>nope.xml</include></mavlink>`,
	})

	res, err := Compile(context.Background(), options(dir))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, errors.ErrMissingInclude))
	assert.Contains(t, err.Error(), "dialect broken")
}

func TestCompileSubset(t *testing.T) {
	dir := mavtest.DefinitionsDir(t)
	opts := options(dir)
	opts.Dialects = []string{"common", "common"}
	res, err := Compile(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"common"}, res.Aggregate.Names())

	opts.Dialects = []string{"zulu"}
	_, err = Compile(context.Background(), opts)
	assert.ErrorContains(t, err, `dialect "zulu" not found`)
}

func TestCompileNeedsTargetsAndDefinitions(t *testing.T) {
	_, err := Compile(context.Background(), &Options{DefinitionsDir: t.TempDir()})
	assert.Error(t, err)

	_, err = Compile(context.Background(), options(t.TempDir()))
	assert.ErrorContains(t, err, "no definition files")
}

func TestCompileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Compile(ctx, options(mavtest.DefinitionsDir(t)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromConfig(t *testing.T) {
	cfg := am.Default()
	cfg.Definitions.Dir = "defs"
	cfg.Output.ImportPath = importPath
	cfg.Output.Lang = []string{am.LangGo, am.LangMarkdown}
	cfg.Build.Jobs = 4

	opts, err := FromConfig(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "defs", opts.DefinitionsDir)
	assert.Equal(t, 4, opts.Jobs)
	require.Len(t, opts.Generators, 2)
	assert.Equal(t, "go", opts.Generators[0].Language())
	assert.Equal(t, "markdown", opts.Generators[1].Language())
	assert.IsType(t, format.Imports{}, opts.Formatter)

	cfg.Format.Enabled = false
	opts, err = FromConfig(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, opts.Formatter)

	cfg.Output.Lang = []string{"rust"}
	_, err = FromConfig(cfg, nil)
	assert.Error(t, err)
}

func TestFormattedCompileKeepsGoSourceStable(t *testing.T) {
	opts := options(mavtest.DefinitionsDir(t))
	opts.Formatter = format.Imports{}
	res, err := Compile(context.Background(), opts)
	require.NoError(t, err)

	unit := res.Unit("common/common.go")
	again, err := format.Imports{}.Format(context.Background(), unit.Path, unit.Content)
	require.NoError(t, err)
	assert.Equal(t, string(unit.Content), string(again))
}

func TestWriteAndRegenerateIsIdempotent(t *testing.T) {
	dir := mavtest.DefinitionsDir(t)
	out := t.TempDir()

	first, err := Compile(context.Background(), options(dir))
	require.NoError(t, err)
	stats, err := Write(out, first.Units, nil)
	require.NoError(t, err)
	assert.Equal(t, WriteStats{Written: len(first.Units)}, stats)

	written, err := os.ReadFile(filepath.Join(out, "alpha", "alpha.go"))
	require.NoError(t, err)
	assert.Equal(t, first.Unit("alpha/alpha.go").Content, written)

	second, err := Compile(context.Background(), options(dir))
	require.NoError(t, err)
	stats, err = Write(out, second.Units, nil)
	require.NoError(t, err)
	assert.Equal(t, WriteStats{Unchanged: len(second.Units)}, stats, "two runs produce identical bytes")

	leftovers, err := filepath.Glob(filepath.Join(out, "alpha", ".*tmp*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "no temp files left behind")
}

func TestPruneRemovesUnitsOfDeletedDialect(t *testing.T) {
	dir := mavtest.DefinitionsDir(t)
	out := t.TempDir()

	first, err := Compile(context.Background(), options(dir))
	require.NoError(t, err)
	_, err = Write(out, first.Units, nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(out, "charlie", "notes.txt"), []byte("kept"), 0o644))

	require.NoError(t, os.Remove(filepath.Join(dir, "charlie.xml")))
	second, err := Compile(context.Background(), options(dir))
	require.NoError(t, err)
	_, err = Write(out, second.Units, nil)
	require.NoError(t, err)

	previous := append(paths(first.Units), "../outside.go", "gone/already.go")
	removed, err := Prune(out, previous, second.Units, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.NoFileExists(t, filepath.Join(out, "charlie", "charlie.go"))
	assert.NoFileExists(t, filepath.Join(out, "charlie.md"))
	assert.FileExists(t, filepath.Join(out, "charlie", "notes.txt"), "only recorded outputs are removed")
	assert.FileExists(t, filepath.Join(out, "alpha", "alpha.go"))
	assert.FileExists(t, filepath.Join(out, "dialects.go"))

	require.NoError(t, os.Remove(filepath.Join(out, "charlie", "notes.txt")))
	require.NoError(t, os.WriteFile(filepath.Join(out, "charlie", "charlie.go"), []byte("package charlie"), 0o644))
	removed, err = Prune(out, paths(first.Units), second.Units, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoDirExists(t, filepath.Join(out, "charlie"), "emptied dialect directory is removed")
	assert.DirExists(t, out)
}

func TestCompareDirectories(t *testing.T) {
	dir := mavtest.DefinitionsDir(t)
	res, err := Compile(context.Background(), options(dir))
	require.NoError(t, err)

	generated := t.TempDir()
	existing := t.TempDir()
	_, err = Write(generated, res.Units, nil)
	require.NoError(t, err)
	_, err = Write(existing, res.Units, nil)
	require.NoError(t, err)

	check, err := CompareDirectories(generated, existing)
	require.NoError(t, err)
	assert.True(t, check.UpToDate)

	// CRLF checkouts are still current.
	md := filepath.Join(existing, "README.md")
	content, err := os.ReadFile(md)
	require.NoError(t, err)
	crlf := []byte{}
	for _, b := range content {
		if b == '\n' {
			crlf = append(crlf, '\r')
		}
		crlf = append(crlf, b)
	}
	require.NoError(t, os.WriteFile(md, crlf, 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(existing, "common.md"), []byte("stale"), 0o644))
	require.NoError(t, os.Remove(filepath.Join(existing, "charlie", "charlie.go")))
	require.NoError(t, os.WriteFile(filepath.Join(existing, "extra.go"), []byte("package extra"), 0o644))

	check, err = CompareDirectories(generated, existing)
	require.NoError(t, err)
	assert.False(t, check.UpToDate)
	assert.Equal(t, []string{"charlie/charlie.go (missing)", "common.md"}, check.Differences)
}

func TestPlanRendersNothing(t *testing.T) {
	res, err := Plan(context.Background(), options(mavtest.DefinitionsDir(t)))
	require.NoError(t, err)
	assert.Empty(t, res.Units)
	require.Len(t, res.Dialects, 3)
	assert.NotNil(t, res.Aggregate.Dialect("charlie").Message(42))

	_, err = Plan(context.Background(), &Options{DefinitionsDir: mavtest.DefinitionsDir(t)})
	assert.NoError(t, err, "planning needs no targets")
}
