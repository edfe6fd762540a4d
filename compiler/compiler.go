// Package compiler drives the pipeline: every definition file is loaded,
// modelled, planned and rendered as a dialect of its own, concurrently,
// and the binder then merges the results into the aggregate units.
//
// Nothing is written until every dialect of every target succeeded.
package compiler

import (
	"context"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/mavgen/am"
	"github.com/teranos/mavgen/binder"
	"github.com/teranos/mavgen/codegen"
	"github.com/teranos/mavgen/codegen/golang"
	"github.com/teranos/mavgen/codegen/markdown"
	"github.com/teranos/mavgen/errors"
	"github.com/teranos/mavgen/format"
	"github.com/teranos/mavgen/layout"
	"github.com/teranos/mavgen/logger"
	"github.com/teranos/mavgen/model"
	"github.com/teranos/mavgen/schema"
)

// Options configure one compile.
type Options struct {
	// DefinitionsDir holds the *.xml files; includes resolve against it.
	DefinitionsDir string
	// Dialects restricts the roots to these dialect names. Empty compiles
	// every file.
	Dialects []string
	// Generators are the output targets. At least one is required.
	Generators []codegen.Generator
	// Formatter post-processes Go units; nil skips formatting.
	Formatter format.Formatter
	// Jobs bounds the concurrent dialect pipelines; 0 means GOMAXPROCS.
	Jobs int
	Logger *zap.SugaredLogger
}

// FromConfig builds Options from a validated configuration.
func FromConfig(cfg *am.Config, log *zap.SugaredLogger) (*Options, error) {
	opts := &Options{
		DefinitionsDir: cfg.Definitions.Dir,
		Dialects:       cfg.Output.Dialects,
		Jobs:           cfg.Build.Jobs,
		Logger:         log,
	}
	for _, lang := range cfg.Output.Lang {
		switch lang {
		case am.LangGo:
			opts.Generators = append(opts.Generators, golang.NewGenerator(golang.Options{
				ImportPath:       cfg.Output.ImportPath,
				AggregatePackage: cfg.Output.AggregatePackage,
				TrimExtensions:   cfg.Output.TrimExtensions,
				Reexport:         cfg.Output.Reexport,
			}))
		case am.LangMarkdown:
			opts.Generators = append(opts.Generators, markdown.NewGenerator())
		default:
			return nil, errors.Newf("unsupported language %q", lang)
		}
	}

	f, err := format.New(cfg.Format)
	if err != nil {
		return nil, err
	}
	opts.Formatter = f
	return opts, nil
}

// Result is a successful compile, held in memory.
type Result struct {
	// Dialects are the planned dialects, sorted by name.
	Dialects  []*layout.Dialect
	Aggregate *binder.Aggregate
	// Units are every generated file: per target, the dialect units in
	// dialect order followed by the aggregate unit.
	Units []*codegen.Unit
	// Inputs are the canonical paths of every definition file read, sorted.
	Inputs []string
}

// Unit returns the unit with the given output path, or nil.
func (r *Result) Unit(path string) *codegen.Unit {
	for _, u := range r.Units {
		if u.Path == path {
			return u
		}
	}
	return nil
}

// dialectResult is one slot of the fan-out.
type dialectResult struct {
	dialect *layout.Dialect
	units   []*codegen.Unit // one per generator
	inputs  []string
}

// Compile runs the whole pipeline. Any failing dialect cancels the others
// and the error names the dialect and element that failed.
func Compile(ctx context.Context, opts *Options) (*Result, error) {
	if len(opts.Generators) == 0 {
		return nil, errors.New("no output targets configured")
	}
	log := logger.OrNop(opts.Logger)
	start := time.Now()

	result, slots, err := plan(ctx, opts, log)
	if err != nil {
		return nil, err
	}

	// Bind sorted the dialects; lay the units out in the same order.
	order := make(map[string]int, len(slots))
	for i, s := range slots {
		order[s.dialect.Name()] = i
	}
	for gi, gen := range opts.Generators {
		for _, d := range result.Dialects {
			result.Units = append(result.Units, slots[order[d.Name()]].units[gi])
		}
		unit, err := gen.GenerateAggregate(result.Aggregate)
		if err != nil {
			return nil, errors.Wrapf(err, "%s aggregate", gen.Language())
		}
		result.Units = append(result.Units, unit)
	}

	if failed := format.Apply(ctx, opts.Formatter, result.Units, log); failed > 0 {
		log.Warnw("some units were left unformatted", logger.FieldCount, failed)
	}

	log.Infow("compiled",
		logger.FieldCount, len(result.Dialects),
		"units", len(result.Units),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return result, nil
}

// Plan runs the pipeline up to the binder and renders nothing. Generators
// in opts are ignored.
func Plan(ctx context.Context, opts *Options) (*Result, error) {
	planOpts := *opts
	planOpts.Generators = nil
	result, _, err := plan(ctx, &planOpts, logger.OrNop(opts.Logger))
	return result, err
}

// plan fans the dialects out over the worker group and binds the results.
// Units in the returned slots are in opts.Generators order.
func plan(ctx context.Context, opts *Options, log *zap.SugaredLogger) (*Result, []dialectResult, error) {
	roots, err := Roots(opts.DefinitionsDir, opts.Dialects)
	if err != nil {
		return nil, nil, err
	}
	log.Infow("compiling dialects",
		logger.FieldCount, len(roots),
		logger.FieldPath, opts.DefinitionsDir)

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	slots := make([]dialectResult, len(roots))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, root := range roots {
		i, root := i, root
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := compileDialect(opts, root, log)
			if err != nil {
				return err
			}
			slots[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	dialects := make([]*layout.Dialect, len(slots))
	inputs := make(map[string]bool)
	for i, s := range slots {
		dialects[i] = s.dialect
		for _, in := range s.inputs {
			inputs[in] = true
		}
	}

	agg, err := binder.Bind(dialects)
	if err != nil {
		return nil, nil, err
	}
	result := &Result{Aggregate: agg, Dialects: agg.Dialects}
	for in := range inputs {
		result.Inputs = append(result.Inputs, in)
	}
	sort.Strings(result.Inputs)
	return result, slots, nil
}

// compileDialect runs the per-dialect stages for one root file. It shares
// nothing with the other pipelines.
func compileDialect(opts *Options, root string, log *zap.SugaredLogger) (*dialectResult, error) {
	name := schema.DialectName(root)
	dlog := logger.ChildLogger(log, logger.FieldDialect, name)

	resolver := &schema.Resolver{SearchDir: opts.DefinitionsDir, Logger: dlog}
	graph, err := resolver.Resolve(root)
	if err != nil {
		return nil, errors.Wrapf(err, "dialect %s", name)
	}
	set, err := (&model.Builder{Logger: dlog}).Build(graph)
	if err != nil {
		return nil, errors.Wrapf(err, "dialect %s", name)
	}
	planned, err := layout.Plan(set)
	if err != nil {
		return nil, errors.Wrapf(err, "dialect %s", name)
	}

	res := &dialectResult{dialect: planned, inputs: graph.Paths()}
	for _, gen := range opts.Generators {
		unit, err := gen.GenerateUnit(planned)
		if err != nil {
			return nil, errors.Wrapf(err, "dialect %s: %s", name, gen.Language())
		}
		res.units = append(res.units, unit)
	}
	dlog.Debugw("dialect planned",
		logger.FieldFile, filepath.Base(root),
		"messages", len(planned.Messages),
		"enums", len(set.Enums))
	return res, nil
}

// Roots lists the definition files to compile as dialects. When only is
// non-empty every named dialect must exist.
func Roots(dir string, only []string) ([]string, error) {
	paths, err := schema.Discover(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.WithHint(
			errors.Newf("no definition files in %s", dir),
			"run mavgen fetch or set definitions.dir",
		)
	}
	if len(only) == 0 {
		return paths, nil
	}

	byName := make(map[string]string, len(paths))
	for _, p := range paths {
		byName[schema.DialectName(p)] = p
	}
	var roots []string
	seen := make(map[string]bool, len(only))
	for _, name := range only {
		p, ok := byName[name]
		if !ok {
			return nil, errors.WithHint(
				errors.Newf("dialect %q not found in %s", name, dir),
				"output.dialects names dialects by file base name",
			)
		}
		if !seen[p] {
			seen[p] = true
			roots = append(roots, p)
		}
	}
	sort.Strings(roots)
	return roots, nil
}
