package schema

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/mavgen/errors"
	"github.com/teranos/mavgen/logger"
)

// Graph is the include graph reachable from one root file: an arena of
// parsed files keyed by canonical path plus the include edges between them.
// A Graph returned by ResolveIncludes is acyclic.
type Graph struct {
	Root  string
	files map[string]*File
	edges map[string][]string
}

// File returns the parsed file for a canonical path.
func (g *Graph) File(key string) *File {
	return g.files[key]
}

// Includes returns the canonical paths key includes, in declaration order.
func (g *Graph) Includes(key string) []string {
	return g.edges[key]
}

// Len is the number of distinct files in the graph.
func (g *Graph) Len() int {
	return len(g.files)
}

// Closure returns every file reachable from the root in post-order:
// included files before the files that include them, each file once even
// when several files include it.
func (g *Graph) Closure() []*File {
	seen := make(map[string]bool, len(g.files))
	out := make([]*File, 0, len(g.files))
	var visit func(key string)
	visit = func(key string) {
		if seen[key] {
			return
		}
		seen[key] = true
		for _, inc := range g.edges[key] {
			visit(inc)
		}
		out = append(out, g.files[key])
	}
	visit(g.Root)
	return out
}

// Paths returns every canonical path in the graph, sorted.
func (g *Graph) Paths() []string {
	keys := make([]string, 0, len(g.files))
	for k := range g.files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolver loads include graphs. Includes are looked up relative to
// SearchDir.
type Resolver struct {
	SearchDir string
	Logger    *zap.SugaredLogger
	// Parse is the per-file loader; nil means Parse.
	Parse func(path string) (*File, error)
}

// ResolveIncludes parses rootPath and every file it transitively includes.
func ResolveIncludes(rootPath, searchDir string) (*Graph, error) {
	r := &Resolver{SearchDir: searchDir}
	return r.Resolve(rootPath)
}

// Resolve builds the include graph rooted at rootPath.
//
// Every file is parsed at most once. The active include path is carried
// by value down the recursion; meeting a file that is already on it is an
// include cycle, meeting one that was already completed is a shared
// include and is not parsed again.
func (r *Resolver) Resolve(rootPath string) (*Graph, error) {
	log := logger.OrNop(r.Logger)
	parse := r.Parse
	if parse == nil {
		parse = Parse
	}

	root, err := Canonical(rootPath)
	if err != nil {
		return nil, err
	}

	g := &Graph{
		Root:  root,
		files: make(map[string]*File),
		edges: make(map[string][]string),
	}

	var resolve func(key string, stack []string) error
	resolve = func(key string, stack []string) error {
		for i, onPath := range stack {
			if onPath == key {
				return cycleError(stack[i:], key)
			}
		}
		if _, done := g.files[key]; done {
			return nil
		}

		file, err := parse(key)
		if err != nil {
			return err
		}

		stack = append(stack[:len(stack):len(stack)], key)
		var edges []string
		for _, inc := range file.Includes {
			target, err := r.locate(file, inc)
			if err != nil {
				return err
			}
			log.Debugw("resolved include", logger.FieldFile, file.Name, logger.FieldInclude, inc.Path)
			if err := resolve(target, stack); err != nil {
				return err
			}
			edges = append(edges, target)
		}

		g.files[key] = file
		g.edges[key] = edges
		return nil
	}

	if err := resolve(root, nil); err != nil {
		return nil, err
	}
	return g, nil
}

func (r *Resolver) locate(from *File, inc Include) (string, error) {
	path := inc.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.SearchDir, path)
	}
	target, err := Canonical(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(target); err != nil {
		return "", errors.WithDetailf(
			errors.Wrapf(errors.ErrMissingInclude, "%s line %d: include %q", filepath.Base(from.Path), inc.Line, inc.Path),
			"searched: %s", path,
		)
	}
	return target, nil
}

func cycleError(onPath []string, again string) error {
	path := make([]string, 0, len(onPath)+1)
	path = append(path, onPath...)
	path = append(path, again)
	names := make([]string, len(path))
	for i, p := range path {
		names[i] = filepath.Base(p)
	}
	return errors.WithDetailf(
		errors.Wrapf(errors.ErrIncludeCycle, "%s", strings.Join(names, " -> ")),
		"files: %s", strings.Join(path, ", "),
	)
}
