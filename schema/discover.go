package schema

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teranos/mavgen/errors"
)

// Discover lists the *.xml definition files directly inside dir, sorted by
// name. Every file found is compiled as a dialect of its own.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "failed to read definitions directory %s", dir),
			"set definitions.dir or run mavgen fetch",
		)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// DialectName derives a dialect name from a definition file path: the
// lower-cased base name with every character outside [a-z0-9_] replaced by
// an underscore, so it is usable as a package or module name.
func DialectName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := b.String()
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "d" + name
	}
	return name
}
