package compiler

import (
	"bytes"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/teranos/mavgen/am"
	"github.com/teranos/mavgen/codegen"
	"github.com/teranos/mavgen/errors"
	"github.com/teranos/mavgen/logger"
)

// WriteStats counts what Write did.
type WriteStats struct {
	Written   int
	Unchanged int
	Removed   int
}

// Write stores units below dir. Each file goes to a temp file in its
// target directory and is renamed over the destination, so a reader never
// sees a partial file. Files whose content is already current are not
// touched, which keeps their modification times stable.
func Write(dir string, units []*codegen.Unit, log *zap.SugaredLogger) (WriteStats, error) {
	log = logger.OrNop(log)
	var stats WriteStats
	for _, u := range units {
		dest := filepath.Join(dir, filepath.FromSlash(u.Path))
		if existing, err := os.ReadFile(dest); err == nil && bytes.Equal(existing, u.Content) {
			stats.Unchanged++
			continue
		}
		if err := writeAtomic(dest, u.Content); err != nil {
			return stats, errors.Wrapf(err, "failed to write %s", u.Path)
		}
		stats.Written++
		log.Debugw("wrote unit",
			logger.FieldPath, u.Path,
			logger.FieldDialect, u.Dialect,
			logger.FieldSize, len(u.Content))
	}
	return stats, nil
}

// Prune removes the files listed in previous that units no longer produce,
// such as the unit of a dialect whose definition file was deleted.
// Directories left empty are removed too, up to but not including dir.
// Paths are relative to dir in slash form, as recorded in the trigger
// manifest.
func Prune(dir string, previous []string, units []*codegen.Unit, log *zap.SugaredLogger) (int, error) {
	log = logger.OrNop(log)
	current := make(map[string]bool, len(units))
	for _, u := range units {
		current[u.Path] = true
	}

	removed := 0
	for _, rel := range previous {
		if current[rel] || !filepath.IsLocal(filepath.FromSlash(rel)) {
			continue
		}
		dest := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.Remove(dest); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, errors.Wrapf(err, "failed to remove stale %s", rel)
		}
		removed++
		log.Debugw("removed stale unit", logger.FieldPath, rel)

		for parent := filepath.Dir(dest); parent != filepath.Clean(dir); parent = filepath.Dir(parent) {
			if os.Remove(parent) != nil {
				break
			}
		}
	}
	return removed, nil
}

func writeAtomic(dest string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), am.DefaultDirPermissions); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, dest); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
