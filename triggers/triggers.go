// Package triggers decides whether generation has to run again.
//
// After a successful generate the output directory receives a manifest
// listing every definition file with its SHA-256, a digest of the options
// that shape the output, and the generator version. The next generate
// compares a fresh snapshot against it and skips the work when nothing that
// could change the output moved.
package triggers

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"

	"github.com/teranos/mavgen/errors"
	"github.com/teranos/mavgen/schema"
)

// ManifestName is the manifest file name inside the output directory.
const ManifestName = ".mavgen-triggers.toml"

// Manifest records the inputs of the last successful generate.
type Manifest struct {
	Generator string `toml:"generator"`
	Options   string `toml:"options"`
	// Files maps definition file base names to their SHA-256.
	Files map[string]string `toml:"files"`
	// Outputs lists the generated files, relative to the output directory.
	Outputs []string `toml:"outputs"`
}

// Snapshot hashes every definition file in dir. options is any value whose
// TOML encoding covers the settings that affect generated output.
func Snapshot(dir string, generator *semver.Version, options any) (*Manifest, error) {
	paths, err := schema.Discover(dir)
	if err != nil {
		return nil, err
	}
	m := &Manifest{
		Generator: generator.String(),
		Files:     make(map[string]string, len(paths)),
	}
	for _, p := range paths {
		sum, err := hashFile(p)
		if err != nil {
			return nil, err
		}
		m.Files[filepath.Base(p)] = sum
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(options); err != nil {
		return nil, errors.Wrap(err, "failed to encode generator options")
	}
	digest := sha256.Sum256(buf.Bytes())
	m.Options = hex.EncodeToString(digest[:])
	return m, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "failed to hash %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Load reads the manifest in outDir. A missing manifest is not an error:
// Load returns nil and every snapshot counts as changed.
func Load(outDir string) (*Manifest, error) {
	var m Manifest
	if _, err := toml.DecodeFile(filepath.Join(outDir, ManifestName), &m); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read %s", ManifestName)
	}
	return &m, nil
}

// Save writes m into outDir.
func Save(outDir string, m *Manifest) error {
	var buf bytes.Buffer
	buf.WriteString("# Written by mavgen generate. Delete to force a rebuild.\n")
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return errors.Wrap(err, "failed to encode trigger manifest")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", outDir)
	}
	if err := os.WriteFile(filepath.Join(outDir, ManifestName), buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", ManifestName)
	}
	return nil
}

// Changes lists why current differs from previous, sorted. Empty means the
// output is current.
func Changes(previous, current *Manifest) []string {
	if previous == nil {
		return []string{"no previous build"}
	}
	var out []string
	if !sameVersion(previous.Generator, current.Generator) {
		out = append(out, "generator "+previous.Generator+" -> "+current.Generator)
	}
	if previous.Options != current.Options {
		out = append(out, "options changed")
	}
	for name, sum := range current.Files {
		old, ok := previous.Files[name]
		switch {
		case !ok:
			out = append(out, "added "+name)
		case old != sum:
			out = append(out, "modified "+name)
		}
	}
	for name := range previous.Files {
		if _, ok := current.Files[name]; !ok {
			out = append(out, "removed "+name)
		}
	}
	sort.Strings(out)
	return out
}

// MissingOutputs lists the recorded outputs that no longer exist below
// outDir. Deleting a generated file forces the next generate.
func MissingOutputs(outDir string, m *Manifest) []string {
	if m == nil {
		return nil
	}
	var missing []string
	for _, rel := range m.Outputs {
		if _, err := os.Stat(filepath.Join(outDir, filepath.FromSlash(rel))); err != nil {
			missing = append(missing, rel)
		}
	}
	return missing
}

// sameVersion compares semantically, so "v1.2.0" and "1.2.0" match. Any
// unparsable version counts as different.
func sameVersion(a, b string) bool {
	va, err := semver.NewVersion(a)
	if err != nil {
		return false
	}
	vb, err := semver.NewVersion(b)
	if err != nil {
		return false
	}
	return va.Equal(vb)
}
