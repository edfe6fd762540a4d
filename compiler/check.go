package compiler

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teranos/mavgen/errors"
	"github.com/teranos/mavgen/triggers"
)

// CheckResult holds the result of an up-to-date check
type CheckResult struct {
	UpToDate bool
	// Differences lists output paths, relative to the output directory,
	// whose content differs or that are missing.
	Differences []string
}

// CompareDirectories compares freshly generated output in generatedDir
// with the committed output in existingDir. Only files present in
// generatedDir are compared; extra files in existingDir are ignored.
func CompareDirectories(generatedDir, existingDir string) (*CheckResult, error) {
	var diffs []string
	err := filepath.WalkDir(generatedDir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if shouldSkipFile(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(generatedDir, p)
		if err != nil {
			return err
		}

		different, err := filesAreDifferent(p, filepath.Join(existingDir, rel))
		switch {
		case errors.Is(err, os.ErrNotExist):
			diffs = append(diffs, filepath.ToSlash(rel)+" (missing)")
		case err != nil:
			diffs = append(diffs, filepath.ToSlash(rel)+" (error: "+err.Error()+")")
		case different:
			diffs = append(diffs, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to walk %s", generatedDir)
	}

	sort.Strings(diffs)
	return &CheckResult{
		UpToDate:    len(diffs) == 0,
		Differences: diffs,
	}, nil
}

// shouldSkipFile returns true if the file should be skipped during comparison.
func shouldSkipFile(basename string) bool {
	return basename == triggers.ManifestName || strings.HasPrefix(basename, ".")
}

// filesAreDifferent compares two files, ignoring carriage returns so a
// checkout with CRLF line endings is not reported as stale.
func filesAreDifferent(generated, existing string) (bool, error) {
	want, err := os.ReadFile(generated)
	if err != nil {
		return false, errors.Wrapf(err, "failed to read %s", generated)
	}
	got, err := os.ReadFile(existing)
	if err != nil {
		return false, err
	}
	if bytes.Equal(want, got) {
		return false, nil
	}
	return normalizeLines(want) != normalizeLines(got), nil
}

// normalizeLines strips carriage returns line by line. Returns empty string
// if the scanner fails, which makes the comparison report a difference.
func normalizeLines(content []byte) string {
	var b strings.Builder
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		b.WriteString(strings.TrimRight(scanner.Text(), "\r"))
		b.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return ""
	}
	return b.String()
}
