// Package format runs the optional formatting pass over generated Go
// units. Formatting never decides whether generation succeeds: callers log
// a failure and keep the unformatted text.
package format

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path"
	"path/filepath"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"
	"golang.org/x/tools/imports"

	"github.com/teranos/mavgen/am"
	"github.com/teranos/mavgen/codegen"
	"github.com/teranos/mavgen/errors"
	"github.com/teranos/mavgen/logger"
)

// Formatter rewrites the source of one generated file. path is where the
// file will be written and may not exist yet.
type Formatter interface {
	Format(ctx context.Context, path string, src []byte) ([]byte, error)
}

// New returns the formatter cfg selects, or nil when formatting is disabled.
func New(cfg am.FormatConfig) (Formatter, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.Command == "" {
		return Imports{}, nil
	}
	args, err := shellquote.Split(cfg.Command)
	if err != nil {
		return nil, errors.Wrapf(err, "format.command %q", cfg.Command)
	}
	if len(args) == 0 {
		return nil, errors.Newf("format.command %q is empty", cfg.Command)
	}
	return &Command{Args: args}, nil
}

// Imports formats in process with goimports rules: gofmt layout plus
// import grouping.
type Imports struct{}

// Format implements Formatter.
func (Imports) Format(_ context.Context, path string, src []byte) ([]byte, error) {
	out, err := imports.Process(path, src, &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "format %s", filepath.Base(path))
	}
	return out, nil
}

// Command formats by running an external program that rewrites a file in
// place, e.g. "gofumpt -w". The file path is appended to Args.
type Command struct {
	Args []string
}

// Format writes src to a scratch file, runs the command on it and returns
// the rewritten content.
func (c *Command) Format(ctx context.Context, path string, src []byte) ([]byte, error) {
	tmp, err := os.CreateTemp("", "mavgen-*-"+filepath.Base(path))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create scratch file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(src); err != nil {
		tmp.Close()
		return nil, errors.Wrap(err, "failed to write scratch file")
	}
	if err := tmp.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to close scratch file")
	}

	args := append(append([]string(nil), c.Args[1:]...), tmp.Name())
	cmd := exec.CommandContext(ctx, c.Args[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.WithDetail(
			errors.Wrapf(err, "%s %s", shellquote.Join(c.Args...), filepath.Base(path)),
			stderr.String(),
		)
	}

	out, err := os.ReadFile(tmp.Name())
	if err != nil {
		return nil, errors.Wrap(err, "failed to read formatted file")
	}
	return out, nil
}

// Apply formats every Go unit in place. A unit the formatter rejects keeps
// its unformatted content and is reported in the returned count of
// failures.
func Apply(ctx context.Context, f Formatter, units []*codegen.Unit, log *zap.SugaredLogger) int {
	if f == nil {
		return 0
	}
	log = logger.OrNop(log)
	failed := 0
	for _, u := range units {
		if path.Ext(u.Path) != ".go" {
			continue
		}
		out, err := f.Format(ctx, u.Path, u.Content)
		if err != nil {
			failed++
			log.Warnw("formatting failed, keeping unformatted output",
				logger.FieldPath, u.Path,
				logger.FieldError, err)
			continue
		}
		u.Content = out
	}
	return failed
}
