// Package sources keeps the definitions directory current before a
// generate: it refreshes the checkout and applies local patches on top.
//
// Both steps are best effort. When definition files are already on disk a
// failed fetch or patch is logged and generation goes on with what is
// there.
package sources

import (
	"context"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/hashicorp/go-getter"
	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/teranos/mavgen/am"
	"github.com/teranos/mavgen/errors"
	"github.com/teranos/mavgen/logger"
	"github.com/teranos/mavgen/schema"
)

// Method names how Fetch refreshed the definitions.
type Method string

const (
	MethodNone  Method = "none"
	MethodPull  Method = "pull"
	MethodClone Method = "clone"
	MethodGet   Method = "get"
)

// Fetch refreshes the definitions checkout.
//
// If the checkout root is a git work tree it is pulled. Otherwise,
// when a source is configured, it is fetched: git sources are cloned with
// go-git, anything else go-getter understands (archives, http, s3, local
// paths) is downloaded with go-getter.
func Fetch(ctx context.Context, cfg am.DefinitionsConfig, log *zap.SugaredLogger) (Method, error) {
	log = logger.OrNop(log)
	root := cfg.PatchRoot()

	repo, err := git.PlainOpen(root)
	if err == nil {
		return MethodPull, pull(ctx, repo, root, log)
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return MethodNone, errors.Wrapf(err, "failed to open %s", root)
	}

	if cfg.Source == "" {
		log.Debugw("no definitions source configured", logger.FieldPath, root)
		return MethodNone, nil
	}

	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}
	detected, err := getter.Detect(cfg.Source, pwd, getter.Detectors)
	if err != nil {
		return MethodNone, errors.Wrapf(err, "failed to detect source type of %s", cfg.Source)
	}
	log.Debugw("go-getter detected source",
		logger.FieldSource, cfg.Source,
		"detected", detected)

	if rest, ok := strings.CutPrefix(detected, "git::"); ok {
		return MethodClone, clone(ctx, rest, root, log)
	}

	client := &getter.Client{
		Ctx:     ctx,
		Src:     detected,
		Dst:     root,
		Pwd:     pwd,
		Mode:    getter.ClientModeDir,
		Getters: getter.Getters,
	}
	log.Infow("fetching definitions", logger.FieldSource, detected, logger.FieldPath, root)
	if err := client.Get(); err != nil {
		return MethodGet, errors.Wrapf(err, "failed to fetch %s", cfg.Source)
	}
	return MethodGet, nil
}

func pull(ctx context.Context, repo *git.Repository, root string, log *zap.SugaredLogger) error {
	wt, err := repo.Worktree()
	if err != nil {
		return errors.Wrap(err, "failed to open work tree")
	}
	log.Infow("pulling definitions", logger.FieldPath, root)
	err = wt.PullContext(ctx, &git.PullOptions{RemoteName: git.DefaultRemoteName})
	switch {
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		log.Debugw("definitions already up to date", logger.FieldPath, root)
		return nil
	case err != nil:
		return errors.Wrapf(err, "failed to pull %s", root)
	}
	return nil
}

// clone checks out a git source into root. A "ref" query parameter selects
// the branch, as it does for go-getter.
func clone(ctx context.Context, rawURL, root string, log *zap.SugaredLogger) error {
	opts := &git.CloneOptions{Depth: 1}
	u, err := url.Parse(rawURL)
	if err == nil && u.Scheme != "" {
		q := u.Query()
		if ref := q.Get("ref"); ref != "" {
			opts.ReferenceName = plumbing.NewBranchReferenceName(ref)
			opts.SingleBranch = true
			q.Del("ref")
			u.RawQuery = q.Encode()
		}
		rawURL = u.String()
	}
	opts.URL = rawURL

	log.Infow("cloning definitions", logger.FieldSource, rawURL, logger.FieldPath, root)
	if _, err := git.PlainCloneContext(ctx, root, false, opts); err != nil {
		return errors.Wrapf(err, "failed to clone %s", rawURL)
	}
	return nil
}

// Patches lists the *.patch files in dir, sorted. A missing directory has
// no patches.
func Patches(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.patch"))
	if err != nil {
		return nil, errors.Wrapf(err, "bad patch directory %s", dir)
	}
	sort.Strings(paths)
	return paths, nil
}

// PatchResult is the outcome of ApplyPatches.
type PatchResult struct {
	Applied []string
	Failed  []string
}

// ApplyPatches applies every patch in cfg.PatchDir, in name order, by
// running cfg.PatchCommand with the patch path appended inside the
// checkout root. A failing patch is logged and the rest still run.
func ApplyPatches(ctx context.Context, cfg am.DefinitionsConfig, log *zap.SugaredLogger) (*PatchResult, error) {
	log = logger.OrNop(log)
	patches, err := Patches(cfg.PatchDir)
	if err != nil {
		return nil, err
	}
	res := &PatchResult{}
	if len(patches) == 0 {
		return res, nil
	}

	args, err := shellquote.Split(cfg.PatchCommand)
	if err != nil {
		return nil, errors.Wrapf(err, "definitions.patch_command %q", cfg.PatchCommand)
	}
	if len(args) == 0 {
		return nil, errors.New("definitions.patch_command is empty")
	}

	for _, p := range patches {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		cmdArgs := append(append([]string(nil), args[1:]...), abs)
		cmd := exec.CommandContext(ctx, args[0], cmdArgs...)
		cmd.Dir = cfg.PatchRoot()
		out, err := cmd.CombinedOutput()
		name := filepath.Base(p)
		if err != nil {
			res.Failed = append(res.Failed, name)
			log.Warnw("patch failed",
				logger.FieldPatch, name,
				logger.FieldCommand, shellquote.Join(args...),
				logger.FieldError, err,
				"output", strings.TrimSpace(string(out)))
			continue
		}
		res.Applied = append(res.Applied, name)
		log.Infow("patch applied", logger.FieldPatch, name)
	}
	return res, nil
}

// HaveDefinitions reports whether dir already holds definition files.
func HaveDefinitions(dir string) bool {
	paths, err := schema.Discover(dir)
	return err == nil && len(paths) > 0
}

// Refresh fetches and patches. Errors are returned only when no definition
// files are available afterwards; otherwise they are logged.
func Refresh(ctx context.Context, cfg am.DefinitionsConfig, log *zap.SugaredLogger) error {
	log = logger.OrNop(log)

	_, fetchErr := Fetch(ctx, cfg, log)
	if fetchErr != nil {
		if !HaveDefinitions(cfg.Dir) {
			return errors.WithHint(fetchErr, "set definitions.source or populate definitions.dir")
		}
		log.Warnw("fetch failed, using definitions on disk",
			logger.FieldPath, cfg.Dir,
			logger.FieldError, fetchErr)
	}

	if _, err := ApplyPatches(ctx, cfg, log); err != nil {
		log.Warnw("patching skipped", logger.FieldError, err)
	}

	if !HaveDefinitions(cfg.Dir) {
		return errors.WithHint(
			errors.Newf("no definition files in %s", cfg.Dir),
			"set definitions.source or populate definitions.dir",
		)
	}
	return nil
}
