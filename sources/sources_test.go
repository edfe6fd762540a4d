package sources

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/mavgen/am"
	mavtest "github.com/teranos/mavgen/internal/testing"
)

func TestFetchNothingConfigured(t *testing.T) {
	cfg := am.DefinitionsConfig{Dir: filepath.Join(t.TempDir(), "defs")}
	method, err := Fetch(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, MethodNone, method)
}

func TestFetchLocalSource(t *testing.T) {
	src := mavtest.DefinitionsDir(t)
	dst := filepath.Join(t.TempDir(), "defs")

	cfg := am.DefinitionsConfig{Dir: dst, Source: src}
	method, err := Fetch(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, MethodGet, method)
	assert.True(t, HaveDefinitions(dst))
}

func TestFetchPullWithoutRemote(t *testing.T) {
	root := t.TempDir()
	_, err := git.PlainInit(root, false)
	require.NoError(t, err)

	method, err := Fetch(context.Background(), am.DefinitionsConfig{Dir: root}, nil)
	assert.Equal(t, MethodPull, method)
	assert.Error(t, err, "no origin to pull from")
}

func TestRefreshToleratesFetchFailureWithDefinitions(t *testing.T) {
	root := mavtest.DefinitionsDir(t)
	_, err := git.PlainInit(root, false)
	require.NoError(t, err)

	assert.NoError(t, Refresh(context.Background(), am.DefinitionsConfig{Dir: root}, nil))
}

func TestRefreshFailsWithoutDefinitions(t *testing.T) {
	root := t.TempDir()
	_, err := git.PlainInit(root, false)
	require.NoError(t, err)

	assert.Error(t, Refresh(context.Background(), am.DefinitionsConfig{Dir: root}, nil))
}

func TestPatches(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.patch", "a.patch", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	got, err := Patches(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.patch"), filepath.Join(dir, "b.patch")}, got)

	got, err = Patches(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Patches("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestApplyPatches(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	root := t.TempDir()
	patchDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(patchDir, "a.patch"), []byte("first\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(patchDir, "b.patch"), []byte("broken\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(patchDir, "c.patch"), []byte("third\n"), 0o644))

	cfg := am.DefinitionsConfig{
		Dir:          root,
		PatchDir:     patchDir,
		PatchCommand: `sh -c 'case "$0" in *b.patch) exit 1;; esac; cat "$0" >> applied.log'`,
	}
	res, err := ApplyPatches(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.patch", "c.patch"}, res.Applied)
	assert.Equal(t, []string{"b.patch"}, res.Failed)

	log, err := os.ReadFile(filepath.Join(root, "applied.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\nthird\n", string(log), "patches run in the checkout root, in order")
}

func TestApplyPatchesBadCommand(t *testing.T) {
	patchDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(patchDir, "a.patch"), nil, 0o644))

	_, err := ApplyPatches(context.Background(), am.DefinitionsConfig{
		Dir:          t.TempDir(),
		PatchDir:     patchDir,
		PatchCommand: `git "apply`,
	}, nil)
	assert.Error(t, err)
}
