package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/mavgen/am"
)

func TestRelevant(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write xml", fsnotify.Event{Name: "/d/common.xml", Op: fsnotify.Write}, true},
		{"create patch", fsnotify.Event{Name: "/p/01-fix.patch", Op: fsnotify.Create}, true},
		{"remove xml", fsnotify.Event{Name: "/d/alpha.XML", Op: fsnotify.Remove}, true},
		{"chmod only", fsnotify.Event{Name: "/d/common.xml", Op: fsnotify.Chmod}, false},
		{"other file", fsnotify.Event{Name: "/d/README.md", Op: fsnotify.Write}, false},
		{"swap file", fsnotify.Event{Name: "/d/.common.xml.swp", Op: fsnotify.Write}, false},
		{"backup", fsnotify.Event{Name: "/d/common.xml~", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relevant(tt.event))
		})
	}
}

func TestNewNeedsAWatchableDirectory(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "missing"), ""}, am.WatchConfig{}, nil, nil)
	assert.Error(t, err)
}

func TestRunDebouncesIntoOneRebuild(t *testing.T) {
	dir := t.TempDir()
	calls := make(chan []string, 4)
	rebuild := func(_ context.Context, changed []string) error {
		calls <- changed
		return nil
	}

	w, err := New([]string{dir}, am.WatchConfig{DebounceMS: 200, MaxRunsPerMinute: 600}, rebuild, zap.NewNop().Sugar())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "common.xml"), []byte("<mavlink/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha.xml"), []byte("<mavlink/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	select {
	case changed := <-calls:
		assert.Equal(t, []string{filepath.Join(dir, "alpha.xml"), filepath.Join(dir, "common.xml")}, changed)
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRateLimitedRebuildKeepsPendingChanges(t *testing.T) {
	calls := 0
	w := &Watcher{
		rebuild:  func(context.Context, []string) error { calls++; return nil },
		limiter:  rate.NewLimiter(rate.Every(time.Hour), 1),
		interval: time.Hour,
		log:      zap.NewNop().Sugar(),
		pending:  map[string]bool{"a.xml": true},
		fire:     make(chan struct{}, 1),
	}
	defer w.stopTimer()

	w.runRebuild(context.Background())
	assert.Equal(t, 1, calls)
	assert.Empty(t, w.pending)

	w.pending["b.xml"] = true
	w.runRebuild(context.Background())
	assert.Equal(t, 1, calls, "second rebuild within the window is deferred")
	assert.True(t, w.pending["b.xml"])
	assert.NotNil(t, w.timer, "a retry is scheduled")
}

func TestFailedRebuildIsNotFatal(t *testing.T) {
	w := &Watcher{
		rebuild:  func(context.Context, []string) error { return assert.AnError },
		limiter:  rate.NewLimiter(rate.Inf, 1),
		interval: time.Millisecond,
		log:      zap.NewNop().Sugar(),
		pending:  map[string]bool{"a.xml": true},
		fire:     make(chan struct{}, 1),
	}
	w.runRebuild(context.Background())
	assert.Empty(t, w.pending)
}
