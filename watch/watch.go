// Package watch reruns generation when definition files change.
//
// Directories are watched rather than files because editors and git
// replace files instead of writing them in place. Bursts of events are
// debounced into one rebuild, and rebuilds are rate limited so a tool that
// rewrites the tree in a loop cannot pin the CPU.
package watch

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/mavgen/am"
	"github.com/teranos/mavgen/errors"
	"github.com/teranos/mavgen/logger"
)

// Rebuild is called with the changed files, sorted, after a debounced
// burst of events.
type Rebuild func(ctx context.Context, changed []string) error

// Watcher watches definition and patch directories.
type Watcher struct {
	watcher  *fsnotify.Watcher
	rebuild  Rebuild
	debounce time.Duration
	limiter  *rate.Limiter
	interval time.Duration
	log      *zap.SugaredLogger

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]bool
	fire    chan struct{}
}

// New watches dirs. Directories that do not exist are skipped; at least
// one must exist.
func New(dirs []string, cfg am.WatchConfig, rebuild Rebuild, log *zap.SugaredLogger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	log = logger.OrNop(log)
	watched := 0
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := fw.Add(dir); err != nil {
			log.Debugw("not watching", logger.FieldPath, dir, logger.FieldError, err)
			continue
		}
		watched++
	}
	if watched == 0 {
		fw.Close()
		return nil, errors.Newf("none of %s can be watched", strings.Join(dirs, ", "))
	}

	perMinute := cfg.MaxRunsPerMinute
	if perMinute <= 0 {
		perMinute = 30
	}
	debounce := time.Duration(cfg.DebounceMS) * time.Millisecond
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	return &Watcher{
		watcher:  fw,
		rebuild:  rebuild,
		debounce: debounce,
		limiter:  rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
		interval: time.Minute / time.Duration(perMinute),
		log:      log,
		pending:  make(map[string]bool),
		fire:     make(chan struct{}, 1),
	}, nil
}

// Run processes events until ctx is done. Rebuilds run on the calling
// goroutine, one at a time; a failed rebuild is logged and watching goes on.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.log.Debugw("definition change",
				logger.FieldFile, event.Name,
				"op", event.Op.String())
			w.schedule(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("watcher error", logger.FieldError, err)

		case <-w.fire:
			w.runRebuild(ctx)
		}
	}
}

// relevant keeps writes, creates, renames and removes of definition files
// and patches. Editor swap and backup files are ignored.
func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".xml", ".patch":
		return true
	}
	return false
}

func (w *Watcher) schedule(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[name] = true
	w.arm(w.debounce)
}

// arm restarts the debounce timer. Callers hold w.mu.
func (w *Watcher) arm(d time.Duration) {
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(d, func() {
		select {
		case w.fire <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) runRebuild(ctx context.Context) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	if !w.limiter.Allow() {
		// Keep the pending set and try again once a token is due.
		delay := w.interval
		w.arm(delay)
		w.mu.Unlock()
		w.log.Warnw("rebuild rate limited", "retry_in", delay.String())
		return
	}
	changed := make([]string, 0, len(w.pending))
	for name := range w.pending {
		changed = append(changed, name)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	sort.Strings(changed)
	start := time.Now()
	if err := w.rebuild(ctx, changed); err != nil {
		w.log.Errorw("rebuild failed",
			logger.FieldCount, len(changed),
			logger.FieldError, err)
		return
	}
	w.log.Infow("rebuilt",
		logger.FieldCount, len(changed),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
}
