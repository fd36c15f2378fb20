// Package watch triggers rebuilds when files under the site's source roots
// change. Events are debounced, and rebuilds are single-flight: changes
// arriving mid-rebuild coalesce into one follow-up run.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// Watcher drives rebuilds from filesystem events.
type Watcher struct {
	roots    []string
	rebuild  func(context.Context) error
	recorder metrics.Recorder
	// Debounce is the quiet period after the last event before rebuilding.
	Debounce time.Duration
}

// New creates a watcher over roots that invokes rebuild after changes.
// Roots that do not exist are skipped.
func New(roots []string, rebuild func(context.Context) error, recorder metrics.Recorder) *Watcher {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Watcher{
		roots:    roots,
		rebuild:  rebuild,
		recorder: recorder,
		Debounce: 300 * time.Millisecond,
	}
}

// Run blocks processing events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, root := range w.roots {
		if st, err := os.Stat(root); err != nil || !st.IsDir() {
			slog.Debug("Watch root missing, skipping", "root", root)
			continue
		}
		if err := addDirsRecursive(watcher, root); err != nil {
			return err
		}
	}

	rebuildReq := make(chan struct{}, 1)
	trigger := w.newDebouncer(rebuildReq)
	go w.rebuildWorker(ctx, rebuildReq)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(watcher, ev, trigger)
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", "error", werr)
		}
	}
}

// newDebouncer returns a trigger that enqueues one rebuild request after the
// debounce window elapses without further triggers.
func (w *Watcher) newDebouncer(rebuildReq chan struct{}) func() {
	var mu sync.Mutex
	var timer *time.Timer
	return func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.Debounce, func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}
}

// rebuildWorker serializes rebuilds; requests arriving while one is running
// collapse into a single follow-up.
func (w *Watcher) rebuildWorker(ctx context.Context, rebuildReq chan struct{}) {
	var mu sync.Mutex
	running := false
	pending := false

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-rebuildReq:
			if !ok {
				return
			}
			mu.Lock()
			if running {
				pending = true
				mu.Unlock()
				continue
			}
			running = true
			mu.Unlock()

			w.recorder.IncWatchRebuild()
			slog.Info("Change detected; rebuilding site")
			if err := w.rebuild(ctx); err != nil {
				slog.Warn("Rebuild failed; keeping last good site", "error", err)
			}

			mu.Lock()
			running = false
			if pending {
				pending = false
				mu.Unlock()
				select {
				case rebuildReq <- struct{}{}:
				default:
				}
			} else {
				mu.Unlock()
			}
		}
	}
}

func (w *Watcher) handleEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if shouldIgnore(ev.Name) {
		return
	}
	// New directories need explicit watches for their contents.
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(watcher, ev.Name)
		}
	}
	slog.Debug("File change detected", "path", ev.Name, "op", ev.Op.String())
	trigger()
}

func shouldIgnore(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".") ||
		strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".tmp")
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			if err := w.Add(path); err != nil {
				slog.Warn("Watch add failed", "dir", path, "error", err)
			}
		}
		return nil
	})
}
