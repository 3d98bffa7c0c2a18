// Package watch rebuilds the site whenever content or templates change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/postbuilder/internal/logfields"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 300 * time.Millisecond

// RebuildFunc performs one build.
type RebuildFunc func(ctx context.Context) error

// Watcher triggers a rebuild after a burst of filesystem changes. At most
// one rebuild runs at a time; changes made while it runs queue exactly one
// follow-up rebuild.
type Watcher struct {
	dirs     []string
	rebuild  RebuildFunc
	debounce time.Duration
	logger   *slog.Logger
	onResult func(error)
}

// Option configures a Watcher.
type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithResultHook is called after every rebuild with its error.
func WithResultHook(fn func(error)) Option {
	return func(w *Watcher) { w.onResult = fn }
}

// New returns a Watcher over dirs. Directories that do not exist are
// skipped when Run starts.
func New(dirs []string, rebuild RebuildFunc, opts ...Option) *Watcher {
	w := &Watcher{
		dirs:     dirs,
		rebuild:  rebuild,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fw.Close() }()

	watched := 0
	for _, dir := range w.dirs {
		if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
			w.logger.Warn("Not watching missing directory", logfields.Path(dir))
			continue
		}
		w.addDirsRecursive(fw, dir)
		watched++
	}
	if watched == 0 {
		return errors.New("no directory to watch")
	}

	rebuildReq, trigger, stop := newDebouncer(w.debounce)
	defer stop()

	workerCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.worker(workerCtx, rebuildReq)
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	w.logger.Info("Watching for changes", slog.Any("dirs", w.dirs))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, ev, trigger)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// newDebouncer returns a channel that receives one value per settled burst
// of trigger calls.
func newDebouncer(delay time.Duration) (<-chan struct{}, func(), func()) {
	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	req := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(delay, func() {
			select {
			case req <- struct{}{}:
			default:
			}
		})
	}
	stop := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}
	return req, trigger, stop
}

// worker serialises rebuilds. A request arriving while a rebuild runs is
// kept in the buffered channel and served right after.
func (w *Watcher) worker(ctx context.Context, req <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-req:
			w.logger.Info("Change detected; rebuilding site")
			err := w.rebuild(ctx)
			if err != nil && ctx.Err() == nil {
				w.logger.Warn("Rebuild failed", logfields.Error(err))
			}
			if w.onResult != nil {
				w.onResult(err)
			}
		}
	}
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addDirsRecursive(fw, ev.Name)
		}
	}
	w.logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	trigger()
}

func (w *Watcher) addDirsRecursive(fw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if err := fw.Add(path); err != nil {
				w.logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnoreEvent reports editor droppings and hidden files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}
