package loader

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/sghaida/autocode/logger"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period before a change triggers the callback.
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc is called once per debounced burst of source changes.
type ChangeFunc func()

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values are ignored.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

func WithWatchLogger(l *zap.SugaredLogger) WatchOption {
	return func(w *Watcher) { w.log = l }
}

// Watcher reports changes to hand-written Go sources below a set of
// directories. Generated files are ignored so that regeneration does not
// trigger itself.
type Watcher struct {
	fs       *fsnotify.Watcher
	onChange ChangeFunc
	debounce time.Duration
	log      *zap.SugaredLogger

	mu       sync.Mutex
	timer    *time.Timer
	stopped  bool
	inflight sync.WaitGroup
}

// NewWatcher watches dirs and everything below them.
func NewWatcher(onChange ChangeFunc, dirs []string, opts ...WatchOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "watcher: create fsnotify watcher")
	}

	w := &Watcher{
		fs:       fw,
		onChange: onChange,
		debounce: DefaultDebounce,
		log:      logger.Named("watcher"),
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, dir := range dirs {
		if err := w.addTree(dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(p); err != nil {
			return errors.Wrapf(err, "watcher: watch %s", p)
		}
		return nil
	})
}

// Run blocks until ctx is done or the underlying watcher closes. A callback
// already running when Run stops is waited for; pending ones are dropped.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("Watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		// New directories need their own watch.
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.log.Warnw("Failed to watch new directory", "dir", event.Name, "error", err)
			}
			return
		}
	}

	if !relevant(event.Name) {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.log.Debugw("Source change", "file", event.Name, "op", event.Op.String())
	w.schedule()
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.inflight.Add(1)
	w.mu.Unlock()

	defer w.inflight.Done()
	w.onChange()
}

func (w *Watcher) stop() {
	w.mu.Lock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	w.inflight.Wait()
	_ = w.fs.Close()
}

func relevant(name string) bool {
	base := filepath.Base(name)
	return isSourceFile(base) && !strings.HasPrefix(base, ".")
}
