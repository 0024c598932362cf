// Package hotreload watches source directories and fires a debounced
// reload callback, so a dev loop can re-render the component tree when
// files change.
package hotreload

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
)

// DefaultDebounce is the quiet period after the last event before the
// reload callback fires.
const DefaultDebounce = 100 * time.Millisecond

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger for watch errors.
func WithLogger(log logr.Logger) Option {
	return func(w *Watcher) { w.log = log }
}

// WithExtensions restricts events to files with the given extensions
// (including the dot, e.g. ".go").
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) { w.exts = exts }
}

// Watcher debounces filesystem events from a set of directories into
// reload callbacks.
type Watcher struct {
	fs       *fsnotify.Watcher
	reload   func(paths []string)
	debounce time.Duration
	exts     []string
	log      logr.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	done    chan struct{}
	once    sync.Once
}

// New creates a watcher over dirs that calls reload with the changed paths
// after each debounced burst of events.
func New(dirs []string, reload func(paths []string), opts ...Option) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating filesystem watcher")
	}
	w := &Watcher{
		fs:       fs,
		reload:   reload,
		debounce: DefaultDebounce,
		log:      logr.Discard(),
		pending:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	for _, dir := range dirs {
		if err := fs.Add(dir); err != nil {
			fs.Close()
			return nil, errors.Wrapf(err, "watching %s", dir)
		}
	}
	go w.run(fs.Events, fs.Errors)
	return w, nil
}

// Close stops the watcher. Pending debounced events are dropped.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
	})
	return err
}

// run consumes events until the channels close. It is driven with the
// fsnotify channels in production and with plain channels in tests.
func (w *Watcher) run(events chan fsnotify.Event, errs chan error) {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.note(ev.Name)
		case err, ok := <-errs:
			if !ok {
				return
			}
			w.log.Error(err, "filesystem watch error")
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
		!ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	if len(w.exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(ev.Name))
	for _, want := range w.exts {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

func (w *Watcher) note(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	select {
	case <-w.done:
		return
	default:
	}
	if len(paths) > 0 && w.reload != nil {
		w.reload(paths)
	}
}
