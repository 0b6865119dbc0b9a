// Package watcher reports changes to a set of files, debounced.
//
// It backs "storyboard layout --watch": the storyboard file and the layout
// config are watched together and every settled change triggers one
// relayout.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Common errors.
var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrAlreadyStarted = errors.New("watcher already started")
	ErrNoPaths        = errors.New("no paths to watch")
)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets the debounce duration.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounceDuration = d
	}
}

// WithOnChange sets the callback invoked with the changed path once a burst
// of events has settled. When several files change in one burst, the last
// one is reported.
func WithOnChange(fn func(path string)) Option {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithOnError sets the callback invoked on errors.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// Watcher monitors files through fsnotify. It watches the parent
// directories rather than the files, so editors that save by writing a
// temporary file and renaming it over the original are still seen.
type Watcher struct {
	paths            []string
	debounceDuration time.Duration
	onChange         func(string)
	onError          func(error)

	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	cancel    context.CancelFunc
	done      chan struct{}
	started   bool
	mu        sync.Mutex
	changeCh  chan string
}

// NewWatcher creates a watcher for paths. Empty paths are ignored.
func NewWatcher(paths []string, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		debounceDuration: DefaultDebounceDuration,
		onChange:         func(string) {},
		onError:          func(error) {},
		changeCh:         make(chan string, 1),
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(w.paths, abs) {
			w.paths = append(w.paths, abs)
		}
	}
	if len(w.paths) == 0 {
		return nil, ErrNoPaths
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(w.debounceDuration)
	return w, nil
}

// Start begins watching until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	var dirs []string
	for _, p := range w.paths {
		dir := filepath.Dir(p)
		if slices.Contains(dirs, dir) {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		dirs = append(dirs, dir)
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.fsWatcher = fsw
	w.done = make(chan struct{})
	w.started = true
	go w.loop(ctx, fsw, w.done)
	return nil
}

// Stop stops watching and waits for the event loop to exit. Pending
// debounced notifications are dropped.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.cancel()
	w.started = false
	done := w.done
	w.mu.Unlock()

	<-done
	w.debouncer.Cancel()
}

// Changed returns a channel that receives the changed path. Sends are
// non-blocking: a reader that falls behind sees only one pending change.
func (w *Watcher) Changed() <-chan string {
	return w.changeCh
}

// Paths returns the watched absolute paths.
func (w *Watcher) Paths() []string {
	return slices.Clone(w.paths)
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	defer fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			path := filepath.Clean(event.Name)
			if !slices.Contains(w.paths, path) {
				continue
			}
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
				w.debouncer.Trigger(func() { w.notify(path) })
			case event.Has(fsnotify.Remove):
				// Save-by-rename shows up as Remove followed by Create;
				// only the Create is debounced into a change.
				w.onError(fmt.Errorf("%w: %s", ErrFileRemoved, path))
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) notify(path string) {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if !started {
		return
	}

	w.onChange(path)
	select {
	case w.changeCh <- path:
	default:
	}
}
